package webdomain

import (
	"errors"
	"testing"
)

func TestCoreDomain(t *testing.T) {
	tests := []struct {
		website string
		want    string
	}{
		{"https://www.uni-graz.at/de/", "uni-graz.at"},
		{"http://www.tugraz.at", "tugraz.at"},
		{"www.fh-joanneum.at", "fh-joanneum.at"},
		{"https://intranet.admin.uni-wien.ac.at/some/path", "uni-wien.ac.at"},
		{"http://www.open.ac.uk/courses", "open.ac.uk"},
		{"example.github.io", "example.github.io"},
		{"deep.example.github.io", "example.github.io"},
		{"https://site.kasserver.com/", "site.kasserver.com"},
		{"HTTPS://WWW.EXAMPLE.COM", "example.com"},
		{"example.com:8080/login", "example.com"},
		{"example.com.", "example.com"},
		{"  https://example.com  ", "example.com"},
	}

	for _, tt := range tests {
		t.Run(tt.website, func(t *testing.T) {
			got, err := CoreDomain(tt.website)
			if err != nil {
				t.Fatalf("CoreDomain(%q) returned error: %v", tt.website, err)
			}
			if got != tt.want {
				t.Errorf("CoreDomain(%q) = %q, want %q", tt.website, got, tt.want)
			}
		})
	}
}

func TestCoreDomainIdempotent(t *testing.T) {
	for _, website := range []string{"https://intranet.admin.uni-wien.ac.at/x", "deep.example.github.io"} {
		first, err := CoreDomain(website)
		if err != nil {
			t.Fatal(err)
		}
		second, err := CoreDomain(first)
		if err != nil {
			t.Fatal(err)
		}
		if first != second {
			t.Errorf("CoreDomain not idempotent for %q: %q then %q", website, first, second)
		}
	}
}

func TestCoreDomainInvalid(t *testing.T) {
	for _, website := range []string{"", "   ", "https:///path-only", "://"} {
		t.Run(website, func(t *testing.T) {
			if _, err := CoreDomain(website); !errors.Is(err, ErrInvalidURL) {
				t.Errorf("CoreDomain(%q) error = %v, want ErrInvalidURL", website, err)
			}
		})
	}
}

func TestHost(t *testing.T) {
	tests := []struct {
		website string
		want    string
	}{
		{"https://example.com/path?q=1", "example.com"},
		{"example.com", "example.com"},
		{"ftp://files.example.com", "files.example.com"},
		{"Example.COM:443", "example.com"},
		{"example.com.", "example.com"},
	}

	for _, tt := range tests {
		if got := Host(tt.website); got != tt.want {
			t.Errorf("Host(%q) = %q, want %q", tt.website, got, tt.want)
		}
	}
}
