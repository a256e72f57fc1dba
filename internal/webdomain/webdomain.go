// Package webdomain reduces raw website addresses to their registrable
// ("core") domain so that institutions can be compared by internet domain
// regardless of scheme, subdomains or path.
package webdomain

import (
	"strings"

	"golang.org/x/net/publicsuffix"

	"github.com/hei-registry/registrar/internal/dataerr"
)

// ErrInvalidURL is raised when no recognizable host can be extracted from a
// website address.
var ErrInvalidURL = dataerr.New("invalid URL")

// CoreDomain identifies the registrable domain of a URL-like string. The
// scheme and path are ignored, subdomain labels above the registrable domain
// are stripped using public-suffix rules (so exactly one label survives above
// a multi-label suffix such as "ac.at"), and the result is lower-cased.
//
// CoreDomain is a pure function and idempotent: feeding the returned domain
// back in yields the same domain.
func CoreDomain(website string) (string, error) {
	host := Host(website)
	if host == "" {
		return "", dataerr.Newf(ErrInvalidURL, "[%s] is not a valid http/https URL", website)
	}

	domain, err := publicsuffix.EffectiveTLDPlusOne(host)
	if err != nil {
		return "", dataerr.Newf(ErrInvalidURL, "[%s] has no registrable domain: %v", website, err)
	}
	return domain, nil
}

// Host extracts the lower-cased host component of a URL-like string, which
// may lack a scheme and may carry a path, query or port.
func Host(website string) string {
	s := strings.TrimSpace(website)

	if i := strings.Index(s, "://"); i != -1 {
		s = s[i+3:]
	}
	if i := strings.IndexByte(s, '/'); i != -1 {
		s = s[:i]
	}
	if i := strings.IndexByte(s, ':'); i != -1 {
		s = s[:i]
	}
	return strings.ToLower(strings.TrimSuffix(s, "."))
}
