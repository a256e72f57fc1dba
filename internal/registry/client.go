// Package registry is the HTTP client for the remote registry API. It loads
// the reference lists, the institution snapshot and the paginated report
// catalogue, and submits new institution records. All algorithmic work
// happens in the core packages; this is transport only.
package registry

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/hei-registry/registrar/internal/institution"
	"github.com/hei-registry/registrar/internal/levels"
	"github.com/hei-registry/registrar/internal/refdata"
	"github.com/hei-registry/registrar/internal/reports"
)

// snapshotLimit caps the institution snapshot request; the registry holds a
// few thousand institutions.
const snapshotLimit = 10000

// Client represents a registry API client.
type Client struct {
	BaseURL    string
	Token      string
	httpClient *http.Client
}

// NewClient creates a new registry client authenticating with a bearer token.
func NewClient(baseURL, token string) *Client {
	return &Client{
		BaseURL: baseURL,
		Token:   token,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

func (c *Client) get(path string, query url.Values, out any) error {
	u := c.BaseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	req, err := http.NewRequest(http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	c.setHeaders(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to fetch %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("registry API returned status %d for %s: %s", resp.StatusCode, path, string(body))
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response for %s: %w", path, err)
	}
	return nil
}

func (c *Client) post(path string, payload, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to encode request body: %w", err)
	}
	req, err := http.NewRequest(http.MethodPost, c.BaseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	c.setHeaders(req)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to post to %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		respBody, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("registry API returned status %d for %s: %s", resp.StatusCode, path, string(respBody))
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response for %s: %w", path, err)
	}
	return nil
}

func (c *Client) setHeaders(req *http.Request) {
	req.Header.Set("Accept", "application/json")
	if c.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.Token)
	}
}

// Countries fetches the country reference list.
func (c *Client) Countries() (refdata.Countries, error) {
	var countries refdata.Countries
	if err := c.get("/adminapi/v1/select/country/", nil, &countries); err != nil {
		return nil, err
	}
	return countries, nil
}

// QFEHEALevels fetches the QF-EHEA level reference list.
func (c *Client) QFEHEALevels() (levels.List, error) {
	var list levels.List
	if err := c.get("/adminapi/v1/select/qf_ehea_level/", nil, &list); err != nil {
		return nil, err
	}
	return list, nil
}

// RelationshipTypes fetches the hierarchical-relationship-type reference list.
func (c *Client) RelationshipTypes() (refdata.RelationshipTypes, error) {
	var types refdata.RelationshipTypes
	if err := c.get("/adminapi/v1/select/institution_hierarchical_relationship_types/", nil, &types); err != nil {
		return nil, err
	}
	return types, nil
}

// ProviderTypes fetches the provider organization-type reference list.
func (c *Client) ProviderTypes() (refdata.ProviderTypes, error) {
	var types refdata.ProviderTypes
	if err := c.get("/adminapi/v1/select/institutions/organization_type/", nil, &types); err != nil {
		return nil, err
	}
	return types, nil
}

type institutionPage struct {
	Count   int                 `json:"count"`
	Results []institution.Known `json:"results"`
}

// InstitutionSnapshot fetches all known institutions for building the domain
// index.
func (c *Client) InstitutionSnapshot() ([]institution.Known, error) {
	var page institutionPage
	query := url.Values{"limit": {strconv.Itoa(snapshotLimit)}}
	if err := c.get("/connectapi/v1/institutions", query, &page); err != nil {
		return nil, err
	}
	return page.Results, nil
}

// SearchInstitutions searches known institutions by name.
func (c *Client) SearchInstitutions(query string) ([]institution.Known, error) {
	var page institutionPage
	if err := c.get("/connectapi/v1/institutions/", url.Values{"query": {query}}, &page); err != nil {
		return nil, err
	}
	return page.Results, nil
}

type reportPage struct {
	Count   int               `json:"count"`
	Results []*reports.Report `json:"results"`
}

// BrowseReports fetches one page of the report catalogue, optionally filtered
// to a single agency.
func (c *Client) BrowseReports(offset, limit int, agency string) (int, []*reports.Report, error) {
	query := url.Values{
		"offset": {strconv.Itoa(offset)},
		"limit":  {strconv.Itoa(limit)},
	}
	if agency != "" {
		query.Set("agency", agency)
	}
	var page reportPage
	if err := c.get("/webapi/v2/browse/reports/", query, &page); err != nil {
		return 0, nil, err
	}
	return page.Count, page.Results, nil
}

// Report fetches the full detail record of one report.
func (c *Client) Report(id int) (*reports.Report, error) {
	var report reports.Report
	if err := c.get(fmt.Sprintf("/webapi/v2/browse/reports/%d/", id), nil, &report); err != nil {
		return nil, err
	}
	return &report, nil
}

// CreateInstitution submits a canonical institution record and returns the
// assigned registry ID.
func (c *Client) CreateInstitution(hei *institution.CanonicalInstitution) (string, error) {
	var response struct {
		ID int `json:"id"`
	}
	if err := c.post("/adminapi/v1/institutions/", hei, &response); err != nil {
		return "", err
	}
	return fmt.Sprintf("REG%04d", response.ID), nil
}

// ResolveRedirect follows the redirects of a website URL and returns the
// final URL. A connection error is returned as-is so callers can fall back
// to the statically normalized URL; a non-success status keeps the input URL.
func (c *Client) ResolveRedirect(website string) (string, error) {
	req, err := http.NewRequest(http.MethodHead, website, nil)
	if err != nil {
		return "", fmt.Errorf("invalid URL [%s]: %w", website, err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("could not connect to [%s]: %w", website, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return website, nil
	}
	return resp.Request.URL.String(), nil
}
