// Package aur talks to the Arch User Repository: the RPC v5 search and info
// endpoints, raw PKGBUILD and .SRCINFO files from cgit, and the package
// comments page.
package aur

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/hashicorp/go-hclog"

	"github.com/papapumpkin/pacsea/internal/pkginfo"
)

// DefaultBaseURL is the public AUR host.
const DefaultBaseURL = "https://aur.archlinux.org"

// DefaultGitLabURL hosts the packaging repositories of official packages.
const DefaultGitLabURL = "https://gitlab.archlinux.org/archlinux/packaging/packages"

// maxBody caps every response read from the network.
const maxBody = 8 << 20

// ErrNotFound is returned when the AUR has no record for a package.
var ErrNotFound = errors.New("aur: not found")

// Client is an AUR HTTP client.
type Client struct {
	BaseURL   string
	GitLabURL string

	l       hclog.Logger
	hClient *http.Client
}

// New creates a Client. An empty baseURL selects DefaultBaseURL; a zero
// timeout selects 10 seconds.
func New(baseURL string, timeout time.Duration, l hclog.Logger) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if l == nil {
		l = hclog.NewNullLogger()
	}
	return &Client{
		BaseURL:   strings.TrimRight(baseURL, "/"),
		GitLabURL: DefaultGitLabURL,
		l:         l.Named("aur"),
		hClient:   &http.Client{Timeout: timeout},
	}
}

func (c *Client) get(ctx context.Context, rawURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", "pacsea")
	resp, err := c.hClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return nil, err
	}
	if resp.StatusCode == http.StatusNotFound {
		return nil, ErrNotFound
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %s", resp.Status)
	}
	return body, nil
}

// rpcPackage is one entry of an RPC v5 response.
type rpcPackage struct {
	Name           string   `json:"Name"`
	PackageBase    string   `json:"PackageBase"`
	Version        string   `json:"Version"`
	Description    string   `json:"Description"`
	URL            string   `json:"URL"`
	Popularity     float64  `json:"Popularity"`
	NumVotes       int      `json:"NumVotes"`
	OutOfDate      *int64   `json:"OutOfDate"`
	Maintainer     *string  `json:"Maintainer"`
	LastModified   int64    `json:"LastModified"`
	FirstSubmitted int64    `json:"FirstSubmitted"`
	Depends        []string `json:"Depends"`
	MakeDepends    []string `json:"MakeDepends"`
	CheckDepends   []string `json:"CheckDepends"`
	OptDepends     []string `json:"OptDepends"`
	Conflicts      []string `json:"Conflicts"`
	Provides       []string `json:"Provides"`
	Replaces       []string `json:"Replaces"`
	Groups         []string `json:"Groups"`
	License        []string `json:"License"`
}

type rpcResponse struct {
	Type        string       `json:"type"`
	Error       string       `json:"error"`
	ResultCount int          `json:"resultcount"`
	Results     []rpcPackage `json:"results"`
}

func (c *Client) rpc(ctx context.Context, rawURL string) ([]rpcPackage, error) {
	body, err := c.get(ctx, rawURL)
	if err != nil {
		return nil, err
	}
	var resp rpcResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("decoding rpc response: %w", err)
	}
	if resp.Type == "error" {
		return nil, fmt.Errorf("rpc error: %s", resp.Error)
	}
	return resp.Results, nil
}

func (p rpcPackage) item() pkginfo.PackageItem {
	pop := p.Popularity
	return pkginfo.PackageItem{
		Name:        p.Name,
		Version:     p.Version,
		Description: p.Description,
		Source:      pkginfo.AUR(),
		Popularity:  &pop,
		OutOfDate:   p.OutOfDate,
		Orphaned:    p.Maintainer == nil,
	}
}

func (p rpcPackage) details() pkginfo.PackageDetails {
	pop := p.Popularity
	d := pkginfo.PackageDetails{
		Repository:   "AUR",
		Name:         p.Name,
		Version:      p.Version,
		Description:  p.Description,
		Architecture: "any",
		URL:          p.URL,
		Licenses:     p.License,
		Groups:       p.Groups,
		Provides:     p.Provides,
		Depends:      p.Depends,
		OptDepends:   p.OptDepends,
		Conflicts:    p.Conflicts,
		Replaces:     p.Replaces,
		Popularity:   &pop,
	}
	if p.Maintainer != nil {
		d.Owner = *p.Maintainer
	}
	if p.LastModified > 0 {
		d.BuildDate = time.Unix(p.LastModified, 0).UTC().Format("2006-01-02 15:04 MST")
	}
	return d
}

// Search queries the RPC search endpoint by name and description.
func (c *Client) Search(ctx context.Context, query string) ([]pkginfo.PackageItem, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, nil
	}
	u := c.BaseURL + "/rpc/v5/search/" + url.PathEscape(query) + "?by=name-desc"
	results, err := c.rpc(ctx, u)
	if err != nil {
		return nil, fmt.Errorf("aur: search %q: %w", query, err)
	}
	items := make([]pkginfo.PackageItem, 0, len(results))
	for _, r := range results {
		items = append(items, r.item())
	}
	c.l.Debug("search", "query", query, "results", len(items))
	return items, nil
}

// Info fetches details for names with a single multi-info request. Names the
// AUR does not know are absent from the result.
func (c *Client) Info(ctx context.Context, names []string) (map[string]pkginfo.PackageDetails, error) {
	out := make(map[string]pkginfo.PackageDetails, len(names))
	if len(names) == 0 {
		return out, nil
	}
	q := url.Values{}
	for _, n := range names {
		q.Add("arg[]", n)
	}
	results, err := c.rpc(ctx, c.BaseURL+"/rpc/v5/info?"+q.Encode())
	if err != nil {
		return nil, fmt.Errorf("aur: info: %w", err)
	}
	for _, r := range results {
		out[r.Name] = r.details()
	}
	return out, nil
}

// PKGBUILD fetches the PKGBUILD of an AUR package from cgit.
func (c *Client) PKGBUILD(ctx context.Context, name string) (string, error) {
	body, err := c.get(ctx, c.BaseURL+"/cgit/aur.git/plain/PKGBUILD?h="+url.QueryEscape(name))
	if err != nil {
		return "", fmt.Errorf("aur: pkgbuild %s: %w", name, err)
	}
	text := string(body)
	if strings.TrimSpace(text) == "" || !strings.Contains(text, "pkgname") {
		return "", fmt.Errorf("aur: pkgbuild %s: empty or invalid PKGBUILD", name)
	}
	return text, nil
}

// OfficialPKGBUILD fetches the PKGBUILD of an official package from the
// packaging GitLab, trying the main branch before master.
func (c *Client) OfficialPKGBUILD(ctx context.Context, name string) (string, error) {
	var lastErr error
	for _, branch := range []string{"main", "master"} {
		u := fmt.Sprintf("%s/%s/-/raw/%s/PKGBUILD", c.GitLabURL, url.PathEscape(name), branch)
		body, err := c.get(ctx, u)
		if err == nil {
			return string(body), nil
		}
		lastErr = err
	}
	return "", fmt.Errorf("aur: official pkgbuild %s: %w", name, lastErr)
}

// SRCINFO fetches the raw .SRCINFO of an AUR package. HTML error pages and
// empty bodies are rejected.
func (c *Client) SRCINFO(ctx context.Context, name string) (string, error) {
	body, err := c.get(ctx, c.BaseURL+"/cgit/aur.git/plain/.SRCINFO?h="+url.QueryEscape(name))
	if err != nil {
		return "", fmt.Errorf("aur: srcinfo %s: %w", name, err)
	}
	text := string(body)
	trimmed := strings.TrimSpace(text)
	switch {
	case trimmed == "":
		return "", fmt.Errorf("aur: srcinfo %s: empty .SRCINFO content", name)
	case strings.HasPrefix(trimmed, "<html"), strings.HasPrefix(trimmed, "<!DOCTYPE"):
		return "", fmt.Errorf("aur: srcinfo %s: received HTML instead of .SRCINFO", name)
	}
	return text, nil
}

// PackageURL returns the AUR web page of a package.
func (c *Client) PackageURL(name string) string {
	return c.BaseURL + "/packages/" + url.PathEscape(name)
}
