// Package xrplmeta fetches the issued-token catalog from an XRPLMeta
// server. The calculation phase uses it to confirm the issuing address
// actually issues a token and to offer a choice when it issues several.
package xrplmeta

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

// DefaultEndpoint is the public XRPLMeta instance.
const DefaultEndpoint = "https://s1.xrplmeta.org"

// Default configuration values.
const (
	DefaultTimeout   = 30 * time.Second
	DefaultPageLimit = 100
)

// IssuedToken is one catalog entry under an issuer.
type IssuedToken struct {
	Currency string
	Name     string // empty when the issuer published no display name
}

// Catalog maps issuing addresses to the tokens they issue.
type Catalog map[string][]IssuedToken

// Tokens returns the issuer's tokens, nil when the issuer is unknown.
func (c Catalog) Tokens(issuer string) []IssuedToken {
	return c[issuer]
}

// Find returns the issuer's token with the given currency code.
func (c Catalog) Find(issuer, currency string) (IssuedToken, bool) {
	for _, t := range c[issuer] {
		if t.Currency == currency {
			return t, true
		}
	}
	return IssuedToken{}, false
}

// Client fetches token pages from an XRPLMeta server.
type Client struct {
	endpoint  string
	pageLimit int
	client    *http.Client
}

// Options contains configuration for creating a Client.
type Options struct {
	Endpoint  string
	PageLimit int
	Timeout   time.Duration
	HTTP      *http.Client
}

// New creates an XRPLMeta client.
func New(opts Options) *Client {
	endpoint := opts.Endpoint
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	pageLimit := opts.PageLimit
	if pageLimit == 0 {
		pageLimit = DefaultPageLimit
	}
	httpClient := opts.HTTP
	if httpClient == nil {
		timeout := opts.Timeout
		if timeout == 0 {
			timeout = DefaultTimeout
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	return &Client{
		endpoint:  endpoint,
		pageLimit: pageLimit,
		client:    httpClient,
	}
}

// tokensResponse is one page of the /tokens listing.
type tokensResponse struct {
	Count  int `json:"count"`
	Tokens []struct {
		Currency string `json:"currency"`
		Issuer   string `json:"issuer"`
		Meta     struct {
			Token struct {
				Name string `json:"name"`
			} `json:"token"`
		} `json:"meta"`
	} `json:"tokens"`
}

// FetchCatalog pages through /tokens (trust levels 1-3) and folds every
// entry into a catalog keyed by issuer.
func (c *Client) FetchCatalog(ctx context.Context) (Catalog, error) {
	catalog := make(Catalog)

	offset := 0
	for {
		page, err := c.fetchPage(ctx, offset)
		if err != nil {
			return nil, err
		}

		for _, token := range page.Tokens {
			catalog[token.Issuer] = append(catalog[token.Issuer], IssuedToken{
				Currency: token.Currency,
				Name:     token.Meta.Token.Name,
			})
		}

		offset += c.pageLimit
		if offset >= page.Count || len(page.Tokens) == 0 {
			return catalog, nil
		}
	}
}

func (c *Client) fetchPage(ctx context.Context, offset int) (*tokensResponse, error) {
	params := url.Values{}
	params.Set("limit", strconv.Itoa(c.pageLimit))
	for _, level := range []string{"1", "2", "3"} {
		params.Add("trust_level", level)
	}
	if offset > 0 {
		params.Set("offset", strconv.Itoa(offset))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint+"/tokens?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch tokens: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d: %s", resp.StatusCode, string(body))
	}

	var page tokensResponse
	if err := json.Unmarshal(body, &page); err != nil {
		return nil, fmt.Errorf("unmarshal tokens: %w", err)
	}
	return &page, nil
}
