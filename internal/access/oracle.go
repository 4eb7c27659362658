package access

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	json "github.com/goccy/go-json"

	"dbd/internal/structures"
)

// Entry is one row of a tenant's authorization list as reported by the
// external oracle.
type Entry struct {
	Address string `json:"address"`
	Name    string `json:"name,omitempty"`
	Level   int    `json:"level,omitempty"`
}

// TenantACL is the oracle's answer for one tenant.
type TenantACL struct {
	Admins  []string `json:"admins"`
	Editors []string `json:"editors"`
	Entries []*Entry `json:"entries"`
}

// Oracle resolves a tenant to its authorization lists. Implementations
// must honor ctx cancellation; the resolver bounds every call with a
// timeout.
type Oracle interface {
	TenantACL(ctx context.Context, tenant string) (*TenantACL, error)
}

// HTTPOracle queries an external authorization service
// (whitelist/ACL/contract gateway) over HTTP.
type HTTPOracle struct {
	baseURL string
	client  *http.Client
}

func NewHTTPOracle(baseURL string) *HTTPOracle {
	return &HTTPOracle{
		baseURL: baseURL,
		client:  &http.Client{},
	}
}

func (o *HTTPOracle) TenantACL(ctx context.Context, tenant string) (*TenantACL, error) {
	u := fmt.Sprintf("%s?domain=%s", o.baseURL, url.QueryEscape(tenant))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}

	resp, err := o.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("oracle returned status %d", resp.StatusCode)
	}

	var acl TenantACL
	if err := json.NewDecoder(resp.Body).Decode(&acl); err != nil {
		return nil, fmt.Errorf("decode oracle response: %w", err)
	}
	return &acl, nil
}

func NewOracleProvider(conf *structures.Config) Oracle {
	return NewHTTPOracle(conf.Access.OracleURL)
}
