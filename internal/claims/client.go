package claims

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/ethereum/go-ethereum/common"

	"feigov/internal/domain"
)

// Client fetches roots and claims from a claims server.
type Client struct {
	Base string
	HTTP *http.Client
}

func NewClient(base string) *Client {
	return &Client{Base: strings.TrimRight(base, "/"), HTTP: http.DefaultClient}
}

// Roots fetches every token root.
func (c *Client) Roots(ctx context.Context) (domain.RootsFile, error) {
	var out domain.RootsFile
	if err := c.getJSON(ctx, "/roots", &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Claim fetches the claim of holder for token.
func (c *Client) Claim(ctx context.Context, token, holder common.Address) (ClaimResponse, error) {
	var out ClaimResponse
	path := "/claims/" + url.PathEscape(token.Hex()) + "/" + url.PathEscape(holder.Hex())
	if err := c.getJSON(ctx, path, &out); err != nil {
		return ClaimResponse{}, err
	}
	return out, nil
}

func (c *Client) getJSON(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.Base+path, nil)
	if err != nil {
		return err
	}
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode/100 != 2 {
		var env ErrorEnvelope
		if json.NewDecoder(resp.Body).Decode(&env) == nil && env.Error.Message != "" {
			return fmt.Errorf("claims get %s: %s: %s", path, resp.Status, env.Error.Message)
		}
		return fmt.Errorf("claims get %s: %s", path, resp.Status)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
