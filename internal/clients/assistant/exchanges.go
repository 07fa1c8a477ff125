package assistant

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/bobmcallan/coindeck/internal/models"
)

// CreateExchange registers an exchange account against the user profile.
// Credentials travel as a multipart form, matching the server contract.
func (c *Client) CreateExchange(ctx context.Context, ex *models.UserExchange) error {
	fields := map[string]string{
		"name":   ex.Name,
		"key":    ex.Key,
		"secret": ex.Secret,
		"extra":  ex.Extra,
	}
	body, contentType, err := multipartForm(fields, "", "", nil)
	if err != nil {
		return err
	}
	_, err = c.doEnvelope(ctx, http.MethodPost, "/user/exchange", contentType, body)
	return err
}

// DeleteExchange removes the named exchange account.
func (c *Client) DeleteExchange(ctx context.Context, name string) error {
	body, contentType, err := multipartForm(nil, "", "", nil)
	if err != nil {
		return err
	}
	_, err = c.doEnvelope(ctx, http.MethodPost, "/user/exchange/"+name, contentType, body)
	return err
}

// UserExchanges lists the user's registered exchange accounts.
func (c *Client) UserExchanges(ctx context.Context) ([]*models.UserExchange, error) {
	payload, err := c.doEnvelope(ctx, http.MethodGet, "/user/exchanges", "application/json", nil)
	if err != nil {
		return nil, err
	}

	var exchanges []*models.UserExchange
	if len(payload) > 0 {
		if err := json.Unmarshal(payload, &exchanges); err != nil {
			return nil, fmt.Errorf("failed to decode user exchanges: %w", err)
		}
	}
	if exchanges == nil {
		exchanges = []*models.UserExchange{}
	}
	return exchanges, nil
}

// ExchangeNames lists the exchange display names supported server-side.
func (c *Client) ExchangeNames(ctx context.Context) ([]string, error) {
	payload, err := c.doEnvelope(ctx, http.MethodGet, "/exchanges/names", "application/json", nil)
	if err != nil {
		return nil, err
	}

	var names []string
	if len(payload) > 0 {
		if err := json.Unmarshal(payload, &names); err != nil {
			return nil, fmt.Errorf("failed to decode exchange names: %w", err)
		}
	}
	if names == nil {
		names = []string{}
	}
	return names, nil
}
