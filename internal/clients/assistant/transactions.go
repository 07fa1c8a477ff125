package assistant

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/bobmcallan/coindeck/internal/models"
)

// decodeTransactions unwraps an envelope payload into transaction records.
// A null payload decodes to an empty slice so callers can always iterate.
func decodeTransactions(payload json.RawMessage, endpoint string) ([]*models.TransactionRecord, error) {
	var records []*models.TransactionRecord
	if len(payload) > 0 {
		if err := json.Unmarshal(payload, &records); err != nil {
			return nil, fmt.Errorf("failed to decode transactions from %s: %w", endpoint, err)
		}
	}
	if records == nil {
		records = []*models.TransactionRecord{}
	}
	return records, nil
}

// Transactions retrieves the transaction history.
func (c *Client) Transactions(ctx context.Context) ([]*models.TransactionRecord, error) {
	payload, err := c.doEnvelope(ctx, http.MethodGet, "/transactions", "application/json", nil)
	if err != nil {
		return nil, err
	}
	return decodeTransactions(payload, "/transactions")
}

// SyncTransactions triggers a server-side exchange sync and returns the
// refreshed history.
func (c *Client) SyncTransactions(ctx context.Context) ([]*models.TransactionRecord, error) {
	payload, err := c.doEnvelope(ctx, http.MethodGet, "/transactions/sync", "application/json", nil)
	if err != nil {
		return nil, err
	}
	return decodeTransactions(payload, "/transactions/sync")
}

// OrderHistory retrieves exchange order history.
func (c *Client) OrderHistory(ctx context.Context) ([]*models.TransactionRecord, error) {
	payload, err := c.doEnvelope(ctx, http.MethodGet, "/transactions/orderhistory", "application/json", nil)
	if err != nil {
		return nil, err
	}
	return decodeTransactions(payload, "/transactions/orderhistory")
}

// ExportTransactions returns the server-rendered CSV export.
func (c *Client) ExportTransactions(ctx context.Context) (string, error) {
	payload, err := c.doEnvelope(ctx, http.MethodGet, "/transactions/export", "application/json", nil)
	if err != nil {
		return "", err
	}
	var csv string
	if err := json.Unmarshal(payload, &csv); err != nil {
		return "", fmt.Errorf("failed to decode export payload: %w", err)
	}
	return csv, nil
}

// ImportOrders uploads a CSV of orders for the named exchange.
func (c *Client) ImportOrders(ctx context.Context, exchange string, csv io.Reader) ([]*models.TransactionRecord, error) {
	body, contentType, err := multipartForm(map[string]string{"exchange": exchange}, "csv", "orders.csv", csv)
	if err != nil {
		return nil, err
	}
	payload, err := c.doEnvelope(ctx, http.MethodPost, "/transactions/import", contentType, body)
	if err != nil {
		return nil, err
	}
	return decodeTransactions(payload, "/transactions/import")
}

// UpdateCategory sets the category on a single transaction. The server owns
// the authoritative record; this is the only local mutation of the history.
func (c *Client) UpdateCategory(ctx context.Context, id, category string) error {
	body, contentType, err := multipartForm(map[string]string{"category": category}, "", "", nil)
	if err != nil {
		return err
	}
	_, err = c.doEnvelope(ctx, http.MethodPut, "/transactions/"+id, contentType, body)
	return err
}
