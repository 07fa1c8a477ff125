// Package interfaces defines service contracts for coindeck
package interfaces

import (
	"context"
	"io"

	"github.com/bobmcallan/coindeck/internal/models"
)

// AssistantClient provides access to the trading-assistant REST API.
// Every call attaches the bearer token when a valid session exists at call
// time; session checks are re-evaluated per call, never cached.
type AssistantClient interface {
	// Login exchanges credentials for a bearer token, persists the token on
	// success and returns the claims decoded from it.
	Login(ctx context.Context, username, password string) (*models.Claims, error)

	// Register creates a new account. Validation failures are reported in
	// the result, not as errors.
	Register(ctx context.Context, username, password string) (*RegistrationResult, error)

	// IsAuthenticated reports whether a structurally valid, unexpired token
	// is currently stored. Never returns an error; a malformed token reads
	// as not authenticated.
	IsAuthenticated(ctx context.Context) bool

	// CurrentUser returns the identity decoded from the stored token, or
	// ErrNoSession when IsAuthenticated is false.
	CurrentUser(ctx context.Context) (*models.UserIdentity, error)

	// Logout clears the stored token. Idempotent.
	Logout(ctx context.Context) error

	// Transactions retrieves the transaction history.
	Transactions(ctx context.Context) ([]*models.TransactionRecord, error)

	// SyncTransactions triggers a server-side sync and returns the result.
	SyncTransactions(ctx context.Context) ([]*models.TransactionRecord, error)

	// OrderHistory retrieves exchange order history.
	OrderHistory(ctx context.Context) ([]*models.TransactionRecord, error)

	// ExportTransactions returns the server-rendered CSV export.
	ExportTransactions(ctx context.Context) (string, error)

	// ImportOrders uploads a CSV of orders for the named exchange.
	ImportOrders(ctx context.Context, exchange string, csv io.Reader) ([]*models.TransactionRecord, error)

	// UpdateCategory sets the category on a single transaction.
	UpdateCategory(ctx context.Context, id, category string) error

	// CreateExchange registers an exchange account against the user profile.
	CreateExchange(ctx context.Context, ex *models.UserExchange) error

	// DeleteExchange removes the named exchange account.
	DeleteExchange(ctx context.Context, name string) error

	// UserExchanges lists the user's registered exchange accounts.
	UserExchanges(ctx context.Context) ([]*models.UserExchange, error)

	// ExchangeNames lists the exchange display names supported server-side.
	ExchangeNames(ctx context.Context) ([]string, error)
}

// RegistrationResult reports the outcome of a Register call.
type RegistrationResult struct {
	Success bool
	Error   string
}

// StreamState is the lifecycle state of a portfolio stream.
type StreamState int

const (
	StateIdle StreamState = iota
	StateConnecting
	StateOpen
	StateClosed
)

func (s StreamState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateConnecting:
		return "connecting"
	case StateOpen:
		return "open"
	case StateClosed:
		return "closed"
	}
	return "unknown"
}

// PortfolioStreamer maintains one push-channel connection and publishes
// normalized portfolio snapshots.
type PortfolioStreamer interface {
	// Start opens the channel and sends the identity payload once. Calling
	// Start while connecting or open is a no-op.
	Start(ctx context.Context, identity *models.UserIdentity) error

	// Stop closes the channel. Idempotent, safe mid-message.
	Stop()

	// State returns the current lifecycle state.
	State() StreamState

	// Snapshots delivers each normalized snapshot in arrival order.
	Snapshots() <-chan *models.PortfolioSnapshot

	// Errors delivers diagnostics: malformed frames and the terminal
	// channel-closed notification.
	Errors() <-chan error

	// Current returns the last published snapshot, or nil before the first
	// message arrives.
	Current() *models.PortfolioSnapshot
}
