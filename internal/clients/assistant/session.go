package assistant

import (
	"context"
	"fmt"
	"net/http"

	"github.com/golang-jwt/jwt/v5"

	"github.com/bobmcallan/coindeck/internal/interfaces"
	"github.com/bobmcallan/coindeck/internal/models"
)

// decodeClaims extracts identity and expiry claims from a bearer token
// without verifying its signature. The server signed the token; the client
// only needs to read it.
func decodeClaims(tokenString string) (*models.Claims, error) {
	token, _, err := jwt.NewParser().ParseUnverified(tokenString, jwt.MapClaims{})
	if err != nil {
		return nil, fmt.Errorf("malformed token: %w", err)
	}

	mapClaims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, fmt.Errorf("malformed token: unexpected claims type")
	}

	claims := &models.Claims{}
	if v, ok := mapClaims["user_id"].(float64); ok {
		claims.UserID = uint(v)
	}
	if v, ok := mapClaims["username"].(string); ok {
		claims.Username = v
	}
	if v, ok := mapClaims["local_currency"].(string); ok {
		claims.LocalCurrency = v
	}
	if v, ok := mapClaims["exp"].(float64); ok {
		claims.ExpiresAt = int64(v)
	}
	return claims, nil
}

// tokenExpired reports whether the token carries an exp claim in the past.
// A token that cannot be decoded is NOT expired: decode failure is a
// different condition and is caught independently by IsAuthenticated's own
// decode step. Expiry is only asserted when a valid exp claim exists.
func (c *Client) tokenExpired(tokenString string) bool {
	claims, err := decodeClaims(tokenString)
	if err != nil {
		return false
	}
	if claims.ExpiresAt == 0 {
		return false
	}
	return claims.Expired(c.now())
}

// sessionToken returns the stored token when it constitutes a valid
// session, or "" otherwise. Read-then-check happens within a single call so
// the token a request sends is the token that was validated.
func (c *Client) sessionToken(ctx context.Context) string {
	token, err := c.store.GetToken(ctx)
	if err != nil || token == "" {
		return ""
	}
	if _, err := decodeClaims(token); err != nil {
		return ""
	}
	if c.tokenExpired(token) {
		return ""
	}
	return token
}

// IsAuthenticated reports whether a structurally valid, unexpired token is
// currently stored. Malformed tokens read as not authenticated, never as an
// error.
func (c *Client) IsAuthenticated(ctx context.Context) bool {
	return c.sessionToken(ctx) != ""
}

// Claims returns the claims decoded from the stored token, surfacing decode
// failures for callers that explicitly inspect them.
func (c *Client) Claims(ctx context.Context) (*models.Claims, error) {
	token, err := c.store.GetToken(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read token: %w", err)
	}
	if token == "" {
		return nil, ErrNoSession
	}
	return decodeClaims(token)
}

// CurrentUser returns the identity decoded from the stored token, remapped
// to the shape consumers use.
func (c *Client) CurrentUser(ctx context.Context) (*models.UserIdentity, error) {
	if !c.IsAuthenticated(ctx) {
		return nil, ErrNoSession
	}
	claims, err := c.Claims(ctx)
	if err != nil {
		return nil, err
	}
	return claims.Identity(), nil
}

type credentialsRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token string `json:"token"`
	Error string `json:"error"`
}

// Login exchanges credentials for a bearer token. A response with a
// non-empty token is persisted and its claims returned; an empty token is an
// AuthError carrying the server's message and persists nothing.
func (c *Client) Login(ctx context.Context, username, password string) (*models.Claims, error) {
	var resp loginResponse
	req := credentialsRequest{Username: username, Password: password}
	if err := c.doJSON(ctx, http.MethodPost, "/login", req, &resp); err != nil {
		return nil, err
	}

	if resp.Token == "" {
		msg := resp.Error
		if msg == "" {
			msg = "no token in response"
		}
		return nil, &AuthError{Message: msg}
	}

	if err := c.store.SetToken(ctx, resp.Token); err != nil {
		return nil, fmt.Errorf("failed to persist token: %w", err)
	}

	claims, err := decodeClaims(resp.Token)
	if err != nil {
		return nil, fmt.Errorf("server returned undecodable token: %w", err)
	}

	c.logger.Info().Str("username", claims.Username).Msg("Login succeeded")
	return claims, nil
}

type registerResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

// Register creates a new account. Expected validation failures are reported
// in the result, not as errors; no token is persisted either way.
func (c *Client) Register(ctx context.Context, username, password string) (*interfaces.RegistrationResult, error) {
	var resp registerResponse
	req := credentialsRequest{Username: username, Password: password}
	if err := c.doJSON(ctx, http.MethodPost, "/register", req, &resp); err != nil {
		return nil, err
	}
	return &interfaces.RegistrationResult{Success: resp.Success, Error: resp.Error}, nil
}

// Logout clears the stored token unconditionally. Idempotent.
func (c *Client) Logout(ctx context.Context) error {
	return c.store.DeleteToken(ctx)
}
