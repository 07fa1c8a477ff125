package models

import "time"

// Claims holds the identity and expiry data decoded from a bearer token.
// Claims are decoded, never re-verified; the server signed the token and
// the client only reads it.
type Claims struct {
	UserID        uint   `json:"user_id"`
	Username      string `json:"username"`
	LocalCurrency string `json:"local_currency"`
	ExpiresAt     int64  `json:"exp"`
}

// Expired reports whether the claims expiry has passed. A token expiring
// this very second is already invalid; only a strictly future exp counts.
func (c *Claims) Expired(now time.Time) bool {
	return c.ExpiresAt <= now.Unix()
}

// UserIdentity is the consumer-facing identity shape. It is also the exact
// JSON payload sent on the portfolio push channel when it opens.
type UserIdentity struct {
	ID            uint   `json:"id"`
	Username      string `json:"username"`
	LocalCurrency string `json:"local_currency"`
}

// Identity remaps token claims to the shape consumers use.
func (c *Claims) Identity() *UserIdentity {
	return &UserIdentity{
		ID:            c.UserID,
		Username:      c.Username,
		LocalCurrency: c.LocalCurrency,
	}
}
