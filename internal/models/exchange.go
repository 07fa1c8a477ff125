package models

// UserExchange is an exchange account registered against the user's profile.
// The secret is write-only: it is submitted when the account is created and
// never echoed back by the server.
type UserExchange struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	URL    string `json:"url"`
	Key    string `json:"key"`
	Secret string `json:"-"`
	Extra  string `json:"extra"`
}
