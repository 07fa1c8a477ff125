package models

import "github.com/shopspring/decimal"

// PortfolioSnapshot is a complete replacement state for the portfolio view,
// pushed by the server over the portfolio channel. Snapshots are never
// deltas; each one fully supersedes the previous.
type PortfolioSnapshot struct {
	NetWorth  decimal.Decimal   `json:"net_worth"`
	Exchanges []ExchangeHolding `json:"exchanges"`
	Wallets   []WalletHolding   `json:"wallets"`
}

// ExchangeHolding is the valuation of a single exchange account.
type ExchangeHolding struct {
	Name     string          `json:"name"`
	URL      string          `json:"url"`
	Total    decimal.Decimal `json:"total"`
	Satoshis decimal.Decimal `json:"satoshis"`
	Coins    []CoinHolding   `json:"coins"`
}

// CoinHolding is a single coin balance held on an exchange.
type CoinHolding struct {
	Currency  string          `json:"currency"`
	Balance   decimal.Decimal `json:"balance"`
	Available decimal.Decimal `json:"available"`
	Pending   decimal.Decimal `json:"pending"`
	Price     decimal.Decimal `json:"price"`
	Address   string          `json:"address"`
	Total     decimal.Decimal `json:"total"`
	BTC       decimal.Decimal `json:"btc"`
}

// WalletHolding is an on-chain wallet balance and its valuation.
type WalletHolding struct {
	Currency string          `json:"currency"`
	Address  string          `json:"address"`
	Balance  decimal.Decimal `json:"balance"`
	NetWorth decimal.Decimal `json:"net_worth"`
}

// Normalize replaces nil collections with empty ones so every published
// snapshot is unconditionally safe to iterate. The server's JSON marshalling
// collapses empty slices to null, which is not a safe input for rendering.
// Idempotent.
func (p *PortfolioSnapshot) Normalize() {
	if p.Exchanges == nil {
		p.Exchanges = []ExchangeHolding{}
	}
	if p.Wallets == nil {
		p.Wallets = []WalletHolding{}
	}
	for i := range p.Exchanges {
		if p.Exchanges[i].Coins == nil {
			p.Exchanges[i].Coins = []CoinHolding{}
		}
	}
}
