package models

// CurrencyPair identifies the traded pair of a transaction.
type CurrencyPair struct {
	Base          string `json:"base"`
	Quote         string `json:"quote"`
	LocalCurrency string `json:"local_currency"`
}

// TransactionRecord is a single ledger entry as served by the transactions
// endpoints. Monetary amounts arrive as pre-formatted strings paired with a
// currency code; the server owns the authoritative copy and the only local
// mutation is a category update round trip.
type TransactionRecord struct {
	ID                     string        `json:"id"`
	Network                string        `json:"network"`
	NetworkDisplayName     string        `json:"network_display_name"`
	Date                   string        `json:"date"`
	Type                   string        `json:"type"`
	Category               string        `json:"category"`
	CurrencyPair           *CurrencyPair `json:"currency_pair"`
	Quantity               string        `json:"quantity"`
	QuantityCurrency       string        `json:"quantity_currency"`
	FiatQuantity           string        `json:"fiat_quantity"`
	FiatQuantityCurrency   string        `json:"fiat_quantity_currency"`
	Price                  string        `json:"price"`
	PriceCurrency          string        `json:"price_currency"`
	FiatPrice              string        `json:"fiat_price"`
	FiatPriceCurrency      string        `json:"fiat_price_currency"`
	QuoteFiatPrice         string        `json:"quote_fiat_price"`
	QuoteFiatPriceCurrency string        `json:"quote_fiat_price_currency"`
	Fee                    string        `json:"fee"`
	FeeCurrency            string        `json:"fee_currency"`
	FiatFee                string        `json:"fiat_fee"`
	FiatFeeCurrency        string        `json:"fiat_fee_currency"`
	Total                  string        `json:"total"`
	TotalCurrency          string        `json:"total_currency"`
	FiatTotal              string        `json:"fiat_total"`
	FiatTotalCurrency      string        `json:"fiat_total_currency"`
}
