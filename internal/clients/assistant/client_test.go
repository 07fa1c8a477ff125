package assistant

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bobmcallan/coindeck/internal/models"
)

func TestStrictStatusClassification(t *testing.T) {
	// Exactly 200 is success; every other status, 2xx included, is a
	// RequestError with the original status preserved.
	statuses := []int{201, 204, 400, 401, 500}

	for _, status := range statuses {
		t.Run(http.StatusText(status), func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(status)
				w.Write([]byte(`{"error":"details"}`))
			}))
			defer srv.Close()

			client := NewClient(srv.URL, &memStore{})
			_, err := client.Transactions(context.Background())

			var reqErr *RequestError
			require.True(t, errors.As(err, &reqErr), "status %d should produce RequestError, got %v", status, err)
			assert.Equal(t, status, reqErr.StatusCode)
			assert.Contains(t, string(reqErr.Body), "details")
		})
	}
}

func TestAuthorizationHeaderAttachedOnlyWhenAuthenticated(t *testing.T) {
	now := time.Unix(1700000000, 0)

	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"success":true,"payload":[]}`))
	}))
	defer srv.Close()

	t.Run("valid session", func(t *testing.T) {
		token := signedToken(t, now.Add(time.Hour))
		client := NewClient(srv.URL, &memStore{token: token}, WithClock(func() time.Time { return now }))

		_, err := client.Transactions(context.Background())
		require.NoError(t, err)
		assert.Equal(t, "Bearer "+token, gotAuth)
	})

	t.Run("no session", func(t *testing.T) {
		client := NewClient(srv.URL, &memStore{})

		_, err := client.Transactions(context.Background())
		require.NoError(t, err)
		assert.Empty(t, gotAuth)
	})

	t.Run("expired session", func(t *testing.T) {
		client := NewClient(srv.URL, &memStore{token: signedToken(t, now.Add(-time.Hour))},
			WithClock(func() time.Time { return now }))

		_, err := client.Transactions(context.Background())
		require.NoError(t, err)
		assert.Empty(t, gotAuth)
	})
}

func TestUnauthorizedResponseLeavesTokenUntouched(t *testing.T) {
	now := time.Unix(1700000000, 0)
	token := signedToken(t, now.Add(time.Hour))

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	store := &memStore{token: token}
	client := NewClient(srv.URL, store, WithClock(func() time.Time { return now }))

	_, err := client.Transactions(context.Background())

	var reqErr *RequestError
	require.True(t, errors.As(err, &reqErr))
	assert.Equal(t, http.StatusUnauthorized, reqErr.StatusCode)
	assert.Equal(t, token, store.token, "401 must not trigger implicit logout")
}

func TestEnvelopeFailureBecomesAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"success":false,"payload":"exchange unreachable"}`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, &memStore{})
	_, err := client.SyncTransactions(context.Background())

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, "exchange unreachable", apiErr.Message)
	assert.Equal(t, "/transactions/sync", apiErr.Endpoint)
}

func TestTransactionsDecodesNullPayload(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"success":true,"payload":null}`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, &memStore{})
	records, err := client.Transactions(context.Background())

	require.NoError(t, err)
	require.NotNil(t, records)
	assert.Empty(t, records)
}

func TestTransactionsDecodesRecords(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/transactions", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"success":true,"payload":[
			{"id":"1","date":"2018-01-15","type":"buy","category":"trade",
			 "currency_pair":{"base":"BTC","quote":"USD","local_currency":"USD"},
			 "quantity":"0.5","price":"14000.00","total":"7000.00","total_currency":"USD"}
		]}`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, &memStore{})
	records, err := client.Transactions(context.Background())

	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "buy", records[0].Type)
	assert.Equal(t, "BTC", records[0].CurrencyPair.Base)
	assert.Equal(t, "7000.00", records[0].Total)
}

func TestImportOrdersMultipart(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/transactions/import", r.URL.Path)
		require.NoError(t, r.ParseMultipartForm(1<<20))

		assert.Equal(t, "gdax", r.FormValue("exchange"))

		file, _, err := r.FormFile("csv")
		require.NoError(t, err)
		defer file.Close()

		buf := make([]byte, 64)
		n, _ := file.Read(buf)
		assert.Contains(t, string(buf[:n]), "date,type,amount")

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"success":true,"payload":[]}`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, &memStore{})
	records, err := client.ImportOrders(context.Background(), "gdax", strings.NewReader("date,type,amount\n"))

	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestUpdateCategoryMultipartPut(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPut, r.Method)
		require.Equal(t, "/transactions/tx-42", r.URL.Path)
		require.NoError(t, r.ParseMultipartForm(1<<20))
		assert.Equal(t, "income", r.FormValue("category"))

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"success":true}`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, &memStore{})
	err := client.UpdateCategory(context.Background(), "tx-42", "income")

	require.NoError(t, err)
}

func TestExportTransactions(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/transactions/export", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"success":true,"payload":"date,type\n2018-01-15,buy\n"}`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, &memStore{})
	csv, err := client.ExportTransactions(context.Background())

	require.NoError(t, err)
	assert.Contains(t, csv, "2018-01-15,buy")
}

func TestCreateExchange(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/user/exchange", r.URL.Path)
		require.NoError(t, r.ParseMultipartForm(1<<20))

		assert.Equal(t, "gdax", r.FormValue("name"))
		assert.Equal(t, "api-key", r.FormValue("key"))
		assert.Equal(t, "api-secret", r.FormValue("secret"))
		assert.Equal(t, "passphrase", r.FormValue("extra"))

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"success":true}`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, &memStore{})
	err := client.CreateExchange(context.Background(), &models.UserExchange{
		Name:   "gdax",
		Key:    "api-key",
		Secret: "api-secret",
		Extra:  "passphrase",
	})

	require.NoError(t, err)
}

func TestDeleteExchange(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/user/exchange/gdax", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"success":true}`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, &memStore{})
	require.NoError(t, client.DeleteExchange(context.Background(), "gdax"))
}

func TestUserExchangesAndNames(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/user/exchanges":
			w.Write([]byte(`{"success":true,"payload":[{"id":"1","name":"gdax","key":"k"}]}`))
		case "/exchanges/names":
			w.Write([]byte(`{"success":true,"payload":["Coinbase Pro","Bittrex","Binance"]}`))
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	}))
	defer srv.Close()

	client := NewClient(srv.URL, &memStore{})
	ctx := context.Background()

	exchanges, err := client.UserExchanges(ctx)
	require.NoError(t, err)
	require.Len(t, exchanges, 1)
	assert.Equal(t, "gdax", exchanges[0].Name)

	names, err := client.ExchangeNames(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"Coinbase Pro", "Bittrex", "Binance"}, names)
}

func TestTransportFailurePropagates(t *testing.T) {
	// Point at a server that is immediately closed.
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	client := NewClient(srv.URL, &memStore{})
	_, err := client.Transactions(context.Background())

	require.Error(t, err)
	var reqErr *RequestError
	assert.False(t, errors.As(err, &reqErr), "network failure is not a RequestError")
}
