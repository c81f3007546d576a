package xrpl

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"xrpl-airdrop/internal/domain"
)

func TestHTTPClient_AccountLines_Pagination(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req rpcRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Equal(t, "account_lines", req.Method)
		require.Len(t, req.Params, 1)

		params := req.Params[0].(map[string]interface{})
		require.Equal(t, "rIssuer", params["account"])
		require.Equal(t, "validated", params["ledger_index"])

		if calls.Add(1) == 1 {
			require.Nil(t, params["marker"])
			w.Write([]byte(`{"result": {
				"account": "rIssuer",
				"lines": [{"account": "rHolderA", "currency": "USD", "balance": "10"}],
				"ledger_index": 90000000,
				"marker": "page2",
				"status": "success"
			}}`))
			return
		}
		require.Equal(t, "page2", params["marker"])
		w.Write([]byte(`{"result": {
			"account": "rIssuer",
			"lines": [{"account": "rHolderB", "currency": "USD", "balance": "-5"}],
			"ledger_index": 90000000,
			"status": "success"
		}}`))
	}))
	defer server.Close()

	client := NewHTTPClient(server.URL)
	defer client.Close()

	ctx := context.Background()
	page, err := client.AccountLines(ctx, &AccountLinesRequest{Account: "rIssuer"})
	require.NoError(t, err)
	require.Len(t, page.Lines, 1)
	assert.Equal(t, "rHolderA", page.Lines[0].Account)
	require.NotEmpty(t, page.Marker)

	page, err = client.AccountLines(ctx, &AccountLinesRequest{Account: "rIssuer", Marker: page.Marker})
	require.NoError(t, err)
	require.Len(t, page.Lines, 1)
	assert.Equal(t, "rHolderB", page.Lines[0].Account)
	assert.Empty(t, page.Marker)
	assert.Equal(t, int32(2), calls.Load())
}

func TestHTTPClient_APIErrorNotRetried(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Write([]byte(`{"result": {
			"error": "actNotFound",
			"error_code": 19,
			"error_message": "Account not found.",
			"status": "error"
		}}`))
	}))
	defer server.Close()

	client := NewHTTPClient(server.URL, WithRetryDelay(time.Millisecond))
	defer client.Close()

	_, err := client.AccountInfo(context.Background(), "rGone")
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "actNotFound", apiErr.Name)
	assert.Equal(t, int32(1), calls.Load(), "server-reported errors must not be retried")
}

func TestHTTPClient_RetriesServerFailures(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch calls.Add(1) {
		case 1:
			w.WriteHeader(http.StatusInternalServerError)
		case 2:
			w.WriteHeader(http.StatusTooManyRequests)
		default:
			w.Write([]byte(`{"result": {
				"account_data": {"Account": "rHolder", "Balance": "25000000"},
				"ledger_index": 90000000,
				"status": "success"
			}}`))
		}
	}))
	defer server.Close()

	client := NewHTTPClient(server.URL, WithRetryDelay(time.Millisecond), WithMaxRetries(5))
	defer client.Close()

	info, err := client.AccountInfo(context.Background(), "rHolder")
	require.NoError(t, err)
	assert.Equal(t, "25000000", info.AccountData.Balance)
	assert.Equal(t, int32(3), calls.Load())
}

func TestHTTPClient_MaxRetriesExceeded(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	client := NewHTTPClient(server.URL, WithRetryDelay(time.Millisecond), WithMaxRetries(2))
	defer client.Close()

	_, err := client.AccountInfo(context.Background(), "rHolder")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "max retries exceeded")
}

func TestHTTPClient_Submit(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req rpcRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Equal(t, "submit", req.Method)

		params := req.Params[0].(map[string]interface{})
		assert.Equal(t, "shhh", params["secret"])

		tx := params["tx_json"].(map[string]interface{})
		assert.Equal(t, "Payment", tx["TransactionType"])
		assert.Equal(t, "rSender", tx["Account"])
		assert.Equal(t, "rDest", tx["Destination"])

		amount := tx["Amount"].(map[string]interface{})
		assert.Equal(t, "USD", amount["currency"])
		assert.Equal(t, "rIssuer", amount["issuer"])
		assert.Equal(t, "12.5", amount["value"])

		w.Write([]byte(`{"result": {
			"engine_result": "tesSUCCESS",
			"engine_result_message": "The transaction was applied.",
			"accepted": true,
			"status": "success"
		}}`))
	}))
	defer server.Close()

	client := NewHTTPClient(server.URL)
	defer client.Close()

	res, err := client.Submit(context.Background(), "shhh", "rSender", &Payment{
		Destination: "rDest",
		Amount:      decimal.RequireFromString("12.5"),
		Token:       domain.Issued("rIssuer", "USD", "Dollars"),
	})
	require.NoError(t, err)
	assert.Equal(t, "tesSUCCESS", res.EngineResult)
	assert.True(t, res.Accepted)
}

func TestHTTPClient_Submit_NativeAmountInDrops(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req rpcRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))

		tx := req.Params[0].(map[string]interface{})["tx_json"].(map[string]interface{})
		assert.Equal(t, "2500000", tx["Amount"], "native amounts travel as drop strings")

		w.Write([]byte(`{"result": {"engine_result": "tesSUCCESS", "accepted": true, "status": "success"}}`))
	}))
	defer server.Close()

	client := NewHTTPClient(server.URL)
	defer client.Close()

	_, err := client.Submit(context.Background(), "shhh", "rSender", &Payment{
		Destination: "rDest",
		Amount:      decimal.RequireFromString("2.5"),
		Token:       domain.Native(),
	})
	require.NoError(t, err)
}

func TestHTTPClient_Submit_TruncatesComputedYield(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req rpcRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))

		tx := req.Params[0].(map[string]interface{})["tx_json"].(map[string]interface{})
		assert.Equal(t, "333333333", tx["Amount"], "sub-drop precision is dropped at the payment boundary")

		w.Write([]byte(`{"result": {"engine_result": "tesSUCCESS", "accepted": true, "status": "success"}}`))
	}))
	defer server.Close()

	client := NewHTTPClient(server.URL)
	defer client.Close()

	// The shape a yield takes after a budget/sum division.
	res, err := client.Submit(context.Background(), "shhh", "rSender", &Payment{
		Destination: "rDest",
		Amount:      decimal.RequireFromString("333.3333333333333333"),
		Token:       domain.Native(),
	})
	require.NoError(t, err)
	assert.Equal(t, "tesSUCCESS", res.EngineResult)
}

func TestHTTPClient_ContextCancelled(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	client := NewHTTPClient(server.URL, WithRetryDelay(time.Hour))
	defer client.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := client.AccountInfo(ctx, "rHolder")
	require.ErrorIs(t, err, context.Canceled)
}
