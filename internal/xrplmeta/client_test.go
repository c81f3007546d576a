package xrplmeta

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFetchCatalog_Pagination(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		query := r.URL.Query()
		assert.Equal(t, "2", query.Get("limit"))
		assert.ElementsMatch(t, []string{"1", "2", "3"}, query["trust_level"])

		switch query.Get("offset") {
		case "":
			fmt.Fprint(w, `{"count": 3, "tokens": [
				{"currency": "XNT", "issuer": "rIssuerA", "meta": {"token": {"name": "XNET"}}},
				{"currency": "USD", "issuer": "rIssuerB", "meta": {"token": {}}}
			]}`)
		case "2":
			fmt.Fprint(w, `{"count": 3, "tokens": [
				{"currency": "EUR", "issuer": "rIssuerB", "meta": {"token": {"name": "Euro"}}}
			]}`)
		default:
			t.Errorf("unexpected offset %q", query.Get("offset"))
		}
	}))
	defer server.Close()

	client := New(Options{Endpoint: server.URL, PageLimit: 2})
	catalog, err := client.FetchCatalog(context.Background())
	require.NoError(t, err)

	require.Len(t, catalog.Tokens("rIssuerA"), 1)
	require.Len(t, catalog.Tokens("rIssuerB"), 2)
	assert.Nil(t, catalog.Tokens("rNobody"))

	token, ok := catalog.Find("rIssuerA", "XNT")
	require.True(t, ok)
	assert.Equal(t, "XNET", token.Name)

	// Issuers may publish tokens without a display name.
	token, ok = catalog.Find("rIssuerB", "USD")
	require.True(t, ok)
	assert.Empty(t, token.Name)

	_, ok = catalog.Find("rIssuerB", "JPY")
	assert.False(t, ok)
}

func TestFetchCatalog_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusBadGateway)
	}))
	defer server.Close()

	client := New(Options{Endpoint: server.URL})
	_, err := client.FetchCatalog(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "502")
}
