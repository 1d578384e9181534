package paypal

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"elit21.com/shop/internal/modules/payments"
)

// apiDouble serves the token endpoint plus one mocked API route.
func apiDouble(t *testing.T, path string, handler http.HandlerFunc) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/oauth2/token", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"access_token":"tok-1","expires_in":3600}`))
	})
	mux.HandleFunc(path, handler)
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestCreateOrder_WireBody(t *testing.T) {
	var got createOrderBody
	var gotAuth string
	srv := apiDouble(t, "/v2/checkout/orders", func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		raw, _ := io.ReadAll(r.Body)
		require.NoError(t, json.Unmarshal(raw, &got))
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{
			"id":"5O190127TN364715T",
			"status":"CREATED",
			"links":[
				{"href":"https://api.sandbox.paypal.com/v2/checkout/orders/5O190127TN364715T","rel":"self"},
				{"href":"https://www.sandbox.paypal.com/checkoutnow?token=5O190127TN364715T","rel":"approve"}
			]
		}`))
	})

	c := newTestClient(t, Config{Env: EnvSandbox, SandboxBaseURL: srv.URL})

	po, err := c.CreateOrder(context.Background(), payments.CreateOrderRequest{
		ReferenceID:   "42",
		CurrencyCode:  "EUR",
		ItemTotal:     1000,
		ShippingCents: 999,
		TotalCents:    1999,
		Items: []payments.ItemLine{
			{Name: "Hoodie", SKU: "7-black-M", Description: "Color: black / Size: M", Quantity: 2, UnitCents: 500},
		},
		Description: "ELIT21 order #42",
		ReturnURL:   "http://localhost:8080/checkout/success/42",
		CancelURL:   "http://localhost:8080/checkout",
	})
	require.NoError(t, err)

	assert.Equal(t, "5O190127TN364715T", po.ID)
	assert.Equal(t, "https://www.sandbox.paypal.com/checkoutnow?token=5O190127TN364715T", po.ApproveURL)
	assert.Equal(t, "Bearer tok-1", gotAuth)

	assert.Equal(t, "CAPTURE", got.Intent)
	require.Len(t, got.PurchaseUnits, 1)
	pu := got.PurchaseUnits[0]
	assert.Equal(t, "42", pu.ReferenceID)
	assert.Equal(t, "EUR", pu.Amount.CurrencyCode)
	assert.Equal(t, "19.99", pu.Amount.Value)
	require.NotNil(t, pu.Amount.Breakdown)
	assert.Equal(t, "10.00", pu.Amount.Breakdown.ItemTotal.Value)
	assert.Equal(t, "9.99", pu.Amount.Breakdown.Shipping.Value)
	require.Len(t, pu.Items, 1)
	assert.Equal(t, "Hoodie", pu.Items[0].Name)
	assert.Equal(t, "2", pu.Items[0].Quantity)
	assert.Equal(t, "5.00", pu.Items[0].UnitAmount.Value)
	assert.Equal(t, "PHYSICAL_GOODS", pu.Items[0].Category)

	assert.Equal(t, "ELIT21", got.ApplicationContext.BrandName)
	assert.Equal(t, "NO_SHIPPING", got.ApplicationContext.ShippingPreference)
	assert.Equal(t, "PAY_NOW", got.ApplicationContext.UserAction)
}

func TestCreateOrder_MissingID(t *testing.T) {
	srv := apiDouble(t, "/v2/checkout/orders", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"status":"CREATED"}`))
	})
	c := newTestClient(t, Config{Env: EnvSandbox, SandboxBaseURL: srv.URL})

	_, err := c.CreateOrder(context.Background(), payments.CreateOrderRequest{
		ReferenceID: "42", CurrencyCode: "EUR", TotalCents: 100,
	})
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Contains(t, apiErr.Body, "no order id")
}

func TestCreateOrder_UpstreamError(t *testing.T) {
	srv := apiDouble(t, "/v2/checkout/orders", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte(`{"name":"UNPROCESSABLE_ENTITY"}`))
	})
	c := newTestClient(t, Config{Env: EnvSandbox, SandboxBaseURL: srv.URL})

	_, err := c.CreateOrder(context.Background(), payments.CreateOrderRequest{
		ReferenceID: "42", CurrencyCode: "EUR", TotalCents: 100,
	})
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusUnprocessableEntity, apiErr.StatusCode)
	assert.Equal(t, "/v2/checkout/orders", apiErr.Path)
}

func TestCaptureOrder_ParsesCapture(t *testing.T) {
	srv := apiDouble(t, "/v2/checkout/orders/5O190127TN364715T/capture", func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{
			"id":"5O190127TN364715T",
			"status":"COMPLETED",
			"purchase_units":[{
				"reference_id":"42",
				"payments":{"captures":[{
					"id":"3C679366HH908993F",
					"status":"COMPLETED",
					"amount":{"currency_code":"EUR","value":"19.99"}
				}]}
			}]
		}`))
	})
	c := newTestClient(t, Config{Env: EnvSandbox, SandboxBaseURL: srv.URL})

	res, err := c.CaptureOrder(context.Background(), "5O190127TN364715T")
	require.NoError(t, err)
	assert.Equal(t, "COMPLETED", res.Status)
	assert.Equal(t, "42", res.ReferenceID)
	assert.Equal(t, "EUR", res.Currency)
	assert.Equal(t, "19.99", res.Value)
	assert.Equal(t, "3C679366HH908993F", res.CaptureID)
}

func TestCaptureOrder_EmptyUnits(t *testing.T) {
	srv := apiDouble(t, "/v2/checkout/orders/X/capture", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"id":"X","status":"COMPLETED"}`))
	})
	c := newTestClient(t, Config{Env: EnvSandbox, SandboxBaseURL: srv.URL})

	res, err := c.CaptureOrder(context.Background(), "X")
	require.NoError(t, err)
	assert.Equal(t, "COMPLETED", res.Status)
	assert.Empty(t, res.ReferenceID)
	assert.Empty(t, res.Value)
}

func TestRedact(t *testing.T) {
	in := `{"access_token":"A21AAa-secret-token","token_type":"Bearer"}`
	out := redact(in)
	assert.NotContains(t, out, "A21AAa-secret-token")
	assert.Contains(t, out, `"access_token":"[redacted]"`)
}
