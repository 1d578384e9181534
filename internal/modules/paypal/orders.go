package paypal

import (
	"context"
	"net/http"
	"strconv"

	"elit21.com/shop/internal/modules/payments"
	"elit21.com/shop/internal/shared/money"
)

// --- /v2/checkout/orders wire types ---

type amount struct {
	CurrencyCode string     `json:"currency_code"`
	Value        string     `json:"value"`
	Breakdown    *breakdown `json:"breakdown,omitempty"`
}

type breakdown struct {
	ItemTotal amount `json:"item_total"`
	Shipping  amount `json:"shipping"`
}

type wireItem struct {
	Name       string `json:"name"`
	Descr      string `json:"description,omitempty"`
	SKU        string `json:"sku,omitempty"`
	UnitAmount amount `json:"unit_amount"`
	Quantity   string `json:"quantity"`
	Category   string `json:"category"`
}

type purchaseUnit struct {
	ReferenceID string     `json:"reference_id"`
	Amount      amount     `json:"amount"`
	Description string     `json:"description,omitempty"`
	Items       []wireItem `json:"items,omitempty"`
}

type applicationContext struct {
	BrandName          string `json:"brand_name"`
	ShippingPreference string `json:"shipping_preference"`
	UserAction         string `json:"user_action"`
	ReturnURL          string `json:"return_url,omitempty"`
	CancelURL          string `json:"cancel_url,omitempty"`
}

type createOrderBody struct {
	Intent             string             `json:"intent"`
	PurchaseUnits      []purchaseUnit     `json:"purchase_units"`
	ApplicationContext applicationContext `json:"application_context"`
}

type link struct {
	Href string `json:"href"`
	Rel  string `json:"rel"`
}

type orderResponse struct {
	ID     string `json:"id"`
	Status string `json:"status"`
	Links  []link `json:"links"`
}

type captureResponse struct {
	ID            string `json:"id"`
	Status        string `json:"status"`
	PurchaseUnits []struct {
		ReferenceID string `json:"reference_id"`
		Payments    struct {
			Captures []struct {
				ID     string `json:"id"`
				Status string `json:"status"`
				Amount amount `json:"amount"`
			} `json:"captures"`
		} `json:"payments"`
	} `json:"purchase_units"`
}

// CreateOrder posts a CAPTURE-intent order carrying the server-computed
// breakdown. The amount in req is authoritative; nothing client-sent
// reaches this call.
func (c *Client) CreateOrder(ctx context.Context, req payments.CreateOrderRequest) (payments.ProviderOrder, error) {
	token, env, err := c.token(ctx)
	if err != nil {
		return payments.ProviderOrder{}, err
	}

	items := make([]wireItem, 0, len(req.Items))
	for _, it := range req.Items {
		items = append(items, wireItem{
			Name:       clip(it.Name, 127),
			Descr:      clip(it.Description, 127),
			SKU:        clip(it.SKU, 127),
			UnitAmount: amount{CurrencyCode: req.CurrencyCode, Value: money.FormatCents(it.UnitCents)},
			Quantity:   strconv.Itoa(it.Quantity),
			Category:   "PHYSICAL_GOODS",
		})
	}

	body := createOrderBody{
		Intent: "CAPTURE",
		PurchaseUnits: []purchaseUnit{{
			ReferenceID: req.ReferenceID,
			Amount: amount{
				CurrencyCode: req.CurrencyCode,
				Value:        money.FormatCents(req.TotalCents),
				Breakdown: &breakdown{
					ItemTotal: amount{CurrencyCode: req.CurrencyCode, Value: money.FormatCents(req.ItemTotal)},
					Shipping:  amount{CurrencyCode: req.CurrencyCode, Value: money.FormatCents(req.ShippingCents)},
				},
			},
			Description: clip(req.Description, 127),
			Items:       items,
		}},
		ApplicationContext: applicationContext{
			BrandName:          "ELIT21",
			ShippingPreference: "NO_SHIPPING",
			UserAction:         "PAY_NOW",
			ReturnURL:          req.ReturnURL,
			CancelURL:          req.CancelURL,
		},
	}

	var resp orderResponse
	if err := c.doJSON(ctx, env, token, http.MethodPost, "/v2/checkout/orders", body, &resp); err != nil {
		return payments.ProviderOrder{}, err
	}
	if resp.ID == "" {
		return payments.ProviderOrder{}, &APIError{
			Method: http.MethodPost, Path: "/v2/checkout/orders",
			StatusCode: http.StatusOK, Body: "response carried no order id",
		}
	}

	out := payments.ProviderOrder{ID: resp.ID}
	for _, l := range resp.Links {
		if l.Rel == "approve" {
			out.ApproveURL = l.Href
			break
		}
	}
	return out, nil
}

// CaptureOrder finalizes the buyer's authorization. The result is
// returned raw; the verification engine owns every judgement about it.
func (c *Client) CaptureOrder(ctx context.Context, providerOrderID string) (payments.CaptureResult, error) {
	token, env, err := c.token(ctx)
	if err != nil {
		return payments.CaptureResult{}, err
	}

	path := "/v2/checkout/orders/" + providerOrderID + "/capture"
	var resp captureResponse
	if err := c.doJSON(ctx, env, token, http.MethodPost, path, struct{}{}, &resp); err != nil {
		return payments.CaptureResult{}, err
	}

	out := payments.CaptureResult{Status: resp.Status}
	if len(resp.PurchaseUnits) > 0 {
		pu := resp.PurchaseUnits[0]
		out.ReferenceID = pu.ReferenceID
		if len(pu.Payments.Captures) > 0 {
			cpt := pu.Payments.Captures[0]
			out.CaptureID = cpt.ID
			out.Currency = cpt.Amount.CurrencyCode
			out.Value = cpt.Amount.Value
		}
	}
	return out, nil
}

func clip(s string, n int) string {
	if len(s) > n {
		return s[:n]
	}
	return s
}

