package payments

import "context"

type ItemLine struct {
	Name        string
	SKU         string
	Description string
	Quantity    int
	UnitCents   int64
}

type CreateOrderRequest struct {
	// ReferenceID links the provider order back to the local order.
	ReferenceID string

	CurrencyCode  string
	ItemTotal     int64 // cents
	ShippingCents int64
	TotalCents    int64 // always ItemTotal + ShippingCents, computed server-side

	Items       []ItemLine
	Description string

	ReturnURL string
	CancelURL string
}

type ProviderOrder struct {
	ID         string
	ApproveURL string
}

// CaptureResult carries the provider's view of the settled payment.
// Amounts stay as wire strings until verification parses them; nothing
// here is trusted before the cross-check against the local order.
type CaptureResult struct {
	Status      string // COMPLETED expected
	ReferenceID string
	Currency    string
	Value       string // e.g. "19.99"
	CaptureID   string
}

// Provider is the payment processor boundary. The PayPal client
// implements it; tests substitute doubles that replay the provider's
// success and failure shapes.
type Provider interface {
	CreateOrder(ctx context.Context, req CreateOrderRequest) (ProviderOrder, error)
	CaptureOrder(ctx context.Context, providerOrderID string) (CaptureResult, error)
}
