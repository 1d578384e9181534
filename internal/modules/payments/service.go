package payments

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	"elit21.com/shop/internal/modules/orders"
)

// OrderStore is the order-record collaborator. orders.Repo implements
// it; tests substitute a double so every credential/status combination
// can be replayed deterministically.
type OrderStore interface {
	GetWithItems(ctx context.Context, id uint64) (orders.Order, []orders.OrderItem, error)
	MarkCreated(ctx context.Context, id uint64, providerOrderID string) (bool, error)
	MarkCaptured(ctx context.Context, id uint64, captureID string) (bool, error)
	MarkFailed(ctx context.Context, id uint64, reason string) (bool, error)
}

type Service struct {
	store    OrderStore
	provider Provider
	logger   *slog.Logger
	baseURL  string
}

func NewService(store OrderStore, provider Provider, logger *slog.Logger, baseURL string) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{store: store, provider: provider, logger: logger, baseURL: baseURL}
}

type CreateOrderResult struct {
	OrderID         uint64
	ProviderOrderID string
	ApproveURL      string
	TotalCents      int64
}

// CreateOrder builds and submits the provider order for a pending local
// order. The total is recomputed here from the stored item lines plus
// the shipping fee; whatever amount a client posted never reaches the
// provider. On provider failure the order stays pending, so the call is
// safely repeatable.
func (s *Service) CreateOrder(ctx context.Context, orderID uint64) (CreateOrderResult, error) {
	o, items, err := s.store.GetWithItems(ctx, orderID)
	if err != nil {
		return CreateOrderResult{}, err
	}
	if o.Status != orders.StatusPending {
		return CreateOrderResult{}, ErrOrderNotPayable
	}
	if len(items) == 0 {
		return CreateOrderResult{}, orders.ErrEmptyOrder
	}

	var itemTotal int64
	lines := make([]ItemLine, 0, len(items))
	for _, it := range items {
		itemTotal += it.LineTotalCents()
		lines = append(lines, ItemLine{
			Name:        it.ProductName,
			SKU:         fmt.Sprintf("%d-%s-%s", it.ProductID, it.Color, it.Size),
			Description: fmt.Sprintf("Color: %s / Size: %s", it.Color, it.Size),
			Quantity:    it.Quantity,
			UnitCents:   it.UnitPriceCents,
		})
	}
	total := itemTotal + o.ShippingCents

	ref := strconv.FormatUint(o.ID, 10)
	po, err := s.provider.CreateOrder(ctx, CreateOrderRequest{
		ReferenceID:   ref,
		CurrencyCode:  o.Currency,
		ItemTotal:     itemTotal,
		ShippingCents: o.ShippingCents,
		TotalCents:    total,
		Items:         lines,
		Description:   "ELIT21 order #" + ref,
		ReturnURL:     s.baseURL + "/checkout/success/" + ref,
		CancelURL:     s.baseURL + "/checkout",
	})
	if err != nil {
		s.logger.ErrorContext(ctx, "provider order creation failed",
			"order_id", o.ID, "err", err)
		return CreateOrderResult{}, &CreationError{OrderID: o.ID, Err: err}
	}

	ok, err := s.store.MarkCreated(ctx, o.ID, po.ID)
	if err != nil {
		return CreateOrderResult{}, err
	}
	if !ok {
		// someone else moved the order while we talked to the provider
		return CreateOrderResult{}, ErrOrderNotPayable
	}

	s.logger.InfoContext(ctx, "provider order created",
		"order_id", o.ID, "provider_order_id", po.ID, "total_cents", total)

	return CreateOrderResult{
		OrderID:         o.ID,
		ProviderOrderID: po.ID,
		ApproveURL:      po.ApproveURL,
		TotalCents:      total,
	}, nil
}
