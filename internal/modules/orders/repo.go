package orders

import (
	"context"
	"errors"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"elit21.com/shop/internal/modules/checkout"
)

type Repo struct{ db *gorm.DB }

func NewRepo(db *gorm.DB) *Repo { return &Repo{db: db} }

// DB returns the underlying database connection for direct queries.
func (r *Repo) DB() *gorm.DB { return r.db }

type CreatePendingInput struct {
	UserID        *uint64
	CustomerName  string
	CustomerEmail string
	AddressJSON   []byte
	Currency      string
	ShippingCents int64
	Items         []OrderItem // unit prices already resolved server-side
}

// CreatePending records the order before the provider is contacted.
// Stock is checked (not deducted) inside the same transaction so the
// buyer is not redirected to the provider for an unfulfillable cart.
func (r *Repo) CreatePending(ctx context.Context, in CreatePendingInput) (Order, error) {
	if len(in.Items) == 0 {
		return Order{}, ErrEmptyOrder
	}

	var subtotal int64
	for _, it := range in.Items {
		if it.Currency != in.Currency {
			return Order{}, ErrCurrencyMismatch
		}
		subtotal += it.LineTotalCents()
	}

	now := time.Now()
	o := Order{
		UserID:              in.UserID,
		CustomerName:        in.CustomerName,
		CustomerEmail:       in.CustomerEmail,
		ShippingAddressJSON: datatypes.JSON(in.AddressJSON),
		Status:              StatusPending,
		Currency:            in.Currency,
		SubtotalCents:       subtotal,
		ShippingCents:       in.ShippingCents,
		TotalCents:          subtotal + in.ShippingCents,
		CreatedAt:           now,
		UpdatedAt:           now,
	}

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := checkout.CheckStockInTx(ctx, tx, stockLines(in.Items)); err != nil {
			return err
		}
		if err := tx.Create(&o).Error; err != nil {
			return err
		}
		for i := range in.Items {
			in.Items[i].OrderID = o.ID
			in.Items[i].CreatedAt = now
		}
		return tx.Create(&in.Items).Error
	})
	if err != nil {
		return Order{}, err
	}
	return o, nil
}

func (r *Repo) GetWithItems(ctx context.Context, id uint64) (Order, []OrderItem, error) {
	var o Order
	if err := r.db.WithContext(ctx).First(&o, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return Order{}, nil, ErrNotFound
		}
		return Order{}, nil, err
	}
	var items []OrderItem
	if err := r.db.WithContext(ctx).Order("id ASC").Find(&items, "order_id = ?", id).Error; err != nil {
		return Order{}, nil, err
	}
	return o, items, nil
}

func (r *Repo) FindByProviderOrderID(ctx context.Context, providerOrderID string) (Order, error) {
	var o Order
	err := r.db.WithContext(ctx).First(&o, "provider_order_id = ?", providerOrderID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return Order{}, ErrNotFound
	}
	return o, err
}

// MarkCreated moves pending -> created and records the provider order
// id. Returns false when the precondition was lost (the order is no
// longer pending); callers must not treat that as success.
func (r *Repo) MarkCreated(ctx context.Context, id uint64, providerOrderID string) (bool, error) {
	res := r.db.WithContext(ctx).Model(&Order{}).
		Where("id = ? AND status = ?", id, StatusPending).
		Updates(map[string]any{
			"status":            StatusCreated,
			"provider_order_id": providerOrderID,
			"updated_at":        time.Now(),
		})
	return res.RowsAffected == 1, res.Error
}

// MarkFailed moves created -> failed with the verification reason.
func (r *Repo) MarkFailed(ctx context.Context, id uint64, reason string) (bool, error) {
	if len(reason) > 250 {
		reason = reason[:250]
	}
	res := r.db.WithContext(ctx).Model(&Order{}).
		Where("id = ? AND status = ?", id, StatusCreated).
		Updates(map[string]any{
			"status":      StatusFailed,
			"fail_reason": reason,
			"updated_at":  time.Now(),
		})
	return res.RowsAffected == 1, res.Error
}

// MarkCaptured finalizes a verified capture: created -> captured, the
// transactions ledger row, and the stock deduction, all in one
// transaction. The preconditioned UPDATE is what makes a duplicate
// capture callback a no-op instead of a double credit: the second
// caller sees RowsAffected == 0 and none of the side effects run.
//
// Two captures landing on inventory rows in opposite order can
// deadlock, so the whole transaction runs under WithTxRetry.
func (r *Repo) MarkCaptured(ctx context.Context, id uint64, captureID string) (bool, error) {
	won := false
	err := checkout.WithTxRetry(ctx, r.db, 3, func(tx *gorm.DB) error {
		won = false
		now := time.Now()

		res := tx.Model(&Order{}).
			Where("id = ? AND status = ?", id, StatusCreated).
			Updates(map[string]any{
				"status":     StatusCaptured,
				"capture_id": captureID,
				"paid_at":    &now,
				"updated_at": now,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected != 1 {
			return nil // lost the race; leave won=false, no side effects
		}

		var o Order
		if err := tx.First(&o, "id = ?", id).Error; err != nil {
			return err
		}
		var items []OrderItem
		if err := tx.Find(&items, "order_id = ?", id).Error; err != nil {
			return err
		}

		if err := checkout.DeductStockInTx(ctx, tx, stockLines(items)); err != nil {
			return err
		}

		entry := Transaction{
			OrderID:     id,
			CaptureID:   captureID,
			TotalCents:  o.TotalCents,
			Currency:    o.Currency,
			CompletedAt: now,
		}
		if err := tx.Create(&entry).Error; err != nil {
			return err
		}

		won = true
		return nil
	})
	return won, err
}

func stockLines(items []OrderItem) []checkout.StockLine {
	lines := make([]checkout.StockLine, 0, len(items))
	for _, it := range items {
		lines = append(lines, checkout.StockLine{
			ProductID: it.ProductID,
			Color:     it.Color,
			Size:      it.Size,
			Qty:       it.Quantity,
		})
	}
	return lines
}
