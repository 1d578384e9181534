package payments

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"elit21.com/shop/internal/modules/orders"
)

func createdOrder() orders.Order {
	ppID := "PP-1"
	return orders.Order{
		ID:              42,
		Status:          orders.StatusCreated,
		Currency:        "EUR",
		SubtotalCents:   1000,
		ShippingCents:   999,
		TotalCents:      1999,
		ProviderOrderID: &ppID,
	}
}

func createdItems() []orders.OrderItem {
	return []orders.OrderItem{{
		OrderID:        42,
		ProductID:      7,
		ProductName:    "Hoodie",
		Color:          "black",
		Size:           "M",
		Quantity:       2,
		UnitPriceCents: 500,
		Currency:       "EUR",
	}}
}

func completedCapture() CaptureResult {
	return CaptureResult{
		Status:      "COMPLETED",
		ReferenceID: "42",
		Currency:    "EUR",
		Value:       "19.99",
		CaptureID:   "CAP-1",
	}
}

func TestService_CaptureAndVerify(t *testing.T) {
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		store := new(MockOrderStore)
		provider := new(MockProvider)
		svc := NewService(store, provider, nil, "")

		provider.On("CaptureOrder", ctx, "PP-1").Return(completedCapture(), nil)
		store.On("GetWithItems", ctx, uint64(42)).
			Return(createdOrder(), createdItems(), nil)
		store.On("MarkCaptured", ctx, uint64(42), "CAP-1").Return(true, nil)

		out, err := svc.CaptureAndVerify(ctx, "PP-1")
		require.NoError(t, err)
		assert.Equal(t, uint64(42), out.OrderID)
		assert.Equal(t, "CAP-1", out.CaptureID)
		assert.Equal(t, int64(1999), out.CapturedCents)
		assert.Equal(t, "EUR", out.Currency)
		assert.False(t, out.AlreadyResolved)
		store.AssertExpectations(t)
	})

	t.Run("AmountCheckedAgainstItemLines", func(t *testing.T) {
		// a stale stored total must not let a wrong capture through,
		// and must not fail a correct one: the item lines decide
		store := new(MockOrderStore)
		provider := new(MockProvider)
		svc := NewService(store, provider, nil, "")

		o := createdOrder()
		o.TotalCents = 1 // out of sync with the lines
		provider.On("CaptureOrder", ctx, "PP-1").Return(completedCapture(), nil)
		store.On("GetWithItems", ctx, uint64(42)).Return(o, createdItems(), nil)
		store.On("MarkCaptured", ctx, uint64(42), "CAP-1").Return(true, nil)

		out, err := svc.CaptureAndVerify(ctx, "PP-1")
		require.NoError(t, err)
		assert.Equal(t, int64(1999), out.CapturedCents)
		store.AssertExpectations(t)
	})

	t.Run("ProviderErrorLeavesOrderUntouched", func(t *testing.T) {
		store := new(MockOrderStore)
		provider := new(MockProvider)
		svc := NewService(store, provider, nil, "")

		provider.On("CaptureOrder", ctx, "PP-1").
			Return(CaptureResult{}, errors.New("upstream 500"))

		_, err := svc.CaptureAndVerify(ctx, "PP-1")
		require.Error(t, err)
		store.AssertNotCalled(t, "MarkFailed", mock.Anything, mock.Anything, mock.Anything)
		store.AssertNotCalled(t, "MarkCaptured", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("StatusMismatch", func(t *testing.T) {
		store := new(MockOrderStore)
		provider := new(MockProvider)
		svc := NewService(store, provider, nil, "")

		cr := completedCapture()
		cr.Status = "PENDING"
		provider.On("CaptureOrder", ctx, "PP-1").Return(cr, nil)
		store.On("GetWithItems", ctx, uint64(42)).
			Return(createdOrder(), createdItems(), nil)
		store.On("MarkFailed", ctx, uint64(42), ReasonStatusMismatch).Return(true, nil)

		_, err := svc.CaptureAndVerify(ctx, "PP-1")

		var ve *VerificationError
		require.ErrorAs(t, err, &ve)
		assert.Equal(t, ReasonStatusMismatch, ve.Reason)
		store.AssertNotCalled(t, "MarkCaptured", mock.Anything, mock.Anything, mock.Anything)
		store.AssertExpectations(t)
	})

	t.Run("CurrencyMismatch", func(t *testing.T) {
		store := new(MockOrderStore)
		provider := new(MockProvider)
		svc := NewService(store, provider, nil, "")

		cr := completedCapture()
		cr.Currency = "USD"
		provider.On("CaptureOrder", ctx, "PP-1").Return(cr, nil)
		store.On("GetWithItems", ctx, uint64(42)).
			Return(createdOrder(), createdItems(), nil)
		store.On("MarkFailed", ctx, uint64(42), ReasonCurrencyMismatch).Return(true, nil)

		_, err := svc.CaptureAndVerify(ctx, "PP-1")

		var ve *VerificationError
		require.ErrorAs(t, err, &ve)
		assert.Equal(t, ReasonCurrencyMismatch, ve.Reason)
		assert.Contains(t, ve.Detail, "USD")
	})

	t.Run("AmountMismatch", func(t *testing.T) {
		for name, value := range map[string]string{
			"OffByOneCent": "19.98",
			"Overpaid":     "20.00",
			"Malformed":    "19.9x",
		} {
			t.Run(name, func(t *testing.T) {
				store := new(MockOrderStore)
				provider := new(MockProvider)
				svc := NewService(store, provider, nil, "")

				cr := completedCapture()
				cr.Value = value
				provider.On("CaptureOrder", ctx, "PP-1").Return(cr, nil)
				store.On("GetWithItems", ctx, uint64(42)).
					Return(createdOrder(), createdItems(), nil)
				store.On("MarkFailed", ctx, uint64(42), ReasonAmountMismatch).Return(true, nil)

				_, err := svc.CaptureAndVerify(ctx, "PP-1")

				var ve *VerificationError
				require.ErrorAs(t, err, &ve)
				assert.Equal(t, ReasonAmountMismatch, ve.Reason)
				store.AssertNotCalled(t, "MarkCaptured", mock.Anything, mock.Anything, mock.Anything)
			})
		}
	})

	t.Run("ChecksRunInOrder", func(t *testing.T) {
		// several mismatches at once: the first failing check names the reason
		store := new(MockOrderStore)
		provider := new(MockProvider)
		svc := NewService(store, provider, nil, "")

		cr := completedCapture()
		cr.Status = "DECLINED"
		cr.Currency = "USD"
		cr.Value = "0.01"
		provider.On("CaptureOrder", ctx, "PP-1").Return(cr, nil)
		store.On("GetWithItems", ctx, uint64(42)).
			Return(createdOrder(), createdItems(), nil)
		store.On("MarkFailed", ctx, uint64(42), ReasonStatusMismatch).Return(true, nil)

		_, err := svc.CaptureAndVerify(ctx, "PP-1")

		var ve *VerificationError
		require.ErrorAs(t, err, &ve)
		assert.Equal(t, ReasonStatusMismatch, ve.Reason)
	})

	t.Run("UnknownReference", func(t *testing.T) {
		store := new(MockOrderStore)
		provider := new(MockProvider)
		svc := NewService(store, provider, nil, "")

		t.Run("Malformed", func(t *testing.T) {
			cr := completedCapture()
			cr.ReferenceID = "not-a-number"
			provider.On("CaptureOrder", ctx, "PP-bad").Return(cr, nil)

			_, err := svc.CaptureAndVerify(ctx, "PP-bad")
			assert.ErrorIs(t, err, ErrUnknownOrder)
		})

		t.Run("NoSuchOrder", func(t *testing.T) {
			cr := completedCapture()
			cr.ReferenceID = "777"
			provider.On("CaptureOrder", ctx, "PP-ghost").Return(cr, nil)
			store.On("GetWithItems", ctx, uint64(777)).
				Return(orders.Order{}, []orders.OrderItem(nil), orders.ErrNotFound)

			_, err := svc.CaptureAndVerify(ctx, "PP-ghost")
			assert.ErrorIs(t, err, ErrUnknownOrder)
		})
	})

	t.Run("DuplicateCaptureIsNoOp", func(t *testing.T) {
		store := new(MockOrderStore)
		provider := new(MockProvider)
		svc := NewService(store, provider, nil, "")

		o := createdOrder()
		o.Status = orders.StatusCaptured
		capID := "CAP-1"
		o.CaptureID = &capID
		provider.On("CaptureOrder", ctx, "PP-1").Return(completedCapture(), nil)
		store.On("GetWithItems", ctx, uint64(42)).
			Return(o, []orders.OrderItem(nil), nil)

		out, err := svc.CaptureAndVerify(ctx, "PP-1")
		require.NoError(t, err)
		assert.True(t, out.AlreadyResolved)
		assert.Equal(t, "CAP-1", out.CaptureID)
		store.AssertNotCalled(t, "MarkCaptured", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("PendingOrderNotCapturable", func(t *testing.T) {
		store := new(MockOrderStore)
		provider := new(MockProvider)
		svc := NewService(store, provider, nil, "")

		o := createdOrder()
		o.Status = orders.StatusPending
		provider.On("CaptureOrder", ctx, "PP-1").Return(completedCapture(), nil)
		store.On("GetWithItems", ctx, uint64(42)).
			Return(o, []orders.OrderItem(nil), nil)

		_, err := svc.CaptureAndVerify(ctx, "PP-1")
		assert.ErrorIs(t, err, ErrOrderNotPayable)
	})

	t.Run("LostCaptureRaceReportsResolved", func(t *testing.T) {
		store := new(MockOrderStore)
		provider := new(MockProvider)
		svc := NewService(store, provider, nil, "")

		provider.On("CaptureOrder", ctx, "PP-1").Return(completedCapture(), nil)
		store.On("GetWithItems", ctx, uint64(42)).
			Return(createdOrder(), createdItems(), nil)
		store.On("MarkCaptured", ctx, uint64(42), "CAP-1").Return(false, nil)

		out, err := svc.CaptureAndVerify(ctx, "PP-1")
		require.NoError(t, err)
		assert.True(t, out.AlreadyResolved)
	})
}

func TestVerify_ReferenceMismatch(t *testing.T) {
	// reference check only fires when everything before it held
	cr := completedCapture()
	cr.ReferenceID = "43"
	o := createdOrder()

	// the service looks the order up by parsed reference, so a bare
	// reference mismatch can only come from a stale local record
	o.ID = 42
	reason, detail := verify(cr, o, 1999)
	assert.Equal(t, ReasonReferenceMismatch, reason)
	assert.Contains(t, detail, "43")
}

func TestVerify_AllChecksPass(t *testing.T) {
	reason, detail := verify(completedCapture(), createdOrder(), 1999)
	assert.Empty(t, reason)
	assert.Empty(t, detail)
}
