package payments

import (
	"context"
	"errors"
	"strconv"

	"elit21.com/shop/internal/modules/orders"
	"elit21.com/shop/internal/shared/money"
)

const completedStatus = "COMPLETED"

type CaptureOutcome struct {
	OrderID         uint64
	CaptureID       string
	CapturedCents   int64
	Currency        string
	AlreadyResolved bool
}

// CaptureAndVerify finalizes the buyer's authorization and cross-checks
// the provider's answer against the local order before any money is
// considered received. Verification is all-or-nothing: status,
// currency, exact amount and reference must all hold, in that order,
// short-circuiting on the first mismatch. A mismatch marks the order
// failed; it never becomes captured on partial evidence.
func (s *Service) CaptureAndVerify(ctx context.Context, providerOrderID string) (CaptureOutcome, error) {
	cr, err := s.provider.CaptureOrder(ctx, providerOrderID)
	if err != nil {
		// no local state was touched; the order stays created and the
		// capture can be re-attempted (idempotent provider-side)
		s.logger.ErrorContext(ctx, "provider capture failed",
			"provider_order_id", providerOrderID, "err", err)
		return CaptureOutcome{}, err
	}

	orderID, perr := strconv.ParseUint(cr.ReferenceID, 10, 64)
	if perr != nil {
		s.logger.ErrorContext(ctx, "capture carried malformed reference",
			"provider_order_id", providerOrderID, "reference_id", cr.ReferenceID)
		return CaptureOutcome{}, ErrUnknownOrder
	}

	o, items, err := s.store.GetWithItems(ctx, orderID)
	if errors.Is(err, orders.ErrNotFound) {
		s.logger.ErrorContext(ctx, "capture references unknown order",
			"provider_order_id", providerOrderID, "reference_id", cr.ReferenceID)
		return CaptureOutcome{}, ErrUnknownOrder
	}
	if err != nil {
		return CaptureOutcome{}, err
	}

	// duplicate callback for an order already settled: report the
	// existing result, apply nothing twice
	if o.Status == orders.StatusCaptured {
		out := CaptureOutcome{
			OrderID: o.ID, CapturedCents: o.TotalCents,
			Currency: o.Currency, AlreadyResolved: true,
		}
		if o.CaptureID != nil {
			out.CaptureID = *o.CaptureID
		}
		return out, nil
	}
	if o.Status != orders.StatusCreated {
		return CaptureOutcome{}, ErrOrderNotPayable
	}

	// the amount sent to the provider was built from the item lines,
	// so the captured amount is checked against the same computation
	var itemTotal int64
	for _, it := range items {
		itemTotal += it.LineTotalCents()
	}
	expectedCents := itemTotal + o.ShippingCents

	if reason, detail := verify(cr, o, expectedCents); reason != "" {
		if _, ferr := s.store.MarkFailed(ctx, o.ID, reason); ferr != nil {
			return CaptureOutcome{}, ferr
		}
		s.logger.WarnContext(ctx, "capture verification failed",
			"order_id", o.ID, "provider_order_id", providerOrderID,
			"reason", reason, "detail", detail)
		return CaptureOutcome{}, &VerificationError{OrderID: o.ID, Reason: reason, Detail: detail}
	}

	won, err := s.store.MarkCaptured(ctx, o.ID, cr.CaptureID)
	if err != nil {
		return CaptureOutcome{}, err
	}
	if !won {
		// a concurrent capture callback won the created->captured
		// transition; this one must not re-apply side effects
		return CaptureOutcome{
			OrderID: o.ID, CaptureID: cr.CaptureID,
			CapturedCents: expectedCents, Currency: o.Currency,
			AlreadyResolved: true,
		}, nil
	}

	s.logger.InfoContext(ctx, "payment captured",
		"order_id", o.ID, "provider_order_id", providerOrderID,
		"capture_id", cr.CaptureID, "amount_cents", expectedCents)

	return CaptureOutcome{
		OrderID:       o.ID,
		CaptureID:     cr.CaptureID,
		CapturedCents: expectedCents,
		Currency:      o.Currency,
	}, nil
}

// verify runs the checks in the documented order and names the first
// one that breaks. The amount comparison is exact on cents; the wire
// value is parsed strictly, never floated. expectedCents is recomputed
// from the order's item lines plus shipping, not read back from the
// stored total, so both sides of the comparison share one authority.
func verify(cr CaptureResult, o orders.Order, expectedCents int64) (reason, detail string) {
	if cr.Status != completedStatus {
		return ReasonStatusMismatch, "provider status " + cr.Status
	}
	if cr.Currency != o.Currency {
		return ReasonCurrencyMismatch, "provider sent " + cr.Currency + ", expected " + o.Currency
	}
	capturedCents, err := money.ParseCents(cr.Value)
	if err != nil || capturedCents != expectedCents {
		return ReasonAmountMismatch,
			"provider sent " + cr.Value + ", expected " + money.FormatCents(expectedCents)
	}
	if cr.ReferenceID != strconv.FormatUint(o.ID, 10) {
		return ReasonReferenceMismatch, "provider sent " + cr.ReferenceID
	}
	return "", ""
}
