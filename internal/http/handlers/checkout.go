package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"elit21.com/shop/internal/http/middleware"
	"elit21.com/shop/internal/http/validation"
	"elit21.com/shop/internal/modules/checkout"
	"elit21.com/shop/internal/modules/orders"
	"elit21.com/shop/internal/modules/payments"
	"elit21.com/shop/internal/modules/products"
	"elit21.com/shop/internal/shared/apperr"
	"elit21.com/shop/internal/shared/money"
)

// PaymentService is the slice of the payments layer the checkout
// endpoints need. *payments.Service implements it.
type PaymentService interface {
	CreateOrder(ctx context.Context, orderID uint64) (payments.CreateOrderResult, error)
	CaptureAndVerify(ctx context.Context, providerOrderID string) (payments.CaptureOutcome, error)
}

type CheckoutHandler struct {
	Orders        *orders.Repo
	Products      *products.Repo
	Payments      PaymentService
	Currency      string
	ShippingCents int64
}

type checkoutItemInput struct {
	ProductID uint64 `json:"product_id" binding:"required"`
	Color     string `json:"color" binding:"required"`
	Size      string `json:"size" binding:"required"`
	Quantity  int    `json:"quantity" binding:"required,min=1,max=50"`
}

type shippingAddressInput struct {
	Line1      string `json:"line1" binding:"required,max=255"`
	Line2      string `json:"line2" binding:"max=255"`
	City       string `json:"city" binding:"required,max=128"`
	PostalCode string `json:"postal_code" binding:"required,max=32"`
	Country    string `json:"country" binding:"required,len=2"`
}

type createOrderInput struct {
	CustomerName string               `json:"customer_name" binding:"required,max=255"`
	Email        string               `json:"email" binding:"required,email"`
	Address      shippingAddressInput `json:"address" binding:"required"`
	Items        []checkoutItemInput  `json:"items" binding:"required,min=1,max=50,dive"`
}

// CreatePayPalOrder opens the payment flow: the cart is priced from the
// catalogue (client-side prices are display only), a pending order is
// recorded, and the provider order is created from it. The buyer is
// sent to the returned approve URL.
func (h *CheckoutHandler) CreatePayPalOrder(c *gin.Context) {
	if h.Payments == nil {
		middleware.Fail(c, apperr.UpstreamErr("Payments are not available.", nil))
		return
	}

	var in createOrderInput
	if err := c.ShouldBindJSON(&in); err != nil {
		middleware.Fail(c, apperr.InvalidErr("Please check your order details.", validation.FromBindError(err, &in)))
		return
	}
	ctx := c.Request.Context()

	items, err := h.resolveItems(ctx, in.Items)
	if err != nil {
		middleware.Fail(c, err)
		return
	}

	addr, err := json.Marshal(in.Address)
	if err != nil {
		middleware.Fail(c, apperr.Wrap(err))
		return
	}

	var userID *uint64
	if u, ok := middleware.CurrentUser(c); ok {
		userID = &u.ID
	}

	o, err := h.Orders.CreatePending(ctx, orders.CreatePendingInput{
		UserID:        userID,
		CustomerName:  in.CustomerName,
		CustomerEmail: in.Email,
		AddressJSON:   addr,
		Currency:      h.Currency,
		ShippingCents: h.ShippingCents,
		Items:         items,
	})
	if err != nil {
		middleware.Fail(c, mapCheckoutErr(err))
		return
	}

	res, err := h.Payments.CreateOrder(ctx, o.ID)
	if err != nil {
		middleware.Fail(c, mapCheckoutErr(err))
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"id":             res.ProviderOrderID,
		"local_order_id": res.OrderID,
		"approve_url":    res.ApproveURL,
		"total":          money.FormatCents(res.TotalCents),
		"currency":       h.Currency,
	})
}

// resolveItems turns the posted cart into order lines priced from the
// products table. Unknown or archived products reject the whole cart.
func (h *CheckoutHandler) resolveItems(ctx context.Context, in []checkoutItemInput) ([]orders.OrderItem, error) {
	ids := make([]uint64, 0, len(in))
	for _, it := range in {
		ids = append(ids, it.ProductID)
	}
	catalogue, err := h.Products.GetMany(ctx, ids)
	if err != nil {
		return nil, apperr.Wrap(err)
	}

	out := make([]orders.OrderItem, 0, len(in))
	for _, it := range in {
		p, ok := catalogue[it.ProductID]
		if !ok || p.Status != products.StatusActive {
			return nil, apperr.InvalidErr(
				fmt.Sprintf("Product %d is not available.", it.ProductID), nil)
		}
		if p.Currency != h.Currency {
			return nil, apperr.InvalidErr(
				fmt.Sprintf("Product %d cannot be ordered in %s.", it.ProductID, h.Currency), nil)
		}
		out = append(out, orders.OrderItem{
			ProductID:      p.ID,
			ProductName:    p.Name,
			Color:          it.Color,
			Size:           it.Size,
			Quantity:       it.Quantity,
			UnitPriceCents: p.PriceCents,
			Currency:       p.Currency,
		})
	}
	return out, nil
}

type captureOrderInput struct {
	PayPalOrderID string  `json:"paypal_order_id" binding:"required,max=64"`
	LocalOrderID  *uint64 `json:"local_order_id"`
}

// CapturePayPalOrder finalizes an approved payment. The posted id is
// the provider's order id; the local order it settles comes out of the
// verified capture, not out of anything else the client sent.
func (h *CheckoutHandler) CapturePayPalOrder(c *gin.Context) {
	if h.Payments == nil {
		middleware.Fail(c, apperr.UpstreamErr("Payments are not available.", nil))
		return
	}

	var in captureOrderInput
	if err := c.ShouldBindJSON(&in); err != nil {
		middleware.Fail(c, apperr.InvalidErr("A PayPal order id is required.", validation.FromBindError(err, &in)))
		return
	}
	ctx := c.Request.Context()

	// a signed-in buyer may only settle their own order
	if o, err := h.Orders.FindByProviderOrderID(ctx, in.PayPalOrderID); err == nil {
		if o.UserID != nil {
			u, ok := middleware.CurrentUser(c)
			if !ok || u.ID != *o.UserID {
				middleware.Fail(c, apperr.NotFoundErr("Order not found."))
				return
			}
		}
		// a client-claimed local id must agree with the provider order
		if in.LocalOrderID != nil && *in.LocalOrderID != o.ID {
			middleware.Fail(c, apperr.ConflictErr("Order and payment do not match."))
			return
		}
	}

	out, err := h.Payments.CaptureAndVerify(ctx, in.PayPalOrderID)
	if err != nil {
		middleware.Fail(c, mapCaptureErr(err))
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"ok":               true,
		"order_id":         out.OrderID,
		"capture_id":       out.CaptureID,
		"amount":           money.FormatCents(out.CapturedCents),
		"currency":         out.Currency,
		"already_resolved": out.AlreadyResolved,
		"redirect_url":     fmt.Sprintf("/checkout/success/%d", out.OrderID),
	})
}

// Order shows a buyer their own order.
func (h *CheckoutHandler) Order(c *gin.Context) {
	u, ok := middleware.CurrentUser(c)
	if !ok {
		middleware.Fail(c, apperr.UnauthorizedErr("Please sign in."))
		return
	}
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		middleware.Fail(c, apperr.NotFoundErr("Order not found."))
		return
	}

	o, items, err := h.Orders.GetWithItems(c.Request.Context(), id)
	if errors.Is(err, orders.ErrNotFound) {
		middleware.Fail(c, apperr.NotFoundErr("Order not found."))
		return
	}
	if err != nil {
		middleware.Fail(c, apperr.Wrap(err))
		return
	}
	if o.UserID == nil || *o.UserID != u.ID {
		middleware.Fail(c, apperr.NotFoundErr("Order not found."))
		return
	}

	lines := make([]gin.H, 0, len(items))
	for _, it := range items {
		lines = append(lines, gin.H{
			"product_id": it.ProductID,
			"name":       it.ProductName,
			"color":      it.Color,
			"size":       it.Size,
			"quantity":   it.Quantity,
			"unit_price": money.FormatCents(it.UnitPriceCents),
		})
	}

	resp := gin.H{
		"id":       o.ID,
		"status":   o.Status,
		"currency": o.Currency,
		"subtotal": money.FormatCents(o.SubtotalCents),
		"shipping": money.FormatCents(o.ShippingCents),
		"total":    money.FormatCents(o.TotalCents),
		"items":    lines,
	}
	if o.PaidAt != nil {
		resp["paid_at"] = o.PaidAt
	}
	c.JSON(http.StatusOK, resp)
}

func mapCheckoutErr(err error) error {
	var oos *checkout.OutOfStockError
	if errors.As(err, &oos) {
		fields := map[string]string{}
		for _, it := range oos.Items {
			key := fmt.Sprintf("%d/%s/%s", it.ProductID, it.Color, it.Size)
			fields[key] = fmt.Sprintf("only %d left", it.Available)
		}
		return &apperr.AppError{
			Kind:      apperr.Conflict,
			PublicMsg: "Some items are no longer in stock.",
			Fields:    fields,
			Err:       err,
		}
	}
	var ce *payments.CreationError
	if errors.As(err, &ce) {
		return apperr.UpstreamErr("The payment could not be started. Please try again.", err)
	}
	if errors.Is(err, orders.ErrEmptyOrder) {
		return apperr.InvalidErr("Your cart is empty.", nil)
	}
	return apperr.Wrap(err)
}

func mapCaptureErr(err error) error {
	var ve *payments.VerificationError
	if errors.As(err, &ve) {
		return &apperr.AppError{
			Kind:      apperr.Conflict,
			PublicMsg: "The payment could not be verified.",
			Err:       err,
		}
	}
	switch {
	case errors.Is(err, payments.ErrUnknownOrder):
		return apperr.NotFoundErr("Order not found.")
	case errors.Is(err, payments.ErrOrderNotPayable):
		return apperr.ConflictErr("This order cannot be paid in its current state.")
	default:
		return apperr.UpstreamErr("The payment could not be completed. Please try again.", err)
	}
}
