package checkout

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/svillagran/tienda-backend/internal/cart"
	"github.com/svillagran/tienda-backend/internal/earnings"
	"github.com/svillagran/tienda-backend/internal/orders"
	"github.com/svillagran/tienda-backend/internal/products"
	"github.com/svillagran/tienda-backend/pkg/config"
	"github.com/svillagran/tienda-backend/pkg/db"
	"github.com/svillagran/tienda-backend/pkg/db/models"
	"github.com/svillagran/tienda-backend/pkg/enums"
	pkgerrors "github.com/svillagran/tienda-backend/pkg/errors"
	"github.com/svillagran/tienda-backend/pkg/logger"
	"github.com/svillagran/tienda-backend/pkg/mercadopago"
	"github.com/svillagran/tienda-backend/pkg/metrics"
)

// Matches both the postgres constraint name (idx_orders_payment_id) and
// the table.column form sqlite reports.
const paymentIDConstraint = "payment_id"

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type preferenceCreator interface {
	CreatePreference(ctx context.Context, params mercadopago.PreferenceCreateParams) (*mercadopago.Preference, error)
}

// Service drives the checkout flow: preference creation before payment and
// the three provider callbacks after it.
type Service interface {
	CreatePreference(ctx context.Context, userID uuid.UUID) (*PreferenceResult, error)
	ReconcileSuccess(ctx context.Context, input SuccessCallbackInput) (*SuccessRedirect, error)
	ReconcileFailure(ctx context.Context, paymentID, reason string) FailureRedirect
	ReconcilePending(ctx context.Context, externalReference, paymentID string) PendingRedirect
	SuccessViewURL(redirect SuccessRedirect) string
	FailureViewURL(redirect FailureRedirect) string
	PendingViewURL(redirect PendingRedirect) string
}

type service struct {
	cartRepo   cart.Repository
	ordersRepo orders.Repository
	products   *products.Repository
	earnings   earnings.Service
	tx         txRunner
	provider   preferenceCreator
	metrics    *metrics.CheckoutMetrics
	mpCfg      config.MercadoPagoConfig
	checkout   config.CheckoutConfig
	logg       *logger.Logger
	now        func() time.Time
}

// NewService builds the checkout orchestrator with the required dependencies.
func NewService(
	cartRepo cart.Repository,
	ordersRepo orders.Repository,
	productsRepo *products.Repository,
	earningsSvc earnings.Service,
	tx txRunner,
	provider preferenceCreator,
	checkoutMetrics *metrics.CheckoutMetrics,
	mpCfg config.MercadoPagoConfig,
	checkoutCfg config.CheckoutConfig,
	logg *logger.Logger,
) (Service, error) {
	if cartRepo == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	if ordersRepo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if productsRepo == nil {
		return nil, fmt.Errorf("products repository required")
	}
	if earningsSvc == nil {
		return nil, fmt.Errorf("earnings service required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if provider == nil {
		return nil, fmt.Errorf("payment provider required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{
		cartRepo:   cartRepo,
		ordersRepo: ordersRepo,
		products:   productsRepo,
		earnings:   earningsSvc,
		tx:         tx,
		provider:   provider,
		metrics:    checkoutMetrics,
		mpCfg:      mpCfg,
		checkout:   checkoutCfg,
		logg:       logg,
		now:        time.Now,
	}, nil
}

// CreatePreference validates the cart against current stock and asks the
// provider for a redirect URL. No durable store is mutated; stock is
// checked, not reserved.
func (s *service) CreatePreference(ctx context.Context, userID uuid.UUID) (*PreferenceResult, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}

	ctx = s.logg.WithUserID(ctx, userID.String())

	lines, err := s.cartRepo.ListByUser(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
	}
	if len(lines) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeEmptyCart, "cart is empty")
	}

	// All-or-nothing: one short line aborts the whole preference.
	for _, line := range lines {
		if line.Product == nil {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "cart references a missing product")
		}
		if line.Quantity > line.Product.Stock {
			s.metrics.IncStockRejection()
			return nil, pkgerrors.New(pkgerrors.CodeInsufficientStock, "insufficient stock").
				WithDetails(map[string]any{
					"product":   line.Product.Name,
					"available": line.Product.Stock,
					"requested": line.Quantity,
				})
		}
	}

	view := cart.PriceLines(lines)
	items := make([]mercadopago.PreferenceItem, 0, len(view.Lines))
	for _, line := range view.Lines {
		items = append(items, mercadopago.PreferenceItem{
			Title:      line.Name,
			Quantity:   line.Quantity,
			UnitPrice:  s.discountedUnitPrice(line),
			CurrencyID: s.mpCfg.Currency,
		})
	}

	params := mercadopago.PreferenceCreateParams{
		Items:             items,
		ExternalReference: userID.String(),
		BackURLs: mercadopago.BackURLs{
			Success: s.mpCfg.BackURLBase + "/api/payments/success",
			Failure: s.mpCfg.BackURLBase + "/api/payments/failure",
			Pending: s.mpCfg.BackURLBase + "/api/payments/pending",
		},
	}

	started := s.now()
	preference, err := s.provider.CreatePreference(ctx, params)
	if err != nil {
		s.metrics.ObservePreferenceDuration("error", s.now().Sub(started))
		return nil, err
	}
	s.metrics.ObservePreferenceDuration("ok", s.now().Sub(started))

	s.logg.Info(s.logg.WithField(ctx, "preference_id", preference.ID), "checkout preference created")
	return &PreferenceResult{
		PreferenceID: preference.ID,
		InitPoint:    preference.InitPoint,
	}, nil
}

// discountedUnitPrice derives the per-unit price the provider is billed
// with. The provider's item schema takes whole currency units, so the
// discounted price is rounded; rounding policy is configurable for
// currencies with fractional units.
func (s *service) discountedUnitPrice(line cart.LineView) int64 {
	if line.Quantity <= 0 {
		return line.Pricing.UnitPrice
	}
	unit := decimal.NewFromInt(line.Pricing.LineSubtotal).
		Div(decimal.NewFromInt(int64(line.Quantity)))
	if s.mpCfg.PriceRounding {
		return unit.Round(0).IntPart()
	}
	return unit.IntPart()
}

// ReconcileSuccess turns the provider's success callback into exactly one
// order. The unique payment index is the idempotency arbiter: a duplicate
// delivery either finds the existing order up front or loses the insert
// race and reloads it.
func (s *service) ReconcileSuccess(ctx context.Context, input SuccessCallbackInput) (*SuccessRedirect, error) {
	userID, err := uuid.Parse(strings.TrimSpace(input.ExternalReference))
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "missing or invalid user reference")
	}
	paymentID := strings.TrimSpace(input.PaymentID)
	if paymentID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "missing payment identifier")
	}

	ctx = s.logg.WithPaymentID(s.logg.WithUserID(ctx, userID.String()), paymentID)

	if existing, err := s.ordersRepo.FindByPaymentID(ctx, paymentID); err == nil {
		s.metrics.IncDuplicateCallback()
		s.metrics.IncReconciliation("duplicate")
		s.logg.Info(ctx, "payment already reconciled, replaying stored order")
		return s.redirectFromOrder(existing, true)
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "idempotence lookup")
	}

	var order *models.Order
	txErr := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		cartRepo := s.cartRepo.WithTx(tx)
		ordersRepo := s.ordersRepo.WithTx(tx)
		productsRepo := s.products.WithTx(tx)

		lines, err := cartRepo.ListByUser(ctx, userID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
		}
		if len(lines) == 0 {
			return pkgerrors.New(pkgerrors.CodeEmptyCart, "cart is empty")
		}

		view := cart.PriceLines(lines)
		candidate := &models.Order{
			ID:        uuid.New(),
			UserID:    userID,
			PaymentID: paymentID,
			Status:    enums.OrderStatusCompleted,
			Subtotal:  view.Subtotal,
			Items:     buildItemSnapshots(view),
		}

		if _, err := ordersRepo.Create(ctx, candidate); err != nil {
			if db.IsUniqueViolation(err, paymentIDConstraint) {
				return errDuplicatePayment
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "persist order")
		}

		for _, line := range lines {
			if err := productsRepo.DecrementStockClamped(ctx, line.ProductID, line.Quantity); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decrement stock")
			}
		}

		if _, err := s.earnings.AddEarning(ctx, tx, earnings.AppendInput{
			OrderID:   candidate.ID,
			UserID:    userID,
			PaymentID: paymentID,
			Subtotal:  view.Subtotal,
		}); err != nil {
			return err
		}

		if err := cartRepo.Clear(ctx, userID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "clear cart")
		}

		order = candidate
		return nil
	})

	if errors.Is(txErr, errDuplicatePayment) {
		// Lost the insert race to a concurrent delivery of the same
		// callback; the winner's order is authoritative.
		existing, err := s.ordersRepo.FindByPaymentID(ctx, paymentID)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload reconciled order")
		}
		s.metrics.IncDuplicateCallback()
		s.metrics.IncReconciliation("duplicate")
		return s.redirectFromOrder(existing, true)
	}
	if txErr != nil {
		s.metrics.IncReconciliation("failed")
		return nil, txErr
	}

	s.metrics.IncReconciliation("completed")
	s.logg.Info(s.logg.WithField(ctx, "order_id", order.ID.String()), "payment reconciled")
	return s.redirectFromOrder(order, false)
}

// ReconcileFailure composes the failure view redirect. Nothing was reserved
// at preference time, so no store access is needed.
func (s *service) ReconcileFailure(ctx context.Context, paymentID, reason string) FailureRedirect {
	ref := strings.TrimSpace(paymentID)
	if ref == "" {
		ref = fmt.Sprintf("ORD-FAIL-%d", s.now().Unix())
	}
	if strings.TrimSpace(reason) == "" {
		reason = "payment was not completed"
	}
	s.logg.Warn(s.logg.WithField(ctx, "order_ref", ref), "payment failed: "+reason)
	return FailureRedirect{OrderRef: ref, Reason: reason}
}

// ReconcilePending composes the pending view redirect with a best-effort
// cart total. An unresolvable user reference leaves the amount at zero.
// It never mutates orders, earnings, or the cart.
func (s *service) ReconcilePending(ctx context.Context, externalReference, paymentID string) PendingRedirect {
	redirect := PendingRedirect{
		OrderRef:  fmt.Sprintf("ORD-%d", s.now().Unix()),
		PaymentID: strings.TrimSpace(paymentID),
	}
	if redirect.PaymentID == "" {
		redirect.PaymentID = "N/A"
	}

	userID, err := uuid.Parse(strings.TrimSpace(externalReference))
	if err != nil {
		return redirect
	}
	lines, err := s.cartRepo.ListByUser(ctx, userID)
	if err != nil {
		s.logg.Warn(ctx, "pending callback could not load cart")
		return redirect
	}
	view := cart.PriceLines(lines)
	redirect.Amount = view.Subtotal
	return redirect
}

var errDuplicatePayment = errors.New("duplicate payment id")

func (s *service) redirectFromOrder(order *models.Order, already bool) (*SuccessRedirect, error) {
	display := make([]ItemDisplay, 0, len(order.Items))
	for _, item := range order.Items {
		display = append(display, ItemDisplay{
			Name:      item.Name,
			Quantity:  item.Quantity,
			UnitPrice: item.UnitPrice,
			Total:     item.Total,
		})
	}
	raw, err := json.Marshal(display)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encode item list")
	}
	return &SuccessRedirect{
		OrderID:           order.ID.String(),
		UserID:            order.UserID.String(),
		PaymentID:         order.PaymentID,
		Subtotal:          order.Subtotal,
		ItemsJSON:         string(raw),
		AlreadyReconciled: already,
	}, nil
}

// SuccessViewURL composes the browser redirect to the storefront success
// view. The query parameter names are the contract the front end parses.
func (s *service) SuccessViewURL(redirect SuccessRedirect) string {
	query := url.Values{}
	query.Set("order_id", redirect.OrderID)
	query.Set("user_id", redirect.UserID)
	query.Set("payment_id", redirect.PaymentID)
	query.Set("subtotal", decimal.New(redirect.Subtotal, -2).StringFixed(2))
	query.Set("items", redirect.ItemsJSON)
	return s.checkout.SuccessPath + "?" + query.Encode()
}

// FailureViewURL composes the browser redirect to the failure view.
func (s *service) FailureViewURL(redirect FailureRedirect) string {
	query := url.Values{}
	query.Set("order_id", redirect.OrderRef)
	query.Set("reason", redirect.Reason)
	return s.checkout.FailurePath + "?" + query.Encode()
}

// PendingViewURL composes the browser redirect to the pending view. Amount
// uses the same major-unit formatting as the success view's subtotal.
func (s *service) PendingViewURL(redirect PendingRedirect) string {
	query := url.Values{}
	query.Set("status", "pending")
	query.Set("order_id", redirect.OrderRef)
	query.Set("payment_id", redirect.PaymentID)
	query.Set("amount", decimal.New(redirect.Amount, -2).StringFixed(2))
	return s.checkout.PendingPath + "?" + query.Encode()
}

func buildItemSnapshots(view cart.View) []models.OrderItem {
	items := make([]models.OrderItem, 0, len(view.Lines))
	for _, line := range view.Lines {
		productID := line.ProductID
		item := models.OrderItem{
			ID:        uuid.New(),
			ProductID: &productID,
			Name:      line.Name,
			Quantity:  line.Quantity,
			UnitPrice: line.Pricing.UnitPrice,
			Total:     line.Pricing.LineSubtotal,
		}
		if line.Pricing.Discount != nil {
			discount := *line.Pricing.Discount
			item.Discount = &discount
		}
		items = append(items, item)
	}
	return items
}
