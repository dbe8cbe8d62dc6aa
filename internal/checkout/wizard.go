// Package checkout implements the two-step checkout wizard.
package checkout

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"marketplace-storefront/internal/apiclient"
	"marketplace-storefront/internal/models"
	"marketplace-storefront/internal/service"
	"marketplace-storefront/internal/util"
	"marketplace-storefront/internal/validation"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type Step int

const (
	StepDelivery Step = 1
	StepPayment  Step = 2
	StepComplete Step = 3
)

type OrdersAPI interface {
	Create(ctx context.Context, req *service.CreateOrderRequest, idempotencyKey string) (*models.Order, error)
	Checkout(ctx context.Context, req *service.CheckoutRequest) (*service.CheckoutResponse, error)
}

type CartAPI interface {
	Get(ctx context.Context) (*models.Cart, error)
	Clear(ctx context.Context) (*models.Cart, error)
}

type CountRefresher interface {
	Refresh(ctx context.Context) (int, error)
}

// View is the renderable wizard state. Card input is echoed back formatted
// so the form can be redrawn; it is never sent to the API.
type View struct {
	Step          Step                   `json:"step"`
	Delivery      models.DeliveryInfo    `json:"deliveryInfo"`
	PaymentMethod string                 `json:"paymentMethod"`
	CardName      string                 `json:"cardName"`
	CardNumber    string                 `json:"cardNumber"`
	ExpiryDate    string                 `json:"expiryDate"`
	CVV           string                 `json:"cvv"`
	Errors        validation.FieldErrors `json:"errors"`
	Submitting    bool                   `json:"submitting"`
	Error         string                 `json:"error,omitempty"`
	Cart          *models.Cart           `json:"cart,omitempty"`
	Order         *models.Order          `json:"order,omitempty"`
}

type Wizard struct {
	orders    OrdersAPI
	cart      CartAPI
	counter   CountRefresher
	keys      KeyStore
	validator *validation.Validator
	logger    *zap.Logger

	// OnComplete runs after a successful checkout.
	OnComplete func(ctx context.Context, order *models.Order)

	mu         sync.Mutex
	step       Step
	delivery   models.DeliveryInfo
	payment    validation.PaymentForm
	errors     validation.FieldErrors
	submitting bool
	err        string
	summary    *models.Cart
	order      *models.Order
}

func NewWizard(orders OrdersAPI, cart CartAPI, counter CountRefresher, keys KeyStore, v *validation.Validator) *Wizard {
	return &Wizard{
		orders:    orders,
		cart:      cart,
		counter:   counter,
		keys:      keys,
		validator: v,
		logger:    util.GetLogger(),
		step:      StepDelivery,
		payment:   validation.PaymentForm{Method: models.PaymentCredit},
		errors:    validation.FieldErrors{},
	}
}

func (w *Wizard) View() View {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.viewLocked()
}

func (w *Wizard) viewLocked() View {
	errs := validation.FieldErrors{}
	for k, v := range w.errors {
		errs[k] = v
	}
	v := View{
		Step:          w.step,
		Delivery:      w.delivery,
		PaymentMethod: w.payment.Method,
		CardName:      w.payment.Card.CardName,
		CardNumber:    w.payment.Card.CardNumber,
		ExpiryDate:    w.payment.Card.Expiry,
		CVV:           w.payment.Card.CVV,
		Errors:        errs,
		Submitting:    w.submitting,
		Error:         w.err,
		Order:         w.order,
	}
	if w.summary != nil {
		v.Cart = w.summary.Clone()
	}
	return v
}

// Load fetches the cart shown as the order summary.
func (w *Wizard) Load(ctx context.Context) View {
	c, err := w.cart.Get(ctx)

	w.mu.Lock()
	defer w.mu.Unlock()
	if err != nil {
		w.logger.Warn("Failed to load cart for checkout", zap.Error(err))
		w.err = apiclient.Message(err, "Failed to load your cart")
		return w.viewLocked()
	}
	w.summary = c
	if len(c.Items) == 0 && w.step != StepComplete {
		w.err = "Your cart is empty"
	}
	return w.viewLocked()
}

// SetField stores one input value and clears that field's error only.
func (w *Wizard) SetField(name, value string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.step == StepComplete {
		return nil
	}

	d := &w.delivery
	card := &w.payment.Card
	switch name {
	case "fullName":
		d.FullName = value
	case "email":
		d.Email = value
	case "phone":
		d.Phone = value
	case "address":
		d.Address = value
	case "city":
		d.City = value
	case "state":
		d.State = value
	case "zipCode":
		d.ZipCode = value
	case "paymentMethod":
		w.payment.Method = value
		if value != models.PaymentCredit {
			for _, f := range []string{"cardNumber", "expiryDate", "cvv"} {
				delete(w.errors, f)
			}
		}
	case "cardName":
		card.CardName = value
	case "cardNumber":
		card.CardNumber = FormatCardNumber(value)
	case "expiryDate":
		card.Expiry = FormatExpiry(value)
	case "cvv":
		card.CVV = FormatCVV(value)
	default:
		return fmt.Errorf("unknown checkout field %q", name)
	}
	delete(w.errors, name)
	return nil
}

// Next advances from delivery to payment when every delivery field is valid.
func (w *Wizard) Next() View {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.step != StepDelivery {
		return w.viewLocked()
	}
	errs := w.validator.Delivery(&w.delivery)
	w.errors = errs
	if errs.Empty() {
		w.step = StepPayment
		w.err = ""
	}
	return w.viewLocked()
}

func (w *Wizard) Back() View {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.step == StepPayment && !w.submitting {
		w.step = StepDelivery
	}
	return w.viewLocked()
}

// Submit places the order. A credit payment is then settled with an opaque
// payment reference plus brand and last four digits. The idempotency key
// is kept until the whole sequence succeeds so a retry cannot duplicate
// the order.
func (w *Wizard) Submit(ctx context.Context) View {
	ctx, span := util.StartSpan(ctx, "Checkout.Submit")
	defer span.End()

	w.mu.Lock()
	if w.step != StepPayment || w.submitting {
		defer w.mu.Unlock()
		return w.viewLocked()
	}
	errs := w.validator.Payment(&w.payment)
	w.errors = errs
	if !errs.Empty() {
		util.CheckoutSubmissionsTotal.WithLabelValues("invalid").Inc()
		defer w.mu.Unlock()
		return w.viewLocked()
	}
	w.submitting = true
	w.err = ""
	delivery := w.delivery
	payment := w.payment
	w.mu.Unlock()

	order, err := w.place(ctx, delivery, payment)

	w.mu.Lock()
	w.submitting = false
	if err != nil {
		w.err = apiclient.Message(err, "Failed to place order. Please try again.")
		if errors.Is(err, ErrCheckoutInProgress) {
			w.err = "Your order is already being placed"
		}
		w.mu.Unlock()
		util.CheckoutSubmissionsTotal.WithLabelValues("failed").Inc()
		w.logger.Error("Checkout failed", zap.Error(err))
		return w.View()
	}
	w.order = order
	w.step = StepComplete
	w.payment.Card = validation.CardForm{}
	w.mu.Unlock()

	util.CheckoutSubmissionsTotal.WithLabelValues("completed").Inc()
	w.logger.Info("Checkout completed", zap.String("order_id", order.ID))

	if err := w.keys.Reset(ctx); err != nil {
		w.logger.Warn("Failed to reset checkout key", zap.Error(err))
	}
	if _, err := w.cart.Clear(ctx); err != nil {
		w.logger.Warn("Failed to clear cart after checkout", zap.Error(err))
	}
	if w.counter != nil {
		w.counter.Refresh(ctx)
	}
	if w.OnComplete != nil {
		w.OnComplete(ctx, order)
	}
	return w.View()
}

func (w *Wizard) place(ctx context.Context, delivery models.DeliveryInfo, payment validation.PaymentForm) (*models.Order, error) {
	key, err := w.keys.Key(ctx)
	if err != nil {
		return nil, err
	}

	delivery.Email = strings.TrimSpace(delivery.Email)
	order, err := w.orders.Create(ctx, &service.CreateOrderRequest{
		Delivery:      delivery,
		PaymentMethod: payment.Method,
	}, key)
	if err != nil {
		return nil, err
	}

	if payment.Method != models.PaymentCredit {
		return order, nil
	}

	resp, err := w.orders.Checkout(ctx, &service.CheckoutRequest{
		OrderID:         order.ID,
		PaymentMethodID: "pm_" + uuid.New().String(),
		CardBrand:       CardBrand(payment.Card.CardNumber),
		Last4:           last4(payment.Card.CardNumber),
	})
	if err != nil {
		return nil, err
	}
	if resp.PaymentStatus != "" {
		order.PaymentStatus = resp.PaymentStatus
	}
	return order, nil
}

// Reset starts a fresh checkout, e.g. after the complete screen.
func (w *Wizard) Reset() View {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.submitting {
		return w.viewLocked()
	}
	w.step = StepDelivery
	w.delivery = models.DeliveryInfo{}
	w.payment = validation.PaymentForm{Method: models.PaymentCredit}
	w.errors = validation.FieldErrors{}
	w.err = ""
	w.order = nil
	w.summary = nil
	return w.viewLocked()
}
