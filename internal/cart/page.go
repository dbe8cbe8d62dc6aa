// Package cart holds the cart count cache and the cart page state.
package cart

import (
	"context"
	"sync"

	"marketplace-storefront/internal/apiclient"
	"marketplace-storefront/internal/models"
	"marketplace-storefront/internal/util"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// API is the cart service as used by the page.
type API interface {
	CountAPI
	Get(ctx context.Context) (*models.Cart, error)
	UpdateItem(ctx context.Context, productID string, quantity int) (*models.Cart, error)
	RemoveItem(ctx context.Context, productID string) (*models.Cart, error)
	Clear(ctx context.Context) (*models.Cart, error)
	Validate(ctx context.Context) (*models.CartValidation, error)
}

type MutationKind string

const (
	KindUpdate MutationKind = "update"
	KindRemove MutationKind = "remove"
	KindClear  MutationKind = "clear"
)

// MutationState moves pending -> committed | reverted exactly once.
type MutationState string

const (
	StatePending   MutationState = "pending"
	StateCommitted MutationState = "committed"
	StateReverted  MutationState = "reverted"
)

type Mutation struct {
	ID        uint64        `json:"id"`
	Kind      MutationKind  `json:"kind"`
	ProductID string        `json:"productId,omitempty"`
	Quantity  int           `json:"quantity,omitempty"`
	State     MutationState `json:"state"`
	Err       string        `json:"error,omitempty"`
}

const mutationHistory = 20

// View is the renderable state of the cart page.
type View struct {
	Cart        *models.Cart           `json:"cart"`
	ItemCount   int                    `json:"itemCount"`
	Loading     bool                   `json:"loading"`
	Error       string                 `json:"error,omitempty"`
	Mutations   []Mutation             `json:"mutations,omitempty"`
	Validation  *models.CartValidation `json:"validation,omitempty"`
	CanCheckout bool                   `json:"canCheckout"`
}

// Page applies cart mutations optimistically, then replaces local state
// with the server's cart on success or a full refetch on failure.
//
// Each mutation gets a sequence number. A server cart is applied only if
// no newer mutation started since, so a slow response never overwrites
// the result of a later action.
type Page struct {
	api     API
	counter *Counter
	logger  *zap.Logger

	mu         sync.Mutex
	cart       *models.Cart
	loading    bool
	err        string
	seq        uint64
	stale      bool
	mutations  []*Mutation
	validation *models.CartValidation
}

func NewPage(api API, counter *Counter) *Page {
	return &Page{api: api, counter: counter, logger: util.GetLogger()}
}

func (p *Page) View() View {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.viewLocked()
}

func (p *Page) viewLocked() View {
	v := View{Loading: p.loading, Error: p.err, Validation: p.validation}
	if p.cart != nil {
		v.Cart = p.cart.Clone()
		v.ItemCount = p.cart.ItemCount()
		v.CanCheckout = len(p.cart.Items) > 0
	}
	for _, m := range p.mutations {
		v.Mutations = append(v.Mutations, *m)
	}
	return v
}

// Load fetches the cart. A failed load keeps whatever was shown before.
func (p *Page) Load(ctx context.Context) View {
	ctx, span := util.StartSpan(ctx, "CartPage.Load")
	defer span.End()

	p.mu.Lock()
	p.loading = true
	issued := p.seq
	p.mu.Unlock()

	c, err := p.api.Get(ctx)

	p.mu.Lock()
	defer p.mu.Unlock()
	p.loading = false
	if err != nil {
		p.logger.Warn("Failed to load cart", zap.Error(err))
		p.err = apiclient.Message(err, "Failed to load cart")
		return p.viewLocked()
	}
	if issued == p.seq {
		p.cart = c
		p.stale = false
	}
	p.err = ""
	return p.viewLocked()
}

// UpdateQuantity sets the quantity of productID. Quantities below one are
// refused locally and never sent.
func (p *Page) UpdateQuantity(ctx context.Context, productID string, quantity int) *Mutation {
	if quantity < 1 {
		return nil
	}
	apply := func(c *models.Cart) bool {
		for i := range c.Items {
			if c.Items[i].ProductID == productID {
				if c.Items[i].Quantity == quantity {
					return false
				}
				c.Items[i].Quantity = quantity
				return true
			}
		}
		return false
	}
	call := func(ctx context.Context) (*models.Cart, error) {
		return p.api.UpdateItem(ctx, productID, quantity)
	}
	return p.run(ctx, Mutation{Kind: KindUpdate, ProductID: productID, Quantity: quantity}, apply, call, "Failed to update quantity")
}

func (p *Page) Increment(ctx context.Context, productID string) *Mutation {
	qty, ok := p.quantity(productID)
	if !ok {
		return nil
	}
	return p.UpdateQuantity(ctx, productID, qty+1)
}

// Decrement at quantity one is a no-op.
func (p *Page) Decrement(ctx context.Context, productID string) *Mutation {
	qty, ok := p.quantity(productID)
	if !ok || qty <= 1 {
		return nil
	}
	return p.UpdateQuantity(ctx, productID, qty-1)
}

func (p *Page) Remove(ctx context.Context, productID string) *Mutation {
	apply := func(c *models.Cart) bool {
		for i := range c.Items {
			if c.Items[i].ProductID == productID {
				c.Items = append(c.Items[:i], c.Items[i+1:]...)
				return true
			}
		}
		return false
	}
	call := func(ctx context.Context) (*models.Cart, error) {
		return p.api.RemoveItem(ctx, productID)
	}
	return p.run(ctx, Mutation{Kind: KindRemove, ProductID: productID}, apply, call, "Failed to remove item")
}

func (p *Page) Clear(ctx context.Context) *Mutation {
	apply := func(c *models.Cart) bool {
		if len(c.Items) == 0 {
			return false
		}
		c.Items = nil
		return true
	}
	return p.run(ctx, Mutation{Kind: KindClear}, apply, p.api.Clear, "Failed to clear cart")
}

// Validate asks the server whether every item can still be bought.
func (p *Page) Validate(ctx context.Context) View {
	v, err := p.api.Validate(ctx)

	p.mu.Lock()
	defer p.mu.Unlock()
	if err != nil {
		p.logger.Warn("Failed to validate cart", zap.Error(err))
		p.err = apiclient.Message(err, "Failed to validate cart")
		return p.viewLocked()
	}
	p.validation = v
	return p.viewLocked()
}

func (p *Page) quantity(productID string) (int, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.cart == nil {
		return 0, false
	}
	for _, item := range p.cart.Items {
		if item.ProductID == productID {
			return item.Quantity, true
		}
	}
	return 0, false
}

func (p *Page) run(
	ctx context.Context,
	m Mutation,
	apply func(*models.Cart) bool,
	call func(context.Context) (*models.Cart, error),
	fallback string,
) *Mutation {
	ctx, span := util.StartSpan(ctx, "CartPage."+string(m.Kind))
	defer span.End()

	p.mu.Lock()
	if p.cart == nil {
		p.mu.Unlock()
		return nil
	}
	next := p.cart.Clone()
	if !apply(next) {
		p.mu.Unlock()
		return nil
	}
	recomputeTotals(next, p.cart)
	p.seq++
	m.ID = p.seq
	m.State = StatePending
	rec := &m
	p.cart = next
	p.err = ""
	p.validation = nil
	p.record(rec)
	p.mu.Unlock()

	server, err := call(ctx)

	if err != nil {
		p.logger.Warn("Cart mutation failed, refetching",
			zap.String("kind", string(m.Kind)),
			zap.String("product_id", m.ProductID),
			zap.Error(err))
		p.mu.Lock()
		rec.State = StateReverted
		rec.Err = apiclient.Message(err, fallback)
		p.err = rec.Err
		p.stale = true
		p.mu.Unlock()
		util.CartMutationsTotal.WithLabelValues(string(m.Kind), string(StateReverted)).Inc()
		p.refetch(ctx)
	} else {
		p.mu.Lock()
		rec.State = StateCommitted
		latest := rec.ID == p.seq
		needRefetch := false
		switch {
		case server != nil && latest:
			p.cart = server
			p.stale = false
		case server == nil && latest:
			// No cart in the response: fetch the authoritative totals.
			needRefetch = true
		}
		p.mu.Unlock()
		util.CartMutationsTotal.WithLabelValues(string(m.Kind), string(StateCommitted)).Inc()
		if needRefetch {
			p.refetch(ctx)
		}
	}

	if p.counter != nil {
		p.counter.Refresh(ctx)
	}

	p.mu.Lock()
	out := *rec
	p.mu.Unlock()
	return &out
}

// refetch replaces local state with the server cart unless a newer
// mutation started meanwhile; that mutation settles the state instead.
func (p *Page) refetch(ctx context.Context) {
	p.mu.Lock()
	issued := p.seq
	p.mu.Unlock()

	c, err := p.api.Get(ctx)

	p.mu.Lock()
	defer p.mu.Unlock()
	if err != nil {
		p.logger.Error("Cart refetch failed", zap.Error(err))
		return
	}
	if issued != p.seq {
		return
	}
	p.cart = c
	p.stale = false
}

// Reset drops the cached cart, e.g. on logout. Responses still in flight
// are discarded.
func (p *Page) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.seq++
	p.cart = nil
	p.err = ""
	p.stale = false
	p.mutations = nil
	p.validation = nil
}

func (p *Page) record(m *Mutation) {
	p.mutations = append(p.mutations, m)
	if len(p.mutations) > mutationHistory {
		p.mutations = p.mutations[len(p.mutations)-mutationHistory:]
	}
}

// recomputeTotals derives optimistic totals for next. The service fee keeps
// the fee/subtotal ratio of prev; the server's figures replace these on
// commit.
func recomputeTotals(next, prev *models.Cart) {
	subtotal := decimal.Zero
	for _, item := range next.Items {
		subtotal = subtotal.Add(item.LineTotal())
	}

	fee := decimal.Zero
	if !prev.Subtotal.IsZero() && len(next.Items) > 0 {
		fee = subtotal.Mul(prev.ServiceFee).Div(prev.Subtotal).Round(2)
	}

	next.Subtotal = subtotal
	next.ServiceFee = fee
	next.Total = subtotal.Add(fee)
}
