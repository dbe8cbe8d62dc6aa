// Package storefront implements the page containers that need no state
// beyond a single request, plus the browse page filter state.
package storefront

import (
	"context"

	"marketplace-storefront/config"
	"marketplace-storefront/internal/apiclient"
	"marketplace-storefront/internal/authstate"
	"marketplace-storefront/internal/cart"
	"marketplace-storefront/internal/models"
	"marketplace-storefront/internal/service"
	"marketplace-storefront/internal/session"
	"marketplace-storefront/internal/util"
	"marketplace-storefront/internal/validation"

	"go.uber.org/zap"
)

// Activity receives storefront events. Implementations must not block the
// caller on delivery.
type Activity interface {
	OrderPlaced(ctx context.Context, userID string, order *models.Order)
	MessageSent(ctx context.Context, userID string, msg *models.Message)
	ListingCreated(ctx context.Context, userID string, product *models.Product)
	ReviewSubmitted(ctx context.Context, userID string, review *models.Review)
	ReportFiled(ctx context.Context, userID string, report *models.Report)
}

type NoopActivity struct{}

func (NoopActivity) OrderPlaced(context.Context, string, *models.Order) {}
func (NoopActivity) MessageSent(context.Context, string, *models.Message) {}
func (NoopActivity) ListingCreated(context.Context, string, *models.Product) {}
func (NoopActivity) ReviewSubmitted(context.Context, string, *models.Review) {}
func (NoopActivity) ReportFiled(context.Context, string, *models.Report) {}

// Status is the failure part shared by every view.
type Status struct {
	Error        string `json:"error,omitempty"`
	NotFound     bool   `json:"notFound,omitempty"`
	Unauthorized bool   `json:"unauthorized,omitempty"`
	Forbidden    bool   `json:"forbidden,omitempty"`
}

// Result is returned by form submissions.
type Result struct {
	Status
	Errors  validation.FieldErrors `json:"errors,omitempty"`
	Message string                 `json:"message,omitempty"`
}

type Deps struct {
	Services  *service.Services
	Auth      *authstate.Manager
	Counter   *cart.Counter
	Validator *validation.Validator
	Prefs     session.Store
	Activity  Activity
	Config    config.StorefrontConfig
}

type Storefront struct {
	services  *service.Services
	auth      *authstate.Manager
	counter   *cart.Counter
	validator *validation.Validator
	prefs     session.Store
	activity  Activity
	cfg       config.StorefrontConfig
	logger    *zap.Logger

	Browse *Browse
}

func New(d Deps) *Storefront {
	if d.Activity == nil {
		d.Activity = NoopActivity{}
	}
	if d.Config.PageSize <= 0 {
		d.Config.PageSize = 12
	}
	s := &Storefront{
		services:  d.Services,
		auth:      d.Auth,
		counter:   d.Counter,
		validator: d.Validator,
		prefs:     d.Prefs,
		activity:  d.Activity,
		cfg:       d.Config,
		logger:    util.GetLogger(),
	}
	s.Browse = newBrowse(d.Services.Products, d.Services.Categories, d.Config.PageSize)
	return s
}

func (s *Storefront) user() *models.User {
	if s.auth == nil {
		return nil
	}
	return s.auth.User()
}

func (s *Storefront) userID() string {
	if u := s.user(); u != nil {
		return u.ID
	}
	return ""
}

// fail logs err and converts it into a view status.
func (s *Storefront) fail(err error, fallback, msg string) Status {
	s.logger.Error(msg, zap.Error(err))
	return failure(err, fallback)
}

func failure(err error, fallback string) Status {
	switch {
	case apiclient.IsUnauthorized(err):
		return Status{Unauthorized: true, Error: "Please log in to continue"}
	case apiclient.IsNotFound(err):
		return Status{NotFound: true, Error: apiclient.Message(err, fallback)}
	}
	return Status{Error: apiclient.Message(err, fallback)}
}

func invalid(errs validation.FieldErrors) Result {
	return Result{Errors: errs}
}
