package storefront

import (
	"context"
	"strings"

	"marketplace-storefront/internal/models"
	"marketplace-storefront/internal/service"
	"marketplace-storefront/internal/util"
	"marketplace-storefront/internal/validation"

	"golang.org/x/sync/errgroup"
)

type AdminView struct {
	Stats           *models.ReportStats `json:"stats,omitempty"`
	PendingCount    int                 `json:"pendingCount"`
	Reports         []models.Report     `json:"reports"`
	ReportFilter    string              `json:"reportFilter"`
	Categories      []models.Category   `json:"categories"`
	Users           []models.User       `json:"users"`
	PendingListings []models.Product    `json:"pendingListings"`
	Status
}

// gate returns a forbidden status unless the signed-in user is an admin.
func (s *Storefront) gate() (Status, bool) {
	user := s.user()
	if user == nil {
		return Status{Unauthorized: true}, false
	}
	if !user.IsAdmin() {
		return Status{Forbidden: true, Error: "You do not have permission to view this page"}, false
	}
	return Status{}, true
}

// AdminDashboard loads everything the admin page shows. reportStatus
// filters the report list when set.
func (s *Storefront) AdminDashboard(ctx context.Context, reportStatus string) AdminView {
	ctx, span := util.StartSpan(ctx, "Storefront.AdminDashboard")
	defer span.End()

	if st, ok := s.gate(); !ok {
		return AdminView{Status: st}
	}

	view := AdminView{ReportFilter: reportStatus}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		view.Stats, err = s.services.Reports.Stats(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		view.PendingCount, err = s.services.Reports.PendingCount(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		view.Reports, err = s.services.Reports.List(gctx, reportStatus)
		return err
	})
	g.Go(func() error {
		var err error
		view.Categories, err = s.services.Categories.ProductCounts(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		view.Users, err = s.services.Users.List(gctx)
		return err
	})
	g.Go(func() error {
		page, err := s.services.Products.List(gctx, service.ProductFilter{Status: models.ProductStatusPending, Limit: 50})
		if err != nil {
			return err
		}
		view.PendingListings = page.Products
		return nil
	})
	if err := g.Wait(); err != nil {
		return AdminView{ReportFilter: reportStatus, Status: s.fail(err, "Failed to load admin dashboard", "Failed to load admin dashboard")}
	}
	return view
}

// UpdateReportStatus moves a report from pending to resolved or dismissed.
func (s *Storefront) UpdateReportStatus(ctx context.Context, id, status string) Result {
	if st, ok := s.gate(); !ok {
		return Result{Status: st}
	}
	if status != models.ReportStatusResolved && status != models.ReportStatusDismissed {
		return invalid(validation.FieldErrors{"status": "Please select a valid option"})
	}
	if err := s.services.Reports.UpdateStatus(ctx, id, status); err != nil {
		return Result{Status: s.fail(err, "Failed to update report", "Failed to update report")}
	}
	return Result{Message: "Report " + status}
}

func (s *Storefront) DeleteReport(ctx context.Context, id string) Result {
	if st, ok := s.gate(); !ok {
		return Result{Status: st}
	}
	if err := s.services.Reports.Delete(ctx, id); err != nil {
		return Result{Status: s.fail(err, "Failed to delete report", "Failed to delete report")}
	}
	return Result{Message: "Report deleted"}
}

type CategoryResult struct {
	Result
	Category *models.Category `json:"category,omitempty"`
}

// SaveCategory creates a category, or updates id when it is set.
func (s *Storefront) SaveCategory(ctx context.Context, id string, form *validation.CategoryForm) CategoryResult {
	if st, ok := s.gate(); !ok {
		return CategoryResult{Result: Result{Status: st}}
	}
	if errs := s.validator.Category(form); !errs.Empty() {
		return CategoryResult{Result: invalid(errs)}
	}
	req := &service.CategoryRequest{Name: strings.TrimSpace(form.Name), Description: strings.TrimSpace(form.Description)}

	var category *models.Category
	var err error
	if id == "" {
		category, err = s.services.Categories.Create(ctx, req)
	} else {
		category, err = s.services.Categories.Update(ctx, id, req)
	}
	if err != nil {
		return CategoryResult{Result: Result{Status: s.fail(err, "Failed to save category", "Failed to save category")}}
	}
	return CategoryResult{Result: Result{Message: "Category saved"}, Category: category}
}

func (s *Storefront) DeleteCategory(ctx context.Context, id string) Result {
	if st, ok := s.gate(); !ok {
		return Result{Status: st}
	}
	if err := s.services.Categories.Delete(ctx, id); err != nil {
		return Result{Status: s.fail(err, "Failed to delete category", "Failed to delete category")}
	}
	return Result{Message: "Category deleted"}
}

func (s *Storefront) DeleteUser(ctx context.Context, id string) Result {
	if st, ok := s.gate(); !ok {
		return Result{Status: st}
	}
	if id == s.userID() {
		return Result{Status: Status{Error: "You cannot delete your own account from the admin dashboard"}}
	}
	if err := s.services.Users.Delete(ctx, id); err != nil {
		return Result{Status: s.fail(err, "Failed to delete user", "Failed to delete user")}
	}
	return Result{Message: "User deleted"}
}

// ModerateListing approves or rejects a pending listing.
func (s *Storefront) ModerateListing(ctx context.Context, id string, approve bool) Result {
	if st, ok := s.gate(); !ok {
		return Result{Status: st}
	}
	status := models.ProductStatusRejected
	if approve {
		status = models.ProductStatusApproved
	}
	if err := s.services.Products.UpdateStatus(ctx, id, status); err != nil {
		return Result{Status: s.fail(err, "Failed to update listing", "Failed to moderate listing")}
	}
	return Result{Message: "Listing " + status}
}
