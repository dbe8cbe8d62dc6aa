package storefront

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"marketplace-storefront/config"
	"marketplace-storefront/internal/apiclient"
	"marketplace-storefront/internal/authstate"
	"marketplace-storefront/internal/cart"
	"marketplace-storefront/internal/imageurl"
	"marketplace-storefront/internal/models"
	"marketplace-storefront/internal/service"
	"marketplace-storefront/internal/session"
	"marketplace-storefront/internal/validation"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	sf       *Storefront
	mux      *http.ServeMux
	store    *session.MemoryStore
	auth     *authstate.Manager
	activity *recordingActivity
}

type recordingActivity struct {
	NoopActivity
	listings []string
	reviews  []string
}

func (r *recordingActivity) ListingCreated(ctx context.Context, userID string, p *models.Product) {
	r.listings = append(r.listings, p.ID)
}

func (r *recordingActivity) ReviewSubmitted(ctx context.Context, userID string, rv *models.Review) {
	r.reviews = append(r.reviews, rv.ID)
}

func newFixture(t *testing.T, user *models.User) *fixture {
	t.Helper()
	mux := http.NewServeMux()
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	store := session.NewMemoryStore()
	if user != nil {
		require.NoError(t, store.Save(context.Background(), &session.Session{Token: "tok", User: user}))
	}

	client := apiclient.NewClient(srv.URL+"/api", time.Second, apiclient.WithTokenSource(store))
	svcs := service.New(client, imageurl.Resolver{Base: "http://assets", Placeholder: "/placeholder.png"})
	auth := authstate.NewManager(svcs.Auth, store)
	auth.Init(context.Background())
	client.SetUnauthorizedHandler(auth.HandleUnauthorized)

	activity := &recordingActivity{}
	sf := New(Deps{
		Services:  svcs,
		Auth:      auth,
		Counter:   cart.NewCounter(svcs.Cart),
		Validator: validation.New("mavs.uta.edu"),
		Prefs:     store,
		Activity:  activity,
		Config:    config.StorefrontConfig{ProductRetries: 2, PageSize: 12},
	})
	return &fixture{sf: sf, mux: mux, store: store, auth: auth, activity: activity}
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

var (
	member = &models.User{ID: "u-1", Name: "Ada", Role: models.RoleUser}
	admin  = &models.User{ID: "u-admin", Name: "Root", Role: models.RoleAdmin}
)

func TestHomeAllOrNothing(t *testing.T) {
	f := newFixture(t, nil)
	f.mux.HandleFunc("/api/products/featured", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, 200, []models.Product{{ID: "p-1", Name: "Desk"}})
	})
	f.mux.HandleFunc("/api/categories", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, 500, map[string]string{"message": "database down"})
	})

	view := f.sf.Home(context.Background())

	assert.Equal(t, "Failed to load products", view.Error)
	assert.Nil(t, view.Featured)
	assert.Nil(t, view.Categories)
}

func TestHomeLoadsBoth(t *testing.T) {
	f := newFixture(t, nil)
	f.mux.HandleFunc("/api/products/featured", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "8", r.URL.Query().Get("limit"))
		writeJSON(w, 200, []models.Product{{ID: "p-1", Images: []models.ProductImage{{URL: "desk.jpg"}}}})
	})
	f.mux.HandleFunc("/api/categories", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, 200, []models.Category{{ID: "c-1", Name: "Books"}})
	})

	view := f.sf.Home(context.Background())

	require.Empty(t, view.Error)
	require.Len(t, view.Featured, 1)
	assert.Equal(t, "http://assets/uploads/desk.jpg", view.Featured[0].Images[0].URL)
	assert.Len(t, view.Categories, 1)
}

func TestBrowseFilterResetsPage(t *testing.T) {
	f := newFixture(t, nil)
	var pages []string
	f.mux.HandleFunc("/api/products", func(w http.ResponseWriter, r *http.Request) {
		pages = append(pages, r.URL.Query().Get("page"))
		writeJSON(w, 200, models.ProductPage{Products: []models.Product{{ID: "p-1"}}, Total: 50, TotalPages: 5, Page: 1})
	})
	f.mux.HandleFunc("/api/categories", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, 200, []models.Category{{ID: "c-1"}})
	})

	ctx := context.Background()
	f.sf.Browse.Load(ctx)
	f.sf.Browse.SetPage(ctx, 3)
	view, err := f.sf.Browse.SetFilter(ctx, "category", "books")
	require.NoError(t, err)

	assert.Equal(t, []string{"1", "3", "1"}, pages)
	assert.Equal(t, 1, view.Filter.Page)
	assert.Equal(t, "books", view.Filter.Category)
	assert.Len(t, view.Categories, 1)

	_, err = f.sf.Browse.SetFilter(ctx, "color", "red")
	assert.Error(t, err)
}

func TestBrowseFailureDropsOldResults(t *testing.T) {
	f := newFixture(t, nil)
	f.mux.HandleFunc("/api/products", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("category") == "books" {
			writeJSON(w, 500, map[string]string{"message": "search unavailable"})
			return
		}
		writeJSON(w, 200, models.ProductPage{Products: []models.Product{{ID: "p-1"}}, Total: 50, TotalPages: 5, Page: 1})
	})
	f.mux.HandleFunc("/api/categories", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, 200, []models.Category{{ID: "c-1"}})
	})

	ctx := context.Background()
	require.Len(t, f.sf.Browse.Load(ctx).Products, 1)

	view, err := f.sf.Browse.SetFilter(ctx, "category", "books")
	require.NoError(t, err)

	assert.Equal(t, "search unavailable", view.Error)
	assert.Equal(t, "books", view.Filter.Category)
	assert.Empty(t, view.Products)
	assert.Zero(t, view.Total)
	assert.Zero(t, view.TotalPages)
	assert.Len(t, view.Categories, 1)
}

func TestProductDetailRetriesThenLoads(t *testing.T) {
	f := newFixture(t, member)
	var hits int32
	f.mux.HandleFunc("/api/products/p-1", func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&hits, 1) < 3 {
			writeJSON(w, 503, map[string]string{"message": "busy"})
			return
		}
		writeJSON(w, 200, models.Product{ID: "p-1", Name: "Desk", Seller: &models.User{ID: "u-1"}})
	})
	f.mux.HandleFunc("/api/reviews/product/p-1", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, 200, []models.Review{{ID: "r-1", Rating: 5, Comment: "Great"}})
	})
	f.mux.HandleFunc("/api/reviews/product/p-1/mine", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, 404, map[string]string{"message": "none"})
	})
	f.mux.HandleFunc("/api/reviews/eligibility/p-1", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, 200, models.ReviewEligibility{Eligible: false, Reason: "own listing"})
	})
	f.mux.HandleFunc("/api/reports/check", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, 200, map[string]bool{"hasReported": true})
	})

	view := f.sf.ProductDetail(context.Background(), "p-1")

	require.Empty(t, view.Error)
	assert.EqualValues(t, 3, atomic.LoadInt32(&hits))
	assert.Equal(t, "Desk", view.Product.Name)
	assert.True(t, view.IsOwner)
	assert.Len(t, view.Reviews, 1)
	assert.Nil(t, view.MyReview)
	require.NotNil(t, view.Eligibility)
	assert.False(t, view.Eligibility.Eligible)
	assert.True(t, view.Reported)
}

func TestProductDetailGivesUpAfterRetries(t *testing.T) {
	f := newFixture(t, nil)
	var hits int32
	f.mux.HandleFunc("/api/products/p-1", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		writeJSON(w, 500, map[string]string{})
	})

	view := f.sf.ProductDetail(context.Background(), "p-1")

	assert.EqualValues(t, 3, atomic.LoadInt32(&hits))
	assert.Nil(t, view.Product)
	assert.NotEmpty(t, view.Error)
}

func TestProductDetailNotFoundIsNotRetried(t *testing.T) {
	f := newFixture(t, nil)
	var hits int32
	f.mux.HandleFunc("/api/products/gone", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		writeJSON(w, 404, map[string]string{"message": "Product not found"})
	})

	view := f.sf.ProductDetail(context.Background(), "gone")

	assert.EqualValues(t, 1, atomic.LoadInt32(&hits))
	assert.True(t, view.NotFound)
	assert.Equal(t, "Product not found", view.Error)
}

func TestCanSubmitReview(t *testing.T) {
	for _, rating := range []int{1, 3, 5} {
		assert.False(t, CanSubmitReview(rating, ""))
		assert.False(t, CanSubmitReview(rating, " \n\t "))
		assert.True(t, CanSubmitReview(rating, "Fast pickup"))
	}
	assert.False(t, CanSubmitReview(0, "Fast pickup"))
}

func TestSubmitReviewBlankCommentNeverSent(t *testing.T) {
	f := newFixture(t, member)
	f.mux.HandleFunc("/api/reviews", func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("review must not be sent")
	})

	res := f.sf.SubmitReview(context.Background(), "p-1", "", &validation.ReviewForm{Rating: 5, Comment: "   "})

	assert.True(t, res.Errors.Has("comment"))
	assert.Empty(t, f.activity.reviews)
}

func TestSubmitReviewCreates(t *testing.T) {
	f := newFixture(t, member)
	f.mux.HandleFunc("/api/reviews", func(w http.ResponseWriter, r *http.Request) {
		var body service.ReviewRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "Great seller", body.Comment)
		writeJSON(w, 201, models.Review{ID: "r-9", Rating: body.Rating, Comment: body.Comment})
	})

	res := f.sf.SubmitReview(context.Background(), "p-1", "", &validation.ReviewForm{Rating: 4, Comment: " Great seller "})

	require.Empty(t, res.Error)
	assert.Equal(t, "r-9", res.Review.ID)
	assert.Equal(t, []string{"r-9"}, f.activity.reviews)
}

func TestCreateListingNeedsImage(t *testing.T) {
	f := newFixture(t, member)
	form := &validation.ListingForm{Name: "Desk", Description: "Oak", Price: "40", Category: "furniture", Condition: "good"}

	res := f.sf.CreateListing(context.Background(), form, nil)
	assert.Equal(t, "Please add at least one image", res.Errors["images"])
	assert.Empty(t, f.activity.listings)
}

func TestSetMainImageLeavesExactlyOneMain(t *testing.T) {
	f := newFixture(t, member)
	f.mux.HandleFunc("/api/products/p-1/images/img-2/main", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		writeJSON(w, 200, map[string]bool{"success": true})
	})
	f.mux.HandleFunc("/api/products/p-1", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, 200, models.Product{ID: "p-1", Images: []models.ProductImage{
			{ID: "img-1", URL: "/uploads/a.jpg", IsMain: true},
			{ID: "img-2", URL: "/uploads/b.jpg"},
		}})
	})

	res := f.sf.SetMainImage(context.Background(), "p-1", "img-2")

	require.NotNil(t, res.Product)
	mains := 0
	for _, img := range res.Product.Images {
		if img.IsMain {
			mains++
			assert.Equal(t, "img-2", img.ID)
		}
	}
	assert.Equal(t, 1, mains)
	assert.Equal(t, "http://assets/uploads/b.jpg", res.Product.MainImage())
}

func TestAdminGate(t *testing.T) {
	f := newFixture(t, member)
	view := f.sf.AdminDashboard(context.Background(), "")
	assert.True(t, view.Forbidden)

	anon := newFixture(t, nil)
	assert.True(t, anon.sf.AdminDashboard(context.Background(), "").Unauthorized)
}

func TestAdminReportStatusTransitions(t *testing.T) {
	f := newFixture(t, admin)
	f.mux.HandleFunc("/api/reports/admin/rep-1/status", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, models.ReportStatusResolved, body["status"])
		writeJSON(w, 200, map[string]bool{"success": true})
	})

	res := f.sf.UpdateReportStatus(context.Background(), "rep-1", models.ReportStatusPending)
	assert.True(t, res.Errors.Has("status"))

	res = f.sf.UpdateReportStatus(context.Background(), "rep-1", models.ReportStatusResolved)
	assert.Empty(t, res.Error)
	assert.Equal(t, "Report resolved", res.Message)
}

func TestDeleteAccountLogsOut(t *testing.T) {
	f := newFixture(t, member)
	f.mux.HandleFunc("/api/users/u-1", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodDelete, r.Method)
		writeJSON(w, 200, map[string]bool{"success": true})
	})
	f.mux.HandleFunc("/api/auth/logout", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, 200, map[string]bool{"success": true})
	})

	res := f.sf.DeleteAccount(context.Background())
	f.auth.Wait()

	assert.Empty(t, res.Error)
	assert.False(t, f.auth.IsAuthenticated())
	token, _ := f.store.Token(context.Background())
	assert.Empty(t, token)
}

func TestExpiredSessionSurfacesUnauthorized(t *testing.T) {
	f := newFixture(t, member)
	f.mux.HandleFunc("/api/orders", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, 401, map[string]string{"message": "jwt expired"})
	})

	view := f.sf.Orders(context.Background())

	assert.True(t, view.Unauthorized)
	assert.False(t, f.auth.IsAuthenticated())
}

func TestPreferencesStayLocal(t *testing.T) {
	f := newFixture(t, member)
	prefs := models.NotificationPreferences{Marketing: true}

	res := f.sf.SavePreferences(context.Background(), prefs)
	require.Empty(t, res.Error)

	stored, err := f.store.LoadPreferences(context.Background())
	require.NoError(t, err)
	assert.Equal(t, prefs, stored)
}

func TestContactValidation(t *testing.T) {
	f := newFixture(t, nil)
	res := f.sf.Contact(context.Background(), &validation.ContactForm{Name: "A", Email: "bad", Subject: "Hi", Message: "Hello there, friend"})
	assert.Equal(t, "Please enter a valid email address", res.Errors["email"])
}
