package service

import (
	"context"
	"net/url"

	"marketplace-storefront/internal/models"
)

// ReportService maps /reports endpoints; the /reports/admin subtree needs
// an admin token.
type ReportService struct{ base }

type ReportRequest struct {
	Type        string `json:"type"`
	ItemID      string `json:"itemId"`
	Reason      string `json:"reason"`
	Description string `json:"description,omitempty"`
}

func (s *ReportService) Create(ctx context.Context, req *ReportRequest) (*models.Report, error) {
	var report models.Report
	if err := s.client.Post(ctx, "/reports", req, &report); err != nil {
		return nil, err
	}
	return &report, nil
}

// Check reports whether the current user already reported the item.
func (s *ReportService) Check(ctx context.Context, itemType, itemID string) (bool, error) {
	var resp struct {
		Reported    bool `json:"reported"`
		HasReported bool `json:"hasReported"`
	}
	query := url.Values{"type": {itemType}, "itemId": {itemID}}
	if err := s.client.Get(ctx, "/reports/check", query, &resp); err != nil {
		return false, err
	}
	return resp.Reported || resp.HasReported, nil
}

// List returns reports for the admin dashboard, filtered by status when set.
func (s *ReportService) List(ctx context.Context, status string) ([]models.Report, error) {
	var query url.Values
	if status != "" {
		query = url.Values{"status": {status}}
	}
	var reports []models.Report
	if err := s.client.Get(ctx, "/reports/admin", query, &reports); err != nil {
		return nil, err
	}
	return reports, nil
}

func (s *ReportService) Stats(ctx context.Context) (*models.ReportStats, error) {
	var stats models.ReportStats
	if err := s.client.Get(ctx, "/reports/admin/stats", nil, &stats); err != nil {
		return nil, err
	}
	return &stats, nil
}

func (s *ReportService) PendingCount(ctx context.Context) (int, error) {
	var resp struct {
		Count int `json:"count"`
	}
	if err := s.client.Get(ctx, "/reports/admin/pending-count", nil, &resp); err != nil {
		return 0, err
	}
	return resp.Count, nil
}

func (s *ReportService) UpdateStatus(ctx context.Context, id, status string) error {
	return s.client.Put(ctx, "/reports/admin/"+url.PathEscape(id)+"/status", map[string]string{"status": status}, nil)
}

func (s *ReportService) Delete(ctx context.Context, id string) error {
	return s.client.Delete(ctx, "/reports/admin/"+url.PathEscape(id), nil)
}
