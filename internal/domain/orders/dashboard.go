package orders

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"
)

// salesStatuses are the order states counted as revenue.
var salesStatuses = []string{StatusPaid, StatusShipped, StatusDelivered}

type Dashboard struct {
	Sales        Sales          `json:"sales"`
	PendingCount int            `json:"pending_count"`
	ByStatus     map[string]int `json:"by_status"`
	Recent       []Order        `json:"recent"`
}

// Dashboard runs the admin summary queries concurrently.
func (s *Service) Dashboard(ctx context.Context) (*Dashboard, error) {
	var (
		out    Dashboard
		counts map[string]int
	)
	repo := s.store.Orders()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		sales, err := repo.SalesSummary(gctx, salesStatuses)
		if err != nil {
			return fmt.Errorf("sales summary: %w", err)
		}
		out.Sales = sales
		return nil
	})
	g.Go(func() error {
		c, err := repo.CountByStatus(gctx)
		if err != nil {
			return fmt.Errorf("count by status: %w", err)
		}
		counts = c
		return nil
	})
	g.Go(func() error {
		recent, err := repo.List(gctx, Filters{Limit: 5})
		if err != nil {
			return fmt.Errorf("recent orders: %w", err)
		}
		out.Recent = recent
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if counts == nil {
		counts = map[string]int{}
	}
	out.ByStatus = counts
	out.PendingCount = counts[StatusPending]
	return &out, nil
}
