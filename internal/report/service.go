package report

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/vasiliy-maslov/freshcart/internal/order"
)

type Service interface {
	Summary(ctx context.Context) (*Summary, error)
}

type Options struct {
	LowStockThreshold int
	TopProducts       int
}

type service struct {
	repo Repository
	opts Options
	now  func() time.Time
}

func NewService(repo Repository, opts Options) Service {
	if opts.TopProducts <= 0 {
		opts.TopProducts = 5
	}
	if opts.LowStockThreshold < 0 {
		opts.LowStockThreshold = 0
	}
	return &service{repo: repo, opts: opts, now: time.Now}
}

func (s *service) Summary(ctx context.Context) (*Summary, error) {
	totals, err := s.repo.Totals(ctx)
	if err != nil {
		log.Error().Err(err).Msg("service: failed to load report totals")
		return nil, fmt.Errorf("service: failed to build summary: %w", err)
	}

	counts, err := s.repo.OrdersByStatus(ctx)
	if err != nil {
		log.Error().Err(err).Msg("service: failed to load order status counts")
		return nil, fmt.Errorf("service: failed to build summary: %w", err)
	}

	top, err := s.repo.TopProducts(ctx, s.opts.TopProducts)
	if err != nil {
		log.Error().Err(err).Msg("service: failed to load top products")
		return nil, fmt.Errorf("service: failed to build summary: %w", err)
	}

	low, err := s.repo.LowStock(ctx, s.opts.LowStockThreshold)
	if err != nil {
		log.Error().Err(err).Msg("service: failed to load low stock products")
		return nil, fmt.Errorf("service: failed to build summary: %w", err)
	}

	byStatus := make(map[string]int, len(order.OrderStatuses))
	for _, status := range order.OrderStatuses {
		byStatus[status.String()] = 0
	}
	for _, c := range counts {
		byStatus[c.Status] = c.Count
	}

	return &Summary{
		Totals:            *totals,
		OrdersByStatus:    byStatus,
		TopProducts:       top,
		LowStock:          low,
		LowStockThreshold: s.opts.LowStockThreshold,
		GeneratedAt:       s.now().UTC(),
	}, nil
}
