package product

import (
	"context"
	"errors"
	"fmt"

	"github.com/gofrs/uuid"
	"github.com/rs/zerolog/log"
)

type Service interface {
	ListProducts(ctx context.Context, query ListQuery) (*Page, error)
	ListCategories(ctx context.Context) ([]string, error)
	GetProduct(ctx context.Context, id uuid.UUID) (*Product, error)
	CreateProduct(ctx context.Context, product *Product) (*Product, error)
	UpdateProduct(ctx context.Context, id uuid.UUID, update Update) (*Product, error)
	DeleteProduct(ctx context.Context, id uuid.UUID) error
}

type service struct {
	repo Repository
}

func NewService(repo Repository) Service {
	return &service{repo: repo}
}

func (s *service) ListProducts(ctx context.Context, query ListQuery) (*Page, error) {
	if err := query.Normalize(); err != nil {
		return nil, err
	}

	products, total, err := s.repo.List(ctx, query)
	if err != nil {
		log.Error().Err(err).Int("page", query.Page).Int("limit", query.Limit).Msg("service: failed to list products in repository")
		return nil, fmt.Errorf("service: failed to list products: %w", err)
	}

	return &Page{
		Products:    products,
		TotalPages:  TotalPages(total, query.Limit),
		CurrentPage: query.Page,
		Total:       total,
		Limit:       query.Limit,
	}, nil
}

func (s *service) ListCategories(ctx context.Context) ([]string, error) {
	categories, err := s.repo.Categories(ctx)
	if err != nil {
		log.Error().Err(err).Msg("service: failed to list categories in repository")
		return nil, fmt.Errorf("service: failed to list categories: %w", err)
	}
	return categories, nil
}

func (s *service) GetProduct(ctx context.Context, id uuid.UUID) (*Product, error) {
	product, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrNotFound
		}
		log.Error().Err(err).Stringer("product_id", id).Msg("service: failed to get product in repository")
		return nil, fmt.Errorf("service: failed to get product: %w", err)
	}
	return product, nil
}

func (s *service) CreateProduct(ctx context.Context, product *Product) (*Product, error) {
	if err := product.Validate(); err != nil {
		log.Warn().Err(err).Msg("service: rejected product")
		return nil, err
	}
	product.ID = uuid.Nil
	product.SoldCount = 0

	if _, err := s.repo.Create(ctx, product); err != nil {
		if errors.Is(err, ErrInvalidProduct) {
			return nil, err
		}
		log.Error().Err(err).Msg("service: failed to create product in repository")
		return nil, fmt.Errorf("service: failed to create product: %w", err)
	}

	log.Info().Stringer("product_id", product.ID).Str("name", product.Name).Msg("service: product created")
	return product, nil
}

func (s *service) UpdateProduct(ctx context.Context, id uuid.UUID, update Update) (*Product, error) {
	if err := update.Validate(); err != nil {
		log.Warn().Err(err).Stringer("product_id", id).Msg("service: rejected product update")
		return nil, err
	}

	product, err := s.repo.Update(ctx, id, update)
	if err != nil {
		if errors.Is(err, ErrNotFound) || errors.Is(err, ErrInvalidProduct) {
			return nil, err
		}
		log.Error().Err(err).Stringer("product_id", id).Msg("service: failed to update product in repository")
		return nil, fmt.Errorf("service: failed to update product: %w", err)
	}

	log.Info().Stringer("product_id", id).Msg("service: product updated")
	return product, nil
}

func (s *service) DeleteProduct(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, ErrNotFound) {
			log.Warn().Stringer("product_id", id).Msg("service: product to delete not found")
			return ErrNotFound
		}
		log.Error().Err(err).Stringer("product_id", id).Msg("service: failed to delete product in repository")
		return fmt.Errorf("service: failed to delete product: %w", err)
	}

	log.Info().Stringer("product_id", id).Msg("service: product deleted")
	return nil
}
