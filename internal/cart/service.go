package cart

import (
	"context"
	"errors"
	"fmt"

	"github.com/gofrs/uuid"
	"github.com/rs/zerolog/log"
)

type Service interface {
	GetCart(ctx context.Context, userID uuid.UUID) (*Cart, error)
	SaveCart(ctx context.Context, userID uuid.UUID, items []Item) (*Cart, error)
	ClearCart(ctx context.Context, userID uuid.UUID) error
	AddItem(ctx context.Context, userID, productID uuid.UUID, quantity int) (*Cart, error)
	SetItemQuantity(ctx context.Context, userID, productID uuid.UUID, quantity int) (*Cart, error)
	RemoveItem(ctx context.Context, userID, productID uuid.UUID) (*Cart, error)
}

type service struct {
	repo Repository
}

func NewService(repo Repository) Service {
	return &service{repo: repo}
}

func (s *service) GetCart(ctx context.Context, userID uuid.UUID) (*Cart, error) {
	cart, err := s.repo.Get(ctx, userID)
	if err != nil {
		log.Error().Err(err).Stringer("user_id", userID).Msg("service: failed to get cart in repository")
		return nil, fmt.Errorf("service: failed to get cart: %w", err)
	}
	return cart, nil
}

func (s *service) SaveCart(ctx context.Context, userID uuid.UUID, items []Item) (*Cart, error) {
	cart := &Cart{UserID: userID, Items: items}
	if err := cart.Normalize(); err != nil {
		log.Warn().Err(err).Stringer("user_id", userID).Msg("service: rejected cart")
		return nil, err
	}

	if err := s.repo.Save(ctx, cart); err != nil {
		if errors.Is(err, ErrUnknownUser) {
			return nil, err
		}
		log.Error().Err(err).Stringer("user_id", userID).Msg("service: failed to save cart in repository")
		return nil, fmt.Errorf("service: failed to save cart: %w", err)
	}

	log.Debug().Stringer("user_id", userID).Int("units", cart.Count()).Msg("service: cart saved")
	return cart, nil
}

func (s *service) ClearCart(ctx context.Context, userID uuid.UUID) error {
	if err := s.repo.Delete(ctx, userID); err != nil {
		log.Error().Err(err).Stringer("user_id", userID).Msg("service: failed to clear cart in repository")
		return fmt.Errorf("service: failed to clear cart: %w", err)
	}
	return nil
}

func (s *service) AddItem(ctx context.Context, userID, productID uuid.UUID, quantity int) (*Cart, error) {
	return s.modify(ctx, userID, func(c *Cart) error {
		return c.Add(productID, quantity)
	})
}

func (s *service) SetItemQuantity(ctx context.Context, userID, productID uuid.UUID, quantity int) (*Cart, error) {
	return s.modify(ctx, userID, func(c *Cart) error {
		return c.SetQuantity(productID, quantity)
	})
}

func (s *service) RemoveItem(ctx context.Context, userID, productID uuid.UUID) (*Cart, error) {
	return s.modify(ctx, userID, func(c *Cart) error {
		c.Remove(productID)
		return nil
	})
}

// modify loads the stored cart, applies change and saves the result.
// Concurrent edits of one cart are last-writer-wins.
func (s *service) modify(ctx context.Context, userID uuid.UUID, change func(*Cart) error) (*Cart, error) {
	cart, err := s.GetCart(ctx, userID)
	if err != nil {
		return nil, err
	}

	if err := change(cart); err != nil {
		log.Warn().Err(err).Stringer("user_id", userID).Msg("service: rejected cart change")
		return nil, err
	}

	if err := s.repo.Save(ctx, cart); err != nil {
		if errors.Is(err, ErrUnknownUser) {
			return nil, err
		}
		log.Error().Err(err).Stringer("user_id", userID).Msg("service: failed to save cart in repository")
		return nil, fmt.Errorf("service: failed to save cart: %w", err)
	}

	return cart, nil
}
