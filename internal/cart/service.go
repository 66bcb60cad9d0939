package cart

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
)

var ErrZeroQuantity = errors.New("quantity must be at least 1")

type Service interface {
	Get(ctx context.Context, sessionID string) (*Cart, error)
	AddLine(ctx context.Context, sessionID string, line Line) (*Cart, error)
	DecrementLine(ctx context.Context, sessionID, lineKey string) (*Cart, error)
	RemoveLine(ctx context.Context, sessionID, lineKey string) (*Cart, error)
	Clear(ctx context.Context, sessionID string) error
}

type service struct {
	store Store
}

func NewService(store Store) Service {
	return &service{store: store}
}

// Get returns the persisted cart for the session, or a fresh empty cart if
// none exists yet.
func (s *service) Get(ctx context.Context, sessionID string) (*Cart, error) {
	cart, err := s.store.Get(ctx, sessionID)
	if err != nil {
		if errors.Is(err, ErrCartNotFound) {
			return &Cart{SessionID: sessionID, Lines: []Line{}}, nil
		}
		return nil, fmt.Errorf("service: failed to load cart: %w", err)
	}

	return cart, nil
}

// AddLine merges the line into the cart by (product, size). Negative
// quantities are clamped to zero before merging.
func (s *service) AddLine(ctx context.Context, sessionID string, line Line) (*Cart, error) {
	if line.Quantity < 0 {
		line.Quantity = 0
	}

	cart, err := s.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	if i := cart.lineIndex(line.Key()); i >= 0 {
		cart.Lines[i].Quantity += line.Quantity
	} else {
		if line.Quantity < 1 {
			return nil, ErrZeroQuantity
		}
		cart.Lines = append(cart.Lines, line)
	}

	s.persist(ctx, cart)
	return cart, nil
}

// DecrementLine lowers the quantity by one; the line is dropped entirely once
// it reaches zero.
func (s *service) DecrementLine(ctx context.Context, sessionID, lineKey string) (*Cart, error) {
	cart, err := s.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	i := cart.lineIndex(lineKey)
	if i < 0 {
		return cart, nil
	}

	cart.Lines[i].Quantity--
	if cart.Lines[i].Quantity <= 0 {
		cart.Lines = append(cart.Lines[:i], cart.Lines[i+1:]...)
	}

	s.persist(ctx, cart)
	return cart, nil
}

func (s *service) RemoveLine(ctx context.Context, sessionID, lineKey string) (*Cart, error) {
	cart, err := s.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	if i := cart.lineIndex(lineKey); i >= 0 {
		cart.Lines = append(cart.Lines[:i], cart.Lines[i+1:]...)
		s.persist(ctx, cart)
	}

	return cart, nil
}

func (s *service) Clear(ctx context.Context, sessionID string) error {
	if err := s.store.Delete(ctx, sessionID); err != nil {
		return fmt.Errorf("service: failed to clear cart: %w", err)
	}

	return nil
}

// persist saves the cart synchronously. A failing save is logged and
// swallowed: the caller still gets the mutated in-memory cart and the session
// keeps working.
func (s *service) persist(ctx context.Context, cart *Cart) {
	cart.UpdatedAt = time.Now().UTC()
	if err := s.store.Save(ctx, cart); err != nil {
		log.Warn().Err(err).Str("session_id", cart.SessionID).Msg("service: failed to persist cart, continuing in-memory")
	}
}
