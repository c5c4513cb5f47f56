package cart

import (
	"context"
	"sync"
)

// API is the slice of the backend cart surface the store drives.
// Implemented by api.CartClient.
type API interface {
	Fetch(ctx context.Context, sessionID string) (*Cart, error)
	Add(ctx context.Context, sessionID string, key ItemKey, quantity int) (*Cart, error)
	UpdateQuantity(ctx context.Context, sessionID string, key ItemKey, quantity int) (*Cart, error)
	Remove(ctx context.Context, sessionID string, key ItemKey) (*Cart, error)
	Clear(ctx context.Context, sessionID string) error
	Merge(ctx context.Context, sessionID string) (*Cart, error)
	Recalculate(ctx context.Context, sessionID string) (*Cart, error)
}

// SessionResolver supplies the identity for each cart call. Implemented by
// account.Store.
type SessionResolver interface {
	// CartSession returns "" for authenticated callers, else the persisted
	// guest session id (created on first use).
	CartSession() (string, error)
	// GuestSession returns the guest session id without creating one.
	GuestSession() (string, bool)
	// ClearGuestSession drops the guest session id after a merge.
	ClearGuestSession() error
}

// Store is the single source of truth for the cart shown to the user. Every
// mutation round-trips to the backend and replaces the local snapshot with
// the server's authoritative response; nothing is merged client-side.
//
// Mutations are serialized: opMu is held across the network call, so two
// rapid operations cannot resolve out of order and the snapshot always
// reflects the last operation to run, not the last response to arrive.
type Store struct {
	opMu     sync.Mutex
	api      API
	sessions SessionResolver

	mu      sync.RWMutex
	cart    *Cart
	lastErr error
}

// NewStore creates a Store. It is application-scoped: construct one per
// client session and inject it, so tests get isolated instances.
func NewStore(api API, sessions SessionResolver) *Store {
	return &Store{api: api, sessions: sessions}
}

// Cart returns the current snapshot. Nil means no cart exists yet. The
// returned value is shared and must be treated as read-only.
func (s *Store) Cart() *Cart {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cart
}

// Err returns the error recorded by the most recent operation, nil after a
// success.
func (s *Store) Err() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastErr
}

// adopt replaces the snapshot after a successful round trip.
func (s *Store) adopt(c *Cart) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cart = c
	s.lastErr = nil
}

// fail records err and preserves the prior snapshot.
func (s *Store) fail(err error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastErr = err
	return err
}

// FetchCart loads the caller's cart from the backend.
func (s *Store) FetchCart(ctx context.Context) error {
	s.opMu.Lock()
	defer s.opMu.Unlock()

	sessionID, err := s.sessions.CartSession()
	if err != nil {
		return s.fail(err)
	}
	c, err := s.api.Fetch(ctx, sessionID)
	if err != nil {
		return s.fail(err)
	}
	s.adopt(c)
	return nil
}

// AddToCart adds quantity of a product (optionally a variant) to the cart.
func (s *Store) AddToCart(ctx context.Context, productID, variantID string, quantity int) error {
	s.opMu.Lock()
	defer s.opMu.Unlock()

	sessionID, err := s.sessions.CartSession()
	if err != nil {
		return s.fail(err)
	}
	c, err := s.api.Add(ctx, sessionID, ItemKey{ProductID: productID, VariantID: variantID}, quantity)
	if err != nil {
		return s.fail(err)
	}
	s.adopt(c)
	return nil
}

// UpdateQuantity sets the quantity of the line addressed by key. A quantity
// of zero or less normalizes to removal.
func (s *Store) UpdateQuantity(ctx context.Context, key ItemKey, quantity int) error {
	if quantity <= 0 {
		return s.RemoveItem(ctx, key)
	}

	s.opMu.Lock()
	defer s.opMu.Unlock()

	sessionID, err := s.sessions.CartSession()
	if err != nil {
		return s.fail(err)
	}
	c, err := s.api.UpdateQuantity(ctx, sessionID, key, quantity)
	if err != nil {
		return s.fail(err)
	}
	s.adopt(c)
	return nil
}

// RemoveItem deletes the line addressed by key.
func (s *Store) RemoveItem(ctx context.Context, key ItemKey) error {
	s.opMu.Lock()
	defer s.opMu.Unlock()

	sessionID, err := s.sessions.CartSession()
	if err != nil {
		return s.fail(err)
	}
	c, err := s.api.Remove(ctx, sessionID, key)
	if err != nil {
		return s.fail(err)
	}
	s.adopt(c)
	return nil
}

// ClearCart destroys the cart on the backend and locally.
func (s *Store) ClearCart(ctx context.Context) error {
	s.opMu.Lock()
	defer s.opMu.Unlock()

	sessionID, err := s.sessions.CartSession()
	if err != nil {
		return s.fail(err)
	}
	if err := s.api.Clear(ctx, sessionID); err != nil {
		return s.fail(err)
	}
	s.adopt(nil)
	return nil
}

// MergeCart folds the guest cart into the authenticated user's cart after
// login, adopts the merged result, and discards the guest session id. With
// no guest session to merge it degenerates to a plain fetch.
func (s *Store) MergeCart(ctx context.Context) error {
	s.opMu.Lock()
	defer s.opMu.Unlock()

	guestID, ok := s.sessions.GuestSession()
	if !ok {
		c, err := s.api.Fetch(ctx, "")
		if err != nil {
			return s.fail(err)
		}
		s.adopt(c)
		return nil
	}

	c, err := s.api.Merge(ctx, guestID)
	if err != nil {
		return s.fail(err)
	}
	if err := s.sessions.ClearGuestSession(); err != nil {
		return s.fail(err)
	}
	s.adopt(c)
	return nil
}

// RecalculateCart reprices the cart against current product data.
func (s *Store) RecalculateCart(ctx context.Context) error {
	s.opMu.Lock()
	defer s.opMu.Unlock()

	sessionID, err := s.sessions.CartSession()
	if err != nil {
		return s.fail(err)
	}
	c, err := s.api.Recalculate(ctx, sessionID)
	if err != nil {
		return s.fail(err)
	}
	s.adopt(c)
	return nil
}
