package domain

import "context"

// SessionRepository is the persistence port for cart shipping sessions
type SessionRepository interface {
	// Save upserts a session by cart ID
	Save(ctx context.Context, session *CartShippingSession) error

	// FindByCartID returns the session for a cart, or nil if none exists
	FindByCartID(ctx context.Context, cartID string) (*CartShippingSession, error)

	// Delete removes a session when the cart is cleared
	Delete(ctx context.Context, cartID string) error
}
