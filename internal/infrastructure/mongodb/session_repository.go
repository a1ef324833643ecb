package mongodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/vanfit-commerce/shipping-service/internal/domain"
)

// SessionRepository implements the repository for the CartShippingSession
// aggregate. One document per cart, upserted by cartId.
type SessionRepository struct {
	collection *mongo.Collection
}

// NewSessionRepository creates a new SessionRepository
func NewSessionRepository(db *mongo.Database) *SessionRepository {
	repo := &SessionRepository{
		collection: db.Collection("cart_shipping_sessions"),
	}
	repo.ensureIndexes(context.Background())
	return repo
}

func (r *SessionRepository) ensureIndexes(ctx context.Context) {
	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "cartId", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "status", Value: 1}}},
		{Keys: bson.D{{Key: "updatedAt", Value: -1}}},
	}
	r.collection.Indexes().CreateMany(ctx, indexes)
}

// Save upserts a session keyed by cart ID
func (r *SessionRepository) Save(ctx context.Context, session *domain.CartShippingSession) error {
	session.UpdatedAt = time.Now().UTC()

	opts := options.Update().SetUpsert(true)
	filter := bson.M{"cartId": session.CartID}
	update := bson.M{"$set": bson.M{
		"cartId":        session.CartID,
		"status":        session.Status,
		"address":       session.Address,
		"quotes":        session.Quotes,
		"selectedQuote": session.SelectedQuote,
		"lastError":     session.LastError,
		"requestToken":  session.RequestToken,
		"updatedAt":     session.UpdatedAt,
	}, "$setOnInsert": bson.M{
		"createdAt": session.CreatedAt,
	}}

	if _, err := r.collection.UpdateOne(ctx, filter, update, opts); err != nil {
		return fmt.Errorf("failed to save shipping session: %w", err)
	}
	return nil
}

// FindByCartID retrieves a session by cart ID, or nil if none exists
func (r *SessionRepository) FindByCartID(ctx context.Context, cartID string) (*domain.CartShippingSession, error) {
	var session domain.CartShippingSession
	err := r.collection.FindOne(ctx, bson.M{"cartId": cartID}).Decode(&session)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find shipping session: %w", err)
	}
	return &session, nil
}

// Delete removes a cart's session. Deleting a missing session is not an error.
func (r *SessionRepository) Delete(ctx context.Context, cartID string) error {
	if _, err := r.collection.DeleteOne(ctx, bson.M{"cartId": cartID}); err != nil {
		return fmt.Errorf("failed to delete shipping session: %w", err)
	}
	return nil
}
