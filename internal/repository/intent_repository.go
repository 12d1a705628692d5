package repository

import (
	"context"
	"time"

	"github.com/fjod/go_cart/shop-service/internal/domain"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type intentRepository struct {
	timeoutScope
	collection *mongo.Collection
}

func NewIntentRepository(db *mongo.Database, opTimeout time.Duration) IntentRepository {
	return &intentRepository{
		timeoutScope: timeoutScope{opTimeout},
		collection:   db.Collection(intentsCollection),
	}
}

func (r *intentRepository) Create(ctx context.Context, intent *domain.CascadeIntent) (*domain.CascadeIntent, error) {
	order, err := primitive.ObjectIDFromHex(intent.OrderID)
	if err != nil {
		return nil, ErrOrderNotFound
	}
	items := validObjectIDs(intent.LineItemIDs)

	createdAt := intent.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	ctx, cancel := r.scope(ctx)
	defer cancel()

	doc := intentDocument{Order: order, OrderItems: items, CreatedAt: createdAt.UTC()}
	res, err := r.collection.InsertOne(ctx, doc)
	if err != nil {
		return nil, wrapErr("insert cascade intent", err)
	}
	doc.ID = res.InsertedID.(primitive.ObjectID)
	return doc.toDomain(), nil
}

func (r *intentRepository) Complete(ctx context.Context, id string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return ErrIntentNotFound
	}

	ctx, cancel := r.scope(ctx)
	defer cancel()

	res, err := r.collection.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return wrapErr("complete cascade intent", err)
	}
	if res.DeletedCount == 0 {
		return ErrIntentNotFound
	}
	return nil
}

// ListPending returns the oldest intents created before olderThan.
func (r *intentRepository) ListPending(ctx context.Context, olderThan time.Time, limit int64) ([]*domain.CascadeIntent, error) {
	ctx, cancel := r.scope(ctx)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}})
	if limit > 0 {
		opts.SetLimit(limit)
	}
	cursor, err := r.collection.Find(ctx, bson.M{"created_at": bson.M{"$lt": olderThan.UTC()}}, opts)
	if err != nil {
		return nil, wrapErr("list cascade intents", err)
	}
	intents, err := decodeAll(ctx, cursor, (*intentDocument).toDomain)
	if err != nil {
		return nil, wrapErr("decode cascade intents", err)
	}
	return intents, nil
}
