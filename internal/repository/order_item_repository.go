package repository

import (
	"context"
	"errors"
	"time"

	"github.com/fjod/go_cart/shop-service/internal/domain"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const quantityMessage = "Quantity must be at least 1"

type orderItemRepository struct {
	timeoutScope
	collection *mongo.Collection
}

func NewLineItemRepository(db *mongo.Database, opTimeout time.Duration) LineItemRepository {
	return &orderItemRepository{
		timeoutScope: timeoutScope{opTimeout},
		collection:   db.Collection(orderItemsCollection),
	}
}

// Create stores one line item. The product reference is not checked here.
func (r *orderItemRepository) Create(ctx context.Context, productID string, quantity int, ownerID string) (*domain.LineItem, error) {
	if quantity < 1 {
		return nil, domain.NewValidationError(quantityMessage)
	}
	product, err := primitive.ObjectIDFromHex(productID)
	if err != nil {
		return nil, domain.NewValidationError("invalid product")
	}
	owner, err := primitive.ObjectIDFromHex(ownerID)
	if err != nil {
		return nil, domain.NewValidationError("invalid user id")
	}

	ctx, cancel := r.scope(ctx)
	defer cancel()

	doc := orderItemDocument{Product: product, Quantity: quantity, User: owner}
	res, err := r.collection.InsertOne(ctx, doc)
	if err != nil {
		return nil, wrapErr("insert order item", err)
	}
	doc.ID = res.InsertedID.(primitive.ObjectID)
	return doc.toDomain(), nil
}

func (r *orderItemRepository) GetByID(ctx context.Context, id string) (*domain.LineItem, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrLineItemNotFound
	}

	ctx, cancel := r.scope(ctx)
	defer cancel()

	var doc orderItemDocument
	if err := r.collection.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrLineItemNotFound
		}
		return nil, wrapErr("get order item", err)
	}
	return doc.toDomain(), nil
}

func (r *orderItemRepository) Update(ctx context.Context, id string, patch domain.LineItemPatch) (*domain.LineItem, error) {
	set := bson.M{}
	if patch.Quantity != nil {
		if *patch.Quantity < 1 {
			return nil, domain.NewValidationError(quantityMessage)
		}
		set["quantity"] = *patch.Quantity
	}
	if patch.ProductID != nil {
		product, err := primitive.ObjectIDFromHex(*patch.ProductID)
		if err != nil {
			return nil, domain.NewValidationError("invalid product")
		}
		set["product"] = product
	}
	if len(set) == 0 {
		return r.GetByID(ctx, id)
	}

	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrLineItemNotFound
	}

	ctx, cancel := r.scope(ctx)
	defer cancel()

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var doc orderItemDocument
	if err := r.collection.FindOneAndUpdate(ctx, bson.M{"_id": oid}, bson.M{"$set": set}, opts).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrLineItemNotFound
		}
		return nil, wrapErr("update order item", err)
	}
	return doc.toDomain(), nil
}

func (r *orderItemRepository) Delete(ctx context.Context, id string) (*domain.LineItem, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrLineItemNotFound
	}

	ctx, cancel := r.scope(ctx)
	defer cancel()

	var doc orderItemDocument
	if err := r.collection.FindOneAndDelete(ctx, bson.M{"_id": oid}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrLineItemNotFound
		}
		return nil, wrapErr("delete order item", err)
	}
	return doc.toDomain(), nil
}

func (r *orderItemRepository) Count(ctx context.Context, filter domain.LineItemFilter) (int64, error) {
	q, ok := lineItemQuery(filter)
	if !ok {
		return 0, nil
	}

	ctx, cancel := r.scope(ctx)
	defer cancel()

	n, err := r.collection.CountDocuments(ctx, q)
	if err != nil {
		return 0, wrapErr("count order items", err)
	}
	return n, nil
}

func (r *orderItemRepository) List(ctx context.Context, filter domain.LineItemFilter) ([]*domain.LineItem, error) {
	q, ok := lineItemQuery(filter)
	if !ok {
		return []*domain.LineItem{}, nil
	}
	return r.find(ctx, q)
}

func (r *orderItemRepository) ListForOwner(ctx context.Context, ownerID string) ([]*domain.LineItem, error) {
	if ownerID == "" {
		return []*domain.LineItem{}, nil
	}
	return r.List(ctx, domain.LineItemFilter{OwnerID: ownerID})
}

// ListByIDs returns the matching line items in the order of ids. Unknown ids are skipped.
func (r *orderItemRepository) ListByIDs(ctx context.Context, ids []string) ([]*domain.LineItem, error) {
	oids := validObjectIDs(ids)
	if len(oids) == 0 {
		return []*domain.LineItem{}, nil
	}

	items, err := r.find(ctx, bson.M{"_id": bson.M{"$in": oids}})
	if err != nil {
		return nil, err
	}

	return inIDOrder(ids, items, func(it *domain.LineItem) string { return it.ID }), nil
}

func (r *orderItemRepository) DeleteMany(ctx context.Context, ids []string) (int64, error) {
	oids := validObjectIDs(ids)
	if len(oids) == 0 {
		return 0, nil
	}

	ctx, cancel := r.scope(ctx)
	defer cancel()

	res, err := r.collection.DeleteMany(ctx, bson.M{"_id": bson.M{"$in": oids}})
	if err != nil {
		return 0, wrapErr("delete order items", err)
	}
	return res.DeletedCount, nil
}

func (r *orderItemRepository) find(ctx context.Context, filter bson.M) ([]*domain.LineItem, error) {
	ctx, cancel := r.scope(ctx)
	defer cancel()

	cursor, err := r.collection.Find(ctx, filter)
	if err != nil {
		return nil, wrapErr("list order items", err)
	}
	items, err := decodeAll(ctx, cursor, (*orderItemDocument).toDomain)
	if err != nil {
		return nil, wrapErr("decode order items", err)
	}
	return items, nil
}

// lineItemQuery returns false when the filter cannot match any document.
func lineItemQuery(filter domain.LineItemFilter) (bson.M, bool) {
	if filter.OwnerID == "" {
		return bson.M{}, true
	}
	owner, err := primitive.ObjectIDFromHex(filter.OwnerID)
	if err != nil {
		return nil, false
	}
	return bson.M{"user": owner}, true
}
