package repository

import (
	"context"
	"errors"
	"time"

	"github.com/fjod/go_cart/shop-service/internal/domain"
	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type orderRepository struct {
	timeoutScope
	collection *mongo.Collection
}

func NewOrderRepository(db *mongo.Database, opTimeout time.Duration) OrderRepository {
	return &orderRepository{
		timeoutScope: timeoutScope{opTimeout},
		collection:   db.Collection(ordersCollection),
	}
}

func (r *orderRepository) Create(ctx context.Context, order *domain.Order) (*domain.Order, error) {
	doc, err := orderFromDomain(order)
	if err != nil {
		return nil, err
	}

	ctx, cancel := r.scope(ctx)
	defer cancel()

	res, err := r.collection.InsertOne(ctx, doc)
	if err != nil {
		return nil, wrapErr("insert order", err)
	}
	doc.ID = res.InsertedID.(primitive.ObjectID)
	return doc.toDomain(), nil
}

func (r *orderRepository) FindByID(ctx context.Context, id string) (*domain.Order, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrOrderNotFound
	}

	ctx, cancel := r.scope(ctx)
	defer cancel()

	var doc orderDocument
	if err := r.collection.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrOrderNotFound
		}
		return nil, wrapErr("get order", err)
	}
	return doc.toDomain(), nil
}

func (r *orderRepository) FindAll(ctx context.Context) ([]*domain.Order, error) {
	return r.find(ctx, bson.M{})
}

func (r *orderRepository) FindByOwner(ctx context.Context, ownerID string) ([]*domain.Order, error) {
	oid, err := primitive.ObjectIDFromHex(ownerID)
	if err != nil {
		return []*domain.Order{}, nil
	}
	return r.find(ctx, bson.M{"user": oid})
}

func (r *orderRepository) find(ctx context.Context, filter bson.M) ([]*domain.Order, error) {
	ctx, cancel := r.scope(ctx)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "date_ordered", Value: -1}, {Key: "_id", Value: -1}})
	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, wrapErr("list orders", err)
	}
	orders, err := decodeAll(ctx, cursor, (*orderDocument).toDomain)
	if err != nil {
		return nil, wrapErr("decode orders", err)
	}
	return orders, nil
}

func (r *orderRepository) UpdateFields(ctx context.Context, id string, patch domain.OrderPatch) (*domain.Order, error) {
	set := bson.M{}
	setIf(set, "shipping_address1", patch.ShippingAddress1)
	setIf(set, "shipping_address2", patch.ShippingAddress2)
	setIf(set, "city", patch.City)
	setIf(set, "zip", patch.Zip)
	setIf(set, "country", patch.Country)
	setIf(set, "phone", patch.Phone)

	if len(set) == 0 {
		return r.FindByID(ctx, id)
	}
	return r.update(ctx, id, bson.M{"$set": set})
}

func (r *orderRepository) UpdateStatus(ctx context.Context, id string, status domain.OrderStatus) (*domain.Order, error) {
	return r.update(ctx, id, bson.M{"$set": bson.M{"status": string(status)}})
}

func (r *orderRepository) update(ctx context.Context, id string, update bson.M) (*domain.Order, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrOrderNotFound
	}

	ctx, cancel := r.scope(ctx)
	defer cancel()

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var doc orderDocument
	if err := r.collection.FindOneAndUpdate(ctx, bson.M{"_id": oid}, update, opts).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrOrderNotFound
		}
		return nil, wrapErr("update order", err)
	}
	return doc.toDomain(), nil
}

func (r *orderRepository) Delete(ctx context.Context, id string) (*domain.Order, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrOrderNotFound
	}

	ctx, cancel := r.scope(ctx)
	defer cancel()

	var doc orderDocument
	if err := r.collection.FindOneAndDelete(ctx, bson.M{"_id": oid}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrOrderNotFound
		}
		return nil, wrapErr("delete order", err)
	}
	return doc.toDomain(), nil
}

func (r *orderRepository) Count(ctx context.Context) (int64, error) {
	ctx, cancel := r.scope(ctx)
	defer cancel()

	n, err := r.collection.CountDocuments(ctx, bson.M{})
	if err != nil {
		return 0, wrapErr("count orders", err)
	}
	return n, nil
}

// SumTotalPrice adds up every order total. An empty collection sums to zero.
func (r *orderRepository) SumTotalPrice(ctx context.Context) (decimal.Decimal, error) {
	ctx, cancel := r.scope(ctx)
	defer cancel()

	pipeline := mongo.Pipeline{
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: nil},
			{Key: "total", Value: bson.D{{Key: "$sum", Value: "$total_price"}}},
		}}},
	}
	cursor, err := r.collection.Aggregate(ctx, pipeline)
	if err != nil {
		return decimal.Zero, wrapErr("sum order totals", err)
	}
	defer cursor.Close(ctx)

	var rows []struct {
		Total primitive.Decimal128 `bson:"total"`
	}
	if err := cursor.All(ctx, &rows); err != nil {
		return decimal.Zero, wrapErr("decode order totals", err)
	}
	if len(rows) == 0 {
		return decimal.Zero, nil
	}
	return fromDecimal128(rows[0].Total), nil
}

func setIf[T any](set bson.M, key string, v *T) {
	if v != nil {
		set[key] = *v
	}
}
