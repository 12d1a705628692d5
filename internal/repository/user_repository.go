package repository

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/fjod/go_cart/shop-service/internal/domain"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type userRepository struct {
	timeoutScope
	collection *mongo.Collection
}

func NewUserRepository(db *mongo.Database, opTimeout time.Duration) UserRepository {
	return &userRepository{
		timeoutScope: timeoutScope{opTimeout},
		collection:   db.Collection(usersCollection),
	}
}

func (r *userRepository) Create(ctx context.Context, user *domain.User) (*domain.User, error) {
	ctx, cancel := r.scope(ctx)
	defer cancel()

	doc := userDocument{
		Name:         user.Name,
		Email:        strings.ToLower(user.Email),
		PasswordHash: user.PasswordHash,
		Street:       user.Street,
		Apartment:    user.Apartment,
		City:         user.City,
		Zip:          user.Zip,
		Country:      user.Country,
		Phone:        user.Phone,
		Role:         string(user.Role),
	}
	res, err := r.collection.InsertOne(ctx, doc)
	if err != nil {
		return nil, wrapErr("insert user", err)
	}
	doc.ID = res.InsertedID.(primitive.ObjectID)
	return doc.toDomain(), nil
}

func (r *userRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrUserNotFound
	}

	ctx, cancel := r.scope(ctx)
	defer cancel()

	var doc userDocument
	if err := r.collection.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrUserNotFound
		}
		return nil, wrapErr("get user", err)
	}
	return doc.toDomain(), nil
}

func (r *userRepository) List(ctx context.Context) ([]*domain.User, error) {
	return r.find(ctx, bson.M{})
}

func (r *userRepository) ListByIDs(ctx context.Context, ids []string) ([]*domain.User, error) {
	oids := validObjectIDs(ids)
	if len(oids) == 0 {
		return []*domain.User{}, nil
	}
	users, err := r.find(ctx, bson.M{"_id": bson.M{"$in": oids}})
	if err != nil {
		return nil, err
	}
	return inIDOrder(ids, users, func(u *domain.User) string { return u.ID }), nil
}

func (r *userRepository) Delete(ctx context.Context, id string) (*domain.User, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrUserNotFound
	}

	ctx, cancel := r.scope(ctx)
	defer cancel()

	var doc userDocument
	if err := r.collection.FindOneAndDelete(ctx, bson.M{"_id": oid}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrUserNotFound
		}
		return nil, wrapErr("delete user", err)
	}
	return doc.toDomain(), nil
}

func (r *userRepository) Count(ctx context.Context) (int64, error) {
	ctx, cancel := r.scope(ctx)
	defer cancel()

	n, err := r.collection.CountDocuments(ctx, bson.M{})
	if err != nil {
		return 0, wrapErr("count users", err)
	}
	return n, nil
}

func (r *userRepository) find(ctx context.Context, filter bson.M) ([]*domain.User, error) {
	ctx, cancel := r.scope(ctx)
	defer cancel()

	cursor, err := r.collection.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "name", Value: 1}}))
	if err != nil {
		return nil, wrapErr("list users", err)
	}
	users, err := decodeAll(ctx, cursor, (*userDocument).toDomain)
	if err != nil {
		return nil, wrapErr("decode users", err)
	}
	return users, nil
}
