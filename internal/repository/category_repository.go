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

type categoryRepository struct {
	timeoutScope
	collection *mongo.Collection
}

func NewCategoryRepository(db *mongo.Database, opTimeout time.Duration) CategoryRepository {
	return &categoryRepository{
		timeoutScope: timeoutScope{opTimeout},
		collection:   db.Collection(categoriesCollection),
	}
}

func (r *categoryRepository) Create(ctx context.Context, category *domain.Category) (*domain.Category, error) {
	ctx, cancel := r.scope(ctx)
	defer cancel()

	doc := categoryDocument{Name: category.Name, Icon: category.Icon, Color: category.Color}
	res, err := r.collection.InsertOne(ctx, doc)
	if err != nil {
		return nil, wrapErr("insert category", err)
	}
	doc.ID = res.InsertedID.(primitive.ObjectID)
	return doc.toDomain(), nil
}

func (r *categoryRepository) GetByID(ctx context.Context, id string) (*domain.Category, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrCategoryNotFound
	}

	ctx, cancel := r.scope(ctx)
	defer cancel()

	var doc categoryDocument
	if err := r.collection.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrCategoryNotFound
		}
		return nil, wrapErr("get category", err)
	}
	return doc.toDomain(), nil
}

func (r *categoryRepository) List(ctx context.Context) ([]*domain.Category, error) {
	return r.find(ctx, bson.M{})
}

func (r *categoryRepository) ListByIDs(ctx context.Context, ids []string) ([]*domain.Category, error) {
	oids := validObjectIDs(ids)
	if len(oids) == 0 {
		return []*domain.Category{}, nil
	}
	cats, err := r.find(ctx, bson.M{"_id": bson.M{"$in": oids}})
	if err != nil {
		return nil, err
	}
	return inIDOrder(ids, cats, func(c *domain.Category) string { return c.ID }), nil
}

func (r *categoryRepository) Update(ctx context.Context, id string, patch domain.CategoryPatch) (*domain.Category, error) {
	set := bson.M{}
	setIf(set, "name", patch.Name)
	setIf(set, "icon", patch.Icon)
	setIf(set, "color", patch.Color)
	if len(set) == 0 {
		return r.GetByID(ctx, id)
	}

	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrCategoryNotFound
	}

	ctx, cancel := r.scope(ctx)
	defer cancel()

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var doc categoryDocument
	if err := r.collection.FindOneAndUpdate(ctx, bson.M{"_id": oid}, bson.M{"$set": set}, opts).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrCategoryNotFound
		}
		return nil, wrapErr("update category", err)
	}
	return doc.toDomain(), nil
}

func (r *categoryRepository) Delete(ctx context.Context, id string) (*domain.Category, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrCategoryNotFound
	}

	ctx, cancel := r.scope(ctx)
	defer cancel()

	var doc categoryDocument
	if err := r.collection.FindOneAndDelete(ctx, bson.M{"_id": oid}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrCategoryNotFound
		}
		return nil, wrapErr("delete category", err)
	}
	return doc.toDomain(), nil
}

func (r *categoryRepository) Count(ctx context.Context) (int64, error) {
	ctx, cancel := r.scope(ctx)
	defer cancel()

	n, err := r.collection.CountDocuments(ctx, bson.M{})
	if err != nil {
		return 0, wrapErr("count categories", err)
	}
	return n, nil
}

func (r *categoryRepository) find(ctx context.Context, filter bson.M) ([]*domain.Category, error) {
	ctx, cancel := r.scope(ctx)
	defer cancel()

	cursor, err := r.collection.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "name", Value: 1}}))
	if err != nil {
		return nil, wrapErr("list categories", err)
	}
	cats, err := decodeAll(ctx, cursor, (*categoryDocument).toDomain)
	if err != nil {
		return nil, wrapErr("decode categories", err)
	}
	return cats, nil
}
