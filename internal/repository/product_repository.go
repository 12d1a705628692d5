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

type productRepository struct {
	timeoutScope
	collection *mongo.Collection
}

func NewProductRepository(db *mongo.Database, opTimeout time.Duration) ProductRepository {
	return &productRepository{
		timeoutScope: timeoutScope{opTimeout},
		collection:   db.Collection(productsCollection),
	}
}

func (r *productRepository) Create(ctx context.Context, product *domain.Product) (*domain.Product, error) {
	doc, err := productFromDomain(product)
	if err != nil {
		return nil, err
	}
	if doc.DateCreated.IsZero() {
		doc.DateCreated = time.Now().UTC()
	}

	ctx, cancel := r.scope(ctx)
	defer cancel()

	res, err := r.collection.InsertOne(ctx, doc)
	if err != nil {
		return nil, wrapErr("insert product", err)
	}
	doc.ID = res.InsertedID.(primitive.ObjectID)
	return doc.toDomain(), nil
}

func (r *productRepository) GetByID(ctx context.Context, id string) (*domain.Product, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrProductNotFound
	}

	ctx, cancel := r.scope(ctx)
	defer cancel()

	var doc productDocument
	if err := r.collection.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrProductNotFound
		}
		return nil, wrapErr("get product", err)
	}
	return doc.toDomain(), nil
}

func (r *productRepository) List(ctx context.Context, filter domain.ProductFilter) ([]*domain.Product, error) {
	q := bson.M{}
	if len(filter.CategoryIDs) > 0 {
		cats := validObjectIDs(filter.CategoryIDs)
		if len(cats) == 0 {
			return []*domain.Product{}, nil
		}
		q["category"] = bson.M{"$in": cats}
	}
	if filter.FeaturedOnly {
		q["is_featured"] = true
	}

	opts := options.Find().SetSort(bson.D{{Key: "date_created", Value: -1}})
	if filter.Limit > 0 {
		opts.SetLimit(filter.Limit)
	}
	return r.find(ctx, q, opts)
}

func (r *productRepository) ListByIDs(ctx context.Context, ids []string) ([]*domain.Product, error) {
	oids := validObjectIDs(ids)
	if len(oids) == 0 {
		return []*domain.Product{}, nil
	}
	products, err := r.find(ctx, bson.M{"_id": bson.M{"$in": oids}})
	if err != nil {
		return nil, err
	}
	return inIDOrder(ids, products, func(p *domain.Product) string { return p.ID }), nil
}

func (r *productRepository) Update(ctx context.Context, id string, patch domain.ProductPatch) (*domain.Product, error) {
	set := bson.M{}
	setIf(set, "name", patch.Name)
	setIf(set, "description", patch.Description)
	setIf(set, "rich_description", patch.RichDescription)
	setIf(set, "image", patch.Image)
	setIf(set, "images", patch.Images)
	setIf(set, "brand", patch.Brand)
	setIf(set, "count_in_stock", patch.CountInStock)
	setIf(set, "rating", patch.Rating)
	setIf(set, "num_reviews", patch.NumReviews)
	setIf(set, "is_featured", patch.IsFeatured)
	if patch.Price != nil {
		price, err := toDecimal128(*patch.Price)
		if err != nil {
			return nil, err
		}
		set["price"] = price
	}
	if patch.CategoryID != nil {
		cat, err := primitive.ObjectIDFromHex(*patch.CategoryID)
		if err != nil {
			return nil, domain.NewValidationError("invalid category")
		}
		set["category"] = cat
	}
	if len(set) == 0 {
		return r.GetByID(ctx, id)
	}

	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrProductNotFound
	}

	ctx, cancel := r.scope(ctx)
	defer cancel()

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var doc productDocument
	if err := r.collection.FindOneAndUpdate(ctx, bson.M{"_id": oid}, bson.M{"$set": set}, opts).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrProductNotFound
		}
		return nil, wrapErr("update product", err)
	}
	return doc.toDomain(), nil
}

func (r *productRepository) Delete(ctx context.Context, id string) (*domain.Product, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrProductNotFound
	}

	ctx, cancel := r.scope(ctx)
	defer cancel()

	var doc productDocument
	if err := r.collection.FindOneAndDelete(ctx, bson.M{"_id": oid}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrProductNotFound
		}
		return nil, wrapErr("delete product", err)
	}
	return doc.toDomain(), nil
}

func (r *productRepository) Count(ctx context.Context) (int64, error) {
	ctx, cancel := r.scope(ctx)
	defer cancel()

	n, err := r.collection.CountDocuments(ctx, bson.M{})
	if err != nil {
		return 0, wrapErr("count products", err)
	}
	return n, nil
}

func (r *productRepository) find(ctx context.Context, filter bson.M, opts ...*options.FindOptions) ([]*domain.Product, error) {
	ctx, cancel := r.scope(ctx)
	defer cancel()

	cursor, err := r.collection.Find(ctx, filter, opts...)
	if err != nil {
		return nil, wrapErr("list products", err)
	}
	products, err := decodeAll(ctx, cursor, (*productDocument).toDomain)
	if err != nil {
		return nil, wrapErr("decode products", err)
	}
	return products, nil
}
