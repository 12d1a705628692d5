package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/fjod/go_cart/shop-service/internal/domain"
	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type orderDocument struct {
	ID               primitive.ObjectID   `bson:"_id,omitempty"`
	OrderItems       []primitive.ObjectID `bson:"order_items"`
	ShippingAddress1 string               `bson:"shipping_address1"`
	ShippingAddress2 string               `bson:"shipping_address2,omitempty"`
	City             string               `bson:"city"`
	Zip              string               `bson:"zip,omitempty"`
	Country          string               `bson:"country"`
	Phone            string               `bson:"phone"`
	Status           string               `bson:"status"`
	TotalPrice       primitive.Decimal128 `bson:"total_price"`
	User             primitive.ObjectID   `bson:"user"`
	DateOrdered      time.Time            `bson:"date_ordered"`
}

type orderItemDocument struct {
	ID       primitive.ObjectID `bson:"_id,omitempty"`
	Product  primitive.ObjectID `bson:"product"`
	Quantity int                `bson:"quantity"`
	User     primitive.ObjectID `bson:"user"`
}

type productDocument struct {
	ID              primitive.ObjectID   `bson:"_id,omitempty"`
	Name            string               `bson:"name"`
	Description     string               `bson:"description"`
	RichDescription string               `bson:"rich_description"`
	Image           string               `bson:"image"`
	Images          []string             `bson:"images"`
	Brand           string               `bson:"brand"`
	Price           primitive.Decimal128 `bson:"price"`
	Category        primitive.ObjectID   `bson:"category"`
	CountInStock    int                  `bson:"count_in_stock"`
	Rating          float64              `bson:"rating"`
	NumReviews      int                  `bson:"num_reviews"`
	IsFeatured      bool                 `bson:"is_featured"`
	DateCreated     time.Time            `bson:"date_created"`
}

type categoryDocument struct {
	ID    primitive.ObjectID `bson:"_id,omitempty"`
	Name  string             `bson:"name"`
	Icon  string             `bson:"icon"`
	Color string             `bson:"color"`
}

type userDocument struct {
	ID           primitive.ObjectID `bson:"_id,omitempty"`
	Name         string             `bson:"name"`
	Email        string             `bson:"email"`
	PasswordHash string             `bson:"password_hash"`
	Street       string             `bson:"street"`
	Apartment    string             `bson:"apartment"`
	City         string             `bson:"city"`
	Zip          string             `bson:"zip"`
	Country      string             `bson:"country"`
	Phone        string             `bson:"phone"`
	Role         string             `bson:"role"`
}

type intentDocument struct {
	ID         primitive.ObjectID   `bson:"_id,omitempty"`
	Order      primitive.ObjectID   `bson:"order"`
	OrderItems []primitive.ObjectID `bson:"order_items"`
	CreatedAt  time.Time            `bson:"created_at"`
}

func (d *orderDocument) toDomain() *domain.Order {
	return &domain.Order{
		ID:               d.ID.Hex(),
		LineItemIDs:      hexIDs(d.OrderItems),
		ShippingAddress1: d.ShippingAddress1,
		ShippingAddress2: d.ShippingAddress2,
		City:             d.City,
		Zip:              d.Zip,
		Country:          d.Country,
		Phone:            d.Phone,
		Status:           domain.OrderStatus(d.Status),
		TotalPrice:       fromDecimal128(d.TotalPrice),
		OwnerID:          d.User.Hex(),
		PlacedAt:         d.DateOrdered,
	}
}

func orderFromDomain(o *domain.Order) (*orderDocument, error) {
	items, err := objectIDs(o.LineItemIDs)
	if err != nil {
		return nil, err
	}
	owner, err := primitive.ObjectIDFromHex(o.OwnerID)
	if err != nil {
		return nil, domain.NewValidationError("invalid user id")
	}
	total, err := toDecimal128(o.TotalPrice)
	if err != nil {
		return nil, err
	}
	return &orderDocument{
		OrderItems:       items,
		ShippingAddress1: o.ShippingAddress1,
		ShippingAddress2: o.ShippingAddress2,
		City:             o.City,
		Zip:              o.Zip,
		Country:          o.Country,
		Phone:            o.Phone,
		Status:           string(o.Status),
		TotalPrice:       total,
		User:             owner,
		DateOrdered:      o.PlacedAt.UTC(),
	}, nil
}

func (d *orderItemDocument) toDomain() *domain.LineItem {
	return &domain.LineItem{
		ID:        d.ID.Hex(),
		ProductID: d.Product.Hex(),
		Quantity:  d.Quantity,
		OwnerID:   d.User.Hex(),
	}
}

func (d *productDocument) toDomain() *domain.Product {
	return &domain.Product{
		ID:              d.ID.Hex(),
		Name:            d.Name,
		Description:     d.Description,
		RichDescription: d.RichDescription,
		Image:           d.Image,
		Images:          d.Images,
		Brand:           d.Brand,
		Price:           fromDecimal128(d.Price),
		CategoryID:      d.Category.Hex(),
		CountInStock:    d.CountInStock,
		Rating:          d.Rating,
		NumReviews:      d.NumReviews,
		IsFeatured:      d.IsFeatured,
		CreatedAt:       d.DateCreated,
	}
}

func productFromDomain(p *domain.Product) (*productDocument, error) {
	category, err := primitive.ObjectIDFromHex(p.CategoryID)
	if err != nil {
		return nil, domain.NewValidationError("invalid category")
	}
	price, err := toDecimal128(p.Price)
	if err != nil {
		return nil, err
	}
	images := p.Images
	if images == nil {
		images = []string{}
	}
	return &productDocument{
		Name:            p.Name,
		Description:     p.Description,
		RichDescription: p.RichDescription,
		Image:           p.Image,
		Images:          images,
		Brand:           p.Brand,
		Price:           price,
		Category:        category,
		CountInStock:    p.CountInStock,
		Rating:          p.Rating,
		NumReviews:      p.NumReviews,
		IsFeatured:      p.IsFeatured,
		DateCreated:     p.CreatedAt.UTC(),
	}, nil
}

func (d *categoryDocument) toDomain() *domain.Category {
	return &domain.Category{ID: d.ID.Hex(), Name: d.Name, Icon: d.Icon, Color: d.Color}
}

func (d *userDocument) toDomain() *domain.User {
	return &domain.User{
		ID:           d.ID.Hex(),
		Name:         d.Name,
		Email:        d.Email,
		PasswordHash: d.PasswordHash,
		Street:       d.Street,
		Apartment:    d.Apartment,
		City:         d.City,
		Zip:          d.Zip,
		Country:      d.Country,
		Phone:        d.Phone,
		Role:         domain.Role(d.Role),
	}
}

func (d *intentDocument) toDomain() *domain.CascadeIntent {
	return &domain.CascadeIntent{
		ID:          d.ID.Hex(),
		OrderID:     d.Order.Hex(),
		LineItemIDs: hexIDs(d.OrderItems),
		CreatedAt:   d.CreatedAt,
	}
}

func toDecimal128(d decimal.Decimal) (primitive.Decimal128, error) {
	v, err := primitive.ParseDecimal128(d.String())
	if err != nil {
		return primitive.Decimal128{}, fmt.Errorf("convert decimal %s: %w", d, err)
	}
	return v, nil
}

func fromDecimal128(v primitive.Decimal128) decimal.Decimal {
	d, err := decimal.NewFromString(v.String())
	if err != nil {
		return decimal.Zero
	}
	return d
}

func hexIDs(ids []primitive.ObjectID) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		out = append(out, id.Hex())
	}
	return out
}

func objectIDs(ids []string) ([]primitive.ObjectID, error) {
	out := make([]primitive.ObjectID, 0, len(ids))
	for _, id := range ids {
		oid, err := primitive.ObjectIDFromHex(id)
		if err != nil {
			return nil, domain.NewValidationError(fmt.Sprintf("invalid id %q", id))
		}
		out = append(out, oid)
	}
	return out, nil
}

// validObjectIDs drops malformed ids. Used by lookups where an unknown id just matches nothing.
func validObjectIDs(ids []string) []primitive.ObjectID {
	out := make([]primitive.ObjectID, 0, len(ids))
	for _, id := range ids {
		if oid, err := primitive.ObjectIDFromHex(id); err == nil {
			out = append(out, oid)
		}
	}
	return out
}

type timeoutScope struct {
	timeout time.Duration
}

func (s timeoutScope) scope(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.timeout)
}
