package http

import (
	"encoding/json"
	"time"

	"github.com/fjod/go_cart/shop-service/internal/domain"
	"github.com/shopspring/decimal"
)

type OrderItemRequestDTO struct {
	Product  string `json:"product" validate:"required,len=24,hexadecimal"`
	Quantity int    `json:"quantity" validate:"min=1"`
}

type CreateOrderRequestDTO struct {
	Items            []OrderItemRequestDTO `json:"orderItem" validate:"min=1,dive"`
	ShippingAddress1 string                `json:"shippingAddress1" validate:"required"`
	ShippingAddress2 string                `json:"shippingAddress2"`
	City             string                `json:"city" validate:"required"`
	Zip              string                `json:"zip"`
	Country          string                `json:"country" validate:"required"`
	Phone            string                `json:"phone" validate:"required"`
	Status           string                `json:"status" validate:"omitempty,oneof=Pending Shipped Delivered"`
	User             string                `json:"user" validate:"omitempty,len=24,hexadecimal"`
	DateOrdered      *time.Time            `json:"dateOrdered"`
}

func (req CreateOrderRequestDTO) toDomain() domain.PlaceOrder {
	items := make([]domain.ItemRequest, 0, len(req.Items))
	for _, it := range req.Items {
		items = append(items, domain.ItemRequest{ProductID: it.Product, Quantity: it.Quantity})
	}
	in := domain.PlaceOrder{
		OwnerID: req.User,
		Items:   items,
		Shipping: domain.ShippingDetails{
			ShippingAddress1: req.ShippingAddress1,
			ShippingAddress2: req.ShippingAddress2,
			City:             req.City,
			Zip:              req.Zip,
			Country:          req.Country,
			Phone:            req.Phone,
		},
		Status: domain.OrderStatus(req.Status),
	}
	if req.DateOrdered != nil {
		in.PlacedAt = *req.DateOrdered
	}
	return in
}

// UpdateOrderRequestDTO leaves absent fields unchanged. Required address
// fields may be omitted but not blanked.
type UpdateOrderRequestDTO struct {
	ShippingAddress1 *string `json:"shippingAddress1" validate:"omitempty,notblank"`
	ShippingAddress2 *string `json:"shippingAddress2"`
	City             *string `json:"city" validate:"omitempty,notblank"`
	Zip              *string `json:"zip"`
	Country          *string `json:"country" validate:"omitempty,notblank"`
	Phone            *string `json:"phone" validate:"omitempty,notblank"`
}

func (req UpdateOrderRequestDTO) toDomain() domain.OrderPatch {
	return domain.OrderPatch(req)
}

type UpdateStatusRequestDTO struct {
	Status string `json:"status" validate:"required,oneof=Pending Shipped Delivered"`
}

type UserRefDTO struct {
	ID   string `json:"id"`
	Name string `json:"name,omitempty"`
}

type CategoryDTO struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Icon  string `json:"icon"`
	Color string `json:"color"`
}

type ProductDTO struct {
	ID              string       `json:"id"`
	Name            string       `json:"name"`
	Description     string       `json:"description"`
	RichDescription string       `json:"richDescription"`
	Image           string       `json:"image"`
	Images          []string     `json:"images"`
	Brand           string       `json:"brand"`
	Price           json.Number  `json:"price"`
	Category        *CategoryDTO `json:"category"`
	CountInStock    int          `json:"countInStock"`
	Rating          float64      `json:"rating"`
	NumReviews      int          `json:"numReviews"`
	IsFeatured      bool         `json:"isFeatured"`
	DateCreated     string       `json:"dateCreated"`
}

// OrderItemDTO carries only the id until the order is populated.
type OrderItemDTO struct {
	ID       string      `json:"id"`
	Quantity int         `json:"quantity,omitempty"`
	Product  *ProductDTO `json:"product,omitempty"`
}

type OrderResponseDTO struct {
	ID               string         `json:"id"`
	OrderItems       []OrderItemDTO `json:"orderItems"`
	ShippingAddress1 string         `json:"shippingAddress1"`
	ShippingAddress2 string         `json:"shippingAddress2"`
	City             string         `json:"city"`
	Zip              string         `json:"zip"`
	Country          string         `json:"country"`
	Phone            string         `json:"phone"`
	Status           string         `json:"status"`
	TotalPrice       json.Number    `json:"totalPrice"`
	User             UserRefDTO     `json:"user"`
	DateOrdered      string         `json:"dateOrdered"`
}

type TotalSalesResponse struct {
	TotalSales json.Number `json:"totalSales"`
}

func money(d decimal.Decimal) json.Number {
	return json.Number(d.String())
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

func convertOrder(o *domain.Order) OrderResponseDTO {
	items := make([]OrderItemDTO, 0, len(o.LineItemIDs))
	for _, id := range o.LineItemIDs {
		items = append(items, OrderItemDTO{ID: id})
	}
	return OrderResponseDTO{
		ID:               o.ID,
		OrderItems:       items,
		ShippingAddress1: o.ShippingAddress1,
		ShippingAddress2: o.ShippingAddress2,
		City:             o.City,
		Zip:              o.Zip,
		Country:          o.Country,
		Phone:            o.Phone,
		Status:           string(o.Status),
		TotalPrice:       money(o.TotalPrice),
		User:             UserRefDTO{ID: o.OwnerID},
		DateOrdered:      formatTime(o.PlacedAt),
	}
}

func convertOrderDetails(d *domain.OrderDetails) OrderResponseDTO {
	dto := convertOrder(d.Order)
	if d.Owner != nil {
		dto.User = UserRefDTO{ID: d.Owner.ID, Name: d.Owner.Name}
	}
	if d.Items != nil {
		dto.OrderItems = make([]OrderItemDTO, 0, len(d.Items))
		for _, it := range d.Items {
			item := OrderItemDTO{ID: it.ID, Quantity: it.Quantity}
			if it.Product != nil && it.Product.Product != nil {
				p := convertProduct(it.Product.Product)
				if it.Product.Category != nil {
					c := convertCategory(it.Product.Category)
					p.Category = &c
				}
				item.Product = &p
			}
			dto.OrderItems = append(dto.OrderItems, item)
		}
	}
	return dto
}

func convertOrderDetailsList(list []*domain.OrderDetails) []OrderResponseDTO {
	out := make([]OrderResponseDTO, 0, len(list))
	for _, d := range list {
		out = append(out, convertOrderDetails(d))
	}
	return out
}

func convertCategory(c *domain.Category) CategoryDTO {
	return CategoryDTO{ID: c.ID, Name: c.Name, Icon: c.Icon, Color: c.Color}
}

// convertProduct leaves Category with only the id; callers that resolved the
// category replace it.
func convertProduct(p *domain.Product) ProductDTO {
	images := p.Images
	if images == nil {
		images = []string{}
	}
	dto := ProductDTO{
		ID:              p.ID,
		Name:            p.Name,
		Description:     p.Description,
		RichDescription: p.RichDescription,
		Image:           p.Image,
		Images:          images,
		Brand:           p.Brand,
		Price:           money(p.Price),
		CountInStock:    p.CountInStock,
		Rating:          p.Rating,
		NumReviews:      p.NumReviews,
		IsFeatured:      p.IsFeatured,
		DateCreated:     formatTime(p.CreatedAt),
	}
	if p.CategoryID != "" {
		dto.Category = &CategoryDTO{ID: p.CategoryID}
	}
	return dto
}

const defaultQuantity = 1

type LineItemRequestDTO struct {
	Product  string `json:"product" validate:"required,len=24,hexadecimal"`
	Quantity *int   `json:"quantity" validate:"omitempty,min=1"`
	User     string `json:"user" validate:"omitempty,len=24,hexadecimal"`
}

func (req LineItemRequestDTO) quantity() int {
	if req.Quantity == nil {
		return defaultQuantity
	}
	return *req.Quantity
}

// LineItemDetailsDTO is a line item read back with its product. Product is
// null when the product was removed.
type LineItemDetailsDTO struct {
	ID       string      `json:"id"`
	Quantity int         `json:"quantity"`
	User     string      `json:"user"`
	Product  *ProductDTO `json:"product"`
}

func convertLineItemDetails(d domain.LineItemDetails) LineItemDetailsDTO {
	dto := LineItemDetailsDTO{ID: d.ID, Quantity: d.Quantity, User: d.OwnerID}
	if d.Product != nil && d.Product.Product != nil {
		p := convertProduct(d.Product.Product)
		dto.Product = &p
	}
	return dto
}

type UpdateLineItemRequestDTO struct {
	Product  *string `json:"product" validate:"omitempty,len=24,hexadecimal"`
	Quantity *int    `json:"quantity" validate:"omitempty,min=1"`
}

type ProductRequestDTO struct {
	Name            string           `json:"name" validate:"required"`
	Description     string           `json:"description" validate:"required"`
	RichDescription string           `json:"richDescription"`
	Image           string           `json:"image"`
	Images          []string         `json:"images"`
	Brand           string           `json:"brand"`
	Price           *decimal.Decimal `json:"price" validate:"required,gte=0"`
	Category        string           `json:"category" validate:"required,len=24,hexadecimal"`
	CountInStock    int              `json:"countInStock" validate:"gte=0,max=1000"`
	Rating          float64          `json:"rating" validate:"gte=0,max=5"`
	NumReviews      int              `json:"numReviews" validate:"gte=0"`
	IsFeatured      bool             `json:"isFeatured"`
}

func (req ProductRequestDTO) toDomain() *domain.Product {
	price := decimal.Zero
	if req.Price != nil {
		price = *req.Price
	}
	return &domain.Product{
		Name:            req.Name,
		Description:     req.Description,
		RichDescription: req.RichDescription,
		Image:           req.Image,
		Images:          req.Images,
		Brand:           req.Brand,
		Price:           price,
		CategoryID:      req.Category,
		CountInStock:    req.CountInStock,
		Rating:          req.Rating,
		NumReviews:      req.NumReviews,
		IsFeatured:      req.IsFeatured,
	}
}

type UpdateProductRequestDTO struct {
	Name            *string          `json:"name" validate:"omitempty,min=1"`
	Description     *string          `json:"description"`
	RichDescription *string          `json:"richDescription"`
	Image           *string          `json:"image"`
	Images          *[]string        `json:"images"`
	Brand           *string          `json:"brand"`
	Price           *decimal.Decimal `json:"price" validate:"omitempty,gte=0"`
	Category        *string          `json:"category" validate:"omitempty,len=24,hexadecimal"`
	CountInStock    *int             `json:"countInStock" validate:"omitempty,gte=0,max=1000"`
	Rating          *float64         `json:"rating" validate:"omitempty,gte=0,max=5"`
	NumReviews      *int             `json:"numReviews" validate:"omitempty,gte=0"`
	IsFeatured      *bool            `json:"isFeatured"`
}

func (req UpdateProductRequestDTO) toDomain() domain.ProductPatch {
	return domain.ProductPatch{
		Name:            req.Name,
		Description:     req.Description,
		RichDescription: req.RichDescription,
		Image:           req.Image,
		Images:          req.Images,
		Brand:           req.Brand,
		Price:           req.Price,
		CategoryID:      req.Category,
		CountInStock:    req.CountInStock,
		Rating:          req.Rating,
		NumReviews:      req.NumReviews,
		IsFeatured:      req.IsFeatured,
	}
}

type CategoryRequestDTO struct {
	Name  string `json:"name" validate:"required"`
	Icon  string `json:"icon"`
	Color string `json:"color"`
}

type UpdateCategoryRequestDTO struct {
	Name  *string `json:"name" validate:"omitempty,min=1"`
	Icon  *string `json:"icon"`
	Color *string `json:"color"`
}

type RegisterRequestDTO struct {
	Name      string `json:"name" validate:"required"`
	Email     string `json:"email" validate:"required,email"`
	Password  string `json:"password" validate:"required,min=6"`
	Street    string `json:"street"`
	Apartment string `json:"apartment"`
	City      string `json:"city"`
	Zip       string `json:"zip"`
	Country   string `json:"country"`
	Phone     string `json:"phone"`
}
