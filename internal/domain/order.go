package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type OrderStatus string

const (
	StatusPending   OrderStatus = "Pending"
	StatusShipped   OrderStatus = "Shipped"
	StatusDelivered OrderStatus = "Delivered"
)

func ParseOrderStatus(s string) (OrderStatus, bool) {
	switch OrderStatus(s) {
	case StatusPending, StatusShipped, StatusDelivered:
		return OrderStatus(s), true
	}
	return "", false
}

// LineItem is one product reference with a quantity, owned by a user.
type LineItem struct {
	ID        string `json:"id"`
	ProductID string `json:"product"`
	Quantity  int    `json:"quantity"`
	OwnerID   string `json:"user"`
}

type LineItemPatch struct {
	ProductID *string
	Quantity  *int
}

// LineItemFilter narrows line-item queries. An empty OwnerID matches every owner.
type LineItemFilter struct {
	OwnerID string
}

type Order struct {
	ID               string
	LineItemIDs      []string
	ShippingAddress1 string
	ShippingAddress2 string
	City             string
	Zip              string
	Country          string
	Phone            string
	Status           OrderStatus
	TotalPrice       decimal.Decimal
	OwnerID          string
	PlacedAt         time.Time
}

type ShippingDetails struct {
	ShippingAddress1 string
	ShippingAddress2 string
	City             string
	Zip              string
	Country          string
	Phone            string
}

type ItemRequest struct {
	ProductID string
	Quantity  int
}

// PlaceOrder is the input of order creation. Empty OwnerID means the acting user.
type PlaceOrder struct {
	OwnerID  string
	Items    []ItemRequest
	Shipping ShippingDetails
	Status   OrderStatus
	PlacedAt time.Time
}

// OrderPatch holds the address and contact fields an owner may change.
type OrderPatch struct {
	ShippingAddress1 *string
	ShippingAddress2 *string
	City             *string
	Zip              *string
	Country          *string
	Phone            *string
}

func (p OrderPatch) IsEmpty() bool {
	return p.ShippingAddress1 == nil && p.ShippingAddress2 == nil && p.City == nil &&
		p.Zip == nil && p.Country == nil && p.Phone == nil
}

// OrderDetails is an order with its references resolved. Items is nil when
// line items were not populated.
type OrderDetails struct {
	Order *Order
	Owner *UserRef
	Items []LineItemDetails
}

// LineItemDetails is a line item with its product resolved. Product is nil
// when the product no longer exists.
type LineItemDetails struct {
	ID        string
	Quantity  int
	OwnerID   string
	ProductID string
	Product   *ProductDetails
}

type ProductDetails struct {
	Product  *Product
	Category *Category
}

// CascadeIntent records an order deletion whose line items may still exist.
type CascadeIntent struct {
	ID          string
	OrderID     string
	LineItemIDs []string
	CreatedAt   time.Time
}
