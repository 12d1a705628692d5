package events

import (
	"context"
	"time"

	"github.com/fjod/go_cart/shop-service/internal/domain"
	"github.com/google/uuid"
)

type EventType string

const (
	OrderPlaced        EventType = "order.placed"
	OrderStatusChanged EventType = "order.status_changed"
	OrderDeleted       EventType = "order.deleted"
)

// OrderEvent is the payload written for every order lifecycle change.
type OrderEvent struct {
	ID          string    `json:"event_id"`
	Type        EventType `json:"event_type"`
	OrderID     string    `json:"order_id"`
	UserID      string    `json:"user_id"`
	Status      string    `json:"status"`
	TotalPrice  string    `json:"total_price"`
	LineItemIDs []string  `json:"order_items"`
	ActorID     string    `json:"actor_id"`
	OccurredAt  time.Time `json:"occurred_at"`
}

func NewOrderEvent(t EventType, order *domain.Order, actor domain.Principal) OrderEvent {
	return OrderEvent{
		ID:          uuid.NewString(),
		Type:        t,
		OrderID:     order.ID,
		UserID:      order.OwnerID,
		Status:      string(order.Status),
		TotalPrice:  order.TotalPrice.String(),
		LineItemIDs: order.LineItemIDs,
		ActorID:     actor.UserID,
		OccurredAt:  time.Now().UTC(),
	}
}

type Publisher interface {
	Publish(ctx context.Context, event OrderEvent) error
	Close() error
}

// NoopPublisher drops every event. Used when no brokers are configured.
type NoopPublisher struct{}

func (NoopPublisher) Publish(context.Context, OrderEvent) error { return nil }

func (NoopPublisher) Close() error { return nil }
