package cloudevents

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/shopfront/order-platform/pkg/logging"
)

// Event types emitted by the order platform
const (
	OrderPlaced          = "shopfront.order.placed"
	OrderStatusChanged   = "shopfront.order.status-changed"
	OrderCancelled       = "shopfront.order.cancelled"
	OrderReturned        = "shopfront.order.returned"
	OrderReturnRequested = "shopfront.order.return-requested"
	OrderReturnAccepted  = "shopfront.order.return-accepted"
	OrderReturnRejected  = "shopfront.order.return-rejected"
)

// SourceOrderService is the CloudEvents source of this service
const SourceOrderService = "/shopfront/order-service"

// Event is a CloudEvents v1.0 envelope
type Event struct {
	SpecVersion     string      `json:"specversion"`
	Type            string      `json:"type"`
	Source          string      `json:"source"`
	Subject         string      `json:"subject,omitempty"`
	ID              string      `json:"id"`
	Time            time.Time   `json:"time"`
	DataContentType string      `json:"datacontenttype"`
	Data            interface{} `json:"data"`

	// Extensions
	CorrelationID string `json:"shopcorrelationid,omitempty"`
	UserID        string `json:"shopuserid,omitempty"`
}

// EventFactory creates events for a single source
type EventFactory struct {
	source string
}

// NewEventFactory creates a new EventFactory
func NewEventFactory(source string) *EventFactory {
	return &EventFactory{source: source}
}

// CreateEvent builds an event, copying the correlation and user ids from ctx when present
func (f *EventFactory) CreateEvent(ctx context.Context, eventType, subject string, data interface{}) *Event {
	event := &Event{
		SpecVersion:     "1.0",
		Type:            eventType,
		Source:          f.source,
		Subject:         subject,
		ID:              uuid.New().String(),
		Time:            time.Now().UTC(),
		DataContentType: "application/json",
		Data:            data,
	}
	if ctx != nil {
		event.CorrelationID = logging.CorrelationIDFromContext(ctx)
		event.UserID = logging.UserIDFromContext(ctx)
	}
	return event
}
