package models

import "time"

// Activity event types
const (
	EventTypeOrderPlaced     = "ORDER_PLACED"
	EventTypeMessageSent     = "MESSAGE_SENT"
	EventTypeListingCreated  = "LISTING_CREATED"
	EventTypeReviewSubmitted = "REVIEW_SUBMITTED"
	EventTypeReportFiled     = "REPORT_FILED"
)

// BaseEvent contains common fields for all events
type BaseEvent struct {
	EventID   string    `json:"event_id"`
	EventType string    `json:"event_type"`
	UserID    string    `json:"user_id"`
	Timestamp time.Time `json:"timestamp"`
}

// OrderPlacedEvent published when checkout completes
type OrderPlacedEvent struct {
	BaseEvent
	OrderID       string `json:"order_id"`
	Total         string `json:"total"`
	ItemCount     int    `json:"item_count"`
	PaymentMethod string `json:"payment_method"`
}

// MessageSentEvent published when a message is accepted by the API
type MessageSentEvent struct {
	BaseEvent
	ConversationID string `json:"conversation_id"`
}

// ListingCreatedEvent published when a seller creates a listing
type ListingCreatedEvent struct {
	BaseEvent
	ProductID string `json:"product_id"`
	Category  string `json:"category"`
}

// ReviewSubmittedEvent published when a review is created
type ReviewSubmittedEvent struct {
	BaseEvent
	ProductID string `json:"product_id"`
	Rating    int    `json:"rating"`
}

// ReportFiledEvent published when a user reports an item
type ReportFiledEvent struct {
	BaseEvent
	ReportType string `json:"report_type"`
	ItemID     string `json:"item_id"`
}
