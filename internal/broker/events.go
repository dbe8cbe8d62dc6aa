package broker

import (
	"context"
	"sync"
	"time"

	"marketplace-storefront/internal/models"
	"marketplace-storefront/internal/util"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const publishTimeout = 5 * time.Second

// EventPublisher emits storefront activity events keyed by user id.
// Events are written in the background; a failed write is logged and
// counted, never returned to the caller.
type EventPublisher struct {
	producer *Producer
	logger   *zap.Logger
	pending  sync.WaitGroup
}

// NewEventPublisher creates a new event publisher
func NewEventPublisher(producer *Producer) *EventPublisher {
	return &EventPublisher{producer: producer, logger: util.GetLogger()}
}

func newBase(eventType, userID string) models.BaseEvent {
	return models.BaseEvent{
		EventID:   uuid.New().String(),
		EventType: eventType,
		UserID:    userID,
		Timestamp: time.Now().UTC(),
	}
}

func (ep *EventPublisher) publish(userID string, event interface{}) {
	ep.pending.Add(1)
	go func() {
		defer ep.pending.Done()
		ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
		defer cancel()
		if err := ep.producer.PublishEvent(ctx, "user-"+userID, event); err != nil {
			util.ActivityEventsFailed.Inc()
			ep.logger.Warn("Failed to publish activity event", zap.String("user_id", userID), zap.Error(err))
		}
	}()
}

// OrderPlaced publishes OrderPlaced event
func (ep *EventPublisher) OrderPlaced(ctx context.Context, userID string, order *models.Order) {
	ep.publish(userID, &models.OrderPlacedEvent{
		BaseEvent:     newBase(models.EventTypeOrderPlaced, userID),
		OrderID:       order.ID,
		Total:         order.Total.StringFixed(2),
		ItemCount:     order.ItemCount,
		PaymentMethod: order.PaymentMethod,
	})
}

// MessageSent publishes MessageSent event
func (ep *EventPublisher) MessageSent(ctx context.Context, userID string, msg *models.Message) {
	ep.publish(userID, &models.MessageSentEvent{
		BaseEvent:      newBase(models.EventTypeMessageSent, userID),
		ConversationID: msg.ConversationID,
	})
}

// ListingCreated publishes ListingCreated event
func (ep *EventPublisher) ListingCreated(ctx context.Context, userID string, product *models.Product) {
	ep.publish(userID, &models.ListingCreatedEvent{
		BaseEvent: newBase(models.EventTypeListingCreated, userID),
		ProductID: product.ID,
		Category:  product.Category,
	})
}

// ReviewSubmitted publishes ReviewSubmitted event
func (ep *EventPublisher) ReviewSubmitted(ctx context.Context, userID string, review *models.Review) {
	ep.publish(userID, &models.ReviewSubmittedEvent{
		BaseEvent: newBase(models.EventTypeReviewSubmitted, userID),
		ProductID: review.ProductID,
		Rating:    review.Rating,
	})
}

// ReportFiled publishes ReportFiled event
func (ep *EventPublisher) ReportFiled(ctx context.Context, userID string, report *models.Report) {
	ep.publish(userID, &models.ReportFiledEvent{
		BaseEvent:  newBase(models.EventTypeReportFiled, userID),
		ReportType: report.Type,
		ItemID:     report.ItemID,
	})
}

// Wait blocks until every queued event was written or dropped.
func (ep *EventPublisher) Wait() {
	ep.pending.Wait()
}
