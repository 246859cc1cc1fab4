package worker

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/go-redis/redis/v8"
)

// Event types carried on the order event queue.
const (
	EventOrderCompleted = "order.completed"
	EventOrderCancelled = "order.cancelled"
)

// OrderEvent is the queue message shape published by the order service.
type OrderEvent struct {
	EventType          string `json:"eventType" validate:"required"`
	OrderID            string `json:"orderId" validate:"required"`
	Timestamp          string `json:"timestamp"`
	CancelledBy        string `json:"cancelledBy,omitempty"`        // only for order.cancelled
	PreviousStatus     string `json:"previousStatus,omitempty"`     // only for order.cancelled
	CancellationReason string `json:"cancellationReason,omitempty"` // only for order.cancelled
}

// HoldProcessor is the settlement side the consumer drives.
type HoldProcessor interface {
	CompleteOrder(ctx context.Context, orderID string) error
	CancelOrder(ctx context.Context, orderID, cancelledBy, previousStatus string) error
}

// Consumer pops order events off a redis list and runs the hold lifecycle
// for each. Failed events are logged and dropped; the publisher retries are
// what re-deliver, and settlement itself is idempotent on re-delivery.
type Consumer struct {
	redis       *redis.Client
	queue       string
	pollTimeout time.Duration
	processor   HoldProcessor
	validator   *validator.Validate
}

func NewConsumer(rdb *redis.Client, queue string, pollTimeout time.Duration, processor HoldProcessor) *Consumer {
	return &Consumer{
		redis:       rdb,
		queue:       queue,
		pollTimeout: pollTimeout,
		processor:   processor,
		validator:   validator.New(),
	}
}

// Start launches the requested number of concurrent consumers; BLPop hands
// each event to exactly one of them. The returned channel closes once every
// consumer has stopped after ctx is cancelled.
func (c *Consumer) Start(ctx context.Context, workers int) <-chan struct{} {
	if workers < 1 {
		workers = 1
	}

	done := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			c.Run(ctx)
		}()
	}
	go func() {
		wg.Wait()
		close(done)
	}()
	return done
}

// Run blocks consuming the queue until ctx is cancelled.
func (c *Consumer) Run(ctx context.Context) {
	log.Printf("[WORKER] Consuming order events from %q", c.queue)
	for {
		result, err := c.redis.BLPop(ctx, c.pollTimeout, c.queue).Result()
		if err != nil {
			if errors.Is(err, redis.Nil) {
				continue
			}
			if ctx.Err() != nil {
				log.Println("[WORKER] Shutting down")
				return
			}
			log.Printf("[WORKER] Queue read failed: %v", err)
			time.Sleep(time.Second)
			continue
		}

		// BLPop returns [queue, payload].
		if len(result) < 2 {
			continue
		}
		c.handleMessage(ctx, result[1])
	}
}

func (c *Consumer) handleMessage(ctx context.Context, payload string) {
	var event OrderEvent
	if err := json.Unmarshal([]byte(payload), &event); err != nil {
		log.Printf("[WORKER] Dropping malformed event: %v", err)
		return
	}
	if err := c.validator.Struct(&event); err != nil {
		log.Printf("[WORKER] Dropping invalid event: %v", err)
		return
	}

	log.Printf("[WORKER] Received %s for order %s", event.EventType, event.OrderID)

	var err error
	switch event.EventType {
	case EventOrderCompleted:
		err = c.processor.CompleteOrder(ctx, event.OrderID)
	case EventOrderCancelled:
		err = c.processor.CancelOrder(ctx, event.OrderID, event.CancelledBy, event.PreviousStatus)
	default:
		log.Printf("[WORKER] Ignoring event type %q for order %s", event.EventType, event.OrderID)
		return
	}

	if err != nil {
		log.Printf("[WORKER] Failed to process %s for order %s: %v", event.EventType, event.OrderID, err)
		return
	}
	log.Printf("[WORKER] Processed %s for order %s", event.EventType, event.OrderID)
}
