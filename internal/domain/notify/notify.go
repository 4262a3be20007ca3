// Package notify implements best-effort push notification fan-out to admin
// devices on order lifecycle events.
package notify

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/avelinak/atelier-shop/internal/domain/order"
)

// Event identifies the kind of order event being announced.
type Event string

const (
	EventNewOrder     Event = "new_order"
	EventStatusUpdate Event = "order_status_update"
)

// Message is a single push notification: a human-readable title and body
// plus a structured data payload for the receiving app.
type Message struct {
	Title string
	Body  string
	Data  map[string]string
}

// Sender delivers a message to one device token. Ready reports whether the
// transport is configured; an unready sender receives no Send calls.
type Sender interface {
	Ready() bool
	Send(ctx context.Context, token string, msg Message) error
}

// AdminDirectory resolves the device tokens of all admin accounts that have
// one registered. It is queried fresh on every dispatch, so newly registered
// devices are picked up on the very next notification.
type AdminDirectory interface {
	AdminTokens(ctx context.Context) ([]string, error)
}

// Summary aggregates the outcome of one fan-out.
type Summary struct {
	Success int
	Failure int
}

const defaultSendTimeout = 10 * time.Second

// Dispatcher fans a message out to every admin device, one delivery per
// token. It never returns an error to its caller: all failures are counted,
// logged, and swallowed.
type Dispatcher struct {
	sender      Sender
	admins      AdminDirectory
	sendTimeout time.Duration
}

// NewDispatcher creates a Dispatcher. sendTimeout bounds each delivery
// attempt; zero selects the default of 10s.
func NewDispatcher(sender Sender, admins AdminDirectory, sendTimeout time.Duration) *Dispatcher {
	if sendTimeout <= 0 {
		sendTimeout = defaultSendTimeout
	}
	return &Dispatcher{
		sender:      sender,
		admins:      admins,
		sendTimeout: sendTimeout,
	}
}

var _ order.Notifier = (*Dispatcher)(nil)

// OrderCreated announces a freshly placed order to all admins.
func (d *Dispatcher) OrderCreated(ctx context.Context, o *order.Order) {
	d.Notify(ctx, EventNewOrder, o)
}

// OrderStatusChanged announces an order status transition to all admins.
func (d *Dispatcher) OrderStatusChanged(ctx context.Context, o *order.Order) {
	d.Notify(ctx, EventStatusUpdate, o)
}

// Notify resolves the current admin token list and delivers the event
// message to each token concurrently, waiting for every attempt to settle.
// A failed delivery to one token never blocks or aborts the others.
func (d *Dispatcher) Notify(ctx context.Context, event Event, o *order.Order) Summary {
	lg := zctx.From(ctx)

	if !d.sender.Ready() {
		lg.Warn("push transport not configured, skipping notification",
			zap.String("event", string(event)),
			zap.String("order_id", o.ID),
		)
		return Summary{}
	}

	tokens, err := d.admins.AdminTokens(ctx)
	if err != nil {
		lg.Error("resolve admin tokens", zap.Error(err))
		return Summary{}
	}
	if len(tokens) == 0 {
		lg.Info("no admin tokens to notify", zap.String("event", string(event)))
		return Summary{}
	}

	msg := buildMessage(event, o)

	results := make([]error, len(tokens))
	var wg sync.WaitGroup
	for i, token := range tokens {
		wg.Add(1)
		go func() {
			defer wg.Done()
			sendCtx, cancel := context.WithTimeout(ctx, d.sendTimeout)
			defer cancel()
			results[i] = d.sender.Send(sendCtx, token, msg)
		}()
	}
	wg.Wait()

	var sum Summary
	for i, err := range results {
		if err != nil {
			sum.Failure++
			lg.Warn("push delivery failed",
				zap.String("event", string(event)),
				zap.String("token", tokens[i]),
				zap.Error(err),
			)
			continue
		}
		sum.Success++
	}

	lg.Info("notifications sent",
		zap.String("event", string(event)),
		zap.String("order_id", o.ID),
		zap.Int("success", sum.Success),
		zap.Int("failure", sum.Failure),
	)
	return sum
}

// buildMessage renders the per-event notification template.
func buildMessage(event Event, o *order.Order) Message {
	data := map[string]string{
		"orderId":     o.ID,
		"orderNumber": strconv.FormatInt(o.Number, 10),
		"type":        string(event),
	}

	switch event {
	case EventStatusUpdate:
		body := fmt.Sprintf("Order #%d status changed to %s.", o.Number, o.Status)
		data["status"] = string(o.Status)
		data["message"] = body
		return Message{Title: "Order Status Updated", Body: body, Data: data}
	default:
		body := fmt.Sprintf("Order #%d from %s has been received.", o.Number, o.CustomerName)
		data["amount"] = o.TotalAmount.String()
		data["message"] = body
		return Message{Title: "New Order Received", Body: body, Data: data}
	}
}
