// Package notify はメール通知をリクエストの外で送る。
// 送信失敗はログに残すだけで、呼び出し側には返さない。
package notify

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"shopping/internal/domain/model"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

var ErrClosed = errors.New("notify: dispatcher closed")

type Message struct {
	ID      string
	To      string
	Subject string
	Body    string
}

// 実際の送信先（SMTP / ログ）
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

type Options struct {
	Workers     int
	QueueSize   int
	SendTimeout time.Duration
}

// Dispatcher は固定数のワーカーでキューを処理する
type Dispatcher struct {
	sender  Sender
	log     *zap.Logger
	timeout time.Duration

	mu     sync.RWMutex
	closed bool
	queue  chan Message
	wg     sync.WaitGroup
}

func NewDispatcher(sender Sender, opts Options, log *zap.Logger) *Dispatcher {
	if opts.Workers <= 0 {
		opts.Workers = 1
	}
	if opts.QueueSize < 0 {
		opts.QueueSize = 0
	}
	if opts.SendTimeout <= 0 {
		opts.SendTimeout = 30 * time.Second
	}

	d := &Dispatcher{
		sender:  sender,
		log:     log.Named("notify"),
		timeout: opts.SendTimeout,
		queue:   make(chan Message, opts.QueueSize),
	}
	for i := 0; i < opts.Workers; i++ {
		d.wg.Add(1)
		go d.worker()
	}
	return d
}

// キューに積むだけ。満杯なら捨てて false
func (d *Dispatcher) Send(to, subject, body string) bool {
	return d.enqueue(Message{ID: uuid.NewString(), To: to, Subject: subject, Body: body})
}

// 注文確定メール
func (d *Dispatcher) SendOrderConfirmation(_ context.Context, user model.User, order model.Order) {
	d.Send(user.Email, "Order Confirmation - Online Shopping", orderConfirmationBody(user, order))
}

func (d *Dispatcher) enqueue(msg Message) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if d.closed {
		d.log.Warn("dropped notification after close", zap.String("to", msg.To))
		return false
	}
	select {
	case d.queue <- msg:
		return true
	default:
		d.log.Warn("notification queue full, dropped",
			zap.String("message_id", msg.ID),
			zap.String("to", msg.To),
		)
		return false
	}
}

func (d *Dispatcher) worker() {
	defer d.wg.Done()
	for msg := range d.queue {
		d.deliver(msg)
	}
}

func (d *Dispatcher) deliver(msg Message) {
	ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
	defer cancel()

	if err := d.sender.Send(ctx, msg); err != nil {
		d.log.Error("failed to send notification",
			zap.String("message_id", msg.ID),
			zap.String("to", msg.To),
			zap.Error(err),
		)
		return
	}
	d.log.Info("notification sent", zap.String("message_id", msg.ID), zap.String("to", msg.To))
}

// 受付を止め、残りを送り切るか ctx が切れるまで待つ
func (d *Dispatcher) Close(ctx context.Context) error {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return ErrClosed
	}
	d.closed = true
	close(d.queue)
	d.mu.Unlock()

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func orderConfirmationBody(user model.User, order model.Order) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Hello %s,\n\n", user.DisplayName())
	fmt.Fprintf(&b, "Thank you for your order #%d.\n\n", order.ID)
	for _, it := range order.Items {
		fmt.Fprintf(&b, "- %s x%d  %s\n", it.ProductNameSnapshot, it.Quantity, it.Subtotal.StringFixed(2))
	}
	fmt.Fprintf(&b, "\nTotal: %s\n", order.TotalAmount.StringFixed(2))
	fmt.Fprintf(&b, "Payment reference: %s\n", order.PaymentReference)
	fmt.Fprintf(&b, "Shipping to: %s\n", order.ShippingAddress)
	return b.String()
}
