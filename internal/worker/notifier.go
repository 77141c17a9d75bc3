package worker

import (
	"context"
	"fmt"
	"strings"
	"time"

	"messenger/internal/events"
	"messenger/internal/metrics"
	"messenger/internal/models"

	"github.com/rs/zerolog"
)

type Notifier interface {
	Notify(chatID int64, text string) error
}

type notification struct {
	chatID int64
	text   string
}

// NotificationWorker delivers admin notifications off the request path,
// retrying each message with exponential backoff.
type NotificationWorker struct {
	notifier Notifier
	chatIDs  []int64
	retry    RetryPolicy
	queue    chan notification
	logger   *zerolog.Logger
	wait     func(ctx context.Context, d time.Duration) error
}

func NewNotificationWorker(notifier Notifier, chatIDs []int64, queueSize int, retry RetryPolicy, logger *zerolog.Logger) *NotificationWorker {
	if queueSize <= 0 {
		queueSize = 100
	}
	if retry.MaxRetries == 0 {
		retry.MaxRetries = 3
	}
	if retry.InitialDelay == 0 {
		retry.InitialDelay = 2 * time.Second
	}
	if retry.MaxDelay == 0 {
		retry.MaxDelay = time.Minute
	}
	return &NotificationWorker{
		notifier: notifier,
		chatIDs:  chatIDs,
		retry:    retry,
		queue:    make(chan notification, queueSize),
		logger:   logger,
		wait:     sleepContext,
	}
}

// Enqueue schedules text for every configured chat. Messages are dropped
// when the queue is full.
func (w *NotificationWorker) Enqueue(text string) {
	for _, id := range w.chatIDs {
		select {
		case w.queue <- notification{chatID: id, text: text}:
		default:
			w.logger.Warn().Int64("chat_id", id).Msg("notification queue full, message dropped")
			metrics.IncNotification("telegram", false)
		}
	}
}

// Start consumes the queue until ctx is done.
func (w *NotificationWorker) Start(ctx context.Context) {
	w.logger.Info().Int("chats", len(w.chatIDs)).Msg("notification worker started")
	defer w.logger.Info().Msg("notification worker stopped")

	for {
		select {
		case <-ctx.Done():
			return
		case n := <-w.queue:
			w.deliver(ctx, n)
		}
	}
}

func (w *NotificationWorker) deliver(ctx context.Context, n notification) {
	err := w.retry.Do(ctx, w.wait, func() error {
		return w.notifier.Notify(n.chatID, n.text)
	}, func(attempt int, err error, delay time.Duration) {
		w.logger.Warn().Err(err).Int("attempt", attempt).Dur("retry_in", delay).Msg("notification failed")
	})
	if err != nil {
		metrics.IncNotification("telegram", false)
		w.logger.Error().Err(err).Int64("chat_id", n.chatID).Msg("notification abandoned")
		return
	}
	metrics.IncNotification("telegram", true)
}

// HandleBookingCreated is an events.EventHandler.
func (w *NotificationWorker) HandleBookingCreated(event *events.Event) error {
	var p events.BookingEventPayload
	if err := event.Decode(&p); err != nil {
		return err
	}
	w.Enqueue(formatBookingCreated(p))
	return nil
}

// HandleStatusChanged is an events.EventHandler.
func (w *NotificationWorker) HandleStatusChanged(event *events.Event) error {
	var p events.BookingEventPayload
	if err := event.Decode(&p); err != nil {
		return err
	}
	w.Enqueue(formatStatusChanged(p))
	return nil
}

func formatBookingCreated(p events.BookingEventPayload) string {
	var b strings.Builder
	fmt.Fprintf(&b, "งานใหม่ #%d\n", p.BookingID)
	fmt.Fprintf(&b, "บริษัท: %s\n", p.CompanyName)
	fmt.Fprintf(&b, "วันที่: %s %s\n", p.BookingDate, p.BookingTime)
	fmt.Fprintf(&b, "ผู้แจ้ง: %s\n", p.RequesterName)
	fmt.Fprintf(&b, "ประเภท: %s", p.JobType)
	return b.String()
}

func formatStatusChanged(p events.BookingEventPayload) string {
	status := models.BookingStatus(p.Status).Label(models.LocaleTH)
	text := fmt.Sprintf("งาน #%d (%s): %s", p.BookingID, p.CompanyName, status)
	if p.MessengerName != "" && p.Status == string(models.StatusSuccess) {
		text += "\nMessenger: " + p.MessengerName
	}
	return text
}
