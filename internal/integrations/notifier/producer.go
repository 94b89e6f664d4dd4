package notifier

import (
	"context"
	"encoding/json"
	"strconv"
	"sync"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/m04kA/SMC-RentalService/internal/domain"
)

// Notifier отправляет события бронирований в kafka
// Доставка best-effort: ошибки только логируются и не влияют на бронирование.
type Notifier struct {
	writer  MessageWriter
	timeout time.Duration
	logger  Logger
	wg      sync.WaitGroup
}

// NewKafkaWriter создает writer для топика уведомлений
func NewKafkaWriter(brokers []string, topic string) *kafka.Writer {
	return &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{}, // события одного арендатора в одну партицию
		BatchTimeout: 50 * time.Millisecond,
		RequiredAcks: kafka.RequireOne,
	}
}

// New создает Notifier. writer == nil отключает отправку
func New(writer MessageWriter, timeout time.Duration, logger Logger) *Notifier {
	return &Notifier{
		writer:  writer,
		timeout: timeout,
		logger:  logger,
	}
}

// Notify отправляет событие по бронированию в фоне
func (n *Notifier) Notify(ctx context.Context, eventType EventType, b *domain.Booking) {
	if n.writer == nil {
		n.logger.Info("Notify: notifications disabled, skip %s for booking=%d", eventType, b.ID)
		return
	}

	event := Event{
		Type:      eventType,
		RenterID:  b.RenterID,
		BookingID: b.ID,
		VehicleID: b.VehicleID,
		Status:    string(b.Status),
		Deposit:   string(b.DepositStatus),
		StartTime: b.StartTime,
		EndTime:   b.EndTime,
		Total:     b.Price.TotalAmount,
		SentAt:    time.Now().UTC(),
	}

	data, err := json.Marshal(event)
	if err != nil {
		n.logger.Error("Notify: failed to marshal %s for booking=%d: %v", eventType, b.ID, err)
		return
	}

	msg := kafka.Message{
		Key:   []byte(strconv.FormatInt(b.RenterID, 10)),
		Value: data,
		Time:  event.SentAt,
	}

	n.wg.Add(1)
	go func() {
		defer n.wg.Done()

		// Запрос мог уже завершиться, контекст запроса не используем
		sendCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), n.timeout)
		defer cancel()

		if err := n.writer.WriteMessages(sendCtx, msg); err != nil {
			n.logger.Warn("Notify: failed to publish %s for booking=%d: %v", eventType, b.ID, err)
			return
		}
		n.logger.Info("Notify: published %s for booking=%d, renter=%d", eventType, b.ID, b.RenterID)
	}()
}

// Close дожидается отправки начатых событий и закрывает writer
func (n *Notifier) Close() error {
	n.wg.Wait()
	if n.writer == nil {
		return nil
	}
	return n.writer.Close()
}
