package payment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"
	"github.com/stripe/stripe-go/v76/webhook"

	"github.com/m04kA/SMC-RentalService/internal/domain"
)

// StripeProvider депозиты через Stripe PaymentIntents
type StripeProvider struct {
	intents       PaymentIntentAPI
	refunds       RefundAPI
	webhookSecret string
	currency      string
	logger        Logger
}

// NewStripeProvider создает провайдера поверх клиента stripe-go
func NewStripeProvider(secretKey, webhookSecret, currency string, logger Logger) *StripeProvider {
	sc := &client.API{}
	sc.Init(secretKey, nil)

	return NewProvider(sc.PaymentIntents, sc.Refunds, webhookSecret, currency, logger)
}

// NewProvider создает провайдера с явными API (используется в тестах)
func NewProvider(intents PaymentIntentAPI, refunds RefundAPI, webhookSecret, currency string, logger Logger) *StripeProvider {
	return &StripeProvider{
		intents:       intents,
		refunds:       refunds,
		webhookSecret: webhookSecret,
		currency:      currency,
		logger:        logger,
	}
}

// InitiateDeposit создает платежное намерение на сумму депозита и возвращает его ID
// Повторный вызов для того же бронирования возвращает то же намерение (idempotency key)
func (p *StripeProvider) InitiateDeposit(ctx context.Context, bookingID int64, amount int64) (string, error) {
	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(ToMinorUnits(p.currency, amount)),
		Currency: stripe.String(p.currency),
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled: stripe.Bool(true),
		},
		Description: stripe.String(fmt.Sprintf("Deposit for booking %d", bookingID)),
	}
	params.Context = ctx
	params.SetIdempotencyKey(fmt.Sprintf("deposit-%d", bookingID))
	params.AddMetadata(metadataBookingID, strconv.FormatInt(bookingID, 10))

	pi, err := p.intents.New(params)
	if err != nil {
		return "", p.wrap(ctx, "InitiateDeposit", err)
	}

	p.logger.Info("InitiateDeposit: booking=%d, payment_intent=%s, amount=%d", bookingID, pi.ID, amount)
	return pi.ID, nil
}

// GetPaymentStatus возвращает статус депозита у провайдера
func (p *StripeProvider) GetPaymentStatus(ctx context.Context, paymentRef string) (domain.PaymentStatus, error) {
	params := &stripe.PaymentIntentParams{}
	params.Context = ctx

	pi, err := p.intents.Get(paymentRef, params)
	if err != nil {
		return "", p.wrap(ctx, "GetPaymentStatus", err)
	}

	return statusOf(pi), nil
}

// RefundDeposit возвращает депозит целиком
func (p *StripeProvider) RefundDeposit(ctx context.Context, bookingID int64, paymentRef string, amount int64) error {
	params := &stripe.RefundParams{
		PaymentIntent: stripe.String(paymentRef),
		Amount:        stripe.Int64(ToMinorUnits(p.currency, amount)),
		Reason:        stripe.String(string(stripe.RefundReasonRequestedByCustomer)),
	}
	params.Context = ctx
	params.SetIdempotencyKey(fmt.Sprintf("refund-%d", bookingID))
	params.AddMetadata(metadataBookingID, strconv.FormatInt(bookingID, 10))

	refund, err := p.refunds.New(params)
	if err != nil {
		return p.wrap(ctx, "RefundDeposit", err)
	}

	p.logger.Info("RefundDeposit: booking=%d, refund=%s, status=%s", bookingID, refund.ID, refund.Status)
	return nil
}

// CancelDeposit отменяет неоплаченное платежное намерение
// Уже оплаченное намерение Stripe отменить не даст, такой платеж вернется через RefundDeposit.
func (p *StripeProvider) CancelDeposit(ctx context.Context, bookingID int64, paymentRef string) error {
	params := &stripe.PaymentIntentCancelParams{
		CancellationReason: stripe.String(string(stripe.PaymentIntentCancellationReasonRequestedByCustomer)),
	}
	params.Context = ctx
	params.SetIdempotencyKey(fmt.Sprintf("cancel-%d", bookingID))

	pi, err := p.intents.Cancel(paymentRef, params)
	if err != nil {
		return p.wrap(ctx, "CancelDeposit", err)
	}

	p.logger.Info("CancelDeposit: booking=%d, payment_intent=%s, status=%s", bookingID, pi.ID, pi.Status)
	return nil
}

// ParseWebhook проверяет подпись и разбирает событие платежного намерения
func (p *StripeProvider) ParseWebhook(payload []byte, signature string) (*WebhookEvent, error) {
	event, err := webhook.ConstructEvent(payload, signature, p.webhookSecret)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}

	var status domain.PaymentStatus
	switch event.Type {
	case stripe.EventTypePaymentIntentSucceeded:
		status = domain.PaymentPaid
	case stripe.EventTypePaymentIntentPaymentFailed, stripe.EventTypePaymentIntentCanceled:
		status = domain.PaymentFailed
	default:
		return nil, fmt.Errorf("%w: %s", ErrIgnoredEvent, event.Type)
	}

	var pi stripe.PaymentIntent
	if err := json.Unmarshal(event.Data.Raw, &pi); err != nil {
		return nil, fmt.Errorf("%w: failed to decode payment intent: %v", ErrInvalidEvent, err)
	}

	bookingID, err := strconv.ParseInt(pi.Metadata[metadataBookingID], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: payment intent %s has no booking id", ErrInvalidEvent, pi.ID)
	}

	return &WebhookEvent{
		EventID:    event.ID,
		BookingID:  bookingID,
		PaymentRef: pi.ID,
		Status:     status,
	}, nil
}

// statusOf сводит статусы Stripe к PAID / FAILED / PENDING
func statusOf(pi *stripe.PaymentIntent) domain.PaymentStatus {
	switch pi.Status {
	case stripe.PaymentIntentStatusSucceeded:
		return domain.PaymentPaid
	case stripe.PaymentIntentStatusCanceled:
		return domain.PaymentFailed
	case stripe.PaymentIntentStatusRequiresPaymentMethod:
		// Попытка оплаты была и провалилась
		if pi.LastPaymentError != nil {
			return domain.PaymentFailed
		}
	}
	return domain.PaymentPending
}

func (p *StripeProvider) wrap(ctx context.Context, op string, err error) error {
	if ctx.Err() != nil || errors.Is(err, context.DeadlineExceeded) {
		p.logger.Warn("%s: payment provider timed out: %v", op, err)
		return fmt.Errorf("%w: %s: %v", ErrTimeout, op, err)
	}
	p.logger.Error("%s: payment provider error: %v", op, err)
	return fmt.Errorf("%w: %s: %v", ErrProvider, op, err)
}
