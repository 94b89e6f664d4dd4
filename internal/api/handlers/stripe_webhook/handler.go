package stripe_webhook

import (
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/m04kA/SMC-RentalService/internal/api/handlers"
	"github.com/m04kA/SMC-RentalService/internal/domain"
	"github.com/m04kA/SMC-RentalService/internal/integrations/payment"
	confirmDeposit "github.com/m04kA/SMC-RentalService/internal/usecase/confirm_deposit"
)

const (
	signatureHeader = "Stripe-Signature"
	maxPayloadBytes = 65536
)

const (
	msgInvalidPayload   = "некорректное тело запроса"
	msgInvalidSignature = "неверная подпись"
)

type Handler struct {
	parser  WebhookParser
	useCase ConfirmDepositUseCase
	logger  Logger
}

func NewHandler(parser WebhookParser, useCase ConfirmDepositUseCase, logger Logger) *Handler {
	return &Handler{
		parser:  parser,
		useCase: useCase,
		logger:  logger,
	}
}

// Handle POST /api/v1/payments/stripe/webhook
// Ответ 2xx означает, что событие можно больше не присылать; 5xx - провайдер повторит доставку.
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	payload, err := io.ReadAll(io.LimitReader(r.Body, maxPayloadBytes))
	if err != nil {
		h.logger.Warn("POST /payments/stripe/webhook - Failed to read body: %v", err)
		handlers.RespondBadRequest(w, msgInvalidPayload)
		return
	}

	event, err := h.parser.ParseWebhook(payload, r.Header.Get(signatureHeader))
	if err != nil {
		switch {
		case errors.Is(err, payment.ErrIgnoredEvent):
			h.logger.Info("POST /payments/stripe/webhook - Ignored event: %v", err)
			w.WriteHeader(http.StatusOK)

		case errors.Is(err, payment.ErrInvalidSignature):
			h.logger.Warn("POST /payments/stripe/webhook - Invalid signature: %v", err)
			handlers.RespondBadRequest(w, msgInvalidSignature)

		default:
			h.logger.Warn("POST /payments/stripe/webhook - Invalid event: %v", err)
			handlers.RespondBadRequest(w, msgInvalidPayload)
		}
		return
	}

	result, err := h.useCase.Execute(r.Context(), &confirmDeposit.Request{
		BookingID: event.BookingID,
		Outcome: domain.PaymentOutcome{
			OutcomeID:  event.EventID,
			PaymentRef: event.PaymentRef,
			Status:     event.Status,
			ReceivedAt: time.Now(),
		},
	})
	if err != nil {
		switch {
		// Повторная доставка не поможет: событие устарело или относится к чужому платежу
		case errors.Is(err, confirmDeposit.ErrBookingNotFound),
			errors.Is(err, confirmDeposit.ErrPaymentMismatch),
			errors.Is(err, confirmDeposit.ErrInvalidTransition):
			h.logger.Warn("POST /payments/stripe/webhook - Event %s for booking_id=%d dropped: %v",
				event.EventID, event.BookingID, err)
			w.WriteHeader(http.StatusOK)

		default:
			h.logger.Error("POST /payments/stripe/webhook - Event %s for booking_id=%d failed: %v",
				event.EventID, event.BookingID, err)
			handlers.RespondInternalError(w)
		}
		return
	}

	h.logger.Info("POST /payments/stripe/webhook - Event %s applied to booking_id=%d: status=%s, applied=%t",
		event.EventID, event.BookingID, event.Status, result.Applied)
	w.WriteHeader(http.StatusOK)
}
