package payment

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/webhook"

	"github.com/m04kA/SMC-RentalService/internal/domain"
	"github.com/m04kA/SMC-RentalService/pkg/logger"
)

const testWebhookSecret = "whsec_test"

// MockIntents мок API платежных намерений
type MockIntents struct {
	mock.Mock
}

func (m *MockIntents) New(params *stripe.PaymentIntentParams) (*stripe.PaymentIntent, error) {
	args := m.Called(params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*stripe.PaymentIntent), args.Error(1)
}

func (m *MockIntents) Get(id string, params *stripe.PaymentIntentParams) (*stripe.PaymentIntent, error) {
	args := m.Called(id, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*stripe.PaymentIntent), args.Error(1)
}

func (m *MockIntents) Cancel(id string, params *stripe.PaymentIntentCancelParams) (*stripe.PaymentIntent, error) {
	args := m.Called(id, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*stripe.PaymentIntent), args.Error(1)
}

// MockRefunds мок API возвратов
type MockRefunds struct {
	mock.Mock
}

func (m *MockRefunds) New(params *stripe.RefundParams) (*stripe.Refund, error) {
	args := m.Called(params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*stripe.Refund), args.Error(1)
}

func newTestProvider(intents *MockIntents, refunds *MockRefunds) *StripeProvider {
	return NewProvider(intents, refunds, testWebhookSecret, "usd", logger.NewNop())
}

func TestStripeProvider_InitiateDeposit(t *testing.T) {
	intents := &MockIntents{}
	intents.On("New", mock.MatchedBy(func(p *stripe.PaymentIntentParams) bool {
		return *p.Amount == 50000 &&
			*p.Currency == "usd" &&
			*p.IdempotencyKey == "deposit-42" &&
			p.Metadata[metadataBookingID] == "42"
	})).Return(&stripe.PaymentIntent{ID: "pi_1"}, nil)

	p := newTestProvider(intents, &MockRefunds{})

	ref, err := p.InitiateDeposit(context.Background(), 42, 500)
	require.NoError(t, err)
	assert.Equal(t, "pi_1", ref)
	intents.AssertExpectations(t)
}

func TestStripeProvider_InitiateDeposit_ProviderError(t *testing.T) {
	intents := &MockIntents{}
	intents.On("New", mock.Anything).Return(nil, errors.New("card_declined"))

	p := newTestProvider(intents, &MockRefunds{})

	_, err := p.InitiateDeposit(context.Background(), 42, 500)
	assert.ErrorIs(t, err, ErrProvider)
}

func TestStripeProvider_GetPaymentStatus(t *testing.T) {
	tests := []struct {
		name string
		pi   *stripe.PaymentIntent
		want domain.PaymentStatus
	}{
		{"succeeded", &stripe.PaymentIntent{Status: stripe.PaymentIntentStatusSucceeded}, domain.PaymentPaid},
		{"canceled", &stripe.PaymentIntent{Status: stripe.PaymentIntentStatusCanceled}, domain.PaymentFailed},
		{"declined", &stripe.PaymentIntent{
			Status:           stripe.PaymentIntentStatusRequiresPaymentMethod,
			LastPaymentError: &stripe.Error{Code: stripe.ErrorCodeCardDeclined},
		}, domain.PaymentFailed},
		{"not attempted", &stripe.PaymentIntent{Status: stripe.PaymentIntentStatusRequiresPaymentMethod}, domain.PaymentPending},
		{"processing", &stripe.PaymentIntent{Status: stripe.PaymentIntentStatusProcessing}, domain.PaymentPending},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			intents := &MockIntents{}
			intents.On("Get", "pi_1", mock.Anything).Return(tt.pi, nil)

			got, err := newTestProvider(intents, &MockRefunds{}).GetPaymentStatus(context.Background(), "pi_1")
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestStripeProvider_GetPaymentStatus_Timeout(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Nanosecond)
	defer cancel()
	<-ctx.Done()

	intents := &MockIntents{}
	intents.On("Get", "pi_1", mock.Anything).Return(nil, errors.New("request canceled"))

	_, err := newTestProvider(intents, &MockRefunds{}).GetPaymentStatus(ctx, "pi_1")
	assert.ErrorIs(t, err, ErrTimeout)
}

func TestStripeProvider_RefundDeposit(t *testing.T) {
	refunds := &MockRefunds{}
	refunds.On("New", mock.MatchedBy(func(p *stripe.RefundParams) bool {
		return *p.PaymentIntent == "pi_1" && *p.Amount == 50000 && *p.IdempotencyKey == "refund-42"
	})).Return(&stripe.Refund{ID: "re_1", Status: stripe.RefundStatusSucceeded}, nil)

	err := newTestProvider(&MockIntents{}, refunds).RefundDeposit(context.Background(), 42, "pi_1", 500)
	require.NoError(t, err)
	refunds.AssertExpectations(t)
}

func TestStripeProvider_ZeroDecimalCurrency(t *testing.T) {
	intents := &MockIntents{}
	intents.On("New", mock.MatchedBy(func(p *stripe.PaymentIntentParams) bool {
		return *p.Amount == 5000 && *p.Currency == "jpy"
	})).Return(&stripe.PaymentIntent{ID: "pi_1"}, nil)

	refunds := &MockRefunds{}
	refunds.On("New", mock.MatchedBy(func(p *stripe.RefundParams) bool {
		return *p.Amount == 5000
	})).Return(&stripe.Refund{ID: "re_1"}, nil)

	p := NewProvider(intents, refunds, testWebhookSecret, "jpy", logger.NewNop())

	_, err := p.InitiateDeposit(context.Background(), 42, 5000)
	require.NoError(t, err)
	require.NoError(t, p.RefundDeposit(context.Background(), 42, "pi_1", 5000))

	intents.AssertExpectations(t)
	refunds.AssertExpectations(t)
}

func TestToMinorUnits(t *testing.T) {
	assert.Equal(t, int64(50000), ToMinorUnits("usd", 500))
	assert.Equal(t, int64(50000), ToMinorUnits("EUR", 500))
	assert.Equal(t, int64(500), ToMinorUnits("jpy", 500))
	assert.Equal(t, int64(500), ToMinorUnits("KRW", 500))
	assert.Equal(t, int64(500000), ToMinorUnits("kwd", 500))
}

func TestStripeProvider_CancelDeposit(t *testing.T) {
	intents := &MockIntents{}
	intents.On("Cancel", "pi_1", mock.MatchedBy(func(p *stripe.PaymentIntentCancelParams) bool {
		return *p.IdempotencyKey == "cancel-42" &&
			*p.CancellationReason == string(stripe.PaymentIntentCancellationReasonRequestedByCustomer)
	})).Return(&stripe.PaymentIntent{ID: "pi_1", Status: stripe.PaymentIntentStatusCanceled}, nil)

	err := newTestProvider(intents, &MockRefunds{}).CancelDeposit(context.Background(), 42, "pi_1")
	require.NoError(t, err)
	intents.AssertExpectations(t)
}

func TestStripeProvider_CancelDeposit_AlreadySucceeded(t *testing.T) {
	intents := &MockIntents{}
	intents.On("Cancel", "pi_1", mock.Anything).
		Return(nil, &stripe.Error{Code: stripe.ErrorCode("payment_intent_unexpected_state")})

	err := newTestProvider(intents, &MockRefunds{}).CancelDeposit(context.Background(), 42, "pi_1")
	assert.ErrorIs(t, err, ErrProvider)
}

func signedPayload(t *testing.T, eventType, piID, bookingID string) ([]byte, string) {
	t.Helper()
	payload := []byte(fmt.Sprintf(`{
		"id": "evt_1",
		"object": "event",
		"api_version": %q,
		"type": %q,
		"data": {"object": {"id": %q, "object": "payment_intent", "metadata": {"booking_id": %q}}}
	}`, stripe.APIVersion, eventType, piID, bookingID))

	signed := webhook.GenerateTestSignedPayload(&webhook.UnsignedPayload{
		Payload:   payload,
		Secret:    testWebhookSecret,
		Timestamp: time.Now(),
	})
	return signed.Payload, signed.Header
}

func TestStripeProvider_ParseWebhook(t *testing.T) {
	p := newTestProvider(&MockIntents{}, &MockRefunds{})

	payload, header := signedPayload(t, "payment_intent.succeeded", "pi_1", "42")
	ev, err := p.ParseWebhook(payload, header)
	require.NoError(t, err)
	assert.Equal(t, "evt_1", ev.EventID)
	assert.Equal(t, int64(42), ev.BookingID)
	assert.Equal(t, "pi_1", ev.PaymentRef)
	assert.Equal(t, domain.PaymentPaid, ev.Status)

	payload, header = signedPayload(t, "payment_intent.payment_failed", "pi_1", "42")
	ev, err = p.ParseWebhook(payload, header)
	require.NoError(t, err)
	assert.Equal(t, domain.PaymentFailed, ev.Status)
}

func TestStripeProvider_ParseWebhook_Rejects(t *testing.T) {
	p := newTestProvider(&MockIntents{}, &MockRefunds{})

	payload, _ := signedPayload(t, "payment_intent.succeeded", "pi_1", "42")
	_, err := p.ParseWebhook(payload, "t=1,v1=deadbeef")
	assert.ErrorIs(t, err, ErrInvalidSignature)

	payload, header := signedPayload(t, "charge.refunded", "pi_1", "42")
	_, err = p.ParseWebhook(payload, header)
	assert.ErrorIs(t, err, ErrIgnoredEvent)

	payload, header = signedPayload(t, "payment_intent.succeeded", "pi_1", "")
	_, err = p.ParseWebhook(payload, header)
	assert.ErrorIs(t, err, ErrInvalidEvent)
}
