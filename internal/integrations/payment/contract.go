package payment

import "github.com/stripe/stripe-go/v76"

// PaymentIntentAPI подмножество stripe API платежных намерений
// *paymentintent.Client из stripe-go реализует этот интерфейс
type PaymentIntentAPI interface {
	New(params *stripe.PaymentIntentParams) (*stripe.PaymentIntent, error)
	Get(id string, params *stripe.PaymentIntentParams) (*stripe.PaymentIntent, error)
	Cancel(id string, params *stripe.PaymentIntentCancelParams) (*stripe.PaymentIntent, error)
}

// RefundAPI подмножество stripe API возвратов
type RefundAPI interface {
	New(params *stripe.RefundParams) (*stripe.Refund, error)
}

// Logger интерфейс для логирования
type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
