package stripe_webhook

import (
	"context"

	"github.com/m04kA/SMC-RentalService/internal/integrations/payment"
	confirmDeposit "github.com/m04kA/SMC-RentalService/internal/usecase/confirm_deposit"
)

// WebhookParser проверка подписи и разбор события провайдера
type WebhookParser interface {
	ParseWebhook(payload []byte, signature string) (*payment.WebhookEvent, error)
}

type ConfirmDepositUseCase interface {
	Execute(ctx context.Context, req *confirmDeposit.Request) (*confirmDeposit.Response, error)
}

type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
