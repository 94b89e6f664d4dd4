package confirm_deposit

import (
	"context"

	confirmDeposit "github.com/m04kA/SMC-RentalService/internal/usecase/confirm_deposit"
)

type ConfirmDepositUseCase interface {
	Execute(ctx context.Context, req *confirmDeposit.Request) (*confirmDeposit.Response, error)
}

type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
