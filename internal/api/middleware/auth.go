package middleware

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/m04kA/SMC-RentalService/internal/api/handlers"
	"github.com/m04kA/SMC-RentalService/internal/domain"
	"github.com/m04kA/SMC-RentalService/internal/integrations/identityservice"
)

// UserIDHeader заголовок с ID пользователя, выставляется API gateway
const UserIDHeader = "X-User-ID"

type actorKey struct{}

// Auth проверяет X-User-ID и кладет пользователя с ролью и станциями в контекст
func Auth(resolver ActorResolver, logger Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID, err := strconv.ParseInt(r.Header.Get(UserIDHeader), 10, 64)
			if err != nil || userID <= 0 {
				logger.Warn("%s %s - Missing or invalid %s header", r.Method, r.URL.Path, UserIDHeader)
				handlers.RespondUnauthorized(w)
				return
			}

			actor, err := resolver.GetActor(r.Context(), userID)
			if err != nil {
				if errors.Is(err, identityservice.ErrUserNotFound) {
					logger.Warn("%s %s - Unknown user_id=%d", r.Method, r.URL.Path, userID)
					handlers.RespondUnauthorized(w)
					return
				}
				logger.Error("%s %s - Failed to resolve user_id=%d: %v", r.Method, r.URL.Path, userID, err)
				handlers.RespondInternalError(w)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithActor(r.Context(), actor)))
		})
	}
}

// WithActor кладет пользователя в контекст
func WithActor(ctx context.Context, actor *domain.Actor) context.Context {
	return context.WithValue(ctx, actorKey{}, actor)
}

// GetActor достает пользователя из контекста
func GetActor(ctx context.Context) (*domain.Actor, bool) {
	actor, ok := ctx.Value(actorKey{}).(*domain.Actor)
	return actor, ok && actor != nil
}
