package middleware

import (
	"log/slog"
	"runtime/debug"

	"github.com/vango-dev/sweetstate/internal/errors"
	"github.com/vango-dev/sweetstate/pkg/store"
)

// Recover creates middleware that turns a panic in the rest of the chain
// (later middleware, the mutator or a patch) into a logged error. The
// update is dropped and the panic's error is returned as the update result.
// A nil logger uses slog.Default().
func Recover(logger *slog.Logger) store.Middleware {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "store")

	return func(s store.Inspector) func(store.Next) store.Next {
		return func(next store.Next) store.Next {
			return func(u store.Update) (res any) {
				defer func() {
					if p := recover(); p != nil {
						err := errors.New("S104").WithDetail(panicDetail(p))
						logger.Error(err.Message,
							"store", s.ID(),
							"action", actionLabel(u.Action),
							"panic", p,
							"stack", string(debug.Stack()),
						)
						res = err
					}
				}()
				return next(u)
			}
		}
	}
}

func panicDetail(p any) string {
	if err, ok := p.(error); ok {
		return err.Error()
	}
	if s, ok := p.(string); ok {
		return s
	}
	return "non-error panic value"
}
