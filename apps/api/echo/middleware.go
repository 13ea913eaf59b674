package echoapi

import (
	"context"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/juror/core"
	"github.com/trezcool/juror/core/user"
)

type userGetter interface {
	GetByID(ctx context.Context, id string) (user.User, error)
}

// contextUserMiddleware loads the user named by the token subject.
// A token of a user that no longer exists is rejected.
func contextUserMiddleware(users userGetter) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			claims, err := getContextClaims(ctx)
			if err != nil {
				return errors.Wrap(err, "getting context claims")
			}
			usr, err := users.GetByID(ctx.Request().Context(), claims.Subject)
			if errors.Is(err, core.ErrNotFound) {
				return errUnauthorized
			} else if err != nil {
				return errors.Wrap(err, "finding user by ID")
			}
			ctx.Set(contextUserKey, usr)
			return next(ctx)
		}
	}
}
