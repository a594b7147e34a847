package echoapi

import (
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/eleve/core/user"
)

const contextUserKey = "user"

// accepted Authorization header schemes
var authSchemes = []string{"Token", "Bearer"}

// tokenFromHeader extracts the key from an "Authorization: Token <key>" (or Bearer) header.
func tokenFromHeader(ctx echo.Context) string {
	auth := strings.TrimSpace(ctx.Request().Header.Get(echo.HeaderAuthorization))
	for _, scheme := range authSchemes {
		l := len(scheme)
		if len(auth) > l+1 && strings.EqualFold(auth[:l], scheme) && auth[l] == ' ' {
			return strings.TrimSpace(auth[l+1:])
		}
	}
	return ""
}

// tokenAuthMiddleware rejects requests without a valid token and stores the authenticated user in the context.
func tokenAuthMiddleware(svc *user.Service) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			key := tokenFromHeader(ctx)
			if key == "" {
				return errMissingToken
			}
			usr, err := svc.Authenticate(ctx.Request().Context(), key)
			if err != nil {
				if errors.Cause(err) == user.ErrInvalidToken {
					return errInvalidToken
				}
				return errors.Wrap(err, "authenticating token")
			}
			ctx.Set(contextUserKey, usr)
			return next(ctx)
		}
	}
}

func getContextUser(ctx echo.Context) (user.User, bool) {
	usr, ok := ctx.Get(contextUserKey).(user.User)
	return usr, ok
}
