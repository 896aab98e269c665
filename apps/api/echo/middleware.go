package echoapi

import (
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/kitabiapp/kitabi/core"
	"github.com/kitabiapp/kitabi/core/session"
)

const contextSessionKey = "session"

func adminMiddleware(roles ...string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			claims, err := getContextClaims(ctx)
			if err != nil {
				return errors.Wrap(err, "getting context claims")
			}
			if claims.IsAdmin && contextHasAnyRole(ctx, roles) {
				return next(ctx)
			}
			return errHttpForbidden
		}
	}
}

// sessionMiddleware authenticates reader routes by session cookie. The
// cookie presence is only a hint: the store is the authority, and a failed
// verification clears the cookies so the client stops presenting them.
func sessionMiddleware(svc *session.Service, conf *core.Config) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			token, _, _, ok := readSessionCookies(ctx)
			if !ok {
				return errSessionInvalid
			}

			sess, err := svc.Verify(ctx.Request().Context(), token)
			if err != nil {
				switch errors.Cause(err) {
				case session.ErrNotFound, session.ErrExpired, session.ErrInactive:
					clearSessionCookies(ctx, conf)
					return errSessionInvalid
				}
				return errors.Wrap(err, "verifying session")
			}

			ctx.Set(contextSessionKey, sess)
			return next(ctx)
		}
	}
}

func getContextSession(ctx echo.Context) (session.Session, error) {
	if sess, ok := ctx.Get(contextSessionKey).(session.Session); ok {
		return sess, nil
	}
	return session.Session{}, errUnauthorized
}
