package echoapi

import (
	"net/http"
	"strings"
	"unicode"

	"github.com/labstack/echo/v4"

	"github.com/kitabiapp/kitabi/core"
	"github.com/kitabiapp/kitabi/core/session"
)

// Session cookie names. All three are written together on login and
// cleared together on logout; a request missing any of them is simply
// treated as not logged in.
const (
	sessionTokenCookie = "ebook_session_token"
	deviceIDCookie     = "ebook_device_id"
	userIDCookie       = "ebook_user_id"
)

// sanitizeCookieValue strips characters that would break the Set-Cookie
// header or smuggle extra attributes.
func sanitizeCookieValue(val string) string {
	return strings.Map(func(r rune) rune {
		if r == ';' || r == ',' || unicode.IsSpace(r) || unicode.IsControl(r) {
			return -1
		}
		return r
	}, val)
}

func newSessionCookie(name, value string, conf *core.Config) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    sanitizeCookieValue(value),
		Path:     "/",
		MaxAge:   int(conf.Session.Duration.Seconds()),
		HttpOnly: true,
		Secure:   conf.IsProd(),
		SameSite: http.SameSiteStrictMode,
	}
}

func saveSessionCookies(ctx echo.Context, sess session.Session, conf *core.Config) {
	ctx.SetCookie(newSessionCookie(sessionTokenCookie, sess.Token, conf))
	ctx.SetCookie(newSessionCookie(deviceIDCookie, sess.DeviceID, conf))
	ctx.SetCookie(newSessionCookie(userIDCookie, sess.UserID, conf))
}

// readSessionCookies returns the token, device ID and user ID cookies.
// Presence means all three are set at once; a partial set reads as absent.
func readSessionCookies(ctx echo.Context) (token, deviceID, userID string, ok bool) {
	names := [3]string{sessionTokenCookie, deviceIDCookie, userIDCookie}
	var vals [3]string
	for i, name := range names {
		c, err := ctx.Cookie(name)
		if err != nil || c.Value == "" {
			return "", "", "", false
		}
		vals[i] = c.Value
	}
	return vals[0], vals[1], vals[2], true
}

func clearSessionCookies(ctx echo.Context, conf *core.Config) {
	for _, name := range [3]string{sessionTokenCookie, deviceIDCookie, userIDCookie} {
		c := newSessionCookie(name, "", conf)
		c.MaxAge = -1
		ctx.SetCookie(c)
	}
}
