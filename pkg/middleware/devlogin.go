package middleware

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
)

const (
	OwnerKey     = "uid"
	OwnerCookie  = "OWNER_ID"
	OwnerHeader  = "X-Owner-Id"
	DefaultOwner = "U_DEV_DEFAULT"
)

// ownerFrom reads the caller's id from header, bearer token, cookie or ?uid=, in that order.
func ownerFrom(c echo.Context) string {
	req := c.Request()
	if v := strings.TrimSpace(req.Header.Get(OwnerHeader)); v != "" {
		return v
	}
	if auth := req.Header.Get(echo.HeaderAuthorization); strings.HasPrefix(auth, "Bearer ") {
		if v := strings.TrimSpace(strings.TrimPrefix(auth, "Bearer ")); v != "" {
			return v
		}
	}
	if ck, err := c.Cookie(OwnerCookie); err == nil && strings.TrimSpace(ck.Value) != "" {
		return strings.TrimSpace(ck.Value)
	}
	return strings.TrimSpace(c.QueryParam("uid"))
}

// DevLogin trusts whatever owner id the request carries and falls back to a shared
// development owner, remembered in a cookie.
func DevLogin() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			uid := ownerFrom(c)
			if uid == "" {
				uid = DefaultOwner
			}
			if ck, err := c.Cookie(OwnerCookie); err != nil || ck.Value != uid {
				c.SetCookie(&http.Cookie{Name: OwnerCookie, Value: uid, Path: "/"})
			}
			c.Set(OwnerKey, uid)
			return next(c)
		}
	}
}

// Strict requires an owner id on every request and answers 401 without one.
func Strict() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			uid := ownerFrom(c)
			if uid == "" {
				return c.JSON(http.StatusUnauthorized, map[string]string{"error": "missing owner id"})
			}
			c.Set(OwnerKey, uid)
			return next(c)
		}
	}
}

// Owner returns the id set by DevLogin or Strict.
func Owner(c echo.Context) string {
	uid, _ := c.Get(OwnerKey).(string)
	return uid
}
