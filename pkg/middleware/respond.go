package middleware

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"irrigo/pkg/apperr"
)

// Fail writes err as {"error": "..."} with the status apperr maps it to.
func Fail(c echo.Context, err error) error {
	status := apperr.HTTPStatus(err)
	msg := err.Error()
	if status == http.StatusInternalServerError || status == http.StatusServiceUnavailable {
		msg = http.StatusText(status)
	}
	return c.JSON(status, map[string]string{"error": msg})
}

// IDParam parses a positive numeric path parameter.
func IDParam(c echo.Context, name string) (uint, error) {
	v, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || v == 0 {
		return 0, apperr.Invalid("%s must be a positive integer", name)
	}
	return uint(v), nil
}
