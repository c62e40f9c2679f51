package middleware

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"irrigo/pkg/apperr"
)

func serve(mw echo.MiddlewareFunc, req *http.Request) *httptest.ResponseRecorder {
	e := echo.New()
	e.GET("/who", func(c echo.Context) error { return c.String(http.StatusOK, Owner(c)) }, mw)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestDevLoginOwnerSources(t *testing.T) {
	cases := []struct {
		name string
		req  func() *http.Request
		want string
	}{
		{"default", func() *http.Request { return httptest.NewRequest(http.MethodGet, "/who", nil) }, DefaultOwner},
		{"query", func() *http.Request { return httptest.NewRequest(http.MethodGet, "/who?uid=U_Q", nil) }, "U_Q"},
		{"cookie", func() *http.Request {
			r := httptest.NewRequest(http.MethodGet, "/who?uid=U_Q", nil)
			r.AddCookie(&http.Cookie{Name: OwnerCookie, Value: "U_C"})
			return r
		}, "U_C"},
		{"bearer", func() *http.Request {
			r := httptest.NewRequest(http.MethodGet, "/who", nil)
			r.Header.Set(echo.HeaderAuthorization, "Bearer U_B")
			return r
		}, "U_B"},
		{"header wins", func() *http.Request {
			r := httptest.NewRequest(http.MethodGet, "/who", nil)
			r.Header.Set(OwnerHeader, "U_H")
			r.Header.Set(echo.HeaderAuthorization, "Bearer U_B")
			return r
		}, "U_H"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := serve(DevLogin(), tc.req())
			require.Equal(t, http.StatusOK, rec.Code)
			assert.Equal(t, tc.want, rec.Body.String())
		})
	}
}

func TestDevLoginSetsCookie(t *testing.T) {
	rec := serve(DevLogin(), httptest.NewRequest(http.MethodGet, "/who?uid=U_Q", nil))
	assert.Contains(t, rec.Header().Get(echo.HeaderSetCookie), OwnerCookie+"=U_Q")
}

func TestStrictRejectsAnonymous(t *testing.T) {
	rec := serve(Strict(), httptest.NewRequest(http.MethodGet, "/who", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req := httptest.NewRequest(http.MethodGet, "/who", nil)
	req.Header.Set(OwnerHeader, "U_H")
	rec = serve(Strict(), req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "U_H", rec.Body.String())
}

func TestFailMapsErrors(t *testing.T) {
	cases := []struct {
		err  error
		code int
		body string
	}{
		{fmt.Errorf("crop 3: %w", apperr.ErrNotFound), http.StatusNotFound, "crop 3: not found"},
		{apperr.ErrAlreadyCompleted, http.StatusConflict, "task already completed"},
		{apperr.Invalid("city is required"), http.StatusBadRequest, "invalid input: city is required"},
		{apperr.Persistence("list", errors.New("database is locked")), http.StatusServiceUnavailable, "Service Unavailable"},
		{errors.New("boom"), http.StatusInternalServerError, "Internal Server Error"},
	}
	e := echo.New()
	for _, tc := range cases {
		rec := httptest.NewRecorder()
		c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)
		require.NoError(t, Fail(c, tc.err))
		assert.Equal(t, tc.code, rec.Code)
		assert.JSONEq(t, fmt.Sprintf(`{"error":%q}`, tc.body), rec.Body.String())
	}
}

func TestIDParam(t *testing.T) {
	e := echo.New()
	for _, tc := range []struct {
		raw string
		ok  bool
	}{{"12", true}, {"0", false}, {"-3", false}, {"abc", false}} {
		c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), httptest.NewRecorder())
		c.SetParamNames("id")
		c.SetParamValues(tc.raw)
		id, err := IDParam(c, "id")
		if tc.ok {
			require.NoError(t, err)
			assert.Equal(t, uint(12), id)
		} else {
			assert.ErrorIs(t, err, apperr.ErrInvalidInput)
		}
	}
}
