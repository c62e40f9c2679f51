package controllerImp

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"irrigo/pkg/auth/controller"
	"irrigo/pkg/middleware"
)

type authCtrl struct{}

func NewAuthController() controller.AuthController { return &authCtrl{} }

// DevLogin pins the owner cookie to ?uid, or to the default dev owner.
func (h *authCtrl) DevLogin(c echo.Context) error {
	uid := strings.TrimSpace(c.QueryParam("uid"))
	if uid == "" {
		uid = middleware.DefaultOwner
	}
	c.SetCookie(&http.Cookie{Name: middleware.OwnerCookie, Value: uid, Path: "/", HttpOnly: true})
	return c.JSON(http.StatusOK, map[string]string{"uid": uid})
}

func (h *authCtrl) WhoAmI(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"uid": middleware.Owner(c)})
}
