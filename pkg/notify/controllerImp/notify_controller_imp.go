package controllerImp

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"irrigo/pkg/middleware"
	"irrigo/pkg/notify/controller"
	"irrigo/pkg/notify/serviceImp"
)

type notifyCtrl struct{ box *serviceImp.Outbox }

func New(box *serviceImp.Outbox) controller.NotifyController { return &notifyCtrl{box} }

// Drain hands the caller its pending alerts and clears them.
func (h *notifyCtrl) Drain(c echo.Context) error {
	return c.JSON(http.StatusOK, h.box.Drain(middleware.Owner(c)))
}
