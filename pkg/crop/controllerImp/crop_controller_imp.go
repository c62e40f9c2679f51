package controllerImp

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"irrigo/pkg/apperr"
	"irrigo/pkg/catalog"
	"irrigo/pkg/crop/controller"
	"irrigo/pkg/crop/service"
	"irrigo/pkg/middleware"
)

type cropCtrl struct {
	svc     service.CropService
	catalog *catalog.Catalog
}

func New(svc service.CropService, cat *catalog.Catalog) controller.CropController {
	return &cropCtrl{svc: svc, catalog: cat}
}

func (h *cropCtrl) Plant(c echo.Context) error {
	var req service.PlantRequest
	if err := c.Bind(&req); err != nil {
		return middleware.Fail(c, apperr.Invalid("bad json"))
	}
	out, err := h.svc.PlantCrop(c.Request().Context(), middleware.Owner(c), req)
	if err != nil {
		return middleware.Fail(c, err)
	}
	return c.JSON(http.StatusCreated, out)
}

func (h *cropCtrl) List(c echo.Context) error {
	out, err := h.svc.ListCrops(middleware.Owner(c))
	if err != nil {
		return middleware.Fail(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *cropCtrl) Get(c echo.Context) error {
	id, err := middleware.IDParam(c, "id")
	if err != nil {
		return middleware.Fail(c, err)
	}
	out, err := h.svc.GetCrop(middleware.Owner(c), id)
	if err != nil {
		return middleware.Fail(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *cropCtrl) Remove(c echo.Context) error {
	id, err := middleware.IDParam(c, "id")
	if err != nil {
		return middleware.Fail(c, err)
	}
	if err := h.svc.RemoveCrop(c.Request().Context(), middleware.Owner(c), id); err != nil {
		return middleware.Fail(c, err)
	}
	return c.JSON(http.StatusOK, map[string]any{"status": "removed", "id": id})
}

func (h *cropCtrl) Catalog(c echo.Context) error {
	return c.JSON(http.StatusOK, h.catalog.Entries())
}
