package controllerImp

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"irrigo/pkg/clock"
	"irrigo/pkg/middleware"
	"irrigo/pkg/schedule/controller"
	"irrigo/pkg/schedule/service"
)

type taskCtrl struct {
	sched service.TaskScheduler
	done  service.TaskCompleter
	clock clock.Clock
}

func New(sched service.TaskScheduler, done service.TaskCompleter, clk clock.Clock) controller.TaskController {
	return &taskCtrl{sched: sched, done: done, clock: clk}
}

func (h *taskCtrl) List(c echo.Context) error {
	out, err := h.sched.ListTasks(middleware.Owner(c), h.clock.Today())
	if err != nil {
		return middleware.Fail(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *taskCtrl) Complete(c echo.Context) error {
	id, err := middleware.IDParam(c, "id")
	if err != nil {
		return middleware.Fail(c, err)
	}
	out, err := h.done.CompleteTask(c.Request().Context(), middleware.Owner(c), id)
	if err != nil {
		return middleware.Fail(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *taskCtrl) Adjustments(c echo.Context) error {
	id, err := middleware.IDParam(c, "id")
	if err != nil {
		return middleware.Fail(c, err)
	}
	out, err := h.sched.Adjustments(middleware.Owner(c), id)
	if err != nil {
		return middleware.Fail(c, err)
	}
	return c.JSON(http.StatusOK, out)
}
