package controller

import "github.com/labstack/echo/v4"

type TaskController interface {
	List(c echo.Context) error
	Complete(c echo.Context) error
	Adjustments(c echo.Context) error
}
