package controller

import "github.com/labstack/echo/v4"

type NotifyController interface {
	Drain(c echo.Context) error
}
