package router

import (
	"github.com/labstack/echo/v4"

	authCtrl "irrigo/pkg/auth/controller"
	cropCtrl "irrigo/pkg/crop/controller"
	notifyCtrl "irrigo/pkg/notify/controller"
	schedCtrl "irrigo/pkg/schedule/controller"
)

type Controllers struct {
	Auth   authCtrl.AuthController
	Crops  cropCtrl.CropController
	Tasks  schedCtrl.TaskController
	Notify notifyCtrl.NotifyController
	Health interface{ Health(echo.Context) error }
}

// New registers every route. ownerMW resolves the caller (DevLogin or Strict).
func New(e *echo.Echo, ownerMW echo.MiddlewareFunc, c Controllers) *echo.Echo {
	e.GET("/health", c.Health.Health)
	e.GET("/devlogin", c.Auth.DevLogin)

	api := e.Group("/api", ownerMW)
	api.GET("/whoami", c.Auth.WhoAmI)
	api.GET("/catalog", c.Crops.Catalog)

	api.POST("/plant", c.Crops.Plant)
	api.GET("/my-crops", c.Crops.List)
	api.GET("/my-crops/:id", c.Crops.Get)
	api.DELETE("/my-crops/:id", c.Crops.Remove)

	api.GET("/tasks", c.Tasks.List)
	api.POST("/tasks/:id/complete", c.Tasks.Complete)
	api.GET("/tasks/:id/adjustments", c.Tasks.Adjustments)

	api.GET("/notifications", c.Notify.Drain)
	return e
}
