package controllerImp

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"irrigo/pkg/driver"
)

var appStart = time.Now()

// DriverStatus reports the background sweep state.
type DriverStatus interface {
	Status() driver.Status
}

type HealthCtrl struct {
	db     *gorm.DB
	driver DriverStatus
}

func NewHealthCtrl(db *gorm.DB, drv DriverStatus) *HealthCtrl {
	return &HealthCtrl{db: db, driver: drv}
}

type sub struct {
	OK  bool   `json:"ok"`
	Err string `json:"err,omitempty"`
}

func (h *HealthCtrl) Health(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 800*time.Millisecond)
	defer cancel()

	db := sub{OK: true}
	if h.db == nil {
		db = sub{Err: "gorm db is nil"}
	} else if sqlDB, err := h.db.DB(); err != nil {
		db = sub{Err: "db.DB(): " + err.Error()}
	} else if err := sqlDB.PingContext(ctx); err != nil {
		db = sub{Err: "ping: " + err.Error()}
	}

	checks := map[string]any{"database": db}
	if h.driver != nil {
		checks["driver"] = h.driver.Status()
	}

	status := http.StatusOK
	if !db.OK {
		status = http.StatusServiceUnavailable
	}
	return c.JSON(status, map[string]any{
		"status":     map[string]any{"ok": db.OK},
		"uptime_sec": int(time.Since(appStart).Seconds()),
		"checks":     checks,
		"time":       time.Now().Format(time.RFC3339),
	})
}
