package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echoMiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/spf13/cobra"

	"irrigo/entities"
	"irrigo/pkg/logx"
	"irrigo/pkg/middleware"
	"irrigo/router"

	authCtrlImp "irrigo/pkg/auth/controllerImp"
	cropCtrlImp "irrigo/pkg/crop/controllerImp"
	healthCtrlImp "irrigo/pkg/health/controllerImp"
	notifyCtrlImp "irrigo/pkg/notify/controllerImp"
	schedCtrlImp "irrigo/pkg/schedule/controllerImp"
)

func main() {
	root := &cobra.Command{
		Use:           "irrigo",
		Short:         "Irrigation scheduling and crop lifecycle server",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(serveCmd(), sweepCmd(), catalogCmd())
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and the periodic sweep",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, log, err := loadConfig()
			if err != nil {
				return err
			}
			a, err := newApp(cfg, log)
			if err != nil {
				return err
			}
			defer a.close()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return a.serve(ctx)
		},
	}
}

func (a *app) serve(ctx context.Context) error {
	if a.cfg.CatalogWatch && len(a.cfg.CatalogPaths) > 0 {
		go func() {
			if err := a.catalog.Watch(ctx, a.cfg.CatalogPaths...); err != nil {
				a.log.Warn("catalog watch stopped", logx.Err(err))
			}
		}()
	}
	go a.purgeLoop(ctx.Done())

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(echoMiddleware.Recover())
	e.Use(middleware.RequestLog(a.log))

	ownerMW := middleware.DevLogin()
	if a.cfg.EnableStrictAuth {
		ownerMW = middleware.Strict()
	}
	router.New(e, ownerMW, router.Controllers{
		Auth:   authCtrlImp.NewAuthController(),
		Crops:  cropCtrlImp.New(a.crops, a.catalog),
		Tasks:  schedCtrlImp.New(a.scheduler, a.completer, a.clock),
		Notify: notifyCtrlImp.New(a.outbox),
		Health: healthCtrlImp.NewHealthCtrl(a.db, a.driver),
	})

	a.driver.Start(ctx)

	errc := make(chan error, 1)
	go func() {
		a.log.Info("listening", logx.String("port", a.cfg.Port))
		if err := e.Start(":" + a.cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
		close(errc)
	}()

	var serveErr error
	select {
	case <-ctx.Done():
	case serveErr = <-errc:
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		a.log.Warn("http shutdown", logx.Err(err))
	}
	a.driver.Stop(shutdownCtx)
	return serveErr
}

func sweepCmd() *cobra.Command {
	var date string
	cmd := &cobra.Command{
		Use:   "sweep",
		Short: "Run one sweep over all active crops and exit",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, log, err := loadConfig()
			if err != nil {
				return err
			}
			a, err := newApp(cfg, log)
			if err != nil {
				return err
			}
			defer a.close()

			today := a.clock.Today()
			if date != "" {
				d, err := entities.ParseDay(date)
				if err != nil {
					return fmt.Errorf("--date %q: want YYYY-MM-DD", date)
				}
				today = d
			}
			rep := a.driver.Sweep(cmd.Context(), today)
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			if err := enc.Encode(rep); err != nil {
				return err
			}
			if rep.Failed > 0 {
				return fmt.Errorf("sweep: %d crop(s) failed", rep.Failed)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&date, "date", "", "day to sweep as YYYY-MM-DD (default today)")
	return cmd
}

func catalogCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "catalog",
		Short: "Print the effective crop catalog",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, log, err := loadConfig()
			if err != nil {
				return err
			}
			a, err := newApp(cfg, log)
			if err != nil {
				return err
			}
			defer a.close()
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(a.catalog.Entries())
		},
	}
}
