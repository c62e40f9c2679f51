package middleware

import (
	"github.com/labstack/echo/v4"
	echoMiddleware "github.com/labstack/echo/v4/middleware"

	"irrigo/pkg/logx"
)

// RequestLog writes one log line per request.
func RequestLog(log logx.Logger) echo.MiddlewareFunc {
	log = log.With(logx.String("comp", "http"))
	return echoMiddleware.RequestLoggerWithConfig(echoMiddleware.RequestLoggerConfig{
		LogMethod:     true,
		LogURI:        true,
		LogStatus:     true,
		LogLatency:    true,
		LogRemoteIP:   true,
		LogError:      true,
		HandleError:   true,
		LogValuesFunc: func(c echo.Context, v echoMiddleware.RequestLoggerValues) error {
			fields := []logx.Field{
				logx.String("method", v.Method),
				logx.String("uri", v.URI),
				logx.Int("status", v.Status),
				logx.Duration("latency", v.Latency),
				logx.String("remote", v.RemoteIP),
				logx.String("owner", Owner(c)),
			}
			switch {
			case v.Error != nil:
				log.Warn("request", append(fields, logx.Err(v.Error))...)
			case v.Status >= 500:
				log.Warn("request", fields...)
			default:
				log.Debug("request", fields...)
			}
			return nil
		},
	})
}
