package observability

import (
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"
)

// HeaderRequestID carries the request id in both directions.
const HeaderRequestID = "X-Request-ID"

// RequestLogger attaches a RequestContext to every request, logs its outcome and records it in m.
// Handler errors are rendered here so the logged status is the one the client sees.
func RequestLogger(logger *slog.Logger, m *Metrics) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			route := c.Path()
			if route == "" {
				route = req.URL.Path
			}

			var rc *RequestContext
			if id := req.Header.Get(HeaderRequestID); id != "" {
				rc = NewRequestContextWithID(logger, id, route, c.Param("user"))
			} else {
				rc = NewRequestContext(logger, route, c.Param("user"))
			}
			c.SetRequest(req.WithContext(WithRequestContext(req.Context(), rc)))
			c.Response().Header().Set(HeaderRequestID, rc.RequestID)

			if err := next(c); err != nil {
				c.Error(err)
			}

			status := c.Response().Status
			duration := rc.Duration()
			failed := status >= http.StatusInternalServerError
			if m != nil {
				m.RecordRequest(req.Method+" "+route, duration, failed)
			}

			attrs := []slog.Attr{
				slog.String("method", req.Method),
				slog.String("path", req.URL.Path),
				slog.Int(LogFieldStatus, status),
				slog.Int64(LogFieldDuration, duration.Milliseconds()),
			}
			switch {
			case failed:
				rc.Warn("request failed", attrs...)
			case status >= http.StatusBadRequest:
				rc.Info("request rejected", attrs...)
			default:
				rc.Info("request", attrs...)
			}
			return nil
		}
	}
}

