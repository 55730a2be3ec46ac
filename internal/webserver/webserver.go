package webserver

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/loomoretail/loomopos/internal/app"
	"github.com/loomoretail/loomopos/pkg/metrics"
)

const dbContextKey = "loomopos_db"

var server *WebServer

type WebServer struct {
	appCtx app.AppContext
	root   *echo.Echo
}

// Init builds the echo instance, wires middleware and returns the server.
// Route registration helpers below become usable after Init.
func Init(appCtx app.AppContext) *WebServer {
	server = &WebServer{appCtx: appCtx, root: echo.New()}
	server.root.HideBanner = true
	server.root.HTTPErrorHandler = errorHandler

	server.root.Use(middleware.Recover())
	server.root.Use(requestLogger())
	server.root.Use(injectDB(appCtx))

	secret := appCtx.Config().Web.Secret
	server.root.Use(echojwt.WithConfig(echojwt.Config{
		SigningKey: []byte(secret),
		Skipper: func(c echo.Context) bool {
			switch c.Path() {
			case "/api/auth/login", "/api/health", "/metrics":
				return true
			}
			return false
		},
		ErrorHandler: func(c echo.Context, err error) error {
			return echo.NewHTTPError(http.StatusUnauthorized, "unauthorized")
		},
	}))

	server.root.GET("/metrics", echo.WrapHandler(metrics.Handler()))
	server.root.GET("/api/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})

	return server
}

// Start runs the HTTP listener until ctx is cancelled.
func (s *WebServer) Start(ctx context.Context) error {
	cfg := s.appCtx.Config().Web
	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.root.Shutdown(shutdownCtx); err != nil {
			zap.L().Error("webserver shutdown error", zap.Error(err))
		}
	}()

	zap.L().Info("starting webserver", zap.String("listen", addr))
	err := s.root.Start(addr)
	if err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Echo exposes the underlying engine (handler tests).
func (s *WebServer) Echo() *echo.Echo {
	return s.root
}

func injectDB(appCtx app.AppContext) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			c.Set(dbContextKey, appCtx.DB())
			return next(c)
		}
	}
}

// GetDB fetches the request scoped gorm handle.
func GetDB(c echo.Context) *gorm.DB {
	return c.Get(dbContextKey).(*gorm.DB)
}

// SetDB injects a gorm handle into a context built outside the middleware
// chain (handler tests).
func SetDB(c echo.Context, db *gorm.DB) {
	c.Set(dbContextKey, db)
}

func requestLogger() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			status := c.Response().Status
			if metrics.Default != nil {
				metrics.Default.Requests.WithLabelValues(c.Path(), strconv.Itoa(status)).Inc()
				metrics.Default.LatencyMS.WithLabelValues(c.Path()).
					Observe(float64(time.Since(start).Milliseconds()))
			}
			zap.L().Debug("http request",
				zap.String("method", c.Request().Method),
				zap.String("path", c.Request().URL.Path),
				zap.Int("status", status),
				zap.Duration("elapsed", time.Since(start)),
			)
			return err
		}
	}
}

func errorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}
	code := http.StatusInternalServerError
	message := "Internal server error"
	if he, ok := err.(*echo.HTTPError); ok {
		code = he.Code
		message = fmt.Sprintf("%v", he.Message)
	}
	_ = c.JSON(code, map[string]interface{}{
		"data": nil,
		"errors": []map[string]interface{}{
			{"message": message, "code": codeForStatus(code), "details": message, "path": []string{c.Path()}},
		},
	})
}

func codeForStatus(status int) string {
	switch status {
	case http.StatusUnauthorized:
		return "UNAUTHORIZED"
	case http.StatusNotFound:
		return "NOT_FOUND"
	case http.StatusBadRequest:
		return "INVALID_REQUEST"
	default:
		return "INTERNAL_ERROR"
	}
}

// ApiGET registers a GET route on the current server.
func ApiGET(path string, h echo.HandlerFunc) {
	server.root.GET(path, h)
}

// ApiPOST registers a POST route on the current server.
func ApiPOST(path string, h echo.HandlerFunc) {
	server.root.POST(path, h)
}

// ApiPUT registers a PUT route on the current server.
func ApiPUT(path string, h echo.HandlerFunc) {
	server.root.PUT(path, h)
}

// ApiDELETE registers a DELETE route on the current server.
func ApiDELETE(path string, h echo.HandlerFunc) {
	server.root.DELETE(path, h)
}
