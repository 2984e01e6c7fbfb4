package middleware

import (
	"fmt"
	"runtime/debug"

	applogger "CostCast/pkg/logger"

	"github.com/labstack/echo/v4"
)

// Recover turns a handler panic into an error for the server's error handler.
func Recover(l *applogger.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) (err error) {
			defer func() {
				r := recover()
				if r == nil {
					return
				}
				l.Error("handler panic",
					applogger.String("request_id", GetRequestID(c)),
					applogger.String("panic", fmt.Sprint(r)),
					applogger.String("stack", string(debug.Stack())),
				)
				err = fmt.Errorf("panic in %s: %v", c.Path(), r)
			}()
			return next(c)
		}
	}
}
