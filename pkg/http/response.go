package http

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	applogger "CostCast/pkg/logger"

	"github.com/labstack/echo/v4"
)

// Envelope is the body of every error response.
type Envelope struct {
	Status  int         `json:"status"`
	Message string      `json:"message"`
	Data    []*AppError `json:"data,omitempty"`
}

// WriteErrors answers with the status of the first error and lists all of them.
func WriteErrors(c echo.Context, errs ...*AppError) error {
	status := http.StatusInternalServerError
	if len(errs) > 0 && errs[0].Status != 0 {
		status = errs[0].Status
	}
	return c.JSON(status, Envelope{Status: status, Message: http.StatusText(status), Data: errs})
}

// WriteError renders err, hiding anything that is not an AppError behind a 500.
func WriteError(c echo.Context, err error) error {
	var appErr *AppError
	if !errors.As(err, &appErr) {
		appErr = InternalError("Something went wrong").WithError(err)
	}
	return WriteErrors(c, appErr)
}

// errorHandler replaces echo's default so routing errors, panics and
// failed writes still produce an envelope.
func errorHandler(l *applogger.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}
		var he *echo.HTTPError
		if errors.As(err, &he) {
			code := "ERR_" + strings.ToUpper(strings.ReplaceAll(http.StatusText(he.Code), " ", "_"))
			err = NewAppError(he.Code, code, fmt.Sprint(he.Message))
		}
		var appErr *AppError
		if !errors.As(err, &appErr) || appErr.Status >= http.StatusInternalServerError {
			l.Error("unhandled request error", applogger.String("path", c.Path()), applogger.Error(err))
		}
		_ = WriteError(c, err)
	}
}
