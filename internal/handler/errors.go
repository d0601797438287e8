package handler

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

const genericError = "Something went wrong. Please try again later."

// ErrorPage is the data of error.html.
type ErrorPage struct {
	Code    int
	Message string
}

// ErrorHandler replaces echo's default error handler.  Server errors are
// logged with the request id and answered with a generic message; client
// errors keep their message.  API paths get JSON, everything else the
// error page.
func ErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}
	code := http.StatusInternalServerError
	msg := genericError
	var he *echo.HTTPError
	if errors.As(err, &he) {
		code = he.Code
		if code < http.StatusInternalServerError {
			msg = fmt.Sprint(he.Message)
		}
	}
	if code >= http.StatusInternalServerError {
		zap.L().Error("Uncaught exception",
			zap.Error(err),
			zap.String("method", c.Request().Method),
			zap.String("path", c.Request().URL.Path),
			zap.String("request_id", c.Response().Header().Get(echo.HeaderXRequestID)),
		)
	}

	var out error
	switch {
	case c.Request().Method == http.MethodHead:
		out = c.NoContent(code)
	case isAPI(c):
		out = c.JSON(code, echo.Map{"success": false, "error": msg})
	default:
		out = render(c, code, "error.html", "Error", ErrorPage{Code: code, Message: msg})
		if out != nil {
			out = c.String(code, msg)
		}
	}
	if out != nil {
		zap.L().Warn("error response failed", zap.Error(out))
	}
}

// serverError wraps err for ErrorHandler, which logs it and answers 500.
func serverError(what string, err error) error {
	return fmt.Errorf("%s: %w", what, err)
}
