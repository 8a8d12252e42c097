package middleware

import (
	"fmt"
	"net/http"
	"runtime/debug"

	applogger "TrackBets/pkg/logger"

	"github.com/labstack/echo/v4"
)

// Recover turns a handler panic into the API's generic 500 body and logs
// the stack.
func Recover(l *applogger.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) (err error) {
			defer func() {
				r := recover()
				if r == nil {
					return
				}
				l.Error("http handler panic",
					applogger.String("route", c.Path()),
					applogger.String("request_id", requestID(c)),
					applogger.Error(fmt.Errorf("%v", r)),
					applogger.String("stack", string(debug.Stack())),
				)
				if c.Response().Committed {
					return
				}
				err = c.JSON(http.StatusInternalServerError, map[string]string{
					"error": "Something went wrong",
					"code":  "ERR_INTERNAL",
				})
			}()
			return next(c)
		}
	}
}
