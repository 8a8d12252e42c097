package http

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
)

// OK writes v as the bare JSON body. Analysis clients read the payload at
// the top level, so there is no envelope.
func OK(c echo.Context, v any) error {
	return c.JSON(http.StatusOK, v)
}

// Invalid answers 400 with the first field message as the headline.
func Invalid(c echo.Context, fields []FieldError) error {
	body := ErrorBody{Error: "invalid request", Code: "ERR_BAD_REQUEST", Details: fields}
	if len(fields) > 0 && fields[0].Message != "" {
		body.Error = fields[0].Message
	}
	return c.JSON(http.StatusBadRequest, body)
}

// Fail answers with err's status when it is an *AppError and a generic 500
// otherwise, so internal messages never reach the client.
func Fail(c echo.Context, err error) error {
	var appErr *AppError
	if !errors.As(err, &appErr) {
		appErr = errInternal
	}
	return c.JSON(appErr.Status, ErrorBody{Error: appErr.Message, Code: appErr.Code})
}
