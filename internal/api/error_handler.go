package api

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/ougirez/discounts/internal/domain"
	"github.com/ougirez/discounts/internal/pkg/constants"
)

func httpErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	msg := err.Error()
	code := http.StatusInternalServerError

	var ce *constants.CodedError
	var he *echo.HTTPError
	switch {
	case errors.As(err, &ce):
		code = ce.Code()
	case errors.As(err, &he):
		code = he.Code
		msg = http.StatusText(code)
		if m, ok := he.Message.(string); ok {
			msg = m
		}
	}

	_ = c.JSON(code, domain.ErrorResponse{
		Message: msg,
		Code:    code,
	})
}
