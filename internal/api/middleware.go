package api

import (
	"github.com/labstack/echo/v4"
	"github.com/ougirez/discounts/internal/pkg/constants"
	"github.com/ougirez/discounts/internal/pkg/utils"
)

// AdminMiddleware accepts a signed secret token from the admin cookie or the
// admin header.
func (svc *APIService) AdminMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(ctx echo.Context) error {
		if svc.secret == "" {
			return constants.ErrUnauthorized
		}

		raw := ctx.Request().Header.Get(constants.HeaderAdminToken)
		if raw == "" {
			cookie, err := ctx.Cookie(constants.CookieKeySecretToken)
			if err != nil {
				return constants.ErrUnauthorized
			}
			raw = cookie.Value
		}

		token, err := utils.ParseAuthToken(raw, svc.secret)
		if err != nil {
			return err
		}

		if token.Secret != svc.secret {
			return constants.ErrUnauthorized
		}

		return next(ctx)
	}
}
