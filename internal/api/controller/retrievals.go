package controller

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/ougirez/discounts/internal/domain"
	"github.com/ougirez/discounts/internal/pkg/constants"
)

type retrievalRequest struct {
	MarketType string `param:"market_type" validate:"required"`
}

func (r retrievalRequest) marketType() (domain.MarketType, error) {
	return domain.ParseMarketType(r.MarketType)
}

type HealthResponse struct {
	Status string `json:"status"`
}

func (c *Controller) Health(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, HealthResponse{Status: "ok"})
}

// RunRetrieval runs the next batch of one retailer. The run is not cancelled
// when the client goes away.
func (c *Controller) RunRetrieval(ctx echo.Context) error {
	var req retrievalRequest
	if err := ctx.Bind(&req); err != nil {
		return err
	}
	mt, err := req.marketType()
	if err != nil {
		return err
	}

	report, err := c.service.Run(context.WithoutCancel(ctx.Request().Context()), mt)
	if err != nil {
		return err
	}

	return ctx.JSON(http.StatusOK, report)
}

func (c *Controller) GetPending(ctx echo.Context) error {
	var req retrievalRequest
	if err := ctx.Bind(&req); err != nil {
		return err
	}
	mt, err := req.marketType()
	if err != nil {
		return err
	}

	pending, ok, err := c.service.Pending(mt)
	if err != nil {
		return err
	}
	if !ok {
		return constants.ErrDBNotFound
	}

	return ctx.JSON(http.StatusOK, pending)
}
