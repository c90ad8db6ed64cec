package controller

import (
	"context"

	"github.com/ougirez/discounts/internal/domain"
	"github.com/ougirez/discounts/internal/pkg/resume"
	"github.com/ougirez/discounts/internal/service/discounts"
)

type DiscountsService interface {
	Run(ctx context.Context, mt domain.MarketType) (discounts.Report, error)
	Pending(mt domain.MarketType) (*resume.Pending, bool, error)
}

type Controller struct {
	service DiscountsService
}

func NewController(service DiscountsService) *Controller {
	return &Controller{service: service}
}
