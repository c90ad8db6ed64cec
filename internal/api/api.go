package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/ougirez/discounts/internal/api/controller"
	"github.com/ougirez/discounts/internal/pkg/logger"
	"github.com/ougirez/discounts/internal/pkg/metrics"
)

type APIService struct {
	router *echo.Echo
	secret string
}

func (svc *APIService) Serve(addr string) {
	if err := svc.router.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatal(context.Background(), err)
	}
}

func (svc *APIService) Shutdown(ctx context.Context) error {
	return svc.router.Shutdown(ctx)
}

// Handler exposes the router, mostly for tests.
func (svc *APIService) Handler() http.Handler {
	return svc.router
}

func NewAPIService(discounts controller.DiscountsService, secret string) *APIService {
	svc := &APIService{router: echo.New(), secret: secret}

	svc.router.HideBanner = true
	svc.router.Validator = NewValidator()
	svc.router.Binder = NewBinder()
	svc.router.JSONSerializer = JSONSerializer{}
	svc.router.HTTPErrorHandler = httpErrorHandler
	svc.router.Use(middleware.Recover())
	svc.router.Use(middleware.Logger())

	cntrl := controller.NewController(discounts)

	svc.router.GET("/health", cntrl.Health)
	svc.router.GET("/metrics", echo.WrapHandler(metrics.Handler()))

	api := svc.router.Group("/api/v1")

	retrievals := api.Group("/retrievals", svc.AdminMiddleware)
	retrievals.POST("/:market_type", cntrl.RunRetrieval)
	retrievals.GET("/:market_type/pending", cntrl.GetPending)

	return svc
}
