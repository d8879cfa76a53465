package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aws/aws-xray-sdk-go/xray"
	"github.com/labstack/echo/v4"

	adaptermiddleware "catalog-api/internal/adapters/http/middleware"
	adapterlogger "catalog-api/internal/adapters/logger"
	"catalog-api/internal/adapters/metrics"
	"catalog-api/internal/application"
	"catalog-api/internal/config"
	"catalog-api/internal/infrastructure/auth"
	httpiface "catalog-api/internal/interfaces/http"
	"catalog-api/internal/platform/lambda"
	"catalog-api/internal/platform/storage"
)

func main() {
	cfg, err := config.Load(".env")
	if err != nil {
		adapterlogger.New("error").Error(context.Background(), "configuration error", "error", err)
		os.Exit(1)
	}
	logger := adapterlogger.New(cfg.LogLevel)
	if cfg.XRayEnabled {
		if err := xray.Configure(xray.Config{LogLevel: "error"}); err != nil {
			logger.Error(context.Background(), "failed to configure xray", "error", err)
			os.Exit(1)
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	collector := metrics.New()
	backend, err := storage.Open(ctx, cfg, collector)
	if err != nil {
		logger.Error(ctx, "failed to open storage", "error", err)
		os.Exit(1)
	}
	defer backend.Close()
	stores := backend.Stores

	gate := application.NewAuthorizationGate(application.NewPermissionResolver(stores.Roles), collector, logger)
	catalogSvc := application.NewCatalogService(gate, stores.Categories, stores.Products, stores.Links, logger)
	productSvc := application.NewProductService(gate, stores.Products, logger)
	orderSvc := application.NewOrderService(gate, stores.Orders, logger)
	userSvc := application.NewUserService(stores.Users, stores.Roles, auth.NewArgon2Hasher(auth.DefaultArgon2Params), logger)
	roleSvc := application.NewRoleService(gate, stores.Users, stores.Roles, logger)

	mode, err := adaptermiddleware.ParseAuthMode(cfg.AuthMode)
	if err != nil {
		logger.Error(ctx, "invalid auth mode", "error", err)
		os.Exit(1)
	}
	var bearer echo.MiddlewareFunc
	switch mode {
	case adaptermiddleware.ModeJWT:
		bearer = auth.NewBearerMiddleware(auth.NewHMACVerifier([]byte(cfg.JWTSecret), cfg.JWTIssuer)).Handler
	case adaptermiddleware.ModeJWKS:
		bearer = auth.NewBearerMiddleware(auth.NewJWKSVerifier(cfg.JWKSURL, cfg.JWTIssuer, cfg.JWKSTTL)).Handler
	}
	authMiddleware, err := adaptermiddleware.AuthMiddleware(mode, bearer)
	if err != nil {
		logger.Error(ctx, "failed to initialize auth middleware", "error", err)
		os.Exit(1)
	}

	var issuer httpiface.TokenIssuer
	if cfg.JWTSecret != "" {
		issuer = auth.NewIssuer([]byte(cfg.JWTSecret), cfg.JWTIssuer, cfg.JWTTTL)
	}

	mw := httpiface.Middleware{
		Auth:          authMiddleware,
		RequestLogger: adaptermiddleware.RequestLogger(logger, collector),
	}
	if cfg.XRayEnabled {
		mw.XRay = adaptermiddleware.XRayMiddleware("catalog-http")
	}

	e := httpiface.NewRouter(httpiface.Handlers{
		Categories: httpiface.NewCategoriesHandler(catalogSvc),
		Products:   httpiface.NewProductsHandler(productSvc),
		Orders:     httpiface.NewOrdersHandler(orderSvc),
		Users:      httpiface.NewUsersHandler(userSvc, issuer),
		Roles:      httpiface.NewRolesHandler(roleSvc),
		Metrics:    collector.Handler(),
	}, mw)

	if lambda.InLambda() {
		logger.Info(ctx, "starting lambda handler", "identity_backend", cfg.IdentityBackend, "auth_mode", string(mode))
		lambda.Start(e)
		return
	}

	go func() {
		logger.Info(ctx, "starting http server", "port", cfg.Port, "identity_backend", cfg.IdentityBackend, "auth_mode", string(mode))
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error(ctx, "http server stopped", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error(shutdownCtx, "graceful shutdown failed", "error", err)
	}
	logger.Info(shutdownCtx, "http server stopped")
}
