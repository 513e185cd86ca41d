package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"cardshop/docs" // swagger docs

	"cardshop/internal/auth"
	"cardshop/internal/cache"
	"cardshop/internal/config"
	"cardshop/internal/db"
	"cardshop/internal/handler"
	"cardshop/internal/logger"
	"cardshop/internal/mailer"
	"cardshop/internal/payment"
	"cardshop/internal/repository"
	"cardshop/internal/router"
	"cardshop/internal/service"
	"cardshop/internal/storage"
)

// @title Card Shop API
// @version 1.0
// @description Trading card storefront and back-office: catalog, checkout, resale offers and administration.
// @host localhost:8080
// @BasePath /api
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.
func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "cardshop: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	log, err := logger.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return fmt.Errorf("logger init: %w", err)
	}
	defer func() { _ = log.Sync() }()

	gormDB, err := db.Open(cfg.DB.Driver, cfg.DB.DSN)
	if err != nil {
		return fmt.Errorf("database init: %w", err)
	}
	if err := db.Migrate(gormDB, cfg.ResetDB, log); err != nil {
		return fmt.Errorf("auto-migrate: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cacheClient := cache.New(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	defer func() { _ = cacheClient.Close() }()
	if err := cacheClient.Ping(ctx); err != nil {
		log.Warn("redis unavailable, running without cache and token revocation", zap.Error(err))
	}

	store, err := storage.NewMinioStore(&cfg.Storage)
	if err != nil {
		return fmt.Errorf("storage init: %w", err)
	}
	if err := store.EnsureBucket(ctx); err != nil {
		log.Warn("object storage unavailable", zap.Error(err))
	}

	var sender mailer.Sender
	if smtp, err := mailer.NewSMTPSender(&cfg.SMTP); err == nil {
		sender = smtp
	} else {
		log.Warn("contact mail disabled", zap.Error(err))
		sender = mailer.NewLogSender(log)
	}

	gateway := payment.NewStripeGateway(cfg.Stripe.SecretKey, cfg.Stripe.WebhookSecret, nil)

	// Initialize repositories
	userRepo := repository.NewUserRepository(gormDB)
	profileRepo := repository.NewProfileRepository(gormDB)
	articleRepo := repository.NewArticleRepository(gormDB)
	offerRepo := repository.NewOfferRepository(gormDB)
	orderRepo := repository.NewOrderRepository(gormDB)

	// Initialize auth components
	jwtService := auth.NewJWTService(cfg.JWT.Secret)
	tokenStore := auth.NewTokenStore(cacheClient)

	// Initialize services
	publicURL := strings.TrimSuffix(cfg.PublicURL, "/")
	authService := service.NewAuthService(userRepo, jwtService, tokenStore, log)
	userService := service.NewUserService(userRepo, profileRepo, tokenStore, log)
	articleService := service.NewArticleService(articleRepo, cacheClient)
	offerService := service.NewOfferService(offerRepo, log)
	orderService := service.NewOrderService(orderRepo, articleRepo, profileRepo, gateway, service.CheckoutConfig{
		Currency:   cfg.Stripe.Currency,
		SuccessURL: publicURL + "/orders/{order_id}?checkout=success",
		CancelURL:  publicURL + "/cart?checkout=cancelled",
	}, log)
	contactService := service.NewContactService(sender, cfg.SMTP.Inbox, log)
	imageService := service.NewImageService(store, cfg.Storage.URLTTL)

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	router.Register(e, log, jwtService, tokenStore, router.Handlers{
		Auth:    handler.NewAuthHandler(authService),
		User:    handler.NewUserHandler(userService),
		Article: handler.NewArticleHandler(articleService),
		Offer:   handler.NewOfferHandler(offerService),
		Order:   handler.NewOrderHandler(orderService),
		Contact: handler.NewContactHandler(contactService),
		Image:   handler.NewImageHandler(imageService),
	})

	if cfg.SwaggerHost != "" {
		docs.SwaggerInfo.Host = cfg.SwaggerHost
	}

	addr := ":" + cfg.ServerPort
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info("starting cardshop server",
			zap.String("addr", addr),
			zap.String("swagger", "http://"+docs.SwaggerInfo.Host+"/swagger/index.html"),
		)
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	// Graceful shutdown on signal or when the server goroutine fails
	g.Go(func() error {
		<-ctx.Done()
		log.Info("shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()

		if err := e.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown error: %w", err)
		}
		log.Info("server stopped gracefully")
		return nil
	})

	return g.Wait()
}
