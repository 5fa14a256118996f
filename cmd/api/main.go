package main

import (
	"context"
	"log"
	"net/http"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	ginadapter "github.com/awslabs/aws-lambda-go-api-proxy/gin"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/imrishuroy/go-storefront-checkout/internal/analytics"
	"github.com/imrishuroy/go-storefront-checkout/internal/aws"
	"github.com/imrishuroy/go-storefront-checkout/internal/cart"
	"github.com/imrishuroy/go-storefront-checkout/internal/cartstore"
	"github.com/imrishuroy/go-storefront-checkout/internal/checkout"
	"github.com/imrishuroy/go-storefront-checkout/internal/config"
	"github.com/imrishuroy/go-storefront-checkout/internal/handlers"
	"github.com/imrishuroy/go-storefront-checkout/internal/idempotency"
	"github.com/imrishuroy/go-storefront-checkout/internal/logging"
	"github.com/imrishuroy/go-storefront-checkout/internal/payments"
)

func setupRouter(checkoutCfg handlers.CheckoutConfig, cartCfg handlers.CartConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	// health
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	handlers.RegisterCheckoutRoutes(r, checkoutCfg)
	handlers.RegisterCartRoutes(r, cartCfg)

	return r
}

func cartSlot(cfg *config.Config, clients *aws.AWSClients) cart.Slot {
	if cfg.CartStore == config.CartStoreRedis {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
		})
		return cartstore.NewRedisSlot(rdb, cfg.CartTTL)
	}
	return cartstore.NewDynamoSlot(clients.DynamoDB, cfg.CartsTable, cfg.CartTTL)
}

func main() {
	cfg, envFile, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := logging.New(cfg.Env)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck
	if !envFile {
		logger.Debug("no .env file found, using process environment")
	}

	clients, err := aws.NewAWSClients(context.Background())
	if err != nil {
		logger.Fatal("failed to init aws clients", zap.Error(err))
	}

	var tracker cart.Tracker = analytics.Nop{}
	if cfg.AnalyticsQueueURL != "" {
		tracker = analytics.NewQueueTracker(aws.NewPublisher(clients.SQS, cfg.AnalyticsQueueURL))
	}

	// A nil *payments.Stripe must not reach the builder as a non-nil interface.
	var provider checkout.Provider
	if s := payments.NewStripe(cfg.StripeSecretKey); s != nil {
		provider = s
	} else {
		logger.Warn("STRIPE_SECRET_KEY not set, checkout will fail with failed-precondition")
	}

	var idemp *idempotency.Store
	if cfg.IdempotencyTable != "" {
		idemp = idempotency.NewStore(clients.DynamoDB, cfg.IdempotencyTable, cfg.IdempotencyTTL)
	}

	r := setupRouter(
		handlers.CheckoutConfig{
			Builder:     checkout.NewBuilder(provider, logger),
			Idempotency: idemp,
			Logger:      logger,
		},
		handlers.CartConfig{
			Slot:    cartSlot(cfg, clients),
			Tracker: tracker,
			Logger:  logger,
		},
	)

	// if environment variable RUN_LOCAL is set to "true", run local HTTP server for development.
	if cfg.RunLocal {
		logger.Info("running local server", zap.String("addr", cfg.Addr), zap.String("cart_store", cfg.CartStore))
		if err := r.Run(cfg.Addr); err != nil {
			logger.Fatal("failed to run local server", zap.Error(err))
		}
		return
	}

	adapter := ginadapter.New(r)

	lambda.Start(func(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
		return adapter.ProxyWithContext(ctx, req)
	})
}
