package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"marketplace-storefront/config"
	"marketplace-storefront/internal/api"
	"marketplace-storefront/internal/apiclient"
	"marketplace-storefront/internal/authstate"
	"marketplace-storefront/internal/broker"
	"marketplace-storefront/internal/cart"
	"marketplace-storefront/internal/checkout"
	"marketplace-storefront/internal/imageurl"
	"marketplace-storefront/internal/messaging"
	"marketplace-storefront/internal/models"
	"marketplace-storefront/internal/redisclient"
	"marketplace-storefront/internal/service"
	"marketplace-storefront/internal/session"
	"marketplace-storefront/internal/storefront"
	"marketplace-storefront/internal/util"
	"marketplace-storefront/internal/validation"
	"marketplace-storefront/internal/worker"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func main() {

	cfg := config.Load()

	if err := util.InitLogger(cfg.Server.Env, cfg.Session.Key); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer util.SyncLogger()

	logger := util.GetLogger()
	logger.Info("Starting storefront", zap.String("api", cfg.API.BaseURL))

	tp, err := util.InitTracer("marketplace-storefront", cfg.Observ.JaegerEndpoint)
	if err != nil {
		log.Fatalf("Failed to initialize tracer: %v", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tp.Shutdown(ctx); err != nil {
			log.Printf("Error shutting down tracer: %v", err)
		}
	}()

	var redisClient *redisclient.Client
	if cfg.Session.Backend == "redis" {
		redisClient, err = redisclient.NewClient(cfg.Session.RedisAddr, cfg.Session.RedisPassword, cfg.Session.RedisDB)
		if err != nil {
			log.Fatalf("Failed to connect to Redis: %v", err)
		}
		defer redisClient.Close()
		log.Println("Redis connected")
	}

	var store session.Store
	var keys checkout.KeyStore
	switch cfg.Session.Backend {
	case "redis":
		store = session.NewRedisStore(redisClient, cfg.Session.Key)
		keys = checkout.NewRedisKeyStore(redisClient, cfg.Session.Key)
	case "memory":
		store = session.NewMemoryStore()
		keys = checkout.NewMemoryKeyStore()
	default:
		store = session.NewFileStore(cfg.Session.Path)
		keys = checkout.NewMemoryKeyStore()
	}

	client := apiclient.NewClient(cfg.API.BaseURL, cfg.API.Timeout, apiclient.WithTokenSource(store))
	services := service.New(client, imageurl.Resolver{
		Base:        cfg.API.AssetBaseURL,
		Placeholder: cfg.Storefront.PlaceholderImage,
	})

	var activity storefront.Activity = storefront.NoopActivity{}
	var publisher *broker.EventPublisher
	if len(cfg.Kafka.Brokers) > 0 {
		producer := broker.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.TopicActivity)
		defer producer.Close()
		publisher = broker.NewEventPublisher(producer)
		activity = publisher
		log.Println("Kafka producer initialized")
	}

	auth := authstate.NewManager(services.Auth, store)
	client.SetUnauthorizedHandler(auth.HandleUnauthorized)

	ctx := context.Background()
	auth.Init(ctx)

	validator := validation.New(cfg.Storefront.InstitutionDomain)
	counter := cart.NewCounter(services.Cart)
	cartPage := cart.NewPage(services.Cart, counter)

	wizard := checkout.NewWizard(services.Orders, services.Cart, counter, keys, validator)
	wizard.OnComplete = func(ctx context.Context, order *models.Order) {
		if u := auth.User(); u != nil {
			activity.OrderPlaced(ctx, u.ID, order)
		}
	}

	messages := messaging.NewPage(services.Messages, auth)
	messages.OnSent = func(ctx context.Context, msg *models.Message) {
		activity.MessageSent(ctx, msg.SenderID, msg)
	}

	pages := storefront.New(storefront.Deps{
		Services:  services,
		Auth:      auth,
		Counter:   counter,
		Validator: validator,
		Prefs:     store,
		Activity:  activity,
		Config:    cfg.Storefront,
	})

	workerCtx, workerCancel := context.WithCancel(context.Background())
	defer workerCancel()

	badgeWorker := worker.NewBadgeWorker(counter, services.Messages, auth, cfg.Storefront.BadgeInterval)
	go func() {
		if err := badgeWorker.Start(workerCtx); err != nil && err != context.Canceled {
			log.Printf("Badge worker error: %v", err)
		}
	}()

	auth.Subscribe(func(s authstate.State) {
		if s.Loading || s.Authenticated {
			return
		}
		counter.Reset()
		badgeWorker.Reset()
		cartPage.Reset()
		messages.Close()
		wizard.Reset()
	})

	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	handler := api.NewHandler(api.Deps{
		Auth:     auth,
		Pages:    pages,
		Cart:     cartPage,
		Counter:  counter,
		Checkout: wizard,
		Messages: messages,
		Badges:   badgeWorker,
	})
	handler.SetupRoutes(router)

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.Server.Port),
		Handler: router,
	}

	go func() {
		log.Printf("Starting HTTP server on port %s", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server forced to shutdown: %v", err)
	}

	workerCancel()
	badgeWorker.Stop()
	auth.Wait()
	if publisher != nil {
		publisher.Wait()
	}

	log.Println("Server exited")
}
