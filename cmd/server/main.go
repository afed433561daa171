package main

import (
	"log"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/chaimaJr/CoffeeHop/internal/config"
	"github.com/chaimaJr/CoffeeHop/internal/es"
	"github.com/chaimaJr/CoffeeHop/internal/handlers"
	"github.com/chaimaJr/CoffeeHop/internal/hub"
	"github.com/chaimaJr/CoffeeHop/internal/logging"
	"github.com/chaimaJr/CoffeeHop/internal/mykafka"
	"github.com/chaimaJr/CoffeeHop/internal/service"
	httpserver "github.com/chaimaJr/CoffeeHop/internal/transport/http"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	logger := logging.New(cfg.LOG_LEVEL)

	db, err := config.InitDB(cfg)
	if err != nil {
		logger.Error("database init failed", "error", err)
		return
	}

	var producer *mykafka.Producer
	if cfg.KAFKA_ADDRESS != "" {
		producer, err = mykafka.NewProducer([]string{cfg.KAFKA_ADDRESS})
		if err != nil {
			logger.Warn("kafka unavailable, events disabled", "error", err)
		} else {
			defer producer.Close()
		}
	}

	esClient, err := es.NewClient(cfg)
	if err != nil {
		logger.Warn("elasticsearch unavailable, menu search disabled", "error", err)
		esClient = nil
	}

	orderHub := hub.New()
	notifier := &service.NotificationService{DB: db, Hub: orderHub, Producer: producer}
	loyalty := &service.LoyaltyService{DB: db}
	orders := &service.OrderService{
		DB:       db,
		Catalog:  &service.GormCatalog{DB: db},
		Loyalty:  loyalty,
		Notifier: notifier,
	}

	jwtSecret := []byte(cfg.JWT_SECRET)
	deps := &httpserver.Deps{
		AuthHandler: &handlers.AuthHandler{
			DB:            db,
			JWTSecret:     jwtSecret,
			RefreshSecret: []byte(cfg.REFRESH_SECRET),
			Producer:      producer,
		},
		MenuHandler:         &handlers.MenuHandler{DB: db, ES: esClient, Producer: producer, JWTSecret: jwtSecret},
		OrderHandler:        &handlers.OrderHandler{Svc: orders, Producer: producer, JWTSecret: jwtSecret},
		FavouriteHandler:    &handlers.FavouriteHandler{Svc: orders, JWTSecret: jwtSecret},
		LoyaltyHandler:      &handlers.LoyaltyHandler{Svc: loyalty, Producer: producer, JWTSecret: jwtSecret},
		NotificationHandler: &handlers.NotificationHandler{Svc: notifier, JWTSecret: jwtSecret},
		WSHandler:           &handlers.WSHandler{Svc: orders, Hub: orderHub, JWTSecret: jwtSecret},
	}

	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	e.Use(logging.RequestLogger(logger))

	httpserver.Register(e, deps)

	logger.Info("starting server", "port", cfg.PORT)
	if err := e.Start(":" + cfg.PORT); err != nil {
		logger.Error("server stopped", "error", err)
	}
}
