package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"travel_guard/internal/anomaly"
	"travel_guard/internal/config"
	"travel_guard/internal/controllers"
	"travel_guard/internal/engine"
	"travel_guard/internal/logger"
	"travel_guard/internal/middleware"
	"travel_guard/internal/routes"
	"travel_guard/internal/store"
)

func main() {
	// Initialize structured logging to file
	logger.Setup()

	// Connect to the database
	config.InitDB()

	travelerKey := config.TravelerKey()
	profile := config.EnsureProfile(travelerKey)
	zones := config.LoadZones()

	locations := store.New(config.GetDB(), travelerKey)
	if err := locations.Restore(); err != nil {
		logrus.WithError(err).Warn("Could not restore last known location, starting empty.")
	}

	provider := engine.NewPushProvider()
	authority := &middleware.TokenAuthority{}

	monitor := engine.New(engine.Options{
		Store:       locations,
		Detector:    anomaly.NewDetector(anomaly.DefaultConfig(), nil),
		Zones:       zones,
		Provider:    provider,
		Permissions: authority,
		Request:     config.SubscriptionRequest(),
		OnPublish:   controllers.PublishAssessment,
	})
	defer monitor.Close()

	controllers.Use(monitor, provider, authority, profile)

	// Setup Gin router
	r := routes.SetupRouter()

	// Wrap with CORS
	handler := middleware.EnableCORS(r)

	srv := &http.Server{Addr: "0.0.0.0:8080", Handler: handler}

	go func() {
		log.Println("🚀 Server running at :8080")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	// Release the provider subscription on every exit path.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logrus.Info("Shutting down, releasing provider subscription.")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logrus.WithError(err).Warn("HTTP server shutdown was not clean.")
	}
	if err := monitor.Close(); err != nil {
		logrus.WithError(err).Warn("Engine close failed.")
	}
}
