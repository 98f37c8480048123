// cmd/api/main.go

package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/joho/godotenv"
	"github.com/nats-io/nats.go"
	"github.com/prometheus/client_golang/prometheus"

	"hershield/internal/adapter/storage"
	"hershield/internal/config"
	"hershield/internal/protocol"
	"hershield/internal/server"
	alertService "hershield/internal/service/alert"
	"hershield/internal/service/assist"
	"hershield/internal/service/auth"
	"hershield/internal/service/hub"
	presenceService "hershield/internal/service/presence"
)

func main() {
	// Load environment variables from .env file
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Setup context with cancellation for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Setup signal handling for graceful shutdown
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	// Metrics registry
	metricsRegistry := prometheus.NewRegistry()
	hubMetrics := hub.NewMetrics(metricsRegistry)

	// Optional NATS event mirror
	var mirror *hub.Mirror
	var natsConn *nats.Conn
	if cfg.NATS.URL != "" {
		natsConn, err = initNATS(cfg.NATS)
		if err != nil {
			log.Fatalf("Failed to connect to NATS: %v", err)
		}
		defer natsConn.Close()
		mirror = hub.NewMirror(natsConn, cfg.Hub.EventsTopic)
	}

	// Event hub
	hubConfig := hub.DefaultConfig()
	hubConfig.WriteWait = cfg.Hub.WriteWait
	hubConfig.PongWait = cfg.Hub.PongWait
	hubConfig.PingPeriod = (cfg.Hub.PongWait * 9) / 10
	hubConfig.MaxMessageSize = cfg.Hub.MaxMessageSize
	hubConfig.SendBuffer = cfg.Hub.SendBuffer
	eventHub := hub.New(hubConfig, mirror, hubMetrics)

	// Presence protocol: registry writes and broadcasts on every
	// location update, removal and broadcast on disconnect.
	registry := presenceService.NewRegistry()
	presenceHandler := presenceService.NewHandler(registry)
	eventHub.OnConnect(presenceHandler.HandleConnect)
	eventHub.OnDisconnect(presenceHandler.HandleDisconnect)
	eventHub.HandleKind(protocol.KindSendLocation, presenceHandler.HandleLocation)

	// Alert protocol: SOS relayed to everyone but the originator.
	alertHandler := alertService.NewHandler()
	eventHub.HandleKind(protocol.KindSOSAlert, alertHandler.HandleSOS)

	// Optional auth service
	var authSvc *auth.Service
	var db *pgxpool.Pool
	if cfg.Auth.Enabled {
		db, err = initDatabase(ctx, cfg.Database)
		if err != nil {
			log.Fatalf("Failed to initialize database: %v", err)
		}
		defer db.Close()

		userStore := storage.NewUserStore(db)
		if err := userStore.EnsureSchema(ctx); err != nil {
			log.Fatalf("Failed to ensure database schema: %v", err)
		}
		authSvc = auth.NewService(userStore, cfg.Auth.SessionTTL)
	}

	// Optional assistant proxy
	var assistSvc *assist.Service
	if cfg.Assist.APIKey != "" {
		assistSvc = assist.NewService(cfg.Assist)
	}

	// Initialize HTTP server
	httpServer := server.NewServer(cfg.Server, eventHub, authSvc, assistSvc, metricsRegistry)

	// Start HTTP server
	go func() {
		log.Printf("Starting HTTP server on %s:%d", cfg.Server.Host, cfg.Server.Port)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("HTTP server error: %v", err)
		}
	}()

	// Wait for shutdown signal
	<-shutdown
	log.Println("Shutdown signal received")

	// Create shutdown context with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	// Graceful shutdown
	log.Println("Shutting down services...")

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Printf("HTTP server shutdown error: %v", err)
	}
	eventHub.Close()

	log.Println("Shutdown complete")
}

// Initialize database connection
func initDatabase(ctx context.Context, cfg config.DatabaseConfig) (*pgxpool.Pool, error) {
	connString := fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		cfg.User, cfg.Password, cfg.Host, cfg.Port, cfg.Database, cfg.SSLMode,
	)

	poolConfig, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, fmt.Errorf("unable to parse connection string: %w", err)
	}

	poolConfig.MaxConns = int32(cfg.MaxOpenConns)
	poolConfig.MinConns = int32(cfg.MaxIdleConns)
	poolConfig.MaxConnLifetime = cfg.MaxLifetime

	db, err := pgxpool.ConnectConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("unable to connect to database: %w", err)
	}

	// Test connection
	if err := db.Ping(ctx); err != nil {
		return nil, fmt.Errorf("unable to ping database: %w", err)
	}

	return db, nil
}

// Initialize NATS connection
func initNATS(cfg config.NATSConfig) (*nats.Conn, error) {
	options := []nats.Option{
		nats.MaxReconnects(cfg.MaxReconnects),
		nats.ReconnectWait(cfg.ReconnectWait),
		nats.Timeout(cfg.ConnectTimeout),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			log.Printf("NATS disconnected: %v", err)
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Printf("NATS reconnected to %s", nc.ConnectedUrl())
		}),
		nats.ClosedHandler(func(nc *nats.Conn) {
			log.Printf("NATS connection closed")
		}),
	}

	nc, err := nats.Connect(cfg.URL, options...)
	if err != nil {
		return nil, fmt.Errorf("unable to connect to NATS: %w", err)
	}

	return nc, nil
}
