package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/snmlog/transferplus/internal/auth"
	"github.com/snmlog/transferplus/internal/config"
	"github.com/snmlog/transferplus/internal/database"
	"github.com/snmlog/transferplus/internal/handlers"
	"github.com/snmlog/transferplus/internal/importer"
	"github.com/snmlog/transferplus/internal/models"
	"github.com/snmlog/transferplus/internal/services/transfer"
	"github.com/snmlog/transferplus/internal/session"
	"github.com/snmlog/transferplus/internal/ws"
)

func main() {
	log := logrus.New()
	log.SetFormatter(&logrus.JSONFormatter{})

	// 1. Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}
	if cfg.Env == "development" {
		log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}

	// 2. Connect (embedded PostgreSQL when nothing is configured)
	db, err := database.Connect(cfg.Database, log)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}

	// 3. Synchronize schema
	err = db.AutoMigrate(
		&models.Desembarque{},
		&models.Conferencia{},
		&models.Embarque{},
		&models.ImportBatch{},
		&models.UserAuth{},
		&models.Vessel{},
		&models.Department{},
	)
	if err != nil {
		log.WithError(err).Warn("schema migration warning")
	}

	// 4. Session store: Redis when configured, in-process otherwise
	var store session.Store
	if cfg.Redis.Addr != "" {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := client.Ping(context.Background()).Err(); err != nil {
			log.Fatalf("redis unreachable: %v", err)
		}
		store = session.NewRedisStore(client)
		log.WithField("addr", cfg.Redis.Addr).Info("sessions in Redis")
	} else {
		store = session.NewMemoryStore()
		log.Info("sessions in process memory")
	}
	sessions := session.NewManager(cfg.JWTSecret, cfg.SessionTTL, store)

	// 5. Authentication backend: directory when configured, local otherwise
	var authenticator handlers.Authenticator
	if cfg.LDAP.Server != "" {
		authenticator = auth.NewLDAPAuthenticator(cfg.LDAP, log)
		log.WithField("server", cfg.LDAP.Server).Info("authentication via directory")
	} else {
		authenticator = auth.NewLocalAuthenticator(db)
		log.Info("authentication via local users")
	}

	// 6. Services and activity stream
	hub := ws.NewHub(log)
	go hub.Run()

	transfers := transfer.NewService(db, log)
	transfers.OnEvent(func(e transfer.Event) {
		hub.Broadcast(e)
	})
	imports := importer.NewService(db, log, cfg.UploadsDir)

	router := handlers.NewRouter(db, log, transfers, imports, sessions, authenticator, hub)

	server := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM, syscall.SIGINT)

	go func() {
		log.WithField("port", cfg.Port).Info("server starting")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("failed to start server: %v", err)
		}
	}()

	sig := <-shutdown
	log.WithField("signal", sig.String()).Info("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.WithError(err).Error("server shutdown")
	}

	if err := db.Close(); err != nil {
		log.WithError(err).Error("database close")
	}
	log.Info("shutdown complete")
}
