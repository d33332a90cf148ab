// Copyright 2026 The OpenAdmit Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/openadmit/openadmit/internal/audit"
	"github.com/openadmit/openadmit/internal/auth"
	"github.com/openadmit/openadmit/internal/config"
	"github.com/openadmit/openadmit/internal/filestore"
	"github.com/openadmit/openadmit/internal/form"
	"github.com/openadmit/openadmit/internal/identity"
	"github.com/openadmit/openadmit/internal/observability/logger"
	"github.com/openadmit/openadmit/internal/observability/metrics"
	"github.com/openadmit/openadmit/internal/observability/tracing"
	"github.com/openadmit/openadmit/internal/store/postgres"
	"github.com/openadmit/openadmit/internal/submission"
	"github.com/openadmit/openadmit/internal/tenant"
	transportHTTP "github.com/openadmit/openadmit/internal/transport/http"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	logger.InitLogger(logger.Config{
		Level:       cfg.Observability.LogLevel,
		Format:      cfg.Observability.LogFormat,
		ServiceName: cfg.Observability.ServiceName,
	})
	slog.Info("starting openadmit admission portal")

	if len(os.Args) > 1 && os.Args[1] == "migrate" {
		if err := runMigrate(cfg); err != nil {
			fmt.Printf("Migration failed: %v\n", err)
			os.Exit(1)
		}
		os.Exit(0)
	}

	ctx := context.Background()

	// Initialize tracer
	tracer, err := tracing.New(ctx, tracing.Config{
		Enabled:        cfg.Observability.OTELEnabled,
		ServiceName:    cfg.Observability.ServiceName,
		ServiceVersion: cfg.Observability.ServiceVersion,
		SamplingRate:   1.0,
	})
	if err != nil {
		slog.Error("failed to initialize tracer", logger.Error(err))
	}
	defer tracer.Shutdown(ctx)

	// Initialize meter
	_, err = metrics.New(ctx, metrics.Config{
		Enabled: cfg.Observability.OTELEnabled,
	}, cfg.Observability.ServiceName)
	if err != nil {
		slog.Error("failed to initialize meter", logger.Error(err))
	}

	// Initialize database
	db, err := postgres.New(ctx, postgres.Config{
		Host:            cfg.Database.Host,
		Port:            cfg.Database.Port,
		User:            cfg.Database.User,
		Password:        cfg.Database.Password,
		Database:        cfg.Database.Database,
		SSLMode:         cfg.Database.SSLMode,
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
	})
	if err != nil {
		slog.Error("failed to connect to database", logger.Error(err))
		os.Exit(1)
	}
	defer db.Close()
	slog.Info("connected to database")

	// Initialize repositories
	tenantRepo := postgres.NewTenantRepository(db)
	userRepo := postgres.NewUserRepository(db)
	formRepo := postgres.NewFormRepository(db)
	submissionRepo := postgres.NewSubmissionRepository(db)

	// Initialize helpers
	auditLogger := audit.NewSlogLogger()
	passwordHasher := auth.NewPasswordHasher(
		cfg.Auth.Argon2Memory,
		cfg.Auth.Argon2Iterations,
		cfg.Auth.Argon2Parallelism,
		cfg.Auth.Argon2SaltLength,
		cfg.Auth.Argon2KeyLength,
	)
	tokenIssuer := auth.NewTokenIssuer(cfg.Auth.JWTSecret, cfg.Auth.JWTIssuer, cfg.Auth.TokenLifetime)

	// Initialize file storage
	files, err := newFileStore(ctx, cfg)
	if err != nil {
		slog.Error("failed to initialize file storage", logger.Error(err))
		os.Exit(1)
	}

	// Initialize schema cache
	var schemaCache form.SchemaCache = form.NoopSchemaCache{}
	if cfg.Cache.Enabled {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.Cache.Addr,
			Password: cfg.Cache.Password,
			DB:       cfg.Cache.DB,
		})
		if err := redisClient.Ping(ctx).Err(); err != nil {
			slog.Warn("redis unreachable, schema cache disabled", logger.Error(err))
		} else {
			schemaCache = form.NewRedisSchemaCache(redisClient, cfg.Cache.TTL)
			slog.Info("schema cache enabled")
		}
	}

	// Initialize services
	tenantService := tenant.NewService(tenantRepo, auditLogger)
	identityService := identity.NewService(userRepo, passwordHasher, auditLogger)
	formService := form.NewService(formRepo, schemaCache, auditLogger, cfg.Server.BaseURL)
	submissionService := submission.NewService(submissionRepo, files, auditLogger, cfg.Uploads.MaxSizeBytes)

	// Rate limiter
	rateLimiter := transportHTTP.NewRateLimiter(cfg.RateLimit.RequestsPerSecond, cfg.RateLimit.Burst)

	// Initialize HTTP handler
	handler := transportHTTP.NewHandler(
		tenantService,
		identityService,
		formService,
		submissionService,
		tokenIssuer,
		auditLogger,
		cfg.Uploads.MaxSizeBytes,
	)

	// Create router
	router := transportHTTP.NewRouter(handler, rateLimiter)

	// Create HTTP server
	addr := fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port)
	server := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Start server
	go func() {
		slog.Info("starting http server", logger.Component("server"), logger.Operation("listen"))
		slog.Info(fmt.Sprintf("listening on %s", addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", logger.Error(err))
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down server")

	// Graceful shutdown
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("server shutdown error", logger.Error(err))
	}

	slog.Info("server stopped")
}

func newFileStore(ctx context.Context, cfg *config.Config) (filestore.Store, error) {
	switch cfg.Uploads.Driver {
	case "minio":
		return filestore.NewMinioStore(ctx, filestore.MinioConfig{
			Endpoint:  cfg.Uploads.MinioEndpoint,
			AccessKey: cfg.Uploads.MinioAccessKey,
			SecretKey: cfg.Uploads.MinioSecretKey,
			Bucket:    cfg.Uploads.MinioBucket,
			UseSSL:    cfg.Uploads.MinioUseSSL,
		})
	case "memory":
		return filestore.NewMemoryStore(), nil
	default:
		return filestore.NewLocalStore(cfg.Uploads.LocalRoot)
	}
}

func runMigrate(cfg *config.Config) error {
	ctx := context.Background()
	db, err := postgres.New(ctx, postgres.Config{
		Host:            cfg.Database.Host,
		Port:            cfg.Database.Port,
		User:            cfg.Database.User,
		Password:        cfg.Database.Password,
		Database:        cfg.Database.Database,
		SSLMode:         cfg.Database.SSLMode,
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
	})
	if err != nil {
		return err
	}
	defer db.Close()

	fmt.Println("Applying initial schema...")
	if err := db.Migrate(ctx, postgres.InitialSchema); err != nil {
		return err
	}
	fmt.Println("Migration successful.")
	return nil
}
