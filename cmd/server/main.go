package main

import (
	"context"
	"fmt"
	"net/http"
	"os"

	_ "github.com/joho/godotenv/autoload"
	"github.com/sirupsen/logrus"

	"github.com/harmonic-games/stagepass/internal/auth"
	"github.com/harmonic-games/stagepass/internal/cache"
	"github.com/harmonic-games/stagepass/internal/handlers"
	"github.com/harmonic-games/stagepass/internal/identity"
	"github.com/harmonic-games/stagepass/internal/middleware"
	"github.com/harmonic-games/stagepass/internal/room"
	"github.com/harmonic-games/stagepass/internal/store"
	"github.com/harmonic-games/stagepass/internal/store/memory"
	"github.com/harmonic-games/stagepass/internal/store/postgres"
	"github.com/harmonic-games/stagepass/internal/users"
)

func main() {
	logger := logrus.New()
	logger.SetLevel(logrus.DebugLevel)

	ctx := context.Background()

	st, err := openStore(ctx, logger)
	if err != nil {
		logger.Fatalf("store init: %v", err)
	}
	defer st.Close()

	authSvc, err := newAuthService()
	if err != nil {
		logger.Fatalf("auth init: %v", err)
	}

	var archive room.ResultsArchiver
	if os.Getenv("REDIS_ADDR") != "" {
		a, err := cache.Connect()
		if err != nil {
			logger.Fatalf("redis init: %v", err)
		}
		archive = a
		logger.Info("result archive queue enabled")
	}

	resolver := identity.NewTokenResolver(authSvc, st)
	userSvc := users.NewService(st, authSvc, resolver, logger)
	roomSvc := room.NewService(st, resolver, archive, logger)

	srv := handlers.NewServer(userSvc, roomSvc, logger)
	handler := middleware.LogMiddleware(logger)(srv.Routes())

	addr := ":8080"
	if port := os.Getenv("PORT"); port != "" {
		addr = ":" + port
	}
	logger.Infof("Running on %s", addr)
	if err := http.ListenAndServe(addr, handler); err != nil {
		logger.Fatalf("server exited: %v", err)
	}
}

// openStore picks the backing store. STAGEPASS_STORE=memory runs without a
// database, for local development; anything else connects Postgres and
// applies the schema.
func openStore(ctx context.Context, logger *logrus.Logger) (store.Store, error) {
	if os.Getenv("STAGEPASS_STORE") == "memory" {
		logger.Warn("using in-memory store; state is lost on restart")
		return memory.New(), nil
	}

	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		dsn = fmt.Sprintf(
			"postgres://%s:%s@%s:%s/%s",
			os.Getenv("POSTGRES_USER"),
			os.Getenv("POSTGRES_PASSWORD"),
			os.Getenv("PG_HOST"),
			os.Getenv("PG_PORT"),
			os.Getenv("PG_DATABASE"),
		)
	}
	pg, err := postgres.New(ctx, dsn)
	if err != nil {
		return nil, err
	}
	if err := pg.Migrate(ctx); err != nil {
		pg.Close()
		return nil, err
	}
	logger.Info("connected to Postgres")
	return pg, nil
}

// newAuthService loads signing keys from disk when configured, otherwise
// generates an ephemeral pair.
func newAuthService() (*auth.Service, error) {
	privPath := os.Getenv("JWT_PRIVATE_KEY_FILE")
	pubPath := os.Getenv("JWT_PUBLIC_KEY_FILE")
	if privPath != "" && pubPath != "" {
		return auth.NewServiceFromFiles(privPath, pubPath)
	}
	return auth.NewService()
}
