package server

import (
	"context"
	"log/slog"
	"math/big"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/ballot-chain/ballot_chain/internal/chain"
	"github.com/ballot-chain/ballot_chain/internal/config"
	"github.com/ballot-chain/ballot_chain/internal/relay"
	"github.com/ballot-chain/ballot_chain/internal/routes"
)

// Server wraps the Fiber application and shared dependencies.
type Server struct {
	app *fiber.App
	cfg config.Config
}

// New instantiates the HTTP server and delegates route wiring to routes.Setup.
func New(cfg config.Config, backend chain.Backend, sender relay.Sender, chainID *big.Int, db *pgxpool.Pool, cache *redis.Client, logger *slog.Logger) (*Server, error) {
	app := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 2 * time.Minute, // relayed operations wait for confirmation
	})

	deps := routes.Deps{
		Cfg:     cfg,
		Backend: backend,
		Sender:  sender,
		ChainID: chainID,
		DB:      db,
		Cache:   cache,
		Logger:  logger,
	}
	if err := routes.Setup(app, deps); err != nil {
		return nil, err
	}

	return &Server{app: app, cfg: cfg}, nil
}

// Listen starts the HTTP server.
func (s *Server) Listen() error {
	return s.app.Listen(s.cfg.Address())
}

// Shutdown gracefully stops the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.app.ShutdownWithContext(ctx)
}
