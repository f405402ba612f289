package routes

import (
	"context"
	"fmt"
	"log/slog"
	"math/big"
	"net/http"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/ballot-chain/ballot_chain/internal/chain"
	"github.com/ballot-chain/ballot_chain/internal/config"
	"github.com/ballot-chain/ballot_chain/internal/middleware"
	"github.com/ballot-chain/ballot_chain/internal/notification"
	"github.com/ballot-chain/ballot_chain/internal/registry"
	"github.com/ballot-chain/ballot_chain/internal/relay"
)

// Deps aggregates shared dependencies required to wire routes.
type Deps struct {
	Cfg     config.Config
	Backend chain.Backend
	Sender  relay.Sender
	ChainID *big.Int
	DB      *pgxpool.Pool
	Cache   *redis.Client
	Logger  *slog.Logger
}

// Setup configures middlewares and all application routes.
func Setup(app *fiber.App, d Deps) error {
	// Enforce DB presence outside of dev; the file registry is a dev
	// convenience, not a production store.
	if !isDev(d.Cfg.AppEnv) && d.DB == nil {
		return fmt.Errorf("database is required when APP_ENV=%s", d.Cfg.AppEnv)
	}

	// Middlewares
	app.Use(recover.New())
	app.Use(middleware.RequestID())
	// Plain text access log: [HH:MM:SS] 200 -  145ms METHOD /path
	app.Use(logger.New(logger.Config{
		Format:     "[${time}] ${status} -  ${latency} ${method} ${path}\n",
		TimeFormat: "15:04:05",
		TimeZone:   "Local",
	}))
	app.Use(middleware.Audit(d.Logger))

	// Health
	RegisterHealthRoutes(app, d)

	// Account store
	var reg registry.Registry
	if d.DB != nil {
		pg := registry.NewPostgresRegistry(d.DB)
		if err := pg.EnsureSchema(context.Background()); err != nil {
			return fmt.Errorf("ensure registry schema: %w", err)
		}
		reg = pg
	} else {
		reg = registry.NewFileRegistry(d.Cfg.RegistryPath, d.Logger)
	}
	if d.Cache != nil {
		reg = registry.NewCachedRegistry(reg, d.Cache, d.Cfg.RegistryCacheTTL, d.Logger)
	}

	// Contract bindings
	entryPoint := chain.NewEntryPoint(d.Cfg.EntryPoint, d.Backend)
	factory := chain.NewAccountFactory(d.Cfg.AccountFactory, d.Backend)
	election := chain.NewElection(d.Cfg.Election, d.Backend)
	token := chain.NewToken(d.Cfg.Token, d.Backend)
	accounts := chain.NewAccountReader(d.Backend)

	// Relay pipeline
	notifier := notification.NewLoggerNotifier(d.Logger)
	provisioner := relay.NewProvisioner(reg, factory, token, election, d.Sender, d.Logger)
	guard := relay.NewFundingGuard(entryPoint, d.Sender, d.Cfg.Paymaster,
		d.Cfg.FundingThresholdWei, d.Cfg.FundingTopUpWei, d.Logger)
	builder := relay.NewBuilder(entryPoint, relay.BuilderConfig{
		CallGasLimit:         d.Cfg.CallGasLimit,
		VerificationGasLimit: d.Cfg.VerificationGasLimit,
		PreVerificationGas:   d.Cfg.PreVerificationGas,
		MaxFeePerGas:         d.Cfg.MaxFeePerGas,
		MaxPriorityFeePerGas: d.Cfg.MaxPriorityFeePerGas,
		Paymaster:            d.Cfg.Paymaster,
		ChainID:              d.ChainID,
		InsecureNoSignature:  d.Cfg.InsecureNoSignature,
	})
	submitter := relay.NewSubmitter(entryPoint, accounts, d.Sender, d.Cfg.Paymaster,
		d.Cfg.HandleOpsGasLimit, d.Logger)
	relaySvc := relay.NewService(provisioner, guard, builder, submitter, election, token, notifier, d.Logger)
	relayHandler := relay.NewHandler(relaySvc, reg)

	// API routes
	api := app.Group("/api/v1")
	api.Get("/ping", func(c *fiber.Ctx) error {
		reqID := middleware.RequestIDFromCtx(c)
		return c.Status(http.StatusOK).JSON(fiber.Map{
			"status":     "ok",
			"request_id": reqID,
			"timestamp":  time.Now().UTC().Format(time.RFC3339Nano),
		})
	})

	RegisterRelayRoutes(api, relayHandler, d)

	return nil
}

func isDev(env string) bool {
	switch strings.ToLower(env) {
	case "dev", "development", "local":
		return true
	default:
		return false
	}
}
