package cmd

import (
	"log"
	"os"
	"os/signal"
	"syscall"

	"transfer-manager/core/loader"
	"transfer-manager/core/logger"
	"transfer-manager/core/middleware/auth"
	"transfer-manager/core/middleware/rayid"

	"transfer-manager/feature/integrity"
	"transfer-manager/feature/transfer"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const metricsPath = "/metrics"

// startCmd represents the start command
var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the transfer manager server",
	Long:  `Starts the HTTP server and initializes all enabled features.`,
	Run: func(cmd *cobra.Command, args []string) {
		// 1. Configuration, logger, storage and optional ledger
		rt, err := newSession()
		if err != nil {
			log.Fatalf("Failed to initialize: %v", err)
		}
		logg := rt.logger
		defer logg.Sync()
		zap.ReplaceGlobals(logg)

		// 2. Initialize Fiber App
		app := fiber.New(fiber.Config{
			DisableStartupMessage: true, // We will log our own startup message
			BodyLimit:             rt.cfg.Server.BodyLimit(),
		})

		// 3. Initialize Feature Loader
		mgr := loader.NewManager()
		mgr.Register(transfer.NewFeature(rt.client, rt.cfg.Transfer, logg, rt.ledger))
		mgr.Register(integrity.NewFeature(rt.client, rt.cfg.Storage.Bucket, rt.ledger, logg, rt.cfg.Transfer.ChunkSize))

		// Middleware Registration
		// 1. RayID (Must be first to trace everything)
		app.Use(rayid.New())

		// 2. Logging Middleware (Zap + RayID)
		app.Use(func(c *fiber.Ctx) error {
			l := logger.WithRayID(logg, c)
			l.Info("Request started",
				zap.String("method", c.Method()),
				zap.String("path", c.Path()),
				zap.String("ip", c.IP()),
			)
			err := c.Next()
			if err != nil {
				l.Error("Request error", zap.Error(err))
			}
			return err
		})

		// 3. Auth (Protect API, metrics stay scrapeable)
		app.Use(auth.New(auth.Config{ApiKey: rt.cfg.Server.ApiKey, Skip: []string{metricsPath}}))

		// 4. Prometheus metrics
		app.Get(metricsPath, adaptor.HTTPHandler(promhttp.Handler()))

		// 5. Load Features
		loaded, err := mgr.LoadAll(app)
		if err != nil {
			logg.Fatal("Failed to load features", zap.Error(err))
		}
		logg.Info("Features loaded", zap.Strings("features", loaded))

		// 6. Start Server
		go func() {
			logg.Info("Starting server",
				zap.String("port", rt.cfg.Server.Port),
				zap.String("storage", rt.cfg.Storage.Driver),
				zap.Bool("ledger", rt.ledger != nil),
			)
			if err := app.Listen(rt.cfg.Server.Address()); err != nil {
				logg.Fatal("Server failed to start", zap.Error(err))
			}
		}()

		// 7. Graceful Shutdown
		c := make(chan os.Signal, 1)
		signal.Notify(c, os.Interrupt, syscall.SIGTERM)
		<-c
		logg.Info("Shutting down server...")
		_ = app.Shutdown()
	},
}

func init() {
	RootCmd.AddCommand(startCmd)
}
