package cmd

import (
	"fmt"

	"transfer-manager/core/config"
	"transfer-manager/core/database"
	"transfer-manager/core/logger"
	"transfer-manager/core/storage"
	"transfer-manager/feature/transfer"
	"transfer-manager/feature/transfer/ledger"

	"go.uber.org/zap"
)

// session bundles what every command needs.
type session struct {
	cfg    *config.Config
	logger *zap.Logger
	client storage.Client
	ledger *ledger.Ledger
}

// newSession loads configuration, builds the logger and storage client and
// opens the ledger. The database is optional; a failed connection only warns.
func newSession() (*session, error) {
	cfg, err := config.LoadConfig(".")
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	logg, err := logger.New(&cfg.Log)
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}

	client, err := storage.NewClient(cfg.Storage)
	if err != nil {
		return nil, fmt.Errorf("failed to create storage client: %w", err)
	}

	rt := &session{cfg: cfg, logger: logg, client: client}

	if db, err := database.Connect(cfg.Database); err != nil {
		logg.Warn("Optional database connection failed, transfers will not be recorded", zap.Error(err))
	} else if rt.ledger, err = ledger.Setup(db); err != nil {
		logg.Warn("Transfer ledger disabled", zap.Error(err))
	} else {
		logg.Debug("Connected to ledger database", zap.String("driver", cfg.Database.Driver))
	}

	return rt, nil
}

func (rt *session) transferService() *transfer.Service {
	return transfer.NewFeatureService(rt.client, rt.cfg.Transfer, rt.logger, rt.ledger)
}

// bucketArg returns args[i], or the configured default bucket when absent.
func (rt *session) bucketArg(args []string, i int) string {
	if len(args) > i && args[i] != "" {
		return args[i]
	}
	return rt.cfg.Storage.Bucket
}
