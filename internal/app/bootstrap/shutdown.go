// internal/app/bootstrap/shutdown.go
package bootstrap

import (
	"context"

	"github.com/dalemusser/waffle/config"
	"go.uber.org/zap"
)

// Shutdown stops background workers and disconnects MongoDB.
func Shutdown(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	rtMu.Lock()
	r := rt
	rt = nil
	rtMu.Unlock()

	if r != nil {
		r.sweeper.Stop()
		r.reconciler.Stop()
	}

	if deps.GreenReachMongoClient != nil {
		logger.Info("disconnecting GreenReach MongoDB client")
		if err := deps.GreenReachMongoClient.Disconnect(ctx); err != nil {
			logger.Error("MongoDB disconnect failed", zap.Error(err))
			return err
		}
	}
	return nil
}
