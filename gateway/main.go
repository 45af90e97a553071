package main

import (
	"go.temporal.io/sdk/client"
	"go.uber.org/zap"

	"youareplan-intake/logging"
	"youareplan-intake/shared"
)

func main() {
	logger, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	cfg := shared.Load()

	c, err := client.Dial(client.Options{
		HostPort:  cfg.TemporalHostPort,
		Namespace: cfg.TemporalNamespace,
		Logger:    logging.NewTemporalLogger(logger),
	})
	if err != nil {
		logger.Fatal("unable to create Temporal client", zap.Error(err))
	}
	defer c.Close()

	srv := NewServer(c, cfg, logger.Sugar())

	logger.Info("starting intake gateway",
		zap.String("addr", cfg.GatewayAddr),
		zap.String("environment", cfg.Environment),
		zap.Bool("operatorMode", cfg.OperatorModeEnabled()),
	)
	if err := srv.Routes().Run(cfg.GatewayAddr); err != nil {
		logger.Fatal("gateway exited", zap.Error(err))
	}
}
