package main

import (
	"go.temporal.io/sdk/client"
	"go.temporal.io/sdk/worker"
	"go.uber.org/zap"

	"youareplan-intake/activities"
	"youareplan-intake/logging"
	"youareplan-intake/shared"
	"youareplan-intake/transport"
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

	// MaxConcurrentActivityExecutionSize is worth tuning down here if the
	// spreadsheet sinks start rate limiting; they are the slowest part of
	// the funnel by far.
	w := worker.New(c, shared.ActivityTaskQueue, worker.Options{})

	a := &activities.Activities{
		Config:    cfg,
		Transport: transport.NewClient(),
	}
	w.RegisterActivity(a)

	logger.Info("starting intake activity worker",
		zap.String("taskQueue", shared.ActivityTaskQueue),
		zap.String("environment", cfg.Environment),
	)
	if err := w.Run(worker.InterruptCh()); err != nil {
		logger.Fatal("worker exited", zap.Error(err))
	}
}
