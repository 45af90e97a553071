package main

import (
	"go.temporal.io/sdk/client"
	"go.temporal.io/sdk/worker"
	"go.uber.org/zap"

	"youareplan-intake/logging"
	"youareplan-intake/shared"
	"youareplan-intake/workflows"
)

func main() {
	logger, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	cfg := shared.Load()

	// HostPort defaults to localhost:7233 and Namespace to "default" when
	// the environment leaves them empty; Temporal Cloud deployments set
	// both plus TLS in ConnectionOptions.
	c, err := client.Dial(client.Options{
		HostPort:  cfg.TemporalHostPort,
		Namespace: cfg.TemporalNamespace,
		Logger:    logging.NewTemporalLogger(logger),
	})
	if err != nil {
		logger.Fatal("unable to create Temporal client", zap.Error(err))
	}
	defer c.Close()

	w := worker.New(c, shared.IntakeWorkflowTaskQueue, worker.Options{})

	w.RegisterWorkflow(workflows.Stage1Workflow)
	w.RegisterWorkflow(workflows.Stage2Workflow)
	w.RegisterWorkflow(workflows.Stage3Workflow)

	logger.Info("starting intake workflow worker", zap.String("taskQueue", shared.IntakeWorkflowTaskQueue))
	if err := w.Run(worker.InterruptCh()); err != nil {
		logger.Fatal("worker exited", zap.Error(err))
	}
}
