package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"tracker-service/internal/config"
	"tracker-service/internal/infrastructure/kafka"
	"tracker-service/internal/infrastructure/smtp"
	"tracker-service/internal/logger"
	"tracker-service/internal/service"

	"go.uber.org/zap"
)

// Notifier consumes tracker events and emails moderators about bans
type Notifier struct {
	cfg    *config.Config
	logger *zap.Logger
}

// NewNotifier creates a new notifier instance
func NewNotifier() (*Notifier, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if !cfg.Kafka.Enabled {
		return nil, fmt.Errorf("kafka must be enabled to run the notifier")
	}

	log, err := logger.New(cfg.Logging, "tracker-notifier")
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}

	return &Notifier{
		cfg:    cfg,
		logger: log,
	}, nil
}

// Run starts the consumer and blocks until SIGINT or SIGTERM
func (n *Notifier) Run() error {
	defer n.logger.Sync()

	mailer, err := smtp.NewClient(&n.cfg.SMTP)
	if err != nil {
		return fmt.Errorf("failed to initialize SMTP client: %w", err)
	}

	alerts := service.NewAlertService(mailer, n.cfg.Alerts.Recipients, n.logger.Named("alerts"))
	consumer := kafka.NewConsumer(&n.cfg.Kafka, alerts, n.logger.Named("kafka"))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	consumerErrChan := make(chan error, 1)
	go func() {
		if err := consumer.Start(ctx); err != nil {
			consumerErrChan <- err
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	n.logger.Info("Notifier started",
		zap.String("topic", n.cfg.Kafka.Topic),
		zap.Int("recipients", len(n.cfg.Alerts.Recipients)),
	)

	select {
	case err := <-consumerErrChan:
		n.logger.Error("Kafka consumer error", zap.Error(err))
		return err
	case sig := <-sigChan:
		n.logger.Info("Received signal", zap.String("signal", sig.String()))
		cancel()

		if err := consumer.Close(); err != nil {
			n.logger.Error("Error closing Kafka consumer", zap.Error(err))
		}
	}

	n.logger.Info("Notifier stopped")
	return nil
}
