package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/nats-io/nats.go"
	"github.com/spf13/cobra"

	"github.com/winforge/fived-engine/pkg/common/logger"
	"github.com/winforge/fived-engine/pkg/events"
	"github.com/winforge/fived-engine/pkg/infra"
)

// tail subscribes to the result subject and prints settlement events as
// downstream consumers would see them.
func newTailCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "tail",
		Short: "Print result events from NATS",
		Run: func(cmd *cobra.Command, args []string) {
			cfg := loadConfig()

			nc, err := infra.GetNATSConnection(cfg.NATS.URL)
			if err != nil {
				logger.Fatal("Failed to connect to NATS", "err", err)
			}
			defer nc.Close()

			subject := cfg.NATS.SubjectPrefix + "." + events.ResultSubjectSuffix
			sub, err := nc.Subscribe(subject, func(msg *nats.Msg) {
				logger.Info("Result event", "subject", msg.Subject, "data", string(msg.Data))
			})
			if err != nil {
				logger.Fatal("Subscribe failed", "subject", subject, "err", err)
			}
			defer sub.Unsubscribe() //nolint:errcheck

			logger.Info("Tailing result events. Press Ctrl+C to stop.", "subject", subject)
			c := make(chan os.Signal, 1)
			signal.Notify(c, os.Interrupt, syscall.SIGTERM)
			<-c
		},
	}
}
