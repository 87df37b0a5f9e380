/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/studynotion/apiserver/internal/mail"
	"github.com/studynotion/apiserver/internal/mq"
)

// mailerCmd delivers queued mail over SMTP.
var mailerCmd = &cobra.Command{
	Use:   "mailer",
	Short: "Deliver queued mail over SMTP",
	Long: `Consumes the outbound mail queue written by the API server when
MAIL_BACKEND=queue and delivers each message over SMTP.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, log, err := setup()
		if err != nil {
			return err
		}
		defer log.Sync()

		backend, err := mq.Open(cmd.Context(), cfg.MQ)
		if err != nil {
			return fmt.Errorf("open message queue: %w", err)
		}
		defer backend.Close()

		worker := mail.NewWorker(backend, cfg.Mail.Queue, mail.NewSMTPSender(cfg.Mail), log)
		if err := worker.Run(cmd.Context()); err != nil && cmd.Context().Err() == nil {
			return err
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(mailerCmd)
}
