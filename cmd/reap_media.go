/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/studynotion/apiserver/internal/server"
	"github.com/studynotion/apiserver/internal/services"
	"github.com/studynotion/apiserver/internal/storage"
)

var reapLimit int

// reapMediaCmd retries deletion of media left behind by failed cleanups.
var reapMediaCmd = &cobra.Command{
	Use:   "reap-media",
	Short: "Delete orphaned course media",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, log, err := setup()
		if err != nil {
			return err
		}
		defer log.Sync()

		st, closeStore, err := server.OpenStore(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		defer closeStore()

		media, err := storage.Open(cmd.Context(), cfg.Storage)
		if err != nil {
			return fmt.Errorf("open media storage: %w", err)
		}

		result, err := services.NewMediaReaper(st, media, log).Reap(cmd.Context(), reapLimit)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "attempted=%d deleted=%d failed=%d dropped=%d\n", result.Attempted, result.Deleted, result.Failed, result.Dropped)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(reapMediaCmd)
	reapMediaCmd.Flags().IntVar(&reapLimit, "limit", 100, "maximum number of assets to retry")
}
