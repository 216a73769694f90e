/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/postboard/apiserver/config"
	"github.com/postboard/apiserver/internal/events"
	"github.com/spf13/cobra"
)

var eventsCmd = &cobra.Command{
	Use:   "events",
	Short: "Inspect account events",
}

var eventsWatchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Print user.signed_up events as they arrive",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.LoadConfig()
		if cfg.Events.Backend == "" {
			return errors.New("EVENTS_BACKEND is not set")
		}

		ev, err := events.Open(cmd.Context(), cfg.Events)
		if err != nil {
			return fmt.Errorf("open events: %w", err)
		}
		defer ev.Close()

		enc := json.NewEncoder(cmd.OutOrStdout())
		err = ev.WatchSignups(cmd.Context(), func(e events.UserSignedUpEvent) error {
			return enc.Encode(e)
		})
		if errors.Is(err, cmd.Context().Err()) {
			return nil
		}
		return err
	},
}

func init() {
	eventsCmd.AddCommand(eventsWatchCmd)
	rootCmd.AddCommand(eventsCmd)
}
