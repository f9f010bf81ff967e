package main

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/tbourn/go-ig-automation/internal/kv"
	"github.com/tbourn/go-ig-automation/internal/repo"
	"github.com/tbourn/go-ig-automation/internal/services"
)

func cleanupCmd() *cobra.Command {
	var at string
	cmd := &cobra.Command{
		Use:   "cleanup",
		Short: "Run one analytics cleanup sweep and print the result as JSON",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			now := time.Now().UTC()
			if at != "" {
				if now, err = time.Parse("2006-01-02", at); err != nil {
					return fmt.Errorf("--at: %w", err)
				}
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), time.Minute)
			defer cancel()
			store, err := kv.Open(ctx, cfg.RedisURL)
			if err != nil {
				return fmt.Errorf("redis: %w", err)
			}
			defer store.Close()

			m := &services.MaintenanceService{Analytics: repo.NewAnalyticsRepo(store)}
			res, err := m.Cleanup(ctx, now)
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			if encErr := enc.Encode(res); encErr != nil {
				return encErr
			}
			return err
		},
	}
	cmd.Flags().StringVar(&at, "at", "", "reference day (YYYY-MM-DD, UTC) instead of today")
	return cmd
}
