package commands

import (
	"fmt"
	"log/slog"

	"fooni-backend/lib/scrapers/shop"
	"fooni-backend/lib/util/configutil"
	"fooni-backend/lib/util/serviceutil"
	"fooni-backend/services/reservationstats"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(statsCmd)
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Logs into the booking backend and prints the coach leaderboard.",
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()

		cfg, err := configutil.ReadConfig[Config]("config.json5")
		if err != nil {
			serviceutil.Fatal("read config", err)
		}
		cfg = cfg.withEnvSecrets()

		client := shop.NewClient(shop.ClientOptions{
			BaseUrl:    cfg.Shop.BaseUrl,
			CookieName: cfg.Shop.CookieName,
		})

		slog.Info("logging in", "email", cfg.Shop.Email)
		session, err := client.AcquireSession(ctx, cfg.Shop.Email, cfg.Shop.Password)
		if err != nil {
			serviceutil.Fatal("acquire shop session", err)
		}

		service := reservationstats.NewService(client, reservationstats.Options{
			Roster: reservationstats.DefaultRoster(),
			Format: reservationstats.DurationFormat(cfg.Shop.DurationFormat),
		})
		stats, err := service.Aggregate(ctx, session)
		if err != nil {
			serviceutil.Fatal("aggregate reservation stats", err)
		}

		t := newTable()
		t.AppendHeader(table.Row{"Coach", "Instagram", "Minutes"})
		for _, coach := range stats.Coaches {
			t.AppendRow(table.Row{coach.Name, coach.Instagram, coach.Minutes})
		}
		t.AppendFooter(table.Row{"Total", "", fmt.Sprintf("%.1f", stats.TotalTime)})
		t.Render()
	},
}
