package commands

import (
	"log/slog"
	"sort"
	"time"

	"fooni-backend/lib/scrapers/media"
	"fooni-backend/lib/util/configutil"
	"fooni-backend/lib/util/serviceutil"
	"fooni-backend/services/videolist"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(videosCmd)
}

var videosCmd = &cobra.Command{
	Use:   "videos",
	Short: "Logs into the media backend and prints the scraped video listing.",
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()

		cfg, err := configutil.ReadConfig[Config]("config.json5")
		if err != nil {
			serviceutil.Fatal("read config", err)
		}
		cfg = cfg.withEnvSecrets()

		client := media.NewClient(media.ClientOptions{
			BaseUrl:    cfg.Media.BaseUrl,
			CookieName: cfg.Media.CookieName,
		})

		session, err := client.AcquireSession(ctx, cfg.Media.LoginToken)
		if err != nil {
			serviceutil.Fatal("acquire media session", err)
		}

		names := make([]string, 0, len(cfg.Media.Filters))
		for name := range cfg.Media.Filters {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			err := client.SetFilter(ctx, session, name, cfg.Media.Filters[name])
			if err != nil {
				serviceutil.Fatal("set listing filter", err)
			}
		}

		service := videolist.NewService(client, media.GoqueryExtractor{}, videolist.Options{
			SiteId: cfg.Media.SiteId,
		})
		videos, err := service.ListVideos(ctx, session)
		if err != nil {
			serviceutil.Fatal("list videos", err)
		}
		slog.Info("scraped listing", "videos", len(videos))

		t := newTable()
		t.AppendHeader(table.Row{"Date", "Title", "Download"})
		for _, video := range videos {
			t.AppendRow(table.Row{
				video.Date.Format(time.DateTime),
				video.Title,
				video.DownloadUrl,
			})
		}
		t.Render()
	},
}
