package main

import (
	"context"
	"os"
	"time"

	"fooni-backend/lib/chrono"
	"fooni-backend/lib/kvstore"
	"fooni-backend/lib/scrapers/media"
	"fooni-backend/lib/scrapers/shop"
	"fooni-backend/services/reservationstats"
	"fooni-backend/services/scraperd"
	"fooni-backend/services/videolist"
)

type ShopConfig struct {
	BaseUrl    string `json:"base_url"`
	CookieName string `json:"cookie_name"`
	// Email and Password fall back to SHOP_EMAIL/SHOP_PASSWORD when
	// empty, so credentials can stay out of config.json5.
	Email    string `json:"email"`
	Password string `json:"password"`
	// DurationFormat selects the origin_minutes grammar, see
	// reservationstats.DurationFormat.
	DurationFormat string                   `json:"duration_format"`
	Roster         *reservationstats.Roster `json:"roster"`
}

type MediaConfig struct {
	BaseUrl    string `json:"base_url"`
	CookieName string `json:"cookie_name"`
	// LoginToken falls back to MEDIA_LOGIN_TOKEN when empty.
	LoginToken string            `json:"login_token"`
	SiteId     string            `json:"site_id"`
	Filters    map[string]string `json:"filters"`
}

type ScraperConfig struct {
	Cron              string `json:"cron"`
	SessionTtlSeconds int    `json:"session_ttl_seconds"`
}

func InitScraper(store kvstore.Store, cfg Config) scraperd.Service {
	if cfg.Shop.Email == "" {
		cfg.Shop.Email = os.Getenv("SHOP_EMAIL")
	}
	if cfg.Shop.Password == "" {
		cfg.Shop.Password = os.Getenv("SHOP_PASSWORD")
	}
	if cfg.Media.LoginToken == "" {
		cfg.Media.LoginToken = os.Getenv("MEDIA_LOGIN_TOKEN")
	}

	roster := reservationstats.DefaultRoster()
	if cfg.Shop.Roster != nil {
		roster = *cfg.Shop.Roster
	}

	shopClient := shop.NewClient(shop.ClientOptions{
		BaseUrl:    cfg.Shop.BaseUrl,
		CookieName: cfg.Shop.CookieName,
	})
	mediaClient := media.NewClient(media.ClientOptions{
		BaseUrl:    cfg.Media.BaseUrl,
		CookieName: cfg.Media.CookieName,
	})

	stats := reservationstats.NewService(shopClient, reservationstats.Options{
		Roster: roster,
		Format: reservationstats.DurationFormat(cfg.Shop.DurationFormat),
	})
	videos := videolist.NewService(mediaClient, media.GoqueryExtractor{}, videolist.Options{
		SiteId: cfg.Media.SiteId,
	})

	return scraperd.NewService(store, shopClient, mediaClient, stats, videos, scraperd.Options{
		ShopEmail:       cfg.Shop.Email,
		ShopPassword:    cfg.Shop.Password,
		MediaLoginToken: cfg.Media.LoginToken,
		SessionTtl:      time.Second * time.Duration(cfg.Scraper.SessionTtlSeconds),
		Filters:         cfg.Media.Filters,
	})
}

func InitScraperDaemon(ctx context.Context, scraper scraperd.Service, cfg ScraperConfig) error {
	if cfg.Cron == "" {
		cfg.Cron = "@hourly"
	}
	return scraper.StartDaemon(ctx, chrono.NewStandardCron(), cfg.Cron)
}
