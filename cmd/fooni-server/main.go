package main

import (
	"flag"
	"net/http"

	"fooni-backend/lib/kvstore"
	"fooni-backend/lib/util/configutil"
	"fooni-backend/lib/util/serviceutil"
	"fooni-backend/services/api"

	"github.com/joho/godotenv"
)

type RedisConfig struct {
	Url string `json:"url"`
}

type Config struct {
	Port    int           `json:"port"`
	Redis   RedisConfig   `json:"redis"`
	Shop    ShopConfig    `json:"shop"`
	Media   MediaConfig   `json:"media"`
	Scraper ScraperConfig `json:"scraper"`
}

func main() {
	verbose := flag.Bool("v", false, "Enable verbose logging/instrumentation.")
	flag.Parse()

	ctx := serviceutil.SignalContext()

	InitTelemetry(ctx, *verbose)

	// secrets may come in through the environment instead of config.json5
	godotenv.Load()

	cfg, err := configutil.ReadConfig[Config]("config.json5")
	if err != nil {
		serviceutil.Fatal("read config", err)
	}
	if cfg.Port == 0 {
		cfg.Port = 8000
	}
	if cfg.Redis.Url == "" {
		cfg.Redis.Url = "redis://localhost:6379/0"
	}

	store, err := kvstore.NewRedisStore(ctx, cfg.Redis.Url)
	if err != nil {
		serviceutil.Fatal("connect redis", err)
	}

	scraper := InitScraper(store, cfg)
	err = InitScraperDaemon(ctx, scraper, cfg.Scraper)
	if err != nil {
		serviceutil.Fatal("init scraper daemon", err)
	}

	mux := http.NewServeMux()
	mux.Handle("/", api.NewService(store, scraper).Routes())

	go serviceutil.StartHttpServer(cfg.Port, mux)
	<-ctx.Done()
}
