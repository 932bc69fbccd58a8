// Package scraperd coordinates the scheduled scrape runs: it resolves
// backend sessions through the cache, drives the stats and video
// sub-pipelines and writes the derived artifacts back to the store.
package scraperd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"fooni-backend/lib/chrono"
	"fooni-backend/lib/kvstore"
	"fooni-backend/lib/telemetry"
	"fooni-backend/services/reservationstats"
	"fooni-backend/services/videolist"

	"go.opentelemetry.io/otel/codes"
)

var tracer = telemetry.Tracer("services/scraperd")

const (
	KeyShopSession      = "session_id:shop"
	KeyMediaSession     = "session_id:media"
	KeyReservationStats = "reservation_stats"
	KeyLatestVideo      = "latest_video"
)

const DefaultSessionTtl = time.Second * 600

// ShopAuthenticator is the slice of the shop client the coordinator
// needs for session acquisition.
type ShopAuthenticator interface {
	AcquireSession(ctx context.Context, email, password string) (string, error)
}

// MediaAuthenticator is the slice of the media client the coordinator
// needs for session acquisition and listing setup.
type MediaAuthenticator interface {
	AcquireSession(ctx context.Context, loginToken string) (string, error)
	SetFilter(ctx context.Context, session, name, value string) error
}

type StatsAggregator interface {
	Aggregate(ctx context.Context, session string) (reservationstats.Stats, error)
}

type VideoLister interface {
	ListVideos(ctx context.Context, session string) ([]videolist.VideoEntry, error)
}

type Options struct {
	ShopEmail       string
	ShopPassword    string
	MediaLoginToken string
	// SessionTtl bounds how long acquired session tokens are reused,
	// defaults to DefaultSessionTtl.
	SessionTtl time.Duration
	// Filters are applied server-side before every listing fetch.
	Filters map[string]string
}

type Service struct {
	store         kvstore.Store
	media         MediaAuthenticator
	stats         StatsAggregator
	videos        VideoLister
	shopSessions  sessionCache
	mediaSessions sessionCache
	config        Options
}

func NewService(
	store kvstore.Store,
	shop ShopAuthenticator,
	media MediaAuthenticator,
	stats StatsAggregator,
	videos VideoLister,
	options Options,
) Service {
	if options.SessionTtl == 0 {
		options.SessionTtl = DefaultSessionTtl
	}
	return Service{
		store:  store,
		media:  media,
		stats:  stats,
		videos: videos,
		shopSessions: newSessionCache(
			store, KeyShopSession, options.SessionTtl,
			func(ctx context.Context) (string, error) {
				return shop.AcquireSession(ctx, options.ShopEmail, options.ShopPassword)
			},
		),
		mediaSessions: newSessionCache(
			store, KeyMediaSession, options.SessionTtl,
			func(ctx context.Context) (string, error) {
				return media.AcquireSession(ctx, options.MediaLoginToken)
			},
		),
		config: options,
	}
}

// RunOnce executes one full scrape. The two sub-pipelines hit
// independent backends and run concurrently; each writes its artifact
// key only after it fully succeeds, so a failed pipeline leaves the
// previous artifact authoritative.
func (s Service) RunOnce(ctx context.Context) error {
	ctx, span := tracer.Start(ctx, "service:RunOnce")
	defer span.End()

	var wg sync.WaitGroup
	var statsErr, videoErr error

	wg.Add(2)
	go func() {
		defer wg.Done()
		statsErr = s.runStats(ctx)
	}()
	go func() {
		defer wg.Done()
		videoErr = s.runVideos(ctx)
	}()
	wg.Wait()

	err := errors.Join(statsErr, videoErr)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
	}
	return err
}

func (s Service) runStats(ctx context.Context) error {
	session, err := s.shopSessions.Get(ctx)
	if err != nil {
		return fmt.Errorf("shop session: %w", err)
	}

	stats, err := s.stats.Aggregate(ctx, session)
	if err != nil {
		return fmt.Errorf("aggregate stats: %w", err)
	}

	encoded, err := json.Marshal(stats)
	if err != nil {
		return fmt.Errorf("encode stats: %w", err)
	}
	err = s.store.Put(ctx, KeyReservationStats, string(encoded), 0)
	if err != nil {
		return fmt.Errorf("write stats: %w", err)
	}

	slog.InfoContext(ctx, "reservation stats updated",
		"total_time", stats.TotalTime,
		"coaches", len(stats.Coaches),
	)
	return nil
}

func (s Service) runVideos(ctx context.Context) error {
	session, err := s.mediaSessions.Get(ctx)
	if err != nil {
		return fmt.Errorf("media session: %w", err)
	}

	// deterministic filter application order
	names := make([]string, 0, len(s.config.Filters))
	for name := range s.config.Filters {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		err := s.media.SetFilter(ctx, session, name, s.config.Filters[name])
		if err != nil {
			return fmt.Errorf("set filter %q: %w", name, err)
		}
	}

	videos, err := s.videos.ListVideos(ctx, session)
	if err != nil {
		return fmt.Errorf("list videos: %w", err)
	}

	encoded, err := json.Marshal(videos)
	if err != nil {
		return fmt.Errorf("encode videos: %w", err)
	}
	err = s.store.Put(ctx, KeyLatestVideo, string(encoded), 0)
	if err != nil {
		return fmt.Errorf("write videos: %w", err)
	}

	slog.InfoContext(ctx, "video list updated", "videos", len(videos))
	return nil
}

// StartDaemon schedules RunOnce on the given cron expression. Run
// failures are logged and absorbed, the previous artifacts keep serving
// until a later run succeeds.
func (s Service) StartDaemon(ctx context.Context, cronner chrono.CronAPI, spec string) error {
	return cronner.Cron(spec, func() {
		runCtx, cancel := context.WithTimeout(ctx, time.Minute*10)
		defer cancel()

		err := s.RunOnce(runCtx)
		if err != nil {
			slog.ErrorContext(runCtx, "scheduled scrape failed", "err", err)
		}
	})
}
