// Package api is the outward-facing surface: one CORS-open JSON read
// endpoint assembling the latest cached artifacts, plus a manual run
// trigger. It never recomputes anything itself, the cache is the only
// source it reads.
package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"fooni-backend/lib/kvstore"
	"fooni-backend/lib/telemetry"
	"fooni-backend/services/scraperd"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel/codes"
)

var tracer = telemetry.Tracer("services/api")

// Runner is the slice of the coordinator the trigger endpoint needs.
type Runner interface {
	RunOnce(ctx context.Context) error
}

type Service struct {
	store  kvstore.Store
	runner Runner
}

func NewService(store kvstore.Store, runner Runner) Service {
	return Service{
		store:  store,
		runner: runner,
	}
}

func (s Service) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(corsOpen)
	r.Get("/", s.handleRead)
	r.Post("/trigger", s.handleTrigger)
	return r
}

// the consuming page is a static site on another origin, anyone may read
func corsOpen(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET")
		next.ServeHTTP(w, r)
	})
}

type readResponse struct {
	LatestVideo      json.RawMessage `json:"latestVideo"`
	ReservationStats json.RawMessage `json:"reservationStats"`
}

// handleRead assembles the two cached artifacts. A missing key is a hard
// failure on purpose: before the first successful run there is nothing
// truthful to serve, and an empty default would read as "no coaching
// happened".
func (s Service) handleRead(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracer.Start(r.Context(), "handleRead")
	defer span.End()

	rawVideos, err := s.store.Get(ctx, scraperd.KeyLatestVideo)
	if err != nil {
		span.SetStatus(codes.Error, "cannot find videos")
		slog.ErrorContext(ctx, "cannot find videos", "err", err)
		http.Error(w, "cannot find videos", http.StatusInternalServerError)
		return
	}
	rawStats, err := s.store.Get(ctx, scraperd.KeyReservationStats)
	if err != nil {
		span.SetStatus(codes.Error, "cannot find reservation stats")
		slog.ErrorContext(ctx, "cannot find reservation stats", "err", err)
		http.Error(w, "cannot find reservation stats", http.StatusInternalServerError)
		return
	}

	var videos []json.RawMessage
	err = json.Unmarshal([]byte(rawVideos), &videos)
	if err != nil {
		span.SetStatus(codes.Error, "corrupt video artifact")
		slog.ErrorContext(ctx, "corrupt video artifact", "err", err)
		http.Error(w, "corrupt video artifact", http.StatusInternalServerError)
		return
	}

	response := readResponse{
		ReservationStats: json.RawMessage(rawStats),
	}
	if len(videos) > 0 {
		response.LatestVideo = videos[0]
	}

	w.Header().Set("Content-Type", "application/json")
	err = json.NewEncoder(w).Encode(response)
	if err != nil {
		slog.ErrorContext(ctx, "encode response", "err", err)
	}
}

func (s Service) handleTrigger(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracer.Start(r.Context(), "handleTrigger")
	defer span.End()

	err := s.runner.RunOnce(ctx)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		slog.ErrorContext(ctx, "manual run failed", "err", err)
		http.Error(w, err.Error(), http.StatusBadGateway)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
