package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"fooni-backend/lib/kvstore"
	"fooni-backend/lib/telemetry"
	"fooni-backend/services/scraperd"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	cleanup := telemetry.SetupForTesting("test:services/api")
	defer cleanup()
	m.Run()
}

type fakeRunner struct {
	calls int
	err   error
}

func (f *fakeRunner) RunOnce(ctx context.Context) error {
	f.calls++
	return f.err
}

func setup(t *testing.T) (kvstore.RedisStore, *fakeRunner, *httptest.Server) {
	mr := miniredis.RunT(t)
	store := kvstore.NewRedisStoreFromClient(redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
	}))
	runner := &fakeRunner{}
	ts := httptest.NewServer(NewService(store, runner).Routes())
	t.Cleanup(ts.Close)
	return store, runner, ts
}

const statsArtifact = `{"totalTime":247.5,"coaches":[{"id":"A","name":"A","minutes":15}]}`
const videoArtifact = `[{"title":"Fooni_X_Bottom_1_2023-05-01_14-30-00","date":"2023-05-01T14:30:00+03:00","downloadUrl":"https://cdn.example.com/player.php?site_id=fooni&media_token=tok","posterUrl":"https://cdn.example.com/p.jpg?media_token=tok"}]`

func TestRead(t *testing.T) {
	store, _, ts := setup(t)
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, scraperd.KeyReservationStats, statsArtifact, 0))
	require.NoError(t, store.Put(ctx, scraperd.KeyLatestVideo, videoArtifact, 0))

	res, err := http.Get(ts.URL + "/")
	require.NoError(t, err)
	defer res.Body.Close()

	require.Equal(t, http.StatusOK, res.StatusCode)
	require.Equal(t, "*", res.Header.Get("Access-Control-Allow-Origin"))
	require.Equal(t, "GET", res.Header.Get("Access-Control-Allow-Methods"))

	var payload struct {
		LatestVideo      map[string]any  `json:"latestVideo"`
		ReservationStats json.RawMessage `json:"reservationStats"`
	}
	require.NoError(t, json.NewDecoder(res.Body).Decode(&payload))
	require.Equal(t, "Fooni_X_Bottom_1_2023-05-01_14-30-00", payload.LatestVideo["title"])
	require.JSONEq(t, statsArtifact, string(payload.ReservationStats))
}

func TestReadEmptyVideoListIsNull(t *testing.T) {
	store, _, ts := setup(t)
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, scraperd.KeyReservationStats, statsArtifact, 0))
	require.NoError(t, store.Put(ctx, scraperd.KeyLatestVideo, `[]`, 0))

	res, err := http.Get(ts.URL + "/")
	require.NoError(t, err)
	defer res.Body.Close()

	var payload map[string]json.RawMessage
	require.NoError(t, json.NewDecoder(res.Body).Decode(&payload))
	require.Equal(t, "null", string(payload["latestVideo"]))
}

func TestReadMissingArtifactIsHardFailure(t *testing.T) {
	store, _, ts := setup(t)
	ctx := context.Background()

	// stats present, videos absent: still a 500, no default payload
	require.NoError(t, store.Put(ctx, scraperd.KeyReservationStats, statsArtifact, 0))

	res, err := http.Get(ts.URL + "/")
	require.NoError(t, err)
	defer res.Body.Close()
	require.Equal(t, http.StatusInternalServerError, res.StatusCode)
}

func TestTrigger(t *testing.T) {
	_, runner, ts := setup(t)

	res, err := http.Post(ts.URL+"/trigger", "", nil)
	require.NoError(t, err)
	defer res.Body.Close()

	require.Equal(t, http.StatusNoContent, res.StatusCode)
	require.Equal(t, 1, runner.calls)
}

func TestTriggerFailure(t *testing.T) {
	_, runner, ts := setup(t)
	runner.err = errors.New("shop: invalid credentials")

	res, err := http.Post(ts.URL+"/trigger", "", nil)
	require.NoError(t, err)
	defer res.Body.Close()

	require.Equal(t, http.StatusBadGateway, res.StatusCode)
}
