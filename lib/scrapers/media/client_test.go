package media

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"fooni-backend/lib/telemetry"

	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	cleanup := telemetry.SetupForTesting("test:scrapers/media")
	defer cleanup()
	m.Run()
}

func TestAcquireSession(t *testing.T) {
	var loginQuery url.Values
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		loginQuery = r.URL.Query()
		http.SetCookie(w, &http.Cookie{Name: "Tunn3lMedia", Value: "media-sess"})
	}))
	defer ts.Close()

	client := NewClient(ClientOptions{BaseUrl: ts.URL})

	session, err := client.AcquireSession(context.Background(), "token-123")
	require.NoError(t, err)
	require.Equal(t, "media-sess", session)
	require.Equal(t, "api", loginQuery.Get("ctrl"))
	require.Equal(t, "proflyer_login", loginQuery.Get("do"))
	require.Equal(t, "token-123", loginQuery.Get("login_token"))
}

func TestAcquireSessionNoCookie(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	defer ts.Close()

	client := NewClient(ClientOptions{BaseUrl: ts.URL})

	_, err := client.AcquireSession(context.Background(), "token-123")
	require.ErrorIs(t, err, ErrAuthProtocol)
}

func TestSetFilter(t *testing.T) {
	var query url.Values
	var cookie string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		query = r.URL.Query()
		cookie = r.Header.Get("Cookie")
	}))
	defer ts.Close()

	client := NewClient(ClientOptions{BaseUrl: ts.URL})

	err := client.SetFilter(context.Background(), "media-sess", "period", "last_week")
	require.NoError(t, err)
	require.Equal(t, "set_filter", query.Get("do"))
	require.Equal(t, "proflyer", query.Get("namespace"))
	require.Equal(t, "period", query.Get("filter_name"))
	require.Equal(t, "last_week", query.Get("filter_value"))
	require.Equal(t, "Tunn3lMedia=media-sess", cookie)
}

func TestFetchListing(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/proflyer", r.URL.Path)
		require.Equal(t, "Tunn3lMedia=media-sess", r.Header.Get("Cookie"))
		w.Write([]byte("<html></html>"))
	}))
	defer ts.Close()

	client := NewClient(ClientOptions{BaseUrl: ts.URL})

	body, err := client.FetchListing(context.Background(), "media-sess")
	require.NoError(t, err)
	require.Equal(t, "<html></html>", string(body))
}

const listingPage = `
<html><body>
<div class="media_wrapper">
  <div class="media_container_responsive">
    <img src="https://cdn1.example.com/poster1.jpg?media_token=tok-1">
  </div>
  <div class="media_container_responsive_title">
    Fooni_Jump_Bottom_12_2023-05-01_14-30-00
  </div>
</div>
<div class="media_wrapper">
  <div class="media_container_responsive">
    <img src="https://cdn2.example.com/poster2.jpg?media_token=tok-2">
  </div>
  <div class="media_container_responsive_title">Some unrelated clip</div>
</div>
<div class="media_wrapper">
  <div class="media_container_responsive">
    <img src="https://cdn3.example.com/poster3.jpg?media_token=tok-3">
  </div>
</div>
</body></html>`

func TestExtractEntries(t *testing.T) {
	entries, err := GoqueryExtractor{}.ExtractEntries([]byte(listingPage))
	require.NoError(t, err)
	require.Len(t, entries, 3)

	require.Equal(t, "Fooni_Jump_Bottom_12_2023-05-01_14-30-00", entries[0].Title)
	require.Equal(t, "https://cdn1.example.com/poster1.jpg?media_token=tok-1", entries[0].PosterUrl)

	require.Equal(t, "Some unrelated clip", entries[1].Title)

	// title element missing entirely, the entry still surfaces raw and
	// gets dropped downstream
	require.Equal(t, "", entries[2].Title)
	require.Equal(t, "https://cdn3.example.com/poster3.jpg?media_token=tok-3", entries[2].PosterUrl)
}
