package videolist

import (
	"context"
	"fmt"
	"net/url"
	"regexp"
	"strconv"
	"time"

	"fooni-backend/lib/scrapers/media"
	"fooni-backend/lib/telemetry"
	"fooni-backend/lib/timezone"

	"go.opentelemetry.io/otel/codes"
)

var tracer = telemetry.Tracer("services/videolist")

// VideoEntry is one normalized recording reference, the latest_video
// artifact is a list of these. No identity beyond position in the
// listing.
type VideoEntry struct {
	Title       string    `json:"title"`
	Date        time.Time `json:"date"`
	DownloadUrl string    `json:"downloadUrl"`
	PosterUrl   string    `json:"posterUrl"`
}

// the recording pipeline names files after the tunnel, camera position
// and a wall-clock timestamp
var fileNameRegex = regexp.MustCompile(
	`^Fooni_.*_Bottom_\d*_(\d{4})-(\d\d)-(\d\d)_(\d\d)-(\d\d)-(\d\d)$`,
)

const DefaultSiteId = "fooni"

// ListingFetcher is the slice of the media client this service needs.
type ListingFetcher interface {
	FetchListing(ctx context.Context, session string) ([]byte, error)
}

type Options struct {
	// SiteId goes into the constructed player URLs, defaults to
	// DefaultSiteId.
	SiteId string
}

type Service struct {
	client    ListingFetcher
	extractor media.Extractor
	config    Options
}

func NewService(client ListingFetcher, extractor media.Extractor, options Options) Service {
	if options.SiteId == "" {
		options.SiteId = DefaultSiteId
	}
	return Service{
		client:    client,
		extractor: extractor,
		config:    options,
	}
}

// ListVideos scrapes the listing page into normalized entries, in
// document order. Entries that don't conform to the filename grammar are
// scraping noise (ads, non-flight clips, markup drift) and are dropped
// silently, they never fail the listing.
func (s Service) ListVideos(ctx context.Context, session string) ([]VideoEntry, error) {
	ctx, span := tracer.Start(ctx, "service:ListVideos")
	defer span.End()

	html, err := s.client.FetchListing(ctx, session)
	if err != nil {
		span.SetStatus(codes.Error, "failed to fetch listing")
		return nil, err
	}

	raw, err := s.extractor.ExtractEntries(html)
	if err != nil {
		span.SetStatus(codes.Error, "failed to extract entries")
		return nil, err
	}

	entries := []VideoEntry{}
	for _, entry := range raw {
		normalized, ok := s.normalize(entry)
		if !ok {
			continue
		}
		entries = append(entries, normalized)
	}

	return entries, nil
}

func (s Service) normalize(raw media.RawEntry) (VideoEntry, bool) {
	match := fileNameRegex.FindStringSubmatch(raw.Title)
	if match == nil {
		return VideoEntry{}, false
	}

	poster, err := url.Parse(raw.PosterUrl)
	if err != nil || poster.Hostname() == "" {
		return VideoEntry{}, false
	}
	mediaToken := poster.Query().Get("media_token")
	if mediaToken == "" {
		return VideoEntry{}, false
	}

	// the filename timestamp is already Helsinki wall-clock time, build
	// the instant in that zone rather than parsing as UTC and converting
	fields := make([]int, 6)
	for i := range fields {
		fields[i], _ = strconv.Atoi(match[i+1])
	}
	date := time.Date(
		fields[0], time.Month(fields[1]), fields[2],
		fields[3], fields[4], fields[5],
		0, timezone.Location,
	)

	downloadUrl := fmt.Sprintf(
		"https://%s/player.php?site_id=%s&media_token=%s",
		poster.Hostname(), s.config.SiteId, mediaToken,
	)

	return VideoEntry{
		Title:       raw.Title,
		Date:        date,
		DownloadUrl: downloadUrl,
		PosterUrl:   raw.PosterUrl,
	}, true
}
