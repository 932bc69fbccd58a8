package media

import (
	"bytes"

	"fooni-backend/lib/htmlutil"

	"github.com/PuerkitoBio/goquery"
)

// RawEntry is one candidate video as it appears in the listing markup,
// before any validation or normalization.
type RawEntry struct {
	Title     string
	PosterUrl string
}

// Extractor pulls raw entries out of a listing page. The markup this runs
// against is not ours and changes without notice, keeping the selector
// grammar behind this interface means a layout change only touches one
// implementation.
type Extractor interface {
	ExtractEntries(html []byte) ([]RawEntry, error)
}

// GoqueryExtractor matches the current listing layout: a responsive media
// container div holding the poster image, with the title element two
// levels up from the image.
type GoqueryExtractor struct{}

func (GoqueryExtractor) ExtractEntries(html []byte) ([]RawEntry, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewBuffer(html))
	if err != nil {
		return nil, err
	}

	var entries []RawEntry
	doc.Find("div.media_container_responsive > img").Each(func(_ int, img *goquery.Selection) {
		title := img.Parent().Parent().
			Find(".media_container_responsive_title").
			First().
			Text()

		entries = append(entries, RawEntry{
			Title:     htmlutil.CleanText(title),
			PosterUrl: img.AttrOr("src", ""),
		})
	})

	return entries, nil
}
