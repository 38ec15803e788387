package appcast

import (
	"bytes"
	"fmt"
	"os"
	"path"
	"strconv"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"
)

// PublishedRelease is one item read back from a written appcast.
type PublishedRelease struct {
	Version     int        `json:"version"`
	Title       string     `json:"title"`
	URL         string     `json:"url"`
	ContentType string     `json:"content_type"`
	Length      int64      `json:"length"`
	PublishedAt *time.Time `json:"published_at,omitempty"`
	Changelog   string     `json:"changelog"`
}

type Reader struct {
	gofeedParser *gofeed.Parser
}

func NewReader() *Reader {
	return &Reader{
		gofeedParser: gofeed.NewParser(),
	}
}

func (r *Reader) ReadFile(filename string) ([]PublishedRelease, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read appcast: %w", err)
	}
	return r.Run(data)
}

func (r *Reader) Run(data []byte) ([]PublishedRelease, error) {
	feed, err := r.gofeedParser.Parse(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to parse appcast: %w", err)
	}

	releases := make([]PublishedRelease, 0, len(feed.Items))
	for _, item := range feed.Items {
		release := PublishedRelease{
			Title:       item.Title,
			URL:         item.Link,
			PublishedAt: item.PublishedParsed,
			Changelog:   item.Description,
		}

		if len(item.Enclosures) > 0 && item.Enclosures[0] != nil {
			enclosure := item.Enclosures[0]
			release.URL = enclosure.URL
			release.ContentType = enclosure.Type
			if enclosure.Length != "" {
				if length, err := strconv.ParseInt(enclosure.Length, 10, 64); err == nil {
					release.Length = length
				}
			}
		}

		release.Version = versionFromItem(item.Title, release.URL)
		releases = append(releases, release)
	}

	return releases, nil
}

// versionFromItem recovers the build number from "<project> <n> Released",
// falling back to the "<project>-<n>" directory of the enclosure URL.
// gofeed does not keep the sparkle:version attribute.
func versionFromItem(title, link string) int {
	fields := strings.Fields(strings.TrimSuffix(title, " Released"))
	if len(fields) > 0 {
		if n, err := strconv.Atoi(fields[len(fields)-1]); err == nil {
			return n
		}
	}

	dir := path.Base(path.Dir(link))
	if i := strings.LastIndex(dir, "-"); i >= 0 {
		if n, err := strconv.Atoi(dir[i+1:]); err == nil {
			return n
		}
	}

	return 0
}
