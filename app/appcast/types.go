package appcast

import "time"

const (
	NamespaceContent = "http://purl.org/rss/1.0/modules/content/"
	NamespaceDC      = "http://purl.org/dc/elements/1.1/"
	NamespaceSparkle = "http://www.andymatuschak.org/xml-namespaces/sparkle"

	DefaultAuthor = "Appcaster"
)

// Channel holds the channel-level settings of one project's appcast. Empty
// fields fall back to defaults derived from Project.
type Channel struct {
	Project     string
	URLBase     string
	Filename    string
	Author      string
	Title       string
	Description string
}

func (c Channel) FeedFilename() string {
	if c.Filename != "" {
		return c.Filename
	}
	return c.Project + ".rss"
}

type Document struct {
	Author      string
	Title       string
	Description string
	Link        string
	Updated     time.Time
	Items       []Item
}

type Item struct {
	Title       string
	Link        string
	Published   time.Time // link creation time
	Updated     time.Time // link modification time
	Enclosure   Enclosure
	Description string
}

type Enclosure struct {
	URL     string
	Type    string
	Length  int64
	Version int
}
