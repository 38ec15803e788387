package appcast

import (
	"bytes"
	"cmp"
	"encoding/xml"
	"fmt"
	"html"
	"os"
	"strings"
	"time"

	"github.com/lysyi3m/appcaster/app/history"
)

type Generator struct {
	channel   Channel
	formatter *Formatter
	mimes     *MimeTable
	now       func() time.Time
}

func NewGenerator(channel Channel, formatter *Formatter, mimes *MimeTable) *Generator {
	return &Generator{
		channel:   channel,
		formatter: formatter,
		mimes:     mimes,
		now:       time.Now,
	}
}

// Build assembles the document for linked releases, keeping their order.
// File sizes and times are read from the linked files now.
func (g *Generator) Build(releases []history.Release) (*Document, error) {
	defaultTitle := g.channel.Project + " Versions"
	doc := &Document{
		Author:      cmp.Or(g.channel.Author, DefaultAuthor),
		Title:       cmp.Or(g.channel.Title, defaultTitle),
		Description: cmp.Or(g.channel.Description, defaultTitle),
		Link:        strings.TrimSuffix(g.channel.URLBase, "/") + "/" + g.channel.FeedFilename(),
		Updated:     g.now().In(time.Local),
		Items:       make([]Item, 0, len(releases)),
	}

	for _, r := range releases {
		item, err := g.buildItem(r)
		if err != nil {
			return nil, err
		}
		doc.Items = append(doc.Items, item)
	}

	return doc, nil
}

func (g *Generator) buildItem(r history.Release) (Item, error) {
	if r.File == "" {
		return Item{}, fmt.Errorf("release #%d has not been linked", r.Build.Number())
	}

	info, err := os.Stat(r.File)
	if err != nil {
		return Item{}, fmt.Errorf("failed to stat linked file: %w", err)
	}
	ctime, err := changeTime(r.File)
	if err != nil {
		return Item{}, fmt.Errorf("failed to read change time of linked file: %w", err)
	}

	description, err := g.formatter.Run(r.Changes)
	if err != nil {
		return Item{}, fmt.Errorf("failed to format changelog for build #%d: %w", r.Build.Number(), err)
	}

	return Item{
		Title:     fmt.Sprintf("%s %d Released", g.channel.Project, r.Build.Number()),
		Link:      r.URL,
		Published: ctime.In(time.Local),
		Updated:   info.ModTime().In(time.Local),
		Enclosure: Enclosure{
			URL:     r.URL,
			Type:    g.mimes.TypeFor(r.File),
			Length:  info.Size(),
			Version: r.Build.Number(),
		},
		Description: description,
	}, nil
}

// Run builds the document and serializes it.
func (g *Generator) Run(releases []history.Release) (string, error) {
	doc, err := g.Build(releases)
	if err != nil {
		return "", err
	}
	return Render(doc), nil
}

func Render(doc *Document) string {
	var buf bytes.Buffer

	buf.WriteString(`<?xml version="1.0" encoding="UTF-8"?>`)
	buf.WriteString("\n")
	buf.WriteString(fmt.Sprintf(`<rss version="2.0" xmlns:content="%s" xmlns:dc="%s" xmlns:sparkle="%s">`,
		NamespaceContent, NamespaceDC, NamespaceSparkle))
	buf.WriteString("\n  <channel>\n")

	writeElement(&buf, "author", doc.Author, 4)
	writeElement(&buf, "updated", doc.Updated.Format(time.RFC1123Z), 4)
	writeElement(&buf, "link", doc.Link, 4)
	writeElement(&buf, "title", doc.Title, 4)
	writeElement(&buf, "description", doc.Description, 4)

	for _, item := range doc.Items {
		writeItem(&buf, item)
	}

	buf.WriteString("  </channel>\n</rss>\n")

	return buf.String()
}

func writeItem(buf *bytes.Buffer, item Item) {
	buf.WriteString("    <item>\n")

	writeElement(buf, "link", item.Link, 6)
	writeElement(buf, "title", item.Title, 6)
	writeElement(buf, "updated", item.Updated.Format(time.RFC1123Z), 6)

	buf.WriteString(fmt.Sprintf("      <enclosure url=\"%s\" type=\"%s\" length=\"%d\" sparkle:version=\"%d\" />\n",
		html.EscapeString(item.Enclosure.URL),
		html.EscapeString(item.Enclosure.Type),
		item.Enclosure.Length,
		item.Enclosure.Version))

	writeElement(buf, "pubDate", item.Published.Format(time.RFC1123Z), 6)
	writeElement(buf, "dc:date", item.Published.Format(time.RFC3339), 6)

	buf.WriteString("      <description><![CDATA[")
	buf.WriteString(escapeCDATA(item.Description))
	buf.WriteString("]]></description>\n")

	buf.WriteString("    </item>\n")
}

func writeElement(buf *bytes.Buffer, tag, content string, indent int) {
	if content == "" {
		return
	}

	for i := 0; i < indent; i++ {
		buf.WriteByte(' ')
	}

	buf.WriteString("<")
	buf.WriteString(tag)
	buf.WriteString(">")
	xml.EscapeText(buf, []byte(content))
	buf.WriteString("</")
	buf.WriteString(tag)
	buf.WriteString(">\n")
}

// escapeCDATA splits any "]]>" so the text cannot close the section early.
func escapeCDATA(s string) string {
	return strings.ReplaceAll(s, "]]>", "]]]]><![CDATA[>")
}
