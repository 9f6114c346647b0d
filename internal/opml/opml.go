// Package opml reads and writes subscription lists in OPML 2.0 format for
// exchange with other podcast clients.
package opml

import (
	"encoding/xml"
	"fmt"
	"io"
	"time"

	"podscribe/internal/domain"
)

type document struct {
	XMLName xml.Name `xml:"opml"`
	Version string   `xml:"version,attr"`
	Head    head     `xml:"head"`
	Body    body     `xml:"body"`
}

type head struct {
	Title       string `xml:"title,omitempty"`
	DateCreated string `xml:"dateCreated,omitempty"`
}

type body struct {
	Outlines []outline `xml:"outline"`
}

type outline struct {
	Type    string `xml:"type,attr"`
	Text    string `xml:"text,attr"`
	Title   string `xml:"title,attr,omitempty"`
	XMLURL  string `xml:"xmlUrl,attr"`
	HTMLURL string `xml:"htmlUrl,attr,omitempty"`
}

// Export writes the subscriptions as an OPML document.
func Export(w io.Writer, subs []domain.Subscription) error {
	doc := document{
		Version: "2.0",
		Head: head{
			Title:       "Podscribe Subscriptions",
			DateCreated: time.Now().UTC().Format(time.RFC1123Z),
		},
		Body: body{
			Outlines: make([]outline, 0, len(subs)),
		},
	}

	for _, sub := range subs {
		doc.Body.Outlines = append(doc.Body.Outlines, outline{
			Type:   "rss",
			Text:   sub.Name,
			Title:  sub.Name,
			XMLURL: sub.FeedURL,
		})
	}

	encoder := xml.NewEncoder(w)
	encoder.Indent("", "  ")
	if err := encoder.Encode(doc); err != nil {
		return fmt.Errorf("encode OPML: %w", err)
	}
	return nil
}

// Import parses an OPML document into subscriptions. Outlines without a
// feed URL are dropped.
func Import(r io.Reader) ([]domain.Subscription, error) {
	var doc document
	if err := xml.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode OPML: %w", err)
	}

	subs := make([]domain.Subscription, 0, len(doc.Body.Outlines))
	for _, entry := range doc.Body.Outlines {
		if entry.XMLURL == "" {
			continue
		}
		name := entry.Title
		if name == "" {
			name = entry.Text
		}
		subs = append(subs, domain.Subscription{
			Name:    name,
			FeedURL: entry.XMLURL,
		})
	}
	return subs, nil
}
