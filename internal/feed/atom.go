package feed

import (
	"encoding/xml"
	"fmt"
	"strings"

	"github.com/zachcoudlntcode/Visual-Warnings-Beta/internal/domain"
)

// AtomDecoder parses the CAP Atom rendition of the alert feed. It is the
// fallback when the JSON API endpoint cannot be derived from the feed URL.
type AtomDecoder struct{}

var _ Decoder = (*AtomDecoder)(nil)

type atomFeed struct {
	XMLName xml.Name    `xml:"http://www.w3.org/2005/Atom feed"`
	Entries []atomEntry `xml:"entry"`
}

type atomEntry struct {
	ID        string `xml:"id"`
	Title     string `xml:"title"`
	Summary   string `xml:"summary"`
	Event     string `xml:"urn:oasis:names:tc:emergency:cap:1.1 event"`
	Severity  string `xml:"urn:oasis:names:tc:emergency:cap:1.1 severity"`
	Certainty string `xml:"urn:oasis:names:tc:emergency:cap:1.1 certainty"`
	Urgency   string `xml:"urn:oasis:names:tc:emergency:cap:1.1 urgency"`
	AreaDesc  string `xml:"urn:oasis:names:tc:emergency:cap:1.1 areaDesc"`
	Polygon   string `xml:"urn:oasis:names:tc:emergency:cap:1.1 polygon"`
	Sent      string `xml:"urn:oasis:names:tc:emergency:cap:1.1 sent"`
	Expires   string `xml:"urn:oasis:names:tc:emergency:cap:1.1 expires"`
}

// Name identifies the strategy inside the registry.
func (AtomDecoder) Name() string {
	return "atom"
}

// Decode extracts alert records from a CAP Atom document. Entry ids are URLs;
// the trailing path segment is the alert identifier.
func (AtomDecoder) Decode(data []byte) ([]domain.Alert, error) {
	var doc atomFeed
	if err := xml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse atom feed: %w", err)
	}

	alerts := make([]domain.Alert, 0, len(doc.Entries))
	for _, entry := range doc.Entries {
		id := entryID(entry.ID)
		if id == "" {
			continue
		}

		alerts = append(alerts, domain.Alert{
			ID:          id,
			Event:       strings.TrimSpace(entry.Event),
			Headline:    strings.TrimSpace(entry.Title),
			Description: strings.TrimSpace(entry.Summary),
			Severity:    strings.TrimSpace(entry.Severity),
			Certainty:   strings.TrimSpace(entry.Certainty),
			Urgency:     strings.TrimSpace(entry.Urgency),
			AreaDesc:    strings.TrimSpace(entry.AreaDesc),
			Polygon:     ParsePolygonPairs(entry.Polygon),
			Sent:        parseFeedTime(strings.TrimSpace(entry.Sent)),
			Expires:     parseFeedTime(strings.TrimSpace(entry.Expires)),
		})
	}

	return alerts, nil
}

func entryID(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	if idx := strings.LastIndex(raw, "/"); idx >= 0 {
		return raw[idx+1:]
	}
	return raw
}
