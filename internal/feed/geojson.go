package feed

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/zachcoudlntcode/Visual-Warnings-Beta/internal/domain"
)

// GeoJSONDecoder parses api.weather.gov /alerts/active responses
// (application/geo+json).
type GeoJSONDecoder struct{}

var _ Decoder = (*GeoJSONDecoder)(nil)

type geoFeatureCollection struct {
	Features []geoFeature `json:"features"`
}

type geoFeature struct {
	Geometry   *geoGeometry  `json:"geometry"`
	Properties geoProperties `json:"properties"`
}

type geoGeometry struct {
	Type        string          `json:"type"`
	Coordinates json.RawMessage `json:"coordinates"`
}

type geoProperties struct {
	ID          string              `json:"id"`
	Event       string              `json:"event"`
	Headline    string              `json:"headline"`
	Description string              `json:"description"`
	Instruction string              `json:"instruction"`
	Severity    string              `json:"severity"`
	Certainty   string              `json:"certainty"`
	Urgency     string              `json:"urgency"`
	AreaDesc    string              `json:"areaDesc"`
	Sent        string              `json:"sent"`
	Expires     string              `json:"expires"`
	Polygon     string              `json:"polygon"`
	Parameters  map[string][]string `json:"parameters"`
}

// Name identifies the strategy inside the registry.
func (GeoJSONDecoder) Name() string {
	return "geojson"
}

// Decode extracts alert records from a GeoJSON feature collection. A feature
// without usable geometry still yields a record; the polygon simply stays
// empty and rendering is skipped downstream.
func (GeoJSONDecoder) Decode(data []byte) ([]domain.Alert, error) {
	var fc geoFeatureCollection
	if err := json.Unmarshal(data, &fc); err != nil {
		return nil, fmt.Errorf("parse geojson feed: %w", err)
	}

	alerts := make([]domain.Alert, 0, len(fc.Features))
	for _, feature := range fc.Features {
		props := feature.Properties
		alert := domain.Alert{
			ID:          props.ID,
			Event:       props.Event,
			Headline:    props.Headline,
			Description: props.Description,
			Instruction: props.Instruction,
			Severity:    props.Severity,
			Certainty:   props.Certainty,
			Urgency:     props.Urgency,
			AreaDesc:    props.AreaDesc,
			NWSHeadline: firstParameter(props.Parameters, "NWSheadline"),
			Sent:        parseFeedTime(props.Sent),
			Expires:     parseFeedTime(props.Expires),
		}

		if feature.Geometry != nil && feature.Geometry.Type == "Polygon" {
			alert.Polygon = decodePolygonCoordinates(feature.Geometry.Coordinates)
		}
		if len(alert.Polygon) == 0 && props.Polygon != "" {
			// Some products carry the polygon as a "lat,lon lat,lon" string
			// in the properties instead of GeoJSON geometry.
			alert.Polygon = ParsePolygonPairs(props.Polygon)
		}

		if alert.ID == "" {
			continue
		}
		alerts = append(alerts, alert)
	}

	return alerts, nil
}

// decodePolygonCoordinates reads the outer ring of a GeoJSON polygon.
// GeoJSON orders coordinates [lon, lat].
func decodePolygonCoordinates(raw json.RawMessage) []domain.Point {
	var rings [][][2]float64
	if err := json.Unmarshal(raw, &rings); err != nil || len(rings) == 0 {
		return nil
	}

	outer := rings[0]
	points := make([]domain.Point, 0, len(outer))
	for _, pair := range outer {
		points = append(points, domain.Point{Lat: pair[1], Lon: pair[0]})
	}
	return points
}

// ParsePolygonPairs parses the CAP "lat,lon lat,lon ..." polygon encoding.
// Malformed pairs are skipped.
func ParsePolygonPairs(value string) []domain.Point {
	fields := strings.Fields(value)
	points := make([]domain.Point, 0, len(fields))
	for _, field := range fields {
		parts := strings.SplitN(field, ",", 2)
		if len(parts) != 2 {
			continue
		}
		lat, latErr := strconv.ParseFloat(parts[0], 64)
		lon, lonErr := strconv.ParseFloat(parts[1], 64)
		if latErr != nil || lonErr != nil {
			continue
		}
		points = append(points, domain.Point{Lat: lat, Lon: lon})
	}
	return points
}

func firstParameter(params map[string][]string, key string) string {
	if values, ok := params[key]; ok && len(values) > 0 {
		return values[0]
	}
	return ""
}

func parseFeedTime(value string) time.Time {
	if value == "" {
		return time.Time{}
	}
	parsed, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}
	}
	return parsed
}
