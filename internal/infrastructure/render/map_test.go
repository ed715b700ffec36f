package render

import (
	"context"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/zachcoudlntcode/Visual-Warnings-Beta/internal/domain"
)

func testAlert() domain.Alert {
	return domain.Alert{
		ID:          "urn:oid:2.49.0.1.840.0.555",
		Event:       "Tornado Warning",
		NWSHeadline: "TORNADO WARNING FOR HENDERSON COUNTY",
		AreaDesc:    "Henderson, KY",
		Polygon: []domain.Point{
			{Lat: 37.80, Lon: -87.60},
			{Lat: 37.80, Lon: -87.40},
			{Lat: 37.95, Lon: -87.40},
			{Lat: 37.95, Lon: -87.60},
		},
	}
}

func TestRenderMapWritesPNG(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	r, err := NewMapRenderer(dir, nil)
	if err != nil {
		t.Fatalf("NewMapRenderer: %v", err)
	}

	path, err := r.RenderMap(context.Background(), testAlert())
	if err != nil {
		t.Fatalf("RenderMap: %v", err)
	}

	if filepath.Dir(path) != dir {
		t.Fatalf("artifact written outside output dir: %s", path)
	}
	if !strings.Contains(filepath.Base(path), "urn_oid_2.49.0.1.840.0.555") {
		t.Fatalf("artifact name does not carry alert id: %s", path)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open artifact: %v", err)
	}
	defer f.Close()

	img, err := png.Decode(f)
	if err != nil {
		t.Fatalf("artifact is not a valid png: %v", err)
	}
	bounds := img.Bounds()
	if bounds.Dx() != defaultWidth || bounds.Dy() != defaultHeight {
		t.Fatalf("unexpected image size: %v", bounds)
	}
}

func TestRenderMapRejectsMissingPolygon(t *testing.T) {
	t.Parallel()

	r, err := NewMapRenderer(t.TempDir(), nil)
	if err != nil {
		t.Fatalf("NewMapRenderer: %v", err)
	}

	alert := testAlert()
	alert.Polygon = nil
	if _, err := r.RenderMap(context.Background(), alert); err == nil {
		t.Fatalf("expected error for alert without polygon")
	}

	alert.Polygon = []domain.Point{{Lat: 1, Lon: 1}, {Lat: 2, Lon: 2}}
	if _, err := r.RenderMap(context.Background(), alert); err == nil {
		t.Fatalf("expected error for degenerate polygon")
	}
}

func TestRenderMapHonorsCancelledContext(t *testing.T) {
	t.Parallel()

	r, err := NewMapRenderer(t.TempDir(), nil)
	if err != nil {
		t.Fatalf("NewMapRenderer: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := r.RenderMap(ctx, testAlert()); err == nil {
		t.Fatalf("expected context error")
	}
}

func TestNewMapRendererRequiresDirectory(t *testing.T) {
	t.Parallel()

	if _, err := NewMapRenderer("", nil); err == nil {
		t.Fatalf("expected error for empty output directory")
	}
}
