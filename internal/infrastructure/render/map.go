package render

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fogleman/gg"

	"github.com/zachcoudlntcode/Visual-Warnings-Beta/internal/domain"
	"github.com/zachcoudlntcode/Visual-Warnings-Beta/internal/ports"
)

const (
	defaultWidth  = 1024
	defaultHeight = 768

	headerHeight = 64.0
	footerHeight = 28.0
	gridSteps    = 8
)

// MapRenderer draws an alert polygon onto a plain geographic canvas and
// writes the result as a PNG artifact into the output directory.
type MapRenderer struct {
	outputDir string
	width     int
	height    int
	logger    *slog.Logger
}

var _ ports.Renderer = (*MapRenderer)(nil)

// NewMapRenderer ensures the output directory exists.
func NewMapRenderer(outputDir string, log *slog.Logger) (*MapRenderer, error) {
	if outputDir == "" {
		return nil, fmt.Errorf("output directory is required")
	}
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return nil, fmt.Errorf("create output directory: %w", err)
	}

	return &MapRenderer{
		outputDir: outputDir,
		width:     defaultWidth,
		height:    defaultHeight,
		logger:    log,
	}, nil
}

// RenderMap projects the alert polygon with an equirectangular mapping into
// padded bounds and paints it with the warning color. The artifact file name
// carries the alert identifier so the retention sweeper and the delivery
// logs stay traceable to the originating alert.
func (m *MapRenderer) RenderMap(ctx context.Context, alert domain.Alert) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if !alert.HasPolygon() {
		return "", fmt.Errorf("alert %s carries no polygon", alert.ID)
	}

	minLat, maxLat, minLon, maxLon := paddedBounds(alert.Polygon)

	dc := gg.NewContext(m.width, m.height)
	dc.SetRGB(0.10, 0.12, 0.15)
	dc.Clear()

	m.drawGraticule(dc)
	m.drawPolygon(dc, alert.Polygon, minLat, maxLat, minLon, maxLon)
	m.drawChrome(dc, alert)

	path := filepath.Join(m.outputDir, artifactName(alert.ID))
	if err := dc.SavePNG(path); err != nil {
		return "", fmt.Errorf("write artifact: %w", err)
	}

	if m.logger != nil {
		m.logger.Debug("artifact rendered", "alert", alert.ID, "path", path)
	}
	return path, nil
}

func (m *MapRenderer) drawGraticule(dc *gg.Context) {
	w := float64(m.width)
	h := float64(m.height)

	dc.SetRGBA(1, 1, 1, 0.08)
	dc.SetLineWidth(1)
	for i := 1; i < gridSteps; i++ {
		x := w * float64(i) / gridSteps
		y := h * float64(i) / gridSteps
		dc.DrawLine(x, 0, x, h)
		dc.DrawLine(0, y, w, y)
	}
	dc.Stroke()
}

func (m *MapRenderer) drawPolygon(dc *gg.Context, polygon []domain.Point, minLat, maxLat, minLon, maxLon float64) {
	for i, pt := range polygon {
		x, y := m.project(pt, minLat, maxLat, minLon, maxLon)
		if i == 0 {
			dc.MoveTo(x, y)
		} else {
			dc.LineTo(x, y)
		}
	}
	dc.ClosePath()

	dc.SetRGBA(0.86, 0.13, 0.13, 0.35)
	dc.FillPreserve()
	dc.SetRGBA(0.86, 0.13, 0.13, 1)
	dc.SetLineWidth(3)
	dc.Stroke()
}

func (m *MapRenderer) drawChrome(dc *gg.Context, alert domain.Alert) {
	w := float64(m.width)
	h := float64(m.height)

	dc.SetRGBA(0, 0, 0, 0.65)
	dc.DrawRectangle(0, 0, w, headerHeight)
	dc.DrawRectangle(0, h-footerHeight, w, footerHeight)
	dc.Fill()

	title := alert.Event
	if alert.NWSHeadline != "" {
		title = fmt.Sprintf("%s - %s", alert.Event, alert.NWSHeadline)
	}

	dc.SetRGB(1, 1, 1)
	dc.DrawString(title, 12, 26)
	if alert.AreaDesc != "" {
		dc.DrawString(alert.AreaDesc, 12, 48)
	}
	dc.DrawString(time.Now().UTC().Format("2006-01-02 15:04 MST"), 12, h-10)
}

// project maps lat/lon into pixel space, keeping the drawable region between
// the header and footer bands. Latitude grows northward, pixels grow
// downward, hence the inversion.
func (m *MapRenderer) project(pt domain.Point, minLat, maxLat, minLon, maxLon float64) (float64, float64) {
	drawable := float64(m.height) - headerHeight - footerHeight
	x := (pt.Lon - minLon) / (maxLon - minLon) * float64(m.width)
	y := headerHeight + (maxLat-pt.Lat)/(maxLat-minLat)*drawable
	return x, y
}

// paddedBounds expands the polygon bounding box by 40% per side so the
// warning shape does not touch the canvas edge. Degenerate spans get a
// minimum extent so projection never divides by zero.
func paddedBounds(polygon []domain.Point) (minLat, maxLat, minLon, maxLon float64) {
	minLat, maxLat = polygon[0].Lat, polygon[0].Lat
	minLon, maxLon = polygon[0].Lon, polygon[0].Lon
	for _, pt := range polygon[1:] {
		if pt.Lat < minLat {
			minLat = pt.Lat
		}
		if pt.Lat > maxLat {
			maxLat = pt.Lat
		}
		if pt.Lon < minLon {
			minLon = pt.Lon
		}
		if pt.Lon > maxLon {
			maxLon = pt.Lon
		}
	}

	latSpan := maxLat - minLat
	lonSpan := maxLon - minLon
	if latSpan < 0.05 {
		latSpan = 0.05
	}
	if lonSpan < 0.05 {
		lonSpan = 0.05
	}

	minLat -= latSpan * 0.4
	maxLat += latSpan * 0.4
	minLon -= lonSpan * 0.4
	maxLon += lonSpan * 0.4
	return minLat, maxLat, minLon, maxLon
}

// artifactName derives a filesystem-safe file name from the alert id.
func artifactName(id string) string {
	var b strings.Builder
	for _, r := range id {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '.':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	return b.String() + ".png"
}
