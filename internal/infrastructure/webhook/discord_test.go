package webhook

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/zachcoudlntcode/Visual-Warnings-Beta/internal/domain"
)

func writeArtifact(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "warning.png")
	if err := os.WriteFile(path, []byte("fake png bytes"), 0o644); err != nil {
		t.Fatalf("write artifact: %v", err)
	}
	return path
}

func TestDeliverPostsMultipart(t *testing.T) {
	t.Parallel()

	alert := domain.Alert{
		ID:          "urn:oid:2.49.0.1.840.0.777",
		Event:       "Flood Warning",
		Headline:    "Flood Warning issued for Henderson KY",
		AreaDesc:    "Henderson, KY",
		Description: "The Ohio River is above flood stage.",
		Instruction: "Turn around, don't drown.",
	}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Errorf("parse multipart: %v", err)
			return
		}

		content := r.FormValue("content")
		if !strings.Contains(content, "**Flood Warning: Flood Warning issued for Henderson KY**") {
			t.Errorf("unexpected content field: %q", content)
		}
		if !strings.Contains(content, "Turn around, don't drown.") {
			t.Errorf("instructions missing from content: %q", content)
		}
		if got := r.FormValue("username"); got != "Test Warnings" {
			t.Errorf("unexpected username: %q", got)
		}

		file, header, err := r.FormFile("file")
		if err != nil {
			t.Errorf("file part missing: %v", err)
			return
		}
		defer file.Close()
		if header.Filename != "warning.png" {
			t.Errorf("unexpected attachment name: %s", header.Filename)
		}

		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	d := NewDeliverer(server.URL, "Test Warnings")
	d.client = server.Client()

	if err := d.Deliver(context.Background(), writeArtifact(t), alert); err != nil {
		t.Fatalf("Deliver: %v", err)
	}
}

func TestDeliverReportsRejection(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "rate limited", http.StatusTooManyRequests)
	}))
	defer server.Close()

	d := NewDeliverer(server.URL, "")
	d.client = server.Client()

	err := d.Deliver(context.Background(), writeArtifact(t), domain.Alert{Event: "Wind Advisory"})
	if err == nil {
		t.Fatalf("expected error on non-2xx response")
	}
	if !strings.Contains(err.Error(), "429") {
		t.Fatalf("error should carry status: %v", err)
	}
}

func TestDeliverMissingArtifact(t *testing.T) {
	t.Parallel()

	d := NewDeliverer("https://example.org/webhook", "")
	err := d.Deliver(context.Background(), filepath.Join(t.TempDir(), "absent.png"), domain.Alert{})
	if err == nil {
		t.Fatalf("expected error for missing artifact file")
	}
}

func TestFormatWarningTextOmitsEmptySections(t *testing.T) {
	t.Parallel()

	text := FormatWarningText(domain.Alert{Event: "Frost Advisory"})
	if !strings.Contains(text, "**Frost Advisory: Frost Advisory**") {
		t.Fatalf("event fallback headline missing: %q", text)
	}
	if strings.Contains(text, "Areas Affected") || strings.Contains(text, "Instructions") {
		t.Fatalf("empty sections must be omitted: %q", text)
	}
}
