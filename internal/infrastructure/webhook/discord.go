package webhook

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/zachcoudlntcode/Visual-Warnings-Beta/internal/domain"
	"github.com/zachcoudlntcode/Visual-Warnings-Beta/internal/ports"
)

// Deliverer posts warning artifacts to a Discord-compatible webhook as a
// multipart request: the formatted warning text in the content field and the
// rendered map as a file attachment.
type Deliverer struct {
	webhookURL string
	username   string
	client     *http.Client
}

var _ ports.Deliverer = (*Deliverer)(nil)

// NewDeliverer registers the webhook endpoint and display name.
func NewDeliverer(webhookURL, username string) *Deliverer {
	if username == "" {
		username = "Visual Warnings Bot"
	}
	return &Deliverer{
		webhookURL: webhookURL,
		username:   username,
		client:     &http.Client{Timeout: 30 * time.Second},
	}
}

// Deliver uploads the artifact with its descriptive text. A non-2xx response
// is reported as an error; the caller decides whether to log or retry.
func (d *Deliverer) Deliver(ctx context.Context, imagePath string, alert domain.Alert) error {
	if d.webhookURL == "" || d.client == nil {
		return fmt.Errorf("webhook deliverer misconfigured")
	}

	img, err := os.Open(imagePath)
	if err != nil {
		return fmt.Errorf("open artifact: %w", err)
	}
	defer img.Close()

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	if err := writer.WriteField("content", FormatWarningText(alert)); err != nil {
		return fmt.Errorf("write content field: %w", err)
	}
	if err := writer.WriteField("username", d.username); err != nil {
		return fmt.Errorf("write username field: %w", err)
	}

	part, err := writer.CreateFormFile("file", filepath.Base(imagePath))
	if err != nil {
		return fmt.Errorf("create file part: %w", err)
	}
	if _, err := io.Copy(part, img); err != nil {
		return fmt.Errorf("copy artifact: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("finalize multipart body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.webhookURL, &body)
	if err != nil {
		return fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := d.client.Do(req)
	if err != nil {
		return fmt.Errorf("post webhook: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("webhook rejected delivery %s: %s", resp.Status, strings.TrimSpace(string(msg)))
	}

	return nil
}

// FormatWarningText renders the descriptive text block posted alongside the
// image. Sections without data are left out.
func FormatWarningText(alert domain.Alert) string {
	var b strings.Builder

	headline := alert.Headline
	if headline == "" {
		headline = alert.Event
	}
	fmt.Fprintf(&b, "**%s: %s**\n", alert.Event, headline)

	if alert.AreaDesc != "" {
		fmt.Fprintf(&b, "**Areas Affected:** %s\n", alert.AreaDesc)
	}
	if alert.NWSHeadline != "" {
		fmt.Fprintf(&b, "**NWS Headline:** %s\n", alert.NWSHeadline)
	}
	if alert.Description != "" {
		fmt.Fprintf(&b, "**Description:**\n%s\n", alert.Description)
	}
	if alert.Instruction != "" {
		fmt.Fprintf(&b, "**Instructions:**\n%s\n", alert.Instruction)
	}

	return b.String()
}
