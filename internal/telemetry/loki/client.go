// Package loki provides a client to push telemetry events to Grafana Loki.
package loki

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"strings"
	"time"

	"accessibility-insights/background/internal/telemetry"
	"accessibility-insights/background/internal/telemetry/producer"
)

// DefaultJob is the job label attached to every stream.
const DefaultJob = "a11y-insights"

// ErrEmptyBaseURL is returned when the client has no Loki URL.
var ErrEmptyBaseURL = errors.New("loki: base URL is empty")

// PushRequest is the Loki push API request body (v1).
type PushRequest struct {
	Streams []Stream `json:"streams"`
}

// Stream is a single stream with labels and log entries.
type Stream struct {
	Stream map[string]string `json:"stream"`
	Values [][]string        `json:"values"` // each entry is [timestamp_ns, log_line]
}

// labelSanitize replaces characters that are invalid in Loki label values we emit.
var labelSanitize = regexp.MustCompile(`[^a-zA-Z0-9_\-:.]`)

// labelProperties are event properties promoted to stream labels. Everything else stays in the line.
var labelProperties = map[string]string{
	telemetry.PropApplicationName: "application_name",
	telemetry.PropSource:          "source",
}

// Client pushes log lines to Loki.
type Client struct {
	BaseURL string
	Job     string
	HTTP    *http.Client
}

// NewClient returns a Client for the Loki instance at baseURL (e.g. http://localhost:3100).
func NewClient(baseURL string) *Client {
	return &Client{BaseURL: baseURL, Job: DefaultJob, HTTP: http.DefaultClient}
}

// PushEventJSON decodes a Kafka message value and pushes it to Loki labelled by event name.
// If decoding fails, the raw line is pushed with current time and no extra labels.
func (c *Client) PushEventJSON(ctx context.Context, raw []byte) error {
	event, err := producer.DecodeEvent(raw)
	if err != nil {
		return c.Push(ctx, time.Now().UTC(), string(raw), nil)
	}
	return c.PushEvent(ctx, event)
}

// PushEvent pushes a single telemetry event. The line is the event JSON.
func (c *Client) PushEvent(ctx context.Context, event telemetry.Event) error {
	labels := map[string]string{"event_name": event.Name}
	for prop, label := range labelProperties {
		if v := event.Properties[prop]; v != "" {
			labels[label] = v
		}
	}
	line, err := json.Marshal(struct {
		Name       string            `json:"name"`
		Properties map[string]string `json:"properties,omitempty"`
	}{event.Name, event.Properties})
	if err != nil {
		return err
	}
	ts := event.Timestamp
	if ts.IsZero() {
		ts = time.Now().UTC()
	}
	return c.Push(ctx, ts, string(line), labels)
}

// Push sends a single log line to Loki.
// Returns an error if the HTTP request fails or Loki returns non-2xx.
func (c *Client) Push(ctx context.Context, timestamp time.Time, line string, labels map[string]string) error {
	if c == nil || c.BaseURL == "" {
		return ErrEmptyBaseURL
	}
	job := c.Job
	if job == "" {
		job = DefaultJob
	}
	streamLabels := make(map[string]string, len(labels)+1)
	streamLabels["job"] = job
	for k, v := range labels {
		sanitized := labelSanitize.ReplaceAllString(strings.TrimSpace(v), "_")
		if sanitized != "" {
			streamLabels[k] = sanitized
		}
	}
	body := PushRequest{
		Streams: []Stream{{
			Stream: streamLabels,
			Values: [][]string{{fmt.Sprintf("%d", timestamp.UnixNano()), line}},
		}},
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return err
	}
	url := strings.TrimSuffix(c.BaseURL, "/") + "/loki/api/v1/push"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	httpClient := c.HTTP
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	resp, err := httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("loki: push returned %s", resp.Status)
	}
	return nil
}
