// Package reporting collects error reports from clients, keeps the most
// recent ones in memory and forwards each to an optional webhook.
package reporting

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Defaults
const (
	DefaultMaxStored = 10
	DefaultSource    = "Home Finder App"
	unknownMessage   = "Unknown error"
	unknownValue     = "unknown"
)

// Report is one error occurrence.
type Report struct {
	ID             string         `json:"id"`
	Message        string         `json:"message"`
	Stack          string         `json:"stack,omitempty"`
	URL            string         `json:"url"`
	UserAgent      string         `json:"user_agent"`
	Timestamp      time.Time      `json:"timestamp"`
	ComponentStack string         `json:"component_stack,omitempty"`
	Info           map[string]any `json:"info,omitempty"`
}

// webhookPayload is the body POSTed to the webhook
type webhookPayload struct {
	Source string `json:"source"`
	Error  Report `json:"error"`
	AppURL string `json:"app_url"`
}

// Options configures a Reporter.
type Options struct {
	WebhookURL string
	MaxStored  int
	Source     string
	Client     *http.Client
	Logger     *zap.Logger
}

// Reporter stores and forwards reports. It is safe for concurrent use.
type Reporter struct {
	opts Options
	log  *zap.Logger

	mu     sync.Mutex
	stored []Report

	wg     sync.WaitGroup
	closed bool
}

// New creates a Reporter.
func New(opts Options) *Reporter {
	if opts.MaxStored <= 0 {
		opts.MaxStored = DefaultMaxStored
	}
	if opts.Source == "" {
		opts.Source = DefaultSource
	}
	if opts.Client == nil {
		opts.Client = &http.Client{Timeout: 10 * time.Second}
	}
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	return &Reporter{opts: opts, log: log}
}

// Report fills in missing fields, logs and stores r, and sends it to the
// webhook without blocking. The completed report is returned.
func (r *Reporter) Report(rep Report) Report {
	if rep.Message == "" {
		rep.Message = unknownMessage
	}
	if rep.URL == "" {
		rep.URL = unknownValue
	}
	if rep.UserAgent == "" {
		rep.UserAgent = unknownValue
	}
	if rep.Timestamp.IsZero() {
		rep.Timestamp = time.Now().UTC()
	}
	if rep.ID == "" {
		rep.ID = uuid.NewString()
	}

	fields := []zap.Field{
		zap.String("id", rep.ID),
		zap.String("message", rep.Message),
		zap.String("url", rep.URL),
		zap.Time("timestamp", rep.Timestamp),
	}
	if rep.Stack != "" {
		fields = append(fields, zap.String("stack", rep.Stack))
	}
	if len(rep.Info) > 0 {
		fields = append(fields, zap.Any("info", rep.Info))
	}
	r.log.Error("error report", fields...)

	r.mu.Lock()
	r.stored = append(r.stored, rep)
	if over := len(r.stored) - r.opts.MaxStored; over > 0 {
		r.stored = append([]Report(nil), r.stored[over:]...)
	}
	send := r.opts.WebhookURL != "" && !r.closed
	if send {
		r.wg.Add(1)
	}
	r.mu.Unlock()

	if send {
		go func() {
			defer r.wg.Done()
			r.sendToWebhook(rep)
		}()
	}
	return rep
}

// ReportMapError reports a failure in the map or geocoding layer.
func (r *Reporter) ReportMapError(scope string, err error) Report {
	return r.Report(Report{
		Message: fmt.Sprintf("Map Error in %s: %v", scope, errText(err)),
		Info:    map[string]any{"context": scope, "error": errText(err)},
	})
}

// ReportComponentError reports a failure inside a named component. rep
// carries the request details and component stack; its message is replaced.
func (r *Reporter) ReportComponentError(component string, err error, rep Report) Report {
	rep.Message = fmt.Sprintf("Component Error in %s: %v", component, errText(err))
	info := make(map[string]any, len(rep.Info)+2)
	for k, v := range rep.Info {
		info[k] = v
	}
	info["component"] = component
	info["error"] = errText(err)
	rep.Info = info
	return r.Report(rep)
}

// Stored returns a copy of the kept reports, oldest first.
func (r *Reporter) Stored() []Report {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Report, len(r.stored))
	copy(out, r.stored)
	return out
}

// Clear drops all kept reports.
func (r *Reporter) Clear() {
	r.mu.Lock()
	r.stored = nil
	r.mu.Unlock()
	r.log.Info("stored error reports cleared")
}

// Close stops new webhook deliveries and waits for in-flight ones until ctx
// is done.
func (r *Reporter) Close(ctx context.Context) error {
	r.mu.Lock()
	r.closed = true
	r.mu.Unlock()

	done := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (r *Reporter) sendToWebhook(rep Report) {
	body, err := json.Marshal(webhookPayload{Source: r.opts.Source, Error: rep, AppURL: rep.URL})
	if err != nil {
		r.log.Warn("failed to encode error report", zap.String("id", rep.ID), zap.Error(err))
		return
	}
	req, err := http.NewRequest(http.MethodPost, r.opts.WebhookURL, bytes.NewReader(body))
	if err != nil {
		r.log.Warn("failed to build webhook request", zap.Error(err))
		return
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.opts.Client.Do(req)
	if err != nil {
		r.log.Warn("failed to send error report", zap.String("id", rep.ID), zap.Error(err))
		return
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		r.log.Debug("error report sent", zap.String("id", rep.ID))
		return
	}
	r.log.Warn("error report rejected", zap.String("id", rep.ID), zap.Int("status", resp.StatusCode))
}

func errText(err error) string {
	if err == nil {
		return unknownMessage
	}
	return err.Error()
}
