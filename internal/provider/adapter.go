// Package provider wraps the HTTP API of an external health-data platform
// (a Google Health / Samsung Health / Garmin bridge) for session operations.
// It provides an [Adapter] with methods aligned to the reconciliation
// engine's needs, a 3-attempt exponential-backoff [Retry] helper, and
// conversion between the provider's JSON representation and the model types.
//
// Availability and permission state are explicit, observable values returned
// from calls — never cached process-wide. The engine threads them through as
// inputs.
package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/willowtrack/healthrelay/internal/model"
)

// RequiredPermissions is the scope set the adapter needs for bidirectional
// sync of both record kinds.
var RequiredPermissions = []string{
	"sleep.read",
	"sleep.write",
	"exercise.read",
	"exercise.write",
}

// Adapter provides engine-oriented operations against a health-data
// provider's REST API. Create one with [NewAdapter].
type Adapter struct {
	baseURL string
	token   string
	source  model.Source
	hc      *http.Client
	log     *slog.Logger

	// mu guards the status cache below. One Adapter is shared by every
	// surface that talks to the provider, so the cache must be safe for
	// concurrent reads and writes.
	mu sync.Mutex
	// writeSupported reflects the last /status response. Consulted by the
	// write path so an unsupported provider fails with a distinct error
	// instead of a rejected POST.
	writeSupported bool
	statusChecked  bool
}

// NewAdapter creates an Adapter for the provider at baseURL, tagging every
// imported record with source.
func NewAdapter(baseURL, token string, source model.Source, logger *slog.Logger) *Adapter {
	return &Adapter{
		baseURL:        strings.TrimRight(baseURL, "/"),
		token:          token,
		source:         source,
		hc:             &http.Client{Timeout: 30 * time.Second},
		log:            logger,
		writeSupported: true,
	}
}

// Source returns the provenance tag this adapter assigns to imported records.
func (a *Adapter) Source() model.Source {
	return a.source
}

// statusResponse is the JSON body of GET /api/v1/status.
type statusResponse struct {
	Status         string `json:"status"`
	WriteSupported bool   `json:"write_supported"`
}

// permissionsResponse is the JSON body of GET /api/v1/permissions.
type permissionsResponse struct {
	Granted []string `json:"granted"`
}

// AvailabilityStatus queries the provider's platform state. Transport
// failures map to Unknown with the error returned alongside.
func (a *Adapter) AvailabilityStatus(ctx context.Context) (model.Availability, error) {
	var resp statusResponse
	err := Retry(ctx, defaultMaxAttempts, func() error {
		return a.getJSON(ctx, "/api/v1/status", nil, &resp)
	})
	if err != nil {
		return model.AvailabilityUnknown, fmt.Errorf("querying provider status: %w", err)
	}

	a.mu.Lock()
	a.writeSupported = resp.WriteSupported
	a.statusChecked = true
	a.mu.Unlock()

	switch resp.Status {
	case "available":
		return model.AvailabilityAvailable, nil
	case "unavailable":
		return model.AvailabilityUnavailable, nil
	case "update_required":
		return model.AvailabilityUpdateRequired, nil
	default:
		a.log.Warn("provider reported unknown status", "status", resp.Status)
		return model.AvailabilityUnknown, nil
	}
}

// HasAllPermissions reports whether every required scope has been granted.
func (a *Adapter) HasAllPermissions(ctx context.Context) (bool, error) {
	missing, err := a.MissingPermissions(ctx)
	if err != nil {
		return false, err
	}
	return len(missing) == 0, nil
}

// MissingPermissions returns the required scopes not yet granted.
func (a *Adapter) MissingPermissions(ctx context.Context) ([]string, error) {
	var resp permissionsResponse
	err := Retry(ctx, defaultMaxAttempts, func() error {
		return a.getJSON(ctx, "/api/v1/permissions", nil, &resp)
	})
	if err != nil {
		return nil, fmt.Errorf("querying provider permissions: %w", err)
	}

	granted := make(map[string]bool, len(resp.Granted))
	for _, p := range resp.Granted {
		granted[p] = true
	}

	var missing []string
	for _, p := range RequiredPermissions {
		if !granted[p] {
			missing = append(missing, p)
		}
	}
	return missing, nil
}

// ReadSleep fetches the provider's sleep sessions created within [start, end)
// and converts them to local records. Zero times default to the trailing
// 30-day window.
func (a *Adapter) ReadSleep(ctx context.Context, start, end time.Time) ([]*model.SleepSession, error) {
	wire, err := a.readSessions(ctx, "sleep", start, end)
	if err != nil {
		return nil, err
	}

	sessions := make([]*model.SleepSession, 0, len(wire))
	for _, w := range wire {
		sessions = append(sessions, wireToSleep(w, a.source))
	}
	return sessions, nil
}

// ReadExercise fetches the provider's exercise sessions created within
// [start, end) and converts them to local records. Unmapped exercise type
// codes fall back to Other.
func (a *Adapter) ReadExercise(ctx context.Context, start, end time.Time) ([]*model.ExerciseSession, error) {
	wire, err := a.readSessions(ctx, "exercise", start, end)
	if err != nil {
		return nil, err
	}

	sessions := make([]*model.ExerciseSession, 0, len(wire))
	for _, w := range wire {
		sessions = append(sessions, wireToExercise(w, a.source))
	}
	return sessions, nil
}

// WriteSleep uploads local sleep sessions to the provider.
func (a *Adapter) WriteSleep(ctx context.Context, sessions []*model.SleepSession) error {
	wire := make([]wireSession, 0, len(sessions))
	for _, s := range sessions {
		wire = append(wire, sleepToWire(s))
	}
	return a.writeSessions(ctx, "sleep", wire)
}

// WriteExercise uploads local exercise sessions to the provider.
func (a *Adapter) WriteExercise(ctx context.Context, sessions []*model.ExerciseSession) error {
	wire := make([]wireSession, 0, len(sessions))
	for _, s := range sessions {
		wire = append(wire, exerciseToWire(s))
	}
	return a.writeSessions(ctx, "exercise", wire)
}

// readSessions fetches the raw wire records for one session kind.
func (a *Adapter) readSessions(ctx context.Context, kind string, start, end time.Time) ([]wireSession, error) {
	if start.IsZero() {
		start = time.Now().UTC().AddDate(0, 0, -30)
	}
	if end.IsZero() {
		end = time.Now().UTC()
	}

	query := url.Values{}
	query.Set("start", start.UTC().Format(time.RFC3339))
	query.Set("end", end.UTC().Format(time.RFC3339))

	var resp sessionsResponse
	err := Retry(ctx, defaultMaxAttempts, func() error {
		return a.getJSON(ctx, "/api/v1/sessions/"+kind, query, &resp)
	})
	if err != nil {
		return nil, fmt.Errorf("reading %s sessions: %w", kind, err)
	}
	a.log.Debug("fetched provider sessions", "kind", kind, "count", len(resp.Sessions))
	return resp.Sessions, nil
}

// writeSessions uploads wire records for one session kind. The provider's
// write capability is re-checked against the last /status response; a
// provider that cannot accept writes fails fast with ErrWriteUnsupported.
func (a *Adapter) writeSessions(ctx context.Context, kind string, wire []wireSession) error {
	a.mu.Lock()
	unsupported := a.statusChecked && !a.writeSupported
	a.mu.Unlock()
	if unsupported {
		return fmt.Errorf("writing %s sessions: %w", kind, model.ErrWriteUnsupported)
	}

	body, err := json.Marshal(sessionsResponse{Sessions: wire})
	if err != nil {
		return fmt.Errorf("encoding %s sessions: %w", kind, err)
	}

	err = Retry(ctx, defaultMaxAttempts, func() error {
		return a.post(ctx, "/api/v1/sessions/"+kind, body)
	})
	if err != nil {
		return fmt.Errorf("writing %s sessions: %w", kind, err)
	}
	a.log.Debug("uploaded provider sessions", "kind", kind, "count", len(wire))
	return nil
}

// getJSON performs an authenticated GET and decodes the JSON response.
func (a *Adapter) getJSON(ctx context.Context, path string, query url.Values, out any) error {
	endpoint := a.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+a.token)

	resp, err := a.hc.Do(req)
	if err != nil {
		return fmt.Errorf("execute request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if err := checkStatus(resp); err != nil {
		return err
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// post performs an authenticated POST with a JSON body.
func (a *Adapter) post(ctx context.Context, path string, body []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+a.token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := a.hc.Do(req)
	if err != nil {
		return fmt.Errorf("execute request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	return checkStatus(resp)
}

// checkStatus converts non-2xx responses into errors. 401/403 surface the
// permission sentinel so callers can distinguish auth failures from
// transport faults.
func checkStatus(resp *http.Response) error {
	switch {
	case resp.StatusCode < 300:
		return nil
	case resp.StatusCode == http.StatusUnauthorized, resp.StatusCode == http.StatusForbidden:
		return model.ErrPermissionDenied
	case resp.StatusCode == http.StatusBadRequest:
		var br struct {
			Message string `json:"message"`
		}
		_ = json.NewDecoder(io.LimitReader(resp.Body, 4096)).Decode(&br)
		if br.Message != "" {
			return errors.New(br.Message)
		}
		return fmt.Errorf("provider returned 400 Bad Request")
	default:
		return fmt.Errorf("provider returned unexpected status %d", resp.StatusCode)
	}
}
