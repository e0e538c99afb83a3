package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/edvin/hostpanel/internal/model"
)

// maxAuditBody caps how much of a request body is kept in an audit entry.
const maxAuditBody = 16 << 10

// AuditRecorder persists audit entries; satisfied by *core.AuditLogService.
type AuditRecorder interface {
	Record(ctx context.Context, entry *model.AuditLog) error
}

// AuditLogger is an async audit log writer.
type AuditLogger struct {
	recorder AuditRecorder
	logger   zerolog.Logger
	ch       chan *model.AuditLog
	done     chan struct{}
	once     sync.Once
}

func NewAuditLogger(recorder AuditRecorder, logger zerolog.Logger) *AuditLogger {
	al := &AuditLogger{
		recorder: recorder,
		logger:   logger.With().Str("component", "audit").Logger(),
		ch:       make(chan *model.AuditLog, 1024),
		done:     make(chan struct{}),
	}
	go al.drain()
	return al
}

func (al *AuditLogger) drain() {
	defer close(al.done)
	for entry := range al.ch {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := al.recorder.Record(ctx, entry); err != nil {
			al.logger.Error().Err(err).Str("path", entry.Path).Msg("failed to write audit log")
		}
		cancel()
	}
}

// Close stops accepting entries and waits for queued ones to be written.
func (al *AuditLogger) Close() {
	al.once.Do(func() { close(al.ch) })
	<-al.done
}

// Middleware records mutating requests after they complete. It must run
// inside Authenticate so the caller is known.
func (al *AuditLogger) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
		default:
			next.ServeHTTP(w, r)
			return
		}

		var body []byte
		if r.Body != nil && !strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/") {
			body, _ = io.ReadAll(io.LimitReader(r.Body, maxAuditBody+1))
			r.Body = io.NopCloser(io.MultiReader(bytes.NewReader(body), r.Body))
		}

		sw := wrapStatus(w)
		next.ServeHTTP(sw, r)

		entry := &model.AuditLog{
			RequestID:  middleware.GetReqID(r.Context()),
			Method:     r.Method,
			Path:       r.URL.Path,
			StatusCode: sw.status,
		}
		entry.ResourceType, entry.ResourceID = extractResource(r.URL.Path)
		if id := GetIdentity(r.Context()); id != nil {
			uid := id.User.ID
			entry.UserID = &uid
		}
		if len(body) > 0 && len(body) <= maxAuditBody && json.Valid(body) {
			entry.RequestBody = sanitizeBody(body)
		}

		select {
		case al.ch <- entry:
		default:
			al.logger.Warn().Msg("audit log buffer full, dropping entry")
		}
	})
}

// extractResource takes the first path segment under /api/ as the resource
// type and the first numeric segment after it as the resource ID.
//
//	/api/domains          -> domains
//	/api/domains/7/zone   -> domains, 7
//	/api/auth/2fa/verify  -> auth
func extractResource(path string) (*string, *string) {
	parts := strings.Split(strings.Trim(strings.TrimPrefix(path, "/api/"), "/"), "/")
	if len(parts) == 0 || parts[0] == "" {
		return nil, nil
	}
	resourceType := parts[0]
	for _, p := range parts[1:] {
		if _, err := strconv.ParseInt(p, 10, 64); err == nil {
			id := p
			return &resourceType, &id
		}
	}
	return &resourceType, nil
}

// sensitiveFields are redacted from stored request bodies.
var sensitiveFields = map[string]bool{
	"password": true, "currentPassword": true, "newPassword": true,
	"privateKey": true, "certificate": true, "secret": true,
	"token": true, "twoFactorToken": true, "key": true, "apiKey": true,
}

func sanitizeBody(body []byte) json.RawMessage {
	var data map[string]any
	if err := json.Unmarshal(body, &data); err != nil {
		// Arrays and scalars carry no named credentials.
		return body
	}
	for k := range data {
		if sensitiveFields[k] {
			data[k] = "[REDACTED]"
		}
	}
	sanitized, _ := json.Marshal(data)
	return sanitized
}
