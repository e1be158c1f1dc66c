package audit

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordWritesStructuredEntry(t *testing.T) {
	var buf bytes.Buffer
	al := NewLogger(slog.New(slog.NewJSONHandler(&buf, nil)))
	ctx := context.WithValue(context.Background(), chimw.RequestIDKey, "req-1")

	al.Record(ctx, Entry{
		Action:         "create",
		Resource:       "content",
		ResourceID:     "c1",
		OrganizationID: "org-1",
		UserID:         "u1",
		Status:         "201",
	})

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "audit", line["msg"])
	assert.Equal(t, "audit", line["component"])
	assert.Equal(t, "create", line["action"])
	assert.Equal(t, "content", line["resource"])
	assert.Equal(t, "org-1", line["organization_id"])
	assert.Equal(t, "req-1", line["request_id"])
}

func TestLogDenied(t *testing.T) {
	var buf bytes.Buffer
	al := NewLogger(slog.New(slog.NewJSONHandler(&buf, nil)))

	al.LogDenied(context.Background(), "org-1", "", "rate limit exceeded")

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "access_denied", line["action"])
	assert.Equal(t, "denied", line["status"])
	assert.Equal(t, "rate limit exceeded", line["details"])
}
