package observability

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestContextValuesAccumulate(t *testing.T) {
	ctx := WithBuildID(context.Background(), "build-123")
	ctx = WithNode(ctx, "build/project")
	ctx = WithPhase(ctx, "execute")
	ctx = WithStep(ctx, "project-checkout")

	lc := GetContext(ctx)
	assert.Equal(t, "build-123", lc.BuildID)
	assert.Equal(t, "build/project", lc.Node)
	assert.Equal(t, "execute", lc.Phase)
	assert.Equal(t, "project-checkout", lc.Step)
}

func TestChildContextDoesNotLeakIntoParent(t *testing.T) {
	parent := WithPhase(context.Background(), "setup")
	child := WithNode(parent, "build/project/debug")

	assert.Empty(t, GetContext(parent).Node)
	assert.Equal(t, "setup", GetContext(child).Phase)
}

func TestEmptyContext(t *testing.T) {
	assert.Equal(t, LogContext{}, GetContext(context.Background()))
}

func TestInfoContextEmitsContextAttributes(t *testing.T) {
	var buf bytes.Buffer
	prev := slog.Default()
	slog.SetDefault(slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})))
	t.Cleanup(func() { slog.SetDefault(prev) })

	ctx := WithBuildID(context.Background(), "b-1")
	ctx = WithPhase(ctx, "report")
	InfoContext(ctx, "hello", slog.String("extra", "x"))

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, "hello", rec["msg"])
	assert.Equal(t, "b-1", rec["build_id"])
	assert.Equal(t, "report", rec["phase"])
	assert.Equal(t, "x", rec["extra"])
	assert.NotContains(t, rec, "node")
}
