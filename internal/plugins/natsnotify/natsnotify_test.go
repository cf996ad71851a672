package natsnotify

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/makeomatic/internal/config"
	"git.home.luguber.info/inful/makeomatic/internal/engine"
	"git.home.luguber.info/inful/makeomatic/internal/process"
)

type fakeConn struct {
	subject string
	data    []byte
	flushed bool
	closed  bool
	pubErr  error
}

func (f *fakeConn) Publish(subject string, data []byte) error {
	if f.pubErr != nil {
		return f.pubErr
	}
	f.subject = subject
	f.data = data
	return nil
}

func (f *fakeConn) FlushTimeout(time.Duration) error { f.flushed = true; return nil }

func (f *fakeConn) Close() { f.closed = true }

func connector(conn *fakeConn, gotURL *string) Connector {
	return func(url string, _ ...nats.Option) (Publisher, error) {
		*gotURL = url
		return conn, nil
	}
}

func runWith(t *testing.T, p *Plugin, notify bool) *process.Context {
	t.Helper()
	settings := config.DefaultSettings()
	settings.ProjectSteps = nil
	settings.ConfigurationSteps = nil
	settings.NotificationsEnabled = notify
	root := engine.NewNode("nightly", engine.KindBuild)
	root.SetBaseDir(t.TempDir())
	root.AddPlugin(p)
	proc := process.New()
	require.NoError(t, engine.New(&settings, proc, engine.WithBuildID("b-7")).Run(t.Context(), root))
	return proc
}

func TestNotifyPublishesSummary(t *testing.T) {
	conn := &fakeConn{}
	var url string
	p, err := NewPlugin(Options{URL: "nats://ci:4222", Subject: "ci.builds"}, connector(conn, &url))
	require.NoError(t, err)

	runWith(t, p, true)

	assert.Equal(t, "nats://ci:4222", url)
	assert.Equal(t, "ci.builds", conn.subject)
	assert.True(t, conn.flushed)
	assert.True(t, conn.closed)

	var s Summary
	require.NoError(t, json.Unmarshal(conn.data, &s))
	assert.Equal(t, "b-7", s.BuildID)
	assert.Equal(t, "nightly", s.Build)
	assert.Equal(t, "m", s.BuildType)
	assert.Equal(t, 0, s.ReturnCode)
	assert.Equal(t, "success", s.Outcome)
	assert.Empty(t, s.FailedSteps)
}

func TestNotifySkippedWhenDisabled(t *testing.T) {
	conn := &fakeConn{}
	var url string
	p, err := NewPlugin(Options{}, connector(conn, &url))
	require.NoError(t, err)

	runWith(t, p, false)

	assert.Empty(t, url)
	assert.Nil(t, conn.data)
}

func TestPublishFailureDoesNotFailBuild(t *testing.T) {
	conn := &fakeConn{pubErr: errors.New("no responders")}
	var url string
	p, err := NewPlugin(Options{}, connector(conn, &url))
	require.NoError(t, err)

	proc := runWith(t, p, true)

	assert.Equal(t, 0, proc.ReturnCode())
	assert.True(t, conn.closed)
}

func TestNewPluginDefaults(t *testing.T) {
	p, err := NewPlugin(Options{}, nil)
	require.NoError(t, err)
	assert.Equal(t, defaultSubject, p.Subject())
	assert.Equal(t, nats.DefaultURL, p.opts.URL)
	assert.Equal(t, defaultTimeout, p.opts.Timeout.Std())
	assert.NotNil(t, p.connect)
	assert.Equal(t, Type, p.Name())
}

func TestNewPluginRejectsBadSubject(t *testing.T) {
	_, err := NewPlugin(Options{Subject: "ci builds"}, nil)
	require.Error(t, err)
}

func TestNotifyIgnoresNonRoot(t *testing.T) {
	conn := &fakeConn{}
	var url string
	p, err := NewPlugin(Options{}, connector(conn, &url))
	require.NoError(t, err)
	root := engine.NewNode("b", engine.KindBuild)
	child := engine.NewNode("p", engine.KindProject)
	require.NoError(t, root.AddChild(child))
	require.NoError(t, p.Notify(context.Background(), &engine.HookContext{Node: child}))
	assert.Empty(t, url)
}
