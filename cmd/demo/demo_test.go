package main

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v3"

	"github.com/wricardo/agent-office/api"
	"github.com/wricardo/agent-office/game/config"
	"github.com/wricardo/agent-office/game/service"
	"github.com/wricardo/agent-office/game/session"
)

func newTestServer(t *testing.T) (*httptest.Server, service.OfficeService) {
	t.Helper()
	configs, err := config.NewManager(t.TempDir())
	require.NoError(t, err)
	sessions := session.NewManager(session.WithCatalog(configs.Catalog()))
	t.Cleanup(sessions.StopAll)

	svc := service.NewOfficeService(sessions, configs)
	ts := httptest.NewServer(api.NewServer(svc, nil))
	t.Cleanup(ts.Close)
	return ts, svc
}

func TestNextIsDeterministic(t *testing.T) {
	a, b := NewDemo("http://unused", 42), NewDemo("http://unused", 42)
	a.agents, b.agents = []int{1, 2, 3}, []int{1, 2, 3}

	for i := 0; i < 20; i++ {
		assert.Equal(t, a.Next().String(), b.Next().String())
	}
}

func TestNextActivatesIdleAgents(t *testing.T) {
	d := NewDemo("http://unused", 7)
	d.agents = []int{5}

	ev := d.Next()
	require.NotNil(t, ev.Active)
	assert.True(t, *ev.Active)
	require.NotNil(t, ev.Tool)
	assert.Contains(t, tools, *ev.Tool)

	d.active[5] = true
	sawStop := false
	for i := 0; i < 100; i++ {
		ev := d.Next()
		require.NotNil(t, ev.Tool)
		if ev.Active != nil {
			assert.False(t, *ev.Active)
			assert.Empty(t, *ev.Tool)
			sawStop = true
		}
	}
	assert.True(t, sawStop, "expected working agents to stop sometimes")
}

func TestSetupAndStep(t *testing.T) {
	ts, svc := newTestServer(t)
	ctx := context.Background()

	d := NewDemo(ts.URL, 1)
	require.NoError(t, d.Setup(ctx, "", "", 3))
	require.NotEmpty(t, d.OfficeID())

	info, err := svc.GetOffice(ctx, d.OfficeID())
	require.NoError(t, err)
	assert.Len(t, info.Agents, 3)

	ev, err := d.Step(ctx)
	require.NoError(t, err)

	view, err := svc.SetAgentTool(ctx, d.OfficeID(), ev.Agent, *ev.Tool)
	require.NoError(t, err)
	assert.True(t, view.Active)

	// reusing the office keeps the existing agents
	again := NewDemo(ts.URL, 2)
	require.NoError(t, again.Setup(ctx, d.OfficeID(), "", 4))
	info, err = svc.GetOffice(ctx, d.OfficeID())
	require.NoError(t, err)
	assert.Len(t, info.Agents, 4)
}

func TestSetupErrors(t *testing.T) {
	ts, _ := newTestServer(t)

	err := NewDemo(ts.URL, 1).Setup(context.Background(), "", "no-such-layout", 1)
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr), "expected APIError, got %v", err)
	assert.Equal(t, http.StatusNotFound, apiErr.Status)

	err = NewDemo(ts.URL, 1).Setup(context.Background(), "missing", "", 1)
	require.True(t, errors.As(err, &apiErr), "expected APIError, got %v", err)
	assert.Equal(t, http.StatusNotFound, apiErr.Status)
}

func TestCommandRunsLimitedEvents(t *testing.T) {
	ts, svc := newTestServer(t)

	var out bytes.Buffer
	cmd := newCommand()
	cmd.Writer = &out
	cmd.ExitErrHandler = func(context.Context, *cli.Command, error) {}

	err := cmd.Run(context.Background(), []string{
		"demo", "--server", ts.URL, "--agents", "2", "--events", "3", "--interval", "1ms", "--seed", "9",
	})
	require.NoError(t, err)
	assert.Contains(t, out.String(), "Driving office")

	offices, err := svc.ListOffices(context.Background())
	require.NoError(t, err)
	require.Len(t, offices, 1)
	assert.Len(t, offices[0].Agents, 2)
	assert.True(t, strings.Contains(out.String(), offices[0].ID))
}

func TestRunStopsOnCancel(t *testing.T) {
	ts, _ := newTestServer(t)
	d := NewDemo(ts.URL, 3)
	require.NoError(t, d.Setup(context.Background(), "", "", 1))

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	assert.NoError(t, d.Run(ctx, time.Hour, 0))
}
