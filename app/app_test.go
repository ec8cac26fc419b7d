package app

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

type recorder struct {
	mu    sync.Mutex
	calls []string
}

func (r *recorder) add(s string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, s)
}

func (r *recorder) list() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.calls...)
}

func hook(rec *recorder, name string, startErr error) Hook {
	return Hook{
		Name: name,
		OnStart: func(context.Context) error {
			rec.add("start " + name)
			return startErr
		},
		OnStop: func(context.Context) error {
			rec.add("stop " + name)
			return nil
		},
	}
}

func TestLifecycleOrder(t *testing.T) {
	rec := &recorder{}
	lc := NewLifecycle(quietLogger())
	lc.Append(hook(rec, "a", nil))
	lc.Append(hook(rec, "b", nil))

	require.NoError(t, lc.Start(context.Background()))
	require.NoError(t, lc.Stop(context.Background()))
	assert.Equal(t, []string{"start a", "start b", "stop b", "stop a"}, rec.list())

	// 再次 Stop 不会重复停止
	require.NoError(t, lc.Stop(context.Background()))
	assert.Len(t, rec.list(), 4)
}

func TestLifecycleRollsBackOnStartFailure(t *testing.T) {
	rec := &recorder{}
	boom := errors.New("boom")
	lc := NewLifecycle(quietLogger())
	lc.Append(hook(rec, "a", nil))
	lc.Append(hook(rec, "b", boom))
	lc.Append(hook(rec, "c", nil))

	err := lc.Start(context.Background())
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, []string{"start a", "start b", "stop a"}, rec.list())
}

type fakeServer struct {
	rec      *recorder
	startErr error
}

func (s *fakeServer) Start(ctx context.Context) error {
	s.rec.add("serve")
	if s.startErr != nil {
		return s.startErr
	}
	<-ctx.Done()
	return nil
}

func (s *fakeServer) Stop(context.Context) error {
	s.rec.add("server stop")
	return nil
}

func TestAppRunAndShutdown(t *testing.T) {
	rec := &recorder{}
	a := New("test", quietLogger(),
		WithServer(&fakeServer{rec: rec}),
		WithHook(hook(rec, "cache", nil)),
		WithCleanup(func() { rec.add("cleanup") }),
		WithShutdownTimeout(time.Second),
	)

	done := make(chan error, 1)
	go func() { done <- a.Run() }()

	require.Eventually(t, func() bool {
		return len(rec.list()) >= 2
	}, time.Second, 5*time.Millisecond)
	a.Shutdown()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after Shutdown")
	}
	assert.Equal(t, []string{"start cache", "serve", "server stop", "stop cache", "cleanup"}, rec.list())
}

func TestAppRunReturnsServerError(t *testing.T) {
	rec := &recorder{}
	boom := errors.New("listen failed")
	a := New("test", quietLogger(), WithServer(&fakeServer{rec: rec, startErr: boom}))

	done := make(chan error, 1)
	go func() { done <- a.Run() }()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, boom)
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after server failure")
	}
}

func TestAppRunStopsWhenHookFails(t *testing.T) {
	rec := &recorder{}
	boom := errors.New("boom")
	a := New("test", quietLogger(),
		WithHook(hook(rec, "broken", boom)),
		WithServer(&fakeServer{rec: rec}),
		WithCleanup(func() { rec.add("cleanup") }),
	)

	assert.ErrorIs(t, a.Run(), boom)
	assert.Equal(t, []string{"start broken", "cleanup"}, rec.list())
}
