package catalog

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/logsift/logsift/internal/config"
)

func TestNewWatcherValidation(t *testing.T) {
	_, err := NewWatcher(WatcherConfig{}, func(*Registry) error { return nil })
	assert.Error(t, err, "empty path rejected")

	_, err = NewWatcher(WatcherConfig{Path: "catalog.json"}, nil)
	assert.Error(t, err, "nil callback rejected")
}

func TestWatcherInitialLoadFailure(t *testing.T) {
	w, err := NewWatcher(WatcherConfig{
		Path:    filepath.Join(t.TempDir(), "absent.json"),
		Matcher: config.Default(),
	}, func(*Registry) error { return nil })
	require.NoError(t, err)

	err = w.Start(context.Background())
	assert.Error(t, err)
	assert.NoError(t, w.Stop())
}

func TestWatcherReloadsOnCatalogChange(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "catalog.json")

	reg := NewRegistry(config.Default())
	reg.Add(Template{TemplateID: 1, Pattern: `boot (\w+)`})
	require.NoError(t, SaveReadable(path, reg))

	reloads := make(chan *Registry, 8)
	w, err := NewWatcher(WatcherConfig{
		Path:     path,
		Matcher:  config.Default(),
		Debounce: 50 * time.Millisecond,
	}, func(r *Registry) error {
		reloads <- r
		return nil
	})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, w.Start(ctx))
	defer func() { _ = w.Stop() }()

	// Initial load is delivered synchronously by Start
	initial := <-reloads
	assert.Equal(t, 1, initial.Snapshot().Len())

	// Grow the catalog on disk; the watcher should deliver the new state
	reg.Add(Template{TemplateID: 2, Pattern: `shutdown (\w+)`})
	require.NoError(t, SaveReadable(path, reg))

	select {
	case reloaded := <-reloads:
		assert.Equal(t, 2, reloaded.Snapshot().Len())
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for catalog reload")
	}
}

func TestWatcherKeepsPreviousCatalogOnBadReload(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "catalog.json")

	reg := NewRegistry(config.Default())
	reg.Add(Template{TemplateID: 1, Pattern: `boot (\w+)`})
	require.NoError(t, SaveReadable(path, reg))

	reloads := make(chan *Registry, 8)
	w, err := NewWatcher(WatcherConfig{
		Path:     path,
		Matcher:  config.Default(),
		Debounce: 50 * time.Millisecond,
	}, func(r *Registry) error {
		reloads <- r
		return nil
	})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, w.Start(ctx))
	defer func() { _ = w.Stop() }()

	<-reloads // initial load

	// Corrupt the catalog: no reload callback should fire
	require.NoError(t, writeFileAtomic(path, []byte("not json")))

	select {
	case <-reloads:
		t.Fatal("corrupt catalog must not reach the callback")
	case <-time.After(1 * time.Second):
	}

	// A valid catalog written afterwards recovers the watcher
	reg.Add(Template{TemplateID: 2, Pattern: `shutdown (\w+)`})
	require.NoError(t, SaveReadable(path, reg))

	select {
	case reloaded := <-reloads:
		assert.Equal(t, 2, reloaded.Snapshot().Len())
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for recovery reload")
	}
}
