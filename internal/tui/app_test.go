package tui

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fentz26/jobreg/internal/config"
	"github.com/fentz26/jobreg/internal/models"
	"github.com/fentz26/jobreg/internal/store"
)

const aliceDN = "/DC=org/DC=example/CN=Alice"

func newTestApp(t *testing.T, opts Options, entries ...models.Entry) *App {
	t.Helper()
	reg, err := store.New(filepath.Join(t.TempDir(), "registry.db"))
	require.NoError(t, err)
	t.Cleanup(func() { reg.Close() })
	for i := range entries {
		require.NoError(t, reg.AddEntry(context.Background(), &entries[i], aliceDN))
	}
	opts.Hash = store.SubjectHash(aliceDN)
	return New(reg, opts)
}

func loadInto(t *testing.T, a *App) {
	t.Helper()
	msg := a.load()()
	loaded, ok := msg.(loadedMsg)
	require.True(t, ok)
	require.NoError(t, loaded.err)
	a.Update(loaded)
}

func TestApp_LoadsMatches(t *testing.T) {
	a := newTestApp(t, Options{Status: int(models.JobStatusRunning)},
		models.Entry{BatchID: "1.0", Status: models.JobStatusRunning, WorkerNode: "wn01"},
		models.Entry{BatchID: "2.0", Status: models.JobStatusIdle},
		models.Entry{BatchID: "3.0", Status: models.JobStatusRunning},
	)
	loadInto(t, a)

	items := a.list.Items()
	require.Len(t, items, 2)
	first := items[0].(entryItem)
	assert.Equal(t, "1. 1.0", first.Title())
	assert.Contains(t, first.Description(), "RUNNING")
	assert.Contains(t, first.Description(), "wn01")
	assert.Equal(t, "2. 3.0", items[1].(entryItem).Title())
	assert.Equal(t, "2 matching entries", a.message)
}

func TestApp_StatusNamesFromConfig(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.StatusNames[2] = "on-cpu"
	a := newTestApp(t, Options{Config: cfg}, models.Entry{Status: models.JobStatusRunning})
	loadInto(t, a)

	item := a.list.Items()[0].(entryItem)
	assert.True(t, strings.HasPrefix(item.Description(), "on-cpu"))
}

func TestApp_DetailShowsAttributesAndTemplate(t *testing.T) {
	a := newTestApp(t, Options{Templates: []string{"node=%s", "WorkerNode"}},
		models.Entry{BatchID: "7.0", WorkerNode: "wn07"},
	)
	loadInto(t, a)

	a.Update(tea.KeyMsg{Type: tea.KeyEnter})
	require.Equal(t, "detail", a.mode)

	item := a.list.Items()[0].(entryItem)
	assert.Equal(t, "node=wn07", item.rendered)
	detail := a.detail(item)
	assert.Contains(t, detail, `"7.0"`)
	assert.Contains(t, detail, "node=wn07")

	a.Update(tea.KeyMsg{Type: tea.KeyEsc})
	assert.Equal(t, "list", a.mode)
}

func TestApp_QuitKey(t *testing.T) {
	a := newTestApp(t, Options{})
	_, cmd := a.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	require.NotNil(t, cmd)
	assert.Equal(t, tea.Quit(), cmd())
}

func TestWatch_SignalsOnWrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "registry.db")
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o600))

	ctx, cancel := context.WithCancel(context.Background())
	ch, err := Watch(ctx, path)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(path, []byte("xy"), 0o600))
	select {
	case <-ch:
	case <-time.After(5 * time.Second):
		t.Fatal("no change signalled")
	}

	cancel()
	for range ch {
	}
}
