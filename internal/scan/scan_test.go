package scan

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/fentz26/jobreg/internal/classad"
	"github.com/fentz26/jobreg/internal/models"
	"github.com/fentz26/jobreg/internal/store"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

const aliceDN = "/DC=org/DC=example/CN=Alice"

var aliceHash = store.SubjectHash(aliceDN)

func newRegistry(t *testing.T, entries ...models.Entry) *store.Store {
	t.Helper()
	reg, err := store.New(filepath.Join(t.TempDir(), "registry.db"))
	require.NoError(t, err)
	t.Cleanup(func() { reg.Close() })

	for i := range entries {
		require.NoError(t, reg.AddEntry(context.Background(), &entries[i], aliceDN))
	}
	return reg
}

func run(t *testing.T, reg *store.Store, opts Options) (string, Result, error) {
	t.Helper()
	var out bytes.Buffer
	opts.Out = &out
	if opts.Hash == "" {
		opts.Hash = aliceHash
	}
	res, err := Run(context.Background(), reg, opts)
	return out.String(), res, err
}

func TestRun_StringAttribute(t *testing.T) {
	reg := newRegistry(t, models.Entry{Status: models.JobStatusIdle, WorkerNode: "alice"})

	out, res, err := run(t, reg, Options{Templates: []string{"%s", "WorkerNode"}})
	require.NoError(t, err)
	assert.Equal(t, "alice", out)
	assert.Equal(t, Result{Matched: 1, Rendered: 1}, res)
}

func TestRun_StatusFilterExcludes(t *testing.T) {
	reg := newRegistry(t, models.Entry{Status: models.JobStatusIdle, WorkerNode: "alice"})

	out, res, err := run(t, reg, Options{Status: 2, Templates: []string{"%s", "WorkerNode"}})
	require.NoError(t, err)
	assert.Empty(t, out)
	assert.Zero(t, res.Matched)
}

func TestRun_Ordinal(t *testing.T) {
	reg := newRegistry(t,
		models.Entry{Status: models.JobStatusIdle},
		models.Entry{Status: models.JobStatusIdle},
		models.Entry{Status: models.JobStatusIdle},
	)

	out, _, err := run(t, reg, Options{Templates: []string{`%d\n`, "Njob"}})
	require.NoError(t, err)
	assert.Equal(t, "1\n2\n3\n", out)
}

func TestRun_OrdinalCountsFilteredMatchesOnly(t *testing.T) {
	reg := newRegistry(t,
		models.Entry{Status: models.JobStatusIdle, BatchID: "a"},
		models.Entry{Status: models.JobStatusRunning, BatchID: "b"},
		models.Entry{Status: models.JobStatusIdle, BatchID: "c"},
	)

	out, res, err := run(t, reg, Options{
		Status:    int(models.JobStatusIdle),
		Templates: []string{"%d:", "Njob", `%s\n`, "BatchJobId"},
	})
	require.NoError(t, err)
	assert.Equal(t, "1:a\n2:c\n", out)
	assert.Equal(t, 2, res.Matched)
}

func TestRun_MultiDirectiveSkipped(t *testing.T) {
	reg := newRegistry(t, models.Entry{Status: models.JobStatusIdle, WorkerNode: "alice"})

	out, res, err := run(t, reg, Options{Templates: []string{"%s %d", "WorkerNode"}})
	require.NoError(t, err)
	assert.Empty(t, out)
	assert.Equal(t, 1, res.Rendered)
}

func TestRun_Raw(t *testing.T) {
	e := models.Entry{BatchID: "42.0", Status: models.JobStatusRunning}
	reg := newRegistry(t, e, models.Entry{BatchID: "43.0"})

	out, res, err := run(t, reg, Options{})
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSuffix(out, "\n"), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, 2, res.Rendered)

	ad, err := classad.Parse(lines[0])
	require.NoError(t, err)
	id, _ := ad.String(classad.AttrBatchJobID)
	assert.Equal(t, "42.0", id)
	status, _ := ad.Int(classad.AttrJobStatus)
	assert.Equal(t, int64(models.JobStatusRunning), status)
}

func TestRun_LookupMiss(t *testing.T) {
	reg := newRegistry(t)

	_, _, err := run(t, reg, Options{Hash: store.SubjectHash("/CN=Nobody")})
	require.Error(t, err)
	assert.True(t, IsKind(err, KindLookupMiss))
	assert.Equal(t, 5, ExitCode(err))
	assert.Contains(t, err.Error(), reg.Path())
}

func TestRun_MissingHash(t *testing.T) {
	reg := newRegistry(t)
	_, err := Run(context.Background(), reg, Options{})
	assert.True(t, IsKind(err, KindUsage))
	assert.Equal(t, 1, ExitCode(err))
}

func TestRun_SubjectMismatchWarns(t *testing.T) {
	reg := newRegistry(t, models.Entry{WorkerNode: "wn"})
	core, logs := observer.New(zapcore.WarnLevel)

	out, _, err := run(t, reg, Options{
		Subject:   "/CN=Someone Else",
		Templates: []string{"%s", "WorkerNode"},
		Logger:    zap.New(core),
	})
	require.NoError(t, err)
	assert.Equal(t, "wn", out)

	entries := logs.FilterMessage("Cached subject differs from the requested subject").All()
	require.Len(t, entries, 1)
	assert.Equal(t, aliceDN, entries[0].ContextMap()["cached"])
}

func TestRun_SubjectMatchDoesNotWarn(t *testing.T) {
	reg := newRegistry(t, models.Entry{})
	core, logs := observer.New(zapcore.WarnLevel)

	_, _, err := run(t, reg, Options{Subject: aliceDN, Logger: zap.New(core)})
	require.NoError(t, err)
	assert.Zero(t, logs.Len())
}

func TestRun_ParseFailureSkipsRecord(t *testing.T) {
	reg := newRegistry(t, models.Entry{BatchID: "bad"}, models.Entry{BatchID: "good"})

	orig := parseRecord
	t.Cleanup(func() { parseRecord = orig })
	parseRecord = func(text string) (*classad.Ad, error) {
		if strings.Contains(text, `"bad"`) {
			return nil, classad.ErrSyntax
		}
		return orig(text)
	}

	core, logs := observer.New(zapcore.WarnLevel)
	out, res, err := run(t, reg, Options{
		Templates: []string{"%d=", "Njob", `%s\n`, "BatchJobId"},
		Logger:    zap.New(core),
	})
	require.NoError(t, err)
	// The skipped record still took ordinal 1.
	assert.Equal(t, "2=good\n", out)
	assert.Equal(t, Result{Matched: 2, Rendered: 1, Skipped: 1}, res)
	assert.Equal(t, 1, logs.FilterMessage("Cannot parse classad").Len())
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, errors.New("disk full") }

func TestRun_WriteFailureIsFatal(t *testing.T) {
	reg := newRegistry(t, models.Entry{})

	_, err := Run(context.Background(), reg, Options{Hash: aliceHash, Out: failingWriter{}})
	require.Error(t, err)
	assert.True(t, IsKind(err, KindFatal))
	assert.Equal(t, 3, ExitCode(err))

	// The read lock was released: a write goes through.
	require.NoError(t, reg.AddEntry(context.Background(), &models.Entry{}, aliceDN))
}

func TestWalk_StopsOnCallbackError(t *testing.T) {
	reg := newRegistry(t, models.Entry{}, models.Entry{})

	stop := errors.New("stop")
	calls := 0
	err := Walk(context.Background(), reg, aliceHash, 0, func(m Match) error {
		calls++
		return stop
	})
	assert.ErrorIs(t, err, stop)
	assert.Equal(t, 1, calls)
}

func TestExitCode(t *testing.T) {
	assert.Equal(t, 0, ExitCode(nil))
	assert.Equal(t, 1, ExitCode(errors.New("plain")))
	assert.Equal(t, 2, ExitCode(Errorf(KindResource, "x")))
	assert.Equal(t, "lookup-miss", KindLookupMiss.String())
}
