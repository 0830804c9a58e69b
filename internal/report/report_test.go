package report

import (
	"archive/tar"
	"compress/gzip"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"evalgo.org/rmlconformance/internal/compare"
	"evalgo.org/rmlconformance/internal/domain"
	"evalgo.org/rmlconformance/internal/rdfio"
)

func dataset(t *testing.T, nq string) *rdfio.Dataset {
	t.Helper()
	d, err := rdfio.DecodeDataset(strings.NewReader(nq))
	require.NoError(t, err)
	return d
}

func TestDiff(t *testing.T) {
	produced := dataset(t, `<http://e/a> <http://e/p> "1" .
<http://e/a> <http://e/p> "2" .
<http://e/b> <http://e/p> "3" <http://e/g1> .
`)
	reference := dataset(t, `<http://e/a> <http://e/p> "1" .
<http://e/a> <http://e/p> "9" .
<http://e/c> <http://e/p> "4" <http://e/g2> .
`)

	diffs := Diff(produced, reference)
	require.Len(t, diffs, 3)

	assert.Equal(t, rdfio.DefaultGraphKey, diffs[0].Graph)
	require.Len(t, diffs[0].OnlyInProduced, 1)
	require.Len(t, diffs[0].OnlyInReference, 1)
	assert.Equal(t, "2", diffs[0].OnlyInProduced[0].Obj.String())
	assert.Equal(t, "9", diffs[0].OnlyInReference[0].Obj.String())

	assert.Equal(t, "<http://e/g1>", diffs[1].Graph)
	assert.Len(t, diffs[1].OnlyInProduced, 1)
	assert.Empty(t, diffs[1].OnlyInReference)

	assert.Equal(t, "<http://e/g2>", diffs[2].Graph)
	assert.Empty(t, diffs[2].OnlyInProduced)
	assert.Len(t, diffs[2].OnlyInReference, 1)

	assert.True(t, Diff(reference, reference)[0].Empty())
}

func TestDiffReporter(t *testing.T) {
	produced := dataset(t, `<http://e/a> <http://e/p> "2" .`+"\n")
	reference := dataset(t, `<http://e/a> <http://e/p> "1" .`+"\n")
	failed := compare.Equivalent(produced, reference, compare.Options{})
	require.False(t, failed.Passed)

	sections := func(hook *test.Hook) map[string]int {
		out := make(map[string]int)
		for _, e := range hook.AllEntries() {
			if s, ok := e.Data["section"].(string); ok {
				out[s]++
			}
		}
		return out
	}

	t.Run("failing case", func(t *testing.T) {
		log, hook := test.NewNullLogger()
		tc := domain.TestCase{ID: "RMLTC0001a-CSV"}

		diffs := NewDiffReporter(log).Report(tc, produced, reference, failed)
		require.Len(t, diffs, 1)
		assert.Equal(t, map[string]int{
			SectionProducedOnly:  1,
			SectionReferenceOnly: 1,
			SectionProduced:      1,
			SectionReference:     1,
		}, sections(hook))
		for _, e := range hook.AllEntries() {
			assert.Equal(t, "RMLTC0001a-CSV", e.Data["test_case"])
		}
		assert.Equal(t, logrus.ErrorLevel, hook.AllEntries()[0].Level)
	})

	t.Run("ignore listed case", func(t *testing.T) {
		log, hook := test.NewNullLogger()
		tc := domain.TestCase{ID: "RMLTC0002a-CSV", IgnoreFail: true}
		assert.Nil(t, NewDiffReporter(log).Report(tc, produced, reference, failed))
		assert.Empty(t, hook.AllEntries())
	})

	t.Run("passing case", func(t *testing.T) {
		log, hook := test.NewNullLogger()
		ok := compare.Equivalent(reference, reference, compare.Options{})
		assert.Nil(t, NewDiffReporter(log).Report(domain.TestCase{ID: "x"}, reference, reference, ok))
		assert.Empty(t, hook.AllEntries())
	})
}

func TestStoreLifecycle(t *testing.T) {
	log, _ := test.NewNullLogger()
	store, err := NewStore(t.TempDir(), 0, log)
	require.NoError(t, err)

	run, err := store.StartRun(3, []string{"CSV"}, map[string]interface{}{"engine": "sh"})
	require.NoError(t, err)
	assert.Equal(t, RunRunning, run.Status)

	for _, rec := range []CaseRecord{
		{TestCase: "a-CSV", Format: "CSV", Status: CasePass},
		{TestCase: "b-CSV", Format: "CSV", Status: CaseFail, ErrorType: "conversion"},
		{TestCase: "c-CSV", Format: "CSV", Status: CaseIgnored},
	} {
		require.NoError(t, store.RecordCase(run.ID, rec))
	}
	require.NoError(t, store.CompleteRun(run.ID))
	assert.Error(t, store.RecordCase(run.ID, CaseRecord{}), "finished runs accept no cases")

	loaded, err := store.GetRun(run.ID)
	require.NoError(t, err)
	assert.Equal(t, RunFailed, loaded.Status)
	assert.Equal(t, 1, loaded.Passed)
	assert.Equal(t, 1, loaded.Failed)
	assert.Equal(t, 1, loaded.Ignored)
	assert.Equal(t, []int{0, 1, 2}, []int{loaded.Cases[0].Index, loaded.Cases[1].Index, loaded.Cases[2].Index})
	require.NotNil(t, loaded.EndTime)

	summary, err := store.GetDailySummary(run.StartTime.Format("2006-01-02"))
	require.NoError(t, err)
	assert.Equal(t, 1, summary.TotalRuns)
	assert.Equal(t, 1, summary.FailedRuns)
	assert.Equal(t, 3, summary.TotalCases)

	day := run.StartTime.Truncate(24 * time.Hour)
	stats, err := store.GetStatistics(day.AddDate(0, 0, -1), day.AddDate(0, 0, 1))
	require.NoError(t, err)
	assert.Equal(t, 1, stats.TotalRuns)
	assert.Equal(t, 3, stats.FormatCounts["CSV"])
	assert.Equal(t, map[string]int{"b-CSV": 1}, stats.FailingCases)
	assert.Equal(t, map[string]int{"conversion": 1}, stats.ErrorTypes)
	assert.InDelta(t, 50.0, stats.PassRate, 0.001)
}

func TestStoreAbortRun(t *testing.T) {
	log, _ := test.NewNullLogger()
	store, err := NewStore(t.TempDir(), 0, log)
	require.NoError(t, err)

	run, err := store.StartRun(0, nil, nil)
	require.NoError(t, err)
	require.NoError(t, store.AbortRun(run.ID, "catalog unreadable"))

	loaded, err := store.GetRun(run.ID)
	require.NoError(t, err)
	assert.Equal(t, RunAborted, loaded.Status)
	assert.Equal(t, "catalog unreadable", loaded.ErrorMessage)

	_, err = store.GetRun("missing")
	assert.Error(t, err)
}

func TestRotateOldLogs(t *testing.T) {
	log, _ := test.NewNullLogger()
	dir := t.TempDir()
	store, err := NewStore(dir, 0, log)
	require.NoError(t, err)

	old := filepath.Join(dir, "runs", "runs_2020-01-01.json")
	require.NoError(t, os.WriteFile(old, []byte(`{"date":"2020-01-01"}`), 0600))
	past := time.Now().AddDate(0, 0, -10)
	require.NoError(t, os.Chtimes(old, past, past))

	fresh := filepath.Join(dir, "runs", "runs_2099-01-01.json")
	require.NoError(t, os.WriteFile(fresh, []byte(`{}`), 0600))

	require.NoError(t, store.RotateOldLogs())

	_, err = os.Stat(old)
	assert.True(t, os.IsNotExist(err), "archived summary must be removed")
	_, err = os.Stat(fresh)
	assert.NoError(t, err)

	archives, err := filepath.Glob(filepath.Join(dir, "runs", "archive", "runs_*.tar.gz"))
	require.NoError(t, err)
	assert.Len(t, archives, 1)
}

func TestRotateOldLogsMergesWeek(t *testing.T) {
	log, _ := test.NewNullLogger()
	dir := t.TempDir()
	store, err := NewStore(dir, 0, log)
	require.NoError(t, err)

	// Both days fall into the same ISO week.
	monday := time.Now().AddDate(0, 0, -14)
	for monday.Weekday() != time.Monday {
		monday = monday.AddDate(0, 0, -1)
	}
	rotate := func(name string, mod time.Time) {
		path := filepath.Join(dir, "runs", name)
		require.NoError(t, os.WriteFile(path, []byte(`{}`), 0600))
		require.NoError(t, os.Chtimes(path, mod, mod))
		require.NoError(t, store.RotateOldLogs())
	}
	rotate("runs_a.json", monday)
	rotate("runs_b.json", monday.AddDate(0, 0, 1))

	archives, err := filepath.Glob(filepath.Join(dir, "runs", "archive", "runs_*.tar.gz"))
	require.NoError(t, err)
	require.Len(t, archives, 1)
	assert.Equal(t, []string{"runs_a.json", "runs_b.json"}, archiveNames(t, archives[0]))
}

func archiveNames(t *testing.T, path string) []string {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer func() { _ = f.Close() }()
	gz, err := gzip.NewReader(f)
	require.NoError(t, err)

	var names []string
	tr := tar.NewReader(gz)
	for {
		h, err := tr.Next()
		if err == io.EOF {
			return names
		}
		require.NoError(t, err)
		names = append(names, h.Name)
	}
}
