package report

import (
	"archive/tar"
	"compress/gzip"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"evalgo.org/rmlconformance/internal/helpers"
)

// DefaultRetentionDays is how long weekly archives are kept when no
// retention is configured.
const DefaultRetentionDays = 28

// Run statuses.
const (
	RunRunning = "running"
	RunPassed  = "passed"
	RunFailed  = "failed"
	RunAborted = "aborted"
)

// Case statuses as recorded in the history.
const (
	CasePass    = "pass"
	CaseFail    = "fail"
	CaseIgnored = "ignored"
)

// RunSession is the record of one suite run.
type RunSession struct {
	ID           string                 `json:"id"`
	StartTime    time.Time              `json:"start_time"`
	EndTime      *time.Time             `json:"end_time,omitempty"`
	Duration     int64                  `json:"duration_ms"`
	Status       string                 `json:"status"`
	Formats      []string               `json:"formats"`
	TotalCases   int                    `json:"total_cases"`
	Passed       int                    `json:"passed"`
	Failed       int                    `json:"failed"`
	Ignored      int                    `json:"ignored"`
	ErrorMessage string                 `json:"error_message,omitempty"`
	Cases        []CaseRecord           `json:"cases"`
	Metadata     map[string]interface{} `json:"metadata,omitempty"`
}

// CaseRecord is the record of one test case within a run.
type CaseRecord struct {
	Index        int       `json:"index"`
	TestCase     string    `json:"test_case"`
	Format       string    `json:"format"`
	StartTime    time.Time `json:"start_time"`
	Duration     int64     `json:"duration_ms"`
	ConversionMS int64     `json:"conversion_ms"`
	Status       string    `json:"status"`
	Graph        string    `json:"graph,omitempty"`
	Reason       string    `json:"reason,omitempty"`
	ErrorType    string    `json:"error_type,omitempty"`
	ErrorMessage string    `json:"error_message,omitempty"`
	ProducedFile string    `json:"produced_file,omitempty"`
	Quads        int       `json:"quads"`
}

// DailySummary aggregates the runs started on one day.
type DailySummary struct {
	Date         string       `json:"date"`
	TotalRuns    int          `json:"total_runs"`
	PassedRuns   int          `json:"passed_runs"`
	FailedRuns   int          `json:"failed_runs"`
	AbortedRuns  int          `json:"aborted_runs"`
	TotalCases   int          `json:"total_cases"`
	PassedCases  int          `json:"passed_cases"`
	FailedCases  int          `json:"failed_cases"`
	IgnoredCases int          `json:"ignored_cases"`
	AvgDuration  int64        `json:"avg_duration_ms"`
	Runs         []RunSession `json:"runs"`
}

// Store persists run sessions as JSON files below a data directory.
type Store struct {
	dataDir       string
	sessionsDir   string
	archiveDir    string
	mu            sync.RWMutex
	active        map[string]*RunSession
	retentionDays int
	log           logrus.FieldLogger
}

// NewStore creates the run history below dataDir.
func NewStore(dataDir string, retentionDays int, log logrus.FieldLogger) (*Store, error) {
	runsDir := filepath.Join(dataDir, "runs")
	sessionsDir := filepath.Join(runsDir, "sessions")
	archiveDir := filepath.Join(runsDir, "archive")

	if err := os.MkdirAll(sessionsDir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create sessions directory: %w", err)
	}
	if err := os.MkdirAll(archiveDir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create archive directory: %w", err)
	}

	return &Store{
		dataDir:       runsDir,
		sessionsDir:   sessionsDir,
		archiveDir:    archiveDir,
		active:        make(map[string]*RunSession),
		retentionDays: retentionDays,
		log:           log,
	}, nil
}

// StartRun creates a new running session.
func (s *Store) StartRun(totalCases int, formats []string, metadata map[string]interface{}) (*RunSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	run := &RunSession{
		ID:         uuid.New().String(),
		StartTime:  time.Now(),
		Status:     RunRunning,
		Formats:    formats,
		TotalCases: totalCases,
		Cases:      make([]CaseRecord, 0, totalCases),
		Metadata:   metadata,
	}
	s.active[run.ID] = run

	if err := s.saveSession(run); err != nil {
		return nil, err
	}
	return run, nil
}

// RecordCase appends the result of one test case to a running session.
func (s *Store) RecordCase(runID string, rec CaseRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	run, ok := s.active[runID]
	if !ok {
		return fmt.Errorf("run %s not found", runID)
	}

	rec.Index = len(run.Cases)
	run.Cases = append(run.Cases, rec)
	switch rec.Status {
	case CasePass:
		run.Passed++
	case CaseFail:
		run.Failed++
	case CaseIgnored:
		run.Ignored++
	}

	return s.saveSession(run)
}

// CompleteRun closes a session; it passed when no case failed.
func (s *Store) CompleteRun(runID string) error {
	return s.finish(runID, func(run *RunSession) {
		if run.Failed > 0 {
			run.Status = RunFailed
		} else {
			run.Status = RunPassed
		}
	})
}

// AbortRun closes a session that could not run to the end.
func (s *Store) AbortRun(runID, errorMessage string) error {
	return s.finish(runID, func(run *RunSession) {
		run.Status = RunAborted
		run.ErrorMessage = errorMessage
	})
}

func (s *Store) finish(runID string, settle func(*RunSession)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	run, ok := s.active[runID]
	if !ok {
		return fmt.Errorf("run %s not found", runID)
	}

	now := time.Now()
	run.EndTime = &now
	run.Duration = now.Sub(run.StartTime).Milliseconds()
	settle(run)

	if err := s.saveSession(run); err != nil {
		return err
	}
	if err := s.addToDailySummary(run); err != nil {
		return err
	}

	delete(s.active, runID)
	return nil
}

// GetRun retrieves a session by id.
func (s *Store) GetRun(runID string) (*RunSession, error) {
	s.mu.RLock()
	if run, ok := s.active[runID]; ok {
		s.mu.RUnlock()
		return run, nil
	}
	s.mu.RUnlock()

	data, err := os.ReadFile(filepath.Join(s.sessionsDir, runID+".json"))
	if err != nil {
		return nil, fmt.Errorf("run not found: %w", err)
	}

	var run RunSession
	if err := json.Unmarshal(data, &run); err != nil {
		return nil, fmt.Errorf("failed to parse run: %w", err)
	}
	return &run, nil
}

// GetDailySummary retrieves the summary of a date in YYYY-MM-DD form.
func (s *Store) GetDailySummary(date string) (*DailySummary, error) {
	data, err := os.ReadFile(s.summaryPath(date))
	if err != nil {
		if os.IsNotExist(err) {
			return &DailySummary{Date: date, Runs: []RunSession{}}, nil
		}
		return nil, fmt.Errorf("failed to read summary: %w", err)
	}

	var summary DailySummary
	if err := json.Unmarshal(data, &summary); err != nil {
		return nil, fmt.Errorf("failed to parse summary: %w", err)
	}
	return &summary, nil
}

func (s *Store) summaryPath(date string) string {
	return filepath.Join(s.dataDir, fmt.Sprintf("runs_%s.json", date))
}

func (s *Store) saveSession(run *RunSession) error {
	data, err := json.MarshalIndent(run, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal run: %w", err)
	}
	return helpers.WriteFileAtomic(filepath.Join(s.sessionsDir, run.ID+".json"), data, 0600)
}

// addToDailySummary folds a finished run into its day's summary. The summary
// file is shared between processes and guarded by a file lock.
func (s *Store) addToDailySummary(run *RunSession) error {
	date := run.StartTime.Format("2006-01-02")

	lock := flock.New(filepath.Join(s.dataDir, ".runs.lock"))
	if err := lock.Lock(); err != nil {
		return fmt.Errorf("failed to acquire lock: %w", err)
	}
	defer func() { _ = lock.Unlock() }()

	summary, err := s.GetDailySummary(date)
	if err != nil {
		return err
	}

	summary.Runs = append(summary.Runs, *run)
	summary.TotalRuns++
	summary.TotalCases += run.TotalCases
	summary.PassedCases += run.Passed
	summary.FailedCases += run.Failed
	summary.IgnoredCases += run.Ignored

	switch run.Status {
	case RunPassed:
		summary.PassedRuns++
	case RunFailed:
		summary.FailedRuns++
	case RunAborted:
		summary.AbortedRuns++
	}

	var total int64
	for _, r := range summary.Runs {
		total += r.Duration
	}
	summary.AvgDuration = total / int64(len(summary.Runs))

	data, err := json.MarshalIndent(summary, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal summary: %w", err)
	}
	return helpers.WriteFileAtomic(s.summaryPath(date), data, 0600)
}

// RunsInDateRange returns every finished run started between the two dates,
// inclusive.
func (s *Store) RunsInDateRange(startDate, endDate time.Time) ([]RunSession, error) {
	runs := make([]RunSession, 0)
	for d := startDate; !d.After(endDate); d = d.AddDate(0, 0, 1) {
		summary, err := s.GetDailySummary(d.Format("2006-01-02"))
		if err != nil {
			continue
		}
		runs = append(runs, summary.Runs...)
	}
	return runs, nil
}

// Statistics aggregates runs over a date range.
type Statistics struct {
	TotalRuns    int            `json:"total_runs"`
	PassedRuns   int            `json:"passed_runs"`
	FailedRuns   int            `json:"failed_runs"`
	AbortedRuns  int            `json:"aborted_runs"`
	TotalCases   int            `json:"total_cases"`
	PassedCases  int            `json:"passed_cases"`
	FailedCases  int            `json:"failed_cases"`
	IgnoredCases int            `json:"ignored_cases"`
	AvgDuration  int64          `json:"avg_duration_ms"`
	PassRate     float64        `json:"pass_rate"`
	FormatCounts map[string]int `json:"format_counts"`
	FailingCases map[string]int `json:"failing_cases"`
	ErrorTypes   map[string]int `json:"error_types"`
}

// GetStatistics returns aggregated statistics for a date range.
func (s *Store) GetStatistics(startDate, endDate time.Time) (*Statistics, error) {
	stats := &Statistics{
		FormatCounts: make(map[string]int),
		FailingCases: make(map[string]int),
		ErrorTypes:   make(map[string]int),
	}

	runs, err := s.RunsInDateRange(startDate, endDate)
	if err != nil {
		return nil, err
	}

	var totalDuration int64
	for _, run := range runs {
		stats.TotalRuns++
		stats.TotalCases += run.TotalCases
		stats.PassedCases += run.Passed
		stats.FailedCases += run.Failed
		stats.IgnoredCases += run.Ignored
		totalDuration += run.Duration

		switch run.Status {
		case RunPassed:
			stats.PassedRuns++
		case RunFailed:
			stats.FailedRuns++
		case RunAborted:
			stats.AbortedRuns++
		}

		for _, c := range run.Cases {
			stats.FormatCounts[c.Format]++
			if c.Status == CaseFail {
				stats.FailingCases[c.TestCase]++
			}
			if c.ErrorType != "" {
				stats.ErrorTypes[c.ErrorType]++
			}
		}
	}

	if stats.TotalRuns > 0 {
		stats.AvgDuration = totalDuration / int64(stats.TotalRuns)
	}
	if judged := stats.PassedCases + stats.FailedCases; judged > 0 {
		stats.PassRate = float64(stats.PassedCases) / float64(judged) * 100
	}
	return stats, nil
}

// RotateOldLogs archives daily summaries older than a week into weekly
// tar.gz files and deletes archives past the retention period.
func (s *Store) RotateOldLogs() error {
	now := time.Now()
	weekAgo := now.AddDate(0, 0, -7)
	days := s.retentionDays
	if days <= 0 {
		days = DefaultRetentionDays
	}
	retention := now.AddDate(0, 0, -days)

	files, err := filepath.Glob(filepath.Join(s.dataDir, "runs_*.json"))
	if err != nil {
		return fmt.Errorf("failed to list summaries: %w", err)
	}

	weekly := make(map[string][]string)
	for _, file := range files {
		info, err := os.Stat(file)
		if err != nil {
			continue
		}
		if mod := info.ModTime(); mod.Before(weekAgo) {
			year, week := mod.ISOWeek()
			key := fmt.Sprintf("%d-W%02d", year, week)
			weekly[key] = append(weekly[key], file)
		}
	}

	for key, daily := range weekly {
		archive := filepath.Join(s.archiveDir, fmt.Sprintf("runs_%s.tar.gz", key))
		if err := compressFiles(archive, daily); err != nil {
			s.log.WithError(err).WithField("week", key).Warn("failed to compress weekly archive")
			continue
		}
		for _, f := range daily {
			if err := os.Remove(f); err != nil {
				s.log.WithError(err).WithField("file", f).Warn("failed to remove daily summary")
			}
		}
	}

	archives, err := filepath.Glob(filepath.Join(s.archiveDir, "runs_*-W*.tar.gz"))
	if err != nil {
		return fmt.Errorf("failed to list weekly archives: %w", err)
	}
	for _, archive := range archives {
		info, err := os.Stat(archive)
		if err != nil || !info.ModTime().Before(retention) {
			continue
		}
		if err := os.Remove(archive); err != nil {
			s.log.WithError(err).WithField("file", archive).Warn("failed to remove old archive")
			continue
		}
		s.log.WithField("file", filepath.Base(archive)).Info("removed old archive")
	}
	return nil
}

// compressFiles writes files into the tar.gz at archivePath. Entries of an
// existing archive are kept unless a file of the same name replaces them.
func compressFiles(archivePath string, files []string) error {
	tmp := archivePath + ".tmp"
	out, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("failed to create archive: %w", err)
	}
	defer func() { _ = os.Remove(tmp) }()

	gz := gzip.NewWriter(out)
	tw := tar.NewWriter(gz)
	if err := writeArchive(tw, archivePath, files); err != nil {
		_ = out.Close()
		return err
	}
	if err := tw.Close(); err != nil {
		_ = out.Close()
		return err
	}
	if err := gz.Close(); err != nil {
		_ = out.Close()
		return err
	}
	if err := out.Close(); err != nil {
		return err
	}
	return os.Rename(tmp, archivePath)
}

func writeArchive(tw *tar.Writer, archivePath string, files []string) error {
	replaced := make(map[string]bool, len(files))
	for _, f := range files {
		replaced[filepath.Base(f)] = true
	}
	if err := copyArchive(tw, archivePath, replaced); err != nil {
		return fmt.Errorf("failed to merge existing archive: %w", err)
	}
	for _, f := range files {
		if err := addFileToTar(tw, f); err != nil {
			return fmt.Errorf("failed to add file %s to archive: %w", f, err)
		}
	}
	return nil
}

// copyArchive copies the entries of the tar.gz at path into tw, skipping the
// names in skip. A missing archive is not an error.
func copyArchive(tw *tar.Writer, path string, skip map[string]bool) error {
	in, err := os.Open(path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return err
	}
	defer func() { _ = in.Close() }()

	gz, err := gzip.NewReader(in)
	if err != nil {
		return err
	}
	defer func() { _ = gz.Close() }()

	tr := tar.NewReader(gz)
	for {
		header, err := tr.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
		if skip[header.Name] {
			continue
		}
		if err := tw.WriteHeader(header); err != nil {
			return err
		}
		if _, err := io.Copy(tw, tr); err != nil {
			return err
		}
	}
}

func addFileToTar(tw *tar.Writer, filename string) error {
	file, err := os.Open(filename)
	if err != nil {
		return err
	}
	defer func() { _ = file.Close() }()

	info, err := file.Stat()
	if err != nil {
		return err
	}
	header, err := tar.FileInfoHeader(info, "")
	if err != nil {
		return err
	}
	header.Name = filepath.Base(filename)

	if err := tw.WriteHeader(header); err != nil {
		return err
	}
	_, err = io.Copy(tw, file)
	return err
}
