// Package suite runs conformance test cases one after another: provision,
// convert, compare, report and tear down.
package suite

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"evalgo.org/rmlconformance/internal/compare"
	"evalgo.org/rmlconformance/internal/domain"
	"evalgo.org/rmlconformance/internal/engine"
	"evalgo.org/rmlconformance/internal/helpers"
	"evalgo.org/rmlconformance/internal/provision"
	"evalgo.org/rmlconformance/internal/rdfio"
	"evalgo.org/rmlconformance/internal/report"
)

// State is the lifecycle step a test case is in.
type State string

// Test case states, in order.
const (
	StateProvisioning State = "provisioning"
	StateRunning      State = "running"
	StateComparing    State = "comparing"
	StateReporting    State = "reporting"
	StateTearingDown  State = "tearing-down"
	StateDone         State = "done"
)

// Status is the verdict of a test case.
type Status string

// Test case verdicts.
const (
	StatusPass    Status = "pass"
	StatusFail    Status = "fail"
	StatusIgnored Status = "ignored"
)

// CaseResult is the outcome of one test case.
type CaseResult struct {
	TestCase       domain.TestCase
	Status         Status
	Outcome        compare.Outcome
	Diffs          []report.GraphDiff
	Environment    *provision.Environment
	ProducedFile   string
	Quads          int
	Duration       time.Duration
	ConversionTime time.Duration
	// ConversionErr is the engine failure, if any. The case was still
	// judged against an empty dataset.
	ConversionErr error
	// Err is the provisioning or reference error that failed the case.
	Err error
}

// Result is the tally of a suite run.
type Result struct {
	RunID    string
	Cases    []CaseResult
	Passed   int
	Failed   int
	Ignored  int
	Duration time.Duration
}

// OK reports whether no case failed.
func (r *Result) OK() bool { return r.Failed == 0 }

// Failures returns the failed cases.
func (r *Result) Failures() []CaseResult {
	var out []CaseResult
	for _, c := range r.Cases {
		if c.Status == StatusFail {
			out = append(out, c)
		}
	}
	return out
}

func (r *Result) add(c CaseResult) {
	r.Cases = append(r.Cases, c)
	switch c.Status {
	case StatusPass:
		r.Passed++
	case StatusFail:
		r.Failed++
	case StatusIgnored:
		r.Ignored++
	}
}

// Orchestrator drives test cases through their lifecycle.
type Orchestrator struct {
	Registry *Registry
	Runner   *engine.Runner
	Reporter *report.DiffReporter
	// Store records the run history. Optional.
	Store *report.Store

	// TestsDir holds one directory per test case.
	TestsDir string
	// LockPath is the file locked for the duration of a run. Empty
	// disables locking.
	LockPath string

	// Options are the engine switches shared by all cases.
	Options engine.Options
	Compare compare.Options

	Log logrus.FieldLogger
}

// Run executes cases sequentially. Individual failures are tallied in the
// result; an error is returned only when the run could not start or was
// cancelled.
func (o *Orchestrator) Run(ctx context.Context, cases []domain.TestCase) (*Result, error) {
	if o.LockPath != "" {
		lock := flock.New(o.LockPath)
		locked, err := lock.TryLock()
		if err != nil {
			return nil, fmt.Errorf("failed to acquire suite lock: %w", err)
		}
		if !locked {
			return nil, domain.NewConflictError("suite run", o.LockPath)
		}
		defer func() { _ = lock.Unlock() }()
	}

	res := &Result{RunID: uuid.New().String()}
	if o.Store != nil {
		run, err := o.Store.StartRun(len(cases), formatNames(cases), map[string]interface{}{
			"tests_dir": o.TestsDir,
			"options":   o.Options,
		})
		if err != nil {
			o.Log.WithError(err).Warn("run history unavailable")
			o.Store = nil
		} else {
			res.RunID = run.ID
		}
	}

	log := o.Log.WithField("run_id", res.RunID)
	log.WithField("cases", len(cases)).Info("suite run started")
	start := time.Now()

	for _, tc := range cases {
		if err := ctx.Err(); err != nil {
			res.Duration = time.Since(start)
			o.abort(res.RunID, err)
			return res, err
		}

		c := o.RunCase(ctx, tc)
		res.add(c)
		o.record(res.RunID, c)
	}

	res.Duration = time.Since(start)
	if o.Store != nil {
		if err := o.Store.CompleteRun(res.RunID); err != nil {
			log.WithError(err).Warn("failed to close run history")
		}
	}

	log.WithFields(logrus.Fields{
		"passed":   res.Passed,
		"failed":   res.Failed,
		"ignored":  res.Ignored,
		"duration": res.Duration.String(),
	}).Info("suite run finished")
	return res, nil
}

// OptionsFor returns the engine options for one case. Literal datatype
// inference is only enabled for SQL cases.
func (o *Orchestrator) OptionsFor(tc domain.TestCase) engine.Options {
	opts := o.Options
	opts.InferLiteralDatatypes = tc.Format.IsSQL()
	return opts
}

// RunCase drives a single test case through its lifecycle.
func (o *Orchestrator) RunCase(ctx context.Context, tc domain.TestCase) CaseResult {
	start := time.Now()
	res := CaseResult{TestCase: tc}
	log := o.Log.WithFields(logrus.Fields{"test_case": tc.ID, "format": tc.Format})
	enter := func(s State) { log.WithField("state", s).Debug("test case state") }

	defer func() {
		res.Duration = time.Since(start)
		enter(StateDone)
		entry := log.WithFields(logrus.Fields{
			"status":   res.Status,
			"duration": res.Duration.String(),
		})
		if res.Status == StatusFail {
			entry.Warn("test case failed")
		} else {
			entry.Info("test case finished")
		}
	}()

	dir := filepath.Join(o.TestsDir, tc.ID)

	enter(StateProvisioning)
	p, ok := o.Registry.Get(tc.Format)
	if !ok {
		res.Status = StatusFail
		res.Err = domain.NewValidationError("format", fmt.Sprintf("no provisioner for %s", tc.Format))
		return res
	}
	env, err := p.Provision(ctx, tc, dir)
	res.Environment = env
	defer func() {
		if env == nil {
			return
		}
		enter(StateTearingDown)
		if err := p.Teardown(ctx, env); err != nil {
			log.WithError(err).Warn("teardown failed")
		}
	}()
	if err != nil {
		res.Status = StatusFail
		res.Err = err
		log.WithError(err).Error("provisioning failed")
		return res
	}

	enter(StateRunning)
	conv := o.Runner.Run(ctx, env.MappingPath, o.OptionsFor(tc))
	res.ConversionTime = conv.Duration
	res.ConversionErr = conv.Err
	res.Quads = conv.Dataset.Len()

	enter(StateComparing)
	produced, err := rdfio.WriteDatasetFile(filepath.Join(dir, helpers.ProducedFileStem), conv.Dataset)
	if err != nil {
		log.WithError(err).Warn("failed to write produced dataset")
	}
	res.ProducedFile = produced

	reference, err := rdfio.ReadOptionalDataset(filepath.Join(dir, helpers.ReferenceFile))
	if err != nil {
		res.Status = StatusFail
		res.Err = domain.NewFixtureError(tc.ID, helpers.ReferenceFile, err)
		log.WithError(err).Error("reference dataset unreadable")
		return res
	}

	res.Outcome = compare.Equivalent(conv.Dataset, reference, o.Compare)
	if res.Outcome.Passed && len(res.Outcome.MissingInProduced) > 0 {
		log.WithField("graphs", res.Outcome.MissingInProduced).Warn("reference graphs not produced")
	}

	enter(StateReporting)
	switch {
	case res.Outcome.Passed:
		res.Status = StatusPass
	case tc.IgnoreFail:
		res.Status = StatusIgnored
	default:
		res.Status = StatusFail
		res.Diffs = o.Reporter.Report(tc, conv.Dataset, reference, res.Outcome)
	}

	return res
}

func (o *Orchestrator) record(runID string, c CaseResult) {
	if o.Store == nil {
		return
	}
	rec := report.CaseRecord{
		TestCase:     c.TestCase.ID,
		Format:       string(c.TestCase.Format),
		StartTime:    time.Now().Add(-c.Duration),
		Duration:     c.Duration.Milliseconds(),
		ConversionMS: c.ConversionTime.Milliseconds(),
		Status:       string(c.Status),
		Graph:        c.Outcome.Graph,
		Reason:       c.Outcome.Reason,
		ProducedFile: c.ProducedFile,
		Quads:        c.Quads,
	}
	if err := firstErr(c.Err, c.ConversionErr); err != nil {
		rec.ErrorType = ErrorType(err)
		rec.ErrorMessage = err.Error()
	}
	if err := o.Store.RecordCase(runID, rec); err != nil {
		o.Log.WithError(err).Warn("failed to record test case")
	}
}

func (o *Orchestrator) abort(runID string, cause error) {
	o.Log.WithError(cause).Warn("suite run cancelled")
	if o.Store == nil {
		return
	}
	if err := o.Store.AbortRun(runID, cause.Error()); err != nil {
		o.Log.WithError(err).Warn("failed to close run history")
	}
}

// ErrorType classifies an error for the run history.
func ErrorType(err error) string {
	var (
		fixtureErr    *domain.FixtureError
		provisionErr  *domain.ProvisionError
		conversionErr *domain.ConversionError
		validationErr *domain.ValidationError
		operationErr  *domain.OperationError
	)
	switch {
	case errors.As(err, &fixtureErr):
		return "fixture"
	case errors.As(err, &provisionErr):
		return "provision"
	case errors.As(err, &conversionErr):
		return "conversion"
	case errors.As(err, &validationErr):
		return "validation"
	case errors.As(err, &operationErr):
		return "operation"
	}
	return "unknown"
}

func firstErr(errs ...error) error {
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}

func formatNames(cases []domain.TestCase) []string {
	seen := make(map[domain.Format]bool)
	var out []string
	for _, tc := range cases {
		if !seen[tc.Format] {
			seen[tc.Format] = true
			out = append(out, string(tc.Format))
		}
	}
	return out
}
