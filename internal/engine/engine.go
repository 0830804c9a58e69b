// Package engine invokes the mapping engine under test and turns its output
// into an RDF dataset.
package engine

import (
	"context"
	"fmt"
	"runtime/debug"
	"time"

	"github.com/sirupsen/logrus"

	"evalgo.org/rmlconformance/internal/rdfio"
)

// Options are the engine switches for one conversion.
type Options struct {
	// Strict makes the engine reject mappings that violate the RML rules.
	Strict bool `json:"strict"`
	// IRIify normalises generated IRIs.
	IRIify bool `json:"iriify"`
	// InferLiteralDatatypes derives literal datatypes from database column
	// types.
	InferLiteralDatatypes bool `json:"infer_literal_datatypes"`
}

// Engine converts a mapping into an RDF dataset. Relative paths inside the
// mapping are resolved against the directory of mappingPath.
type Engine interface {
	Convert(ctx context.Context, mappingPath string, opts Options) (*rdfio.Dataset, error)
}

// Conversion is the outcome of one engine run. Dataset is never nil.
type Conversion struct {
	Dataset  *rdfio.Dataset
	Duration time.Duration
	Err      error
}

// Runner runs an Engine and absorbs its failures.
type Runner struct {
	Engine Engine
	Log    logrus.FieldLogger
}

// NewRunner creates a runner for e.
func NewRunner(e Engine, log logrus.FieldLogger) *Runner {
	return &Runner{Engine: e, Log: log}
}

// Run converts mappingPath. An engine error or panic yields an empty dataset
// with the failure recorded in Conversion.Err.
func (r *Runner) Run(ctx context.Context, mappingPath string, opts Options) (conv Conversion) {
	log := r.Log.WithField("mapping", mappingPath)
	start := time.Now()

	defer func() {
		if rec := recover(); rec != nil {
			conv.Err = fmt.Errorf("engine panic: %v", rec)
			log.WithField("stack", string(debug.Stack())).Error(conv.Err)
		}
		if conv.Err != nil || conv.Dataset == nil {
			conv.Dataset = rdfio.NewDataset()
		}
		conv.Duration = time.Since(start)
	}()

	ds, err := r.Engine.Convert(ctx, mappingPath, opts)
	if err != nil {
		log.WithError(err).Warn("conversion failed, using empty dataset")
		conv.Err = err
		return conv
	}

	conv.Dataset = ds
	if ds != nil {
		log.WithFields(logrus.Fields{
			"quads":    ds.Len(),
			"duration": time.Since(start).String(),
		}).Debug("conversion finished")
	}
	return conv
}
