package engine

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"evalgo.org/rmlconformance/internal/domain"
	"evalgo.org/rmlconformance/internal/rdfio"
)

// Argument placeholders substituted in CommandEngine.Args.
const (
	PlaceholderMapping = "{mapping}"
	PlaceholderOutput  = "{output}"
	PlaceholderDir     = "{dir}"
)

// StdoutOutput makes the engine read N-Quads from the process stdout.
const StdoutOutput = "-"

// CommandEngine runs an external mapping engine executable in the directory
// of the mapping.
type CommandEngine struct {
	Command string
	Args    []string
	// Output is the file the engine writes, relative to the case directory,
	// or StdoutOutput.
	Output string

	// Flags appended when the matching option is set. Empty flags are
	// never passed.
	StrictFlag string
	IRIifyFlag string
	InferFlag  string

	// Timeout bounds one conversion. Zero means no limit.
	Timeout time.Duration

	Log logrus.FieldLogger
}

// Convert runs the engine and parses what it produced.
func (e *CommandEngine) Convert(ctx context.Context, mappingPath string, opts Options) (*rdfio.Dataset, error) {
	if e.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.Timeout)
		defer cancel()
	}

	dir := filepath.Dir(mappingPath)
	output := ""
	if e.Output != StdoutOutput {
		output = filepath.Join(dir, e.Output)
		if err := os.Remove(output); err != nil && !os.IsNotExist(err) {
			return nil, fmt.Errorf("remove stale engine output: %w", err)
		}
	}

	args := e.arguments(mappingPath, output, dir, opts)
	cmd := exec.CommandContext(ctx, e.Command, args...)
	cmd.Dir = dir

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	e.Log.WithFields(logrus.Fields{
		"command": e.Command,
		"args":    strings.Join(args, " "),
		"dir":     dir,
	}).Debug("running engine")

	if err := cmd.Run(); err != nil {
		return nil, domain.NewConversionError(mappingPath, strings.TrimSpace(stderr.String()), err)
	}

	if output == "" {
		ds, err := rdfio.DecodeDataset(&stdout)
		if err != nil {
			return nil, domain.NewConversionError(mappingPath, "", fmt.Errorf("parse engine output: %w", err))
		}
		return ds, nil
	}

	ds, err := rdfio.ReadDataset(output)
	if err != nil {
		return nil, domain.NewConversionError(mappingPath, "", fmt.Errorf("read engine output: %w", err))
	}
	return ds, nil
}

func (e *CommandEngine) arguments(mappingPath, output, dir string, opts Options) []string {
	r := strings.NewReplacer(
		PlaceholderMapping, mappingPath,
		PlaceholderOutput, output,
		PlaceholderDir, dir,
	)
	args := make([]string, 0, len(e.Args)+3)
	for _, a := range e.Args {
		args = append(args, r.Replace(a))
	}
	for _, f := range []struct {
		on   bool
		flag string
	}{
		{opts.Strict, e.StrictFlag},
		{opts.IRIify, e.IRIifyFlag},
		{opts.InferLiteralDatatypes, e.InferFlag},
	} {
		if f.on && f.flag != "" {
			args = append(args, f.flag)
		}
	}
	return args
}
