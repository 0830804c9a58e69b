// Package benchmark fetches the RML test-case corpus and overlays local fixes
// on it.
package benchmark

import (
	"archive/zip"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"

	"evalgo.org/rmlconformance/internal/domain"
	"evalgo.org/rmlconformance/internal/helpers"
)

// Corpus defaults.
const (
	DefaultURL  = "https://github.com/kg-construct/rml-test-cases/archive/refs/heads/master.zip"
	ArchiveRoot = "rml-test-cases-master"
)

// Benchmark lays out the corpus under Dir:
//
//	<Dir>/testsuite/<Root>/metadata.nt
//	<Dir>/testsuite/<Root>/test-cases/<id>/...
type Benchmark struct {
	URL string
	Dir string
	// FixDir holds metadata.nt and per-case directories copied over the
	// extracted corpus. Defaults to <Dir>/fix.
	FixDir string
	// Root is the top-level directory inside the archive.
	Root   string
	Client *http.Client
	Log    logrus.FieldLogger
}

// New creates a benchmark with defaults applied for empty arguments.
func New(url, dir, fixDir string, client *http.Client, log logrus.FieldLogger) *Benchmark {
	if url == "" {
		url = DefaultURL
	}
	if fixDir == "" {
		fixDir = filepath.Join(dir, helpers.BenchmarkFixDir)
	}
	if client == nil {
		client = http.DefaultClient
	}
	return &Benchmark{
		URL:    url,
		Dir:    dir,
		FixDir: fixDir,
		Root:   ArchiveRoot,
		Client: client,
		Log:    log,
	}
}

// SuiteDir is the root of the extracted corpus.
func (b *Benchmark) SuiteDir() string {
	return filepath.Join(b.Dir, helpers.BenchmarkSuiteDir, b.Root)
}

// TestsDir holds one directory per test case.
func (b *Benchmark) TestsDir() string {
	return filepath.Join(b.SuiteDir(), helpers.BenchmarkCasesDir)
}

// CatalogPath is the path of the corpus catalog.
func (b *Benchmark) CatalogPath() string {
	return filepath.Join(b.SuiteDir(), helpers.CatalogFile)
}

// Create downloads and extracts the corpus, then applies the fixes.
func (b *Benchmark) Create(ctx context.Context) error {
	archive, err := b.Download(ctx)
	if err != nil {
		return err
	}
	cleanup := helpers.NewFileCleanup()
	cleanup.Add(archive)
	defer func() { _ = cleanup.Cleanup() }()

	n, err := Unzip(archive, filepath.Join(b.Dir, helpers.BenchmarkSuiteDir))
	if err != nil {
		return fmt.Errorf("failed to extract corpus: %w", err)
	}
	b.Log.WithField("files", n).Info("corpus extracted")

	if !helpers.DirExists(b.FixDir) {
		b.Log.WithField("fix_dir", b.FixDir).Info("no fixes to apply")
		return nil
	}
	copied, err := b.ApplyFixes()
	if err != nil {
		return err
	}
	b.Log.WithField("files", copied).Info("fixes applied")
	return nil
}

// Download fetches the corpus archive into a temporary file and returns its
// path. The caller removes the file.
func (b *Benchmark) Download(ctx context.Context) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, b.URL, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := b.Client.Do(req)
	if err != nil {
		return "", domain.NewOperationError("download corpus", b.URL, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", domain.NewOperationError("download corpus",
			fmt.Sprintf("%s: status %d: %s", b.URL, resp.StatusCode, strings.TrimSpace(string(body))), nil)
	}

	path := helpers.TempFilePath(helpers.TempFileZipPrefix, helpers.ExtZip)
	file, err := os.Create(path)
	if err != nil {
		return "", err
	}
	size, err := io.Copy(file, resp.Body)
	if err != nil {
		_ = file.Close()
		_ = os.Remove(path)
		return "", fmt.Errorf("failed to save corpus archive: %w", err)
	}
	if err := file.Close(); err != nil {
		_ = os.Remove(path)
		return "", err
	}
	if err := helpers.VerifyFileNotEmpty(path); err != nil {
		_ = os.Remove(path)
		return "", domain.NewOperationError("download corpus", b.URL, err)
	}

	b.Log.WithFields(logrus.Fields{"url": b.URL, "bytes": size}).Info("corpus downloaded")
	return path, nil
}

// Unzip extracts archive below dest and returns the number of files written.
// Entries escaping dest are rejected.
func Unzip(archive, dest string) (int, error) {
	r, err := zip.OpenReader(archive)
	if errors.Is(err, zip.ErrInsecurePath) {
		if r != nil {
			_ = r.Close()
		}
		return 0, domain.NewValidationError("archive", err.Error())
	}
	if err != nil {
		return 0, err
	}
	defer func() { _ = r.Close() }()

	root, err := filepath.Abs(dest)
	if err != nil {
		return 0, err
	}

	n := 0
	for _, f := range r.File {
		target := filepath.Join(root, filepath.FromSlash(f.Name))
		if target != root && !strings.HasPrefix(target, root+string(os.PathSeparator)) {
			return n, domain.NewValidationError("archive", fmt.Sprintf("entry %q escapes destination", f.Name))
		}

		if f.FileInfo().IsDir() {
			if err := os.MkdirAll(target, 0755); err != nil {
				return n, err
			}
			continue
		}
		if err := extractFile(f, target); err != nil {
			return n, err
		}
		n++
	}
	return n, nil
}

func extractFile(f *zip.File, target string) error {
	if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
		return err
	}

	rc, err := f.Open()
	if err != nil {
		return err
	}
	defer func() { _ = rc.Close() }()

	out, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, rc); err != nil {
		_ = out.Close()
		return fmt.Errorf("failed to extract %s: %w", f.Name, err)
	}
	return out.Close()
}

// ApplyFixes copies FixDir/metadata.nt to the suite root and the files of
// every FixDir/<id>/ into the matching test case directory. It returns the
// number of files copied.
func (b *Benchmark) ApplyFixes() (int, error) {
	n := 0
	catalog := filepath.Join(b.FixDir, helpers.CatalogFile)
	if helpers.FileExists(catalog) {
		if err := helpers.CopyFile(catalog, b.CatalogPath()); err != nil {
			return n, err
		}
		b.Log.WithField("file", catalog).Debug("catalog replaced")
		n++
	}

	entries, err := os.ReadDir(b.FixDir)
	if err != nil {
		return n, err
	}
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		copied, err := b.fixCase(e.Name())
		n += copied
		if err != nil {
			return n, err
		}
	}
	return n, nil
}

func (b *Benchmark) fixCase(id string) (int, error) {
	src := filepath.Join(b.FixDir, id)
	dst := filepath.Join(b.TestsDir(), id)
	if err := os.MkdirAll(dst, 0755); err != nil {
		return 0, err
	}

	entries, err := os.ReadDir(src)
	if err != nil {
		return 0, err
	}
	n := 0
	for _, e := range entries {
		if !e.Type().IsRegular() {
			continue
		}
		if err := helpers.CopyFile(filepath.Join(src, e.Name()), filepath.Join(dst, e.Name())); err != nil {
			return n, err
		}
		b.Log.WithFields(logrus.Fields{"test_case": id, "file": e.Name()}).Debug("fix applied")
		n++
	}
	return n, nil
}
