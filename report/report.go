// Package report writes the human-readable result log of an aging run.
package report

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/arloliu/go-aging/aging"
	"github.com/arloliu/go-aging/frame"
	"github.com/arloliu/go-aging/logger"
)

const (
	filePrefix      = "aging_test_results_"
	fileTimeLayout  = "20060102_150405"
	entryTimeLayout = "2006-01-02 15:04:05"
	rule            = "=================================================="
)

var titleCase = cases.Title(language.English)

// Filename returns the result file name for a run finished at t.
func Filename(t time.Time) string {
	return filePrefix + t.Format(fileTimeLayout) + ".txt"
}

// FileReporter saves the result log to a timestamped text file in a directory.
// It implements aging.Reporter.
type FileReporter struct {
	dir    string
	logger logger.Logger
	now    func() time.Time
	last   string
}

var _ aging.Reporter = (*FileReporter)(nil)

// NewFileReporter creates a reporter writing into dir. An empty dir means the
// working directory.
func NewFileReporter(dir string, l logger.Logger) *FileReporter {
	if l == nil {
		l = logger.GetLogger()
	}
	if dir == "" {
		dir = "."
	}

	return &FileReporter{dir: dir, logger: l, now: time.Now}
}

// Report writes summary and results to a new file. Failures are logged and returned.
func (r *FileReporter) Report(summary aging.RunSummary, results []aging.CycleResult) error {
	path := filepath.Join(r.dir, Filename(r.now()))

	if err := r.write(path, summary, results); err != nil {
		r.logger.Error("failed to save result file", "path", path, "error", err)
		return err
	}
	r.last = path
	r.logger.Info("result file saved", "path", path, "cycles", len(results))

	return nil
}

// LastPath returns the path of the most recently written file, empty when none.
func (r *FileReporter) LastPath() string { return r.last }

func (r *FileReporter) write(path string, summary aging.RunSummary, results []aging.CycleResult) (err error) {
	if err := os.MkdirAll(r.dir, 0o755); err != nil {
		return fmt.Errorf("report: create directory: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("report: %w", err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("report: %w", cerr)
		}
	}()

	return WriteText(f, summary, results)
}

// WriteText renders the result log: a header, one block per cycle and a summary
// footer. A channel that produced counts is shown as pass/total, any other channel
// with its failure reason.
func WriteText(w io.Writer, summary aging.RunSummary, results []aging.CycleResult) error {
	var buf bytes.Buffer

	buf.WriteString("Aging Test Detailed Results\n")
	buf.WriteString(rule + "\n")
	if summary.RunID != "" {
		fmt.Fprintf(&buf, "Run: %s\n", summary.RunID)
	}
	buf.WriteString("\n")

	for _, res := range results {
		fmt.Fprintf(&buf, "Cycle %d - %s\n", res.Index, res.Timestamp.Format(entryTimeLayout))
		fmt.Fprintf(&buf, "  Status: %s\n", status(res.Success))
		for _, side := range frame.Sides {
			writeOutcome(&buf, side, res.Outcome(side))
		}
		buf.WriteString("\n")
	}

	buf.WriteString(rule + "\n")
	fmt.Fprintf(&buf, "Total cycles: %d\n", summary.Total)
	fmt.Fprintf(&buf, "Succeeded: %d\n", summary.Succeeded)
	fmt.Fprintf(&buf, "Failed: %d\n", summary.Failed)
	fmt.Fprintf(&buf, "Success rate: %.2f%%\n", summary.SuccessRate())
	if summary.Interrupted {
		buf.WriteString("Interrupted: yes\n")
	}

	_, err := w.Write(buf.Bytes())
	if err != nil {
		return fmt.Errorf("report: write: %w", err)
	}

	return nil
}

func writeOutcome(buf *bytes.Buffer, side frame.Side, o frame.Outcome) {
	label := titleCase.String(side.String())
	if o.IsParsed() {
		fmt.Fprintf(buf, "  %s: pass %d/total %d\n", label, o.PassCount, o.TotalCount)
		return
	}

	msg := string(o.Reason)
	if o.Detail != "" {
		msg += ": " + o.Detail
	}
	fmt.Fprintf(buf, "  %s error: %s\n", label, msg)
	if len(o.Raw) > 0 {
		fmt.Fprintf(buf, "  %s raw: %s\n", label, frame.Hex(o.Raw))
	}
}

func status(ok bool) string {
	if ok {
		return "Success"
	}

	return "Failed"
}

// IsResultFile reports whether name looks like a file written by FileReporter.
func IsResultFile(name string) bool {
	return strings.HasPrefix(name, filePrefix) && strings.HasSuffix(name, ".txt")
}
