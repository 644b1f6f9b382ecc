package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// LogFile manages the lifecycle of one command log file under the project's
// .denv/logs directory.
type LogFile struct {
	// Path is the full path of the log file; empty when output is stderr
	// or disabled.
	Path   string
	file   *os.File
	writer io.Writer
}

// NewLogFile opens the log destination selected by output:
//
//	""     auto-generated file in dir
//	"-"    os.Stderr
//	"none" disabled (io.Discard)
//	path   the given path, absolute or relative to dir
func NewLogFile(dir, output string) (*LogFile, error) {
	lf := &LogFile{}
	switch strings.ToLower(output) {
	case "none":
		lf.writer = io.Discard
		return lf, nil
	case "-":
		lf.writer = os.Stderr
		return lf, nil
	case "":
		lf.Path = filepath.Join(dir, GenerateLogFilename(time.Now().UTC()))
	default:
		if filepath.IsAbs(output) {
			lf.Path = output
		} else {
			lf.Path = filepath.Join(dir, output)
		}
	}

	if err := os.MkdirAll(filepath.Dir(lf.Path), 0o755); err != nil {
		return nil, fmt.Errorf("creating log directory %q: %w", filepath.Dir(lf.Path), err)
	}
	f, err := os.OpenFile(lf.Path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("opening log file %q: %w", lf.Path, err)
	}
	lf.file = f
	lf.writer = f
	return lf, nil
}

// Writer returns the io.Writer for log output.
func (lf *LogFile) Writer() io.Writer { return lf.writer }

// Close closes the log file if it was opened.
func (lf *LogFile) Close() error {
	if lf.file != nil {
		return lf.file.Close()
	}
	return nil
}

// GenerateLogFilename generates a log filename of the form
// denv-YYYYMMDD-HHMMSS-sss.log where sss is milliseconds, in UTC.
func GenerateLogFilename(t time.Time) string {
	return fmt.Sprintf("denv-%s-%03d.log", t.Format("20060102-150405"), t.Nanosecond()/1_000_000)
}

// CleanupOldLogFiles removes denv-*.log files older than retentionDays from
// dir. Removal failures are skipped; cleanup is best effort.
func CleanupOldLogFiles(dir string, retentionDays int) error {
	if retentionDays <= 0 {
		return nil
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("reading log directory %q: %w", dir, err)
	}
	cutoff := time.Now().AddDate(0, 0, -retentionDays)
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if !strings.HasPrefix(name, "denv-") || !strings.HasSuffix(name, ".log") {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if info.ModTime().Before(cutoff) {
			_ = os.Remove(filepath.Join(dir, name))
		}
	}
	return nil
}
