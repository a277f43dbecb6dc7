package pipeline

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// TSVWriter writes pre-formatted tab-delimited lines, one per entry.
type TSVWriter struct {
	file   *os.File
	writer *bufio.Writer
	lines  int
	mu     sync.Mutex
}

// NewTSVWriter creates (or truncates) filename.
func NewTSVWriter(filename string) (*TSVWriter, error) {
	if err := ensureDir(filename); err != nil {
		return nil, err
	}

	f, err := os.Create(filename)
	if err != nil {
		return nil, fmt.Errorf("create tsv file: %w", err)
	}

	return &TSVWriter{
		file:   f,
		writer: bufio.NewWriter(f),
	}, nil
}

// WriteLine appends line followed by a newline.
func (w *TSVWriter) WriteLine(line string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if _, err := w.writer.WriteString(line); err != nil {
		return fmt.Errorf("write tsv line: %w", err)
	}
	if err := w.writer.WriteByte('\n'); err != nil {
		return fmt.Errorf("write tsv line: %w", err)
	}
	w.lines++
	return nil
}

// Lines returns the number of lines written.
func (w *TSVWriter) Lines() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.lines
}

// Close flushes buffers and closes the underlying file.
func (w *TSVWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if err := w.writer.Flush(); err != nil {
		w.file.Close()
		return fmt.Errorf("flush tsv writer: %w", err)
	}
	return w.file.Close()
}

// Validate checks that written lines reached the file. Call after Close.
func (w *TSVWriter) Validate() error {
	info, err := os.Stat(w.file.Name())
	if err != nil {
		return fmt.Errorf("stat tsv file: %w", err)
	}
	if w.Lines() > 0 && info.Size() <= 0 {
		return fmt.Errorf("tsv file is empty")
	}
	return nil
}

func ensureDir(filename string) error {
	dir := filepath.Dir(filename)
	if dir == "" || dir == "." {
		return nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create directory %q: %w", dir, err)
	}
	return nil
}
