package logging

import (
	"compress/gzip"
	"fmt"
	"io"
	"os"
	"sync"
)

// RotationConfig holds configuration for size-based log rotation.
type RotationConfig struct {
	// MaxSizeMB is the maximum size of the log file in megabytes before
	// rotation. 0 disables rotation.
	MaxSizeMB int
	// MaxBackups is the number of rotated files to keep.
	MaxBackups int
	// Compress gzips rotated files.
	Compress bool
}

// DefaultRotationConfig returns the rotation settings used when the
// config file does not override them.
func DefaultRotationConfig() RotationConfig {
	return RotationConfig{
		MaxSizeMB:  10,
		MaxBackups: 3,
		Compress:   false,
	}
}

// RotatingWriter is an io.WriteCloser that rotates the underlying file
// when it exceeds the configured size. Safe for concurrent use.
type RotatingWriter struct {
	mu sync.Mutex

	path       string
	maxSizeB   int64
	maxBackups int
	compress   bool

	file        *os.File
	currentSize int64
}

// NewRotatingWriter opens (or creates) the log file at path for appending.
// With MaxSizeMB of 0 it behaves like a plain append-only file writer.
func NewRotatingWriter(path string, config RotationConfig) (*RotatingWriter, error) {
	rw := &RotatingWriter{
		path:       path,
		maxSizeB:   int64(config.MaxSizeMB) * 1024 * 1024,
		maxBackups: config.MaxBackups,
		compress:   config.Compress,
	}
	if err := rw.open(); err != nil {
		return nil, err
	}
	return rw, nil
}

func (rw *RotatingWriter) open() error {
	f, err := os.OpenFile(rw.path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return fmt.Errorf("failed to stat log file: %w", err)
	}
	rw.file = f
	rw.currentSize = info.Size()
	return nil
}

// Write appends to the log file, rotating first if the write would push
// it past the size limit.
func (rw *RotatingWriter) Write(p []byte) (int, error) {
	rw.mu.Lock()
	defer rw.mu.Unlock()

	if rw.file == nil {
		return 0, os.ErrClosed
	}

	if rw.maxSizeB > 0 && rw.currentSize+int64(len(p)) > rw.maxSizeB {
		if err := rw.rotate(); err != nil {
			return 0, err
		}
	}

	n, err := rw.file.Write(p)
	rw.currentSize += int64(n)
	return n, err
}

// rotate closes the current file, shifts backups, and reopens a fresh file.
// Called with the mutex held.
func (rw *RotatingWriter) rotate() error {
	if err := rw.file.Close(); err != nil {
		return fmt.Errorf("failed to close log file for rotation: %w", err)
	}
	rw.file = nil

	ext := ""
	if rw.compress {
		ext = ".gz"
	}

	// Shift existing backups up, dropping the oldest.
	for i := rw.maxBackups - 1; i >= 1; i-- {
		older := fmt.Sprintf("%s.%d%s", rw.path, i, ext)
		newer := fmt.Sprintf("%s.%d%s", rw.path, i+1, ext)
		if _, err := os.Stat(older); err == nil {
			if err := os.Rename(older, newer); err != nil {
				return fmt.Errorf("failed to shift backup: %w", err)
			}
		}
	}

	if rw.maxBackups > 0 {
		first := fmt.Sprintf("%s.1%s", rw.path, ext)
		if rw.compress {
			if err := compressFile(rw.path, first); err != nil {
				return err
			}
			if err := os.Remove(rw.path); err != nil {
				return fmt.Errorf("failed to remove rotated log: %w", err)
			}
		} else {
			if err := os.Rename(rw.path, first); err != nil {
				return fmt.Errorf("failed to rotate log: %w", err)
			}
		}
	} else {
		if err := os.Remove(rw.path); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("failed to truncate log: %w", err)
		}
	}

	return rw.open()
}

// compressFile gzips src into dst.
func compressFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("failed to open log for compression: %w", err)
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("failed to create compressed log: %w", err)
	}
	defer out.Close()

	gz := gzip.NewWriter(out)
	if _, err := io.Copy(gz, in); err != nil {
		gz.Close()
		return fmt.Errorf("failed to compress log: %w", err)
	}
	return gz.Close()
}

// Close closes the underlying file.
func (rw *RotatingWriter) Close() error {
	rw.mu.Lock()
	defer rw.mu.Unlock()

	if rw.file == nil {
		return nil
	}
	err := rw.file.Close()
	rw.file = nil
	return err
}
