package ingest

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// FileStore keeps accepted uploads and the raw file the pipeline reads.
type FileStore struct {
	now       func() time.Time
	uploadDir string
	rawFile   string
}

// NewFileStore creates both directories if needed.
func NewFileStore(uploadDir, rawFile string) (*FileStore, error) {
	for _, dir := range []string{uploadDir, filepath.Dir(rawFile)} {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return nil, fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}
	return &FileStore{
		uploadDir: uploadDir,
		rawFile:   rawFile,
		now:       time.Now,
	}, nil
}

// RawFile returns the path of the current raw purchase order file.
func (s *FileStore) RawFile() string {
	return s.rawFile
}

// Stored describes where an upload landed.
type Stored struct {
	SavedName  string
	SavedPath  string
	BackupPath string
}

// Store saves data as a timestamped upload, backs up the current raw file and
// replaces it with data.
func (s *FileStore) Store(original string, data []byte) (*Stored, error) {
	at := s.now()
	stored := &Stored{SavedName: SavedName(original, at)}
	stored.SavedPath = filepath.Join(s.uploadDir, stored.SavedName)

	if err := writeFileAtomic(stored.SavedPath, data); err != nil {
		return nil, fmt.Errorf("failed to save upload: %w", err)
	}

	if _, err := os.Stat(s.rawFile); err == nil {
		stored.BackupPath = s.backupPath(at)
		if err := copyFile(s.rawFile, stored.BackupPath); err != nil {
			return nil, fmt.Errorf("failed to back up raw data: %w", err)
		}
	} else if !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to stat raw data: %w", err)
	}

	if err := writeFileAtomic(s.rawFile, data); err != nil {
		return nil, fmt.Errorf("failed to replace raw data: %w", err)
	}

	slog.Info("Stored upload",
		"saved", stored.SavedName,
		"backup", stored.BackupPath,
		"bytes", len(data))
	return stored, nil
}

func (s *FileStore) backupPath(at time.Time) string {
	ext := filepath.Ext(s.rawFile)
	base := strings.TrimSuffix(filepath.Base(s.rawFile), ext)
	return filepath.Join(filepath.Dir(s.rawFile), fmt.Sprintf("%s_backup_%s%s", base, Timestamp(at), ext))
}

// writeFileAtomic writes data to a temp file next to path and renames it into place.
func writeFileAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".tmp-*")
	if err != nil {
		return err
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}

func copyFile(src, dst string) error {
	in, err := os.Open(src) //nolint:gosec // path comes from configuration
	if err != nil {
		return err
	}
	defer func() { _ = in.Close() }()

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600) //nolint:gosec // path comes from configuration
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		return err
	}
	return out.Close()
}
