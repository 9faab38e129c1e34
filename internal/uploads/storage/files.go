package storage

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/unitledger/inventory-backend/internal/ingestion"
	"github.com/unitledger/inventory-backend/internal/uploads/domain"
)

// FileManager keeps uploaded spreadsheets on local disk until the pipeline
// is done with them.
type FileManager struct {
	baseDir        string
	maxUploadBytes int64
	now            func() time.Time
}

func NewFileManager(baseDir string, maxUploadBytes int64) (*FileManager, error) {
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, fmt.Errorf("create dir %s: %w", baseDir, err)
	}
	return &FileManager{
		baseDir:        baseDir,
		maxUploadBytes: maxUploadBytes,
		now:            time.Now,
	}, nil
}

func (fm *FileManager) Dir() string {
	return fm.baseDir
}

func (fm *FileManager) MaxUploadBytes() int64 {
	return fm.maxUploadBytes
}

// Save writes r to <unixms>-<uuid><ext> under the base directory. The
// extension must be a supported spreadsheet type.
func (fm *FileManager) Save(r io.Reader, originalName string) (*domain.StoredFile, error) {
	if !ingestion.IsSupported(originalName) {
		return nil, domain.ErrInvalidFileType
	}

	ext := strings.ToLower(filepath.Ext(originalName))
	name := fmt.Sprintf("%d-%s%s", fm.now().UnixMilli(), uuid.NewString(), ext)
	path := filepath.Join(fm.baseDir, name)

	size, err := fm.writeWithLimit(path, r)
	if err != nil {
		return nil, err
	}

	return &domain.StoredFile{Path: path, OriginalName: originalName, Size: size}, nil
}

// Remove deletes a stored file. A file that is already gone is not an error.
func (fm *FileManager) Remove(path string) error {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove upload: %w", err)
	}
	return nil
}

// SweepOlderThan removes regular files whose modification time is older
// than age and returns how many were removed.
func (fm *FileManager) SweepOlderThan(age time.Duration) (int, error) {
	entries, err := os.ReadDir(fm.baseDir)
	if err != nil {
		return 0, fmt.Errorf("read upload dir: %w", err)
	}

	cutoff := fm.now().Add(-age)
	removed := 0
	for _, entry := range entries {
		if !entry.Type().IsRegular() {
			continue
		}
		info, err := entry.Info()
		if err != nil || !info.ModTime().Before(cutoff) {
			continue
		}
		if err := fm.Remove(filepath.Join(fm.baseDir, entry.Name())); err == nil {
			removed++
		}
	}
	return removed, nil
}

func (fm *FileManager) writeWithLimit(path string, r io.Reader) (int64, error) {
	out, err := os.Create(path)
	if err != nil {
		return 0, fmt.Errorf("create upload file: %w", err)
	}

	cleanup := func(err error) (int64, error) {
		out.Close()
		os.Remove(path)
		return 0, err
	}

	src := r
	if fm.maxUploadBytes > 0 {
		// read one byte past the limit to detect oversize input
		src = io.LimitReader(r, fm.maxUploadBytes+1)
	}

	total, err := io.Copy(out, src)
	if err != nil {
		return cleanup(fmt.Errorf("write upload file: %w", err))
	}
	if fm.maxUploadBytes > 0 && total > fm.maxUploadBytes {
		return cleanup(domain.ErrFileTooLarge)
	}

	if err := out.Close(); err != nil {
		os.Remove(path)
		return 0, fmt.Errorf("close upload file: %w", err)
	}
	return total, nil
}
