package profile

import (
	"archive/tar"
	"compress/gzip"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/wablaster/wablaster/pkg/models"
)

// Manager owns the persistent browser profile directory. The profile is
// the only durable state the engine keeps: cookies and the pairing
// token. Reset archives it before wiping, so a pairing can be recovered
// by hand if a reset turns out to be a mistake.
type Manager struct {
	mu        sync.Mutex
	dir       string
	backupDir string
}

// NewManager ensures the profile directory exists and returns a manager
// for it. Backups go to a sibling "<dir>-backups" directory.
func NewManager(dir string) (*Manager, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create profile directory: %w", err)
	}
	return &Manager{
		dir:       dir,
		backupDir: dir + "-backups",
	}, nil
}

// Dir returns the profile directory path.
func (m *Manager) Dir() string {
	return m.dir
}

// Info reports the profile path, its size on disk and how many backups
// exist. Used by status reporting; errors degrade to zero values.
func (m *Manager) Info() models.ProfileInfo {
	m.mu.Lock()
	defer m.mu.Unlock()

	var size int64
	filepath.WalkDir(m.dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return nil
		}
		if info, err := d.Info(); err == nil {
			size += info.Size()
		}
		return nil
	})

	backups := 0
	if entries, err := os.ReadDir(m.backupDir); err == nil {
		backups = len(entries)
	}

	return models.ProfileInfo{
		Path:      m.dir,
		SizeBytes: size,
		Backups:   backups,
	}
}

// Reset archives the current profile to a timestamped tar.gz backup,
// deletes the directory and recreates it empty. The next browser start
// will require fresh pairing. The caller must stop the browser first.
func (m *Manager) Reset() (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := os.MkdirAll(m.backupDir, 0755); err != nil {
		return "", fmt.Errorf("create backup directory: %w", err)
	}

	archive := filepath.Join(m.backupDir, fmt.Sprintf("profile-%s-%s.tar.gz",
		time.Now().Format("20060102-150405"), uuid.New().String()[:8]))

	if _, err := os.Stat(m.dir); err == nil {
		if err := compressDirectory(m.dir, archive); err != nil {
			return "", fmt.Errorf("archive profile: %w", err)
		}
		if err := os.RemoveAll(m.dir); err != nil {
			return "", fmt.Errorf("remove profile: %w", err)
		}
	}

	if err := os.MkdirAll(m.dir, 0755); err != nil {
		return "", fmt.Errorf("recreate profile directory: %w", err)
	}

	return archive, nil
}

// compressDirectory creates a tar.gz archive of a directory.
func compressDirectory(source, target string) error {
	file, err := os.Create(target)
	if err != nil {
		return err
	}
	defer file.Close()

	gzWriter := gzip.NewWriter(file)
	defer gzWriter.Close()

	tarWriter := tar.NewWriter(gzWriter)
	defer tarWriter.Close()

	return filepath.Walk(source, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}

		header, err := tar.FileInfoHeader(info, info.Name())
		if err != nil {
			return err
		}

		relPath, err := filepath.Rel(source, path)
		if err != nil {
			return err
		}
		header.Name = relPath

		if err := tarWriter.WriteHeader(header); err != nil {
			return err
		}

		if !info.IsDir() {
			src, err := os.Open(path)
			if err != nil {
				return err
			}
			defer src.Close()

			_, err = io.Copy(tarWriter, src)
			return err
		}

		return nil
	})
}
