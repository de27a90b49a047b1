package library

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"prdflow/internal/logging"
	"prdflow/internal/templates"
	"prdflow/pkg/fileops"
)

// CacheDirName is the subdirectory of the storage dir holding the clone.
const CacheDirName = "library"

// SyncStatus is the outcome of one library sync.
type SyncStatus int

const (
	SyncStatusSuccess SyncStatus = iota
	SyncStatusFailed
	// SyncStatusSkipped: the sync was intentionally not performed, for
	// example because no library is configured.
	SyncStatusSkipped
)

func (s SyncStatus) String() string {
	switch s {
	case SyncStatusSuccess:
		return "Success"
	case SyncStatusFailed:
		return "Failed"
	case SyncStatusSkipped:
		return "Skipped"
	default:
		return "Unknown"
	}
}

// SyncResult describes one sync operation.
type SyncResult struct {
	// OperationID identifies this sync in log output.
	OperationID string
	Status      SyncStatus
	// Err is set when Status is SyncStatusFailed.
	Err error
	// SkipReason is set when Status is SyncStatusSkipped.
	SkipReason string
	// Installed lists the template files copied into the storage dir.
	Installed []string
	Duration  time.Duration
}

// Message returns a one-line description of the result for CLI output.
func (r *SyncResult) Message() string {
	switch r.Status {
	case SyncStatusSuccess:
		return fmt.Sprintf("Synced %d template(s) in %s", len(r.Installed), r.Duration.Round(100*time.Millisecond))
	case SyncStatusFailed:
		if r.Err != nil {
			return fmt.Sprintf("Sync failed: %v", r.Err)
		}
		return "Sync failed"
	case SyncStatusSkipped:
		if r.SkipReason != "" {
			return fmt.Sprintf("Skipped: %s", r.SkipReason)
		}
		return "Skipped"
	default:
		return "Unknown status"
	}
}

// templateFiles are the library files installed into the storage directory.
var templateFiles = []string{
	templates.NameCreatePRD + ".md",
	templates.NameGenerateTasks + ".md",
	templates.NameProcessTaskList + ".md",
}

// Sync clones or refreshes the configured library and installs its workflow
// templates into the storage directory. Templates missing from the library
// are left alone so the seeded defaults keep working.
func Sync(remoteURL string, branch *string, storageDir string, logger *logging.AppLogger) SyncResult {
	result := SyncResult{OperationID: uuid.NewString()}
	start := time.Now()

	if remoteURL == "" {
		result.Status = SyncStatusSkipped
		result.SkipReason = "no template library configured"
		result.Duration = time.Since(start)
		return result
	}

	logger.Info("syncing template library", "operation", result.OperationID, "url", remoteURL)

	source := NewGitSource(remoteURL, branch, filepath.Join(storageDir, CacheDirName))
	clonePath, err := source.Prepare(logger)
	if err != nil {
		result.Status = SyncStatusFailed
		result.Err = err
		result.Duration = time.Since(start)
		return result
	}

	installed, err := installTemplates(clonePath, storageDir, logger)
	if err != nil {
		result.Status = SyncStatusFailed
		result.Err = err
		result.Duration = time.Since(start)
		return result
	}

	result.Status = SyncStatusSuccess
	result.Installed = installed
	result.Duration = time.Since(start)
	logger.Info("template library synced",
		"operation", result.OperationID,
		"installed", len(installed),
		"duration", result.Duration)
	return result
}

// installTemplates copies the known template files from the clone into the
// storage directory, overwriting previous copies.
func installTemplates(clonePath, storageDir string, logger *logging.AppLogger) ([]string, error) {
	var installed []string

	for _, name := range templateFiles {
		src := filepath.Join(clonePath, name)
		if !fileops.Exists(src) {
			logger.Debug("library has no such template, keeping current", "file", name)
			continue
		}

		content, err := fileops.ReadText(src)
		if err != nil {
			return installed, fmt.Errorf("reading library template %q: %w", name, err)
		}

		dst := filepath.Join(storageDir, name)
		if err := os.WriteFile(dst, []byte(content), 0644); err != nil {
			return installed, fmt.Errorf("installing template %q: %w", name, err)
		}

		installed = append(installed, name)
		logger.Debug("installed library template", "file", name)
	}

	return installed, nil
}
