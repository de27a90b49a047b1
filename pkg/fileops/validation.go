package fileops

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
)

// ExpandPath expands a path that starts with "~/" to the user's home directory.
func ExpandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, path[2:])
		}
	}
	return path
}

// ValidatePathSecurity performs security validation on a file path.
//
// The function validates:
//   - Path is not empty or whitespace-only
//   - No path traversal attempts using ".." sequences, before and after cleaning
//   - Absolute paths do not point into system/reserved directories
//
// This is static analysis only; the filesystem is never touched. Symlink
// resolution, where needed, is performed by the callers.
func ValidatePathSecurity(path string) error {
	if strings.TrimSpace(path) == "" {
		return fmt.Errorf("path cannot be empty")
	}

	// Check for path traversal in raw input
	if strings.Contains(path, "..") {
		return fmt.Errorf("path traversal not allowed")
	}

	// Clean and re-check for traversal
	cleanPath := filepath.Clean(path)
	if strings.Contains(cleanPath, "..") {
		return fmt.Errorf("path traversal not allowed")
	}

	if filepath.IsAbs(path) && IsReservedDirectory(cleanPath) {
		return fmt.Errorf("cannot use system or reserved directories")
	}

	return nil
}

// ValidateStorageDir checks that a storage directory path is acceptable
// without creating it. This is pure validation with no side effects.
func ValidateStorageDir(input string) error {
	path := strings.TrimSpace(input)
	if path == "" {
		return fmt.Errorf("storage directory cannot be empty")
	}

	if strings.Contains(path, "..") {
		return fmt.Errorf("path traversal not allowed")
	}

	expandedPath := ExpandPath(path)
	if strings.Contains(filepath.Clean(expandedPath), "..") {
		return fmt.Errorf("path traversal not allowed")
	}

	if !filepath.IsAbs(expandedPath) && !strings.HasPrefix(path, "~/") {
		return fmt.Errorf("path must be absolute or relative to home directory (~)")
	}

	if IsReservedDirectory(expandedPath) {
		return fmt.Errorf("cannot use system or reserved directories")
	}

	// Parent must exist and be accessible
	parentDir := filepath.Dir(expandedPath)
	if parentDir != "." {
		if _, err := os.Stat(parentDir); err != nil {
			if os.IsNotExist(err) {
				return fmt.Errorf("parent directory does not exist: %s", parentDir)
			}
			return fmt.Errorf("cannot access parent directory: %w", err)
		}
	}

	return nil
}

// TestWriteToDir tests whether the process can write to dir, creating it if
// needed. This has side effects and should be called after ValidateStorageDir.
func TestWriteToDir(dir string) error {
	expandedPath := ExpandPath(strings.TrimSpace(dir))

	if err := os.MkdirAll(expandedPath, 0755); err != nil {
		return fmt.Errorf("cannot create directory: %w", err)
	}

	testFile := filepath.Join(expandedPath, ".prdflow-test")
	if err := os.WriteFile(testFile, []byte("test"), 0644); err != nil {
		return fmt.Errorf("no write permission in directory: %w", err)
	}

	// Cleanup failure is not fatal, the directory is usable
	os.Remove(testFile)

	return nil
}

// IsReservedDirectory checks if the path is a system or reserved directory
// that must never be used for storage.
func IsReservedDirectory(path string) bool {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return true // If we can't resolve it, treat as reserved
	}
	absPath = filepath.Clean(absPath)

	if resolved, err := filepath.EvalSymlinks(absPath); err == nil {
		absPath = filepath.Clean(resolved)
	}

	// Root is always reserved
	if absPath == "/" || absPath == "\\" || absPath == "C:\\" {
		return true
	}

	for _, reserved := range reservedDirectories() {
		reservedAbs, err := filepath.Abs(reserved)
		if err != nil {
			continue
		}
		if resolved, err := filepath.EvalSymlinks(reservedAbs); err == nil {
			reservedAbs = filepath.Clean(resolved)
		} else {
			reservedAbs = filepath.Clean(reservedAbs)
		}

		if strings.EqualFold(absPath, reservedAbs) {
			return true
		}

		reservedPrefix := strings.ToLower(reservedAbs) + string(os.PathSeparator)
		if strings.HasPrefix(strings.ToLower(absPath), reservedPrefix) {
			if isUserTempDirectory(absPath) {
				continue
			}
			return true
		}
	}

	return false
}

// reservedDirectories returns platform-specific reserved directories.
func reservedDirectories() []string {
	var reservedDirs []string

	switch runtime.GOOS {
	case "windows":
		reservedDirs = []string{
			"C:\\Windows",
			"C:\\Program Files",
			"C:\\Program Files (x86)",
			"C:\\System32",
		}

	case "darwin":
		reservedDirs = []string{
			"/System",
			"/usr/bin",
			"/usr/sbin",
			"/bin",
			"/sbin",
			"/etc",
			"/var/log",
			"/var/db",
			"/var/root",
			"/Library/System",
			"/private/etc",
		}

	default: // Linux and other Unix
		reservedDirs = []string{
			"/bin",
			"/sbin",
			"/usr/bin",
			"/usr/sbin",
			"/etc",
			"/boot",
			"/dev",
			"/proc",
			"/sys",
			"/var/log",
			"/var/lib",
			"/var/cache",
			"/root",
		}
	}

	// Critical user directories are reserved too
	if home, err := os.UserHomeDir(); err == nil {
		reservedDirs = append(reservedDirs,
			filepath.Join(home, ".ssh"),
			filepath.Join(home, ".gnupg"),
		)
	}

	return reservedDirs
}

// isUserTempDirectory detects legitimate user temp directories that live
// under otherwise-reserved prefixes.
func isUserTempDirectory(path string) bool {
	if runtime.GOOS == "darwin" && strings.Contains(path, "/var/folders/") {
		return true
	}

	if runtime.GOOS == "linux" {
		if strings.HasPrefix(path, "/tmp/") || path == "/tmp" {
			return true
		}
	}

	if runtime.GOOS == "windows" {
		lower := strings.ToLower(path)
		if strings.Contains(lower, "\\temp\\") || strings.Contains(lower, "\\tmp\\") {
			return true
		}
	}

	systemTemp := filepath.Clean(os.TempDir())
	return strings.HasPrefix(filepath.Clean(path), systemTemp)
}
