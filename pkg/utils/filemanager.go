// =============================================================================
// Kasir - File Manager Utility
// =============================================================================
//
// This module saves rendered receipts to disk for the CLI surface. The HTTP
// surface never touches the filesystem.
//
// WRITE STRATEGY:
//   - Receipts are written to a temporary file and renamed into place, so a
//     crash never leaves a truncated PDF behind
//   - An existing receipt is never overwritten: a second receipt with the same
//     name (same client, same day) gets a "_2", "_3", ... suffix
//   - Optionally receipts are grouped in YYYY/MM/DD subdirectories
//
// =============================================================================

package utils

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

// =============================================================================
// FILE MANAGER
// =============================================================================

// FileManager handles receipt files for the CLI.
type FileManager struct {
	// OutputDir is the directory where receipts are placed.
	OutputDir string

	// UseTimestampSubdirs creates date-based subdirectories.
	// Example: receipts/2024/03/05/Struk_John_Doe_05-03-2024.pdf
	UseTimestampSubdirs bool

	// now is replaced in tests.
	now func() time.Time
}

// NewFileManager creates a new FileManager writing into outputDir.
func NewFileManager(outputDir string) *FileManager {
	return &FileManager{
		OutputDir: outputDir,
		now:       time.Now,
	}
}

// =============================================================================
// DIRECTORY MANAGEMENT
// =============================================================================

// EnsureDirectories creates the output directory if it doesn't exist.
func (fm *FileManager) EnsureDirectories() error {
	if err := os.MkdirAll(fm.OutputDir, 0755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", fm.OutputDir, err)
	}
	return nil
}

// =============================================================================
// RECEIPT OUTPUT
// =============================================================================

// WriteReceipt saves data under fileName in the output directory.
//
// PARAMETERS:
//   - fileName: The receipt file name (no directory part).
//   - data: The document bytes.
//
// RETURNS:
//   - The path the receipt was written to.
//   - An error if the file cannot be written.
func (fm *FileManager) WriteReceipt(fileName string, data []byte) (string, error) {
	dir := fm.receiptDir()
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create receipt directory: %w", err)
	}

	// Write to a temporary file first.
	tmpPath := filepath.Join(dir, ".tmp-"+uuid.NewString())
	if err := os.WriteFile(tmpPath, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write receipt: %w", err)
	}

	target, err := fm.freePath(dir, filepath.Base(fileName))
	if err != nil {
		os.Remove(tmpPath)
		return "", err
	}

	if err := os.Rename(tmpPath, target); err != nil {
		os.Remove(tmpPath)
		return "", fmt.Errorf("failed to move receipt into place: %w", err)
	}

	return target, nil
}

// receiptDir returns the directory for receipts written now.
func (fm *FileManager) receiptDir() string {
	if !fm.UseTimestampSubdirs {
		return fm.OutputDir
	}

	now := fm.clock()
	return filepath.Join(
		fm.OutputDir,
		fmt.Sprintf("%d", now.Year()),
		fmt.Sprintf("%02d", now.Month()),
		fmt.Sprintf("%02d", now.Day()),
	)
}

// freePath returns dir/name, or dir/name_N.ext for the first N that is free.
func (fm *FileManager) freePath(dir, name string) (string, error) {
	path := filepath.Join(dir, name)
	if !FileExists(path) {
		return path, nil
	}

	ext := filepath.Ext(name)
	base := strings.TrimSuffix(name, ext)
	for n := 2; n < 1000; n++ {
		path = filepath.Join(dir, fmt.Sprintf("%s_%d%s", base, n, ext))
		if !FileExists(path) {
			return path, nil
		}
	}

	return "", fmt.Errorf("too many receipts named %s in %s", name, dir)
}

func (fm *FileManager) clock() time.Time {
	if fm.now == nil {
		return time.Now()
	}
	return fm.now()
}

// =============================================================================
// UTILITY FUNCTIONS
// =============================================================================

// FileExists checks if a file exists.
func FileExists(path string) bool {
	_, err := os.Stat(path)
	return !os.IsNotExist(err)
}
