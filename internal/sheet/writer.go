package sheet

import (
	"fmt"
	"os"
	"path/filepath"
)

// SheetName is the study-sheet artifact file name.
const SheetName = "study_sheet.md"

// Write places the rendered sheet under dir and returns its path.
func Write(dir, markdown string) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating output directory: %w", err)
	}
	path := filepath.Join(dir, SheetName)
	if err := os.WriteFile(path, []byte(markdown), 0o644); err != nil {
		return "", fmt.Errorf("writing %s: %w", SheetName, err)
	}
	return path, nil
}
