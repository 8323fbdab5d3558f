package validate

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
	"strings"
)

// The payloads this pipeline moves are zip-wrapped CSVs; only the tabular
// entry is needed for validation, the archive itself is transferred
// untouched.

// ExtractCSV returns the content of the first .csv entry in an in-memory
// zip archive.
func ExtractCSV(zipBytes []byte) (string, error) {
	r, err := zip.NewReader(bytes.NewReader(zipBytes), int64(len(zipBytes)))
	if err != nil {
		return "", fmt.Errorf("failed opening zip archive: %w", err)
	}
	return firstCSVEntry(r)
}

// ExtractCSVFile returns the content of the first .csv entry in a zip
// archive on disk.
func ExtractCSVFile(path string) (string, error) {
	rc, err := zip.OpenReader(path)
	if err != nil {
		return "", fmt.Errorf("failed opening zip archive %s: %w", path, err)
	}
	defer rc.Close()
	return firstCSVEntry(&rc.Reader)
}

func firstCSVEntry(r *zip.Reader) (string, error) {
	for _, f := range r.File {
		if f.FileInfo().IsDir() {
			continue
		}
		if !strings.HasSuffix(strings.ToLower(f.Name), ".csv") {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return "", fmt.Errorf("failed opening zip entry %s: %w", f.Name, err)
		}
		defer rc.Close()

		content, err := io.ReadAll(rc)
		if err != nil {
			return "", fmt.Errorf("failed reading zip entry %s: %w", f.Name, err)
		}
		return string(content), nil
	}

	return "", fmt.Errorf("zip archive contains no csv entry")
}
