package validate

import (
	"archive/zip"
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func zipWith(t *testing.T, entries map[string]string) []byte {
	t.Helper()
	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	for name, content := range entries {
		f, err := w.Create(name)
		require.NoError(t, err)
		_, err = f.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	return buf.Bytes()
}

func TestExtractCSV(t *testing.T) {
	data := zipWith(t, map[string]string{
		"obs_20240501.csv": "lat,lon\n52.1,4.3\n",
	})

	content, err := ExtractCSV(data)
	require.NoError(t, err)
	assert.Equal(t, "lat,lon\n52.1,4.3\n", content)
}

func TestExtractCSVSkipsNonCSVEntries(t *testing.T) {
	data := zipWith(t, map[string]string{
		"readme.txt": "not tabular",
		"obs.csv":    "lat,lon\n52.1,4.3\n",
	})

	content, err := ExtractCSV(data)
	require.NoError(t, err)
	assert.Contains(t, content, "lat,lon")
}

func TestExtractCSVUppercaseExtension(t *testing.T) {
	data := zipWith(t, map[string]string{"OBS.CSV": "lat,lon\n52.1,4.3\n"})

	_, err := ExtractCSV(data)
	assert.NoError(t, err)
}

func TestExtractCSVNoCSVEntry(t *testing.T) {
	data := zipWith(t, map[string]string{"readme.txt": "nothing here"})

	_, err := ExtractCSV(data)
	assert.Error(t, err)
}

func TestExtractCSVFile(t *testing.T) {
	data := zipWith(t, map[string]string{"obs.csv": "lat,lon\n52.1,4.3\n"})
	path := filepath.Join(t.TempDir(), "obs.zip")
	require.NoError(t, os.WriteFile(path, data, 0o644))

	content, err := ExtractCSVFile(path)
	require.NoError(t, err)
	assert.Equal(t, "lat,lon\n52.1,4.3\n", content)
}

func TestExtractCSVFileMissing(t *testing.T) {
	_, err := ExtractCSVFile(filepath.Join(t.TempDir(), "absent.zip"))
	assert.Error(t, err)
}

func TestExtractCSVNotAZip(t *testing.T) {
	_, err := ExtractCSV([]byte("plain text, not an archive"))
	assert.Error(t, err)
}
