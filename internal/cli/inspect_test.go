package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vvka-141/cruload/pkg/cru"
)

var referenceFile = filepath.Join("..", "datafile", "testdata", "cru_ts_2_10.1991-2000.pre")

func TestInspectFile_Header(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, inspectFile(&out, referenceFile, false, false))

	text := out.String()
	assert.Contains(t, text, "Tyndall Centre grim")
	assert.Contains(t, text, "precipitation (mm)")
	assert.Contains(t, text, ".pre")
	assert.Contains(t, text, "1991-2000 (10)")
	assert.Contains(t, text, "2 declared, 120 values each")
	assert.Contains(t, text, "tyndall_centre_grim_precipitation")
	assert.NotContains(t, text, "Validated")
}

func TestInspectFile_Validate(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, inspectFile(&out, referenceFile, true, true))

	assert.Contains(t, out.String(), "2 grid boxes, 240 data points")
	assert.NotContains(t, out.String(), "Warning")
}

func TestInspectFile_BoxCountMismatch(t *testing.T) {
	data, err := os.ReadFile(referenceFile)
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "three.pre")
	content := strings.Replace(string(data), "[Boxes=       2]", "[Boxes=       3]", 1)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	t.Run("lenient warns", func(t *testing.T) {
		var out bytes.Buffer
		require.NoError(t, inspectFile(&out, path, true, false))
		assert.Contains(t, out.String(), "header declares 3 grid boxes")
	})

	t.Run("strict fails", func(t *testing.T) {
		var out bytes.Buffer
		err := inspectFile(&out, path, true, true)
		require.Error(t, err)
		assert.ErrorIs(t, err, cru.ErrMalformedFile)
		assert.Contains(t, err.Error(), path)
	})
}

func TestInspectFile_Malformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.pre")
	require.NoError(t, os.WriteFile(path, []byte("hello\n"), 0644))

	var out bytes.Buffer
	err := inspectFile(&out, path, false, false)
	require.Error(t, err)
	assert.Equal(t, cru.ExitMalformedFile, cru.ExitCodeForError(err))
}

func TestInspectFile_Missing(t *testing.T) {
	var out bytes.Buffer
	err := inspectFile(&out, filepath.Join(t.TempDir(), "missing.pre"), false, false)
	assert.ErrorIs(t, err, os.ErrNotExist)
}
