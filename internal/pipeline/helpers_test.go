package pipeline_test

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/require"
)

// Fake translators. They receive (subdataset, output) like gdal_translate.
const (
	succeedingTool = "#!/bin/sh\nprintf 'raster' > \"$2\"\n"
	failingTool    = "#!/bin/sh\necho 'ERROR 4: not a recognized HDF4 granule' >&2\nprintf 'partial' > \"$2\"\nexit 1\n"
	argsEchoTool   = "#!/bin/sh\nprintf '%s\\n' \"$1\" > \"$2\"\n"
)

func writeTool(t *testing.T, script string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell-script tools need a POSIX shell")
	}
	path := filepath.Join(t.TempDir(), "fake_translate")
	require.NoError(t, os.WriteFile(path, []byte(script), 0o755))
	return path
}

func touch(t *testing.T, dir string, names ...string) {
	t.Helper()
	for _, name := range names {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("hdf"), 0o644))
	}
}
