package testutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/otiai10/copy"
	"github.com/stretchr/testify/require"
)

// SetUpFromGoldenFileNamed copies the given file from testdata/ into a temp directory.
// Subdirectories present in the filename are preserved.
func SetUpFromGoldenFileNamed(t *testing.T, filename string) string {
	t.Helper()

	fileOut := filepath.Join(t.TempDir(), filename)
	err := copy.Copy(filepath.Join("testdata", filename), fileOut)
	require.NoError(t, err, "unable to copy golden file")
	return fileOut
}

// SetUpFromFileContent creates a temp file with the given content.
func SetUpFromFileContent(t *testing.T, filename string, content string) string {
	t.Helper()

	fileOut := filepath.Join(t.TempDir(), filename)
	require.NoError(t, os.MkdirAll(filepath.Dir(fileOut), 0755))
	require.NoError(t, os.WriteFile(fileOut, []byte(content), 0644))
	return fileOut
}

// SetUpFromGoldenDir copies the golden directory named after the current test.
func SetUpFromGoldenDir(t *testing.T) string {
	return SetUpFromGoldenDirNamed(t, t.Name())
}

// SetUpFromGoldenDirNamed copies the given directory from testdata/ into a temp directory.
// Tests are free to modify the returned directory.
func SetUpFromGoldenDirNamed(t *testing.T, dirname string) string {
	t.Helper()

	dirOut := filepath.Join(t.TempDir(), dirname)
	err := copy.Copy(filepath.Join("testdata", dirname), dirOut, copy.Options{PreserveTimes: true})
	require.NoError(t, err, "unable to copy golden directory")
	return dirOut
}
