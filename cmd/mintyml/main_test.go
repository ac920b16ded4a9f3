package main

import (
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestFailFastStopsRemainingWork(t *testing.T) {
	dir := t.TempDir()
	bad := filepath.Join(dir, "bad.mty")
	writeFile(t, bad, "div {")
	var good []string
	for _, name := range []string{"good1.mty", "good2.mty", "good3.mty"} {
		p := filepath.Join(dir, name)
		writeFile(t, p, "hello")
		good = append(good, p)
	}

	args := append([]string{"mintyml", "--fail-fast", "--jobs", "1", bad}, good...)
	err := newApp().Run(args)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad.mty")

	// With one worker the failing file resolves before a second input can
	// finish, so everything past the next input stays unconverted.
	assert.NoFileExists(t, filepath.Join(dir, "good2.html"))
	assert.NoFileExists(t, filepath.Join(dir, "good3.html"))
}

func TestWithoutFailFastAllFilesConvert(t *testing.T) {
	dir := t.TempDir()
	bad := filepath.Join(dir, "bad.mty")
	writeFile(t, bad, "div {")
	good := filepath.Join(dir, "good.mty")
	writeFile(t, good, "hello")

	err := newApp().Run([]string{"mintyml", "--jobs", "1", bad, good})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "1 of 2 files failed")
	assert.FileExists(t, filepath.Join(dir, "good.html"))
}

func TestDumpIsSequentialAndWritesNoFiles(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a.mty")
	b := filepath.Join(dir, "b.mty")
	writeFile(t, a, "first")
	writeFile(t, b, "second")

	orig := os.Stdout
	rd, wr, err := os.Pipe()
	require.NoError(t, err)
	os.Stdout = wr
	runErr := newApp().Run([]string{"mintyml", "--dump", "--jobs", "4", a, b})
	wr.Close()
	os.Stdout = orig
	out, err := io.ReadAll(rd)
	require.NoError(t, err)

	require.NoError(t, runErr)
	assert.NotEmpty(t, out)
	assert.NoFileExists(t, filepath.Join(dir, "a.html"))
	assert.NoFileExists(t, filepath.Join(dir, "b.html"))
}

func TestOutputPath(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		outDir string
		single bool
		want   string
	}{
		{
			name:  "sibling html by default",
			input: filepath.Join("docs", "page.mty"),
			want:  filepath.Join("docs", "page.html"),
		},
		{
			name:   "out dir replaces the parent",
			input:  filepath.Join("docs", "page.mty"),
			outDir: "build",
			want:   filepath.Join("build", "page.html"),
		},
		{
			name:   "single input with file-like out is used verbatim",
			input:  "page.mty",
			outDir: filepath.Join("build", "index.html"),
			single: true,
			want:   filepath.Join("build", "index.html"),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, outputPath(tt.input, tt.outDir, tt.single))
		})
	}
}

func TestCollectInputs(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "a.mty"), "a")
	writeFile(t, filepath.Join(dir, "b.txt"), "b")
	sub := filepath.Join(dir, "sub")
	require.NoError(t, os.Mkdir(sub, 0o755))
	writeFile(t, filepath.Join(sub, "c.mintyml"), "c")

	flat, err := collectInputs([]string{dir}, false)
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(dir, "a.mty")}, flat)

	deep, err := collectInputs([]string{dir}, true)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{
		filepath.Join(dir, "a.mty"),
		filepath.Join(sub, "c.mintyml"),
	}, deep)
}
