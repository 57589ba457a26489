package main

import (
	"bytes"
	"os"
	"strings"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"

	"github.com/joshuapare/hexkit/internal/config"
	"github.com/joshuapare/hexkit/transfer"
)

// fakeClipboard stands in for the system clipboard.
type fakeClipboard struct {
	text string
	err  error
}

func (c *fakeClipboard) ReadAll() (string, error) { return c.text, c.err }

func (c *fakeClipboard) WriteAll(text string) error {
	if c.err != nil {
		return c.err
	}
	c.text = text
	return nil
}

// setupTest points the commands at an in-memory filesystem holding files,
// resets every command flag and resolves the default configuration.
func setupTest(t *testing.T, files map[string]string) (afero.Fs, *fakeClipboard) {
	t.Helper()

	fs := afero.NewMemMapFs()
	for name, data := range files {
		require.NoError(t, afero.WriteFile(fs, name, []byte(data), 0o644))
	}
	cb := &fakeClipboard{}

	origFS, origClip := appFS, clipboard
	appFS, clipboard = fs, cb
	t.Cleanup(func() { appFS, clipboard = origFS, origClip })

	verbose, quiet, jsonOut = false, false, false
	dumpOffset, dumpLength, dumpWidth = "0", 256, 16
	findHex, findCaseSensitive, findBackward, findFrom, findMax, findCount = false, false, false, "", 0, false
	editOutput, editDryRun = "", false
	copyOffset, copyLength, copyText, copyStdout = "0", "", false, false
	pasteOffset, pasteOverwrite, pasteFrom, pasteRaw, pasteOutput = "0", false, "", false, ""

	v := config.New()
	v.SetFs(afero.NewMemMapFs())
	c, err := config.Load(v, "")
	require.NoError(t, err)
	cfg = c
	return fs, cb
}

// captureOutput captures stdout while running a function
func captureOutput(t *testing.T, fn func() error) (string, error) {
	t.Helper()

	origStdout := os.Stdout
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatalf("failed to create pipe: %v", err)
	}
	os.Stdout = w

	done := make(chan []byte)
	go func() {
		var buf bytes.Buffer
		_, _ = buf.ReadFrom(r)
		done <- buf.Bytes()
	}()

	fnErr := fn()

	w.Close()
	os.Stdout = origStdout
	out := <-done
	return string(out), fnErr
}

// assertContains checks that output contains all expected strings
func assertContains(t *testing.T, output string, expected []string) {
	t.Helper()
	for _, want := range expected {
		if !strings.Contains(output, want) {
			t.Errorf("output missing expected string %q\nGot: %s", want, output)
		}
	}
}

var _ transfer.Clipboard = (*fakeClipboard)(nil)
