package host

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLogger(buf *bytes.Buffer) *SlogLogger {
	return NewSlogLogger(slog.New(slog.NewTextHandler(buf, &slog.HandlerOptions{Level: slog.LevelDebug})))
}

func TestSlogLogger_LogAndError(t *testing.T) {
	var buf bytes.Buffer
	l := newTestLogger(&buf)

	l.Log("  building archive.")
	l.Error("Trouble writing to out.json:\nno space")

	out := buf.String()
	assert.Contains(t, out, `level=INFO msg="building archive."`)
	assert.Contains(t, out, "level=ERROR")
	assert.Contains(t, out, "no space")
}

func TestSlogLogger_ProgressNeverDecreases(t *testing.T) {
	var buf bytes.Buffer
	l := newTestLogger(&buf)

	l.SetStatus("Marshalling...")
	l.SetProgress(0.5)
	l.SetProgress(0.25)
	assert.Equal(t, 0.5, l.Progress())

	l.SetProgress(1)
	assert.Equal(t, 1.0, l.Progress())

	l.SetStatus("")
	assert.Zero(t, l.Progress())
	assert.Contains(t, buf.String(), "status=Marshalling...")
}

func TestNewSlogLogger_Default(t *testing.T) {
	assert.NotNil(t, NewSlogLogger(nil).logger)
}

func TestFixedPrompt(t *testing.T) {
	p, err := FixedPrompt{}.AskForFileForSaving("/tmp/a.json")
	require.NoError(t, err)
	assert.Equal(t, "/tmp/a.json", p)

	p, err = FixedPrompt{Path: "/out/b.json"}.AskForFileForSaving("/tmp/a.json")
	require.NoError(t, err)
	assert.Equal(t, "/out/b.json", p)
}

func TestLinePrompt(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr error
	}{
		{name: "accept suggestion", input: "\n", want: "/tmp/a.json"},
		{name: "accept on eof", input: "", want: "/tmp/a.json"},
		{name: "override", input: " /data/x.json \n", want: "/data/x.json"},
		{name: "cancel", input: "-\n", wantErr: ErrCancelled},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			p := LinePrompt{In: strings.NewReader(tt.input), Out: &out}

			got, err := p.AskForFileForSaving("/tmp/a.json")
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, "Save archive to [/tmp/a.json]: ", out.String())
		})
	}
}
