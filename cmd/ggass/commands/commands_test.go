package commands

import (
	"bytes"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gogpu/ggass/config"
)

const script = `[Script Info]
ScriptType: v4.00+
PlayResX: 320
PlayResY: 180

[Events]
Format: Layer, Start, End, Style, Name, MarginL, MarginR, MarginV, Effect, Text
Dialogue: 0,0:00:00.00,0:00:05.00,Default,,0,0,0,,Hi
`

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	Root.SetOut(&out)
	Root.SetErr(&out)
	Root.SetArgs(args)
	err := Root.Execute()
	return out.String(), err
}

func TestGenerateConfig(t *testing.T) {
	out, err := run(t, "generate-config")
	require.NoError(t, err)

	var cfg config.Config
	_, err = cfg.Read([]byte(out))
	require.NoError(t, err)
	assert.Equal(t, config.Default(), cfg)
}

func TestProbe(t *testing.T) {
	out, err := run(t, "probe", "--backend", "native")
	require.NoError(t, err)
	assert.Contains(t, out, "ggass OK (backend native)")
}

func TestRender(t *testing.T) {
	dir := t.TempDir()
	track := filepath.Join(dir, "track.ass")
	require.NoError(t, os.WriteFile(track, []byte(script), 0o600))
	outPath := filepath.Join(dir, "frame.png")

	out, err := run(t, "render", track, "--backend", "native",
		"--time", "0:00:01.00", "--width", "320", "--height", "180",
		"--out", outPath, "--sprites")
	require.NoError(t, err)
	assert.Contains(t, out, "sprites,")

	f, err := os.Open(outPath)
	require.NoError(t, err)
	defer f.Close()
	img, err := png.Decode(f)
	require.NoError(t, err)
	assert.Equal(t, 320, img.Bounds().Dx())
	assert.Equal(t, 180, img.Bounds().Dy())

	_, err = run(t, "render", filepath.Join(dir, "missing.ass"), "--out", outPath)
	assert.Error(t, err)
}

func TestParseTimestamp(t *testing.T) {
	tests := []struct {
		in      string
		want    int64
		wantErr bool
	}{
		{"1500", 1500, false},
		{"0:00:01.50", 1500, false},
		{"1:02:03.04", 3723040, false},
		{"soon", 0, true},
	}
	for _, tt := range tests {
		got, err := parseTimestamp(tt.in)
		if tt.wantErr {
			assert.Error(t, err, tt.in)
			continue
		}
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
	assert.True(t, strings.HasPrefix(Root.Use, "ggass"))
}
