package main

import (
	"bytes"
	"context"
	"encoding/json"
	"image/color"
	"image/png"
	"os"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	img "github.com/ironsheep/image-transform-mcp/internal/imaging"
	"github.com/ironsheep/image-transform-mcp/internal/storage"
)

// setup isolates config discovery and returns a store holding a 400x200
// photo and a 100x100 mark.
func setup(t *testing.T) *storage.FSStorage {
	t.Helper()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(t.TempDir()))
	t.Cleanup(func() { _ = os.Chdir(wd) })
	t.Setenv("HOME", t.TempDir())

	store := storage.NewMemStorage()
	for path, size := range map[string][2]int{
		"/img/photo.png": {400, 200},
		"/img/mark.png":  {100, 100},
	} {
		var buf bytes.Buffer
		require.NoError(t, png.Encode(&buf, imaging.New(size[0], size[1], color.NRGBA{0, 0, 255, 255})))
		require.NoError(t, store.WriteFile(context.Background(), path, buf.Bytes()))
	}
	return store
}

func TestRun_Commands(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{"thumb", []string{"thumb", "/img/photo.png", "--max-width=100"}, "/img/th_photo.png 100x50\n"},
		{"cut", []string{"cut", "/img/photo.png", "--x=10", "--y=20", "--width=30", "--height=40"}, "/img/cut_photo.png 30x40\n"},
		{"zoom", []string{"zoom", "/img/photo.png", "--width=50", "--height=50", "--cut=0"}, "/img/th_photo.png 50x50\n"},
		{"watermark", []string{"watermark", "/img/photo.png", "/img/mark.png", "--anchor=5"}, "/img/wm_photo.png 400x200\n"},
		{"prefix and dest", []string{"thumb", "--prefix=s_", "--dest-dir=/out", "/img/photo.png"}, "/out/s_photo.png 200x100\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := setup(t)
			var stdout, stderr bytes.Buffer

			args := append(tt.args, "--format=png", "--log-level=error")
			require.NoError(t, run(context.Background(), args, &stdout, &stderr, store))
			assert.Equal(t, tt.want, stdout.String())
		})
	}
}

func TestRun_Info(t *testing.T) {
	store := setup(t)
	var stdout, stderr bytes.Buffer

	require.NoError(t, run(context.Background(), []string{"info", "/img/photo.png"}, &stdout, &stderr, store))

	var info img.Info
	require.NoError(t, json.Unmarshal(stdout.Bytes(), &info))
	assert.Equal(t, 400, info.Width)
	assert.Equal(t, 200, info.Height)
	assert.Equal(t, img.FormatPNG, info.Format)
}

func TestRun_Errors(t *testing.T) {
	tests := []struct {
		name  string
		args  []string
		check func(t *testing.T, err error)
	}{
		{"no command", nil, func(t *testing.T, err error) {
			assert.ErrorIs(t, err, errUsage)
		}},
		{"unknown command", []string{"rotate", "/img/photo.png"}, func(t *testing.T, err error) {
			assert.ErrorIs(t, err, errUsage)
		}},
		{"missing mark", []string{"watermark", "/img/photo.png"}, func(t *testing.T, err error) {
			assert.ErrorContains(t, err, "expected 2 argument(s)")
		}},
		{"help", []string{"cut", "--help"}, func(t *testing.T, err error) {
			assert.ErrorIs(t, err, pflag.ErrHelp)
		}},
		{"bad config", []string{"thumb", "/img/photo.png", "--quality=0"}, func(t *testing.T, err error) {
			assert.ErrorContains(t, err, "output.quality")
		}},
		{"out of range", []string{"cut", "/img/photo.png", "--width=500", "--height=10"}, func(t *testing.T, err error) {
			assert.ErrorIs(t, err, img.ErrOutOfRange)
		}},
		{"missing source", []string{"info", "/img/nope.png"}, func(t *testing.T, err error) {
			assert.ErrorIs(t, err, img.ErrUnsupportedFormat)
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := setup(t)
			var stdout, stderr bytes.Buffer

			err := run(context.Background(), tt.args, &stdout, &stderr, store)
			require.Error(t, err)
			tt.check(t, err)
			assert.Empty(t, stdout.String())
		})
	}
}
