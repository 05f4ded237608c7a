package storage

import (
	"archive/zip"
	"bytes"
	"context"
	"image"
	"os"
	"path/filepath"
	"testing"

	"photark/internal/models"
	"photark/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testHash = "00112233445566778899aabbccddeeff"

func newTestPyramid(t *testing.T) (*TilePyramid, string) {
	t.Helper()
	root := t.TempDir()
	sharder, err := NewSharder(2, 6)
	require.NoError(t, err)
	return NewTilePyramid(root, sharder, 256, 1, 85), root
}

func writeSource(t *testing.T, root string, sharder *Sharder, width, height int) *models.FileRecord {
	t.Helper()
	dir, file := sharder.Split(testHash)

	record := &models.FileRecord{
		Name:      "test.png",
		Mime:      "image/png",
		ShardDir:  dir,
		ShardFile: file,
	}
	record.Path = filepath.Join(root, filepath.FromSlash(record.StoredName()))

	require.NoError(t, os.MkdirAll(filepath.Dir(record.Path), 0o755))
	require.NoError(t, os.WriteFile(record.Path,
		testutil.EncodePNG(t, testutil.NewGradientImage(width, height)), 0o644))

	return record
}

func TestPyramidBuildAndTile(t *testing.T) {
	p, root := newTestPyramid(t)
	record := writeSource(t, root, p.sharder, 600, 400)

	require.NoError(t, p.Build(context.Background(), record))

	t.Run("archive lands next to the image", func(t *testing.T) {
		assert.FileExists(t, p.ArchivePath(testHash))
	})

	t.Run("deepest level serves native-resolution tiles", func(t *testing.T) {
		// 600x400 halves to 1x1 in 10 steps, so the deepest level is 10
		data, err := p.Tile(context.Background(), testHash, 10, 0, 0)
		require.NoError(t, err)

		img, _, err := image.Decode(bytes.NewReader(data))
		require.NoError(t, err)
		// Interior edge carries the 1px overlap
		assert.Equal(t, 257, img.Bounds().Dx())
		assert.Equal(t, 257, img.Bounds().Dy())
	})

	t.Run("edge tile is clamped to the image", func(t *testing.T) {
		data, err := p.Tile(context.Background(), testHash, 10, 2, 1)
		require.NoError(t, err)

		img, _, err := image.Decode(bytes.NewReader(data))
		require.NoError(t, err)
		// Last column: 600-512+1 overlap on the left edge only
		assert.Equal(t, 89, img.Bounds().Dx())
		assert.Equal(t, 145, img.Bounds().Dy())
	})

	t.Run("level zero is a single 1x1 tile", func(t *testing.T) {
		data, err := p.Tile(context.Background(), testHash, 0, 0, 0)
		require.NoError(t, err)

		img, _, err := image.Decode(bytes.NewReader(data))
		require.NoError(t, err)
		assert.Equal(t, 1, img.Bounds().Dx())
		assert.Equal(t, 1, img.Bounds().Dy())
	})

	t.Run("members are stored uncompressed", func(t *testing.T) {
		r, err := zip.OpenReader(p.ArchivePath(testHash))
		require.NoError(t, err)
		defer r.Close()

		require.NotEmpty(t, r.File)
		for _, f := range r.File {
			assert.Equal(t, zip.Store, f.Method)
		}
	})
}

func TestPyramidTileMisses(t *testing.T) {
	p, root := newTestPyramid(t)
	record := writeSource(t, root, p.sharder, 300, 200)
	require.NoError(t, p.Build(context.Background(), record))

	tests := []struct {
		name          string
		hash          string
		zoom, x, y    int
	}{
		{"unknown hash", "ffeeddccbbaa99887766554433221100", 0, 0, 0},
		{"zoom beyond deepest", testHash, 99, 0, 0},
		{"x out of range", testHash, 0, 5, 0},
		{"y out of range", testHash, 0, 0, 5},
		{"negative zoom", testHash, -1, 0, 0},
		{"negative x", testHash, 0, -1, 0},
		{"negative y", testHash, 0, 0, -1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := p.Tile(context.Background(), tt.hash, tt.zoom, tt.x, tt.y)
			require.Error(t, err)
			assert.True(t, models.IsNotFound(err))
		})
	}
}

func TestPyramidBuildMissingSource(t *testing.T) {
	p, _ := newTestPyramid(t)
	dir, file := p.sharder.Split(testHash)

	record := &models.FileRecord{
		Name:      "gone.png",
		Mime:      "image/png",
		Path:      "/nonexistent/gone.png",
		ShardDir:  dir,
		ShardFile: file,
	}

	err := p.Build(context.Background(), record)
	require.Error(t, err)

	var buildErr models.PyramidBuildError
	assert.ErrorAs(t, err, &buildErr)
}

func TestPyramidBuildRotatesBeforeTiling(t *testing.T) {
	p, root := newTestPyramid(t)
	record := writeSource(t, root, p.sharder, 300, 200)
	record.Orientation = 6 // stored rotated, pixels must turn 90 CW

	require.NoError(t, p.Build(context.Background(), record))

	// 300x200 turns into 200x300, deepest level for max dim 300 is 9
	data, err := p.Tile(context.Background(), testHash, 9, 0, 1)
	require.NoError(t, err)

	img, _, err := image.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	// Second row exists only because the rotated height exceeds one tile
	assert.Equal(t, 200, img.Bounds().Dx())
	assert.Equal(t, 45, img.Bounds().Dy())
}
