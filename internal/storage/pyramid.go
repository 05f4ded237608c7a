package storage

import (
	"archive/zip"
	"bytes"
	"context"
	"fmt"
	"image"
	"io"
	"os"
	"path/filepath"

	"photark/internal/models"
	"photark/pkg/logger"

	"github.com/disintegration/imaging"
	"github.com/google/renameio"
	"go.uber.org/zap"

	_ "golang.org/x/image/webp" // registers the webp decoder
)

// TileArchiveExt is appended to the sharded image path to name the pyramid
// archive next to the image it was built from.
const TileArchiveExt = ".tiles.zip"

// TilePyramid implements PyramidStore. Each archive member is named
// {residual}/{zoom}/{x}/{y}.jpg; tiles are stored uncompressed since JPEG
// bytes do not deflate, which keeps member reads a straight seek-and-copy.
type TilePyramid struct {
	root    string
	sharder *Sharder
	size    int
	overlap int
	quality int
}

// NewTilePyramid creates a pyramid store over the content store's root
func NewTilePyramid(root string, sharder *Sharder, size, overlap, quality int) *TilePyramid {
	return &TilePyramid{
		root:    root,
		sharder: sharder,
		size:    size,
		overlap: overlap,
		quality: quality,
	}
}

// Build renders the deep-zoom pyramid for a relocated record and publishes
// the archive atomically. The pixel buffer is auto-rotated by the record's
// EXIF orientation first, so tiles are always upright regardless of how the
// camera stored the frame.
func (p *TilePyramid) Build(ctx context.Context, record *models.FileRecord) error {
	shardPath := record.ShardDir + record.ShardFile

	data, err := os.ReadFile(record.Path)
	if err != nil {
		return models.PyramidBuildError{Hash: record.ShardFile, Reason: err.Error()}
	}

	img, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		return models.PyramidBuildError{Hash: record.ShardFile, Reason: err.Error()}
	}
	img = orient(img, record.Orientation)

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)

	deepest := maxZoomLevel(img.Bounds().Dx(), img.Bounds().Dy())
	level := deepest
	total := 0
	for {
		n, err := p.writeLevel(zw, record.ShardFile, img, level)
		if err != nil {
			return models.PyramidBuildError{Hash: record.ShardFile, Reason: err.Error()}
		}
		total += n

		if level == 0 {
			break
		}
		level--
		img = imaging.Resize(img, halve(img.Bounds().Dx()), halve(img.Bounds().Dy()), imaging.Lanczos)
	}

	if err := zw.Close(); err != nil {
		return models.PyramidBuildError{Hash: record.ShardFile, Reason: err.Error()}
	}

	archive := filepath.Join(p.root, filepath.FromSlash(shardPath+TileArchiveExt))
	if err := os.MkdirAll(filepath.Dir(archive), 0o755); err != nil {
		return models.PyramidBuildError{Hash: record.ShardFile, Reason: err.Error()}
	}
	if err := renameio.WriteFile(archive, buf.Bytes(), 0o644); err != nil {
		return models.PyramidBuildError{Hash: record.ShardFile, Reason: err.Error()}
	}

	logger.InfoWithContext(ctx, "Tile pyramid built",
		zap.String("archive", archive),
		zap.Int("tiles", total),
		zap.Int("deepest_level", deepest))

	return nil
}

// writeLevel emits every tile of one zoom level into the archive
func (p *TilePyramid) writeLevel(zw *zip.Writer, residual string, img image.Image, level int) (int, error) {
	w := img.Bounds().Dx()
	h := img.Bounds().Dy()
	cols := (w + p.size - 1) / p.size
	rows := (h + p.size - 1) / p.size

	written := 0
	for x := 0; x < cols; x++ {
		for y := 0; y < rows; y++ {
			x0 := clamp(x*p.size-p.overlap, 0, w)
			y0 := clamp(y*p.size-p.overlap, 0, h)
			x1 := clamp(x*p.size+p.size+p.overlap, 0, w)
			y1 := clamp(y*p.size+p.size+p.overlap, 0, h)

			tile := imaging.Crop(img, image.Rect(x0, y0, x1, y1))

			member, err := zw.CreateHeader(&zip.FileHeader{
				Name:   fmt.Sprintf("%s/%d/%d/%d.jpg", residual, level, x, y),
				Method: zip.Store,
			})
			if err != nil {
				return written, err
			}
			if err := imaging.Encode(member, tile, imaging.JPEG, imaging.JPEGQuality(p.quality)); err != nil {
				return written, err
			}
			written++
		}
	}

	return written, nil
}

// Tile reads one tile from the archive addressed by hash. Every miss is a
// NotFoundError, never a crash or a different error shape.
func (p *TilePyramid) Tile(ctx context.Context, hash string, zoom, x, y int) ([]byte, error) {
	if zoom < 0 || x < 0 || y < 0 {
		return nil, models.NotFoundError{Resource: "tile", ID: tileID(hash, zoom, x, y)}
	}

	r, err := zip.OpenReader(p.ArchivePath(hash))
	if err != nil {
		logger.DebugWithContext(ctx, "Tile archive unavailable",
			zap.String("hash", hash),
			zap.Error(err))
		return nil, models.NotFoundError{Resource: "tile", ID: tileID(hash, zoom, x, y)}
	}
	defer r.Close()

	_, residual := p.sharder.Split(hash)
	name := fmt.Sprintf("%s/%d/%d/%d.jpg", residual, zoom, x, y)

	rc, err := r.Open(name)
	if err != nil {
		return nil, models.NotFoundError{Resource: "tile", ID: tileID(hash, zoom, x, y)}
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, models.NotFoundError{Resource: "tile", ID: tileID(hash, zoom, x, y)}
	}
	return data, nil
}

// ArchivePath recomputes the archive path from the addressing hash
func (p *TilePyramid) ArchivePath(hash string) string {
	dir, file := p.sharder.Split(hash)
	return filepath.Join(p.root, filepath.FromSlash(dir+file+TileArchiveExt))
}

// orient maps the eight EXIF orientation codes onto upright pixel transforms
func orient(img image.Image, orientation int) image.Image {
	switch orientation {
	case 2:
		return imaging.FlipH(img)
	case 3:
		return imaging.Rotate180(img)
	case 4:
		return imaging.FlipV(img)
	case 5:
		return imaging.Transpose(img)
	case 6:
		return imaging.Rotate270(img)
	case 7:
		return imaging.Transverse(img)
	case 8:
		return imaging.Rotate90(img)
	default:
		return img
	}
}

// maxZoomLevel returns the deepest level number: the level at which the
// image is at native resolution, with each shallower level halving both
// dimensions down to level 0 at 1x1.
func maxZoomLevel(w, h int) int {
	m := w
	if h > m {
		m = h
	}
	level := 0
	for m > 1 {
		m = (m + 1) / 2
		level++
	}
	return level
}

func halve(v int) int {
	if v <= 1 {
		return 1
	}
	return (v + 1) / 2
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func tileID(hash string, zoom, x, y int) string {
	return fmt.Sprintf("%s/%d/%d/%d", hash, zoom, x, y)
}
