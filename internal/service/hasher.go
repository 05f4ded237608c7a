package service

import (
	"bytes"
	"crypto/md5"
	"fmt"
	"image"

	"photark/internal/models"

	"github.com/cespare/xxhash/v2"
	"github.com/disintegration/imaging"

	// Registers decoders beyond imaging's built-in jpeg/png/gif/tiff/bmp set
	_ "golang.org/x/image/webp"
)

// The two pixel-hash lanes use fixed seeds so the combined 128-bit digest is
// stable across processes and restarts.
const (
	pixelHashSeedHi uint64 = 0
	pixelHashSeedLo uint64 = 0x9e3779b97f4a7c15
)

// Hasher computes the three identity hashes of an image
type Hasher struct{}

// NewHasher creates a Hasher
func NewHasher() *Hasher {
	return &Hasher{}
}

// Decode decodes image bytes into pixels. Failure to decode means the upload
// is not a supported image at all.
func (h *Hasher) Decode(filename string, data []byte) (image.Image, error) {
	img, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, models.DecodeError{Filename: filename, Reason: err.Error()}
	}
	return img, nil
}

// ContentHash returns the MD5 digest of the raw byte stream as 32 lowercase
// hex characters. Any byte-level change, including metadata edits, changes it.
func (h *Hasher) ContentHash(data []byte) string {
	return fmt.Sprintf("%x", md5.Sum(data))
}

// PixelHash returns a 128-bit digest of the decoded pixel buffer as 32
// lowercase hex characters. Two independently seeded 64-bit lanes run over
// the same NRGBA bytes; re-encoding the container without touching pixels
// leaves the value unchanged.
func (h *Hasher) PixelHash(img image.Image) string {
	nrgba := imaging.Clone(img)

	hi := xxhash.NewWithSeed(pixelHashSeedHi)
	lo := xxhash.NewWithSeed(pixelHashSeedLo)
	_, _ = hi.Write(nrgba.Pix)
	_, _ = lo.Write(nrgba.Pix)

	return fmt.Sprintf("%016x%016x", hi.Sum64(), lo.Sum64())
}

// PerceptualHash returns the 64-bit difference hash of the image as 16
// lowercase hex characters. The image is reduced to a 9x8 grayscale grid and
// each bit records whether a pixel is strictly brighter than its right
// neighbor, so visually similar images produce identical or near values.
func (h *Hasher) PerceptualHash(img image.Image) string {
	grid := imaging.Grayscale(imaging.Resize(img, 9, 8, imaging.Lanczos))

	var bits uint64
	for row := 0; row < 8; row++ {
		for col := 0; col < 8; col++ {
			left := grid.NRGBAAt(col, row).R
			right := grid.NRGBAAt(col+1, row).R
			if left > right {
				bits |= 1 << (63 - (row*8 + col))
			}
		}
	}

	return fmt.Sprintf("%016x", bits)
}
