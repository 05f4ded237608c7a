// Package metadata shells out to exiftool for tag extraction. exiftool reads
// every raw and sidecar format cameras produce, which no in-process library
// matches, so the process boundary is the price of coverage.
package metadata

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"time"

	"photark/internal/models"
	"photark/pkg/logger"

	"go.uber.org/zap"
)

const extractTimeout = 15 * time.Second

// ExiftoolExtractor runs the exiftool binary per file
type ExiftoolExtractor struct {
	binary string
}

// NewExiftoolExtractor verifies the binary is reachable
func NewExiftoolExtractor(binary string) (*ExiftoolExtractor, error) {
	path, err := exec.LookPath(binary)
	if err != nil {
		return nil, fmt.Errorf("exiftool not found at %q: %w", binary, err)
	}

	logger.Info("Metadata extractor ready", zap.String("exiftool", path))

	return &ExiftoolExtractor{binary: path}, nil
}

// Extract runs exiftool with grouped tag names and numeric values. -n keeps
// rationals as plain numbers and GPS coordinates as unsigned decimal degrees
// with their reference tags intact, which is what the normalizer expects.
func (e *ExiftoolExtractor) Extract(ctx context.Context, path string) (models.RawTags, error) {
	ctx, cancel := context.WithTimeout(ctx, extractTimeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, e.binary, "-json", "-G", "-n", path)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("exiftool failed: %w (%s)", err, stderr.String())
	}

	// exiftool emits one JSON object per input file
	var docs []models.RawTags
	if err := json.Unmarshal(stdout.Bytes(), &docs); err != nil {
		return nil, fmt.Errorf("unparseable exiftool output: %w", err)
	}
	if len(docs) == 0 {
		return models.RawTags{}, nil
	}

	tags := docs[0]
	delete(tags, "SourceFile")

	return tags, nil
}
