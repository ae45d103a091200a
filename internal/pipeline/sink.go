package pipeline

import (
	"context"
	"fmt"
	"image/png"
	"os"
	"path/filepath"

	"sprite-curator/internal/frames"
)

// FrameSink stores extracted frames for one sheet.
type FrameSink interface {
	WriteFrames(ctx context.Context, sheetID string, fs []frames.Frame) (string, error)
}

// DirSink writes frames as <Root>/<sheet id>/frame_NNNN.png.
type DirSink struct {
	Root string
}

// WriteFrames writes every frame and returns the sheet's output directory.
func (d DirSink) WriteFrames(ctx context.Context, sheetID string, fs []frames.Frame) (string, error) {
	dir := filepath.Join(d.Root, sheetID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create frame dir: %w", err)
	}
	for _, f := range fs {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		if err := writePNG(filepath.Join(dir, FrameFileName(f.Index)), f); err != nil {
			return "", err
		}
	}
	return dir, nil
}

// FrameFileName is the file name used for a frame index.
func FrameFileName(index int) string {
	return fmt.Sprintf("frame_%04d.png", index)
}

func writePNG(path string, f frames.Frame) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := png.Encode(file, f.Image); err != nil {
		_ = file.Close()
		return fmt.Errorf("encode frame %d: %w", f.Index, err)
	}
	if err := file.Close(); err != nil {
		return fmt.Errorf("close %s: %w", path, err)
	}
	return nil
}

// DiscardSink drops frames. Used for dry runs.
type DiscardSink struct{}

// WriteFrames implements FrameSink.
func (DiscardSink) WriteFrames(context.Context, string, []frames.Frame) (string, error) {
	return "", nil
}
