package downloader

import (
	"context"
	"fmt"
	"os/exec"
	"path/filepath"
	"strings"

	"soulspot/internal/constants"
	"soulspot/internal/logger"
)

// Converter transcodes a lossless download into the target lossy
// format, returning the path of the converted file.
type Converter interface {
	Convert(ctx context.Context, srcPath string) (string, error)
}

// FFmpegConverter shells out to ffmpeg for FLAC to MP3 transcoding.
type FFmpegConverter struct {
	Binary string
	Logger *logger.Logger
}

func NewFFmpegConverter(log *logger.Logger) *FFmpegConverter {
	return &FFmpegConverter{Binary: "ffmpeg", Logger: log}
}

// Convert transcodes srcPath to a constant-bitrate MP3 next to the
// source, carrying stream metadata over. The source file is left in
// place.
func (c *FFmpegConverter) Convert(ctx context.Context, srcPath string) (string, error) {
	outPath := replaceExt(srcPath, constants.ExtMP3)

	ctx, cancel := context.WithTimeout(ctx, constants.ConvertTimeout)
	defer cancel()

	args := convertArgs(srcPath, outPath)
	c.Logger.Debug("converting file", "src", srcPath, "out", outPath)

	cmd := exec.CommandContext(ctx, c.Binary, args...)
	output, err := cmd.CombinedOutput()
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return "", fmt.Errorf("ffmpeg timed out converting %s", srcPath)
		}
		return "", fmt.Errorf("ffmpeg failed: %w: %s", err, tail(string(output), 512))
	}
	return outPath, nil
}

// convertArgs builds the ffmpeg invocation: overwrite output, copy
// container metadata, encode CBR at the target bitrate.
func convertArgs(srcPath, outPath string) []string {
	return []string{
		"-y",
		"-i", srcPath,
		"-map_metadata", "0",
		"-codec:a", "libmp3lame",
		"-b:a", constants.TargetBitrate,
		outPath,
	}
}

func replaceExt(path, ext string) string {
	return strings.TrimSuffix(path, filepath.Ext(path)) + ext
}

func tail(s string, n int) string {
	s = strings.TrimSpace(s)
	if len(s) <= n {
		return s
	}
	return s[len(s)-n:]
}
