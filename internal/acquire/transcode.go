package acquire

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/tgillam/jukebox/internal/shared"
)

// Transcoder converts a raw downloaded artifact into library audio.
// onProgress reports the transcode phase in percent, ending at 100 on
// success. hint is the expected media duration and may be zero when the
// candidate did not carry one.
type Transcoder interface {
	Transcode(ctx context.Context, src, dst string, hint time.Duration, onProgress func(percent int)) error
}

// FFmpegTranscoder shells out to ffmpeg and parses its machine-readable
// progress stream.
type FFmpegTranscoder struct {
	Binary  string // defaults to "ffmpeg"
	Bitrate string // defaults to "128k"
}

func (t *FFmpegTranscoder) Transcode(ctx context.Context, src, dst string, hint time.Duration, onProgress func(percent int)) error {
	binary := t.Binary
	if binary == "" {
		binary = "ffmpeg"
	}
	bitrate := t.Bitrate
	if bitrate == "" {
		bitrate = "128k"
	}

	cmd := exec.CommandContext(ctx, binary,
		"-y",
		"-i", src,
		"-vn",
		"-c:a", "libmp3lame",
		"-b:a", bitrate,
		"-f", "mp3",
		"-loglevel", "error",
		"-nostats",
		"-progress", "pipe:1",
		dst,
	)

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrAcquisitionDecode, err)
	}
	var stderr strings.Builder
	cmd.Stderr = &stderr

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("%w: failed to start %s: %v", shared.ErrAcquisitionDecode, binary, err)
	}

	if onProgress != nil {
		go reportProgress(stdout, hint, onProgress)
	}

	if err := cmd.Wait(); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		detail := strings.TrimSpace(stderr.String())
		if detail == "" {
			detail = err.Error()
		}
		return fmt.Errorf("%w: %s", shared.ErrAcquisitionDecode, detail)
	}

	if onProgress != nil {
		onProgress(100)
	}
	return nil
}

// reportProgress scans ffmpeg's key=value progress stream. With a duration
// hint the percent tracks out_time against it; without one it crawls so the
// caller still sees movement. Either way it stays below 100 until Wait
// confirms success.
func reportProgress(r io.Reader, hint time.Duration, onProgress func(percent int)) {
	scanner := bufio.NewScanner(r)
	crawl := 0
	for scanner.Scan() {
		key, value, ok := strings.Cut(strings.TrimSpace(scanner.Text()), "=")
		if !ok {
			continue
		}
		switch key {
		case "out_time_us", "out_time_ms":
			if hint <= 0 {
				continue
			}
			us, err := strconv.ParseInt(value, 10, 64)
			if err != nil {
				continue
			}
			percent := int(time.Duration(us) * time.Microsecond * 100 / hint)
			if percent > 99 {
				percent = 99
			}
			onProgress(percent)
		case "progress":
			if hint <= 0 {
				crawl += 7
				if crawl > 95 {
					crawl = 95
				}
				onProgress(crawl)
			}
		}
	}
}
