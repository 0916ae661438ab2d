// Turning raw camera streams into MP4 files with an external encoder.
package video

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"os/exec"
	"strconv"
	"strings"

	"github.com/kanikamera/agent/src/log"
	"github.com/kanikamera/agent/src/models"
	"go.opentelemetry.io/otel"
)

var tracer = otel.Tracer("github.com/kanikamera/agent/src/video")

// Transcoder wraps the external encoder binary. The raw stream is fed
// to the encoder's stdin, so recording and encoding overlap and no
// intermediate file is ever written.
type Transcoder struct {
	Binary string
}

func NewTranscoder(binary string) *Transcoder {
	if binary == "" {
		binary = "ffmpeg"
	}
	return &Transcoder{Binary: binary}
}

// Encode runs the encoder until raw is exhausted and the container at
// output is finalized. On any failure the partial output is removed, a
// half-written MP4 must never reach the uploader.
func (t *Transcoder) Encode(ctx context.Context, raw io.Reader, frameRate int, output string) error {
	_, span := tracer.Start(ctx, "video.Transcoder.Encode")
	defer span.End()

	if frameRate == 0 {
		frameRate = 30
	}
	args := []string{
		"-hide_banner", "-loglevel", "error", "-y",
		"-framerate", strconv.Itoa(frameRate),
		"-i", "pipe:0",
		"-c:v", "copy",
		"-movflags", "+faststart",
		"-f", "mp4",
		output,
	}

	cmd := exec.CommandContext(ctx, t.Binary, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return &models.TranscodeError{ExitCode: -1, Err: err}
	}

	log.Log.Debug("video.Transcoder.Encode(): " + t.Binary + " " + strings.Join(args, " "))
	if err := cmd.Start(); err != nil {
		return &models.TranscodeError{ExitCode: -1, Err: err}
	}

	_, pumpErr := io.Copy(stdin, raw)
	stdin.Close()
	waitErr := cmd.Wait()

	if ctx.Err() != nil {
		os.Remove(output)
		return ctx.Err()
	}
	if waitErr != nil {
		os.Remove(output)
		exitCode := -1
		var exitErr *exec.ExitError
		if errors.As(waitErr, &exitErr) {
			exitCode = exitErr.ExitCode()
		}
		return &models.TranscodeError{ExitCode: exitCode, Stderr: stderrTail(&stderr), Err: waitErr}
	}
	if pumpErr != nil {
		os.Remove(output)
		return &models.TranscodeError{ExitCode: 0, Stderr: stderrTail(&stderr), Err: pumpErr}
	}

	info, err := os.Stat(output)
	if err != nil || info.Size() == 0 {
		os.Remove(output)
		if err == nil {
			err = errors.New("encoder produced an empty file")
		}
		return &models.TranscodeError{ExitCode: 0, Stderr: stderrTail(&stderr), Err: err}
	}
	return nil
}

func stderrTail(stderr *bytes.Buffer) string {
	out := strings.TrimSpace(stderr.String())
	if len(out) > 300 {
		out = out[len(out)-300:]
	}
	return strings.ReplaceAll(out, "\n", " ")
}
