package capture

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/kanikamera/agent/src/config"
	"github.com/kanikamera/agent/src/log"
	"github.com/kanikamera/agent/src/models"
)

// Raspberry drives the Raspberry Pi camera through the platform tooling:
// libcamera-still/libcamera-vid on current images, raspistill/raspivid on
// legacy ones. Frames come out of the tools' stdout, so no intermediate
// files are written for captures.
type Raspberry struct {
	settings models.Capture
	flavor   string
	stillBin string
	videoBin string
	width    int
	height   int
}

func NewRaspberry(settings models.Capture) *Raspberry {
	width, height, err := config.ParseResolution(settings.Resolution)
	if err != nil {
		// Validation catches this at startup, fall back to something sane
		// anyway for devices constructed from partial settings.
		width, height = 1296, 972
	}
	flavor, stillBin, videoBin := findCameraTools(settings.Device)
	return &Raspberry{
		settings: settings,
		flavor:   flavor,
		stillBin: stillBin,
		videoBin: videoBin,
		width:    width,
		height:   height,
	}
}

// findCameraTools picks the capture binaries. The device override forces
// a flavor, otherwise whatever is installed wins, preferring libcamera.
func findCameraTools(override string) (flavor string, stillBin string, videoBin string) {
	switch override {
	case "libcamera":
		return "libcamera", lookPathOr("libcamera-still"), lookPathOr("libcamera-vid")
	case "legacy":
		return "legacy", lookPathOr("raspistill"), lookPathOr("raspivid")
	}
	if still, err := exec.LookPath("libcamera-still"); err == nil {
		if video, err := exec.LookPath("libcamera-vid"); err == nil {
			return "libcamera", still, video
		}
	}
	if still, err := exec.LookPath("raspistill"); err == nil {
		if video, err := exec.LookPath("raspivid"); err == nil {
			return "legacy", still, video
		}
	}
	return "", "", ""
}

func lookPathOr(name string) string {
	if path, err := exec.LookPath(name); err == nil {
		return path
	}
	return name
}

func (r *Raspberry) Open() error {
	if r.stillBin == "" || r.videoBin == "" {
		return errors.New("no camera tooling found, install libcamera-apps or the legacy raspicam tools")
	}
	return nil
}

func (r *Raspberry) Close() error {
	return nil
}

// Still captures a single frame and returns it as JPEG bytes.
func (r *Raspberry) Still(ctx context.Context) ([]byte, error) {
	quality := r.settings.Quality
	if quality == 0 {
		quality = 85
	}

	var args []string
	switch r.flavor {
	case "legacy":
		args = []string{
			"-n", "-t", "1000",
			"-w", strconv.Itoa(r.width),
			"-h", strconv.Itoa(r.height),
			"-q", strconv.Itoa(quality),
		}
		if r.settings.Rotation != 0 {
			args = append(args, "-rot", strconv.Itoa(r.settings.Rotation))
		}
	default:
		args = []string{
			"-n", "-t", "1000",
			"--width", strconv.Itoa(r.width),
			"--height", strconv.Itoa(r.height),
			"--quality", strconv.Itoa(quality),
		}
		if r.settings.Rotation != 0 {
			args = append(args, "--rotation", strconv.Itoa(r.settings.Rotation))
		}
	}
	args = append(args, "-o", "-")

	cmd := exec.CommandContext(ctx, r.stillBin, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	log.Log.Debug("capture.Raspberry.Still(): " + r.stillBin + " " + strings.Join(args, " "))
	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, errors.New(err.Error() + stderrTail(&stderr))
	}
	if stdout.Len() == 0 {
		return nil, errors.New("camera produced an empty frame" + stderrTail(&stderr))
	}
	return stdout.Bytes(), nil
}

// Record streams raw H264 to w for the given duration. Inline SPS/PPS
// headers are requested so the encoder downstream can pick up anywhere.
func (r *Raspberry) Record(ctx context.Context, w io.Writer, duration time.Duration) error {
	frameRate := r.settings.FrameRate
	if frameRate == 0 {
		frameRate = 30
	}
	milliseconds := strconv.FormatInt(duration.Milliseconds(), 10)

	var args []string
	switch r.flavor {
	case "legacy":
		args = []string{
			"-n", "-t", milliseconds,
			"-w", strconv.Itoa(r.width),
			"-h", strconv.Itoa(r.height),
			"-fps", strconv.Itoa(frameRate),
			"-ih",
		}
		if r.settings.Rotation != 0 {
			args = append(args, "-rot", strconv.Itoa(r.settings.Rotation))
		}
	default:
		args = []string{
			"-n", "-t", milliseconds,
			"--width", strconv.Itoa(r.width),
			"--height", strconv.Itoa(r.height),
			"--framerate", strconv.Itoa(frameRate),
			"--codec", "h264",
			"--inline",
		}
		if r.settings.Rotation != 0 {
			args = append(args, "--rotation", strconv.Itoa(r.settings.Rotation))
		}
	}
	args = append(args, "-o", "-")

	cmd := exec.CommandContext(ctx, r.videoBin, args...)
	cmd.Stdout = w
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	log.Log.Debug("capture.Raspberry.Record(): " + r.videoBin + " " + strings.Join(args, " "))
	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return errors.New(err.Error() + stderrTail(&stderr))
	}
	return nil
}

func stderrTail(stderr *bytes.Buffer) string {
	out := strings.TrimSpace(stderr.String())
	if out == "" {
		return ""
	}
	if len(out) > 300 {
		out = out[len(out)-300:]
	}
	return ": " + strings.ReplaceAll(out, "\n", " ")
}
