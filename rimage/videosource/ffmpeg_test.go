package videosource

import (
	"context"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/pkg/errors"
	"go.viam.com/test"

	"go.viam.com/framemask/logging"
)

func skipWithoutFFmpeg(t *testing.T) {
	t.Helper()
	for _, bin := range []string{"ffmpeg", "ffprobe"} {
		if _, err := exec.LookPath(bin); err != nil {
			t.Skipf("%s not installed", bin)
		}
	}
}

func TestFFmpegBackend(t *testing.T) {
	skipWithoutFFmpeg(t)
	logger := logging.NewTestLogger(t)
	ctx := context.Background()
	dir := t.TempDir()
	writeFrames(t, dir, 10, 8, 6)
	pattern := filepath.Join(dir, "frame_%03d.png")

	frames, err := ReadAll(ctx, pattern, logger)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, len(frames), test.ShouldEqual, 10)
	for i, frame := range frames {
		test.That(t, frame.Width(), test.ShouldEqual, 8)
		test.That(t, frame.Height(), test.ShouldEqual, 6)
		r, g, b := frame.RGBAt(5, 4)
		test.That(t, []uint8{r, g, b}, test.ShouldResemble, []uint8{uint8(i * 10), 5, 4})
	}

	frames, err = ReadAll(ctx, pattern, logger, WithOffset(3), WithLimit(4))
	test.That(t, err, test.ShouldBeNil)
	test.That(t, len(frames), test.ShouldEqual, 4)
	r, _, _ := frames[0].RGBAt(0, 0)
	test.That(t, r, test.ShouldEqual, 30)
}

func TestFFmpegBackendEarlyClose(t *testing.T) {
	skipWithoutFFmpeg(t)
	dir := t.TempDir()
	writeFrames(t, dir, 10, 8, 6)

	s, err := Open(context.Background(), filepath.Join(dir, "frame_%03d.png"), logging.NewTestLogger(t))
	test.That(t, err, test.ShouldBeNil)
	_, err = s.Next(context.Background())
	test.That(t, err, test.ShouldBeNil)
	test.That(t, s.Close(), test.ShouldBeNil)
}

func TestFFmpegBackendMissingSource(t *testing.T) {
	skipWithoutFFmpeg(t)
	_, err := Open(context.Background(), filepath.Join(t.TempDir(), "missing.mp4"), logging.NewTestLogger(t))
	var openErr *OpenError
	test.That(t, errors.As(err, &openErr), test.ShouldBeTrue)
}

func TestFFmpegBackendWithoutFFmpeg(t *testing.T) {
	t.Setenv("PATH", "")
	_, err := Open(context.Background(), "movie.mp4", logging.NewTestLogger(t))
	var openErr *OpenError
	test.That(t, errors.As(err, &openErr), test.ShouldBeTrue)
	test.That(t, err.Error(), test.ShouldContainSubstring, "not found")
}
