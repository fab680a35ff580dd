package videosource

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/pkg/errors"
	"go.viam.com/test"

	"go.viam.com/framemask/logging"
	"go.viam.com/framemask/rimage"
)

// writeFrames writes count width x height frames named frame_000.png and so on. Frame i has
// red value i*10 everywhere.
func writeFrames(t *testing.T, dir string, count, width, height int) {
	t.Helper()
	for i := 0; i < count; i++ {
		frame := rimage.NewFrame(width, height)
		for y := 0; y < height; y++ {
			for x := 0; x < width; x++ {
				frame.SetRGB(x, y, uint8(i*10), uint8(x), uint8(y))
			}
		}
		path := filepath.Join(dir, fmt.Sprintf("frame_%03d.png", i))
		test.That(t, rimage.WriteImageToFile(path, frame), test.ShouldBeNil)
	}
}

func TestFilesBackend(t *testing.T) {
	logger := logging.NewTestLogger(t)
	ctx := context.Background()
	dir := t.TempDir()
	writeFrames(t, dir, 5, 4, 3)
	test.That(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("not a frame"), 0o600), test.ShouldBeNil)

	frames, err := ReadAll(ctx, dir, logger, WithBackend("files"), WithOffset(1), WithLimit(3))
	test.That(t, err, test.ShouldBeNil)
	test.That(t, len(frames), test.ShouldEqual, 3)
	for i, frame := range frames {
		test.That(t, frame.Width(), test.ShouldEqual, 4)
		test.That(t, frame.Height(), test.ShouldEqual, 3)
		r, g, b := frame.RGBAt(2, 1)
		test.That(t, []uint8{r, g, b}, test.ShouldResemble, []uint8{uint8((i + 1) * 10), 2, 1})
	}

	var indexes []int
	err = Each(ctx, filepath.Join(dir, "frame_00[24].png"), logger, func(index int, frame *rimage.Frame) error {
		indexes = append(indexes, index)
		return nil
	}, WithBackend("files"))
	test.That(t, err, test.ShouldBeNil)
	test.That(t, indexes, test.ShouldResemble, []int{0, 1})
}

func TestFilesBackendSizeChangeEndsStream(t *testing.T) {
	dir := t.TempDir()
	writeFrames(t, dir, 2, 4, 3)
	odd := rimage.NewFrame(2, 2)
	test.That(t, rimage.WriteImageToFile(filepath.Join(dir, "frame_002.png"), odd), test.ShouldBeNil)

	frames, err := ReadAll(context.Background(), dir, logging.NewTestLogger(t), WithBackend("files"))
	test.That(t, err, test.ShouldBeNil)
	test.That(t, len(frames), test.ShouldEqual, 2)
}

func TestFilesBackendOpenError(t *testing.T) {
	_, err := Open(context.Background(), filepath.Join(t.TempDir(), "*.png"), logging.NewTestLogger(t),
		WithBackend("files"))
	var openErr *OpenError
	test.That(t, errors.As(err, &openErr), test.ShouldBeTrue)
	test.That(t, err.Error(), test.ShouldContainSubstring, "no image files")

	notes := filepath.Join(t.TempDir(), "notes.txt")
	test.That(t, os.WriteFile(notes, []byte("not a frame"), 0o600), test.ShouldBeNil)
	_, err = Open(context.Background(), notes, logging.NewTestLogger(t), WithBackend("files"))
	test.That(t, errors.As(err, &openErr), test.ShouldBeTrue)
	test.That(t, err.Error(), test.ShouldContainSubstring, "not an image file")
}
