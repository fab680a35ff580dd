package videosource

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"sort"

	"github.com/pkg/errors"
	"github.com/samber/lo"

	"go.viam.com/framemask/logging"
	"go.viam.com/framemask/rimage"
)

func init() {
	RegisterBackend("files", func(ctx context.Context, source string, logger logging.Logger) (Decoder, error) {
		return NewFilesDecoder(source, logger)
	})
}

// filesDecoder treats a sorted list of image files as the frames of a video.
type filesDecoder struct {
	paths  []string
	next   int
	size   *[2]int
	logger logging.Logger
}

// NewFilesDecoder reads the image files of a directory, or the files matching a glob pattern, in
// lexical order. Every file must decode to the same size as the first one.
func NewFilesDecoder(source string, logger logging.Logger) (Decoder, error) {
	paths, err := listImageFiles(source)
	if err != nil {
		return nil, err
	}
	if len(paths) == 0 {
		return nil, errors.Errorf("no image files in %q", source)
	}
	logger.Debugw("found image files", "source", source, "count", len(paths))
	return &filesDecoder{paths: paths, logger: logger}, nil
}

func listImageFiles(source string) ([]string, error) {
	var paths []string
	info, err := os.Stat(source)
	switch {
	case err == nil && info.IsDir():
		entries, err := os.ReadDir(source)
		if err != nil {
			return nil, err
		}
		paths = lo.FilterMap(entries, func(entry os.DirEntry, _ int) (string, bool) {
			return filepath.Join(source, entry.Name()), !entry.IsDir() && rimage.IsImageFile(entry.Name())
		})
	case err == nil:
		if !rimage.IsImageFile(source) {
			return nil, errors.Errorf("%q is not an image file", source)
		}
		paths = []string{source}
	default:
		paths, err = filepath.Glob(source)
		if err != nil {
			return nil, err
		}
		paths = lo.Filter(paths, func(path string, _ int) bool {
			return rimage.IsImageFile(path)
		})
	}
	sort.Strings(paths)
	return paths, nil
}

func (d *filesDecoder) Read(ctx context.Context) (*rimage.Frame, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if d.next >= len(d.paths) {
		return nil, io.EOF
	}
	path := d.paths[d.next]
	d.next++

	img, err := rimage.ReadImageFromFile(path)
	if err != nil {
		return nil, err
	}
	frame := rimage.NewFrameFromImage(img)
	size := [2]int{frame.Width(), frame.Height()}
	if d.size == nil {
		d.size = &size
	} else if *d.size != size {
		return nil, errors.Errorf("%q is %dx%d, earlier frames are %dx%d", path, size[0], size[1], d.size[0], d.size[1])
	}
	return frame, nil
}

func (d *filesDecoder) Close() error {
	d.paths = nil
	return nil
}
