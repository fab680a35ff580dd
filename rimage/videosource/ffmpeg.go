package videosource

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os/exec"
	"strings"
	"sync"

	"github.com/pkg/errors"
	ffmpeg "github.com/u2takey/ffmpeg-go"
	goutils "go.viam.com/utils"

	"go.viam.com/framemask/logging"
	"go.viam.com/framemask/rimage"
)

func init() {
	RegisterBackend("ffmpeg", func(ctx context.Context, source string, logger logging.Logger) (Decoder, error) {
		return NewFFmpegDecoder(ctx, source, logger)
	})
}

type probeResult struct {
	Streams []struct {
		CodecType string `json:"codec_type"`
		Width     int    `json:"width"`
		Height    int    `json:"height"`
	} `json:"streams"`
}

// probeSize asks ffprobe for the frame size of the first video stream of source.
func probeSize(source string) (int, int, error) {
	out, err := ffmpeg.Probe(source, ffmpeg.KwArgs{"select_streams": "v:0"})
	if err != nil {
		return 0, 0, errors.Wrap(err, "ffprobe failed")
	}
	var probed probeResult
	if err := json.Unmarshal([]byte(out), &probed); err != nil {
		return 0, 0, errors.Wrap(err, "cannot parse ffprobe output")
	}
	for _, stream := range probed.Streams {
		if stream.CodecType == "video" && stream.Width > 0 && stream.Height > 0 {
			return stream.Width, stream.Height, nil
		}
	}
	return 0, 0, errors.New("no video stream found")
}

// ffmpegDecoder runs ffmpeg as a child process that writes raw rgb24 frames into a pipe.
type ffmpegDecoder struct {
	source        string
	width, height int
	logger        logging.Logger

	reader     *io.PipeReader
	cancel     context.CancelFunc
	workers    sync.WaitGroup
	stderrMu   sync.Mutex
	stderr     bytes.Buffer
	processErr error
}

// NewFFmpegDecoder starts decoding source with ffmpeg. Both ffmpeg and ffprobe must be on the
// PATH. The child process lives until the decoder is closed or the source ends.
func NewFFmpegDecoder(ctx context.Context, source string, logger logging.Logger) (Decoder, error) {
	// make sure the binaries are in the path before doing anything else
	for _, bin := range []string{"ffmpeg", "ffprobe"} {
		if _, err := exec.LookPath(bin); err != nil {
			return nil, err
		}
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	width, height, err := probeSize(source)
	if err != nil {
		return nil, err
	}

	cancelableCtx, cancel := context.WithCancel(context.Background())
	reader, writer := io.Pipe()
	dec := &ffmpegDecoder{
		source: source,
		width:  width,
		height: height,
		logger: logger,
		reader: reader,
		cancel: cancel,
	}

	stream := ffmpeg.Input(source, ffmpeg.KwArgs{"loglevel": "error"}).
		Output("pipe:", ffmpeg.KwArgs{
			"format":  "rawvideo",
			"pix_fmt": "rgb24",
			"s":       fmt.Sprintf("%dx%d", width, height),
		})
	stream.Context = cancelableCtx
	stream = stream.WithOutput(writer).WithErrorOutput(&lockedWriter{mu: &dec.stderrMu, w: &dec.stderr})

	dec.workers.Add(1)
	goutils.ManagedGo(func() {
		err := stream.Run()
		if err != nil && cancelableCtx.Err() == nil {
			dec.stderrMu.Lock()
			err = errors.Wrapf(err, "ffmpeg: %s", strings.TrimSpace(dec.stderr.String()))
			dec.stderrMu.Unlock()
			dec.processErr = err
		}
		// readers see io.EOF on a clean exit and the process error otherwise
		writer.CloseWithError(err)
	}, dec.workers.Done)

	logger.Debugw("started ffmpeg", "source", source, "width", width, "height", height)
	return dec, nil
}

// Read fills one frame from the pipe. A short final frame is reported as io.ErrUnexpectedEOF.
func (d *ffmpegDecoder) Read(ctx context.Context) (*rimage.Frame, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	frame := rimage.NewFrame(d.width, d.height)
	if _, err := io.ReadFull(d.reader, frame.Pix); err != nil {
		return nil, err
	}
	return frame, nil
}

// Close stops ffmpeg and waits for it to exit. A failed ffmpeg run already ended the stream
// through Read, so it is only logged here.
func (d *ffmpegDecoder) Close() error {
	d.cancel()
	err := d.reader.Close()
	d.workers.Wait()
	if d.processErr != nil {
		d.logger.Debugw("ffmpeg exited with an error", "source", d.source, "error", d.processErr)
	}
	return err
}

type lockedWriter struct {
	mu *sync.Mutex
	w  io.Writer
}

func (lw *lockedWriter) Write(p []byte) (int, error) {
	lw.mu.Lock()
	defer lw.mu.Unlock()
	return lw.w.Write(p)
}
