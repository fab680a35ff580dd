// Package videosource reads frames from video sources as lazy, bounded streams.
package videosource

import (
	"context"
	"io"
	"iter"
	"sync"

	"github.com/pkg/errors"
	"go.uber.org/multierr"

	"go.viam.com/framemask/logging"
	"go.viam.com/framemask/rimage"
)

// Unbounded is the limit of a stream that runs until its source ends.
const Unbounded = -1

type options struct {
	offset  int
	limit   int
	backend string
}

// An Option configures Open.
type Option func(*options)

// WithOffset discards the first n decoded frames. Skipped frames are decoded, not seeked over.
func WithOffset(n int) Option {
	return func(o *options) { o.offset = n }
}

// WithLimit yields at most n frames, or all of them when n is Unbounded.
func WithLimit(n int) Option {
	return func(o *options) { o.limit = n }
}

// WithBackend selects a registered decoder backend.
func WithBackend(name string) Option {
	return func(o *options) { o.backend = name }
}

func newOptions(opts []Option) (options, error) {
	o := options{limit: Unbounded, backend: DefaultBackend}
	for _, opt := range opts {
		opt(&o)
	}
	if o.offset < 0 {
		return o, errors.Errorf("offset must be non-negative, got %d", o.offset)
	}
	if o.limit < Unbounded {
		return o, errors.Errorf("limit must be non-negative or unbounded, got %d", o.limit)
	}
	return o, nil
}

// A Stream yields the frames of one source between an offset and a limit. It is forward only
// and cannot be restarted; open the source again to read it again.
type Stream struct {
	mu     sync.Mutex
	source string
	dec    Decoder
	logger logging.Logger

	skip      int
	remaining int
	decoded   int
	index     int
	done      bool

	closeOnce sync.Once
	closeErr  error
}

// Open opens source with the selected backend. A source that cannot be opened yields an
// *OpenError.
func Open(ctx context.Context, source string, logger logging.Logger, opts ...Option) (*Stream, error) {
	o, err := newOptions(opts)
	if err != nil {
		return nil, err
	}
	backend, ok := LookupBackend(o.backend)
	if !ok {
		return nil, errors.Errorf("unknown video backend %q, have %v", o.backend, Backends())
	}
	logger = logger.Sublogger(o.backend)
	dec, err := backend(ctx, source, logger)
	if err != nil {
		return nil, NewOpenError(source, err)
	}
	logger.Debugw("opened video source", "source", source, "offset", o.offset, "limit", o.limit)
	return newStream(source, dec, logger, o), nil
}

// OpenDecoder wraps an already open decoder in a Stream. The backend option is ignored. The
// stream owns dec from here on and closes it even when the options are invalid.
func OpenDecoder(dec Decoder, logger logging.Logger, opts ...Option) (*Stream, error) {
	o, err := newOptions(opts)
	if err != nil {
		return nil, multierr.Combine(err, dec.Close())
	}
	return newStream("", dec, logger, o), nil
}

func newStream(source string, dec Decoder, logger logging.Logger, o options) *Stream {
	return &Stream{
		source:    source,
		dec:       dec,
		logger:    logger,
		skip:      o.offset,
		remaining: o.limit,
		index:     -1,
	}
}

// Next returns the next frame, or ErrEndOfStream once the limit is reached, the source ends, or a
// frame fails to decode. The end is permanent and the decoder is released as soon as it is
// reached. A done context returns its error and leaves the stream as it was.
func (s *Stream) Next(ctx context.Context) (*rimage.Frame, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.done {
		return nil, ErrEndOfStream
	}
	if s.remaining == 0 {
		s.finish()
		return nil, ErrEndOfStream
	}

	for s.skip > 0 {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if _, err := s.read(ctx); err != nil {
			return nil, err
		}
		s.skip--
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	frame, err := s.read(ctx)
	if err != nil {
		return nil, err
	}
	s.index = s.decoded - 1
	if s.remaining > 0 {
		s.remaining--
		if s.remaining == 0 {
			s.finish()
		}
	}
	return frame, nil
}

// read decodes one frame. Any failure ends the stream unless ctx was done by then, in which case
// the context error is returned and the stream is left open.
func (s *Stream) read(ctx context.Context) (*rimage.Frame, error) {
	frame, err := s.dec.Read(ctx)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
	} else {
		err = frame.Validate()
	}
	if err != nil {
		if !errors.Is(err, io.EOF) {
			s.logger.Debugw("decode failed, ending stream", "source", s.source, "frame", s.decoded, "error", err)
		}
		s.finish()
		return nil, ErrEndOfStream
	}
	s.decoded++
	return frame, nil
}

func (s *Stream) finish() {
	s.done = true
	s.release()
}

func (s *Stream) release() {
	s.closeOnce.Do(func() {
		s.closeErr = s.dec.Close()
		if s.closeErr != nil {
			s.logger.Debugw("error closing decoder", "source", s.source, "error", s.closeErr)
		}
	})
}

// Close releases the decoder. It is safe to call more than once and after the stream has ended;
// every call returns the error of the one release.
func (s *Stream) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.finish()
	return s.closeErr
}

// Index returns the source position of the last frame Next returned, counting skipped frames,
// or -1 before the first one.
func (s *Stream) Index() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.index
}

// All returns the rest of the stream as a sequence. The stream is closed when the sequence ends,
// whether it ran out, failed or the loop stopped early.
func (s *Stream) All(ctx context.Context) iter.Seq2[*rimage.Frame, error] {
	return func(yield func(*rimage.Frame, error) bool) {
		for {
			frame, err := s.Next(ctx)
			if errors.Is(err, ErrEndOfStream) {
				if err := s.Close(); err != nil {
					yield(nil, err)
				}
				return
			}
			if err != nil {
				yield(nil, multierr.Combine(err, s.Close()))
				return
			}
			if !yield(frame, nil) {
				s.closeQuietly()
				return
			}
		}
	}
}

func (s *Stream) closeQuietly() {
	if err := s.Close(); err != nil {
		s.logger.Debugw("error closing stream", "source", s.source, "error", err)
	}
}

// ReadAll reads the rest of the stream into memory and closes it.
func (s *Stream) ReadAll(ctx context.Context) ([]*rimage.Frame, error) {
	var frames []*rimage.Frame
	for frame, err := range s.All(ctx) {
		if err != nil {
			return frames, err
		}
		frames = append(frames, frame)
	}
	return frames, nil
}

// Each calls fn for every remaining frame with its source index, then closes the stream. It stops
// at the first error from fn.
func (s *Stream) Each(ctx context.Context, fn func(index int, frame *rimage.Frame) error) (err error) {
	defer func() {
		err = multierr.Combine(err, s.Close())
	}()
	for {
		frame, err := s.Next(ctx)
		if errors.Is(err, ErrEndOfStream) {
			return nil
		}
		if err != nil {
			return err
		}
		if err := fn(s.Index(), frame); err != nil {
			return err
		}
	}
}

// ReadAll opens source and returns all frames the options select, in order.
func ReadAll(ctx context.Context, source string, logger logging.Logger, opts ...Option) ([]*rimage.Frame, error) {
	s, err := Open(ctx, source, logger, opts...)
	if err != nil {
		return nil, err
	}
	return s.ReadAll(ctx)
}

// Each opens source, calls fn for every selected frame and always closes the source again.
func Each(
	ctx context.Context,
	source string,
	logger logging.Logger,
	fn func(index int, frame *rimage.Frame) error,
	opts ...Option,
) error {
	s, err := Open(ctx, source, logger, opts...)
	if err != nil {
		return err
	}
	return s.Each(ctx, fn)
}
