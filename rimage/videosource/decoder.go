package videosource

import (
	"context"
	"sort"
	"sync"

	"github.com/pkg/errors"

	"go.viam.com/framemask/logging"
	"go.viam.com/framemask/rimage"
)

// A Decoder produces the frames of one video source in order. Read returns io.EOF at the natural
// end of the source; any other error is a decode failure. Decoders are used by a single goroutine.
type Decoder interface {
	Read(ctx context.Context) (*rimage.Frame, error)
	Close() error
}

// BackendFunc opens a decoder for a source. Failures should be returned as is; Open wraps them
// into an OpenError.
type BackendFunc func(ctx context.Context, source string, logger logging.Logger) (Decoder, error)

// DefaultBackend is used when no backend is selected.
const DefaultBackend = "ffmpeg"

var (
	backendsMu sync.RWMutex
	backends   = map[string]BackendFunc{}
)

// RegisterBackend makes a decoder backend available by name. It panics when the name is already
// taken, so call it from init.
func RegisterBackend(name string, fn BackendFunc) {
	backendsMu.Lock()
	defer backendsMu.Unlock()
	if _, ok := backends[name]; ok {
		panic(errors.Errorf("trying to register two video backends with the same name %q", name))
	}
	if fn == nil {
		panic(errors.Errorf("cannot register a nil video backend %q", name))
	}
	backends[name] = fn
}

// LookupBackend returns the backend registered under name.
func LookupBackend(name string) (BackendFunc, bool) {
	backendsMu.RLock()
	defer backendsMu.RUnlock()
	fn, ok := backends[name]
	return fn, ok
}

// Backends lists the registered backend names in sorted order.
func Backends() []string {
	backendsMu.RLock()
	defer backendsMu.RUnlock()
	names := make([]string, 0, len(backends))
	for name := range backends {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
