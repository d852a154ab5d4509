package capture

import (
	"context"
	"io"
)

// ReaderMicrophone serves an already-open audio stream, such as an
// encoder's stdout, as a microphone. Closing the stream closes the reader
// when it is an io.Closer.
type ReaderMicrophone struct {
	R io.Reader
}

func (m ReaderMicrophone) Open(context.Context) (io.ReadCloser, error) {
	if m.R == nil {
		return nil, ErrMicrophoneDenied
	}
	if rc, ok := m.R.(io.ReadCloser); ok {
		return rc, nil
	}
	return io.NopCloser(m.R), nil
}

// MicrophoneFunc adapts a function to Microphone.
type MicrophoneFunc func(ctx context.Context) (io.ReadCloser, error)

func (f MicrophoneFunc) Open(ctx context.Context) (io.ReadCloser, error) {
	return f(ctx)
}
