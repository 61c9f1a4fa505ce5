package relay

import (
	"context"
	"io"
	"sync"
)

// one recv per loop pass, matching what a browser websocket
// frame usually fits in
const chunkSize = 4096

// Session owns a client and a backend connection pair for the
// duration of one relayed websocket session. Bytes are opaque
// payload; no frame parsing happens here.
type Session struct {
	client  io.ReadWriteCloser
	backend io.ReadWriteCloser

	wg        sync.WaitGroup
	closeOnce sync.Once
}

func NewSession(client, backend io.ReadWriteCloser) *Session {
	return &Session{
		client:  client,
		backend: backend,
	}
}

// Run pumps bytes in both directions until either side reaches
// EOF or errors, then closes both connections. It blocks until
// both directions have stopped. Cancelling ctx also tears the
// pair down.
func (s *Session) Run(ctx context.Context) {
	defer s.Close()

	stop := make(chan struct{})
	defer close(stop)

	go func() {
		select {
		case <-ctx.Done():
			s.Close()
		case <-stop:
		}
	}()

	// partner mapping is fixed here: whatever the client sends
	// goes to the backend, whatever the backend sends goes to
	// the client.
	s.wg.Add(2)
	go s.pump(s.backend, s.client)
	go s.pump(s.client, s.backend)
	s.wg.Wait()
}

func (s *Session) pump(dst io.Writer, src io.Reader) {
	defer s.wg.Done()

	buf := make([]byte, chunkSize)
	io.CopyBuffer(dst, src, buf)

	// EOF or error on one direction ends the whole session
	s.Close()
}

// Close closes both connections. Safe to call more than once.
func (s *Session) Close() {
	s.closeOnce.Do(func() {
		s.client.Close()
		s.backend.Close()
	})
}
