// Package wire runs the TCP accept loop for the tick-database protocol.
// Each accepted connection gets its own goroutine, its own bootstrapped
// session.State, and runs until the peer disconnects or the server shuts
// down. No state is shared between connections.
package wire

import (
	"bufio"
	"context"
	"encoding/binary"
	"fmt"
	"io"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel/codes"

	"github.com/erismart/tectonic/internal/logger"
	"github.com/erismart/tectonic/internal/metrics"
	"github.com/erismart/tectonic/internal/telemetry"
	"github.com/erismart/tectonic/pkg/bootstrap"
	"github.com/erismart/tectonic/pkg/dispatch"
	"github.com/erismart/tectonic/pkg/headercache"
	"github.com/erismart/tectonic/pkg/session"
)

const (
	statusOK  = 0x01
	statusErr = 0x00
)

// Config controls the server's listen address and the per-connection
// session settings bootstrap derives every store from.
type Config struct {
	Host     string
	Port     int
	Verbose  uint
	Settings session.Settings
}

// Server accepts connections and dispatches commands against freshly
// bootstrapped per-connection state.
type Server struct {
	cfg     Config
	cache   *headercache.Cache
	metrics *metrics.Metrics

	listenerMu sync.Mutex
	listener   net.Listener

	shutdown     chan struct{}
	shutdownOnce sync.Once
	activeConns  sync.WaitGroup
	connCount    atomic.Int32
}

// New returns a Server for cfg. cache and m may both be nil to disable
// header caching and metrics recording respectively.
func New(cfg Config, cache *headercache.Cache, m *metrics.Metrics) *Server {
	return &Server{
		cfg:      cfg,
		cache:    cache,
		metrics:  m,
		shutdown: make(chan struct{}),
	}
}

// Serve binds the listen address and accepts connections until ctx is
// cancelled, at which point it stops accepting and waits for in-flight
// connections to finish their current command.
func (s *Server) Serve(ctx context.Context) error {
	addr := fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port)

	if s.cfg.Verbose > 1 {
		logger.Debug("trying to bind", "addr", addr)
		if s.cfg.Settings.Autoflush {
			logger.Debug("autoflush enabled", "flush_interval", s.cfg.Settings.FlushInterval)
		}
	}

	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("wire: listen on %s: %w", addr, err)
	}
	s.listenerMu.Lock()
	s.listener = listener
	s.listenerMu.Unlock()

	if s.cfg.Verbose > 0 {
		logger.Info("listening on addr", "addr", addr)
	}

	go func() {
		<-ctx.Done()
		s.initiateShutdown()
	}()

	for {
		conn, err := listener.Accept()
		if err != nil {
			select {
			case <-s.shutdown:
				s.activeConns.Wait()
				return nil
			default:
				logger.Debug("error accepting connection", "error", err)
				continue
			}
		}

		s.activeConns.Add(1)
		s.connCount.Add(1)
		logger.Debug("connection accepted", "address", conn.RemoteAddr(), "active", s.connCount.Load())
		if s.metrics != nil {
			s.metrics.ConnectionsTotal.Inc()
			s.metrics.ConnectionsActive.Inc()
		}

		go func(c net.Conn) {
			defer func() {
				s.activeConns.Done()
				s.connCount.Add(-1)
				if s.metrics != nil {
					s.metrics.ConnectionsActive.Dec()
				}
				logger.Debug("connection closed", "address", c.RemoteAddr(), "active", s.connCount.Load())
			}()
			s.handleConnection(ctx, c)
		}(conn)
	}
}

func (s *Server) initiateShutdown() {
	s.shutdownOnce.Do(func() {
		close(s.shutdown)
		s.listenerMu.Lock()
		if s.listener != nil {
			if err := s.listener.Close(); err != nil {
				logger.Debug("error closing listener", "error", err)
			}
		}
		s.listenerMu.Unlock()
	})
}

func (s *Server) handleConnection(ctx context.Context, conn net.Conn) {
	defer conn.Close()

	scanStart := time.Now()
	state, err := bootstrap.State(s.cfg.Settings, s.cache)
	if s.metrics != nil {
		s.metrics.BootstrapScanSeconds.Observe(time.Since(scanStart).Seconds())
	}
	if err != nil {
		logger.Warn("failed to bootstrap connection", "error", err, "address", conn.RemoteAddr())
		return
	}

	// On shutdown, unblock a pending read so an idle connection ends; a
	// command already being dispatched still gets its response written.
	stopUnblock := context.AfterFunc(ctx, func() { _ = conn.SetReadDeadline(time.Now()) })
	defer stopUnblock()

	scanner := bufio.NewScanner(conn)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	scanner.Split(scanLines)

	for scanner.Scan() {
		select {
		case <-ctx.Done():
			return
		default:
		}

		line := scanner.Text()
		verb := commandVerb(line)
		spanCtx, span := telemetry.StartDispatchSpan(ctx, verb, telemetry.ClientAddr(conn.RemoteAddr().String()))
		resp := dispatch.GenResponse(line, state)
		if resp.IsErr {
			telemetry.SetStatus(spanCtx, codes.Error, resp.Err)
		}
		span.End()
		if s.metrics != nil {
			s.metrics.CommandsTotal.WithLabelValues(verb).Inc()
			if !resp.IsErr && line == "FLUSH" {
				s.metrics.FlushesTotal.WithLabelValues(state.CurrentStoreName).Inc()
			}
			if !resp.IsErr && line == "FLUSH ALL" {
				for name := range state.Store {
					s.metrics.FlushesTotal.WithLabelValues(name).Inc()
				}
			}
		}

		if err := writeResponse(conn, resp); err != nil {
			logger.Debug("failed to write response", "error", err, "address", conn.RemoteAddr())
			return
		}
	}
}

// scanLines is bufio.ScanLines with the trailing '\r' trimmed but without
// requiring the client to separately send ';' terminators; the protocol's
// command grammar keeps its own terminators ("," / ";") inside the line.
func scanLines(data []byte, atEOF bool) (advance int, token []byte, err error) {
	if atEOF && len(data) == 0 {
		return 0, nil, nil
	}
	if i := indexByte(data, '\n'); i >= 0 {
		return i + 1, dropCR(data[0:i]), nil
	}
	if atEOF {
		return len(data), dropCR(data), nil
	}
	return 0, nil, nil
}

func indexByte(data []byte, b byte) int {
	for i, c := range data {
		if c == b {
			return i
		}
	}
	return -1
}

func dropCR(data []byte) []byte {
	if len(data) > 0 && data[len(data)-1] == '\r' {
		return data[0 : len(data)-1]
	}
	return data
}

func commandVerb(line string) string {
	for i, ch := range line {
		if ch == ' ' {
			return line[:i]
		}
	}
	if line == "" {
		return "empty"
	}
	return line
}

func writeResponse(w io.Writer, resp dispatch.Response) error {
	switch {
	case resp.IsErr:
		return writeText(w, statusErr, fmt.Sprintf("ERR: %s\n", resp.Err))
	case resp.Binary != nil:
		if _, err := w.Write([]byte{statusOK}); err != nil {
			return err
		}
		_, err := w.Write(resp.Binary)
		return err
	default:
		return writeText(w, statusOK, resp.Text)
	}
}

func writeText(w io.Writer, status byte, text string) error {
	if _, err := w.Write([]byte{status}); err != nil {
		return err
	}
	var lenBuf [8]byte
	binary.BigEndian.PutUint64(lenBuf[:], uint64(len(text)))
	if _, err := w.Write(lenBuf[:]); err != nil {
		return err
	}
	_, err := io.WriteString(w, text)
	return err
}
