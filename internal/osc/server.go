package osc

import (
	"errors"
	"fmt"
	"net"
	"sync"
	"sync/atomic"
	"time"

	goosc "github.com/hypebeast/go-osc/osc"
)

// Logger interface for optional logging.
type Logger interface {
	Debug(msg string, keysAndValues ...any)
	Info(msg string, keysAndValues ...any)
	Warn(msg string, keysAndValues ...any)
	Error(msg string, keysAndValues ...any)
}

// Handler receives one OSC message. Bundles are delivered as their
// individual messages. args holds the decoded go-osc argument values
// (int32, int64, float32, float64, string, bool, []byte, nil, Timetag).
type Handler func(address string, args []any)

// ServerConfig holds listener settings.
type ServerConfig struct {
	// Address is the UDP listen address, e.g. "0.0.0.0:3333".
	Address string
}

// ServerStats holds listener statistics.
type ServerStats struct {
	MessagesRx   uint64
	BundlesRx    uint64
	ReadErrors   uint64
	LastActivity time.Time
}

// Server listens for OSC datagrams on UDP.
type Server struct {
	conn    net.PacketConn
	srv     *goosc.Server
	handler Handler

	closed atomic.Bool

	messagesRx   atomic.Uint64
	bundlesRx    atomic.Uint64
	readErrors   atomic.Uint64
	lastActivity atomic.Int64

	logger   Logger
	loggerMu sync.RWMutex
}

// dispatcher adapts Server to the go-osc Dispatcher interface.
type dispatcher struct {
	s *Server
}

func (d dispatcher) Dispatch(packet goosc.Packet) {
	d.s.dispatch(packet)
}

// Listen opens the UDP socket. Call Serve to start receiving.
func Listen(cfg ServerConfig, handler Handler) (*Server, error) {
	if handler == nil {
		return nil, fmt.Errorf("%w: handler is required", ErrListenFailed)
	}

	conn, err := net.ListenPacket("udp", cfg.Address)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrListenFailed, cfg.Address, err)
	}

	s := &Server{
		conn:    conn,
		handler: handler,
	}
	s.srv = &goosc.Server{Addr: cfg.Address, Dispatcher: dispatcher{s: s}}
	return s, nil
}

// Serve receives datagrams until Close is called. Malformed datagrams are
// counted and skipped.
func (s *Server) Serve() error {
	for {
		err := s.srv.Serve(s.conn)
		if s.closed.Load() || errors.Is(err, net.ErrClosed) {
			return ErrServerClosed
		}
		s.readErrors.Add(1)
		s.logWarn("discarding unreadable OSC datagram", "error", err)
	}
}

// dispatch flattens a packet into handler calls.
func (s *Server) dispatch(packet goosc.Packet) {
	s.lastActivity.Store(time.Now().Unix())

	switch p := packet.(type) {
	case *goosc.Message:
		s.deliver(p)
	case *goosc.Bundle:
		s.bundlesRx.Add(1)
		for _, m := range p.Messages {
			s.deliver(m)
		}
		for _, b := range p.Bundles {
			s.dispatch(b)
		}
	}
}

func (s *Server) deliver(m *goosc.Message) {
	if m == nil {
		return
	}
	s.messagesRx.Add(1)

	defer func() {
		if r := recover(); r != nil {
			s.logError("OSC handler panic", fmt.Errorf("%v", r), "address", m.Address)
		}
	}()
	s.handler(m.Address, m.Arguments)
}

// Addr returns the bound local address.
func (s *Server) Addr() net.Addr {
	return s.conn.LocalAddr()
}

// Close stops the listener. Safe to call multiple times.
func (s *Server) Close() error {
	if s.closed.Swap(true) {
		return nil
	}
	return s.conn.Close()
}

// Stats returns current listener statistics.
func (s *Server) Stats() ServerStats {
	return ServerStats{
		MessagesRx:   s.messagesRx.Load(),
		BundlesRx:    s.bundlesRx.Load(),
		ReadErrors:   s.readErrors.Load(),
		LastActivity: time.Unix(s.lastActivity.Load(), 0),
	}
}

// SetLogger sets the logger for this server.
func (s *Server) SetLogger(logger Logger) {
	s.loggerMu.Lock()
	s.logger = logger
	s.loggerMu.Unlock()
}

func (s *Server) logWarn(msg string, keysAndValues ...any) {
	s.loggerMu.RLock()
	logger := s.logger
	s.loggerMu.RUnlock()

	if logger != nil {
		logger.Warn(msg, keysAndValues...)
	}
}

func (s *Server) logError(msg string, err error, keysAndValues ...any) {
	s.loggerMu.RLock()
	logger := s.logger
	s.loggerMu.RUnlock()

	if logger != nil {
		logger.Error(msg, append([]any{"error", err}, keysAndValues...)...)
	}
}
