package transport

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// helloTimeout bounds how long a new connection may take to identify itself.
const helloTimeout = 10 * time.Second

// RelayServer accepts relay clients and forwards frames between them by
// public key. It runs on its own goroutines and never touches engine state.
type RelayServer struct {
	publicKey [32]byte
	listener  net.Listener
	clients   map[[32]byte]net.Conn
	conns     map[net.Conn]struct{}
	mu        sync.Mutex
	ctx       context.Context
	cancel    context.CancelFunc
	wg        sync.WaitGroup
}

// ListenRelay starts a relay server on the given TCP port.
func ListenRelay(publicKey [32]byte, ipv6 bool, port uint16) (*RelayServer, error) {
	network := "tcp4"
	if ipv6 {
		network = "tcp"
	}
	listener, err := net.Listen(network, fmt.Sprintf(":%d", port))
	if err != nil {
		return nil, fmt.Errorf("%w: tcp %d: %v", ErrPortAlloc, port, err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	s := &RelayServer{
		publicKey: publicKey,
		listener:  listener,
		clients:   make(map[[32]byte]net.Conn),
		conns:     make(map[net.Conn]struct{}),
		ctx:       ctx,
		cancel:    cancel,
	}

	logrus.WithFields(logrus.Fields{
		"function": "ListenRelay",
		"address":  listener.Addr().String(),
	}).Info("TCP relay listening")

	s.wg.Add(1)
	go s.acceptConnections()
	return s, nil
}

// Addr returns the listening address.
func (s *RelayServer) Addr() net.Addr {
	return s.listener.Addr()
}

// Port returns the listening TCP port.
func (s *RelayServer) Port() uint16 {
	if ta, ok := s.listener.Addr().(*net.TCPAddr); ok {
		return uint16(ta.Port)
	}
	return 0
}

// ClientCount returns the number of registered clients.
func (s *RelayServer) ClientCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.clients)
}

// Close stops accepting, disconnects every client and waits for the
// connection goroutines to exit.
func (s *RelayServer) Close() error {
	s.cancel()
	err := s.listener.Close()

	s.mu.Lock()
	for conn := range s.conns {
		conn.Close()
	}
	s.mu.Unlock()

	s.wg.Wait()
	return err
}

func (s *RelayServer) acceptConnections() {
	defer s.wg.Done()
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			if s.ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				return
			}
			continue
		}
		s.mu.Lock()
		if s.ctx.Err() != nil {
			s.mu.Unlock()
			conn.Close()
			return
		}
		s.conns[conn] = struct{}{}
		s.mu.Unlock()
		s.wg.Add(1)
		go s.handleConnection(conn)
	}
}

func (s *RelayServer) handleConnection(conn net.Conn) {
	defer s.wg.Done()
	defer func() {
		conn.Close()
		s.mu.Lock()
		delete(s.conns, conn)
		s.mu.Unlock()
	}()

	key, err := s.readHello(conn)
	if err != nil {
		logrus.WithFields(logrus.Fields{
			"function": "handleConnection",
			"remote":   conn.RemoteAddr().String(),
			"error":    err.Error(),
		}).Debug("Relay handshake failed")
		return
	}

	s.register(key, conn)
	defer s.unregister(key, conn)

	for {
		ft, payload, err := readFrame(conn)
		if err != nil {
			return
		}
		switch ft {
		case FrameRoute:
			s.route(key, payload)
		case FramePing:
			_ = writeFrame(conn, FramePong, payload)
		}
	}
}

func (s *RelayServer) readHello(conn net.Conn) ([32]byte, error) {
	var key [32]byte
	if err := conn.SetReadDeadline(time.Now().Add(helloTimeout)); err != nil {
		return key, err
	}
	ft, payload, err := readFrame(conn)
	if err != nil {
		return key, err
	}
	if ft != FrameHello || len(payload) != 32 {
		return key, errors.New("expected hello frame")
	}
	copy(key[:], payload)
	if err := conn.SetReadDeadline(time.Time{}); err != nil {
		return key, err
	}
	return key, writeFrame(conn, FrameHelloAck, s.publicKey[:])
}

func (s *RelayServer) register(key [32]byte, conn net.Conn) {
	s.mu.Lock()
	old := s.clients[key]
	s.clients[key] = conn
	s.mu.Unlock()
	if old != nil {
		old.Close()
	}

	logrus.WithFields(logrus.Fields{
		"function":   "register",
		"public_key": key[:8],
		"remote":     conn.RemoteAddr().String(),
	}).Info("Relay client registered")
}

func (s *RelayServer) unregister(key [32]byte, conn net.Conn) {
	s.mu.Lock()
	if s.clients[key] == conn {
		delete(s.clients, key)
	}
	s.mu.Unlock()
}

// route forwards a packet from src to the client named in the payload.
// Packets for unknown clients are dropped.
func (s *RelayServer) route(src [32]byte, payload []byte) {
	dest, data, err := splitKeyedPayload(payload)
	if err != nil {
		return
	}

	s.mu.Lock()
	conn := s.clients[dest]
	s.mu.Unlock()
	if conn == nil {
		return
	}

	out := make([]byte, 32+len(data))
	copy(out, src[:])
	copy(out[32:], data)
	if err := writeFrame(conn, FrameDeliver, out); err != nil {
		conn.Close()
	}
}
