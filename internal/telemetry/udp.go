package telemetry

import (
	"context"
	"fmt"
	"log"
	"net"
	"sync"
	"sync/atomic"
	"time"
)

// UDPListenerConfig contains configuration options for the UDP
// listener.
type UDPListenerConfig struct {
	Address     string
	RcvBuf      int
	LogInterval time.Duration
}

// UDPListener receives RTD records as UDP datagrams, one record per
// packet in the canonical column order.
type UDPListener struct {
	address     string
	rcvBuf      int
	logInterval time.Duration
	parser      *RecordParser

	mu   sync.Mutex
	conn *net.UDPConn

	// Counters are read by the stats goroutine while the read loop
	// increments them.
	received atomic.Int64
	dropped  atomic.Int64
}

// NewUDPListener creates a new UDP listener with the provided
// configuration.
func NewUDPListener(config UDPListenerConfig) *UDPListener {
	logInterval := config.LogInterval
	if logInterval == 0 {
		logInterval = time.Minute
	}
	rcvBuf := config.RcvBuf
	if rcvBuf == 0 {
		rcvBuf = 1 << 20
	}

	return &UDPListener{
		address:     config.Address,
		rcvBuf:      rcvBuf,
		logInterval: logInterval,
		parser:      NewStreamParser(),
	}
}

// Start begins listening for UDP packets, feeding each parsed record
// to fn, until the context is cancelled.
func (l *UDPListener) Start(ctx context.Context, fn func(Record)) error {
	addr, err := net.ResolveUDPAddr("udp", l.address)
	if err != nil {
		return fmt.Errorf("failed to resolve UDP address: %w", err)
	}

	conn, err := net.ListenUDP("udp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on UDP address: %w", err)
	}
	l.mu.Lock()
	l.conn = conn
	l.mu.Unlock()
	defer conn.Close()

	if err := conn.SetReadBuffer(l.rcvBuf); err != nil {
		log.Printf("Warning: failed to set UDP receive buffer size to %d: %v", l.rcvBuf, err)
	}

	log.Printf("UDP listener started on %s with receive buffer %d bytes", l.address, l.rcvBuf)

	go l.startStatsLogging(ctx)

	buffer := make([]byte, 2048)

	for {
		select {
		case <-ctx.Done():
			log.Print("UDP listener stopping due to context cancellation")
			return ctx.Err()
		default:
			// Short read deadline so context cancellation is
			// noticed promptly.
			conn.SetReadDeadline(time.Now().Add(100 * time.Millisecond))

			n, src, err := conn.ReadFromUDP(buffer)
			if err != nil {
				if netErr, ok := err.(net.Error); ok && netErr.Timeout() {
					continue
				}
				if ctx.Err() != nil {
					return ctx.Err()
				}
				log.Printf("UDP read error: %v", err)
				continue
			}

			rec, err := l.parser.ParseLine(string(buffer[:n]))
			if err != nil {
				l.dropped.Add(1)
				log.Printf("dropping malformed record from %v: %v", src, err)
				continue
			}
			l.received.Add(1)
			fn(rec)
		}
	}
}

func (l *UDPListener) startStatsLogging(ctx context.Context) {
	ticker := time.NewTicker(l.logInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			received, dropped := l.Stats()
			log.Printf("UDP stats: %d records received, %d dropped", received, dropped)
		}
	}
}

// Stats reports the number of records received and dropped so far.
func (l *UDPListener) Stats() (received, dropped int64) {
	return l.received.Load(), l.dropped.Load()
}

// LocalAddr returns the bound socket address, or nil before Start has
// opened the socket.
func (l *UDPListener) LocalAddr() net.Addr {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.conn == nil {
		return nil
	}
	return l.conn.LocalAddr()
}

// Close closes the UDP listener and releases resources.
func (l *UDPListener) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.conn != nil {
		return l.conn.Close()
	}
	return nil
}
