package telemetry

import (
	"context"
	"errors"
	"net"
	"sync/atomic"
	"testing"
	"time"
)

func TestNewUDPListenerDefaults(t *testing.T) {
	l := NewUDPListener(UDPListenerConfig{Address: ":0"})
	if l.rcvBuf != 1<<20 {
		t.Errorf("default receive buffer = %d", l.rcvBuf)
	}
	if l.logInterval != time.Minute {
		t.Errorf("default log interval = %v", l.logInterval)
	}
	if err := l.Close(); err != nil {
		t.Errorf("Close before Start failed: %v", err)
	}
}

// The stats goroutine reads the counters while the read loop increments
// them, so this runs datagrams through Start with a fast log interval to
// catch unsynchronized counter access under the race detector.
func TestUDPListenerStartCountsRecords(t *testing.T) {
	l := NewUDPListener(UDPListenerConfig{
		Address:     "127.0.0.1:0",
		LogInterval: time.Millisecond,
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var delivered atomic.Int64
	done := make(chan error, 1)
	go func() {
		done <- l.Start(ctx, func(Record) { delivered.Add(1) })
	}()

	var addr net.Addr
	for i := 0; i < 200 && addr == nil; i++ {
		addr = l.LocalAddr()
		time.Sleep(5 * time.Millisecond)
	}
	if addr == nil {
		t.Fatal("listener never bound its socket")
	}

	conn, err := net.Dial("udp", addr.String())
	if err != nil {
		t.Fatalf("dial listener: %v", err)
	}
	defer conn.Close()

	for i := 0; i < 200; i++ {
		if _, err := conn.Write([]byte("1000,120,0,8.5,1")); err != nil {
			t.Fatalf("send datagram: %v", err)
		}
		if _, err := conn.Write([]byte("not a record")); err != nil {
			t.Fatalf("send datagram: %v", err)
		}
	}

	deadline := time.Now().Add(5 * time.Second)
	for delivered.Load() == 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if delivered.Load() == 0 {
		t.Fatal("no records delivered")
	}

	cancel()
	if err := <-done; !errors.Is(err, context.Canceled) {
		t.Errorf("Start returned %v, want context.Canceled", err)
	}

	received, dropped := l.Stats()
	if received != delivered.Load() {
		t.Errorf("received counter = %d, callbacks = %d", received, delivered.Load())
	}
	if dropped == 0 {
		t.Error("malformed datagrams not counted as dropped")
	}
}
