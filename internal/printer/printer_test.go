package printer

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net"
	"testing"
)

func TestSendWritesStream(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	defer ln.Close()

	got := make(chan []byte, 1)
	go func() {
		conn, err := ln.Accept()
		if err != nil {
			got <- nil
			return
		}
		defer conn.Close()
		data, _ := io.ReadAll(conn)
		got <- data
	}()

	stream := []byte{0x1B, 0x40, 'h', 'i', '\n', 0x1D, 0x56, 0x00}
	if err := Send(context.Background(), ln.Addr().String(), stream); err != nil {
		t.Fatalf("Send: %v", err)
	}
	if data := <-got; !bytes.Equal(data, stream) {
		t.Fatalf("printer received % x", data)
	}
}

func TestSendWithoutAddress(t *testing.T) {
	if err := Send(context.Background(), "", []byte("x")); !errors.Is(err, ErrNoAddress) {
		t.Fatalf("err = %v", err)
	}
}

func TestProbe(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	addr := ln.Addr().String()
	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			conn.Close()
		}
	}()

	if !Probe(addr) {
		t.Error("listening address reported unreachable")
	}
	ln.Close()

	if Probe(addr) {
		t.Error("closed address reported reachable")
	}
	if Probe("") {
		t.Error("empty address reported reachable")
	}
}
