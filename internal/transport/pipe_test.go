package transport

import (
	"errors"
	"testing"
	"time"

	"github.com/corvale/chorus/internal/protocol"
)

func TestPipeDeliversInOrder(t *testing.T) {
	a, b := Pipe()
	defer a.Close()

	for i, typ := range []string{protocol.TypePlayNext, protocol.TypePlayPrevious, protocol.TypeTogglePlayPause} {
		env, _ := protocol.New(typ, "tab-1", nil)
		if err := a.Send(env); err != nil {
			t.Fatalf("Send(%d) error = %v", i, err)
		}
	}

	for _, want := range []string{protocol.TypePlayNext, protocol.TypePlayPrevious, protocol.TypeTogglePlayPause} {
		env, err := b.Receive()
		if err != nil {
			t.Fatalf("Receive() error = %v", err)
		}
		if env.Type != want {
			t.Errorf("Type = %q, want %q", env.Type, want)
		}
	}
}

func TestPipeBidirectional(t *testing.T) {
	a, b := Pipe()
	defer a.Close()

	env, _ := protocol.New(protocol.TypeStateUpdate, "", nil)
	if err := b.Send(env); err != nil {
		t.Fatalf("Send() error = %v", err)
	}
	got, err := a.Receive()
	if err != nil {
		t.Fatalf("Receive() error = %v", err)
	}
	if got.Type != protocol.TypeStateUpdate {
		t.Errorf("Type = %q, want %q", got.Type, protocol.TypeStateUpdate)
	}
}

func TestPipeCloseUnblocksBothEnds(t *testing.T) {
	a, b := Pipe()

	done := make(chan error, 1)
	go func() {
		_, err := b.Receive()
		done <- err
	}()

	a.Close()

	select {
	case err := <-done:
		if !errors.Is(err, ErrClosed) {
			t.Errorf("Receive() error = %v, want ErrClosed", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Receive() did not unblock after Close")
	}

	if err := a.Send(protocol.Envelope{Type: protocol.TypePlayNext}); !errors.Is(err, ErrClosed) {
		t.Errorf("Send() after close error = %v, want ErrClosed", err)
	}
}

func TestPipeDrainsBufferedAfterClose(t *testing.T) {
	a, b := Pipe()

	env, _ := protocol.New(protocol.TypeSaveCurrentState, "tab-1", nil)
	if err := a.Send(env); err != nil {
		t.Fatalf("Send() error = %v", err)
	}
	a.Close()

	got, err := b.Receive()
	if err != nil {
		t.Fatalf("Receive() error = %v, want buffered envelope", err)
	}
	if got.Type != protocol.TypeSaveCurrentState {
		t.Errorf("Type = %q, want %q", got.Type, protocol.TypeSaveCurrentState)
	}

	if _, err := b.Receive(); !errors.Is(err, ErrClosed) {
		t.Errorf("Receive() after drain error = %v, want ErrClosed", err)
	}
}
