package session

import (
	"context"
	"sync"
	"testing"

	"github.com/lecternhq/lectern/pkg/client"
	"github.com/lecternhq/lectern/pkg/protocol"
)

// fakeConn records registrations and sends, and lets tests fire status
// transitions by hand.
type fakeConn struct {
	mu             sync.Mutex
	status         client.Status
	statusHandlers []client.StatusHandler
	unsubscribed   int
	closed         int
	sends          []sentMessage
}

type sentMessage struct {
	mode string
	text string
	att  *protocol.Attachment
}

func newFakeConn(s client.Status) *fakeConn {
	return &fakeConn{status: s}
}

func (f *fakeConn) Status() client.Status {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.status
}

func (f *fakeConn) AddStatusHandler(fn client.StatusHandler) func() {
	f.mu.Lock()
	f.statusHandlers = append(f.statusHandlers, fn)
	f.mu.Unlock()
	return func() {
		f.mu.Lock()
		f.unsubscribed++
		f.mu.Unlock()
	}
}

func (f *fakeConn) AddMessageHandler(fn client.MessageHandler) func() {
	return func() {}
}

func (f *fakeConn) SendMessage(ctx context.Context, mode, text string, att *protocol.Attachment) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sends = append(f.sends, sentMessage{mode: mode, text: text, att: att})
	return nil
}

func (f *fakeConn) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed++
	return nil
}

func (f *fakeConn) fire(s client.Status) {
	f.mu.Lock()
	f.status = s
	handlers := make([]client.StatusHandler, len(f.statusHandlers))
	copy(handlers, f.statusHandlers)
	f.mu.Unlock()
	for _, fn := range handlers {
		fn(s)
	}
}

func TestInitialStatusComesFromClient(t *testing.T) {
	tests := []struct {
		name string
		init client.Status
	}{
		{"starts disconnected", client.StatusDisconnected},
		{"starts connected", client.StatusConnected},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := New(newFakeConn(tt.init))
			if got := a.Status(); got != tt.init {
				t.Errorf("Status() = %q, want %q", got, tt.init)
			}
		})
	}
}

func TestStatusTracksTransitions(t *testing.T) {
	fc := newFakeConn(client.StatusDisconnected)
	a := New(fc)

	var seen []client.Status
	a.OnStatusChange(func(s client.Status) { seen = append(seen, s) })

	fc.fire(client.StatusConnected)
	if got := a.Status(); got != client.StatusConnected {
		t.Errorf("Status() = %q, want connected", got)
	}

	fc.fire(client.StatusDisconnected)
	if got := a.Status(); got != client.StatusDisconnected {
		t.Errorf("Status() = %q, want disconnected", got)
	}

	if len(seen) != 2 || seen[0] != client.StatusConnected || seen[1] != client.StatusDisconnected {
		t.Errorf("watcher saw %v, want [connected disconnected]", seen)
	}
}

func TestOnStatusChangeRemoveIsIdempotent(t *testing.T) {
	fc := newFakeConn(client.StatusDisconnected)
	a := New(fc)

	var calls int
	remove := a.OnStatusChange(func(client.Status) { calls++ })
	remove()
	remove()

	fc.fire(client.StatusConnected)
	if calls != 0 {
		t.Errorf("removed watcher ran %d times", calls)
	}
}

func TestSendForwardsToClient(t *testing.T) {
	fc := newFakeConn(client.StatusConnected)
	a := New(fc)

	if err := a.Send(context.Background(), "draft-lesson-plan", "outline unit 3", nil); err != nil {
		t.Fatalf("Send: %v", err)
	}

	fc.mu.Lock()
	defer fc.mu.Unlock()
	if len(fc.sends) != 1 {
		t.Fatalf("sends = %d, want 1", len(fc.sends))
	}
	if fc.sends[0].mode != "draft-lesson-plan" || fc.sends[0].text != "outline unit 3" {
		t.Errorf("send = %+v, want mode/text forwarded", fc.sends[0])
	}
}

func TestCloseUnsubscribesAndClosesClientOnce(t *testing.T) {
	fc := newFakeConn(client.StatusConnected)
	a := New(fc)

	if err := a.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := a.Close(); err != nil {
		t.Fatalf("second Close: %v", err)
	}

	fc.mu.Lock()
	defer fc.mu.Unlock()
	if fc.unsubscribed != 1 {
		t.Errorf("unsubscribed = %d, want 1", fc.unsubscribed)
	}
	if fc.closed != 1 {
		t.Errorf("client closed = %d, want 1", fc.closed)
	}
}
