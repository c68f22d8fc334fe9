// Package session binds one messaging client to one consuming view. The
// adapter mirrors the client's connection status as observable state and
// forwards sends; reconnecting, queueing, and retrying all stay in the
// client.
package session

import (
	"context"
	"sync"

	"github.com/lecternhq/lectern/pkg/client"
	"github.com/lecternhq/lectern/pkg/protocol"
)

// Conn is the slice of the messaging client the adapter needs. *client.Client
// satisfies it.
type Conn interface {
	Status() client.Status
	AddStatusHandler(fn client.StatusHandler) func()
	AddMessageHandler(fn client.MessageHandler) func()
	SendMessage(ctx context.Context, mode, text string, att *protocol.Attachment) error
	Close() error
}

type watcherReg struct {
	token int
	fn    func(client.Status)
}

// Adapter owns exactly one Conn for the lifetime of its view.
type Adapter struct {
	conn Conn

	mu          sync.Mutex
	status      client.Status
	watchers    []watcherReg
	nextToken   int
	unsubscribe func()
	closeOnce   sync.Once
}

// New wraps conn and starts mirroring its status. The initial status comes
// from the client directly, so the first render is never wrong.
func New(conn Conn) *Adapter {
	a := &Adapter{
		conn:   conn,
		status: conn.Status(),
	}
	a.unsubscribe = conn.AddStatusHandler(a.setStatus)
	return a
}

func (a *Adapter) setStatus(s client.Status) {
	a.mu.Lock()
	a.status = s
	regs := make([]watcherReg, len(a.watchers))
	copy(regs, a.watchers)
	a.mu.Unlock()

	for _, reg := range regs {
		reg.fn(s)
	}
}

// Status returns the adapter's view of the connection.
func (a *Adapter) Status() client.Status {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.status
}

// OnStatusChange registers fn for every mirrored status transition. The
// returned func unregisters it and is safe to call more than once.
func (a *Adapter) OnStatusChange(fn func(client.Status)) func() {
	a.mu.Lock()
	a.nextToken++
	token := a.nextToken
	a.watchers = append(a.watchers, watcherReg{token: token, fn: fn})
	a.mu.Unlock()

	return func() {
		a.mu.Lock()
		defer a.mu.Unlock()
		for i, reg := range a.watchers {
			if reg.token == token {
				a.watchers = append(a.watchers[:i], a.watchers[i+1:]...)
				return
			}
		}
	}
}

// OnMessage registers fn with the underlying client.
func (a *Adapter) OnMessage(fn client.MessageHandler) func() {
	return a.conn.AddMessageHandler(fn)
}

// Send forwards a message to the client.
func (a *Adapter) Send(ctx context.Context, mode, text string, att *protocol.Attachment) error {
	return a.conn.SendMessage(ctx, mode, text, att)
}

// Close stops mirroring status and tears down the owned client, including
// any reconnect timer the client still has armed. Safe to call more than
// once.
func (a *Adapter) Close() error {
	var err error
	a.closeOnce.Do(func() {
		a.unsubscribe()
		err = a.conn.Close()
	})
	return err
}
