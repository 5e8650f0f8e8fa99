package engine

import (
	"context"
	"encoding/json"
	"sync"
	"sync/atomic"

	"github.com/wokai/wokcook/internal/bridge"
	"github.com/wokai/wokcook/internal/domain"
	"github.com/wokai/wokcook/internal/reconcile"
	"github.com/wokai/wokcook/internal/session"
	"github.com/wokai/wokcook/internal/timer"
)

// Session bundles the live components of one cooking session.
type Session struct {
	ID         string
	Recipe     *domain.Recipe
	Store      *session.Store
	Timers     *timer.Registry
	Bridge     *bridge.Bridge
	Reconciler *reconcile.Reconciler

	channel  *channelSlot
	closeMu  sync.Mutex
	closed   bool
	cleanups []func()
}

// AttachChannel connects the session to the agent. User step changes are
// announced on ch from now on. Passing nil detaches.
func (s *Session) AttachChannel(ch reconcile.Channel) {
	s.channel.set(ch)
}

// Dispatch runs an agent tool call against this session.
func (s *Session) Dispatch(ctx context.Context, name string, raw json.RawMessage) bridge.Invocation {
	return s.Bridge.Dispatch(ctx, name, raw)
}

func (s *Session) close() bool {
	s.closeMu.Lock()
	defer s.closeMu.Unlock()
	if s.closed {
		return false
	}
	s.closed = true

	for i := len(s.cleanups) - 1; i >= 0; i-- {
		s.cleanups[i]()
	}
	s.channel.set(nil)
	return true
}

// channelSlot is a reconcile.Channel whose target can be swapped at any
// time. It reports disconnected while empty.
type channelSlot struct {
	ch atomic.Pointer[reconcile.Channel]
}

var _ reconcile.Channel = (*channelSlot)(nil)

func (c *channelSlot) set(ch reconcile.Channel) {
	if ch == nil {
		c.ch.Store(nil)
		return
	}
	c.ch.Store(&ch)
}

func (c *channelSlot) get() reconcile.Channel {
	p := c.ch.Load()
	if p == nil {
		return nil
	}
	return *p
}

func (c *channelSlot) Connected() bool {
	ch := c.get()
	return ch != nil && ch.Connected()
}

func (c *channelSlot) SendContextualUpdate(ctx context.Context, text string) error {
	ch := c.get()
	if ch == nil {
		return domain.ErrNotConnected
	}
	return ch.SendContextualUpdate(ctx, text)
}
