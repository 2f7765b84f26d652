// Package hub owns the set of live hall actors, keyed by hall id, and
// the table -> hall index the socket layer uses to route table events.
package hub

import (
	"context"

	"github.com/rackhouse/poolhall-backend/internal/engine"
	"github.com/rackhouse/poolhall-backend/internal/hall"
)

type HubMsg interface{ isHubMsg() }

// EnsureHall starts an actor for the hall if one is not running yet.
type EnsureHall struct {
	ID    string
	State engine.State // only used if creation happens
	Reply chan *hall.Hall
}

type GetHall struct {
	ID    string
	Reply chan *hall.Hall
}

// ResolveTable routes a table id to its hall actor. May reply nil.
type ResolveTable struct {
	TableID string
	Reply   chan *hall.Hall
}

type RemoveHall struct{ ID string }

type ShutdownHub struct{}

func (EnsureHall) isHubMsg()   {}
func (GetHall) isHubMsg()      {}
func (ResolveTable) isHubMsg() {}
func (RemoveHall) isHubMsg()   {}
func (ShutdownHub) isHubMsg()  {}

type Hub struct {
	inbox  chan HubMsg
	halls  map[string]*hall.Hall
	tables map[string]string // tableID -> hallID
	opts   hall.Options
	ctx    context.Context
	cancel context.CancelFunc
}

func New(parent context.Context, opts hall.Options) *Hub {
	ctx, cancel := context.WithCancel(parent)
	h := &Hub{
		inbox:  make(chan HubMsg, 64),
		halls:  make(map[string]*hall.Hall),
		tables: make(map[string]string),
		opts:   opts,
		ctx:    ctx,
		cancel: cancel,
	}
	go h.loop()
	return h
}

func (h *Hub) Inbox() chan<- HubMsg { return h.inbox }

func (h *Hub) loop() {
	for {
		select {
		case <-h.ctx.Done():
			return

		case m := <-h.inbox:
			switch msg := m.(type) {
			case EnsureHall:
				if hl := h.halls[msg.ID]; hl != nil {
					msg.Reply <- hl
					break
				}
				hl := hall.New(h.ctx, msg.State, h.opts)
				h.halls[msg.ID] = hl
				for _, t := range msg.State.Tables {
					h.tables[t.ID] = msg.ID
				}
				msg.Reply <- hl

			case GetHall:
				msg.Reply <- h.halls[msg.ID] // May be nil

			case ResolveTable:
				msg.Reply <- h.halls[h.tables[msg.TableID]]

			case RemoveHall:
				if hl := h.halls[msg.ID]; hl != nil {
					hl.Inbox() <- hall.Shutdown{}
				}
				delete(h.halls, msg.ID)
				for tableID, hallID := range h.tables {
					if hallID == msg.ID {
						delete(h.tables, tableID)
					}
				}

			case ShutdownHub:
				for _, hl := range h.halls {
					hl.Inbox() <- hall.Shutdown{}
				}
				clear(h.halls)
				clear(h.tables)
				h.cancel()
			}
		}
	}
}
