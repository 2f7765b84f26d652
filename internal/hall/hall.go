// Package hall runs one goroutine per pool hall. The actor owns the
// hall's engine state, its invite expiry timers, the room membership
// used for snapshot fan-out and the user bindings used for private
// delivery. Everything that mutates a hall flows through the inbox, so
// commands and timer fires are serialized, never interleaved.
package hall

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/rackhouse/poolhall-backend/internal/engine"
	"github.com/rackhouse/poolhall-backend/internal/types"
)

type Msg interface{ isHallMsg() }

// Join adds a connection to the hall room; it immediately receives the
// current snapshot and every broadcast after that.
type Join struct {
	ClientID string
	Outbox   chan types.ServerMessage
}

// Leave drops the connection's room membership and any user bindings
// it registered.
type Leave struct{ ClientID string }

// BindUser routes private frames (invites, win confirmation requests)
// for a user to this connection. Independent of room membership.
type BindUser struct {
	ClientID string
	UserID   string
	Outbox   chan types.ServerMessage
}

// FromClient carries one engine command. The result is always reported
// on Reply (buffered by the caller); broadcasts happen separately.
type FromClient struct {
	Cmd   engine.Command
	Reply chan error
}

// GetState is test-only: reflect internal state without data races.
type GetState struct{ Reply chan View }

type Shutdown struct{}

// inviteExpired is posted by the expiry timer back into the serialized
// path. The version lets the engine reject fires that lost the race.
type inviteExpired struct {
	TableID string
	Version uint64
}

func (Join) isHallMsg()          {}
func (Leave) isHallMsg()         {}
func (BindUser) isHallMsg()      {}
func (FromClient) isHallMsg()    {}
func (GetState) isHallMsg()      {}
func (Shutdown) isHallMsg()      {}
func (inviteExpired) isHallMsg() {}

type View struct {
	Version    int
	NumClients int
	State      engine.Snapshot
}

// Notifier receives best-effort push events for users who are not
// connected. Implementations must not block the caller.
type Notifier interface {
	InviteIssued(hallID, userID, tableID string, expiresAt time.Time)
	WinConfirmationRequested(hallID, tableID, winnerID, loserID string)
}

type Options struct {
	Logger   *zap.Logger
	Notifier Notifier
}

type binding struct {
	clientID string
	outbox   chan types.ServerMessage
}

type Hall struct {
	id      string
	inbox   chan Msg
	state   engine.State
	version int
	clients map[string]chan types.ServerMessage
	users   map[string]binding     // userID -> private delivery route
	timers  map[string]*time.Timer // tableID -> pending invite expiry
	log     *zap.Logger
	notify  Notifier
	ctx     context.Context
	cancel  context.CancelFunc
}

func New(parent context.Context, initial engine.State, opts Options) *Hall {
	ctx, cancel := context.WithCancel(parent)
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	h := &Hall{
		id:      initial.HallID,
		inbox:   make(chan Msg, 64),
		state:   initial,
		clients: make(map[string]chan types.ServerMessage),
		users:   make(map[string]binding),
		timers:  make(map[string]*time.Timer),
		log:     log.With(zap.String("hall", initial.HallID)),
		notify:  opts.Notifier,
		ctx:     ctx,
		cancel:  cancel,
	}
	go h.loop()
	return h
}

func (h *Hall) ID() string { return h.id }

// Inbox exposes the actor's mailbox to the transport layer and tests.
func (h *Hall) Inbox() chan<- Msg { return h.inbox }

func (h *Hall) loop() {
	for {
		select {
		case <-h.ctx.Done():
			h.shutdown()
			return

		case m := <-h.inbox:
			switch msg := m.(type) {
			case Join:
				h.clients[msg.ClientID] = msg.Outbox
				select {
				case msg.Outbox <- h.snapshotMsg():
				default:
				}

			case Leave:
				delete(h.clients, msg.ClientID)
				for userID, b := range h.users {
					if b.clientID == msg.ClientID {
						delete(h.users, userID)
					}
				}

			case BindUser:
				h.users[msg.UserID] = binding{clientID: msg.ClientID, outbox: msg.Outbox}

			case FromClient:
				events, err := engine.Apply(&h.state, msg.Cmd)
				if msg.Reply != nil {
					msg.Reply <- err
				}
				if err != nil {
					break
				}
				h.applyEffects(events)
				h.version++
				h.broadcast(h.snapshotMsg())

			case inviteExpired:
				delete(h.timers, msg.TableID)
				cmd := engine.Command{
					Type:          engine.CmdInviteTimeout,
					TableID:       msg.TableID,
					InviteVersion: msg.Version,
				}
				events, err := engine.Apply(&h.state, cmd)
				if err != nil {
					// Lost the race against an accept or skip.
					h.log.Debug("stale invite timer", zap.String("table", msg.TableID), zap.Error(err))
					break
				}
				h.log.Info("invite expired", zap.String("table", msg.TableID))
				h.applyEffects(events)
				h.version++
				h.broadcast(h.snapshotMsg())

			case GetState:
				msg.Reply <- View{
					Version:    h.version,
					NumClients: len(h.clients),
					State:      h.state.Snapshot(),
				}

			case Shutdown:
				h.shutdown()
				return
			}
		}
	}
}

// applyEffects turns engine events into timers, private frames and push
// notifications. Runs inside the loop, after a successful mutation.
func (h *Hall) applyEffects(events []engine.Event) {
	for _, ev := range events {
		switch ev.Type {
		case engine.EvtInviteIssued:
			h.scheduleExpiry(ev.TableID, ev.Version, ev.ExpiresAt)
			exp := ev.ExpiresAt
			h.sendToUser(ev.UserID, types.ServerMessage{
				Type:      types.EvtTableInvite,
				HallID:    h.id,
				TableID:   ev.TableID,
				ExpiresAt: &exp,
			})
			if h.notify != nil {
				h.notify.InviteIssued(h.id, ev.UserID, ev.TableID, ev.ExpiresAt)
			}
			h.log.Info("invite issued",
				zap.String("table", ev.TableID), zap.String("user", ev.UserID))

		case engine.EvtInviteResolved:
			if t, ok := h.timers[ev.TableID]; ok {
				t.Stop()
				delete(h.timers, ev.TableID)
			}

		case engine.EvtWinClaimed:
			h.sendToUser(ev.LoserID, types.ServerMessage{
				Type:     types.EvtWinConfirmationRequest,
				HallID:   h.id,
				TableID:  ev.TableID,
				WinnerID: ev.WinnerID,
				LoserID:  ev.LoserID,
			})
			if h.notify != nil {
				h.notify.WinConfirmationRequested(h.id, ev.TableID, ev.WinnerID, ev.LoserID)
			}

		case engine.EvtPlayerEvicted:
			h.log.Info("player evicted",
				zap.String("table", ev.TableID), zap.String("user", ev.UserID))
		}
	}
}

// scheduleExpiry arms the invite countdown. The timer does not mutate
// state itself; it posts a version-stamped message into the inbox.
func (h *Hall) scheduleExpiry(tableID string, version uint64, expiresAt time.Time) {
	if t, ok := h.timers[tableID]; ok {
		t.Stop()
	}
	h.timers[tableID] = time.AfterFunc(time.Until(expiresAt), func() {
		select {
		case h.inbox <- inviteExpired{TableID: tableID, Version: version}:
		case <-h.ctx.Done():
		}
	})
}

func (h *Hall) snapshotMsg() types.ServerMessage {
	snap := h.state.Snapshot()
	return types.ServerMessage{
		Type:    types.EvtStateUpdate,
		HallID:  h.id,
		Version: h.version,
		Queue:   snap.Queue,
		Tables:  snap.Tables,
	}
}

func (h *Hall) sendToUser(userID string, msg types.ServerMessage) {
	b, ok := h.users[userID]
	if !ok {
		return
	}
	select {
	case b.outbox <- msg:
	default:
		h.log.Warn("dropping private frame, outbox full", zap.String("user", userID))
	}
}

func (h *Hall) broadcast(msg types.ServerMessage) {
	for id, ch := range h.clients {
		select {
		case ch <- msg:
		default:
			// Client is slow/full - drop them. The outbox is owned by
			// the connection (it may be registered with other halls),
			// so it is never closed here.
			delete(h.clients, id)
			for userID, b := range h.users {
				if b.clientID == id {
					delete(h.users, userID)
				}
			}
		}
	}
}

func (h *Hall) shutdown() {
	for _, t := range h.timers {
		t.Stop()
	}
	clear(h.timers)
	clear(h.clients)
	clear(h.users)
	h.cancel()
}
