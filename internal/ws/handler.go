// Package ws is the realtime transport: it upgrades the connection,
// authenticates the caller, and translates wire frames into hall
// commands. The transport holds no matchmaking state of its own — every
// mutation is a request into a hall actor and a result back out.
package ws

import (
	"context"
	"encoding/json"
	"errors"
	"math/rand"
	"net/http"
	"time"

	"github.com/coder/websocket"
	"go.uber.org/zap"

	"github.com/rackhouse/poolhall-backend/internal/auth"
	"github.com/rackhouse/poolhall-backend/internal/engine"
	"github.com/rackhouse/poolhall-backend/internal/hall"
	"github.com/rackhouse/poolhall-backend/internal/hub"
	"github.com/rackhouse/poolhall-backend/internal/types"
)

// LoadHall fetches a hall's registered tables so a cold hall actor can
// be started on first contact.
type LoadHall func(ctx context.Context, hallID string) (engine.State, error)

// replyTimeout bounds the wait for a hall actor to process a command.
const replyTimeout = 5 * time.Second

func Handler(h *hub.Hub, secret string, load LoadHall, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ident, err := auth.Parse(secret, r.URL.Query().Get("token"))
		if err != nil {
			http.Error(w, "invalid token", http.StatusUnauthorized)
			return
		}

		conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{})
		if err != nil {
			return
		}
		defer conn.Close(websocket.StatusNormalClosure, "bye")

		c := &client{
			hub:      h,
			load:     load,
			ident:    ident,
			clientID: randID(6),
			outbox:   make(chan types.ServerMessage, 16),
			touched:  make(map[string]*hall.Hall),
			log:      log.With(zap.String("user", ident.UserID)),
		}
		defer c.leaveAll()

		// Writer goroutine
		writeCtx, writeCancel := context.WithCancel(r.Context())
		defer writeCancel()
		go func() {
			for {
				select {
				case msg := <-c.outbox:
					payload, _ := json.Marshal(msg)
					ctx, cancel := context.WithTimeout(writeCtx, 3*time.Second)
					_ = conn.Write(ctx, websocket.MessageText, payload)
					cancel()
				case <-writeCtx.Done():
					return
				}
			}
		}()

		// Reader loop
		for {
			_, data, err := conn.Read(r.Context())
			if err != nil {
				switch websocket.CloseStatus(err) {
				case websocket.StatusNormalClosure, websocket.StatusGoingAway:
					return
				}
				return
			}

			var cm types.ClientMessage
			if err := json.Unmarshal(data, &cm); err != nil {
				c.sendError(types.CodeBadRequest, "bad json")
				continue
			}
			c.dispatch(r.Context(), cm)
		}
	}
}

// client is the per-connection state: which halls it touched, where its
// frames go, and who it authenticated as.
type client struct {
	hub      *hub.Hub
	load     LoadHall
	ident    auth.Identity
	clientID string
	outbox   chan types.ServerMessage
	touched  map[string]*hall.Hall
	log      *zap.Logger
}

func (c *client) dispatch(ctx context.Context, cm types.ClientMessage) {
	switch cm.Type {
	case types.EvtJoinHall:
		hl, err := c.ensureHall(ctx, cm.HallID)
		if err != nil {
			c.sendError(types.CodeBadRequest, "unknown hall")
			return
		}
		hl.Inbox() <- hall.Join{ClientID: c.clientID, Outbox: c.outbox}
		c.touched[cm.HallID] = hl

	case types.EvtLeaveHall:
		if hl, ok := c.touched[cm.HallID]; ok {
			hl.Inbox() <- hall.Leave{ClientID: c.clientID}
			delete(c.touched, cm.HallID)
		}

	case types.EvtRegisterUser:
		if cm.UserID != c.ident.UserID && !c.ident.Admin {
			c.sendError(types.CodeUnauthorized, "cannot register as another user")
			return
		}
		hl, err := c.ensureHall(ctx, cm.HallID)
		if err != nil {
			c.sendError(types.CodeBadRequest, "unknown hall")
			return
		}
		hl.Inbox() <- hall.BindUser{ClientID: c.clientID, UserID: cm.UserID, Outbox: c.outbox}
		c.touched[cm.HallID] = hl

	default:
		cmd, ok := toCommand(c.ident, cm)
		if !ok {
			c.sendError(types.CodeBadRequest, "unknown type")
			return
		}
		hl := c.route(ctx, cm)
		if hl == nil {
			c.sendError(types.CodeInvalidTableState, "unknown hall or table")
			return
		}
		err := c.apply(hl, cmd)
		if cm.Type == types.EvtConfirmWin {
			c.sendAck(cm.TableID, err)
			return
		}
		if err != nil {
			code, msg := errToCode(err)
			c.sendError(code, msg)
		}
	}
}

// route finds the hall actor for a frame: queue events carry a hall id,
// table events are resolved through the hub's table index.
func (c *client) route(ctx context.Context, cm types.ClientMessage) *hall.Hall {
	if cm.HallID != "" {
		hl, err := c.ensureHall(ctx, cm.HallID)
		if err != nil {
			return nil
		}
		return hl
	}
	reply := make(chan *hall.Hall, 1)
	c.hub.Inbox() <- hub.ResolveTable{TableID: cm.TableID, Reply: reply}
	return <-reply
}

// apply sends the command into the hall's serialized path and waits for
// the result, bounded so a wedged actor cannot hang the connection.
func (c *client) apply(hl *hall.Hall, cmd engine.Command) error {
	reply := make(chan error, 1)
	hl.Inbox() <- hall.FromClient{Cmd: cmd, Reply: reply}
	select {
	case err := <-reply:
		return err
	case <-time.After(replyTimeout):
		return errors.New("timed out waiting for hall")
	}
}

func (c *client) ensureHall(ctx context.Context, hallID string) (*hall.Hall, error) {
	if hl, ok := c.touched[hallID]; ok {
		return hl, nil
	}
	reply := make(chan *hall.Hall, 1)
	c.hub.Inbox() <- hub.GetHall{ID: hallID, Reply: reply}
	if hl := <-reply; hl != nil {
		return hl, nil
	}
	state, err := c.load(ctx, hallID)
	if err != nil {
		return nil, err
	}
	c.hub.Inbox() <- hub.EnsureHall{ID: hallID, State: state, Reply: reply}
	hl := <-reply
	if hl == nil {
		return nil, errors.New("hall not available")
	}
	return hl, nil
}

func (c *client) leaveAll() {
	for _, hl := range c.touched {
		hl.Inbox() <- hall.Leave{ClientID: c.clientID}
	}
}

func (c *client) sendError(code, msg string) {
	select {
	case c.outbox <- types.ServerMessage{Type: types.EvtError, Code: code, Error: msg}:
	default:
	}
}

func (c *client) sendAck(tableID string, err error) {
	ok := err == nil
	msg := types.ServerMessage{Type: types.EvtConfirmWinAck, TableID: tableID, Success: &ok}
	if err != nil {
		msg.Code, msg.Error = errToCode(err)
	}
	select {
	case c.outbox <- msg:
	default:
	}
}

// toCommand maps a wire frame to an engine command. Hall/room frames
// are handled before this is consulted.
func toCommand(ident auth.Identity, cm types.ClientMessage) (engine.Command, bool) {
	actor := engine.Actor{UserID: ident.UserID, Admin: ident.Admin}

	switch cm.Type {
	case types.EvtJoinQueue:
		return engine.Command{Type: engine.CmdJoinQueue, Actor: actor, UserID: cm.UserID}, true
	case types.EvtLeaveQueue:
		return engine.Command{Type: engine.CmdLeaveQueue, Actor: actor, UserID: cm.UserID}, true
	case types.EvtQueueMoveUp:
		return engine.Command{Type: engine.CmdMoveUp, Actor: actor, UserID: cm.UserID}, true
	case types.EvtQueueMoveDown:
		return engine.Command{Type: engine.CmdMoveDown, Actor: actor, UserID: cm.UserID}, true
	case types.EvtQueueRemove:
		return engine.Command{Type: engine.CmdRemoveEntrant, Actor: actor, UserID: cm.UserID}, true
	case types.EvtClearQueue:
		return engine.Command{Type: engine.CmdClearQueue, Actor: actor}, true
	case types.EvtClearTables:
		return engine.Command{Type: engine.CmdClearTables, Actor: actor}, true
	case types.EvtRemovePlayer:
		return engine.Command{Type: engine.CmdRemovePlayer, Actor: actor, TableID: cm.TableID, UserID: cm.UserID}, true
	case types.EvtAcceptInvite:
		return engine.Command{Type: engine.CmdAcceptInvite, Actor: actor, TableID: cm.TableID, UserID: cm.UserID}, true
	case types.EvtSkipInvite:
		return engine.Command{Type: engine.CmdSkipInvite, Actor: actor, TableID: cm.TableID, UserID: cm.UserID}, true
	case types.EvtClaimWin:
		return engine.Command{Type: engine.CmdClaimWin, Actor: actor, TableID: cm.TableID, WinnerID: cm.WinnerID}, true
	case types.EvtConfirmWin:
		return engine.Command{
			Type: engine.CmdConfirmWin, Actor: actor, TableID: cm.TableID,
			WinnerID: cm.WinnerID, LoserID: cm.LoserID, Confirmed: cm.Confirmed,
		}, true
	default:
		return engine.Command{}, false
	}
}

func errToCode(err error) (string, string) {
	switch {
	case errors.Is(err, engine.ErrDuplicateEntry):
		return types.CodeDuplicateEntry, "already in queue"
	case errors.Is(err, engine.ErrNotInQueue):
		return types.CodeNotInQueue, "not in queue"
	case errors.Is(err, engine.ErrInvalidTableState):
		return types.CodeInvalidTableState, "invalid table state"
	case errors.Is(err, engine.ErrStaleInvite):
		return types.CodeStaleInvite, "invite no longer valid"
	case errors.Is(err, engine.ErrStaleClaim):
		return types.CodeStaleClaim, "claim no longer valid"
	case errors.Is(err, engine.ErrUnauthorized):
		return types.CodeUnauthorized, "not allowed"
	default:
		return types.CodeInternal, err.Error()
	}
}

func randID(length int) string {
	const charset = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	b := make([]byte, length)
	for i := range b {
		b[i] = charset[rand.Intn(len(charset))]
	}
	return string(b)
}
