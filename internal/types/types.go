// Package types defines the JSON frames exchanged over the realtime
// socket. One envelope struct per direction; the Type field selects
// which of the optional fields are meaningful.
package types

import (
	"time"

	"github.com/rackhouse/poolhall-backend/internal/engine"
)

// Client -> server event types.
const (
	EvtJoinQueue     = "join_queue"
	EvtLeaveQueue    = "leave_queue"
	EvtQueueMoveUp   = "queue_move_up"   // admin
	EvtQueueMoveDown = "queue_move_down" // admin
	EvtQueueRemove   = "queue_remove"    // admin
	EvtClearQueue    = "clear_queue"     // admin
	EvtClearTables   = "clear_tables"    // admin
	EvtRemovePlayer  = "remove_player"   // admin
	EvtJoinHall      = "join_hall"
	EvtLeaveHall     = "leave_hall"
	EvtRegisterUser  = "register_user"
	EvtAcceptInvite  = "accept_invite"
	EvtSkipInvite    = "skip_invite"
	EvtClaimWin      = "claim_win"
	EvtConfirmWin    = "confirm_win"
)

// Server -> client event types.
const (
	EvtStateUpdate            = "state_update"
	EvtTableInvite            = "table_invite"
	EvtWinConfirmationRequest = "win_confirmation_request"
	EvtConfirmWinAck          = "confirm_win_ack"
	EvtError                  = "error"
)

type ClientMessage struct {
	Type      string `json:"type"`
	UserID    string `json:"userId,omitempty"`
	HallID    string `json:"hallId,omitempty"`
	TableID   string `json:"tableId,omitempty"`
	WinnerID  string `json:"winnerId,omitempty"`
	LoserID   string `json:"loserId,omitempty"`
	Confirmed bool   `json:"confirmed,omitempty"`
}

type ServerMessage struct {
	Type   string `json:"type"`
	HallID string `json:"hallId,omitempty"`

	// state_update
	Version int                 `json:"version,omitempty"`
	Queue   []engine.QueueEntry `json:"queue,omitempty"`
	Tables  []engine.Table      `json:"tables,omitempty"`

	// table_invite / win_confirmation_request / confirm_win_ack
	TableID   string     `json:"tableId,omitempty"`
	WinnerID  string     `json:"winnerId,omitempty"`
	LoserID   string     `json:"loserId,omitempty"`
	ExpiresAt *time.Time `json:"expiresAt,omitempty"`
	Success   *bool      `json:"success,omitempty"`

	// error (and failed acks)
	Code  string `json:"code,omitempty"`
	Error string `json:"error,omitempty"`
}

// Error codes carried in ServerMessage.Code.
const (
	CodeDuplicateEntry    = "duplicate_entry"
	CodeNotInQueue        = "not_in_queue"
	CodeInvalidTableState = "invalid_table_state"
	CodeStaleInvite       = "stale_invite"
	CodeStaleClaim        = "stale_claim"
	CodeUnauthorized      = "unauthorized"
	CodeBadRequest        = "bad_request"
	CodeInternal          = "internal"
)
