// Package engine holds the per-hall matchmaking state machine: the
// waiting queue, table lifecycle, timed invites and the win-confirmation
// handshake. It is pure with respect to concurrency — the hall actor is
// the only caller and feeds it one command at a time. Apply validates a
// command completely before touching state, so a rejected command never
// leaves a partial mutation behind.
package engine

import "time"

type Actor struct {
	UserID string
	Admin  bool
}

type CommandType string

const (
	CmdJoinQueue     CommandType = "JoinQueue"
	CmdLeaveQueue    CommandType = "LeaveQueue"
	CmdMoveUp        CommandType = "MoveUp"
	CmdMoveDown      CommandType = "MoveDown"
	CmdRemoveEntrant CommandType = "RemoveEntrant"
	CmdClearQueue    CommandType = "ClearQueue"
	CmdClearTables   CommandType = "ClearTables"
	CmdRemovePlayer  CommandType = "RemovePlayer"
	CmdAcceptInvite  CommandType = "AcceptInvite"
	CmdSkipInvite    CommandType = "SkipInvite"
	CmdInviteTimeout CommandType = "InviteTimeout"
	CmdClaimWin      CommandType = "ClaimWin"
	CmdConfirmWin    CommandType = "ConfirmWin"
)

type Command struct {
	Type  CommandType
	Actor Actor

	UserID    string // subject of queue/invite commands
	TableID   string
	WinnerID  string
	LoserID   string
	Confirmed bool

	// InviteVersion guards CmdInviteTimeout against the accept/timeout race.
	InviteVersion uint64
}

type EventType string

const (
	// EvtInviteIssued: a queue entrant was offered a table slot. The hall
	// actor schedules the expiry timer and delivers the private invite.
	EvtInviteIssued EventType = "InviteIssued"
	// EvtInviteResolved: the table's invite was destroyed (accepted,
	// skipped, expired or cleared). Any pending timer for it is dead.
	EvtInviteResolved EventType = "InviteResolved"
	// EvtWinClaimed: a win claim was opened; the loser gets a private
	// confirmation request.
	EvtWinClaimed EventType = "WinClaimed"
	// EvtPlayerEvicted: an occupant lost their seat (confirmed loss or
	// admin removal).
	EvtPlayerEvicted EventType = "PlayerEvicted"
)

type Event struct {
	Type      EventType
	TableID   string
	UserID    string
	WinnerID  string
	LoserID   string
	Version   uint64
	ExpiresAt time.Time
}

// adminCommands require Actor.Admin.
var adminCommands = map[CommandType]bool{
	CmdMoveUp:        true,
	CmdMoveDown:      true,
	CmdRemoveEntrant: true,
	CmdClearQueue:    true,
	CmdClearTables:   true,
	CmdRemovePlayer:  true,
}

// Apply runs one command against the hall state. On success it returns
// the side-effect events for the hall actor to act on; on error the
// state is guaranteed untouched.
func Apply(s *State, cmd Command) ([]Event, error) {
	if adminCommands[cmd.Type] && !cmd.Actor.Admin {
		return nil, ErrUnauthorized
	}
	now := time.Now()

	switch cmd.Type {
	case CmdJoinQueue:
		return s.joinQueue(cmd, now)
	case CmdLeaveQueue:
		return s.leaveQueue(cmd)
	case CmdMoveUp:
		return s.moveEntry(cmd.UserID, -1)
	case CmdMoveDown:
		return s.moveEntry(cmd.UserID, +1)
	case CmdRemoveEntrant:
		return s.removeEntrant(cmd.UserID)
	case CmdClearQueue:
		s.Queue = s.Queue[:0]
		return nil, nil
	case CmdClearTables:
		return s.clearTables()
	case CmdRemovePlayer:
		return s.removePlayer(cmd, now)
	case CmdAcceptInvite:
		return s.acceptInvite(cmd, now)
	case CmdSkipInvite:
		return s.skipInvite(cmd, now)
	case CmdInviteTimeout:
		return s.inviteTimeout(cmd, now)
	case CmdClaimWin:
		return s.claimWin(cmd)
	case CmdConfirmWin:
		return s.confirmWin(cmd, now)
	default:
		return nil, ErrUnsupportedCommand
	}
}

// sameUser reports whether the command's actor may act on behalf of the
// subject user. Admins may act for anyone.
func sameUser(a Actor, userID string) bool {
	return a.Admin || a.UserID == userID
}
