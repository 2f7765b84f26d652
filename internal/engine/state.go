package engine

import "time"

type TableStatus string

const (
	TableOpen     TableStatus = "open"
	TableInvited  TableStatus = "invited"
	TableOccupied TableStatus = "occupied"
)

// QueueEntry is one user's waiting slot in a hall.
type QueueEntry struct {
	UserID   string    `json:"userId"`
	JoinedAt time.Time `json:"joinedAt"`
}

// Invite is a time-bounded offer of a table slot to a queue entrant.
// Version is unique per hall; a timer fire carrying an older version
// than the table's current invite is stale and must not mutate anything.
type Invite struct {
	TableID   string    `json:"tableId"`
	UserID    string    `json:"userId"`
	Version   uint64    `json:"-"`
	CreatedAt time.Time `json:"createdAt"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// WinClaim is an occupant's assertion of victory, pending the loser's confirmation.
type WinClaim struct {
	WinnerID string `json:"winnerId"`
	LoserID  string `json:"loserId"`
}

type Table struct {
	ID        string      `json:"tableId"`
	Number    int         `json:"tableNumber"`
	Status    TableStatus `json:"status"`
	Occupants []string    `json:"occupants"`
	Invite    *Invite     `json:"invite,omitempty"`
	Claim     *WinClaim   `json:"winClaim,omitempty"`
}

// State is the full matchmaking state of one hall. It is only ever
// mutated from inside the hall actor's loop, so it carries no locks.
type State struct {
	HallID    string
	Queue     []QueueEntry
	Tables    []Table
	InviteTTL time.Duration

	inviteSeq uint64
}

// TableSeat describes a table as registered for a hall (id + display number).
type TableSeat struct {
	ID     string
	Number int
}

func NewState(hallID string, seats []TableSeat, inviteTTL time.Duration) State {
	s := State{
		HallID:    hallID,
		Queue:     []QueueEntry{},
		Tables:    make([]Table, 0, len(seats)),
		InviteTTL: inviteTTL,
	}
	for _, seat := range seats {
		s.Tables = append(s.Tables, Table{
			ID:        seat.ID,
			Number:    seat.Number,
			Status:    TableOpen,
			Occupants: []string{},
		})
	}
	return s
}

// Snapshot is the consolidated view pushed to every room member
// after a mutation. Slices are deep copies so the receiving side can
// hold on to it while the actor keeps mutating.
type Snapshot struct {
	HallID string       `json:"hallId"`
	Queue  []QueueEntry `json:"queue"`
	Tables []Table      `json:"tables"`
}

func (s *State) Snapshot() Snapshot {
	snap := Snapshot{
		HallID: s.HallID,
		Queue:  make([]QueueEntry, len(s.Queue)),
		Tables: make([]Table, len(s.Tables)),
	}
	copy(snap.Queue, s.Queue)
	for i, t := range s.Tables {
		tc := t
		tc.Occupants = append([]string(nil), t.Occupants...)
		if t.Invite != nil {
			inv := *t.Invite
			tc.Invite = &inv
		}
		if t.Claim != nil {
			cl := *t.Claim
			tc.Claim = &cl
		}
		snap.Tables[i] = tc
	}
	return snap
}

func (s *State) table(tableID string) *Table {
	for i := range s.Tables {
		if s.Tables[i].ID == tableID {
			return &s.Tables[i]
		}
	}
	return nil
}

func (t *Table) hasOccupant(userID string) bool {
	for _, id := range t.Occupants {
		if id == userID {
			return true
		}
	}
	return false
}

func (t *Table) removeOccupant(userID string) bool {
	for i, id := range t.Occupants {
		if id == userID {
			t.Occupants = append(t.Occupants[:i], t.Occupants[i+1:]...)
			return true
		}
	}
	return false
}
