package engine

import "time"

// Invite scheduling. An invite is created by popping the queue for an
// eligible table; it dies by accept, skip, expiry or admin clear, and
// exactly one of those wins. The per-hall version stamped on each
// invite is the race guard: a timer fire that lost to an accept carries
// a version the table no longer holds.

func (t *Table) invitable() bool {
	if t.Invite != nil || t.Claim != nil {
		return false
	}
	switch t.Status {
	case TableOpen:
		return len(t.Occupants) == 0
	case TableOccupied:
		return len(t.Occupants) == 1
	default:
		return false
	}
}

// scheduleInvites walks the tables in hall order and offers every free
// slot to the queue until one side runs out. A queue entry already
// seated at the candidate table is passed over for that table, never
// invited to play against themselves.
func (s *State) scheduleInvites(now time.Time) []Event {
	var events []Event
	for i := range s.Tables {
		t := &s.Tables[i]
		if !t.invitable() {
			continue
		}
		idx := -1
		for j, e := range s.Queue {
			if !t.hasOccupant(e.UserID) {
				idx = j
				break
			}
		}
		if idx < 0 {
			continue
		}
		entrant := s.Queue[idx]
		s.Queue = append(s.Queue[:idx], s.Queue[idx+1:]...)

		s.inviteSeq++
		t.Invite = &Invite{
			TableID:   t.ID,
			UserID:    entrant.UserID,
			Version:   s.inviteSeq,
			CreatedAt: now,
			ExpiresAt: now.Add(s.InviteTTL),
		}
		t.Status = TableInvited
		events = append(events, Event{
			Type:      EvtInviteIssued,
			TableID:   t.ID,
			UserID:    entrant.UserID,
			Version:   t.Invite.Version,
			ExpiresAt: t.Invite.ExpiresAt,
		})
	}
	return events
}

func (s *State) acceptInvite(cmd Command, now time.Time) ([]Event, error) {
	t := s.table(cmd.TableID)
	if t == nil || t.Status != TableInvited || t.Invite == nil {
		return nil, ErrInvalidTableState
	}
	if t.Invite.UserID != cmd.UserID || !sameUser(cmd.Actor, cmd.UserID) {
		return nil, ErrStaleInvite
	}
	version := t.Invite.Version
	t.Invite = nil
	t.Occupants = append(t.Occupants, cmd.UserID)
	t.Status = TableOccupied

	events := []Event{{Type: EvtInviteResolved, TableID: t.ID, Version: version}}
	// Second slot still free: the next entrant is offered it right away.
	return append(events, s.scheduleInvites(now)...), nil
}

func (s *State) skipInvite(cmd Command, now time.Time) ([]Event, error) {
	t := s.table(cmd.TableID)
	if t == nil || t.Status != TableInvited || t.Invite == nil {
		return nil, ErrInvalidTableState
	}
	if t.Invite.UserID != cmd.UserID || !sameUser(cmd.Actor, cmd.UserID) {
		return nil, ErrStaleInvite
	}
	return s.revokeInvite(t, now), nil
}

// inviteTimeout is posted by the hall actor's expiry timer. The version
// check makes it a no-op loser whenever an accept or skip got there first.
func (s *State) inviteTimeout(cmd Command, now time.Time) ([]Event, error) {
	t := s.table(cmd.TableID)
	if t == nil {
		return nil, ErrInvalidTableState
	}
	if t.Invite == nil || t.Invite.Version != cmd.InviteVersion {
		return nil, ErrStaleInvite
	}
	return s.revokeInvite(t, now), nil
}

// revokeInvite destroys the invite without seating the user. The
// skipped entrant was already popped from the queue when the invite was
// issued and is not re-enqueued. The freed slot goes to the next head.
func (s *State) revokeInvite(t *Table, now time.Time) []Event {
	version := t.Invite.Version
	t.Invite = nil
	if len(t.Occupants) > 0 {
		t.Status = TableOccupied
	} else {
		t.Status = TableOpen
	}
	events := []Event{{Type: EvtInviteResolved, TableID: t.ID, Version: version}}
	return append(events, s.scheduleInvites(now)...)
}
