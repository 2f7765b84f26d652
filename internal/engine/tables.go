package engine

import "time"

// Table lifecycle: open → invited → occupied → {invited | open}. Status
// changes happen only here and in invites.go/winclaim.go, never in callers.

func (s *State) clearTables() ([]Event, error) {
	var events []Event
	for i := range s.Tables {
		t := &s.Tables[i]
		if t.Invite != nil {
			events = append(events, Event{
				Type:    EvtInviteResolved,
				TableID: t.ID,
				Version: t.Invite.Version,
			})
		}
		t.Status = TableOpen
		t.Occupants = t.Occupants[:0]
		t.Invite = nil
		t.Claim = nil
	}
	// Deliberately no invite scheduling: clear_tables is the admin reset
	// to a blank slate. The next queue mutation re-arms scheduling.
	return events, nil
}

// removePlayer is the admin escape hatch for a single seat: evict one
// occupant, void any claim they were part of, free the slot.
func (s *State) removePlayer(cmd Command, now time.Time) ([]Event, error) {
	t := s.table(cmd.TableID)
	if t == nil || !t.hasOccupant(cmd.UserID) {
		return nil, ErrInvalidTableState
	}
	t.removeOccupant(cmd.UserID)
	if t.Claim != nil && (t.Claim.WinnerID == cmd.UserID || t.Claim.LoserID == cmd.UserID) {
		t.Claim = nil
	}
	events := []Event{{Type: EvtPlayerEvicted, TableID: t.ID, UserID: cmd.UserID}}
	if len(t.Occupants) == 0 && t.Invite == nil {
		t.Status = TableOpen
	}
	return append(events, s.scheduleInvites(now)...), nil
}
