package engine

import "time"

// Win-confirmation handshake: an occupant claims, the named loser
// confirms or rejects. A table holds at most one unresolved claim.

func (s *State) claimWin(cmd Command) ([]Event, error) {
	t := s.table(cmd.TableID)
	if t == nil || t.Status != TableOccupied || len(t.Occupants) != 2 || t.Claim != nil {
		return nil, ErrInvalidTableState
	}
	if !t.hasOccupant(cmd.WinnerID) || !sameUser(cmd.Actor, cmd.WinnerID) {
		return nil, ErrInvalidTableState
	}
	loserID := t.Occupants[0]
	if loserID == cmd.WinnerID {
		loserID = t.Occupants[1]
	}
	t.Claim = &WinClaim{WinnerID: cmd.WinnerID, LoserID: loserID}
	return []Event{{
		Type:     EvtWinClaimed,
		TableID:  t.ID,
		WinnerID: cmd.WinnerID,
		LoserID:  loserID,
	}}, nil
}

// confirmWin must name the outstanding claim exactly; anything else —
// including a duplicate confirm after resolution — is a stale claim.
func (s *State) confirmWin(cmd Command, now time.Time) ([]Event, error) {
	t := s.table(cmd.TableID)
	if t == nil {
		return nil, ErrInvalidTableState
	}
	if t.Claim == nil || t.Claim.WinnerID != cmd.WinnerID || t.Claim.LoserID != cmd.LoserID {
		return nil, ErrStaleClaim
	}
	if !sameUser(cmd.Actor, t.Claim.LoserID) {
		return nil, ErrUnauthorized
	}
	t.Claim = nil
	if !cmd.Confirmed {
		// Rejected: both occupants stay seated; the admin clear is the
		// only escape hatch beyond this.
		return nil, nil
	}
	t.removeOccupant(cmd.LoserID)
	events := []Event{{Type: EvtPlayerEvicted, TableID: t.ID, UserID: cmd.LoserID}}
	// Winner keeps the table; the freed seat goes to the queue head, or
	// the table holds at occupied(1) until someone shows up.
	return append(events, s.scheduleInvites(now)...), nil
}
