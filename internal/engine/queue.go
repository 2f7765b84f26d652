package engine

import "time"

// Queue operations. The queue is an insertion-ordered slice with no
// duplicate user ids; admin reorders swap adjacent entries only.

func (s *State) queueIndex(userID string) int {
	for i, e := range s.Queue {
		if e.UserID == userID {
			return i
		}
	}
	return -1
}

func (s *State) joinQueue(cmd Command, now time.Time) ([]Event, error) {
	if !sameUser(cmd.Actor, cmd.UserID) {
		return nil, ErrUnauthorized
	}
	if s.queueIndex(cmd.UserID) >= 0 {
		return nil, ErrDuplicateEntry
	}
	s.Queue = append(s.Queue, QueueEntry{UserID: cmd.UserID, JoinedAt: now})

	// A table may have been sitting open (or half-seated) with nobody
	// waiting; the new entrant re-arms invite scheduling.
	return s.scheduleInvites(now), nil
}

func (s *State) leaveQueue(cmd Command) ([]Event, error) {
	if !sameUser(cmd.Actor, cmd.UserID) {
		return nil, ErrUnauthorized
	}
	return s.removeEntrant(cmd.UserID)
}

func (s *State) removeEntrant(userID string) ([]Event, error) {
	i := s.queueIndex(userID)
	if i < 0 {
		return nil, ErrNotInQueue
	}
	s.Queue = append(s.Queue[:i], s.Queue[i+1:]...)
	return nil, nil
}

// moveEntry swaps the entry with its neighbor at offset delta. At the
// head (moving up) or tail (moving down) it is a no-op, not an error.
func (s *State) moveEntry(userID string, delta int) ([]Event, error) {
	i := s.queueIndex(userID)
	if i < 0 {
		return nil, ErrNotInQueue
	}
	j := i + delta
	if j < 0 || j >= len(s.Queue) {
		return nil, nil
	}
	s.Queue[i], s.Queue[j] = s.Queue[j], s.Queue[i]
	return nil, nil
}
