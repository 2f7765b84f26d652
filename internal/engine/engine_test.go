package engine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var admin = Actor{UserID: "admin", Admin: true}

func asUser(id string) Actor { return Actor{UserID: id} }

func newHall(tables int) State {
	seats := make([]TableSeat, 0, tables)
	for i := 1; i <= tables; i++ {
		seats = append(seats, TableSeat{ID: "t" + string(rune('0'+i)), Number: i})
	}
	return NewState("hall1", seats, 30*time.Second)
}

func join(t *testing.T, s *State, userID string) {
	t.Helper()
	_, err := Apply(s, Command{Type: CmdJoinQueue, Actor: asUser(userID), UserID: userID})
	require.NoError(t, err)
}

func accept(t *testing.T, s *State, tableID, userID string) {
	t.Helper()
	_, err := Apply(s, Command{Type: CmdAcceptInvite, Actor: asUser(userID), TableID: tableID, UserID: userID})
	require.NoError(t, err)
}

func queueIDs(s *State) []string {
	ids := make([]string, 0, len(s.Queue))
	for _, e := range s.Queue {
		ids = append(ids, e.UserID)
	}
	return ids
}

func TestJoinQueueRejectsDuplicates(t *testing.T) {
	s := newHall(0)
	join(t, &s, "alice")
	join(t, &s, "bob")

	_, err := Apply(&s, Command{Type: CmdJoinQueue, Actor: asUser("alice"), UserID: "alice"})
	require.ErrorIs(t, err, ErrDuplicateEntry)
	assert.Equal(t, []string{"alice", "bob"}, queueIDs(&s))
}

func TestLeaveQueue(t *testing.T) {
	s := newHall(0)
	join(t, &s, "alice")
	join(t, &s, "bob")

	_, err := Apply(&s, Command{Type: CmdLeaveQueue, Actor: asUser("alice"), UserID: "alice"})
	require.NoError(t, err)
	assert.Equal(t, []string{"bob"}, queueIDs(&s))

	_, err = Apply(&s, Command{Type: CmdLeaveQueue, Actor: asUser("alice"), UserID: "alice"})
	require.ErrorIs(t, err, ErrNotInQueue)

	// bob cannot remove carol's (nonexistent) entry, and carol cannot
	// remove bob's without the admin role
	_, err = Apply(&s, Command{Type: CmdLeaveQueue, Actor: asUser("carol"), UserID: "bob"})
	require.ErrorIs(t, err, ErrUnauthorized)
}

func TestMoveEdgesAreNoOps(t *testing.T) {
	s := newHall(0)
	join(t, &s, "a")
	join(t, &s, "b")
	join(t, &s, "c")

	_, err := Apply(&s, Command{Type: CmdMoveUp, Actor: admin, UserID: "a"})
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c"}, queueIDs(&s), "MoveUp at head must not change order")

	_, err = Apply(&s, Command{Type: CmdMoveDown, Actor: admin, UserID: "c"})
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c"}, queueIDs(&s), "MoveDown at tail must not change order")

	_, err = Apply(&s, Command{Type: CmdMoveUp, Actor: admin, UserID: "c"})
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "c", "b"}, queueIDs(&s))
}

func TestAdminCommandsRequireAdmin(t *testing.T) {
	s := newHall(1)
	join(t, &s, "a")
	join(t, &s, "b")

	for _, typ := range []CommandType{CmdMoveUp, CmdMoveDown, CmdRemoveEntrant, CmdClearQueue, CmdClearTables} {
		_, err := Apply(&s, Command{Type: typ, Actor: asUser("b"), UserID: "b"})
		assert.ErrorIs(t, err, ErrUnauthorized, "command %s", typ)
	}
	assert.Equal(t, []string{"b"}, queueIDs(&s), "failed admin commands must not mutate")
}

func TestOpenTableInvitesQueueHead(t *testing.T) {
	s := newHall(1)
	join(t, &s, "alice")

	tb := s.table("t1")
	require.Equal(t, TableInvited, tb.Status)
	require.NotNil(t, tb.Invite)
	assert.Equal(t, "alice", tb.Invite.UserID)
	assert.Empty(t, s.Queue, "invited user is popped from the queue")
	assert.WithinDuration(t, time.Now().Add(30*time.Second), tb.Invite.ExpiresAt, time.Second)
}

func TestTwoAcceptsFillTable(t *testing.T) {
	// queue=[A,B,C], table open -> invite A -> accept -> invite B ->
	// accept -> occupied(A,B), queue=[C]
	s := newHall(1)
	join(t, &s, "A")
	join(t, &s, "B")
	join(t, &s, "C")

	accept(t, &s, "t1", "A")
	tb := s.table("t1")
	assert.Equal(t, []string{"A"}, tb.Occupants)
	require.NotNil(t, tb.Invite)
	assert.Equal(t, "B", tb.Invite.UserID)
	assert.Equal(t, TableInvited, tb.Status)

	accept(t, &s, "t1", "B")
	assert.Equal(t, TableOccupied, tb.Status)
	assert.Equal(t, []string{"A", "B"}, tb.Occupants)
	assert.Nil(t, tb.Invite)
	assert.Equal(t, []string{"C"}, queueIDs(&s))
}

func TestSkipPassesInviteToNextHead(t *testing.T) {
	s := newHall(1)
	join(t, &s, "A")
	join(t, &s, "B")

	_, err := Apply(&s, Command{Type: CmdSkipInvite, Actor: asUser("A"), TableID: "t1", UserID: "A"})
	require.NoError(t, err)

	tb := s.table("t1")
	require.NotNil(t, tb.Invite)
	assert.Equal(t, "B", tb.Invite.UserID, "skip re-runs scheduling for the new head")
	assert.Empty(t, s.Queue)
	assert.Equal(t, -1, s.queueIndex("A"), "skipped user is dropped, not re-enqueued")
}

func TestAcceptAndTimeoutAreMutuallyExclusive(t *testing.T) {
	s := newHall(1)
	join(t, &s, "A")
	version := s.table("t1").Invite.Version

	accept(t, &s, "t1", "A")

	// The timer fire that lost the race must observe a stale invite and
	// mutate nothing.
	_, err := Apply(&s, Command{Type: CmdInviteTimeout, TableID: "t1", InviteVersion: version})
	require.ErrorIs(t, err, ErrStaleInvite)
	tb := s.table("t1")
	assert.Equal(t, TableOccupied, tb.Status)
	assert.Equal(t, []string{"A"}, tb.Occupants)
}

func TestTimeoutDropsInvitee(t *testing.T) {
	s := newHall(1)
	join(t, &s, "A")
	join(t, &s, "B")
	version := s.table("t1").Invite.Version

	events, err := Apply(&s, Command{Type: CmdInviteTimeout, TableID: "t1", InviteVersion: version})
	require.NoError(t, err)

	tb := s.table("t1")
	require.NotNil(t, tb.Invite)
	assert.Equal(t, "B", tb.Invite.UserID)

	// events cover both the revoked invite and the re-issued one
	var resolved, issued bool
	for _, ev := range events {
		switch ev.Type {
		case EvtInviteResolved:
			resolved = true
		case EvtInviteIssued:
			issued = true
		}
	}
	assert.True(t, resolved)
	assert.True(t, issued)

	// an accept arriving after expiry must lose
	_, err = Apply(&s, Command{Type: CmdAcceptInvite, Actor: asUser("A"), TableID: "t1", UserID: "A"})
	require.ErrorIs(t, err, ErrStaleInvite)
}

func TestAcceptValidation(t *testing.T) {
	s := newHall(2)
	join(t, &s, "A")

	_, err := Apply(&s, Command{Type: CmdAcceptInvite, Actor: asUser("B"), TableID: "t1", UserID: "B"})
	require.ErrorIs(t, err, ErrStaleInvite, "only the invited user may accept")

	_, err = Apply(&s, Command{Type: CmdAcceptInvite, Actor: asUser("A"), TableID: "t2", UserID: "A"})
	require.ErrorIs(t, err, ErrInvalidTableState, "t2 holds no invite")
}

func occupyTable(t *testing.T, s *State) {
	t.Helper()
	join(t, s, "A")
	accept(t, s, "t1", "A")
	join(t, s, "B")
	accept(t, s, "t1", "B")
}

func TestClaimAndConfirmWin(t *testing.T) {
	s := newHall(1)
	occupyTable(t, &s)
	join(t, &s, "C")

	events, err := Apply(&s, Command{Type: CmdClaimWin, Actor: asUser("A"), TableID: "t1", WinnerID: "A"})
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, EvtWinClaimed, events[0].Type)
	assert.Equal(t, "B", events[0].LoserID, "the other occupant is the loser")

	// a second claim while one is pending is rejected
	_, err = Apply(&s, Command{Type: CmdClaimWin, Actor: asUser("B"), TableID: "t1", WinnerID: "B"})
	require.ErrorIs(t, err, ErrInvalidTableState)

	_, err = Apply(&s, Command{
		Type: CmdConfirmWin, Actor: asUser("B"), TableID: "t1",
		WinnerID: "A", LoserID: "B", Confirmed: true,
	})
	require.NoError(t, err)

	tb := s.table("t1")
	assert.Equal(t, []string{"A"}, tb.Occupants, "loser evicted, winner keeps the table")
	assert.Nil(t, tb.Claim)
	require.NotNil(t, tb.Invite, "freed slot goes to the queue head")
	assert.Equal(t, "C", tb.Invite.UserID)
	assert.Empty(t, s.Queue)
}

func TestRejectedClaimLeavesTableUnchanged(t *testing.T) {
	s := newHall(1)
	occupyTable(t, &s)

	_, err := Apply(&s, Command{Type: CmdClaimWin, Actor: asUser("A"), TableID: "t1", WinnerID: "A"})
	require.NoError(t, err)

	_, err = Apply(&s, Command{
		Type: CmdConfirmWin, Actor: asUser("B"), TableID: "t1",
		WinnerID: "A", LoserID: "B", Confirmed: false,
	})
	require.NoError(t, err)

	tb := s.table("t1")
	assert.Equal(t, TableOccupied, tb.Status)
	assert.Equal(t, []string{"A", "B"}, tb.Occupants)
	assert.Nil(t, tb.Claim)
}

func TestDuplicateConfirmIsStale(t *testing.T) {
	s := newHall(1)
	occupyTable(t, &s)

	_, err := Apply(&s, Command{Type: CmdClaimWin, Actor: asUser("A"), TableID: "t1", WinnerID: "A"})
	require.NoError(t, err)

	confirm := Command{
		Type: CmdConfirmWin, Actor: asUser("B"), TableID: "t1",
		WinnerID: "A", LoserID: "B", Confirmed: true,
	}
	_, err = Apply(&s, confirm)
	require.NoError(t, err)

	_, err = Apply(&s, confirm)
	require.ErrorIs(t, err, ErrStaleClaim)
	assert.Equal(t, []string{"A"}, s.table("t1").Occupants, "second confirm must not mutate")
}

func TestOnlyLoserMayConfirm(t *testing.T) {
	s := newHall(1)
	occupyTable(t, &s)

	_, err := Apply(&s, Command{Type: CmdClaimWin, Actor: asUser("A"), TableID: "t1", WinnerID: "A"})
	require.NoError(t, err)

	_, err = Apply(&s, Command{
		Type: CmdConfirmWin, Actor: asUser("A"), TableID: "t1",
		WinnerID: "A", LoserID: "B", Confirmed: true,
	})
	require.ErrorIs(t, err, ErrUnauthorized)
}

func TestClaimRequiresFullTable(t *testing.T) {
	s := newHall(1)
	join(t, &s, "A")
	accept(t, &s, "t1", "A")

	_, err := Apply(&s, Command{Type: CmdClaimWin, Actor: asUser("A"), TableID: "t1", WinnerID: "A"})
	require.ErrorIs(t, err, ErrInvalidTableState)
}

func TestClearTablesResetsEverything(t *testing.T) {
	s := newHall(2)
	occupyTable(t, &s)
	_, err := Apply(&s, Command{Type: CmdClaimWin, Actor: asUser("A"), TableID: "t1", WinnerID: "A"})
	require.NoError(t, err)
	join(t, &s, "C") // gets an invite for t2

	_, err = Apply(&s, Command{Type: CmdClearTables, Actor: admin})
	require.NoError(t, err)

	for i := range s.Tables {
		tb := &s.Tables[i]
		assert.Equal(t, TableOpen, tb.Status)
		assert.Empty(t, tb.Occupants)
		assert.Nil(t, tb.Invite)
		assert.Nil(t, tb.Claim)
	}
}

func TestClearQueue(t *testing.T) {
	s := newHall(0)
	join(t, &s, "a")
	join(t, &s, "b")

	_, err := Apply(&s, Command{Type: CmdClearQueue, Actor: admin})
	require.NoError(t, err)
	assert.Empty(t, s.Queue)
}

func TestRemovePlayerFreesSlot(t *testing.T) {
	s := newHall(1)
	occupyTable(t, &s)
	join(t, &s, "C")
	// C joined while the table was full, so no invite yet
	require.Nil(t, s.table("t1").Invite)

	_, err := Apply(&s, Command{Type: CmdRemovePlayer, Actor: admin, TableID: "t1", UserID: "B"})
	require.NoError(t, err)

	tb := s.table("t1")
	assert.Equal(t, []string{"A"}, tb.Occupants)
	require.NotNil(t, tb.Invite)
	assert.Equal(t, "C", tb.Invite.UserID)

	_, err = Apply(&s, Command{Type: CmdRemovePlayer, Actor: admin, TableID: "t1", UserID: "B"})
	require.ErrorIs(t, err, ErrInvalidTableState, "B is no longer seated")
}

func TestSeatedUserIsNotInvitedToOwnTable(t *testing.T) {
	s := newHall(1)
	join(t, &s, "A")
	accept(t, &s, "t1", "A")

	// A rejoins the queue while holding the only seat; the open second
	// slot must not be offered back to A.
	join(t, &s, "A")
	tb := s.table("t1")
	assert.Nil(t, tb.Invite)
	assert.Equal(t, []string{"A"}, queueIDs(&s))

	// the next entrant gets it instead
	join(t, &s, "B")
	require.NotNil(t, tb.Invite)
	assert.Equal(t, "B", tb.Invite.UserID)
	assert.Equal(t, []string{"A"}, queueIDs(&s))
}

func TestSnapshotIsDetached(t *testing.T) {
	s := newHall(1)
	join(t, &s, "A")
	snap := s.Snapshot()

	accept(t, &s, "t1", "A")

	require.NotNil(t, snap.Tables[0].Invite, "snapshot keeps the pre-accept invite")
	assert.Empty(t, snap.Tables[0].Occupants)
}
