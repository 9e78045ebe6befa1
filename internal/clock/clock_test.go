package clock

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/park285/cheese-gamecore/internal/side"
)

const created int64 = 1_700_000_000_000

func fixed(baseMs int64) Control { return Control{Policy: PolicyFixed, BaseMs: baseMs} }

func TestInitialize(t *testing.T) {
	st := Initialize(fixed(300_000), created)
	require.Equal(t, int64(300_000), st.WhiteMs)
	require.Equal(t, int64(300_000), st.BlackMs)
	require.Equal(t, NotStarted, st.LastMoveAt)
	require.False(t, st.Running())

	untimed := Initialize(Control{Policy: PolicyNone}, created)
	require.Equal(t, Unbounded, untimed.WhiteMs)
	require.Equal(t, Unbounded, untimed.BlackMs)
	require.Equal(t, created, untimed.LastMoveAt)
	require.False(t, untimed.Running())
}

func TestOpeningMoveStartsClockWithoutDeduction(t *testing.T) {
	st := Initialize(fixed(300_000), created)
	moveAt := created + 10_000

	tick := OnMoveSubmitted(st, side.White, side.White, moveAt)
	require.False(t, tick.TimedOut)
	require.Equal(t, moveAt, tick.State.LastMoveAt)
	require.Equal(t, int64(300_000), tick.State.WhiteMs)
	require.Equal(t, int64(300_000), tick.State.BlackMs)
}

func TestMoveDeductsElapsedAndAddsIncrement(t *testing.T) {
	st := Initialize(Control{Policy: PolicyIncrement, BaseMs: 180_000, IncrementMs: 2_000}, created)
	st = OnMoveSubmitted(st, side.White, side.White, created+1_000).State

	tick := OnMoveSubmitted(st, side.Black, side.White, created+6_000)
	require.False(t, tick.TimedOut)
	require.Equal(t, int64(180_000-5_000+2_000), tick.State.BlackMs)
	require.Equal(t, int64(180_000), tick.State.WhiteMs)
	require.Equal(t, created+6_000, tick.State.LastMoveAt)
}

func TestFixedPolicyIgnoresIncrementField(t *testing.T) {
	st := State{WhiteMs: 10_000, BlackMs: 10_000, LastMoveAt: created, Policy: PolicyFixed, IncrementMs: 5_000}
	tick := OnMoveSubmitted(st, side.White, side.White, created+1_000)
	require.Equal(t, int64(9_000), tick.State.WhiteMs)
}

func TestMoverOutOfTimeIsClampedAndLoses(t *testing.T) {
	st := State{WhiteMs: 5_000, BlackMs: 42_000, LastMoveAt: created, Policy: PolicyFixed, BaseMs: 300_000}

	tick := OnMoveSubmitted(st, side.White, side.White, created+6_000)
	require.True(t, tick.TimedOut)
	require.Equal(t, side.Black, tick.TimeoutWinner)
	require.Equal(t, int64(0), tick.State.WhiteMs)
	require.Equal(t, int64(42_000), tick.State.BlackMs)
}

func TestExactlyZeroRemainingIsTimeout(t *testing.T) {
	st := State{WhiteMs: 5_000, BlackMs: 5_000, LastMoveAt: created, Policy: PolicyIncrement, IncrementMs: 10_000}
	tick := OnMoveSubmitted(st, side.White, side.White, created+5_000)
	require.True(t, tick.TimedOut)
	require.Equal(t, int64(0), tick.State.WhiteMs)
}

func TestClockSkewNeverAddsTime(t *testing.T) {
	st := State{WhiteMs: 5_000, BlackMs: 5_000, LastMoveAt: created, Policy: PolicyFixed}
	tick := OnMoveSubmitted(st, side.White, side.White, created-3_000)
	require.False(t, tick.TimedOut)
	require.Equal(t, int64(5_000), tick.State.WhiteMs)
}

func TestUntimedNeverTimesOut(t *testing.T) {
	st := Initialize(Control{Policy: PolicyNone}, created)
	tick := OnMoveSubmitted(st, side.Black, side.White, created+365*24*3600*1000)
	require.False(t, tick.TimedOut)
	require.Equal(t, Unbounded, tick.State.BlackMs)
	require.Equal(t, created+365*24*3600*1000, tick.State.LastMoveAt)

	_, out := CheckTimeout(tick.State, side.White, created+10*365*24*3600*1000)
	require.False(t, out)
}

func TestNeverStoresNegativeRemaining(t *testing.T) {
	for _, elapsed := range []int64{0, 1, 999, 1_000, 1_001, 50_000, 1 << 40} {
		st := State{WhiteMs: 1_000, BlackMs: 1_000, LastMoveAt: created, Policy: PolicyFixed}
		tick := OnMoveSubmitted(st, side.White, side.White, created+elapsed)
		require.GreaterOrEqual(t, tick.State.WhiteMs, int64(0))
		require.Equal(t, 1_000-elapsed <= 0, tick.TimedOut, "elapsed=%d", elapsed)
	}
}

func TestCheckTimeoutNotStarted(t *testing.T) {
	st := Initialize(fixed(1_000), created)
	_, out := CheckTimeout(st, side.White, created+1_000_000)
	require.False(t, out)
}

func TestCheckTimeoutMonotonic(t *testing.T) {
	st := State{WhiteMs: 60_000, BlackMs: 3_000, LastMoveAt: created, Policy: PolicyFixed}

	_, out := CheckTimeout(st, side.Black, created+2_999)
	require.False(t, out)

	for _, at := range []int64{3_000, 3_001, 10_000, 1 << 30} {
		winner, out := CheckTimeout(st, side.Black, created+at)
		require.True(t, out, "at=%d", at)
		require.Equal(t, side.White, winner)
	}
}

func TestSnapshotChargesRunningSide(t *testing.T) {
	st := State{WhiteMs: 60_000, BlackMs: 30_000, LastMoveAt: created, Policy: PolicyFixed}
	w, b := Snapshot(st, side.Black, created+10_000)
	require.Equal(t, int64(60_000), w)
	require.Equal(t, int64(20_000), b)

	w, b = Snapshot(st, side.White, created+90_000)
	require.Equal(t, int64(0), w)
	require.Equal(t, int64(30_000), b)
}

func TestFlag(t *testing.T) {
	st := State{WhiteMs: 60_000, BlackMs: 30_000, LastMoveAt: created, Policy: PolicyFixed}
	st = Flag(st, side.Black)
	require.Equal(t, int64(0), st.BlackMs)
	require.Equal(t, int64(60_000), st.WhiteMs)
}
