package amm

import (
	"math/big"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeClock is a manually advanced time source for window tests.
type fakeClock struct {
	now time.Time
}

func (f *fakeClock) Now() time.Time { return f.now }

func (f *fakeClock) Advance(d time.Duration) { f.now = f.now.Add(d) }

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
}

func newTestPool(t *testing.T, tokenReserve, nativeReserve, lpSupply int64) (*Pool, *fakeClock) {
	t.Helper()
	clk := newFakeClock()
	p, err := FromSnapshot(Snapshot{
		ItemID:           "item-1",
		TokenReserve:     big.NewInt(tokenReserve),
		NativeReserve:    big.NewInt(nativeReserve),
		FeeRate:          DefaultFeeRate,
		LPTotalSupply:    big.NewInt(lpSupply),
		LastUpdated:      clk.Now(),
		LastVolumeUpdate: clk.Now(),
	})
	require.NoError(t, err)
	p.SetClock(clk.Now)
	return p, clk
}

func TestNewPoolListingSplit(t *testing.T) {
	p, err := NewPool("item-42", big.NewInt(1_000_000))
	require.NoError(t, err)

	tokenReserve, nativeReserve := p.Reserves()
	assert.Equal(t, big.NewInt(200_000), tokenReserve, "token reserve is 20%% of supply")
	assert.Equal(t, big.NewInt(200_000), nativeReserve, "native reserve matches 1:1 initial price")
	assert.Equal(t, big.NewInt(200_000), p.LPTotalSupply(), "initial LP supply is sqrt(k)")
	assert.Equal(t, DefaultFeeRate, p.FeeRate())
	assert.True(t, p.Initialized())
	assert.Equal(t, big.NewInt(0), p.TotalVolume())
	assert.Equal(t, big.NewInt(0), p.TotalFees())
}

func TestNewPoolRejectsBadInputs(t *testing.T) {
	_, err := NewPool("", big.NewInt(1000))
	assert.ErrorIs(t, err, ErrZeroAmount)

	_, err = NewPool("item-1", nil)
	assert.ErrorIs(t, err, ErrZeroAmount)

	_, err = NewPool("item-1", big.NewInt(0))
	assert.ErrorIs(t, err, ErrZeroAmount)

	// 20% of 4 floors to zero; the pool would be unfunded.
	_, err = NewPool("item-1", big.NewInt(4))
	assert.ErrorIs(t, err, ErrZeroAmount)

	tooBig := new(big.Int).Add(MaxUint128(), big.NewInt(1))
	_, err = NewPool("item-1", tooBig)
	assert.ErrorIs(t, err, ErrArithmeticOverflow)
}

func TestSnapshotRoundTrip(t *testing.T) {
	p, _ := newTestPool(t, 1_000_000, 500_000, 700_000)

	s := p.Snapshot()
	restored, err := FromSnapshot(s)
	require.NoError(t, err)

	tr1, nr1 := p.Reserves()
	tr2, nr2 := restored.Reserves()
	assert.Equal(t, tr1, tr2)
	assert.Equal(t, nr1, nr2)
	assert.Equal(t, p.LPTotalSupply(), restored.LPTotalSupply())
	assert.Equal(t, p.FeeRate(), restored.FeeRate())

	// Snapshots are detached; mutating the snapshot must not touch the pool.
	s.TokenReserve.SetInt64(1)
	tr3, _ := p.Reserves()
	assert.Equal(t, tr1, tr3)
}

func TestFromSnapshotRejectsOutOfRangeValues(t *testing.T) {
	_, err := FromSnapshot(Snapshot{
		ItemID:       "item-1",
		TokenReserve: new(big.Int).Add(MaxUint128(), big.NewInt(1)),
	})
	assert.ErrorIs(t, err, ErrArithmeticOverflow)

	_, err = FromSnapshot(Snapshot{ItemID: "item-1", FeeRate: 10_001})
	assert.ErrorIs(t, err, ErrInvalidFeeRate)
}

func TestSetFeeRate(t *testing.T) {
	p, _ := newTestPool(t, 1_000_000, 1_000_000, 1_000_000)

	require.NoError(t, p.SetFeeRate(100))
	assert.Equal(t, uint32(100), p.FeeRate())

	assert.ErrorIs(t, p.SetFeeRate(10_001), ErrInvalidFeeRate)
	assert.Equal(t, uint32(100), p.FeeRate(), "rejected update leaves rate unchanged")
}

func TestVolumeWindowAccumulatesWithin24h(t *testing.T) {
	p, clk := newTestPool(t, 1_000_000, 1_000_000, 1_000_000)

	_, err := p.SwapNativeForTokens(big.NewInt(100), nil)
	require.NoError(t, err)

	clk.Advance(23 * time.Hour)
	_, err = p.SwapNativeForTokens(big.NewInt(100), nil)
	require.NoError(t, err)

	assert.Equal(t, big.NewInt(200), p.Volume24h(), "trades inside the window accumulate")
	assert.Equal(t, big.NewInt(200), p.TotalVolume())
}

func TestVolumeWindowResetsAfter24h(t *testing.T) {
	p, clk := newTestPool(t, 1_000_000, 1_000_000, 1_000_000)

	_, err := p.SwapNativeForTokens(big.NewInt(100), nil)
	require.NoError(t, err)

	clk.Advance(24 * time.Hour)
	_, err = p.SwapNativeForTokens(big.NewInt(100), nil)
	require.NoError(t, err)

	assert.Equal(t, big.NewInt(100), p.Volume24h(), "window resets wholesale, not accumulates")
	assert.Equal(t, big.NewInt(200), p.TotalVolume(), "lifetime volume keeps accumulating")
}

func TestVolumeWindowStartIsAnchored(t *testing.T) {
	p, clk := newTestPool(t, 10_000_000, 10_000_000, 10_000_000)

	// Trades at t0, t0+23h, t0+23h30m: the window start stays at t0, so the
	// third trade is still within the first window.
	_, err := p.SwapNativeForTokens(big.NewInt(100), nil)
	require.NoError(t, err)
	clk.Advance(23 * time.Hour)
	_, err = p.SwapNativeForTokens(big.NewInt(100), nil)
	require.NoError(t, err)
	clk.Advance(30 * time.Minute)
	_, err = p.SwapNativeForTokens(big.NewInt(100), nil)
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(300), p.Volume24h())

	// One hour later the window has elapsed relative to t0.
	clk.Advance(1 * time.Hour)
	_, err = p.SwapNativeForTokens(big.NewInt(100), nil)
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(100), p.Volume24h())
}

func TestCurrentPrice(t *testing.T) {
	p, _ := newTestPool(t, 2_000_000, 1_000_000, 1_000_000)
	assert.InDelta(t, 0.5, p.CurrentPrice(), 1e-12)

	empty, err := FromSnapshot(Snapshot{ItemID: "item-2"})
	require.NoError(t, err)
	assert.Zero(t, empty.CurrentPrice())
}
