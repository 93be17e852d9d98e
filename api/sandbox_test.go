package api

import (
	"context"
	"sync"
	"testing"

	"cosmossdk.io/log"
	"cosmossdk.io/math"
	sdk "github.com/cosmos/cosmos-sdk/types"
	"github.com/stretchr/testify/require"

	"github.com/openalpha/share-vault/api/types"
	managertypes "github.com/openalpha/share-vault/x/manager/types"
	pausertypes "github.com/openalpha/share-vault/x/pauser/types"
	strategytypes "github.com/openalpha/share-vault/x/strategy/types"
)

var (
	alice = sdk.AccAddress([]byte("alice_______________")).String()
	bob   = sdk.AccAddress([]byte("bob_________________")).String()
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []types.LedgerEvent
}

func (p *recordingPublisher) PublishLedgerEvents(events []types.LedgerEvent) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, events...)
}

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, ev := range p.events {
		out = append(out, ev.Type)
	}
	return out
}

func newTestSandbox(t *testing.T) *Sandbox {
	t.Helper()
	s, err := NewSandbox(DefaultSandboxConfig(), log.NewNopLogger())
	require.NoError(t, err)
	return s
}

func faucet(t *testing.T, s *Sandbox, addr, amount string) {
	t.Helper()
	_, err := s.Faucet(context.Background(), &types.FaucetRequest{Address: addr, Amount: amount})
	require.NoError(t, err)
}

func TestNewSandbox_InvalidDenom(t *testing.T) {
	_, err := NewSandbox(SandboxConfig{Denom: "1"}, log.NewNopLogger())
	require.ErrorIs(t, err, types.ErrBadRequest)
}

func TestSandbox_PoolState(t *testing.T) {
	s := newTestSandbox(t)

	state, err := s.PoolState(context.Background())
	require.NoError(t, err)
	require.Equal(t, "stake", state.UnderlyingDenom)
	require.Equal(t, "0", state.TotalShares)
	require.Equal(t, "0", state.Balance)
	require.Equal(t, strategytypes.ExchangeRatePrecision.String(), state.ExchangeRate)
	require.Equal(t, strategytypes.Description, state.Description)
	require.Equal(t, int64(1), state.Height)
}

func TestSandbox_DepositWithdrawWithYield(t *testing.T) {
	s := newTestSandbox(t)
	ctx := context.Background()
	pub := &recordingPublisher{}
	s.SetPublisher(pub)

	faucet(t, s, alice, "5000000000")

	dep, err := s.Deposit(ctx, &types.DepositRequest{Staker: alice, Amount: "2000000000"})
	require.NoError(t, err)
	require.Equal(t, "2000000000", dep.Shares)
	require.Equal(t, "2000000000", dep.TotalShares)

	// credit the pool directly: yield
	faucet(t, s, s.PoolAddress().String(), "2000000000")

	conv, err := s.SharesToUnderlying(ctx, "1000000000")
	require.NoError(t, err)
	require.Equal(t, "2000000000", conv.Output)

	conv, err = s.UnderlyingToShares(ctx, "2000000000")
	require.NoError(t, err)
	require.Equal(t, "1000000000", conv.Output)

	wd, err := s.Withdraw(ctx, &types.WithdrawRequest{Staker: alice, Recipient: bob, Shares: "1000000000"})
	require.NoError(t, err)
	require.Equal(t, "2000000000", wd.Payout)
	require.Equal(t, "1000000000", wd.RemainingShares)
	require.Equal(t, "1000000000", wd.TotalShares)

	pos, err := s.UserPosition(ctx, alice)
	require.NoError(t, err)
	require.Equal(t, "1000000000", pos.Shares)
	require.Equal(t, "2000000000", pos.Underlying)
	require.Equal(t, "3000000000", pos.Balance)

	pos, err = s.UserPosition(ctx, bob)
	require.NoError(t, err)
	require.Equal(t, "0", pos.Shares)
	require.Equal(t, "2000000000", pos.Balance)

	seen := pub.types()
	require.Contains(t, seen, EventTypeFaucet)
	require.Contains(t, seen, strategytypes.EventTypeDeposit)
	require.Contains(t, seen, managertypes.EventTypeDepositIntoStrategy)
	require.Contains(t, seen, strategytypes.EventTypeWithdraw)
	require.Contains(t, seen, managertypes.EventTypeWithdrawFromStrategy)
	require.Contains(t, seen, strategytypes.EventTypeExchangeRate)
}

func TestSandbox_WithdrawDefaultsToStaker(t *testing.T) {
	s := newTestSandbox(t)
	ctx := context.Background()
	faucet(t, s, alice, "2000000000")

	_, err := s.Deposit(ctx, &types.DepositRequest{Staker: alice, Amount: "2000000000"})
	require.NoError(t, err)

	wd, err := s.Withdraw(ctx, &types.WithdrawRequest{Staker: alice, Shares: "2000000000"})
	require.NoError(t, err)
	require.Equal(t, alice, wd.Recipient)
	require.Equal(t, "2000000000", wd.Payout)
	require.Equal(t, "0", wd.TotalShares)
}

func TestSandbox_FailedWriteLeavesNoTrace(t *testing.T) {
	s := newTestSandbox(t)
	ctx := context.Background()
	pub := &recordingPublisher{}
	faucet(t, s, alice, "5000000000")
	s.SetPublisher(pub)

	before, err := s.PoolState(ctx)
	require.NoError(t, err)

	_, err = s.Deposit(ctx, &types.DepositRequest{Staker: alice, Amount: "5"})
	require.ErrorIs(t, err, strategytypes.ErrBelowMinimumShares)

	after, err := s.PoolState(ctx)
	require.NoError(t, err)
	require.Equal(t, before, after)
	require.Empty(t, pub.types())

	pos, err := s.UserPosition(ctx, alice)
	require.NoError(t, err)
	require.Equal(t, "5000000000", pos.Balance)
}

func TestSandbox_Pause(t *testing.T) {
	s := newTestSandbox(t)
	ctx := context.Background()
	faucet(t, s, alice, "5000000000")

	res, err := s.SetPaused(ctx, uint8(strategytypes.PausedDeposits), true)
	require.NoError(t, err)
	require.Equal(t, uint64(1), res.PausedStatus)

	_, err = s.Deposit(ctx, &types.DepositRequest{Staker: alice, Amount: "2000000000"})
	require.ErrorIs(t, err, strategytypes.ErrOperationPaused)

	res, err = s.SetPaused(ctx, uint8(strategytypes.PausedDeposits), false)
	require.NoError(t, err)
	require.Equal(t, uint64(0), res.PausedStatus)

	_, err = s.Deposit(ctx, &types.DepositRequest{Staker: alice, Amount: "2000000000"})
	require.NoError(t, err)

	_, err = s.SetPaused(ctx, 64, true)
	require.ErrorIs(t, err, pausertypes.ErrInvalidFlag)
}

func TestSandbox_TVLLimits(t *testing.T) {
	cfg := DefaultSandboxConfig()
	cfg.Params = strategytypes.NewParams(math.NewInt(2_000_000_000), math.ZeroInt())
	s, err := NewSandbox(cfg, log.NewNopLogger())
	require.NoError(t, err)
	ctx := context.Background()
	faucet(t, s, alice, "5000000000")

	_, err = s.Deposit(ctx, &types.DepositRequest{Staker: alice, Amount: "3000000000"})
	require.ErrorIs(t, err, strategytypes.ErrMaxPerDepositExceeded)

	state, err := s.PoolState(ctx)
	require.NoError(t, err)
	require.Equal(t, "2000000000", state.MaxPerDeposit)
}

func TestSandbox_BadInput(t *testing.T) {
	s := newTestSandbox(t)
	ctx := context.Background()

	_, err := s.Deposit(ctx, &types.DepositRequest{Staker: "nope", Amount: "1"})
	require.ErrorIs(t, err, types.ErrBadRequest)

	_, err = s.Deposit(ctx, &types.DepositRequest{Staker: alice, Amount: "-1"})
	require.ErrorIs(t, err, types.ErrBadRequest)

	_, err = s.Withdraw(ctx, &types.WithdrawRequest{Staker: alice, Recipient: "nope", Shares: "1"})
	require.ErrorIs(t, err, types.ErrBadRequest)

	_, err = s.SharesToUnderlying(ctx, "abc")
	require.ErrorIs(t, err, types.ErrBadRequest)

	_, err = s.Faucet(ctx, &types.FaucetRequest{Address: alice, Amount: "0"})
	require.ErrorIs(t, err, types.ErrBadRequest)

	_, err = s.Withdraw(ctx, &types.WithdrawRequest{Staker: alice, Shares: "1"})
	require.ErrorIs(t, err, managertypes.ErrInsufficientUserShares)
}
