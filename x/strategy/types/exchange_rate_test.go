package types

import (
	"math/big"
	"testing"

	"cosmossdk.io/math"
	authtypes "github.com/cosmos/cosmos-sdk/x/auth/types"
	"github.com/stretchr/testify/require"
)

func pow2(n uint) math.Int {
	return math.NewIntFromBigInt(new(big.Int).Lsh(big.NewInt(1), n))
}

// TestDepositShares tests share minting against the pre-deposit balance
func TestDepositShares(t *testing.T) {
	tests := []struct {
		name    string
		balance int64
		total   int64
		amount  int64
		want    int64
	}{
		{"empty pool mints 1:1", 1_000_000_000, 0, 1_000_000_000, 1_000_000_000},
		{"flat rate", 2_000_000_000, 1_000_000_000, 1_000_000_000, 1_000_000_000},
		{"rate doubled by yield", 3_000_000_000, 1_000_000_000, 1_000_000_000, 500_000_000},
		{"rounds down", 10, 3, 3, 1},       // 3*3/7
		{"truncates fraction", 5, 4, 2, 2}, // 2*4/3
		{"tiny deposit rounds to zero", 2_000_000_001, 1_000_000_000, 1, 0},
		{"drained pool restarts 1:1", 5, 1_000_000_000, 5, 5},
		{"empty pool bootstrap of 2e9", 2_000_000_000, 0, 2_000_000_000, 2_000_000_000},
		{"deposit 1e9 into 4e9 backing 2e9 shares", 5_000_000_000, 2_000_000_000, 1_000_000_000, 500_000_000},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := DepositShares(math.NewInt(tc.balance), math.NewInt(tc.total), math.NewInt(tc.amount))
			require.NoError(t, err)
			require.Equal(t, math.NewInt(tc.want).String(), got.String())
		})
	}
}

func TestDepositShares_BalanceExcludesDeposit(t *testing.T) {
	_, err := DepositShares(math.NewInt(5), math.NewInt(1_000_000_000), math.NewInt(10))
	require.ErrorIs(t, err, ErrInvalidAmount)

	// an empty pool still needs the asset in hand
	_, err = DepositShares(math.ZeroInt(), math.ZeroInt(), math.NewInt(5_000_000_000))
	require.ErrorIs(t, err, ErrInvalidAmount)
}

// TestWithdrawPayout tests payout against the total before the burn
func TestWithdrawPayout(t *testing.T) {
	tests := []struct {
		name    string
		balance int64
		prior   int64
		shares  int64
		want    int64
	}{
		{"zero shares pays nothing", 1_000, 1_000_000_000, 0, 0},
		{"proportional", 3_000_000_000, 1_500_000_000, 500_000_000, 1_000_000_000},
		{"rounds down", 10, 3_000_000_000, 1_000_000_000, 3},
		{"full drain pays whole balance", 7, 1_000_000_000, 1_000_000_000, 7},
		{"full drain of 2.5e9 shares over 5e9", 5_000_000_000, 2_500_000_000, 2_500_000_000, 5_000_000_000},
		{"half of 1e9 lands on the floor", 1_000_000_000, 1_000_000_000, 500_000_000, 500_000_000},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := WithdrawPayout(math.NewInt(tc.balance), math.NewInt(tc.prior), math.NewInt(tc.shares))
			require.NoError(t, err)
			require.Equal(t, math.NewInt(tc.want).String(), got.String())
		})
	}
}

func TestConversions(t *testing.T) {
	t.Run("EmptyPoolIsOneToOne", func(t *testing.T) {
		out, err := SharesToUnderlying(math.ZeroInt(), math.ZeroInt(), math.NewInt(42))
		require.NoError(t, err)
		require.Equal(t, int64(42), out.Int64())

		out, err = UnderlyingToShares(math.ZeroInt(), math.ZeroInt(), math.NewInt(42))
		require.NoError(t, err)
		require.Equal(t, int64(42), out.Int64())
	})

	t.Run("ZeroBalanceIsOneToOne", func(t *testing.T) {
		out, err := UnderlyingToShares(math.ZeroInt(), math.NewInt(1_000_000_000), math.NewInt(42))
		require.NoError(t, err)
		require.Equal(t, int64(42), out.Int64())
	})

	t.Run("RoundTripNeverGains", func(t *testing.T) {
		balance := math.NewInt(3_000_000_007)
		total := math.NewInt(1_000_000_000)
		for _, amount := range []int64{1, 2, 3, 999, 1_000_003} {
			shares, err := UnderlyingToShares(balance, total, math.NewInt(amount))
			require.NoError(t, err)
			back, err := SharesToUnderlying(balance, total, shares)
			require.NoError(t, err)
			require.True(t, back.LTE(math.NewInt(amount)), "amount %d came back as %s", amount, back)
		}
	})
}

func TestExchangeRate(t *testing.T) {
	rate, err := ExchangeRate(math.ZeroInt(), math.ZeroInt())
	require.NoError(t, err)
	require.Equal(t, ExchangeRatePrecision.String(), rate.String())

	rate, err = ExchangeRate(math.NewInt(2_000_000_000), math.NewInt(1_000_000_000))
	require.NoError(t, err)
	require.Equal(t, ExchangeRatePrecision.MulRaw(2).String(), rate.String())
}

func TestMulDiv_Overflow(t *testing.T) {
	_, err := MulDiv(pow2(200), pow2(200), math.NewInt(1))
	require.ErrorIs(t, err, ErrArithmeticOverflow)

	_, err = DepositShares(pow2(201), pow2(200), pow2(100))
	require.ErrorIs(t, err, ErrArithmeticOverflow)

	out, err := MulDiv(pow2(120), pow2(120), pow2(120))
	require.NoError(t, err)
	require.Equal(t, pow2(120).String(), out.String())
}

func TestIsValidTotalShares(t *testing.T) {
	require.True(t, IsValidTotalShares(math.ZeroInt()))
	require.False(t, IsValidTotalShares(math.NewInt(1)))
	require.False(t, IsValidTotalShares(MinNonzeroTotalShares.SubRaw(1)))
	require.True(t, IsValidTotalShares(MinNonzeroTotalShares))
	require.True(t, IsValidTotalShares(MinNonzeroTotalShares.AddRaw(1)))
}

func TestParamsValidate(t *testing.T) {
	require.NoError(t, DefaultParams().Validate())
	require.NoError(t, NewParams(math.NewInt(10), math.NewInt(100)).Validate())
	require.NoError(t, NewParams(math.NewInt(10), math.ZeroInt()).Validate())

	require.ErrorIs(t, NewParams(math.NewInt(-1), math.ZeroInt()).Validate(), ErrInvalidParams)
	require.ErrorIs(t, NewParams(math.NewInt(101), math.NewInt(100)).Validate(), ErrInvalidParams)
	require.ErrorIs(t, Params{}.Validate(), ErrInvalidParams)
}

func TestGenesisValidate(t *testing.T) {
	manager := authtypes.NewModuleAddress("manager").String()

	gs := DefaultGenesis("stake", manager)
	require.NoError(t, gs.Validate())

	gs.State.TotalShares = math.NewInt(5)
	require.ErrorIs(t, gs.Validate(), ErrInvalidGenesis)

	gs = DefaultGenesis("", manager)
	require.ErrorIs(t, gs.Validate(), ErrInvalidGenesis)

	gs = DefaultGenesis("stake", "not-an-address")
	require.ErrorIs(t, gs.Validate(), ErrInvalidGenesis)

	gs = DefaultGenesis("stake", manager)
	gs.State.Version = StateVersion + 1
	require.ErrorIs(t, gs.Validate(), ErrInvalidGenesis)
}

func TestUnmarshalGenesis_FillsZero(t *testing.T) {
	manager := authtypes.NewModuleAddress("manager").String()
	gs, err := UnmarshalGenesis([]byte(`{"state":{"version":1,"underlying_denom":"stake","manager":"` + manager + `"}}`))
	require.NoError(t, err)
	require.True(t, gs.State.TotalShares.IsZero())
	require.True(t, gs.Params.MaxPerDeposit.IsZero())
	require.NoError(t, gs.Validate())

	_, err = UnmarshalGenesis([]byte(`{`))
	require.ErrorIs(t, err, ErrInvalidGenesis)
}

func TestPauseFlagString(t *testing.T) {
	require.Equal(t, "deposits", PausedDeposits.String())
	require.Equal(t, "withdrawals", PausedWithdrawals.String())
	require.Equal(t, "flag_7", PauseFlag(7).String())
}
