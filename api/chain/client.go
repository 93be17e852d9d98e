// Package chain reads the strategy ledger from a running vaultd node over gRPC
package chain

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"time"

	"cosmossdk.io/math"
	"github.com/cosmos/cosmos-sdk/client/grpc/cmtservice"
	sdk "github.com/cosmos/cosmos-sdk/types"
	authtypes "github.com/cosmos/cosmos-sdk/x/auth/types"
	banktypes "github.com/cosmos/cosmos-sdk/x/bank/types"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/openalpha/share-vault/api/types"
	managertypes "github.com/openalpha/share-vault/x/manager/types"
	pausertypes "github.com/openalpha/share-vault/x/pauser/types"
	strategytypes "github.com/openalpha/share-vault/x/strategy/types"
)

// Config holds the chain reader configuration
type Config struct {
	GRPCAddr string
	Timeout  time.Duration
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		GRPCAddr: "localhost:9090",
		Timeout:  5 * time.Second,
	}
}

var _ types.StrategyReader = (*Reader)(nil)

// Reader serves the ledger views from raw store queries. Conversions are
// computed locally with the same exchange rate functions the keeper uses.
type Reader struct {
	config *Config
	conn   *grpc.ClientConn
	abci   cmtservice.ServiceClient
	bank   banktypes.QueryClient
}

// NewReader dials the node's gRPC endpoint
func NewReader(config *Config) (*Reader, error) {
	if config == nil {
		config = DefaultConfig()
	}
	conn, err := grpc.Dial(
		config.GRPCAddr,
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithDefaultCallOptions(grpc.MaxCallRecvMsgSize(1024*1024*10)), // 10MB
	)
	if err != nil {
		return nil, fmt.Errorf("failed to dial gRPC: %w", err)
	}
	return &Reader{
		config: config,
		conn:   conn,
		abci:   cmtservice.NewServiceClient(conn),
		bank:   banktypes.NewQueryClient(conn),
	}, nil
}

// Close closes the gRPC connection
func (r *Reader) Close() error {
	return r.conn.Close()
}

// snapshot is the pool state at one height
type snapshot struct {
	state   strategytypes.StrategyState
	params  strategytypes.Params
	balance math.Int
	paused  uint64
	height  int64
}

func (r *Reader) queryStore(ctx context.Context, storeName string, key []byte) ([]byte, int64, error) {
	ctx, cancel := context.WithTimeout(ctx, r.config.Timeout)
	defer cancel()

	res, err := r.abci.ABCIQuery(ctx, &cmtservice.ABCIQueryRequest{
		Path: fmt.Sprintf("/store/%s/key", storeName),
		Data: key,
	})
	if err != nil {
		return nil, 0, fmt.Errorf("query %s store: %w", storeName, err)
	}
	if res.Code != 0 {
		return nil, 0, fmt.Errorf("query %s store: code %d: %s", storeName, res.Code, res.Log)
	}
	return res.Value, res.Height, nil
}

func (r *Reader) balance(ctx context.Context, addr sdk.AccAddress, denom string) (math.Int, error) {
	ctx, cancel := context.WithTimeout(ctx, r.config.Timeout)
	defer cancel()

	res, err := r.bank.Balance(ctx, &banktypes.QueryBalanceRequest{Address: addr.String(), Denom: denom})
	if err != nil {
		return math.Int{}, fmt.Errorf("query balance: %w", err)
	}
	if res.Balance == nil {
		return math.ZeroInt(), nil
	}
	return res.Balance.Amount, nil
}

func (r *Reader) load(ctx context.Context) (*snapshot, error) {
	bz, height, err := r.queryStore(ctx, strategytypes.StoreKey, strategytypes.StateKey)
	if err != nil {
		return nil, err
	}
	if len(bz) == 0 {
		return nil, strategytypes.ErrNotInitialized
	}
	snap := &snapshot{height: height, params: strategytypes.DefaultParams()}
	if err := json.Unmarshal(bz, &snap.state); err != nil {
		return nil, fmt.Errorf("decode strategy state: %w", err)
	}
	if snap.state.TotalShares.IsNil() {
		snap.state.TotalShares = math.ZeroInt()
	}

	if bz, _, err = r.queryStore(ctx, strategytypes.StoreKey, strategytypes.ParamsKey); err != nil {
		return nil, err
	}
	if len(bz) > 0 {
		if err := json.Unmarshal(bz, &snap.params); err != nil {
			return nil, fmt.Errorf("decode strategy params: %w", err)
		}
	}

	if bz, _, err = r.queryStore(ctx, pausertypes.StoreKey, pausertypes.PausedStatusKey); err != nil {
		return nil, err
	}
	if len(bz) == 8 {
		snap.paused = binary.BigEndian.Uint64(bz)
	}

	pool := authtypes.NewModuleAddress(strategytypes.ModuleName)
	if snap.balance, err = r.balance(ctx, pool, snap.state.UnderlyingDenom); err != nil {
		return nil, err
	}
	return snap, nil
}

// PoolState returns the pool snapshot
func (r *Reader) PoolState(ctx context.Context) (*types.PoolState, error) {
	snap, err := r.load(ctx)
	if err != nil {
		return nil, err
	}
	rate, err := strategytypes.ExchangeRate(snap.balance, snap.state.TotalShares)
	if err != nil {
		return nil, err
	}
	return &types.PoolState{
		UnderlyingDenom: snap.state.UnderlyingDenom,
		Manager:         snap.state.Manager,
		TotalShares:     snap.state.TotalShares.String(),
		Balance:         snap.balance.String(),
		ExchangeRate:    rate.String(),
		MaxPerDeposit:   snap.params.MaxPerDeposit.String(),
		MaxTotal:        snap.params.MaxTotalDeposits.String(),
		Description:     strategytypes.Description,
		PausedStatus:    snap.paused,
		Height:          snap.height,
	}, nil
}

// SharesToUnderlying converts shares at the node's current rate
func (r *Reader) SharesToUnderlying(ctx context.Context, shares string) (*types.Conversion, error) {
	amount, err := types.ParseAmount("shares", shares)
	if err != nil {
		return nil, err
	}
	snap, err := r.load(ctx)
	if err != nil {
		return nil, err
	}
	out, err := strategytypes.SharesToUnderlying(snap.balance, snap.state.TotalShares, amount)
	if err != nil {
		return nil, err
	}
	return &types.Conversion{Input: amount.String(), Output: out.String()}, nil
}

// UnderlyingToShares converts an underlying amount at the node's current rate
func (r *Reader) UnderlyingToShares(ctx context.Context, amount string) (*types.Conversion, error) {
	value, err := types.ParseAmount("amount", amount)
	if err != nil {
		return nil, err
	}
	snap, err := r.load(ctx)
	if err != nil {
		return nil, err
	}
	out, err := strategytypes.UnderlyingToShares(snap.balance, snap.state.TotalShares, value)
	if err != nil {
		return nil, err
	}
	return &types.Conversion{Input: value.String(), Output: out.String()}, nil
}

// UserPosition returns a user's recorded shares and their value
func (r *Reader) UserPosition(ctx context.Context, user string) (*types.UserPosition, error) {
	addr, err := types.ParseAddress("user", user)
	if err != nil {
		return nil, err
	}
	snap, err := r.load(ctx)
	if err != nil {
		return nil, err
	}

	shares := math.ZeroInt()
	bz, _, err := r.queryStore(ctx, managertypes.StoreKey, managertypes.UserSharesKey(strategytypes.ModuleName, addr))
	if err != nil {
		return nil, err
	}
	if len(bz) > 0 {
		if err := json.Unmarshal(bz, &shares); err != nil {
			return nil, fmt.Errorf("decode user shares: %w", err)
		}
	}

	underlying, err := strategytypes.SharesToUnderlying(snap.balance, snap.state.TotalShares, shares)
	if err != nil {
		return nil, err
	}
	wallet, err := r.balance(ctx, addr, snap.state.UnderlyingDenom)
	if err != nil {
		return nil, err
	}
	return &types.UserPosition{
		User:       addr.String(),
		Shares:     shares.String(),
		Underlying: underlying.String(),
		Balance:    wallet.String(),
	}, nil
}
