package cli

import (
	"encoding/json"
	"fmt"

	"cosmossdk.io/math"
	"github.com/spf13/cobra"

	"github.com/cosmos/cosmos-sdk/client"
	"github.com/cosmos/cosmos-sdk/client/flags"
	sdk "github.com/cosmos/cosmos-sdk/types"
	authtypes "github.com/cosmos/cosmos-sdk/x/auth/types"
	banktypes "github.com/cosmos/cosmos-sdk/x/bank/types"

	managertypes "github.com/openalpha/share-vault/x/manager/types"
	"github.com/openalpha/share-vault/x/strategy/types"
)

// GetQueryCmd returns the cli query commands for the strategy module
func GetQueryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:                        types.ModuleName,
		Short:                      "Querying commands for the strategy module",
		DisableFlagParsing:         true,
		SuggestionsMinimumDistance: 2,
		RunE:                       client.ValidateCmd,
	}

	cmd.AddCommand(
		CmdQueryState(),
		CmdQueryParams(),
		CmdQuerySharesToUnderlying(),
		CmdQueryUnderlyingToShares(),
		CmdQueryUser(),
		CmdQueryDescription(),
	)

	return cmd
}

// poolSnapshot is the state needed to run conversions client-side
type poolSnapshot struct {
	State   types.StrategyState
	Balance math.Int
}

// fetchPool reads the raw pool state and the custodian balance from the node
func fetchPool(cmd *cobra.Command, clientCtx client.Context) (*poolSnapshot, error) {
	bz, _, err := clientCtx.QueryStore(types.StateKey, types.StoreKey)
	if err != nil {
		return nil, err
	}
	if len(bz) == 0 {
		return nil, types.ErrNotInitialized
	}
	var state types.StrategyState
	if err := json.Unmarshal(bz, &state); err != nil {
		return nil, err
	}

	bankClient := banktypes.NewQueryClient(clientCtx)
	res, err := bankClient.Balance(cmd.Context(), &banktypes.QueryBalanceRequest{
		Address: authtypes.NewModuleAddress(types.ModuleName).String(),
		Denom:   state.UnderlyingDenom,
	})
	if err != nil {
		return nil, err
	}
	balance := math.ZeroInt()
	if res.Balance != nil {
		balance = res.Balance.Amount
	}
	return &poolSnapshot{State: state, Balance: balance}, nil
}

func printJSON(cmd *cobra.Command, v interface{}) error {
	output, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	cmd.Println(string(output))
	return nil
}

func parseAmount(arg string) (math.Int, error) {
	amount, ok := math.NewIntFromString(arg)
	if !ok || amount.IsNegative() {
		return math.Int{}, fmt.Errorf("invalid amount: %s", arg)
	}
	return amount, nil
}

// CmdQueryState returns the command to query the pool state
func CmdQueryState() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "state",
		Short: "Query total shares, balance and exchange rate",
		RunE: func(cmd *cobra.Command, args []string) error {
			clientCtx, err := client.GetClientQueryContext(cmd)
			if err != nil {
				return err
			}
			pool, err := fetchPool(cmd, clientCtx)
			if err != nil {
				return err
			}
			rate, err := types.ExchangeRate(pool.Balance, pool.State.TotalShares)
			if err != nil {
				return err
			}
			return printJSON(cmd, types.QueryStateResponse{
				State:        pool.State,
				Balance:      pool.Balance,
				ExchangeRate: rate,
			})
		},
	}

	flags.AddQueryFlagsToCmd(cmd)
	return cmd
}

// CmdQueryParams returns the command to query the TVL limits
func CmdQueryParams() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "params",
		Short: "Query the TVL limits",
		RunE: func(cmd *cobra.Command, args []string) error {
			clientCtx, err := client.GetClientQueryContext(cmd)
			if err != nil {
				return err
			}
			bz, _, err := clientCtx.QueryStore(types.ParamsKey, types.StoreKey)
			if err != nil {
				return err
			}
			params := types.DefaultParams()
			if len(bz) > 0 {
				if err := json.Unmarshal(bz, &params); err != nil {
					return err
				}
			}
			return printJSON(cmd, types.QueryParamsResponse{Params: params})
		},
	}

	flags.AddQueryFlagsToCmd(cmd)
	return cmd
}

// CmdQuerySharesToUnderlying returns the command to convert shares
func CmdQuerySharesToUnderlying() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "shares-to-underlying [shares]",
		Short: "Convert shares to underlying at the current rate",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			shares, err := parseAmount(args[0])
			if err != nil {
				return err
			}
			clientCtx, err := client.GetClientQueryContext(cmd)
			if err != nil {
				return err
			}
			pool, err := fetchPool(cmd, clientCtx)
			if err != nil {
				return err
			}
			amount, err := types.SharesToUnderlying(pool.Balance, pool.State.TotalShares, shares)
			if err != nil {
				return err
			}
			return printJSON(cmd, types.QuerySharesToUnderlyingResponse{Amount: amount})
		},
	}

	flags.AddQueryFlagsToCmd(cmd)
	return cmd
}

// CmdQueryUnderlyingToShares returns the command to convert an underlying amount
func CmdQueryUnderlyingToShares() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "underlying-to-shares [amount]",
		Short: "Convert an underlying amount to shares at the current rate",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			amount, err := parseAmount(args[0])
			if err != nil {
				return err
			}
			clientCtx, err := client.GetClientQueryContext(cmd)
			if err != nil {
				return err
			}
			pool, err := fetchPool(cmd, clientCtx)
			if err != nil {
				return err
			}
			shares, err := types.UnderlyingToShares(pool.Balance, pool.State.TotalShares, amount)
			if err != nil {
				return err
			}
			return printJSON(cmd, types.QueryUnderlyingToSharesResponse{Shares: shares})
		},
	}

	flags.AddQueryFlagsToCmd(cmd)
	return cmd
}

// CmdQueryUser returns the command to query a user's shares and their value
func CmdQueryUser() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user [address]",
		Short: "Query a user's shares and underlying value",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			user, err := sdk.AccAddressFromBech32(args[0])
			if err != nil {
				return err
			}
			clientCtx, err := client.GetClientQueryContext(cmd)
			if err != nil {
				return err
			}
			pool, err := fetchPool(cmd, clientCtx)
			if err != nil {
				return err
			}

			bz, _, err := clientCtx.QueryStore(managertypes.UserSharesKey(types.ModuleName, user), managertypes.StoreKey)
			if err != nil {
				return err
			}
			shares := math.ZeroInt()
			if len(bz) > 0 {
				if err := json.Unmarshal(bz, &shares); err != nil {
					return err
				}
			}

			underlying, err := types.SharesToUnderlying(pool.Balance, pool.State.TotalShares, shares)
			if err != nil {
				return err
			}
			return printJSON(cmd, types.QueryUserResponse{
				User:       user.String(),
				Shares:     shares,
				Underlying: underlying,
			})
		},
	}

	flags.AddQueryFlagsToCmd(cmd)
	return cmd
}

// CmdQueryDescription returns the command to print the pool description
func CmdQueryDescription() *cobra.Command {
	return &cobra.Command{
		Use:   "description",
		Short: "Print the pool description",
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.Println(types.Description)
			return nil
		},
	}
}
