package cli

import (
	"encoding/json"
	"fmt"

	"cosmossdk.io/math"
	"github.com/spf13/cobra"

	"github.com/cosmos/cosmos-sdk/client"
	"github.com/cosmos/cosmos-sdk/client/flags"
	"github.com/cosmos/cosmos-sdk/client/tx"
	sdk "github.com/cosmos/cosmos-sdk/types"

	"github.com/openalpha/share-vault/x/manager/types"
	strategytypes "github.com/openalpha/share-vault/x/strategy/types"
)

const flagRecipient = "recipient"

// GetTxCmd returns the transaction commands for the manager module
func GetTxCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:                        types.ModuleName,
		Short:                      "Manager module transaction commands",
		DisableFlagParsing:         true,
		SuggestionsMinimumDistance: 2,
		RunE:                       client.ValidateCmd,
	}

	cmd.AddCommand(
		CmdDeposit(),
		CmdWithdraw(),
	)

	return cmd
}

// GetQueryCmd returns the cli query commands for the manager module
func GetQueryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:                        types.ModuleName,
		Short:                      "Querying commands for the manager module",
		DisableFlagParsing:         true,
		SuggestionsMinimumDistance: 2,
		RunE:                       client.ValidateCmd,
	}

	cmd.AddCommand(
		CmdQueryShares(),
	)

	return cmd
}

// CmdDeposit returns the command to deposit into the strategy
func CmdDeposit() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "deposit [amount]",
		Short: "Deposit coins into the strategy, e.g. 2000000000stake",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			clientCtx, err := client.GetClientTxContext(cmd)
			if err != nil {
				return err
			}

			coin, err := sdk.ParseCoinNormalized(args[0])
			if err != nil {
				return fmt.Errorf("invalid amount: %w", err)
			}

			msg := &types.MsgDepositIntoStrategy{
				Staker: clientCtx.GetFromAddress().String(),
				Amount: coin,
			}
			if err := msg.ValidateBasic(); err != nil {
				return err
			}
			return tx.GenerateOrBroadcastTxCLI(clientCtx, cmd.Flags(), msg)
		},
	}

	flags.AddTxFlagsToCmd(cmd)
	return cmd
}

// CmdWithdraw returns the command to redeem shares
func CmdWithdraw() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "withdraw [shares]",
		Short: "Redeem shares; pays the sender unless --recipient is set",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			clientCtx, err := client.GetClientTxContext(cmd)
			if err != nil {
				return err
			}

			shares, ok := math.NewIntFromString(args[0])
			if !ok {
				return fmt.Errorf("invalid shares: %s", args[0])
			}

			recipient, _ := cmd.Flags().GetString(flagRecipient)
			if recipient == "" {
				recipient = clientCtx.GetFromAddress().String()
			}

			msg := &types.MsgWithdrawFromStrategy{
				Staker:    clientCtx.GetFromAddress().String(),
				Recipient: recipient,
				Shares:    shares,
			}
			if err := msg.ValidateBasic(); err != nil {
				return err
			}
			return tx.GenerateOrBroadcastTxCLI(clientCtx, cmd.Flags(), msg)
		},
	}

	cmd.Flags().String(flagRecipient, "", "Address that receives the underlying")
	flags.AddTxFlagsToCmd(cmd)
	return cmd
}

// CmdQueryShares returns the command to query a user's shares
func CmdQueryShares() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "shares [address]",
		Short: "Query a user's shares in the strategy",
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

			bz, _, err := clientCtx.QueryStore(types.UserSharesKey(strategytypes.ModuleName, user), types.StoreKey)
			if err != nil {
				return err
			}
			shares := math.ZeroInt()
			if len(bz) > 0 {
				if err := json.Unmarshal(bz, &shares); err != nil {
					return err
				}
			}

			output, _ := json.MarshalIndent(types.UserShares{
				Strategy: strategytypes.ModuleName,
				User:     user.String(),
				Shares:   shares,
			}, "", "  ")
			cmd.Println(string(output))
			return nil
		},
	}

	flags.AddQueryFlagsToCmd(cmd)
	return cmd
}
