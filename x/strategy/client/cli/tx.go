package cli

import (
	"github.com/spf13/cobra"

	"github.com/cosmos/cosmos-sdk/client"
	"github.com/cosmos/cosmos-sdk/client/flags"
	"github.com/cosmos/cosmos-sdk/client/tx"

	"github.com/openalpha/share-vault/x/strategy/types"
)

// GetTxCmd returns the transaction commands for the strategy module
func GetTxCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:                        types.ModuleName,
		Short:                      "Strategy module transaction commands",
		DisableFlagParsing:         true,
		SuggestionsMinimumDistance: 2,
		RunE:                       client.ValidateCmd,
	}

	cmd.AddCommand(
		CmdSetTVLLimits(),
	)

	return cmd
}

// CmdSetTVLLimits returns the command to update the deposit limits
func CmdSetTVLLimits() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "set-tvl-limits [max-per-deposit] [max-total-deposits]",
		Short: "Set the deposit limits (0 = unlimited)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			clientCtx, err := client.GetClientTxContext(cmd)
			if err != nil {
				return err
			}

			maxPerDeposit, err := parseAmount(args[0])
			if err != nil {
				return err
			}
			maxTotalDeposits, err := parseAmount(args[1])
			if err != nil {
				return err
			}

			msg := types.NewMsgSetTVLLimits(clientCtx.GetFromAddress().String(), maxPerDeposit, maxTotalDeposits)
			if err := msg.ValidateBasic(); err != nil {
				return err
			}
			return tx.GenerateOrBroadcastTxCLI(clientCtx, cmd.Flags(), msg)
		},
	}

	flags.AddTxFlagsToCmd(cmd)
	return cmd
}
