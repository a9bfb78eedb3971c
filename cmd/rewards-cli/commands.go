package main

import (
	"errors"
	"fmt"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"coffee-rewards.backend/pkg/utils"
)

func newInfoCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "info",
		Short: "Show token name, symbol and total supply",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client := getCliContext(cmd).Client
			info, err := client.TokenInfo(cmd.Context())
			if err != nil {
				return err
			}
			supply, err := client.TotalSupply(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Name:         %s\n", info.Name)
			fmt.Fprintf(out, "Symbol:       %s\n", info.Symbol)
			fmt.Fprintf(out, "Total supply: %s\n", supply)
			return nil
		},
	}
}

func newBalanceCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "balance [address]",
		Short: "Show the balance of an address, or of your embedded wallet",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := getCliContext(cmd).Client

			var address string
			if len(args) == 1 {
				address = args[0]
			} else {
				me, err := client.Me(cmd.Context())
				if err != nil {
					return err
				}
				if me.Wallet == nil {
					return errNoWallet
				}
				address = me.Wallet.Address
			}

			balance, err := client.Balance(cmd.Context(), address)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %s CFC\n", balance.UserAddress, balance.Balance)
			return nil
		},
	}
}

func newMeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "me",
		Short: "Show the authenticated identity and its embedded wallet",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			me, err := getCliContext(cmd).Client.Me(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Privy DID: %s\n", me.PrivyDID)
			if me.Wallet == nil {
				fmt.Fprintln(out, "Wallet:    none on the rewards network")
				return nil
			}
			fmt.Fprintf(out, "Wallet:    %s (chain %s)\n", me.Wallet.Address, me.Wallet.ChainID)
			return nil
		},
	}
}

func newEarnCommand() *cobra.Command {
	var itemID int
	var idempotencyKey string

	cmd := &cobra.Command{
		Use:   "earn [points]",
		Short: "Mint points to your embedded wallet, directly or for a menu item",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := getCliContext(cmd).Client

			var points string
			switch {
			case len(args) == 1 && itemID != 0:
				return errors.New("pass either points or --item, not both")
			case len(args) == 1:
				points = args[0]
			case itemID != 0:
				items, err := client.Menu(cmd.Context())
				if err != nil {
					return err
				}
				for _, item := range items {
					if item.ID == itemID {
						points = strconv.FormatUint(item.PointsToEarn, 10)
						fmt.Fprintf(cmd.OutOrStdout(), "Processing purchase for %s...\n", item.Name)
						break
					}
				}
				if points == "" {
					return fmt.Errorf("unknown menu item %d", itemID)
				}
			default:
				return errors.New("points or --item is required")
			}

			if idempotencyKey == "" {
				idempotencyKey = utils.GenerateUUIDv7().String()
			}
			res, err := client.EarnPoints(cmd.Context(), points, idempotencyKey)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s %s CFC sent to %s\n", res.Message, res.PointsEarned, res.RecipientAddress)
			fmt.Fprintf(out, "Transaction: %s\n", res.TransactionHash)
			if res.NewBalance != "" {
				fmt.Fprintf(out, "New balance: %s CFC\n", res.NewBalance)
			}
			if res.Replayed {
				fmt.Fprintln(out, "(replayed result, nothing was minted again)")
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&itemID, "item", 0, "Menu item id to earn points for")
	cmd.Flags().StringVar(&idempotencyKey, "idempotency-key", "", "Reuse to make a retried request mint at most once")
	return cmd
}

func newRewardsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "rewards",
		Short: "List the reward catalog",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rewards, err := getCliContext(cmd).Client.Rewards(cmd.Context())
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tNAME\tPOINTS")
			for _, r := range rewards {
				fmt.Fprintf(w, "%s\t%s\t%d\n", r.ID, r.Name, r.PointsRequired)
			}
			return w.Flush()
		},
	}
}

func newMenuCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "menu",
		Short: "List menu items and the points each earns",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			items, err := getCliContext(cmd).Client.Menu(cmd.Context())
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tNAME\tPRICE\tEARNS")
			for _, item := range items {
				fmt.Fprintf(w, "%d\t%s\t%s\t%d\n", item.ID, item.Name, item.Price, item.PointsToEarn)
			}
			return w.Flush()
		},
	}
}
