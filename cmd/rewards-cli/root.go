package main

import (
	"context"
	"errors"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"coffee-rewards.backend/pkg/logger"
	"coffee-rewards.backend/pkg/rewardsapi"
)

type contextKey string

const cliContextKey contextKey = "cliContext"

const defaultAPIURL = "http://localhost:3001/api"

// cliContext holds state shared by all commands
type cliContext struct {
	Client *rewardsapi.Client
}

type rootOptions struct {
	apiURL  string
	token   string
	timeout time.Duration
	verbose bool
}

func newRootCommand() *cobra.Command {
	var opts rootOptions
	var cliCtx cliContext

	rootCmd := &cobra.Command{
		Use:           "rewards-cli",
		Short:         "Command line client for the coffee rewards backend",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			_ = godotenv.Load()

			if opts.verbose {
				logger.Init("development")
			}
			if opts.apiURL == "" {
				opts.apiURL = envOr("REWARDS_API_URL", defaultAPIURL)
			}
			if opts.token == "" {
				opts.token = os.Getenv("PRIVY_ACCESS_TOKEN")
			}

			cliCtx.Client = rewardsapi.New(rewardsapi.Config{
				BaseURL: opts.apiURL,
				Token:   opts.token,
				Timeout: opts.timeout,
			})
			logger.Debug(cmd.Context(), "CLI started")
			cmd.SetContext(context.WithValue(cmd.Context(), cliContextKey, &cliCtx))
			return nil
		},
	}

	rootCmd.PersistentFlags().StringVar(&opts.apiURL, "api-url", "",
		"API root (default $REWARDS_API_URL or "+defaultAPIURL+")")
	rootCmd.PersistentFlags().StringVar(&opts.token, "token", "",
		"Identity-provider access token (default $PRIVY_ACCESS_TOKEN)")
	rootCmd.PersistentFlags().DurationVar(&opts.timeout, "timeout", 90*time.Second,
		"HTTP timeout; minting waits for one confirmation")
	rootCmd.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false,
		"Log debug output to stderr")

	rootCmd.AddCommand(
		newInfoCommand(),
		newBalanceCommand(),
		newMeCommand(),
		newEarnCommand(),
		newRewardsCommand(),
		newMenuCommand(),
		newRedeemCommand(),
	)
	return rootCmd
}

func getCliContext(cmd *cobra.Command) *cliContext {
	return cmd.Context().Value(cliContextKey).(*cliContext)
}

var errNoWallet = errors.New("no embedded wallet found for this user on the rewards network")

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
