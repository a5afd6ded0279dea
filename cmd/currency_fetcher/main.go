// currency_fetcher writes the ExchangeRates OData documents to stdout
// without running the HTTP server.
package main

import (
	"context"
	"fmt"
	"github.com/andesco/odata-valet/deploy/config"
	fetcherApp "github.com/andesco/odata-valet/internal/currency_fetcher/app"
	"github.com/spf13/cobra"
	"net/url"
	"os"
	"os/signal"
	"strconv"
	"syscall"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var app *fetcherApp.FetcherApp

var rootCmd = &cobra.Command{
	Use:           "currency_fetcher",
	Short:         "Fetch Bank of Canada exchange rates as OData XML",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		app = fetcherApp.NewFetcherApp(cfg)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().String("currencies", "", "comma separated currency codes, e.g. USD,EUR")
	rootCmd.PersistentFlags().String("base-url", "", "public base URL written into the documents (default: PUBLIC_BASE_URL)")

	feedCmd.Flags().Int("years", 0, "years back from today")
	feedCmd.Flags().Int("months", 0, "months back from today")
	feedCmd.Flags().Int("weeks", 0, "weeks back from today")
	feedCmd.Flags().String("start", "", "range start, YYYY-MM-DD")
	feedCmd.Flags().String("end", "", "range end, YYYY-MM-DD")
	feedCmd.Flags().Bool("padding", true, "start the range 7 days early")

	rootCmd.AddCommand(feedCmd)
	rootCmd.AddCommand(metadataCmd)
}

var feedCmd = &cobra.Command{
	Use:   "feed",
	Short: "Write the ExchangeRates Atom feed",
	Example: `  currency_fetcher feed --currencies USD,EUR --months 6
  currency_fetcher feed --currencies USD --start 2025-01-01 --end 2025-12-31 --padding=false`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		baseURL, _ := cmd.Flags().GetString("base-url")

		return app.Fetcher(cmd.OutOrStdout(), baseURL).Feed(ctx, feedParams(cmd))
	},
}

var metadataCmd = &cobra.Command{
	Use:   "metadata",
	Short: "Write the $metadata document",
	RunE: func(cmd *cobra.Command, args []string) error {
		currencies, _ := cmd.Flags().GetString("currencies")
		baseURL, _ := cmd.Flags().GetString("base-url")

		return app.Fetcher(cmd.OutOrStdout(), baseURL).Metadata(currencies)
	},
}

// feedParams maps the flags that were set onto ExchangeRates query parameters.
func feedParams(cmd *cobra.Command) url.Values {
	params := url.Values{}
	flags := cmd.Flags()

	if v, _ := flags.GetString("currencies"); v != "" {
		params.Set("currencies", v)
	}
	for _, name := range []string{"years", "months", "weeks"} {
		if flags.Changed(name) {
			n, _ := flags.GetInt(name)
			params.Set(name, strconv.Itoa(n))
		}
	}
	for _, name := range []string{"start", "end"} {
		if v, _ := flags.GetString(name); v != "" {
			params.Set(name, v)
		}
	}
	if pad, _ := flags.GetBool("padding"); !pad {
		params.Set("padding", "false")
	}

	return params
}
