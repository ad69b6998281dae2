// Command easysteem computes derived Steem account and content metrics
// (vote value, account value, bandwidth, reputation, ordered votes and
// comments) and serves them as JSON.
//
// Usage:
//
//	easysteem --config easysteem.yaml props
//	easysteem account harpagon
//	easysteem votes harpagon my-post --order payout
//	easysteem serve
//	easysteem setup
//
// Optional environment variables:
//
//	STEEMCONNECT_TOKEN: access token used for broadcasting
//	BINANCE_API_KEY, BINANCE_API_SECRET, BYBIT_API_KEY, BYBIT_API_SECRET
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/vadiminshakov/easysteem/config"
	"github.com/vadiminshakov/easysteem/internal"
	"github.com/vadiminshakov/easysteem/internal/domain"
	"github.com/vadiminshakov/easysteem/internal/setup"
	"github.com/vadiminshakov/easysteem/internal/web"
)

var (
	flags    config.Flags
	decimals int
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, renderError(err))
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "easysteem",
		Short:         "Derived Steem account and content metrics",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	flags.Register(root.PersistentFlags())
	root.PersistentFlags().IntVar(&decimals, "decimals", 2, "decimals of formatted values")

	root.AddCommand(
		propsCmd(),
		accountCmd(),
		votesCmd(),
		commentsCmd(),
		permalinkCmd(),
		upvoteCmd(),
		loginCmd(),
		serveCmd(),
		setupCmd(),
	)
	return root
}

// withApp loads the config, wires the client and closes it after run.
func withApp(withMetrics bool, run func(cmd *cobra.Command, a *app, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		conf, err := flags.Load()
		if err != nil {
			return err
		}
		a, err := newApp(conf, withMetrics)
		if err != nil {
			return err
		}
		defer a.Close()
		return run(cmd, a, args)
	}
}

func propsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "props",
		Short: "Show the chain properties the metrics are computed against",
		Args:  cobra.NoArgs,
		RunE: withApp(false, func(cmd *cobra.Command, a *app, _ []string) error {
			props, err := a.client.ChainProperties(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderProps(props, time.Now()))
			return nil
		}),
	}
}

func accountCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "account <name>",
		Short: "Show voting power, vote value, account value, bandwidth and reputation",
		Args:  cobra.ExactArgs(1),
		RunE: withApp(false, func(cmd *cobra.Command, a *app, args []string) error {
			report, err := a.client.AccountReport(cmd.Context(), strings.TrimPrefix(args[0], "@"), internal.WithDecimals(decimals))
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderReport(report, decimals))
			return nil
		}),
	}
}

func votesCmd() *cobra.Command {
	var order string
	cmd := &cobra.Command{
		Use:   "votes <author> <permlink>",
		Short: "List the votes of a post ordered by payout, reputation or percent",
		Args:  cobra.ExactArgs(2),
		RunE: withApp(false, func(cmd *cobra.Command, a *app, args []string) error {
			option, err := domain.ParseOrderOption(order)
			if err != nil {
				return err
			}
			votes, err := a.client.Votes(cmd.Context(), args[0], args[1], option)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderVotes(votes))
			return nil
		}),
	}
	cmd.Flags().StringVarP(&order, "order", "o", string(domain.OrderPayout), "payout, reputation or percent")
	return cmd
}

func commentsCmd() *cobra.Command {
	var order string
	cmd := &cobra.Command{
		Use:   "comments <author> <permlink>",
		Short: "List the replies of a post ordered by date, payout or reputation",
		Args:  cobra.ExactArgs(2),
		RunE: withApp(false, func(cmd *cobra.Command, a *app, args []string) error {
			option, err := domain.ParseOrderOption(order)
			if err != nil {
				return err
			}
			comments, err := a.client.Comments(cmd.Context(), args[0], args[1], option)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderComments(comments))
			return nil
		}),
	}
	cmd.Flags().StringVarP(&order, "order", "o", string(domain.OrderNewest), "newest, oldest, payout or reputation")
	return cmd
}

func permalinkCmd() *cobra.Command {
	var parentAuthor, parentPermlink string
	cmd := &cobra.Command{
		Use:   "permalink [title]",
		Short: "Generate a permalink for a new post or a reply",
		Args:  cobra.MaximumNArgs(1),
		RunE: withApp(false, func(cmd *cobra.Command, a *app, args []string) error {
			var title string
			if len(args) == 1 {
				title = args[0]
			}
			link, err := a.client.CreatePermalink(cmd.Context(), title, parentAuthor, parentPermlink)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), link)
			return nil
		}),
	}
	cmd.Flags().StringVar(&parentAuthor, "parent-author", "", "author of the content replied to")
	cmd.Flags().StringVar(&parentPermlink, "parent-permlink", "", "permlink of the content replied to")
	return cmd
}

func upvoteCmd() *cobra.Command {
	var weight float64
	cmd := &cobra.Command{
		Use:   "upvote <author> <permlink>",
		Short: "Vote for a post through SteemConnect, negative weight to flag",
		Args:  cobra.ExactArgs(2),
		RunE: withApp(false, func(cmd *cobra.Command, a *app, args []string) error {
			w := decimal.NewFromFloat(weight)
			vote := a.client.Upvote
			if w.IsNegative() {
				vote = a.client.Downvote
			}
			result, err := vote(cmd.Context(), args[0], args[1], w)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderFields("Broadcast", []field{
				{"transaction", result.ID},
				{"block", fmt.Sprint(result.BlockNum)},
			}))
			return nil
		}),
	}
	cmd.Flags().Float64VarP(&weight, "weight", "w", 100, "vote weight in percent, -100..100")
	return cmd
}

func loginCmd() *cobra.Command {
	var callback, returned string
	var scope []string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Print the SteemConnect login URL or parse the URL it redirected to",
		Args:  cobra.NoArgs,
		RunE: withApp(false, func(cmd *cobra.Command, a *app, _ []string) error {
			if returned == "" {
				fmt.Fprintln(cmd.OutOrStdout(), a.steemConnect.LoginURL(scope, callback, ""))
				return nil
			}
			login, err := a.steemConnect.ParseReturnedURL(returned)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderFields("Logged in", []field{
				{"account", login.Account},
				{"expires in", login.ExpiresIn + "s"},
				{"token", "export " + config.TokenEnv + "=" + login.AccessToken},
			}))
			return nil
		}),
	}
	cmd.Flags().StringVar(&callback, "callback", "http://localhost:8080/callback", "redirect URL registered for the app")
	cmd.Flags().StringSliceVar(&scope, "scope", []string{"vote", "comment", "delete_comment", "comment_options", "custom_json"}, "requested scopes")
	cmd.Flags().StringVar(&returned, "returned-url", "", "URL SteemConnect redirected to")
	return cmd
}

func serveCmd() *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the metrics as a JSON API and refresh chain properties in the background",
		Args:  cobra.NoArgs,
		RunE: withApp(true, func(cmd *cobra.Command, a *app, _ []string) error {
			if addr == "" {
				addr = a.conf.ListenAddr
			}
			server := web.NewServer(addr, a.client, a.store, a.metrics, a.logger.Named("web"))

			g, ctx := errgroup.WithContext(cmd.Context())
			g.Go(func() error {
				return server.Start(ctx)
			})
			g.Go(func() error {
				err := a.client.RunRefresher(ctx, a.conf.RefreshInterval)
				if ctx.Err() != nil {
					return nil
				}
				return err
			})

			a.logger.Info("easysteem serving", zap.String("addr", addr), zap.String("node", a.conf.NodeURL))
			return g.Wait()
		}),
	}
	cmd.Flags().StringVar(&addr, "listen", "", "listen address, overrides listen_addr")
	return cmd
}

func setupCmd() *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "setup",
		Short: "Write a config file with an interactive wizard",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			return setup.RunTUI(out)
		},
	}
	cmd.Flags().StringVarP(&out, "out", "O", setup.DefaultFilename, "config file to write")
	return cmd
}
