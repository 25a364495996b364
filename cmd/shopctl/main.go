package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/rotteck/merchshop/internal/cart"
	"github.com/rotteck/merchshop/internal/client"
	"github.com/rotteck/merchshop/internal/order"
	"github.com/rotteck/merchshop/internal/storage"
)

var (
	serverURL  string
	statePath  string
	adminToken string
)

func main() {
	zerolog.SetGlobalLevel(zerolog.WarnLevel)
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	root := &cobra.Command{
		Use:          "shopctl",
		Short:        "Customer and admin CLI for the school merch shop",
		SilenceUsage: true,
	}

	defaultServer := os.Getenv("MERCHSHOP_SERVER")
	if defaultServer == "" {
		defaultServer = "http://localhost:8080"
	}
	root.PersistentFlags().StringVar(&serverURL, "server", defaultServer, "shop API base URL")
	root.PersistentFlags().StringVar(&statePath, "state", defaultStatePath(), "path of the local state file")

	root.AddCommand(
		addCmd(),
		cartCmd(),
		qtyCmd(),
		nameCmd(),
		emailCmd(),
		clearCmd(),
		checkoutCmd(),
		historyCmd(),
		statusCmd(),
		adminCmd(),
	)

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func defaultStatePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "merchshop-state.db"
	}
	return filepath.Join(home, ".merchshop", "state.db")
}

func withStore(fn func(store *cart.Store, history *cart.History) error) error {
	if err := os.MkdirAll(filepath.Dir(statePath), 0o755); err != nil {
		return fmt.Errorf("could not create state directory: %w", err)
	}
	db, err := storage.Open(statePath)
	if err != nil {
		return err
	}
	defer db.Close()

	return fn(cart.NewStore(db), cart.NewHistory(db))
}

// signalContext is cancelled on interrupt so in-flight lookups abort and
// their results are discarded.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

func addCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "add <color> <size>",
		Short: "Add one item to the cart",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(func(store *cart.Store, _ *cart.History) error {
				store.AddItem(args[0], args[1])
				fmt.Printf("Cart now holds %d item(s)\n", store.Count())
				return nil
			})
		},
	}
}

func cartCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "cart",
		Short: "Show the cart contents",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(func(store *cart.Store, _ *cart.History) error {
				items := store.Items()
				if len(items) == 0 {
					fmt.Println("Cart is empty")
					return nil
				}
				for _, item := range items {
					line := fmt.Sprintf("%s  %dx %s %s", item.ID, item.Quantity, item.Color, item.Size)
					if item.StudentName != "" {
						line += " (" + item.StudentName + ")"
					}
					fmt.Println(line)
				}
				fmt.Printf("Total: %d item(s), email: %s\n", store.Count(), store.CustomerEmail())
				return nil
			})
		},
	}
}

func qtyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "qty <item-id> <quantity>",
		Short: "Set the quantity of a cart line (0 removes it)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			quantity, err := strconv.ParseFloat(args[1], 64)
			if err != nil {
				return fmt.Errorf("invalid quantity %q", args[1])
			}
			return withStore(func(store *cart.Store, _ *cart.History) error {
				store.UpdateQuantity(args[0], int(quantity))
				fmt.Printf("Cart now holds %d item(s)\n", store.Count())
				return nil
			})
		},
	}
}

func nameCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "name <item-id> <student-name>",
		Short: "Attach a student name to a cart line",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(func(store *cart.Store, _ *cart.History) error {
				store.UpdateStudentName(args[0], args[1])
				return nil
			})
		},
	}
}

func emailCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "email <address>",
		Short: "Set the customer email used at checkout",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(func(store *cart.Store, _ *cart.History) error {
				store.UpdateCustomerEmail(args[0])
				return nil
			})
		},
	}
}

func clearCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Empty the cart",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(func(store *cart.Store, _ *cart.History) error {
				store.Clear()
				fmt.Println("Cart cleared")
				return nil
			})
		},
	}
}

func checkoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "checkout",
		Short: "Submit the cart as an order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(func(store *cart.Store, history *cart.History) error {
				items := make([]order.Item, 0, len(store.Items()))
				for _, line := range store.Items() {
					items = append(items, order.Item{
						Color:    line.Color,
						Size:     line.Size,
						Quantity: line.Quantity,
					})
				}

				ctx, cancel := signalContext()
				defer cancel()

				result, err := client.New(serverURL).SubmitOrder(ctx, store.CustomerEmail(), items)
				if err != nil {
					return err
				}

				history.Add(cart.HistoryEntry{
					OrderCode: result.OrderCode,
					Email:     store.CustomerEmail(),
					CreatedAt: result.CreatedAt,
				})
				store.Clear()

				fmt.Printf("Order placed. Code: %s (%s)\n", result.OrderCode, cart.FormatTimestamp(result.CreatedAt))
				return nil
			})
		},
	}
}

func historyCmd() *cobra.Command {
	var clearHistory bool
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show the recent orders placed from this machine",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(func(_ *cart.Store, history *cart.History) error {
				if clearHistory {
					history.Clear()
					fmt.Println("Order history cleared")
					return nil
				}
				entries := history.Load()
				if len(entries) == 0 {
					fmt.Println("No orders yet")
					return nil
				}
				for _, entry := range entries {
					fmt.Printf("%s  %s  %s\n", entry.OrderCode, entry.Email, cart.FormatTimestamp(entry.CreatedAt))
				}
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&clearHistory, "clear", false, "forget all remembered orders")
	return cmd
}

func statusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Look up the status of the remembered orders",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(func(_ *cart.Store, history *cart.History) error {
				entries := history.Load()
				lookups := make([]order.StatusEntry, 0, len(entries))
				for _, entry := range entries {
					lookups = append(lookups, order.StatusEntry{
						OrderCode: entry.OrderCode,
						Email:     entry.Email,
					})
				}

				ctx, cancel := signalContext()
				defer cancel()

				results := client.New(serverURL).FetchStatuses(ctx, lookups)
				if len(results) == 0 {
					fmt.Println("No status data yet")
					return nil
				}
				for _, result := range results {
					line := fmt.Sprintf("%s  %s", result.OrderCode, result.Status)
					if result.CreatedAt != nil {
						line += "  " + cart.FormatTimestamp(*result.CreatedAt)
					}
					fmt.Println(line)
				}
				return nil
			})
		},
	}
}

func adminCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "admin",
		Short: "Password-gated dashboard operations",
	}
	cmd.PersistentFlags().StringVar(&adminToken, "token", os.Getenv("MERCHSHOP_ADMIN_TOKEN"), "admin portal password")

	var productionCost string
	summary := &cobra.Command{
		Use:   "summary",
		Short: "Show order totals, variants and financials",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := signalContext()
			defer cancel()

			result, err := client.New(serverURL).AdminSummary(ctx, adminToken, productionCost)
			if err != nil {
				return err
			}

			fmt.Printf("Orders: %d\n", result.Summary.TotalOrders)
			for status, count := range result.Summary.StatusCounts {
				fmt.Printf("  %s: %d\n", status, count)
			}
			fmt.Println("Items by variant:")
			for variant, count := range result.Summary.ItemsByVariant {
				fmt.Printf("  %s: %d\n", variant, count)
			}
			fmt.Printf("Revenue: %s EUR (paid %s / unpaid %s)\n",
				result.Financials.TotalRevenue, result.Financials.PaidRevenue, result.Financials.UnpaidRevenue)
			fmt.Printf("Profit:  %s EUR (margin %s per item)\n",
				result.Financials.TotalProfit, result.Financials.MarginPerItem)
			for _, day := range result.OrdersPerDay {
				fmt.Printf("  %s  total %d, paid %d, unpaid %d\n", day.Date, day.Total, day.Paid, day.Unpaid)
			}
			return nil
		},
	}
	summary.Flags().StringVar(&productionCost, "production-cost", "", "unit production cost for the profit computation")

	pay := &cobra.Command{
		Use:   "pay <order-code>",
		Short: "Mark an order as paid",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := signalContext()
			defer cancel()

			result, err := client.New(serverURL).MarkOrderPaid(ctx, adminToken, args[0])
			if err != nil {
				return err
			}
			fmt.Printf("Order %s is now %s (%s)\n",
				result.Order.OrderHash, result.Order.Status, cart.FormatTimestamp(result.UpdatedAt))
			return nil
		},
	}

	cmd.AddCommand(summary, pay)
	return cmd
}
