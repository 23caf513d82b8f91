// cmd/bizctl/commands.go
package main

import (
	"bufio"
	"fmt"
	"strconv"
	"strings"
	"time"

	"biashara-bot/internal/assistant/catalog"
	"biashara-bot/internal/ledger"
	"biashara-bot/internal/models"
	"biashara-bot/internal/notify"

	"github.com/spf13/cobra"
)

func newSayCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:     "say <message...>",
		Short:   "Send one message and print the reply",
		Example: `  bizctl say sale 2 soap @50`,
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(cmd.Context(), opts)
			if err != nil {
				return err
			}
			defer s.close()

			res := s.dispatcher.Converse(cmd.Context(), models.Message{
				Channel: models.ChannelCLI,
				Text:    strings.Join(args, " "),
			})
			fmt.Fprintln(cmd.OutOrStdout(), res.Reply)
			return nil
		},
	}
}

func newChatCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "chat",
		Short: "Read messages from stdin, one per line, until EOF or \"exit\"",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := openSession(cmd.Context(), opts)
			if err != nil {
				return err
			}
			defer s.close()

			out := cmd.OutOrStdout()
			scanner := bufio.NewScanner(cmd.InOrStdin())
			for {
				fmt.Fprint(out, "> ")
				if !scanner.Scan() {
					fmt.Fprintln(out)
					return scanner.Err()
				}
				line := strings.TrimSpace(scanner.Text())
				if line == "exit" || line == "quit" {
					return nil
				}
				if line == "" {
					continue
				}
				res := s.dispatcher.Converse(cmd.Context(), models.Message{Channel: models.ChannelCLI, Text: line})
				fmt.Fprintln(out, res.Reply)
			}
		},
	}
}

func newRestockCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "restock <item> <quantity>",
		Short: "Add units to an item's stock, creating it if needed",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			qty, err := strconv.Atoi(args[1])
			if err != nil || qty <= 0 {
				return fmt.Errorf("quantity must be a positive whole number, got %q", args[1])
			}

			s, err := openSession(cmd.Context(), opts)
			if err != nil {
				return err
			}
			defer s.close()

			item := strings.ToLower(args[0])
			total, err := s.ledger.Restock(cmd.Context(), item, qty)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✅ Restocked %s: +%d items (now %d)\n", item, qty, total)
			return nil
		},
	}
}

func newDashboardCmd(opts *rootOptions) *cobra.Command {
	var date string
	cmd := &cobra.Command{
		Use:   "dashboard",
		Short: "Print the day's totals, low stock and open reminders",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := openSession(cmd.Context(), opts)
			if err != nil {
				return err
			}
			defer s.close()

			d, err := buildDashboard(cmd, s, date)
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), notify.RenderDashboard(d, s.cfg.Assistant.Currency))
			return nil
		},
	}
	cmd.Flags().StringVar(&date, "date", "", "day to report, YYYY-MM-DD (default: today)")
	return cmd
}

func newReportCmd(opts *rootOptions) *cobra.Command {
	var (
		date  string
		email bool
	)
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Render the dashboard and optionally email it to the owner",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := openSession(cmd.Context(), opts)
			if err != nil {
				return err
			}
			defer s.close()

			d, err := buildDashboard(cmd, s, date)
			if err != nil {
				return err
			}
			if !email {
				fmt.Fprint(cmd.OutOrStdout(), notify.RenderDashboard(d, s.cfg.Assistant.Currency))
				return nil
			}
			if s.notifiers.Reports == nil {
				return fmt.Errorf("notifications.report_email is not enabled")
			}
			if err := s.notifiers.Reports.SendDashboard(cmd.Context(), d); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "📧 Report for %s sent\n", d.Date)
			return nil
		},
	}
	cmd.Flags().StringVar(&date, "date", "", "day to report, YYYY-MM-DD (default: today)")
	cmd.Flags().BoolVar(&email, "email", false, "send through SES instead of printing")
	return cmd
}

func newCatalogCmd() *cobra.Command {
	catalogCmd := &cobra.Command{
		Use:   "catalog",
		Short: "Inspect intent catalogs",
	}
	catalogCmd.AddCommand(&cobra.Command{
		Use:   "check <file>",
		Short: "Validate a JSON or YAML intent catalog",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := catalog.Load(args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✅ %s: %d intents\n", args[0], c.Len())
			return nil
		},
	})
	return catalogCmd
}

func buildDashboard(cmd *cobra.Command, s *session, date string) (*models.Dashboard, error) {
	if date == "" {
		date = time.Now().Format(models.DateLayout)
	} else if _, err := time.Parse(models.DateLayout, date); err != nil {
		return nil, fmt.Errorf("date must be YYYY-MM-DD, got %q", date)
	}
	return ledger.BuildDashboard(cmd.Context(), s.ledger, date,
		s.cfg.Assistant.LowStockThreshold, s.cfg.Assistant.RecentSalesLimit)
}
