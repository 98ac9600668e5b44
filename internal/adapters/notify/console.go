package notify

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/olekukonko/tablewriter"

	"github.com/alejandrodnm/optionsim/internal/domain"
)

// Console implements ports.Notifier.
type Console struct {
	out   io.Writer
	table bool
}

// NewConsole creates a notifier that writes to stdout.
func NewConsole(table bool) *Console {
	return &Console{out: os.Stdout, table: table}
}

// NewConsoleWriter creates a notifier for tests.
func NewConsoleWriter(w io.Writer, table bool) *Console {
	return &Console{out: w, table: table}
}

// NotifyPositions prints the open positions in the configured mode.
func (c *Console) NotifyPositions(_ context.Context, positions []domain.Position, account domain.Account) error {
	now := time.Now().Format("15:04:05")
	if len(positions) == 0 {
		fmt.Fprintf(c.out, "[%s] no open positions | balance %s%.2f\n",
			now, currencySign(account.Currency), account.Balance)
		return nil
	}

	if !c.table {
		c.printCompactPositions(positions, account)
		return nil
	}

	fmt.Fprintf(c.out, "\n[%s] %d open positions — balance %s%.2f %s\n",
		now, len(positions), currencySign(account.Currency), account.Balance, account.Currency)

	table := tablewriter.NewWriter(c.out)
	table.Header("#", "Asset", "Dir", "Stake", "Entry", "Current", "Left", "Status")

	for i, pos := range positions {
		marker := "losing"
		if pos.Winning {
			marker = "winning"
		}
		table.Append(
			fmt.Sprintf("%d", i+1),
			pos.Asset,
			string(pos.Direction),
			fmt.Sprintf("%.2f", pos.Stake),
			fmt.Sprintf("%.6f", pos.EntryPrice),
			fmt.Sprintf("%.6f", pos.CurrentPrice),
			fmt.Sprintf("%ds", int(pos.TimeLeft.Seconds())),
			marker,
		)
	}

	table.Render()
	return nil
}

// NotifySummary prints the trade history and the aggregate stats.
func (c *Console) NotifySummary(_ context.Context, history []domain.Option, stats domain.Statistics, account domain.Account) error {
	now := time.Now().Format("15:04:05")

	if !c.table {
		fmt.Fprintf(c.out, "[%s] %d trades W:%d L:%d wr:%.1f%% staked %.2f net %+.2f | balance %s%.2f\n",
			now, stats.TradeCount, stats.WonCount, stats.LostCount, stats.WinRate*100,
			stats.GrossStake, stats.NetProfit, currencySign(account.Currency), account.Balance)
		return nil
	}

	fmt.Fprintf(c.out, "\n[%s] trade history — %d trades, W:%d L:%d open:%d\n",
		now, stats.TradeCount, stats.WonCount, stats.LostCount, stats.OpenCount)

	if len(history) > 0 {
		table := tablewriter.NewWriter(c.out)
		table.Header("Asset", "Dir", "Stake", "Entry", "Exit", "Status", "P&L")

		for _, opt := range history {
			exit := "-"
			if opt.Status.Terminal() {
				exit = fmt.Sprintf("%.6f", opt.ExitPrice)
			}
			table.Append(
				truncate(opt.Asset, 12),
				string(opt.Direction),
				fmt.Sprintf("%.2f", opt.Stake),
				fmt.Sprintf("%.6f", opt.EntryPrice),
				exit,
				string(opt.Status),
				fmt.Sprintf("%+.2f", opt.Profit()),
			)
		}

		table.Render()
	}

	fmt.Fprintf(c.out, "  win rate %.1f%% | gross stake %.2f | net profit %+.2f | balance %s%.2f %s\n",
		stats.WinRate*100, stats.GrossStake, stats.NetProfit,
		currencySign(account.Currency), account.Balance, account.Currency)
	return nil
}

// printCompactPositions prints the essentials in one line.
func (c *Console) printCompactPositions(positions []domain.Position, account domain.Account) {
	now := time.Now().Format("15:04:05")

	var sb strings.Builder
	fmt.Fprintf(&sb, "[%s] %d open | balance %s%.2f",
		now, len(positions), currencySign(account.Currency), account.Balance)

	shown := 0
	for _, pos := range positions {
		if shown >= 4 {
			break
		}
		marker := "v"
		if pos.Winning {
			marker = "^"
		}
		fmt.Fprintf(&sb, " | %s %s %.0f %s %ds",
			truncate(pos.Asset, 10), pos.Direction, pos.Stake, marker,
			int(pos.TimeLeft.Seconds()))
		shown++
	}

	fmt.Fprintln(c.out, sb.String())
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	if max <= 3 {
		return s[:max]
	}
	return s[:max-3] + "..."
}

func currencySign(currency string) string {
	switch currency {
	case "USD", "CLP", "AUD", "CAD":
		return "$"
	case "EUR":
		return "€"
	case "GBP":
		return "£"
	default:
		return ""
	}
}
