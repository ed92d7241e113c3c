package cli

import (
	"encoding/json"
	"fmt"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"ledger/internal/core"
	"ledger/internal/view"
)

func (a *app) newAddCommand() *cobra.Command {
	var sub core.Submission
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Record an income or expense",
		Example: `  ledger add --type income --description Salary --amount 1000 --category Job
  ledger add -t expense -d Lunch -a 12,50 -c Food --date 2024-01-02`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			rt, err := openLedger(ctx, a.cfg, a.logger, true)
			if err != nil {
				return err
			}
			defer rt.svc.Close()

			tx, err := rt.svc.Create(ctx, sub)
			if err != nil {
				return err
			}
			row := view.ToRows([]core.Transaction{tx})[0]
			fmt.Fprintf(a.out, "Added #%d %s %s (%s) on %s\n", row.ID, row.Signed, row.Description, row.Category, row.Date)
			return a.printSummary(rt.svc.Snapshot(core.AllCategories).Summary)
		},
	}
	f := cmd.Flags()
	f.StringVarP(&sub.Kind, "type", "t", "", "income or expense")
	f.StringVarP(&sub.Description, "description", "d", "", "what the money was for")
	f.StringVarP(&sub.Amount, "amount", "a", "", "positive amount, dot or comma decimals")
	f.StringVarP(&sub.Category, "category", "c", "", "category label")
	f.StringVar(&sub.Date, "date", time.Now().Format(core.DateLayout), "date as YYYY-MM-DD")
	return cmd
}

func (a *app) newRemoveCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "rm <id>",
		Aliases: []string{"remove", "delete"},
		Short:   "Delete a transaction by id",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid id %q", args[0])
			}
			ctx := cmd.Context()
			rt, err := openLedger(ctx, a.cfg, a.logger, true)
			if err != nil {
				return err
			}
			defer rt.svc.Close()

			removed, err := rt.svc.Delete(ctx, id)
			if err != nil {
				return err
			}
			if removed {
				fmt.Fprintf(a.out, "Removed #%d\n", id)
			} else {
				fmt.Fprintf(a.out, "No transaction #%d\n", id)
			}
			return a.printSummary(rt.svc.Snapshot(core.AllCategories).Summary)
		},
	}
}

// readCommand opens the ledger read-only, projects it for --category and
// hands the snapshot to render, or prints the chosen part as JSON.
func (a *app) readCommand(use, short string, part func(view.Snapshot) any, render func(view.Snapshot) error) *cobra.Command {
	var (
		category string
		asJSON   bool
	)
	cmd := &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt, err := openLedger(cmd.Context(), a.cfg, a.logger, false)
			if err != nil {
				return err
			}
			defer rt.svc.Close()

			snap := rt.svc.Snapshot(category)
			if asJSON {
				enc := json.NewEncoder(a.out)
				enc.SetIndent("", "  ")
				return enc.Encode(part(snap))
			}
			return render(snap)
		},
	}
	cmd.Flags().StringVarP(&category, "category", "c", core.AllCategories, "only show this category")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON")
	return cmd
}

func (a *app) newListCommand() *cobra.Command {
	return a.readCommand("list", "List transactions",
		func(s view.Snapshot) any { return s.Rows },
		func(s view.Snapshot) error { return a.printRows(s.Rows) })
}

func (a *app) newSummaryCommand() *cobra.Command {
	return a.readCommand("summary", "Show total, income and expense",
		func(s view.Snapshot) any { return s.Summary },
		func(s view.Snapshot) error { return a.printSummary(s.Summary) })
}

func (a *app) newChartCommand() *cobra.Command {
	return a.readCommand("chart", "Show expenses by category",
		func(s view.Snapshot) any { return s.Chart },
		func(s view.Snapshot) error { return a.printChart(s.Chart) })
}

func (a *app) printRows(rows []view.DisplayRow) error {
	if len(rows) == 0 {
		fmt.Fprintln(a.out, "No transactions")
		return nil
	}
	w := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(w, "ID\tDATE\tTYPE\tDESCRIPTION\tCATEGORY\tAMOUNT\t")
	for _, r := range rows {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%s\t\n", r.ID, r.Date, r.Kind, r.Description, r.Category, r.Signed)
	}
	return w.Flush()
}

func (a *app) printSummary(s view.SummaryDisplay) error {
	w := tabwriter.NewWriter(a.out, 0, 4, 1, ' ', 0)
	fmt.Fprintf(w, "Total:\t%s\n", s.Total)
	fmt.Fprintf(w, "Income:\t%s\n", s.Income)
	fmt.Fprintf(w, "Expense:\t%s\n", s.Expense)
	return w.Flush()
}

func (a *app) printChart(ds view.ChartDataset) error {
	fmt.Fprintln(a.out, ds.Title)
	if ds.Empty() {
		fmt.Fprintln(a.out, "No expenses")
		return nil
	}
	w := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	values := ds.Values()
	for i, s := range ds.Slices {
		fmt.Fprintf(w, "%s\t%s\t%s\n", s.Label, values[i], s.Color)
	}
	return w.Flush()
}
