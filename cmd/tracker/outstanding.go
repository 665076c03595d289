package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"

	"github.com/Spok95/po-tracker/internal/domain/reconciliation"
	"github.com/Spok95/po-tracker/internal/infra/pgstore"
	"github.com/spf13/cobra"
)

func runOutstanding(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	poID, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil || poID <= 0 {
		return fmt.Errorf("invalid purchase order id %q", args[0])
	}

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	svc := reconciliation.NewService(pgstore.New(a.pool), a.log, nil)
	rec, err := svc.Reconcile(ctx, poID)
	if err != nil {
		return err
	}

	if outputJSON {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(rec)
	}
	return printReconciliation(cmd.OutOrStdout(), rec)
}

func printReconciliation(w io.Writer, rec *reconciliation.Reconciliation) error {
	fmt.Fprintf(w, "PO %s v%d (original %d), fully received: %t, cached flag: %t\n\n",
		rec.PurchaseOrder.PONumber, rec.PurchaseOrder.VersionNumber, rec.Original.ID,
		rec.FullyReceived, rec.CachedHint)

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "LINE\tCODE\tPLANNED\tRECEIVED\tOUTSTANDING\tOVER")
	for _, l := range rec.Lines {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%t\n", l.LineNo, l.MaterialCode, l.Planned, l.Received, l.Outstanding, l.OverReceived)
	}
	for _, u := range rec.Unplanned {
		fmt.Fprintf(tw, "-\t%s\t%s\t%s\t%s\t%t\n", u.MaterialCode, u.Planned, u.Received, u.Outstanding, u.OverReceived)
	}
	return tw.Flush()
}
