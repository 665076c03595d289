package main

import (
	"fmt"
	"os"

	"github.com/Spok95/po-tracker/internal/domain/customers"
	"github.com/Spok95/po-tracker/internal/domain/materials"
	"github.com/Spok95/po-tracker/internal/domain/products"
	"github.com/Spok95/po-tracker/internal/domain/purchaseorders"
	"github.com/Spok95/po-tracker/internal/poimport"
	"github.com/spf13/cobra"
)

func runImport(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	f, err := os.Open(args[0])
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()

	pos, err := poimport.Parse(f)
	if err != nil {
		return fmt.Errorf("%s: %w", args[0], err)
	}

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	im := poimport.NewImporter(
		customers.NewRepo(a.pool), materials.NewRepo(a.pool),
		products.NewRepo(a.pool), purchaseorders.NewRepo(a.pool), a.log,
	)
	done, err := im.Import(ctx, pos, importBy)
	for _, d := range done {
		fmt.Fprintf(cmd.OutOrStdout(), "%s\toriginal=%d\toperation=%d\tlines=%d\n",
			d.Original.PONumber, d.Original.ID, d.Operation.ID, d.Lines)
	}
	return err
}
