package main

import (
	"github.com/spf13/cobra"
)

var (
	configPath  string
	importBy    int64
	skipMigrate bool
	outputJSON  bool
	migrateDir  string

	rootCmd = &cobra.Command{
		Use:           "tracker",
		Short:         "Purchase order revisions and material receipt reconciliation",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	serveCmd = &cobra.Command{
		Use:   "serve",
		Short: "Run HTTP API, metrics and the Telegram bot",
		RunE:  runServe,
	}

	migrateCmd = &cobra.Command{
		Use:       "migrate [up|down|status]",
		Short:     "Apply embedded SQL migrations",
		Args:      cobra.MaximumNArgs(1),
		ValidArgs: []string{"up", "down", "status"},
		RunE:      runMigrate,
	}

	importCmd = &cobra.Command{
		Use:   "import <file.xlsx>",
		Short: "Import original purchase orders from an Excel file",
		Args:  cobra.ExactArgs(1),
		RunE:  runImport,
	}

	outstandingCmd = &cobra.Command{
		Use:   "outstanding <po-id>",
		Short: "Print planned, received and outstanding quantities for a purchase order",
		Args:  cobra.ExactArgs(1),
		RunE:  runOutstanding,
	}
)

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "config/example.yaml", "path to YAML config")

	serveCmd.Flags().BoolVar(&skipMigrate, "skip-migrate", false, "do not apply migrations on start")
	importCmd.Flags().Int64Var(&importBy, "by", 0, "user id recorded as the author of imported orders")
	outstandingCmd.Flags().BoolVar(&outputJSON, "json", false, "print JSON instead of a table")
	migrateCmd.Flags().StringVar(&migrateDir, "dir", ".", "directory inside the embedded migrations FS")

	rootCmd.AddCommand(serveCmd, migrateCmd, importCmd, outstandingCmd)
}
