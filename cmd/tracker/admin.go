package main

import (
	"fmt"
	"strconv"

	"github.com/Spok95/po-tracker/internal/domain/catalog"
	"github.com/Spok95/po-tracker/internal/domain/customers"
	"github.com/Spok95/po-tracker/internal/domain/products"
	"github.com/Spok95/po-tracker/internal/domain/users"
	"github.com/spf13/cobra"
)

var productCustomer string

var (
	customerCmd = &cobra.Command{Use: "customer", Short: "Manage customers"}
	customerAdd = &cobra.Command{
		Use:   "add <code> <name>",
		Short: "Add a customer (returns the existing one if the code is taken)",
		Args:  cobra.ExactArgs(2),
		RunE:  runCustomerAdd,
	}

	warehouseCmd = &cobra.Command{Use: "warehouse", Short: "Manage warehouses"}
	warehouseAdd = &cobra.Command{
		Use:   "add <name>",
		Short: "Add a warehouse for receipts",
		Args:  cobra.ExactArgs(1),
		RunE:  runWarehouseAdd,
	}

	productCmd = &cobra.Command{Use: "product", Short: "Manage products"}
	productAdd = &cobra.Command{
		Use:   "add <code> <name>",
		Short: "Add a product referenced by imported orders",
		Args:  cobra.ExactArgs(2),
		RunE:  runProductAdd,
	}

	userCmd  = &cobra.Command{Use: "user", Short: "Manage operators"}
	userRole = &cobra.Command{
		Use:       "role <telegram-id> <admin|storekeeper>",
		Short:     "Change operator role",
		Args:      cobra.ExactArgs(2),
		ValidArgs: []string{string(users.RoleAdmin), string(users.RoleStorekeeper)},
		RunE:      runUserRole,
	}
)

func init() {
	productAdd.Flags().StringVar(&productCustomer, "customer", "", "customer code owning the product")

	customerCmd.AddCommand(customerAdd)
	warehouseCmd.AddCommand(warehouseAdd)
	productCmd.AddCommand(productAdd)
	userCmd.AddCommand(userRole)
	rootCmd.AddCommand(customerCmd, warehouseCmd, productCmd, userCmd)
}

func runCustomerAdd(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.Close()

	c, err := customers.NewRepo(a.pool).Create(cmd.Context(), args[0], args[1])
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "customer %d\t%s\t%s\n", c.ID, c.Code, c.Name)
	return nil
}

func runWarehouseAdd(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.Close()

	w, err := catalog.NewRepo(a.pool).CreateWarehouse(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "warehouse %d\t%s\n", w.ID, w.Name)
	return nil
}

func runProductAdd(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	var owner *int64
	if productCustomer != "" {
		c, err := customers.NewRepo(a.pool).GetByCode(ctx, productCustomer)
		if err != nil {
			return err
		}
		if c == nil {
			return fmt.Errorf("customer %q not found", productCustomer)
		}
		owner = &c.ID
	}

	p, err := products.NewRepo(a.pool).Create(ctx, args[0], args[1], owner)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "product %d\t%s\t%s\n", p.ID, p.Code, p.Name)
	return nil
}

func runUserRole(cmd *cobra.Command, args []string) error {
	tgID, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return fmt.Errorf("invalid telegram id %q", args[0])
	}
	role := users.Role(args[1])
	if role != users.RoleAdmin && role != users.RoleStorekeeper {
		return fmt.Errorf("unknown role %q", args[1])
	}

	a, err := newApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.Close()

	u, err := users.NewRepo(a.pool).SetRole(cmd.Context(), tgID, role)
	if err != nil {
		return err
	}
	if u == nil {
		return fmt.Errorf("user with telegram id %d not found, ask them to /start the bot", tgID)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "user %d\t%s\t%s\n", u.TelegramID, u.DisplayName(), u.Role)
	return nil
}
