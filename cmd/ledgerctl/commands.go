package main

import (
	"fmt"
	"io"
	"os"

	"github.com/arhyth/bankledger"
	"github.com/spf13/cobra"
)

func newRootCmd() *cobra.Command {
	var (
		cfgPath string
		a       *app
	)

	cmd := &cobra.Command{
		Use:          "ledgerctl",
		Short:        "Open accounts and move money on the customer ledger",
		SilenceUsage: true,
		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			var err error
			a, err = setup(cfgPath)
			return err
		},
		PersistentPostRunE: func(_ *cobra.Command, _ []string) error {
			if a == nil {
				return nil
			}
			return a.closer()
		},
	}
	cmd.PersistentFlags().StringVar(&cfgPath, "config", "config.yml", "path to configuration file")

	svc := func() bankledger.Service { return a.svc }
	cmd.AddCommand(
		newOpenCmd(svc),
		newChargeCmd("deposit", svc),
		newChargeCmd("withdraw", svc),
		newBalanceCmd(svc),
		newShowCmd(svc),
		newHistoryCmd(svc),
		newStatementCmd(svc),
	)
	return cmd
}

func newOpenCmd(svc func() bankledger.Service) *cobra.Command {
	var (
		ident   bankledger.Identity
		deposit string
	)
	c := &cobra.Command{
		Use:   "open",
		Short: "Open a new account",
		Args:  cobra.NoArgs,
		RunE: func(c *cobra.Command, _ []string) error {
			amt, err := parseAmount(deposit)
			if err != nil {
				return err
			}
			cust, err := svc().OpenAccount(bankledger.OpenAccountReq{
				Identity:       ident,
				InitialDeposit: amt,
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(c.OutOrStdout(), "Account created! UserID: %s, Account: %s\n", cust.UserID, cust.AccountNumber)
			return nil
		},
	}
	f := c.Flags()
	f.StringVar(&ident.UserID, "user-id", "", "user ID (generated when empty)")
	f.StringVar(&ident.Name, "name", "", "customer name")
	f.StringVar(&ident.Phone, "phone", "", "phone number")
	f.StringVar(&ident.DOB, "dob", "", "date of birth (YYYY-MM-DD)")
	f.StringVar(&ident.NationalID, "nid", "", "national ID number")
	f.StringVar(&ident.FatherName, "father", "", "father's name")
	f.StringVar(&ident.MotherName, "mother", "", "mother's name")
	f.StringVar(&ident.Address, "address", "", "address")
	f.StringVar(&deposit, "deposit", "", "initial deposit amount")
	_ = c.MarkFlagRequired("name")
	_ = c.MarkFlagRequired("deposit")
	return c
}

func newChargeCmd(kind string, svc func() bankledger.Service) *cobra.Command {
	return &cobra.Command{
		Use:   kind + " <userID> <amount>",
		Short: "Record a " + kind,
		Args:  cobra.ExactArgs(2),
		RunE: func(c *cobra.Command, args []string) error {
			amt, err := parseAmount(args[1])
			if err != nil {
				return err
			}
			req := bankledger.ChargeReq{UserID: args[0], Amount: amt}
			op := svc().Deposit
			if kind == "withdraw" {
				op = svc().Withdraw
			}
			bal, err := op(req)
			if err != nil {
				return err
			}
			if err = svc().Snapshot(bankledger.SnapshotReq{UserID: req.UserID}); err != nil {
				return err
			}
			fmt.Fprintf(c.OutOrStdout(), "Current Balance: %s\n", bal.StringFixed(2))
			return nil
		},
	}
}

func newBalanceCmd(svc func() bankledger.Service) *cobra.Command {
	return &cobra.Command{
		Use:   "balance <userID|name>",
		Short: "Show the current balance",
		Args:  cobra.ExactArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			cust, err := svc().Lookup(args[0])
			if err != nil {
				return err
			}
			bal, err := svc().Balance(bankledger.BalanceReq{UserID: cust.UserID})
			if err != nil {
				return err
			}
			fmt.Fprintf(c.OutOrStdout(), "Current Balance: %s\n", bal.StringFixed(2))
			return nil
		},
	}
}

func newShowCmd(svc func() bankledger.Service) *cobra.Command {
	return &cobra.Command{
		Use:   "show <userID|name>",
		Short: "Show customer information",
		Args:  cobra.ExactArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			cust, err := svc().Lookup(args[0])
			if err != nil {
				return err
			}
			bal, err := svc().Balance(bankledger.BalanceReq{UserID: cust.UserID})
			if err != nil {
				return err
			}
			printCustomer(c.OutOrStdout(), cust, bal.StringFixed(2))
			return nil
		},
	}
}

func newHistoryCmd(svc func() bankledger.Service) *cobra.Command {
	return &cobra.Command{
		Use:   "history <userID|name>",
		Short: "List the account's ledger entries",
		Args:  cobra.ExactArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			cust, err := svc().Lookup(args[0])
			if err != nil {
				return err
			}
			seq, err := svc().History(bankledger.HistoryReq{UserID: cust.UserID})
			if err != nil {
				return err
			}
			out := c.OutOrStdout()
			for e, err := range seq {
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "%s  %-8s  %12s  %12s\n",
					e.Timestamp.Local().Format("2006-01-02 15:04:05"),
					e.Kind,
					e.Amount.StringFixed(2),
					e.ResultingBalance.StringFixed(2),
				)
			}
			return nil
		},
	}
}

func newStatementCmd(svc func() bankledger.Service) *cobra.Command {
	var output string
	c := &cobra.Command{
		Use:   "statement <userID|name>",
		Short: "Write a PDF statement",
		Args:  cobra.ExactArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			cust, err := svc().Lookup(args[0])
			if err != nil {
				return err
			}
			if output == "" {
				output = cust.AccountNumber + ".pdf"
			}
			f, err := os.Create(output)
			if err != nil {
				return err
			}
			if err = svc().Statement(f, bankledger.StatementReq{UserID: cust.UserID}); err != nil {
				f.Close()
				os.Remove(output)
				return err
			}
			if err = f.Close(); err != nil {
				return err
			}
			fmt.Fprintf(c.OutOrStdout(), "Statement written to %s\n", output)
			return nil
		},
	}
	c.Flags().StringVarP(&output, "output", "o", "", "output file (default <account>.pdf)")
	return c
}

func printCustomer(w io.Writer, cust *bankledger.Customer, balance string) {
	rows := []struct{ label, value string }{
		{"UserID", cust.UserID},
		{"Name", cust.Name},
		{"Phone", cust.Phone},
		{"DOB", cust.DOB},
		{"NID", cust.NationalID},
		{"Father", cust.FatherName},
		{"Mother", cust.MotherName},
		{"Address", cust.Address},
		{"Account", cust.AccountNumber},
		{"Balance", balance},
	}
	for _, r := range rows {
		fmt.Fprintf(w, "%s: %s\n", r.label, r.value)
	}
}
