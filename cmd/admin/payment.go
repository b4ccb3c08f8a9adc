package main

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show whether payment is required",
	RunE: func(cmd *cobra.Command, _ []string) error {
		gate, err := openGate()
		if err != nil {
			return err
		}
		settings, err := gate.Settings()
		if err != nil {
			return err
		}
		paid, err := gate.ListPaid()
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "payment_required=%t\npaid_users=%d\n", settings.Enabled, len(paid))
		return nil
	},
}

func toggleCmd(use string, enabled bool) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: fmt.Sprintf("%s the payment requirement", use),
		RunE: func(cmd *cobra.Command, _ []string) error {
			gate, err := openGate()
			if err != nil {
				return err
			}
			if err := confirm(fmt.Sprintf("%s the payment requirement for every new session?", use)); err != nil {
				return quietAbort(cmd, err)
			}
			if err := gate.SetRequired(enabled); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "payment requirement %sd\n", use)
			return nil
		},
	}
}

func parseUserID(arg string) (int64, error) {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid user id %q", arg)
	}
	return id, nil
}

var markPaidCmd = &cobra.Command{
	Use:   "mark-paid <user-id>",
	Short: "Allow a user to create CVs while payment is required",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseUserID(args[0])
		if err != nil {
			return err
		}
		gate, err := openGate()
		if err != nil {
			return err
		}
		changed, err := gate.MarkPaid(id)
		if err != nil {
			return err
		}
		if !changed {
			fmt.Fprintf(cmd.OutOrStdout(), "already paid: %d\n", id)
			return nil
		}
		fmt.Fprintf(cmd.OutOrStdout(), "marked paid: %d\n", id)
		return nil
	},
}

var markUnpaidCmd = &cobra.Command{
	Use:   "mark-unpaid <user-id>",
	Short: "Remove a user's paid status",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseUserID(args[0])
		if err != nil {
			return err
		}
		gate, err := openGate()
		if err != nil {
			return err
		}
		if err := confirm(fmt.Sprintf("Remove paid status of %d?", id)); err != nil {
			return quietAbort(cmd, err)
		}
		changed, err := gate.MarkUnpaid(id)
		if err != nil {
			return err
		}
		if !changed {
			fmt.Fprintf(cmd.OutOrStdout(), "not marked paid: %d\n", id)
			return nil
		}
		fmt.Fprintf(cmd.OutOrStdout(), "marked unpaid: %d\n", id)
		return nil
	},
}

var listPaidCmd = &cobra.Command{
	Use:   "list-paid",
	Short: "List paid user ids",
	RunE: func(cmd *cobra.Command, _ []string) error {
		gate, err := openGate()
		if err != nil {
			return err
		}
		users, err := gate.ListPaid()
		if err != nil {
			return err
		}
		if len(users) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "(no paid users)")
			return nil
		}
		for _, u := range users {
			fmt.Fprintln(cmd.OutOrStdout(), u)
		}
		return nil
	},
}

func quietAbort(cmd *cobra.Command, err error) error {
	if errors.Is(err, errAborted) {
		fmt.Fprintln(cmd.OutOrStdout(), "nothing changed")
		return nil
	}
	return err
}

func init() {
	rootCmd.AddCommand(statusCmd, toggleCmd("enable", true), toggleCmd("disable", false), markPaidCmd, markUnpaidCmd, listPaidCmd)
}
