package main

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/nkiryanov/creditledger/internal/repository/postgres"
	"github.com/nkiryanov/creditledger/internal/service/account"
)

var errInconsistent = errors.New("balance does not match credit log")

func purgeAccountCmd(opts *options) *cobra.Command {
	var email string

	cmd := &cobra.Command{
		Use:   "purge-account",
		Short: "Delete every account with the email and all of its ledger records",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			l, err := opts.logger()
			if err != nil {
				return err
			}
			pool, err := opts.connect(cmd.Context())
			if err != nil {
				return err
			}
			defer pool.Close()

			accounts := account.NewService(postgres.NewStorage(pool), l)

			ids, err := accounts.PurgeByEmail(cmd.Context(), email)
			if err != nil {
				return err
			}

			for _, id := range ids {
				fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s\n", id)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted %d accounts\n", len(ids))
			return nil
		},
	}

	cmd.Flags().StringVarP(&email, "email", "e", "", "Email of the accounts to delete")
	_ = cmd.MarkFlagRequired("email")

	return cmd
}

// Compare balances with credit log sums. Fails when any account drifted
func reconcileCmd(opts *options) *cobra.Command {
	var accountID string

	cmd := &cobra.Command{
		Use:   "reconcile",
		Short: "Check that account balances match their credit log",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			l, err := opts.logger()
			if err != nil {
				return err
			}
			pool, err := opts.connect(cmd.Context())
			if err != nil {
				return err
			}
			defer pool.Close()

			accounts := account.NewService(postgres.NewStorage(pool), l)

			var ids []uuid.UUID
			if accountID != "" {
				id, err := uuid.Parse(accountID)
				if err != nil {
					return fmt.Errorf("invalid account id: %w", err)
				}
				ids = append(ids, id)
			} else {
				all, err := accounts.ListAccounts(cmd.Context())
				if err != nil {
					return err
				}
				for _, a := range all {
					ids = append(ids, a.ID)
				}
			}

			drifted := 0
			for _, id := range ids {
				r, err := accounts.Reconcile(cmd.Context(), id)
				if err != nil {
					return err
				}
				if !r.Consistent() {
					drifted++
					fmt.Fprintf(cmd.OutOrStdout(), "MISMATCH %s balance=%d log=%d\n", r.AccountID, r.Balance, r.LogSum)
				}
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Checked %d accounts, %d mismatched\n", len(ids), drifted)
			if drifted > 0 {
				return errInconsistent
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&accountID, "account", "", "Check only this account")

	return cmd
}
