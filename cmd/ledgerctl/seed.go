package main

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/nkiryanov/creditledger/internal/apperrors"
	"github.com/nkiryanov/creditledger/internal/models"
	"github.com/nkiryanov/creditledger/internal/repository"
	"github.com/nkiryanov/creditledger/internal/repository/postgres"
	"github.com/nkiryanov/creditledger/internal/service/card"
	"github.com/nkiryanov/creditledger/internal/service/catalog"
)

var demoCardBalance = decimal.NewFromInt(1000)

// Ten UK debit cards used by the shop demo
var demoCards = []models.Card{
	{Number: "4532015112830366", HolderName: "James Wilson", SortCode: "20-00-00", AccountNumber: "12345678", BankName: "Barclays"},
	{Number: "4539791001730106", HolderName: "Emma Thompson", SortCode: "40-47-84", AccountNumber: "23456789", BankName: "HSBC"},
	{Number: "4556474670906442", HolderName: "Oliver Brown", SortCode: "60-83-71", AccountNumber: "34567890", BankName: "Lloyds Bank"},
	{Number: "4929939187355598", HolderName: "Sophie Taylor", SortCode: "30-96-26", AccountNumber: "45678901", BankName: "NatWest"},
	{Number: "4485040371536584", HolderName: "Harry Davies", SortCode: "16-58-30", AccountNumber: "56789012", BankName: "Santander UK"},
	{Number: "4024007136512380", HolderName: "Charlotte Evans", SortCode: "23-05-80", AccountNumber: "67890123", BankName: "Royal Bank of Scotland"},
	{Number: "4532261615476013", HolderName: "George Martin", SortCode: "09-01-28", AccountNumber: "78901234", BankName: "Metro Bank"},
	{Number: "4916338506082832", HolderName: "Isabella Clark", SortCode: "04-00-04", AccountNumber: "89012345", BankName: "Nationwide"},
	{Number: "4539678673064322", HolderName: "Jack Robinson", SortCode: "77-81-99", AccountNumber: "90123456", BankName: "TSB Bank"},
	{Number: "4485382467536426", HolderName: "Amelia Walker", SortCode: "11-02-89", AccountNumber: "01234567", BankName: "Monzo"},
}

func strPtr(s string) *string { return &s }

var demoRewards = []repository.CreateCatalogItemParams{
	{Name: "Coffee Voucher", Cost: 50, Description: strPtr("Free coffee at participating cafes")},
	{Name: "Utility Credit £10", Cost: 200, Description: strPtr("£10 credit towards your utility bills")},
	{Name: "Premium Month", Cost: 400, Description: strPtr("One month of premium account features")},
	{Name: "Rent Discount 5%", Cost: 500, Description: strPtr("5% discount on your next rent payment")},
	{Name: "Google Play Gift Card £25", Cost: 500, Description: strPtr("£25 Google Play credit")},
	{Name: "Amazon Gift Card £25", Cost: 500, Description: strPtr("£25 Amazon voucher")},
	{Name: "Apple Gift Card £50", Cost: 1000, Description: strPtr("£50 Apple gift card")},
	{Name: "Google Play Gift Card £50", Cost: 1000, Description: strPtr("£50 Google Play credit")},
	{Name: "Apple Gift Card £100", Cost: 2000, Description: strPtr("£100 Apple gift card")},
}

// Existing cards are left untouched, so the command may be run many times
func seedCardsCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "seed-cards",
		Short: "Create the demo bank cards with £1000 each",
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

			cards := card.NewService(postgres.NewStorage(pool), l)
			out := cmd.OutOrStdout()

			created := 0
			for _, c := range demoCards {
				c.Balance = demoCardBalance
				c.Expiry = models.DefaultCardExpiry
				c.Status = models.CardStatusActive

				_, err := cards.CreateCard(cmd.Context(), c)
				switch {
				case err == nil:
					created++
					fmt.Fprintf(out, "Created %s %-22s %s\n", models.MaskCardNumber(c.Number), c.HolderName, c.BankName)
				case errors.Is(err, apperrors.ErrCardExists):
					fmt.Fprintf(out, "Exists  %s %-22s %s\n", models.MaskCardNumber(c.Number), c.HolderName, c.BankName)
				default:
					return fmt.Errorf("can't create card %s. Err: %w", models.MaskCardNumber(c.Number), err)
				}
			}

			fmt.Fprintf(out, "Created %d of %d cards\n", created, len(demoCards))
			return nil
		},
	}
}

// Catalog is seeded only while it is empty
func seedCatalogCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "seed-catalog",
		Short: "Create the sample rewards when the catalog is empty",
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

			rewards := catalog.NewService(postgres.NewStorage(pool).Catalog(), l)
			out := cmd.OutOrStdout()

			existing, err := rewards.ListItems(cmd.Context(), false)
			if err != nil {
				return err
			}
			if len(existing) > 0 {
				fmt.Fprintf(out, "Catalog already has %d rewards, nothing to do\n", len(existing))
				return nil
			}

			for _, p := range demoRewards {
				item, err := rewards.CreateItem(cmd.Context(), p)
				if err != nil {
					return fmt.Errorf("can't create reward %q. Err: %w", p.Name, err)
				}
				fmt.Fprintf(out, "Created %-26s %5d credits\n", item.Name, item.Cost)
			}

			return nil
		},
	}
}
