package main

import (
	"context"
	"fmt"

	"github.com/jrsteele09/consulta-dashboard/backend"
	"github.com/jrsteele09/consulta-dashboard/internal/config"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

var checkToken string

// checkPaymentsCmd runs one reconciliation pass, the same call the poller makes
var checkPaymentsCmd = &cobra.Command{
	Use:   "check-payments",
	Short: "Reconciles pending payments once and prints how many changed",
	RunE: func(cmd *cobra.Command, args []string) error {
		c := config.New()
		api, err := backend.New(c.GetBackendURL(), backend.WithTimeout(c.GetBackendTimeout()))
		if err != nil {
			return errors.Wrap(err, "[check-payments] failed to create backend client")
		}

		ctx, cancel := context.WithTimeout(cmd.Context(), c.GetBackendTimeout())
		defer cancel()
		updated, err := api.CheckPendingPayments(ctx, checkToken)
		if err != nil {
			return errors.Wrap(err, "[check-payments] reconciliation failed")
		}
		fmt.Fprintf(cmd.OutOrStdout(), "updated: %d\n", updated)
		return nil
	},
}

func init() {
	checkPaymentsCmd.Flags().StringVar(&checkToken, "token", "", "API session token used for the call")
	_ = checkPaymentsCmd.MarkFlagRequired("token")
	rootCmd.AddCommand(checkPaymentsCmd)
}
