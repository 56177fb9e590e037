package cmd

import (
	"context"
	"fmt"
	"log"

	"github.com/givepoint/donation-gateway/internal/config"
	"github.com/givepoint/donation-gateway/internal/content"
	"github.com/givepoint/donation-gateway/internal/mail"
	"github.com/spf13/cobra"
)

var sendtestTo string

// sendtest smoke-tests the configured SMTP transport by delivering one
// fallback-text receipt, so operators can verify credentials before wiring
// the webhook.
var sendtestCmd = &cobra.Command{
	Use:   "sendtest",
	Short: "Send a test receipt through the configured SMTP transport",
	RunE: func(cmd *cobra.Command, args []string) error {
		if sendtestTo == "" {
			return fmt.Errorf("--to is required")
		}

		cfg, err := config.Load(cfgPath)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}

		html, err := mail.RenderReceipt(mail.ReceiptData{
			DonorName:       "Test Donor",
			Amount:          "$1.00",
			CauseName:       cfg.Receipt.CauseName,
			TransactionID:   "TEST-RECEIPT",
			Acknowledgement: content.Fallback("Test Donor", "1.00"),
		})
		if err != nil {
			return fmt.Errorf("render receipt: %w", err)
		}

		mailer := mail.NewSMTPMailer(
			cfg.SMTP.Host,
			cfg.SMTP.Port,
			cfg.SMTP.Username,
			cfg.SMTP.Password,
			cfg.SMTP.From,
			cfg.SMTP.Timeout,
		)

		if err := mailer.Send(context.Background(), mail.Message{
			To:       sendtestTo,
			Subject:  cfg.Receipt.Subject + " (test)",
			HTMLBody: html,
		}); err != nil {
			return fmt.Errorf("send test receipt: %w", err)
		}

		log.Printf(">> Test receipt sent to %s", sendtestTo)
		return nil
	},
}

func init() {
	sendtestCmd.Flags().StringVar(&sendtestTo, "to", "", "recipient address for the test receipt")
}
