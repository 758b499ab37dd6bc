// gmail-mailer - sends email requests dropped into a watched text file
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/FarhadManiCodes/gmail-file-mailer/internal/app"
)

var rootCmd = &cobra.Command{
	Use:   "gmail-mailer",
	Short: "Send Gmail messages described in a watched text file",
	Long: `Watch ~/Desktop/email_service_data/email_data.txt and send each new request:
  • Line 1 sender, line 2 recipient, line 3 subject
  • Line 4 optional image attachment path, lines 5+ body
  • OAuth sign-in per sender, cached for three days
  • Sent requests archived, failures marked with fail.txt`,
	SilenceUsage: true,
}

func main() {
	// Interrupts cancel the context; commands treat that as a clean exit
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	application := app.New()
	application.BindFlags(rootCmd)

	rootCmd.AddCommand(application.RunCommand())
	rootCmd.AddCommand(application.SendCommand())
	rootCmd.AddCommand(application.AuthCommand())
	rootCmd.AddCommand(application.CheckCommand())
	rootCmd.AddCommand(application.ConfigCommand())

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()
		log.Fatal().Err(err).Msg("gmail-mailer failed")
	}
}
