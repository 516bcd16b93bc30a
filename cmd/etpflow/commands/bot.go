package commands

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/etpflow/etpflow/cmd/etpflow/ui"
	"github.com/etpflow/etpflow/internal/transport/telegram"
)

var botCmd = &cobra.Command{
	Use:   "bot",
	Short: "Run the Telegram bot front end",
	Long:  "Start long polling for Telegram updates and drive the permit workflow per operator.",
	RunE:  runBot,
}

func init() {
	rootCmd.AddCommand(botCmd)
}

func runBot(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	if cfg.Telegram.Token == "" {
		return fmt.Errorf("telegram token is required (set TELEGRAM_BOT_TOKEN)")
	}

	logger := newLogger(cfg)

	if err := prepareOutput(cfg); err != nil {
		return fmt.Errorf("prepare output dir: %w", err)
	}

	spin := ui.NewSpinner("Connecting to Telegram...")
	spin.Start()
	bot, err := telegram.NewBot(logger.WithComponent("telegram"), cfg.Telegram.Token, cfg.Telegram.PollTimeout)
	spin.Stop()
	if err != nil {
		return err
	}

	machine, _ := buildMachine(cfg, logger, bot)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := bot.Run(ctx, machine); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}

	logger.Info().Msg("Bot stopped")
	return nil
}
