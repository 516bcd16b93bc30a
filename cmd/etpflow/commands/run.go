package commands

import (
	"context"
	"fmt"
	"os/signal"
	"strings"
	"sync"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/etpflow/etpflow/cmd/etpflow/ui"
	"github.com/etpflow/etpflow/internal/conversation"
)

// consoleUserID identifies the single console operator.
const consoleUserID int64 = 1

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the permit workflow interactively in the console",
	Long:  "Drive the same conversation workflow as the bot, but over stdin/stdout.",
	RunE:  runInteractive,
}

func init() {
	rootCmd.AddCommand(runCmd)
}

// consoleSink renders machine output on the terminal and remembers the
// last menu so the loop can offer it as a numbered choice.
type consoleSink struct {
	mu   sync.Mutex
	menu []conversation.Button
}

func (c *consoleSink) Message(_ int64, text string) {
	ui.Message("%s", text)
}

func (c *consoleSink) Menu(_ int64, text string, buttons []conversation.Button) {
	ui.Message("%s", text)
	c.mu.Lock()
	c.menu = buttons
	c.mu.Unlock()
}

func (c *consoleSink) Document(_ int64, identifier, path string) error {
	ui.Success("Generated %s at %s", identifier, path)
	return nil
}

// takeMenu returns and clears the pending menu, if any.
func (c *consoleSink) takeMenu() []conversation.Button {
	c.mu.Lock()
	defer c.mu.Unlock()
	menu := c.menu
	c.menu = nil
	return menu
}

func runInteractive(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	logger := newLogger(cfg)

	if err := prepareOutput(cfg); err != nil {
		return fmt.Errorf("prepare output dir: %w", err)
	}

	sink := &consoleSink{}
	machine, sessions := buildMachine(cfg, logger, sink)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	ui.Box("eMM11 Permit Workflow", "Fetch permit records and generate transit pass documents.")
	machine.Start(consoleUserID)

	for sessions.Len() > 0 && ctx.Err() == nil {
		if menu := sink.takeMenu(); menu != nil {
			labels := make([]string, len(menu))
			for i, button := range menu {
				labels[i] = button.Label
			}

			idx, err := ui.PromptChoice("Choose an option:", labels)
			if err != nil {
				ui.Error("%v", err)
				sink.mu.Lock()
				sink.menu = menu // offer the same menu again
				sink.mu.Unlock()
				continue
			}

			machine.HandleAction(ctx, consoleUserID, menu[idx].Action)
			continue
		}

		text, err := ui.Prompt(">")
		if err != nil {
			return err
		}

		switch strings.TrimSpace(text) {
		case "/start":
			machine.Start(consoleUserID)
		case "/cancel":
			machine.Cancel(consoleUserID)
			return nil
		default:
			machine.HandleText(ctx, consoleUserID, text)
		}
	}

	ui.Message("Goodbye.")
	return nil
}
