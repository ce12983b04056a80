package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/nfrund/shellrt/internal/app"
	"github.com/nfrund/shellrt/internal/config"
)

var runTicks uint64

// runCmd represents the run command
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the snake demo",
	Long: `Run boots every module and starts the runtime. The snake module spawns a
game actor, a bot that steers every player, and an observer that follows the
published state.

The run ends on SIGINT/SIGTERM, when the observer has seen --ticks updates, or
when an actor fails. A failing actor stops the whole runtime and the command
exits non-zero.

Examples:
  shellrt run                  # Run until interrupted
  shellrt run --ticks 50       # Stop after 50 game updates
  SHELLRT_PLAYERS=4 shellrt run --ticks 20`,
	RunE: runHandler,
}

func runHandler(cmd *cobra.Command, args []string) error {
	cfg, err := config.New()
	if err != nil {
		return err
	}

	application, err := app.New(cfg, app.Options{MaxTicks: runTicks})
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := application.Run(ctx); err != nil {
		return fmt.Errorf("runtime stopped with a fault: %w", err)
	}

	seen := application.Snake.Observed()
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Observed %d updates, last tick %d\n", seen.Updates, seen.LastTick)

	players := make([]int, 0, len(seen.Heads))
	for p := range seen.Heads {
		players = append(players, p)
	}
	sort.Ints(players)
	for _, p := range players {
		fmt.Fprintf(out, "  player %d at %s\n", p, seen.Heads[p])
	}
	return nil
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().Uint64VarP(&runTicks, "ticks", "t", 0, "Stop after this many game updates (0 runs until interrupted)")
}
