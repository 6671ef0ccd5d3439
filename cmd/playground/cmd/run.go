package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/spf13/cobra"

	"github.com/AaronLay10/ScratchyEngine/internal/blocks"
	"github.com/AaronLay10/ScratchyEngine/internal/engine"
	"github.com/AaronLay10/ScratchyEngine/internal/render"
	"github.com/AaronLay10/ScratchyEngine/internal/sprite"
)

var runCmd = &cobra.Command{
	Use:   "run <block-id>...",
	Short: "Run a program and print the final stage",
	Long: `Build a program from block ids, run it on a fresh stage and print
where the sprite ended up.

Example:
  playground run move_10 turn_right say_hello
  playground run move_10 move_10 --fast`,
	Args: cobra.MinimumNArgs(1),
	RunE: runProgram,
}

func init() {
	runCmd.Flags().Bool("fast", false, "skip the pauses between steps")
	runCmd.Flags().Bool("trace", false, "print the stage after every step")
	rootCmd.AddCommand(runCmd)
}

func runProgram(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	catalog, ok := blocks.ByName(cfg.Playground.Catalog)
	if !ok {
		return fmt.Errorf("unknown catalog %q", cfg.Playground.Catalog)
	}
	tracker, closeStore, err := openTracker(cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	opts := []engine.RunnerOption{
		engine.WithReward(cfg.Playground.CompletionCoins, tracker.RunReward()),
	}
	if fast, _ := cmd.Flags().GetBool("fast"); fast {
		opts = append(opts, engine.WithSleeper(func(ctx context.Context, _ time.Duration) error {
			return ctx.Err()
		}))
	}
	pg := engine.NewPlayground(catalog, opts...)

	for _, id := range args {
		d, ok := catalog.Lookup(id)
		if !ok {
			return fmt.Errorf("unknown block %q in catalog %s", id, catalog.Name())
		}
		pg.Surface.Append(d)
	}

	if trace, _ := cmd.Flags().GetBool("trace"); trace {
		pg.Stage.Observe(func(s sprite.State) {
			fmt.Printf("x:%d y:%d dir:%d size:%d visible:%t %q\n",
				s.X, s.Y, sprite.NormalizeRotation(s.Rotation), s.Size, s.Visible, s.Saying)
		})
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	res := pg.Run(ctx)
	fmt.Println(render.Stage(res.Final, 40, 12))
	fmt.Printf("%s after %d of %d steps\n", res.Status, res.StepsApplied, len(args))
	return nil
}
