package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	osap "github.com/jakeread/osap-go"
	"github.com/jakeread/osap-go/config"
	"github.com/jakeread/osap-go/internal/metrics"
)

func newRootCmd() *cobra.Command {
	var cfgPath string

	root := &cobra.Command{
		Use:   "osapsim",
		Short: "Run and probe a simulated OSAP device",
	}
	root.PersistentFlags().StringVar(&cfgPath, "config", "", "device topology YAML file")

	root.AddCommand(newRunCmd(&cfgPath))
	root.AddCommand(newPingCmd(&cfgPath))
	root.AddCommand(newGraphCmd(&cfgPath))
	root.AddCommand(newDemoCmd())
	return root
}

// loadDevice builds a Context from a config file path, or a minimal
// single-root device if path is empty.
func loadDevice(logger *zap.Logger, path string) (*osap.Context, error) {
	rec := metrics.New(nil, "osapsim")

	if path == "" {
		rootV := osap.NewRootVertex("root")
		return osap.NewContext(rootV, config.DefaultPoolSize, newSimClock(), rec, logger), nil
	}

	spec, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	rootV, _, err := config.Build(spec)
	if err != nil {
		return nil, err
	}
	return osap.NewContext(rootV, spec.PoolSize, newSimClock(), rec, logger), nil
}

// newSimClock returns an independent monotonic counter standing in
// for a hardware millis() source; osap.TimeSource callers must not
// assume wall-clock time. Each device gets its own clock so
// concurrently ticked devices (see demo.go) never share mutable state.
func newSimClock() func() uint32 {
	var tick uint32
	return func() uint32 {
		tick++
		return tick
	}
}

func newRunCmd(cfgPath *string) *cobra.Command {
	var ticks int

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Drive a device's scheduler for a fixed number of ticks",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger, _ := zap.NewDevelopment()
			defer logger.Sync()

			ctx, err := loadDevice(logger, *cfgPath)
			if err != nil {
				return err
			}
			for i := 0; i < ticks; i++ {
				if err := ctx.Tick(); err != nil {
					return fmt.Errorf("tick %d: %w", i, err)
				}
			}
			logger.Info("run complete",
				zap.Int("ticks", ticks),
				zap.Uint32("errors", ctx.ErrorCount()),
				zap.Int32("pool_high_water", ctx.Pool.HighWater()),
			)
			return nil
		},
	}
	cmd.Flags().IntVar(&ticks, "ticks", 100, "number of scheduler ticks to run")
	return cmd
}

func newPingCmd(cfgPath *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ping",
		Short: "Self-ping a device's root vertex and report round-trip ticks",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger, _ := zap.NewDevelopment()
			defer logger.Sync()

			ctx, err := loadDevice(logger, *cfgPath)
			if err != nil {
				return err
			}

			route := osap.NewRoute().PingReq()
			var buf [osap.MTU]byte
			n, err := route.Build(buf[:], []byte{7})
			if err != nil {
				return err
			}
			_, idx, err := ctx.Pool.Request(ctx.Root)
			if err != nil {
				return err
			}
			if err := ctx.Pool.Load(idx, buf[:n], ctx.Now()); err != nil {
				return err
			}

			deadline := time.Now().Add(time.Second)
			for tick := 0; time.Now().Before(deadline); tick++ {
				if err := ctx.Tick(); err != nil {
					return err
				}
				if ctx.Pool.InUse() == 0 {
					fmt.Printf("pong after %d ticks\n", tick+1)
					return nil
				}
			}
			return fmt.Errorf("ping: no response")
		},
	}
	return cmd
}

func newGraphCmd(cfgPath *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "graph",
		Short: "Print a device's vertex tree",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger, _ := zap.NewDevelopment()
			defer logger.Sync()

			ctx, err := loadDevice(logger, *cfgPath)
			if err != nil {
				return err
			}
			printTree(ctx.Root, 0)
			return nil
		},
	}
	return cmd
}

func printTree(v *osap.Vertex, depth int) {
	for i := 0; i < depth; i++ {
		fmt.Print("  ")
	}
	fmt.Printf("- %s (hold %d/%d)\n", v.String(), v.CurrentHold(), v.MaxHold())
	for _, child := range v.Children() {
		printTree(child, depth+1)
	}
}
