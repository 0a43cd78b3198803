// cmd/riftctl/run.go
// Implements the `riftctl run` command. It bootstraps a sandboxed guest wasm
// module behind the rollback/replay engine, drives it through a recorded
// .riftt scenario trace, and reports the final engine state.
package main

import (
	"fmt"
	"net/http"
	"os"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/riftcore/engine/internal/config"
	"github.com/riftcore/engine/internal/core"
	"github.com/riftcore/engine/internal/logging"
	"github.com/riftcore/engine/internal/scenario"
)

func newRunCmd() *cobra.Command {
	var (
		rewriterPath string
		guestPath    string
		tracePath    string
		initialPages uint32
		globalCount  uint32
		serveMetrics bool
	)

	cmd := &cobra.Command{
		Use:   "run <trace.riftt>",
		Short: "Bootstrap a guest wasm module and replay a scenario trace against it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tracePath = args[0]

			cfg := config.Load(cfgFile, "RIFT")

			rewriterWasm, err := os.ReadFile(rewriterPath)
			if err != nil {
				return fmt.Errorf("read rewriter module: %w", err)
			}
			guestWasm, err := os.ReadFile(guestPath)
			if err != nil {
				return fmt.Errorf("read guest module: %w", err)
			}
			traceData, err := os.ReadFile(tracePath)
			if err != nil {
				return fmt.Errorf("read trace file: %w", err)
			}

			tr, err := scenario.Decode(traceData)
			if err != nil {
				return fmt.Errorf("decode trace: %w", err)
			}

			ctx := cmd.Context()
			cs, err := core.Bootstrap(ctx, rewriterWasm, guestWasm, core.BootstrapOptions{
				InitialPages: initialPages,
				GlobalCount:  globalCount,
				Tick: core.TickConfig{
					Interval:         int64(cfg.Interval),
					TickFunctionName: cfg.TickFunctionName,
				},
				RejectOutOfOrder: cfg.RejectOutOfOrder,
			})
			if err != nil {
				return fmt.Errorf("bootstrap engine: %w", err)
			}
			defer cs.Close(ctx)

			if serveMetrics {
				mux := http.NewServeMux()
				mux.Handle("/metrics", promhttp.Handler())
				srv := &http.Server{Addr: cfg.MetricsAddr, Handler: mux}
				go func() {
					if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
						logging.Sugar().Errorw("metrics server stopped", "err", err)
					}
				}()
				defer srv.Close()
			}

			if err := scenario.Run(ctx, cs, tr); err != nil {
				return fmt.Errorf("replay trace: %w", err)
			}

			logging.Sugar().Infow("run complete",
				"engine_id", cs.EngineID(),
				"current_time", cs.CurrentTime(),
				"journal_len", cs.JournalLen(),
				"call_log_len", cs.CallLogLen(),
			)
			fmt.Printf("engine %s: current_time=%d journal_len=%d call_log_len=%d\n",
				cs.EngineID(), cs.CurrentTime(), cs.JournalLen(), cs.CallLogLen())
			return nil
		},
	}

	cmd.Flags().StringVar(&rewriterPath, "rewriter", "", "Path to the binary rewriter wasm module")
	cmd.Flags().StringVar(&guestPath, "guest", "", "Path to the raw guest wasm module")
	cmd.Flags().Uint32Var(&initialPages, "initial-pages", 1, "Initial linear memory page count")
	cmd.Flags().Uint32Var(&globalCount, "globals", 0, "Number of mutable globals the guest exports")
	cmd.Flags().BoolVar(&serveMetrics, "metrics", false, "Serve Prometheus metrics while the trace replays")
	_ = cmd.MarkFlagRequired("rewriter")
	_ = cmd.MarkFlagRequired("guest")
	return cmd
}
