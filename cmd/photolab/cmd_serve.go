package main

import (
	"context"
	"fmt"
	"time"

	"github.com/nvandessel/photolab/internal/visualization"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve a live dashboard of the experiment",
		Long: `Start a local web dashboard showing the parameter readout, derived
statistics, the I-V chart and the recorded points. With --sweep a voltage
sweep runs in the background while the dashboard refreshes.

Press Ctrl-C to stop.`,
		RunE: runServe,
	}
	addExperimentFlags(cmd)
	cmd.Flags().String("addr", visualization.DefaultListenAddr, "Listen address")
	cmd.Flags().Bool("no-open", false, "Do not open the dashboard in a browser")
	cmd.Flags().Bool("sweep", false, "Run the configured sweep while serving")
	cmd.Flags().Int("refresh", 2, "Dashboard auto-refresh interval in seconds (0 disables)")
	return cmd
}

func runServe(cmd *cobra.Command, args []string) error {
	a, err := setup(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	addr, _ := cmd.Flags().GetString("addr")
	refresh, _ := cmd.Flags().GetInt("refresh")
	noOpen, _ := cmd.Flags().GetBool("no-open")
	backgroundSweep, _ := cmd.Flags().GetBool("sweep")

	srv := visualization.NewServer(a.session,
		visualization.WithListenAddr(addr),
		visualization.WithRefresh(refresh),
		visualization.WithLogger(a.logger),
	)

	g, ctx := errgroup.WithContext(cmd.Context())
	g.Go(func() error { return srv.ListenAndServe(ctx) })

	url, err := waitForURL(ctx, srv, 3*time.Second)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Dashboard running at %s\n", url)
	fmt.Fprintf(cmd.OutOrStdout(), "Press Ctrl-C to stop.\n")

	if !noOpen {
		if err := visualization.OpenBrowser(ctx, url); err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "Could not open browser: %v\nOpen %s manually.\n", err, url)
		}
	}

	if backgroundSweep {
		g.Go(func() error {
			res, err := a.session.Sweep(ctx, a.session.Plan(), nil)
			if err != nil {
				return fmt.Errorf("sweep: %w", err)
			}
			a.logger.Info("background sweep done",
				"points", len(res.Points), "total", res.Total, "cancelled", res.Cancelled)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

// waitForURL polls until srv is listening.
func waitForURL(ctx context.Context, srv *visualization.Server, timeout time.Duration) (string, error) {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if u := srv.URL(); u != "" {
			return u, nil
		}
		select {
		case <-ctx.Done():
			return "", fmt.Errorf("server failed to start: %w", context.Cause(ctx))
		case <-time.After(10 * time.Millisecond):
		}
	}
	return "", fmt.Errorf("server failed to start within %v", timeout)
}
