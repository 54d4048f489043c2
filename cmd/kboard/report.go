package main

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"k8s.io/cli-runtime/pkg/printers"

	"github.com/renato0307/kboard/internal/k8s"
	"github.com/renato0307/kboard/internal/quantity"
	"github.com/renato0307/kboard/internal/ui"
)

func newStatusCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Print workloads with their status",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			client, err := e.connect(cmd.Context())
			if err != nil {
				return err
			}
			repo := k8s.NewWorkloadRepository(e.config.UI.HotspotThreshold)
			workloads, err := repo.ListWorkloads(cmd.Context(), client, e.config.UI.Namespace)
			if err != nil {
				return err
			}
			return printWorkloads(cmd.OutOrStdout(), ui.GetTheme(e.config.UI.Theme), workloads)
		},
	}
}

func newNodesCmd(e *env) *cobra.Command {
	var threshold string
	cmd := &cobra.Command{
		Use:   "nodes",
		Short: "Print node capacity, requests and hotspots",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			limit := e.config.UI.HotspotThreshold
			if cmd.Flags().Changed("threshold") {
				limit = quantity.ParsePercent(threshold)
				if limit <= 0 || limit > 100 {
					return fmt.Errorf("invalid --threshold %q: want a percentage within 1-100", threshold)
				}
			}

			client, err := e.connect(cmd.Context())
			if err != nil {
				return err
			}
			repo := k8s.NewWorkloadRepository(limit)
			nodes, err := repo.ListNodes(cmd.Context(), client)
			if err != nil {
				return err
			}
			return printNodes(cmd.OutOrStdout(), nodes, limit)
		},
	}
	cmd.Flags().StringVar(&threshold, "threshold", "", `request percentage that marks a hotspot, e.g. "70%" (default from config)`)
	return cmd
}

func (e *env) connect(ctx context.Context) (*k8s.Client, error) {
	return e.factory.Connect(ctx, e.config.Kubeconfig.Initial)
}

func printWorkloads(out io.Writer, theme *ui.Theme, workloads []k8s.Workload) error {
	if len(workloads) == 0 {
		_, err := fmt.Fprintln(out, "No workloads found")
		return err
	}
	w := printers.GetNewTabWriter(out)
	fmt.Fprintln(w, strings.Join(ui.WorkloadHeaders, "\t"))
	for _, wl := range workloads {
		fmt.Fprintln(w, strings.Join(ui.WorkloadRow(wl), "\t"))
	}
	if err := w.Flush(); err != nil {
		return err
	}
	_, err := fmt.Fprintf(out, "\n%d workloads: %s\n", len(workloads), ui.StatusSummary(theme, workloads))
	return err
}

func printNodes(out io.Writer, nodes []k8s.Node, threshold float64) error {
	if len(nodes) == 0 {
		_, err := fmt.Fprintln(out, "No nodes found")
		return err
	}
	w := printers.GetNewTabWriter(out)
	fmt.Fprintln(w, strings.Join(ui.NodeHeaders, "\t"))
	hotspots := 0
	for _, n := range nodes {
		if n.Hotspot {
			hotspots++
		}
		fmt.Fprintln(w, strings.Join(ui.NodeRow(n), "\t"))
	}
	if err := w.Flush(); err != nil {
		return err
	}
	_, err := fmt.Fprintf(out, "\n%d nodes, %d at or above %.0f%% requested\n", len(nodes), hotspots, threshold)
	return err
}
