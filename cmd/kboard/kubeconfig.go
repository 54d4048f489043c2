package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"k8s.io/cli-runtime/pkg/printers"

	"github.com/renato0307/kboard/internal/kubeconfig"
)

func newKubeconfigCmd(e *env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "kubeconfig",
		Short: "Manage imported kubeconfig files",
		Long: `Imported kubeconfig files are copied into the kboard storage directory
and can be selected by name with --context or from the dashboard.`,
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "import NAME FILE",
		Short: "Import a kubeconfig file under NAME",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			entry, err := e.store.Import(args[0], args[1])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Imported %s as %s\n", args[1], entry.Name)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List imported kubeconfigs",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			entries, err := e.store.Registry().Entries()
			if err != nil {
				return err
			}
			w := printers.GetNewTabWriter(cmd.OutOrStdout())
			fmt.Fprintln(w, "NAME\tCURRENT-CONTEXT\tPATH")
			for _, entry := range entries {
				fmt.Fprintf(w, "%s\t%s\t%s\n", entry.Name, currentContext(entry.FilePath), entry.FilePath)
			}
			return w.Flush()
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:     "remove NAME",
		Aliases: []string{"rm"},
		Short:   "Remove an imported kubeconfig",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			removed, err := e.store.Delete(args[0])
			if err != nil {
				return err
			}
			if !removed {
				return kubeconfig.NotFoundError(args[0])
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed %s\n", args[0])
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "contexts NAME",
		Short: "List the contexts of an imported kubeconfig",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			contexts, err := e.store.Contexts(args[0])
			if err != nil {
				return err
			}
			w := printers.GetNewTabWriter(cmd.OutOrStdout())
			fmt.Fprintln(w, "CURRENT\tNAME\tCLUSTER\tAUTHINFO\tNAMESPACE")
			for _, c := range contexts {
				current := ""
				if c.Current {
					current = "*"
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", current, c.Name, c.Cluster, c.User, c.Namespace)
			}
			return w.Flush()
		},
	})

	return cmd
}

// currentContext returns the current context of the kubeconfig at path, or
// a placeholder when it cannot be read
func currentContext(path string) string {
	contexts, err := kubeconfig.Contexts(path)
	if err != nil {
		if kind, ok := kubeconfig.KindOf(err); ok {
			return "<" + kind.String() + ">"
		}
		return "<error>"
	}
	for _, c := range contexts {
		if c.Current {
			return c.Name
		}
	}
	return "<none>"
}
