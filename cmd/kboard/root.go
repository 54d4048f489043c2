package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"k8s.io/client-go/kubernetes"
	"k8s.io/client-go/rest"

	"github.com/renato0307/kboard/internal/config"
	"github.com/renato0307/kboard/internal/k8s"
	"github.com/renato0307/kboard/internal/kubeconfig"
	"github.com/renato0307/kboard/internal/logging"
)

// For mocking in tests; nil uses kubernetes.NewForConfig
var clientsetBuilder func(*rest.Config) (kubernetes.Interface, error)

type rootOptions struct {
	configPath string
	selector   string
	theme      string
	logFile    string
	logLevel   string
	namespace  string
}

// env is what every command runs against, built once flags are parsed
type env struct {
	config  config.Config
	store   *kubeconfig.Store
	factory *k8s.ClientFactory
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	e := &env{}

	cmd := &cobra.Command{
		Use:   "kboard",
		Short: "Terminal dashboard for Kubernetes workloads",
		Long: `kboard shows the workloads and nodes of one cluster at a time with a
canonical status per workload. Kubeconfig files can be imported under a name
and switched between without restarting.

Run without a subcommand to start the dashboard.`,
		// errors are printed by main
		SilenceUsage:  true,
		SilenceErrors: true,
		Version:       version,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return e.setup(cmd, opts)
		},
		PersistentPostRunE: func(*cobra.Command, []string) error {
			return e.close()
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runDashboard(cmd.Context(), e)
		},
	}
	cmd.SetVersionTemplate(`{{printf "kboard version %s\n" .Version}}`)

	flags := cmd.PersistentFlags()
	flags.StringVar(&opts.configPath, "config", "", "config file (default ~/.config/kboard/config.yaml)")
	flags.StringVar(&opts.selector, "context", "", `kubeconfig to use: "default", an imported name or a file path`)
	flags.StringVar(&opts.logFile, "log-file", "", "write logs to this file (logging is off without one)")
	flags.StringVar(&opts.logLevel, "log-level", "", "log level: debug, info, warn or error")
	cmd.Flags().StringVar(&opts.theme, "theme", "", fmt.Sprintf("color theme %v", themeNames()))
	flags.StringVarP(&opts.namespace, "namespace", "n", "", "limit workloads to one namespace (default all)")

	cmd.AddCommand(newConfigCmd(opts))
	cmd.AddCommand(newKubeconfigCmd(e))
	cmd.AddCommand(newStatusCmd(e))
	cmd.AddCommand(newNodesCmd(e))
	cmd.AddCommand(newVersionCmd())
	return cmd
}

// setup loads the config, applies the flags that were set and opens the
// kubeconfig store
func (e *env) setup(cmd *cobra.Command, opts *rootOptions) error {
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return err
	}
	opts.apply(cmd, &cfg)
	if err := cfg.Validate(); err != nil {
		return err
	}

	logConfig, err := cfg.Log.Logging()
	if err != nil {
		return err
	}
	if err := logging.Init(logConfig); err != nil {
		return fmt.Errorf("failed to initialize logging: %w", err)
	}

	store, err := kubeconfig.NewStore(cfg.Kubeconfig.StorageDir)
	if err != nil {
		return err
	}

	factory := k8s.NewClientFactory(store.Registry(), k8s.Options{
		QPS:              cfg.Client.QPS,
		Burst:            cfg.Client.Burst,
		Timeout:          cfg.Client.Timeout,
		VerifyConnection: cfg.Client.VerifyConnection,
	})
	if clientsetBuilder != nil {
		factory.WithClientsetBuilder(clientsetBuilder)
	}

	e.config = cfg
	e.store = store
	e.factory = factory
	logging.Info("kboard starting", "version", version, "storageDir", store.Dir(), "initial", cfg.Kubeconfig.Initial)
	return nil
}

func (e *env) close() error {
	defer logging.Shutdown()
	if e.store == nil {
		return nil
	}
	return e.store.Registry().Close()
}

// apply overrides cfg with the flags given on the command line
func (o *rootOptions) apply(cmd *cobra.Command, cfg *config.Config) {
	changed := func(name string) bool {
		f := cmd.Flags().Lookup(name)
		return f != nil && f.Changed
	}
	if changed("context") {
		cfg.Kubeconfig.Initial = o.selector
	}
	if changed("theme") {
		cfg.UI.Theme = o.theme
	}
	if changed("namespace") {
		cfg.UI.Namespace = o.namespace
	}
	if changed("log-file") {
		cfg.Log.File = o.logFile
	}
	if changed("log-level") {
		cfg.Log.Level = o.logLevel
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version number of kboard",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "kboard version %s\n", version)
		},
	}
}
