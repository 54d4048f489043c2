// Package k8s builds cluster clients from kubeconfig selectors, switches the
// active client as the selection changes, and reduces workloads and nodes to
// the dashboard's view models.
package k8s

import (
	"context"
	"fmt"
	"os"
	"time"

	"k8s.io/client-go/kubernetes"
	"k8s.io/client-go/rest"
	"k8s.io/client-go/tools/clientcmd"

	"github.com/renato0307/kboard/internal/kubeconfig"
	"github.com/renato0307/kboard/internal/logging"
)

// DefaultSelector resolves through client-go's ambient loading rules
// (KUBECONFIG, then ~/.kube/config) without consulting the registry.
const DefaultSelector = "default"

// Client is a connected handle bound to one API endpoint. A new Client is
// built on every switch; superseded ones are left for in-flight users.
type Client struct {
	Selector string
	// KubeconfigPath is empty for DefaultSelector
	KubeconfigPath string
	Context        string
	Host           string
	ServerVersion  string
	RESTConfig     *rest.Config
	Clientset      kubernetes.Interface
}

// Options tune REST clients built by the factory
type Options struct {
	QPS     float32
	Burst   int
	Timeout time.Duration
	// VerifyConnection probes the API server before returning a client
	VerifyConnection bool
}

// ClientsetBuilder creates a clientset from a REST config
type ClientsetBuilder func(*rest.Config) (kubernetes.Interface, error)

// Lookup resolves registered names to kubeconfig paths
type Lookup interface {
	Get(name string) (string, bool, error)
}

// ClientFactory resolves selectors and constructs clients. It never touches
// the process environment, so connects for different selectors may run
// concurrently.
type ClientFactory struct {
	lookup       Lookup
	opts         Options
	newClientset ClientsetBuilder
	// defaultRules is swapped in tests
	defaultRules func() *clientcmd.ClientConfigLoadingRules
}

// NewClientFactory returns a factory resolving names through lookup
func NewClientFactory(lookup Lookup, opts Options) *ClientFactory {
	return &ClientFactory{
		lookup: lookup,
		opts:   opts,
		newClientset: func(c *rest.Config) (kubernetes.Interface, error) {
			return kubernetes.NewForConfig(c)
		},
		defaultRules: clientcmd.NewDefaultClientConfigLoadingRules,
	}
}

// WithClientsetBuilder replaces the clientset constructor
func (f *ClientFactory) WithClientsetBuilder(b ClientsetBuilder) *ClientFactory {
	f.newClientset = b
	return f
}

// Resolve maps a selector to a kubeconfig path. DefaultSelector yields "".
// A registered name wins over a file of the same name.
func (f *ClientFactory) Resolve(selector string) (string, error) {
	if selector == DefaultSelector || selector == "" {
		return "", nil
	}

	if f.lookup != nil {
		path, ok, err := f.lookup.Get(selector)
		if err != nil {
			return "", err
		}
		if ok {
			if !fileExists(path) {
				return "", kubeconfig.FileNotFoundError(path)
			}
			return path, nil
		}
	}

	if fileExists(selector) {
		return selector, nil
	}
	return "", kubeconfig.NotFoundError(selector)
}

// Connect resolves selector and builds a client on its current context
func (f *ClientFactory) Connect(ctx context.Context, selector string) (*Client, error) {
	return f.ConnectContext(ctx, selector, "")
}

// ConnectContext is Connect with a context override; an empty contextName
// keeps the kubeconfig's current-context.
func (f *ClientFactory) ConnectContext(ctx context.Context, selector, contextName string) (*Client, error) {
	if selector == "" {
		selector = DefaultSelector
	}
	log := logging.Get().With("selector", selector)

	path, err := f.Resolve(selector)
	if err != nil {
		log.Warn("failed to resolve kubeconfig", "error", err)
		return nil, err
	}

	var client *Client
	err = logging.Time("connect", func() error {
		client, err = f.build(ctx, selector, path, contextName)
		return err
	}, "selector", selector, "path", path)
	if err != nil {
		return nil, err
	}

	log.Info("connected", "host", client.Host, "context", client.Context, "version", client.ServerVersion)
	return client, nil
}

func (f *ClientFactory) build(ctx context.Context, selector, path, contextName string) (*Client, error) {
	if err := ctx.Err(); err != nil {
		return nil, kubeconfig.ClientCreationError(selector, err)
	}

	var rules *clientcmd.ClientConfigLoadingRules
	if path == "" {
		rules = f.defaultRules()
	} else {
		rules = &clientcmd.ClientConfigLoadingRules{ExplicitPath: path}
	}
	overrides := &clientcmd.ConfigOverrides{}
	if contextName != "" {
		overrides.CurrentContext = contextName
	}

	clientConfig := clientcmd.NewNonInteractiveDeferredLoadingClientConfig(rules, overrides)
	restConfig, err := clientConfig.ClientConfig()
	if err != nil {
		return nil, kubeconfig.ClientCreationError(selector, fmt.Errorf("error building kubeconfig: %w", err))
	}

	activeContext := contextName
	if activeContext == "" {
		if raw, err := clientConfig.RawConfig(); err == nil {
			activeContext = raw.CurrentContext
		}
	}

	// Use protobuf for better performance
	restConfig.ContentType = "application/vnd.kubernetes.protobuf"
	if f.opts.QPS > 0 {
		restConfig.QPS = f.opts.QPS
	}
	if f.opts.Burst > 0 {
		restConfig.Burst = f.opts.Burst
	}
	if f.opts.Timeout > 0 {
		restConfig.Timeout = f.opts.Timeout
	}

	clientset, err := f.newClientset(restConfig)
	if err != nil {
		return nil, kubeconfig.ClientCreationError(selector, fmt.Errorf("error creating clientset: %w", err))
	}

	client := &Client{
		Selector:       selector,
		KubeconfigPath: path,
		Context:        activeContext,
		Host:           restConfig.Host,
		RESTConfig:     restConfig,
		Clientset:      clientset,
	}

	if f.opts.VerifyConnection {
		version, err := probe(ctx, clientset)
		if err != nil {
			return nil, kubeconfig.ClientCreationError(selector, fmt.Errorf("api server unreachable: %w", err))
		}
		client.ServerVersion = version
	}

	return client, nil
}

// probe asks the API server for its version, giving up when ctx ends
func probe(ctx context.Context, clientset kubernetes.Interface) (string, error) {
	type result struct {
		version string
		err     error
	}
	done := make(chan result, 1)

	go func() {
		info, err := clientset.Discovery().ServerVersion()
		if err != nil {
			done <- result{err: err}
			return
		}
		done <- result{version: info.GitVersion}
	}()

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case r := <-done:
		return r.version, r.err
	}
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return !info.IsDir()
}
