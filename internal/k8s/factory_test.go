package k8s

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"k8s.io/apimachinery/pkg/runtime"
	"k8s.io/apimachinery/pkg/version"
	fakediscovery "k8s.io/client-go/discovery/fake"
	"k8s.io/client-go/kubernetes"
	"k8s.io/client-go/kubernetes/fake"
	"k8s.io/client-go/rest"
	k8stesting "k8s.io/client-go/testing"
	"k8s.io/client-go/tools/clientcmd"
	clientcmdapi "k8s.io/client-go/tools/clientcmd/api"

	"github.com/renato0307/kboard/internal/kubeconfig"
)

// createTestKubeconfig writes a kubeconfig whose contexts point at
// https://<name>.example.com and returns its path
func createTestKubeconfig(t *testing.T, current string, contexts ...string) string {
	t.Helper()

	config := clientcmdapi.NewConfig()
	for _, name := range contexts {
		config.Clusters[name] = &clientcmdapi.Cluster{Server: "https://" + name + ".example.com"}
		config.AuthInfos[name] = &clientcmdapi.AuthInfo{Token: "token"}
		config.Contexts[name] = &clientcmdapi.Context{Cluster: name, AuthInfo: name}
	}
	config.CurrentContext = current

	path := filepath.Join(t.TempDir(), "kubeconfig")
	require.NoError(t, clientcmd.WriteToFile(*config, path))
	return path
}

// fakeBuilder returns a builder handing out cs and recording the config
func fakeBuilder(cs *fake.Clientset, seen **rest.Config) ClientsetBuilder {
	return func(c *rest.Config) (kubernetes.Interface, error) {
		if seen != nil {
			*seen = c
		}
		return cs, nil
	}
}

type failingLookup struct{ t *testing.T }

func (l failingLookup) Get(name string) (string, bool, error) {
	l.t.Fatalf("registry consulted for %q", name)
	return "", false, nil
}

func TestClientFactory_Resolve(t *testing.T) {
	registered := createTestKubeconfig(t, "prod", "prod")
	literal := createTestKubeconfig(t, "dev", "dev")
	gone := filepath.Join(t.TempDir(), "deleted.yaml")

	registry := kubeconfig.NewRegistry()
	require.NoError(t, registry.Put("prod", registered))
	require.NoError(t, registry.Put("stale", gone))

	f := NewClientFactory(registry, Options{})

	tests := []struct {
		name     string
		selector string
		want     string
		wantErr  error
	}{
		{"default sentinel", DefaultSelector, "", nil},
		{"empty behaves as default", "", "", nil},
		{"registered name", "prod", registered, nil},
		{"literal path", literal, literal, nil},
		{"registered but file deleted", "stale", "", kubeconfig.ErrFileNotFound},
		{"unknown selector", "staging", "", kubeconfig.ErrNotFound},
		{"directory is not a kubeconfig", t.TempDir(), "", kubeconfig.ErrNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := f.Resolve(tt.selector)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestClientFactory_ResolveNotFoundNamesSelector(t *testing.T) {
	_, err := NewClientFactory(kubeconfig.NewRegistry(), Options{}).Resolve("staging")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "staging")
}

func TestClientFactory_ResolveClosedRegistry(t *testing.T) {
	registry := kubeconfig.NewRegistry()
	require.NoError(t, registry.Close())

	_, err := NewClientFactory(registry, Options{}).Resolve("prod")
	assert.ErrorIs(t, err, kubeconfig.ErrStorage)
}

func TestClientFactory_DefaultSkipsRegistry(t *testing.T) {
	path := createTestKubeconfig(t, "ambient", "ambient")

	f := NewClientFactory(failingLookup{t}, Options{}).WithClientsetBuilder(fakeBuilder(fake.NewSimpleClientset(), nil))
	f.defaultRules = func() *clientcmd.ClientConfigLoadingRules {
		return &clientcmd.ClientConfigLoadingRules{ExplicitPath: path}
	}

	client, err := f.Connect(context.Background(), DefaultSelector)
	require.NoError(t, err)
	assert.Equal(t, DefaultSelector, client.Selector)
	assert.Empty(t, client.KubeconfigPath)
	assert.Equal(t, "https://ambient.example.com", client.Host)
	assert.Equal(t, "ambient", client.Context)
}

func TestClientFactory_Connect(t *testing.T) {
	path := createTestKubeconfig(t, "a", "a", "b")
	registry := kubeconfig.NewRegistry()
	require.NoError(t, registry.Put("team", path))

	cs := fake.NewSimpleClientset()
	cs.Discovery().(*fakediscovery.FakeDiscovery).FakedServerVersion = &version.Info{GitVersion: "v1.34.1"}

	var seen *rest.Config
	f := NewClientFactory(registry, Options{
		QPS:              42,
		Burst:            84,
		Timeout:          7 * time.Second,
		VerifyConnection: true,
	}).WithClientsetBuilder(fakeBuilder(cs, &seen))

	client, err := f.Connect(context.Background(), "team")
	require.NoError(t, err)

	assert.Equal(t, "team", client.Selector)
	assert.Equal(t, path, client.KubeconfigPath)
	assert.Equal(t, "a", client.Context)
	assert.Equal(t, "https://a.example.com", client.Host)
	assert.Equal(t, "v1.34.1", client.ServerVersion)
	assert.Same(t, seen, client.RESTConfig)

	require.NotNil(t, seen)
	assert.Equal(t, float32(42), seen.QPS)
	assert.Equal(t, 84, seen.Burst)
	assert.Equal(t, 7*time.Second, seen.Timeout)
}

func TestClientFactory_ConnectContextOverride(t *testing.T) {
	path := createTestKubeconfig(t, "a", "a", "b")
	f := NewClientFactory(nil, Options{}).WithClientsetBuilder(fakeBuilder(fake.NewSimpleClientset(), nil))

	client, err := f.ConnectContext(context.Background(), path, "b")
	require.NoError(t, err)
	assert.Equal(t, "b", client.Context)
	assert.Equal(t, "https://b.example.com", client.Host)

	_, err = f.ConnectContext(context.Background(), path, "missing")
	assert.ErrorIs(t, err, kubeconfig.ErrClientCreation)
}

func TestClientFactory_ConnectDoesNotTouchEnv(t *testing.T) {
	t.Setenv("KUBECONFIG", "/untouched")
	path := createTestKubeconfig(t, "a", "a")

	f := NewClientFactory(nil, Options{}).WithClientsetBuilder(fakeBuilder(fake.NewSimpleClientset(), nil))
	_, err := f.Connect(context.Background(), path)
	require.NoError(t, err)

	assert.Equal(t, "/untouched", os.Getenv("KUBECONFIG"))
}

func TestClientFactory_ConnectErrors(t *testing.T) {
	valid := createTestKubeconfig(t, "a", "a")
	noContext := createTestKubeconfig(t, "", "a")

	unreachable := fake.NewSimpleClientset()
	unreachable.PrependReactor("get", "version", func(k8stesting.Action) (bool, runtime.Object, error) {
		return true, nil, errors.New("connection refused")
	})

	cancelled, cancel := context.WithCancel(context.Background())
	cancel()

	tests := []struct {
		name     string
		ctx      context.Context
		selector string
		builder  ClientsetBuilder
		verify   bool
		wantErr  error
	}{
		{
			name:     "unknown selector",
			ctx:      context.Background(),
			selector: "nope",
			wantErr:  kubeconfig.ErrNotFound,
		},
		{
			name:     "no current context",
			ctx:      context.Background(),
			selector: noContext,
			wantErr:  kubeconfig.ErrClientCreation,
		},
		{
			name:     "clientset construction fails",
			ctx:      context.Background(),
			selector: valid,
			builder: func(*rest.Config) (kubernetes.Interface, error) {
				return nil, errors.New("bad transport")
			},
			wantErr: kubeconfig.ErrClientCreation,
		},
		{
			name:     "api server unreachable",
			ctx:      context.Background(),
			selector: valid,
			builder:  fakeBuilder(unreachable, nil),
			verify:   true,
			wantErr:  kubeconfig.ErrClientCreation,
		},
		{
			name:     "context cancelled",
			ctx:      cancelled,
			selector: valid,
			wantErr:  kubeconfig.ErrClientCreation,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			builder := tt.builder
			if builder == nil {
				builder = fakeBuilder(fake.NewSimpleClientset(), nil)
			}
			f := NewClientFactory(kubeconfig.NewRegistry(), Options{VerifyConnection: tt.verify}).WithClientsetBuilder(builder)

			client, err := f.Connect(tt.ctx, tt.selector)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Nil(t, client)
		})
	}
}
