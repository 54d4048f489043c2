//go:build integration

package k8s

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	appsv1 "k8s.io/api/apps/v1"
	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/utils/ptr"
	"sigs.k8s.io/controller-runtime/pkg/envtest"

	"github.com/renato0307/kboard/internal/kubeconfig"
	"github.com/renato0307/kboard/internal/status"
)

var (
	testEnv        *envtest.Environment
	testKubeconfig []byte
)

// TestMain starts one envtest control plane for the whole package
func TestMain(m *testing.M) {
	testEnv = &envtest.Environment{}

	if _, err := testEnv.Start(); err != nil {
		fmt.Printf("Failed to start envtest: %v\n", err)
		os.Exit(1)
	}

	user, err := testEnv.AddUser(envtest.User{Name: "kboard", Groups: []string{"system:masters"}}, nil)
	if err == nil {
		testKubeconfig, err = user.KubeConfig()
	}
	if err != nil {
		fmt.Printf("Failed to create envtest user: %v\n", err)
		_ = testEnv.Stop()
		os.Exit(1)
	}

	code := m.Run()

	if err := testEnv.Stop(); err != nil {
		fmt.Printf("Failed to stop envtest: %v\n", err)
		os.Exit(1)
	}
	os.Exit(code)
}

// connectTestCluster imports the envtest kubeconfig under name and connects
func connectTestCluster(t *testing.T, name string) *Client {
	t.Helper()

	store, err := kubeconfig.NewStore(t.TempDir())
	require.NoError(t, err)
	_, err = store.ImportBytes(name, testKubeconfig)
	require.NoError(t, err)

	f := NewClientFactory(store.Registry(), Options{
		QPS:              50,
		Burst:            100,
		Timeout:          30 * time.Second,
		VerifyConnection: true,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	client, err := f.Connect(ctx, name)
	require.NoError(t, err)
	return client
}

// createTestNamespace creates a unique namespace for test isolation
func createTestNamespace(t *testing.T, client *Client) string {
	t.Helper()

	created, err := client.Clientset.CoreV1().Namespaces().Create(context.Background(),
		&corev1.Namespace{ObjectMeta: metav1.ObjectMeta{GenerateName: "test-"}},
		metav1.CreateOptions{})
	require.NoError(t, err, "Failed to create test namespace")

	t.Cleanup(func() {
		_ = client.Clientset.CoreV1().Namespaces().Delete(context.Background(), created.Name, metav1.DeleteOptions{})
	})
	return created.Name
}

func TestIntegration_ConnectAndList(t *testing.T) {
	client := connectTestCluster(t, "envtest")
	assert.NotEmpty(t, client.ServerVersion)
	assert.NotEmpty(t, client.Host)

	ns := createTestNamespace(t, client)
	labels := map[string]string{"app": "web"}
	_, err := client.Clientset.AppsV1().Deployments(ns).Create(context.Background(), &appsv1.Deployment{
		ObjectMeta: metav1.ObjectMeta{Name: "web"},
		Spec: appsv1.DeploymentSpec{
			Replicas: ptr.To[int32](0),
			Selector: &metav1.LabelSelector{MatchLabels: labels},
			Template: corev1.PodTemplateSpec{
				ObjectMeta: metav1.ObjectMeta{Labels: labels},
				Spec: corev1.PodSpec{Containers: []corev1.Container{{Name: "app", Image: "nginx:1.27"}}},
			},
		},
	}, metav1.CreateOptions{})
	require.NoError(t, err)

	repo := NewWorkloadRepository(0)
	workloads, err := repo.ListWorkloads(context.Background(), client, ns)
	require.NoError(t, err)
	require.Len(t, workloads, 1)
	assert.Equal(t, status.KindDeployment, workloads[0].Kind)
	assert.Equal(t, status.ScaledDown, workloads[0].Status)

	out, err := repo.ResourceYAML(context.Background(), client, "Deployment", ns, "web")
	require.NoError(t, err)
	assert.Contains(t, out, "kind: Deployment")

	described, err := repo.Describe(client, "Deployment", ns, "web")
	require.NoError(t, err)
	assert.Contains(t, described, "Name:")
	assert.Contains(t, described, "web")
}

func TestIntegration_ReloaderSwitches(t *testing.T) {
	store, err := kubeconfig.NewStore(t.TempDir())
	require.NoError(t, err)
	for _, name := range []string{"first", "second"} {
		_, err := store.ImportBytes(name, testKubeconfig)
		require.NoError(t, err)
	}

	r := NewReloader(NewClientFactory(store.Registry(), Options{VerifyConnection: true}))
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = r.Run(ctx) }()

	r.Select("first")
	r.Select("second")

	deadline := time.After(30 * time.Second)
	for {
		select {
		case ev := <-r.Events():
			require.NoError(t, ev.Err)
			if ev.Selector != "second" {
				continue
			}
			selector, client := r.Current()
			assert.Equal(t, "second", selector)
			assert.Same(t, ev.Client, client)
			return
		case <-deadline:
			t.Fatal("reloader never connected to the second selection")
		}
	}
}
