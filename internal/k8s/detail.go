package k8s

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/runtime"
	"k8s.io/apimachinery/pkg/runtime/schema"
	"k8s.io/cli-runtime/pkg/printers"
	"k8s.io/client-go/kubernetes/scheme"
	"k8s.io/kubectl/pkg/describe"
)

// KindNode addresses nodes in the detail views
const KindNode = "Node"

var groupKinds = map[string]schema.GroupKind{
	"Deployment":  {Group: "apps", Kind: "Deployment"},
	"StatefulSet": {Group: "apps", Kind: "StatefulSet"},
	"DaemonSet":   {Group: "apps", Kind: "DaemonSet"},
	"Job":         {Group: "batch", Kind: "Job"},
	"CronJob":     {Group: "batch", Kind: "CronJob"},
	KindNode:      {Kind: "Node"},
}

// ResourceYAML fetches one object and renders it the way kubectl -o yaml does,
// without managed fields
func (r *WorkloadRepository) ResourceYAML(ctx context.Context, client *Client, kind, namespace, name string) (string, error) {
	if client == nil || client.Clientset == nil {
		return "", ErrNoClient
	}

	obj, err := r.get(ctx, client, kind, namespace, name)
	if err != nil {
		return "", err
	}

	if accessor, ok := obj.(metav1.Object); ok {
		accessor.SetManagedFields(nil)
	}

	// TypeSetter restores apiVersion/kind, which typed clients drop
	printer := printers.NewTypeSetter(scheme.Scheme).ToPrinter(&printers.YAMLPrinter{})

	var buf bytes.Buffer
	if err := printer.PrintObj(obj, &buf); err != nil {
		return "", fmt.Errorf("failed to print YAML: %w", err)
	}
	return buf.String(), nil
}

// Describe returns kubectl describe output for one object, events included
func (r *WorkloadRepository) Describe(client *Client, kind, namespace, name string) (string, error) {
	if client == nil || client.RESTConfig == nil {
		return "", ErrNoClient
	}

	gk, ok := groupKinds[kind]
	if !ok {
		return "", fmt.Errorf("unsupported kind %q", kind)
	}

	describer, ok := describe.DescriberFor(gk, client.RESTConfig)
	if !ok {
		return "", fmt.Errorf("no describer for %s", gk)
	}

	out, err := describer.Describe(namespace, name, describe.DescriberSettings{
		ShowEvents: true,
		ChunkSize:  500,
	})
	if err != nil {
		return "", fmt.Errorf("failed to describe %s %s/%s: %w", kind, namespace, name, err)
	}
	return out, nil
}

func (r *WorkloadRepository) get(ctx context.Context, client *Client, kind, namespace, name string) (runtime.Object, error) {
	cs := client.Clientset
	opts := metav1.GetOptions{}

	var (
		obj runtime.Object
		err error
	)
	switch kind {
	case "Deployment":
		obj, err = cs.AppsV1().Deployments(namespace).Get(ctx, name, opts)
	case "StatefulSet":
		obj, err = cs.AppsV1().StatefulSets(namespace).Get(ctx, name, opts)
	case "DaemonSet":
		obj, err = cs.AppsV1().DaemonSets(namespace).Get(ctx, name, opts)
	case "Job":
		obj, err = cs.BatchV1().Jobs(namespace).Get(ctx, name, opts)
	case "CronJob":
		obj, err = cs.BatchV1().CronJobs(namespace).Get(ctx, name, opts)
	case KindNode:
		obj, err = cs.CoreV1().Nodes().Get(ctx, name, opts)
	default:
		return nil, errors.New("unsupported kind " + kind)
	}
	if err != nil {
		return nil, fmt.Errorf("resource not found: %w", err)
	}
	return obj, nil
}
