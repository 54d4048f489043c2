package k8s

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"
	corev1 "k8s.io/api/core/v1"
	"k8s.io/apimachinery/pkg/api/resource"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"

	"github.com/renato0307/kboard/internal/logging"
	"github.com/renato0307/kboard/internal/quantity"
	"github.com/renato0307/kboard/internal/status"
)

// DefaultHotspotThreshold is the request percentage that flags a node
const DefaultHotspotThreshold = 80.0

// ErrNoClient is returned when a fetch is attempted without a client
var ErrNoClient = errors.New("no active client")

// WorkloadRepository lists cluster objects through the client it is handed
// and reduces them to view models. It keeps no state between calls.
type WorkloadRepository struct {
	hotspotThreshold float64
	now              func() time.Time
}

// NewWorkloadRepository returns a repository flagging nodes whose CPU or
// memory requests reach hotspotThreshold percent. A threshold <= 0 uses
// DefaultHotspotThreshold.
func NewWorkloadRepository(hotspotThreshold float64) *WorkloadRepository {
	if hotspotThreshold <= 0 {
		hotspotThreshold = DefaultHotspotThreshold
	}
	return &WorkloadRepository{hotspotThreshold: hotspotThreshold, now: time.Now}
}

// ListWorkloads lists every classified kind in namespace ("" for all)
// concurrently and returns them newest first
func (r *WorkloadRepository) ListWorkloads(ctx context.Context, client *Client, namespace string) ([]Workload, error) {
	if client == nil || client.Clientset == nil {
		return nil, ErrNoClient
	}

	return logging.TimeWithResult("list workloads", func() ([]Workload, error) {
		perKind := make([][]Workload, len(status.Kinds))
		g, gctx := errgroup.WithContext(ctx)

		for i, kind := range status.Kinds {
			g.Go(func() error {
				items, err := r.listKind(gctx, client, kind, namespace)
				if err != nil {
					return fmt.Errorf("error listing %s: %w", kind, err)
				}
				perKind[i] = items
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return nil, err
		}

		var all []Workload
		for _, items := range perKind {
			all = append(all, items...)
		}
		sortByCreationTime(all)
		return all, nil
	}, "namespace", namespace, "selector", client.Selector)
}

func (r *WorkloadRepository) listKind(ctx context.Context, client *Client, kind status.Kind, namespace string) ([]Workload, error) {
	cs := client.Clientset
	opts := metav1.ListOptions{}
	now := r.now()

	switch kind {
	case status.KindDeployment:
		list, err := cs.AppsV1().Deployments(namespace).List(ctx, opts)
		if err != nil {
			return nil, err
		}
		out := make([]Workload, 0, len(list.Items))
		for i := range list.Items {
			d := &list.Items[i]
			snap := status.FromDeployment(d)
			out = append(out, newWorkload(now, d.ObjectMeta, kind, snap, &d.Spec.Template.Spec,
				fmt.Sprintf("%d/%d", snap.Ready, snap.Desired)))
		}
		return out, nil

	case status.KindStatefulSet:
		list, err := cs.AppsV1().StatefulSets(namespace).List(ctx, opts)
		if err != nil {
			return nil, err
		}
		out := make([]Workload, 0, len(list.Items))
		for i := range list.Items {
			s := &list.Items[i]
			snap := status.FromStatefulSet(s)
			out = append(out, newWorkload(now, s.ObjectMeta, kind, snap, &s.Spec.Template.Spec,
				fmt.Sprintf("%d/%d", snap.Ready, snap.Desired)))
		}
		return out, nil

	case status.KindDaemonSet:
		list, err := cs.AppsV1().DaemonSets(namespace).List(ctx, opts)
		if err != nil {
			return nil, err
		}
		out := make([]Workload, 0, len(list.Items))
		for i := range list.Items {
			ds := &list.Items[i]
			snap := status.FromDaemonSet(ds)
			out = append(out, newWorkload(now, ds.ObjectMeta, kind, snap, &ds.Spec.Template.Spec,
				fmt.Sprintf("%d/%d", snap.Ready, snap.Desired)))
		}
		return out, nil

	case status.KindJob:
		list, err := cs.BatchV1().Jobs(namespace).List(ctx, opts)
		if err != nil {
			return nil, err
		}
		out := make([]Workload, 0, len(list.Items))
		for i := range list.Items {
			j := &list.Items[i]
			snap := status.FromJob(j)
			completions := snap.Desired
			if completions == 0 {
				completions = 1
			}
			out = append(out, newWorkload(now, j.ObjectMeta, kind, snap, &j.Spec.Template.Spec,
				fmt.Sprintf("%d/%d", snap.Succeeded, completions)))
		}
		return out, nil

	case status.KindCronJob:
		list, err := cs.BatchV1().CronJobs(namespace).List(ctx, opts)
		if err != nil {
			return nil, err
		}
		out := make([]Workload, 0, len(list.Items))
		for i := range list.Items {
			cj := &list.Items[i]
			snap := status.FromCronJob(cj)
			w := newWorkload(now, cj.ObjectMeta, kind, snap, &cj.Spec.JobTemplate.Spec.Template.Spec,
				fmt.Sprintf("%d active", snap.Active))
			w.Schedule = cj.Spec.Schedule
			out = append(out, w)
		}
		return out, nil
	}

	return nil, fmt.Errorf("unsupported kind %q", kind)
}

func newWorkload(now time.Time, meta metav1.ObjectMeta, kind status.Kind, snap status.Snapshot, pod *corev1.PodSpec, ready string) Workload {
	cpu, mem := templateRequests(pod)
	return Workload{
		ResourceMetadata: ResourceMetadata{
			Namespace: meta.Namespace,
			Name:      meta.Name,
			Age:       now.Sub(meta.CreationTimestamp.Time),
			CreatedAt: meta.CreationTimestamp.Time,
		},
		Kind:          kind,
		Status:        status.Classify(kind, snap),
		Ready:         ready,
		Snapshot:      snap,
		CPURequest:    quantity.FromCPU(cpu),
		MemoryRequest: quantity.FromMemory(mem),
		Images:        images(pod),
	}
}

// templateRequests sums the app containers' CPU and memory requests
func templateRequests(pod *corev1.PodSpec) (cpu, mem resource.Quantity) {
	for _, c := range pod.Containers {
		cpu.Add(c.Resources.Requests[corev1.ResourceCPU])
		mem.Add(c.Resources.Requests[corev1.ResourceMemory])
	}
	return cpu, mem
}

func images(pod *corev1.PodSpec) []string {
	out := make([]string, 0, len(pod.Containers))
	for _, c := range pod.Containers {
		out = append(out, c.Image)
	}
	return out
}
