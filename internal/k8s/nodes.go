package k8s

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"
	corev1 "k8s.io/api/core/v1"
	"k8s.io/apimachinery/pkg/api/resource"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"

	"github.com/renato0307/kboard/internal/logging"
	"github.com/renato0307/kboard/internal/quantity"
)

const nodeRolePrefix = "node-role.kubernetes.io/"

// nodeUsage accumulates the requests of pods bound to a node
type nodeUsage struct {
	cpu  resource.Quantity
	mem  resource.Quantity
	pods int
}

// ListNodes returns every node with its allocatable capacity, the CPU and
// memory requested by its non-terminated pods, and the hotspot flag
func (r *WorkloadRepository) ListNodes(ctx context.Context, client *Client) ([]Node, error) {
	if client == nil || client.Clientset == nil {
		return nil, ErrNoClient
	}

	return logging.TimeWithResult("list nodes", func() ([]Node, error) {
		var (
			nodes *corev1.NodeList
			pods  *corev1.PodList
		)

		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			var err error
			nodes, err = client.Clientset.CoreV1().Nodes().List(gctx, metav1.ListOptions{})
			if err != nil {
				return fmt.Errorf("error listing nodes: %w", err)
			}
			return nil
		})
		g.Go(func() error {
			var err error
			pods, err = client.Clientset.CoreV1().Pods(metav1.NamespaceAll).List(gctx, metav1.ListOptions{
				FieldSelector: "status.phase!=Succeeded,status.phase!=Failed",
			})
			if err != nil {
				return fmt.Errorf("error listing pods: %w", err)
			}
			return nil
		})
		if err := g.Wait(); err != nil {
			return nil, err
		}

		usage := make(map[string]*nodeUsage)
		for i := range pods.Items {
			p := &pods.Items[i]
			if p.Spec.NodeName == "" || terminated(p) {
				continue
			}
			u, ok := usage[p.Spec.NodeName]
			if !ok {
				u = &nodeUsage{}
				usage[p.Spec.NodeName] = u
			}
			cpu, mem := podRequests(&p.Spec)
			u.cpu.Add(cpu)
			u.mem.Add(mem)
			u.pods++
		}

		now := r.now()
		out := make([]Node, 0, len(nodes.Items))
		for i := range nodes.Items {
			out = append(out, r.newNode(now, &nodes.Items[i], usage[nodes.Items[i].Name]))
		}

		sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
		return out, nil
	}, "selector", client.Selector)
}

func (r *WorkloadRepository) newNode(now time.Time, n *corev1.Node, u *nodeUsage) Node {
	if u == nil {
		u = &nodeUsage{}
	}
	alloc := n.Status.Allocatable

	node := Node{
		ResourceMetadata: ResourceMetadata{
			Name:      n.Name,
			Age:       now.Sub(n.CreationTimestamp.Time),
			CreatedAt: n.CreationTimestamp.Time,
		},
		Status:             nodeStatus(n),
		Roles:              nodeRoles(n),
		Version:            n.Status.NodeInfo.KubeletVersion,
		Unschedulable:      n.Spec.Unschedulable,
		Pods:               u.pods,
		CPUAllocatable:     quantity.FromCPU(alloc[corev1.ResourceCPU]),
		MemoryAllocatable:  quantity.FromMemory(alloc[corev1.ResourceMemory]),
		StorageAllocatable: quantity.FromStorage(alloc[corev1.ResourceEphemeralStorage]),
		CPURequested:       quantity.FromCPU(u.cpu),
		MemoryRequested:    quantity.FromMemory(u.mem),
	}
	node.CPUPercent = quantity.Pct(node.CPURequested.Value, node.CPUAllocatable.Value)
	node.MemoryPercent = quantity.Pct(node.MemoryRequested.Value, node.MemoryAllocatable.Value)
	node.Hotspot = node.CPUPercent >= r.hotspotThreshold || node.MemoryPercent >= r.hotspotThreshold
	if node.Hotspot {
		logging.Debug("node over request threshold", "node", node.Name,
			"cpu", node.CPURequested.String()+" of "+node.CPUAllocatable.String(),
			"memory", node.MemoryRequested.String()+" of "+node.MemoryAllocatable.String())
	}
	return node
}

// podRequests follows the scheduler's rule: the larger of the summed app
// containers and the largest init container, plus pod overhead
func podRequests(spec *corev1.PodSpec) (cpu, mem resource.Quantity) {
	cpu, mem = templateRequests(spec)

	for _, c := range spec.InitContainers {
		initCPU := c.Resources.Requests[corev1.ResourceCPU]
		initMem := c.Resources.Requests[corev1.ResourceMemory]
		// restartable init containers (sidecars) run alongside the app
		if c.RestartPolicy != nil && *c.RestartPolicy == corev1.ContainerRestartPolicyAlways {
			cpu.Add(initCPU)
			mem.Add(initMem)
			continue
		}
		if initCPU.Cmp(cpu) > 0 {
			cpu = initCPU.DeepCopy()
		}
		if initMem.Cmp(mem) > 0 {
			mem = initMem.DeepCopy()
		}
	}

	cpu.Add(spec.Overhead[corev1.ResourceCPU])
	mem.Add(spec.Overhead[corev1.ResourceMemory])
	return cpu, mem
}

// terminated reports pods that no longer hold their requests. The field
// selector on the list already excludes them on a real API server.
func terminated(p *corev1.Pod) bool {
	return p.Status.Phase == corev1.PodSucceeded || p.Status.Phase == corev1.PodFailed
}

func nodeStatus(n *corev1.Node) string {
	for _, c := range n.Status.Conditions {
		if c.Type != corev1.NodeReady {
			continue
		}
		switch c.Status {
		case corev1.ConditionTrue:
			return "Ready"
		case corev1.ConditionFalse:
			return "NotReady"
		}
	}
	return "Unknown"
}

func nodeRoles(n *corev1.Node) []string {
	var roles []string
	for label := range n.Labels {
		if role, ok := strings.CutPrefix(label, nodeRolePrefix); ok && role != "" {
			roles = append(roles, role)
		}
	}
	sort.Strings(roles)
	return roles
}
