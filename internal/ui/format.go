package ui

import (
	"cmp"
	"fmt"
	"slices"
	"strings"
	"time"

	"k8s.io/apimachinery/pkg/util/duration"

	"github.com/renato0307/kboard/internal/k8s"
	"github.com/renato0307/kboard/internal/status"
)

// FormatAge renders an age the way kubectl does (5m, 3h12m, 4d)
func FormatAge(d time.Duration) string {
	if d <= 0 {
		return "0s"
	}
	return duration.HumanDuration(d)
}

// FormatCores renders CPU cores, switching to millicores below one core
func FormatCores(cores float64) string {
	if cores == 0 {
		return "-"
	}
	if cores < 1 {
		return fmt.Sprintf("%.0fm", cores*1000)
	}
	return fmt.Sprintf("%.2f", cores)
}

// FormatGiB renders a GiB amount, switching to MiB below one GiB
func FormatGiB(gib float64) string {
	if gib == 0 {
		return "-"
	}
	if gib < 1 {
		return fmt.Sprintf("%.0fMi", gib*1024)
	}
	return fmt.Sprintf("%.1fGi", gib)
}

// FormatPercent renders a percentage with no decimals
func FormatPercent(p float64) string {
	return fmt.Sprintf("%.0f%%", p)
}

// WorkloadRow is the table row for a workload
func WorkloadRow(w k8s.Workload) []string {
	return []string{
		w.Namespace,
		string(w.Kind),
		w.Name,
		w.Ready,
		string(w.Status),
		FormatCores(w.CPURequest.Value),
		FormatGiB(w.MemoryRequest.Value),
		FormatAge(w.Age),
	}
}

// NodeRow is the table row for a node. Hotspots get a leading marker.
func NodeRow(n k8s.Node) []string {
	name := n.Name
	if n.Hotspot {
		name = "▲ " + name
	}
	roles := strings.Join(n.Roles, ",")
	if roles == "" {
		roles = "<none>"
	}
	nodeStatus := n.Status
	if n.Unschedulable {
		nodeStatus += ",SchedulingDisabled"
	}
	return []string{
		name,
		nodeStatus,
		roles,
		fmt.Sprintf("%d", n.Pods),
		FormatCores(n.CPURequested.Value) + "/" + FormatCores(n.CPUAllocatable.Value),
		FormatPercent(n.CPUPercent),
		FormatGiB(n.MemoryRequested.Value) + "/" + FormatGiB(n.MemoryAllocatable.Value),
		FormatPercent(n.MemoryPercent),
		n.Version,
		FormatAge(n.Age),
	}
}

// WorkloadHeaders and NodeHeaders title the columns of WorkloadRow and NodeRow
var (
	WorkloadHeaders = []string{"NAMESPACE", "KIND", "NAME", "READY", "STATUS", "CPU", "MEMORY", "AGE"}
	NodeHeaders     = []string{"NAME", "STATUS", "ROLES", "PODS", "CPU", "CPU%", "MEMORY", "MEM%", "VERSION", "AGE"}
)

// StatusSummary counts workloads per status, worst severity first, each
// count colored by its severity
func StatusSummary(theme *Theme, workloads []k8s.Workload) string {
	counts := make(map[status.Status]int)
	for _, w := range workloads {
		counts[w.Status]++
	}
	keys := make([]status.Status, 0, len(counts))
	for s := range counts {
		keys = append(keys, s)
	}
	slices.SortFunc(keys, func(a, b status.Status) int {
		if c := cmp.Compare(b.Severity(), a.Severity()); c != 0 {
			return c
		}
		return cmp.Compare(a, b)
	})

	parts := make([]string, len(keys))
	for i, s := range keys {
		parts[i] = theme.StatusStyle(s).Render(fmt.Sprintf("%s %d", s, counts[s]))
	}
	return strings.Join(parts, " · ")
}
