package k8s

import (
	"sort"
	"time"

	"github.com/renato0307/kboard/internal/quantity"
	"github.com/renato0307/kboard/internal/status"
)

// ResourceMetadata contains common fields shared by all view models
type ResourceMetadata struct {
	Namespace string
	Name      string
	Age       time.Duration
	CreatedAt time.Time
}

func (r ResourceMetadata) GetNamespace() string    { return r.Namespace }
func (r ResourceMetadata) GetName() string         { return r.Name }
func (r ResourceMetadata) GetAge() time.Duration   { return r.Age }
func (r ResourceMetadata) GetCreatedAt() time.Time { return r.CreatedAt }

// Resource is implemented by every view model
type Resource interface {
	GetNamespace() string // "" for cluster-scoped resources
	GetName() string
	GetAge() time.Duration
	GetCreatedAt() time.Time
}

// Workload is one Deployment, StatefulSet, DaemonSet, Job or CronJob reduced
// for display
type Workload struct {
	ResourceMetadata
	Kind     status.Kind
	Status   status.Status
	Ready    string
	Snapshot status.Snapshot

	// CPURequest (cores) and MemoryRequest (GiB) are summed over the pod
	// template's containers, per replica
	CPURequest    quantity.Quantity
	MemoryRequest quantity.Quantity

	Images   []string
	Schedule string // CronJob only
}

// Ref returns "kind/namespace/name"
func (w Workload) Ref() string {
	return string(w.Kind) + "/" + w.Namespace + "/" + w.Name
}

// Node is a node with allocatable capacity and the requests scheduled on it
type Node struct {
	ResourceMetadata
	Status        string
	Roles         []string
	Version       string
	Unschedulable bool
	Pods          int

	// CPU in cores; memory and storage in GiB
	CPUAllocatable     quantity.Quantity
	MemoryAllocatable  quantity.Quantity
	StorageAllocatable quantity.Quantity
	CPURequested       quantity.Quantity
	MemoryRequested    quantity.Quantity

	CPUPercent    float64
	MemoryPercent float64
	Hotspot       bool
}

// sortByCreationTime orders newest first, then by namespace and name
func sortByCreationTime[T Resource](items []T) {
	sort.SliceStable(items, func(i, j int) bool {
		ci, cj := items[i].GetCreatedAt(), items[j].GetCreatedAt()
		if !ci.Equal(cj) {
			return ci.After(cj)
		}
		if items[i].GetNamespace() != items[j].GetNamespace() {
			return items[i].GetNamespace() < items[j].GetNamespace()
		}
		return items[i].GetName() < items[j].GetName()
	})
}
