// Package status collapses the replica counters, flags and conditions of
// workload objects into one canonical lifecycle tag per object.
//
// Every classifier is total and evaluates its rules top to bottom; the first
// rule that matches decides the tag.
package status

// Status is a canonical lifecycle tag
type Status string

const (
	ScaledDown    Status = "ScaledDown"
	Progressing   Status = "Progressing"
	Available     Status = "Available"
	Degraded      Status = "Degraded"
	Unknown       Status = "Unknown"
	NoNodes       Status = "NoNodes"
	Running       Status = "Running"
	NotReady      Status = "NotReady"
	RollingUpdate Status = "RollingUpdate"
	Succeeded     Status = "Succeeded"
	Failed        Status = "Failed"
	Active        Status = "Active"
	Pending       Status = "Pending"
	Suspended     Status = "Suspended"
	Scheduled     Status = "Scheduled"
)

// Kind identifies a workload kind with its own classifier
type Kind string

const (
	KindDeployment  Kind = "Deployment"
	KindStatefulSet Kind = "StatefulSet"
	KindDaemonSet   Kind = "DaemonSet"
	KindJob         Kind = "Job"
	KindCronJob     Kind = "CronJob"
)

// Kinds lists every classified kind in display order
var Kinds = []Kind{KindDeployment, KindStatefulSet, KindDaemonSet, KindJob, KindCronJob}

// Condition is the {type, status, reason} triple of a status condition
type Condition struct {
	Type   string
	Status string
	Reason string
}

// Snapshot is the subset of a workload's spec and status the classifiers read.
// Fields a kind does not have stay zero.
type Snapshot struct {
	Desired   int32
	Ready     int32
	Current   int32
	Updated   int32
	Available int32

	Active    int32
	Succeeded int32
	Failed    int32

	Suspended bool
	Paused    bool

	CurrentRevision string
	UpdateRevision  string

	Conditions []Condition
}

const (
	conditionProgressing    = "Progressing"
	conditionAvailable      = "Available"
	conditionReplicaFailure = "ReplicaFailure"
	conditionTrue           = "True"
)

// hasCondition reports whether a condition of type t has status True
func (s Snapshot) hasCondition(t string) bool {
	for _, c := range s.Conditions {
		if c.Type == t && c.Status == conditionTrue {
			return true
		}
	}
	return false
}

// replicaFailure reports a Progressing condition with reason ReplicaFailure.
// A separate ReplicaFailure-type condition does not count.
func (s Snapshot) replicaFailure() bool {
	for _, c := range s.Conditions {
		if c.Type == conditionProgressing && c.Reason == conditionReplicaFailure {
			return true
		}
	}
	return false
}

// Deployment classifies a deployment snapshot
func Deployment(s Snapshot) Status {
	if s.Desired == 0 {
		return ScaledDown
	}

	progressing := s.hasCondition(conditionProgressing)
	available := s.hasCondition(conditionAvailable)

	if s.replicaFailure() || (!progressing && !available) {
		return Degraded
	}
	if available && progressing && s.Updated == s.Desired && s.Available == s.Desired {
		return Available
	}
	return Progressing
}

// DaemonSet classifies a daemonset snapshot
func DaemonSet(s Snapshot) Status {
	switch {
	case s.Desired == 0:
		return NoNodes
	case s.Ready == s.Desired && s.Current == s.Desired && s.Updated == s.Desired:
		return Running
	case s.Ready < s.Desired && s.Ready == 0:
		return NotReady
	case s.Ready < s.Desired:
		return Progressing
	default:
		return Unknown
	}
}

// StatefulSet classifies a statefulset snapshot. Revisions are compared as
// opaque strings.
func StatefulSet(s Snapshot) Status {
	switch {
	case s.Desired == 0:
		return ScaledDown
	case s.CurrentRevision != s.UpdateRevision:
		return RollingUpdate
	case (s.Ready < s.Desired || s.Current < s.Desired) && s.Ready == 0:
		return Degraded
	case s.Ready < s.Desired || s.Current < s.Desired:
		return Progressing
	case s.Ready == s.Desired && s.Current == s.Desired:
		return Available
	default:
		return Unknown
	}
}

// Job classifies a job snapshot. Succeeded wins over Failed, which wins over
// Active, whatever the other counters say.
func Job(s Snapshot) Status {
	switch {
	case s.Succeeded > 0:
		return Succeeded
	case s.Failed > 0:
		return Failed
	case s.Active > 0:
		return Active
	default:
		return Pending
	}
}

// CronJob classifies a cronjob snapshot
func CronJob(s Snapshot) Status {
	switch {
	case s.Suspended:
		return Suspended
	case s.Active > 0:
		return Active
	default:
		return Scheduled
	}
}

// Classify dispatches to the classifier for kind. Unknown kinds map to Unknown.
func Classify(kind Kind, s Snapshot) Status {
	switch kind {
	case KindDeployment:
		return Deployment(s)
	case KindStatefulSet:
		return StatefulSet(s)
	case KindDaemonSet:
		return DaemonSet(s)
	case KindJob:
		return Job(s)
	case KindCronJob:
		return CronJob(s)
	default:
		return Unknown
	}
}

// Severity groups tags for styling and filtering
type Severity int

const (
	SeverityNeutral Severity = iota
	SeverityOK
	SeverityWarning
	SeverityError
)

// String returns the lowercase severity name
func (s Severity) String() string {
	switch s {
	case SeverityOK:
		return "ok"
	case SeverityWarning:
		return "warning"
	case SeverityError:
		return "error"
	default:
		return "neutral"
	}
}

// Severity returns the display severity of a tag
func (s Status) Severity() Severity {
	switch s {
	case Available, Running, Succeeded, Scheduled, Active:
		return SeverityOK
	case Progressing, RollingUpdate, Pending:
		return SeverityWarning
	case Degraded, NotReady, Failed:
		return SeverityError
	default:
		return SeverityNeutral
	}
}
