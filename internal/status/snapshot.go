package status

import (
	appsv1 "k8s.io/api/apps/v1"
	batchv1 "k8s.io/api/batch/v1"
)

// FromDeployment projects a deployment. A nil object or unset replicas count
// as zero.
func FromDeployment(d *appsv1.Deployment) Snapshot {
	if d == nil {
		return Snapshot{}
	}

	conditions := make([]Condition, 0, len(d.Status.Conditions))
	for _, c := range d.Status.Conditions {
		conditions = append(conditions, Condition{
			Type:   string(c.Type),
			Status: string(c.Status),
			Reason: c.Reason,
		})
	}

	return Snapshot{
		Desired:    deref(d.Spec.Replicas),
		Ready:      d.Status.ReadyReplicas,
		Current:    d.Status.Replicas,
		Updated:    d.Status.UpdatedReplicas,
		Available:  d.Status.AvailableReplicas,
		Paused:     d.Spec.Paused,
		Conditions: conditions,
	}
}

// FromStatefulSet projects a statefulset
func FromStatefulSet(s *appsv1.StatefulSet) Snapshot {
	if s == nil {
		return Snapshot{}
	}

	conditions := make([]Condition, 0, len(s.Status.Conditions))
	for _, c := range s.Status.Conditions {
		conditions = append(conditions, Condition{
			Type:   string(c.Type),
			Status: string(c.Status),
			Reason: c.Reason,
		})
	}

	return Snapshot{
		Desired:         deref(s.Spec.Replicas),
		Ready:           s.Status.ReadyReplicas,
		Current:         s.Status.CurrentReplicas,
		Updated:         s.Status.UpdatedReplicas,
		Available:       s.Status.AvailableReplicas,
		CurrentRevision: s.Status.CurrentRevision,
		UpdateRevision:  s.Status.UpdateRevision,
		Conditions:      conditions,
	}
}

// FromDaemonSet projects a daemonset
func FromDaemonSet(ds *appsv1.DaemonSet) Snapshot {
	if ds == nil {
		return Snapshot{}
	}

	conditions := make([]Condition, 0, len(ds.Status.Conditions))
	for _, c := range ds.Status.Conditions {
		conditions = append(conditions, Condition{
			Type:   string(c.Type),
			Status: string(c.Status),
			Reason: c.Reason,
		})
	}

	return Snapshot{
		Desired:    ds.Status.DesiredNumberScheduled,
		Ready:      ds.Status.NumberReady,
		Current:    ds.Status.CurrentNumberScheduled,
		Updated:    ds.Status.UpdatedNumberScheduled,
		Available:  ds.Status.NumberAvailable,
		Conditions: conditions,
	}
}

// FromJob projects a job
func FromJob(j *batchv1.Job) Snapshot {
	if j == nil {
		return Snapshot{}
	}

	conditions := make([]Condition, 0, len(j.Status.Conditions))
	for _, c := range j.Status.Conditions {
		conditions = append(conditions, Condition{
			Type:   string(c.Type),
			Status: string(c.Status),
			Reason: c.Reason,
		})
	}

	return Snapshot{
		Desired:    deref(j.Spec.Completions),
		Ready:      deref(j.Status.Ready),
		Active:     j.Status.Active,
		Succeeded:  j.Status.Succeeded,
		Failed:     j.Status.Failed,
		Suspended:  j.Spec.Suspend != nil && *j.Spec.Suspend,
		Conditions: conditions,
	}
}

// FromCronJob projects a cronjob. Active is the number of running jobs.
func FromCronJob(cj *batchv1.CronJob) Snapshot {
	if cj == nil {
		return Snapshot{}
	}

	return Snapshot{
		Active:    int32(len(cj.Status.Active)),
		Suspended: cj.Spec.Suspend != nil && *cj.Spec.Suspend,
	}
}

func deref(v *int32) int32 {
	if v == nil {
		return 0
	}
	return *v
}
