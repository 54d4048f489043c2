package logging

import (
	"time"
)

// Time runs fn and logs its duration at debug level. A non-nil error from fn
// is logged alongside and returned unchanged.
//
// Example:
//
//	err := logging.Time("connect", func() error {
//	    return probe(ctx)
//	}, "selector", selector)
func Time(name string, fn func() error, args ...any) error {
	l := Get()
	if !l.IsEnabled() {
		return fn()
	}

	start := time.Now()
	err := fn()
	l.logDuration(name, time.Since(start), err, args)
	return err
}

// TimeWithResult is Time for functions that also return a value
//
// Example:
//
//	workloads, err := logging.TimeWithResult("list workloads", func() ([]Workload, error) {
//	    return repo.ListWorkloads(ctx, client, ns)
//	})
func TimeWithResult[T any](name string, fn func() (T, error), args ...any) (T, error) {
	l := Get()
	if !l.IsEnabled() {
		return fn()
	}

	start := time.Now()
	result, err := fn()
	l.logDuration(name, time.Since(start), err, args)
	return result, err
}

func (l *Logger) logDuration(name string, d time.Duration, err error, args []any) {
	attrs := make([]any, 0, len(args)+6)
	attrs = append(attrs, args...)
	attrs = append(attrs, "duration", d.String(), "ms", d.Milliseconds())
	if err != nil {
		attrs = append(attrs, "error", err)
	}
	l.Debug(name, attrs...)
}
