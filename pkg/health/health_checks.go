package health

import (
	"runtime"
)

// SimpleCheck creates a check that always reports healthy
func SimpleCheck(name string) CheckFunc {
	return func() Check {
		return Check{Name: name, Status: StatusHealthy}
	}
}

// ErrorCheck reports unhealthy whenever fn returns an error. Used for
// preconditions such as the configured defaults being valid.
func ErrorCheck(name string, fn func() error) CheckFunc {
	return func() Check {
		check := Check{Name: name, Status: StatusHealthy}
		if err := fn(); err != nil {
			check.Status = StatusUnhealthy
			check.Message = err.Error()
		}
		return check
	}
}

// ActiveRunsCheck reports how many simulations are executing. The service
// is degraded once the count reaches limit; a limit of zero disables the
// threshold.
func ActiveRunsCheck(active func() int64, limit int64) CheckFunc {
	return func() Check {
		n := active()
		check := Check{
			Name:    "active_runs",
			Status:  StatusHealthy,
			Details: map[string]any{"active": n, "limit": limit},
		}
		if limit > 0 && n >= limit {
			check.Status = StatusDegraded
			check.Message = "At run capacity"
		}
		return check
	}
}

// MemoryCheck creates a health check for heap usage
func MemoryCheck(getUsage func() (alloc, sys uint64)) CheckFunc {
	return func() Check {
		check := Check{
			Name:    "memory",
			Details: make(map[string]any),
		}

		alloc, sys := getUsage()

		check.Details["alloc_bytes"] = alloc
		check.Details["sys_bytes"] = sys

		usagePercent := 0.0
		if sys > 0 {
			usagePercent = float64(alloc) / float64(sys) * 100
		}

		if usagePercent > 90 {
			check.Status = StatusDegraded
			check.Message = "High memory usage"
		} else {
			check.Status = StatusHealthy
			check.Message = "Memory usage normal"
		}

		return check
	}
}

// RuntimeMemory reads heap figures from the Go runtime for MemoryCheck.
func RuntimeMemory() (alloc, sys uint64) {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	return m.HeapAlloc, m.HeapSys
}
