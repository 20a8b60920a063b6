package certcache

import "time"

// Status describes the freshness of an engine's published list.
type Status struct {
	Issuer       string
	Certificates int
	// LoadedFrom is "snapshot" or "source" for the published list, and empty
	// before the first successful refresh.
	LoadedFrom  string
	LastAttempt time.Time
	LastSuccess time.Time
	LastError   error
	NextRefresh time.Time
}

// Age returns how long ago the published list was loaded, or 0 when no list
// was ever loaded.
func (s Status) Age(now time.Time) time.Duration {
	if s.LastSuccess.IsZero() {
		return 0
	}
	return now.Sub(s.LastSuccess)
}

// Status returns a snapshot of the engine's refresh state. A cache whose
// source keeps failing is visible as a growing Age.
func (e *Engine) Status() Status {
	return Status{
		Issuer:       e.issuer,
		Certificates: len(e.Certificates()),
		LoadedFrom:   e.loadedFrom.Load(),
		LastAttempt:  e.lastAttempt.Load(),
		LastSuccess:  e.lastSuccess.Load(),
		LastError:    e.lastError.Load(),
		NextRefresh:  e.nextRefresh.Load(),
	}
}
