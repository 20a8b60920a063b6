// Package crashreport sends errors and panics from background work to Sentry.
// Every function is a no-op when Sentry was not initialized.
package crashreport

import (
	"fmt"
	"time"

	"github.com/getsentry/sentry-go"

	"github.com/infrahq/trustlist/internal/logging"
)

// Init configures the global Sentry client. An empty dsn disables reporting.
func Init(dsn, release string) error {
	if dsn == "" {
		return nil
	}

	err := sentry.Init(sentry.ClientOptions{
		Dsn:              dsn,
		Release:          release,
		AttachStacktrace: true,
	})
	if err != nil {
		return fmt.Errorf("initializing sentry: %w", err)
	}
	return nil
}

// Flush waits for buffered events to be sent.
func Flush() {
	sentry.Flush(5 * time.Second)
}

// NewHub returns a hub for a goroutine, tagged with name.
func NewHub(name string) *sentry.Hub {
	hub := sentry.CurrentHub().Clone()
	hub.ConfigureScope(func(scope *sentry.Scope) {
		scope.SetTag("goroutine", name)
	})

	return hub
}

// CaptureError reports err with tags on hub.
func CaptureError(hub *sentry.Hub, err error, tags map[string]string) {
	if hub == nil || hub.Client() == nil || err == nil {
		return
	}

	hub.WithScope(func(scope *sentry.Scope) {
		scope.SetTags(tags)
		hub.CaptureException(err)
	})
}

// Recover must be deferred. It reports and logs a panic and lets the
// goroutine continue.
func Recover(hub *sentry.Hub, task string) {
	err := recover()
	if err == nil {
		return
	}

	logging.Errorf("%s panic: %v", task, err)
	if hub != nil && hub.Client() != nil {
		hub.Recover(err)
		sentry.Flush(time.Second * 5)
	}
}
