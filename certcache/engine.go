// Package certcache keeps an issuer's list of trusted signer certificates in
// memory, backed by a durable snapshot and refreshed once per day.
//
// An Engine reads the snapshot when it is initialized and only calls the
// issuer's Source when no usable snapshot exists. Every day at the configured
// wall-clock time the engine fetches the list again, persists it, and
// publishes the parsed certificates. Readers always see a complete list: the
// published slice is replaced as a whole and never modified in place.
package certcache

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/getsentry/sentry-go"
	"github.com/google/uuid"
	"go.uber.org/atomic"
	"go.uber.org/zap"

	"github.com/infrahq/trustlist/internal/crashreport"
	"github.com/infrahq/trustlist/internal/logging"
	"github.com/infrahq/trustlist/internal/repeat"
	"github.com/infrahq/trustlist/internal/timer"
	"github.com/infrahq/trustlist/metrics"
	"github.com/infrahq/trustlist/pki"
	"github.com/infrahq/trustlist/storage"
)

// ParsePolicy decides what happens to records the Parser rejects.
type ParsePolicy string

const (
	// ParseLenient skips records that cannot be parsed and publishes the rest.
	ParseLenient ParsePolicy = "lenient"
	// ParseStrict aborts the refresh when any record cannot be parsed, and
	// keeps the previously published list.
	ParseStrict ParsePolicy = "strict"
)

// Options configures an Engine. Issuer, Source and Storage are required.
type Options struct {
	// Issuer names the certificate feed, for example a country code.
	Issuer string
	// Filename is the snapshot key in Storage. Defaults to Issuer + ".json".
	Filename string

	Source  Source
	Storage storage.Storage
	// Parser defaults to pki.DSCParser.
	Parser pki.Parser

	// RefreshAt is the local wall-clock time of the daily refresh. Defaults
	// to 01:00.
	RefreshAt *timer.TimeOfDay
	// ParsePolicy defaults to ParseLenient.
	ParsePolicy ParsePolicy

	// Clock defaults to the system clock.
	Clock clock.Clock
}

// Engine is the certificate cache of one issuer. Create one with New, call
// Initialize once, and read the list with Certificates.
type Engine struct {
	issuer    string
	filename  string
	source    Source
	storage   storage.Storage
	parser    pki.Parser
	refreshAt timer.TimeOfDay
	policy    ParsePolicy
	clock     clock.Clock

	// published holds the current []pki.Certificate.
	published atomic.Value

	// slot serializes refreshes, so that at most one reads or writes the
	// snapshot and publishes a list at any time.
	slot sync.Mutex

	lastAttempt atomic.Time
	lastSuccess atomic.Time
	nextRefresh atomic.Time
	lastError   atomic.Error
	loadedFrom  atomic.String

	mu          sync.Mutex
	initialized bool
	stopped     bool
	cancel      context.CancelFunc
	done        chan struct{}

	hub *sentry.Hub
}

// New returns an Engine for opts with defaults applied. Nothing is loaded or
// scheduled until Initialize is called.
func New(opts Options) (*Engine, error) {
	if opts.Issuer == "" {
		return nil, errors.New("issuer is required")
	}
	if opts.Source == nil {
		return nil, fmt.Errorf("source is required for issuer %s", opts.Issuer)
	}
	if opts.Storage == nil {
		return nil, fmt.Errorf("storage is required for issuer %s", opts.Issuer)
	}

	e := &Engine{
		issuer:    opts.Issuer,
		filename:  opts.Filename,
		source:    opts.Source,
		storage:   opts.Storage,
		parser:    opts.Parser,
		refreshAt: timer.OneAM,
		policy:    opts.ParsePolicy,
		clock:     opts.Clock,
		done:      make(chan struct{}),
		hub:       crashreport.NewHub("certcache-" + opts.Issuer),
	}

	if e.filename == "" {
		e.filename = opts.Issuer + ".json"
	}
	if e.parser == nil {
		e.parser = pki.DSCParser{}
	}
	if opts.RefreshAt != nil {
		e.refreshAt = *opts.RefreshAt
	}
	switch e.policy {
	case "":
		e.policy = ParseLenient
	case ParseLenient, ParseStrict:
	default:
		return nil, fmt.Errorf("unknown parse policy %q", e.policy)
	}
	if e.clock == nil {
		e.clock = clock.New()
	}

	return e, nil
}

// Issuer returns the name of the issuer this engine caches.
func (e *Engine) Issuer() string {
	return e.issuer
}

// Certificates returns the published certificate list. It never blocks on a
// refresh and returns an empty list when no list was ever loaded. The
// returned slice is shared with other readers and must not be modified.
func (e *Engine) Certificates() []pki.Certificate {
	certs, _ := e.published.Load().([]pki.Certificate)
	if certs == nil {
		return []pki.Certificate{}
	}
	return certs
}

// Initialize loads the certificate list from the snapshot, or from the
// Source when there is no usable snapshot, and then schedules the daily
// refresh. The schedule is armed even when the load fails, so a source that
// is down at startup is retried at the next refresh time.
//
// Initialize must be called once; later calls return ErrAlreadyInitialized.
func (e *Engine) Initialize(ctx context.Context) error {
	e.mu.Lock()
	if e.initialized {
		e.mu.Unlock()
		return ErrAlreadyInitialized
	}
	e.initialized = true
	e.mu.Unlock()

	err := e.refresh(ctx, true)
	e.arm()
	return err
}

// Refresh fetches the certificate list from the Source, persists it, and
// publishes it. When the fetch fails the published list is left unchanged
// and a SourceUnavailableError is returned. With ParseStrict a record that
// cannot be parsed also keeps the list and returns a ParseError. A failure to
// persist is logged and counted, but the fetched list is still published and
// Refresh returns nil.
func (e *Engine) Refresh(ctx context.Context) error {
	return e.refresh(ctx, false)
}

// Shutdown cancels the scheduled refresh and any refresh in progress. It
// does not wait; use Done to wait for the scheduler to exit.
func (e *Engine) Shutdown() {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.stopped {
		return
	}
	e.stopped = true

	if e.cancel != nil {
		e.cancel()
		return
	}
	// never armed
	close(e.done)
}

// Done returns a channel that is closed once the engine was shut down and
// its scheduler goroutine has exited.
func (e *Engine) Done() <-chan struct{} {
	return e.done
}

func (e *Engine) arm() {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.stopped {
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	e.cancel = cancel

	daily := repeat.Daily{
		Clock: e.clock,
		At:    e.refreshAt,
		Armed: func(next time.Time) {
			e.nextRefresh.Store(next)
			metrics.NextRefresh.WithLabelValues(e.issuer).Set(float64(next.Unix()))
			logging.L.Debug("scheduled certificate refresh",
				zap.String("issuer", e.issuer),
				zap.Time("at", next))
		},
	}

	schedulerDone := daily.Start(ctx, func(ctx context.Context) {
		defer crashreport.Recover(e.hub, "certificate refresh for "+e.issuer)
		// errors are logged and reported by refresh
		_ = e.refresh(ctx, false)
	})

	go func() {
		<-schedulerDone
		close(e.done)
	}()
}

// refresh runs one load, persist, parse, and publish cycle in the engine's
// execution slot. With preferSnapshot the stored snapshot is preferred over
// the Source.
func (e *Engine) refresh(ctx context.Context, preferSnapshot bool) error {
	e.slot.Lock()
	defer e.slot.Unlock()

	start := e.clock.Now()
	log := logging.L.With(
		zap.String("issuer", e.issuer),
		zap.String("refresh_id", uuid.NewString()))

	e.lastAttempt.Store(start)
	defer func() {
		metrics.RefreshDuration.WithLabelValues(e.issuer).Observe(e.clock.Since(start).Seconds())
	}()

	result, err := e.load(ctx, log, preferSnapshot)
	if err != nil {
		e.fail(log, result.label, err)
		return err
	}

	certs, err := e.parse(log, result.raw)
	if err != nil {
		e.fail(log, metrics.ResultParseFailed, err)
		return err
	}

	e.published.Store(certs[:len(certs):len(certs)])
	now := e.clock.Now()
	e.lastSuccess.Store(now)
	e.lastError.Store(nil)
	e.loadedFrom.Store(result.from)

	metrics.RefreshTotal.WithLabelValues(e.issuer, result.label).Inc()
	metrics.Certificates.WithLabelValues(e.issuer).Set(float64(len(certs)))
	metrics.LastSuccess.WithLabelValues(e.issuer).Set(float64(now.Unix()))

	log.Info("published certificate list",
		zap.String("from", result.from),
		zap.Int("count", len(certs)),
		zap.Duration("elapsed", now.Sub(start)))
	return nil
}

const (
	fromSnapshot = "snapshot"
	fromSource   = "source"
)

type loadResult struct {
	raw   RawCertificateSet
	from  string
	label string
}

// load returns the raw certificate set from the snapshot, when preferred and
// usable, or from the Source. A set fetched from the Source is persisted
// before it is returned; a failure to persist is logged and does not fail
// the load.
func (e *Engine) load(ctx context.Context, log *zap.Logger, preferSnapshot bool) (loadResult, error) {
	if preferSnapshot {
		raw, ok := e.readSnapshot(ctx, log)
		if ok {
			return loadResult{raw: raw, from: fromSnapshot, label: metrics.ResultSuccess}, nil
		}
	}

	raw, err := e.source.Fetch(ctx)
	if err != nil {
		return loadResult{label: metrics.ResultSourceUnavailable}, SourceUnavailableError{Issuer: e.issuer, Err: err}
	}
	if raw == nil {
		raw = RawCertificateSet{}
	}
	log.Debug("fetched certificate list", zap.Int("records", len(raw)))

	result := loadResult{raw: raw, from: fromSource, label: metrics.ResultSuccess}
	if err := e.writeSnapshot(ctx, raw); err != nil {
		result.label = metrics.ResultPersistFailed
		log.Warn("could not persist certificate snapshot, a restart will fetch the list again",
			zap.String("filename", e.filename),
			zap.Error(err))
	}
	return result, nil
}

// readSnapshot returns the stored set, and false when it is missing,
// unreadable, undecodable, or empty.
func (e *Engine) readSnapshot(ctx context.Context, log *zap.Logger) (RawCertificateSet, bool) {
	b, err := e.storage.Read(ctx, e.filename)
	switch {
	case errors.Is(err, storage.ErrNotFound):
		log.Debug("no certificate snapshot", zap.String("filename", e.filename))
		return nil, false
	case err != nil:
		log.Warn("could not read certificate snapshot", zap.String("filename", e.filename), zap.Error(err))
		return nil, false
	}

	raw, err := decodeSnapshot(b)
	if err != nil {
		log.Warn("could not decode certificate snapshot", zap.String("filename", e.filename), zap.Error(err))
		return nil, false
	}
	if len(raw) == 0 {
		log.Debug("certificate snapshot is empty", zap.String("filename", e.filename))
		return nil, false
	}
	return raw, true
}

func (e *Engine) writeSnapshot(ctx context.Context, raw RawCertificateSet) error {
	b, err := encodeSnapshot(raw)
	if err != nil {
		return fmt.Errorf("encoding snapshot: %w", err)
	}
	return e.storage.Write(ctx, e.filename, b)
}

// parse converts every record with the Parser, preserving order. With the
// lenient policy records that fail to parse are skipped.
func (e *Engine) parse(log *zap.Logger, raw RawCertificateSet) ([]pki.Certificate, error) {
	certs := make([]pki.Certificate, 0, len(raw))
	for i, record := range raw {
		cert, err := e.parser.Parse(record)
		if err != nil {
			if e.policy == ParseStrict {
				return nil, ParseError{Issuer: e.issuer, Index: i, Err: err}
			}
			metrics.ParseErrorsTotal.WithLabelValues(e.issuer).Inc()
			log.Warn("skipping certificate record", zap.Int("index", i), zap.Error(err))
			continue
		}
		certs = append(certs, cert)
	}
	return certs, nil
}

func (e *Engine) fail(log *zap.Logger, label string, err error) {
	e.lastError.Store(err)
	metrics.RefreshTotal.WithLabelValues(e.issuer, label).Inc()

	log.Warn("certificate refresh failed, keeping the previous list",
		zap.Error(err),
		zap.Int("count", len(e.Certificates())))
	crashreport.CaptureError(e.hub, err, map[string]string{"issuer": e.issuer})
}
