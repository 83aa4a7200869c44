package audit

import (
	"sort"
	"time"

	"anviltrack/internal/domain"
)

// Engine collects results during a single audit run. Auditors embed an
// Engine and feed it via Add; consumers inspect the partitions afterwards.
// An Engine is single-use: start returns an error on a second call.
type Engine struct {
	started   bool
	timestamp time.Time

	instances []*ModelInstanceResult
	seen      map[EntityRef]struct{}
	notInApp  []NotInAppResult
	records   map[string]struct{}
	ignored   []IgnoredResult
	ignSeen   map[int64]struct{}
}

// NewEngine returns an empty engine ready for one run.
func NewEngine() *Engine {
	return &Engine{
		seen:    make(map[EntityRef]struct{}),
		records: make(map[string]struct{}),
		ignSeen: make(map[int64]struct{}),
	}
}

// start marks the engine as running and stamps the run time. It enforces
// the single-use property.
func (e *Engine) start() error {
	if e.started {
		return domain.ErrInvariant("audit engine has already run")
	}
	e.started = true
	e.timestamp = time.Now().UTC()
	return nil
}

// Timestamp returns the start time of the run, zero before start.
func (e *Engine) Timestamp() time.Time { return e.timestamp }

// Add records a result. Each entity, not-in-app record and suppression may
// appear at most once per run; a duplicate is an invariant violation.
func (e *Engine) Add(r Result) error {
	switch res := r.(type) {
	case *ModelInstanceResult:
		if _, dup := e.seen[res.Entity]; dup {
			return domain.ErrInvariant("duplicate audit result for %s %q", res.Entity.Kind, res.Entity.Name)
		}
		e.seen[res.Entity] = struct{}{}
		e.instances = append(e.instances, res)
	case NotInAppResult:
		rec := res.Record()
		if _, dup := e.records[rec]; dup {
			return domain.ErrInvariant("duplicate not-in-app record %q", rec)
		}
		e.records[rec] = struct{}{}
		e.notInApp = append(e.notInApp, res)
	case IgnoredResult:
		if _, dup := e.ignSeen[res.SuppressionID]; dup {
			return domain.ErrInvariant("duplicate ignored result for suppression %d", res.SuppressionID)
		}
		e.ignSeen[res.SuppressionID] = struct{}{}
		e.ignored = append(e.ignored, res)
	default:
		return domain.ErrInvariant("unknown audit result type %T", r)
	}
	return nil
}

// OK reports whether the run found no discrepancies: every entity verified
// and nothing not-in-app. Ignored results do not affect the outcome.
func (e *Engine) OK() bool {
	if len(e.notInApp) > 0 {
		return false
	}
	for _, r := range e.instances {
		if !r.OK() {
			return false
		}
	}
	return true
}

// Verified returns the entity results with no errors.
func (e *Engine) Verified() []*ModelInstanceResult {
	var out []*ModelInstanceResult
	for _, r := range e.instances {
		if r.OK() {
			out = append(out, r)
		}
	}
	return out
}

// Failed returns the entity results with at least one error.
func (e *Engine) Failed() []*ModelInstanceResult {
	var out []*ModelInstanceResult
	for _, r := range e.instances {
		if !r.OK() {
			out = append(out, r)
		}
	}
	return out
}

// NotInApp returns the remote-only results in insertion order.
func (e *Engine) NotInApp() []NotInAppResult { return e.notInApp }

// Ignored returns the suppressed results in insertion order.
func (e *Engine) Ignored() []IgnoredResult { return e.ignored }

// ResultFor returns the result recorded for the given entity.
func (e *Engine) ResultFor(entity EntityRef) (*ModelInstanceResult, error) {
	for _, r := range e.instances {
		if r.Entity == entity {
			return r, nil
		}
	}
	return nil, domain.ErrNotFound("no audit result for %s %q", entity.Kind, entity.Name)
}

// ExportEntry is one entity row in an exported report.
type ExportEntry struct {
	Kind   EntityKind `json:"kind"`
	ID     int64      `json:"id"`
	Name   string     `json:"name"`
	Errors []string   `json:"errors,omitempty"`
}

// ExportIgnored is one suppressed row in an exported report.
type ExportIgnored struct {
	SuppressionID int64  `json:"suppression_id"`
	Email         string `json:"email"`
	Record        string `json:"record,omitempty"`
}

// Export is a serializable audit report.
type Export struct {
	Timestamp time.Time       `json:"timestamp"`
	OK        bool            `json:"ok"`
	Verified  []ExportEntry   `json:"verified,omitempty"`
	Errors    []ExportEntry   `json:"errors,omitempty"`
	NotInApp  []string        `json:"not_in_app,omitempty"`
	Ignored   []ExportIgnored `json:"ignored,omitempty"`
}

// ExportOptions selects which sections an export includes.
type ExportOptions struct {
	IncludeVerified bool
	IncludeErrors   bool
	IncludeNotInApp bool
	IncludeIgnored  bool
}

// FullExport includes every section.
func FullExport() ExportOptions {
	return ExportOptions{IncludeVerified: true, IncludeErrors: true, IncludeNotInApp: true, IncludeIgnored: true}
}

// Export renders the run into a report. Not-in-app records are sorted;
// entity sections keep insertion order.
func (e *Engine) Export(opts ExportOptions) Export {
	out := Export{Timestamp: e.timestamp, OK: e.OK()}
	if opts.IncludeVerified {
		for _, r := range e.Verified() {
			out.Verified = append(out.Verified, ExportEntry{Kind: r.Entity.Kind, ID: r.Entity.ID, Name: r.Entity.Name})
		}
	}
	if opts.IncludeErrors {
		for _, r := range e.Failed() {
			out.Errors = append(out.Errors, ExportEntry{Kind: r.Entity.Kind, ID: r.Entity.ID, Name: r.Entity.Name, Errors: r.Errors()})
		}
	}
	if opts.IncludeNotInApp {
		for _, r := range e.notInApp {
			out.NotInApp = append(out.NotInApp, r.Record())
		}
		sort.Strings(out.NotInApp)
	}
	if opts.IncludeIgnored {
		for _, r := range e.ignored {
			out.Ignored = append(out.Ignored, ExportIgnored{SuppressionID: r.SuppressionID, Email: r.Email, Record: r.Record()})
		}
	}
	return out
}
