package catalog

import (
	"regexp"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/logsift/logsift/internal/config"
	"github.com/logsift/logsift/internal/fragment"
	"github.com/logsift/logsift/internal/logging"
	"github.com/logsift/logsift/internal/metrics"
)

// Registry owns the mutable template catalog and publishes immutable
// snapshots to readers.
//
// Concurrency model: at most one writer at a time (Add, AddBatch, Remove
// serialize on an internal mutex); readers load the current snapshot
// through an atomic pointer and are wait-free. A writer builds a fresh
// snapshot from the mutable master state and swaps the pointer; in-flight
// readers finish against the snapshot they loaded.
type Registry struct {
	cfg config.MatcherConfig

	mu        sync.Mutex
	templates map[uint64]*Template
	fragments map[uint64][]uint32
	compiled  map[uint64]*regexp.Regexp
	dead      map[uint64]struct{}
	index     *fragment.Index
	nextID    uint64
	invalid   int

	current atomic.Pointer[Snapshot]

	metrics *metrics.Metrics
	logger  *logging.Logger
}

// NewRegistry creates an empty registry with the given configuration and
// publishes an empty snapshot.
func NewRegistry(cfg config.MatcherConfig) *Registry {
	cfg.Normalize()
	r := &Registry{
		cfg:       cfg,
		templates: make(map[uint64]*Template),
		fragments: make(map[uint64][]uint32),
		compiled:  make(map[uint64]*regexp.Regexp),
		dead:      make(map[uint64]struct{}),
		index:     fragment.NewIndex(),
		nextID:    1,
		logger:    logging.GetLogger("catalog"),
	}
	r.current.Store(emptySnapshot())
	return r
}

// SetMetrics attaches Prometheus metrics. Safe to leave unset; a nil
// metrics receiver is inert.
func (r *Registry) SetMetrics(m *metrics.Metrics) {
	r.metrics = m
}

// Config returns the registry's configuration.
func (r *Registry) Config() config.MatcherConfig {
	return r.cfg
}

// Snapshot returns the current immutable snapshot.
func (r *Registry) Snapshot() *Snapshot {
	return r.current.Load()
}

// Add records a template, decomposes its pattern into fragments, compiles
// its regex, and publishes a new snapshot. A zero TemplateID requests
// allocation of the next unused id; the assigned id is returned and is
// never zero. Adding with an id already present replaces that record.
//
// A pattern that fails to compile is still recorded (catalog dumps stay
// faithful to what was added) but the template is structurally dead and can
// never be returned by matching.
func (r *Registry) Add(t Template) uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()

	id := r.addLocked(t)
	r.publishLocked()
	return id
}

// AddBatch records many templates with a single snapshot rebuild. The
// automaton is reconstructed at most once, so bulk catalog loads pay
// O(total fragment length) once instead of per template.
func (r *Registry) AddBatch(ts []Template) []uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()

	ids := make([]uint64, len(ts))
	for i, t := range ts {
		ids[i] = r.addLocked(t)
	}
	r.publishLocked()
	return ids
}

// Remove retires a template record. Its fragments remain interned: the
// fragment table is append-only across the lifetime of a registry, and the
// automaton keeps the fragment strings. Returns false if the id was not
// present.
func (r *Registry) Remove(templateID uint64) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.templates[templateID]; !ok {
		return false
	}
	delete(r.templates, templateID)
	delete(r.fragments, templateID)
	delete(r.compiled, templateID)
	delete(r.dead, templateID)
	r.publishLocked()
	return true
}

// AllTemplates returns deep copies of every template, sorted by id. The
// list includes structurally dead templates so serialization is faithful.
func (r *Registry) AllTemplates() []Template {
	snap := r.current.Load()
	list := make([]Template, 0, len(snap.templates))
	for _, t := range snap.templates {
		list = append(list, t.Clone())
	}
	sort.Slice(list, func(i, j int) bool {
		return list[i].TemplateID < list[j].TemplateID
	})
	return list
}

// InvalidTemplates returns how many added templates failed regex
// compilation over the registry's lifetime.
func (r *Registry) InvalidTemplates() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.invalid
}

// SeedNextID raises the allocator so subsequent auto-assigned ids start
// at hint. A hint at or below the current allocator position is ignored.
func (r *Registry) SeedNextID(hint uint64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if hint > r.nextID {
		r.nextID = hint
	}
}

// nextTemplateID returns the allocator position for serialization.
func (r *Registry) nextTemplateID() uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.nextID
}

func (r *Registry) addLocked(t Template) uint64 {
	if t.TemplateID == 0 {
		t.TemplateID = r.nextID
		r.nextID++
	} else if t.TemplateID >= r.nextID {
		r.nextID = t.TemplateID + 1
	}

	rec := t.Clone()
	r.templates[rec.TemplateID] = &rec

	frags := fragment.Extract(rec.Pattern, r.cfg.MinFragmentLength)
	ids := make([]uint32, 0, len(frags))
	for _, f := range frags {
		ids = append(ids, r.index.Intern(f))
	}
	r.fragments[rec.TemplateID] = ids

	// Compile once at add time. Failures mark the template structurally
	// dead: it stays in the table so catalog dumps are faithful, but it can
	// never be returned by matching.
	delete(r.compiled, rec.TemplateID)
	delete(r.dead, rec.TemplateID)
	re, err := regexp.Compile(rec.Pattern)
	if err != nil {
		r.dead[rec.TemplateID] = struct{}{}
		r.invalid++
		r.metrics.IncInvalidTemplates()
		r.logger.WarnWithFields("template regex failed to compile; template is unmatchable",
			logging.Field("template_id", rec.TemplateID),
			logging.Field("error", err.Error()),
		)
	} else if r.cfg.CacheRegex {
		r.compiled[rec.TemplateID] = re
	}

	return rec.TemplateID
}

// publishLocked builds a fresh snapshot from the master state and swaps it
// in. The automaton is rebuilt only when interning added a fragment since
// the last rebuild; otherwise the previous snapshot's automaton is carried
// forward.
func (r *Registry) publishLocked() {
	prev := r.current.Load()

	automaton := prev.automaton
	if r.index.Dirty() || automaton == nil {
		automaton = r.index.Rebuild(r.cfg.MatchKind)
		r.metrics.IncRebuilds()
		r.logger.DebugWithFields("automaton rebuilt",
			logging.Field("fragments", r.index.Len()),
			logging.Field("templates", len(r.templates)),
		)
	}

	snap := &Snapshot{
		templates: make(map[uint64]*Template, len(r.templates)),
		fragments: make(map[uint64][]uint32, len(r.fragments)),
		reverse:   make(map[uint32][]TemplateRef),
		compiled:  make(map[uint64]*regexp.Regexp),
		dead:      make(map[uint64]struct{}),
		automaton: automaton,
	}

	for id, t := range r.templates {
		snap.templates[id] = t
	}
	for id, frags := range r.fragments {
		snap.fragments[id] = frags
		if len(frags) == 0 {
			snap.fragmentless = append(snap.fragmentless, id)
			continue
		}
		for pos, fragID := range frags {
			snap.reverse[fragID] = append(snap.reverse[fragID], TemplateRef{TemplateID: id, Position: pos})
		}
	}
	sort.Slice(snap.fragmentless, func(i, j int) bool {
		return snap.fragmentless[i] < snap.fragmentless[j]
	})
	for id, re := range r.compiled {
		snap.compiled[id] = re
	}
	for id := range r.dead {
		snap.dead[id] = struct{}{}
	}

	r.metrics.SetTemplates(len(snap.templates))
	r.current.Store(snap)
}
