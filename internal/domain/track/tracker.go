// Package track maintains a stable face region across frames from raw
// detector candidates, and locates eye regions within it.
package track

import (
	"time"

	"github.com/google/uuid"
	"github.com/pulseworks/rppg/internal/domain/model"
)

// Default tracker configuration constants.
const (
	defaultRescanInterval = time.Second
	defaultMaxMisses      = 5
)

// State describes the tracker's lifecycle position.
type State int

// Tracker states.
const (
	StateSearching State = iota
	StateTracking
	StateLost
)

func (s State) String() string {
	switch s {
	case StateSearching:
		return "searching"
	case StateTracking:
		return "tracking"
	case StateLost:
		return "lost"
	default:
		return "unknown"
	}
}

// Region is the current tracked face region. It is owned and mutated only
// by the Tracker.
type Region struct {
	Box   model.Rect
	Valid bool

	// TrackID identifies the current track episode. A new ID is assigned
	// each time the tracker reacquires a face.
	TrackID string

	UpdatedAt time.Time
	ScannedAt time.Time
}

// Result reports what happened during one Update call.
type Result struct {
	Region Region
	State  State

	// Changed is set when the region was acquired or moved, so dependent
	// state (eyes, mask) must be recomputed.
	Changed bool

	// Acquired is set on a Searching/Lost -> Tracking transition.
	Acquired bool

	// Lost is set on a Tracking -> Lost transition. Callers must insert a
	// discontinuity marker into the signal buffer when this fires.
	Lost bool
}

// Option applies a configuration option to the Tracker.
type Option func(*Tracker)

// WithRescanInterval sets how often a full-frame rescan is forced while
// tracking is nominally valid.
func WithRescanInterval(d time.Duration) Option {
	return func(t *Tracker) {
		if d > 0 {
			t.rescanInterval = d
		}
	}
}

// WithMaxMisses sets how many consecutive empty detections are tolerated
// before the track is declared lost.
func WithMaxMisses(n int) Option {
	return func(t *Tracker) {
		if n > 0 {
			t.maxMisses = n
		}
	}
}

// Tracker selects one candidate per frame and carries it across frames.
// It is not safe for concurrent use; the pipeline serializes access.
type Tracker struct {
	bounds         model.Rect
	rescanInterval time.Duration
	maxMisses      int

	state  State
	region Region
	misses int
}

// New creates a Tracker for frames covering bounds.
func New(bounds model.Rect, opts ...Option) *Tracker {
	t := &Tracker{
		bounds:         bounds,
		rescanInterval: defaultRescanInterval,
		maxMisses:      defaultMaxMisses,
		state:          StateSearching,
	}

	for _, opt := range opts {
		opt(t)
	}

	return t
}

// State returns the current tracker state.
func (t *Tracker) State() State {
	return t.state
}

// Region returns a copy of the current tracked region.
func (t *Tracker) Region() Region {
	return t.region
}

// RescanDue reports whether the next detection must cover the full frame.
// A rescan is always due while no valid region is held, and is forced at
// least every rescan interval while tracking, to correct drift.
func (t *Tracker) RescanDue(now time.Time) bool {
	if !t.region.Valid {
		return true
	}
	return now.Sub(t.region.ScannedAt) >= t.rescanInterval
}

// SearchRegion returns the area the detector should scan for the next
// update: the full frame when a rescan is due, otherwise the current box
// inflated by half its width.
func (t *Tracker) SearchRegion(now time.Time) model.Rect {
	if t.RescanDue(now) {
		return t.bounds
	}
	return t.region.Box.Inflate(t.region.Box.W/2, t.bounds)
}

// Update consumes one round of detector candidates. rescan reports whether
// the candidates came from a full-frame scan.
func (t *Tracker) Update(candidates []model.Rect, now time.Time, rescan bool) Result {
	if len(candidates) == 0 {
		return t.miss(now)
	}

	box := t.selectCandidate(candidates)
	if !box.Inside(t.bounds) {
		// Geometrically implausible boxes count as misses.
		return t.miss(now)
	}

	res := Result{Changed: box != t.region.Box}
	if !t.region.Valid {
		t.region.TrackID = uuid.NewString()
		t.region.ScannedAt = now
		res.Acquired = true
		res.Changed = true
	}

	t.region.Box = box
	t.region.Valid = true
	t.region.UpdatedAt = now
	if rescan {
		t.region.ScannedAt = now
	}
	t.misses = 0
	t.state = StateTracking

	res.Region = t.region
	res.State = t.state
	return res
}

// miss registers an empty or implausible detection round.
func (t *Tracker) miss(now time.Time) Result {
	res := Result{}

	if t.state == StateTracking {
		t.misses++
		if t.misses >= t.maxMisses {
			t.region.Box = model.Rect{}
			t.region.Valid = false
			t.region.UpdatedAt = now
			t.state = StateLost
			res.Lost = true
			res.Changed = true
		}
	}

	res.Region = t.region
	res.State = t.state
	return res
}

// selectCandidate applies the temporal-coherence rule: nearest center to
// the previous box when one exists, largest area otherwise.
func (t *Tracker) selectCandidate(candidates []model.Rect) model.Rect {
	if t.region.Valid {
		prev := t.region.Box.Center()
		best := candidates[0]
		bestDist := best.Center().DistanceTo(prev)
		for _, c := range candidates[1:] {
			if d := c.Center().DistanceTo(prev); d < bestDist {
				best, bestDist = c, d
			}
		}
		return best
	}

	best := candidates[0]
	for _, c := range candidates[1:] {
		if c.Area() > best.Area() {
			best = c
		}
	}
	return best
}
