package core

const (
	defaultBucketCap    = 8
	compactMinCap       = 64 // Don't shrink buckets smaller than this
	compactShrinkFactor = 4  // Shrink when len < cap/4 after compaction
)

// functionDivision is the priority table of one division: an ordered array of
// buckets, each an ordered sequence of function slots. A nil slot is a soft
// deleted function awaiting compaction.
type functionDivision struct {
	division Division
	buckets  [][]*Function
}

func newFunctionDivision(division Division, maxPriority int) *functionDivision {
	return &functionDivision{
		division: division,
		buckets:  make([][]*Function, maxPriority),
	}
}

func (d *functionDivision) maxPriority() int { return len(d.buckets) }

func (d *functionDivision) push(priority int, f *Function) {
	d.buckets[priority] = append(d.buckets[priority], f)
}

// each visits every live slot in invocation order. It stops early when fn
// returns false. The bucket lengths are re-read on every step so that slots
// appended or cleared by fn are observed.
func (d *functionDivision) each(fn func(priority, slot int, f *Function) bool) {
	for p := 0; p < len(d.buckets); p++ {
		for i := 0; i < len(d.buckets[p]); i++ {
			f := d.buckets[p][i]
			if f == nil {
				continue
			}
			if !fn(p, i, f) {
				return
			}
		}
	}
}

// softDelete clears the slot and marks the function dead.
func (d *functionDivision) softDelete(priority, slot int) {
	if f := d.buckets[priority][slot]; f != nil {
		f.live = false
	}
	d.buckets[priority][slot] = nil
}

// reset drops every slot but keeps the bucket count.
func (d *functionDivision) reset() {
	for p := range d.buckets {
		for _, f := range d.buckets[p] {
			if f != nil {
				f.live = false
			}
		}
		d.buckets[p] = nil
	}
}

// arrange erases nil slots and advances the delay of every survivor.
// It returns the number of slots reclaimed.
func (d *functionDivision) arrange() int {
	reclaimed := 0
	for p, bucket := range d.buckets {
		n := 0
		for _, f := range bucket {
			if f == nil {
				reclaimed++
				continue
			}
			if f.delay > 0 {
				f.delay--
			}
			bucket[n] = f
			n++
		}
		// Zero the tail to release references held by the backing array.
		clear(bucket[n:])
		d.buckets[p] = shrinkBucket(bucket[:n])
	}
	return reclaimed
}

func shrinkBucket(bucket []*Function) []*Function {
	n := len(bucket)
	c := cap(bucket)

	if c < compactMinCap {
		return bucket
	}
	if n == 0 {
		return make([]*Function, 0, defaultBucketCap)
	}
	if n*compactShrinkFactor >= c {
		return bucket
	}

	newCap := max(max(c/2, defaultBucketCap), n)
	out := make([]*Function, n, newCap)
	copy(out, bucket)
	return out
}

// stats counts live, disabled and delayed functions.
func (d *functionDivision) stats() DivisionStats {
	s := DivisionStats{
		Division:   d.division,
		Priorities: len(d.buckets),
	}
	d.each(func(_, _ int, f *Function) bool {
		s.Functions++
		if !f.enable {
			s.Disabled++
		}
		if f.delay > 0 {
			s.Delayed++
		}
		return true
	})
	return s
}

// snapshot copies the bucket table so callers can't alias manager storage.
func (d *functionDivision) snapshot() [][]*Function {
	out := make([][]*Function, len(d.buckets))
	for p, bucket := range d.buckets {
		out[p] = make([]*Function, 0, len(bucket))
		for _, f := range bucket {
			if f != nil {
				out[p] = append(out[p], f)
			}
		}
	}
	return out
}
