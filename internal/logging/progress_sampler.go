package logging

import "math"

// ProgressSampler thins a stream of progress fractions down to one report
// per bucket so logs and non-interactive output stay readable.
type ProgressSampler struct {
	bucketSize float64
	lastBucket int
}

// NewProgressSampler returns a sampler with buckets of bucketPercent
// (default 5).
func NewProgressSampler(bucketPercent float64) *ProgressSampler {
	if bucketPercent <= 0 {
		bucketPercent = 5
	}
	return &ProgressSampler{bucketSize: bucketPercent / 100, lastBucket: -1}
}

// Sample reports whether fraction enters a bucket not reported yet. Values
// are clamped to [0,1]; the first call always reports and completion (1.0)
// is its own bucket. A nil sampler reports everything.
func (s *ProgressSampler) Sample(fraction float64) bool {
	if s == nil {
		return true
	}
	if math.IsNaN(fraction) {
		return false
	}
	fraction = math.Max(0, math.Min(fraction, 1))
	// Small epsilon so 0.3/0.1 lands in bucket 3, not 2.
	bucket := int(fraction/s.bucketSize + 1e-9)
	if bucket <= s.lastBucket {
		return false
	}
	s.lastBucket = bucket
	return true
}

// Reset forgets reported buckets so the next job starts from zero.
func (s *ProgressSampler) Reset() {
	if s != nil {
		s.lastBucket = -1
	}
}
