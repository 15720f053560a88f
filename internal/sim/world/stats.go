package world

import "time"

// TickStats describes one Update call.
type TickStats struct {
	Tick         uint64        `json:"tick"`
	Origin       [2]int        `json:"origin"`
	Loads        int           `json:"loads"`
	Meshes       int           `json:"meshes"`
	MeshFailures int           `json:"mesh_failures"`
	Recycled     int           `json:"recycled"`
	IndexQuads   uint32        `json:"index_quads"`
	Duration     time.Duration `json:"duration_ns"`
}

type StatsBucket struct {
	Loads        int `json:"loads"`
	Meshes       int `json:"meshes"`
	MeshFailures int `json:"mesh_failures"`
	Recycled     int `json:"recycled"`
}

// WorldStats keeps streaming counters over a rolling window of ticks.
type WorldStats struct {
	bucketTicks uint64
	windowTicks uint64

	buckets []StatsBucket
	curIdx  int
	curBase uint64 // start tick (inclusive) of current bucket
}

func NewWorldStats(bucketTicks, windowTicks uint64) *WorldStats {
	if bucketTicks == 0 {
		bucketTicks = 60
	}
	if windowTicks < bucketTicks {
		windowTicks = bucketTicks
	}
	n := int(windowTicks / bucketTicks)
	return &WorldStats{
		bucketTicks: bucketTicks,
		windowTicks: uint64(n) * bucketTicks,
		buckets:     make([]StatsBucket, n),
	}
}

func (s *WorldStats) rotate(nowTick uint64) {
	if s == nil {
		return
	}
	// After a long gap every bucket is stale; skip the catch-up loop.
	if nowTick >= s.curBase+s.windowTicks+s.bucketTicks {
		for i := range s.buckets {
			s.buckets[i] = StatsBucket{}
		}
		s.curBase = nowTick - nowTick%s.bucketTicks
		return
	}
	for nowTick >= s.curBase+s.bucketTicks {
		s.curIdx = (s.curIdx + 1) % len(s.buckets)
		s.buckets[s.curIdx] = StatsBucket{}
		s.curBase += s.bucketTicks
	}
}

func (s *WorldStats) Record(st TickStats) {
	if s == nil {
		return
	}
	s.rotate(st.Tick)
	b := &s.buckets[s.curIdx]
	b.Loads += st.Loads
	b.Meshes += st.Meshes
	b.MeshFailures += st.MeshFailures
	b.Recycled += st.Recycled
}

func (s *WorldStats) WindowTicks() uint64 {
	if s == nil {
		return 0
	}
	return s.windowTicks
}

func (s *WorldStats) Summarize(nowTick uint64) StatsBucket {
	if s == nil {
		return StatsBucket{}
	}
	s.rotate(nowTick)
	var out StatsBucket
	for _, b := range s.buckets {
		out.Loads += b.Loads
		out.Meshes += b.Meshes
		out.MeshFailures += b.MeshFailures
		out.Recycled += b.Recycled
	}
	return out
}
