package orchestrator

import (
	"bufio"
	"os"
	"runtime"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

// Ticket is proof of admission. Every ticket must be released exactly once;
// the orchestrator defers the release on all exit paths.
type Ticket struct {
	// Degraded signals near-saturation: the caller should shrink the time
	// budget and restrict tier selection instead of failing.
	Degraded bool

	mu       sync.Mutex
	released bool
	rm       *resourceManager
}

// resourceManager admits or throttles requests against a concurrency ceiling
// and sampled CPU/memory high-water marks. Admission never queues: it
// succeeds, degrades, or fails immediately.
type resourceManager struct {
	sem    chan struct{}
	active atomic.Int64

	degradeAt int
	cpuSoft   float64
	cpuHard   float64
	memSoft   uint64
	memHard   uint64
	cpu       *cpuSampler
}

func newResourceManager(cfg Config) *resourceManager {
	degradeAt := int(float64(cfg.MaxConcurrentRequests) * cfg.DegradeWatermark)
	if degradeAt < 1 {
		degradeAt = 1
	}
	return &resourceManager{
		sem:       make(chan struct{}, cfg.MaxConcurrentRequests),
		degradeAt: degradeAt,
		cpuSoft:   cfg.CPUSoftMark,
		cpuHard:   cfg.CPUHardMark,
		memSoft:   cfg.MemorySoftMark,
		memHard:   cfg.MemoryHardMark,
		cpu:       newCPUSampler(),
	}
}

// TryAdmit grants a ticket or fails with ErrOverloaded. Decisions are made
// against the snapshot taken now; slight over/under admission relative to
// the true instantaneous load is acceptable.
func (rm *resourceManager) TryAdmit() (*Ticket, error) {
	select {
	case rm.sem <- struct{}{}:
	default:
		return nil, ErrOverloaded
	}

	snap := rm.Snapshot()
	if snap.CPUPercent >= rm.cpuHard || (rm.memHard > 0 && snap.MemoryBytes >= rm.memHard) {
		<-rm.sem
		return nil, ErrOverloaded
	}

	active := int(rm.active.Add(1))
	degraded := active >= rm.degradeAt ||
		snap.CPUPercent >= rm.cpuSoft ||
		(rm.memSoft > 0 && snap.MemoryBytes >= rm.memSoft)

	return &Ticket{Degraded: degraded, rm: rm}, nil
}

// Release returns the ticket's slot. Releasing twice is a caller bug.
func (rm *resourceManager) Release(t *Ticket) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.released {
		panic("resource: ticket released twice")
	}
	t.released = true
	rm.active.Add(-1)
	<-rm.sem
}

func (rm *resourceManager) Snapshot() ResourceSnapshot {
	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)
	return ResourceSnapshot{
		CPUPercent:     rm.cpu.Percent(),
		MemoryBytes:    mem.HeapAlloc,
		ActiveRequests: int(rm.active.Load()),
	}
}

// cpuSampler reads host CPU utilization from /proc/stat deltas. Where the
// file is unavailable it reports zero, which disables the CPU gates.
type cpuSampler struct {
	mu        sync.Mutex
	prevBusy  uint64
	prevTotal uint64
	sampledAt time.Time
	cached    float64
}

// minSampleInterval bounds how often /proc/stat is re-read; between reads
// the previous figure is served.
const minSampleInterval = 100 * time.Millisecond

func newCPUSampler() *cpuSampler {
	s := &cpuSampler{}
	s.prevBusy, s.prevTotal = readProcStat()
	s.sampledAt = time.Now()
	return s
}

func (s *cpuSampler) Percent() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	if time.Since(s.sampledAt) < minSampleInterval {
		return s.cached
	}

	busy, total := readProcStat()
	if total > s.prevTotal {
		s.cached = 100 * float64(busy-s.prevBusy) / float64(total-s.prevTotal)
	}
	s.prevBusy, s.prevTotal = busy, total
	s.sampledAt = time.Now()
	return s.cached
}

// readProcStat returns aggregate busy and total jiffies, or zeros when the
// stat file cannot be read (non-Linux hosts).
func readProcStat() (busy, total uint64) {
	f, err := os.Open("/proc/stat")
	if err != nil {
		return 0, 0
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	if !scanner.Scan() {
		return 0, 0
	}
	fields := strings.Fields(scanner.Text())
	if len(fields) < 5 || fields[0] != "cpu" {
		return 0, 0
	}

	var idle uint64
	for i, field := range fields[1:] {
		v, err := strconv.ParseUint(field, 10, 64)
		if err != nil {
			continue
		}
		total += v
		if i == 3 || i == 4 { // idle + iowait
			idle += v
		}
	}
	return total - idle, total
}
