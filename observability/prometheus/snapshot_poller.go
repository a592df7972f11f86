package prometheus

import (
	"context"
	"sync"
	"time"

	"github.com/Swind/go-frame-scheduler/core"
	prom "github.com/prometheus/client_golang/prometheus"
)

// ManagerSnapshotProvider provides the stats published by a TaskManager's last
// arrangement pass. *core.TaskManager satisfies it.
type ManagerSnapshotProvider interface {
	Stats() core.TaskManagerStats
}

// SnapshotPoller periodically exports manager Stats() snapshots into Prometheus gauges.
type SnapshotPoller struct {
	interval time.Duration

	managersMu sync.RWMutex
	managers   map[string]ManagerSnapshotProvider

	managerFrame *prom.GaugeVec
	managerTasks *prom.GaugeVec

	divisionFunctions  *prom.GaugeVec
	divisionDisabled   *prom.GaugeVec
	divisionDelayed    *prom.GaugeVec
	divisionPriorities *prom.GaugeVec

	stateMu sync.Mutex
	running bool
	cancel  context.CancelFunc
	done    chan struct{}
}

// NewSnapshotPoller creates a snapshot poller and registers its collectors.
func NewSnapshotPoller(reg prom.Registerer, interval time.Duration) (*SnapshotPoller, error) {
	if reg == nil {
		reg = prom.DefaultRegisterer
	}
	if interval <= 0 {
		interval = time.Second
	}

	managerFrame := prom.NewGaugeVec(prom.GaugeOpts{
		Namespace: "framescheduler",
		Name:      "manager_frame",
		Help:      "Completed arrangement passes per manager.",
	}, []string{"manager"})
	managerTasks := prom.NewGaugeVec(prom.GaugeOpts{
		Namespace: "framescheduler",
		Name:      "manager_tasks",
		Help:      "Live tasks per manager.",
	}, []string{"manager"})

	divisionFunctions := prom.NewGaugeVec(prom.GaugeOpts{
		Namespace: "framescheduler",
		Name:      "division_functions",
		Help:      "Live functions per division.",
	}, []string{"manager", "division"})
	divisionDisabled := prom.NewGaugeVec(prom.GaugeOpts{
		Namespace: "framescheduler",
		Name:      "division_disabled_functions",
		Help:      "Disabled functions per division.",
	}, []string{"manager", "division"})
	divisionDelayed := prom.NewGaugeVec(prom.GaugeOpts{
		Namespace: "framescheduler",
		Name:      "division_delayed_functions",
		Help:      "Functions waiting on a frame delay per division.",
	}, []string{"manager", "division"})
	divisionPriorities := prom.NewGaugeVec(prom.GaugeOpts{
		Namespace: "framescheduler",
		Name:      "division_priorities",
		Help:      "Declared priority buckets per division.",
	}, []string{"manager", "division"})

	var err error
	if managerFrame, err = registerCollector(reg, managerFrame); err != nil {
		return nil, err
	}
	if managerTasks, err = registerCollector(reg, managerTasks); err != nil {
		return nil, err
	}
	if divisionFunctions, err = registerCollector(reg, divisionFunctions); err != nil {
		return nil, err
	}
	if divisionDisabled, err = registerCollector(reg, divisionDisabled); err != nil {
		return nil, err
	}
	if divisionDelayed, err = registerCollector(reg, divisionDelayed); err != nil {
		return nil, err
	}
	if divisionPriorities, err = registerCollector(reg, divisionPriorities); err != nil {
		return nil, err
	}

	return &SnapshotPoller{
		interval:           interval,
		managers:           make(map[string]ManagerSnapshotProvider),
		managerFrame:       managerFrame,
		managerTasks:       managerTasks,
		divisionFunctions:  divisionFunctions,
		divisionDisabled:   divisionDisabled,
		divisionDelayed:    divisionDelayed,
		divisionPriorities: divisionPriorities,
	}, nil
}

// AddManager adds or replaces a manager snapshot provider by name.
func (p *SnapshotPoller) AddManager(name string, provider ManagerSnapshotProvider) {
	if p == nil || provider == nil {
		return
	}
	name = normalizeLabel(name, "manager")
	p.managersMu.Lock()
	p.managers[name] = provider
	p.managersMu.Unlock()
}

// Start begins periodic polling; repeated calls are no-ops.
func (p *SnapshotPoller) Start(ctx context.Context) {
	if p == nil {
		return
	}

	p.stateMu.Lock()
	if p.running {
		p.stateMu.Unlock()
		return
	}
	pollCtx, cancel := context.WithCancel(ctx)
	p.cancel = cancel
	p.done = make(chan struct{})
	p.running = true
	p.stateMu.Unlock()

	go p.loop(pollCtx)
}

// Stop stops periodic polling; repeated calls are safe.
func (p *SnapshotPoller) Stop() {
	if p == nil {
		return
	}

	p.stateMu.Lock()
	if !p.running {
		p.stateMu.Unlock()
		return
	}
	cancel := p.cancel
	done := p.done
	p.stateMu.Unlock()

	if cancel != nil {
		cancel()
	}
	if done != nil {
		<-done
	}

	p.stateMu.Lock()
	p.running = false
	p.cancel = nil
	p.done = nil
	p.stateMu.Unlock()
}

func (p *SnapshotPoller) loop(ctx context.Context) {
	defer close(p.done)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	p.collectOnce()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.collectOnce()
		}
	}
}

func (p *SnapshotPoller) collectOnce() {
	p.managersMu.RLock()
	defer p.managersMu.RUnlock()

	for name, provider := range p.managers {
		stats := provider.Stats()
		p.managerFrame.WithLabelValues(name).Set(float64(stats.Frame))
		p.managerTasks.WithLabelValues(name).Set(float64(stats.Tasks))
		for _, d := range stats.Divisions {
			div := d.Division.String()
			p.divisionFunctions.WithLabelValues(name, div).Set(float64(d.Functions))
			p.divisionDisabled.WithLabelValues(name, div).Set(float64(d.Disabled))
			p.divisionDelayed.WithLabelValues(name, div).Set(float64(d.Delayed))
			p.divisionPriorities.WithLabelValues(name, div).Set(float64(d.Priorities))
		}
	}
}
