// Package debugview is a diagnostic panel for a core.TaskManager.
//
// A Panel is installed as the manager's core.DebugListener. On its own refresh
// interval it re-queries the task list and the function table, builds an
// immutable Snapshot and serves it over HTTP as JSON or text.
package debugview

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/Swind/go-frame-scheduler/core"
)

// maxTreeDepth bounds recursion into nested managers.
const maxTreeDepth = 16

// TaskNode is one row of the task tree. Children are the tasks of a nested
// manager exposed through core.SubScheduler.
type TaskNode struct {
	Index    int        `json:"index"`
	ID       int        `json:"id"`
	Group    int        `json:"group"`
	Kind     string     `json:"kind"`
	Info     string     `json:"info"`
	Children []TaskNode `json:"children,omitempty"`
}

// FunctionRow is one row of the function table.
type FunctionRow struct {
	Division string `json:"division"`
	Priority int    `json:"priority"`
	Order    int    `json:"order"`
	Task     int    `json:"task"`
	ID       int    `json:"id"`
	Enabled  bool   `json:"enabled"`
	Delay    int    `json:"delay"`
	Info     string `json:"info"`
}

// Snapshot is the panel's view of a manager at one arrangement pass.
type Snapshot struct {
	Manager   string        `json:"manager"`
	Frame     uint64        `json:"frame"`
	TakenAt   time.Time     `json:"taken_at"`
	Tasks     []TaskNode    `json:"tasks"`
	Functions []FunctionRow `json:"functions"`
}

// Options configures a Panel.
type Options struct {
	// Interval is the minimum time between refreshes. Zero refreshes on every
	// arrangement pass.
	Interval time.Duration

	// Now defaults to time.Now.
	Now func() time.Time
}

// Panel implements core.DebugListener and http.Handler.
type Panel struct {
	interval time.Duration
	now      func() time.Time

	// last is only touched on the scheduler goroutine.
	last time.Time

	mu   sync.RWMutex
	snap *Snapshot
}

var _ core.DebugListener = (*Panel)(nil)

// New creates a Panel.
func New(opts Options) *Panel {
	p := &Panel{interval: opts.Interval, now: opts.Now}
	if p.now == nil {
		p.now = time.Now
	}
	return p
}

// Refresh rebuilds the snapshot when the interval has elapsed.
func (p *Panel) Refresh(m *core.TaskManager) {
	now := p.now()
	if !p.last.IsZero() && now.Sub(p.last) < p.interval {
		return
	}
	p.last = now

	snap := Build(m)
	snap.TakenAt = now

	p.mu.Lock()
	p.snap = snap
	p.mu.Unlock()
}

// Snapshot returns the latest snapshot, if any.
func (p *Panel) Snapshot() (*Snapshot, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.snap, p.snap != nil
}

// Build captures m's task tree and function table. It must run on the
// manager's goroutine.
func Build(m *core.TaskManager) *Snapshot {
	snap := &Snapshot{
		Manager: m.Name(),
		Frame:   m.Frame(),
	}
	visited := map[*core.TaskManager]bool{m: true}
	snap.Tasks = buildTree(m, visited, 0)

	fm := m.GetFunctionMap()
	for _, div := range m.Divisions() {
		for pri, bucket := range fm[div] {
			for order, f := range bucket {
				row := FunctionRow{
					Division: div.String(),
					Priority: pri,
					Order:    order,
					Task:     -1,
					ID:       f.ID(),
					Enabled:  f.Enabled(),
					Delay:    f.Delay(),
					Info:     f.Info(),
				}
				if owner := f.Owner(); owner != nil {
					row.Task = owner.Index()
				}
				snap.Functions = append(snap.Functions, row)
			}
		}
	}
	return snap
}

func buildTree(m *core.TaskManager, visited map[*core.TaskManager]bool, depth int) []TaskNode {
	tasks := m.GetTaskList()
	nodes := make([]TaskNode, 0, len(tasks))
	for _, t := range tasks {
		node := TaskNode{
			Index: t.Index(),
			ID:    int(t.ID()),
			Group: int(t.GroupID()),
			Kind:  string(t.Kind()),
			Info:  t.Info(),
		}
		if sub, ok := t.(core.SubScheduler); ok && depth < maxTreeDepth {
			if inner := sub.SubTaskManager(); inner != nil && !visited[inner] {
				visited[inner] = true
				node.Children = buildTree(inner, visited, depth+1)
			}
		}
		nodes = append(nodes, node)
	}
	return nodes
}

// ServeHTTP writes the latest snapshot. The format is chosen by ?format=json|text
// and defaults to JSON.
func (p *Panel) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Cache-Control", "no-store")
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		w.Header().Set("Allow", "GET, HEAD")
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	snap, ok := p.Snapshot()
	if !ok {
		http.Error(w, "no snapshot yet", http.StatusServiceUnavailable)
		return
	}

	if r.URL.Query().Get("format") == "text" {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		if r.Method == http.MethodHead {
			return
		}
		_, _ = w.Write([]byte(RenderText(snap)))
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	if r.Method == http.MethodHead {
		return
	}
	_ = json.NewEncoder(w).Encode(snap)
}

// RenderText renders the tree indented by depth, followed by one
// tab-separated line per function.
func RenderText(snap *Snapshot) string {
	var b strings.Builder
	b.Grow(512)

	b.WriteString("manager\t")
	b.WriteString(snap.Manager)
	b.WriteString("\tframe\t")
	b.WriteString(strconv.FormatUint(snap.Frame, 10))
	b.WriteByte('\n')

	var walk func(nodes []TaskNode, depth int)
	walk = func(nodes []TaskNode, depth int) {
		for _, n := range nodes {
			b.WriteString(strings.Repeat("  ", depth))
			b.WriteString("task\t")
			b.WriteString(strconv.Itoa(n.Index))
			b.WriteByte('\t')
			b.WriteString(n.Kind)
			b.WriteByte('\t')
			b.WriteString(n.Info)
			b.WriteByte('\n')
			walk(n.Children, depth+1)
		}
	}
	walk(snap.Tasks, 0)

	for _, f := range snap.Functions {
		b.WriteString("function\t")
		b.WriteString(f.Division)
		b.WriteByte('\t')
		b.WriteString(strconv.Itoa(f.Priority))
		b.WriteByte('\t')
		b.WriteString(strconv.Itoa(f.Task))
		b.WriteByte('\t')
		b.WriteString(strconv.Itoa(f.ID))
		b.WriteByte('\t')
		b.WriteString(strconv.FormatBool(f.Enabled))
		b.WriteByte('\t')
		b.WriteString(strconv.Itoa(f.Delay))
		b.WriteByte('\t')
		b.WriteString(f.Info)
		b.WriteByte('\n')
	}
	return b.String()
}
