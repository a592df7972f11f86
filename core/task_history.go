package core

import (
	"reflect"
	"runtime"
	"sync"
)

const defaultCallHistoryCapacity = 100

type callHistory struct {
	mu    sync.Mutex
	items []FunctionCallRecord
	head  int
	count int
}

func newCallHistory(capacity int) *callHistory {
	if capacity < 1 {
		capacity = defaultCallHistoryCapacity
	}
	return &callHistory{items: make([]FunctionCallRecord, capacity)}
}

func (h *callHistory) Add(record FunctionCallRecord) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.items[h.head] = record
	h.head = (h.head + 1) % len(h.items)
	if h.count < len(h.items) {
		h.count++
	}
}

// Recent returns up to limit records, newest first. limit <= 0 means all.
func (h *callHistory) Recent(limit int) []FunctionCallRecord {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.count == 0 {
		return nil
	}

	if limit <= 0 || limit > h.count {
		limit = h.count
	}

	out := make([]FunctionCallRecord, 0, limit)
	for i := range limit {
		idx := (h.head - 1 - i + len(h.items)) % len(h.items)
		out = append(out, h.items[idx])
	}
	return out
}

func (h *callHistory) Reset() {
	h.mu.Lock()
	defer h.mu.Unlock()
	clear(h.items)
	h.head = 0
	h.count = 0
}

func resolveFunctionName(body FunctionBody, explicit string) string {
	if explicit != "" {
		return explicit
	}

	if body == nil {
		return "anonymous"
	}

	pc := reflect.ValueOf(body).Pointer()
	if pc == 0 {
		return "anonymous"
	}

	fn := runtime.FuncForPC(pc)
	if fn == nil || fn.Name() == "" {
		return "anonymous"
	}
	return fn.Name()
}
