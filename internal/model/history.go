package model

import "time"

// HistoryCap is how many completion events are retained.
const HistoryCap = 100

// CompletionEvent records that a task was marked done. ID is the task id and
// repeats across events; Title is a snapshot taken at completion time.
type CompletionEvent struct {
	ID        string `json:"id" yaml:"id"`
	Title     string `json:"title" yaml:"title"`
	Timestamp int64  `json:"timestamp" yaml:"timestamp"`
}

func (e CompletionEvent) Time() time.Time { return time.UnixMilli(e.Timestamp) }

// History is the completion log, most recent first.
type History []CompletionEvent

// Append puts ev at the head and drops entries beyond HistoryCap.
func (h *History) Append(ev CompletionEvent) {
	n := len(*h)
	if n > HistoryCap-1 {
		n = HistoryCap - 1
	}
	out := make(History, 0, n+1)
	out = append(out, ev)
	out = append(out, (*h)[:n]...)
	*h = out
}

func (h *History) Clear() { *h = History{} }

// Capped returns h truncated to HistoryCap entries.
func (h History) Capped() History {
	if len(h) > HistoryCap {
		return h[:HistoryCap]
	}
	return h
}
