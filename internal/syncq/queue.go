// Package syncq holds field writes that still have to reach the backend.
package syncq

import (
	"context"
	"fmt"
	"io"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/five82/lessondesk/internal/gateway"
)

// MaxAttempts is the number of failed deliveries after which an entry is
// discarded.
const MaxAttempts = 3

// Entry is one pending write. FieldName and Value use the backend naming;
// AppField and AppValue remember the edit as the dashboard saw it.
type Entry struct {
	ID        string        `json:"id"`
	StudentID int64         `json:"studentId"`
	FieldName string        `json:"fieldName"`
	Value     gateway.Value `json:"value"`
	Timestamp int64         `json:"timestamp"`
	Attempts  int           `json:"attempts"`
	AppField  string        `json:"appField,omitempty"`
	AppValue  string        `json:"appValue,omitempty"`
}

// Patcher delivers one write. gateway.StudentGateway satisfies it.
type Patcher interface {
	PatchField(ctx context.Context, studentID int64, fieldName string, value gateway.Value) (*gateway.RawStudent, error)
}

// Result summarizes a flush pass.
type Result struct {
	Delivered int
	Failed    int // failed and kept for another pass
	Dropped   int // failed for the last time and discarded
	Remaining int
	Skipped   bool // another pass was already running
}

// Queue is an ordered list of pending writes. It is safe for concurrent
// use; at most one Flush runs at a time.
type Queue struct {
	mu      sync.Mutex
	entries []Entry

	running atomic.Bool
	now     func() time.Time
	logger  *log.Logger
}

// New returns an empty queue. A nil logger discards output.
func New(logger *log.Logger) *Queue {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Queue{now: time.Now, logger: logger}
}

// Enqueue appends a write for studentID and returns the stored entry.
func (q *Queue) Enqueue(studentID int64, w gateway.Write) Entry {
	q.mu.Lock()
	defer q.mu.Unlock()

	ts := q.now().UnixMilli()
	e := Entry{
		ID:        q.uniqueID(fmt.Sprintf("%d_%s_%d", studentID, w.FieldID, ts)),
		StudentID: studentID,
		FieldName: w.FieldID,
		Value:     w.Value,
		Timestamp: ts,
		AppField:  w.AppField,
		AppValue:  w.Display,
	}
	q.entries = append(q.entries, e)
	return e
}

func (q *Queue) uniqueID(base string) string {
	id := base
	for n := 1; q.indexOf(id) >= 0; n++ {
		id = fmt.Sprintf("%s_%d", base, n)
	}
	return id
}

func (q *Queue) indexOf(id string) int {
	for i := range q.entries {
		if q.entries[i].ID == id {
			return i
		}
	}
	return -1
}

// Len returns the number of pending entries.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.entries)
}

// Entries returns a copy of the pending entries in queue order.
func (q *Queue) Entries() []Entry {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.entries) == 0 {
		return nil
	}
	dup := make([]Entry, len(q.entries))
	copy(dup, q.entries)
	return dup
}

// Restore replaces the queue contents, typically from a saved snapshot.
// Entries without an id or a positive student id are dropped.
func (q *Queue) Restore(entries []Entry) {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.entries = nil
	for _, e := range entries {
		if e.ID == "" || e.StudentID <= 0 || e.FieldName == "" {
			continue
		}
		if e.Attempts >= MaxAttempts {
			continue
		}
		if q.indexOf(e.ID) >= 0 {
			continue
		}
		q.entries = append(q.entries, e)
	}
}

// Running reports whether a flush pass is in progress.
func (q *Queue) Running() bool {
	return q.running.Load()
}

// Flush makes one delivery attempt for every entry present when the pass
// starts, in queue order, one at a time. Delivered entries are removed;
// failed ones have their attempt count raised and are removed once it
// reaches MaxAttempts. Entries added during the pass wait for the next
// one. If a pass is already running Flush returns at once with Skipped set.
func (q *Queue) Flush(ctx context.Context, p Patcher) Result {
	if !q.running.CompareAndSwap(false, true) {
		return Result{Skipped: true, Remaining: q.Len()}
	}
	defer q.running.Store(false)

	var res Result
	for _, e := range q.Entries() {
		if ctx.Err() != nil {
			break
		}
		err := q.deliver(ctx, p, e)
		if err != nil && ctx.Err() != nil {
			// Shutdown interrupted the call; leave the entry as it was.
			break
		}

		q.mu.Lock()
		idx := q.indexOf(e.ID)
		if idx < 0 {
			q.mu.Unlock()
			continue
		}
		if err == nil {
			q.entries = append(q.entries[:idx], q.entries[idx+1:]...)
			q.mu.Unlock()
			res.Delivered++
			continue
		}
		q.entries[idx].Attempts++
		attempts := q.entries[idx].Attempts
		if attempts >= MaxAttempts {
			q.entries = append(q.entries[:idx], q.entries[idx+1:]...)
		}
		q.mu.Unlock()

		if attempts >= MaxAttempts {
			res.Dropped++
			q.logger.Printf("sync: dropping %s = %s for student %d after %d attempts: %v", e.FieldName, e.Value, e.StudentID, attempts, err)
		} else {
			res.Failed++
			q.logger.Printf("sync: %s for student %d failed (attempt %d): %v", e.FieldName, e.StudentID, attempts, err)
		}
	}
	res.Remaining = q.Len()
	return res
}

func (q *Queue) deliver(ctx context.Context, p Patcher, e Entry) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("patch panicked: %v", r)
		}
	}()
	_, err = p.PatchField(ctx, e.StudentID, e.FieldName, e.Value)
	return err
}
