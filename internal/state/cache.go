package state

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/five82/lessondesk/internal/gateway"
	"github.com/five82/lessondesk/internal/roster"
	"github.com/five82/lessondesk/internal/storage"
	"github.com/five82/lessondesk/internal/syncq"
)

// BlobName is the storage key of the offline snapshot.
const BlobName = "teaching_assistant_data.json"

const (
	defaultSyncInterval    = 30 * time.Second
	defaultRefreshInterval = 30 * time.Second
)

// Status is the sync state shown to the user.
type Status string

// Sync states.
const (
	StatusLoading Status = "loading"
	StatusSynced  Status = "synced"
	StatusSyncing Status = "syncing"
	StatusOffline Status = "offline"
	StatusError   Status = "error"
)

// Connectivity reports reachability and announces changes.
// *netwatch.Monitor satisfies it.
type Connectivity interface {
	Online() bool
	OnChange(fn func(online bool)) (unsubscribe func())
}

// Options configure a Cache. Blobs, Gateway and Fields are required.
type Options struct {
	Blobs           storage.Blobs
	Gateway         gateway.StudentGateway
	Fields          *gateway.FieldTable
	Connectivity    Connectivity  // nil means always online
	SyncInterval    time.Duration // flush timer; zero selects 30s
	RefreshInterval time.Duration // roster staleness; zero selects 30s
	Now             func() time.Time
	Logger          *log.Logger
}

// SyncState is the summary returned by SyncStatus.
type SyncState struct {
	Status      Status
	QueueLength int
}

// Snapshot is a point-in-time copy of the cache for rendering.
type Snapshot struct {
	Students    []roster.Student
	Status      Status
	QueueLength int
	LastSync    time.Time
	LastError   error
	Online      bool
	Version     uint64 // bumped on every roster or status change
}

type persisted struct {
	Students    []roster.Student `json:"students"`
	UpdateQueue []syncq.Entry    `json:"updateQueue"`
	LastSync    int64            `json:"lastSync"`
	SyncStatus  Status           `json:"syncStatus"`
}

// Cache is the offline-first roster: the UI reads from it, edits land in
// it first, and it reconciles with the backend in the background.
type Cache struct {
	blobs           storage.Blobs
	gw              gateway.StudentGateway
	fields          *gateway.FieldTable
	conn            Connectivity
	syncInterval    time.Duration
	refreshInterval time.Duration
	now             func() time.Time
	logger          *log.Logger

	queue *syncq.Queue

	mu       sync.RWMutex
	students []roster.Student
	lastSync time.Time
	status   Status
	lastErr  error
	version  uint64

	// fetchSeq numbers roster fetches; appliedSeq (under mu) is the
	// newest one whose result was applied.
	fetchSeq   atomic.Uint64
	appliedSeq uint64

	persistMu  sync.Mutex
	refreshing atomic.Bool
	destroyed  atomic.Bool
	bg         sync.WaitGroup

	timer       *cron.Cron
	unsubscribe func()
	destroyOnce sync.Once
}

// New builds a Cache in the loading state. Call Initialize before use.
func New(opts Options) (*Cache, error) {
	if opts.Blobs == nil || opts.Gateway == nil || opts.Fields == nil {
		return nil, fmt.Errorf("state: blobs, gateway and fields are required")
	}
	c := &Cache{
		blobs:           opts.Blobs,
		gw:              opts.Gateway,
		fields:          opts.Fields,
		conn:            opts.Connectivity,
		syncInterval:    opts.SyncInterval,
		refreshInterval: opts.RefreshInterval,
		now:             opts.Now,
		logger:          opts.Logger,
		status:          StatusLoading,
	}
	if c.syncInterval <= 0 {
		c.syncInterval = defaultSyncInterval
	}
	if c.refreshInterval <= 0 {
		c.refreshInterval = defaultRefreshInterval
	}
	if c.now == nil {
		c.now = time.Now
	}
	if c.logger == nil {
		c.logger = log.New(io.Discard, "", 0)
	}
	c.queue = syncq.New(c.logger)
	return c, nil
}

// Initialize loads the saved snapshot, subscribes to connectivity changes
// and starts the flush timer. Pending writes from a previous run are sent
// right away when online.
func (c *Cache) Initialize(ctx context.Context) error {
	snap := c.load()

	c.queue.Restore(snap.UpdateQueue)
	online := c.Online()

	c.mu.Lock()
	c.students = roster.Clone(snap.Students)
	if snap.LastSync > 0 {
		c.lastSync = time.UnixMilli(snap.LastSync)
	}
	switch {
	case !online:
		c.status = StatusOffline
	case c.queue.Len() > 0:
		c.status = StatusSyncing
	default:
		c.status = StatusSynced
	}
	c.version++
	c.mu.Unlock()

	if c.conn != nil {
		c.unsubscribe = c.conn.OnChange(c.connectivityChanged)
	}

	c.timer = cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.PrintfLogger(c.logger))))
	c.timer.Schedule(cron.Every(c.syncInterval), cron.FuncJob(c.tick))
	c.timer.Start()

	c.persist()
	if online && c.queue.Len() > 0 {
		c.background(func() { c.Flush(context.WithoutCancel(ctx)) })
	}
	return nil
}

// Destroy stops the flush timer and connectivity subscription. Calls
// already in flight run to completion. Safe to call more than once.
func (c *Cache) Destroy() {
	c.destroyOnce.Do(func() {
		c.destroyed.Store(true)
		if c.timer != nil {
			c.timer.Stop()
		}
		if c.unsubscribe != nil {
			c.unsubscribe()
		}
	})
}

// Wait blocks until background refreshes and flushes started by the cache
// have returned.
func (c *Cache) Wait() {
	c.bg.Wait()
}

// Online reports the connectivity state.
func (c *Cache) Online() bool {
	if c.conn == nil {
		return true
	}
	return c.conn.Online()
}

// Students returns the cached roster. When online and the roster is older
// than the refresh interval a refresh starts in the background; this call
// never waits for the network.
func (c *Cache) Students(ctx context.Context) []roster.Student {
	c.mu.RLock()
	out := roster.Clone(c.students)
	stale := c.now().Sub(c.lastSync) > c.refreshInterval
	c.mu.RUnlock()

	if stale && c.Online() && !c.destroyed.Load() && c.refreshing.CompareAndSwap(false, true) {
		c.background(func() {
			defer c.refreshing.Store(false)
			_ = c.Refresh(context.WithoutCancel(ctx))
		})
	}
	return out
}

// Refresh fetches the roster and replaces the cached one. Pending edits
// are applied on top of the fresh rows in queue order so an unsent edit
// stays visible. On failure the cached roster is kept and the status
// becomes error. When fetches overlap, a response older than one already
// applied is dropped.
func (c *Cache) Refresh(ctx context.Context) error {
	seq := c.fetchSeq.Add(1)
	rows, err := c.gw.FetchAllStudents(ctx)
	if err != nil {
		c.mu.Lock()
		if seq < c.appliedSeq {
			c.mu.Unlock()
			return err
		}
		c.appliedSeq = seq
		c.lastErr = err
		if c.status != StatusOffline {
			c.status = StatusError
		}
		c.version++
		c.mu.Unlock()
		c.logger.Printf("roster refresh failed, using cache: %v", err)
		c.persist()
		return err
	}

	fresh := gateway.ToStudents(rows, c.fields)
	online := c.Online()

	// Enqueue happens under c.mu, so the queue read and the swap below
	// must share one critical section.
	c.mu.Lock()
	if latest := c.appliedSeq; seq < latest {
		c.mu.Unlock()
		c.logger.Printf("roster refresh %d superseded by %d, discarding", seq, latest)
		return nil
	}
	c.appliedSeq = seq
	pending := c.queue.Entries()
	for _, e := range pending {
		if e.AppField == "" {
			continue
		}
		if i := roster.Find(fresh, e.StudentID); i >= 0 {
			fresh[i].Set(e.AppField, e.AppValue)
		}
	}
	c.students = fresh
	c.lastSync = c.now()
	c.lastErr = nil
	switch {
	case !online:
		c.status = StatusOffline
	case len(pending) > 0:
		c.status = StatusSyncing
	default:
		c.status = StatusSynced
	}
	c.version++
	c.mu.Unlock()

	c.persist()
	if online && len(pending) > 0 && !c.destroyed.Load() {
		c.background(func() { c.Flush(context.WithoutCancel(ctx)) })
	}
	return nil
}

// UpdateField applies an edit to the cached roster, queues it for the
// backend and persists both. Unknown or read-only fields and invalid
// values are rejected before anything changes.
func (c *Cache) UpdateField(studentID int64, appField, value string) error {
	w, err := c.fields.Prepare(studentID, appField, value)
	if err != nil {
		return err
	}

	online := c.Online()
	c.mu.Lock()
	if i := roster.Find(c.students, studentID); i >= 0 {
		c.students[i].Set(w.AppField, w.Display)
	}
	c.queue.Enqueue(studentID, w)
	if online {
		c.status = StatusSyncing
	} else {
		c.status = StatusOffline
	}
	c.version++
	c.mu.Unlock()

	c.persist()
	if online {
		c.background(func() { c.Flush(context.Background()) })
	}
	return nil
}

// Flush sends pending writes once. It does nothing while offline or while
// another flush is running.
func (c *Cache) Flush(ctx context.Context) syncq.Result {
	if !c.Online() {
		c.setStatus(StatusOffline)
		return syncq.Result{Skipped: true, Remaining: c.queue.Len()}
	}
	if c.queue.Len() == 0 && !c.queue.Running() {
		c.setStatus(StatusSynced)
		c.persist()
		return syncq.Result{}
	}

	c.setStatus(StatusSyncing)
	res := c.queue.Flush(ctx, c.gw)
	if res.Skipped {
		return res
	}

	switch {
	case !c.Online():
		c.setStatus(StatusOffline)
	case res.Remaining == 0:
		c.setStatus(StatusSynced)
	default:
		c.setStatus(StatusError)
	}
	if res.Dropped > 0 {
		c.mu.Lock()
		c.lastErr = fmt.Errorf("%d change(s) could not be saved and were discarded", res.Dropped)
		c.mu.Unlock()
	}
	c.persist()
	return res
}

// SyncStatus returns the status and the number of pending writes.
func (c *Cache) SyncStatus() SyncState {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return SyncState{Status: c.status, QueueLength: c.queue.Len()}
}

// Pending returns a copy of the queued writes.
func (c *Cache) Pending() []syncq.Entry {
	return c.queue.Entries()
}

// Snapshot returns a copy of the current state.
func (c *Cache) Snapshot() Snapshot {
	online := c.Online()
	c.mu.RLock()
	defer c.mu.RUnlock()

	snap := Snapshot{
		Students:    roster.Clone(c.students),
		Status:      c.status,
		QueueLength: c.queue.Len(),
		LastSync:    c.lastSync,
		Online:      online,
		Version:     c.version,
	}
	if c.lastErr != nil {
		snap.LastError = fmt.Errorf("%w", c.lastErr)
	}
	return snap
}

func (c *Cache) tick() {
	if c.destroyed.Load() || !c.Online() || c.queue.Len() == 0 {
		return
	}
	c.Flush(context.Background())
}

func (c *Cache) connectivityChanged(online bool) {
	if !online {
		c.setStatus(StatusOffline)
		c.persist()
		return
	}
	if c.queue.Len() == 0 {
		c.setStatus(StatusSynced)
		c.persist()
		return
	}
	c.setStatus(StatusSyncing)
	if !c.destroyed.Load() {
		c.background(func() { c.Flush(context.Background()) })
	}
}

func (c *Cache) setStatus(s Status) {
	c.mu.Lock()
	if c.status != s {
		c.status = s
		c.version++
	}
	c.mu.Unlock()
}

func (c *Cache) background(fn func()) {
	c.bg.Add(1)
	go func() {
		defer c.bg.Done()
		fn()
	}()
}

// ReadStudents returns the roster saved in the offline snapshot without
// starting a cache. A missing snapshot yields an empty roster.
func ReadStudents(blobs storage.Blobs) ([]roster.Student, error) {
	data, err := blobs.Load(BlobName)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	var snap persisted
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("decode offline snapshot: %w", err)
	}
	return snap.Students, nil
}

func (c *Cache) load() persisted {
	data, err := c.blobs.Load(BlobName)
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			c.logger.Printf("offline snapshot unreadable, starting empty: %v", err)
		}
		return persisted{}
	}
	var snap persisted
	if err := json.Unmarshal(data, &snap); err != nil {
		c.logger.Printf("offline snapshot corrupt, starting empty: %v", err)
		return persisted{}
	}
	return snap
}

// persist writes the snapshot. Failures are logged and otherwise ignored.
func (c *Cache) persist() {
	c.persistMu.Lock()
	defer c.persistMu.Unlock()

	c.mu.RLock()
	snap := persisted{
		Students:    c.students,
		UpdateQueue: c.queue.Entries(),
		SyncStatus:  c.status,
	}
	if snap.Students == nil {
		snap.Students = []roster.Student{}
	}
	if snap.UpdateQueue == nil {
		snap.UpdateQueue = []syncq.Entry{}
	}
	if !c.lastSync.IsZero() {
		snap.LastSync = c.lastSync.UnixMilli()
	}
	data, err := json.Marshal(snap)
	c.mu.RUnlock()
	if err != nil {
		c.logger.Printf("encode offline snapshot: %v", err)
		return
	}
	if err := c.blobs.Save(BlobName, data); err != nil {
		c.logger.Printf("save offline snapshot: %v", err)
	}
}
