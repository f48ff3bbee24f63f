package attendance

import (
	"encoding/json"
	"errors"
	"io"
	"log"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/five82/lessondesk/internal/storage"
)

// BlobName is the storage key of the attendance log.
const BlobName = "teaching_assistant_attendance.json"

const dateLayout = "2006-01-02"

// Record is one (student, day) entry. Timestamp is epoch milliseconds.
type Record struct {
	StudentID int64  `json:"studentId"`
	Date      string `json:"date"`
	Status    Status `json:"status"`
	Timestamp int64  `json:"timestamp"`
	Note      string `json:"note,omitempty"`
}

// Stats summarizes a student's records within a window.
type Stats struct {
	Total     int
	Appeared  int
	Sick      int // cancelled by the student, including legacy "krank"
	Cancelled int // cancelled by the teacher, no school, legacy "abgesagt"
	NoShow    int
	Rate      int // appeared/total in percent, 0 when total is 0
}

// Store is the attendance log. Every call reads the blob and every change
// writes it back in full; storage failures are logged and never returned.
type Store struct {
	blobs  storage.Blobs
	logger *log.Logger
	now    func() time.Time

	mu sync.Mutex
}

// Option customizes a Store.
type Option func(*Store)

// WithClock overrides the time source used for "today".
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithLogger sets the logger for storage failures.
func WithLogger(l *log.Logger) Option {
	return func(s *Store) {
		if l != nil {
			s.logger = l
		}
	}
}

// NewStore returns a store persisting to blobs.
func NewStore(blobs storage.Blobs, opts ...Option) *Store {
	s := &Store{
		blobs:  blobs,
		logger: log.New(io.Discard, "", 0),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// DateKey formats t as the local calendar date used for record keys.
func DateKey(t time.Time) string {
	return t.Local().Format(dateLayout)
}

// Set records status for (studentID, date), replacing any earlier record.
func (s *Store) Set(studentID int64, date string, status Status, note string) Record {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec := Record{
		StudentID: studentID,
		Date:      date,
		Status:    status,
		Timestamp: s.now().UnixMilli(),
		Note:      note,
	}
	records := s.load()
	replaced := false
	for i := range records {
		if records[i].StudentID == studentID && records[i].Date == date {
			records[i] = rec
			replaced = true
			break
		}
	}
	if !replaced {
		records = append(records, rec)
	}
	s.save(records)
	return rec
}

// SetToday records status for today's local date.
func (s *Store) SetToday(studentID int64, status Status, note string) Record {
	return s.Set(studentID, DateKey(s.now()), status, note)
}

// Get returns the record for (studentID, date).
func (s *Store) Get(studentID int64, date string) (Record, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, rec := range s.load() {
		if rec.StudentID == studentID && rec.Date == date {
			return rec, true
		}
	}
	return Record{}, false
}

// Today returns the record for today's local date.
func (s *Store) Today(studentID int64) (Record, bool) {
	return s.Get(studentID, DateKey(s.now()))
}

// CancelledToday reports whether today's record exists and is anything
// other than appeared.
func (s *Store) CancelledToday(studentID int64) bool {
	rec, ok := s.Today(studentID)
	return ok && rec.Status != Appeared
}

// Remove deletes the record for (studentID, date) if present.
func (s *Store) Remove(studentID int64, date string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	records := s.load()
	kept := records[:0]
	for _, rec := range records {
		if rec.StudentID == studentID && rec.Date == date {
			continue
		}
		kept = append(kept, rec)
	}
	if len(kept) == len(records) {
		return
	}
	s.save(kept)
}

// All returns every record sorted by date, then student.
func (s *Store) All() []Record {
	s.mu.Lock()
	records := s.load()
	s.mu.Unlock()

	sort.SliceStable(records, func(i, j int) bool {
		if records[i].Date != records[j].Date {
			return records[i].Date < records[j].Date
		}
		return records[i].StudentID < records[j].StudentID
	})
	return records
}

// History returns the student's records newest first. limit <= 0 returns all.
func (s *Store) History(studentID int64, limit int) []Record {
	s.mu.Lock()
	all := s.load()
	s.mu.Unlock()

	var out []Record
	for _, rec := range all {
		if rec.StudentID == studentID {
			out = append(out, rec)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Timestamp > out[j].Timestamp })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

// Stats counts the student's records dated within the last windowDays
// days. windowDays <= 0 covers all history.
func (s *Store) Stats(studentID int64, windowDays int) Stats {
	records := s.History(studentID, 0)
	cutoff := ""
	if windowDays > 0 {
		cutoff = DateKey(s.now().AddDate(0, 0, -windowDays))
	}

	var st Stats
	for _, rec := range records {
		if cutoff != "" && rec.Date < cutoff {
			continue
		}
		st.Total++
		switch rec.Status.bucket() {
		case bucketAppeared:
			st.Appeared++
		case bucketSick:
			st.Sick++
		case bucketCancelled:
			st.Cancelled++
		case bucketNoShow:
			st.NoShow++
		}
	}
	if st.Total > 0 {
		st.Rate = int(math.Round(float64(st.Appeared) / float64(st.Total) * 100))
	}
	return st
}

func (s *Store) load() []Record {
	data, err := s.blobs.Load(BlobName)
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			s.logger.Printf("attendance: load failed, starting empty: %v", err)
		}
		return nil
	}
	var records []Record
	if err := json.Unmarshal(data, &records); err != nil {
		s.logger.Printf("attendance: log is corrupt, starting empty: %v", err)
		return nil
	}
	return records
}

func (s *Store) save(records []Record) {
	if records == nil {
		records = []Record{}
	}
	data, err := json.Marshal(records)
	if err != nil {
		s.logger.Printf("attendance: encode failed: %v", err)
		return
	}
	if err := s.blobs.Save(BlobName, data); err != nil {
		s.logger.Printf("attendance: save failed: %v", err)
	}
}
