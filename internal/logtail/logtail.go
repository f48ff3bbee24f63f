package logtail

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"regexp"
	"strings"
)

// Level is the severity guessed for a log line.
type Level int

// Levels in increasing severity.
const (
	LevelInfo Level = iota
	LevelWarn
	LevelError
)

// Entry is one parsed log line.
type Entry struct {
	Time    string // "2006/01/02 15:04:05", empty when the line has no prefix
	Message string
	Level   Level
}

var timestampPattern = regexp.MustCompile(`^(\d{4}/\d{2}/\d{2} \d{2}:\d{2}:\d{2})(?:\.\d+)? (.*)$`)

var (
	errorWords = []string{"failed", "error", "discarded", "panic", "dropping", "corrupt", "unreadable"}
	warnWords  = []string{"offline", "unreachable", "retry", "attempt", "skipped"}
)

// Read returns at most maxLines from the end of the file at path. A
// non-positive maxLines returns the whole file.
func Read(path string, maxLines int) ([]string, error) {
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("open log: %w", err)
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	if maxLines <= 0 {
		var lines []string
		for scanner.Scan() {
			lines = append(lines, scanner.Text())
		}
		if err := scanner.Err(); err != nil {
			return nil, fmt.Errorf("read log: %w", err)
		}
		return lines, nil
	}

	ring := make([]string, maxLines)
	count := 0
	idx := 0
	for scanner.Scan() {
		ring[idx] = scanner.Text()
		idx = (idx + 1) % maxLines
		if count < maxLines {
			count++
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read log: %w", err)
	}

	lines := make([]string, count)
	if count == maxLines {
		for i := 0; i < count; i++ {
			lines[i] = ring[(idx+i)%maxLines]
		}
	} else {
		copy(lines, ring[:count])
	}
	return lines, nil
}

// Parse splits a line written by the standard logger into timestamp and
// message and guesses its severity from the wording.
func Parse(line string) Entry {
	entry := Entry{Message: line}
	if m := timestampPattern.FindStringSubmatch(line); m != nil {
		entry.Time = m[1]
		entry.Message = m[2]
	}
	lower := strings.ToLower(entry.Message)
	switch {
	case containsAny(lower, errorWords):
		entry.Level = LevelError
	case containsAny(lower, warnWords):
		entry.Level = LevelWarn
	}
	return entry
}

func containsAny(s string, words []string) bool {
	for _, w := range words {
		if strings.Contains(s, w) {
			return true
		}
	}
	return false
}
