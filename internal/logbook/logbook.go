// Package logbook keeps the session history of a sample sheet: imports,
// barcode assignments, removals, edits and failures, one entry per line in
// .poresamples/logs/session.log.
package logbook

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// Level represents the severity of a log entry.
type Level string

const (
	LevelInfo  Level = "INFO"
	LevelWarn  Level = "WARN"
	LevelError Level = "ERROR"
)

func (lv Level) rank() int {
	switch lv {
	case LevelWarn:
		return 1
	case LevelError:
		return 2
	default:
		return 0
	}
}

// AtLeast reports whether lv is as severe as floor.
func (lv Level) AtLeast(floor Level) bool {
	return lv.rank() >= floor.rank()
}

// Entry is one parsed logbook line.
type Entry struct {
	Time    time.Time
	Level   Level
	Message string
}

// String renders the entry the way it is stored.
func (e Entry) String() string {
	return fmt.Sprintf("%s %-5s %s", e.Time.UTC().Format(time.RFC3339), string(e.Level), e.Message)
}

// parseEntry reads a stored line back. Lines written by hand or cut short
// come back as INFO entries carrying the raw text.
func parseEntry(line string) Entry {
	fields := strings.SplitN(line, " ", 2)
	if len(fields) == 2 {
		if ts, err := time.Parse(time.RFC3339, fields[0]); err == nil {
			rest := strings.TrimLeft(fields[1], " ")
			level, msg, _ := strings.Cut(rest, " ")
			switch Level(level) {
			case LevelInfo, LevelWarn, LevelError:
				return Entry{Time: ts, Level: Level(level), Message: strings.TrimLeft(msg, " ")}
			}
		}
	}
	return Entry{Level: LevelInfo, Message: line}
}

// Logbook appends session entries to a plain text file. A nil *Logbook
// discards everything.
type Logbook struct {
	path string
	now  func() time.Time
	mu   sync.Mutex
}

// New creates a logbook that writes to the provided path.
func New(path string) (*Logbook, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("logbook: ensure dir: %w", err)
	}
	return &Logbook{path: path, now: time.Now}, nil
}

// Path returns the file backing this logbook.
func (l *Logbook) Path() string {
	if l == nil {
		return ""
	}
	return l.path
}

// Append writes one entry. Multi-line messages are folded onto one line.
func (l *Logbook) Append(level Level, message string) {
	if l == nil {
		return
	}
	entry := Entry{
		Time:    l.now(),
		Level:   level,
		Message: strings.Join(strings.Fields(message), " "),
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	file, err := os.OpenFile(l.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return
	}
	defer file.Close()
	_, _ = file.WriteString(entry.String() + "\n")
}

// Recent returns up to n of the newest entries at or above floor, oldest
// first, plus how many entries in the whole file meet floor.
func (l *Logbook) Recent(n int, floor Level) ([]Entry, int) {
	if l == nil || n <= 0 {
		return nil, 0
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	file, err := os.Open(l.path)
	if err != nil {
		return nil, 0
	}
	defer file.Close()

	var matched []Entry
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		if strings.TrimSpace(scanner.Text()) == "" {
			continue
		}
		e := parseEntry(scanner.Text())
		if e.Level.AtLeast(floor) {
			matched = append(matched, e)
		}
	}
	total := len(matched)
	if total > n {
		matched = matched[total-n:]
	}
	return matched, total
}

// Tail returns up to maxLines of the newest lines and the number of entries
// in the file.
func (l *Logbook) Tail(maxLines int) ([]string, int) {
	entries, total := l.Recent(maxLines, LevelInfo)
	if entries == nil {
		return nil, total
	}
	lines := make([]string, len(entries))
	for i, e := range entries {
		lines[i] = e.String()
	}
	return lines, total
}

// Info appends an informational entry.
func (l *Logbook) Info(format string, args ...any) {
	l.Append(LevelInfo, fmt.Sprintf(format, args...))
}

// Warn appends a warning, such as a rejected barcode drop.
func (l *Logbook) Warn(format string, args ...any) {
	l.Append(LevelWarn, fmt.Sprintf(format, args...))
}

// Error appends a failed operation.
func (l *Logbook) Error(format string, args ...any) {
	l.Append(LevelError, fmt.Sprintf(format, args...))
}
