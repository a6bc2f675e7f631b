package session

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/uuid"

	"github.com/wikirag/wikirag/internal/log"
)

const sessionsDir = "sessions"

// Record is one question and answer exchange in a transcript.
type Record struct {
	Time     time.Time `json:"time"`
	Question string    `json:"question"`
	Style    string    `json:"style"`
	Article  string    `json:"article,omitempty"`
	Answer   string    `json:"answer"`
}

// Store appends transcripts as JSONL, one file per session. Appends are
// guarded by a file lock so concurrent processes cannot interleave
// partial lines.
type Store struct {
	dir    string
	id     uuid.UUID
	logger log.Logger
}

// NewStore creates a transcript store for a fresh session.
func NewStore(logger log.Logger) (*Store, error) {
	if logger == nil {
		logger = log.NewNop()
	}

	base, err := StateDir()
	if err != nil {
		return nil, err
	}

	dir := filepath.Join(base, sessionsDir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating sessions directory: %w", err)
	}

	return &Store{
		dir:    dir,
		id:     uuid.New(),
		logger: logger,
	}, nil
}

// ID returns the session identifier.
func (s *Store) ID() uuid.UUID {
	return s.id
}

func (s *Store) transcriptPath() string {
	return filepath.Join(s.dir, s.id.String()+".jsonl")
}

// Append writes one record to the session transcript.
func (s *Store) Append(rec Record) error {
	if rec.Time.IsZero() {
		rec.Time = time.Now()
	}

	line, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encoding record: %w", err)
	}

	path := s.transcriptPath()
	lock := flock.New(path + ".lock")
	if err := lock.Lock(); err != nil {
		return fmt.Errorf("locking transcript: %w", err)
	}
	defer func() {
		if err := lock.Unlock(); err != nil {
			s.logger.Warn("unlocking transcript", "error", err)
		}
	}()

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("opening transcript: %w", err)
	}
	defer f.Close()

	if _, err := f.Write(append(line, '\n')); err != nil {
		return fmt.Errorf("writing transcript: %w", err)
	}

	return nil
}

// Records reads back the full transcript for this session.
// Returns nil if nothing has been recorded yet.
func (s *Store) Records() ([]Record, error) {
	f, err := os.Open(s.transcriptPath())
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("opening transcript: %w", err)
	}
	defer f.Close()

	var records []Record
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var rec Record
		if err := json.Unmarshal(line, &rec); err != nil {
			s.logger.Warn("skipping malformed transcript line", "error", err)
			continue
		}
		records = append(records, rec)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading transcript: %w", err)
	}

	return records, nil
}
