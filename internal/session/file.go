package session

import (
	"bufio"
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/dgerlanc/hookgate/internal/constants"
	"github.com/dgerlanc/hookgate/internal/logger"
)

// FileStore keeps one JSON-lines file per session under Dir. Each Append is a
// single O_APPEND write; the file is compacted to the newest Limit entries
// once it holds twice that many.
type FileStore struct {
	Dir   string
	Limit int
}

// NewFileStore returns a FileStore rooted at dir.
func NewFileStore(dir string, limit int) *FileStore {
	if limit <= 0 {
		limit = DefaultLimit
	}
	return &FileStore{Dir: dir, Limit: limit}
}

// Path returns the history file for a session id.
func (s *FileStore) Path(sessionID string) string {
	return filepath.Join(s.Dir, sanitize(sessionID)+".jsonl")
}

// maxPlainName bounds session ids used verbatim as file names.
const maxPlainName = 128

// sanitize maps a session id onto a file name. Ids made only of
// [A-Za-z0-9_-] are used as is; anything else becomes "h." plus the sha256
// of the id. The dot never appears in a plain name, so distinct ids never
// share a file.
func sanitize(id string) string {
	if id != "" && len(id) <= maxPlainName && strings.IndexFunc(id, unsafeRune) < 0 {
		return id
	}
	sum := sha256.Sum256([]byte(id))
	return "h." + hex.EncodeToString(sum[:])
}

func unsafeRune(r rune) bool {
	switch {
	case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
		return false
	default:
		return true
	}
}

// Append implements Store.
func (s *FileStore) Append(e Entry) error {
	if e.SessionID == "" {
		return ErrNoSession
	}
	if err := os.MkdirAll(s.Dir, constants.DirMode); err != nil {
		return fmt.Errorf("failed to create session directory: %w", err)
	}

	data, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("failed to marshal session entry: %w", err)
	}

	path := s.Path(e.SessionID)
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, constants.FileMode)
	if err != nil {
		return fmt.Errorf("failed to open session file: %w", err)
	}
	if _, err := f.Write(append(data, '\n')); err != nil {
		f.Close()
		return fmt.Errorf("failed to append session entry: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close session file: %w", err)
	}

	return s.compact(path)
}

// History implements Store.
func (s *FileStore) History(sessionID string) ([]Entry, error) {
	entries, err := s.read(s.Path(sessionID))
	if err != nil {
		return nil, err
	}
	own := entries[:0]
	for _, e := range entries {
		if e.SessionID == sessionID {
			own = append(own, e)
		}
	}
	return keepRecent(own, s.Limit), nil
}

// read parses every well-formed line of a history file.
func (s *FileStore) read(path string) ([]Entry, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read session file: %w", err)
	}

	var entries []Entry
	scanner := bufio.NewScanner(bytes.NewReader(data))
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	for scanner.Scan() {
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		var e Entry
		if err := json.Unmarshal(line, &e); err != nil {
			logger.Debug("skipping malformed session line", "path", path, "error", err)
			continue
		}
		entries = append(entries, e)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to scan session file: %w", err)
	}
	return entries, nil
}

// compact rewrites the file with the newest Limit entries once it has grown
// to twice the limit. The rewrite goes through a temp file and rename.
func (s *FileStore) compact(path string) error {
	entries, err := s.read(path)
	if err != nil {
		return err
	}
	if len(entries) < 2*s.Limit {
		return nil
	}

	var buf bytes.Buffer
	for _, e := range keepRecent(entries, s.Limit) {
		data, err := json.Marshal(e)
		if err != nil {
			return fmt.Errorf("failed to marshal session entry: %w", err)
		}
		buf.Write(data)
		buf.WriteByte('\n')
	}

	tmp, err := os.CreateTemp(s.Dir, ".session-*")
	if err != nil {
		return fmt.Errorf("failed to create temp session file: %w", err)
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(buf.Bytes()); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write temp session file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temp session file: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("failed to replace session file: %w", err)
	}
	logger.Debug("compacted session history", "path", path, "kept", s.Limit)
	return nil
}
