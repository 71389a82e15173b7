package transaction

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"

	"napm/pkg/database"
)

// The journal is an append-only JSON-lines file written to stable storage
// before any target path is touched. The first line describes the whole
// transaction; subsequent lines record progress. Its mere existence at
// startup means a transaction did not finish.

type journalHeader struct {
	Version    int                `json:"version"`
	Root       string             `json:"root"`
	BackupDir  string             `json:"backup_dir"`
	Generation uint64             `json:"generation"`
	Actions    []FileAction       `json:"actions"`
	Change     database.ChangeSet `json:"change"`
}

type journalLine struct {
	Applying  bool   `json:"applying,omitempty"`
	Done      *int   `json:"done,omitempty"`
	Backup    string `json:"backup,omitempty"`
	Undone    *int   `json:"undone,omitempty"`
	Committed bool   `json:"committed,omitempty"`
}

const journalVersion = 1

type journal struct {
	path string
	f    *os.File
}

// newJournal creates the journal file exclusively and records the header
// durably. An existing journal means unfinished business and is an error.
func newJournal(path string, hdr journalHeader) (*journal, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o600)
	if err != nil {
		if os.IsExist(err) {
			return nil, ErrJournalExists
		}
		return nil, err
	}

	j := &journal{path: path, f: f}
	if err := j.writeLine(hdr); err != nil {
		f.Close()
		os.Remove(path)
		return nil, err
	}
	return j, nil
}

func (j *journal) writeLine(v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	if _, err := j.f.Write(append(data, '\n')); err != nil {
		return err
	}
	return j.f.Sync()
}

func (j *journal) markApplying() error {
	return j.writeLine(journalLine{Applying: true})
}

func (j *journal) actionDone(idx int, backup string) error {
	return j.writeLine(journalLine{Done: &idx, Backup: backup})
}

// actionUndone records that a rollback reversed the action, so a later
// recovery pass does not try to reverse it again.
func (j *journal) actionUndone(idx int) error {
	return j.writeLine(journalLine{Undone: &idx})
}

func (j *journal) markCommitted() error {
	return j.writeLine(journalLine{Committed: true})
}

// discard removes the journal file.
func (j *journal) discard() error {
	j.f.Close()
	return os.Remove(j.path)
}

// close releases the file handle but leaves the journal on disk for
// recovery to pick up.
func (j *journal) close() error {
	return j.f.Close()
}

// journalState is the parsed content of a journal found on disk.
type journalState struct {
	Header    journalHeader
	Applying  bool
	Done      map[int]string // action index -> backup path
	Committed bool
}

// allDone reports whether every action has a completion record.
func (s *journalState) allDone() bool {
	return len(s.Done) == len(s.Header.Actions)
}

// readJournal parses a journal file. A trailing torn line (the crash may
// have landed mid-write) is ignored.
func readJournal(path string) (*journalState, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 1<<20), 64<<20)

	if !scanner.Scan() {
		return nil, fmt.Errorf("journal %s is empty", path)
	}

	state := &journalState{Done: make(map[int]string)}
	if err := json.Unmarshal(scanner.Bytes(), &state.Header); err != nil {
		return nil, fmt.Errorf("malformed journal header: %w", err)
	}
	if state.Header.Version != journalVersion {
		return nil, fmt.Errorf("unsupported journal version %d", state.Header.Version)
	}

	for scanner.Scan() {
		var line journalLine
		if err := json.Unmarshal(scanner.Bytes(), &line); err != nil {
			break // torn tail, everything before it is valid
		}
		switch {
		case line.Applying:
			state.Applying = true
		case line.Done != nil:
			state.Done[*line.Done] = line.Backup
		case line.Undone != nil:
			delete(state.Done, *line.Undone)
		case line.Committed:
			state.Committed = true
		}
	}

	return state, scanner.Err()
}
