// Package audit keeps an append-only, hash-chained journal of layout writes.
package audit

import (
	"bufio"
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/grantoftegaard/garden/pkg/errclass"
	"github.com/grantoftegaard/garden/pkg/jsonutil"
	"github.com/grantoftegaard/garden/pkg/model"
)

// FileAppender appends audit records to a JSONL file with hash chain.
// Appends from one process are serialized; separate processes are not
// coordinated.
type FileAppender struct {
	path string
	now  func() time.Time
	mu   sync.Mutex
}

// NewFileAppender creates a new FileAppender.
func NewFileAppender(path string) *FileAppender {
	return &FileAppender{path: path, now: time.Now}
}

// WithClock replaces the clock used for record timestamps.
func (a *FileAppender) WithClock(now func() time.Time) *FileAppender {
	a.now = now
	return a
}

// Path returns the journal file path.
func (a *FileAppender) Path() string {
	return a.path
}

// Append adds a new audit record to the log.
func (a *FileAppender) Append(eventType model.AuditEventType, key model.SnapshotKey, details map[string]any) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(a.path), 0755); err != nil {
		return fmt.Errorf("create audit dir: %w", err)
	}

	file, err := os.OpenFile(a.path, os.O_CREATE|os.O_RDWR, 0644)
	if err != nil {
		return fmt.Errorf("open audit log: %w", err)
	}
	defer file.Close()

	prevHash, err := lastRecordHash(file)
	if err != nil {
		return fmt.Errorf("get last record hash: %w", err)
	}

	record := &model.AuditRecord{
		Timestamp:   a.now().UTC(),
		EventType:   eventType,
		SnapshotKey: key,
		Details:     details,
		PrevHash:    prevHash,
	}

	recordHash, err := computeRecordHash(record)
	if err != nil {
		return fmt.Errorf("compute record hash: %w", err)
	}
	record.RecordHash = recordHash

	line, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("marshal audit record: %w", err)
	}

	if _, err := file.Seek(0, io.SeekEnd); err != nil {
		return fmt.Errorf("seek to end: %w", err)
	}
	if _, err := file.Write(append(line, '\n')); err != nil {
		return fmt.Errorf("write audit record: %w", err)
	}
	if err := file.Sync(); err != nil {
		return fmt.Errorf("sync audit log: %w", err)
	}

	return nil
}

// Records returns every well-formed record in file order.
func (a *FileAppender) Records() ([]model.AuditRecord, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	file, err := os.Open(a.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("open audit log: %w", err)
	}
	defer file.Close()

	var out []model.AuditRecord
	err = scanRecords(file, func(_ int, r model.AuditRecord, perr error) error {
		if perr == nil {
			out = append(out, r)
		}
		return nil
	})
	return out, err
}

// Verify walks the chain and fails with ErrAuditChainBroken at the first
// malformed line, tampered record or broken link. A missing journal is an
// empty, valid chain. It returns the number of records checked.
func (a *FileAppender) Verify() (int, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	file, err := os.Open(a.path)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, fmt.Errorf("open audit log: %w", err)
	}
	defer file.Close()

	var prev model.HashValue
	count := 0
	err = scanRecords(file, func(lineNo int, r model.AuditRecord, perr error) error {
		if perr != nil {
			return errclass.ErrAuditChainBroken.WithMessagef("line %d: %v", lineNo, perr)
		}
		if r.PrevHash != prev {
			return errclass.ErrAuditChainBroken.WithMessagef("line %d: prev_hash does not match the preceding record", lineNo)
		}
		want, err := computeRecordHash(&r)
		if err != nil {
			return err
		}
		if r.RecordHash != want {
			return errclass.ErrAuditChainBroken.WithMessagef("line %d: record_hash mismatch", lineNo)
		}
		prev = r.RecordHash
		count++
		return nil
	})
	return count, err
}

func lastRecordHash(file *os.File) (model.HashValue, error) {
	if _, err := file.Seek(0, io.SeekStart); err != nil {
		return "", fmt.Errorf("seek to start: %w", err)
	}

	var lastHash model.HashValue
	err := scanRecords(file, func(_ int, r model.AuditRecord, perr error) error {
		if perr == nil {
			lastHash = r.RecordHash
		}
		return nil
	})
	return lastHash, err
}

// scanRecords decodes each non-blank line, keeping numbers as json.Number so
// a record hashes the same after a round trip.
func scanRecords(r io.Reader, fn func(lineNo int, rec model.AuditRecord, err error) error) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 4*1024*1024)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		var rec model.AuditRecord
		dec := json.NewDecoder(bytes.NewReader(line))
		dec.UseNumber()
		perr := dec.Decode(&rec)
		if err := fn(lineNo, rec, perr); err != nil {
			return err
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("scan audit log: %w", err)
	}
	return nil
}

func computeRecordHash(record *model.AuditRecord) (model.HashValue, error) {
	hashRecord := *record
	hashRecord.RecordHash = ""

	data, err := jsonutil.CanonicalMarshal(&hashRecord)
	if err != nil {
		return "", fmt.Errorf("canonical marshal: %w", err)
	}

	hash := sha256.Sum256(data)
	return model.HashValue(hex.EncodeToString(hash[:])), nil
}
