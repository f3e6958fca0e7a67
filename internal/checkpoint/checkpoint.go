// Package checkpoint persists and recovers the {table_name,
// last_timestamp} records an insert run commits progress under, so a
// restarted run can skip rows already written to the sink.
//
// Grounded on the teacher's ts.Writer: a single append-only stream, one
// record per write, with a sticky err field that once set short-circuits
// every later call rather than being checked at each call site.
// Framing borrows ts.Writer's marker-byte-then-length shape, simplified
// to the one record type this package needs.
package checkpoint

import (
	"bufio"
	"encoding/binary"
	"io"
	"os"

	"github.com/cockroachdb/errors"
)

// recordMarker precedes every record, mirroring ts.Writer's markerChunk
// ([]byte{asciiFS, 'C'}) convention of a two-byte tag before the payload.
var recordMarker = [2]byte{0x1c, 'K'} // FS "K"

// Record is one committed checkpoint entry.
type Record struct {
	TableName     string
	LastTimestamp int64
}

// Writer appends Records to an underlying stream. Safe for use by exactly
// one goroutine at a time, per spec's "one writer mutates" policy; callers
// that commit from multiple producer goroutines must serialize their own
// calls (the orchestrator does this with a mutex around Commit).
type Writer struct {
	w   io.Writer
	err error
}

// NewWriter builds a Writer appending to w.
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: w}
}

// Commit appends one (table, last_timestamp) record. Once Commit returns
// an error, every subsequent call is a no-op returning that same error,
// matching ts.Writer's sticky-err field.
func (w *Writer) Commit(table string, lastTimestamp int64) error {
	if w.err != nil {
		return w.err
	}

	name := []byte(table)
	buf := make([]byte, 0, 2+4+len(name)+8)
	buf = append(buf, recordMarker[:]...)
	buf = binary.BigEndian.AppendUint32(buf, uint32(len(name)))
	buf = append(buf, name...)
	buf = binary.BigEndian.AppendUint64(buf, uint64(lastTimestamp))

	if _, err := w.w.Write(buf); err != nil {
		w.err = errors.Wrap(err, "checkpoint: commit")
		return w.err
	}
	return nil
}

// Err returns the sticky error, if any.
func (w *Writer) Err() error { return w.err }

// Load reads every record from r and returns the last committed
// timestamp per table, matching spec.md's "on restart, load latest per
// table" recovery rule (later records in the stream win). A truncated
// final record (a partial write from a crash mid-append) is tolerated:
// Load stops at the first short read rather than failing the whole
// recovery.
func Load(r io.Reader) (map[string]int64, error) {
	br := bufio.NewReader(r)
	out := make(map[string]int64)

	for {
		var marker [2]byte
		if _, err := io.ReadFull(br, marker[:]); err != nil {
			if errors.Is(err, io.EOF) {
				return out, nil
			}
			return out, nil // partial trailing record: stop, keep what we have
		}
		if marker != recordMarker {
			return nil, errors.Newf("checkpoint: unexpected record marker %v", marker)
		}

		var nameLen [4]byte
		if _, err := io.ReadFull(br, nameLen[:]); err != nil {
			return out, nil
		}
		name := make([]byte, binary.BigEndian.Uint32(nameLen[:]))
		if _, err := io.ReadFull(br, name); err != nil {
			return out, nil
		}
		var ts [8]byte
		if _, err := io.ReadFull(br, ts[:]); err != nil {
			return out, nil
		}

		out[string(name)] = int64(binary.BigEndian.Uint64(ts[:]))
	}
}

// Store opens a checkpoint file for recovery-then-append: it loads the
// latest per-table timestamps already committed, then positions a Writer
// at the end of the file so further Commit calls extend the same stream.
type Store struct {
	*Writer
	file    *os.File
	Latest  map[string]int64
	Resumed bool
}

// Open opens (creating if absent) the checkpoint file at path, loads any
// existing records, and returns a Store ready to accept further commits.
func Open(path string) (*Store, error) {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0o644)
	if err != nil {
		return nil, errors.Wrap(err, "checkpoint: opening file")
	}

	latest, err := Load(f)
	if err != nil {
		_ = f.Close()
		return nil, errors.Wrap(err, "checkpoint: loading existing records")
	}
	resumed := len(latest) > 0

	if _, err := f.Seek(0, io.SeekEnd); err != nil {
		_ = f.Close()
		return nil, errors.Wrap(err, "checkpoint: seeking to end")
	}

	return &Store{
		Writer:  NewWriter(f),
		file:    f,
		Latest:  latest,
		Resumed: resumed,
	}, nil
}

// Close flushes and closes the underlying file.
func (s *Store) Close() error {
	if err := s.file.Sync(); err != nil {
		_ = s.file.Close()
		return errors.Wrap(err, "checkpoint: syncing file")
	}
	return s.file.Close()
}
