package kmerhash

import (
	"bytes"
	"fmt"
	"iter"
	"os"
	"sync/atomic"

	"github.com/edsrzf/mmap-go"
)

// Record is one sequence of a FASTA file.
type Record struct {
	Name string // header line without '>', empty for raw sequence files
	Seq  []byte // line breaks removed
}

// SequenceFile is a memory-mapped FASTA or raw sequence file.
type SequenceFile struct {
	mmap   mmap.MMap
	data   []byte
	closed atomic.Bool
}

// OpenSequenceFile memory-maps the file at path for reading.
func OpenSequenceFile(path string) (*SequenceFile, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open sequence file: %w", err)
	}
	defer file.Close()

	stat, err := file.Stat()
	if err != nil {
		return nil, fmt.Errorf("stat sequence file: %w", err)
	}
	if stat.Size() == 0 {
		return &SequenceFile{}, nil
	}

	fadviseSequential(int(file.Fd()), 0, stat.Size())
	mm, err := mmap.Map(file, mmap.RDONLY, 0)
	if err != nil {
		return nil, fmt.Errorf("mmap sequence file: %w", err)
	}
	return &SequenceFile{mmap: mm, data: []byte(mm)}, nil
}

// Records iterates over the records of the file. Record sequences are copies
// and stay valid after Close. Iterating a closed file yields nothing.
// Close must not be called while an iteration is in progress.
func (sf *SequenceFile) Records() iter.Seq[Record] {
	return func(yield func(Record) bool) {
		if sf.closed.Load() {
			return
		}
		for rec := range ReadRecords(sf.data) {
			if !yield(rec) {
				return
			}
		}
	}
}

// Size returns the mapped size in bytes, 0 after Close.
func (sf *SequenceFile) Size() int { return len(sf.data) }

// Close releases the memory map. Idempotent.
func (sf *SequenceFile) Close() error {
	if sf.closed.Swap(true) {
		return nil
	}
	sf.data = nil
	if sf.mmap != nil {
		err := sf.mmap.Unmap()
		sf.mmap = nil
		return err
	}
	return nil
}

// ReadRecords iterates over the FASTA records in data. Lines starting with
// '>' open a new record; other non-empty lines are appended to the current
// sequence. Data that does not start with a header is a single unnamed
// record.
func ReadRecords(data []byte) iter.Seq[Record] {
	return func(yield func(Record) bool) {
		var (
			cur     Record
			started bool
		)
		for len(data) > 0 {
			line := data
			if i := bytes.IndexByte(data, '\n'); i >= 0 {
				line, data = data[:i], data[i+1:]
			} else {
				data = nil
			}
			line = bytes.TrimSuffix(line, []byte{'\r'})

			if len(line) > 0 && line[0] == '>' {
				if started && !yield(cur) {
					return
				}
				cur = Record{Name: string(bytes.TrimSpace(line[1:]))}
				started = true
				continue
			}
			if len(line) == 0 {
				continue
			}
			started = true
			cur.Seq = append(cur.Seq, line...)
		}
		if started {
			yield(cur)
		}
	}
}
