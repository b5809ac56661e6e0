// Package journal writes per-tick reports as zstd-compressed JSON lines.
package journal

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/klauspost/compress/zstd"
)

// DefaultSegmentTicks is how many ticks share one journal file.
const DefaultSegmentTicks = 10000

// Writer appends one JSON line per tick. Files are segmented by tick window
// and named <prefix>-<first tick>.jsonl.zst.
type Writer struct {
	baseDir      string
	prefix       string
	segmentTicks uint64

	mu     sync.Mutex
	curSeg uint64
	open   bool
	f      *os.File
	enc    *zstd.Encoder
	w      *bufio.Writer
}

// NewWriter creates a writer under baseDir. Nothing is created on disk until
// the first write.
func NewWriter(baseDir, prefix string, segmentTicks uint64) *Writer {
	if segmentTicks == 0 {
		segmentTicks = DefaultSegmentTicks
	}
	return &Writer{baseDir: baseDir, prefix: prefix, segmentTicks: segmentTicks}
}

// WriteTick appends v as the entry for tick.
func (w *Writer) WriteTick(tick uint64, v any) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	seg := tick - tick%w.segmentTicks
	if !w.open || seg != w.curSeg {
		if err := w.rotateLocked(seg); err != nil {
			return err
		}
	}

	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	if _, err := w.w.Write(b); err != nil {
		return err
	}
	if err := w.w.WriteByte('\n'); err != nil {
		return err
	}
	return w.w.Flush()
}

// Close flushes and closes the current segment.
func (w *Writer) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.closeLocked()
}

func (w *Writer) rotateLocked(seg uint64) error {
	if err := w.closeLocked(); err != nil {
		return err
	}
	if err := os.MkdirAll(w.baseDir, 0o755); err != nil {
		return err
	}
	f, err := os.OpenFile(w.pathForSegment(seg), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return err
	}
	enc, err := zstd.NewWriter(f, zstd.WithEncoderLevel(zstd.SpeedFastest))
	if err != nil {
		_ = f.Close()
		return err
	}
	w.f = f
	w.enc = enc
	w.w = bufio.NewWriterSize(enc, 64*1024)
	w.curSeg = seg
	w.open = true
	return nil
}

// closeLocked releases the current segment. The first failure wins: a lost
// flush matters more than the close errors that follow it.
func (w *Writer) closeLocked() error {
	var err error
	keep := func(e error) {
		if err == nil {
			err = e
		}
	}
	if w.w != nil {
		keep(w.w.Flush())
	}
	if w.enc != nil {
		keep(w.enc.Close())
		w.enc = nil
	}
	if w.f != nil {
		keep(w.f.Close())
		w.f = nil
	}
	w.w = nil
	w.open = false
	return err
}

func (w *Writer) pathForSegment(seg uint64) string {
	return filepath.Join(w.baseDir, fmt.Sprintf("%s-%010d.jsonl.zst", w.prefix, seg))
}

// Segments lists journal files for prefix in dir, oldest first.
func Segments(dir, prefix string) ([]string, error) {
	paths, err := filepath.Glob(filepath.Join(dir, prefix+"-*.jsonl.zst"))
	if err != nil {
		return nil, err
	}
	sort.Strings(paths)
	return paths, nil
}

// ReadFile decodes every line of a segment, calling fn with the raw JSON.
// A segment appended to across restarts holds several zstd frames; the
// decoder reads them back to back.
func ReadFile(path string, fn func(line []byte) error) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	dec, err := zstd.NewReader(f)
	if err != nil {
		return err
	}
	defer dec.Close()

	r := bufio.NewReader(dec)
	for {
		line, err := r.ReadBytes('\n')
		if len(line) > 0 {
			if line[len(line)-1] == '\n' {
				line = line[:len(line)-1]
			}
			if err := fn(line); err != nil {
				return err
			}
		}
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
	}
}
