package bankledger

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"iter"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

const maxLineSize = 64 * 1024

// FileLog is a TransactionLog backed by a single plain-text file holding one
// entry per line. Every entry is written with one Write call and fsynced before
// Append returns.
type FileLog struct {
	mu   sync.Mutex
	path string
	f    *os.File
	// size is the number of bytes known to hold complete, synced entries.
	size int64
	// broken is set when a failed append could not be undone; the file may then
	// hold a partial entry past size, so no further appends are accepted.
	broken error
}

var (
	_ TransactionLog = (*FileLog)(nil)
)

func OpenFileLog(path string) (*FileLog, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create log directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR|os.O_APPEND, 0o600)
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}
	size, err := repairTail(f)
	if err != nil {
		f.Close()
		return nil, err
	}
	if err = syncDir(dir); err != nil {
		f.Close()
		return nil, err
	}

	return &FileLog{
		path: path,
		f:    f,
		size: size,
	}, nil
}

func (l *FileLog) Path() string {
	return l.path
}

func (l *FileLog) Append(entry LedgerEntry) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.f == nil {
		return ErrLogClosed
	}
	if l.broken != nil {
		return l.broken
	}

	line := entry.MarshalLine()
	if _, err := l.f.Write(line); err != nil {
		return l.rewind(fmt.Errorf("write entry: %w", err))
	}
	if err := l.f.Sync(); err != nil {
		return l.rewind(fmt.Errorf("sync entry: %w", err))
	}
	l.size += int64(len(line))
	return nil
}

// rewind drops whatever a failed append left past the last good entry.
func (l *FileLog) rewind(cause error) error {
	if err := l.f.Truncate(l.size); err != nil {
		l.broken = fmt.Errorf("log left inconsistent after %v: truncate: %w", cause, err)
		return cause
	}
	if err := l.f.Sync(); err != nil {
		l.broken = fmt.Errorf("log left inconsistent after %v: sync: %w", cause, err)
	}
	return cause
}

func (l *FileLog) EntriesFor(accountNumber string) iter.Seq2[LedgerEntry, error] {
	prefix := accountNumber + lineSep
	return func(yield func(LedgerEntry, error) bool) {
		l.mu.Lock()
		size, open := l.size, l.f != nil
		l.mu.Unlock()
		if !open {
			yield(LedgerEntry{}, ErrLogClosed)
			return
		}

		f, err := os.Open(l.path)
		if err != nil {
			yield(LedgerEntry{}, fmt.Errorf("open log for reading: %w", err))
			return
		}
		defer f.Close()

		sc := bufio.NewScanner(io.LimitReader(f, size))
		sc.Buffer(make([]byte, 0, 4096), maxLineSize)
		for sc.Scan() {
			line := sc.Text()
			if !strings.HasPrefix(line, prefix) {
				continue
			}
			e, err := ParseLine(line)
			if err != nil {
				yield(LedgerEntry{}, err)
				return
			}
			if !yield(e, nil) {
				return
			}
		}
		if err := sc.Err(); err != nil {
			yield(LedgerEntry{}, fmt.Errorf("scan log: %w", err))
		}
	}
}

func (l *FileLog) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.f == nil {
		return nil
	}
	err := l.f.Close()
	l.f = nil
	return err
}

// repairTail truncates a trailing record that was cut short by a crash and
// returns the size of the intact prefix.
func repairTail(f *os.File) (int64, error) {
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return 0, fmt.Errorf("seek log: %w", err)
	}
	var (
		good int64
		read int64
		buf  = make([]byte, 32*1024)
	)
	for {
		n, err := f.Read(buf)
		if n > 0 {
			if i := bytes.LastIndexByte(buf[:n], '\n'); i >= 0 {
				good = read + int64(i) + 1
			}
			read += int64(n)
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return 0, fmt.Errorf("read log: %w", err)
		}
	}
	if good < read {
		if err := f.Truncate(good); err != nil {
			return 0, fmt.Errorf("truncate torn entry: %w", err)
		}
		if err := f.Sync(); err != nil {
			return 0, fmt.Errorf("sync log: %w", err)
		}
	}
	return good, nil
}

func syncDir(dir string) error {
	d, err := os.Open(dir)
	if err != nil {
		return fmt.Errorf("open directory: %w", err)
	}
	defer d.Close()
	if err = d.Sync(); err != nil {
		return fmt.Errorf("sync directory: %w", err)
	}
	return nil
}
