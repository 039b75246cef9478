// ==================================================================================
//
// Work of the U.S. Department of the Navy, Naval Information Warfare Center Pacific.
// Released as open source under the MIT License.  See LICENSE file.
//
// ==================================================================================

package fs

import (
	"context"
	"fmt"
	"path"
	"sort"
	"strings"
	"sync"
	"time"
)

type memEntry struct {
	kind   Kind
	atime  time.Time
	mtime  time.Time
	target string
}

// memFileSystem is an in-memory file system using forward slashes.
type memFileSystem struct {
	mu      sync.Mutex
	entries map[string]*memEntry
	// peer is the file system on the other side of PushFileHere.
	peer *memFileSystem
	// operations records every mutation in order.
	operations []string
}

func newMemFileSystem() *memFileSystem {
	return &memFileSystem{
		entries: map[string]*memEntry{
			"/": {kind: KindDirectory, mtime: time.Unix(0, 0)},
		},
	}
}

func (m *memFileSystem) addDirectory(name string, mtime int64) *memFileSystem {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.mkdirAll(path.Dir(name))
	m.entries[name] = &memEntry{kind: KindDirectory, atime: time.Unix(mtime, 0), mtime: time.Unix(mtime, 0)}
	return m
}

func (m *memFileSystem) addFile(name string, mtime int64) *memFileSystem {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.mkdirAll(path.Dir(name))
	m.entries[name] = &memEntry{kind: KindRegular, atime: time.Unix(mtime, 0), mtime: time.Unix(mtime, 0)}
	return m
}

func (m *memFileSystem) addSymlink(name string, target string) *memFileSystem {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.mkdirAll(path.Dir(name))
	m.entries[name] = &memEntry{kind: KindSymlink, mtime: time.Unix(0, 0), target: target}
	return m
}

func (m *memFileSystem) addEntry(name string, kind Kind) *memFileSystem {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.mkdirAll(path.Dir(name))
	m.entries[name] = &memEntry{kind: kind, mtime: time.Unix(0, 0)}
	return m
}

func (m *memFileSystem) record(format string, args ...interface{}) {
	m.operations = append(m.operations, fmt.Sprintf(format, args...))
}

func (m *memFileSystem) names() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	names := make([]string, 0, len(m.entries))
	for name := range m.entries {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (m *memFileSystem) entry(name string) *memEntry {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.entries[name]
}

// missing returns ErrNotADirectory if a parent of the name is not a directory.
func (m *memFileSystem) missing(name string) error {
	for p := path.Dir(name); p != "/" && p != "."; p = path.Dir(p) {
		if e, ok := m.entries[p]; ok && e.kind != KindDirectory {
			return fmt.Errorf("%q: %w", name, ErrNotADirectory)
		}
	}
	return fmt.Errorf("%q: %w", name, ErrNotFound)
}

func (m *memFileSystem) fileInfo(name string, e *memEntry) *FileInfo {
	size := int64(-1)
	if e.kind == KindRegular {
		size = 0
	}
	return NewFileInfo(path.Base(name), e.kind, size, e.mtime, e.atime)
}

func (m *memFileSystem) Chtimes(ctx context.Context, name string, atime time.Time, mtime time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries[name]
	if !ok {
		return m.missing(name)
	}
	e.atime = atime
	e.mtime = mtime
	m.record("chtimes %s %d %d", name, atime.Unix(), mtime.Unix())
	return nil
}

func (m *memFileSystem) Join(name ...string) string {
	return path.Join(name...)
}

func (m *memFileSystem) Lstat(ctx context.Context, name string) (*FileInfo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries[name]
	if !ok {
		return nil, m.missing(name)
	}
	return m.fileInfo(name, e), nil
}

func (m *memFileSystem) mkdirAll(name string) {
	for p := name; p != "/" && p != "."; p = path.Dir(p) {
		if _, ok := m.entries[p]; !ok {
			m.entries[p] = &memEntry{kind: KindDirectory, mtime: time.Unix(0, 0)}
		}
	}
}

func (m *memFileSystem) MkdirAll(ctx context.Context, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.mkdirAll(name)
	m.record("mkdir %s", name)
	return nil
}

func (m *memFileSystem) Normalize(name string) string {
	return path.Clean(name)
}

func (m *memFileSystem) PushFileHere(ctx context.Context, source string, destination string) error {
	if m.peer == nil || m.peer.entry(source) == nil {
		return fmt.Errorf("%q: %w", source, ErrNotFound)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[destination] = &memEntry{kind: KindRegular, mtime: time.Unix(1<<30, 0)}
	m.record("push %s %s", source, destination)
	return nil
}

func (m *memFileSystem) ReadDir(ctx context.Context, name string) ([]*FileInfo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries[name]
	if !ok {
		return nil, m.missing(name)
	}
	if e.kind != KindDirectory {
		return nil, fmt.Errorf("%q: %w", name, ErrNotADirectory)
	}
	entries := []*FileInfo{
		NewFileInfo(".", KindDirectory, -1, e.mtime, e.atime),
		NewFileInfo("..", KindDirectory, -1, e.mtime, e.atime),
	}
	for p, c := range m.entries {
		if p != "/" && path.Dir(p) == name {
			entries = append(entries, m.fileInfo(p, c))
		}
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Name() < entries[j].Name()
	})
	return entries, nil
}

func (m *memFileSystem) RealPath(ctx context.Context, name string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := 0; i < 8; i++ {
		e, ok := m.entries[name]
		if !ok {
			return "", m.missing(name)
		}
		if e.kind != KindSymlink {
			return name, nil
		}
		name = e.target
	}
	return "", fmt.Errorf("too many links at %q", name)
}

func (m *memFileSystem) Remove(ctx context.Context, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.entries, name)
	m.record("rm %s", name)
	return nil
}

func (m *memFileSystem) RemoveAll(ctx context.Context, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for p := range m.entries {
		if p == name || strings.HasPrefix(p, name+"/") {
			delete(m.entries, p)
		}
	}
	m.record("rm -r %s", name)
	return nil
}

// recordingLogger keeps every message by level.
type recordingLogger struct {
	mu       sync.Mutex
	messages map[string][]string
	// fields of the last message with each text
	fields map[string]map[string]interface{}
}

func newRecordingLogger() *recordingLogger {
	return &recordingLogger{
		messages: map[string][]string{},
		fields:   map[string]map[string]interface{}{},
	}
}

func (l *recordingLogger) log(level string, msg string, fields []map[string]interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.messages[level] = append(l.messages[level], msg)
	merged := map[string]interface{}{}
	for _, f := range fields {
		for k, v := range f {
			merged[k] = v
		}
	}
	l.fields[msg] = merged
}

func (l *recordingLogger) Debug(msg string, fields ...map[string]interface{}) {
	l.log("debug", msg, fields)
}

func (l *recordingLogger) Info(msg string, fields ...map[string]interface{}) {
	l.log("info", msg, fields)
}

func (l *recordingLogger) Warn(msg string, fields ...map[string]interface{}) {
	l.log("warn", msg, fields)
}

func (l *recordingLogger) Error(msg string, fields ...map[string]interface{}) {
	l.log("error", msg, fields)
}

func (l *recordingLogger) field(msg string, key string) interface{} {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.fields[msg][key]
}

func (l *recordingLogger) get(level string) []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string{}, l.messages[level]...)
}
