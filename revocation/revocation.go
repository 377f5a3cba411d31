// Package revocation keeps a set of revoked token fingerprints.
// Macaroons are bearer credentials with no issuer-side session state,
// so revoking one means remembering its fingerprint and refusing it at
// verification time. The set loads from and saves to a line-oriented
// text file: one fingerprint per line, blank lines and #-comments
// ignored.
package revocation

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"sync"

	"xdao.co/macaroon/fingerprint"
)

// List is a thread-safe set of revoked fingerprints.
type List struct {
	mu      sync.RWMutex
	entries map[string]struct{}
}

// NewList creates an empty revocation list.
func NewList() *List {
	return &List{entries: make(map[string]struct{})}
}

// Revoke adds a fingerprint to the list. It rejects strings that are
// not valid fingerprints so a typo cannot silently protect nothing.
func (l *List) Revoke(fp string) error {
	if _, err := fingerprint.Parse(fp); err != nil {
		return fmt.Errorf("invalid fingerprint %q: %w", fp, err)
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries[fp] = struct{}{}
	return nil
}

// IsRevoked checks whether a fingerprint is on the list.
func (l *List) IsRevoked(fp string) bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	_, exists := l.entries[fp]
	return exists
}

// Len returns the number of revoked fingerprints.
func (l *List) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.entries)
}

// Fingerprints returns the revoked fingerprints, sorted.
func (l *List) Fingerprints() []string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]string, 0, len(l.entries))
	for fp := range l.entries {
		out = append(out, fp)
	}
	sort.Strings(out)
	return out
}

// Load adds every fingerprint read from r. Lines are trimmed; empty
// lines and lines starting with '#' are skipped. The first invalid
// entry aborts the load with its line number.
func (l *List) Load(r io.Reader) error {
	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if err := l.Revoke(line); err != nil {
			return fmt.Errorf("line %d: %w", lineNo, err)
		}
	}
	return scanner.Err()
}

// LoadFile reads a revocation file into a new list.
func LoadFile(path string) (*List, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	l := NewList()
	if err := l.Load(f); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return l, nil
}

// Save writes the list in the file format Load reads.
func (l *List) Save(w io.Writer) error {
	for _, fp := range l.Fingerprints() {
		if _, err := fmt.Fprintln(w, fp); err != nil {
			return err
		}
	}
	return nil
}

// SaveFile writes the list to path, replacing any existing file.
func (l *List) SaveFile(path string) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return err
	}
	if err := l.Save(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
