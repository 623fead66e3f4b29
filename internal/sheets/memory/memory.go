// Package memory is an in-process journal used when no spreadsheet is
// configured and in tests.
package memory

import (
	"context"
	"fmt"
	"sync"

	"chitieu/internal/sheets"
)

type Journal struct {
	mu      sync.Mutex
	entries []sheets.Entry
}

var _ sheets.JournalWriter = (*Journal)(nil)

func New() *Journal {
	return &Journal{}
}

// Append stores the entry and returns a synthetic row reference.
func (j *Journal) Append(_ context.Context, e sheets.Entry) (string, error) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.entries = append(j.entries, e)
	return fmt.Sprintf("mem:%d", len(j.entries)), nil
}

// Entries returns a copy of everything appended so far.
func (j *Journal) Entries() []sheets.Entry {
	j.mu.Lock()
	defer j.mu.Unlock()
	return append([]sheets.Entry(nil), j.entries...)
}
