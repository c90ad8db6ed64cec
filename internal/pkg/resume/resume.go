// Package resume keeps the per-retailer list of work units a batched run has
// not reached yet. The file exists only while work is pending.
package resume

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/bytedance/sonic"
	"github.com/ougirez/discounts/internal/domain"
)

type Pending struct {
	MarketType domain.MarketType `json:"market_type"`
	WeekStart  time.Time         `json:"week_start"`
	Units      []domain.WorkUnit `json:"units"`
	UpdatedAt  time.Time         `json:"updated_at"`
}

// Take removes and returns up to n units from the head of the list.
func (p *Pending) Take(n int) []domain.WorkUnit {
	if n <= 0 || n > len(p.Units) {
		n = len(p.Units)
	}
	batch := p.Units[:n:n]
	p.Units = p.Units[n:]
	return batch
}

func (p *Pending) Done() bool {
	return len(p.Units) == 0
}

type Store struct {
	dir string
}

func NewStore(dir string) *Store {
	return &Store{dir: dir}
}

func (s *Store) Path(mt domain.MarketType) string {
	return filepath.Join(s.dir, string(mt)+".pending.json")
}

// Load returns the pending list of mt. ok is false when no run is pending.
func (s *Store) Load(mt domain.MarketType) (p *Pending, ok bool, err error) {
	data, err := os.ReadFile(s.Path(mt))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("os.ReadFile: %w", err)
	}

	p = &Pending{}
	if err = sonic.Unmarshal(data, p); err != nil {
		return nil, false, fmt.Errorf("sonic.Unmarshal %s: %w", s.Path(mt), err)
	}

	return p, true, nil
}

// Save writes p, or deletes the file once nothing is left. It reports whether
// the run is complete.
func (s *Store) Save(p *Pending) (done bool, err error) {
	if p.Done() {
		return true, s.Delete(p.MarketType)
	}

	if err = os.MkdirAll(s.dir, 0o755); err != nil {
		return false, fmt.Errorf("os.MkdirAll: %w", err)
	}

	p.UpdatedAt = time.Now()
	data, err := sonic.ConfigStd.MarshalIndent(p, "", "  ")
	if err != nil {
		return false, fmt.Errorf("sonic.MarshalIndent: %w", err)
	}

	tmp := s.Path(p.MarketType) + ".tmp"
	if err = os.WriteFile(tmp, data, 0o644); err != nil {
		return false, fmt.Errorf("os.WriteFile: %w", err)
	}
	if err = os.Rename(tmp, s.Path(p.MarketType)); err != nil {
		return false, fmt.Errorf("os.Rename: %w", err)
	}

	return false, nil
}

func (s *Store) Delete(mt domain.MarketType) error {
	err := os.Remove(s.Path(mt))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("os.Remove: %w", err)
	}
	return nil
}
