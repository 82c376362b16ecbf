package calendar

import (
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// DefaultMissTTL is how long a year without usable data is served from the
// weekend rule before the source is asked again
const DefaultMissTTL = 5 * time.Minute

// Store caches per-year override tables read from a YearSource.
// Tables are loaded lazily and kept until InvalidateCache. Years that are
// missing, malformed or failed to load are remembered for the miss TTL.
type Store struct {
	source  YearSource
	logger  *zap.Logger
	missTTL time.Duration
	now     func() time.Time

	cache      map[int]*YearTable
	misses     map[int]time.Time // year -> retry after
	generation uint64
	cacheMu    sync.RWMutex
	loads      singleflight.Group
}

// StoreOption configures a Store
type StoreOption func(*Store)

// WithMissTTL sets how long failed or missing years are not re-read.
// Zero or a negative value disables the negative cache.
func WithMissTTL(ttl time.Duration) StoreOption {
	return func(s *Store) {
		s.missTTL = ttl
	}
}

// NewStore creates a new Store over the source
func NewStore(source YearSource, logger *zap.Logger, opts ...StoreOption) *Store {
	s := &Store{
		source:  source,
		logger:  logger,
		missTTL: DefaultMissTTL,
		now:     time.Now,
		cache:   make(map[int]*YearTable),
		misses:  make(map[int]time.Time),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SourceName identifies the underlying source
func (s *Store) SourceName() string {
	return s.source.Name()
}

// LoadYear returns the override table for the year.
// Missing or malformed data yields an empty table, never an error.
func (s *Store) LoadYear(year int) *YearTable {
	s.cacheMu.RLock()
	if table, ok := s.cache[year]; ok {
		s.cacheMu.RUnlock()
		return table
	}
	if retryAt, ok := s.misses[year]; ok && s.now().Before(retryAt) {
		s.cacheMu.RUnlock()
		return NewYearTable(year)
	}
	generation := s.generation
	s.cacheMu.RUnlock()

	key := fmt.Sprintf("%d/%d", generation, year)
	v, _, _ := s.loads.Do(key, func() (interface{}, error) {
		return s.load(year, generation), nil
	})

	return v.(*YearTable)
}

func (s *Store) load(year int, generation uint64) *YearTable {
	data, err := s.source.ReadYear(year)
	if err != nil {
		if errors.Is(err, ErrYearNotFound) {
			s.logger.Debug("No holiday data for year, using weekend rule",
				zap.Int("year", year),
				zap.String("source", s.source.Name()))
		} else {
			s.logger.Warn("Failed to load holiday data",
				zap.Int("year", year),
				zap.String("source", s.source.Name()),
				zap.Error(err))
		}
		s.rememberMiss(year, generation)
		return NewYearTable(year)
	}

	table, err := DecodeYear(year, data)
	if err != nil {
		s.logger.Warn("Malformed holiday data",
			zap.Int("year", year),
			zap.String("source", s.source.Name()),
			zap.Error(err))
		s.rememberMiss(year, generation)
		return NewYearTable(year)
	}

	s.cacheMu.Lock()
	// a concurrent InvalidateCache wins over a load that started before it
	if s.generation == generation {
		s.cache[year] = table
		delete(s.misses, year)
	}
	s.cacheMu.Unlock()

	s.logger.Info("Holiday data loaded",
		zap.Int("year", year),
		zap.String("source", s.source.Name()),
		zap.Int("entries", table.Len()))

	return table
}

func (s *Store) rememberMiss(year int, generation uint64) {
	if s.missTTL <= 0 {
		return
	}

	s.cacheMu.Lock()
	if s.generation == generation {
		s.misses[year] = s.now().Add(s.missTTL)
	}
	s.cacheMu.Unlock()
}

// AvailableYears returns the years with reference data, ascending and unique
func (s *Store) AvailableYears() []int {
	years, err := s.source.ListYears()
	if err != nil {
		s.logger.Warn("Failed to list holiday years",
			zap.String("source", s.source.Name()),
			zap.Error(err))
	}

	return uniqueSorted(years)
}

// CachedYears returns the years currently held in the cache, ascending
func (s *Store) CachedYears() []int {
	s.cacheMu.RLock()
	years := make([]int, 0, len(s.cache))
	for year := range s.cache {
		years = append(years, year)
	}
	s.cacheMu.RUnlock()

	sort.Ints(years)
	return years
}

// InvalidateCache drops all cached tables and misses; the next LoadYear re-reads the source
func (s *Store) InvalidateCache() {
	s.cacheMu.Lock()
	defer s.cacheMu.Unlock()

	s.cache = make(map[int]*YearTable)
	s.misses = make(map[int]time.Time)
	s.generation++
	s.logger.Info("Holiday cache cleared")
}

func uniqueSorted(years []int) []int {
	out := make([]int, 0, len(years))
	sorted := append([]int(nil), years...)
	sort.Ints(sorted)

	for i, year := range sorted {
		if i > 0 && year == sorted[i-1] {
			continue
		}
		out = append(out, year)
	}

	return out
}
