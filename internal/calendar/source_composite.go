package calendar

import (
	"errors"
	"fmt"

	"go.uber.org/zap"
)

// CompositeSource reads from a primary source and falls back to a second one
// when the primary fails or has no data for the year
type CompositeSource struct {
	primary  YearSource
	fallback YearSource
	logger   *zap.Logger
}

// NewCompositeSource creates a new CompositeSource
func NewCompositeSource(primary, fallback YearSource, logger *zap.Logger) *CompositeSource {
	return &CompositeSource{
		primary:  primary,
		fallback: fallback,
		logger:   logger,
	}
}

// ReadYear tries the primary source first
func (cs *CompositeSource) ReadYear(year int) ([]byte, error) {
	data, err := cs.primary.ReadYear(year)
	if err == nil {
		return data, nil
	}

	if !errors.Is(err, ErrYearNotFound) {
		cs.logger.Warn("Primary holiday source failed, falling back",
			zap.String("primary", cs.primary.Name()),
			zap.String("fallback", cs.fallback.Name()),
			zap.Int("year", year),
			zap.Error(err))
	}

	data, fallbackErr := cs.fallback.ReadYear(year)
	if fallbackErr != nil {
		if errors.Is(err, ErrYearNotFound) && errors.Is(fallbackErr, ErrYearNotFound) {
			return nil, fallbackErr
		}
		return nil, fmt.Errorf("primary and fallback both failed: primary=%v, fallback=%w", err, fallbackErr)
	}

	return data, nil
}

// ListYears returns the years of every source that can list them
func (cs *CompositeSource) ListYears() ([]int, error) {
	var years []int
	var errs []error

	for _, src := range []YearSource{cs.primary, cs.fallback} {
		ys, err := src.ListYears()
		if err != nil {
			if !errors.Is(err, ErrListingUnsupported) {
				errs = append(errs, fmt.Errorf("%s: %w", src.Name(), err))
			}
			continue
		}
		years = append(years, ys...)
	}

	return years, errors.Join(errs...)
}

// Name identifies the source in logs
func (cs *CompositeSource) Name() string {
	return cs.primary.Name() + "+" + cs.fallback.Name()
}
