// Package storehours manages the weekly opening hours shown to customers and
// used by the PDV to tell whether the store is open.
package storehours

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/multierr"

	"github.com/gleilsonbarbosa2/elitepedidos2/pkg/db/models"
	pkgerrors "github.com/gleilsonbarbosa2/elitepedidos2/pkg/errors"
	"github.com/gleilsonbarbosa2/elitepedidos2/pkg/logger"
)

type hoursRepository interface {
	List(ctx context.Context) ([]models.StoreHour, error)
	Upsert(ctx context.Context, rows []models.StoreHour) error
}

// Service exposes the store-hours operations.
type Service interface {
	Get(ctx context.Context) ([]DayHours, error)
	Update(ctx context.Context, hours []DayHours) ([]DayHours, bool, error)
	Status(ctx context.Context, now time.Time) (*Status, error)
}

type service struct {
	repo hoursRepository
	loc  *time.Location
	logg *logger.Logger
}

// NewService builds the store-hours service. loc is the store timezone used by Status.
func NewService(repo hoursRepository, loc *time.Location, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("store hours repository required")
	}
	if loc == nil {
		return nil, fmt.Errorf("store location required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{repo: repo, loc: loc, logg: logg}, nil
}

// Get returns exactly seven records, Sunday first. Days never saved come back closed
// with the default 08:00-18:00 window.
func (s *service) Get(ctx context.Context) ([]DayHours, error) {
	rows, err := s.repo.List(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: list store hours")
	}
	week := make([]DayHours, DaysInWeek)
	for day := range week {
		week[day] = defaultDay(day)
	}
	for _, row := range rows {
		if row.DayOfWeek < 0 || row.DayOfWeek >= DaysInWeek {
			continue
		}
		week[row.DayOfWeek] = fromModel(row)
	}
	return week, nil
}

// Update replaces the whole week. When the input matches what is stored nothing is
// written and changed is false.
func (s *service) Update(ctx context.Context, hours []DayHours) ([]DayHours, bool, error) {
	normalized, err := validateWeek(hours)
	if err != nil {
		return nil, false, err
	}

	current, err := s.Get(ctx)
	if err != nil {
		return nil, false, err
	}
	if sameWeek(current, normalized) {
		s.logg.Info(ctx, "store_hours.unchanged")
		return current, false, nil
	}

	rows := make([]models.StoreHour, 0, DaysInWeek)
	for _, day := range normalized {
		rows = append(rows, toModel(day))
	}
	if err := s.repo.Upsert(ctx, rows); err != nil {
		return nil, false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: save store hours")
	}
	s.logg.Info(ctx, "store_hours.updated")
	return normalized, true, nil
}

// Status evaluates the hours at now, in the store timezone. A window whose close time
// is not after its open time runs past midnight, so the previous day's window is
// checked too.
func (s *service) Status(ctx context.Context, now time.Time) (*Status, error) {
	week, err := s.Get(ctx)
	if err != nil {
		return nil, err
	}
	local := now.In(s.loc)
	today := week[int(local.Weekday())]
	status := &Status{
		DayOfWeek: today.DayOfWeek,
		DayName:   today.DayName,
		OpenTime:  today.OpenTime,
		CloseTime: today.CloseTime,
		CheckedAt: local,
	}

	minute := local.Hour()*60 + local.Minute()
	if today.IsOpen {
		open, close := minutesOf(today.OpenTime), minutesOf(today.CloseTime)
		if close > open {
			status.IsOpen = minute >= open && minute < close
		} else {
			status.IsOpen = minute >= open
		}
	}
	if !status.IsOpen {
		yesterday := week[(int(local.Weekday())+DaysInWeek-1)%DaysInWeek]
		if yesterday.IsOpen {
			open, close := minutesOf(yesterday.OpenTime), minutesOf(yesterday.CloseTime)
			if close <= open && minute < close {
				status.IsOpen = true
			}
		}
	}
	return status, nil
}

func validateWeek(hours []DayHours) ([]DayHours, error) {
	if len(hours) != DaysInWeek {
		return nil, pkgerrors.Validation("invalid store hours", pkgerrors.FieldError{
			Field:   "hours",
			Message: fmt.Sprintf("exactly %d days are required", DaysInWeek),
		})
	}

	var (
		errs   error
		fields []pkgerrors.FieldError
		seen   = make(map[int]struct{}, DaysInWeek)
		week   = make([]DayHours, DaysInWeek)
	)
	for i, day := range hours {
		prefix := fmt.Sprintf("hours[%d]", i)
		if day.DayOfWeek < 0 || day.DayOfWeek >= DaysInWeek {
			fields = append(fields, pkgerrors.FieldError{Field: prefix + ".day_of_week", Message: "day must be between 0 and 6"})
			errs = multierr.Append(errs, fmt.Errorf("%s: day out of range", prefix))
			continue
		}
		if _, dup := seen[day.DayOfWeek]; dup {
			fields = append(fields, pkgerrors.FieldError{Field: prefix + ".day_of_week", Message: "day repeated"})
			errs = multierr.Append(errs, fmt.Errorf("%s: day repeated", prefix))
			continue
		}
		seen[day.DayOfWeek] = struct{}{}

		day.OpenTime = strings.TrimSpace(day.OpenTime)
		day.CloseTime = strings.TrimSpace(day.CloseTime)
		if err := checkClock(day.OpenTime); err != nil {
			fields = append(fields, pkgerrors.FieldError{Field: prefix + ".open_time", Message: "expected HH:MM"})
			errs = multierr.Append(errs, fmt.Errorf("%s.open_time: %w", prefix, err))
		}
		if err := checkClock(day.CloseTime); err != nil {
			fields = append(fields, pkgerrors.FieldError{Field: prefix + ".close_time", Message: "expected HH:MM"})
			errs = multierr.Append(errs, fmt.Errorf("%s.close_time: %w", prefix, err))
		}
		day.DayName = dayNames[day.DayOfWeek]
		week[day.DayOfWeek] = day
	}
	if errs != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, errs, "invalid store hours").WithDetails(fields)
	}
	return week, nil
}

func checkClock(value string) error {
	if len(value) != len(clockLayout) {
		return fmt.Errorf("invalid time %q", value)
	}
	if _, err := time.Parse(clockLayout, value); err != nil {
		return fmt.Errorf("invalid time %q", value)
	}
	return nil
}

// minutesOf converts a validated HH:MM into minutes after midnight.
func minutesOf(value string) int {
	t, err := time.Parse(clockLayout, value)
	if err != nil {
		return 0
	}
	return t.Hour()*60 + t.Minute()
}

func sameWeek(a, b []DayHours) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !a[i].sameAs(b[i]) {
			return false
		}
	}
	return true
}
