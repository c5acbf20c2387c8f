package presence

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"presensi/internal/broadcast"
	"presensi/internal/lecturer"
	"presensi/internal/metrics"
	"presensi/internal/schedule"
)

// SuccessMessage is the acknowledgment sent to the originating client.
const SuccessMessage = "attendance recorded"

// LecturerDirectory resolves tags to lecturers.
type LecturerDirectory interface {
	FindByTagID(ctx context.Context, tagID string) (*lecturer.Lecturer, error)
}

// DayResolver maps a point in time to the schedule day in effect.
type DayResolver interface {
	ResolveToday(ctx context.Context, now time.Time) (*schedule.Day, error)
}

// ScheduleCatalog answers whether a lecturer is expected on a day.
type ScheduleCatalog interface {
	IsScheduled(ctx context.Context, lectureID, dayID string) (bool, error)
}

// RecordStore is the attendance store consumed by the pipeline.
type RecordStore interface {
	HasRecordToday(ctx context.Context, lectureID, dayID string, now time.Time) (bool, error)
	Insert(ctx context.Context, lectureID, dayID, status string) (Record, error)
}

// ScanResult is the payload acknowledged to the originator and broadcast to
// observers after a successful scan.
type ScanResult struct {
	Lecturer lecturer.Lecturer `json:"lecturer"`
	Record   Record            `json:"record"`
}

// Service runs the scan pipeline: tag lookup, day resolution, schedule
// check, duplicate check, insert, broadcast. Each scan is one independent
// attempt; every failure is terminal for that attempt and re-scanning the
// tag is the only retry.
type Service struct {
	dir      LecturerDirectory
	resolver DayResolver
	catalog  ScheduleCatalog
	records  RecordStore
	broker   broadcast.Broker
	now      func() time.Time
}

// NewService wires the pipeline's collaborators.
func NewService(dir LecturerDirectory, resolver DayResolver, catalog ScheduleCatalog, records RecordStore, broker broadcast.Broker) *Service {
	return &Service{
		dir:      dir,
		resolver: resolver,
		catalog:  catalog,
		records:  records,
		broker:   broker,
		now:      time.Now,
	}
}

// WithClock overrides the pipeline clock; tests pin it to fixed dates.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// HandleScan processes one raw tag read. On success the result is returned
// to the originator and additionally published to all observers; publishing
// is fire-and-forget and never fails the scan. Errors are either one of the
// fixed scan failures or a wrapped storage fault.
func (s *Service) HandleScan(ctx context.Context, tagID string) (*ScanResult, error) {
	lec, err := s.dir.FindByTagID(ctx, tagID)
	if err != nil {
		return nil, s.fail(fmt.Errorf("lecturer lookup: %w", err))
	}
	if lec == nil {
		metrics.ScansTotal.WithLabelValues("not_registered").Inc()
		return nil, ErrNotRegistered
	}

	now := s.now()
	day, err := s.resolver.ResolveToday(ctx, now)
	if err != nil {
		return nil, s.fail(fmt.Errorf("day resolution: %w", err))
	}
	if day == nil {
		metrics.ScansTotal.WithLabelValues("day_not_configured").Inc()
		return nil, ErrDayNotConfigured
	}

	scheduled, err := s.catalog.IsScheduled(ctx, lec.ID, day.ID)
	if err != nil {
		return nil, s.fail(fmt.Errorf("schedule check: %w", err))
	}
	if !scheduled {
		metrics.ScansTotal.WithLabelValues("not_scheduled").Inc()
		return nil, ErrNotScheduledToday
	}

	exists, err := s.records.HasRecordToday(ctx, lec.ID, day.ID, now)
	if err != nil {
		return nil, s.fail(fmt.Errorf("duplicate check: %w", err))
	}
	if exists {
		metrics.ScansTotal.WithLabelValues("duplicate").Inc()
		return nil, ErrDuplicateToday
	}

	rec, err := s.records.Insert(ctx, lec.ID, day.ID, StatusPresent)
	if err != nil {
		// A concurrent scan may win the race between the check above and
		// this insert; the store reports that as ErrDuplicateToday.
		if errors.Is(err, ErrDuplicateToday) {
			metrics.ScansTotal.WithLabelValues("duplicate").Inc()
			return nil, ErrDuplicateToday
		}
		return nil, s.fail(fmt.Errorf("record insert: %w", err))
	}
	metrics.ScansTotal.WithLabelValues("recorded").Inc()

	result := &ScanResult{Lecturer: *lec, Record: rec}
	s.publish(ctx, result)
	return result, nil
}

func (s *Service) publish(ctx context.Context, result *ScanResult) {
	payload, err := json.Marshal(result)
	if err != nil {
		log.Printf("broadcast marshal failed: %v", err)
		return
	}
	evt := broadcast.Event{Topic: broadcast.TopicPresence, Payload: payload}
	if err := s.broker.Publish(ctx, evt); err != nil {
		log.Printf("broadcast publish failed: %v", err)
	}
}

// fail records an internal pipeline fault. This is the single log point
// for such faults; transports substitute a generic message without logging
// again.
func (s *Service) fail(err error) error {
	metrics.ScansTotal.WithLabelValues("error").Inc()
	log.Printf("scan failed: %v", err)
	return err
}
