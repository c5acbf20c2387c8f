package presence

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"presensi/internal/broadcast"
	"presensi/internal/lecturer"
	"presensi/internal/schedule"
)

// Tuesday, 09:00.
var testNow = time.Date(2025, 3, 4, 9, 0, 0, 0, time.UTC)

type fakeDirectory map[string]*lecturer.Lecturer

func (f fakeDirectory) FindByTagID(_ context.Context, tagID string) (*lecturer.Lecturer, error) {
	return f[tagID], nil
}

type fakeResolver struct {
	day *schedule.Day
	err error
}

func (f fakeResolver) ResolveToday(context.Context, time.Time) (*schedule.Day, error) {
	return f.day, f.err
}

type fakeCatalog map[string]bool

func (f fakeCatalog) IsScheduled(_ context.Context, lectureID, dayID string) (bool, error) {
	return f[lectureID+"/"+dayID], nil
}

// fakeRecords enforces the same per-day uniqueness the database index does,
// under a mutex, so concurrent inserts race realistically.
type fakeRecords struct {
	mu        sync.Mutex
	keys      map[string]bool
	inserted  []Record
	insertErr error
}

func newFakeRecords() *fakeRecords {
	return &fakeRecords{keys: make(map[string]bool)}
}

func (f *fakeRecords) HasRecordToday(_ context.Context, lectureID, dayID string, now time.Time) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.keys[lectureID+"/"+dayID+"/"+now.Format("2006-01-02")], nil
}

func (f *fakeRecords) Insert(_ context.Context, lectureID, dayID, status string) (Record, error) {
	if f.insertErr != nil {
		return Record{}, f.insertErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	key := lectureID + "/" + dayID + "/" + testNow.Format("2006-01-02")
	if f.keys[key] {
		return Record{}, ErrDuplicateToday
	}
	f.keys[key] = true
	rec := Record{
		ID:        "rec-" + lectureID,
		LectureID: lectureID,
		DayID:     dayID,
		Status:    status,
		CreatedAt: testNow,
	}
	f.inserted = append(f.inserted, rec)
	return rec, nil
}

func newTestService(records *fakeRecords, broker broadcast.Broker) *Service {
	dir := fakeDirectory{
		"RFID-001": {ID: "lec-1", Name: "Dr. Amin", Code: "AMN", TagID: "RFID-001"},
	}
	day := &schedule.Day{ID: "day-tue", Name: "Tuesday"}
	catalog := fakeCatalog{"lec-1/day-tue": true}
	return NewService(dir, fakeResolver{day: day}, catalog, records, broker).
		WithClock(func() time.Time { return testNow })
}

func TestHandleScanSuccess(t *testing.T) {
	records := newFakeRecords()
	broker := broadcast.NewMemory()
	svc := newTestService(records, broker)

	events, cancel := broker.Subscribe(broadcast.TopicPresence, 4)
	defer cancel()

	result, err := svc.HandleScan(context.Background(), "RFID-001")
	if err != nil {
		t.Fatalf("HandleScan failed: %v", err)
	}
	if result.Record.Status != StatusPresent {
		t.Errorf("status = %q, want %q", result.Record.Status, StatusPresent)
	}
	if result.Lecturer.Name != "Dr. Amin" {
		t.Errorf("lecturer = %q, want Dr. Amin", result.Lecturer.Name)
	}
	if len(records.inserted) != 1 {
		t.Fatalf("inserted %d records, want 1", len(records.inserted))
	}

	select {
	case evt := <-events:
		var got ScanResult
		if err := json.Unmarshal(evt.Payload, &got); err != nil {
			t.Fatalf("bad broadcast payload: %v", err)
		}
		if got.Record.ID != result.Record.ID {
			t.Errorf("broadcast record = %q, want %q", got.Record.ID, result.Record.ID)
		}
	case <-time.After(time.Second):
		t.Fatal("no broadcast after successful scan")
	}
}

func TestHandleScanUnknownTag(t *testing.T) {
	records := newFakeRecords()
	svc := newTestService(records, broadcast.NewMemory())

	_, err := svc.HandleScan(context.Background(), "RFID-999")
	if !errors.Is(err, ErrNotRegistered) {
		t.Fatalf("err = %v, want ErrNotRegistered", err)
	}
	if len(records.inserted) != 0 {
		t.Errorf("unknown tag created %d records", len(records.inserted))
	}
}

func TestHandleScanDayNotConfigured(t *testing.T) {
	records := newFakeRecords()
	dir := fakeDirectory{"RFID-001": {ID: "lec-1", TagID: "RFID-001"}}
	svc := NewService(dir, fakeResolver{day: nil}, fakeCatalog{}, records, broadcast.NewMemory()).
		WithClock(func() time.Time { return testNow })

	_, err := svc.HandleScan(context.Background(), "RFID-001")
	if !errors.Is(err, ErrDayNotConfigured) {
		t.Fatalf("err = %v, want ErrDayNotConfigured", err)
	}
	if len(records.inserted) != 0 {
		t.Errorf("unconfigured day created %d records", len(records.inserted))
	}
}

func TestHandleScanNotScheduled(t *testing.T) {
	records := newFakeRecords()
	dir := fakeDirectory{"RFID-001": {ID: "lec-1", TagID: "RFID-001"}}
	day := &schedule.Day{ID: "day-wed", Name: "Wednesday"}
	svc := NewService(dir, fakeResolver{day: day}, fakeCatalog{}, records, broadcast.NewMemory()).
		WithClock(func() time.Time { return testNow })

	_, err := svc.HandleScan(context.Background(), "RFID-001")
	if !errors.Is(err, ErrNotScheduledToday) {
		t.Fatalf("err = %v, want ErrNotScheduledToday", err)
	}
	if len(records.inserted) != 0 {
		t.Errorf("unscheduled scan created %d records", len(records.inserted))
	}
}

func TestHandleScanDuplicateSameDay(t *testing.T) {
	records := newFakeRecords()
	svc := newTestService(records, broadcast.NewMemory())

	if _, err := svc.HandleScan(context.Background(), "RFID-001"); err != nil {
		t.Fatalf("first scan failed: %v", err)
	}
	_, err := svc.HandleScan(context.Background(), "RFID-001")
	if !errors.Is(err, ErrDuplicateToday) {
		t.Fatalf("second scan err = %v, want ErrDuplicateToday", err)
	}
	if len(records.inserted) != 1 {
		t.Errorf("duplicate scan grew records to %d", len(records.inserted))
	}
}

// Storage faults are logged once, here, with their detail; transports only
// substitute the generic message.
func TestHandleScanStorageFailure(t *testing.T) {
	records := newFakeRecords()
	records.insertErr = errors.New("connection reset")
	svc := newTestService(records, broadcast.NewMemory())

	var logs bytes.Buffer
	log.SetOutput(&logs)
	defer log.SetOutput(os.Stderr)

	_, err := svc.HandleScan(context.Background(), "RFID-001")
	if err == nil {
		t.Fatal("expected error on storage failure")
	}
	if IsScanError(err) {
		t.Errorf("storage fault classified as scan error: %v", err)
	}
	if got := strings.Count(logs.String(), "connection reset"); got != 1 {
		t.Errorf("fault logged %d times, want once; log:\n%s", got, logs.String())
	}
}

// Two scans for the same lecturer racing past the duplicate pre-check must
// still produce exactly one record; the loser sees the duplicate error, not
// a storage fault.
func TestHandleScanConcurrentDuplicate(t *testing.T) {
	records := newFakeRecords()
	svc := newTestService(records, broadcast.NewMemory())

	const attempts = 2
	errs := make(chan error, attempts)
	var wg sync.WaitGroup
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.HandleScan(context.Background(), "RFID-001")
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	var successes, duplicates int
	for err := range errs {
		switch {
		case err == nil:
			successes++
		case errors.Is(err, ErrDuplicateToday):
			duplicates++
		default:
			t.Errorf("unexpected error: %v", err)
		}
	}
	if successes != 1 || duplicates != attempts-1 {
		t.Errorf("got %d successes and %d duplicates, want 1 and %d", successes, duplicates, attempts-1)
	}
	if len(records.inserted) != 1 {
		t.Errorf("concurrent scans produced %d records, want 1", len(records.inserted))
	}
}

// Every connected observer receives the success broadcast exactly once.
func TestBroadcastReachesAllObservers(t *testing.T) {
	records := newFakeRecords()
	broker := broadcast.NewMemory()
	svc := newTestService(records, broker)

	const observers = 3
	var chans []<-chan broadcast.Event
	for i := 0; i < observers; i++ {
		ch, cancel := broker.Subscribe(broadcast.TopicPresence, 4)
		defer cancel()
		chans = append(chans, ch)
	}

	if _, err := svc.HandleScan(context.Background(), "RFID-001"); err != nil {
		t.Fatalf("HandleScan failed: %v", err)
	}

	for i, ch := range chans {
		select {
		case <-ch:
		case <-time.After(time.Second):
			t.Fatalf("observer %d received no broadcast", i)
		}
		select {
		case evt := <-ch:
			t.Fatalf("observer %d received extra event: %s", i, evt.Payload)
		default:
		}
	}
}
