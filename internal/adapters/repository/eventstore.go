package repository

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"iter"
	"os"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/okian/vidtag/internal/domain/model"
	"github.com/okian/vidtag/pkg/logger"
	"github.com/okian/vidtag/pkg/metrics"
)

// EventStore is the in-memory, mutex-guarded Store implementation.
//
// Ordering: Position DESC, insertion order among equal positions.
// The file on disk is ordered by Frame ASC instead; the two orders meet
// only inside SaveFile and WriteFile.
type EventStore struct {
	mu     sync.RWMutex
	events []model.Event

	mergeMode MergeMode
	codec     codec
	log       logger.Logger

	halfDropped sync.Once
}

// NewEventStore creates an empty store.
func NewEventStore(opts ...Option) *EventStore {
	s := &EventStore{mergeMode: MergeDiff}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// sortLocked orders events newest first; caller must hold the write lock.
func (s *EventStore) sortLocked() {
	sort.SliceStable(s.events, func(i, j int) bool {
		return s.events[j].Less(s.events[i])
	})
}

func (s *EventStore) CreateListFromCSV(ctx context.Context, path string) error {
	start := time.Now()
	events, err := s.codec.readFile(path)
	if err != nil {
		metrics.RecordLoadError(loadErrorReason(err))
		s.debug(ctx, "record file load failed", logger.String("path", path), logger.Error(err))
		return err
	}
	metrics.RecordLoadLatency(float64(time.Since(start).Microseconds()) / 1000)
	metrics.RecordEventsLoaded(len(events))

	s.mu.Lock()
	s.events = events
	s.sortLocked()
	n := len(s.events)
	s.mu.Unlock()

	metrics.UpdateStoreSize(n)
	s.debug(ctx, "record file loaded", logger.String("path", path), logger.Int("events", n))
	return nil
}

func (s *EventStore) AddEvent(ctx context.Context, e model.Event) error {
	if err := e.Validate(); err != nil {
		metrics.RecordErrorByComponent("repository", "invalid_event")
		return err
	}

	s.mu.Lock()
	s.events = append(s.events, e)
	s.sortLocked()
	n := len(s.events)
	s.mu.Unlock()

	metrics.RecordEventAdded()
	metrics.UpdateStoreSize(n)
	return nil
}

func (s *EventStore) DeleteEvent(ctx context.Context, index int) error {
	s.mu.Lock()
	if index < 0 || index >= len(s.events) {
		n := len(s.events)
		s.mu.Unlock()
		metrics.RecordErrorByComponent("repository", "index_out_of_range")
		return fmt.Errorf("%w: %d not in [0, %d)", ErrIndexOutOfRange, index, n)
	}
	s.events = slices.Delete(s.events, index, index+1)
	s.sortLocked()
	n := len(s.events)
	s.mu.Unlock()

	metrics.RecordEventDeleted()
	metrics.UpdateStoreSize(n)
	return nil
}

// CreateTextList snapshots the sequence each time iteration starts, so the
// returned sequence can be ranged over more than once.
func (s *EventStore) CreateTextList(ctx context.Context) iter.Seq[string] {
	return func(yield func(string) bool) {
		for _, e := range s.Events(ctx) {
			if !yield(e.Text()) {
				return
			}
		}
	}
}

func (s *EventStore) Events(_ context.Context) []model.Event {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.events)
}

func (s *EventStore) Len(_ context.Context) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.events)
}

// SaveFile re-reads path, appends the held events selected by the merge
// mode and writes the union ordered by frame. A missing file counts as
// empty. Rows already on disk keep their cells, including columns the codec
// does not know; when nothing is appended the file is not touched.
func (s *EventStore) SaveFile(ctx context.Context, path string, half int) error {
	start := time.Now()

	onDisk, err := s.codec.readTable(path)
	missing := errors.Is(err, ErrRecordFileNotFound)
	if err != nil && !missing {
		metrics.RecordErrorByComponent("repository", "save_read")
		return fmt.Errorf("save %s: %w", path, err)
	}

	s.mu.Lock()
	appended := s.mergeLocked(ctx, onDisk.events(), half)
	s.mu.Unlock()

	if len(appended) == 0 && !missing {
		s.debug(ctx, "record file unchanged", logger.String("path", path))
		return nil
	}

	header := s.codec.layout(onDisk)
	var rows []record
	if onDisk != nil {
		rows = slices.Clone(onDisk.rows)
	}
	for _, e := range appended {
		rows = append(rows, record{event: e, cells: s.codec.row(header, e)})
	}
	sortRecords(rows)

	if err := writeRows(path, header, rowCells(rows, len(header))); err != nil {
		metrics.RecordErrorByComponent("repository", "save_write")
		return fmt.Errorf("save %s: %w", path, err)
	}

	metrics.RecordSave(string(s.mergeMode))
	metrics.RecordSaveLatency(float64(time.Since(start).Microseconds()) / 1000)
	s.debug(ctx, "record file saved",
		logger.String("path", path),
		logger.String("mode", string(s.mergeMode)),
		logger.Int("appended", len(appended)),
		logger.Int("rows", len(rows)))
	return nil
}

// mergeLocked returns the held events the file lacks, per the merge mode.
// Appended events with no half are stamped with half in memory as well,
// so the next save recognises them. Caller must hold the write lock.
func (s *EventStore) mergeLocked(ctx context.Context, onDisk []model.Event, half int) []model.Event {
	if len(s.events) == 0 {
		return nil
	}

	remaining := make(map[model.Event]int, len(onDisk))
	for _, e := range onDisk {
		remaining[s.codec.persisted(e)]++
	}
	present := func(e model.Event) bool {
		key := s.codec.persisted(e)
		if remaining[key] > 0 {
			remaining[key]--
			return true
		}
		return false
	}

	candidates := []int{0}
	if s.mergeMode == MergeDiff {
		candidates = make([]int, len(s.events))
		for i := range candidates {
			candidates[i] = i
		}
	}

	var appended []model.Event
	for _, i := range candidates {
		e := s.events[i]
		if present(e) {
			continue
		}
		if e.Half == 0 && half > 0 {
			e.Half = half
			s.events[i].Half = half
			if present(e) {
				continue
			}
		}
		appended = append(appended, e)
	}

	if half > 0 && !s.codec.halfColumn {
		s.halfDropped.Do(func() {
			s.debug(ctx, "half column disabled, half not persisted", logger.Int("half", half))
		})
	}
	return appended
}

// RemoveEvent drops one held event equal to e. A zero Half in e also
// matches an event stamped by a failed save.
func (s *EventStore) RemoveEvent(ctx context.Context, e model.Event) error {
	s.mu.Lock()
	i := slices.IndexFunc(s.events, func(held model.Event) bool {
		if e.Half == 0 {
			held.Half = 0
		}
		return held == e
	})
	if i < 0 {
		s.mu.Unlock()
		return ErrEventNotFound
	}
	s.events = slices.Delete(s.events, i, i+1)
	n := len(s.events)
	s.mu.Unlock()

	metrics.UpdateStoreSize(n)
	s.debug(ctx, "event removed", logger.Int64("position", e.Position))
	return nil
}

// WriteFile replaces the file content with the held events ordered by frame.
// Held events still matching a row on disk keep that row's cells.
func (s *EventStore) WriteFile(ctx context.Context, path string) error {
	events := s.Events(ctx)
	sortByFrame(events)

	onDisk, err := s.codec.readTable(path)
	if err != nil && !errors.Is(err, ErrRecordFileNotFound) {
		s.debug(ctx, "record file unreadable, writing fresh layout", logger.String("path", path), logger.Error(err))
		onDisk = nil
	}

	kept := make(map[model.Event][][]string)
	if onDisk != nil {
		for _, r := range onDisk.rows {
			key := s.codec.persisted(r.event)
			kept[key] = append(kept[key], r.cells)
		}
	}

	header := s.codec.layout(onDisk)
	rows := make([][]string, len(events))
	for i, e := range events {
		key := s.codec.persisted(e)
		if q := kept[key]; len(q) > 0 {
			rows[i] = fit(q[0], len(header))
			kept[key] = q[1:]
			continue
		}
		rows[i] = s.codec.row(header, e)
	}

	if err := writeRows(path, header, rows); err != nil {
		metrics.RecordErrorByComponent("repository", "write")
		return fmt.Errorf("write %s: %w", path, err)
	}
	metrics.RecordSave("overwrite")
	s.debug(ctx, "record file rewritten", logger.String("path", path), logger.Int("rows", len(events)))
	return nil
}

func (s *EventStore) CreateRecordFile(ctx context.Context, path string) error {
	if _, err := os.Stat(path); err == nil {
		return nil
	} else if !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	if err := s.codec.writeFile(path, nil); err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	s.debug(ctx, "record file created", logger.String("path", path))
	return nil
}

func (s *EventStore) debug(ctx context.Context, msg string, fields ...logger.Field) {
	if s.log != nil {
		s.log.Debug(ctx, msg, fields...)
	}
}

// sortRecords orders rows like sortByFrame.
func sortRecords(rows []record) {
	sort.SliceStable(rows, func(i, j int) bool {
		return frameLess(rows[i].event, rows[j].event)
	})
}

// rowCells returns the cells of rows, each fitted to n columns.
func rowCells(rows []record, n int) [][]string {
	out := make([][]string, len(rows))
	for i, r := range rows {
		out[i] = fit(r.cells, n)
	}
	return out
}

func frameLess(a, b model.Event) bool {
	if a.Frame != b.Frame {
		return a.Frame < b.Frame
	}
	return a.Position < b.Position
}

// sortByFrame orders events by frame, then position, keeping input order on ties.
func sortByFrame(events []model.Event) {
	sort.SliceStable(events, func(i, j int) bool {
		return frameLess(events[i], events[j])
	})
}

func loadErrorReason(err error) string {
	switch {
	case errors.Is(err, ErrRecordFileNotFound):
		return "not_found"
	case errors.Is(err, ErrMissingColumn):
		return "missing_column"
	case errors.Is(err, ErrMalformedRow):
		return "malformed_row"
	default:
		return "io"
	}
}
