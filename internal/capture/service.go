// Package capture watches the capture directory kept current by the browser
// exporter: the page snapshot and the input event log.
package capture

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/j-veylop/token-overlay-tui/internal/config"
	"github.com/j-veylop/token-overlay-tui/internal/logger"
	"github.com/j-veylop/token-overlay-tui/internal/models"
	"github.com/j-veylop/token-overlay-tui/internal/page"
)

const debounceInterval = 100 * time.Millisecond

// EventType defines the type of capture event.
type EventType int

const (
	// EventSnapshot carries a freshly parsed page document.
	EventSnapshot EventType = iota
	// EventInput carries one input event from the event log.
	EventInput
	// EventError carries a watcher or load failure.
	EventError
)

// String returns the string representation of the event type.
func (t EventType) String() string {
	switch t {
	case EventSnapshot:
		return "snapshot"
	case EventInput:
		return "input"
	case EventError:
		return "error"
	default:
		return "unknown"
	}
}

// Event represents a capture service event.
type Event struct {
	Type     EventType
	Document *page.Document
	Input    models.InputEvent
	Error    error
}

// Service watches the capture directory and reports snapshots and input
// events on a channel.
type Service struct {
	mu            sync.Mutex
	pagePath      string
	eventsPath    string
	watcher       *fsnotify.Watcher
	eventChan     chan Event
	stopChan      chan struct{}
	debounceTimer *time.Timer
	pagePending   bool

	eventsFile *os.File
	reader     *bufio.Reader
	offset     int64
	partial    []byte
}

// New creates a capture service for dir and starts watching it. The current
// page is loaded and emitted as the first snapshot; the event log is read
// from its end so earlier input is not replayed.
func New(dir string) (*Service, error) {
	if err := os.MkdirAll(dir, 0750); err != nil {
		return nil, fmt.Errorf("failed to create capture directory: %w", err)
	}

	s := &Service{
		pagePath:   filepath.Join(dir, config.PageFileName),
		eventsPath: filepath.Join(dir, config.EventsFileName),
		eventChan:  make(chan Event, 100),
		stopChan:   make(chan struct{}),
	}

	if err := s.openEvents(true); err != nil {
		return nil, fmt.Errorf("failed to open event log: %w", err)
	}

	if err := s.startWatcher(dir); err != nil {
		s.closeEvents()
		return nil, fmt.Errorf("failed to start file watcher: %w", err)
	}

	s.handlePageChange()
	return s, nil
}

// Events returns the event channel for subscribing to capture changes.
func (s *Service) Events() <-chan Event {
	return s.eventChan
}

// PagePath returns the watched page snapshot path.
func (s *Service) PagePath() string {
	return s.pagePath
}

// LoadPage parses the page snapshot at path. A missing file yields an empty
// document.
func LoadPage(path string) (*page.Document, error) {
	f, err := os.Open(path) // #nosec G304 -- path comes from configuration
	if errors.Is(err, os.ErrNotExist) {
		return page.Empty(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open page snapshot: %w", err)
	}
	defer func() {
		if closeErr := f.Close(); closeErr != nil {
			logger.Error("failed to close page snapshot", "error", closeErr)
		}
	}()

	doc, err := page.Parse(f)
	if err != nil {
		return nil, fmt.Errorf("failed to parse page snapshot: %w", err)
	}
	return doc, nil
}

// startWatcher starts the file system watcher.
func (s *Service) startWatcher(dir string) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	s.watcher = watcher

	// Watch the directory so the exporter may replace files atomically.
	if err := watcher.Add(dir); err != nil {
		if closeErr := watcher.Close(); closeErr != nil {
			logger.Error("failed to close watcher", "error", closeErr)
		}
		return err
	}

	go s.watchLoop()
	return nil
}

// watchLoop handles file system events. Page changes are debounced; event
// log writes are read immediately.
func (s *Service) watchLoop() {
	pageName := filepath.Base(s.pagePath)
	eventsName := filepath.Base(s.eventsPath)

	for {
		select {
		case event, ok := <-s.watcher.Events:
			if !ok {
				return
			}

			switch filepath.Base(event.Name) {
			case pageName:
				if event.Op&(fsnotify.Write|fsnotify.Create) != 0 {
					s.schedulePageChange()
				}
			case eventsName:
				s.handleEventsChange(event.Op)
			}

		case err, ok := <-s.watcher.Errors:
			if !ok {
				return
			}
			s.sendEvent(Event{Type: EventError, Error: err})

		case <-s.stopChan:
			return
		}
	}
}

func (s *Service) schedulePageChange() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.debounceTimer != nil {
		s.debounceTimer.Stop()
	}
	s.pagePending = true
	s.debounceTimer = time.AfterFunc(debounceInterval, s.handlePageChange)
}

// handlePageChange reloads the page snapshot after an external change.
func (s *Service) handlePageChange() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loadPageLocked()
}

// flushPageLocked loads a page change that is still waiting out its
// debounce, so input read next is delivered after the page it acted on.
func (s *Service) flushPageLocked() {
	if !s.pagePending {
		return
	}
	if s.debounceTimer != nil {
		s.debounceTimer.Stop()
	}
	s.loadPageLocked()
}

func (s *Service) loadPageLocked() {
	s.pagePending = false
	doc, err := LoadPage(s.pagePath)
	if err != nil {
		s.sendEvent(Event{Type: EventError, Error: err})
		return
	}
	s.sendEvent(Event{Type: EventSnapshot, Document: doc})
}

func (s *Service) handleEventsChange(op fsnotify.Op) {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch {
	case op&(fsnotify.Remove|fsnotify.Rename) != 0:
		s.closeEventsLocked()
		return
	case op&fsnotify.Create != 0:
		// A recreated log is new input and is read from the start.
		s.closeEventsLocked()
		if err := s.openEventsLocked(false); err != nil {
			s.sendEvent(Event{Type: EventError, Error: err})
			return
		}
	case op&fsnotify.Write == 0:
		return
	}

	if s.eventsFile == nil {
		if err := s.openEventsLocked(false); err != nil {
			s.sendEvent(Event{Type: EventError, Error: err})
			return
		}
	}
	if s.eventsFile != nil {
		s.readEventsLocked()
	}
}

func (s *Service) openEvents(fromEnd bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.openEventsLocked(fromEnd)
}

// openEventsLocked opens the event log. A missing log is not an error; it
// is opened once the exporter creates it.
func (s *Service) openEventsLocked(fromEnd bool) error {
	f, err := os.Open(s.eventsPath) // #nosec G304 -- path comes from configuration
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return err
	}

	var offset int64
	if fromEnd {
		offset, err = f.Seek(0, io.SeekEnd)
		if err != nil {
			_ = f.Close()
			return err
		}
	}

	s.eventsFile = f
	s.reader = bufio.NewReader(f)
	s.offset = offset
	s.partial = nil
	return nil
}

func (s *Service) closeEvents() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closeEventsLocked()
}

func (s *Service) closeEventsLocked() {
	if s.eventsFile != nil {
		if err := s.eventsFile.Close(); err != nil {
			logger.Error("failed to close event log", "error", err)
		}
	}
	s.eventsFile = nil
	s.reader = nil
	s.offset = 0
	s.partial = nil
}

// readEventsLocked emits every complete line appended since the last read.
// A trailing line without a newline is kept until it is completed.
func (s *Service) readEventsLocked() {
	info, err := s.eventsFile.Stat()
	if err != nil {
		return
	}
	if info.Size() < s.offset {
		// Truncated; start over.
		if _, err := s.eventsFile.Seek(0, io.SeekStart); err != nil {
			s.sendEvent(Event{Type: EventError, Error: fmt.Errorf("failed to rewind event log: %w", err)})
			return
		}
		s.offset = 0
		s.partial = nil
		s.reader.Reset(s.eventsFile)
	}

	for {
		chunk, err := s.reader.ReadBytes('\n')
		if len(chunk) > 0 {
			s.offset += int64(len(chunk))
			s.partial = append(s.partial, chunk...)
			if chunk[len(chunk)-1] == '\n' {
				line := bytes.TrimSpace(s.partial)
				s.partial = nil
				s.emitLine(line)
			}
		}
		if err != nil {
			return
		}
	}
}

func (s *Service) emitLine(line []byte) {
	if len(line) == 0 {
		return
	}
	ev, err := models.ParseInputEvent(line)
	if err != nil {
		logger.Warn("skipping malformed input event", "error", err)
		return
	}
	s.flushPageLocked()
	s.sendEvent(Event{Type: EventInput, Input: ev})
}

// sendEvent delivers event in order. It waits for room rather than
// dropping, since a lost input event is a lost send; the manager drains
// the channel continuously.
func (s *Service) sendEvent(event Event) {
	select {
	case s.eventChan <- event:
	case <-s.stopChan:
	}
}

// Close stops the file watcher and cleans up resources.
func (s *Service) Close() error {
	close(s.stopChan)

	s.mu.Lock()
	if s.debounceTimer != nil {
		s.debounceTimer.Stop()
	}
	s.mu.Unlock()

	s.closeEvents()

	if s.watcher != nil {
		return s.watcher.Close()
	}
	return nil
}
