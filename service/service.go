// Package service orchestrates document checks: it owns the worker pool
// that runs extraction and rule evaluation in the background and moves
// documents through their status lifecycle.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/msklnkk/Electronic-corrector/checker"
	"github.com/msklnkk/Electronic-corrector/store"
)

// ErrBusy is returned when the check queue is full.
var ErrBusy = errors.New("check queue is full")

// Notifier receives completion events. Implementations must not block
// for long and must swallow their own delivery failures.
type Notifier interface {
	CheckCompleted(ctx context.Context, doc store.Document, report *checker.DocumentCheckReport)
}

// NopNotifier ignores all events.
type NopNotifier struct{}

func (NopNotifier) CheckCompleted(context.Context, store.Document, *checker.DocumentCheckReport) {}

// Config configures the Service.
type Config struct {
	// Workers is the number of concurrent check workers (default: 2).
	Workers int

	// QueueSize bounds the pending-check queue (default: 32).
	QueueSize int

	// CheckTimeout bounds one document check; the engine has no internal
	// suspension points, so cancellation is imposed here by wrapping the
	// whole call (default: 2 minutes).
	CheckTimeout time.Duration

	// Notifier receives completion events (default: NopNotifier).
	Notifier Notifier

	// Logger for worker activity.
	Logger *slog.Logger
}

func (c *Config) defaults() {
	if c.Workers <= 0 {
		c.Workers = 2
	}
	if c.QueueSize <= 0 {
		c.QueueSize = 32
	}
	if c.CheckTimeout <= 0 {
		c.CheckTimeout = 2 * time.Minute
	}
	if c.Notifier == nil {
		c.Notifier = NopNotifier{}
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
}

type job struct {
	checkID string
	doc     store.Document
}

// Service ties the store and the checker together.
type Service struct {
	store   *store.Store
	checker *checker.Checker
	cfg     Config
	logger  *slog.Logger

	jobs chan job
	wg   sync.WaitGroup
}

// New creates a Service. Call Start before StartCheck.
func New(st *store.Store, chk *checker.Checker, cfg Config) *Service {
	cfg.defaults()
	return &Service{
		store:   st,
		checker: chk,
		cfg:     cfg,
		logger:  cfg.Logger,
		jobs:    make(chan job, cfg.QueueSize),
	}
}

// Start launches the worker pool. Workers exit when ctx is cancelled and
// the queue has drained, or immediately on Stop.
func (s *Service) Start(ctx context.Context) {
	for i := 0; i < s.cfg.Workers; i++ {
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			for {
				select {
				case <-ctx.Done():
					return
				case j, ok := <-s.jobs:
					if !ok {
						return
					}
					s.runCheck(ctx, j)
				}
			}
		}()
	}
}

// Stop closes the queue and waits for in-flight checks to finish.
func (s *Service) Stop() {
	close(s.jobs)
	s.wg.Wait()
}

// StartCheck registers a check for the document and enqueues it.
// Returns the check id the caller can poll.
func (s *Service) StartCheck(ctx context.Context, documentID string) (string, error) {
	doc, err := s.store.GetDocument(ctx, documentID)
	if err != nil {
		return "", err
	}

	chk, err := s.store.CreateCheck(ctx, documentID)
	if err != nil {
		return "", err
	}
	if err := s.store.UpdateDocumentStatus(ctx, documentID, store.StatusAnalyzing, nil); err != nil {
		return "", err
	}

	select {
	case s.jobs <- job{checkID: chk.ID, doc: doc}:
		return chk.ID, nil
	default:
		reason := "очередь проверок переполнена"
		if err := s.store.FailCheck(ctx, chk.ID, reason); err != nil {
			s.logger.Error("fail check", "check_id", chk.ID, "error", err)
		}
		if err := s.store.UpdateDocumentStatus(ctx, documentID, store.StatusError, nil); err != nil {
			s.logger.Error("update status", "document_id", documentID, "error", err)
		}
		return "", ErrBusy
	}
}

// GetCheck returns one check row.
func (s *Service) GetCheck(ctx context.Context, checkID string) (store.Check, error) {
	return s.store.GetCheck(ctx, checkID)
}

// GetReport returns the stored report of a completed check.
func (s *Service) GetReport(ctx context.Context, checkID string) (*checker.DocumentCheckReport, error) {
	return s.store.GetReport(ctx, checkID)
}

// runCheck executes one queued job: checker.Check under a timeout, then
// persistence of the report, the mistakes and the new document status.
func (s *Service) runCheck(ctx context.Context, j job) {
	cctx, cancel := context.WithTimeout(ctx, s.cfg.CheckTimeout)
	defer cancel()

	report := s.checker.Check(cctx, j.doc.Filepath, j.doc.ID, j.doc.Filename)

	// Persistence uses a fresh context: the check timeout must not take
	// the bookkeeping down with it.
	pctx, pcancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer pcancel()

	if cctx.Err() != nil {
		reason := fmt.Sprintf("проверка прервана: %v", cctx.Err())
		s.logger.Warn("check aborted", "check_id", j.checkID, "document_id", j.doc.ID, "error", cctx.Err())
		if err := s.store.FailCheck(pctx, j.checkID, reason); err != nil {
			s.logger.Error("fail check", "check_id", j.checkID, "error", err)
		}
		if err := s.store.UpdateDocumentStatus(pctx, j.doc.ID, store.StatusError, nil); err != nil {
			s.logger.Error("update status", "document_id", j.doc.ID, "error", err)
		}
		return
	}

	if err := s.store.FinishCheck(pctx, j.checkID, report); err != nil {
		s.logger.Error("persist report", "check_id", j.checkID, "error", err)
	}
	if err := s.store.SaveMistakes(pctx, j.doc.ID, report.Results); err != nil {
		s.logger.Error("persist mistakes", "document_id", j.doc.ID, "error", err)
	}

	status := store.StatusNeedsRevision
	if report.IsCompliant() {
		status = store.StatusCompliant
	}
	score := report.Score()
	if err := s.store.UpdateDocumentStatus(pctx, j.doc.ID, status, &score); err != nil {
		s.logger.Error("update status", "document_id", j.doc.ID, "error", err)
	}

	s.cfg.Notifier.CheckCompleted(pctx, j.doc, report)
}
