package service

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"timeclock/internal/accounting"
	"timeclock/internal/clock"
	"timeclock/internal/events"
	"timeclock/internal/ledger"
	"timeclock/internal/metrics"
	"timeclock/internal/models"

	"github.com/shopspring/decimal"
)

// ErrSubjectNotFound rejects a scan whose badge is in no lookup table.
var ErrSubjectNotFound = errors.New("subject not found")

// Outcome tells the operator where the records went.
type Outcome string

const (
	// OutcomeRecorded means every record reached the ledger.
	OutcomeRecorded Outcome = "recorded"
	// OutcomeQueued means at least one record was saved locally and will sync later.
	OutcomeQueued Outcome = "queued"
)

// Result describes an accepted submission.
type Result struct {
	Outcome    Outcome                    `json:"outcome"`
	Records    []models.WorkEvent         `json:"records"`
	Queued     []models.PendingSubmission `json:"queued,omitempty"`
	FirstOfDay bool                       `json:"first_of_day"`
	FailedOpen bool                       `json:"failed_open"`
}

// Submitter turns one scan into ledger records.
type Submitter struct {
	deps Deps

	submitMu sync.Mutex

	mu       sync.RWMutex
	rules    accounting.Rules
	guard    *accounting.Guard
	resolver *accounting.Resolver
	splitter accounting.Splitter
	calc     accounting.Calculator
}

func NewSubmitter(deps Deps, rules accounting.Rules) *Submitter {
	s := &Submitter{deps: deps}
	s.ApplyRules(rules)
	return s
}

// ApplyRules swaps the accounting policy. Submissions in flight finish with
// the previous rules.
func (s *Submitter) ApplyRules(rules accounting.Rules) {
	var local accounting.EventFinder
	if s.deps.History != nil {
		local = s.deps.History
	}
	calc := accounting.NewCalculator(accounting.NewBreakSchedule(rules.Breaks))

	s.mu.Lock()
	defer s.mu.Unlock()
	s.rules = rules
	s.guard = accounting.NewGuard(rules, s.deps.Ledger, local, s.deps.Logger)
	s.resolver = accounting.NewResolver(rules, s.deps.Ledger, local, s.deps.Logger)
	s.calc = calc
	s.splitter = accounting.NewSplitter(rules.Facility, calc)
}

// Rules returns the policy in effect.
func (s *Submitter) Rules() accounting.Rules {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.rules
}

type engine struct {
	rules    accounting.Rules
	guard    *accounting.Guard
	resolver *accounting.Resolver
	splitter accounting.Splitter
	calc     accounting.Calculator
}

func (s *Submitter) engine() engine {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return engine{rules: s.rules, guard: s.guard, resolver: s.resolver, splitter: s.splitter, calc: s.calc}
}

// Submit validates the scan, resolves lookups, applies the cooldown, builds
// the records and persists them. Only invalid codes, ErrSubjectNotFound and
// accounting.ErrCooldownActive are rejections; an unreachable ledger ends
// in OutcomeQueued.
func (s *Submitter) Submit(ctx context.Context, req models.ScanRequest) (Result, error) {
	s.submitMu.Lock()
	defer s.submitMu.Unlock()

	log := s.deps.Logger
	eng := s.engine()

	req, err := req.Validate()
	if err != nil {
		metrics.IncSubmission("invalid")
		return Result{}, err
	}
	now := s.deps.Clock.Now()
	date := clock.DateOf(now)

	subject, err := s.deps.Directory.Subject(ctx, req.SubjectCode)
	if err != nil {
		if errors.Is(err, ledger.ErrNotFound) {
			metrics.IncSubmission("subject_not_found")
			return Result{}, fmt.Errorf("%w: %s", ErrSubjectNotFound, req.SubjectCode)
		}
		return Result{}, fmt.Errorf("resolve subject: %w", err)
	}
	activity := s.activity(ctx, req.ActivityCode)
	order := models.DirectOrder(req.OrderCode)
	if !req.Direct {
		order = s.order(ctx, req.OrderCode)
	}

	if err := eng.guard.Check(ctx, subject.Code, now); err != nil {
		if errors.Is(err, accounting.ErrCooldownActive) {
			metrics.IncSubmission("cooldown")
		}
		return Result{}, err
	}

	res, err := eng.resolver.Resolve(ctx, subject.Code, now)
	if err != nil {
		return Result{}, err
	}

	primary := models.WorkEvent{
		SubjectID:       subject.Code,
		SubjectName:     subject.Name,
		Date:            date,
		ActivityCode:    activity.Code,
		ActivityLabel:   activity.Label,
		OrderID:         order.ID,
		Client:          order.Client,
		Reference:       order.Reference,
		ItemDescription: order.Item,
		Quantities:      order.Quantities,
		IntervalStart:   res.Start,
		IntervalEnd:     res.End,
		ExactTimestamp:  res.End,
		Process:         models.ProcessProduction,
	}
	if res.Empty {
		primary.IntervalStart = res.End
		primary.WorkedHours = decimal.Zero
	} else {
		primary.WorkedHours = eng.calc.Hours(res.Start, res.End)
	}

	records := eng.splitter.Split(primary, res.End)
	result := Result{
		Outcome:    OutcomeRecorded,
		Records:    records,
		FirstOfDay: res.FirstOfDay,
		FailedOpen: res.FailedOpen,
	}
	if err := s.persist(ctx, records, &result); err != nil {
		metrics.IncSubmission("error")
		return result, err
	}

	metrics.IncSubmission(string(result.Outcome))
	log.Info().
		Str("subject_id", subject.Code).
		Str("order_id", order.ID).
		Str("start", res.Start.String()).
		Str("end", res.End.String()).
		Str("hours", primary.WorkedHours.String()).
		Int("records", len(records)).
		Str("outcome", string(result.Outcome)).
		Msg("scan submitted")
	return result, nil
}

func (s *Submitter) activity(ctx context.Context, code string) models.Activity {
	a, err := s.deps.Directory.Activity(ctx, code)
	if err != nil {
		s.deps.Logger.Warn().Err(err).Str("activity", code).Msg("activity not found, recording placeholder")
		return models.Activity{Code: code, Label: models.NotFound}
	}
	return a
}

func (s *Submitter) order(ctx context.Context, id string) models.Order {
	o, err := s.deps.Directory.Order(ctx, id)
	if err != nil {
		s.deps.Logger.Warn().Err(err).Str("order", id).Msg("order not found, recording placeholder")
		return models.Order{
			ID:         id,
			Reference:  models.NotAvailable,
			Quantities: models.NotAvailable,
			Client:     models.NotFound,
			Item:       models.NotAvailable,
		}
	}
	return o
}

// persist appends every record to the ledger, queueing what cannot be
// appended. After the first failed append the remaining records go straight
// to the queue. Every record is mirrored to the local history.
func (s *Submitter) persist(ctx context.Context, records []models.WorkEvent, result *Result) error {
	log := s.deps.Logger
	online := s.deps.online(ctx)
	if !online {
		log.Warn().Msg("offline, queueing submission")
	}

	for _, rec := range records {
		kind := "primary"
		if rec.Synthetic {
			kind = "facility"
		}

		pendingID := ""
		appended := false
		if online {
			if err := s.deps.Ledger.Append(ctx, rec); err != nil {
				log.Warn().Err(err).Str("subject_id", rec.SubjectID).Msg("ledger append failed, queueing")
				online = false
				s.deps.markOffline()
			} else {
				appended = true
				metrics.IncRecord(kind, "remote")
			}
		}

		if !appended {
			p, err := s.deps.Queue.Enqueue(rec, s.deps.Clock.Now())
			if err != nil {
				return fmt.Errorf("record could not be appended or queued: %w", err)
			}
			pendingID = p.PendingID
			result.Queued = append(result.Queued, p)
			result.Outcome = OutcomeQueued
			metrics.IncRecord(kind, "queued")
			s.deps.publish(events.TypeSubmissionQueued, map[string]string{"pending_id": p.PendingID})
		}

		if s.deps.History != nil {
			if err := s.deps.History.AppendEvent(ctx, rec, pendingID); err != nil {
				log.Error().Err(err).Str("subject_id", rec.SubjectID).Msg("local history append failed")
			}
		}
	}

	if result.Outcome == OutcomeRecorded {
		s.deps.publish(events.TypeSubmissionRecorded, map[string]int{"records": len(records)})
	}
	return nil
}
