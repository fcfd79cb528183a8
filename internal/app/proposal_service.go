package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/dvirla/calendar-agent-backend/internal/calendar"
	"github.com/dvirla/calendar-agent-backend/internal/clock"
	"github.com/dvirla/calendar-agent-backend/internal/domain"
	"github.com/dvirla/calendar-agent-backend/internal/schedule"
	"github.com/dvirla/calendar-agent-backend/internal/timezone"
)

// ActionRepository is the store contract the lifecycle needs. WithTx runs fn
// with a transaction in the context; repository calls made inside fn join it.
type ActionRepository interface {
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error
	CreateAction(ctx context.Context, action domain.PendingAction) error
	GetActive(ctx context.Context, ownerID, actionID string, now time.Time) (*domain.PendingAction, error)
	ListActive(ctx context.Context, ownerID string, now time.Time) ([]domain.PendingAction, error)
	DeleteAction(ctx context.Context, ownerID, actionID string) (bool, error)
	SweepExpired(ctx context.Context, now time.Time) (int64, error)
}

const defaultActionTTL = 30 * time.Minute

// Conflict scan window around a proposal, matching what the assistant reads
// when it discusses the schedule.
const (
	proposalLookback  = 7 * 24 * time.Hour
	proposalLookahead = 30 * 24 * time.Hour
)

// ProposalService is the approval-gated lifecycle for calendar mutations:
// propose records an action with an expiry, approve executes it against the
// gateway, reject discards it. Expiry happens by sweep, never by caller.
type ProposalService struct {
	repo      ActionRepository
	gateway   calendar.Gateway
	zones     *timezone.Normalizer
	clock     clock.Clock
	logger    *slog.Logger
	actionTTL time.Duration
	ids       actionIDGenerator
	locks     *actionLocks
}

type ProposalServiceOption func(*ProposalService)

// WithActionTTL overrides the default 30-minute lifetime of new proposals.
func WithActionTTL(d time.Duration) ProposalServiceOption {
	return func(s *ProposalService) {
		if d > 0 {
			s.actionTTL = d
		}
	}
}

func NewProposalService(repo ActionRepository, gateway calendar.Gateway, zones *timezone.Normalizer, clk clock.Clock, logger *slog.Logger, opts ...ProposalServiceOption) *ProposalService {
	if logger == nil {
		logger = slog.Default()
	}
	svc := &ProposalService{
		repo:      repo,
		gateway:   gateway,
		zones:     zones,
		clock:     clk,
		logger:    logger,
		actionTTL: defaultActionTTL,
		locks:     newActionLocks(),
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc
}

type ProposeEventInput struct {
	OwnerID     string
	Title       string
	StartTime   string
	EndTime     string
	Description string
	Location    string
	// TTL overrides the service default when set; a zero value here means
	// "expire immediately" and is honored as such.
	TTL *time.Duration
}

type ProposeEventResult struct {
	ActionID    string
	Description string
	Message     string
	Conflicts   []domain.CalendarEvent
	ExpiresAt   time.Time
}

// Propose normalizes the request, flags conflicts without blocking, and
// persists the action for later approval. This is the only transition that
// reads the remote calendar.
func (s *ProposalService) Propose(ctx context.Context, in ProposeEventInput) (ProposeEventResult, error) {
	if in.OwnerID == "" {
		return ProposeEventResult{}, domain.ErrOwnerRequired
	}
	if in.Title == "" {
		return ProposeEventResult{}, domain.ErrTitleRequired
	}

	loc := s.zones.Location(ctx)
	start, err := timezone.Parse(in.StartTime, loc)
	if err != nil {
		return ProposeEventResult{}, fmt.Errorf("%w: %v", domain.ErrInvalidInterval, err)
	}
	end, err := timezone.Parse(in.EndTime, loc)
	if err != nil {
		return ProposeEventResult{}, fmt.Errorf("%w: %v", domain.ErrInvalidInterval, err)
	}
	if !start.Before(end) {
		return ProposeEventResult{}, domain.ErrInvalidInterval
	}

	now := s.clock.Now()
	existing, err := s.gateway.ListEvents(ctx, now.Add(-proposalLookback), now.Add(proposalLookahead))
	if err != nil {
		return ProposeEventResult{}, err
	}
	for i := range existing {
		existing[i].StartTime = timezone.ToZoned(existing[i].StartTime, loc)
		existing[i].EndTime = timezone.ToZoned(existing[i].EndTime, loc)
	}

	conflicts := schedule.FindConflicts(start, end, existing)

	description := fmt.Sprintf("Create '%s' from %s to %s",
		in.Title, start.Format("2006-01-02 15:04"), end.Format("15:04"))
	warning := ""
	if len(conflicts) > 0 {
		warning = fmt.Sprintf(" ⚠️ Warning: This conflicts with %s at %s",
			conflicts[0].Title, conflicts[0].StartTime.Format("15:04"))
		description += warning
	}

	ttl := s.actionTTL
	if in.TTL != nil {
		ttl = *in.TTL
	}

	action := domain.PendingAction{
		ActionID:    s.ids.next(domain.ActionCreateEvent, now),
		OwnerID:     in.OwnerID,
		Type:        domain.ActionCreateEvent,
		Description: description,
		Details: domain.EventDetails{
			Title:       in.Title,
			StartTime:   start,
			EndTime:     end,
			Description: in.Description,
			Location:    in.Location,
		},
		CreatedAt: now,
		ExpiresAt: now.Add(ttl),
	}

	if err := s.repo.CreateAction(ctx, action); err != nil {
		return ProposeEventResult{}, err
	}

	s.logger.Info("proposed calendar action",
		"actionID", action.ActionID, "ownerID", in.OwnerID, "conflicts", len(conflicts))

	return ProposeEventResult{
		ActionID:    action.ActionID,
		Description: description,
		Message: fmt.Sprintf("I'd like to create '%s' from %s to %s.%s",
			in.Title, start.Format("01/02 15:04"), end.Format("15:04"), warning),
		Conflicts: conflicts,
		ExpiresAt: action.ExpiresAt,
	}, nil
}

type ApproveResult struct {
	EventID string
	Message string
}

// Approve executes the stored action against the gateway and deletes it.
// A gateway failure leaves the action in place so the caller can retry;
// expiry or a prior transition reads as not found. The per-action lock keeps
// two concurrent approvals from both reaching the gateway.
func (s *ProposalService) Approve(ctx context.Context, ownerID, actionID string) (ApproveResult, error) {
	if ownerID == "" {
		return ApproveResult{}, domain.ErrOwnerRequired
	}

	unlock := s.locks.lock(ownerID + "/" + actionID)
	defer unlock()

	action, err := s.repo.GetActive(ctx, ownerID, actionID, s.clock.Now())
	if err != nil {
		return ApproveResult{}, err
	}
	if action == nil {
		return ApproveResult{}, domain.ErrActionNotFound
	}

	var eventID string
	switch action.Type {
	case domain.ActionCreateEvent:
		eventID, err = s.gateway.CreateEvent(ctx, domain.CalendarEvent{
			Title:       action.Details.Title,
			StartTime:   action.Details.StartTime,
			EndTime:     action.Details.EndTime,
			Description: action.Details.Description,
			Location:    action.Details.Location,
		})
		if err != nil {
			// Action stays put for a retried approval.
			return ApproveResult{}, err
		}
	case domain.ActionUpdateEvent, domain.ActionDeleteEvent:
		return ApproveResult{}, fmt.Errorf("%w: %s", domain.ErrUnsupportedAction, action.Type)
	default:
		return ApproveResult{}, fmt.Errorf("%w: %s", domain.ErrUnsupportedAction, action.Type)
	}

	removed, err := s.repo.DeleteAction(ctx, ownerID, actionID)
	if err != nil {
		s.logger.Warn("approved action could not be deleted, sweep will collect it",
			"actionID", actionID, "error", err)
	} else if !removed {
		s.logger.Warn("approved action was already gone", "actionID", actionID)
	}

	s.logger.Info("approved calendar action", "actionID", actionID, "eventID", eventID)

	return ApproveResult{
		EventID: eventID,
		Message: fmt.Sprintf("✅ Created '%s' successfully!", action.Details.Title),
	}, nil
}

type RejectResult struct {
	Description string
	Message     string
}

// Reject discards the action without touching the remote calendar and echoes
// the stored description for confirmation messaging.
func (s *ProposalService) Reject(ctx context.Context, ownerID, actionID string) (RejectResult, error) {
	if ownerID == "" {
		return RejectResult{}, domain.ErrOwnerRequired
	}

	unlock := s.locks.lock(ownerID + "/" + actionID)
	defer unlock()

	var action *domain.PendingAction
	err := s.repo.WithTx(ctx, func(ctx context.Context) error {
		var err error
		action, err = s.repo.GetActive(ctx, ownerID, actionID, s.clock.Now())
		if err != nil {
			return err
		}
		if action == nil {
			return domain.ErrActionNotFound
		}
		_, err = s.repo.DeleteAction(ctx, ownerID, actionID)
		return err
	})
	if err != nil {
		return RejectResult{}, err
	}

	s.logger.Info("rejected calendar action", "actionID", actionID, "ownerID", ownerID)

	return RejectResult{
		Description: action.Description,
		Message:     fmt.Sprintf("❌ Cancelled: %s", action.Description),
	}, nil
}

// ListPending returns the owner's unexpired actions, sweeping expired rows
// first on a best-effort basis.
func (s *ProposalService) ListPending(ctx context.Context, ownerID string) ([]domain.PendingAction, error) {
	if ownerID == "" {
		return nil, domain.ErrOwnerRequired
	}

	now := s.clock.Now()
	if _, err := s.repo.SweepExpired(ctx, now); err != nil {
		s.logger.Warn("expired action sweep failed", "error", err)
	}
	return s.repo.ListActive(ctx, ownerID, now)
}

type FreeSlotsInput struct {
	Date              string
	DurationMinutes   int
	BusinessHoursOnly bool
}

// FreeSlots lists the day's events from the gateway and returns up to ten
// free slots of the requested duration, earliest first.
func (s *ProposalService) FreeSlots(ctx context.Context, in FreeSlotsInput) ([]schedule.Slot, error) {
	if in.DurationMinutes <= 0 {
		return nil, domain.ErrInvalidDuration
	}

	loc := s.zones.Location(ctx)
	day, err := timezone.Parse(in.Date, loc)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidInterval, err)
	}
	dayStart := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, loc)

	events, err := s.gateway.ListEvents(ctx, dayStart, dayStart.Add(24*time.Hour))
	if err != nil {
		return nil, err
	}
	for i := range events {
		events[i].StartTime = timezone.ToZoned(events[i].StartTime, loc)
		events[i].EndTime = timezone.ToZoned(events[i].EndTime, loc)
	}

	return schedule.FreeSlots(dayStart, time.Duration(in.DurationMinutes)*time.Minute, in.BusinessHoursOnly, events), nil
}

// SweepExpired removes all expired actions for every owner. The serve loop
// runs it on a timer; lazy sweeping in ListPending covers the rest.
func (s *ProposalService) SweepExpired(ctx context.Context) (int64, error) {
	return s.repo.SweepExpired(ctx, s.clock.Now())
}
