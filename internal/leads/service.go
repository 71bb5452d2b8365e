package leads

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/codcrm-backend/internal/blacklist"
	"github.com/angelmondragon/codcrm-backend/pkg/actor"
	"github.com/angelmondragon/codcrm-backend/pkg/db"
	"github.com/angelmondragon/codcrm-backend/pkg/db/models"
	"github.com/angelmondragon/codcrm-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/codcrm-backend/pkg/errors"
	"github.com/angelmondragon/codcrm-backend/pkg/logger"
	"github.com/angelmondragon/codcrm-backend/pkg/metrics"
	"github.com/angelmondragon/codcrm-backend/pkg/pagination"
	"github.com/angelmondragon/codcrm-backend/pkg/statemachine"
	"github.com/angelmondragon/codcrm-backend/pkg/validate"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// PhoneBlocker reports whether a phone number is blacklisted.
type PhoneBlocker interface {
	IsBlacklisted(ctx context.Context, phone string) (bool, error)
}

// UserDirectory resolves assignees.
type UserDirectory interface {
	Exists(ctx context.Context, id uuid.UUID) (bool, error)
}

// Service drives the lead funnel for the call center.
type Service interface {
	Create(ctx context.Context, act actor.Actor, input CreateLeadInput) (*LeadDTO, error)
	Get(ctx context.Context, id uuid.UUID) (*LeadDTO, error)
	List(ctx context.Context, params ListParams) (*pagination.Page[LeadDTO], error)
	Update(ctx context.Context, act actor.Actor, id uuid.UUID, input UpdateLeadInput) (*LeadDTO, error)
	Transition(ctx context.Context, act actor.Actor, id uuid.UUID, input TransitionInput) (*LeadDTO, error)
	Reopen(ctx context.Context, act actor.Actor, id uuid.UUID, input ReopenInput) (*LeadDTO, error)
	AddNote(ctx context.Context, act actor.Actor, id uuid.UUID, input NoteInput) (*HistoryEntry, error)
	LogCall(ctx context.Context, act actor.Actor, id uuid.UUID, input LogCallInput) (*CallResult, error)
	History(ctx context.Context, id uuid.UUID) ([]HistoryEntry, error)
	// MarkWonTx converts a confirmed lead inside the caller's transaction.
	MarkWonTx(ctx context.Context, tx *gorm.DB, act actor.Actor, id uuid.UUID, note string) error
}

type service struct {
	repo     Repository
	tx       txRunner
	blocker  PhoneBlocker
	users    UserDirectory
	logg     *logger.Logger
	recorder *metrics.Recorder
	now      func() time.Time
}

func NewService(repo Repository, tx txRunner, blocker PhoneBlocker, users UserDirectory, logg *logger.Logger, recorder *metrics.Recorder) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("leads repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if blocker == nil {
		return nil, fmt.Errorf("blacklist checker required")
	}
	if users == nil {
		return nil, fmt.Errorf("user directory required")
	}
	if logg == nil {
		logg = logger.Nop()
	}
	return &service{
		repo:     repo,
		tx:       tx,
		blocker:  blocker,
		users:    users,
		logg:     logg,
		recorder: recorder,
		now:      time.Now,
	}, nil
}

func (s *service) Create(ctx context.Context, act actor.Actor, input CreateLeadInput) (*LeadDTO, error) {
	if err := act.Require(actor.AreaLeads); err != nil {
		return nil, err
	}

	lead := &models.Lead{
		Name:       strings.TrimSpace(input.Name),
		Phone:      strings.TrimSpace(input.Phone),
		City:       trimmedPtr(input.City),
		Address:    trimmedPtr(input.Address),
		Source:     enums.LeadSource(strings.ToLower(strings.TrimSpace(input.Source))),
		Status:     statemachine.Lead.Initial(),
		AssignedTo: input.AssignedTo,
		ProductID:  input.ProductID,
		CreatedBy:  act.Ref(),
	}
	input.Name = lead.Name
	v := validate.New()
	v.Struct(input)
	if err := s.checkLead(ctx, v, lead, true); err != nil {
		return nil, err
	}

	if err := s.repo.Create(ctx, lead); err != nil {
		return nil, db.TranslateError(err, "lead")
	}
	s.logg.Info(s.logg.WithEntity(ctx, "lead", lead.ID.String()), "lead created")
	dto := fromModel(lead)
	return &dto, nil
}

// checkLead validates the whole entity: field rules, a normalised phone and an
// existing assignee. The blacklist is consulted only when screenPhone is set.
func (s *service) checkLead(ctx context.Context, v validate.Violations, lead *models.Lead, screenPhone bool) error {
	v.Check(lead.Name != "", "name", "is required")
	phone, ok := blacklist.NormalizePhone(lead.Phone)
	if lead.Phone != "" && !ok {
		v.Add("phone", "must be 8 to 15 digits with an optional leading +")
	}
	v.Enum("source", lead.Source)
	if err := v.Err(); err != nil {
		return err
	}
	lead.Phone = phone

	if screenPhone {
		if err := s.ensureNotBlacklisted(ctx, lead.Phone); err != nil {
			return err
		}
	}
	if lead.AssignedTo != nil {
		exists, err := s.users.Exists(ctx, *lead.AssignedTo)
		if err != nil {
			return err
		}
		if !exists {
			return pkgerrors.New(pkgerrors.CodeUserNotFound, "assignee not found").
				WithDetails(map[string]string{"assigned_to": lead.AssignedTo.String()})
		}
	}
	return nil
}

func (s *service) ensureNotBlacklisted(ctx context.Context, phone string) error {
	blocked, err := s.blocker.IsBlacklisted(ctx, phone)
	if err != nil {
		return err
	}
	if blocked {
		return blacklist.ErrBlacklisted(phone)
	}
	return nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*LeadDTO, error) {
	lead, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, db.TranslateError(err, "lead")
	}
	dto := fromModel(lead)
	return &dto, nil
}

func (s *service) List(ctx context.Context, params ListParams) (*pagination.Page[LeadDTO], error) {
	if err := pagination.CheckCursor(params.Cursor); err != nil {
		return nil, err
	}
	rows, err := s.repo.List(ctx, params)
	if err != nil {
		return nil, db.TranslateError(err, "lead")
	}
	items := make([]LeadDTO, len(rows))
	for i := range rows {
		items[i] = fromModel(&rows[i])
	}
	page := pagination.Build(items, params.Limit, cursorOf)
	return &page, nil
}

func (s *service) Update(ctx context.Context, act actor.Actor, id uuid.UUID, input UpdateLeadInput) (*LeadDTO, error) {
	if err := act.Require(actor.AreaLeads); err != nil {
		return nil, err
	}
	lead, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, db.TranslateError(err, "lead")
	}

	if input.Name != nil {
		lead.Name = strings.TrimSpace(*input.Name)
	}
	if input.City != nil {
		lead.City = trimmedPtr(input.City)
	}
	if input.Address != nil {
		lead.Address = trimmedPtr(input.Address)
	}
	if input.Source != nil {
		lead.Source = enums.LeadSource(strings.ToLower(strings.TrimSpace(*input.Source)))
	}
	if input.AssignedTo.Valid {
		lead.AssignedTo = input.AssignedTo.Value
	}
	if input.ProductID.Valid {
		lead.ProductID = input.ProductID.Value
	}
	if err := s.checkLead(ctx, validate.New(), lead, false); err != nil {
		return nil, err
	}

	updates := map[string]any{
		"name":        lead.Name,
		"city":        lead.City,
		"address":     lead.Address,
		"source":      lead.Source,
		"assigned_to": lead.AssignedTo,
		"product_id":  lead.ProductID,
	}
	if err := s.repo.Update(ctx, id, updates); err != nil {
		return nil, db.TranslateError(err, "lead")
	}
	return s.Get(ctx, id)
}

func (s *service) Transition(ctx context.Context, act actor.Actor, id uuid.UUID, input TransitionInput) (*LeadDTO, error) {
	if err := act.Require(actor.AreaLeads); err != nil {
		return nil, err
	}
	target, err := enums.ParseLeadStatus(strings.ToLower(strings.TrimSpace(input.Status)))
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid lead status").
			WithDetails(map[string]string{"status": "is not an allowed value"})
	}

	var lead *models.Lead
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		var err error
		lead, err = repo.FindForUpdate(ctx, id)
		if err != nil {
			return db.TranslateError(err, "lead")
		}
		return s.move(ctx, repo, act, lead, target, enums.LeadNoteKindStatusChange, noteText(input.Note))
	})
	if err != nil {
		return nil, err
	}
	dto := fromModel(lead)
	return &dto, nil
}

// move applies one funnel edge and writes the matching note in repo's
// transaction.
func (s *service) move(ctx context.Context, repo Repository, act actor.Actor, lead *models.Lead, target enums.LeadStatus, kind enums.LeadNoteKind, content string) error {
	from := lead.Status
	if kind != enums.LeadNoteKindReopen {
		if err := statemachine.Lead.Transition(from, target); err != nil {
			return err
		}
	}
	if err := repo.Update(ctx, lead.ID, map[string]any{"status": target}); err != nil {
		return db.TranslateError(err, "lead")
	}
	if content == "" {
		content = fmt.Sprintf("status changed from %s to %s", from, target)
	}
	note := &models.LeadNote{
		LeadID:     lead.ID,
		AuthorID:   act.Ref(),
		Kind:       kind,
		Content:    content,
		FromStatus: &from,
		ToStatus:   &target,
	}
	if err := repo.CreateNote(ctx, note); err != nil {
		return db.TranslateError(err, "lead note")
	}
	lead.Status = target
	s.transitioned(ctx, lead.ID, from, target)
	return nil
}

func (s *service) transitioned(ctx context.Context, id uuid.UUID, from, to enums.LeadStatus) {
	s.recorder.Transition("lead", string(from), string(to))
	ctx = s.logg.WithFields(s.logg.WithEntity(ctx, "lead", id.String()), map[string]any{"from": from, "to": to})
	s.logg.Info(ctx, "lead status changed")
}

func (s *service) Reopen(ctx context.Context, act actor.Actor, id uuid.UUID, input ReopenInput) (*LeadDTO, error) {
	if err := act.Require(actor.AreaLeads); err != nil {
		return nil, err
	}
	input.Reason = strings.TrimSpace(input.Reason)
	if err := validate.Struct(input); err != nil {
		return nil, err
	}

	var lead *models.Lead
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		var err error
		lead, err = repo.FindForUpdate(ctx, id)
		if err != nil {
			return db.TranslateError(err, "lead")
		}
		if !lead.Status.IsTerminal() {
			return pkgerrors.New(pkgerrors.CodeInvalidTransition, "lead: only won or lost leads can be reopened").
				WithDetails(map[string]any{"entity": "lead", "from": lead.Status, "to": enums.LeadStatusContacted})
		}
		return s.move(ctx, repo, act, lead, enums.LeadStatusContacted, enums.LeadNoteKindReopen, input.Reason)
	})
	if err != nil {
		return nil, err
	}
	dto := fromModel(lead)
	return &dto, nil
}

func (s *service) AddNote(ctx context.Context, act actor.Actor, id uuid.UUID, input NoteInput) (*HistoryEntry, error) {
	if err := act.Require(actor.AreaLeads); err != nil {
		return nil, err
	}
	input.Content = strings.TrimSpace(input.Content)
	if err := validate.Struct(input); err != nil {
		return nil, err
	}
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		return nil, db.TranslateError(err, "lead")
	}
	note := &models.LeadNote{LeadID: id, AuthorID: act.Ref(), Kind: enums.LeadNoteKindNote, Content: input.Content}
	if err := s.repo.CreateNote(ctx, note); err != nil {
		return nil, db.TranslateError(err, "lead note")
	}
	entry := noteEntry(note)
	return &entry, nil
}

func (s *service) LogCall(ctx context.Context, act actor.Actor, id uuid.UUID, input LogCallInput) (*CallResult, error) {
	if err := act.Require(actor.AreaLeads); err != nil {
		return nil, err
	}

	outcome := enums.CallOutcome(strings.ToLower(strings.TrimSpace(input.Outcome)))
	v := validate.New()
	v.Struct(input)
	v.Enum("outcome", outcome)
	if outcome == enums.CallOutcomeCallback {
		v.Check(input.CallbackAt != nil, "callback_at", "is required for a callback")
	} else if input.CallbackAt != nil {
		v.Add("callback_at", "is only allowed for a callback")
	}
	if err := v.Err(); err != nil {
		return nil, err
	}

	current, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, db.TranslateError(err, "lead")
	}
	if err := s.ensureNotBlacklisted(ctx, current.Phone); err != nil {
		return nil, err
	}

	var (
		lead *models.Lead
		call *models.CallNote
	)
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		var err error
		lead, err = repo.FindForUpdate(ctx, id)
		if err != nil {
			return db.TranslateError(err, "lead")
		}

		now := s.now().UTC()
		call = &models.CallNote{
			LeadID:          lead.ID,
			AgentID:         act.UserID,
			Outcome:         outcome,
			DurationSeconds: input.DurationSeconds,
			CallbackAt:      input.CallbackAt,
			Notes:           trimmedPtr(input.Notes),
		}
		updates := map[string]any{
			"call_attempts":     lead.CallAttempts + 1,
			"last_contacted_at": now,
		}
		from := lead.Status
		if target, moves := callTarget(outcome, from); moves {
			call.FromStatus = &from
			call.ToStatus = &target
			updates["status"] = target
		}
		if err := repo.Update(ctx, lead.ID, updates); err != nil {
			return db.TranslateError(err, "lead")
		}
		if err := repo.CreateCall(ctx, call); err != nil {
			return db.TranslateError(err, "call note")
		}

		lead.CallAttempts++
		lead.LastContactedAt = &now
		if call.ToStatus != nil {
			lead.Status = *call.ToStatus
			s.transitioned(ctx, lead.ID, from, lead.Status)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &CallResult{Call: callFromModel(call), Lead: fromModel(lead)}, nil
}

// History merges notes and calls oldest first.
func (s *service) History(ctx context.Context, id uuid.UUID) ([]HistoryEntry, error) {
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		return nil, db.TranslateError(err, "lead")
	}
	notes, err := s.repo.ListNotes(ctx, id)
	if err != nil {
		return nil, db.TranslateError(err, "lead note")
	}
	calls, err := s.repo.ListCalls(ctx, id)
	if err != nil {
		return nil, db.TranslateError(err, "call note")
	}

	entries := make([]HistoryEntry, 0, len(notes)+len(calls))
	for i := range notes {
		entries = append(entries, noteEntry(&notes[i]))
	}
	for i := range calls {
		c := calls[i]
		content := ""
		if c.Notes != nil {
			content = *c.Notes
		}
		agent := c.AgentID
		entries = append(entries, HistoryEntry{
			Type:       HistoryTypeCall,
			ID:         c.ID,
			ActorID:    &agent,
			Outcome:    c.Outcome,
			Content:    content,
			FromStatus: c.FromStatus,
			ToStatus:   c.ToStatus,
			At:         c.CreatedAt,
		})
	}
	sort.SliceStable(entries, func(i, j int) bool { return entries[i].At.Before(entries[j].At) })
	return entries, nil
}

func (s *service) MarkWonTx(ctx context.Context, tx *gorm.DB, act actor.Actor, id uuid.UUID, note string) error {
	repo := s.repo.WithTx(tx)
	lead, err := repo.FindForUpdate(ctx, id)
	if err != nil {
		return db.TranslateError(err, "lead")
	}
	if lead.Status != enums.LeadStatusConfirmed {
		return pkgerrors.New(pkgerrors.CodeInvalidData, "lead must be confirmed before it becomes an order").
			WithDetails(map[string]string{"lead_id": id.String(), "status": string(lead.Status)})
	}
	return s.move(ctx, repo, act, lead, enums.LeadStatusWon, enums.LeadNoteKindStatusChange, note)
}

func noteEntry(n *models.LeadNote) HistoryEntry {
	return HistoryEntry{
		Type:       HistoryTypeNote,
		ID:         n.ID,
		ActorID:    n.AuthorID,
		Kind:       n.Kind,
		Content:    n.Content,
		FromStatus: n.FromStatus,
		ToStatus:   n.ToStatus,
		At:         n.CreatedAt,
	}
}

func noteText(note *string) string {
	if note == nil {
		return ""
	}
	return strings.TrimSpace(*note)
}

func trimmedPtr(value *string) *string {
	if value == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*value)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
