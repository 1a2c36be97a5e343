package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/Priyesh-Ghadge/PCCOER-HELP-DESK/internal/models"
	"github.com/Priyesh-Ghadge/PCCOER-HELP-DESK/internal/verify"
	appErrors "github.com/Priyesh-Ghadge/PCCOER-HELP-DESK/pkg/errors"
)

type sessionStore interface {
	Find(ctx context.Context, actorID string) (*models.VerificationSession, error)
	Save(ctx context.Context, session *models.VerificationSession) error
	Delete(ctx context.Context, actorID string) error
}

type studentDirectory interface {
	FindByPRN(ctx context.Context, prn string) (*models.StudentRecord, error)
	ListPRNs(ctx context.Context) ([]string, error)
}

type applicationCreator interface {
	Create(ctx context.Context, app *models.Application) error
}

type verificationMetrics interface {
	SessionStarted()
	SessionSubmitted()
	SessionCancelled()
}

// Prompt texts for the verification dialogue.
const (
	promptAskPRN         = "Please enter your 8-digit PRN Number:"
	promptReentryBlocked = "A bonafide application is already in progress. Finish it or cancel to start over."
	promptNoSession      = "No application in progress. Start a bonafide application first."
	promptMalformedPRN   = "Invalid PRN. Please enter your 8-digit PRN number (digits only) or cancel."
	promptPRNNotFound    = "Invalid PRN. That PRN is not found in our database. Please try again or cancel to exit."
	promptStoreError     = "Database error. Please try again later."
	promptAskPhone       = "Name verified. Please submit your 10-digit registered phone number."
	promptPhoneMismatch  = "Invalid input. Phone number does not match our records. Please try again or cancel."
	promptConfirm        = "All details verified.\nAre you sure you want to submit the application for a bonafide certificate?"
	promptSubmitted      = "Application submitted successfully. You will be notified when it is processed."
	promptSubmitFailed   = "An error occurred. Please try again later."
	promptCancelled      = "Operation cancelled."
	promptDeclined       = "Application cancelled."
)

// VerificationService is the per-actor conversation controller sequencing the
// identity verification steps. Events for one actor are processed strictly in
// order under a per-actor lock; different actors proceed concurrently. The
// repository Create is reachable only from the confirmation state and is
// invoked at most once per session lifetime.
type VerificationService struct {
	sessions     sessionStore
	students     studentDirectory
	applications applicationCreator
	metrics      verificationMetrics
	logger       *zap.Logger

	mu    sync.Mutex
	locks map[string]*actorLock
}

// actorLock is a reference-counted mutex. The count tracks in-flight events
// for the actor so the map entry can be dropped once the last one finishes.
type actorLock struct {
	sync.Mutex
	refs int
}

// NewVerificationService constructs a VerificationService.
func NewVerificationService(sessions sessionStore, students studentDirectory, applications applicationCreator, metrics verificationMetrics, logger *zap.Logger) *VerificationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &VerificationService{
		sessions:     sessions,
		students:     students,
		applications: applications,
		metrics:      metrics,
		logger:       logger,
		locks:        make(map[string]*actorLock),
	}
}

// HandleEvent processes one inbound transport event and returns the prompt to
// deliver back to the requester. Prompts are safe to redisplay.
func (s *VerificationService) HandleEvent(ctx context.Context, event models.Event) (*models.Prompt, error) {
	if event.ActorID == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "missing actor id")
	}

	lock := s.acquireActorLock(event.ActorID)
	defer s.releaseActorLock(event.ActorID, lock)

	session, err := s.sessions.Find(ctx, event.ActorID)
	if err != nil {
		s.logger.Error("session lookup failed", zap.String("actor_id", event.ActorID), zap.Error(err))
		return nil, appErrors.Wrap(err, appErrors.ErrStoreUnavailable.Code, appErrors.ErrStoreUnavailable.Status, appErrors.ErrStoreUnavailable.Message)
	}

	switch event.Type {
	case models.EventEntry:
		return s.handleEntry(ctx, session, event.ActorID)
	case models.EventCancel:
		return s.handleCancel(ctx, session, event.ActorID)
	case models.EventText:
		if session == nil {
			return &models.Prompt{Text: promptNoSession}, nil
		}
		return s.handleText(ctx, session, event.Value)
	case models.EventButton:
		if session == nil {
			return &models.Prompt{Text: promptNoSession}, nil
		}
		return s.handleButton(ctx, session, event.Value)
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, "unknown event type")
	}
}

func (s *VerificationService) handleEntry(ctx context.Context, session *models.VerificationSession, actorID string) (*models.Prompt, error) {
	// No re-entry: a live session must be finished or cancelled first.
	if session != nil && !session.State.Terminal() {
		return &models.Prompt{Text: promptReentryBlocked}, nil
	}

	now := time.Now().UTC()
	fresh := &models.VerificationSession{
		ActorID:      actorID,
		State:        models.StateAwaitingPRN,
		CreatedAt:    now,
		LastActivity: now,
	}
	if err := s.saveSession(ctx, fresh); err != nil {
		return nil, err
	}
	if s.metrics != nil {
		s.metrics.SessionStarted()
	}
	s.logger.Info("verification session started", zap.String("actor_id", actorID))
	return &models.Prompt{Text: promptAskPRN}, nil
}

func (s *VerificationService) handleCancel(ctx context.Context, session *models.VerificationSession, actorID string) (*models.Prompt, error) {
	if session != nil {
		if err := s.deleteSession(ctx, actorID); err != nil {
			return nil, err
		}
		if s.metrics != nil {
			s.metrics.SessionCancelled()
		}
		s.logger.Info("verification session cancelled", zap.String("actor_id", actorID), zap.String("state", string(session.State)))
	}
	return &models.Prompt{Text: promptCancelled}, nil
}

func (s *VerificationService) handleText(ctx context.Context, session *models.VerificationSession, value string) (*models.Prompt, error) {
	switch session.State {
	case models.StateAwaitingPRN:
		return s.handlePRNInput(ctx, session, value)
	case models.StateAwaitingName:
		return s.handleNameInput(ctx, session, value)
	case models.StateAwaitingPhone:
		return s.handlePhoneInput(ctx, session, value)
	case models.StateAwaitingConfirmation:
		// Confirmation needs a button press; redisplay the choices.
		return confirmationPrompt(), nil
	default:
		return &models.Prompt{Text: promptNoSession}, nil
	}
}

func (s *VerificationService) handlePRNInput(ctx context.Context, session *models.VerificationSession, raw string) (*models.Prompt, error) {
	prn, err := verify.NormalizePRN(raw)
	if err != nil {
		return &models.Prompt{Text: promptMalformedPRN}, nil
	}

	record, err := s.students.FindByPRN(ctx, prn)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			s.logMissedLookup(ctx, prn)
			return &models.Prompt{Text: promptPRNNotFound}, nil
		}
		// A store outage is not requester-correctable: abort the session
		// instead of prompting a retry.
		s.logger.Error("student directory lookup failed", zap.String("prn", prn), zap.Error(err))
		if delErr := s.deleteSession(ctx, session.ActorID); delErr != nil {
			return nil, delErr
		}
		if s.metrics != nil {
			s.metrics.SessionCancelled()
		}
		return &models.Prompt{Text: promptStoreError}, nil
	}

	session.PRN = prn
	session.Record = record
	session.State = models.StateAwaitingName
	if err := s.saveSession(ctx, session); err != nil {
		return nil, err
	}
	return &models.Prompt{Text: "PRN Verified for: " + record.FullName +
		"\n\nPlease enter your FULL NAME as per records in the format:\nSURNAME FIRST FATHER'S NAME"}, nil
}

func (s *VerificationService) handleNameInput(ctx context.Context, session *models.VerificationSession, raw string) (*models.Prompt, error) {
	if err := verify.MatchName(raw, session.Record); err != nil {
		appErr := appErrors.FromError(err)
		return &models.Prompt{Text: "Invalid input. " + appErr.Message + ". Please try again or cancel."}, nil
	}

	session.Name = strings.TrimSpace(raw)
	session.State = models.StateAwaitingPhone
	if err := s.saveSession(ctx, session); err != nil {
		return nil, err
	}
	return &models.Prompt{Text: promptAskPhone}, nil
}

func (s *VerificationService) handlePhoneInput(ctx context.Context, session *models.VerificationSession, raw string) (*models.Prompt, error) {
	if err := verify.MatchPhone(raw, session.Record); err != nil {
		return &models.Prompt{Text: promptPhoneMismatch}, nil
	}

	session.Phone = strings.TrimSpace(raw)
	session.State = models.StateAwaitingConfirmation
	if err := s.saveSession(ctx, session); err != nil {
		return nil, err
	}
	return confirmationPrompt(), nil
}

func (s *VerificationService) handleButton(ctx context.Context, session *models.VerificationSession, token string) (*models.Prompt, error) {
	if session.State != models.StateAwaitingConfirmation {
		return s.currentPrompt(session), nil
	}

	switch token {
	case models.ButtonConfirmYes:
		return s.submit(ctx, session)
	case models.ButtonConfirmNo:
		if err := s.deleteSession(ctx, session.ActorID); err != nil {
			return nil, err
		}
		if s.metrics != nil {
			s.metrics.SessionCancelled()
		}
		s.logger.Info("application declined at confirmation", zap.String("actor_id", session.ActorID))
		return &models.Prompt{Text: promptDeclined}, nil
	default:
		return confirmationPrompt(), nil
	}
}

// submit creates the application record. The session is removed regardless of
// the outcome, which makes the transition out of the confirmation state
// one-shot: Create is never retried automatically, the requester must
// re-initiate the whole flow after a failure.
func (s *VerificationService) submit(ctx context.Context, session *models.VerificationSession) (*models.Prompt, error) {
	app := &models.Application{
		PRN:         session.PRN,
		Name:        session.Name,
		Phone:       session.Phone,
		Batch:       session.Record.Batch,
		SubmittedAt: time.Now().UTC(),
	}

	createErr := s.applications.Create(ctx, app)

	if err := s.deleteSession(ctx, session.ActorID); err != nil {
		return nil, err
	}

	if createErr != nil {
		s.logger.Error("application create failed", zap.String("actor_id", session.ActorID), zap.String("prn", session.PRN), zap.Error(createErr))
		return &models.Prompt{Text: promptSubmitFailed}, nil
	}

	if s.metrics != nil {
		s.metrics.SessionSubmitted()
	}
	s.logger.Info("application submitted",
		zap.String("actor_id", session.ActorID),
		zap.String("application_id", app.ID),
		zap.String("prn", app.PRN),
	)
	return &models.Prompt{Text: promptSubmitted}, nil
}

// currentPrompt re-issues the prompt for the session's present state.
func (s *VerificationService) currentPrompt(session *models.VerificationSession) *models.Prompt {
	switch session.State {
	case models.StateAwaitingPRN:
		return &models.Prompt{Text: promptAskPRN}
	case models.StateAwaitingName:
		return &models.Prompt{Text: "Please enter your FULL NAME as per records."}
	case models.StateAwaitingPhone:
		return &models.Prompt{Text: promptAskPhone}
	case models.StateAwaitingConfirmation:
		return confirmationPrompt()
	default:
		return &models.Prompt{Text: promptNoSession}
	}
}

func (s *VerificationService) saveSession(ctx context.Context, session *models.VerificationSession) error {
	session.LastActivity = time.Now().UTC()
	if err := s.sessions.Save(ctx, session); err != nil {
		s.logger.Error("session save failed", zap.String("actor_id", session.ActorID), zap.Error(err))
		return appErrors.Wrap(err, appErrors.ErrStoreUnavailable.Code, appErrors.ErrStoreUnavailable.Status, appErrors.ErrStoreUnavailable.Message)
	}
	return nil
}

func (s *VerificationService) deleteSession(ctx context.Context, actorID string) error {
	if err := s.sessions.Delete(ctx, actorID); err != nil {
		s.logger.Error("session delete failed", zap.String("actor_id", actorID), zap.Error(err))
		return appErrors.Wrap(err, appErrors.ErrStoreUnavailable.Code, appErrors.ErrStoreUnavailable.Status, appErrors.ErrStoreUnavailable.Message)
	}
	return nil
}

// logMissedLookup logs the registered PRNs at debug level when a lookup
// misses. Diagnostic only; the requester just gets the retry prompt.
func (s *VerificationService) logMissedLookup(ctx context.Context, prn string) {
	if !s.logger.Core().Enabled(zap.DebugLevel) {
		return
	}
	prns, err := s.students.ListPRNs(ctx)
	if err != nil {
		s.logger.Debug("could not list directory prns", zap.Error(err))
		return
	}
	s.logger.Debug("prn not found in directory", zap.String("prn", prn), zap.Int("directory_size", len(prns)))
}

func (s *VerificationService) acquireActorLock(actorID string) *actorLock {
	s.mu.Lock()
	lock, ok := s.locks[actorID]
	if !ok {
		lock = &actorLock{}
		s.locks[actorID] = lock
	}
	lock.refs++
	s.mu.Unlock()

	lock.Lock()
	return lock
}

func (s *VerificationService) releaseActorLock(actorID string, lock *actorLock) {
	lock.Unlock()

	s.mu.Lock()
	lock.refs--
	if lock.refs == 0 {
		delete(s.locks, actorID)
	}
	s.mu.Unlock()
}

func confirmationPrompt() *models.Prompt {
	return &models.Prompt{
		Text: promptConfirm,
		Choices: []models.Choice{
			{Label: "Yes, Submit", Token: models.ButtonConfirmYes},
			{Label: "No, Cancel", Token: models.ButtonConfirmNo},
		},
	}
}
