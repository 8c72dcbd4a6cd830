package quiz

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"

	"learnpath/internal/apperr"
	"learnpath/internal/logger"
	"learnpath/internal/models"
	"learnpath/internal/progression"
)

const (
	PerPage           = 10
	DefaultSessionTTL = 2 * time.Hour
)

// SessionStore keeps at most one live session per (user, progress).
type SessionStore interface {
	ReplaceSession(ctx context.Context, s *models.QuizSession) error
	GetSession(ctx context.Context, id string) (*models.QuizSession, error)
	DeleteSession(ctx context.Context, s *models.QuizSession) error
}

type ProgressSource interface {
	GetProgress(ctx context.Context, progressID uint) (*models.Progress, error)
}

type Gatekeeper interface {
	Evaluate(ctx context.Context, userID uint, progress *models.Progress) (*progression.Decision, error)
}

type ActivityRecorder interface {
	Record(ctx context.Context, out progression.Outcome) (*progression.Recorded, error)
}

type Service struct {
	repo     *Repository
	sampler  *Sampler
	progress ProgressSource
	gate     Gatekeeper
	recorder ActivityRecorder
	sessions SessionStore
	ttl      time.Duration
	now      func() time.Time
	log      *logger.Logger
}

func NewService(
	repo *Repository,
	progress ProgressSource,
	gate Gatekeeper,
	recorder ActivityRecorder,
	sessions SessionStore,
	ttl time.Duration,
	baseLog *logger.Logger,
) *Service {
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	return &Service{
		repo:     repo,
		sampler:  NewSampler(repo),
		progress: progress,
		gate:     gate,
		recorder: recorder,
		sessions: sessions,
		ttl:      ttl,
		now:      time.Now,
		log:      baseLog.With("service", "QuizSessionService"),
	}
}

// WithClock replaces the clock used to stamp new sessions.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

type StartRequest struct {
	Total int           `json:"total"`
	Parts []models.Part `json:"parts"`
}

type StartResult struct {
	SessionID string `json:"sessionId"`
	Total     int    `json:"total"`
}

// StartSession samples a fresh question set for the step's quiz and makes it
// the user's only session for that step. Nothing is stored when sampling
// fails.
func (s *Service) StartSession(ctx context.Context, userID, progressID uint, req StartRequest) (*StartResult, error) {
	quiz, err := s.repo.GetQuizByProgress(ctx, progressID)
	if err != nil {
		return nil, err
	}
	if err := ValidateParts(req.Parts, req.Total); err != nil {
		return nil, err
	}

	ids, err := s.sampler.Sample(ctx, quiz.ID, req.Parts, req.Total)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	session := &models.QuizSession{
		ID:          uuid.NewString(),
		UserID:      userID,
		ProgressID:  progressID,
		QuizID:      quiz.ID,
		QuestionIDs: ids,
		CreatedAt:   now,
		ExpiresAt:   now.Add(s.ttl),
	}
	if err := s.sessions.ReplaceSession(ctx, session); err != nil {
		return nil, fmt.Errorf("store session: %w", err)
	}

	s.log.Info("quiz session started",
		"user_id", userID, "progress_id", progressID, "session_id", session.ID, "total", len(ids))
	return &StartResult{SessionID: session.ID, Total: len(ids)}, nil
}

type PageResult struct {
	Page       int                  `json:"page"`
	PerPage    int                  `json:"perPage"`
	Total      int                  `json:"total"`
	TotalPages int                  `json:"totalPages"`
	Questions  []models.QuestionDTO `json:"questions"`
}

// GetPage returns one 1-based page of the session's questions, answers
// stripped, in session order.
func (s *Service) GetPage(ctx context.Context, userID, progressID uint, sessionID string, page int) (*PageResult, error) {
	if page < 1 {
		return nil, apperr.InvalidRequest("page must be 1 or greater")
	}
	session, err := s.ownedSession(ctx, userID, progressID, sessionID)
	if err != nil {
		return nil, err
	}

	total := len(session.QuestionIDs)
	res := &PageResult{
		Page:       page,
		PerPage:    PerPage,
		Total:      total,
		TotalPages: (total + PerPage - 1) / PerPage,
		Questions:  []models.QuestionDTO{},
	}

	// Compare page numbers before multiplying so huge pages cannot overflow.
	if page > res.TotalPages {
		return res, nil
	}
	start := (page - 1) * PerPage
	end := start + PerPage
	if end > total {
		end = total
	}

	questions, err := s.repo.GetQuestionsByIDs(ctx, session.QuestionIDs[start:end])
	if err != nil {
		return nil, fmt.Errorf("load page questions: %w", err)
	}
	for _, q := range questions {
		res.Questions = append(res.Questions, q.ToDTO())
	}
	return res, nil
}

type SubmittedAnswer struct {
	QuestionID uint            `json:"questionId"`
	Answer     json.RawMessage `json:"answer"`
}

type SubmitResult struct {
	Result
	BonusEarned      int                  `json:"bonusEarned"`
	NextStep         int                  `json:"nextStep"`
	AlreadyCompleted bool                 `json:"alreadyCompleted"`
	Abandoned        bool                 `json:"abandoned,omitempty"`
	Message          string               `json:"message"`
	Activity         *models.UserActivity `json:"activity,omitempty"`
}

// Submit grades a session and records the outcome. A nil answers slice
// abandons the session without grading. A step the gate rejects keeps its
// session so the learner can come back once the lock is lifted.
func (s *Service) Submit(ctx context.Context, userID, progressID uint, sessionID string, answers []SubmittedAnswer) (*SubmitResult, error) {
	session, err := s.ownedSession(ctx, userID, progressID, sessionID)
	if err != nil {
		return nil, err
	}

	if answers == nil {
		if err := s.sessions.DeleteSession(ctx, session); err != nil {
			return nil, fmt.Errorf("delete session: %w", err)
		}
		s.log.Info("quiz session abandoned", "user_id", userID, "session_id", session.ID)
		return &SubmitResult{Abandoned: true, Message: "Session abandoned"}, nil
	}

	progress, err := s.progress.GetProgress(ctx, progressID)
	if err != nil {
		return nil, err
	}

	decision, err := s.gate.Evaluate(ctx, userID, progress)
	if err != nil {
		return nil, err
	}
	if err := decision.Err(); err != nil {
		return nil, err
	}
	if decision.State == progression.StateCompleted {
		s.discard(ctx, session)
		return &SubmitResult{
			Result:           Result{Passed: true, PercentCorrect: float64(decision.Activity.Score)},
			NextStep:         progress.StepNumber + 1,
			AlreadyCompleted: true,
			Message:          "Step already completed",
			Activity:         decision.Activity,
		}, nil
	}

	questions, err := s.repo.GetQuestionsByIDs(ctx, session.QuestionIDs)
	if err != nil {
		return nil, fmt.Errorf("load session questions: %w", err)
	}
	byQuestion := make(map[uint]json.RawMessage, len(answers))
	for _, a := range answers {
		byQuestion[a.QuestionID] = a.Answer
	}
	result := Score(questions, byQuestion, len(session.QuestionIDs))

	rec, err := s.recorder.Record(ctx, progression.Outcome{
		UserID:    userID,
		Progress:  progress,
		Score:     int(math.Round(result.PercentCorrect)),
		Completed: result.Passed,
		Bonus:     progress.BonusPoints,
	})
	if err != nil {
		return nil, err
	}
	s.discard(ctx, session)

	s.log.Info("quiz session submitted",
		"user_id", userID, "progress_id", progressID, "session_id", session.ID,
		"correct", result.CorrectCount, "total", result.TotalQuestions, "passed", result.Passed)

	res := &SubmitResult{
		Result:           result,
		BonusEarned:      rec.BonusCredited,
		NextStep:         rec.NextStep,
		AlreadyCompleted: rec.AlreadyCompleted,
		Activity:         rec.Activity,
	}
	switch {
	case rec.AlreadyCompleted:
		res.Message = "Step already completed"
	case result.Passed:
		res.Message = "Quiz passed"
	default:
		res.Message = fmt.Sprintf("Quiz failed, %.0f%% required to pass", PassThreshold)
	}
	return res, nil
}

// ownedSession loads a session and hides every mismatch behind the same
// not-found error, so ids cannot be probed across users or steps.
func (s *Service) ownedSession(ctx context.Context, userID, progressID uint, sessionID string) (*models.QuizSession, error) {
	if sessionID == "" {
		return nil, apperr.NotFound("session")
	}
	session, err := s.sessions.GetSession(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}
	if session == nil || !session.OwnedBy(userID, progressID) || session.Expired(s.now()) {
		return nil, apperr.NotFound("session")
	}
	return session, nil
}

// discard deletes a session whose outcome is already settled. A failure only
// leaves a key for the TTL to reap.
func (s *Service) discard(ctx context.Context, session *models.QuizSession) {
	if err := s.sessions.DeleteSession(ctx, session); err != nil {
		s.log.Warn("delete session failed", "session_id", session.ID, "error", err)
	}
}
