// Package settlement orchestrates the session lifecycle across the store,
// the daily aggregate, the user account, and the penalty pipeline. All
// mutations for a user are serialized through a striped lock table.
package settlement

import (
	"context"
	"hash/fnv"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/astralworks/starlog/internal/clock"
	serrors "github.com/astralworks/starlog/internal/errors"
	"github.com/astralworks/starlog/internal/metrics"
	"github.com/astralworks/starlog/internal/narrative"
	"github.com/astralworks/starlog/internal/notify"
	"github.com/astralworks/starlog/internal/penalty"
	"github.com/astralworks/starlog/internal/session"
	"github.com/astralworks/starlog/internal/store"
	"github.com/astralworks/starlog/internal/studyday"
	"github.com/astralworks/starlog/internal/tag"
)

// lockStripes bounds the lock table regardless of how many users the
// process ever sees; users hashing to the same stripe merely over-serialize.
const lockStripes = 64

// Service is the settlement facade.
type Service struct {
	store     *store.Store
	clock     clock.Clock
	narrative *narrative.Generator
	notifier  notify.Notifier
	metrics   *metrics.Metrics
	logger    zerolog.Logger

	locks [lockStripes]sync.Mutex
}

// New creates the settlement service. The active-session gauge is seeded
// from the store so sessions carried across a restart still count.
func New(st *store.Store, clk clock.Clock, gen *narrative.Generator, notifier notify.Notifier, m *metrics.Metrics, logger zerolog.Logger) *Service {
	s := &Service{
		store:     st,
		clock:     clk,
		narrative: gen,
		notifier:  notifier,
		metrics:   m,
		logger:    logger.With().Str("component", "settlement").Logger(),
	}

	if n, err := st.CountActiveSessions(); err != nil {
		s.logger.Warn().Err(err).Msg("could not seed active session gauge")
	} else {
		m.ActiveSessions.Set(float64(n))
	}

	return s
}

// userLock returns the stripe mutex serializing all mutations for one user.
// Sessions belong to exactly one user, so this also serializes per session.
func (s *Service) userLock(userID uuid.UUID) *sync.Mutex {
	h := fnv.New32a()
	h.Write(userID[:])
	return &s.locks[h.Sum32()%lockStripes]
}

// StartStudy opens a new session for the user. At most one session may be
// ACTIVE or PAUSED per user; a second start is rejected with ErrConflict.
func (s *Service) StartStudy(ctx context.Context, userID uuid.UUID, pledgeContent string, target time.Duration, tagIDs []uuid.UUID) (*session.Session, error) {
	l := s.userLock(userID)
	l.Lock()
	defer l.Unlock()

	now := s.clock.Now()

	if _, err := s.store.GetUser(userID); err != nil {
		return nil, err
	}

	running, err := s.store.ActiveSession(userID)
	if err != nil {
		return nil, err
	}
	if running != nil {
		return nil, serrors.NewInvalidState("start study", "session "+running.ID.String()+" running", "no running session")
	}

	tags, err := s.resolveTags(userID, tagIDs)
	if err != nil {
		return nil, err
	}

	pledge, err := session.NewPledge(pledgeContent, now)
	if err != nil {
		return nil, err
	}

	day, err := s.store.GetOrCreateStudyDay(userID, dateOf(now))
	if err != nil {
		return nil, err
	}

	sess, err := session.Start(userID, day.ID, pledge, target, tagIDs, now)
	if err != nil {
		return nil, err
	}

	if err := s.store.SaveSession(sess); err != nil {
		return nil, err
	}

	for _, t := range tags {
		t.IncrementUsage()
		if err := s.store.SaveTag(t); err != nil {
			s.logger.Warn().Err(err).Str("tag_id", t.ID.String()).Msg("tag usage update failed")
		}
	}

	s.metrics.ActiveSessions.Inc()
	s.emit(sess, 0)
	s.logger.Info().
		Str("session_id", sess.ID.String()).
		Str("user_id", userID.String()).
		Dur("target", target).
		Msg("session started")
	return sess, nil
}

// Pause suspends a running session for the given reason.
func (s *Service) Pause(ctx context.Context, sessionID uuid.UUID, reason session.Reason) (*session.Session, error) {
	sess, err := s.store.GetSession(sessionID)
	if err != nil {
		return nil, err
	}

	l := s.userLock(sess.UserID)
	l.Lock()
	defer l.Unlock()

	// Reload under the lock: another transition may have won the race.
	sess, err = s.store.GetSession(sessionID)
	if err != nil {
		return nil, err
	}

	if !reason.Valid() {
		return nil, serrors.NewValidation("reason", "unknown interruption reason")
	}

	if _, err := sess.Pause(reason, s.clock.Now()); err != nil {
		return nil, err
	}
	if err := s.store.SaveSession(sess); err != nil {
		return nil, err
	}

	s.emit(sess, 0)
	return sess, nil
}

// Resume ends the ongoing interruption and charges stamina for it.
func (s *Service) Resume(ctx context.Context, sessionID uuid.UUID) (*session.Session, error) {
	sess, err := s.store.GetSession(sessionID)
	if err != nil {
		return nil, err
	}

	l := s.userLock(sess.UserID)
	l.Lock()
	defer l.Unlock()

	sess, err = s.store.GetSession(sessionID)
	if err != nil {
		return nil, err
	}

	interruption, err := sess.Resume(s.clock.Now())
	if err != nil {
		return nil, err
	}
	if err := s.store.SaveSession(sess); err != nil {
		return nil, err
	}

	s.metrics.RecordStamina(string(interruption.Reason), float64(interruption.StaminaConsumed))
	s.emit(sess, 0)
	return sess, nil
}

// Complete ends a session normally, judges the bet, and settles the result.
func (s *Service) Complete(ctx context.Context, sessionID uuid.UUID) (session.Result, error) {
	sess, err := s.store.GetSession(sessionID)
	if err != nil {
		return session.Result{}, err
	}

	l := s.userLock(sess.UserID)
	l.Lock()
	defer l.Unlock()
	return s.finish(ctx, sessionID, (*session.Session).Complete)
}

// Abandon forfeits a session: the bet loses and experience halves.
func (s *Service) Abandon(ctx context.Context, sessionID uuid.UUID) (session.Result, error) {
	sess, err := s.store.GetSession(sessionID)
	if err != nil {
		return session.Result{}, err
	}

	l := s.userLock(sess.UserID)
	l.Lock()
	defer l.Unlock()
	return s.finish(ctx, sessionID, (*session.Session).Abandon)
}

// finish runs a terminal transition and settles it. Caller holds the user
// lock.
func (s *Service) finish(ctx context.Context, sessionID uuid.UUID, transition func(*session.Session, time.Time) (session.Result, error)) (session.Result, error) {
	sess, err := s.store.GetSession(sessionID)
	if err != nil {
		return session.Result{}, err
	}

	result, err := transition(sess, s.clock.Now())
	if err != nil {
		return session.Result{}, err
	}
	if err := s.store.SaveSession(sess); err != nil {
		return session.Result{}, err
	}

	if err := s.settle(ctx, sess, result); err != nil {
		return session.Result{}, err
	}

	s.metrics.ActiveSessions.Dec()
	s.metrics.RecordSessionFinished(string(sess.Status), result.ActualFocusTime.Seconds())
	s.metrics.RecordBet(string(result.BetResult))
	s.emit(sess, result.ActualFocusTime)
	s.logger.Info().
		Str("session_id", sess.ID.String()).
		Str("status", string(sess.Status)).
		Str("bet", string(result.BetResult)).
		Int("exp", result.TotalExp).
		Msg("session settled")
	return result, nil
}

// settle folds a terminal result into the study day, the user account, and
// (on a loss) the penalty pipeline. Narrative generation is best effort and
// never fails the settlement.
func (s *Service) settle(ctx context.Context, sess *session.Session, result session.Result) error {
	day, err := s.store.GetStudyDayByID(sess.StudyDayID)
	if err != nil {
		return err
	}

	tags, err := s.resolveTags(sess.UserID, sess.TagIDs)
	if err != nil {
		return err
	}
	colors := make([]string, 0, len(tags))
	for _, t := range tags {
		colors = append(colors, t.ColorHex)
	}

	day.AddSessionResult(result.BetResult, result.ActualFocusTime, colors)
	if err := s.store.SaveStudyDay(day); err != nil {
		return err
	}

	u, err := s.store.GetUser(sess.UserID)
	if err != nil {
		return err
	}
	u.GainExp(result.TotalExp)
	u.AddStudyMinutes(int64(result.ActualFocusTime.Minutes()))
	if err := s.store.SaveUser(u); err != nil {
		return err
	}

	if result.ShouldCreatePenalty() {
		pctx := penalty.ContextFromSession(sess, result)
		p := penalty.New(sess.UserID, sess.ID, sess.Bet.ID, pctx, s.clock.Now())
		p.SetContent(s.narrative.PenaltyContent(ctx, pctx))
		if err := s.store.CreatePenalty(p); err != nil {
			return err
		}
		s.metrics.PenaltiesCreated.Inc()
	}

	return nil
}

// FinalizeDay settles a user's calendar date: a still-running session is
// force-completed first, then the streak is frozen and the highlight built.
func (s *Service) FinalizeDay(ctx context.Context, userID uuid.UUID, date time.Time) (*studyday.StudyDay, error) {
	l := s.userLock(userID)
	l.Lock()
	defer l.Unlock()

	date = dateOf(date)

	running, err := s.store.ActiveSession(userID)
	if err != nil {
		return nil, err
	}
	if running != nil && dateOf(running.StartedAt) == date {
		if _, err := s.finish(ctx, running.ID, (*session.Session).Complete); err != nil {
			return nil, err
		}
	}

	day, err := s.store.GetStudyDay(userID, date)
	if err != nil {
		return nil, err
	}

	u, err := s.store.GetUser(userID)
	if err != nil {
		return nil, err
	}

	highlight, err := s.buildHighlight(ctx, day)
	if err != nil {
		return nil, err
	}

	continued := day.ContinuesStreak()
	u.RecordDayOutcome(continued)
	if err := day.Finalize(highlight, continued, u.CurrentStreak); err != nil {
		return nil, err
	}

	if err := s.store.SaveStudyDay(day); err != nil {
		return nil, err
	}
	if err := s.store.SaveUser(u); err != nil {
		return nil, err
	}

	s.metrics.RecordDayFinalized(string(day.StarType))
	s.logger.Info().
		Str("user_id", userID.String()).
		Str("date", date.Format("2006-01-02")).
		Str("star", string(day.StarType)).
		Int("streak", u.CurrentStreak).
		Msg("day finalized")
	return day, nil
}

// buildHighlight derives the day's MVP period and crisis events from its
// sessions and asks the narrative collaborator for a suggestion.
func (s *Service) buildHighlight(ctx context.Context, day *studyday.StudyDay) (*studyday.Highlight, error) {
	sessions, err := s.store.SessionsForDay(day.ID)
	if err != nil {
		return nil, err
	}

	var mvp *studyday.MvpPeriod
	var crises []studyday.CrisisEvent

	for _, sess := range sessions {
		longest := sess.Gauge.LongestContinuousFocus()
		if longest > 0 && (mvp == nil || longest > mvp.Duration) {
			mvp = &studyday.MvpPeriod{
				StartTime: sess.StartedAt,
				EndTime:   sess.StartedAt.Add(longest),
				Duration:  longest,
				SessionID: sess.ID,
			}
		}
		for _, i := range sess.Interruptions {
			if i.ResumedAt == nil {
				continue
			}
			crises = append(crises, studyday.CrisisEvent{
				StoppedAt: i.StoppedAt,
				ResumedAt: *i.ResumedAt,
				Reason:    i.Reason,
				SessionID: sess.ID,
			})
		}
	}

	suggestion := s.narrative.DaySuggestion(ctx, day.WinCount, day.LoseCount, int64(day.TotalFocusTime().Minutes()))

	return &studyday.Highlight{
		MvpPeriod:    mvp,
		CrisisEvents: crises,
		AISuggestion: suggestion,
	}, nil
}

// SweepStale force-abandons sessions stuck running past the staleness
// threshold. Returns the number of sessions swept.
func (s *Service) SweepStale(ctx context.Context, staleness time.Duration) (int, error) {
	ids, err := s.store.StaleSessionIDs(s.clock.Now().Add(-staleness))
	if err != nil {
		return 0, err
	}

	swept := 0
	for _, id := range ids {
		sess, err := s.store.GetSession(id)
		if err != nil {
			s.logger.Warn().Err(err).Str("session_id", id.String()).Msg("sweep load failed")
			continue
		}
		l := s.userLock(sess.UserID)
		l.Lock()
		_, err = s.finish(ctx, id, (*session.Session).Abandon)
		l.Unlock()
		if err != nil {
			s.logger.Warn().Err(err).Str("session_id", id.String()).Msg("sweep abandon failed")
			continue
		}
		s.metrics.SweptSessions.Inc()
		swept++
	}

	if swept > 0 {
		s.logger.Info().Int("count", swept).Msg("stale sessions swept")
	}
	return swept, nil
}

func (s *Service) resolveTags(userID uuid.UUID, tagIDs []uuid.UUID) ([]*tag.Tag, error) {
	tags, err := s.store.GetTags(tagIDs)
	if err != nil {
		return nil, err
	}
	for _, t := range tags {
		if t.UserID != userID {
			return nil, serrors.NewValidation("tagIds", "tag does not belong to user")
		}
	}
	return tags, nil
}

func (s *Service) emit(sess *session.Session, focus time.Duration) {
	s.notifier.NotifySessionEvent(notify.SessionEvent{
		SessionID:         sess.ID,
		UserID:            sess.UserID,
		Status:            string(sess.Status),
		Stamina:           sess.Stamina.Percentage(),
		FocusGauge:        sess.Gauge.Percentage(),
		TotalStudySeconds: int64(focus.Seconds()),
		Timestamp:         s.clock.Now(),
	})
}

// dateOf truncates a timestamp to its UTC calendar date.
func dateOf(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
