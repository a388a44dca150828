package api

import (
	"time"

	"github.com/google/uuid"

	"github.com/astralworks/starlog/internal/penalty"
	"github.com/astralworks/starlog/internal/session"
	"github.com/astralworks/starlog/internal/studyday"
	"github.com/astralworks/starlog/internal/tag"
	"github.com/astralworks/starlog/internal/user"
)

// CreateUserRequest is the body for POST /api/v1/users.
type CreateUserRequest struct {
	Nickname string `json:"nickname"`
	Email    string `json:"email"`
}

// UserResponse is the wire shape of a user account.
type UserResponse struct {
	ID                uuid.UUID `json:"id"`
	Nickname          string    `json:"nickname"`
	Email             string    `json:"email"`
	Level             int       `json:"level"`
	Experience        int64     `json:"experience"`
	RequiredExp       int64     `json:"required_exp"`
	CurrentStreak     int       `json:"current_streak"`
	LongestStreak     int       `json:"longest_streak"`
	TotalStudyMinutes int64     `json:"total_study_minutes"`
	CreatedAt         time.Time `json:"created_at"`
}

func toUserResponse(u *user.User) UserResponse {
	return UserResponse{
		ID:                u.ID,
		Nickname:          u.Nickname,
		Email:             u.Email,
		Level:             u.Level,
		Experience:        u.Experience,
		RequiredExp:       u.RequiredExp(),
		CurrentStreak:     u.CurrentStreak,
		LongestStreak:     u.LongestStreak,
		TotalStudyMinutes: u.TotalStudyMinutes,
		CreatedAt:         u.CreatedAt,
	}
}

// StartSessionRequest is the body for POST /api/v1/sessions.
type StartSessionRequest struct {
	UserID        uuid.UUID   `json:"user_id"`
	Pledge        string      `json:"pledge"`
	TargetMinutes int         `json:"target_minutes"`
	TagIDs        []uuid.UUID `json:"tag_ids,omitempty"`
}

// PauseSessionRequest is the body for POST /api/v1/sessions/:id/pause.
type PauseSessionRequest struct {
	Reason string `json:"reason"`
}

// InterruptionResponse is the wire shape of one pause/resume record.
type InterruptionResponse struct {
	ID              uuid.UUID  `json:"id"`
	Reason          string     `json:"reason"`
	StoppedAt       time.Time  `json:"stopped_at"`
	ResumedAt       *time.Time `json:"resumed_at,omitempty"`
	DurationSeconds int64      `json:"duration_seconds"`
	StaminaConsumed int        `json:"stamina_consumed"`
	StaminaAfter    int        `json:"stamina_after"`
}

// SessionResponse is the wire shape of a session.
type SessionResponse struct {
	ID             uuid.UUID              `json:"id"`
	UserID         uuid.UUID              `json:"user_id"`
	StudyDayID     uuid.UUID              `json:"study_day_id"`
	Pledge         string                 `json:"pledge"`
	TargetMinutes  int                    `json:"target_minutes"`
	Status         string                 `json:"status"`
	Stamina        int                    `json:"stamina"`
	FocusGauge     int                    `json:"focus_gauge"`
	BetResult      string                 `json:"bet_result"`
	FailReason     string                 `json:"fail_reason,omitempty"`
	StartedAt      time.Time              `json:"started_at"`
	EndedAt        *time.Time             `json:"ended_at,omitempty"`
	TagIDs         []uuid.UUID            `json:"tag_ids,omitempty"`
	Interruptions  []InterruptionResponse `json:"interruptions"`
}

func toSessionResponse(s *session.Session) SessionResponse {
	interruptions := make([]InterruptionResponse, 0, len(s.Interruptions)+1)
	for _, i := range s.Interruptions {
		interruptions = append(interruptions, toInterruptionResponse(i))
	}
	if ongoing := s.OngoingInterruption(); ongoing != nil {
		interruptions = append(interruptions, toInterruptionResponse(ongoing))
	}
	return SessionResponse{
		ID:            s.ID,
		UserID:        s.UserID,
		StudyDayID:    s.StudyDayID,
		Pledge:        s.Pledge.Content,
		TargetMinutes: int(s.TargetDuration.Minutes()),
		Status:        string(s.Status),
		Stamina:       s.Stamina.Percentage(),
		FocusGauge:    s.Gauge.Percentage(),
		BetResult:     string(s.Bet.Result),
		FailReason:    s.Bet.FailReason,
		StartedAt:     s.StartedAt,
		EndedAt:       s.EndedAt,
		TagIDs:        s.TagIDs,
		Interruptions: interruptions,
	}
}

func toInterruptionResponse(i *session.Interruption) InterruptionResponse {
	return InterruptionResponse{
		ID:              i.ID,
		Reason:          string(i.Reason),
		StoppedAt:       i.StoppedAt,
		ResumedAt:       i.ResumedAt,
		DurationSeconds: int64(i.Duration().Seconds()),
		StaminaConsumed: i.StaminaConsumed,
		StaminaAfter:    i.StaminaAfter,
	}
}

// ResultResponse is the wire shape of a settled session outcome.
type ResultResponse struct {
	SessionID           uuid.UUID `json:"session_id"`
	BetResult           string    `json:"bet_result"`
	ActualFocusMinutes  int       `json:"actual_focus_minutes"`
	FinalStaminaPercent int       `json:"final_stamina_percent"`
	FinalGaugePercent   int       `json:"final_gauge_percent"`
	TotalExp            int       `json:"total_exp"`
	ReceivedFocusBonus  bool      `json:"received_focus_bonus"`
}

func toResultResponse(r session.Result) ResultResponse {
	return ResultResponse{
		SessionID:           r.SessionID,
		BetResult:           string(r.BetResult),
		ActualFocusMinutes:  int(r.ActualFocusTime.Minutes()),
		FinalStaminaPercent: r.FinalStaminaPercent,
		FinalGaugePercent:   r.FinalGaugePercent,
		TotalExp:            r.TotalExp,
		ReceivedFocusBonus:  r.ReceivedFocusBonus,
	}
}

// StudyDayResponse is the wire shape of a daily aggregate.
type StudyDayResponse struct {
	ID                uuid.UUID           `json:"id"`
	UserID            uuid.UUID           `json:"user_id"`
	Date              string              `json:"date"`
	TotalFocusMinutes int                 `json:"total_focus_minutes"`
	TotalSessions     int                 `json:"total_sessions"`
	WinCount          int                 `json:"win_count"`
	LoseCount         int                 `json:"lose_count"`
	TagColors         []string            `json:"tag_colors"`
	StarType          string              `json:"star_type"`
	StreakContinued   bool                `json:"streak_continued"`
	CurrentStreak     int                 `json:"current_streak"`
	Finalized         bool                `json:"finalized"`
	Highlight         *studyday.Highlight `json:"highlight,omitempty"`
}

func toStudyDayResponse(d *studyday.StudyDay) StudyDayResponse {
	return StudyDayResponse{
		ID:                d.ID,
		UserID:            d.UserID,
		Date:              d.Date.Format("2006-01-02"),
		TotalFocusMinutes: int(d.TotalFocusTime().Minutes()),
		TotalSessions:     d.TotalSessions,
		WinCount:          d.WinCount,
		LoseCount:         d.LoseCount,
		TagColors:         d.TagColorSlice(),
		StarType:          string(d.StarType),
		StreakContinued:   d.StreakContinued,
		CurrentStreak:     d.CurrentStreak,
		Finalized:         d.Finalized(),
		Highlight:         d.Highlight,
	}
}

// CreateTagRequest is the body for POST /api/v1/tags.
type CreateTagRequest struct {
	UserID   uuid.UUID `json:"user_id"`
	Name     string    `json:"name"`
	ColorHex string    `json:"color_hex"`
}

// UpdateTagRequest is the body for PATCH /api/v1/tags/:id.
type UpdateTagRequest struct {
	Name     *string `json:"name,omitempty"`
	ColorHex *string `json:"color_hex,omitempty"`
}

// TagResponse is the wire shape of a tag.
type TagResponse struct {
	ID         uuid.UUID `json:"id"`
	UserID     uuid.UUID `json:"user_id"`
	Name       string    `json:"name"`
	ColorHex   string    `json:"color_hex"`
	UsageCount int64     `json:"usage_count"`
	CreatedAt  time.Time `json:"created_at"`
}

func toTagResponse(t *tag.Tag) TagResponse {
	return TagResponse{
		ID:         t.ID,
		UserID:     t.UserID,
		Name:       t.Name,
		ColorHex:   t.ColorHex,
		UsageCount: t.UsageCount,
		CreatedAt:  t.CreatedAt,
	}
}

// PenaltyResponse is the wire shape of a penalty record.
type PenaltyResponse struct {
	ID        uuid.UUID       `json:"id"`
	UserID    uuid.UUID       `json:"user_id"`
	SessionID uuid.UUID       `json:"session_id"`
	Type      string          `json:"type"`
	Content   string          `json:"content"`
	Context   penalty.Context `json:"context"`
	Archived  bool            `json:"archived"`
	Viewed    bool            `json:"viewed"`
	CreatedAt time.Time       `json:"created_at"`
}

func toPenaltyResponse(p *penalty.Penalty) PenaltyResponse {
	return PenaltyResponse{
		ID:        p.ID,
		UserID:    p.UserID,
		SessionID: p.SessionID,
		Type:      string(p.Type),
		Content:   p.Content,
		Context:   p.Context,
		Archived:  p.Archived,
		Viewed:    p.Viewed,
		CreatedAt: p.CreatedAt,
	}
}

// ProblemDetail follows RFC 7807 for error responses.
type ProblemDetail struct {
	Type     string `json:"type"`
	Title    string `json:"title"`
	Status   int    `json:"status"`
	Detail   string `json:"detail,omitempty"`
	Instance string `json:"instance,omitempty"`
}
