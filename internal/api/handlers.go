package api

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/astralworks/starlog/internal/clock"
	serrors "github.com/astralworks/starlog/internal/errors"
	"github.com/astralworks/starlog/internal/health"
	"github.com/astralworks/starlog/internal/session"
	"github.com/astralworks/starlog/internal/settlement"
	"github.com/astralworks/starlog/internal/store"
	"github.com/astralworks/starlog/internal/tag"
	"github.com/astralworks/starlog/internal/user"
)

// Handlers holds dependencies for HTTP handlers.
type Handlers struct {
	svc       *settlement.Service
	store     *store.Store
	checker   *health.Checker
	clock     clock.Clock
	logger    zerolog.Logger
	startTime time.Time
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(svc *settlement.Service, st *store.Store, checker *health.Checker, clk clock.Clock, logger zerolog.Logger) *Handlers {
	return &Handlers{
		svc:       svc,
		store:     st,
		checker:   checker,
		clock:     clk,
		logger:    logger.With().Str("component", "handlers").Logger(),
		startTime: time.Now(),
	}
}

// problemFromError maps the error taxonomy to problem-detail responses.
func problemFromError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, serrors.ErrNotFound):
		return problemResponse(c, fiber.StatusNotFound,
			"not_found", "Not Found", err.Error())
	case errors.Is(err, serrors.ErrInvalidInput):
		return problemResponse(c, fiber.StatusBadRequest,
			"invalid_input", "Bad Request", err.Error())
	case errors.Is(err, serrors.ErrConflict):
		return problemResponse(c, fiber.StatusConflict,
			"invalid_state", "Conflict", err.Error())
	default:
		return problemResponse(c, fiber.StatusInternalServerError,
			"internal_error", "Internal Server Error", "An internal error occurred")
	}
}

func parseIDParam(c *fiber.Ctx, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Params(name))
	if err != nil {
		return uuid.Nil, problemResponse(c, fiber.StatusBadRequest,
			"invalid_id", "Bad Request", "Invalid "+name+" parameter")
	}
	return id, nil
}

// CreateUser handles POST /api/v1/users.
func (h *Handlers) CreateUser(c *fiber.Ctx) error {
	var req CreateUserRequest
	if err := c.BodyParser(&req); err != nil {
		return problemResponse(c, fiber.StatusBadRequest,
			"invalid_body", "Bad Request", "Invalid request body: "+err.Error())
	}

	u, err := user.New(req.Nickname, req.Email, h.clock.Now())
	if err != nil {
		return problemFromError(c, err)
	}
	if err := h.store.CreateUser(u); err != nil {
		return problemFromError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(toUserResponse(u))
}

// GetUser handles GET /api/v1/users/:id.
func (h *Handlers) GetUser(c *fiber.Ctx) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return err
	}
	u, err := h.store.GetUser(id)
	if err != nil {
		return problemFromError(c, err)
	}
	return c.JSON(toUserResponse(u))
}

// StartSession handles POST /api/v1/sessions.
func (h *Handlers) StartSession(c *fiber.Ctx) error {
	var req StartSessionRequest
	if err := c.BodyParser(&req); err != nil {
		return problemResponse(c, fiber.StatusBadRequest,
			"invalid_body", "Bad Request", "Invalid request body: "+err.Error())
	}
	if req.UserID == uuid.Nil {
		return problemResponse(c, fiber.StatusBadRequest,
			"missing_user_id", "Bad Request", "user_id is required")
	}
	if authed := authedUserID(c); authed != uuid.Nil && authed != req.UserID {
		return problemResponse(c, fiber.StatusForbidden,
			"forbidden", "Forbidden", "Token subject does not match user_id")
	}

	sess, err := h.svc.StartStudy(c.Context(), req.UserID, req.Pledge,
		time.Duration(req.TargetMinutes)*time.Minute, req.TagIDs)
	if err != nil {
		return problemFromError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(toSessionResponse(sess))
}

// GetSession handles GET /api/v1/sessions/:id.
func (h *Handlers) GetSession(c *fiber.Ctx) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return err
	}
	sess, err := h.store.GetSession(id)
	if err != nil {
		return problemFromError(c, err)
	}
	return c.JSON(toSessionResponse(sess))
}

// PauseSession handles POST /api/v1/sessions/:id/pause.
func (h *Handlers) PauseSession(c *fiber.Ctx) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return err
	}

	var req PauseSessionRequest
	if err := c.BodyParser(&req); err != nil {
		return problemResponse(c, fiber.StatusBadRequest,
			"invalid_body", "Bad Request", "Invalid request body: "+err.Error())
	}
	reason, err := session.ParseReason(req.Reason)
	if err != nil {
		return problemFromError(c, err)
	}

	sess, err := h.svc.Pause(c.Context(), id, reason)
	if err != nil {
		return problemFromError(c, err)
	}
	return c.JSON(toSessionResponse(sess))
}

// ResumeSession handles POST /api/v1/sessions/:id/resume.
func (h *Handlers) ResumeSession(c *fiber.Ctx) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return err
	}
	sess, err := h.svc.Resume(c.Context(), id)
	if err != nil {
		return problemFromError(c, err)
	}
	return c.JSON(toSessionResponse(sess))
}

// CompleteSession handles POST /api/v1/sessions/:id/complete.
func (h *Handlers) CompleteSession(c *fiber.Ctx) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return err
	}
	result, err := h.svc.Complete(c.Context(), id)
	if err != nil {
		return problemFromError(c, err)
	}
	return c.JSON(toResultResponse(result))
}

// AbandonSession handles POST /api/v1/sessions/:id/abandon.
func (h *Handlers) AbandonSession(c *fiber.Ctx) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return err
	}
	result, err := h.svc.Abandon(c.Context(), id)
	if err != nil {
		return problemFromError(c, err)
	}
	return c.JSON(toResultResponse(result))
}

// GetStudyDay handles GET /api/v1/users/:id/days/:date.
func (h *Handlers) GetStudyDay(c *fiber.Ctx) error {
	userID, err := parseIDParam(c, "id")
	if err != nil {
		return err
	}
	date, err := time.ParseInLocation("2006-01-02", c.Params("date"), time.UTC)
	if err != nil {
		return problemResponse(c, fiber.StatusBadRequest,
			"invalid_date", "Bad Request", "Date must be YYYY-MM-DD")
	}

	day, err := h.store.GetStudyDay(userID, date)
	if err != nil {
		return problemFromError(c, err)
	}
	return c.JSON(toStudyDayResponse(day))
}

// ListStudyDays handles GET /api/v1/users/:id/days?from=&to=.
func (h *Handlers) ListStudyDays(c *fiber.Ctx) error {
	userID, err := parseIDParam(c, "id")
	if err != nil {
		return err
	}
	now := h.clock.Now()
	from, err := time.ParseInLocation("2006-01-02", c.Query("from", now.AddDate(0, 0, -30).Format("2006-01-02")), time.UTC)
	if err != nil {
		return problemResponse(c, fiber.StatusBadRequest,
			"invalid_date", "Bad Request", "from must be YYYY-MM-DD")
	}
	to, err := time.ParseInLocation("2006-01-02", c.Query("to", now.Format("2006-01-02")), time.UTC)
	if err != nil {
		return problemResponse(c, fiber.StatusBadRequest,
			"invalid_date", "Bad Request", "to must be YYYY-MM-DD")
	}

	days, err := h.store.ListStudyDays(userID, from, to)
	if err != nil {
		return problemFromError(c, err)
	}

	out := make([]StudyDayResponse, 0, len(days))
	for _, d := range days {
		out = append(out, toStudyDayResponse(d))
	}
	return c.JSON(fiber.Map{"days": out, "total": len(out)})
}

// FinalizeStudyDay handles POST /api/v1/users/:id/days/:date/finalize.
func (h *Handlers) FinalizeStudyDay(c *fiber.Ctx) error {
	userID, err := parseIDParam(c, "id")
	if err != nil {
		return err
	}
	date, err := time.ParseInLocation("2006-01-02", c.Params("date"), time.UTC)
	if err != nil {
		return problemResponse(c, fiber.StatusBadRequest,
			"invalid_date", "Bad Request", "Date must be YYYY-MM-DD")
	}

	day, err := h.svc.FinalizeDay(c.Context(), userID, date)
	if err != nil {
		return problemFromError(c, err)
	}
	return c.JSON(toStudyDayResponse(day))
}

// CreateTag handles POST /api/v1/tags.
func (h *Handlers) CreateTag(c *fiber.Ctx) error {
	var req CreateTagRequest
	if err := c.BodyParser(&req); err != nil {
		return problemResponse(c, fiber.StatusBadRequest,
			"invalid_body", "Bad Request", "Invalid request body: "+err.Error())
	}

	t, err := tag.New(req.UserID, req.Name, req.ColorHex, h.clock.Now())
	if err != nil {
		return problemFromError(c, err)
	}
	if err := h.store.CreateTag(t); err != nil {
		return problemFromError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(toTagResponse(t))
}

// ListTags handles GET /api/v1/users/:id/tags.
func (h *Handlers) ListTags(c *fiber.Ctx) error {
	userID, err := parseIDParam(c, "id")
	if err != nil {
		return err
	}
	tags, err := h.store.ListTags(userID)
	if err != nil {
		return problemFromError(c, err)
	}
	out := make([]TagResponse, 0, len(tags))
	for _, t := range tags {
		out = append(out, toTagResponse(t))
	}
	return c.JSON(fiber.Map{"tags": out, "total": len(out)})
}

// UpdateTag handles PATCH /api/v1/tags/:id.
func (h *Handlers) UpdateTag(c *fiber.Ctx) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return err
	}
	var req UpdateTagRequest
	if err := c.BodyParser(&req); err != nil {
		return problemResponse(c, fiber.StatusBadRequest,
			"invalid_body", "Bad Request", "Invalid request body: "+err.Error())
	}

	t, err := h.store.GetTag(id)
	if err != nil {
		return problemFromError(c, err)
	}
	if req.Name != nil {
		if err := t.Rename(*req.Name); err != nil {
			return problemFromError(c, err)
		}
	}
	if req.ColorHex != nil {
		if err := t.Recolor(*req.ColorHex); err != nil {
			return problemFromError(c, err)
		}
	}
	if err := h.store.SaveTag(t); err != nil {
		return problemFromError(c, err)
	}
	return c.JSON(toTagResponse(t))
}

// DeleteTag handles DELETE /api/v1/tags/:id.
func (h *Handlers) DeleteTag(c *fiber.Ctx) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return err
	}
	if err := h.store.DeleteTag(id); err != nil {
		return problemFromError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// ListPenalties handles GET /api/v1/users/:id/penalties.
func (h *Handlers) ListPenalties(c *fiber.Ctx) error {
	userID, err := parseIDParam(c, "id")
	if err != nil {
		return err
	}
	archivedOnly := c.QueryBool("archived", false)
	penalties, err := h.store.ListPenalties(userID, archivedOnly)
	if err != nil {
		return problemFromError(c, err)
	}
	out := make([]PenaltyResponse, 0, len(penalties))
	for _, p := range penalties {
		out = append(out, toPenaltyResponse(p))
	}
	return c.JSON(fiber.Map{"penalties": out, "total": len(out)})
}

// GetPenalty handles GET /api/v1/penalties/:id.
func (h *Handlers) GetPenalty(c *fiber.Ctx) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return err
	}
	p, err := h.store.GetPenalty(id)
	if err != nil {
		return problemFromError(c, err)
	}
	return c.JSON(toPenaltyResponse(p))
}

// ViewPenalty handles POST /api/v1/penalties/:id/view.
func (h *Handlers) ViewPenalty(c *fiber.Ctx) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return err
	}
	p, err := h.store.GetPenalty(id)
	if err != nil {
		return problemFromError(c, err)
	}
	p.MarkViewed()
	if err := h.store.SavePenalty(p); err != nil {
		return problemFromError(c, err)
	}
	return c.JSON(toPenaltyResponse(p))
}

// UnarchivePenalty handles POST /api/v1/penalties/:id/unarchive.
func (h *Handlers) UnarchivePenalty(c *fiber.Ctx) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return err
	}
	p, err := h.store.GetPenalty(id)
	if err != nil {
		return problemFromError(c, err)
	}
	p.Unarchive()
	if err := h.store.SavePenalty(p); err != nil {
		return problemFromError(c, err)
	}
	return c.JSON(toPenaltyResponse(p))
}

// HealthDetail handles GET /api/v1/health.
func (h *Handlers) HealthDetail(c *fiber.Ctx) error {
	results := h.checker.RunAll(c.Context())

	checks := make(map[string]string, len(results))
	overall := "ok"
	for name, status := range results {
		checks[name] = string(status)
		if status == health.StatusDown {
			overall = "degraded"
		}
	}

	return c.JSON(fiber.Map{
		"status": overall,
		"checks": checks,
		"uptime": time.Since(h.startTime).Round(time.Second).String(),
	})
}

// Liveness handles GET /healthz.
func (h *Handlers) Liveness(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "ok"})
}

// Readiness handles GET /readyz.
func (h *Handlers) Readiness(c *fiber.Ctx) error {
	ready := h.checker.IsReady(c.Context())
	if !ready {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"status": "not_ready",
		})
	}
	return c.JSON(fiber.Map{"status": "ready"})
}
