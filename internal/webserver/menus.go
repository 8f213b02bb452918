package webserver

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"digimess/internal/app"
	"digimess/internal/clock"
	"digimess/internal/mealtime"
	"digimess/internal/menu"
	"digimess/internal/metrics"
	"digimess/internal/resolver"
)

// statusFor maps application errors onto HTTP statuses.
func statusFor(err error) int {
	switch {
	case errors.Is(err, app.ErrInvalidDate):
		return http.StatusBadRequest
	case errors.Is(err, app.ErrUnknownCycle), errors.Is(err, resolver.ErrNoVersionForDate):
		return http.StatusNotFound
	case errors.Is(err, app.ErrMissingPreference), errors.Is(err, app.ErrCategoryUnavailable):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// respondError writes err with its status.
func (s *Server) respondError(c *gin.Context, err error) {
	s.respondPartial(c, err, nil)
}

// respondPartial is respondError carrying a partial day view, so clients
// can offer the available categories.
func (s *Server) respondPartial(c *gin.Context, err error, view *app.DayView) {
	status := statusFor(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		s.logger.WithError(err).WithField("path", c.Request.URL.Path).Error("Request failed")
		msg = "Internal server error"
	}
	resp := NewErrorResponse(msg)
	if view != nil {
		resp.Data = view
	}
	c.JSON(status, resp)
}

func (s *Server) healthCheck(c *gin.Context) {
	if s.db != nil {
		if err := s.db.PingContext(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, NewErrorResponse("Database unavailable"))
			return
		}
	}
	c.JSON(http.StatusOK, NewSuccessResponse(gin.H{
		"status":    "healthy",
		"timestamp": time.Now().UTC(),
		"system":    metrics.GetSysHealth(s.config.DataDir),
	}, "Service is healthy"))
}

type mealWindowResponse struct {
	Slot   menu.MealSlot `json:"slot"`
	Label  string        `json:"label"`
	Timing string        `json:"timing"`
}

func (s *Server) getCatalog(c *gin.Context) {
	catalog := s.app.Catalog()
	meals := make([]mealWindowResponse, 0, len(catalog.Meals))
	for _, w := range catalog.Meals {
		meals = append(meals, mealWindowResponse{Slot: w.Slot, Label: w.Label, Timing: w.Timing()})
	}
	c.JSON(http.StatusOK, NewSuccessResponse(gin.H{
		"categories": catalog.Categories,
		"meals":      meals,
		"weeks":      menu.Weeks,
	}, ""))
}

func (s *Server) getCycles(c *gin.Context) {
	cycles := s.app.Engine().Cycles()
	data := gin.H{
		"neighbors": cycles.Neighboring(s.app.Now()),
		"cycles":    cycles.All(),
	}
	if min, max, ok := cycles.DateRange(); ok {
		data["date_range"] = gin.H{"min": clock.DateKey(min), "max": clock.DateKey(max)}
	}
	c.JSON(http.StatusOK, NewSuccessResponse(data, ""))
}

func (s *Server) getMealStates(c *gin.Context) {
	now := s.app.Now()
	states := mealtime.States(now, s.app.Catalog().Meals)
	data := gin.H{"now": now.Format(time.RFC3339), "states": states}
	if slot, ok := mealtime.ActiveSlot(states); ok {
		data["active"] = slot
	}
	c.JSON(http.StatusOK, NewSuccessResponse(data, ""))
}

func (s *Server) getDayMenu(c *gin.Context) {
	category := menu.Category(c.Query("category"))
	if category == "" {
		c.JSON(http.StatusBadRequest, NewErrorResponse("category is required"))
		return
	}
	date, err := s.app.ParseDate(c.Query("date"))
	if err != nil {
		s.respondError(c, err)
		return
	}

	view, err := s.app.DayMenu(c.Request.Context(), "", date, category)
	if err != nil {
		s.respondPartial(c, err, view)
		return
	}
	c.JSON(http.StatusOK, NewSuccessResponse(view, ""))
}

func (s *Server) getWeekMenu(c *gin.Context) {
	category := menu.Category(c.Query("category"))
	if category == "" {
		c.JSON(http.StatusBadRequest, NewErrorResponse("category is required"))
		return
	}
	s.weekMenu(c, "", category)
}

// weekMenu serves a week for userID; an empty category falls back to the
// user's preference.
func (s *Server) weekMenu(c *gin.Context, userID string, category menu.Category) {
	date, err := s.app.ParseDate(c.Query("date"))
	if err != nil {
		s.respondError(c, err)
		return
	}
	var week menu.Week
	if raw := c.Query("week"); raw != "" {
		if week, err = menu.ParseWeek(raw); err != nil {
			c.JSON(http.StatusBadRequest, NewErrorResponse(err.Error()))
			return
		}
	}

	view, err := s.app.WeekMenu(c.Request.Context(), userID, date, category, week)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, NewSuccessResponse(view, ""))
}
