package webserver

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"digimess/internal/menu"
)

// UpdatePreferenceRequest picks a mess for one cycle.
type UpdatePreferenceRequest struct {
	Cycle    string        `json:"cycle" binding:"required"`
	Category menu.Category `json:"category" binding:"required"`
}

// SetupRequest finishes onboarding with a mess for the current cycle.
type SetupRequest struct {
	Category menu.Category `json:"category" binding:"required"`
}

func (s *Server) getToday(c *gin.Context) {
	view, err := s.app.TodaysMenu(c.Request.Context(), currentUser(c), menu.Category(c.Query("category")))
	if err != nil {
		s.respondPartial(c, err, view)
		return
	}
	c.JSON(http.StatusOK, NewSuccessResponse(view, ""))
}

func (s *Server) getMyWeek(c *gin.Context) {
	s.weekMenu(c, currentUser(c), menu.Category(c.Query("category")))
}

func (s *Server) getPreferences(c *gin.Context) {
	view, err := s.app.Preferences(c.Request.Context(), currentUser(c))
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, NewSuccessResponse(view, ""))
}

func (s *Server) updatePreference(c *gin.Context) {
	var req UpdatePreferenceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse("Invalid request data"))
		return
	}

	userID := currentUser(c)
	if err := s.app.SetPreference(c.Request.Context(), userID, req.Cycle, req.Category); err != nil {
		s.respondError(c, err)
		return
	}

	s.logger.WithFields(map[string]interface{}{
		"user_id":  userID,
		"cycle":    req.Cycle,
		"category": req.Category,
	}).Info("Preference updated")
	c.JSON(http.StatusOK, NewSuccessResponse(req, "Preference updated"))
}

func (s *Server) getSetup(c *gin.Context) {
	ctx := c.Request.Context()
	needs, err := s.app.NeedsSetup(ctx, currentUser(c))
	if err != nil {
		s.respondError(c, err)
		return
	}
	data := gin.H{"needs_setup": needs}
	if needs {
		cats, err := s.app.CategoriesOn(ctx)
		if err != nil {
			s.respondError(c, err)
			return
		}
		data["available_categories"] = cats
	}
	c.JSON(http.StatusOK, NewSuccessResponse(data, ""))
}

func (s *Server) completeSetup(c *gin.Context) {
	var req SetupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse("Invalid request data"))
		return
	}
	if err := s.app.CompleteSetup(c.Request.Context(), currentUser(c), req.Category); err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, NewSuccessResponse(req, "Setup complete"))
}

func (s *Server) deleteUser(c *gin.Context) {
	if err := s.app.ClearUserData(c.Request.Context(), currentUser(c)); err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, NewSuccessResponse(nil, "User data deleted"))
}
