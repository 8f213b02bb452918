package webserver

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// setupRoutes configures all API routes
func (s *Server) setupRoutes() {
	s.router.GET("/health", s.healthCheck)

	v1 := s.router.Group("/api/v1")
	{
		v1.GET("/catalog", s.getCatalog)
		v1.GET("/cycles", s.getCycles)
		v1.GET("/meal-states", s.getMealStates)

		menus := v1.Group("/menu")
		{
			menus.GET("/day", s.getDayMenu)
			menus.GET("/week", s.getWeekMenu)
		}

		me := v1.Group("/me")
		me.Use(s.authMiddleware())
		{
			me.GET("/today", s.getToday)
			me.GET("/week", s.getMyWeek)
			me.GET("/preferences", s.getPreferences)
			me.PUT("/preferences", s.updatePreference)
			me.GET("/setup", s.getSetup)
			me.POST("/setup", s.completeSetup)
			me.DELETE("", s.deleteUser)
		}
	}

	s.router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, NewErrorResponse("Route not found"))
	})
}
