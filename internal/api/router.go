package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// NewRouter registers the trip routes. metrics is mounted at /metrics when
// not nil.
func NewRouter(h *Handler, metrics http.Handler, log zerolog.Logger) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), requestLogger(log.With().Str("component", "API").Logger()))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	if metrics != nil {
		router.GET("/metrics", gin.WrapH(metrics))
	}

	api := router.Group("/api")
	{
		api.GET("/state", h.GetState)
		api.PUT("/active-trip", h.SetActiveTrip)

		api.GET("/trips", h.ListTrips)
		api.POST("/trips", h.CreateTrip)
		api.GET("/trips/:id", h.GetTrip)
		api.PATCH("/trips/:id", h.UpdateTrip)
		api.DELETE("/trips/:id", h.DeleteTrip)
		api.GET("/trips/:id/balances", h.Balances)

		api.POST("/trips/:id/days", h.AddDay)
		api.PATCH("/trips/:id/days/:day", h.UpdateDay)
		api.DELETE("/trips/:id/days/:day", h.DeleteDay)

		api.POST("/trips/:id/days/:day/activities", h.AddActivity)
		api.PUT("/trips/:id/days/:day/activities/order", h.ReorderActivities)
		api.PATCH("/trips/:id/days/:day/activities/:activityId", h.UpdateActivity)
		api.DELETE("/trips/:id/days/:day/activities/:activityId", h.DeleteActivity)

		api.POST("/trips/:id/members", h.AddMember)
		api.PATCH("/trips/:id/members/:memberId", h.UpdateMember)
		api.DELETE("/trips/:id/members/:memberId", h.DeleteMember)

		api.POST("/trips/:id/bookings", h.AddBooking)
		api.PATCH("/trips/:id/bookings/:bookingId", h.UpdateBooking)
		api.DELETE("/trips/:id/bookings/:bookingId", h.DeleteBooking)

		api.POST("/trips/:id/expenses", h.AddExpense)
		api.PATCH("/trips/:id/expenses/:expenseId", h.UpdateExpense)
		api.DELETE("/trips/:id/expenses/:expenseId", h.DeleteExpense)

		api.GET("/trips/:id/plans", h.ListPlans)
		api.POST("/trips/:id/plans", h.AddPlanItem)
		api.PUT("/trips/:id/plans/order", h.ReorderPlans)
		api.PATCH("/trips/:id/plans/:itemId", h.UpdatePlanItem)
		api.DELETE("/trips/:id/plans/:itemId", h.DeletePlanItem)
	}
	return router
}

func requestLogger(log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.Debug().
			Str("method", c.Request.Method).
			Str("path", c.FullPath()).
			Int("status", c.Writer.Status()).
			Dur("latency", time.Since(start)).
			Msg("Request handled")
	}
}
