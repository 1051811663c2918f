package http

import (
	"github.com/gin-gonic/gin"
)

// RegisterRoutes mounts /bookings. Reads are public; staffMiddleware must run after authMiddleware.
func RegisterRoutes(g *gin.RouterGroup, h *Handler, authMiddleware, staffMiddleware gin.HandlerFunc) {
	group := g.Group("/bookings")

	// === Public Routes ===
	group.GET("", h.List)    // Station schedule
	group.GET("/:id", h.Get) // Booking details

	// === Authenticated Routes ===
	authed := group.Group("", authMiddleware)
	{
		authed.POST("", h.Create) // Request a slot
	}

	// === Staff Routes ===
	staff := group.Group("", authMiddleware, staffMiddleware)
	{
		staff.PATCH("/:id", h.Update)  // Approve, reject or edit
		staff.DELETE("/:id", h.Delete) // Remove permanently
	}
}
