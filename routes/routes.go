package routes

import (
	"gatepass/auth"
	"gatepass/events"
	"gatepass/media"
	"gatepass/middleware"
	"gatepass/profile"
	"gatepass/ratelim"
	"gatepass/tickets"

	"github.com/julienschmidt/httprouter"
)

func AddAuthRoutes(router *httprouter.Router) {
	router.POST("/api/auth/register", ratelim.RateLimit(auth.Register))
	router.POST("/api/auth/login", ratelim.RateLimit(auth.Login))
	router.POST("/api/auth/admin/login", ratelim.RateLimit(auth.AdminLogin))
	router.POST("/api/auth/logout", middleware.Authenticate(auth.Logout))
}

// Per-event operations live under the singular /api/event prefix so the
// static listing and suggestion paths never collide with the :eventid
// wildcard in the router tree.
func AddEventRoutes(router *httprouter.Router, h *events.Handler) {
	router.GET("/api/events", ratelim.RateLimit(h.GetEvents))
	router.GET("/api/events/suggestions", ratelim.RateLimit(h.Suggest))
	router.POST("/api/events", middleware.Authenticate(h.CreateEvent))
	router.GET("/api/event/:eventid", h.GetEvent)
	router.PUT("/api/event/:eventid", middleware.Authenticate(h.EditEvent))
	router.DELETE("/api/event/:eventid", middleware.Authenticate(h.DeleteEvent))
	router.POST("/api/event/:eventid/reviews", middleware.Authenticate(h.AddReview))
}

func AddTicketRoutes(router *httprouter.Router) {
	router.GET("/api/tickets/my-tickets", middleware.Authenticate(tickets.MyTickets))
	router.POST("/api/tickets/purchase", middleware.Authenticate(tickets.Purchase))
	router.PUT("/api/ticket/:id/confirm", middleware.Authenticate(tickets.Confirm))
	router.PUT("/api/ticket/:id/cancel", middleware.Authenticate(tickets.Cancel))
	router.PUT("/api/ticket/:id/check-in", middleware.Authenticate(middleware.RequireAdmin(tickets.CheckIn)))

	router.GET("/api/tickets", middleware.Authenticate(middleware.RequireAdmin(tickets.GetAllTickets)))
	router.GET("/api/tickets/user/:userid", middleware.Authenticate(middleware.RequireAdmin(tickets.GetUserTickets)))
	router.GET("/api/ticket/:id", middleware.Authenticate(middleware.RequireAdmin(tickets.GetTicket)))
	router.PATCH("/api/ticket/:id/status", middleware.Authenticate(middleware.RequireAdmin(tickets.UpdateStatus)))
}

func AddUserRoutes(router *httprouter.Router) {
	router.GET("/api/users/profile", middleware.Authenticate(profile.GetProfile))
	router.PUT("/api/users/profile", middleware.Authenticate(profile.EditProfile))
	router.PUT("/api/users/password", middleware.Authenticate(profile.UpdatePassword))
	router.GET("/api/users/interests", middleware.Authenticate(profile.GetInterests))
	router.POST("/api/users/interests", middleware.Authenticate(profile.SetInterests))
	router.GET("/api/users/locations", middleware.Authenticate(profile.GetLocations))
	router.POST("/api/users/locations", middleware.Authenticate(profile.SetLocations))

	router.GET("/api/users", middleware.Authenticate(middleware.RequireAdmin(profile.ListUsers)))
	router.GET("/api/user/:id", middleware.Authenticate(middleware.RequireAdmin(profile.GetUser)))
	router.PATCH("/api/user/:id/role", middleware.Authenticate(middleware.RequireAdmin(profile.UpdateRole)))
}

func AddUploadRoutes(router *httprouter.Router, m *media.Service) {
	router.POST("/api/upload", middleware.Authenticate(m.Upload))
}
