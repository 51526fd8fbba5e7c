package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/lovableswim/swim-api/internal/middleware"
	"github.com/lovableswim/swim-api/internal/models"
)

// Handlers groups every HTTP handler mounted under the API prefix.
type Handlers struct {
	Auth         *AuthHandler
	Users        *UserHandler
	ClassTypes   *ClassTypeHandler
	Packages     *PackageHandler
	Sessions     *SessionHandler
	Availability *AvailabilityHandler
	Purchases    *PurchaseHandler
	Progress     *ProgressHandler
	Settings     *SettingsHandler
	Dashboard    *DashboardHandler
	Booking      *BookingHandler
	Metrics      *MetricsHandler
}

// RouteGuards are the authentication and maintenance middlewares. Tests swap
// Auth and OptionalAuth for header-driven fakes.
type RouteGuards struct {
	Auth         gin.HandlerFunc
	OptionalAuth gin.HandlerFunc
	Maintenance  gin.HandlerFunc
}

func (g RouteGuards) with(first gin.HandlerFunc) []gin.HandlerFunc {
	chain := []gin.HandlerFunc{first}
	if g.Maintenance != nil {
		chain = append(chain, g.Maintenance)
	}
	return chain
}

// RegisterRoutes mounts the API on group.
func RegisterRoutes(api *gin.RouterGroup, h Handlers, guards RouteGuards) {
	admin := middleware.RequireRoles(models.RoleAdmin)
	staff := middleware.RequireRoles(models.RoleAdmin, models.RoleInstructor)
	client := middleware.RequireRoles(models.RoleClient)

	auth := api.Group("/auth")
	auth.POST("/signup", h.Auth.SignUp)
	auth.POST("/signin", h.Auth.SignIn)
	auth.POST("/signout", guards.Auth, h.Auth.SignOut)
	auth.GET("/me", guards.Auth, h.Auth.Me)

	public := api.Group("", guards.with(guards.OptionalAuth)...)
	public.GET("/class-types", h.ClassTypes.List)
	public.GET("/class-types/:id", h.ClassTypes.Get)
	public.GET("/packages", h.Packages.List)
	public.GET("/packages/:id", h.Packages.Get)
	public.GET("/sessions/upcoming", h.Sessions.Upcoming)
	public.GET("/skills", h.Progress.Skills)

	secured := api.Group("", guards.with(guards.Auth)...)

	users := secured.Group("/users")
	users.GET("", admin, h.Users.List)
	users.POST("", admin, h.Users.Create)
	users.GET("/:id", middleware.RBAC(string(models.RoleAdmin), string(models.RoleInstructor), middleware.RoleSelf), h.Users.Get)
	users.PUT("/:id", middleware.RBAC(string(models.RoleAdmin), middleware.RoleSelf), h.Users.Update)
	users.DELETE("/:id", admin, h.Users.Delete)

	classTypes := secured.Group("/class-types", admin)
	classTypes.POST("", h.ClassTypes.Create)
	classTypes.PUT("/:id", h.ClassTypes.Update)
	classTypes.DELETE("/:id", h.ClassTypes.Delete)

	packages := secured.Group("/packages")
	packages.POST("", admin, h.Packages.Create)
	packages.PUT("/:id", admin, h.Packages.Update)
	packages.DELETE("/:id", admin, h.Packages.Delete)
	packages.POST("/:id/purchase", h.Purchases.Purchase)

	sessions := secured.Group("/sessions")
	sessions.GET("", h.Sessions.List)
	sessions.GET("/:id", h.Sessions.Get)
	sessions.POST("", staff, h.Sessions.Create)
	sessions.PATCH("/:id/capacity", staff, h.Sessions.UpdateCapacity)
	sessions.DELETE("/:id", staff, h.Sessions.Delete)
	sessions.POST("/:id/enroll", h.Sessions.Enroll)
	sessions.DELETE("/:id/enroll", h.Sessions.CancelEnrollment)

	availability := secured.Group("/availability")
	availability.GET("", h.Availability.ListAvailability)
	availability.POST("", staff, h.Availability.CreateAvailability)
	availability.PUT("/:id", staff, h.Availability.UpdateAvailability)
	availability.DELETE("/:id", staff, h.Availability.DeleteAvailability)

	blockouts := secured.Group("/blockouts")
	blockouts.GET("", h.Availability.ListBlockouts)
	blockouts.POST("", staff, h.Availability.CreateBlockout)
	blockouts.PUT("/:id", staff, h.Availability.UpdateBlockout)
	blockouts.DELETE("/:id", staff, h.Availability.DeleteBlockout)

	secured.GET("/purchases", h.Purchases.List)
	reports := secured.Group("/reports")
	reports.GET("/financial", admin, h.Purchases.Summary)
	reports.GET("/purchases/export", h.Purchases.Export)

	secured.GET("/students/:id/progress", h.Progress.List)
	secured.PUT("/students/:id/progress", staff, h.Progress.Update)

	secured.GET("/settings", h.Settings.Get)
	secured.PUT("/settings", admin, h.Settings.Save)

	secured.GET("/dashboard/client", h.Dashboard.Client)
	secured.GET("/dashboard/instructor", staff, h.Dashboard.Instructor)

	bookings := secured.Group("/bookings", client)
	bookings.POST("", h.Booking.Start)
	bookings.GET("/:id", h.Booking.Get)
	bookings.POST("/:id/class", h.Booking.SelectClass)
	bookings.POST("/:id/session", h.Booking.SelectSession)
	bookings.POST("/:id/package", h.Booking.SelectPackage)
	bookings.POST("/:id/back", h.Booking.Back)
	bookings.POST("/:id/confirm", h.Booking.Confirm)
	bookings.DELETE("/:id", h.Booking.Cancel)

	secured.GET("/admin/metrics", admin, h.Metrics.Snapshot)
}
