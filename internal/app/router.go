// internal/app/router.go
package app

import (
	attendanceHandler "attendance-service/internal/handlers/attendance"
	authHandler "attendance-service/internal/handlers/auth"
	dashboardHandler "attendance-service/internal/handlers/dashboard"
	employeeHandler "attendance-service/internal/handlers/employee"
	wsHandler "attendance-service/internal/handlers/websocket"
	"attendance-service/internal/middleware"

	"github.com/gin-gonic/gin"
)

type Handlers struct {
	AuthHandler       *authHandler.AuthHandler
	EmployeeHandler   *employeeHandler.EmployeeHandler
	AttendanceHandler *attendanceHandler.AttendanceHandler
	DashboardHandler  *dashboardHandler.DashboardHandler
	WSHandler         *wsHandler.WebSocketHandler
	AuthMiddleware    *middleware.AuthMiddleware
}

func SetupRouter(r *gin.Engine, h *Handlers) {
	api := r.Group("/api/v1")

	// ==================== Health Check ====================
	api.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok", "version": "1.0.0"})
	})

	// ==================== WebSocket ====================
	r.GET("/ws", h.WSHandler.HandleConnection)

	// ==================== Public Auth Routes ====================
	authPublic := api.Group("/auth")
	{
		authPublic.POST("/login", h.AuthHandler.Login)
	}

	// ==================== Authenticated Auth Routes ====================
	authProtected := api.Group("/auth")
	authProtected.Use(h.AuthMiddleware.Auth())
	{
		authProtected.GET("/verify", h.AuthHandler.Verify)
		authProtected.GET("/me", h.AuthHandler.Me)
		authProtected.POST("/logout", h.AuthHandler.Logout)
		authProtected.POST("/logout-all", h.AuthHandler.LogoutAll)
		authProtected.PUT("/change-password", h.AuthHandler.ChangePassword)
	}

	// ==================== Admin Management (superadmin) ====================
	admins := api.Group("/admins")
	admins.Use(h.AuthMiddleware.SuperAdminOnly()...)
	{
		admins.POST("", h.AuthHandler.CreateAdmin)
		admins.GET("", h.AuthHandler.ListAdmins)
		admins.DELETE("/:id", h.AuthHandler.DeactivateAdmin)
	}

	// ==================== Employees ====================
	employees := api.Group("/employees")
	employees.Use(h.AuthMiddleware.AdminOnly()...)
	{
		employees.GET("", h.EmployeeHandler.List)
		employees.GET("/stats", h.EmployeeHandler.Stats)
		employees.GET("/:id", h.EmployeeHandler.Get)
		employees.GET("/code/:code", h.EmployeeHandler.GetByCode)
		employees.POST("", h.EmployeeHandler.Create)
		employees.PUT("/:id", h.EmployeeHandler.Update)
		employees.POST("/:id/fingerprint", h.EmployeeHandler.EnrollFingerprint)
		employees.PUT("/:id/activate", h.EmployeeHandler.Activate)
		employees.PUT("/:id/deactivate", h.EmployeeHandler.Deactivate)
		employees.DELETE("/:id", h.EmployeeHandler.Delete)

		// Per-employee attendance history
		employees.GET("/:id/attendance", h.AttendanceHandler.ListByEmployee)
	}

	// ==================== Attendance ====================
	attendance := api.Group("/attendance")
	attendance.Use(h.AuthMiddleware.AdminOnly()...)
	{
		attendance.POST("/mark", h.AttendanceHandler.Mark)
		attendance.POST("/bulk-mark", h.AttendanceHandler.BulkMark)
		attendance.GET("", h.AttendanceHandler.ListByDate)
	}

	// Record deletion rewrites history, so it stays superadmin-only
	attendanceAdmin := api.Group("/attendance")
	attendanceAdmin.Use(h.AuthMiddleware.SuperAdminOnly()...)
	{
		attendanceAdmin.DELETE("/:id", h.AttendanceHandler.Delete)
	}

	// ==================== Dashboards ====================
	dashboard := api.Group("/dashboard")
	dashboard.Use(h.AuthMiddleware.AdminOnly()...)
	{
		dashboard.GET("/day", h.DashboardHandler.Day)
		dashboard.GET("/month", h.DashboardHandler.Month)
		dashboard.GET("/departments", h.DashboardHandler.Departments)
	}

	// ==================== Ops ====================
	ops := api.Group("/ops")
	ops.Use(h.AuthMiddleware.SuperAdminOnly()...)
	{
		ops.GET("/ws-stats", h.WSHandler.Stats)
	}
}
