package api

import (
	"alcyxob/coach-app/internal/domain"
	"alcyxob/coach-app/internal/service"
	"net/http"

	"github.com/gin-gonic/gin"
)

// Services bundles what the HTTP layer calls into.
type Services struct {
	Auth       service.AuthService
	Coach      service.CoachService
	Program    service.ProgramService
	Assignment service.AssignmentService
	Override   service.OverrideService
	Completion service.CompletionService
	Feed       service.FeedService
	Media      service.MediaService
}

func SetupRoutes(router *gin.Engine, jwtSecret string, svc Services) {
	authHandler := NewAuthHandler(svc.Auth)
	coachHandler := NewCoachHandler(svc.Coach, svc.Program, svc.Assignment, svc.Override, svc.Feed, svc.Media)
	clientHandler := NewClientHandler(svc.Assignment, svc.Completion, svc.Media)

	router.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})

	apiV1 := router.Group("/api/v1")
	{
		authGroup := apiV1.Group("/auth")
		{
			authGroup.POST("/register", authHandler.Register)
			authGroup.POST("/login", authHandler.Login)
		}
	}

	protected := apiV1.Group("")
	protected.Use(AuthMiddleware(jwtSecret))
	{
		protected.GET("/me", func(c *gin.Context) {
			userIDStr, err := getUserIDFromContext(c)
			if err != nil {
				abortWithError(c, http.StatusInternalServerError, "Failed to get user ID from token")
				return
			}
			role, _ := getUserRoleFromContext(c)
			c.JSON(http.StatusOK, gin.H{"userId": userIDStr, "role": role})
		})

		// --- Coach Routes ---
		coachGroup := protected.Group("/coach")
		coachGroup.Use(RoleMiddleware(domain.RoleCoach))
		{
			coachGroup.POST("/clients", coachHandler.AddClientByEmail)
			coachGroup.GET("/clients", coachHandler.GetManagedClients)

			// Templates
			coachGroup.POST("/programs", coachHandler.CreateProgram)
			coachGroup.GET("/programs", coachHandler.ListPrograms)
			coachGroup.GET("/programs/:programId", coachHandler.GetProgram)
			coachGroup.PUT("/programs/:programId", coachHandler.UpdateProgram)
			coachGroup.DELETE("/programs/:programId", coachHandler.DeleteProgram)
			coachGroup.PUT("/programs/:programId/days/:dayId", coachHandler.SetDayLabel)
			coachGroup.POST("/programs/:programId/days/:dayId/items", coachHandler.AddItem)
			coachGroup.PUT("/items/:itemId", coachHandler.UpdateItem)
			coachGroup.DELETE("/items/:itemId", coachHandler.DeleteItem)
			coachGroup.POST("/items/:itemId/upload-url", coachHandler.RequestItemUploadURL)
			coachGroup.DELETE("/items/:itemId/media", coachHandler.RemoveItemMedia)

			// Assignments
			coachGroup.POST("/programs/:programId/assignments", coachHandler.AssignProgram)
			coachGroup.GET("/programs/:programId/assignments", coachHandler.ListAssignments)
			coachGroup.POST("/assignments/:assignmentId/deactivate", coachHandler.DeactivateAssignment)
			coachGroup.GET("/assignments/:assignmentId/view", coachHandler.GetAssignmentView)
			coachGroup.GET("/assignments/:assignmentId/overrides", coachHandler.ListOverrides)

			// Overrides carry their ids in the body
			coachGroup.POST("/overrides", coachHandler.CreateOverride)
			coachGroup.PUT("/overrides", coachHandler.UpdateOverride)
			coachGroup.DELETE("/overrides", coachHandler.DeleteOverride)

			coachGroup.GET("/programs/:programId/activity", coachHandler.GetActivityFeed)
		}

		// --- Client Routes ---
		clientGroup := protected.Group("/client")
		clientGroup.Use(RoleMiddleware(domain.RoleClient))
		{
			clientGroup.GET("/program", clientHandler.GetMyProgram)
			clientGroup.GET("/assignments/:assignmentId/progress", clientHandler.GetMyProgress)
			clientGroup.POST("/completions/day", clientHandler.SetDayCompletion)
			clientGroup.POST("/completions/item", clientHandler.SetItemCompletion)
		}

		// Media downloads are open to the owning coach as well.
		protected.GET("/items/:itemId/media-url", clientHandler.GetItemMediaURL)
	}
}
