// internal/api/client_handler.go
package api

import (
	"alcyxob/coach-app/internal/domain"
	"alcyxob/coach-app/internal/service"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
)

// ClientHandler serves the client's program view and completion toggles.
type ClientHandler struct {
	assignmentService service.AssignmentService
	completionService service.CompletionService
	mediaService      service.MediaService
}

func NewClientHandler(
	assignmentService service.AssignmentService,
	completionService service.CompletionService,
	mediaService service.MediaService,
) *ClientHandler {
	return &ClientHandler{
		assignmentService: assignmentService,
		completionService: completionService,
		mediaService:      mediaService,
	}
}

// --- DTOs ---

// Completed is a pointer so an explicit false is distinguishable from a
// missing field.
type DayCompletionRequest struct {
	AssignmentID string `json:"assignmentId" binding:"required"`
	DayID        string `json:"dayId" binding:"required"`
	Completed    *bool  `json:"completed" binding:"required"`
}

// ItemCompletionRequest carries exactly one of programItemId and overrideId.
type ItemCompletionRequest struct {
	AssignmentID  string `json:"assignmentId" binding:"required"`
	ProgramItemID string `json:"programItemId"`
	OverrideID    string `json:"overrideId"`
	Completed     *bool  `json:"completed" binding:"required"`
}

// --- Handler Methods for Client ---

// GetMyProgram godoc
// @Summary Get my active program
// @Description The merged, dated view of the client's active assignment with completion state.
// @Tags Client
// @Produce json
// @Security BearerAuth
// @Failure 404 {object} gin.H "No active assignment"
// @Router /client/program [get]
func (h *ClientHandler) GetMyProgram(c *gin.Context) {
	clientID, ok := currentUserID(c)
	if !ok {
		return
	}
	view, err := h.assignmentService.GetClientView(c.Request.Context(), clientID)
	if err != nil {
		respondWithServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

// GetMyProgress godoc
// @Summary Completed days and items of one of my assignments
// @Tags Client
// @Router /client/assignments/{assignmentId}/progress [get]
func (h *ClientHandler) GetMyProgress(c *gin.Context) {
	clientID, ok := currentUserID(c)
	if !ok {
		return
	}
	assignmentID, ok := pathObjectID(c, "assignmentId")
	if !ok {
		return
	}
	progress, err := h.completionService.GetProgress(c.Request.Context(), clientID, assignmentID)
	if err != nil {
		respondWithServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, progress)
}

// GetItemMediaURL godoc
// @Summary Presigned download URL for an item's media
// @Tags Client
// @Router /client/items/{itemId}/media-url [get]
func (h *ClientHandler) GetItemMediaURL(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	itemID, ok := pathObjectID(c, "itemId")
	if !ok {
		return
	}
	url, err := h.mediaService.ItemDownloadURL(c.Request.Context(), userID, itemID)
	if err != nil {
		respondWithServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"url": url})
}

// SetDayCompletion godoc
// @Summary Mark a day of my assignment done or not done
// @Tags Client
// @Param body body DayCompletionRequest true "Completion toggle"
// @Success 200 {object} gin.H "{success: true}"
// @Router /client/completions/day [post]
func (h *ClientHandler) SetDayCompletion(c *gin.Context) {
	clientID, ok := currentUserID(c)
	if !ok {
		return
	}
	var req DayCompletionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}
	assignmentID, ok := parseObjectID(c, "assignmentId", req.AssignmentID)
	if !ok {
		return
	}
	dayID, ok := parseObjectID(c, "dayId", req.DayID)
	if !ok {
		return
	}

	if err := h.completionService.SetDayCompletion(c.Request.Context(), clientID, assignmentID, dayID, *req.Completed); err != nil {
		respondWithServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// SetItemCompletion godoc
// @Summary Mark an item of my assignment done or not done
// @Description Template items are addressed by programItemId (replaced items too); client-only items by overrideId.
// @Tags Client
// @Param body body ItemCompletionRequest true "Completion toggle"
// @Success 200 {object} gin.H "{success: true}"
// @Router /client/completions/item [post]
func (h *ClientHandler) SetItemCompletion(c *gin.Context) {
	clientID, ok := currentUserID(c)
	if !ok {
		return
	}
	var req ItemCompletionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}
	assignmentID, ok := parseObjectID(c, "assignmentId", req.AssignmentID)
	if !ok {
		return
	}
	target, ok := completionTarget(c, req)
	if !ok {
		return
	}

	if err := h.completionService.SetItemCompletion(c.Request.Context(), clientID, assignmentID, target, *req.Completed); err != nil {
		respondWithServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// completionTarget parses the optional ids; the service enforces that
// exactly one is set.
func completionTarget(c *gin.Context, req ItemCompletionRequest) (domain.CompletionTarget, bool) {
	var target domain.CompletionTarget
	var ok bool
	if target.ProgramItemID, ok = parseOptionalObjectID(c, "programItemId", req.ProgramItemID); !ok {
		return target, false
	}
	if target.OverrideID, ok = parseOptionalObjectID(c, "overrideId", req.OverrideID); !ok {
		return target, false
	}
	return target, true
}
