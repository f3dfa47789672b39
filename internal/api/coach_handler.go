// internal/api/coach_handler.go
package api

import (
	"alcyxob/coach-app/internal/domain"
	"alcyxob/coach-app/internal/service"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
)

// CoachHandler serves the coach-facing authoring and monitoring endpoints.
type CoachHandler struct {
	coachService      service.CoachService
	programService    service.ProgramService
	assignmentService service.AssignmentService
	overrideService   service.OverrideService
	feedService       service.FeedService
	mediaService      service.MediaService
}

func NewCoachHandler(
	coachService service.CoachService,
	programService service.ProgramService,
	assignmentService service.AssignmentService,
	overrideService service.OverrideService,
	feedService service.FeedService,
	mediaService service.MediaService,
) *CoachHandler {
	return &CoachHandler{
		coachService:      coachService,
		programService:    programService,
		assignmentService: assignmentService,
		overrideService:   overrideService,
		feedService:       feedService,
		mediaService:      mediaService,
	}
}

// --- DTOs ---

type AddClientRequest struct {
	ClientEmail string `json:"clientEmail" binding:"required,email"`
}

type CreateProgramRequest struct {
	Name          string         `json:"name" binding:"required"`
	Description   string         `json:"description"`
	DurationWeeks int            `json:"durationWeeks" binding:"required,min=1,max=52"`
	Color         string         `json:"color"`
	StartWeekday  domain.Weekday `json:"startWeekday"`
}

type UpdateProgramRequest struct {
	Name          *string         `json:"name"`
	Description   *string         `json:"description"`
	DurationWeeks *int            `json:"durationWeeks" binding:"omitempty,min=1,max=52"`
	Color         *string         `json:"color"`
	StartWeekday  *domain.Weekday `json:"startWeekday"`
}

type SetDayLabelRequest struct {
	Label string `json:"label"`
}

type CreateItemRequest struct {
	Type      domain.ItemType `json:"type" binding:"required"`
	Title     string          `json:"title" binding:"required"`
	Content   domain.Content  `json:"content"`
	SortOrder *int            `json:"sortOrder"`
}

type UpdateItemRequest struct {
	Type      *domain.ItemType `json:"type"`
	Title     *string          `json:"title"`
	Content   domain.Content   `json:"content"`
	SortOrder *int             `json:"sortOrder"`
}

type UploadURLRequest struct {
	ContentType string `json:"contentType" binding:"required"`
}

type AssignProgramRequest struct {
	ClientID  string `json:"clientId" binding:"required"`
	StartDate string `json:"startDate"` // YYYY-MM-DD or RFC3339; empty means today
}

type CreateOverrideRequest struct {
	AssignmentID string                `json:"assignmentId" binding:"required"`
	DayID        string                `json:"dayId" binding:"required"`
	Action       domain.OverrideAction `json:"action" binding:"required"`
	SourceItemID string                `json:"sourceItemId"`
	Type         domain.ItemType       `json:"type"`
	Title        string                `json:"title"`
	Content      domain.Content        `json:"content"`
	SortOrder    *int                  `json:"sortOrder"`
}

type UpdateOverrideRequest struct {
	OverrideID string           `json:"overrideId" binding:"required"`
	Type       *domain.ItemType `json:"type"`
	Title      *string          `json:"title"`
	Content    domain.Content   `json:"content"`
	SortOrder  *int             `json:"sortOrder"`
}

type DeleteOverrideRequest struct {
	OverrideID string `json:"overrideId" binding:"required"`
}

// --- Clients ---

// AddClientByEmail godoc
// @Summary Link an existing client to the authenticated coach
// @Tags Coach
// @Router /coach/clients [post]
func (h *CoachHandler) AddClientByEmail(c *gin.Context) {
	coachID, ok := currentUserID(c)
	if !ok {
		return
	}
	var req AddClientRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}

	client, err := h.coachService.AddClientByEmail(c.Request.Context(), coachID, req.ClientEmail)
	if err != nil {
		respondWithServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, MapUserToResponse(client))
}

// GetManagedClients godoc
// @Summary List the authenticated coach's clients
// @Tags Coach
// @Router /coach/clients [get]
func (h *CoachHandler) GetManagedClients(c *gin.Context) {
	coachID, ok := currentUserID(c)
	if !ok {
		return
	}
	clients, err := h.coachService.GetManagedClients(c.Request.Context(), coachID)
	if err != nil {
		respondWithServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, MapUsersToResponse(clients))
}

// --- Programs ---

func (h *CoachHandler) CreateProgram(c *gin.Context) {
	coachID, ok := currentUserID(c)
	if !ok {
		return
	}
	var req CreateProgramRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}

	detail, err := h.programService.CreateProgram(c.Request.Context(), coachID, service.ProgramInput{
		Name:          req.Name,
		Description:   req.Description,
		DurationWeeks: req.DurationWeeks,
		Color:         req.Color,
		StartWeekday:  req.StartWeekday,
	})
	if err != nil {
		respondWithServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, detail)
}

func (h *CoachHandler) ListPrograms(c *gin.Context) {
	coachID, ok := currentUserID(c)
	if !ok {
		return
	}
	programs, err := h.programService.ListPrograms(c.Request.Context(), coachID)
	if err != nil {
		respondWithServiceError(c, err)
		return
	}
	if programs == nil {
		programs = []domain.Program{}
	}
	c.JSON(http.StatusOK, programs)
}

func (h *CoachHandler) GetProgram(c *gin.Context) {
	coachID, ok := currentUserID(c)
	if !ok {
		return
	}
	programID, ok := pathObjectID(c, "programId")
	if !ok {
		return
	}
	detail, err := h.programService.GetProgram(c.Request.Context(), coachID, programID)
	if err != nil {
		respondWithServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, detail)
}

func (h *CoachHandler) UpdateProgram(c *gin.Context) {
	coachID, ok := currentUserID(c)
	if !ok {
		return
	}
	programID, ok := pathObjectID(c, "programId")
	if !ok {
		return
	}
	var req UpdateProgramRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}

	program, err := h.programService.UpdateProgram(c.Request.Context(), coachID, programID, service.ProgramUpdate{
		Name:          req.Name,
		Description:   req.Description,
		DurationWeeks: req.DurationWeeks,
		Color:         req.Color,
		StartWeekday:  req.StartWeekday,
	})
	if err != nil {
		respondWithServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, program)
}

// DeleteProgram godoc
// @Summary Delete a program
// @Description Refused with 409 and the active assignment count unless force=true.
// @Tags Coach
// @Param force query bool false "Cascade through active assignments"
// @Router /coach/programs/{programId} [delete]
func (h *CoachHandler) DeleteProgram(c *gin.Context) {
	coachID, ok := currentUserID(c)
	if !ok {
		return
	}
	programID, ok := pathObjectID(c, "programId")
	if !ok {
		return
	}
	force := false
	if raw := c.Query("force"); raw != "" {
		parsed, err := strconv.ParseBool(raw)
		if err != nil {
			abortWithError(c, http.StatusBadRequest, "Invalid force flag.")
			return
		}
		force = parsed
	}

	if err := h.programService.DeleteProgram(c.Request.Context(), coachID, programID, force); err != nil {
		respondWithServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (h *CoachHandler) SetDayLabel(c *gin.Context) {
	coachID, ok := currentUserID(c)
	if !ok {
		return
	}
	programID, ok := pathObjectID(c, "programId")
	if !ok {
		return
	}
	dayID, ok := pathObjectID(c, "dayId")
	if !ok {
		return
	}
	var req SetDayLabelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}

	day, err := h.programService.SetDayLabel(c.Request.Context(), coachID, programID, dayID, req.Label)
	if err != nil {
		respondWithServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, day)
}

// --- Items ---

func (h *CoachHandler) AddItem(c *gin.Context) {
	coachID, ok := currentUserID(c)
	if !ok {
		return
	}
	programID, ok := pathObjectID(c, "programId")
	if !ok {
		return
	}
	dayID, ok := pathObjectID(c, "dayId")
	if !ok {
		return
	}
	var req CreateItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}

	item, err := h.programService.AddItem(c.Request.Context(), coachID, programID, dayID, service.ItemInput{
		Type:      req.Type,
		Title:     req.Title,
		Content:   req.Content,
		SortOrder: req.SortOrder,
	})
	if err != nil {
		respondWithServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, item)
}

func (h *CoachHandler) UpdateItem(c *gin.Context) {
	coachID, ok := currentUserID(c)
	if !ok {
		return
	}
	itemID, ok := pathObjectID(c, "itemId")
	if !ok {
		return
	}
	var req UpdateItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}

	item, err := h.programService.UpdateItem(c.Request.Context(), coachID, itemID, service.ItemUpdate{
		Type:      req.Type,
		Title:     req.Title,
		Content:   req.Content,
		SortOrder: req.SortOrder,
	})
	if err != nil {
		respondWithServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, item)
}

func (h *CoachHandler) DeleteItem(c *gin.Context) {
	coachID, ok := currentUserID(c)
	if !ok {
		return
	}
	itemID, ok := pathObjectID(c, "itemId")
	if !ok {
		return
	}
	if err := h.programService.DeleteItem(c.Request.Context(), coachID, itemID); err != nil {
		respondWithServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// RequestItemUploadURL godoc
// @Summary Get a presigned upload URL for an item's media
// @Description The returned objectKey is stored on the item's content once the upload succeeds.
// @Tags Coach
// @Router /coach/items/{itemId}/upload-url [post]
func (h *CoachHandler) RequestItemUploadURL(c *gin.Context) {
	coachID, ok := currentUserID(c)
	if !ok {
		return
	}
	itemID, ok := pathObjectID(c, "itemId")
	if !ok {
		return
	}
	var req UploadURLRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}

	ticket, err := h.mediaService.RequestItemUploadURL(c.Request.Context(), coachID, itemID, req.ContentType)
	if err != nil {
		respondWithServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, ticket)
}

func (h *CoachHandler) RemoveItemMedia(c *gin.Context) {
	coachID, ok := currentUserID(c)
	if !ok {
		return
	}
	itemID, ok := pathObjectID(c, "itemId")
	if !ok {
		return
	}
	item, err := h.mediaService.RemoveItemMedia(c.Request.Context(), coachID, itemID)
	if err != nil {
		respondWithServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, item)
}

// --- Assignments ---

func (h *CoachHandler) AssignProgram(c *gin.Context) {
	coachID, ok := currentUserID(c)
	if !ok {
		return
	}
	programID, ok := pathObjectID(c, "programId")
	if !ok {
		return
	}
	var req AssignProgramRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}
	clientID, ok := parseObjectID(c, "clientId", req.ClientID)
	if !ok {
		return
	}
	startDate, err := parseStartDate(req.StartDate)
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid startDate, expected YYYY-MM-DD.")
		return
	}

	cp, err := h.assignmentService.AssignProgram(c.Request.Context(), coachID, programID, clientID, startDate)
	if err != nil {
		respondWithServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, cp)
}

func parseStartDate(raw string) (time.Time, error) {
	if raw == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse("2006-01-02", raw); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, raw)
}

func (h *CoachHandler) ListAssignments(c *gin.Context) {
	coachID, ok := currentUserID(c)
	if !ok {
		return
	}
	programID, ok := pathObjectID(c, "programId")
	if !ok {
		return
	}
	assignments, err := h.assignmentService.ListAssignments(c.Request.Context(), coachID, programID)
	if err != nil {
		respondWithServiceError(c, err)
		return
	}
	if assignments == nil {
		assignments = []domain.ClientProgram{}
	}
	c.JSON(http.StatusOK, assignments)
}

func (h *CoachHandler) DeactivateAssignment(c *gin.Context) {
	coachID, ok := currentUserID(c)
	if !ok {
		return
	}
	assignmentID, ok := pathObjectID(c, "assignmentId")
	if !ok {
		return
	}
	cp, err := h.assignmentService.DeactivateAssignment(c.Request.Context(), coachID, assignmentID)
	if err != nil {
		respondWithServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, cp)
}

// GetAssignmentView godoc
// @Summary Render an assignment's merged program for the coach
// @Tags Coach
// @Param includeHidden query bool false "Keep hidden template items, flagged isHidden"
// @Router /coach/assignments/{assignmentId}/view [get]
func (h *CoachHandler) GetAssignmentView(c *gin.Context) {
	coachID, ok := currentUserID(c)
	if !ok {
		return
	}
	assignmentID, ok := pathObjectID(c, "assignmentId")
	if !ok {
		return
	}
	includeHidden, _ := strconv.ParseBool(c.Query("includeHidden"))

	view, err := h.assignmentService.GetCoachView(c.Request.Context(), coachID, assignmentID, includeHidden)
	if err != nil {
		respondWithServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

// --- Overrides ---

func (h *CoachHandler) ListOverrides(c *gin.Context) {
	coachID, ok := currentUserID(c)
	if !ok {
		return
	}
	assignmentID, ok := pathObjectID(c, "assignmentId")
	if !ok {
		return
	}
	overrides, err := h.overrideService.List(c.Request.Context(), coachID, assignmentID)
	if err != nil {
		respondWithServiceError(c, err)
		return
	}
	if overrides == nil {
		overrides = []domain.ProgramItemOverride{}
	}
	c.JSON(http.StatusOK, overrides)
}

// CreateOverride godoc
// @Summary Customize one day of an assignment
// @Description action=add needs type and title; replace and hide need sourceItemId.
// @Tags Coach
// @Router /coach/overrides [post]
func (h *CoachHandler) CreateOverride(c *gin.Context) {
	coachID, ok := currentUserID(c)
	if !ok {
		return
	}
	var req CreateOverrideRequest
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
	sourceItemID, ok := parseOptionalObjectID(c, "sourceItemId", req.SourceItemID)
	if !ok {
		return
	}

	o, err := h.overrideService.Create(c.Request.Context(), coachID, assignmentID, service.OverrideInput{
		DayID:        dayID,
		Action:       req.Action,
		SourceItemID: sourceItemID,
		Type:         req.Type,
		Title:        req.Title,
		Content:      req.Content,
		SortOrder:    req.SortOrder,
	})
	if err != nil {
		respondWithServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, o)
}

func (h *CoachHandler) UpdateOverride(c *gin.Context) {
	coachID, ok := currentUserID(c)
	if !ok {
		return
	}
	var req UpdateOverrideRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}
	overrideID, ok := parseObjectID(c, "overrideId", req.OverrideID)
	if !ok {
		return
	}

	o, err := h.overrideService.Update(c.Request.Context(), coachID, overrideID, service.OverrideUpdate{
		Type:      req.Type,
		Title:     req.Title,
		Content:   req.Content,
		SortOrder: req.SortOrder,
	})
	if err != nil {
		respondWithServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, o)
}

func (h *CoachHandler) DeleteOverride(c *gin.Context) {
	coachID, ok := currentUserID(c)
	if !ok {
		return
	}
	var req DeleteOverrideRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}
	overrideID, ok := parseObjectID(c, "overrideId", req.OverrideID)
	if !ok {
		return
	}

	if err := h.overrideService.Delete(c.Request.Context(), coachID, overrideID); err != nil {
		respondWithServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// --- Activity ---

// GetActivityFeed godoc
// @Summary Recent completions across a program's active assignments
// @Tags Coach
// @Param assignmentId query string false "Narrow the feed to one assignment"
// @Success 200 {object} gin.H "{feed: FeedEntry[]}"
// @Router /coach/programs/{programId}/activity [get]
func (h *CoachHandler) GetActivityFeed(c *gin.Context) {
	coachID, ok := currentUserID(c)
	if !ok {
		return
	}
	programID, ok := pathObjectID(c, "programId")
	if !ok {
		return
	}
	assignmentID, ok := parseOptionalObjectID(c, "assignmentId", c.Query("assignmentId"))
	if !ok {
		return
	}

	entries, err := h.feedService.Feed(c.Request.Context(), coachID, programID, assignmentID)
	if err != nil {
		respondWithServiceError(c, err)
		return
	}
	if entries == nil {
		entries = []domain.FeedEntry{}
	}
	c.JSON(http.StatusOK, gin.H{"feed": entries})
}
