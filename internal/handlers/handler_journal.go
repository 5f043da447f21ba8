package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/finbooks/ledger_engine/internal/apperrors"
	portssvc "github.com/finbooks/ledger_engine/internal/core/ports/services"
	"github.com/finbooks/ledger_engine/internal/dto"
	"github.com/finbooks/ledger_engine/internal/middleware"
	"github.com/gin-gonic/gin"
)

// journalHandler handles HTTP requests for journal entries, their workflow
// commands, posting, and attachment links.
type journalHandler struct {
	journalService    portssvc.JournalSvcFacade
	postingService    portssvc.PostingSvcFacade
	attachmentService portssvc.AttachmentSvcFacade
}

// newJournalHandler creates a new journalHandler.
func newJournalHandler(journal portssvc.JournalSvcFacade, posting portssvc.PostingSvcFacade, attachment portssvc.AttachmentSvcFacade) *journalHandler {
	return &journalHandler{
		journalService:    journal,
		postingService:    posting,
		attachmentService: attachment,
	}
}

// respondServiceError maps service error kinds to HTTP responses.
// Validation failures are 400, authorization denials 403, missing resources
// 404, and state conflicts (immutable, concurrent, duplicate) 409.
func respondServiceError(c *gin.Context, logger *slog.Logger, err error, fallback string) {
	switch {
	case errors.Is(err, apperrors.ErrValidation):
		logger.Warn("Validation error", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, apperrors.ErrForbidden):
		logger.Warn("Authorization denied", slog.String("error", err.Error()))
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	case errors.Is(err, apperrors.ErrNotFound):
		logger.Warn("Resource not found", slog.String("error", err.Error()))
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, apperrors.ErrImmutable), errors.Is(err, apperrors.ErrConflict), errors.Is(err, apperrors.ErrDuplicate):
		logger.Warn("State conflict", slog.String("error", err.Error()))
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	default:
		logger.Error(fallback, slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": fallback})
	}
}

// createEntry godoc
// @Summary Create a draft journal entry
// @Description Creates a new journal entry in DRAFT with its debit/credit lines
// @Tags entries
// @Accept  json
// @Produce  json
// @Param   entry body dto.CreateEntryRequest true "Entry and lines"
// @Success 201 {object} dto.EntryResponse "The created entry"
// @Failure 400 {object} map[string]string "Invalid request or unbalanced lines"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Router /journal-entries [post]
func (h *journalHandler) createEntry(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	var req dto.CreateEntryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for createEntry", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	principal, ok := middleware.GetPrincipalFromCtx(c.Request.Context())
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	entry, err := h.journalService.CreateEntry(c.Request.Context(), req, principal)
	if err != nil {
		respondServiceError(c, logger, err, "Failed to create entry")
		return
	}

	c.JSON(http.StatusCreated, dto.ToEntryResponse(entry))
}

// getEntry godoc
// @Summary Get a journal entry
// @Description Retrieves an entry with its lines and attachment links
// @Tags entries
// @Produce  json
// @Param   entryID path string true "Entry ID"
// @Success 200 {object} dto.EntryResponse
// @Failure 404 {object} map[string]string "Entry not found"
// @Router /journal-entries/{entryID} [get]
func (h *journalHandler) getEntry(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	entryID := c.Param("entryID")

	entry, err := h.journalService.GetEntryByID(c.Request.Context(), entryID)
	if err != nil {
		respondServiceError(c, logger, err, "Failed to retrieve entry")
		return
	}

	c.JSON(http.StatusOK, dto.ToEntryResponse(entry))
}

// listEntries godoc
// @Summary List journal entries
// @Description Retrieves a keyset-paginated entry list for an entity, optionally filtered by status
// @Tags entries
// @Produce  json
// @Param   entityID query string true "Entity ID"
// @Param   status query string false "Entry status filter"
// @Param   limit query int false "Page size"
// @Param   nextToken query string false "Keyset token from the previous page"
// @Success 200 {object} dto.ListEntriesResponse
// @Router /journal-entries [get]
func (h *journalHandler) listEntries(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	var params dto.ListEntriesParams
	if err := c.ShouldBindQuery(&params); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid query parameters: " + err.Error()})
		return
	}

	resp, err := h.journalService.ListEntries(c.Request.Context(), params)
	if err != nil {
		respondServiceError(c, logger, err, "Failed to list entries")
		return
	}

	c.JSON(http.StatusOK, resp)
}

// updateEntry godoc
// @Summary Update a draft journal entry
// @Description Mutates a draft's header fields and/or replaces its lines
// @Tags entries
// @Accept  json
// @Produce  json
// @Param   entryID path string true "Entry ID"
// @Param   entry body dto.UpdateEntryRequest true "Fields to update"
// @Success 200 {object} dto.EntryResponse
// @Failure 409 {object} map[string]string "Entry is not a draft"
// @Router /journal-entries/{entryID} [put]
func (h *journalHandler) updateEntry(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	entryID := c.Param("entryID")

	var req dto.UpdateEntryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	principal, ok := middleware.GetPrincipalFromCtx(c.Request.Context())
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	entry, err := h.journalService.UpdateDraftEntry(c.Request.Context(), entryID, req, principal)
	if err != nil {
		respondServiceError(c, logger, err, "Failed to update entry")
		return
	}

	c.JSON(http.StatusOK, dto.ToEntryResponse(entry))
}

// submitEntry godoc
// @Summary Submit a draft for approval
// @Description Validates balance and moves the draft into the approval pipeline
// @Tags workflow
// @Produce  json
// @Param   entryID path string true "Entry ID"
// @Success 200 {object} dto.EntryResponse
// @Failure 400 {object} map[string]string "Entry is unbalanced or not a draft"
// @Router /journal-entries/{entryID}/submit [post]
func (h *journalHandler) submitEntry(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	entryID := c.Param("entryID")

	principal, ok := middleware.GetPrincipalFromCtx(c.Request.Context())
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	entry, err := h.journalService.SubmitEntry(c.Request.Context(), entryID, principal)
	if err != nil {
		respondServiceError(c, logger, err, "Failed to submit entry")
		return
	}

	c.JSON(http.StatusOK, dto.ToEntryResponse(entry))
}

// approveEntry godoc
// @Summary Approve an entry
// @Description Records the first or final approval signature depending on the entry's stage
// @Tags workflow
// @Accept  json
// @Produce  json
// @Param   entryID path string true "Entry ID"
// @Param   approval body dto.ApproveEntryRequest false "Optional approver notes"
// @Success 200 {object} dto.EntryResponse
// @Failure 403 {object} map[string]string "Self-approval or repeated signature"
// @Router /journal-entries/{entryID}/approve [post]
func (h *journalHandler) approveEntry(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	entryID := c.Param("entryID")

	var req dto.ApproveEntryRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
			return
		}
	}

	principal, ok := middleware.GetPrincipalFromCtx(c.Request.Context())
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	entry, err := h.journalService.ApproveEntry(c.Request.Context(), entryID, req.Notes, principal)
	if err != nil {
		respondServiceError(c, logger, err, "Failed to approve entry")
		return
	}

	c.JSON(http.StatusOK, dto.ToEntryResponse(entry))
}

// rejectEntry godoc
// @Summary Reject a pending entry
// @Description Returns the entry to DRAFT, recording the reason and clearing signatures
// @Tags workflow
// @Accept  json
// @Produce  json
// @Param   entryID path string true "Entry ID"
// @Param   rejection body dto.RejectEntryRequest true "Rejection reason"
// @Success 200 {object} dto.EntryResponse
// @Router /journal-entries/{entryID}/reject [post]
func (h *journalHandler) rejectEntry(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	entryID := c.Param("entryID")

	var req dto.RejectEntryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	principal, ok := middleware.GetPrincipalFromCtx(c.Request.Context())
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	entry, err := h.journalService.RejectEntry(c.Request.Context(), entryID, req.Reason, principal)
	if err != nil {
		respondServiceError(c, logger, err, "Failed to reject entry")
		return
	}

	c.JSON(http.StatusOK, dto.ToEntryResponse(entry))
}

// postEntry godoc
// @Summary Post an approved entry to the ledger
// @Description Applies balance deltas atomically; posting an already-posted entry is an idempotent no-op
// @Tags posting
// @Produce  json
// @Param   entryID path string true "Entry ID"
// @Success 200 {object} dto.EntryResponse
// @Failure 409 {object} map[string]string "Concurrent modification"
// @Router /journal-entries/{entryID}/post [post]
func (h *journalHandler) postEntry(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	entryID := c.Param("entryID")

	principal, ok := middleware.GetPrincipalFromCtx(c.Request.Context())
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	entry, err := h.postingService.PostEntry(c.Request.Context(), entryID, principal)
	if err != nil {
		respondServiceError(c, logger, err, "Failed to post entry")
		return
	}

	c.JSON(http.StatusOK, dto.ToEntryResponse(entry))
}

// reverseEntry godoc
// @Summary Create a reversal for a posted entry
// @Description Builds the mirror-image draft and links it to the original
// @Tags workflow
// @Accept  json
// @Produce  json
// @Param   entryID path string true "Entry ID"
// @Param   reversal body dto.ReverseEntryRequest true "Reversal date and reason"
// @Success 201 {object} dto.EntryResponse "The reversal draft"
// @Failure 409 {object} map[string]string "Entry already reversed or not posted"
// @Router /journal-entries/{entryID}/reverse [post]
func (h *journalHandler) reverseEntry(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	entryID := c.Param("entryID")

	var req dto.ReverseEntryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	principal, ok := middleware.GetPrincipalFromCtx(c.Request.Context())
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	entry, err := h.journalService.ReverseEntry(c.Request.Context(), entryID, req, principal)
	if err != nil {
		respondServiceError(c, logger, err, "Failed to reverse entry")
		return
	}

	c.JSON(http.StatusCreated, dto.ToEntryResponse(entry))
}

// postBatch godoc
// @Summary Post a batch of approved entries
// @Description Posts each entry independently and reports per-entry outcomes
// @Tags posting
// @Accept  json
// @Produce  json
// @Param   batch body dto.BatchPostRequest true "Entry IDs"
// @Success 200 {object} dto.BatchPostResponse
// @Router /journal-entries/post-batch [post]
func (h *journalHandler) postBatch(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	var req dto.BatchPostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	principal, ok := middleware.GetPrincipalFromCtx(c.Request.Context())
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	resp, err := h.postingService.PostBatch(c.Request.Context(), req, principal)
	if err != nil {
		respondServiceError(c, logger, err, "Failed to post batch")
		return
	}

	c.JSON(http.StatusOK, resp)
}

// listUnposted godoc
// @Summary List approved entries awaiting posting
// @Tags posting
// @Produce  json
// @Param   entityID query string true "Entity ID"
// @Success 200 {object} dto.ListEntriesResponse
// @Router /journal-entries/unposted [get]
func (h *journalHandler) listUnposted(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	var params dto.ListEntriesParams
	if err := c.ShouldBindQuery(&params); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid query parameters: " + err.Error()})
		return
	}

	resp, err := h.postingService.ListUnposted(c.Request.Context(), params)
	if err != nil {
		respondServiceError(c, logger, err, "Failed to list unposted entries")
		return
	}

	c.JSON(http.StatusOK, resp)
}

// linkAttachments godoc
// @Summary Link documents to an entry
// @Description Appends attachment links; the first link becomes primary unless one is named
// @Tags attachments
// @Accept  json
// @Produce  json
// @Param   entryID path string true "Entry ID"
// @Param   links body dto.LinkAttachmentsRequest true "Document IDs"
// @Success 200 {object} dto.AttachmentLinksResponse
// @Router /journal-entries/{entryID}/attachments [post]
func (h *journalHandler) linkAttachments(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	entryID := c.Param("entryID")

	var req dto.LinkAttachmentsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	principal, ok := middleware.GetPrincipalFromCtx(c.Request.Context())
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	links, err := h.attachmentService.LinkAttachments(c.Request.Context(), entryID, req, principal)
	if err != nil {
		respondServiceError(c, logger, err, "Failed to link attachments")
		return
	}

	c.JSON(http.StatusOK, dto.AttachmentLinksResponse{EntryID: entryID, Attachments: dto.ToAttachmentLinkDetails(links)})
}

// reorderAttachments godoc
// @Summary Reorder an entry's attachments
// @Tags attachments
// @Accept  json
// @Produce  json
// @Param   entryID path string true "Entry ID"
// @Param   order body dto.ReorderAttachmentsRequest true "Full ordered document ID list and primary"
// @Success 200 {object} dto.AttachmentLinksResponse
// @Router /journal-entries/{entryID}/attachments/reorder [patch]
func (h *journalHandler) reorderAttachments(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	entryID := c.Param("entryID")

	var req dto.ReorderAttachmentsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	principal, ok := middleware.GetPrincipalFromCtx(c.Request.Context())
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	links, err := h.attachmentService.ReorderAttachments(c.Request.Context(), entryID, req, principal)
	if err != nil {
		respondServiceError(c, logger, err, "Failed to reorder attachments")
		return
	}

	c.JSON(http.StatusOK, dto.AttachmentLinksResponse{EntryID: entryID, Attachments: dto.ToAttachmentLinkDetails(links)})
}

// detachAttachment godoc
// @Summary Detach a document from an entry
// @Description Removes one link; if it was primary the next link by order is promoted
// @Tags attachments
// @Produce  json
// @Param   entryID path string true "Entry ID"
// @Param   documentID path string true "Document ID"
// @Success 200 {object} dto.AttachmentLinksResponse
// @Router /journal-entries/{entryID}/attachments/{documentID} [delete]
func (h *journalHandler) detachAttachment(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	entryID := c.Param("entryID")
	documentID := c.Param("documentID")

	principal, ok := middleware.GetPrincipalFromCtx(c.Request.Context())
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	links, err := h.attachmentService.DetachAttachment(c.Request.Context(), entryID, documentID, principal)
	if err != nil {
		respondServiceError(c, logger, err, "Failed to detach attachment")
		return
	}

	c.JSON(http.StatusOK, dto.AttachmentLinksResponse{EntryID: entryID, Attachments: dto.ToAttachmentLinkDetails(links)})
}

// registerEntryRoutes registers entry, workflow, posting, and attachment routes.
func registerEntryRoutes(group *gin.RouterGroup, journal portssvc.JournalSvcFacade, posting portssvc.PostingSvcFacade, attachment portssvc.AttachmentSvcFacade) {
	h := newJournalHandler(journal, posting, attachment)

	entries := group.Group("/journal-entries")
	{
		entries.POST("", h.createEntry)
		entries.GET("", h.listEntries)
		entries.GET("/unposted", h.listUnposted)
		entries.POST("/post-batch", h.postBatch)
		entries.GET("/:entryID", h.getEntry)
		entries.PUT("/:entryID", h.updateEntry)
		entries.POST("/:entryID/submit", h.submitEntry)
		entries.POST("/:entryID/approve", h.approveEntry)
		entries.POST("/:entryID/reject", h.rejectEntry)
		entries.POST("/:entryID/post", h.postEntry)
		entries.POST("/:entryID/reverse", h.reverseEntry)
		entries.POST("/:entryID/attachments", h.linkAttachments)
		entries.PATCH("/:entryID/attachments/reorder", h.reorderAttachments)
		entries.DELETE("/:entryID/attachments/:documentID", h.detachAttachment)
	}
}
