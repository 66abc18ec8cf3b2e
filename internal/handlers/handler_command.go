package handlers

import (
	"log/slog"
	"net/http"

	portssvc "github.com/SscSPs/command_ledger/internal/core/ports/services"
	"github.com/SscSPs/command_ledger/internal/dto"
	"github.com/SscSPs/command_ledger/internal/middleware"
	"github.com/gin-gonic/gin"
)

// commandHandler exposes command execution, undo and history.
type commandHandler struct {
	ledgerService portssvc.LedgerSvcFacade
}

func newCommandHandler(ls portssvc.LedgerSvcFacade) *commandHandler {
	return &commandHandler{ledgerService: ls}
}

// RegisterCommandRoutes registers routes related to commands.
func RegisterCommandRoutes(rg *gin.RouterGroup, ledgerService portssvc.LedgerSvcFacade) {
	registerValidators()
	h := newCommandHandler(ledgerService)

	cmds := rg.Group("/commands")
	{
		cmds.POST("", h.executeCommand)
		cmds.GET("", h.listCommands)
		cmds.GET("/:id", h.getCommand)
		cmds.POST("/:id/undo", h.undoCommand)
	}
}

// executeCommand runs a command tree. A command that ran but FAILED is still
// recorded and returned with 200; callers read the status field.
func (h *commandHandler) executeCommand(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	var req dto.CommandRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithBindError(c, logger, err, "JSON for ExecuteCommand")
		return
	}

	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		logger.Error("User ID not found in context")
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	record, err := h.ledgerService.ExecuteCommand(c.Request.Context(), req.ToSpec(), userID)
	if err != nil {
		respondWithError(c, logger, err, "Failed to execute command")
		return
	}

	logger.Info("Command executed",
		slog.String("command_id", record.CommandID),
		slog.String("kind", string(record.Spec.Kind)),
		slog.String("status", string(record.Status)))
	c.JSON(http.StatusOK, dto.ToCommandResponse(record))
}

func (h *commandHandler) undoCommand(c *gin.Context) {
	commandID := c.Param("id")
	logger := middleware.GetLoggerFromCtx(c.Request.Context()).With(slog.String("command_id", commandID))

	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		logger.Error("User ID not found in context")
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	record, err := h.ledgerService.UndoCommand(c.Request.Context(), commandID, userID)
	if err != nil {
		respondWithError(c, logger, err, "Failed to undo command")
		return
	}

	logger.Info("Command undone")
	c.JSON(http.StatusOK, dto.ToCommandResponse(record))
}

func (h *commandHandler) getCommand(c *gin.Context) {
	commandID := c.Param("id")
	logger := middleware.GetLoggerFromCtx(c.Request.Context()).With(slog.String("command_id", commandID))

	record, err := h.ledgerService.GetCommand(c.Request.Context(), commandID)
	if err != nil {
		respondWithError(c, logger, err, "Failed to retrieve command")
		return
	}

	c.JSON(http.StatusOK, dto.ToCommandResponse(record))
}

func (h *commandHandler) listCommands(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	var params dto.ListCommandsParams
	if err := c.ShouldBindQuery(&params); err != nil {
		logger.Warn("Failed to bind query params for ListCommands", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid query parameters: " + err.Error()})
		return
	}

	resp, err := h.ledgerService.ListCommands(c.Request.Context(), params)
	if err != nil {
		respondWithError(c, logger, err, "Failed to list commands")
		return
	}

	c.JSON(http.StatusOK, resp)
}
