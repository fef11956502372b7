package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/nfrund/lanstream/internal/domain"
	"github.com/nfrund/lanstream/internal/history"
	"github.com/nfrund/lanstream/internal/relay"
)

// HistoryHandler exposes the message log over HTTP: paginated reads, targeted
// deletion and full clears. Mutations go through the relay core so connected
// sessions hear about them live.
type HistoryHandler struct {
	router *relay.Router
}

// NewHistoryHandler creates a new HistoryHandler over the relay core.
func NewHistoryHandler(router *relay.Router) *HistoryHandler {
	return &HistoryHandler{router: router}
}

// GetHistory returns one page of the log, newest first.
// Query parameters: limit (0 or absent means everything), offset, type.
func (h *HistoryHandler) GetHistory(c echo.Context) error {
	ctx := c.Request().Context()

	q := history.Query{Kind: domain.Kind(c.QueryParam("type"))}

	var err error
	if raw := c.QueryParam("limit"); raw != "" {
		if q.Limit, err = strconv.Atoi(raw); err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "limit must be an integer")
		}
	}
	if raw := c.QueryParam("offset"); raw != "" {
		if q.Offset, err = strconv.Atoi(raw); err != nil || q.Offset < 0 {
			return echo.NewHTTPError(http.StatusBadRequest, "offset must be a non-negative integer")
		}
	}

	page, total, err := h.router.History(ctx, q)
	if err != nil {
		slog.Error("Failed to query history", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to query history")
	}

	// An empty page still serializes as [], not null.
	if page == nil {
		page = []domain.Message{}
	}
	return c.JSON(http.StatusOK, HistoryResponse{Messages: page, Total: total})
}

// SubmitMessage accepts an envelope over HTTP and pushes it through the same
// relay path as channel-sourced messages. Used by clients that cannot hold a
// persistent channel open.
func (h *HistoryHandler) SubmitMessage(c echo.Context) error {
	ctx := c.Request().Context()

	var req SubmitMessageRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format.")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	msg, err := h.router.Submit(ctx, relay.Envelope{
		Kind:         domain.Kind(req.Kind),
		Content:      req.Content,
		OriginalName: req.OriginalName,
		SizeBytes:    req.SizeBytes,
	})
	if err != nil {
		if errors.Is(err, domain.ErrValidation) {
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
		slog.Error("Failed to submit message", "kind", req.Kind, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to submit message")
	}

	return c.JSON(http.StatusCreated, msg)
}

// DeleteMessage removes one message identified by content and exact server
// timestamp. A file message takes its stored blob with it.
func (h *HistoryHandler) DeleteMessage(c echo.Context) error {
	ctx := c.Request().Context()

	var req DeleteMessageRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format.")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	if err := h.router.Delete(ctx, req.Content, req.Timestamp); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return c.JSON(http.StatusNotFound, ErrorResponse{
				Code:    "not_found",
				Message: "No message with that content and timestamp.",
			})
		}
		slog.Error("Failed to delete message", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to delete message")
	}

	return c.JSON(http.StatusOK, map[string]string{"status": "deleted"})
}

// ClearHistory wipes the entire log and every stored blob, then notifies all
// connected sessions with a clear frame.
func (h *HistoryHandler) ClearHistory(c echo.Context) error {
	ctx := c.Request().Context()

	if err := h.router.Clear(ctx); err != nil {
		slog.Error("Failed to clear history", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to clear history")
	}

	return c.JSON(http.StatusOK, map[string]string{"status": "cleared"})
}
