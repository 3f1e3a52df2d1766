package v1

import (
	"errors"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/xiaot623/arrifai/internal/domain"
	"github.com/xiaot623/arrifai/internal/service"
)

// ChatRequest is the JSON body of /chat and /chat-json.
type ChatRequest struct {
	Message   string `json:"message"`
	SessionID string `json:"session_id"`
}

// Chat handles a chat turn with optional attachments.
// POST /chat
func (h *Handler) Chat(c echo.Context) error {
	req, attachments, err := parseChatRequest(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}

	res, err := h.service.Chat(c.Request().Context(), service.ChatRequest{
		SessionID:   req.SessionID,
		Message:     req.Message,
		Attachments: attachments,
		Source:      "http",
	})
	if err != nil {
		return chatError(c, err)
	}

	if !res.OK() {
		return c.JSON(http.StatusOK, map[string]interface{}{
			"reply": res.Reply,
			"error": string(res.Failure),
		})
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"reply":                res.Reply,
		"attachments_received": res.AttachmentsReceived,
	})
}

// ChatJSON handles a plain JSON chat turn.
// POST /chat-json
func (h *Handler) ChatJSON(c echo.Context) error {
	var req ChatRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request body"})
	}

	res, err := h.service.Chat(c.Request().Context(), service.ChatRequest{
		SessionID: req.SessionID,
		Message:   req.Message,
		Source:    "http-json",
	})
	if err != nil {
		return chatError(c, err)
	}

	return c.JSON(http.StatusOK, map[string]string{"reply": res.Reply})
}

// parseChatRequest reads a multipart/url-encoded form or a JSON body.
func parseChatRequest(c echo.Context) (ChatRequest, []domain.Attachment, error) {
	contentType := c.Request().Header.Get(echo.HeaderContentType)

	if strings.HasPrefix(contentType, echo.MIMEApplicationJSON) {
		var req ChatRequest
		if err := c.Bind(&req); err != nil {
			return ChatRequest{}, nil, errors.New("invalid request body")
		}
		return req, nil, nil
	}

	req := ChatRequest{
		Message:   c.FormValue("message"),
		SessionID: c.FormValue("session_id"),
	}

	if !strings.HasPrefix(contentType, echo.MIMEMultipartForm) {
		return req, nil, nil
	}
	form, err := c.MultipartForm()
	if err != nil {
		return ChatRequest{}, nil, errors.New("invalid multipart form")
	}
	return req, attachmentsFrom(form.File["attachments"]), nil
}

func attachmentsFrom(files []*multipart.FileHeader) []domain.Attachment {
	if len(files) == 0 {
		return nil
	}
	out := make([]domain.Attachment, 0, len(files))
	for _, fh := range files {
		out = append(out, domain.Attachment{
			Filename:    fh.Filename,
			ContentType: fh.Header.Get(echo.HeaderContentType),
			Size:        fh.Size,
		})
	}
	return out
}

func chatError(c echo.Context, err error) error {
	var rejection *service.RejectionError
	switch {
	case errors.As(err, &rejection):
		return c.JSON(http.StatusBadRequest, map[string]interface{}{
			"error":   service.ErrRejected.Error(),
			"reasons": rejection.Reasons,
		})
	case errors.Is(err, service.ErrEmptyMessage):
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	default:
		slog.Error("chat failed", "error", err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "chat failed"})
	}
}
