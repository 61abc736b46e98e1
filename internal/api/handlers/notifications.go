package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/conectados420/storefront/internal/audit"
	"github.com/conectados420/storefront/internal/email"
)

type EmailSender interface {
	Send(ctx context.Context, msg email.Message) (string, error)
}

type NotificationsHandler struct {
	sender      EmailSender
	auditLogger *audit.Logger
}

func NewNotificationsHandler(sender EmailSender, auditLogger *audit.Logger) *NotificationsHandler {
	return &NotificationsHandler{sender: sender, auditLogger: auditLogger}
}

type sendEmailResponse struct {
	Success bool   `json:"success"`
	ID      string `json:"id"`
}

// SendEmail renders and sends one transactional email synchronously. Every
// failure, including a bad payload, answers 500 {error}.
func (h *NotificationsHandler) SendEmail(w http.ResponseWriter, r *http.Request) {
	var msg email.Message
	if err := json.NewDecoder(r.Body).Decode(&msg); err != nil {
		zerolog.Ctx(r.Context()).Warn().Err(err).Msg("malformed email request")
		writeJSON(w, http.StatusInternalServerError, webhookError{Error: email.ErrMissingFields.Error()}, "")
		return
	}

	id, err := h.sender.Send(r.Context(), msg)
	if err != nil {
		zerolog.Ctx(r.Context()).Error().Err(err).Str("template", msg.Template).Msg("send email failed")
		h.auditLogger.LogFromRequest(r, "email.sent", "email", msg.Template, "failure", map[string]string{"to": msg.To})
		writeJSON(w, http.StatusInternalServerError, webhookError{Error: err.Error()}, "")
		return
	}

	h.auditLogger.LogFromRequest(r, "email.sent", "email", id, "success", map[string]string{
		"to":       msg.To,
		"template": msg.Template,
	})
	writeJSON(w, http.StatusOK, sendEmailResponse{Success: true, ID: id}, "")
}
