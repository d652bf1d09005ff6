package http

import (
	"errors"
	"net/http"
	"time"

	"paisa/internal/amqp"
	"paisa/internal/feedback"
	applog "paisa/internal/log"
)

type feedbackRequest struct {
	FeedbackType string `json:"feedbackType"`
	Email        string `json:"email"`
	Message      string `json:"message"`
}

type feedbackResponse struct {
	Status string `json:"status"`
}

// handleFeedback validates a submission and queues it for delivery. Without
// a queue it is delivered inline.
func (s *Server) handleFeedback(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, http.MethodPost)
		return
	}
	uid, ok := requireUserID(w, r)
	if !ok {
		return
	}

	var req feedbackRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusUnprocessableEntity, "invalid request body")
		return
	}

	sub, err := feedback.NewSubmission(uid, req.FeedbackType, req.Email, sanitizeInput(req.Message), time.Now())
	if err != nil {
		if errors.Is(err, feedback.ErrMissingType) || errors.Is(err, feedback.ErrInvalidEmail) || errors.Is(err, feedback.ErrMessageTooShort) {
			writeError(w, http.StatusUnprocessableEntity, err.Error())
			return
		}
		writeError(w, http.StatusUnprocessableEntity, "invalid feedback")
		return
	}

	if s.publisher != nil {
		err = s.publisher.PublishFeedback(r.Context(), amqp.FeedbackMessage{
			UserID:       sub.UserID,
			FeedbackType: sub.Type,
			Email:        sub.Email,
			Message:      sub.Message,
			SubmittedAt:  sub.SubmittedAt,
		})
		if err == nil {
			writeJSON(w, http.StatusAccepted, feedbackResponse{Status: "queued"})
			return
		}
		applog.FromContext(r.Context()).WarnContext(r.Context(), "Failed to queue feedback, delivering inline",
			applog.FieldError, err,
			applog.FieldUserID, uid)
	}

	if s.sender == nil {
		applog.FromContext(r.Context()).ErrorContext(r.Context(), "No feedback delivery path configured",
			applog.FieldUserID, uid)
		writeError(w, http.StatusInternalServerError, "Could not submit feedback right now. Please try again.")
		return
	}

	if err := s.sender.Send(r.Context(), sub); err != nil {
		applog.FromContext(r.Context()).ErrorContext(r.Context(), "Feedback delivery failed",
			applog.FieldError, err,
			applog.FieldUserID, uid)
		writeError(w, http.StatusInternalServerError, "Could not submit feedback right now. Please try again.")
		return
	}

	writeJSON(w, http.StatusAccepted, feedbackResponse{Status: "sent"})
}
