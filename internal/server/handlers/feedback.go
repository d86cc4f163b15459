package handlers

import (
	"net/http"

	"github.com/agentstation/modelcast/internal/feedback"
	"github.com/agentstation/modelcast/internal/server/response"
	"github.com/agentstation/modelcast/pkg/constants"
	"github.com/agentstation/modelcast/pkg/logging"
)

// HandleQuestions handles GET /feedback.
// @Summary Get feedback questions
// @Tags feedback
// @Produce json
// @Success 200 {array} object
// @Router /feedback [get].
func (h *Handlers) HandleQuestions(w http.ResponseWriter, _ *http.Request) {
	response.Raw(w, http.StatusOK, h.questions.Current().JSON())
}

// HandleMetadata handles GET /metadata?query=question.
// @Summary Get metadata
// @Tags feedback
// @Produce json
// @Param query query string true "Metadata kind (question)"
// @Success 200 {array} object
// @Failure 400 {object} response.Response{error=response.Error}
// @Router /metadata [get].
func (h *Handlers) HandleMetadata(w http.ResponseWriter, r *http.Request) {
	switch query := r.URL.Query().Get("query"); query {
	case "question", "questions":
		h.HandleQuestions(w, r)
	default:
		response.BadRequest(w, "Unsupported metadata query", "query must be \"question\", got \""+query+"\"")
	}
}

// HandleSubmitFeedback handles POST /feedback.
// @Summary Submit feedback
// @Tags feedback
// @Accept json
// @Produce json
// @Success 201 {object} object
// @Failure 400 {object} response.Response{error=response.Error}
// @Router /feedback [post].
func (h *Handlers) HandleSubmitFeedback(w http.ResponseWriter, r *http.Request) {
	logger := logging.FromContext(r.Context())
	r.Body = http.MaxBytesReader(w, r.Body, constants.MaxFeedbackBodyBytes)

	sub, err := feedback.Decode(r.Body)
	if err == nil {
		err = h.feedback.Append(sub)
	}
	h.observer.ObserveFeedback(err)
	if err != nil {
		logger.Warn().Err(err).Msg("Feedback rejected")
		response.ErrorFromType(w, err)
		return
	}

	response.Value(w, http.StatusCreated, map[string]string{
		"message": "Feedback received successfully",
		"id":      sub.ID,
	})
}
