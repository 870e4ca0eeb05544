package handlers

import (
	"encoding/json"
	"io"
	"net/http"
	"time"

	"covergen/internal/providers/replicate"
)

const maxWebhookBody = 1 << 20

// ReplicateWebhook applies a prediction status callback.
func (a *App) ReplicateWebhook(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBody))
	if err != nil {
		a.error(w, http.StatusBadRequest, "Invalid body", "")
		return
	}
	if a.WebhookSecret != "" {
		if err := replicate.VerifyWebhook(a.WebhookSecret, r.Header, body, time.Now()); err != nil {
			a.Logger.Warn().Err(err).Msg("rejected webhook")
			a.error(w, http.StatusUnauthorized, "Invalid webhook signature", "")
			return
		}
	}
	var pred replicate.Prediction
	if err := json.Unmarshal(body, &pred); err != nil {
		a.error(w, http.StatusBadRequest, "Invalid JSON body", "")
		return
	}
	res, err := a.Webhooks.Apply(r.Context(), r.URL.Query().Get("courseId"), &pred)
	if err != nil {
		a.coverError(w, r, err)
		return
	}
	a.Logger.Info().
		Str("prediction_id", res.PredictionID).
		Str("course_id", res.CourseID).
		Str("status", string(res.Status)).
		Bool("final", res.Final).
		Msg("webhook applied")
	a.json(w, http.StatusOK, map[string]any{
		"received":      true,
		"predictionId":  res.PredictionID,
		"status":        res.Status,
		"final":         res.Final,
		"coverImageUrl": res.CoverImageURL,
	})
}
