package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"covergen/internal/coverjob"
	"covergen/internal/domain"
	"covergen/internal/identity"
	"covergen/internal/middleware"
)

const maxGenerateBody = 64 << 10

type existingCoverResponse struct {
	Message       string `json:"message"`
	ExistingCover string `json:"existingCover"`
}

type generateResponse struct {
	Success      bool          `json:"success"`
	Message      string        `json:"message"`
	PredictionID string        `json:"predictionId"`
	CourseID     string        `json:"courseId"`
	Engine       domain.Engine `json:"engine"`
	Status       string        `json:"status"`
}

type forbiddenResponse struct {
	Error    string  `json:"error"`
	UserRole *string `json:"userRole"`
}

type missingConfigResponse struct {
	Error   string   `json:"error"`
	Missing []string `json:"missing"`
}

// GenerateCourseCover starts cover generation for a course. It accepts POST
// and answers OPTIONS preflights; other methods get 405.
func (a *App) GenerateCourseCover(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodOptions:
		w.WriteHeader(http.StatusNoContent)
		return
	case http.MethodPost:
	default:
		w.Header().Set("Allow", "POST, OPTIONS")
		a.error(w, http.StatusMethodNotAllowed, "Method not allowed", "")
		return
	}

	var req coverjob.Request
	dec := json.NewDecoder(io.LimitReader(r.Body, maxGenerateBody))
	if err := dec.Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		a.error(w, http.StatusBadRequest, "Invalid JSON body", "")
		return
	}
	req.Token, _ = identity.BearerToken(r)

	res, err := a.Covers.Generate(r.Context(), req)
	if err != nil {
		a.coverError(w, r, err)
		return
	}
	if res.Existing {
		a.json(w, http.StatusOK, existingCoverResponse{
			Message:       "Course already has a cover image",
			ExistingCover: res.ExistingCoverURL,
		})
		return
	}
	a.json(w, http.StatusOK, generateResponse{
		Success:      true,
		Message:      "Cover generation started",
		PredictionID: res.PredictionID,
		CourseID:     res.CourseID,
		Engine:       res.Engine,
		Status:       res.Status,
	})
}

type coverStatusResponse struct {
	CourseID      string                 `json:"courseId"`
	CoverImageURL *string                `json:"coverImageUrl"`
	Prediction    *predictionView        `json:"prediction"`
	Events        []domain.ProgressEvent `json:"events"`
}

type predictionView struct {
	PredictionID string `json:"predictionId"`
	Status       string `json:"status"`
	Model        string `json:"model"`
	CreatedAt    string `json:"createdAt"`
	UpdatedAt    string `json:"updatedAt"`
}

// CoverStatus reports a course's cover, latest prediction and progress events.
func (a *App) CoverStatus(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			a.error(w, http.StatusBadRequest, "limit must be a number", "")
			return
		}
		limit = n
	}
	token, _ := identity.BearerToken(r)
	st, err := a.Covers.Status(r.Context(), coverjob.StatusRequest{
		CourseID:  chi.URLParam(r, "courseId"),
		Token:     token,
		EventType: r.URL.Query().Get("event"),
		Status:    r.URL.Query().Get("status"),
		Limit:     limit,
	})
	if err != nil {
		a.coverError(w, r, err)
		return
	}
	resp := coverStatusResponse{CourseID: st.CourseID, Events: st.Events}
	if resp.Events == nil {
		resp.Events = []domain.ProgressEvent{}
	}
	if st.CoverImageURL != "" {
		resp.CoverImageURL = &st.CoverImageURL
	}
	if p := st.Latest; p != nil {
		resp.Prediction = &predictionView{
			PredictionID: p.PredictionID,
			Status:       string(p.Status),
			Model:        p.ModelName,
			CreatedAt:    p.CreatedAt.UTC().Format(timeLayout),
			UpdatedAt:    p.UpdatedAt.UTC().Format(timeLayout),
		}
	}
	a.json(w, http.StatusOK, resp)
}

const timeLayout = "2006-01-02T15:04:05Z07:00"

func (a *App) coverError(w http.ResponseWriter, r *http.Request, err error) {
	var e *coverjob.Error
	if !errors.As(err, &e) {
		a.Logger.Error().Err(err).Str("request_id", middleware.RequestIDFromContext(r.Context())).Msg("unclassified cover error")
		a.error(w, http.StatusInternalServerError, "Internal server error", err.Error())
		return
	}
	switch e.Kind {
	case coverjob.KindValidation:
		a.error(w, http.StatusBadRequest, e.Message, "")
	case coverjob.KindAuthentication:
		a.error(w, http.StatusUnauthorized, e.Message, "")
	case coverjob.KindAuthorization:
		resp := forbiddenResponse{Error: e.Message}
		if e.Role != "" {
			role := string(e.Role)
			resp.UserRole = &role
		}
		a.json(w, http.StatusForbidden, resp)
	case coverjob.KindNotFound:
		a.error(w, http.StatusNotFound, e.Message, "")
	case coverjob.KindConfiguration:
		a.json(w, http.StatusInternalServerError, missingConfigResponse{Error: e.Message, Missing: e.Missing})
	default:
		a.Logger.Error().
			Err(err).
			Str("kind", string(e.Kind)).
			Str("request_id", middleware.RequestIDFromContext(r.Context())).
			Msg("cover request failed")
		a.error(w, http.StatusInternalServerError, e.Message, e.Details)
	}
}
