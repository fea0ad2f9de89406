package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/sourpls22-ux/marketplace-backend/internal/auth"
	"github.com/sourpls22-ux/marketplace-backend/internal/domain"
	"github.com/sourpls22-ux/marketplace-backend/internal/logging"
)

type reviewStore interface {
	Upsert(ctx context.Context, review *domain.Review) error
	ListByProfile(ctx context.Context, profileID uuid.UUID) ([]domain.Review, error)
	Like(ctx context.Context, profileID, userID uuid.UUID) (bool, error)
	Unlike(ctx context.Context, profileID, userID uuid.UUID) error
	LikeCount(ctx context.Context, profileID uuid.UUID) (int, error)
	Liked(ctx context.Context, profileID, userID uuid.UUID) (bool, error)
}

type ReviewHandler struct {
	reviews reviewStore
}

func NewReviewHandler(reviews reviewStore) *ReviewHandler {
	return &ReviewHandler{reviews: reviews}
}

type reviewRequest struct {
	Rating  int    `json:"rating"`
	Comment string `json:"comment"`
}

func (r reviewRequest) Validate() []FieldError {
	var errs []FieldError
	if r.Rating < 1 || r.Rating > 5 {
		errs = append(errs, FieldError{Field: "rating", Message: "must be between 1 and 5"})
	}
	return errs
}

func (h *ReviewHandler) Submit(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		RespondAppError(w, ErrMissingToken, nil)
		return
	}
	profileID, appErr := profileIDFromPath(r)
	if appErr != nil {
		RespondAppError(w, appErr, nil)
		return
	}

	var req reviewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RespondAppError(w, ErrInvalidRequest, nil)
		return
	}
	if fields := req.Validate(); len(fields) > 0 {
		RespondValidationError(w, fields)
		return
	}

	review := &domain.Review{
		ID:        uuid.New(),
		ProfileID: profileID,
		UserID:    userID,
		Rating:    req.Rating,
		Comment:   req.Comment,
		CreatedAt: time.Now().UTC(),
	}
	if err := h.reviews.Upsert(r.Context(), review); err != nil {
		logging.FromContext(r.Context()).Error("failed to save review", "error", err)
		RespondDomainError(w, err)
		return
	}
	RespondSuccess(w, http.StatusOK, map[string]string{"status": "saved"})
}

type reviewDTO struct {
	ID        uuid.UUID `json:"id"`
	UserID    uuid.UUID `json:"user_id"`
	Rating    int       `json:"rating"`
	Comment   string    `json:"comment"`
	CreatedAt time.Time `json:"created_at"`
}

func (h *ReviewHandler) List(w http.ResponseWriter, r *http.Request) {
	profileID, appErr := profileIDFromPath(r)
	if appErr != nil {
		RespondAppError(w, appErr, nil)
		return
	}

	reviews, err := h.reviews.ListByProfile(r.Context(), profileID)
	if err != nil {
		RespondDomainError(w, err)
		return
	}

	dtos := make([]reviewDTO, 0, len(reviews))
	for _, rv := range reviews {
		dtos = append(dtos, reviewDTO{
			ID:        rv.ID,
			UserID:    rv.UserID,
			Rating:    rv.Rating,
			Comment:   rv.Comment,
			CreatedAt: rv.CreatedAt,
		})
	}
	RespondSuccess(w, http.StatusOK, map[string]any{"reviews": dtos})
}

func (h *ReviewHandler) Like(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		RespondAppError(w, ErrMissingToken, nil)
		return
	}
	profileID, appErr := profileIDFromPath(r)
	if appErr != nil {
		RespondAppError(w, appErr, nil)
		return
	}

	created, err := h.reviews.Like(r.Context(), profileID, userID)
	if err != nil {
		RespondDomainError(w, err)
		return
	}
	RespondSuccess(w, http.StatusOK, map[string]bool{"liked": true, "created": created})
}

func (h *ReviewHandler) Unlike(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		RespondAppError(w, ErrMissingToken, nil)
		return
	}
	profileID, appErr := profileIDFromPath(r)
	if appErr != nil {
		RespondAppError(w, appErr, nil)
		return
	}

	if err := h.reviews.Unlike(r.Context(), profileID, userID); err != nil {
		RespondDomainError(w, err)
		return
	}
	RespondSuccess(w, http.StatusOK, map[string]bool{"liked": false})
}

func (h *ReviewHandler) Likes(w http.ResponseWriter, r *http.Request) {
	profileID, appErr := profileIDFromPath(r)
	if appErr != nil {
		RespondAppError(w, appErr, nil)
		return
	}

	count, err := h.reviews.LikeCount(r.Context(), profileID)
	if err != nil {
		RespondDomainError(w, err)
		return
	}

	resp := map[string]any{"count": count}
	if userID, ok := auth.UserIDFromContext(r.Context()); ok {
		liked, err := h.reviews.Liked(r.Context(), profileID, userID)
		if err == nil {
			resp["liked"] = liked
		}
	}
	RespondSuccess(w, http.StatusOK, resp)
}
