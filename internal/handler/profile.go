package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/sourpls22-ux/marketplace-backend/internal/auth"
	"github.com/sourpls22-ux/marketplace-backend/internal/domain"
	"github.com/sourpls22-ux/marketplace-backend/internal/logging"
	"github.com/sourpls22-ux/marketplace-backend/internal/service"
)

type profileStore interface {
	Create(ctx context.Context, p *domain.Profile) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Profile, error)
	ListActive(ctx context.Context, city string, limit, offset int) ([]domain.Profile, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]domain.Profile, error)
	Update(ctx context.Context, p *domain.Profile) error
	Delete(ctx context.Context, id, userID uuid.UUID) error
}

type activator interface {
	Activate(ctx context.Context, profileID, userID uuid.UUID) (*service.ActivationResult, error)
	Deactivate(ctx context.Context, profileID, userID uuid.UUID) error
}

type ProfileHandler struct {
	profiles   profileStore
	activation activator
}

func NewProfileHandler(profiles profileStore, activation activator) *ProfileHandler {
	return &ProfileHandler{profiles: profiles, activation: activation}
}

type profileRequest struct {
	Name        string          `json:"name"`
	Age         int             `json:"age"`
	City        string          `json:"city"`
	Country     string          `json:"country"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	MediaURL    *string         `json:"media_url"`
}

func (r profileRequest) Validate() []FieldError {
	var errs []FieldError
	if r.Name == "" {
		errs = append(errs, FieldError{Field: "name", Message: "required"})
	}
	if r.Age < 18 {
		errs = append(errs, FieldError{Field: "age", Message: "must be at least 18"})
	}
	if r.City == "" {
		errs = append(errs, FieldError{Field: "city", Message: "required"})
	}
	if r.Price.IsNegative() {
		errs = append(errs, FieldError{Field: "price", Message: "must not be negative"})
	}
	return errs
}

type profileDTO struct {
	ID             uuid.UUID       `json:"id"`
	UserID         uuid.UUID       `json:"user_id"`
	Name           string          `json:"name"`
	Age            int             `json:"age"`
	City           string          `json:"city"`
	Country        string          `json:"country"`
	Description    string          `json:"description"`
	Price          decimal.Decimal `json:"price"`
	MediaURL       *string         `json:"media_url"`
	IsActive       bool            `json:"is_active"`
	BoostExpiresAt *time.Time      `json:"boost_expires_at"`
	CreatedAt      time.Time       `json:"created_at"`
}

func toProfileDTO(p domain.Profile) profileDTO {
	return profileDTO{
		ID:             p.ID,
		UserID:         p.UserID,
		Name:           p.Name,
		Age:            p.Age,
		City:           p.City,
		Country:        p.Country,
		Description:    p.Description,
		Price:          p.Price,
		MediaURL:       p.MediaURL,
		IsActive:       p.IsActive,
		BoostExpiresAt: p.BoostExpiresAt,
		CreatedAt:      p.CreatedAt,
	}
}

func (h *ProfileHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		RespondAppError(w, ErrMissingToken, nil)
		return
	}

	var req profileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RespondAppError(w, ErrInvalidRequest, nil)
		return
	}
	if fields := req.Validate(); len(fields) > 0 {
		RespondValidationError(w, fields)
		return
	}

	profile := &domain.Profile{
		ID:          uuid.New(),
		UserID:      userID,
		Name:        req.Name,
		Age:         req.Age,
		City:        req.City,
		Country:     req.Country,
		Description: req.Description,
		Price:       req.Price,
		MediaURL:    req.MediaURL,
		CreatedAt:   time.Now().UTC(),
	}
	if err := h.profiles.Create(r.Context(), profile); err != nil {
		logging.FromContext(r.Context()).Error("failed to create profile", "error", err)
		RespondDomainError(w, err)
		return
	}

	RespondSuccess(w, http.StatusCreated, toProfileDTO(*profile))
}

func (h *ProfileHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit := parsePositiveInt(q.Get("limit"), 20)
	if limit > 100 {
		limit = 100
	}
	offset := parsePositiveInt(q.Get("offset"), 0)

	profiles, err := h.profiles.ListActive(r.Context(), q.Get("city"), limit, offset)
	if err != nil {
		logging.FromContext(r.Context()).Error("failed to list profiles", "error", err)
		RespondDomainError(w, err)
		return
	}

	dtos := make([]profileDTO, 0, len(profiles))
	for _, p := range profiles {
		dtos = append(dtos, toProfileDTO(p))
	}
	RespondSuccess(w, http.StatusOK, map[string]any{"profiles": dtos})
}

func (h *ProfileHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	id, appErr := profileIDFromPath(r)
	if appErr != nil {
		RespondAppError(w, appErr, nil)
		return
	}

	profile, err := h.profiles.GetByID(r.Context(), id)
	if err != nil {
		RespondDomainError(w, err)
		return
	}
	RespondSuccess(w, http.StatusOK, toProfileDTO(*profile))
}

func (h *ProfileHandler) ListMine(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		RespondAppError(w, ErrMissingToken, nil)
		return
	}

	profiles, err := h.profiles.ListByUser(r.Context(), userID)
	if err != nil {
		logging.FromContext(r.Context()).Error("failed to list own profiles", "error", err)
		RespondDomainError(w, err)
		return
	}

	dtos := make([]profileDTO, 0, len(profiles))
	for _, p := range profiles {
		dtos = append(dtos, toProfileDTO(p))
	}
	RespondSuccess(w, http.StatusOK, map[string]any{"profiles": dtos})
}

func (h *ProfileHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		RespondAppError(w, ErrMissingToken, nil)
		return
	}
	id, appErr := profileIDFromPath(r)
	if appErr != nil {
		RespondAppError(w, appErr, nil)
		return
	}

	var req profileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RespondAppError(w, ErrInvalidRequest, nil)
		return
	}
	if fields := req.Validate(); len(fields) > 0 {
		RespondValidationError(w, fields)
		return
	}

	profile := &domain.Profile{
		ID:          id,
		UserID:      userID,
		Name:        req.Name,
		Age:         req.Age,
		City:        req.City,
		Country:     req.Country,
		Description: req.Description,
		Price:       req.Price,
		MediaURL:    req.MediaURL,
	}
	if err := h.profiles.Update(r.Context(), profile); err != nil {
		RespondDomainError(w, err)
		return
	}
	RespondSuccess(w, http.StatusOK, map[string]string{"status": "updated"})
}

func (h *ProfileHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		RespondAppError(w, ErrMissingToken, nil)
		return
	}
	id, appErr := profileIDFromPath(r)
	if appErr != nil {
		RespondAppError(w, appErr, nil)
		return
	}

	if err := h.profiles.Delete(r.Context(), id, userID); err != nil {
		RespondDomainError(w, err)
		return
	}
	RespondSuccess(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func (h *ProfileHandler) Activate(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		RespondAppError(w, ErrMissingToken, nil)
		return
	}
	id, appErr := profileIDFromPath(r)
	if appErr != nil {
		RespondAppError(w, appErr, nil)
		return
	}

	result, err := h.activation.Activate(r.Context(), id, userID)
	if err != nil {
		logging.FromContext(r.Context()).Warn("profile activation failed", "profile_id", id, "error", err)
		RespondDomainError(w, err)
		return
	}

	RespondSuccess(w, http.StatusOK, map[string]any{
		"boost_expires_at": result.BoostExpiresAt,
		"charged":          result.Charged,
	})
}

func (h *ProfileHandler) Deactivate(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		RespondAppError(w, ErrMissingToken, nil)
		return
	}
	id, appErr := profileIDFromPath(r)
	if appErr != nil {
		RespondAppError(w, appErr, nil)
		return
	}

	if err := h.activation.Deactivate(r.Context(), id, userID); err != nil {
		RespondDomainError(w, err)
		return
	}
	RespondSuccess(w, http.StatusOK, map[string]string{"status": "deactivated"})
}

func profileIDFromPath(r *http.Request) (uuid.UUID, *AppError) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		return uuid.Nil, ErrResourceNotFound
	}
	return id, nil
}

func parsePositiveInt(s string, fallback int) int {
	if s == "" {
		return fallback
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return fallback
	}
	return n
}
