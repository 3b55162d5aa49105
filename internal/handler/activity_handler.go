package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/meetx/internal/activity"
	"github.com/hitoshi/meetx/internal/model"
)

// ActivityServiceInterface はアクティビティハンドラーが必要とするサービスインターフェース。
type ActivityServiceInterface interface {
	List(ctx context.Context) ([]*model.Activity, error)
	Get(ctx context.Context, id string) (*model.Activity, error)
	Create(ctx context.Context, creatorID string, in activity.CreateInput) (*model.Activity, error)
	Update(ctx context.Context, id string, patch model.ActivityPatch) (*model.Activity, error)
	Delete(ctx context.Context, id string) error
}

// ActivityHandler はアクティビティ管理のHTTPハンドラー。
type ActivityHandler struct {
	service ActivityServiceInterface
}

// NewActivityHandler はActivityHandlerを生成する。
func NewActivityHandler(service ActivityServiceInterface) *ActivityHandler {
	return &ActivityHandler{service: service}
}

// activityResponse はアクティビティ情報のAPIレスポンス。
type activityResponse struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Location    string    `json:"location"`
	Date        string    `json:"date"`
	Time        string    `json:"time"`
	Capacity    int       `json:"capacity"`
	CreatedBy   *string   `json:"createdBy"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// ListActivities はアクティビティ一覧を返す。
// GET /api/activities
func (h *ActivityHandler) ListActivities(w http.ResponseWriter, r *http.Request) {
	activities, err := h.service.List(r.Context())
	if err != nil {
		handleServiceError(w, err)
		return
	}

	resp := make([]activityResponse, len(activities))
	for i, a := range activities {
		resp[i] = toActivityResponse(a)
	}
	writeJSON(w, http.StatusOK, resp)
}

// GetActivity はアクティビティ詳細を返す。
// GET /api/activities/{id}
func (h *ActivityHandler) GetActivity(w http.ResponseWriter, r *http.Request) {
	a, err := h.service.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toActivityResponse(a))
}

// CreateActivity はアクティビティを作成する。
// POST /api/activities
func (h *ActivityHandler) CreateActivity(w http.ResponseWriter, r *http.Request) {
	userID, ok := callerID(w, r)
	if !ok {
		return
	}

	var req createActivityRequest
	if apiErr := decodeJSON(w, r, &req); apiErr != nil {
		handleServiceError(w, apiErr)
		return
	}
	if err := req.Validate(); err != nil {
		handleServiceError(w, validationFailure(err))
		return
	}

	in := activity.CreateInput{
		Title:       req.Title,
		Description: req.Description,
		Location:    req.Location,
		Date:        req.Date,
		Time:        req.Time,
	}
	if req.Capacity != nil {
		in.Capacity = *req.Capacity
	}

	a, err := h.service.Create(r.Context(), userID, in)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toActivityResponse(a))
}

// UpdateActivity はアクティビティの指定フィールドを更新する。
// PUT /api/activities/{id}
func (h *ActivityHandler) UpdateActivity(w http.ResponseWriter, r *http.Request) {
	var req updateActivityRequest
	if apiErr := decodeJSON(w, r, &req); apiErr != nil {
		handleServiceError(w, apiErr)
		return
	}
	if err := req.Validate(); err != nil {
		handleServiceError(w, validationFailure(err))
		return
	}

	a, err := h.service.Update(r.Context(), chi.URLParam(r, "id"), req.patch())
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toActivityResponse(a))
}

// DeleteActivity はアクティビティを削除する。関連する予約も削除される。
// DELETE /api/activities/{id}
func (h *ActivityHandler) DeleteActivity(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, messageResponse{Message: "Activity removed"})
}

func toActivityResponse(a *model.Activity) activityResponse {
	return activityResponse{
		ID:          a.ID,
		Title:       a.Title,
		Description: a.Description,
		Location:    a.Location,
		Date:        a.Date,
		Time:        a.Time,
		Capacity:    a.Capacity,
		CreatedBy:   a.CreatedBy,
		CreatedAt:   a.CreatedAt,
		UpdatedAt:   a.UpdatedAt,
	}
}
