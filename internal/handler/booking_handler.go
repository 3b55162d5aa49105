package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/meetx/internal/model"
)

// BookingServiceInterface は予約ハンドラーが必要とするサービスインターフェース。
// 所有者確認はサービス層で行う。
type BookingServiceInterface interface {
	Create(ctx context.Context, userID, activityID string) (*model.Booking, error)
	ListForUser(ctx context.Context, userID string) ([]model.BookingWithActivity, error)
	GetByID(ctx context.Context, callerID, bookingID string) (*model.BookingWithActivity, error)
	UpdateStatus(ctx context.Context, callerID, bookingID string, status model.BookingStatus) (*model.BookingWithActivity, error)
	Delete(ctx context.Context, callerID, bookingID string) error
}

// BookingHandler は予約管理のHTTPハンドラー。
type BookingHandler struct {
	service BookingServiceInterface
}

// NewBookingHandler はBookingHandlerを生成する。
func NewBookingHandler(service BookingServiceInterface) *BookingHandler {
	return &BookingHandler{service: service}
}

// bookingResponse は予約情報のAPIレスポンス。
// 作成直後のレスポンスにはactivityを含めない。
type bookingResponse struct {
	ID         string                   `json:"id"`
	UserID     string                   `json:"userId"`
	ActivityID string                   `json:"activityId"`
	Status     string                   `json:"status"`
	CreatedAt  time.Time                `json:"createdAt"`
	UpdatedAt  time.Time                `json:"updatedAt"`
	Activity   *activitySummaryResponse `json:"activity,omitempty"`
}

// activitySummaryResponse は予約に結合するアクティビティの表示項目。
type activitySummaryResponse struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Location    string `json:"location"`
	Date        string `json:"date"`
	Time        string `json:"time"`
}

// CreateBooking は予約を作成する。
// POST /api/bookings
func (h *BookingHandler) CreateBooking(w http.ResponseWriter, r *http.Request) {
	userID, ok := callerID(w, r)
	if !ok {
		return
	}

	var req createBookingRequest
	if apiErr := decodeJSON(w, r, &req); apiErr != nil {
		handleServiceError(w, apiErr)
		return
	}
	if err := req.Validate(); err != nil {
		handleServiceError(w, validationFailure(err))
		return
	}

	b, err := h.service.Create(r.Context(), userID, req.ActivityID)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toBookingResponse(b, nil))
}

// ListMyBookings はログインユーザーの予約一覧を新しい順に返す。
// GET /api/bookings/me
func (h *BookingHandler) ListMyBookings(w http.ResponseWriter, r *http.Request) {
	userID, ok := callerID(w, r)
	if !ok {
		return
	}

	bookings, err := h.service.ListForUser(r.Context(), userID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	resp := make([]bookingResponse, len(bookings))
	for i := range bookings {
		resp[i] = toBookingWithActivityResponse(&bookings[i])
	}
	writeJSON(w, http.StatusOK, resp)
}

// GetBooking は予約詳細を返す。
// GET /api/bookings/{id}
func (h *BookingHandler) GetBooking(w http.ResponseWriter, r *http.Request) {
	userID, ok := callerID(w, r)
	if !ok {
		return
	}

	b, err := h.service.GetByID(r.Context(), userID, chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toBookingWithActivityResponse(b))
}

// UpdateBookingStatus は予約状態を更新する。状態間の遷移制約はない。
// PATCH /api/bookings/{id}
func (h *BookingHandler) UpdateBookingStatus(w http.ResponseWriter, r *http.Request) {
	userID, ok := callerID(w, r)
	if !ok {
		return
	}

	var req updateBookingStatusRequest
	if apiErr := decodeJSON(w, r, &req); apiErr != nil {
		handleServiceError(w, apiErr)
		return
	}
	if err := req.Validate(); err != nil {
		handleServiceError(w, validationFailure(err))
		return
	}

	b, err := h.service.UpdateStatus(r.Context(), userID, chi.URLParam(r, "id"), model.BookingStatus(req.Status))
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toBookingWithActivityResponse(b))
}

// DeleteBooking は予約を削除する。
// DELETE /api/bookings/{id}
func (h *BookingHandler) DeleteBooking(w http.ResponseWriter, r *http.Request) {
	userID, ok := callerID(w, r)
	if !ok {
		return
	}

	if err := h.service.Delete(r.Context(), userID, chi.URLParam(r, "id")); err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, messageResponse{Message: "Booking removed"})
}

func toBookingResponse(b *model.Booking, a *activitySummaryResponse) bookingResponse {
	return bookingResponse{
		ID:         b.ID,
		UserID:     b.UserID,
		ActivityID: b.ActivityID,
		Status:     string(b.Status),
		CreatedAt:  b.CreatedAt,
		UpdatedAt:  b.UpdatedAt,
		Activity:   a,
	}
}

func toBookingWithActivityResponse(b *model.BookingWithActivity) bookingResponse {
	return toBookingResponse(&b.Booking, &activitySummaryResponse{
		ID:          b.Activity.ID,
		Title:       b.Activity.Title,
		Description: b.Activity.Description,
		Location:    b.Activity.Location,
		Date:        b.Activity.Date,
		Time:        b.Activity.Time,
	})
}
