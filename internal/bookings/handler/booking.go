package handler

import (
	"encoding/json"
	"net/http"

	"bookfast/internal/bookings/service"
	apperrors "bookfast/pkg/errors"
	httputil "bookfast/pkg/http"
	"bookfast/pkg/logger"
	"bookfast/pkg/middleware"
	"bookfast/pkg/model"

	"github.com/julienschmidt/httprouter"
)

type BookingHandler struct {
	service service.BookingService
	log     *logger.Logger
}

func NewBookingHandler(service service.BookingService, log *logger.Logger) *BookingHandler {
	return &BookingHandler{
		service: service,
		log:     log,
	}
}

type ConflictResponse struct {
	Conflict bool `json:"conflict"`
}

func (h *BookingHandler) Create(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	actor, _ := middleware.ActorFromContext(r.Context())

	var req model.BookingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, "Create", apperrors.InvalidInput("Invalid request body"))
		return
	}

	booking, err := h.service.Create(r.Context(), actor, &req)
	if err != nil {
		h.writeError(w, "Create", err)
		return
	}

	if err := httputil.WriteCreated(w, booking); err != nil {
		h.log.Error("failed to write created response", "handler", "Create", "operation", "WriteCreated", "error", err)
	}
}

func (h *BookingHandler) GetByID(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	actor, _ := middleware.ActorFromContext(r.Context())

	booking, err := h.service.GetByID(r.Context(), actor, ps.ByName("id"))
	if err != nil {
		h.writeError(w, "GetByID", err)
		return
	}

	if err := httputil.WriteSuccess(w, booking); err != nil {
		h.log.Error("failed to write success response", "handler", "GetByID", "operation", "WriteSuccess", "error", err)
	}
}

func (h *BookingHandler) ListMine(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	actor, _ := middleware.ActorFromContext(r.Context())

	filter, err := filterFromQuery(r)
	if err != nil {
		h.writeError(w, "ListMine", err)
		return
	}

	bookings, total, err := h.service.ListMine(r.Context(), actor, filter)
	if err != nil {
		h.writeError(w, "ListMine", err)
		return
	}

	if err := httputil.WritePaginated(w, bookings, total, filter.Limit, filter.Offset); err != nil {
		h.log.Error("failed to write paginated response", "handler", "ListMine", "operation", "WritePaginated", "error", err)
	}
}

func (h *BookingHandler) ListAll(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	actor, _ := middleware.ActorFromContext(r.Context())

	filter, err := filterFromQuery(r)
	if err != nil {
		h.writeError(w, "ListAll", err)
		return
	}
	filter.ResourceID = r.URL.Query().Get("resource_id")
	filter.UserID = r.URL.Query().Get("user_id")

	bookings, total, err := h.service.ListAll(r.Context(), actor, filter)
	if err != nil {
		h.writeError(w, "ListAll", err)
		return
	}

	if err := httputil.WritePaginated(w, bookings, total, filter.Limit, filter.Offset); err != nil {
		h.log.Error("failed to write paginated response", "handler", "ListAll", "operation", "WritePaginated", "error", err)
	}
}

func (h *BookingHandler) ListByResource(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	filter, err := filterFromQuery(r)
	if err != nil {
		h.writeError(w, "ListByResource", err)
		return
	}

	bookings, total, err := h.service.ListByResource(r.Context(), ps.ByName("id"), filter)
	if err != nil {
		h.writeError(w, "ListByResource", err)
		return
	}

	if err := httputil.WritePaginated(w, bookings, total, filter.Limit, filter.Offset); err != nil {
		h.log.Error("failed to write paginated response", "handler", "ListByResource", "operation", "WritePaginated", "error", err)
	}
}

func (h *BookingHandler) Update(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	actor, _ := middleware.ActorFromContext(r.Context())

	var update model.BookingUpdate
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
		h.writeError(w, "Update", apperrors.InvalidInput("Invalid request body"))
		return
	}

	booking, err := h.service.Update(r.Context(), actor, ps.ByName("id"), &update)
	if err != nil {
		h.writeError(w, "Update", err)
		return
	}

	if err := httputil.WriteSuccess(w, booking); err != nil {
		h.log.Error("failed to write success response", "handler", "Update", "operation", "WriteSuccess", "error", err)
	}
}

// Cancel backs DELETE. Bookings are never removed, only moved to cancelled.
func (h *BookingHandler) Cancel(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	actor, _ := middleware.ActorFromContext(r.Context())

	booking, err := h.service.Cancel(r.Context(), actor, ps.ByName("id"))
	if err != nil {
		h.writeError(w, "Cancel", err)
		return
	}

	if err := httputil.WriteSuccess(w, booking); err != nil {
		h.log.Error("failed to write success response", "handler", "Cancel", "operation", "WriteSuccess", "error", err)
	}
}

func (h *BookingHandler) CheckConflict(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var check model.ConflictCheck
	if err := json.NewDecoder(r.Body).Decode(&check); err != nil {
		h.writeError(w, "CheckConflict", apperrors.InvalidInput("Invalid request body"))
		return
	}

	conflict, err := h.service.HasConflict(r.Context(), &check)
	if err != nil {
		h.writeError(w, "CheckConflict", err)
		return
	}

	if err := httputil.WriteSuccess(w, ConflictResponse{Conflict: conflict}); err != nil {
		h.log.Error("failed to write success response", "handler", "CheckConflict", "operation", "WriteSuccess", "error", err)
	}
}

func (h *BookingHandler) RegisterRoutes(router *httprouter.Router) {
	router.POST("/api/v1/bookings", h.Create)
	router.GET("/api/v1/bookings", h.ListMine)
	router.GET("/api/v1/bookings/all", h.ListAll)
	router.POST("/api/v1/bookings/check-conflict", h.CheckConflict)
	router.GET("/api/v1/bookings/id/:id", h.GetByID)
	router.PATCH("/api/v1/bookings/id/:id", h.Update)
	router.DELETE("/api/v1/bookings/id/:id", h.Cancel)
	router.GET("/api/v1/resources/:id/bookings", h.ListByResource)
}

func (h *BookingHandler) writeError(w http.ResponseWriter, handler string, err error) {
	if writeErr := httputil.WriteError(w, err); writeErr != nil {
		h.log.Error("failed to write error response", "handler", handler, "operation", "WriteError", "error", writeErr)
	}
}

func filterFromQuery(r *http.Request) (model.BookingFilter, error) {
	limit, offset, err := httputil.ExtractLimitOffset(r)
	if err != nil {
		return model.BookingFilter{}, err
	}
	from, err := httputil.ExtractTime(r, "from")
	if err != nil {
		return model.BookingFilter{}, err
	}
	to, err := httputil.ExtractTime(r, "to")
	if err != nil {
		return model.BookingFilter{}, err
	}

	filter := model.BookingFilter{
		From:   from,
		To:     to,
		Limit:  limit,
		Offset: offset,
	}

	switch status := model.BookingStatus(r.URL.Query().Get("status")); status {
	case "":
	case model.StatusConfirmed, model.StatusCancelled:
		filter.Status = status
	default:
		return model.BookingFilter{}, apperrors.InvalidInput("invalid status parameter: " + string(status))
	}

	return filter, nil
}
