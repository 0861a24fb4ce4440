package handler

import (
	"net/http"
	"strconv"

	"bookfast/internal/resources/service"
	apperrors "bookfast/pkg/errors"
	httputil "bookfast/pkg/http"
	"bookfast/pkg/logger"
	"bookfast/pkg/middleware"
	"bookfast/pkg/model"

	"github.com/julienschmidt/httprouter"
)

// ResourceHandler serves the read-only catalog clients browse before joining
// a resource channel.
type ResourceHandler struct {
	service service.ResourceService
	log     *logger.Logger
}

func NewResourceHandler(service service.ResourceService, log *logger.Logger) *ResourceHandler {
	return &ResourceHandler{
		service: service,
		log:     log,
	}
}

func (h *ResourceHandler) List(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	actor, _ := middleware.ActorFromContext(r.Context())

	filter, err := resourceFilterFromQuery(r)
	if err != nil {
		h.writeError(w, "List", err)
		return
	}

	resources, err := h.service.List(r.Context(), actor, filter)
	if err != nil {
		h.writeError(w, "List", err)
		return
	}

	if err := httputil.WriteSuccess(w, resources); err != nil {
		h.log.Error("failed to write success response", "handler", "List", "operation", "WriteSuccess", "error", err)
	}
}

func (h *ResourceHandler) GetByID(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	resource, err := h.service.GetByID(r.Context(), ps.ByName("id"))
	if err != nil {
		h.writeError(w, "GetByID", err)
		return
	}

	if err := httputil.WriteSuccess(w, resource); err != nil {
		h.log.Error("failed to write success response", "handler", "GetByID", "operation", "WriteSuccess", "error", err)
	}
}

func (h *ResourceHandler) RegisterRoutes(router *httprouter.Router) {
	router.GET("/api/v1/resources", h.List)
	router.GET("/api/v1/resources/:id", h.GetByID)
}

func (h *ResourceHandler) writeError(w http.ResponseWriter, handler string, err error) {
	if writeErr := httputil.WriteError(w, err); writeErr != nil {
		h.log.Error("failed to write error response", "handler", handler, "operation", "WriteError", "error", writeErr)
	}
}

func resourceFilterFromQuery(r *http.Request) (service.ResourceFilter, error) {
	query := r.URL.Query()
	filter := service.ResourceFilter{
		Type:   model.ResourceType(query.Get("type")),
		Search: query.Get("search"),
	}

	var err error
	if filter.MinCapacity, err = intParam(query.Get("min_capacity"), "min_capacity"); err != nil {
		return service.ResourceFilter{}, err
	}
	if filter.MaxCapacity, err = intParam(query.Get("max_capacity"), "max_capacity"); err != nil {
		return service.ResourceFilter{}, err
	}
	if s := query.Get("include_inactive"); s != "" {
		if filter.IncludeInactive, err = strconv.ParseBool(s); err != nil {
			return service.ResourceFilter{}, apperrors.InvalidInput("invalid include_inactive parameter: " + s)
		}
	}
	return filter, nil
}

func intParam(s, name string) (int, error) {
	if s == "" {
		return 0, nil
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return 0, apperrors.InvalidInput("invalid " + name + " parameter: " + s)
	}
	return v, nil
}
