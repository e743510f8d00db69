package http

import (
	"net/http"
	"strings"

	"github.com/google/uuid"

	"rentrush-backend/internal/domain"
	"rentrush-backend/internal/service"
)

type CarHandler struct {
	carSvc service.CarService
}

func NewCarHandler(carSvc service.CarService) *CarHandler {
	return &CarHandler{carSvc: carSvc}
}

// carActionRequest is the body of the owner state actions, which name
// the car in the payload rather than the path.
type carActionRequest struct {
	CarID     string   `json:"carId"`
	Mileage   string   `json:"mileage,omitempty"`
	FuelLevel *int     `json:"fuelLevel,omitempty"`
	Passed    bool     `json:"passed,omitempty"`
	Tasks     []string `json:"tasks,omitempty"`
}

func (req carActionRequest) carID() (uuid.UUID, error) {
	if strings.TrimSpace(req.CarID) == "" {
		return uuid.Nil, domain.Reject(domain.ErrValidation, domain.ReasonMissingFields, "missing required fields: carId")
	}
	id, err := uuid.Parse(strings.TrimSpace(req.CarID))
	if err != nil {
		return uuid.Nil, domain.Wrap(domain.ErrValidation, domain.ReasonInvalidField, err, "carId %q is not a valid id", req.CarID)
	}
	return id, nil
}

func (h *CarHandler) AddCar(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	var car domain.Car
	if err := decodeJSON(w, r, &car); err != nil {
		writeError(w, r, err)
		return
	}
	car.ID = uuid.Nil
	if err := h.carSvc.AddCar(r.Context(), p, &car); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, car)
}

func (h *CarHandler) UpdateCar(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	var update domain.CarUpdate
	if err := decodeJSON(w, r, &update); err != nil {
		writeError(w, r, err)
		return
	}

	car, err := h.carSvc.UpdateCar(r.Context(), p, id, update)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, car)
}

func (h *CarHandler) RemoveCar(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.carSvc.RemoveCar(r.Context(), p, id); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (h *CarHandler) GetCar(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	car, err := h.carSvc.GetCar(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, car)
}

func (h *CarHandler) ListCars(w http.ResponseWriter, r *http.Request) {
	cars, err := h.carSvc.ListCars(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"cars": cars})
}

func (h *CarHandler) ListMyCars(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	cars, err := h.carSvc.ListMyCars(r.Context(), p)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"cars": cars})
}

func (h *CarHandler) SearchCars(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	cars, err := h.carSvc.SearchCars(r.Context(), q.Get("model"), q.Get("brand"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"cars": cars})
}

func (h *CarHandler) UpdateReturnDetails(w http.ResponseWriter, r *http.Request) {
	h.action(w, r, func(p domain.Principal, id uuid.UUID, req carActionRequest) (*domain.Car, error) {
		if req.FuelLevel == nil {
			return nil, domain.Reject(domain.ErrValidation, domain.ReasonMissingFields, "missing required fields: fuelLevel")
		}
		return h.carSvc.UpdateReturnDetails(r.Context(), p, id, req.Mileage, *req.FuelLevel)
	})
}

func (h *CarHandler) AddMaintenanceLog(w http.ResponseWriter, r *http.Request) {
	h.action(w, r, func(p domain.Principal, id uuid.UUID, req carActionRequest) (*domain.Car, error) {
		return h.carSvc.AddMaintenanceLog(r.Context(), p, id, req.Tasks)
	})
}

func (h *CarHandler) CompleteMaintenance(w http.ResponseWriter, r *http.Request) {
	h.action(w, r, func(p domain.Principal, id uuid.UUID, _ carActionRequest) (*domain.Car, error) {
		return h.carSvc.CompleteMaintenance(r.Context(), p, id)
	})
}

func (h *CarHandler) CompleteInspection(w http.ResponseWriter, r *http.Request) {
	h.action(w, r, func(p domain.Principal, id uuid.UUID, req carActionRequest) (*domain.Car, error) {
		return h.carSvc.CompleteInspection(r.Context(), p, id, req.Passed, req.Tasks)
	})
}

func (h *CarHandler) action(w http.ResponseWriter, r *http.Request, fn func(p domain.Principal, id uuid.UUID, req carActionRequest) (*domain.Car, error)) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	var req carActionRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	id, err := req.carID()
	if err != nil {
		writeError(w, r, err)
		return
	}

	car, err := fn(p, id, req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, car)
}
