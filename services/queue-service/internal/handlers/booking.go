package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/floorlinehq/floorline/services/queue-service/internal/booking"
	"github.com/floorlinehq/floorline/services/queue-service/internal/lifecycle"
	"github.com/floorlinehq/floorline/services/queue-service/internal/model"
	"github.com/floorlinehq/floorline/services/queue-service/internal/storage"
)

type BookingHandler struct {
	guard   *booking.Guard
	machine *lifecycle.Machine
	logger  *slog.Logger
}

func NewBookingHandler(guard *booking.Guard, machine *lifecycle.Machine, logger *slog.Logger) *BookingHandler {
	return &BookingHandler{guard: guard, machine: machine, logger: logger}
}

type createBookingRequest struct {
	CustomerName string  `json:"customer_name"`
	ProviderID   string  `json:"provider_id"`
	ServiceName  string  `json:"service_name"`
	Price        float64 `json:"price"`
	SlotDate     string  `json:"slot_date"`
	SlotTime     string  `json:"slot_time"`
}

type appointmentResponse struct {
	AppointmentID string  `json:"appointment_id"`
	CustomerName  string  `json:"customer_name"`
	ProviderID    string  `json:"provider_id"`
	ServiceName   string  `json:"service_name"`
	Price         float64 `json:"price"`
	SlotDate      string  `json:"slot_date"`
	SlotTime      string  `json:"slot_time"`
	Status        string  `json:"status"`
}

func toAppointmentResponse(a model.Appointment) appointmentResponse {
	return appointmentResponse{
		AppointmentID: a.ID,
		CustomerName:  a.CustomerName,
		ProviderID:    a.ProviderID,
		ServiceName:   a.ServiceName,
		Price:         a.Price,
		SlotDate:      a.SlotDate,
		SlotTime:      a.SlotTime,
		Status:        string(a.Status),
	}
}

func (h *BookingHandler) Create(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req createBookingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return
	}

	appt, err := h.guard.Reserve(r.Context(), booking.Request{
		CustomerName: req.CustomerName,
		ProviderID:   req.ProviderID,
		ServiceName:  req.ServiceName,
		Price:        req.Price,
		SlotDate:     req.SlotDate,
		SlotTime:     req.SlotTime,
	})
	if err != nil {
		writeEngineError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, toAppointmentResponse(appt))
}

type transitionRequest struct {
	AppointmentID string `json:"appointment_id"`
	ActorID       string `json:"actor_id"`
	ActorRole     string `json:"actor_role"`
	Reason        string `json:"reason,omitempty"`
}

func (h *BookingHandler) CheckIn(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, lifecycle.OpCheckIn)
}

func (h *BookingHandler) Complete(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, lifecycle.OpComplete)
}

func (h *BookingHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, lifecycle.OpCancel)
}

func (h *BookingHandler) transition(w http.ResponseWriter, r *http.Request, op lifecycle.Op) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req transitionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return
	}
	if req.AppointmentID == "" {
		http.Error(w, "appointment_id required", http.StatusBadRequest)
		return
	}

	actor := lifecycle.Actor{ID: req.ActorID, Role: req.ActorRole}
	appt, err := h.machine.Transition(r.Context(), req.AppointmentID, op, actor, req.Reason)
	if err != nil {
		writeEngineError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toAppointmentResponse(appt))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	body, err := json.Marshal(v)
	if err != nil {
		http.Error(w, "failed to build response", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(body)
}

// writeEngineError maps the engine's error taxonomy onto HTTP statuses:
// validation 400, slot conflict 409 (pick another slot), invalid transition
// 409, not found 404, store unavailable 503 (retryable).
func writeEngineError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, booking.ErrInvalidRequest):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, storage.ErrSlotTaken):
		http.Error(w, "slot already reserved, pick another slot", http.StatusConflict)
	case errors.Is(err, lifecycle.ErrInvalidTransition):
		http.Error(w, err.Error(), http.StatusConflict)
	case errors.Is(err, storage.ErrNotFound):
		http.Error(w, "appointment not found", http.StatusNotFound)
	case errors.Is(err, storage.ErrUnavailable):
		http.Error(w, "store unavailable, try again", http.StatusServiceUnavailable)
	default:
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}
