package http

import (
	"fmt"
	"io"
	"net/http"

	"github.com/google/uuid"

	"rentrush-backend/internal/domain"
	"rentrush-backend/internal/invoice"
	"rentrush-backend/internal/logger"
	"rentrush-backend/internal/service"
)

type BookingHandler struct {
	bookingSvc service.BookingService
	invoiceSvc service.InvoiceService
}

func NewBookingHandler(bookingSvc service.BookingService, invoiceSvc service.InvoiceService) *BookingHandler {
	return &BookingHandler{bookingSvc: bookingSvc, invoiceSvc: invoiceSvc}
}

func (h *BookingHandler) BookCar(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	var req service.BookCarRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	res, err := h.bookingSvc.BookCar(r.Context(), p, req)
	h.writeResult(w, r, http.StatusCreated, res, err)
}

func (h *BookingHandler) UpdateBooking(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	id, err := pathID(r, "bookingId")
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req service.UpdateBookingRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	res, err := h.bookingSvc.UpdateBooking(r.Context(), p, id, req)
	h.writeResult(w, r, http.StatusOK, res, err)
}

func (h *BookingHandler) ExtendBooking(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	id, err := pathID(r, "bookingId")
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req service.ExtendBookingRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	res, err := h.bookingSvc.ExtendBooking(r.Context(), p, id, req)
	h.writeResult(w, r, http.StatusOK, res, err)
}

// writeResult answers a create, update or extend. A booking that was
// committed but whose invoice failed is still returned with the error.
func (h *BookingHandler) writeResult(w http.ResponseWriter, r *http.Request, status int, res *service.BookingResult, err error) {
	if err != nil {
		writeErrorWithBooking(w, r, err, MapBookingResult(res))
		return
	}
	writeJSON(w, status, MapBookingResult(res))
}

func (h *BookingHandler) CancelBooking(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	id, err := pathID(r, "bookingId")
	if err != nil {
		writeError(w, r, err)
		return
	}

	b, err := h.bookingSvc.CancelBooking(r.Context(), p, id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, MapBooking(b))
}

func (h *BookingHandler) ProcessReturn(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	id, err := pathID(r, "bookingId")
	if err != nil {
		writeError(w, r, err)
		return
	}

	b, err := h.bookingSvc.ProcessReturn(r.Context(), p, id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, MapBooking(b))
}

func (h *BookingHandler) GetBooking(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	id, err := pathID(r, "bookingId")
	if err != nil {
		writeError(w, r, err)
		return
	}

	detail, err := h.bookingSvc.GetBooking(r.Context(), p, id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	out := MapBookingDetail(detail)
	if url, err := h.invoiceSvc.InvoiceURL(r.Context(), &detail.Booking); err == nil {
		out.InvoiceURL = url
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *BookingHandler) ListMyBookings(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	details, err := h.bookingSvc.ListMyBookings(r.Context(), p)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"bookings": MapBookingDetails(details)})
}

func (h *BookingHandler) ListShowroomBookings(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	details, err := h.bookingSvc.ListShowroomBookings(r.Context(), p)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"bookings": MapBookingDetails(details)})
}

// RegenerateInvoice re-issues the invoice of a booking and streams it.
func (h *BookingHandler) RegenerateInvoice(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	id, err := pathID(r, "bookingId")
	if err != nil {
		writeError(w, r, err)
		return
	}

	b, err := h.invoiceSvc.RegenerateInvoice(r.Context(), p, id)
	if err != nil {
		writeErrorWithBooking(w, r, err, MapBooking(b))
		return
	}
	h.streamInvoice(w, r, p, b.ID)
}

// DownloadInvoice streams the stored invoice without re-rendering it.
func (h *BookingHandler) DownloadInvoice(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	id, err := pathID(r, "bookingId")
	if err != nil {
		writeError(w, r, err)
		return
	}
	h.streamInvoice(w, r, p, id)
}

func (h *BookingHandler) streamInvoice(w http.ResponseWriter, r *http.Request, p domain.Principal, id uuid.UUID) {
	rc, name, err := h.invoiceSvc.OpenInvoice(r.Context(), p, id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	defer rc.Close()

	w.Header().Set("Content-Type", invoice.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	w.WriteHeader(http.StatusOK)
	if _, err := io.Copy(w, rc); err != nil {
		logger.Warn("Failed to stream invoice", "bookingID", id, "error", err)
	}
}
