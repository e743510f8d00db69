package http

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Handlers groups the REST handlers mounted by NewRouter. Documents is
// nil when invoices live in MinIO, which serves its own links.
type Handlers struct {
	Bookings      *BookingHandler
	Cars          *CarHandler
	Notifications *NotificationHandler
	Documents     *DocumentHandler
}

// NewRouter registers every route under the name its security level is
// configured by.
func NewRouter(h Handlers, auth *AuthMiddleware, metricsPath string) *mux.Router {
	router := mux.NewRouter()
	router.Use(RecoveryMiddleware, LoggingMiddleware, auth.Handler)

	router.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}).Methods(http.MethodGet).Name("healthz")
	if metricsPath != "" {
		router.Handle(metricsPath, promhttp.Handler()).Methods(http.MethodGet).Name("metrics")
	}

	api := router.PathPrefix("/api").Subrouter()

	bookings := api.PathPrefix("/bookcar").Subrouter()
	bookings.HandleFunc("/book", h.Bookings.BookCar).Methods(http.MethodPost).Name("booking.create")
	bookings.HandleFunc("/update/{bookingId}", h.Bookings.UpdateBooking).Methods(http.MethodPut).Name("booking.update")
	bookings.HandleFunc("/extend/{bookingId}", h.Bookings.ExtendBooking).Methods(http.MethodPut).Name("booking.extend")
	bookings.HandleFunc("/cancel/{bookingId}", h.Bookings.CancelBooking).Methods(http.MethodDelete).Name("booking.cancel")
	bookings.HandleFunc("/return/{bookingId}", h.Bookings.ProcessReturn).Methods(http.MethodPost).Name("booking.return")
	bookings.HandleFunc("/my-bookings", h.Bookings.ListMyBookings).Methods(http.MethodGet).Name("booking.mine")
	bookings.HandleFunc("/showroom-bookings", h.Bookings.ListShowroomBookings).Methods(http.MethodGet).Name("booking.showroom_index")
	bookings.HandleFunc("/invoice/{bookingId}", h.Bookings.RegenerateInvoice).Methods(http.MethodGet).Name("booking.invoice")
	bookings.HandleFunc("/invoices/{bookingId}", h.Bookings.DownloadInvoice).Methods(http.MethodGet).Name("booking.invoice_file")
	bookings.HandleFunc("/{bookingId}", h.Bookings.GetBooking).Methods(http.MethodGet).Name("booking.get")

	cars := api.PathPrefix("/car").Subrouter()
	cars.HandleFunc("/add", h.Cars.AddCar).Methods(http.MethodPost).Name("car.add")
	cars.HandleFunc("/update/{id}", h.Cars.UpdateCar).Methods(http.MethodPut).Name("car.update")
	cars.HandleFunc("/delete/{id}", h.Cars.RemoveCar).Methods(http.MethodDelete).Name("car.delete")
	cars.HandleFunc("/get-cars", h.Cars.ListMyCars).Methods(http.MethodGet).Name("car.mine")
	cars.HandleFunc("/get-all-cars", h.Cars.ListCars).Methods(http.MethodGet).Name("car.list")
	cars.HandleFunc("/search", h.Cars.SearchCars).Methods(http.MethodGet).Name("car.search")
	cars.HandleFunc("/return", h.Cars.UpdateReturnDetails).Methods(http.MethodPost).Name("car.return_details")
	cars.HandleFunc("/maintenance", h.Cars.AddMaintenanceLog).Methods(http.MethodPost).Name("car.maintenance")
	cars.HandleFunc("/complete-maintenance", h.Cars.CompleteMaintenance).Methods(http.MethodPost).Name("car.complete_maintenance")
	cars.HandleFunc("/inspection", h.Cars.CompleteInspection).Methods(http.MethodPost).Name("car.inspection")
	cars.HandleFunc("/{id}", h.Cars.GetCar).Methods(http.MethodGet).Name("car.get")

	notes := api.PathPrefix("/notifications").Subrouter()
	notes.HandleFunc("", h.Notifications.GetNotifications).Methods(http.MethodGet).Name("notification.list")
	notes.HandleFunc("/{id}/read", h.Notifications.MarkNotificationRead).Methods(http.MethodPut).Name("notification.read")

	if h.Documents != nil {
		api.HandleFunc("/documents/{token}", h.Documents.HandleDownload).Methods(http.MethodGet).Name("document.get")
	}

	return router
}
