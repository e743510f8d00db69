package http

import (
	"rentrush-backend/internal/domain"
	"rentrush-backend/internal/service"
	"rentrush-backend/internal/utils"
)

// BookingResponse is the wire form of a booking. Window endpoints are
// split into the date and clock fields clients submit.
type BookingResponse struct {
	ID              string                `json:"id"`
	CarID           string                `json:"carId"`
	RenterID        string                `json:"renterId"`
	ShowroomID      string                `json:"showroomId"`
	RentalStartDate string                `json:"rentalStartDate"`
	RentalStartTime string                `json:"rentalStartTime"`
	RentalEndDate   string                `json:"rentalEndDate"`
	RentalEndTime   string                `json:"rentalEndTime"`
	TotalPrice      int64                 `json:"totalPrice"`
	Status          domain.BookingStatus  `json:"status"`
	InvoiceStatus   domain.InvoiceStatus  `json:"invoiceStatus"`
	Price           *utils.PriceBreakdown `json:"price,omitempty"`
	InvoiceURL      string                `json:"invoiceUrl,omitempty"`
	Car             *domain.Car           `json:"car,omitempty"`
	Showroom        *domain.User          `json:"showroom,omitempty"`
}

func MapBooking(b *domain.Booking) *BookingResponse {
	if b == nil {
		return nil
	}
	out := &BookingResponse{
		ID:              b.ID.String(),
		CarID:           b.CarID.String(),
		RenterID:        b.RenterID.String(),
		ShowroomID:      b.ShowroomID.String(),
		RentalStartDate: utils.FormatDate(b.Window.Start),
		RentalStartTime: utils.FormatClock(b.Window.Start),
		RentalEndDate:   utils.FormatDate(b.Window.End),
		RentalEndTime:   utils.FormatClock(b.Window.End),
		TotalPrice:      b.TotalPrice,
		Status:          b.Status,
		InvoiceStatus:   b.InvoiceStatus,
	}
	if b.BilledDays > 0 {
		price := utils.BookingPrice(b)
		out.Price = &price
	}
	return out
}

func MapBookingResult(res *service.BookingResult) *BookingResponse {
	if res == nil {
		return nil
	}
	out := MapBooking(res.Booking)
	if out == nil {
		return nil
	}
	price := res.Price
	out.Price = &price
	out.InvoiceURL = res.InvoiceURL
	return out
}

func MapBookingDetail(d *domain.BookingDetail) *BookingResponse {
	out := MapBooking(&d.Booking)
	out.Car = d.Car
	out.Showroom = d.Showroom
	return out
}

func MapBookingDetails(details []domain.BookingDetail) []*BookingResponse {
	out := make([]*BookingResponse, len(details))
	for i := range details {
		out[i] = MapBookingDetail(&details[i])
	}
	return out
}
