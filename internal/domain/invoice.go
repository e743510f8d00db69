package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// InvoiceSnapshot carries everything printed on an invoice, captured at
// issue time so a later car or price change does not alter it.
type InvoiceSnapshot struct {
	BookingID    uuid.UUID
	IssuedAt     time.Time
	RenterName   string
	RenterEmail  string
	RenterPhone  string
	ShowroomName string
	CarBrand     string
	CarModel     string
	CarColor     string
	CarYear      int
	Window       Window
	Days         int64
	DailyRate    int64
	Total        int64
}

// InvoiceKey is the document name an invoice is stored under.
func InvoiceKey(bookingID uuid.UUID) string {
	return fmt.Sprintf("invoice_%s.pdf", bookingID)
}
