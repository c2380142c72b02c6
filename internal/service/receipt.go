package service

import (
	"fmt"
	"strings"
	"time"

	"github.com/SeifHesham2/SwiftRide/internal/domain"
)

// ReceiptService builds receipts for completed trips.
type ReceiptService struct {
	fares *FareCalculator
}

// NewReceiptService creates a new ReceiptService.
func NewReceiptService(fares *FareCalculator) *ReceiptService {
	return &ReceiptService{fares: fares}
}

// GenerateReceipt builds the receipt of a completed trip and its settled payment.
func (s *ReceiptService) GenerateReceipt(trip *domain.Trip, payment *domain.Payment) *domain.Receipt {
	receipt := &domain.Receipt{
		TripID:           trip.ID,
		CustomerID:       trip.CustomerID,
		PickupLocation:   trip.PickupLocation,
		Destination:      trip.Destination,
		TripDate:         trip.TripDate,
		EstimatedMinutes: trip.EstimatedMinutes,
		Premium:          trip.Premium,
		HasChildSeat:     trip.HasChildSeat,
		TotalFare:        trip.FareAmount(),
		IssuedAt:         time.Now(),
	}
	if trip.DriverID != nil {
		receipt.DriverID = *trip.DriverID
	}
	if payment != nil {
		receipt.TotalFare = payment.Amount
		receipt.PaymentMethod = payment.Method
		receipt.PaymentStatus = payment.Status
	}

	return receipt
}

// FormatReceipt formats the receipt as plain text for email.
func (s *ReceiptService) FormatReceipt(receipt *domain.Receipt) string {
	var b strings.Builder

	b.WriteString("=====================================\n")
	b.WriteString("           TRIP RECEIPT\n")
	b.WriteString("=====================================\n")
	fmt.Fprintf(&b, "Trip ID:     %d\n", receipt.TripID)
	fmt.Fprintf(&b, "Date:        %s\n", receipt.TripDate.Format("Jan 02, 2006 3:04 PM"))
	fmt.Fprintf(&b, "Pickup:      %s\n", receipt.PickupLocation)
	fmt.Fprintf(&b, "Destination: %s\n", receipt.Destination)
	fmt.Fprintf(&b, "Duration:    %d min (estimated)\n", receipt.EstimatedMinutes)
	b.WriteString("\nFARE\n")
	b.WriteString("-------------------------------------\n")
	if s.fares != nil {
		fmt.Fprintf(&b, "Base fare:        %.2f\n", s.fares.cfg.BaseFare)
		if receipt.Premium {
			fmt.Fprintf(&b, "Premium:          %.2f\n", s.fares.cfg.PremiumSurcharge)
		}
		if receipt.HasChildSeat {
			fmt.Fprintf(&b, "Child seat:       %.2f\n", s.fares.cfg.ChildSeatSurcharge)
		}
	}
	fmt.Fprintf(&b, "TOTAL:            %.2f\n", receipt.TotalFare)
	b.WriteString("\nPAYMENT\n")
	b.WriteString("-------------------------------------\n")
	fmt.Fprintf(&b, "Method: %s\n", receipt.PaymentMethod)
	fmt.Fprintf(&b, "Status: %s\n", receipt.PaymentStatus)
	b.WriteString("=====================================\n")
	b.WriteString("     Thank you for riding with us!\n")

	return b.String()
}
