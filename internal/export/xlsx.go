// Package export writes the bookings list as a spreadsheet.
package export

import (
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"

	"hotelpartner/internal/models"
)

const SheetName = "Bookings"

var Columns = []string{
	"Booking ID", "Status", "Guest", "Phone", "Guests", "Check-in", "Check-out",
	"Rooms", "Amount", "Payment mode", "Paid", "Checked in", "Checked out",
}

// Bookings renders bookings to w as XLSX with a bold header row.
func Bookings(w io.Writer, bookings []models.Booking) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetName); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}
	if err := writeRow(f, 1, toCells(Columns)); err != nil {
		return err
	}
	style, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err == nil {
		end, _ := excelize.CoordinatesToCellName(len(Columns), 1)
		_ = f.SetCellStyle(SheetName, "A1", end, style)
	}

	for i := range bookings {
		if err := writeRow(f, i+2, bookingRow(&bookings[i])); err != nil {
			return err
		}
	}
	if err := f.SetPanes(SheetName, &excelize.Panes{Freeze: true, YSplit: 1, TopLeftCell: "A2", ActivePane: "bottomLeft"}); err != nil {
		return fmt.Errorf("freeze header: %w", err)
	}
	return f.Write(w)
}

func bookingRow(b *models.Booking) []any {
	var phone string
	if g, ok := b.PrimaryGuest(); ok {
		phone = g.GuestPhone
	}
	names := make([]string, 0, len(b.GuestInformation))
	for _, g := range b.GuestInformation {
		names = append(names, g.GuestName)
	}
	return []any{
		b.BookingID, b.Status, strings.Join(names, ", "), phone, len(b.GuestInformation),
		b.CheckInDate, b.CheckOutDate, b.NumberOfRoomBooks, b.BookingAmount, b.PaymentMode,
		yesNo(b.BookingPaymentDone), yesNo(b.UserCheckInStatus), yesNo(b.UserCheckOutStatus),
	}
}

func writeRow(f *excelize.File, row int, values []any) error {
	for i, v := range values {
		cell, err := excelize.CoordinatesToCellName(i+1, row)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(SheetName, cell, v); err != nil {
			return fmt.Errorf("set %s: %w", cell, err)
		}
	}
	return nil
}

func toCells(s []string) []any {
	out := make([]any, len(s))
	for i, v := range s {
		out[i] = v
	}
	return out
}

func yesNo(v bool) string {
	if v {
		return "yes"
	}
	return "no"
}
