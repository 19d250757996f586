package models

import (
	"encoding/json"
	"fmt"
)

// BookingType selects which details variant a booking carries
type BookingType string

const (
	BookingFlight BookingType = "Flight"
	BookingHotel  BookingType = "Hotel"
	BookingRental BookingType = "Rental"
	BookingTicket BookingType = "Ticket"
)

// BookingDetails is implemented by the per-type detail structs.
type BookingDetails interface {
	BookingType() BookingType
}

// Booking is a reservation attached to a trip. Details holds the variant
// matching Type, or nil when the type is unknown or the stored details did
// not decode.
type Booking struct {
	ID      string
	Type    BookingType
	Title   string
	Date    string
	FileURL string
	Details BookingDetails

	detailsErr error
}

// DetailsError reports why stored details were dropped while decoding.
func (b Booking) DetailsError() error {
	return b.detailsErr
}

type FlightDetails struct {
	Airline          string `json:"airline,omitempty"`
	FlightNumber     string `json:"flightNumber,omitempty"`
	DepartureAirport string `json:"departureAirport,omitempty"`
	ArrivalAirport   string `json:"arrivalAirport,omitempty"`
	DepartureTime    string `json:"departureTime,omitempty"`
	ArrivalTime      string `json:"arrivalTime,omitempty"`
	Seat             string `json:"seat,omitempty"`
	ConfirmationCode string `json:"confirmationCode,omitempty"`
}

type HotelDetails struct {
	Address          string `json:"address,omitempty"`
	CheckIn          string `json:"checkIn,omitempty"`
	CheckOut         string `json:"checkOut,omitempty"`
	Nights           int    `json:"nights,omitempty"`
	ConfirmationCode string `json:"confirmationCode,omitempty"`
}

type RentalDetails struct {
	Company          string `json:"company,omitempty"`
	PickupLocation   string `json:"pickupLocation,omitempty"`
	DropoffLocation  string `json:"dropoffLocation,omitempty"`
	PickupTime       string `json:"pickupTime,omitempty"`
	DropoffTime      string `json:"dropoffTime,omitempty"`
	ConfirmationCode string `json:"confirmationCode,omitempty"`
}

type TicketDetails struct {
	Venue    string `json:"venue,omitempty"`
	Time     string `json:"time,omitempty"`
	Seat     string `json:"seat,omitempty"`
	Quantity int    `json:"quantity,omitempty"`
}

func (FlightDetails) BookingType() BookingType { return BookingFlight }
func (HotelDetails) BookingType() BookingType  { return BookingHotel }
func (RentalDetails) BookingType() BookingType { return BookingRental }
func (TicketDetails) BookingType() BookingType { return BookingTicket }

type bookingWire struct {
	ID      string          `json:"id"`
	Type    BookingType     `json:"type"`
	Title   string          `json:"title"`
	Date    string          `json:"date"`
	FileURL string          `json:"fileUrl,omitempty"`
	Details json.RawMessage `json:"details,omitempty"`
}

// MarshalJSON writes the details variant under "details"
func (b Booking) MarshalJSON() ([]byte, error) {
	w := bookingWire{ID: b.ID, Type: b.Type, Title: b.Title, Date: b.Date, FileURL: b.FileURL}
	if b.Details != nil {
		if b.Details.BookingType() != b.Type {
			return nil, fmt.Errorf("booking %s: details of type %s under tag %s", b.ID, b.Details.BookingType(), b.Type)
		}
		raw, err := json.Marshal(b.Details)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal booking details: %w", err)
		}
		w.Details = raw
	}
	return json.Marshal(w)
}

// UnmarshalJSON picks the details variant from the type tag. Unknown tags
// and details that do not fit their variant decode with nil details.
func (b *Booking) UnmarshalJSON(data []byte) error {
	var w bookingWire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	*b = Booking{ID: w.ID, Type: w.Type, Title: w.Title, Date: w.Date, FileURL: w.FileURL}

	details := newBookingDetails(w.Type)
	if details == nil || len(w.Details) == 0 || string(w.Details) == "null" {
		return nil
	}
	if err := json.Unmarshal(w.Details, details); err != nil {
		b.detailsErr = fmt.Errorf("failed to unmarshal %s details: %w", w.Type, err)
		return nil
	}
	switch d := details.(type) {
	case *FlightDetails:
		b.Details = *d
	case *HotelDetails:
		b.Details = *d
	case *RentalDetails:
		b.Details = *d
	case *TicketDetails:
		b.Details = *d
	}
	return nil
}

func newBookingDetails(t BookingType) any {
	switch t {
	case BookingFlight:
		return &FlightDetails{}
	case BookingHotel:
		return &HotelDetails{}
	case BookingRental:
		return &RentalDetails{}
	case BookingTicket:
		return &TicketDetails{}
	}
	return nil
}
