package model

import "time"

type AppointmentStatus string

const (
	StatusScheduled AppointmentStatus = "scheduled"
	StatusCancelled AppointmentStatus = "cancelled"
	StatusCompleted AppointmentStatus = "completed"
)

type Appointment struct {
	ID           int64
	StylistID    int64
	ClientID     int64
	ServiceID    int64
	Date         Date
	Start        MinuteOfDay
	End          MinuteOfDay
	Status       AppointmentStatus
	ReminderSent bool
	Notes        string
	CreatedAt    time.Time
}

// ModifiedDuration reports whether the booked length differs from the
// service default. Display concern only; placement checks use Start/End.
func (a Appointment) ModifiedDuration(serviceMinutes int) bool {
	return int(a.End-a.Start) != serviceMinutes
}

// AppointmentDetail is the read model used by the dispatch cycle: one
// appointment joined with the client and service it references.
type AppointmentDetail struct {
	Appointment
	ClientName  string
	ClientPhone string
	ServiceName string
}
