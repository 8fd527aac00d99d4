package models

import "cloud.google.com/go/civil"

type Appointment struct {
	ID uint `json:"id"`

	Date      civil.Date `json:"date"`
	StartTime TimeOfDay  `json:"start_time"`
	EndTime   TimeOfDay  `json:"end_time"`

	Client  Client  `json:"client"`
	Service Service `json:"service"`

	Status string `json:"status"`
}

func (a Appointment) Span() Interval {
	return Interval{Start: a.StartTime, End: a.EndTime}
}
