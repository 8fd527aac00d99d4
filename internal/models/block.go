package models

import "cloud.google.com/go/civil"

// Block marks time of the agenda as unavailable. A full-day block has no Span.
type Block struct {
	ID      uint       `json:"id"`
	Date    civil.Date `json:"date"`
	FullDay bool       `json:"full_day"`
	Span    *Interval  `json:"span,omitempty"`
	Reason  string     `json:"reason,omitempty"`
}

func (b Block) IsPartial() bool {
	return !b.FullDay && b.Span != nil
}
