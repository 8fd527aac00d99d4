package models

import "cloud.google.com/go/civil"

type Notification struct {
	ID      uint       `json:"id"`
	Title   string     `json:"title"`
	Client  string     `json:"client"`
	Date    civil.Date `json:"date"`
	Time    TimeOfDay  `json:"time"`
	Service string     `json:"service"`
	Read    bool       `json:"read"`
}
