package dto

import (
	"net/url"
	"strings"
	"time"

	"cloud.google.com/go/civil"

	"github.com/BruksfildServices01/barber-dashboard/internal/domain/schedule"
	"github.com/BruksfildServices01/barber-dashboard/internal/models"
)

const whatsAppGreeting = "Hola! Te confirmo tu turno en la barbería."

type AgendaRowDTO struct {
	ID          uint       `json:"id"`
	Date        civil.Date `json:"date"`
	StartTime   string     `json:"start_time"`
	EndTime     string     `json:"end_time"`
	Status      string     `json:"status"`
	ClientName  string     `json:"client_name"`
	ClientPhone string     `json:"client_phone"`
	ServiceName string     `json:"service_name"`
	Restorable  bool       `json:"restorable"`
	WhatsAppURL string     `json:"whatsapp_url,omitempty"`
}

// WhatsAppURL builds the wa.me link for a phone; empty when there is no number.
func WhatsAppURL(phone string) string {
	p := strings.Join(strings.Fields(phone), "")
	if p == "" {
		return ""
	}
	return "https://wa.me/" + p + "?text=" + url.QueryEscape(whatsAppGreeting)
}

func AgendaRow(ap models.Appointment, now time.Time) AgendaRowDTO {
	name := ap.Client.FullName()
	if name == "" {
		name = "Cliente"
	}
	phone := ap.Client.Phone
	if phone == "" {
		phone = "Sin teléfono"
	}

	return AgendaRowDTO{
		ID:          ap.ID,
		Date:        ap.Date,
		StartTime:   ap.StartTime.String(),
		EndTime:     ap.EndTime.String(),
		Status:      ap.Status,
		ClientName:  name,
		ClientPhone: phone,
		ServiceName: ap.Service.Name,
		Restorable:  schedule.IsRestorable(ap, now),
		WhatsAppURL: WhatsAppURL(ap.Client.Phone),
	}
}

func AgendaRows(aps []models.Appointment, now time.Time) []AgendaRowDTO {
	out := make([]AgendaRowDTO, 0, len(aps))
	for _, ap := range aps {
		out = append(out, AgendaRow(ap, now))
	}
	return out
}
