package backend

import (
	"encoding/json"
	"strings"

	"cloud.google.com/go/civil"

	"github.com/BruksfildServices01/barber-dashboard/internal/domain/schedule"
	"github.com/BruksfildServices01/barber-dashboard/internal/models"
)

// The scheduling API speaks Spanish field names; everything in this file
// translates between them and the dashboard models.

var statusFromWire = map[string]schedule.Status{
	"pendiente":  schedule.StatusPending,
	"confirmado": schedule.StatusConfirmed,
	"completado": schedule.StatusCompleted,
	"cancelado":  schedule.StatusCancelled,
}

func toStatus(estado string) string {
	e := strings.ToLower(strings.TrimSpace(estado))
	if s, ok := statusFromWire[e]; ok {
		return string(s)
	}
	if schedule.Status(e).Valid() {
		return e
	}
	return string(schedule.StatusPending)
}

// -------- Auth --------

type loginRequest struct {
	Usuario  string `json:"usuario"`
	Password string `json:"password"`
}

type userDTO struct {
	ID      uint   `json:"id"`
	Nombre  string `json:"nombre"`
	Usuario string `json:"usuario"`
	Rol     string `json:"rol"`
}

type loginResponse struct {
	AccessToken string  `json:"access_token"`
	User        userDTO `json:"user"`
}

// -------- Appointments --------

type clienteDTO struct {
	Nombre   string `json:"nombre"`
	Apellido string `json:"apellido"`
	Telefono string `json:"telefono"`
}

type servicioDTO struct {
	ID          uint    `json:"id"`
	Nombre      string  `json:"nombre"`
	DuracionMin int     `json:"duracion_min"`
	Precio      float64 `json:"precio"`
}

type turnoDTO struct {
	ID         uint            `json:"id"`
	Fecha      string          `json:"fecha"`
	HoraInicio string          `json:"hora_inicio"`
	HoraFin    string          `json:"hora_fin"`
	Estado     string          `json:"estado"`
	Cliente    json.RawMessage `json:"cliente"`
	Servicio   json.RawMessage `json:"servicio"`
}

type turnosResponse struct {
	Turnos []turnoDTO `json:"turnos"`
}

type createTurnoRequest struct {
	Nombre   string `json:"nombre"`
	Apellido string `json:"apellido"`
	Telefono string `json:"telefono"`
	Servicio uint   `json:"servicio"`
	Fecha    string `json:"fecha"`
	Hora     string `json:"hora"`
}

type statsResponse struct {
	Estadisticas struct {
		TotalTurnos int `json:"total_turnos"`
		Pendientes  int `json:"pendientes"`
		Confirmados int `json:"confirmados"`
		Completados int `json:"completados"`
		Cancelados  int `json:"cancelados"`
	} `json:"estadisticas"`
}

// decodeCliente accepts both the object form and a bare name string.
func decodeCliente(raw json.RawMessage) models.Client {
	if len(raw) == 0 || string(raw) == "null" {
		return models.Client{}
	}
	var name string
	if err := json.Unmarshal(raw, &name); err == nil {
		return models.Client{Name: name}
	}
	var c clienteDTO
	_ = json.Unmarshal(raw, &c)
	return models.Client{Name: c.Nombre, LastName: c.Apellido, Phone: c.Telefono}
}

func decodeServicio(raw json.RawMessage) models.Service {
	if len(raw) == 0 || string(raw) == "null" {
		return models.Service{}
	}
	var name string
	if err := json.Unmarshal(raw, &name); err == nil {
		return models.Service{Name: name}
	}
	var s servicioDTO
	_ = json.Unmarshal(raw, &s)
	return toService(s)
}

func toService(s servicioDTO) models.Service {
	return models.Service{ID: s.ID, Name: s.Nombre, DurationMin: s.DuracionMin, Price: s.Precio}
}

func toAppointment(t turnoDTO) (models.Appointment, error) {
	d, err := civil.ParseDate(t.Fecha)
	if err != nil {
		return models.Appointment{}, err
	}
	start, err := models.ParseTimeOfDay(t.HoraInicio)
	if err != nil {
		return models.Appointment{}, err
	}

	svc := decodeServicio(t.Servicio)

	// without hora_fin the service length decides, one slot at least
	end := start.Add(schedule.DefaultSlotMinutes)
	if t.HoraFin != "" {
		if e, err := models.ParseTimeOfDay(t.HoraFin); err == nil && e > start {
			end = e
		}
	} else if svc.DurationMin > 0 {
		end = start.Add(svc.DurationMin)
	}

	return models.Appointment{
		ID:        t.ID,
		Date:      d,
		StartTime: start,
		EndTime:   end,
		Client:    decodeCliente(t.Cliente),
		Service:   svc,
		Status:    toStatus(t.Estado),
	}, nil
}

func toAppointments(in []turnoDTO) ([]models.Appointment, error) {
	out := make([]models.Appointment, 0, len(in))
	for _, t := range in {
		ap, err := toAppointment(t)
		if err != nil {
			return nil, err
		}
		out = append(out, ap)
	}
	return out, nil
}

// -------- Notifications --------

func toNotification(t turnoDTO) models.Notification {
	n := models.Notification{
		ID:      t.ID,
		Title:   "Nuevo turno",
		Client:  decodeCliente(t.Cliente).FullName(),
		Service: decodeServicio(t.Servicio).Name,
	}
	if n.Client == "" {
		n.Client = "Cliente"
	}
	if d, err := civil.ParseDate(t.Fecha); err == nil {
		n.Date = d
	}
	if tm, err := models.ParseTimeOfDay(t.HoraInicio); err == nil {
		n.Time = tm
	}
	return n
}

// -------- Blocks --------

type bloqueoDTO struct {
	ID         uint    `json:"id,omitempty"`
	Fecha      string  `json:"fecha"`
	TodoDia    bool    `json:"todo_dia"`
	HoraInicio *string `json:"hora_inicio"`
	HoraFin    *string `json:"hora_fin"`
	Motivo     string  `json:"motivo,omitempty"`
}

type bloqueosResponse struct {
	Bloqueos []bloqueoDTO `json:"bloqueos"`
}

func toBlock(b bloqueoDTO) (models.Block, error) {
	d, err := civil.ParseDate(b.Fecha)
	if err != nil {
		return models.Block{}, err
	}

	out := models.Block{ID: b.ID, Date: d, FullDay: b.TodoDia, Reason: b.Motivo}
	if b.TodoDia || b.HoraInicio == nil || b.HoraFin == nil {
		// a block without a usable range shuts the whole day
		out.FullDay = true
		return out, nil
	}

	start, err := models.ParseTimeOfDay(*b.HoraInicio)
	if err != nil {
		return models.Block{}, err
	}
	end, err := models.ParseTimeOfDay(*b.HoraFin)
	if err != nil {
		return models.Block{}, err
	}
	out.Span = &models.Interval{Start: start, End: end}
	return out, nil
}

func toBlocks(in []bloqueoDTO) ([]models.Block, error) {
	out := make([]models.Block, 0, len(in))
	for _, b := range in {
		blk, err := toBlock(b)
		if err != nil {
			return nil, err
		}
		out = append(out, blk)
	}
	return out, nil
}

func fromNewBlock(in schedule.NewBlock) bloqueoDTO {
	out := bloqueoDTO{Fecha: in.Date.String(), TodoDia: in.FullDay, Motivo: in.Reason}
	if !in.FullDay && in.Span != nil {
		s, e := in.Span.Start.String(), in.Span.End.String()
		out.HoraInicio, out.HoraFin = &s, &e
	}
	return out
}

// -------- Availability --------

type disponibilidadResponse struct {
	HorariosDisponibles []string     `json:"horarios_disponibles"`
	Bloqueos            []bloqueoDTO `json:"bloqueos"`
}

// -------- Errors --------

type errorBody struct {
	Detail json.RawMessage `json:"detail"`
}

// detailOf extracts a readable message from a FastAPI style error body,
// where detail is either a string or a list of {msg}.
func detailOf(body []byte) string {
	var eb errorBody
	if err := json.Unmarshal(body, &eb); err != nil || len(eb.Detail) == 0 {
		return ""
	}

	var s string
	if err := json.Unmarshal(eb.Detail, &s); err == nil {
		return s
	}

	var list []struct {
		Msg string `json:"msg"`
	}
	if err := json.Unmarshal(eb.Detail, &list); err == nil {
		msgs := make([]string, 0, len(list))
		for _, m := range list {
			if m.Msg != "" {
				msgs = append(msgs, m.Msg)
			}
		}
		return strings.Join(msgs, "; ")
	}
	return ""
}
