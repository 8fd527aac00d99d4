package backend

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"cloud.google.com/go/civil"

	"github.com/BruksfildServices01/barber-dashboard/internal/domain/schedule"
	"github.com/BruksfildServices01/barber-dashboard/internal/httperr"
	"github.com/BruksfildServices01/barber-dashboard/internal/models"
)

const opLogin = "login"

func rangeQuery(r models.DateRange) url.Values {
	return url.Values{
		"fecha_inicio": {r.From.String()},
		"fecha_fin":    {r.To.String()},
	}
}

func malformed(op string, err error) error {
	return httperr.ErrServer(http.StatusOK, fmt.Sprintf("respuesta inválida del servidor (%s): %v", op, err))
}

// --------------------------------------------------
// Auth
// --------------------------------------------------

func (c *Client) Login(ctx context.Context, username, password string) (string, models.User, error) {
	var resp loginResponse
	err := c.do(ctx, call{
		op:     opLogin,
		method: http.MethodPost,
		path:   "/auth/login",
		body:   loginRequest{Usuario: username, Password: password},
	}, &resp)
	if err != nil {
		return "", models.User{}, err
	}
	if resp.AccessToken == "" {
		return "", models.User{}, httperr.ErrServer(http.StatusOK, "el servidor no devolvió un token")
	}

	return resp.AccessToken, models.User{
		ID:       resp.User.ID,
		Name:     resp.User.Nombre,
		Username: resp.User.Usuario,
		Role:     resp.User.Rol,
	}, nil
}

// --------------------------------------------------
// Appointments
// --------------------------------------------------

func (c *Client) ListAppointments(ctx context.Context, r models.DateRange) ([]models.Appointment, error) {
	var resp turnosResponse
	if err := c.do(ctx, call{
		op:     "list_appointments",
		method: http.MethodGet,
		path:   "/turnos/",
		query:  rangeQuery(r),
	}, &resp); err != nil {
		return nil, err
	}

	out, err := toAppointments(resp.Turnos)
	if err != nil {
		return nil, malformed("list_appointments", err)
	}
	return out, nil
}

func (c *Client) AppointmentsOn(ctx context.Context, d civil.Date) ([]models.Appointment, error) {
	var resp turnosResponse
	if err := c.do(ctx, call{
		op:     "appointments_on",
		method: http.MethodGet,
		path:   "/turnos/fecha/" + d.String(),
	}, &resp); err != nil {
		return nil, err
	}

	out, err := toAppointments(resp.Turnos)
	if err != nil {
		return nil, malformed("appointments_on", err)
	}
	return out, nil
}

func (c *Client) CreateAppointment(ctx context.Context, in schedule.NewAppointment) (*models.Appointment, error) {
	var resp turnoDTO
	if err := c.do(ctx, call{
		op:     "create_appointment",
		method: http.MethodPost,
		path:   "/turnos/",
		body: createTurnoRequest{
			Nombre:   in.Name,
			Apellido: in.LastName,
			Telefono: in.Phone,
			Servicio: in.ServiceID,
			Fecha:    in.Date.String(),
			Hora:     in.Time.String(),
		},
	}, &resp); err != nil {
		return nil, err
	}

	// the create answer may be a bare acknowledgement; callers re-query the
	// date anyway, so an unreadable body is not an error
	ap, err := toAppointment(resp)
	if err != nil {
		return nil, nil
	}
	return &ap, nil
}

func (c *Client) transition(ctx context.Context, op, action string, id uint) error {
	return c.do(ctx, call{
		op:     op,
		method: http.MethodPut,
		path:   fmt.Sprintf("/turnos/%s/%d", action, id),
	}, nil)
}

func (c *Client) CancelAppointment(ctx context.Context, id uint) error {
	return c.transition(ctx, "cancel_appointment", "cancelar", id)
}

func (c *Client) RestoreAppointment(ctx context.Context, id uint) error {
	return c.transition(ctx, "restore_appointment", "restaurar", id)
}

func (c *Client) CompleteAppointment(ctx context.Context, id uint) error {
	return c.transition(ctx, "complete_appointment", "completar", id)
}

func (c *Client) StartAppointment(ctx context.Context, id uint) error {
	return c.transition(ctx, "start_appointment", "en-curso", id)
}

func (c *Client) Stats(ctx context.Context, r models.DateRange) (models.Stats, error) {
	var resp statsResponse
	if err := c.do(ctx, call{
		op:     "stats",
		method: http.MethodGet,
		path:   "/turnos/estadisticas",
		query:  rangeQuery(r),
	}, &resp); err != nil {
		return models.Stats{}, err
	}

	e := resp.Estadisticas
	return models.Stats{
		Total:     e.TotalTurnos,
		Pending:   e.Pendientes,
		Confirmed: e.Confirmados,
		Completed: e.Completados,
		Cancelled: e.Cancelados,
	}, nil
}

// --------------------------------------------------
// Availability
// --------------------------------------------------

func (c *Client) Availability(ctx context.Context, d civil.Date) (schedule.DayView, error) {
	var resp disponibilidadResponse
	if err := c.do(ctx, call{
		op:     "availability",
		method: http.MethodGet,
		path:   "/turnos/disponibilidad",
		query:  url.Values{"fecha": {d.String()}},
	}, &resp); err != nil {
		return schedule.DayView{}, err
	}

	view := schedule.DayView{Free: make([]models.TimeOfDay, 0, len(resp.HorariosDisponibles))}
	for _, h := range resp.HorariosDisponibles {
		t, err := models.ParseTimeOfDay(h)
		if err != nil {
			return schedule.DayView{}, malformed("availability", err)
		}
		view.Free = append(view.Free, t)
	}

	blocks, err := toBlocks(resp.Bloqueos)
	if err != nil {
		return schedule.DayView{}, malformed("availability", err)
	}
	view.Blocks = blocks
	return view, nil
}

// --------------------------------------------------
// Blocks
// --------------------------------------------------

func (c *Client) CreateBlock(ctx context.Context, in schedule.NewBlock) (*models.Block, error) {
	var resp bloqueoDTO
	if err := c.do(ctx, call{
		op:     "create_block",
		method: http.MethodPost,
		path:   "/bloqueos/",
		body:   fromNewBlock(in),
	}, &resp); err != nil {
		return nil, err
	}

	b, err := toBlock(resp)
	if err != nil {
		return nil, nil
	}
	return &b, nil
}

func (c *Client) ListBlocks(ctx context.Context, r models.DateRange) ([]models.Block, error) {
	var resp []bloqueoDTO
	if err := c.do(ctx, call{
		op:     "list_blocks",
		method: http.MethodGet,
		path:   "/bloqueos/",
		query:  rangeQuery(r),
	}, &resp); err != nil {
		return nil, err
	}

	out, err := toBlocks(resp)
	if err != nil {
		return nil, malformed("list_blocks", err)
	}
	return out, nil
}

func (c *Client) BlocksOn(ctx context.Context, d civil.Date) ([]models.Block, error) {
	var resp bloqueosResponse
	if err := c.do(ctx, call{
		op:     "blocks_on",
		method: http.MethodGet,
		path:   "/bloqueos/fecha/" + d.String(),
	}, &resp); err != nil {
		return nil, err
	}

	out, err := toBlocks(resp.Bloqueos)
	if err != nil {
		return nil, malformed("blocks_on", err)
	}
	return out, nil
}

// DeleteBlock treats an already missing block as deleted.
func (c *Client) DeleteBlock(ctx context.Context, id uint) error {
	err := c.do(ctx, call{
		op:     "delete_block",
		method: http.MethodDelete,
		path:   fmt.Sprintf("/bloqueos/%d", id),
	}, nil)
	if httperr.IsBusiness(err, "not_found") {
		return nil
	}
	return err
}

// --------------------------------------------------
// Notifications
// --------------------------------------------------

func (c *Client) UnreadNotifications(ctx context.Context) ([]models.Notification, error) {
	var resp []turnoDTO
	if err := c.do(ctx, call{
		op:     "unread_notifications",
		method: http.MethodGet,
		path:   "/turnos/no-notificados",
	}, &resp); err != nil {
		return nil, err
	}

	out := make([]models.Notification, 0, len(resp))
	for _, t := range resp {
		out = append(out, toNotification(t))
	}
	return out, nil
}

func (c *Client) MarkNotificationsRead(ctx context.Context) error {
	return c.do(ctx, call{
		op:     "mark_notifications_read",
		method: http.MethodPut,
		path:   "/notificaciones/marcar-leidas",
	}, nil)
}

// --------------------------------------------------
// Catalogue
// --------------------------------------------------

func (c *Client) Services(ctx context.Context) ([]models.Service, error) {
	var resp []servicioDTO
	if err := c.do(ctx, call{
		op:     "services",
		method: http.MethodGet,
		path:   "/servicios/",
	}, &resp); err != nil {
		return nil, err
	}

	out := make([]models.Service, 0, len(resp))
	for _, s := range resp {
		out = append(out, toService(s))
	}
	return out, nil
}
