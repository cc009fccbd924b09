package eventsync

import (
	"fmt"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	"github.com/gofiber/fiber/v2"
	"github.com/goliatone/go-router"
	"github.com/goliatone/go-router/flash"
	"github.com/google/uuid"
)

// RegisterEventRoutes mounts the school and event pages. Reads are public,
// mutations sit behind the session middleware and the access guard.
func RegisterEventRoutes[T any](app router.Router[T], opts ...EventsControllerOption) {
	controller := NewEventsController(opts...)

	protected := controller.Auther.ProtectedRoute(
		controller.Config,
		controller.Auther.MakeClientRouteAuthErrorHandler(false),
	)

	app.Get("/", controller.Index).SetName("home.get")

	app.Get("/schools", controller.SchoolIndex).SetName("schools.get")
	app.Get("/schools/new", protected(controller.SchoolNew)).SetName("schools-new.get")
	app.Post("/schools", protected(controller.SchoolCreate)).SetName("schools.post")
	app.Get("/schools/:id", controller.SchoolShow).SetName("schools-show.get")
	app.Get("/schools/:id/roster", protected(controller.SchoolRoster)).SetName("schools-roster.get")

	app.Get("/events", controller.EventIndex).SetName("events.get")
	app.Get("/events/new", protected(controller.EventNew)).SetName("events-new.get")
	app.Post("/events", protected(controller.EventCreate)).SetName("events.post")
	app.Get("/events/:id", controller.EventShow).SetName("events-show.get")
	app.Get("/events/:id/edit", protected(controller.EventEdit)).SetName("events-edit.get")
	app.Post("/events/:id", protected(controller.EventUpdate)).SetName("events-update.post")
	app.Post("/events/:id/delete", protected(controller.EventDelete)).SetName("events-delete.post")
	app.Post("/events/:id/register", protected(controller.EventRegister)).SetName("events-register.post")

	app.Post("/registrations/:id/cancel", protected(controller.RegistrationCancel)).SetName("registrations-cancel.post")
	app.Post("/registrations/:id/status", protected(controller.RegistrationStatus)).SetName("registrations-status.post")
}

type EventsControllerViews struct {
	Index       string
	SchoolIndex string
	SchoolShow  string
	SchoolForm  string
	Roster      string
	EventIndex  string
	EventShow   string
	EventForm   string
}

type EventsController struct {
	Logger       Logger
	Repo         RepositoryManager
	Config       Config
	Views        *EventsControllerViews
	Auther       HTTPAuthenticator
	Activity     ActivitySink
	ErrorHandler router.ErrorHandler
}

type EventsControllerOption func(*EventsController) *EventsController

func NewEventsController(opts ...EventsControllerOption) *EventsController {
	c := &EventsController{
		Logger:       defLogger{},
		ErrorHandler: defaultErrHandler,
		Views: &EventsControllerViews{
			Index:       "index",
			SchoolIndex: "schools/index",
			SchoolShow:  "schools/show",
			SchoolForm:  "schools/form",
			Roster:      "schools/roster",
			EventIndex:  "events/index",
			EventShow:   "events/show",
			EventForm:   "events/form",
		},
	}

	for _, opt := range opts {
		c = opt(c)
	}

	if c.Repo == nil {
		panic("Missing RepositoryManager in events controller...")
	}

	if c.Auther == nil {
		panic("Missing HTTPAuthenticator in events controller...")
	}

	if c.Config == nil {
		panic("Missing Config in events controller...")
	}

	return c
}

func WithEventsRepo(repo RepositoryManager) EventsControllerOption {
	return func(c *EventsController) *EventsController {
		c.Repo = repo
		return c
	}
}

func WithEventsAuther(auther HTTPAuthenticator) EventsControllerOption {
	return func(c *EventsController) *EventsController {
		c.Auther = auther
		return c
	}
}

func WithEventsConfig(cfg Config) EventsControllerOption {
	return func(c *EventsController) *EventsController {
		c.Config = cfg
		return c
	}
}

func WithEventsActivitySink(sink ActivitySink) EventsControllerOption {
	return func(c *EventsController) *EventsController {
		if sink != nil {
			c.Activity = sink
		}
		return c
	}
}

func WithEventsLogger(logger Logger) EventsControllerOption {
	return func(c *EventsController) *EventsController {
		if logger != nil {
			c.Logger = logger
		}
		return c
	}
}

func (a *EventsController) actor(ctx router.Context) (Actor, error) {
	session, err := GetRouterSession(ctx, a.Config.GetContextKey())
	if err != nil {
		return Actor{}, err
	}
	return ActorFromSession(session)
}

func (a *EventsController) Index(ctx router.Context) error {
	schools, err := a.Repo.Schools().ListAll(ctx.Context())
	if err != nil {
		return a.ErrorHandler(ctx, err)
	}

	upcoming, err := a.Repo.Events().ListUpcoming(ctx.Context(), time.Now())
	if err != nil {
		return a.ErrorHandler(ctx, err)
	}

	return ctx.Render(a.Views.Index, router.ViewContext{
		"schools":  schools,
		"upcoming": upcoming,
	})
}

func (a *EventsController) SchoolIndex(ctx router.Context) error {
	schools, err := a.Repo.Schools().ListAll(ctx.Context())
	if err != nil {
		return a.ErrorHandler(ctx, err)
	}

	return ctx.Render(a.Views.SchoolIndex, router.ViewContext{
		"schools": schools,
	})
}

func (a *EventsController) SchoolShow(ctx router.Context) error {
	id, err := uuid.Parse(ctx.Param("id", ""))
	if err != nil {
		return a.ErrorHandler(ctx, err)
	}

	school, err := a.Repo.Schools().GetByID(ctx.Context(), id.String())
	if err != nil {
		return a.ErrorHandler(ctx, err)
	}

	events, err := a.Repo.Events().ListBySchool(ctx.Context(), school.ID)
	if err != nil {
		return a.ErrorHandler(ctx, err)
	}

	return ctx.Render(a.Views.SchoolShow, router.ViewContext{
		"school": school,
		"events": events,
	})
}

func (a *EventsController) SchoolNew(ctx router.Context) error {
	return ctx.Render(a.Views.SchoolForm, router.ViewContext{
		"errors": map[string]string{},
		"record": nil,
	})
}

// SchoolCreatePayload is the school form payload
type SchoolCreatePayload struct {
	Name     string `form:"name" json:"name"`
	Location string `form:"location" json:"location"`
	About    string `form:"about" json:"about"`
	Email    string `form:"email" json:"email"`
	Phone    string `form:"phone" json:"phone"`
	Address  string `form:"address" json:"address"`
	Website  string `form:"website" json:"website"`
}

// Validate will validate the payload
func (r SchoolCreatePayload) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Name, validation.Required, validation.Length(1, 200)),
		validation.Field(&r.Location, validation.Length(0, 200)),
		validation.Field(&r.Email, is.Email),
		validation.Field(&r.Website, is.URL),
	)
}

func (a *EventsController) SchoolCreate(ctx router.Context) error {
	actor, err := a.actor(ctx)
	if err != nil {
		return a.Auther.MakeClientRouteAuthErrorHandler(false)(ctx, err)
	}

	payload := new(SchoolCreatePayload)

	if err := ctx.Bind(payload); err != nil {
		a.Logger.Error("school create parse payload: ", "error", err)
		return flash.WithError(ctx, router.ViewContext{
			"error_message":  err.Error(),
			"system_message": "Error parsing body",
		}).Status(fiber.StatusBadRequest).Render(a.Views.SchoolForm, router.ViewContext{
			"errors": map[string]string{"form": "Failed to parse form"},
			"record": payload,
		})
	}

	if err := payload.Validate(); err != nil {
		a.Logger.Error("school create validate payload: ", "error", err)
		return flash.WithError(ctx, router.ViewContext{
			"error_message":  err.Error(),
			"system_message": "Error validating payload",
		}).Render(a.Views.SchoolForm, router.ViewContext{
			"record":     payload,
			"validation": FormatValidationErrorToMap(err),
		})
	}

	var created *School
	req := CreateSchoolMessage{
		Actor:    actor,
		Name:     payload.Name,
		Location: payload.Location,
		About:    payload.About,
		Email:    payload.Email,
		Phone:    payload.Phone,
		Address:  payload.Address,
		Website:  payload.Website,
		OnResponse: func(school *School) {
			created = school
		},
	}

	createSchool := NewCreateSchoolHandler(a.Repo)
	if err := createSchool.Execute(ctx.Context(), req); err != nil {
		a.Logger.Error("school create error: ", "error", err)
		return flash.WithError(ctx, router.ViewContext{
			"error_message":  err.Error(),
			"system_message": "Error creating school",
		}).Render(a.Views.SchoolForm, router.ViewContext{
			"record": payload,
			"errors": []string{err.Error()},
		})
	}

	return flash.WithSuccess(ctx, router.ViewContext{
		"system_message": "School created.",
	}).Redirect(fmt.Sprintf("/schools/%s", created.ID), fiber.StatusSeeOther)
}

func (a *EventsController) SchoolRoster(ctx router.Context) error {
	actor, err := a.actor(ctx)
	if err != nil {
		return a.Auther.MakeClientRouteAuthErrorHandler(false)(ctx, err)
	}

	id, err := uuid.Parse(ctx.Param("id", ""))
	if err != nil {
		return a.ErrorHandler(ctx, err)
	}

	if err := CanAccess(actor, ActionRead, Roster{SchoolID: id}); err != nil {
		return a.ErrorHandler(ctx, err)
	}

	school, err := a.Repo.Schools().GetByID(ctx.Context(), id.String())
	if err != nil {
		return a.ErrorHandler(ctx, err)
	}

	members, err := a.Repo.Schools().ListRoster(ctx.Context(), id)
	if err != nil {
		return a.ErrorHandler(ctx, err)
	}

	return ctx.Render(a.Views.Roster, router.ViewContext{
		"school":  school,
		"members": members,
	})
}

func (a *EventsController) EventIndex(ctx router.Context) error {
	events, err := a.Repo.Events().ListUpcoming(ctx.Context(), time.Now())
	if err != nil {
		return a.ErrorHandler(ctx, err)
	}

	return ctx.Render(a.Views.EventIndex, router.ViewContext{
		"events": events,
	})
}

func (a *EventsController) EventShow(ctx router.Context) error {
	id, err := uuid.Parse(ctx.Param("id", ""))
	if err != nil {
		return a.ErrorHandler(ctx, err)
	}

	event, err := a.Repo.Events().GetByID(ctx.Context(), id.String())
	if err != nil {
		return a.ErrorHandler(ctx, err)
	}

	spots, err := AvailableSpots(ctx.Context(), a.Repo.Events(), event)
	if err != nil {
		return a.ErrorHandler(ctx, err)
	}

	return ctx.Render(a.Views.EventShow, router.ViewContext{
		"event":  event,
		"spots":  spots,
		"open":   event.IsRegistrationOpen(time.Now()),
	})
}

func (a *EventsController) EventNew(ctx router.Context) error {
	return ctx.Render(a.Views.EventForm, router.ViewContext{
		"errors": map[string]string{},
		"record": nil,
	})
}

// EventFormPayload is the event create and update form payload
type EventFormPayload struct {
	SchoolID             string  `form:"school_id" json:"school_id"`
	Title                string  `form:"title" json:"title"`
	Description          string  `form:"description" json:"description"`
	Date                 string  `form:"date" json:"date"`
	StartTime            string  `form:"start_time" json:"start_time"`
	EndTime              string  `form:"end_time" json:"end_time"`
	Location             string  `form:"location" json:"location"`
	Capacity             int     `form:"capacity" json:"capacity"`
	RegistrationRequired bool    `form:"registration_required" json:"registration_required"`
	RegistrationDeadline string  `form:"registration_deadline" json:"registration_deadline"`
	Price                float64 `form:"price" json:"price"`
}

// Validate will validate the payload
func (r EventFormPayload) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Title, validation.Required, validation.Length(1, 200)),
		validation.Field(&r.Date, validation.Required, validation.Date("2006-01-02")),
		validation.Field(&r.StartTime, validation.Date("15:04")),
		validation.Field(&r.EndTime, validation.Date("15:04")),
		validation.Field(&r.Capacity, validation.Min(0)),
		validation.Field(&r.Price, validation.Min(0.0)),
		validation.Field(&r.RegistrationDeadline, validation.Date("2006-01-02")),
	)
}

func (r EventFormPayload) parseDate() time.Time {
	t, _ := time.Parse("2006-01-02", r.Date)
	return t
}

func (r EventFormPayload) parseDeadline() *time.Time {
	if r.RegistrationDeadline == "" {
		return nil
	}
	t, err := time.Parse("2006-01-02", r.RegistrationDeadline)
	if err != nil {
		return nil
	}
	return &t
}

func (a *EventsController) EventCreate(ctx router.Context) error {
	actor, err := a.actor(ctx)
	if err != nil {
		return a.Auther.MakeClientRouteAuthErrorHandler(false)(ctx, err)
	}

	payload := new(EventFormPayload)

	if err := ctx.Bind(payload); err != nil {
		a.Logger.Error("event create parse payload: ", "error", err)
		return flash.WithError(ctx, router.ViewContext{
			"error_message":  err.Error(),
			"system_message": "Error parsing body",
		}).Status(fiber.StatusBadRequest).Render(a.Views.EventForm, router.ViewContext{
			"errors": map[string]string{"form": "Failed to parse form"},
			"record": payload,
		})
	}

	if err := payload.Validate(); err != nil {
		a.Logger.Error("event create validate payload: ", "error", err)
		return flash.WithError(ctx, router.ViewContext{
			"error_message":  err.Error(),
			"system_message": "Error validating payload",
		}).Render(a.Views.EventForm, router.ViewContext{
			"record":     payload,
			"validation": FormatValidationErrorToMap(err),
		})
	}

	// Teachers always create inside their own school. Admins can target
	// any school through the form field.
	schoolID := uuid.Nil
	if actor.SchoolID != nil {
		schoolID = *actor.SchoolID
	}
	if actor.Role == RoleAdmin && payload.SchoolID != "" {
		if id, err := uuid.Parse(payload.SchoolID); err == nil {
			schoolID = id
		}
	}

	var created *Event
	req := CreateEventMessage{
		Actor:                actor,
		SchoolID:             schoolID,
		Title:                payload.Title,
		Description:          payload.Description,
		Date:                 payload.parseDate(),
		StartTime:            payload.StartTime,
		EndTime:              payload.EndTime,
		Location:             payload.Location,
		Capacity:             payload.Capacity,
		RegistrationRequired: payload.RegistrationRequired,
		RegistrationDeadline: payload.parseDeadline(),
		Price:                payload.Price,
		OnResponse: func(event *Event) {
			created = event
		},
	}

	createEvent := NewCreateEventHandler(a.Repo)
	if err := createEvent.Execute(ctx.Context(), req); err != nil {
		a.Logger.Error("event create error: ", "error", err)
		return flash.WithError(ctx, router.ViewContext{
			"error_message":  err.Error(),
			"system_message": "Error creating event",
		}).Render(a.Views.EventForm, router.ViewContext{
			"record": payload,
			"errors": []string{err.Error()},
		})
	}

	return flash.WithSuccess(ctx, router.ViewContext{
		"system_message": "Event created.",
	}).Redirect(fmt.Sprintf("/events/%s", created.ID), fiber.StatusSeeOther)
}

func (a *EventsController) EventEdit(ctx router.Context) error {
	actor, err := a.actor(ctx)
	if err != nil {
		return a.Auther.MakeClientRouteAuthErrorHandler(false)(ctx, err)
	}

	id, err := uuid.Parse(ctx.Param("id", ""))
	if err != nil {
		return a.ErrorHandler(ctx, err)
	}

	event, err := a.Repo.Events().GetByID(ctx.Context(), id.String())
	if err != nil {
		return a.ErrorHandler(ctx, err)
	}

	if err := CanAccess(actor, ActionUpdate, event); err != nil {
		return a.ErrorHandler(ctx, err)
	}

	return ctx.Render(a.Views.EventForm, router.ViewContext{
		"errors": map[string]string{},
		"record": event,
	})
}

func (a *EventsController) EventUpdate(ctx router.Context) error {
	actor, err := a.actor(ctx)
	if err != nil {
		return a.Auther.MakeClientRouteAuthErrorHandler(false)(ctx, err)
	}

	id, err := uuid.Parse(ctx.Param("id", ""))
	if err != nil {
		return a.ErrorHandler(ctx, err)
	}

	payload := new(EventFormPayload)

	if err := ctx.Bind(payload); err != nil {
		a.Logger.Error("event update parse payload: ", "error", err)
		return flash.WithError(ctx, router.ViewContext{
			"error_message":  err.Error(),
			"system_message": "Error parsing body",
		}).Status(fiber.StatusBadRequest).Render(a.Views.EventForm, router.ViewContext{
			"errors": map[string]string{"form": "Failed to parse form"},
			"record": payload,
		})
	}

	if err := payload.Validate(); err != nil {
		a.Logger.Error("event update validate payload: ", "error", err)
		return flash.WithError(ctx, router.ViewContext{
			"error_message":  err.Error(),
			"system_message": "Error validating payload",
		}).Render(a.Views.EventForm, router.ViewContext{
			"record":     payload,
			"validation": FormatValidationErrorToMap(err),
		})
	}

	req := UpdateEventMessage{
		Actor:                actor,
		EventID:              id,
		Title:                payload.Title,
		Description:          payload.Description,
		Date:                 payload.parseDate(),
		StartTime:            payload.StartTime,
		EndTime:              payload.EndTime,
		Location:             payload.Location,
		Capacity:             payload.Capacity,
		RegistrationRequired: payload.RegistrationRequired,
		RegistrationDeadline: payload.parseDeadline(),
		Price:                payload.Price,
	}

	updateEvent := NewUpdateEventHandler(a.Repo)
	if err := updateEvent.Execute(ctx.Context(), req); err != nil {
		a.Logger.Error("event update error: ", "error", err)
		return flash.WithError(ctx, router.ViewContext{
			"error_message":  err.Error(),
			"system_message": "Error updating event",
		}).Render(a.Views.EventForm, router.ViewContext{
			"record": payload,
			"errors": []string{err.Error()},
		})
	}

	return flash.WithSuccess(ctx, router.ViewContext{
		"system_message": "Event updated.",
	}).Redirect(fmt.Sprintf("/events/%s", id), fiber.StatusSeeOther)
}

func (a *EventsController) EventDelete(ctx router.Context) error {
	actor, err := a.actor(ctx)
	if err != nil {
		return a.Auther.MakeClientRouteAuthErrorHandler(false)(ctx, err)
	}

	id, err := uuid.Parse(ctx.Param("id", ""))
	if err != nil {
		return a.ErrorHandler(ctx, err)
	}

	deleteEvent := NewDeleteEventHandler(a.Repo)
	if err := deleteEvent.Execute(ctx.Context(), DeleteEventMessage{
		Actor:   actor,
		EventID: id,
	}); err != nil {
		a.Logger.Error("event delete error: ", "error", err)
		return flash.WithError(ctx, router.ViewContext{
			"error_message":  err.Error(),
			"system_message": "Error deleting event",
		}).Redirect(fmt.Sprintf("/events/%s", id), fiber.StatusSeeOther)
	}

	return flash.WithSuccess(ctx, router.ViewContext{
		"system_message": "Event deleted.",
	}).Redirect("/events", fiber.StatusSeeOther)
}

func (a *EventsController) EventRegister(ctx router.Context) error {
	actor, err := a.actor(ctx)
	if err != nil {
		return a.Auther.MakeClientRouteAuthErrorHandler(false)(ctx, err)
	}

	id, err := uuid.Parse(ctx.Param("id", ""))
	if err != nil {
		return a.ErrorHandler(ctx, err)
	}

	register := NewRegisterForEventHandler(a.Repo).WithActivitySink(a.Activity)
	if err := register.Execute(ctx.Context(), RegisterForEventMessage{
		Actor:   actor,
		EventID: id,
	}); err != nil {
		a.Logger.Error("event register error: ", "error", err)
		return flash.WithError(ctx, router.ViewContext{
			"error_message":  err.Error(),
			"system_message": "Unable to register for event",
		}).Redirect(fmt.Sprintf("/events/%s", id), fiber.StatusSeeOther)
	}

	return flash.WithSuccess(ctx, router.ViewContext{
		"system_message": "You are registered for this event.",
	}).Redirect(fmt.Sprintf("/events/%s", id), fiber.StatusSeeOther)
}

func (a *EventsController) RegistrationCancel(ctx router.Context) error {
	return a.moveRegistration(ctx, RegistrationCancelled, "Registration cancelled.")
}

// RegistrationStatus handles confirm and attended moves from the event
// management pages. The target status comes from the form.
func (a *EventsController) RegistrationStatus(ctx router.Context) error {
	status, err := ParseRegistrationStatus(ctx.FormValue("status"))
	if err != nil {
		return a.ErrorHandler(ctx, err)
	}
	return a.moveRegistration(ctx, status, "Registration updated.")
}

func (a *EventsController) moveRegistration(ctx router.Context, to RegistrationStatus, message string) error {
	actor, err := a.actor(ctx)
	if err != nil {
		return a.Auther.MakeClientRouteAuthErrorHandler(false)(ctx, err)
	}

	id, err := uuid.Parse(ctx.Param("id", ""))
	if err != nil {
		return a.ErrorHandler(ctx, err)
	}

	lifecycle := NewRegistrationLifecycle(a.Repo).
		WithLogger(a.Logger).
		WithActivitySink(a.Activity)

	reg, err := lifecycle.Transition(ctx.Context(), actor, id.String(), to)
	if err != nil {
		a.Logger.Error("registration transition error: ", "error", err)
		return flash.WithError(ctx, router.ViewContext{
			"error_message":  err.Error(),
			"system_message": "Unable to update registration",
		}).Redirect("/events", fiber.StatusSeeOther)
	}

	return flash.WithSuccess(ctx, router.ViewContext{
		"system_message": message,
	}).Redirect(fmt.Sprintf("/events/%s", reg.EventID), fiber.StatusSeeOther)
}
