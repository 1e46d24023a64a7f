package catalog

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"filmdb.org/internal/auth"
	"filmdb.org/internal/obs"
)

// Store is the film database. Implementations run the named views,
// procedures and functions verbatim.
type Store interface {
	Summary(ctx context.Context) (Summary, error)
	View(ctx context.Context, view string, limit int) (Table, error)
	CallProcedure(ctx context.Context, name string, args ...any) (Table, error)
	CallFunction(ctx context.Context, fn Function, id int64) (any, error)
	AuditTrail(ctx context.Context, kind AuditKind, limit int) (Table, error)
	UpdateFilmStatus(ctx context.Context, filmID int64, status FilmStatus) error
	AddFilm(ctx context.Context, f NewFilm) (Table, error)
	UpdateFilm(ctx context.Context, u FilmUpdate, status FilmStatus) error
	AddActor(ctx context.Context, a NewActor) (int64, error)
	CastActor(ctx context.Context, c Casting) error
	AllocateCrew(ctx context.Context, c CrewAllocation) error
	AddEquipment(ctx context.Context, e NewEquipment) (int64, error)
	AddLocation(ctx context.Context, l NewLocation, totalCost float64) (int64, error)
}

// Service gates Store calls behind page visibility and operation checks.
type Service struct {
	store    Store
	validate *validator.Validate
	audit    auth.AuditFunc
	now      func() time.Time
}

// NewService returns a Service. A nil store is allowed and makes every call
// fail with auth.ErrStoreUnavailable.
func NewService(store Store, audit auth.AuditFunc) *Service {
	if audit == nil {
		audit = func(context.Context, string, map[string]any) error { return nil }
	}
	v := validator.New(validator.WithRequiredStructEnabled())
	mustRegister(v, "genre", Genres)
	mustRegister(v, "language", Languages)
	return &Service{store: store, validate: v, audit: audit, now: time.Now}
}

// mustRegister adds a tag accepting exactly the listed values.
func mustRegister(v *validator.Validate, tag string, allowed []string) {
	if err := v.RegisterValidation(tag, func(fl validator.FieldLevel) bool {
		return slices.Contains(allowed, fl.Field().String())
	}); err != nil {
		panic(fmt.Sprintf("catalog: register %s validation: %v", tag, err))
	}
}

func (s *Service) check(v any) error {
	if err := s.validate.Struct(v); err != nil {
		return fmt.Errorf("%w: %v", auth.ErrInvalidInput, err)
	}
	return nil
}

func (s *Service) gate(sess auth.Session, page auth.Page, op auth.Operation) error {
	if err := auth.EnterPage(sess, page); err != nil {
		return err
	}
	if err := auth.Authorize(sess, op); err != nil {
		return err
	}
	if s.store == nil {
		return fmt.Errorf("%w: film database is not configured", auth.ErrStoreUnavailable)
	}
	return nil
}

// Summary returns the dashboard headline figures.
func (s *Service) Summary(ctx context.Context, sess auth.Session) (Summary, error) {
	if err := s.gate(sess, auth.PageDashboard, auth.OpRead); err != nil {
		return Summary{}, err
	}
	return s.store.Summary(ctx)
}

// Report returns the rows of a whitelisted view.
func (s *Service) Report(ctx context.Context, sess auth.Session, view string) (Table, error) {
	r, err := lookupReport(view)
	if err != nil {
		return Table{}, err
	}
	if err := s.gate(sess, r.Page, auth.OpRead); err != nil {
		return Table{}, err
	}
	return s.store.View(ctx, r.View, r.Limit)
}

// Run calls a whitelisted read procedure. id is ignored for procedures
// without arguments.
func (s *Service) Run(ctx context.Context, sess auth.Session, name string, id int64) (Table, error) {
	p, err := lookupProcedure(name)
	if err != nil {
		return Table{}, err
	}
	if err := s.gate(sess, p.Page, auth.OpRead); err != nil {
		return Table{}, err
	}
	if p.Arity == 0 {
		return s.store.CallProcedure(ctx, p.Name)
	}
	if id <= 0 {
		return Table{}, fmt.Errorf("%w: %s needs an id", auth.ErrInvalidInput, p.Name)
	}
	return s.store.CallProcedure(ctx, p.Name, id)
}

// Evaluate calls a scalar function from the Database Operations page.
func (s *Service) Evaluate(ctx context.Context, sess auth.Session, name string, id int64) (any, error) {
	fn, err := ParseFunction(name)
	if err != nil {
		return nil, err
	}
	if err := s.gate(sess, auth.PageDatabaseOperations, auth.OpRead); err != nil {
		return nil, err
	}
	if id <= 0 {
		return nil, fmt.Errorf("%w: id must be positive", auth.ErrInvalidInput)
	}
	return s.store.CallFunction(ctx, fn, id)
}

// AuditTrail returns the newest rows of an audit table. Admins only.
func (s *Service) AuditTrail(ctx context.Context, sess auth.Session, kind string) (Table, error) {
	k, err := ParseAuditKind(kind)
	if err != nil {
		return Table{}, err
	}
	if err := s.gate(sess, auth.PageAuditLogs, auth.OpRead); err != nil {
		return Table{}, err
	}
	return s.store.AuditTrail(ctx, k, AuditLimit)
}

// UpdateFilmStatus moves a film to another production status.
func (s *Service) UpdateFilmStatus(ctx context.Context, sess auth.Session, filmID int64, status string) error {
	if err := s.gate(sess, auth.PageDatabaseOperations, auth.OpUpdate); err != nil {
		return err
	}
	st, err := ParseFilmStatus(status)
	if err != nil {
		return err
	}
	if filmID <= 0 {
		return fmt.Errorf("%w: film_id is required", auth.ErrInvalidInput)
	}
	if err := s.store.UpdateFilmStatus(ctx, filmID, st); err != nil {
		return err
	}
	_ = s.audit(ctx, "films.status_changed", map[string]any{"film_id": filmID, "status": string(st)})
	return nil
}

// AddFilm creates a film with its genres.
func (s *Service) AddFilm(ctx context.Context, sess auth.Session, f NewFilm) (Table, error) {
	if err := s.gate(sess, auth.PageFilmManagement, auth.OpCreate); err != nil {
		return Table{}, err
	}
	f.Title = strings.TrimSpace(f.Title)
	f.Language = strings.TrimSpace(f.Language)
	if f.Language == "" {
		f.Language = "English"
	}
	if len(f.Genres) == 0 {
		f.Genres = []string{"Drama"}
	}
	if f.Budget < MinBudget {
		return Table{}, auth.Reject("Minimum film budget is $100,000")
	}
	if err := s.check(f); err != nil {
		return Table{}, err
	}
	out, err := s.store.AddFilm(ctx, f)
	if err != nil {
		return Table{}, err
	}
	obs.Logger().Info().Str("title", f.Title).Int64("director_id", f.DirectorID).Msg("film added")
	_ = s.audit(ctx, "films.added", map[string]any{"title": f.Title, "budget": f.Budget})
	return out, nil
}

// UpdateFilm replaces the box office figure, rating and status of a film.
func (s *Service) UpdateFilm(ctx context.Context, sess auth.Session, u FilmUpdate) error {
	if err := s.gate(sess, auth.PageFilmManagement, auth.OpUpdate); err != nil {
		return err
	}
	if err := s.check(u); err != nil {
		return err
	}
	st, err := ParseFilmStatus(u.Status)
	if err != nil {
		return err
	}
	if err := s.store.UpdateFilm(ctx, u, st); err != nil {
		return err
	}
	_ = s.audit(ctx, "films.updated", map[string]any{
		"film_id":    u.FilmID,
		"box_office": u.BoxOffice,
		"rating":     u.Rating,
		"status":     string(st),
	})
	return nil
}

// AddActor records an actor and the languages they speak.
func (s *Service) AddActor(ctx context.Context, sess auth.Session, a NewActor) (int64, error) {
	if err := s.gate(sess, auth.PageCastRoles, auth.OpCreate); err != nil {
		return 0, err
	}
	a.FirstName = strings.TrimSpace(a.FirstName)
	a.LastName = strings.TrimSpace(a.LastName)
	a.StageName = strings.TrimSpace(a.StageName)
	a.Nationality = strings.TrimSpace(a.Nationality)
	if err := s.check(a); err != nil {
		return 0, err
	}
	dob, _ := time.Parse(DateLayout, a.BirthDate)
	if age(dob, s.now()) < MinActorAge {
		return 0, auth.Reject("Actor must be at least 18 years old")
	}
	id, err := s.store.AddActor(ctx, a)
	if err != nil {
		return 0, err
	}
	_ = s.audit(ctx, "actors.added", map[string]any{"actor_id": id, "languages": len(a.Languages)})
	return id, nil
}

// CastActor gives an actor a role in a film.
func (s *Service) CastActor(ctx context.Context, sess auth.Session, c Casting) error {
	if err := s.gate(sess, auth.PageCastRoles, auth.OpCreate); err != nil {
		return err
	}
	c.CharacterName = strings.TrimSpace(c.CharacterName)
	if c.Salary < 0 {
		return auth.Reject("Salary cannot be negative")
	}
	if err := s.check(c); err != nil {
		return err
	}
	if err := s.store.CastActor(ctx, c); err != nil {
		return err
	}
	_ = s.audit(ctx, "films.cast", map[string]any{
		"film_id":   c.FilmID,
		"actor_id":  c.ActorID,
		"character": c.CharacterName,
	})
	return nil
}

// AllocateCrew assigns a crew member to a film.
func (s *Service) AllocateCrew(ctx context.Context, sess auth.Session, c CrewAllocation) error {
	if err := s.gate(sess, auth.PageCrewManagement, auth.OpCreate); err != nil {
		return err
	}
	if err := s.check(c); err != nil {
		return err
	}
	if _, err := days(c.StartDate, c.EndDate); err != nil {
		return err
	}
	if err := s.store.AllocateCrew(ctx, c); err != nil {
		return err
	}
	_ = s.audit(ctx, "crew.allocated", map[string]any{"film_id": c.FilmID, "crew_id": c.CrewID})
	return nil
}

// AddEquipment records a piece of equipment and returns its id.
func (s *Service) AddEquipment(ctx context.Context, sess auth.Session, e NewEquipment) (int64, error) {
	if err := s.gate(sess, auth.PageEquipmentLocations, auth.OpCreate); err != nil {
		return 0, err
	}
	e.Name = strings.TrimSpace(e.Name)
	e.Type = strings.TrimSpace(e.Type)
	if e.Condition == "" {
		e.Condition = "Good"
	}
	if e.Availability == "" {
		e.Availability = "Available"
	}
	if e.Cost < 0 {
		return 0, auth.Reject("Cost cannot be negative")
	}
	if err := s.check(e); err != nil {
		return 0, err
	}
	id, err := s.store.AddEquipment(ctx, e)
	if err != nil {
		return 0, err
	}
	_ = s.audit(ctx, "equipment.added", map[string]any{"equipment_id": id, "name": e.Name})
	return id, nil
}

// AddLocation books a shooting location for a film. The total cost covers
// every day of the range, both ends included.
func (s *Service) AddLocation(ctx context.Context, sess auth.Session, l NewLocation) (Booking, error) {
	if err := s.gate(sess, auth.PageDatabaseOperations, auth.OpCreate); err != nil {
		return Booking{}, err
	}
	l.Name = strings.TrimSpace(l.Name)
	l.City = strings.TrimSpace(l.City)
	l.Country = strings.TrimSpace(l.Country)
	if l.Country == "" {
		l.Country = "USA"
	}
	if l.CostPerDay < 0 {
		return Booking{}, auth.Reject("Cost cannot be negative")
	}
	if err := s.check(l); err != nil {
		return Booking{}, err
	}
	n, err := days(l.ShootingStart, l.ShootingEnd)
	if err != nil {
		return Booking{}, err
	}
	total := float64(n) * l.CostPerDay
	id, err := s.store.AddLocation(ctx, l, total)
	if err != nil {
		return Booking{}, err
	}
	_ = s.audit(ctx, "locations.added", map[string]any{"location_id": id, "film_id": l.FilmID, "total_cost": total})
	return Booking{LocationID: id, FilmID: l.FilmID, Days: n, TotalCost: total}, nil
}

// age returns the completed years between dob and now.
func age(dob, now time.Time) int {
	years := now.Year() - dob.Year()
	if now.Month() < dob.Month() || (now.Month() == dob.Month() && now.Day() < dob.Day()) {
		years--
	}
	return years
}

// days counts the calendar days from start to end inclusive.
func days(start, end string) (int, error) {
	from, err := time.Parse(DateLayout, start)
	if err != nil {
		return 0, fmt.Errorf("%w: start date: %v", auth.ErrInvalidInput, err)
	}
	to, err := time.Parse(DateLayout, end)
	if err != nil {
		return 0, fmt.Errorf("%w: end date: %v", auth.ErrInvalidInput, err)
	}
	if to.Before(from) {
		return 0, auth.Reject("End date must not be before the start date")
	}
	return int(to.Sub(from).Hours()/24) + 1, nil
}
