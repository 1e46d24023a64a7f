// Package catalog exposes the film dashboard's reads and mutations. Every
// computation happens in the database; this package only decides who may
// call what and with which arguments.
package catalog

import (
	"fmt"
	"strings"

	"filmdb.org/internal/auth"
)

// Summary holds the dashboard headline figures.
type Summary struct {
	Films          int64            `json:"total_films"`
	Actors         int64            `json:"total_actors"`
	TotalBudget    float64          `json:"total_budget"`
	TotalBoxOffice float64          `json:"total_box_office"`
	ByStatus       map[string]int64 `json:"films_by_status"`
}

// Table is a result set with its column order preserved.
type Table struct {
	Columns []string         `json:"columns"`
	Rows    []map[string]any `json:"rows"`
}

// Len returns the number of rows.
func (t Table) Len() int { return len(t.Rows) }

// Report is a read-only database view shown on a page.
type Report struct {
	View  string    `json:"view"`
	Title string    `json:"title"`
	Page  auth.Page `json:"-"`
	Limit int       `json:"limit,omitempty"`
}

var reports = []Report{
	{View: "view_film_basic", Title: "Film Basic Info", Page: auth.PageAnalyticsReports, Limit: 10},
	{View: "view_film_profitability", Title: "Film Profitability", Page: auth.PageAnalyticsReports},
	{View: "view_actor_details", Title: "Actor Details", Page: auth.PageAnalyticsReports, Limit: 10},
	{View: "view_director_filmography", Title: "Director Filmography", Page: auth.PageAnalyticsReports},
	{View: "view_producer_investment", Title: "Producer Investment", Page: auth.PageAnalyticsReports},
	{View: "view_crew_by_department", Title: "Crew by Department", Page: auth.PageAnalyticsReports},
	{View: "view_equipment_status", Title: "Equipment Status", Page: auth.PageAnalyticsReports, Limit: 10},
	{View: "view_scene_filming_summary", Title: "Scene Filming Summary", Page: auth.PageAnalyticsReports},
}

// Reports lists the available views in menu order.
func Reports() []Report {
	out := make([]Report, len(reports))
	copy(out, reports)
	return out
}

func lookupReport(view string) (Report, error) {
	view = strings.ToLower(strings.TrimSpace(view))
	for _, r := range reports {
		if r.View == view {
			return r, nil
		}
	}
	return Report{}, fmt.Errorf("%w: unknown report %q", auth.ErrNotFound, view)
}

// Procedure is a read-only stored procedure. Arity is 0 or 1 (an entity id).
type Procedure struct {
	Name  string    `json:"name"`
	Title string    `json:"title"`
	Page  auth.Page `json:"-"`
	Arity int       `json:"arity"`
}

var procedures = []Procedure{
	{Name: "sp_get_film_production_summary", Title: "Film Production Summary", Page: auth.PageFilmManagement, Arity: 1},
	{Name: "sp_get_actor_filmography", Title: "Actor Filmography", Page: auth.PageCastRoles, Arity: 1},
	{Name: "sp_get_director_filmography_with_profit", Title: "Director Filmography", Page: auth.PageDirectorOperations, Arity: 1},
	{Name: "sp_calculate_producer_investment", Title: "Producer Investment", Page: auth.PageProducerAnalytics, Arity: 1},
	{Name: "sp_get_distributor_performance", Title: "Distributor Performance", Page: auth.PageProducerAnalytics},
	{Name: "sp_get_film_crew_payroll", Title: "Film Crew Payroll", Page: auth.PageCrewManagement, Arity: 1},
	{Name: "sp_get_equipment_usage_report", Title: "Equipment Usage", Page: auth.PageEquipmentLocations, Arity: 1},
	{Name: "sp_get_boxoffice_analysis", Title: "Box Office Analysis", Page: auth.PageAnalyticsReports},
}

// Procedures lists the callable read procedures.
func Procedures() []Procedure {
	out := make([]Procedure, len(procedures))
	copy(out, procedures)
	return out
}

func lookupProcedure(name string) (Procedure, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	for _, p := range procedures {
		if p.Name == name {
			return p, nil
		}
	}
	return Procedure{}, fmt.Errorf("%w: unknown procedure %q", auth.ErrNotFound, name)
}

// Function is a scalar database function of a single entity id.
type Function string

const (
	FnActorAge           Function = "fn_get_actor_age"
	FnDirectorFilmCount  Function = "fn_director_film_count"
	FnFilmProfit         Function = "fn_calculate_film_profit"
	FnEquipmentAvailable Function = "fn_equipment_available"
	FnFilmROI            Function = "fn_calculate_film_roi"
)

// Functions lists the callable scalar functions.
var Functions = []Function{FnActorAge, FnDirectorFilmCount, FnFilmProfit, FnEquipmentAvailable, FnFilmROI}

// ParseFunction validates name against Functions.
func ParseFunction(name string) (Function, error) {
	fn := Function(strings.ToLower(strings.TrimSpace(name)))
	for _, f := range Functions {
		if f == fn {
			return fn, nil
		}
	}
	return "", fmt.Errorf("%w: unknown function %q", auth.ErrNotFound, name)
}

// AuditKind selects one of the database audit tables.
type AuditKind string

const (
	AuditRole      AuditKind = "role"
	AuditEquipment AuditKind = "equipment"
	AuditFilm      AuditKind = "film"
)

// AuditKinds lists the audit tables in tab order.
var AuditKinds = []AuditKind{AuditRole, AuditEquipment, AuditFilm}

// ParseAuditKind validates s against AuditKinds.
func ParseAuditKind(s string) (AuditKind, error) {
	k := AuditKind(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range AuditKinds {
		if k == known {
			return k, nil
		}
	}
	return "", fmt.Errorf("%w: unknown audit log %q", auth.ErrNotFound, s)
}

// AuditLimit is the number of newest audit rows returned.
const AuditLimit = 50

// FilmStatus is a production status accepted by the status procedure.
type FilmStatus string

const (
	StatusPreProduction  FilmStatus = "Pre-Production"
	StatusInProgress     FilmStatus = "In Progress"
	StatusPostProduction FilmStatus = "Post-Production"
	StatusReleased       FilmStatus = "Released"
)

// FilmStatuses lists the production statuses in lifecycle order.
var FilmStatuses = []FilmStatus{StatusPreProduction, StatusInProgress, StatusPostProduction, StatusReleased}

// ParseFilmStatus accepts a status regardless of case.
func ParseFilmStatus(s string) (FilmStatus, error) {
	s = strings.TrimSpace(s)
	for _, st := range FilmStatuses {
		if strings.EqualFold(s, string(st)) {
			return st, nil
		}
	}
	return "", fmt.Errorf("%w: unknown film status %q", auth.ErrInvalidInput, s)
}

// Genres offered when adding a film.
var Genres = []string{"Action", "Drama", "Sci-Fi", "Comedy", "Thriller", "Adventure", "Horror", "Romance"}

// Languages an actor can be recorded as speaking.
var Languages = []string{"English", "Spanish", "French", "German", "Italian", "Mandarin", "Japanese"}

// MinBudget is the smallest budget the database accepts for a film.
const MinBudget = 100000

// MinActorAge is the youngest an actor may be when added.
const MinActorAge = 18

// DateLayout is the wire format of calendar dates.
const DateLayout = "2006-01-02"

// NewFilm is the input of the add-film procedure.
type NewFilm struct {
	Title       string   `json:"title" validate:"required,max=200"`
	Budget      float64  `json:"budget" validate:"gte=100000"`
	DurationMin int      `json:"duration_minutes" validate:"gte=30"`
	DirectorID  int64    `json:"director_id" validate:"gt=0"`
	Language    string   `json:"language" validate:"max=50"`
	Genres      []string `json:"genres" validate:"dive,genre"`
}

// FilmUpdate replaces the box office figure, rating and status of a film.
type FilmUpdate struct {
	FilmID    int64   `json:"-" validate:"gt=0"`
	BoxOffice float64 `json:"boxoffice_collection" validate:"gte=0"`
	Rating    float64 `json:"rating" validate:"gte=0,lte=10"`
	Status    string  `json:"status" validate:"required"`
}

// NewActor is an actor with the languages they speak.
type NewActor struct {
	FirstName   string   `json:"first_name" validate:"required,max=100"`
	LastName    string   `json:"last_name" validate:"required,max=100"`
	StageName   string   `json:"stage_name" validate:"max=100"`
	BirthDate   string   `json:"dob" validate:"required,datetime=2006-01-02"`
	Gender      string   `json:"gender" validate:"oneof=M F Other"`
	Nationality string   `json:"nationality" validate:"max=100"`
	Languages   []string `json:"languages" validate:"dive,language"`
}

// Casting puts an actor in a film.
type Casting struct {
	ActorID       int64   `json:"actor_id" validate:"gt=0"`
	FilmID        int64   `json:"-" validate:"gt=0"`
	CharacterName string  `json:"character_name" validate:"required,max=100"`
	ScreenTime    int     `json:"screen_time" validate:"gte=0"`
	Importance    string  `json:"importance" validate:"oneof=Lead Supporting Cameo"`
	Salary        float64 `json:"salary"`
}

// CrewAllocation assigns a crew member to a film for a date range. The
// department is copied from the crew record.
type CrewAllocation struct {
	CrewID    int64  `json:"crew_id" validate:"gt=0"`
	FilmID    int64  `json:"-" validate:"gt=0"`
	StartDate string `json:"start_date" validate:"required,datetime=2006-01-02"`
	EndDate   string `json:"end_date" validate:"required,datetime=2006-01-02"`
}

// NewEquipment is a piece of equipment bought for productions.
type NewEquipment struct {
	Name         string  `json:"name" validate:"required,max=100"`
	Type         string  `json:"type" validate:"required,max=50"`
	Cost         float64 `json:"cost"`
	PurchaseDate string  `json:"purchase_date" validate:"required,datetime=2006-01-02"`
	Condition    string  `json:"condition" validate:"oneof='Good' 'Fair' 'Needs Repair'"`
	Availability string  `json:"availability" validate:"oneof='Available' 'In Use' 'Under Maintenance'"`
}

// NewLocation is a shooting location booked for a film.
type NewLocation struct {
	FilmID        int64   `json:"-" validate:"gt=0"`
	Name          string  `json:"name" validate:"required,max=100"`
	City          string  `json:"city" validate:"required,max=100"`
	Country       string  `json:"country" validate:"max=100"`
	CostPerDay    float64 `json:"cost_per_day"`
	ShootingStart string  `json:"shooting_start" validate:"required,datetime=2006-01-02"`
	ShootingEnd   string  `json:"shooting_end" validate:"required,datetime=2006-01-02"`
}

// Booking is the outcome of adding a location: its id and the shooting cost
// for the whole date range.
type Booking struct {
	LocationID int64   `json:"location_id"`
	FilmID     int64   `json:"film_id"`
	Days       int     `json:"days"`
	TotalCost  float64 `json:"total_cost"`
}
