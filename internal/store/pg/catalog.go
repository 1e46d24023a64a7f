package pg

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"
	"strings"

	"filmdb.org/internal/auth"
	"filmdb.org/internal/catalog"
)

var identPattern = regexp.MustCompile(`^[a-z_][a-z0-9_]*$`)

var auditTables = map[catalog.AuditKind]string{
	catalog.AuditRole:      "role_audit",
	catalog.AuditEquipment: "equipment_audit",
	catalog.AuditFilm:      "film_audit",
}

func ident(name string) (string, error) {
	if !identPattern.MatchString(name) {
		return "", fmt.Errorf("pg: invalid identifier %q", name)
	}
	return name, nil
}

// Summary reads the dashboard headline figures.
func (s *Store) Summary(ctx context.Context) (catalog.Summary, error) {
	db, err := s.conn.DB(ctx)
	if err != nil {
		return catalog.Summary{}, err
	}
	var out catalog.Summary
	err = db.QueryRowContext(ctx, `
		select
			(select count(*) from film),
			(select count(*) from actor),
			coalesce((select sum(budget) from film), 0),
			coalesce((select sum(boxoffice_collection) from film), 0)
	`).Scan(&out.Films, &out.Actors, &out.TotalBudget, &out.TotalBoxOffice)
	if err != nil {
		return catalog.Summary{}, mapError(err)
	}

	rows, err := db.QueryContext(ctx, `select production_status, count(*) from film group by production_status`)
	if err != nil {
		return catalog.Summary{}, mapError(err)
	}
	defer rows.Close()
	out.ByStatus = map[string]int64{}
	for rows.Next() {
		var (
			status sql.NullString
			n      int64
		)
		if err := rows.Scan(&status, &n); err != nil {
			return catalog.Summary{}, mapError(err)
		}
		out.ByStatus[status.String] = n
	}
	return out, mapError(rows.Err())
}

// View selects every column of view, capped at limit when it is positive.
func (s *Store) View(ctx context.Context, view string, limit int) (catalog.Table, error) {
	name, err := ident(view)
	if err != nil {
		return catalog.Table{}, err
	}
	q := `select * from ` + name
	var args []any
	if limit > 0 {
		q += ` limit $1`
		args = append(args, limit)
	}
	out, err := s.queryTable(ctx, q, args...)
	return out, mapError(err)
}

// CallProcedure runs a set-returning function and collects its rows.
func (s *Store) CallProcedure(ctx context.Context, name string, args ...any) (catalog.Table, error) {
	fn, err := ident(name)
	if err != nil {
		return catalog.Table{}, err
	}
	out, err := s.queryTable(ctx, `select * from `+fn+`(`+placeholders(len(args))+`)`, args...)
	return out, catalogError(err)
}

// CallFunction evaluates a scalar function of one id.
func (s *Store) CallFunction(ctx context.Context, fn catalog.Function, id int64) (any, error) {
	name, err := ident(string(fn))
	if err != nil {
		return nil, err
	}
	db, err := s.conn.DB(ctx)
	if err != nil {
		return nil, err
	}
	var v any
	if err := db.QueryRowContext(ctx, `select `+name+`($1)`, id).Scan(&v); err != nil {
		return nil, catalogError(err)
	}
	return normalize(v), nil
}

// AuditTrail returns the newest rows of an audit table.
func (s *Store) AuditTrail(ctx context.Context, kind catalog.AuditKind, limit int) (catalog.Table, error) {
	table, ok := auditTables[kind]
	if !ok {
		return catalog.Table{}, fmt.Errorf("pg: unknown audit kind %q", kind)
	}
	out, err := s.queryTable(ctx, `select * from `+table+` order by "timestamp" desc limit $1`, limit)
	return out, mapError(err)
}

// UpdateFilmStatus calls sp_update_film_status.
func (s *Store) UpdateFilmStatus(ctx context.Context, filmID int64, status catalog.FilmStatus) error {
	db, err := s.conn.DB(ctx)
	if err != nil {
		return err
	}
	_, err = db.ExecContext(ctx, `call sp_update_film_status($1, $2)`, filmID, string(status))
	return catalogError(err)
}

// AddFilm calls sp_add_film_with_genres with a comma separated genre list.
func (s *Store) AddFilm(ctx context.Context, f catalog.NewFilm) (catalog.Table, error) {
	out, err := s.queryTable(ctx, `select * from sp_add_film_with_genres($1, $2, $3, $4, $5, $6)`,
		f.Title, f.Budget, f.DurationMin, f.DirectorID, f.Language, strings.Join(f.Genres, ", "))
	return out, catalogError(err)
}

// UpdateFilm overwrites the box office figure, rating and status of a film.
func (s *Store) UpdateFilm(ctx context.Context, u catalog.FilmUpdate, status catalog.FilmStatus) error {
	db, err := s.conn.DB(ctx)
	if err != nil {
		return err
	}
	res, err := db.ExecContext(ctx, `
		update film
		   set boxoffice_collection = $1, rating = $2, production_status = $3
		 where film_id = $4`, u.BoxOffice, u.Rating, string(status), u.FilmID)
	if err != nil {
		return catalogError(err)
	}
	return affected(res, "film", u.FilmID)
}

// AddActor inserts the actor and their languages in one transaction.
func (s *Store) AddActor(ctx context.Context, a catalog.NewActor) (int64, error) {
	var id int64
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		err := tx.QueryRowContext(ctx, `
			insert into actor (first_name, last_name, dob, gender, nationality, stage_name)
			values ($1, $2, $3::date, $4, $5, nullif($6, ''))
			returning actor_id`,
			a.FirstName, a.LastName, a.BirthDate, a.Gender, a.Nationality, a.StageName).Scan(&id)
		if err != nil {
			return err
		}
		for _, lang := range a.Languages {
			if _, err := tx.ExecContext(ctx, `insert into actor_language (actor_id, language) values ($1, $2)`, id, lang); err != nil {
				return err
			}
		}
		return nil
	})
	return id, err
}

// CastActor inserts a role row.
func (s *Store) CastActor(ctx context.Context, c catalog.Casting) error {
	db, err := s.conn.DB(ctx)
	if err != nil {
		return err
	}
	_, err = db.ExecContext(ctx, `
		insert into "role" (actor_id, film_id, character_name, screen_time, importance, salary)
		values ($1, $2, $3, $4, $5, $6)`,
		c.ActorID, c.FilmID, c.CharacterName, c.ScreenTime, c.Importance, c.Salary)
	return catalogError(err)
}

// AllocateCrew inserts a works_on row, copying the department from crew.
func (s *Store) AllocateCrew(ctx context.Context, c catalog.CrewAllocation) error {
	db, err := s.conn.DB(ctx)
	if err != nil {
		return err
	}
	res, err := db.ExecContext(ctx, `
		insert into works_on (crew_id, film_id, start_date, end_date, department)
		select $1, $2, $3::date, $4::date, department from crew where crew_id = $1`,
		c.CrewID, c.FilmID, c.StartDate, c.EndDate)
	if err != nil {
		return catalogError(err)
	}
	return affected(res, "crew member", c.CrewID)
}

// AddEquipment inserts an equipment row and returns its id.
func (s *Store) AddEquipment(ctx context.Context, e catalog.NewEquipment) (int64, error) {
	db, err := s.conn.DB(ctx)
	if err != nil {
		return 0, err
	}
	var id int64
	err = db.QueryRowContext(ctx, `
		insert into equipment (name, type, cost, purchase_date, condition, availability)
		values ($1, $2, $3, $4::date, $5, $6)
		returning equipment_id`,
		e.Name, e.Type, e.Cost, e.PurchaseDate, e.Condition, e.Availability).Scan(&id)
	if err != nil {
		return 0, catalogError(err)
	}
	return id, nil
}

// AddLocation inserts the location and its shot_at booking in one
// transaction and returns the location id.
func (s *Store) AddLocation(ctx context.Context, l catalog.NewLocation, totalCost float64) (int64, error) {
	var id int64
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		err := tx.QueryRowContext(ctx, `
			insert into shooting_location (name, city, country, cost_per_day)
			values ($1, $2, $3, $4)
			returning location_id`, l.Name, l.City, l.Country, l.CostPerDay).Scan(&id)
		if err != nil {
			return err
		}
		_, err = tx.ExecContext(ctx, `
			insert into shot_at (film_id, location_id, shooting_start, shooting_end, total_cost)
			values ($1, $2, $3::date, $4::date, $5)`,
			l.FilmID, id, l.ShootingStart, l.ShootingEnd, totalCost)
		return err
	})
	return id, err
}

func (s *Store) inTx(ctx context.Context, fn func(*sql.Tx) error) error {
	db, err := s.conn.DB(ctx)
	if err != nil {
		return err
	}
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return mapError(err)
	}
	defer func() { _ = tx.Rollback() }()
	if err := fn(tx); err != nil {
		return catalogError(err)
	}
	return catalogError(tx.Commit())
}

func affected(res sql.Result, what string, id int64) error {
	n, err := res.RowsAffected()
	if err != nil {
		return mapError(err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s %d", auth.ErrNotFound, what, id)
	}
	return nil
}

// queryTable collects every row of q. Errors are returned unclassified so
// callers can apply the mapping that fits the call.
func (s *Store) queryTable(ctx context.Context, q string, args ...any) (catalog.Table, error) {
	db, err := s.conn.DB(ctx)
	if err != nil {
		return catalog.Table{}, err
	}
	rows, err := db.QueryContext(ctx, q, args...)
	if err != nil {
		return catalog.Table{}, err
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return catalog.Table{}, err
	}
	out := catalog.Table{Columns: cols, Rows: []map[string]any{}}
	for rows.Next() {
		vals := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return catalog.Table{}, err
		}
		row := make(map[string]any, len(cols))
		for i, c := range cols {
			row[c] = normalize(vals[i])
		}
		out.Rows = append(out.Rows, row)
	}
	if err := rows.Err(); err != nil {
		return catalog.Table{}, err
	}
	return out, nil
}

func normalize(v any) any {
	if b, ok := v.([]byte); ok {
		return string(b)
	}
	return v
}

func placeholders(n int) string {
	if n == 0 {
		return ""
	}
	parts := make([]string, n)
	for i := range parts {
		parts[i] = fmt.Sprintf("$%d", i+1)
	}
	return strings.Join(parts, ", ")
}
