// Package store serves the hr.employee aggregate procedures from PostgreSQL.
package store

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/odyssey-erp/hrdash/internal/hrmetrics"
	"github.com/odyssey-erp/hrdash/internal/platform/db"
)

//go:embed migrations/*.sql
var migrationFS embed.FS

// Migrations exposes the schema files for db.Migrate.
func Migrations() fs.FS {
	sub, err := fs.Sub(migrationFS, "migrations")
	if err != nil {
		panic(err)
	}
	return sub
}

// DB is the subset of *pgxpool.Pool the store relies on.
type DB interface {
	db.TxStarter
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Options tunes the reporting windows.
type Options struct {
	// LeaveMonths is the window of the department leave and leave trend charts.
	LeaveMonths int
	// TrendMonths is the window of the join/resign and attrition charts.
	TrendMonths int
	// BirthdayDays is how far ahead birthdays are listed.
	BirthdayDays int
}

func (o Options) withDefaults() Options {
	if o.LeaveMonths <= 0 {
		o.LeaveMonths = 6
	}
	if o.TrendMonths <= 0 {
		o.TrendMonths = 12
	}
	if o.BirthdayDays <= 0 {
		o.BirthdayDays = 30
	}
	return o
}

// Store runs the aggregate SQL.
type Store struct {
	db   DB
	opts Options
	now  func() time.Time
}

// New constructs a Store.
func New(conn DB, opts Options) *Store {
	return &Store{db: conn, opts: opts.withDefaults(), now: time.Now}
}

// ErrNoEmployee is returned when the caller has no employee record.
var ErrNoEmployee = errors.New("store: no employee linked to user")

const monthSeries = `generate_series(
	date_trunc('month', $1::date) - ($2::int - 1) * interval '1 month',
	date_trunc('month', $1::date),
	interval '1 month') AS m(month)`

// DeptEmployee counts active employees per department.
func (s *Store) DeptEmployee(ctx context.Context) ([]hrmetrics.DeptHeadcount, error) {
	const q = `
SELECT d.name, COUNT(e.id)::float8
FROM departments d
JOIN employees e ON e.department_id = d.id
WHERE e.resign_date IS NULL OR e.resign_date > CURRENT_DATE
GROUP BY d.name
ORDER BY d.name`
	rows, err := s.db.Query(ctx, q)
	if err != nil {
		return nil, classify("dept employee", err)
	}
	out, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (hrmetrics.DeptHeadcount, error) {
		var h hrmetrics.DeptHeadcount
		err := row.Scan(&h.Label, &h.Value)
		return h, err
	})
	if err != nil {
		return nil, classify("dept employee", err)
	}
	return out, nil
}

// DepartmentLeave sums validated leave days per department and month.
func (s *Store) DepartmentLeave(ctx context.Context) (hrmetrics.DepartmentLeave, error) {
	q := `
SELECT to_char(m.month, 'Mon YYYY'), d.name, COALESCE(SUM(l.duration), 0)::float8
FROM ` + monthSeries + `
CROSS JOIN departments d
LEFT JOIN employees e ON e.department_id = d.id
LEFT JOIN leaves l ON l.employee_id = e.id AND l.state = 'validate' AND date_trunc('month', l.date_from) = m.month
GROUP BY m.month, d.name
ORDER BY m.month, d.name`
	rows, err := s.db.Query(ctx, q, s.today(), s.opts.LeaveMonths)
	if err != nil {
		return hrmetrics.DepartmentLeave{}, classify("department leave", err)
	}
	cells, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (leaveCell, error) {
		var c leaveCell
		err := row.Scan(&c.month, &c.department, &c.days)
		return c, err
	})
	if err != nil {
		return hrmetrics.DepartmentLeave{}, classify("department leave", err)
	}
	return pivotLeave(cells), nil
}

// JoinResignTrends counts joins and resignations per month.
func (s *Store) JoinResignTrends(ctx context.Context) ([]hrmetrics.TrendSeries, error) {
	q := `
SELECT to_char(m.month, 'Mon YYYY'),
	(SELECT COUNT(*) FROM employees e WHERE date_trunc('month', e.joining_date) = m.month)::float8,
	(SELECT COUNT(*) FROM employees e WHERE e.resign_date IS NOT NULL AND date_trunc('month', e.resign_date) = m.month)::float8
FROM ` + monthSeries + `
ORDER BY m.month`
	rows, err := s.db.Query(ctx, q, s.today(), s.opts.TrendMonths)
	if err != nil {
		return nil, classify("join resign trends", err)
	}
	points, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (monthFlow, error) {
		var f monthFlow
		err := row.Scan(&f.month, &f.joined, &f.resigned)
		return f, err
	})
	if err != nil {
		return nil, classify("join resign trends", err)
	}
	return joinResignSeries(points), nil
}

// AttritionRate computes resignations over average headcount per month.
func (s *Store) AttritionRate(ctx context.Context) ([]hrmetrics.AttritionPoint, error) {
	q := `
SELECT to_char(m.month, 'Mon YYYY'),
	(SELECT COUNT(*) FROM employees e WHERE e.resign_date IS NOT NULL AND date_trunc('month', e.resign_date) = m.month)::float8,
	(SELECT COUNT(*) FROM employees e WHERE e.joining_date < m.month AND (e.resign_date IS NULL OR e.resign_date >= m.month))::float8,
	(SELECT COUNT(*) FROM employees e WHERE e.joining_date < m.month + interval '1 month'
		AND (e.resign_date IS NULL OR e.resign_date >= m.month + interval '1 month'))::float8
FROM ` + monthSeries + `
ORDER BY m.month`
	rows, err := s.db.Query(ctx, q, s.today(), s.opts.TrendMonths)
	if err != nil {
		return nil, classify("attrition rate", err)
	}
	out, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (hrmetrics.AttritionPoint, error) {
		var p hrmetrics.AttritionPoint
		var resigned, opening, closing float64
		if err := row.Scan(&p.Month, &resigned, &opening, &closing); err != nil {
			return p, err
		}
		p.Rate = attritionRate(resigned, opening, closing)
		return p, nil
	})
	if err != nil {
		return nil, classify("attrition rate", err)
	}
	return out, nil
}

// LeaveTrend sums validated leave days of employeeID per month.
func (s *Store) LeaveTrend(ctx context.Context, employeeID int64) ([]hrmetrics.LeaveTrendPoint, error) {
	q := `
SELECT to_char(m.month, 'Mon YYYY'), COALESCE(SUM(l.duration), 0)::float8
FROM ` + monthSeries + `
LEFT JOIN leaves l ON l.employee_id = $3 AND l.state = 'validate' AND date_trunc('month', l.date_from) = m.month
GROUP BY m.month
ORDER BY m.month`
	rows, err := s.db.Query(ctx, q, s.today(), s.opts.LeaveMonths, employeeID)
	if err != nil {
		return nil, classify("leave trend", err)
	}
	out, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (hrmetrics.LeaveTrendPoint, error) {
		var p hrmetrics.LeaveTrendPoint
		err := row.Scan(&p.Month, &p.Leave)
		return p, err
	})
	if err != nil {
		return nil, classify("leave trend", err)
	}
	return out, nil
}

// EmployeeSkill lists the skills of employeeID.
func (s *Store) EmployeeSkill(ctx context.Context, employeeID int64) ([]hrmetrics.SkillProgress, error) {
	const q = `SELECT skill, progress::float8 FROM employee_skills WHERE employee_id = $1 ORDER BY skill`
	rows, err := s.db.Query(ctx, q, employeeID)
	if err != nil {
		return nil, classify("employee skill", err)
	}
	out, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (hrmetrics.SkillProgress, error) {
		var p hrmetrics.SkillProgress
		err := row.Scan(&p.Skill, &p.Progress)
		return p, err
	})
	if err != nil {
		return nil, classify("employee skill", err)
	}
	return out, nil
}

// IsManager reports whether userID is flagged as HR manager.
func (s *Store) IsManager(ctx context.Context, userID int64) (bool, error) {
	var manager bool
	err := s.db.QueryRow(ctx, `SELECT is_hr_manager FROM employees WHERE user_id = $1`, userID).Scan(&manager)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, classify("check user group", err)
	}
	return manager, nil
}

// EmployeeDetails loads the employee of userID with the quick action counters.
func (s *Store) EmployeeDetails(ctx context.Context, userID int64) ([]hrmetrics.EmployeeDetails, error) {
	const q = `
SELECT e.id, e.name, e.job_title, COALESCE(d.name, ''), e.attendance_state,
	(SELECT COUNT(*) FROM leaves WHERE state IN ('confirm', 'validate1')),
	(SELECT COUNT(*) FROM leave_allocations WHERE state IN ('confirm', 'validate1')),
	(SELECT COUNT(*) FROM leaves WHERE state = 'validate' AND date_from <= $2 AND date_to >= $2),
	(SELECT COUNT(*) FROM leaves WHERE state = 'validate'
		AND date_from > date_trunc('month', $2::date)
		AND date_from < date_trunc('month', $2::date) + interval '1 month' - interval '1 day'),
	(SELECT COUNT(*) FROM applicants WHERE active),
	(SELECT COUNT(*) FROM payslips WHERE employee_id = e.id),
	(SELECT COUNT(*) FROM timesheets WHERE employee_id = e.id),
	(SELECT COUNT(*) FROM contracts WHERE employee_id = e.id),
	(SELECT power(COUNT(*), 2) * COALESCE(SUM(duration), 0) FROM leaves
		WHERE employee_id = e.id AND state = 'validate' AND date_to <= $2 AND date_to > $2::date - 365)::float8
FROM employees e
LEFT JOIN departments d ON d.id = e.department_id
WHERE e.user_id = $1`
	var d hrmetrics.EmployeeDetails
	err := s.db.QueryRow(ctx, q, userID, s.today()).Scan(
		&d.ID, &d.Name, &d.JobTitle, &d.Department, &d.AttendanceState,
		&d.LeavesToApprove, &d.AllocToApprove, &d.LeavesToday, &d.LeavesThisMonth,
		&d.JobApplications, &d.PayslipCount, &d.TimesheetCount, &d.ContractCount, &d.BroadFactor,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return []hrmetrics.EmployeeDetails{}, nil
	}
	if err != nil {
		return nil, classify("employee details", err)
	}
	return []hrmetrics.EmployeeDetails{d}, nil
}

// Upcoming lists birthdays, events and announcements relative to today.
func (s *Store) Upcoming(ctx context.Context) (hrmetrics.Upcoming, error) {
	today := s.today()
	out := hrmetrics.Upcoming{Birthdays: []hrmetrics.Birthday{}, Events: []hrmetrics.Event{}, Announcements: []hrmetrics.Announcement{}}

	rows, err := s.db.Query(ctx, `
SELECT e.id, e.name, e.birthday, COALESCE(d.name, '')
FROM employees e
LEFT JOIN departments d ON d.id = e.department_id
WHERE e.birthday IS NOT NULL AND e.resign_date IS NULL`)
	if err != nil {
		return out, classify("upcoming birthdays", err)
	}
	type candidate struct {
		b        hrmetrics.Birthday
		birthday time.Time
	}
	candidates, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (candidate, error) {
		var c candidate
		err := row.Scan(&c.b.EmployeeID, &c.b.Name, &c.birthday, &c.b.Department)
		return c, err
	})
	if err != nil {
		return out, classify("upcoming birthdays", err)
	}
	for _, c := range candidates {
		if next, ok := nextBirthday(c.birthday, today, s.opts.BirthdayDays); ok {
			c.b.Date = next.Format(time.DateOnly)
			out.Birthdays = append(out.Birthdays, c.b)
		}
	}
	sortBirthdays(out.Birthdays)

	rows, err = s.db.Query(ctx, `
SELECT name, to_char(date_from, 'YYYY-MM-DD'), to_char(date_to, 'YYYY-MM-DD'), location
FROM events WHERE date_to >= $1 ORDER BY date_from LIMIT 10`, today)
	if err != nil {
		return out, classify("upcoming events", err)
	}
	events, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (hrmetrics.Event, error) {
		var e hrmetrics.Event
		err := row.Scan(&e.Name, &e.DateFrom, &e.DateTo, &e.Location)
		return e, err
	})
	if err != nil {
		return out, classify("upcoming events", err)
	}
	out.Events = append(out.Events, events...)

	rows, err = s.db.Query(ctx, `
SELECT title, to_char(date, 'YYYY-MM-DD'), summary
FROM announcements WHERE date <= $1 AND (expiry IS NULL OR expiry >= $1)
ORDER BY date DESC LIMIT 10`, today)
	if err != nil {
		return out, classify("announcements", err)
	}
	notes, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (hrmetrics.Announcement, error) {
		var a hrmetrics.Announcement
		err := row.Scan(&a.Title, &a.Date, &a.Summary)
		return a, err
	})
	if err != nil {
		return out, classify("announcements", err)
	}
	out.Announcements = append(out.Announcements, notes...)
	return out, nil
}

// AttendanceManual flips the attendance of employeeID, opening or closing an
// attendance record. It reports false when the employee does not exist.
func (s *Store) AttendanceManual(ctx context.Context, employeeID int64) (bool, error) {
	found := false
	err := db.WithTx(ctx, s.db, func(tx pgx.Tx) error {
		var state string
		err := tx.QueryRow(ctx, `SELECT attendance_state FROM employees WHERE id = $1 FOR UPDATE`, employeeID).Scan(&state)
		if errors.Is(err, pgx.ErrNoRows) {
			return nil
		}
		if err != nil {
			return err
		}
		found = true
		next := nextAttendanceState(state)
		if next == hrmetrics.CheckedIn {
			if _, err := tx.Exec(ctx, `INSERT INTO attendances (employee_id, check_in) VALUES ($1, $2)`, employeeID, s.now()); err != nil {
				return err
			}
		} else {
			if _, err := tx.Exec(ctx, `UPDATE attendances SET check_out = $2 WHERE employee_id = $1 AND check_out IS NULL`, employeeID, s.now()); err != nil {
				return err
			}
		}
		_, err = tx.Exec(ctx, `UPDATE employees SET attendance_state = $2 WHERE id = $1`, employeeID, next)
		return err
	})
	if err != nil {
		return false, classify("attendance manual", err)
	}
	return found, nil
}

// EnsureEmployee returns the employee linked to userID, creating one named
// after the user when none exists yet.
func (s *Store) EnsureEmployee(ctx context.Context, userID int64, name string) (hrmetrics.LinkedEmployee, error) {
	const q = `
WITH created AS (
	INSERT INTO employees (user_id, name) VALUES ($1, $2)
	ON CONFLICT (user_id) DO NOTHING
	RETURNING id
)
SELECT id, TRUE FROM created
UNION ALL
SELECT id, FALSE FROM employees WHERE user_id = $1
LIMIT 1`
	if userID <= 0 {
		return hrmetrics.LinkedEmployee{}, fmt.Errorf("store: ensure employee: invalid user id %d", userID)
	}
	var out hrmetrics.LinkedEmployee
	if err := s.db.QueryRow(ctx, q, userID, employeeName(userID, name)).Scan(&out.ID, &out.Created); err != nil {
		return hrmetrics.LinkedEmployee{}, classify("ensure employee", err)
	}
	return out, nil
}

func employeeName(userID int64, name string) string {
	if name = strings.TrimSpace(name); name != "" {
		return name
	}
	return fmt.Sprintf("User %d", userID)
}

func (s *Store) today() time.Time {
	y, m, d := s.now().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// classify tags errors with the SQLSTATE when Postgres reported one.
func classify(op string, err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return fmt.Errorf("store: %s: sqlstate %s: %w", op, pgErr.Code, err)
	}
	return fmt.Errorf("store: %s: %w", op, err)
}
