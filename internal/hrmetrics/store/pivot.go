package store

import (
	"math"
	"sort"
	"time"

	"github.com/odyssey-erp/hrdash/internal/hrmetrics"
)

type leaveCell struct {
	month      string
	department string
	days       float64
}

type monthFlow struct {
	month    string
	joined   float64
	resigned float64
}

// pivotLeave folds (month, department, days) cells into monthly rows. Months
// and departments keep their first-seen order.
func pivotLeave(cells []leaveCell) hrmetrics.DepartmentLeave {
	out := hrmetrics.DepartmentLeave{Rows: []hrmetrics.MonthlyLeave{}, Departments: []string{}}
	monthIdx := map[string]int{}
	seenDept := map[string]bool{}
	for _, c := range cells {
		i, ok := monthIdx[c.month]
		if !ok {
			i = len(out.Rows)
			monthIdx[c.month] = i
			out.Rows = append(out.Rows, hrmetrics.MonthlyLeave{Month: c.month, Leave: map[string]float64{}})
		}
		out.Rows[i].Leave[c.department] += c.days
		if !seenDept[c.department] {
			seenDept[c.department] = true
			out.Departments = append(out.Departments, c.department)
		}
	}
	return out
}

func joinResignSeries(points []monthFlow) []hrmetrics.TrendSeries {
	join := hrmetrics.TrendSeries{Name: "Join", Values: make([]hrmetrics.MonthCount, 0, len(points))}
	resign := hrmetrics.TrendSeries{Name: "Resign", Values: make([]hrmetrics.MonthCount, 0, len(points))}
	for _, p := range points {
		join.Values = append(join.Values, hrmetrics.MonthCount{Month: p.month, Count: p.joined})
		resign.Values = append(resign.Values, hrmetrics.MonthCount{Month: p.month, Count: p.resigned})
	}
	return []hrmetrics.TrendSeries{join, resign}
}

// attritionRate is resignations over the average of opening and closing
// headcount, in percent with two decimals.
func attritionRate(resigned, opening, closing float64) float64 {
	avg := (opening + closing) / 2
	if avg <= 0 {
		return 0
	}
	return math.Round(resigned/avg*100*100) / 100
}

// nextBirthday returns the next anniversary of birthday on or after today when
// it falls within window days. Feb 29 birthdays are observed on Feb 28 in
// common years.
func nextBirthday(birthday, today time.Time, window int) (time.Time, bool) {
	next := anniversary(birthday, today.Year())
	if next.Before(today) {
		next = anniversary(birthday, today.Year()+1)
	}
	if next.Sub(today) > time.Duration(window)*24*time.Hour {
		return time.Time{}, false
	}
	return next, true
}

func anniversary(birthday time.Time, year int) time.Time {
	month, day := birthday.Month(), birthday.Day()
	if month == time.February && day == 29 && !isLeap(year) {
		day = 28
	}
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

func isLeap(year int) bool {
	return year%4 == 0 && (year%100 != 0 || year%400 == 0)
}

func sortBirthdays(list []hrmetrics.Birthday) {
	sort.SliceStable(list, func(i, j int) bool {
		if list[i].Date != list[j].Date {
			return list[i].Date < list[j].Date
		}
		return list[i].Name < list[j].Name
	})
}

func nextAttendanceState(current string) string {
	if current == hrmetrics.CheckedIn {
		return hrmetrics.CheckedOut
	}
	return hrmetrics.CheckedIn
}
