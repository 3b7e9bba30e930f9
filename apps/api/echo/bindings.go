package echoapi

import (
	"sort"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/trezcool/bursar/core/student"
)

var orderingParam = "ordering"

type orderingField struct {
	Field     string
	Ascending bool
}

// Ordering binds `?ordering=grade,-name` to a list of sort fields.
type Ordering struct {
	Orderings []orderingField
}

func (ord *Ordering) Bind(ctx echo.Context) {
	data := ctx.QueryParams()
	if len(data) == 0 {
		return
	}
	val, ok := data[orderingParam]
	if !ok || len(val) == 0 || val[0] == "" {
		return
	}

	for _, field := range strings.Split(val[0], ",") {
		field = strings.TrimSpace(field)
		descending := strings.HasPrefix(field, "-")
		if descending {
			field = field[1:] // drop "-"
		}
		if _, known := studentOrderings[field]; known {
			ord.Orderings = append(ord.Orderings, orderingField{Field: field, Ascending: !descending})
		}
	}
}

var studentOrderings = map[string]func(a, b student.Student) int{
	"student_number": func(a, b student.Student) int { return strings.Compare(a.StudentNumber, b.StudentNumber) },
	"name":           func(a, b student.Student) int { return strings.Compare(strings.ToLower(a.Name), strings.ToLower(b.Name)) },
	"grade":          func(a, b student.Student) int { return strings.Compare(a.Grade, b.Grade) },
}

// Sort sorts students in place; students come ordered by student number, which breaks ties.
func (ord Ordering) Sort(students []student.Student) {
	if len(ord.Orderings) == 0 {
		return
	}
	sort.SliceStable(students, func(i, j int) bool {
		for _, o := range ord.Orderings {
			c := studentOrderings[o.Field](students[i], students[j])
			if c == 0 {
				continue
			}
			if o.Ascending {
				return c < 0
			}
			return c > 0
		}
		return false
	})
}
