package benchmark

import (
	"errors"
	"iter"
	"strconv"
)

// Employee is the only document type the benchmark works with.
type Employee struct {
	ID        string `json:"Id" bson:"_id"`
	FirstName string `json:"FirstName" bson:"FirstName"`
	LastName  string `json:"LastName" bson:"LastName"`
	Title     string `json:"Title" bson:"Title"`
}

// nameCycle bounds the numeric suffix of generated first names.
const nameCycle = 1000

// GenerateEmployees yields count synthetic employees: John0 .. John999, repeating.
func GenerateEmployees(count int) iter.Seq[*Employee] {
	return func(yield func(*Employee) bool) {
		for i := 0; i < count; i++ {
			e := &Employee{
				FirstName: "John" + strconv.Itoa(i%nameCycle),
				LastName:  "Doe",
				Title:     "Software Developer",
			}
			if !yield(e) {
				return
			}
		}
	}
}

// Field selects which name the query predicate inspects.
type Field string

const (
	FieldFirstName Field = "first"
	FieldLastName  Field = "last"
)

var ErrUnknownField = errors.New("unknown employee field")

// ParseField accepts "first" or "last"; the empty string means first.
func ParseField(s string) (Field, error) {
	switch Field(s) {
	case "", FieldFirstName:
		return FieldFirstName, nil
	case FieldLastName:
		return FieldLastName, nil
	default:
		return "", ErrUnknownField
	}
}

func (f Field) value(e *Employee) string {
	if f == FieldLastName {
		return e.LastName
	}
	return e.FirstName
}

// Matches reports whether the selected field ends in '0'.
func (f Field) Matches(e *Employee) bool {
	v := f.value(e)
	return len(v) > 0 && v[len(v)-1] == '0'
}
