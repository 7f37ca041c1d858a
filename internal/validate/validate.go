// Package validate checks record batches against the domain rules declared
// in struct tags on the schema types, using go-playground/validator v10.
//
// It is a stateless predicate set: the same functions run after cleaning
// (Transactions) and after derivation (Enriched). Violations are returned,
// never raised; the caller decides what to do with violating records.
package validate

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	"salesmart/internal/schema"
)

// Stage is the stage name carried on rejections produced from violations.
const Stage = "validate"

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

// Violation is a single failed rule on a single record.
type Violation struct {
	Index         int // position in the validated batch
	Line          int
	TransactionID int64
	Field         string
	Tag           string
	Param         string
	Value         any
	Message       string
}

func (v Violation) Error() string {
	return fmt.Sprintf("line %d: transaction %d: %s", v.Line, v.TransactionID, v.Message)
}

// Validator returns the shared validator instance. Field names in messages
// come from json tags so they match the canonical snake_case columns.
func Validator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		validate.RegisterTagNameFunc(func(f reflect.StructField) string {
			name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
			if name == "-" || name == "" {
				return f.Name
			}
			return name
		})
	})
	return validate
}

// Transactions validates every record of a cleaned batch.
func Transactions(recs []schema.Transaction) []Violation {
	var out []Violation
	for i := range recs {
		out = append(out, check(i, recs[i].Line, recs[i].TransactionID, &recs[i])...)
	}
	return out
}

// Enriched validates every record of a derived batch, including the embedded
// transaction fields.
func Enriched(recs []schema.Enriched) []Violation {
	var out []Violation
	for i := range recs {
		out = append(out, check(i, recs[i].Line, recs[i].TransactionID, &recs[i])...)
	}
	return out
}

// Partition splits recs into records without violations and rejections for
// the rest, one rejection per record carrying its first violation.
func Partition(recs []schema.Transaction, vs []Violation) ([]schema.Transaction, []schema.Rejection) {
	if len(vs) == 0 {
		return recs, nil
	}
	first := make(map[int]Violation, len(vs))
	for _, v := range vs {
		if _, ok := first[v.Index]; !ok {
			first[v.Index] = v
		}
	}
	kept := make([]schema.Transaction, 0, len(recs)-len(first))
	var rejected []schema.Rejection
	for i, r := range recs {
		v, bad := first[i]
		if !bad {
			kept = append(kept, r)
			continue
		}
		rejected = append(rejected, schema.Rejection{
			Line:          r.Line,
			TransactionID: r.TransactionID,
			Stage:         Stage,
			Rule:          v.Field + ":" + v.Tag,
			Err:           v,
		})
	}
	return kept, rejected
}

func check(idx, line int, id int64, s any) []Violation {
	err := Validator().Struct(s)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return []Violation{{Index: idx, Line: line, TransactionID: id, Message: err.Error()}}
	}
	out := make([]Violation, 0, len(verrs))
	for _, fe := range verrs {
		out = append(out, Violation{
			Index:         idx,
			Line:          line,
			TransactionID: id,
			Field:         fe.Field(),
			Tag:           fe.Tag(),
			Param:         fe.Param(),
			Value:         fe.Value(),
			Message:       translate(fe),
		})
	}
	return out
}

// translate converts a field error into a readable message.
func translate(fe validator.FieldError) string {
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "oneof":
		return fmt.Sprintf("%s must be one of [%s], got %v", field, fe.Param(), fe.Value())
	case "gt":
		return fmt.Sprintf("%s must be greater than %s, got %v", field, fe.Param(), fe.Value())
	case "gte":
		return fmt.Sprintf("%s must be at least %s, got %v", field, fe.Param(), fe.Value())
	case "lte":
		return fmt.Sprintf("%s must be at most %s, got %v", field, fe.Param(), fe.Value())
	default:
		return fmt.Sprintf("%s failed %s validation", field, fe.Tag())
	}
}
