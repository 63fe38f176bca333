package specification

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// Operator identifies the comparison a Condition performs.
type Operator string

const (
	OpEq       Operator = "eq"
	OpContains Operator = "contains"
	OpGt       Operator = "gt"
	OpGte      Operator = "gte"
	OpLt       Operator = "lt"
	OpLte      Operator = "lte"
)

// Valid reports whether the operator is one the evaluator knows how to apply.
func (o Operator) Valid() bool {
	switch o {
	case OpEq, OpContains, OpGt, OpGte, OpLt, OpLte:
		return true
	default:
		return false
	}
}

// Condition is a structured filter predicate: field, operator and value.
// Conditions are plain data so they serialize and compare by structure,
// never by identity.
type Condition struct {
	Field string
	Op    Operator
	Value any
}

// Eq matches rows whose field equals value. String values compare
// case-insensitively.
func Eq(field string, value any) Condition {
	return Condition{Field: field, Op: OpEq, Value: value}
}

// Contains matches rows whose field contains value, ignoring case.
func Contains(field, value string) Condition {
	return Condition{Field: field, Op: OpContains, Value: value}
}

// Gt matches rows whose field is greater than value.
func Gt(field string, value any) Condition {
	return Condition{Field: field, Op: OpGt, Value: value}
}

// Gte matches rows whose field is greater than or equal to value.
func Gte(field string, value any) Condition {
	return Condition{Field: field, Op: OpGte, Value: value}
}

// Lt matches rows whose field is less than value.
func Lt(field string, value any) Condition {
	return Condition{Field: field, Op: OpLt, Value: value}
}

// Lte matches rows whose field is less than or equal to value.
func Lte(field string, value any) Condition {
	return Condition{Field: field, Op: OpLte, Value: value}
}

// String renders the condition as field:op:value. String values are quoted
// so separators inside user input cannot merge with neighbouring segments.
func (c Condition) String() string {
	return c.Field + ":" + string(c.Op) + ":" + formatValue(c.Value)
}

func (c Condition) validate() error {
	if strings.TrimSpace(c.Field) == "" {
		return fmt.Errorf("%w: empty field", ErrInvalidCondition)
	}
	if !c.Op.Valid() {
		return fmt.Errorf("%w: unknown operator %q", ErrInvalidCondition, c.Op)
	}
	if c.Value == nil {
		return fmt.Errorf("%w: nil value for %s", ErrInvalidCondition, c.Field)
	}
	if c.Op == OpContains {
		if _, ok := c.Value.(string); !ok {
			return fmt.Errorf("%w: contains requires a string value", ErrInvalidCondition)
		}
	}
	return nil
}

func formatValue(v any) string {
	switch val := v.(type) {
	case nil:
		return "nil"
	case string:
		return strconv.Quote(val)
	case decimal.Decimal:
		return val.String()
	case *decimal.Decimal:
		if val == nil {
			return "nil"
		}
		return val.String()
	case bool:
		return strconv.FormatBool(val)
	case int:
		return strconv.Itoa(val)
	case int64:
		return strconv.FormatInt(val, 10)
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case fmt.Stringer:
		return val.String()
	default:
		return fmt.Sprintf("%v", val)
	}
}
