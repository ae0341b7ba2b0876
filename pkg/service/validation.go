package service

import (
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strings"
	"unicode"

	"github.com/go-playground/validator/v10"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/osit-platform/osit-backend/pkg/types"
)

const minPasswordLength = 8

// fixedWeekKeys is the five week schema some clients submit
var fixedWeekKeys = []string{"week1", "week2", "week3", "week4", "week5"}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		switch name {
		case "-":
			return ""
		case "":
			return fld.Name
		}
		return name
	})
	// a zero Date counts as missing for "required"
	v.RegisterCustomTypeFunc(func(field reflect.Value) interface{} {
		if d, ok := field.Interface().(types.Date); ok && !d.IsZero() {
			return d.Time
		}
		return nil
	}, types.Date{})

	if err := v.RegisterValidation("phone", isPhone); err != nil {
		panic(err)
	}
	if err := v.RegisterValidation("password", isStrongPassword); err != nil {
		panic(err)
	}
	return v
}

func isPhone(fl validator.FieldLevel) bool {
	phone := fl.Field().String()
	if len(phone) != 10 {
		return false
	}
	for _, r := range phone {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func isStrongPassword(fl validator.FieldLevel) bool {
	pw := fl.Field().String()
	if len(pw) < minPasswordLength {
		return false
	}
	hasLetter, hasDigit := false, false
	for _, r := range pw {
		switch {
		case unicode.IsLetter(r):
			hasLetter = true
		case unicode.IsDigit(r):
			hasDigit = true
		}
	}
	return hasLetter && hasDigit
}

func validateStruct(s interface{}) error {
	if err := validate.Struct(s); err != nil {
		return validationError(err)
	}
	return nil
}

func validationError(err error) error {
	return NewValidationError(strings.Join(fieldErrors(err, ""), "; "))
}

// fieldErrors describes every failed field, each name preceded by prefix
func fieldErrors(err error, prefix string) []string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return []string{prefix + err.Error()}
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, prefix+describeFieldError(fe))
	}
	return msgs
}

func describeFieldError(fe validator.FieldError) string {
	field := fe.Namespace()
	if i := strings.Index(field, "."); i >= 0 {
		field = field[i+1:]
	}
	field = strings.ReplaceAll(field, "ParticipantProfile.", "")

	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "email":
		return field + " must be a valid email address"
	case "phone":
		return field + " must be exactly 10 digits"
	case "password":
		return fmt.Sprintf("%s must be at least %d characters and contain a letter and a digit", field, minPasswordLength)
	case "min":
		switch fe.Kind() {
		case reflect.Map, reflect.Slice, reflect.Array:
			return fmt.Sprintf("%s must contain at least %s entries", field, fe.Param())
		}
		return fmt.Sprintf("%s must be at least %s", field, fe.Param())
	case "gt":
		return fmt.Sprintf("%s must be greater than %s", field, fe.Param())
	case "gte":
		return fmt.Sprintf("%s must be at least %s", field, fe.Param())
	case "ltefield":
		return fmt.Sprintf("%s must not exceed %s", field, lowerFirst(fe.Param()))
	}
	return fmt.Sprintf("%s failed the %s check", field, fe.Tag())
}

func lowerFirst(s string) string {
	if s == "" {
		return s
	}
	r := []rune(s)
	r[0] = unicode.ToLower(r[0])
	return string(r)
}

// ValidateInterventionPlan checks the minimum cardinality rules: at least two
// weeks, at least one session per week, and a session number, goal and
// activity on every session. With requireFixedWeeks the week labels must be
// exactly week1..week5.
func ValidateInterventionPlan(plan types.InterventionPlan, requireFixedWeeks bool) error {
	if err := validateStruct(plan); err != nil {
		return err
	}

	// map values are not walked by the struct tags, so each week is checked here
	keys := make([]string, 0, len(plan.Weeks))
	for k := range plan.Weeks {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	msgs := []string{}
	for _, k := range keys {
		if err := validate.Struct(plan.Weeks[k]); err != nil {
			msgs = append(msgs, fieldErrors(err, "interventionPlan.weeks["+k+"].")...)
		}
	}
	if len(msgs) > 0 {
		return NewValidationError(strings.Join(msgs, "; "))
	}

	if !requireFixedWeeks {
		return nil
	}
	if !reflect.DeepEqual(keys, fixedWeekKeys) {
		return NewValidationError("interventionPlan.weeks must contain exactly " + strings.Join(fixedWeekKeys, ", "))
	}
	return nil
}

// ParseObjectID turns a hex id into an ObjectID, failing with a validation error
func ParseObjectID(hex string, what string) (primitive.ObjectID, error) {
	id, err := primitive.ObjectIDFromHex(strings.TrimSpace(hex))
	if err != nil {
		return primitive.NilObjectID, NewValidationError(fmt.Sprintf("invalid %s id: %q", what, hex))
	}
	return id, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
