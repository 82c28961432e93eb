// Package dto decodes request bodies through explicit field tables and maps
// models to their JSON representations.
package dto

import (
	"bytes"
	"encoding/json"
	"fmt"
	"reflect"
	"sort"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
)

// Standard field messages.
const (
	MsgRequired  = "This field is required."
	MsgNull      = "This field may not be null."
	MsgBlank     = "This field may not be blank."
	MsgIncorrect = "Incorrect type."
	MsgImmutable = "This field cannot be changed after creation."
	MsgBadJSON   = "Invalid JSON body."
	MsgBadEmail  = "Enter a valid email address."
	MsgBadDate   = "Datetime has wrong format. Use one of these formats instead: YYYY-MM-DDThh:mm:ss[.uuuuuu]Z or +HH:MM."
)

// NonFieldErrors is the key for errors not tied to one field.
const NonFieldErrors = "non_field_errors"

// FieldRule says how one field of an entity may be used.
type FieldRule struct {
	Readable bool
	Writable bool
	Required bool
}

// Fields is the visibility table of an entity, keyed by JSON name.
type Fields map[string]FieldRule

// FieldErrors maps a JSON field name to its messages.
type FieldErrors map[string][]string

// Add appends a message for field.
func (e FieldErrors) Add(field, msg string) {
	e[field] = append(e[field], msg)
}

func (e FieldErrors) Error() string {
	keys := make([]string, 0, len(e))
	for k := range e {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s: %s", k, strings.Join(e[k], " ")))
	}
	return strings.Join(parts, "; ")
}

// Readable lists the readable field names in sorted order.
func (f Fields) Readable() []string {
	var out []string
	for name, rule := range f {
		if rule.Readable {
			out = append(out, name)
		}
	}
	sort.Strings(out)
	return out
}

// Decode fills dst, a pointer to a struct of pointer fields, from a JSON object body.
// Keys that are unknown or not writable are dropped. Unless partial is set, every
// required field must be present. It returns nil when the input is valid.
func (f Fields) Decode(body []byte, partial bool, dst interface{}) FieldErrors {
	errs := FieldErrors{}
	raw := map[string]json.RawMessage{}
	if len(bytes.TrimSpace(body)) > 0 {
		if err := json.Unmarshal(body, &raw); err != nil {
			errs.Add(NonFieldErrors, MsgBadJSON)
			return errs
		}
	}

	for name, value := range raw {
		rule, ok := f[name]
		if !ok || !rule.Writable {
			continue
		}
		if bytes.Equal(bytes.TrimSpace(value), []byte("null")) {
			if rule.Required {
				errs.Add(name, MsgNull)
			}
			continue
		}
		single, _ := json.Marshal(map[string]json.RawMessage{name: value})
		if err := json.Unmarshal(single, dst); err != nil {
			errs.Add(name, MsgIncorrect)
		}
	}

	if !partial {
		for name, rule := range f {
			if !rule.Required || !rule.Writable {
				continue
			}
			if _, ok := raw[name]; !ok {
				errs.Add(name, MsgRequired)
			}
		}
	}

	if err := validate.Struct(dst); err != nil {
		if verrs, ok := err.(validator.ValidationErrors); ok {
			for _, fe := range verrs {
				if _, dup := errs[fe.Field()]; dup {
					continue
				}
				errs.Add(fe.Field(), messageFor(fe))
			}
		} else {
			errs.Add(NonFieldErrors, err.Error())
		}
	}

	if len(errs) == 0 {
		return nil
	}
	return errs
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	_ = v.RegisterValidation("notblank", func(fl validator.FieldLevel) bool {
		return strings.TrimSpace(fl.Field().String()) != ""
	})
	return v
}

const msgMaxLength = "Ensure this field has no more than %s characters."

// CheckMaxLength adds the max-length message for field when value is longer than limit runes.
// It is used on values rewritten after decoding, such as sanitized text.
func (e FieldErrors) CheckMaxLength(field, value string, limit int) {
	if utf8.RuneCountInString(value) > limit {
		e.Add(field, fmt.Sprintf(msgMaxLength, strconv.Itoa(limit)))
	}
}

func messageFor(fe validator.FieldError) string {
	switch fe.Tag() {
	case "notblank", "required":
		return MsgBlank
	case "max":
		return fmt.Sprintf(msgMaxLength, fe.Param())
	case "min":
		return fmt.Sprintf("Ensure this field has at least %s characters.", fe.Param())
	case "email":
		return MsgBadEmail
	case "oneof":
		return fmt.Sprintf("%q is not a valid choice.", fmt.Sprint(fe.Value()))
	case "datetime":
		return MsgBadDate
	default:
		return "Invalid value."
	}
}
