package models

import (
	"bytes"
	"encoding/json"
	"errors"
	"math"
	"sort"
	"strconv"
)

const (
	DefaultMaxConnections       = 100
	DefaultEnableClientMessages = 1
)

// CreateAppRequest is the typed, fully defaulted request to register an app.
type CreateAppRequest struct {
	ID                   string `json:"id"`
	Key                  string `json:"key"`
	Secret               string `json:"secret"`
	MaxConnections       int    `json:"max_connections"`
	EnableClientMessages int    `json:"enable_client_messages"`
}

type fieldRule struct {
	tag     string
	message string
}

// createAppRules lists every rule per field. All rules of a field are checked
// so one field can report several violations.
var createAppRules = []struct {
	field string
	value func(r *CreateAppRequest) interface{}
	rules []fieldRule
}{
	{
		field: "id",
		value: func(r *CreateAppRequest) interface{} { return r.ID },
		rules: []fieldRule{
			{"required", "App ID is required"},
			{"max=255", "App ID must be less than 255 characters"},
			{"app_id", "App ID can only contain letters, numbers, underscores and hyphens"},
		},
	},
	{
		field: "key",
		value: func(r *CreateAppRequest) interface{} { return r.Key },
		rules: []fieldRule{
			{"required", "App key is required"},
			{"max=255", "App key must be less than 255 characters"},
		},
	},
	{
		field: "secret",
		value: func(r *CreateAppRequest) interface{} { return r.Secret },
		rules: []fieldRule{
			{"required", "App secret is required"},
			{"max=255", "App secret must be less than 255 characters"},
		},
	},
	{
		field: "max_connections",
		value: func(r *CreateAppRequest) interface{} { return r.MaxConnections },
		rules: []fieldRule{
			{"min=1", "Max connections must be at least 1"},
			{"max=100000", "Max connections cannot exceed 100,000"},
		},
	},
	{
		field: "enable_client_messages",
		value: func(r *CreateAppRequest) interface{} { return r.EnableClientMessages },
		rules: []fieldRule{
			{"min=0", "Enable client messages must be 0 or 1"},
			{"max=1", "Enable client messages must be 0 or 1"},
		},
	},
}

var validate = NewValidator()

// Validate checks every rule of every field and returns ValidationErrors
// listing all violations, or nil.
func (r *CreateAppRequest) Validate() error {
	if errs := r.validate(nil); len(errs) > 0 {
		return errs
	}
	return nil
}

func (r *CreateAppRequest) validate(skip map[string]bool) ValidationErrors {
	var errs ValidationErrors
	for _, fr := range createAppRules {
		if skip[fr.field] {
			continue
		}
		value := fr.value(r)
		for _, rule := range fr.rules {
			if err := validate.Var(value, rule.tag); err != nil {
				errs = append(errs, ValidationError{Field: fr.field, Message: rule.message})
			}
		}
	}
	return errs
}

// ParseCreateAppRequest decodes an untyped JSON object into a CreateAppRequest,
// applies defaults for omitted optional fields and validates the result.
// Type mismatches are reported as validation errors on the offending field.
func ParseCreateAppRequest(data []byte) (*CreateAppRequest, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil || raw == nil {
		return nil, ValidationErrors{{Field: "body", Message: "must be a JSON object"}}
	}

	req := &CreateAppRequest{
		MaxConnections:       DefaultMaxConnections,
		EnableClientMessages: DefaultEnableClientMessages,
	}

	var errs ValidationErrors
	typeErrs := make(map[string]bool)

	for field, dst := range map[string]*string{
		"id":     &req.ID,
		"key":    &req.Key,
		"secret": &req.Secret,
	} {
		msg, ok := raw[field]
		if !ok {
			continue
		}
		if err := decodeString(msg, dst); err != nil {
			typeErrs[field] = true
			errs = append(errs, ValidationError{Field: field, Message: "must be a string"})
		}
	}

	for field, dst := range map[string]*int{
		"max_connections":        &req.MaxConnections,
		"enable_client_messages": &req.EnableClientMessages,
	} {
		msg, ok := raw[field]
		if !ok {
			continue
		}
		if msg := decodeInt(msg, dst); msg != "" {
			typeErrs[field] = true
			errs = append(errs, ValidationError{Field: field, Message: msg})
		}
	}

	errs = append(errs, req.validate(typeErrs)...)
	if len(errs) > 0 {
		return nil, errs.sorted()
	}
	return req, nil
}

var (
	jsonNull     = []byte("null")
	errNotString = errors.New("not a JSON string")
)

func decodeString(msg json.RawMessage, dst *string) error {
	msg = bytes.TrimSpace(msg)
	if len(msg) == 0 || msg[0] != '"' {
		return errNotString
	}
	return json.Unmarshal(msg, dst)
}

// decodeInt returns a non-empty message when msg is not an integral JSON number.
func decodeInt(msg json.RawMessage, dst *int) string {
	msg = bytes.TrimSpace(msg)
	if len(msg) == 0 || bytes.Equal(msg, jsonNull) || !(msg[0] == '-' || (msg[0] >= '0' && msg[0] <= '9')) {
		return "must be a number"
	}
	f, err := strconv.ParseFloat(string(msg), 64)
	if err != nil {
		return "must be a number"
	}
	if f != math.Trunc(f) {
		return "must be an integer"
	}
	// Out-of-range magnitudes still fail the range rules after clamping.
	switch {
	case f > math.MaxInt32:
		f = math.MaxInt32
	case f < math.MinInt32:
		f = math.MinInt32
	}
	*dst = int(f)
	return ""
}

// sorted orders errors by field declaration order, keeping per-field rule order.
func (ves ValidationErrors) sorted() ValidationErrors {
	order := make(map[string]int, len(createAppRules))
	for i, fr := range createAppRules {
		order[fr.field] = i
	}
	sort.SliceStable(ves, func(i, j int) bool {
		return order[ves[i].Field] < order[ves[j].Field]
	})
	return ves
}
