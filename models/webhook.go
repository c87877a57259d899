package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// Webhook describes one entry of an app's webhooks column. Method is any
// HTTP method string.
type Webhook struct {
	URL      string                 `json:"url" validate:"required,url"`
	Method   string                 `json:"method,omitempty"`
	Headers  map[string]string      `json:"headers,omitempty"`
	Events   []string               `json:"events,omitempty" validate:"omitempty,dive,required"`
	Enabled  *bool                  `json:"enabled,omitempty"`
	Metadata map[string]interface{} `json:"metadata,omitempty"`
}

// Webhooks is the nullable webhooks column. A nil value is stored as NULL.
type Webhooks []Webhook

// Validate checks every webhook and returns ValidationErrors for all of them.
func (w Webhooks) Validate() error {
	var errs ValidationErrors
	for i, hook := range w {
		if err := validate.Struct(hook); err != nil {
			converted := convertValidatorErrors(err, fmt.Sprintf("webhooks[%d]", i))
			ves, ok := converted.(ValidationErrors)
			if !ok {
				return converted
			}
			errs = append(errs, ves...)
		}
	}
	if len(errs) > 0 {
		return errs
	}
	return nil
}

// Value implements driver.Valuer. Webhooks are validated before they are written.
func (w Webhooks) Value() (driver.Value, error) {
	if w == nil {
		return nil, nil
	}
	if err := w.Validate(); err != nil {
		return nil, err
	}
	data, err := json.Marshal(w)
	if err != nil {
		return nil, fmt.Errorf("failed to encode webhooks: %w", err)
	}
	return string(data), nil
}

// Scan implements sql.Scanner for JSON and TEXT columns.
func (w *Webhooks) Scan(src interface{}) error {
	var data []byte
	switch v := src.(type) {
	case nil:
		*w = nil
		return nil
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("unsupported webhooks column type %T", src)
	}

	if len(data) == 0 || string(data) == "null" {
		*w = nil
		return nil
	}

	var hooks Webhooks
	if err := json.Unmarshal(data, &hooks); err != nil {
		return fmt.Errorf("failed to decode webhooks: %w", err)
	}
	*w = hooks
	return nil
}
