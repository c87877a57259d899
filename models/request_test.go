package models

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCreateAppRequest_Defaults(t *testing.T) {
	req, err := ParseCreateAppRequest([]byte(`{"id":"myapp","key":"k1","secret":"s1"}`))
	require.NoError(t, err)

	assert.Equal(t, "myapp", req.ID)
	assert.Equal(t, "k1", req.Key)
	assert.Equal(t, "s1", req.Secret)
	assert.Equal(t, 100, req.MaxConnections)
	assert.Equal(t, 1, req.EnableClientMessages)
}

func TestParseCreateAppRequest_ExplicitValues(t *testing.T) {
	req, err := ParseCreateAppRequest([]byte(`{
		"id": "My_App-2",
		"key": "key",
		"secret": "secret",
		"max_connections": 100000,
		"enable_client_messages": 0,
		"unknown_field": true
	}`))
	require.NoError(t, err)

	assert.Equal(t, "My_App-2", req.ID)
	assert.Equal(t, 100000, req.MaxConnections)
	assert.Equal(t, 0, req.EnableClientMessages)
}

func TestParseCreateAppRequest_Invalid(t *testing.T) {
	long := strings.Repeat("a", 256)

	tests := []struct {
		name     string
		body     string
		expected []ValidationError
	}{
		{
			name: "id with invalid characters",
			body: `{"id":"bad id!","key":"k","secret":"s"}`,
			expected: []ValidationError{
				{Field: "id", Message: "App ID can only contain letters, numbers, underscores and hyphens"},
			},
		},
		{
			name: "missing required fields",
			body: `{}`,
			expected: []ValidationError{
				{Field: "id", Message: "App ID is required"},
				{Field: "id", Message: "App ID can only contain letters, numbers, underscores and hyphens"},
				{Field: "key", Message: "App key is required"},
				{Field: "secret", Message: "App secret is required"},
			},
		},
		{
			name: "values too long",
			body: `{"id":"` + long + `","key":"` + long + `","secret":"` + long + `"}`,
			expected: []ValidationError{
				{Field: "id", Message: "App ID must be less than 255 characters"},
				{Field: "key", Message: "App key must be less than 255 characters"},
				{Field: "secret", Message: "App secret must be less than 255 characters"},
			},
		},
		{
			name: "max_connections below range",
			body: `{"id":"a","key":"k","secret":"s","max_connections":0}`,
			expected: []ValidationError{
				{Field: "max_connections", Message: "Max connections must be at least 1"},
			},
		},
		{
			name: "max_connections above range",
			body: `{"id":"a","key":"k","secret":"s","max_connections":100001}`,
			expected: []ValidationError{
				{Field: "max_connections", Message: "Max connections cannot exceed 100,000"},
			},
		},
		{
			name: "max_connections not an integer",
			body: `{"id":"a","key":"k","secret":"s","max_connections":1.5}`,
			expected: []ValidationError{
				{Field: "max_connections", Message: "must be an integer"},
			},
		},
		{
			name: "max_connections as string",
			body: `{"id":"a","key":"k","secret":"s","max_connections":"10"}`,
			expected: []ValidationError{
				{Field: "max_connections", Message: "must be a number"},
			},
		},
		{
			name: "enable_client_messages out of range",
			body: `{"id":"a","key":"k","secret":"s","enable_client_messages":2}`,
			expected: []ValidationError{
				{Field: "enable_client_messages", Message: "Enable client messages must be 0 or 1"},
			},
		},
		{
			name: "enable_client_messages null",
			body: `{"id":"a","key":"k","secret":"s","enable_client_messages":null}`,
			expected: []ValidationError{
				{Field: "enable_client_messages", Message: "must be a number"},
			},
		},
		{
			name: "key is a number",
			body: `{"id":"a","key":42,"secret":"s"}`,
			expected: []ValidationError{
				{Field: "key", Message: "must be a string"},
			},
		},
		{
			name: "every field invalid",
			body: `{"id":"","key":"","secret":"","max_connections":-5,"enable_client_messages":-1}`,
			expected: []ValidationError{
				{Field: "id", Message: "App ID is required"},
				{Field: "id", Message: "App ID can only contain letters, numbers, underscores and hyphens"},
				{Field: "key", Message: "App key is required"},
				{Field: "secret", Message: "App secret is required"},
				{Field: "max_connections", Message: "Max connections must be at least 1"},
				{Field: "enable_client_messages", Message: "Enable client messages must be 0 or 1"},
			},
		},
		{
			name:     "array body",
			body:     `[]`,
			expected: []ValidationError{{Field: "body", Message: "must be a JSON object"}},
		},
		{
			name:     "null body",
			body:     `null`,
			expected: []ValidationError{{Field: "body", Message: "must be a JSON object"}},
		},
		{
			name:     "malformed body",
			body:     `{"id":`,
			expected: []ValidationError{{Field: "body", Message: "must be a JSON object"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, err := ParseCreateAppRequest([]byte(tt.body))
			assert.Nil(t, req)
			require.Error(t, err)

			var ves ValidationErrors
			require.ErrorAs(t, err, &ves)
			assert.Equal(t, ValidationErrors(tt.expected), ves)
		})
	}
}

func TestCreateAppRequest_Validate(t *testing.T) {
	req := &CreateAppRequest{ID: "cli-app", Key: "k", Secret: "s", MaxConnections: 1, EnableClientMessages: 0}
	assert.NoError(t, req.Validate())

	req.ID = "no spaces allowed"
	err := req.Validate()
	require.Error(t, err)

	var ves ValidationErrors
	require.ErrorAs(t, err, &ves)
	assert.True(t, ves.HasField("id"))
	assert.False(t, ves.HasField("key"))
}

func TestValidationErrors_Error(t *testing.T) {
	assert.Equal(t, "", ValidationErrors{}.Error())
	assert.Equal(t, "id: is required", ValidationErrors{{Field: "id", Message: "is required"}}.Error())
	assert.Equal(t,
		"multiple validation errors: id: is required; key: is required",
		ValidationErrors{{Field: "id", Message: "is required"}, {Field: "key", Message: "is required"}}.Error(),
	)
}
