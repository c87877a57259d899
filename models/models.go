package models

import "time"

type AppResponse struct {
	Success bool `json:"success"`
	App     *App `json:"app"`
}

type HealthResponse struct {
	Message            string `json:"message"`
	Version            string `json:"version"`
	Status             string `json:"status"`
	DatabaseAccessible bool   `json:"database_accessible"`
}

type ErrorResponse struct {
	Error   string    `json:"error"`
	Details string    `json:"details,omitempty"`
	Time    time.Time `json:"time"`
}

type ValidationErrorResponse struct {
	Error  string            `json:"error"`
	Errors []ValidationError `json:"errors"`
	Time   time.Time         `json:"time"`
}
