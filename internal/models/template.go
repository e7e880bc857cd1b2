package models

import "time"

// Template types. "html" is a flat string with {{var}} placeholders; "blade"
// and "mail-component" contain expressions and named components and go
// through the sandboxed evaluator.
const (
	TemplateTypeHTML      = "html"
	TemplateTypeBlade     = "blade"
	TemplateTypeComponent = "mail-component"
)

type EmailTemplate struct {
	ID           int64     `json:"id" db:"id"`
	Name         string    `json:"name" db:"name"`
	Subject      string    `json:"subject" db:"subject"`
	TemplateType string    `json:"template_type" db:"template_type"`
	Body         string    `json:"body" db:"body"`
	IsActive     bool      `json:"is_active" db:"is_active"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time `json:"updated_at" db:"updated_at"`
}

type EmailTemplateVariable struct {
	ID           int64  `json:"id" db:"id"`
	TemplateID   int64  `json:"template_id" db:"template_id"`
	VariableName string `json:"variable_name" db:"variable_name"`
	DisplayName  string `json:"display_name" db:"display_name"`
	DefaultValue string `json:"default_value" db:"default_value"`
}

// Well-known template names resolved by the mail factories.
const (
	TemplateShareDocument     = "Share Document"
	TemplateOTP               = "OTP Code"
	TemplateEmailVerification = "Email Verification"
)
