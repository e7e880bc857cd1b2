package mail

import (
	"context"
	"fmt"
	"strconv"

	"github.com/docuflow/docuflow/internal/apperr"
	"github.com/docuflow/docuflow/internal/models"
	"github.com/docuflow/docuflow/internal/template"
)

// TemplateSource resolves the database-backed template a mail kind renders.
type TemplateSource interface {
	GetTemplateByName(ctx context.Context, name string) (*models.EmailTemplate, error)
}

// Share mail kinds: "mail" for the initial share, "reminder" for re-sends.
const (
	ShareKindMail     = "mail"
	ShareKindReminder = "reminder"
)

type Mailer struct {
	templates TemplateSource
	engine    *template.Engine
	sender    Sender
}

func NewMailer(templates TemplateSource, engine *template.Engine, sender Sender) *Mailer {
	return &Mailer{templates: templates, engine: engine, sender: sender}
}

// SendShareDocument delivers the tokenized signing link for a share. The
// same template serves first sends and reminders; the kind is a variable.
func (m *Mailer) SendShareDocument(ctx context.Context, to string, sharedDocumentID int64, documentPDFID string, employeeID int64, kind string) error {
	return m.send(ctx, to, models.TemplateShareDocument, map[string]any{
		"shared_document_id": strconv.FormatInt(sharedDocumentID, 10),
		"document_pdf_id":    documentPDFID,
		"employee_id":        strconv.FormatInt(employeeID, 10),
		"type":               kind,
	})
}

func (m *Mailer) SendOTP(ctx context.Context, to, code string) error {
	return m.send(ctx, to, models.TemplateOTP, map[string]any{
		"otpCode": code,
	})
}

func (m *Mailer) SendVerification(ctx context.Context, to, verificationURL string, user *models.User) error {
	return m.send(ctx, to, models.TemplateEmailVerification, map[string]any{
		"verificationUrl": verificationURL,
		"user": map[string]any{
			"name":  user.Name,
			"email": user.Email,
			"id":    user.ID,
		},
	})
}

func (m *Mailer) send(ctx context.Context, to, templateName string, vars map[string]any) error {
	tpl, err := m.templates.GetTemplateByName(ctx, templateName)
	if err != nil {
		return fmt.Errorf("resolve template %q: %w", templateName, err)
	}
	if !tpl.IsActive {
		return apperr.New(apperr.KindDependency, fmt.Sprintf("template %q is inactive", templateName))
	}

	html, err := m.engine.Render(tpl, vars)
	if err != nil {
		return fmt.Errorf("render template %q: %w", templateName, err)
	}
	text, err := m.engine.RenderText(tpl, vars)
	if err != nil {
		return fmt.Errorf("render text for %q: %w", templateName, err)
	}

	msg := Message{
		To:      to,
		Subject: m.engine.RenderSubject(tpl, vars),
		HTML:    html,
		Text:    text,
	}
	if err := m.sender.Send(ctx, msg); err != nil {
		return apperr.Dependency("mail delivery failed", err)
	}
	return nil
}
