package template

import (
	"context"
	"errors"
	"fmt"

	"github.com/docuflow/docuflow/internal/apperr"
	"github.com/docuflow/docuflow/internal/models"
	"github.com/docuflow/docuflow/internal/repository"
)

// Service is the management surface over stored templates: CRUD, variable
// registration, and the mock-backed preview.
type Service struct {
	repo   repository.TemplateRepository
	engine *Engine
}

func NewService(repo repository.TemplateRepository, engine *Engine) *Service {
	return &Service{repo: repo, engine: engine}
}

func (s *Service) List(ctx context.Context) ([]models.EmailTemplate, error) {
	return s.repo.List(ctx)
}

func (s *Service) Get(ctx context.Context, id int64) (*models.EmailTemplate, error) {
	tpl, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, apperr.NotFound("template not found")
	}
	return tpl, nil
}

type Input struct {
	Name         string
	Subject      string
	TemplateType string
	Body         string
	IsActive     bool
}

func validTemplateType(t string) bool {
	switch t {
	case models.TemplateTypeHTML, models.TemplateTypeBlade, models.TemplateTypeComponent:
		return true
	}
	return false
}

func (s *Service) validate(in Input) error {
	fields := make(map[string]string)
	if in.Name == "" {
		fields["name"] = "required"
	}
	if in.Subject == "" {
		fields["subject"] = "required"
	}
	if !validTemplateType(in.TemplateType) {
		fields["template_type"] = "must be html, blade or mail-component"
	}
	if in.Body == "" {
		fields["body"] = "required"
	}
	if len(fields) > 0 {
		return apperr.Validation("invalid template", fields)
	}
	return nil
}

func (s *Service) Create(ctx context.Context, in Input) (*models.EmailTemplate, error) {
	if err := s.validate(in); err != nil {
		return nil, err
	}
	tpl, err := s.repo.Create(ctx, &models.EmailTemplate{
		Name:         in.Name,
		Subject:      in.Subject,
		TemplateType: in.TemplateType,
		Body:         in.Body,
		IsActive:     in.IsActive,
	})
	if err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return nil, apperr.Conflict("a template with this name already exists", map[string]string{"name": "already taken"})
		}
		return nil, fmt.Errorf("create template: %w", err)
	}
	return tpl, nil
}

func (s *Service) Update(ctx context.Context, id int64, in Input) (*models.EmailTemplate, error) {
	if err := s.validate(in); err != nil {
		return nil, err
	}
	tpl, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	tpl.Name = in.Name
	tpl.Subject = in.Subject
	tpl.TemplateType = in.TemplateType
	tpl.Body = in.Body
	tpl.IsActive = in.IsActive
	if err := s.repo.Update(ctx, tpl); err != nil {
		return nil, fmt.Errorf("update template %d: %w", id, err)
	}
	return tpl, nil
}

func (s *Service) Delete(ctx context.Context, id int64) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return apperr.NotFound("template not found")
	}
	return nil
}

func (s *Service) Variables(ctx context.Context, templateID int64) ([]models.EmailTemplateVariable, error) {
	if _, err := s.Get(ctx, templateID); err != nil {
		return nil, err
	}
	return s.repo.ListVariables(ctx, templateID)
}

func (s *Service) UpsertVariable(ctx context.Context, templateID int64, name, displayName, defaultValue string) error {
	if name == "" {
		return apperr.Validation("variable name is required", map[string]string{"variable_name": "required"})
	}
	if _, err := s.Get(ctx, templateID); err != nil {
		return err
	}
	return s.repo.UpsertVariable(ctx, &models.EmailTemplateVariable{
		TemplateID:   templateID,
		VariableName: name,
		DisplayName:  displayName,
		DefaultValue: defaultValue,
	})
}

type Preview struct {
	Subject string `json:"subject"`
	HTML    string `json:"html"`
	Text    string `json:"text"`
}

// RenderPreview renders the template with the given variables, substituting
// deterministic mocks for any registered variable the request omitted.
func (s *Service) RenderPreview(ctx context.Context, templateID int64, vars map[string]any) (*Preview, error) {
	tpl, err := s.Get(ctx, templateID)
	if err != nil {
		return nil, err
	}
	registered, err := s.repo.ListVariables(ctx, templateID)
	if err != nil {
		return nil, fmt.Errorf("list variables: %w", err)
	}
	names := make([]string, 0, len(registered))
	for _, v := range registered {
		names = append(names, v.VariableName)
	}
	full := WithMocks(vars, names)

	html, err := s.engine.Render(tpl, full)
	if err != nil {
		return nil, apperr.Validation("template failed to render", map[string]string{"body": err.Error()})
	}
	text, err := s.engine.RenderText(tpl, full)
	if err != nil {
		return nil, apperr.Validation("template failed to render", map[string]string{"body": err.Error()})
	}
	return &Preview{
		Subject: s.engine.RenderSubject(tpl, full),
		HTML:    html,
		Text:    text,
	}, nil
}
