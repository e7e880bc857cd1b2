package template

import (
	"context"
	"strings"
	"testing"

	"github.com/docuflow/docuflow/internal/apperr"
	"github.com/docuflow/docuflow/internal/models"
	"github.com/docuflow/docuflow/internal/repository"
)

func newTemplateService(t *testing.T) (*Service, *repository.Memory) {
	t.Helper()
	mem := repository.NewMemory()
	return NewService(repository.MemoryTemplates{Memory: mem}, NewEngine()), mem
}

func TestCRUDAndValidation(t *testing.T) {
	svc, _ := newTemplateService(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, Input{Name: "X", Subject: "s", TemplateType: "markdown", Body: "b"})
	if apperr.KindOf(err) != apperr.KindValidation {
		t.Fatalf("bad type: want validation, got %v", err)
	}

	tpl, err := svc.Create(ctx, Input{
		Name: "Welcome", Subject: "Hi {{user.name}}", TemplateType: models.TemplateTypeHTML,
		Body: "Hello {{user.name}}", IsActive: true,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if _, err := svc.Create(ctx, Input{
		Name: "welcome", Subject: "s", TemplateType: models.TemplateTypeHTML, Body: "b",
	}); apperr.KindOf(err) != apperr.KindConflict {
		t.Fatalf("duplicate name: want conflict, got %v", err)
	}

	tpl, err = svc.Update(ctx, tpl.ID, Input{
		Name: "Welcome", Subject: "Hi", TemplateType: models.TemplateTypeHTML, Body: "Bye", IsActive: false,
	})
	if err != nil || tpl.Body != "Bye" || tpl.IsActive {
		t.Fatalf("update = %+v, %v", tpl, err)
	}

	if err := svc.Delete(ctx, tpl.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := svc.Get(ctx, tpl.ID); apperr.KindOf(err) != apperr.KindNotFound {
		t.Fatalf("get deleted: want not found, got %v", err)
	}
}

func TestRenderPreviewMocksMissingVariables(t *testing.T) {
	svc, _ := newTemplateService(t)
	ctx := context.Background()

	tpl, err := svc.Create(ctx, Input{
		Name: "Greeting", Subject: "For {{user.name}}", TemplateType: models.TemplateTypeHTML,
		Body: "Hello {{user.name}}", IsActive: true,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := svc.UpsertVariable(ctx, tpl.ID, "user", "Recipient", ""); err != nil {
		t.Fatalf("register variable: %v", err)
	}

	p, err := svc.RenderPreview(ctx, tpl.ID, nil)
	if err != nil {
		t.Fatalf("preview: %v", err)
	}
	if p.HTML != "Hello John Doe" || p.Subject != "For John Doe" {
		t.Fatalf("mocked preview = %+v", p)
	}

	p, err = svc.RenderPreview(ctx, tpl.ID, map[string]any{
		"user": map[string]any{"name": "Jane"},
	})
	if err != nil || p.HTML != "Hello Jane" {
		t.Fatalf("explicit preview = %+v, %v", p, err)
	}
}

func TestRenderPreviewUnknownVariableStaysLiteral(t *testing.T) {
	svc, _ := newTemplateService(t)
	ctx := context.Background()

	tpl, err := svc.Create(ctx, Input{
		Name: "Odd", Subject: "s", TemplateType: models.TemplateTypeHTML,
		Body: "Value: {{mystery}}", IsActive: true,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	p, err := svc.RenderPreview(ctx, tpl.ID, nil)
	if err != nil {
		t.Fatalf("preview: %v", err)
	}
	if !strings.Contains(p.HTML, "{{mystery}}") {
		t.Fatalf("unknown variable should stay literal: %q", p.HTML)
	}
}

func TestVariablesRequireExistingTemplate(t *testing.T) {
	svc, _ := newTemplateService(t)
	ctx := context.Background()

	if _, err := svc.Variables(ctx, 404); apperr.KindOf(err) != apperr.KindNotFound {
		t.Fatalf("want not found, got %v", err)
	}
	if err := svc.UpsertVariable(ctx, 404, "user", "", ""); apperr.KindOf(err) != apperr.KindNotFound {
		t.Fatalf("want not found, got %v", err)
	}
}
