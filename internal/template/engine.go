// Package template renders email templates stored in the database. Flat
// "html" templates get pure {{name}} substitution; "blade" and
// "mail-component" templates are evaluated as sandboxed expressions with the
// variable map as their environment.
package template

import (
	"fmt"
	"regexp"
	"strings"
	"sync"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
	"github.com/jaytaylor/html2text"

	"github.com/docuflow/docuflow/internal/models"
)

var placeholderPattern = regexp.MustCompile(`\{\{\s*([\w.]+)\s*\}\}`)

type Engine struct {
	mu    sync.Mutex
	cache map[int64]cachedProgram
}

// cachedProgram is one compiled body per template id; a newer stamp replaces
// the old program so edits do not accumulate stale entries.
type cachedProgram struct {
	stamp    int64
	compiled *compiled
}

func NewEngine() *Engine {
	return &Engine{cache: make(map[int64]cachedProgram)}
}

// Render produces the HTML body for a template. Expression templates are
// compiled once and cached by (template id, updated_at); editing a template
// invalidates the cached program through the changed timestamp.
func (e *Engine) Render(tpl *models.EmailTemplate, vars map[string]any) (string, error) {
	switch tpl.TemplateType {
	case models.TemplateTypeBlade, models.TemplateTypeComponent:
		c, err := e.compiled(tpl)
		if err != nil {
			return "", err
		}
		return c.render(vars)
	default:
		return Substitute(tpl.Body, vars), nil
	}
}

// RenderSubject always uses plain substitution, regardless of template type.
func (e *Engine) RenderSubject(tpl *models.EmailTemplate, vars map[string]any) string {
	return Substitute(tpl.Subject, vars)
}

// RenderText derives the plain-text body from the rendered HTML: block
// elements become newlines, links render as "text (url)".
func (e *Engine) RenderText(tpl *models.EmailTemplate, vars map[string]any) (string, error) {
	html, err := e.Render(tpl, vars)
	if err != nil {
		return "", err
	}
	return html2text.FromString(html, html2text.Options{TextOnly: false})
}

// Substitute replaces every {{name}} occurrence with the variable's string
// value. Names may be dotted paths into nested maps. Missing variables stay
// as the literal {{name}} form.
func Substitute(body string, vars map[string]any) string {
	return placeholderPattern.ReplaceAllStringFunc(body, func(match string) string {
		name := placeholderPattern.FindStringSubmatch(match)[1]
		if v, ok := lookup(vars, name); ok {
			return stringify(v)
		}
		return match
	})
}

func lookup(vars map[string]any, path string) (any, bool) {
	parts := strings.Split(path, ".")
	var cur any = vars
	for _, p := range parts {
		m, ok := cur.(map[string]any)
		if !ok {
			return nil, false
		}
		if cur, ok = m[p]; !ok {
			return nil, false
		}
	}
	return cur, true
}

func stringify(v any) string {
	if v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}

func (e *Engine) compiled(tpl *models.EmailTemplate) (*compiled, error) {
	stamp := tpl.UpdatedAt.UnixNano()

	e.mu.Lock()
	defer e.mu.Unlock()
	if c, ok := e.cache[tpl.ID]; ok && c.stamp == stamp {
		return c.compiled, nil
	}

	c, err := compile(tpl.Body)
	if err != nil {
		return nil, fmt.Errorf("compile template %q: %w", tpl.Name, err)
	}
	e.cache[tpl.ID] = cachedProgram{stamp: stamp, compiled: c}
	return c, nil
}

// compiled is a template body parsed into literal and expression segments.
type compiled struct {
	segments []segment
}

type segment struct {
	literal string
	program *vm.Program
	raw     string
}

var exprPattern = regexp.MustCompile(`\{\{(.+?)\}\}`)

func compile(body string) (*compiled, error) {
	body = expandComponents(body)

	var segs []segment
	last := 0
	for _, loc := range exprPattern.FindAllStringSubmatchIndex(body, -1) {
		if loc[0] > last {
			segs = append(segs, segment{literal: body[last:loc[0]]})
		}
		code := strings.TrimSpace(body[loc[2]:loc[3]])
		program, err := expr.Compile(code, expr.AllowUndefinedVariables())
		if err != nil {
			return nil, fmt.Errorf("expression %q: %w", code, err)
		}
		segs = append(segs, segment{program: program, raw: body[loc[0]:loc[1]]})
		last = loc[1]
	}
	if last < len(body) {
		segs = append(segs, segment{literal: body[last:]})
	}
	return &compiled{segments: segs}, nil
}

// render evaluates the compiled segments. The evaluator has no access to the
// host runtime or filesystem; the environment is exactly the variable map.
func (c *compiled) render(vars map[string]any) (string, error) {
	var b strings.Builder
	for _, s := range c.segments {
		if s.program == nil {
			b.WriteString(s.literal)
			continue
		}
		out, err := expr.Run(s.program, vars)
		if err != nil {
			// Undefined property access fails at run time; render the
			// placeholder literally instead of failing the whole mail.
			b.WriteString(s.raw)
			continue
		}
		b.WriteString(stringify(out))
	}
	return b.String(), nil
}
