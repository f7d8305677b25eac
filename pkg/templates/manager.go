package templates

import (
	"bytes"
	"fmt"
	"io/fs"
	"text/template"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/selivandex/fng-signal/pkg/logger"
	"github.com/selivandex/fng-signal/pkg/models"
)

// Renderer interface for template rendering (for dependency injection)
type Renderer interface {
	ExecuteTemplate(name string, data any) (string, error)
	TemplateExists(name string) bool
}

// Manager manages a set of parsed templates
type Manager struct {
	templates *template.Template
}

// GetDefaultFuncMap returns common template helper functions
func GetDefaultFuncMap() template.FuncMap {
	return template.FuncMap{
		"money": func(d decimal.Decimal) string {
			return d.StringFixed(2)
		},
		"avg": func(d decimal.NullDecimal) string {
			if !d.Valid {
				return "n/a"
			}
			return d.Decimal.StringFixed(2)
		},
		"date": func(v any) string {
			if t, ok := v.(interface{ Format(string) string }); ok {
				return t.Format(models.DateLayout)
			}
			return fmt.Sprint(v)
		},
	}
}

// NewManagerFS parses every template matching patterns in fsys and verifies
// the required ones exist
func NewManagerFS(fsys fs.FS, required []string, patterns ...string) (*Manager, error) {
	tmpl, err := template.New("root").Funcs(GetDefaultFuncMap()).ParseFS(fsys, patterns...)
	if err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}

	for _, name := range required {
		if tmpl.Lookup(name) == nil {
			return nil, fmt.Errorf("required template not found: %s", name)
		}
	}

	logger.Debug("templates loaded",
		zap.Int("count", len(tmpl.Templates())),
	)

	return &Manager{templates: tmpl}, nil
}

// ExecuteTemplate renders template with data
func (m *Manager) ExecuteTemplate(name string, data any) (string, error) {
	tmpl := m.templates.Lookup(name)
	if tmpl == nil {
		return "", fmt.Errorf("template %s not found", name)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to execute template %s: %w", name, err)
	}

	return buf.String(), nil
}

// TemplateExists checks if template exists
func (m *Manager) TemplateExists(name string) bool {
	return m.templates.Lookup(name) != nil
}
