package handler

import (
	"database/sql"
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
)

// Renderer executes one parsed template set per page.  Every page is
// parsed together with templates/layout.html and templates/partials so
// it can override the "content" block.
type Renderer struct {
	AppName string
	pages   map[string]*template.Template
}

// NewRenderer parses every *.html page below templates/ in fsys.  Times
// are rendered in loc.
func NewRenderer(fsys fs.FS, appName string, loc *time.Location) (*Renderer, error) {
	if loc == nil {
		loc = time.UTC
	}
	funcs := templateFuncs(loc)
	shared := []string{"templates/layout.html", "templates/partials/*.html"}

	r := &Renderer{AppName: appName, pages: map[string]*template.Template{}}
	err := fs.WalkDir(fsys, "templates", func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(path, ".html") {
			return nil
		}
		name := strings.TrimPrefix(path, "templates/")
		if name == "layout.html" || strings.HasPrefix(name, "partials/") {
			return nil
		}
		t, err := template.New(name).Funcs(funcs).ParseFS(fsys, append(shared, path)...)
		if err != nil {
			return fmt.Errorf("parse %s: %w", name, err)
		}
		r.pages[name] = t
		return nil
	})
	if err != nil {
		return nil, err
	}
	return r, nil
}

// Render implements echo.Renderer.
func (r *Renderer) Render(w io.Writer, name string, data interface{}, c echo.Context) error {
	t, ok := r.pages[name]
	if !ok {
		return fmt.Errorf("template %q not found", name)
	}
	if v, ok := data.(View); ok && v.AppName == "" {
		v.AppName = r.AppName
		data = v
	}
	return t.ExecuteTemplate(w, "layout", data)
}

func templateFuncs(loc *time.Location) template.FuncMap {
	return template.FuncMap{
		"lkr": formatLKR,
		"lkrOpt": func(d decimal.NullDecimal) string {
			if !d.Valid {
				return "-"
			}
			return formatLKR(d.Decimal)
		},
		"when": func(t time.Time) string {
			if t.IsZero() {
				return ""
			}
			return t.In(loc).Format("2006-01-02 15:04")
		},
		"whenNull": func(t sql.NullTime) string {
			if !t.Valid {
				return "Never"
			}
			return t.Time.In(loc).Format("2006-01-02 15:04")
		},
		"date": func(t sql.NullTime) string {
			if !t.Valid {
				return "-"
			}
			return t.Time.Format("2006-01-02")
		},
		"title": func(s string) string {
			if s == "" {
				return s
			}
			return strings.ToUpper(s[:1]) + s[1:]
		},
		"str":  func(v any) string { return fmt.Sprint(v) },
		"eqs":  func(a, b any) bool { return fmt.Sprint(a) == fmt.Sprint(b) },
		"rate": func(f float64) string { return fmt.Sprintf("%.1f", f) },
		"list": func(v ...string) []string { return v },
	}
}

// formatLKR renders an amount as "Rs 12,500.00".
func formatLKR(d decimal.Decimal) string {
	s := d.StringFixed(2)
	neg := strings.HasPrefix(s, "-")
	s = strings.TrimPrefix(s, "-")
	whole, frac, _ := strings.Cut(s, ".")

	var b strings.Builder
	for i, ch := range whole {
		if i > 0 && (len(whole)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(ch)
	}
	out := "Rs " + b.String() + "." + frac
	if neg {
		out = "-" + out
	}
	return out
}
