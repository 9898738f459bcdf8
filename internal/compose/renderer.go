package compose

import (
	"bytes"
	"embed"
	"errors"
	"html/template"
	"io/fs"
	"os"
	"path"
	"path/filepath"

	ferrors "git.home.luguber.info/inful/mediaindex/internal/foundation/errors"
)

//go:embed templates/gallery.html.tmpl
var builtinTemplates embed.FS

const builtinTemplateName = "templates/gallery.html.tmpl"

// Renderer turns a template name and data mapping into page text.
type Renderer interface {
	Render(name string, data map[string]any) (string, error)
}

// FileRenderer renders html/template files found under BaseDir. An empty
// name selects the built-in gallery template.
type FileRenderer struct {
	BaseDir string
}

// NewFileRenderer returns a renderer rooted at baseDir ("" means the working directory).
func NewFileRenderer(baseDir string) *FileRenderer {
	if baseDir == "" {
		baseDir = "."
	}
	return &FileRenderer{BaseDir: baseDir}
}

func templateFuncs() template.FuncMap {
	return template.FuncMap{
		"base": path.Base,
	}
}

func (r *FileRenderer) Render(name string, data map[string]any) (string, error) {
	var (
		src    []byte
		err    error
		origin string
	)
	if name == "" {
		origin = "builtin:gallery"
		src, err = fs.ReadFile(builtinTemplates, builtinTemplateName)
		if err != nil {
			return "", ferrors.WrapError(err, ferrors.CategoryInternal, "built-in template missing").Fatal().Build()
		}
	} else {
		origin = filepath.Join(r.BaseDir, name)
		src, err = os.ReadFile(origin) // #nosec G304 -- template path chosen by the operator
		if err != nil {
			msg := "failed to read template"
			if errors.Is(err, fs.ErrNotExist) {
				msg = "template not found"
			}
			return "", ferrors.WrapError(err, ferrors.CategoryTemplate, msg).
				Fatal().UserAction().
				WithContext("template", origin).
				Build()
		}
	}

	tpl, err := template.New(filepath.Base(origin)).Funcs(templateFuncs()).Option("missingkey=error").Parse(string(src))
	if err != nil {
		return "", ferrors.WrapError(err, ferrors.CategoryTemplate, "failed to parse template").
			Fatal().UserAction().
			WithContext("template", origin).
			Build()
	}

	var buf bytes.Buffer
	if err := tpl.Execute(&buf, data); err != nil {
		return "", ferrors.WrapError(err, ferrors.CategoryTemplate, "failed to render template").
			Fatal().UserAction().
			WithContext("template", origin).
			Build()
	}
	return buf.String(), nil
}
