package templateutils

import (
	"bytes"
	"io/fs"
	"path"
	"text/template"

	sprig "github.com/Masterminds/sprig/v3"
	"github.com/pkg/errors"
)

// Template is a text template loaded from a file system, with Funcs and the hermetic sprig functions available.
type Template struct {
	*template.Template
}

func Load(fsys fs.FS, name string) (*Template, error) {
	content, err := fs.ReadFile(fsys, name)
	if err != nil {
		return nil, err
	}
	t, err := template.New(path.Base(name)).
		Funcs(Funcs).
		Funcs(sprig.HermeticTxtFuncMap()).
		Parse(string(content))
	if err != nil {
		return nil, errors.Wrapf(err, "could not parse template %s", name)
	}
	return &Template{Template: t}, nil
}

// MustTemplate is Load for templates embedded in the binary, which are expected to always parse.
func MustTemplate(fsys fs.FS, name string) *Template {
	t, err := Load(fsys, name)
	if err != nil {
		panic(err)
	}
	return t
}

func (t *Template) Render(data any) ([]byte, error) {
	buf := new(bytes.Buffer)
	if err := t.Execute(buf, data); err != nil {
		return nil, errors.Wrapf(err, "could not render template %s", t.Name())
	}
	return buf.Bytes(), nil
}
