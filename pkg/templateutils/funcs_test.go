package templateutils

import (
	"bytes"
	"embed"
	"testing"
	"testing/fstest"
	"text/template"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

//go:embed testdata/*.tmpl
var testTemplates embed.FS

func TestFuncs(t *testing.T) {
	tests := []struct {
		name string
		tmpl string
		data any
		want string
	}{
		{name: "json string", tmpl: `{{ json . }}`, data: `a "b" && c`, want: `"a \"b\" && c"`},
		{name: "json list", tmpl: `{{ json . }}`, data: []string{"nx-plugin"}, want: `["nx-plugin"]`},
		{name: "jsonPretty", tmpl: `{{ jsonPretty . }}`, data: map[string]int{"a": 1}, want: "{\n  \"a\": 1\n}"},
		{name: "joinString", tmpl: `{{ joinString . "," }}`, data: []string{"a", "b"}, want: "a,b"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert, require := assert.New(t), require.New(t)

			tmpl, err := template.New(tt.name).Funcs(Funcs).Parse(tt.tmpl)
			require.NoError(err)
			buf := new(bytes.Buffer)
			require.NoError(tmpl.Execute(buf, tt.data))
			assert.Equal(tt.want, buf.String())
		})
	}
}

func TestTemplate(t *testing.T) {
	assert, require := assert.New(t), require.New(t)

	tmpl := MustTemplate(testTemplates, "testdata/greeting.tmpl")
	assert.Equal("greeting.tmpl", tmpl.Name())
	out, err := tmpl.Render(map[string]any{"Names": []string{"b", "a"}})
	require.NoError(err)
	assert.Equal("hello A, B\n", string(out))

	fields, err := Load(fstest.MapFS{"fields.tmpl": {Data: []byte("{{ .Missing }}")}}, "fields.tmpl")
	require.NoError(err)
	_, err = fields.Render(struct{ Names []string }{})
	assert.ErrorContains(err, "could not render template fields.tmpl")

	_, err = Load(fstest.MapFS{"bad.tmpl": {Data: []byte("{{ .Names ")}}, "bad.tmpl")
	assert.ErrorContains(err, "could not parse template bad.tmpl")

	assert.Panics(func() { MustTemplate(testTemplates, "testdata/missing.tmpl") })
}
