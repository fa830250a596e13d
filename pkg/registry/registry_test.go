package registry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func newRegistry(t *testing.T, names ...string) *Registry {
	r := New(zaptest.NewLogger(t))
	for _, n := range names {
		require.NoError(t, r.Register(n))
	}
	return r
}

func TestRegister(t *testing.T) {
	assert := assert.New(t)
	r := newRegistry(t, "b", "a")

	assert.ErrorIs(r.Register("a"), ErrDuplicateProject)
	assert.ErrorIs(r.Register(""), ErrUnknownProject)
	assert.Equal([]string{"a", "b"}, r.Members())
	assert.True(r.Has("a"))
	assert.False(r.Has("c"))
}

func TestAddImplicitDependency(t *testing.T) {
	tests := []struct {
		name    string
		members []string
		edges   [][2]string
		wantErr error
		want    map[string][]string
	}{
		{
			name:    "ts depends on py",
			members: []string{"ts-subproject", "py-subproject"},
			edges:   [][2]string{{"ts-subproject", "py-subproject"}},
			want:    map[string][]string{"ts-subproject": {"py-subproject"}},
		},
		{
			name:    "duplicate edge is idempotent",
			members: []string{"a", "b"},
			edges:   [][2]string{{"a", "b"}, {"a", "b"}},
			want:    map[string][]string{"a": {"b"}},
		},
		{
			name:    "declaration order kept",
			members: []string{"a", "b", "c"},
			edges:   [][2]string{{"a", "c"}, {"a", "b"}},
			want:    map[string][]string{"a": {"c", "b"}},
		},
		{
			name:    "unknown dependee",
			members: []string{"a"},
			edges:   [][2]string{{"a", "missing"}},
			wantErr: ErrUnknownProject,
			want:    map[string][]string{},
		},
		{
			name:    "self dependency",
			members: []string{"a"},
			edges:   [][2]string{{"a", "a"}},
			wantErr: ErrSelfDependency,
			want:    map[string][]string{},
		},
		{
			name:    "cycle",
			members: []string{"a", "b", "c"},
			edges:   [][2]string{{"a", "b"}, {"b", "c"}, {"c", "a"}},
			wantErr: ErrCycle,
			want:    map[string][]string{"a": {"b"}, "b": {"c"}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert := assert.New(t)
			r := newRegistry(t, tt.members...)

			var err error
			for _, e := range tt.edges {
				if err = r.AddImplicitDependency(e[0], e[1]); err != nil {
					break
				}
			}
			if tt.wantErr != nil {
				assert.ErrorIs(err, tt.wantErr)
			} else {
				assert.NoError(err)
			}
			assert.Equal(tt.want, r.ImplicitDependencies())
		})
	}
}

func TestSiblingIsolation(t *testing.T) {
	assert, require := assert.New(t), require.New(t)
	r := newRegistry(t, "a", "b", "c")

	require.NoError(r.AddImplicitDependency("a", "b"))

	deps := r.ImplicitDependencies()
	assert.NotContains(deps, "c")
	assert.NotContains(deps, "b")
	assert.Empty(r.Dependees("c"))

	// the returned map is a copy
	deps["a"][0] = "c"
	assert.Equal([]string{"b"}, r.ImplicitDependencies()["a"])
}

func TestNativeDependencies(t *testing.T) {
	assert, require := assert.New(t), require.New(t)
	r := newRegistry(t, "app", "lib", "py")

	require.NoError(r.AddNativeDependency("app", "lib"))
	require.NoError(r.AddImplicitDependency("lib", "py"))

	assert.ErrorIs(r.AddImplicitDependency("py", "app"), ErrCycle)
	assert.Equal(map[string][]string{"lib": {"py"}}, r.ImplicitDependencies(), "native edges are not serialized")
	assert.Equal([]string{"lib"}, r.Dependees("app"))

	edges, err := r.Edges()
	require.NoError(err)
	assert.Equal([]Edge{
		{Dependent: "app", Dependee: "lib", Kind: Native},
		{Dependent: "lib", Dependee: "py", Kind: Implicit},
	}, edges)
}

func TestTopologicalOrder(t *testing.T) {
	assert, require := assert.New(t), require.New(t)
	r := newRegistry(t, "ts-subproject", "py-subproject", "docs")

	require.NoError(r.AddImplicitDependency("ts-subproject", "py-subproject"))

	order, err := r.TopologicalOrder()
	require.NoError(err)
	assert.Equal([]string{"docs", "py-subproject", "ts-subproject"}, order)
}
