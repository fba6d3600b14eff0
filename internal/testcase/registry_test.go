package testcase

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistryPreservesOrder(t *testing.T) {
	r := NewRegistry()
	names := []string{"create_bucket", "upload_script", "create_job", "run_job"}
	for _, name := range names {
		require.NoError(t, r.Register(&TestCase{Name: name, Tool: "manage_resources"}))
	}

	got := make([]string, 0, r.Len())
	for _, tc := range r.Cases() {
		got = append(got, tc.Name)
	}
	assert.Equal(t, names, got)
}

func TestRegistryRejectsDuplicates(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(&TestCase{Name: "create_job", Tool: "manage_jobs"}))

	err := r.Register(&TestCase{Name: "create_job", Tool: "manage_jobs"})
	require.Error(t, err)

	var dup *DuplicateNameError
	require.ErrorAs(t, err, &dup)
	assert.Equal(t, "create_job", dup.Name)
	assert.Equal(t, 1, r.Len())
}

func TestRegistryRejectsMissingFields(t *testing.T) {
	r := NewRegistry()
	assert.Error(t, r.Register(&TestCase{Tool: "manage_jobs"}))
	assert.Error(t, r.Register(&TestCase{Name: "no_tool"}))
	assert.Equal(t, 0, r.Len())
}

func TestRegistryGet(t *testing.T) {
	r := NewRegistry()
	tc := &TestCase{Name: "create_job", Tool: "manage_jobs"}
	require.NoError(t, r.Register(tc))

	assert.Same(t, tc, r.Get("create_job"))
	assert.Nil(t, r.Get("missing"))
}

func TestRegistryFilter(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.RegisterAll([]*TestCase{
		{Name: "a", Tool: "t", Group: "glue"},
		{Name: "b", Tool: "t", Group: "athena"},
		{Name: "c", Tool: "t", Group: "glue"},
	}))

	glue := r.Filter(func(tc *TestCase) bool { return tc.Group == "glue" })
	require.Equal(t, 2, glue.Len())
	assert.Equal(t, "a", glue.Cases()[0].Name)
	assert.Equal(t, "c", glue.Cases()[1].Name)
}
