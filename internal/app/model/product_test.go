package model

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitTypes(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{name: "Single", input: "lever", want: []string{"lever"}},
		{name: "Several", input: "lever,knob,pull", want: []string{"lever", "knob", "pull"}},
		{name: "Whitespace trimmed", input: " lever , knob ", want: []string{"lever", "knob"}},
		{name: "Empty pieces dropped", input: "lever,,knob,", want: []string{"lever", "knob"}},
		{name: "Space after comma", input: "Avanza, Xenia", want: []string{"Avanza", "Xenia"}},
		{name: "Empty string", input: "", want: []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SplitTypes(tt.input))
		})
	}
}

func TestBuildCompatibles(t *testing.T) {
	brandA := uuid.New()
	brandB := uuid.New()

	rows := []ProductBrand{
		{
			BrandID:    brandA,
			Brand:      &Brand{ID: brandA, Name: "Alpha"},
			BrandTypes: []BrandType{{Type: "lever"}, {Type: "knob"}},
		},
		{
			BrandID: brandB,
		},
		{
			BrandID:    brandA,
			BrandTypes: []BrandType{{Type: "pull"}},
		},
	}

	got := BuildCompatibles(rows)
	require.Len(t, got, 3)

	assert.Equal(t, brandA.String()+"-0", got[0].ID)
	assert.Equal(t, "Alpha", got[0].BrandName)
	assert.Equal(t, "lever,knob", got[0].Types)

	assert.Equal(t, brandB.String()+"-1", got[1].ID)
	assert.Equal(t, "", got[1].Types)

	assert.Equal(t, brandA.String()+"-2", got[2].ID)
	assert.NotEqual(t, got[0].ID, got[2].ID)

	assert.Equal(t, got, BuildCompatibles(rows), "ids are deterministic across reads")
}
