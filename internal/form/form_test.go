package form

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleTemplate() *Template {
	return &Template{
		TemplateName: "Event Brief",
		Sections: []Section{
			{
				SectionName: "Project Overview",
				InputFields: []Group{
					{
						FieldsHeading: "Basics",
						Fields: []Field{
							{InputName: "Project Name", DataType: "String", Prompt: "Extract the project name for '{event_name}'"},
							{InputName: "Start Date", DataType: "Date", HelperText: []string{"The first day of the event."}},
							{DataType: "String"},
						},
					},
				},
			},
			{
				SectionName: "Stakeholders",
				InputFields: []Group{
					{
						FieldsHeading: "People",
						Fields: []Field{
							{InputName: "Producer", DataType: "Object"},
							{InputName: "Team", DataType: "Array"},
						},
					},
				},
			},
		},
	}
}

func TestParse_Invalid(t *testing.T) {
	_, err := Parse([]byte(`not json`))
	assert.Error(t, err)

	_, err = Parse([]byte(`{"templateName": "x", "sections": []}`))
	assert.Error(t, err)
}

func TestFlattenSection(t *testing.T) {
	tpl := sampleTemplate()
	flat := tpl.FlattenSection(0, "Cloud Expo")
	require.Len(t, flat, 3)

	assert.Equal(t, "Project Name", flat[0].Name)
	assert.Equal(t, "Extract the project name for 'Cloud Expo'", flat[0].Prompt)

	// prompt synthesized from helperText
	assert.Equal(t, "Start Date", flat[1].Name)
	assert.Contains(t, flat[1].Prompt, "The first day of the event.")
	assert.Contains(t, flat[1].Prompt, "'Cloud Expo'")

	// nameless field falls back to the group heading
	assert.Equal(t, "Basics", flat[2].Name)
	assert.Equal(t, Location{Section: 0, Group: 0, Field: 2}, flat[2].Loc)
}

func TestFlattenSection_Deterministic(t *testing.T) {
	tpl := sampleTemplate()
	a := tpl.FlattenSection(1, "Expo")
	b := tpl.FlattenSection(1, "Expo")
	assert.Equal(t, a, b)
}

func TestAssign_Coercions(t *testing.T) {
	tpl := sampleTemplate()

	// String direct
	require.NoError(t, tpl.Assign(Location{0, 0, 0}, "Cloud Expo 2025"))
	assert.Equal(t, "Cloud Expo 2025", tpl.Sections[0].InputFields[0].Fields[0].InputValue)

	// Array from comma-separated string
	require.NoError(t, tpl.Assign(Location{1, 0, 1}, "Ana, Ben , Carl"))
	assert.Equal(t, []any{"Ana", "Ben", "Carl"}, tpl.Sections[1].InputFields[0].Fields[1].InputValue)

	// Object from "Name (email)"
	require.NoError(t, tpl.Assign(Location{1, 0, 0}, "Linda Hamilton (linda.h@example.com)"))
	assert.Equal(t, map[string]any{"Name": "Linda Hamilton", "Email": "linda.h@example.com"},
		tpl.Sections[1].InputFields[0].Fields[0].InputValue)

	// Object without an email
	require.NoError(t, tpl.Assign(Location{1, 0, 0}, "Linda Hamilton"))
	assert.Equal(t, map[string]any{"Name": "Linda Hamilton", "Email": Nil},
		tpl.Sections[1].InputFields[0].Fields[0].InputValue)

	// Nil sentinel clears the value
	require.NoError(t, tpl.Assign(Location{0, 0, 0}, Nil))
	assert.Nil(t, tpl.Sections[0].InputFields[0].Fields[0].InputValue)
}

func TestAssign_OutOfRange(t *testing.T) {
	tpl := sampleTemplate()
	assert.Error(t, tpl.Assign(Location{Section: 9}, "x"))
}

func TestIsNil(t *testing.T) {
	assert.True(t, IsNil(nil))
	assert.True(t, IsNil(""))
	assert.True(t, IsNil("Nil"))
	assert.True(t, IsNil("nil"))
	assert.False(t, IsNil("value"))
	assert.False(t, IsNil(42))
}
