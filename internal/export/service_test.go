package export

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/toladipo/docbrief/internal/form"
)

func TestExportXLSX(t *testing.T) {
	tmpl := &form.Template{
		TemplateName: "Event Brief",
		Sections: []form.Section{{
			SectionName: "Overview",
			InputFields: []form.Group{{
				FieldsHeading: "Basics",
				Fields: []form.Field{
					{InputName: "Event Name", DataType: "String", InputValue: "Summit 2026"},
					{InputName: "Speakers", DataType: "Array", InputValue: []any{"Ada", "Grace"}},
					{InputName: "Venue", DataType: "String", InputValue: nil},
				},
			}},
		}},
	}

	svc := NewService(slog.Default())
	out, err := svc.ExportXLSX(tmpl, "Summit 2026")
	require.NoError(t, err)
	require.NotEmpty(t, out)

	f, err := excelize.OpenReader(bytes.NewReader(out))
	require.NoError(t, err)
	defer func() { _ = f.Close() }()

	rows, err := f.GetRows("Fields")
	require.NoError(t, err)
	require.Len(t, rows, 4)

	assert.Equal(t, []string{"Section", "Group", "Field", "Type", "Value"}, rows[0])
	assert.Equal(t, "Event Name", rows[1][2])
	assert.Equal(t, "Summit 2026", rows[1][4])
	assert.Equal(t, "Ada, Grace", rows[2][4])
	assert.Equal(t, "Venue", rows[3][2])
}
