package extract_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/use-agent/flightscrape/extract"
	"github.com/use-agent/flightscrape/htmlpage"
	"github.com/use-agent/flightscrape/models"
)

func firstRow(t *testing.T, html string) extract.Element {
	t.Helper()
	page, err := htmlpage.FromString(html)
	require.NoError(t, err)
	rows, err := page.FindAll(context.Background(), extract.GoogleFlights.RowSelector)
	require.NoError(t, err)
	require.NotEmpty(t, rows)
	return rows[0]
}

func TestExtractFields_AllMatch(t *testing.T) {
	row := firstRow(t, "<ul>"+rowHTML(7)+"</ul>")

	got, err := extract.ExtractFields(context.Background(), row, extract.GoogleFlights.Fields)
	require.NoError(t, err)

	require.Len(t, got, len(models.FlightFields))
	for _, f := range models.FlightFields {
		assert.NotEqual(t, models.Missing, got[f], "field %s", f)
	}
	assert.Equal(t, "7:00 AM", got[models.FieldDepartureTime], "text is trimmed")
}

func TestExtractFields_OnlyMissingFieldIsNA(t *testing.T) {
	row := firstRow(t, "<ul>"+rowHTML(1, "co2_emissions")+"</ul>")

	got, err := extract.ExtractFields(context.Background(), row, extract.GoogleFlights.Fields)
	require.NoError(t, err)

	for _, f := range models.FlightFields {
		if f == models.FieldCO2Emissions {
			assert.Equal(t, models.Missing, got[f])
			continue
		}
		assert.NotEqual(t, models.Missing, got[f], "field %s", f)
	}
}

func TestExtractFields_EmptyRow(t *testing.T) {
	row := firstRow(t, `<ul><li class="pIav2d"></li></ul>`)

	got, err := extract.ExtractFields(context.Background(), row, extract.GoogleFlights.Fields)
	require.NoError(t, err)

	rec, err := models.NewFlightRecord(got)
	require.NoError(t, err)
	assert.ElementsMatch(t, models.FlightFields, rec.MissingFields())
}
