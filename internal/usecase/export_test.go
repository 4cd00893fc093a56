package usecase

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/J-Mash24/worldz1/internal/domain/models"
)

func TestWriteCSV(t *testing.T) {
	series := []*models.AggregatedSeries{
		{
			Group: "Benelux",
			Points: models.Series{
				{Year: 2000, Value: 10},
				{Year: 2001, Value: 12.5},
			},
		},
		{
			Group: "BRICS",
			Points: models.Series{
				{Year: 2001, Value: 100},
				{Year: 2002, Value: 110},
			},
		},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, series))

	want := "year,Benelux,BRICS\n" +
		"2000,10,\n" +
		"2001,12.5,100\n" +
		"2002,,110\n"
	assert.Equal(t, want, buf.String())
}

func TestWriteCSVEmpty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, nil))
	assert.Equal(t, "year\n", buf.String())
}
