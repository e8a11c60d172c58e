package ledger

import (
	"testing"
	"time"

	"timeclock/internal/clock"
	"timeclock/internal/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var loc = clock.Zone(-5)

func sampleEvent() models.WorkEvent {
	return models.WorkEvent{
		SubjectID:       "1020",
		SubjectName:     "Ana Pérez",
		Date:            time.Date(2026, 10, 19, 0, 0, 0, 0, loc),
		ActivityCode:    "12",
		ActivityLabel:   "CORTE",
		OrderID:         "4501",
		Client:          "ACME",
		Reference:       "REF-9",
		ItemDescription: "Mesa",
		Quantities:      "10",
		IntervalStart:   clock.At(7, 0, 0),
		IntervalEnd:     clock.At(9, 45, 0),
		ExactTimestamp:  clock.At(9, 45, 0),
		WorkedHours:     decimal.RequireFromString("2.583"),
		Process:         models.ProcessProduction,
	}
}

func TestEventRowValues(t *testing.T) {
	values := eventRowValues(sampleEvent())

	expected := []interface{}{
		"19/10/2026",
		"1020",
		"Ana Pérez",
		"4501",
		"ACME",
		"12",
		"CORTE",
		"Mesa",
		2.583,
		"10",
		"PRODUCCION",
		10,
		2026,
		43,
		"REF-9",
		"09:45:00",
		"07:00:00",
		"09:45:00",
	}
	require.Len(t, values, len(EventHeaders))
	assert.Equal(t, expected, values)
}

func TestHeaderKey(t *testing.T) {
	tests := map[string]string{
		"Cédula":      "cedula",
		" CEDULA ":    "cedula",
		"Tiempo [Hr]": "tiempohr",
		"hora_exacta": "horaexacta",
		"Año":         "ano",
		"Código":      "codigo",
	}
	for in, want := range tests {
		assert.Equal(t, want, headerKey(in), in)
	}
}

func TestDecodeEvents(t *testing.T) {
	day := time.Date(2026, 10, 19, 0, 0, 0, 0, loc)
	rows := [][]interface{}{
		headerRow(EventHeaders),
		eventRowValues(sampleEvent()),
		{"19/10/2026", "9999", "Otro"},
		{"18/10/2026", "1020", "Ana Pérez"},
		{"not a date", "1020", "Ana Pérez"},
		{"19/10/2026", "1020.0", "Ana Pérez", "4502", "", "12", "CORTE", "", "1,5", "", "PRODUCCION",
			10, 2026, 43, "", "11:15:00", "09:45:00", "11:15:00"},
	}

	events := decodeEvents(rows, "1020", day)
	require.Len(t, events, 2)

	first := events[0]
	assert.Equal(t, "1020", first.SubjectID)
	assert.Equal(t, "4501", first.OrderID)
	assert.Equal(t, clock.At(9, 45, 0), first.ExactTimestamp)
	assert.Equal(t, clock.At(7, 0, 0), first.IntervalStart)
	assert.True(t, decimal.RequireFromString("2.583").Equal(first.WorkedHours))

	second := events[1]
	assert.Equal(t, "1020", second.SubjectID)
	assert.Equal(t, clock.At(11, 15, 0), second.ExactTimestamp)
	assert.True(t, decimal.RequireFromString("1.5").Equal(second.WorkedHours))
}

func TestDecodeEvents_MissingTimestampColumn(t *testing.T) {
	day := time.Date(2026, 10, 19, 0, 0, 0, 0, loc)
	rows := [][]interface{}{
		{"Fecha", "Cedula", "Nombre"},
		{"19/10/2026", "1020", "Ana"},
	}

	events := decodeEvents(rows, "1020", day)
	require.Len(t, events, 1)
	assert.False(t, events[0].ExactTimestamp.Valid())
}

func TestDecodeEvents_Empty(t *testing.T) {
	assert.Nil(t, decodeEvents(nil, "1020", time.Now()))
}

func TestDecodeLookups(t *testing.T) {
	subjects := decodeSubjects([][]interface{}{
		{"Cédula", "Nombre"},
		{float64(1020), "Ana"},
		{"", "sin código"},
		{"3030.0", "Luis"},
	})
	assert.Equal(t, []models.Subject{{Code: "1020", Name: "Ana"}, {Code: "3030", Name: "Luis"}}, subjects)

	activities := decodeActivities([][]interface{}{
		{"CODIGO", "ACTIVIDAD"},
		{"12", "CORTE"},
	})
	assert.Equal(t, []models.Activity{{Code: "12", Label: "CORTE"}}, activities)

	orders := decodeOrders([][]interface{}{
		{"Orden", "Referencia", "Cantidades", "Cliente", "Item"},
		{"4501", "REF-9", "10", "ACME", "Mesa"},
		{"4502", "REF-1"},
	})
	require.Len(t, orders, 2)
	assert.Equal(t, models.Order{ID: "4501", Reference: "REF-9", Quantities: "10", Client: "ACME", Item: "Mesa"}, orders[0])
	assert.Equal(t, "", orders[1].Client)
}

func TestParseHours(t *testing.T) {
	assert.True(t, decimal.RequireFromString("2.5").Equal(parseHours("2,5")))
	assert.True(t, decimal.RequireFromString("1234.5").Equal(parseHours("1,234.5")))
	assert.True(t, decimal.Zero.Equal(parseHours("abc")))
}
