package ledger

import (
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode"

	"timeclock/internal/clock"
	"timeclock/internal/models"

	"github.com/shopspring/decimal"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

const ledgerDateLayout = "02/01/2006"

var ledgerDateLayouts = []string{ledgerDateLayout, "2/1/2006", "2006-01-02"}

// EventHeaders is the header row of the events worksheet.
var EventHeaders = []string{
	"Fecha", "Cédula", "Nombre", "Orden", "Cliente", "Código", "Actividad", "Item",
	"Tiempo [Hr]", "Cantidades", "Proceso", "Mes", "Año", "Semana", "REFERENCIA",
	"hora_exacta", "hora_entrada", "hora_salida",
}

// Header rows for the lookup worksheets of a fresh workbook.
var (
	SubjectHeaders  = []string{"cedula", "nombre"}
	ActivityHeaders = []string{"codigo", "actividad"}
	OrderHeaders    = []string{"orden", "referencia", "cantidades", "cliente", "item"}
)

// eventRowValues renders a WorkEvent as one ledger row.
func eventRowValues(e models.WorkEvent) []interface{} {
	_, week := e.Date.ISOWeek()
	return []interface{}{
		e.Date.Format(ledgerDateLayout),
		e.SubjectID,
		e.SubjectName,
		e.OrderID,
		e.Client,
		e.ActivityCode,
		e.ActivityLabel,
		e.ItemDescription,
		e.WorkedHours.InexactFloat64(),
		e.Quantities,
		e.Process,
		int(e.Date.Month()),
		e.Date.Year(),
		week,
		e.Reference,
		e.ExactTimestamp.String(),
		e.IntervalStart.String(),
		e.IntervalEnd.String(),
	}
}

// headerKey folds a header to lowercase ASCII letters and digits, so
// "Cédula", "cedula" and "CEDULA " all match.
func headerKey(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, strings.ToLower(strings.TrimSpace(s)))
	if err != nil {
		folded = strings.ToLower(s)
	}
	var b strings.Builder
	for _, r := range folded {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// columns maps folded header names to column positions.
type columns map[string]int

func indexColumns(header []interface{}) columns {
	cols := make(columns, len(header))
	for i, h := range header {
		key := headerKey(cellString(h))
		if _, seen := cols[key]; !seen && key != "" {
			cols[key] = i
		}
	}
	return cols
}

func (c columns) has(names ...string) bool {
	for _, n := range names {
		if _, ok := c[headerKey(n)]; ok {
			return true
		}
	}
	return false
}

// cell returns the first present column among names, or "".
func (c columns) cell(row []interface{}, names ...string) string {
	for _, n := range names {
		i, ok := c[headerKey(n)]
		if !ok {
			continue
		}
		if i < len(row) {
			return strings.TrimSpace(cellString(row[i]))
		}
		return ""
	}
	return ""
}

func cellString(v interface{}) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	default:
		return fmt.Sprint(x)
	}
}

func parseLedgerDate(s string, loc *time.Location) (time.Time, bool) {
	s = strings.TrimSpace(s)
	for _, layout := range ledgerDateLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func parseHours(s string) decimal.Decimal {
	s = strings.TrimSpace(s)
	if !strings.Contains(s, ".") {
		s = strings.ReplaceAll(s, ",", ".")
	} else {
		s = strings.ReplaceAll(s, ",", "")
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}

func parseTime(s string) clock.TimeOfDay {
	t, err := clock.Parse(s)
	if err != nil {
		return clock.Invalid
	}
	return t
}

// decodeEvents returns the rows of subjectID on date, in sheet order. The
// first row is the header. Rows whose date cannot be parsed are skipped.
func decodeEvents(rows [][]interface{}, subjectID string, date time.Time) []models.WorkEvent {
	if len(rows) == 0 {
		return nil
	}
	cols := indexColumns(rows[0])
	var events []models.WorkEvent
	for _, row := range rows[1:] {
		if !models.SameCode(cols.cell(row, "cedula"), subjectID) {
			continue
		}
		day, ok := parseLedgerDate(cols.cell(row, "fecha"), date.Location())
		if !ok || !clock.SameDate(day, date) {
			continue
		}
		events = append(events, decodeEvent(cols, row, day))
	}
	return events
}

func decodeEvent(cols columns, row []interface{}, day time.Time) models.WorkEvent {
	return models.WorkEvent{
		SubjectID:       models.NormalizeCode(cols.cell(row, "cedula")),
		SubjectName:     cols.cell(row, "nombre"),
		Date:            day,
		ActivityCode:    cols.cell(row, "codigo"),
		ActivityLabel:   cols.cell(row, "actividad"),
		OrderID:         cols.cell(row, "orden"),
		Client:          cols.cell(row, "cliente"),
		Reference:       cols.cell(row, "referencia"),
		ItemDescription: cols.cell(row, "item"),
		Quantities:      cols.cell(row, "cantidades"),
		IntervalStart:   parseTime(cols.cell(row, "hora_entrada")),
		IntervalEnd:     parseTime(cols.cell(row, "hora_salida")),
		WorkedHours:     parseHours(cols.cell(row, "tiempo [hr]", "tiempo")),
		ExactTimestamp:  parseTime(cols.cell(row, "hora_exacta")),
		Process:         cols.cell(row, "proceso"),
	}
}

func decodeSubjects(rows [][]interface{}) []models.Subject {
	if len(rows) == 0 {
		return nil
	}
	cols := indexColumns(rows[0])
	out := make([]models.Subject, 0, len(rows)-1)
	for _, row := range rows[1:] {
		code := models.NormalizeCode(cols.cell(row, "cedula", "codigo"))
		if code == "" {
			continue
		}
		out = append(out, models.Subject{Code: code, Name: cols.cell(row, "nombre", "empleado")})
	}
	return out
}

func decodeActivities(rows [][]interface{}) []models.Activity {
	if len(rows) == 0 {
		return nil
	}
	cols := indexColumns(rows[0])
	out := make([]models.Activity, 0, len(rows)-1)
	for _, row := range rows[1:] {
		code := models.NormalizeCode(cols.cell(row, "codigo"))
		if code == "" {
			continue
		}
		out = append(out, models.Activity{Code: code, Label: cols.cell(row, "actividad", "descripcion")})
	}
	return out
}

func decodeOrders(rows [][]interface{}) []models.Order {
	if len(rows) == 0 {
		return nil
	}
	cols := indexColumns(rows[0])
	out := make([]models.Order, 0, len(rows)-1)
	for _, row := range rows[1:] {
		id := models.NormalizeCode(cols.cell(row, "orden", "op"))
		if id == "" {
			continue
		}
		out = append(out, models.Order{
			ID:         id,
			Reference:  cols.cell(row, "referencia"),
			Quantities: cols.cell(row, "cantidades", "cantidad"),
			Client:     cols.cell(row, "cliente"),
			Item:       cols.cell(row, "item", "descripcion"),
		})
	}
	return out
}

func headerRow(headers []string) []interface{} {
	row := make([]interface{}, len(headers))
	for i, h := range headers {
		row[i] = h
	}
	return row
}
