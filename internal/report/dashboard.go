// Package report renders the latency dashboard built from the performance log.
package report

import (
	"bytes"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/charmbracelet/lipgloss"
	"github.com/goccy/go-json"

	"docqa/internal/perflog"
)

const notAvailable = "N/A"

// Row is the aggregate of one operation, times in seconds.
type Row struct {
	Operation string  `json:"operation"`
	Count     int     `json:"count"`
	Mean      float64 `json:"mean_seconds"`
	Min       float64 `json:"min_seconds"`
	Max       float64 `json:"max_seconds"`
}

// Dashboard holds the headline averages and the per-operation table.
// A nil mean means the operation never ran.
type Dashboard struct {
	DocumentMean *float64 `json:"document_mean_seconds"`
	ResponseMean *float64 `json:"response_mean_seconds"`
	Rows         []Row    `json:"operations"`
}

// Build turns aggregated statistics into a dashboard, rows sorted by operation.
func Build(stats map[string]perflog.Stats) Dashboard {
	d := Dashboard{Rows: make([]Row, 0, len(stats))}
	for _, op := range perflog.Operations(stats) {
		s := stats[op]
		d.Rows = append(d.Rows, Row{Operation: op, Count: s.Count, Mean: s.Mean, Min: s.Min, Max: s.Max})
	}
	if s, ok := stats[perflog.OpProcessDocument]; ok && s.Count > 0 {
		d.DocumentMean = &s.Mean
	}
	if s, ok := stats[perflog.OpGetResponse]; ok && s.Count > 0 {
		d.ResponseMean = &s.Mean
	}
	return d
}

// JSON encodes the dashboard for machine consumption.
func (d Dashboard) JSON() ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetIndent("", "  ")
	if err := enc.Encode(d); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).MarginBottom(1)
	metricStyle = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 2).MarginRight(1)
	valueStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("11"))
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("8"))
	tableStyle  = lipgloss.NewStyle().Border(lipgloss.NormalBorder()).Padding(0, 1)
)

// Render draws the dashboard for a terminal.
func (d Dashboard) Render() string {
	metrics := lipgloss.JoinHorizontal(lipgloss.Top,
		metricStyle.Render("Carga de Archivo\n"+valueStyle.Render(FormatMean(d.DocumentMean))),
		metricStyle.Render("Respuestas\n"+valueStyle.Render(FormatMean(d.ResponseMean))),
	)

	var sections []string
	sections = append(sections,
		titleStyle.Render("Métricas de Rendimiento"),
		"Tiempos Promedio",
		metrics,
		"",
		"Detalle de Operaciones",
	)
	if len(d.Rows) == 0 {
		sections = append(sections, "Sin registros de rendimiento.")
	} else {
		sections = append(sections, tableStyle.Render(d.table()))
	}
	return lipgloss.JoinVertical(lipgloss.Left, sections...) + "\n"
}

func (d Dashboard) table() string {
	width := utf8.RuneCountInString("Operación")
	for _, r := range d.Rows {
		width = max(width, len(r.Operation))
	}
	var b strings.Builder
	b.WriteString(headerStyle.Render(fmt.Sprintf("%-*s  %20s  %21s", width, "Operación", "Tiempo Promedio (s)", "Número de Operaciones")))
	for _, r := range d.Rows {
		fmt.Fprintf(&b, "\n%-*s  %20.2f  %21d", width, r.Operation, r.Mean, r.Count)
	}
	return b.String()
}

// FormatMean renders a mean in seconds with two decimals, or N/A.
func FormatMean(mean *float64) string {
	if mean == nil {
		return notAvailable
	}
	return fmt.Sprintf("%.2fs", *mean)
}
