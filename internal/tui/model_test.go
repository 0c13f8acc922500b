package tui

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docqa/internal/domain"
)

type fakeAsker struct {
	err error
}

func (f fakeAsker) Ask(_ context.Context, q string) (domain.Answer, error) {
	if f.err != nil {
		return domain.Answer{}, f.err
	}
	return domain.Answer{
		Question:   q,
		Text:       "La idea principal es la eficiencia energética.",
		Confidence: 41.9,
		Elapsed:    1500 * time.Millisecond,
		Sources: []domain.SearchResult{
			{Chunk: domain.Chunk{Text: "Introducción. La eficiencia energética es la idea principal."}, Score: 0.9},
			{Chunk: domain.Chunk{Text: "Otra sección."}, Score: 0.4},
		},
	}, nil
}

type fakeRecorder struct {
	err     error
	records []bool
}

func (f *fakeRecorder) Record(_, _ string, helpful bool) error {
	if f.err != nil {
		return f.err
	}
	f.records = append(f.records, helpful)
	return nil
}

func (f *fakeRecorder) Path() string { return "logs/interacciones.json" }

func newModel(t *testing.T, asker Asker, rec FeedbackRecorder, perfPath string) Model {
	t.Helper()
	m := New(context.Background(), asker, rec, perfPath, "articulo.pdf", "Resumen.")
	return update(t, m, tea.WindowSizeMsg{Width: 100, Height: 40})
}

func update(t *testing.T, m Model, msg tea.Msg) Model {
	t.Helper()
	next, _ := m.Update(msg)
	return next.(Model)
}

// press sends a key and runs the command it returns, feeding the result back.
func press(t *testing.T, m Model, key tea.KeyMsg) Model {
	t.Helper()
	next, cmd := m.Update(key)
	m = next.(Model)
	if cmd != nil {
		m = update(t, m, cmd())
	}
	return m
}

func ask(t *testing.T, m Model, q string) Model {
	t.Helper()
	m.input.SetValue(q)
	return press(t, m, tea.KeyMsg{Type: tea.KeyEnter})
}

func TestModel_AskShowsAnswerConfidenceAndTime(t *testing.T) {
	m := ask(t, newModel(t, fakeAsker{}, &fakeRecorder{}, ""), "¿Cuál es la idea principal?")

	require.NotNil(t, m.answer)
	assert.False(t, m.busy)
	assert.Equal(t, "Confianza 41.9% · Tiempo de respuesta 1.50s", m.status)
	content := m.renderAnswer()
	assert.Contains(t, content, "La idea principal es la eficiencia energética.")
	assert.Contains(t, content, "Fuente 1/2")
	assert.Contains(t, m.View(), "articulo.pdf")
}

func TestModel_EmptyQuestionWarns(t *testing.T) {
	m := ask(t, newModel(t, fakeAsker{}, &fakeRecorder{}, ""), "   ")
	assert.Nil(t, m.answer)
	assert.Equal(t, "Por favor, selecciona o escribe una pregunta.", m.status)
}

func TestModel_AskErrorIsShown(t *testing.T) {
	m := ask(t, newModel(t, fakeAsker{err: errors.New("model offline")}, &fakeRecorder{}, ""), "hola")
	assert.Equal(t, "Error: model offline", m.status)
}

func TestModel_SourcesCycle(t *testing.T) {
	m := ask(t, newModel(t, fakeAsker{}, &fakeRecorder{}, ""), "q")
	m = press(t, m, tea.KeyMsg{Type: tea.KeyDown})
	assert.Equal(t, 1, m.cursor)
	m = press(t, m, tea.KeyMsg{Type: tea.KeyDown})
	assert.Equal(t, 0, m.cursor)
	m = press(t, m, tea.KeyMsg{Type: tea.KeyUp})
	assert.Equal(t, 1, m.cursor)
}

func TestModel_TabCyclesSuggestions(t *testing.T) {
	m := newModel(t, fakeAsker{}, &fakeRecorder{}, "")
	m = press(t, m, tea.KeyMsg{Type: tea.KeyTab})
	assert.Equal(t, domain.SuggestedQuestions[0], m.input.Value())
	m = press(t, m, tea.KeyMsg{Type: tea.KeyTab})
	assert.Equal(t, domain.SuggestedQuestions[1], m.input.Value())
	m = press(t, m, tea.KeyMsg{Type: tea.KeyShiftTab})
	m = press(t, m, tea.KeyMsg{Type: tea.KeyShiftTab})
	assert.Equal(t, domain.SuggestedQuestions[len(domain.SuggestedQuestions)-1], m.input.Value())
}

func TestModel_FeedbackRecordedOncePerAnswer(t *testing.T) {
	rec := &fakeRecorder{}
	m := newModel(t, fakeAsker{}, rec, "")

	m = press(t, m, tea.KeyMsg{Type: tea.KeyCtrlY})
	assert.Equal(t, "Primero haz una pregunta.", m.status)

	m = ask(t, m, "q")
	m = press(t, m, tea.KeyMsg{Type: tea.KeyCtrlY})
	assert.Equal(t, "¡Gracias por tu feedback! Interacción guardada en: logs/interacciones.json", m.status)
	m = press(t, m, tea.KeyMsg{Type: tea.KeyCtrlN})
	assert.Equal(t, "Ya registraste tu opinión sobre esta respuesta.", m.status)
	assert.Equal(t, []bool{true}, rec.records)

	m = ask(t, m, "otra")
	m = press(t, m, tea.KeyMsg{Type: tea.KeyCtrlN})
	assert.Contains(t, m.status, "Gracias, trabajaremos en mejorar.")
	assert.Equal(t, []bool{true, false}, rec.records)
}

func TestModel_RepeatedFeedbackKeyRecordsOnce(t *testing.T) {
	rec := &fakeRecorder{}
	m := ask(t, newModel(t, fakeAsker{}, rec, ""), "q")

	next, first := m.Update(tea.KeyMsg{Type: tea.KeyCtrlY})
	require.NotNil(t, first)
	m = next.(Model)
	next, second := m.Update(tea.KeyMsg{Type: tea.KeyCtrlY})
	m = next.(Model)
	assert.Nil(t, second)
	assert.Equal(t, "Ya registraste tu opinión sobre esta respuesta.", m.status)

	m = update(t, m, first())
	assert.Equal(t, []bool{true}, rec.records)
	assert.True(t, m.voted)
}

func TestModel_FeedbackErrorIsShown(t *testing.T) {
	m := ask(t, newModel(t, fakeAsker{}, &fakeRecorder{err: errors.New("disk full")}, ""), "q")
	m = press(t, m, tea.KeyMsg{Type: tea.KeyCtrlY})
	assert.Equal(t, "Error guardando la interacción: disk full", m.status)
	assert.False(t, m.voted)
}

func TestModel_PerfPanel(t *testing.T) {
	path := filepath.Join(t.TempDir(), "performance_logs.txt")
	m := newModel(t, fakeAsker{}, &fakeRecorder{}, path)

	m = press(t, m, tea.KeyMsg{Type: tea.KeyCtrlP})
	assert.True(t, m.showPerf)
	assert.Contains(t, m.renderPerf(), "No hay logs disponibles aún")

	var lines string
	for i := 0; i < 7; i++ {
		lines += "2024-01-01 00:00:00,000 - get_response: 1.00 segundos\n"
	}
	require.NoError(t, os.WriteFile(path, []byte(lines), 0o644))
	m = ask(t, m, "q")
	// The answer refreshes the panel through a follow-up command.
	_, cmd := m.Update(answerMsg{answer: *m.answer})
	require.NotNil(t, cmd)
	m = update(t, m, cmd())
	assert.Len(t, m.perfLines, 5)

	m = press(t, m, tea.KeyMsg{Type: tea.KeyCtrlP})
	assert.False(t, m.showPerf)
}

func TestModel_PerfPanelShrinksAnswerView(t *testing.T) {
	m := newModel(t, fakeAsker{}, &fakeRecorder{}, filepath.Join(t.TempDir(), "perf.txt"))
	closed := m.viewport.Height

	m = press(t, m, tea.KeyMsg{Type: tea.KeyCtrlP})
	assert.Equal(t, closed-(perfPanelLines+2), m.viewport.Height)

	m = press(t, m, tea.KeyMsg{Type: tea.KeyCtrlP})
	assert.Equal(t, closed, m.viewport.Height)
}

func TestHighlightBestSentence(t *testing.T) {
	out := highlightBestSentence("Primera frase. Los gatos duermen.", "gatos")
	assert.Contains(t, out, "Los gatos duermen.")
	assert.Equal(t, "", highlightBestSentence("", "x"))
	assert.Equal(t, "Una. Dos.", highlightBestSentence("Una. Dos.", "¿?"))
}
