package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"docqa/internal/domain"
	"docqa/internal/perflog"
	"docqa/internal/textutil"
)

// Asker is the TUI-facing subset of the RAG service.
type Asker interface {
	Ask(ctx context.Context, question string) (domain.Answer, error)
}

// FeedbackRecorder stores the user's verdict on an answer.
type FeedbackRecorder interface {
	Record(question, answer string, helpful bool) error
	Path() string
}

const perfPanelLines = 5

type answerMsg struct {
	answer domain.Answer
	err    error
}

type feedbackMsg struct {
	helpful bool
	err     error
}

type perfMsg struct {
	lines []string
	err   error
}

// Model is the Bubble Tea model for the TUI application.
type Model struct {
	ctx      context.Context
	service  Asker
	feedback FeedbackRecorder
	perfPath string

	input    textinput.Model
	viewport viewport.Model
	title    string
	summary  string
	status   string
	ready    bool
	width    int
	height   int

	answer     *domain.Answer
	cursor     int
	busy       bool
	voted      bool
	suggestion int

	showPerf  bool
	perfLines []string
	perfErr   error
}

// New creates a new TUI model for an already processed document.
func New(ctx context.Context, service Asker, feedback FeedbackRecorder, perfPath, title, summary string) Model {
	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = "Tu pregunta sobre el artículo (Tab: preguntas sugeridas)"
	ti.Focus()
	ti.CharLimit = 0
	vp := viewport.New(0, 0)
	return Model{
		ctx:        ctx,
		service:    service,
		feedback:   feedback,
		perfPath:   perfPath,
		input:      ti,
		viewport:   vp,
		title:      title,
		summary:    summary,
		status:     "Selecciona una pregunta o escribe la tuya.",
		suggestion: -1,
	}
}

// Init initializes the model (text input cursor blink).
func (m Model) Init() tea.Cmd { return textinput.Blink }

// Update handles key and window events and updates the view state.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.ready = true
		m.width, m.height = msg.Width, msg.Height
		m.resize()
		return m, nil

	case answerMsg:
		m.busy = false
		if msg.err != nil {
			m.status = "Error: " + msg.err.Error()
			return m, nil
		}
		a := msg.answer
		m.answer = &a
		m.cursor = 0
		m.voted = false
		m.status = fmt.Sprintf("Confianza %.1f%% · Tiempo de respuesta %.2fs", a.Confidence, a.Elapsed.Seconds())
		m.viewport.SetContent(m.renderAnswer())
		m.viewport.GotoTop()
		if m.showPerf {
			return m, m.loadPerf()
		}
		return m, nil

	case feedbackMsg:
		if msg.err != nil {
			m.voted = false
			m.status = "Error guardando la interacción: " + msg.err.Error()
			return m, nil
		}
		thanks := "Gracias, trabajaremos en mejorar."
		if msg.helpful {
			thanks = "¡Gracias por tu feedback!"
		}
		m.status = thanks + " Interacción guardada en: " + m.feedback.Path()
		return m, nil

	case perfMsg:
		m.perfLines, m.perfErr = msg.lines, msg.err
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "ctrl+d", "esc":
			return m, tea.Quit
		case "enter":
			return m.submit()
		case "tab":
			m.cycleSuggestion(1)
			return m, nil
		case "shift+tab":
			m.cycleSuggestion(-1)
			return m, nil
		case "ctrl+y":
			return m.vote(true)
		case "ctrl+n":
			return m.vote(false)
		case "ctrl+p":
			m.showPerf = !m.showPerf
			m.resize()
			if m.showPerf {
				return m, m.loadPerf()
			}
			return m, nil
		case "down":
			if m.answer != nil && len(m.answer.Sources) > 0 {
				m.cursor = (m.cursor + 1) % len(m.answer.Sources)
				m.viewport.SetContent(m.renderAnswer())
				return m, nil
			}
		case "up":
			if m.answer != nil && len(m.answer.Sources) > 0 {
				m.cursor = (m.cursor - 1 + len(m.answer.Sources)) % len(m.answer.Sources)
				m.viewport.SetContent(m.renderAnswer())
				return m, nil
			}
		case "pgdown", "pgup":
			var cmd tea.Cmd
			m.viewport, cmd = m.viewport.Update(msg)
			return m, cmd
		}
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) submit() (tea.Model, tea.Cmd) {
	q := strings.TrimSpace(m.input.Value())
	if q == "" {
		m.status = "Por favor, selecciona o escribe una pregunta."
		return m, nil
	}
	if m.busy {
		return m, nil
	}
	m.busy = true
	m.status = "Analizando..."
	ctx, service := m.ctx, m.service
	return m, func() tea.Msg {
		a, err := service.Ask(ctx, q)
		return answerMsg{answer: a, err: err}
	}
}

func (m Model) vote(helpful bool) (tea.Model, tea.Cmd) {
	switch {
	case m.answer == nil:
		m.status = "Primero haz una pregunta."
		return m, nil
	case m.voted:
		m.status = "Ya registraste tu opinión sobre esta respuesta."
		return m, nil
	}
	// Set before the write lands so a repeated key cannot record twice.
	m.voted = true
	rec, q, a := m.feedback, m.answer.Question, m.answer.Text
	return m, func() tea.Msg {
		return feedbackMsg{helpful: helpful, err: rec.Record(q, a, helpful)}
	}
}

// resize fits the answer viewport between the fixed rows and the optional
// performance panel.
func (m *Model) resize() {
	if !m.ready {
		return
	}
	_, rh := resultBoxStyle.GetFrameSize()
	_, qh := queryBoxStyle.GetFrameSize()
	reserved := 2 + 2 + qh + 1 // header + summary, status + help, spacer
	if m.showPerf {
		reserved += perfPanelLines + 2
	}
	m.viewport.Width = max(20, m.width-2)
	m.viewport.Height = max(3, m.height-reserved-rh)
	m.viewport.SetContent(m.renderAnswer())
}

func (m *Model) cycleSuggestion(step int) {
	n := len(domain.SuggestedQuestions)
	if m.suggestion < 0 && step < 0 {
		m.suggestion = 0
	}
	m.suggestion = (m.suggestion + step + n) % n
	m.input.SetValue(domain.SuggestedQuestions[m.suggestion])
	m.input.CursorEnd()
}

func (m Model) loadPerf() tea.Cmd {
	path := m.perfPath
	return func() tea.Msg {
		lines, err := perflog.Tail(path, perfPanelLines)
		return perfMsg{lines: lines, err: err}
	}
}

// View renders the TUI layout and current answer.
func (m Model) View() string {
	if !m.ready {
		return "Cargando..."
	}
	header := headerStyle.Render("Sistema de Análisis de Documentos · " + m.title)
	summary := summaryStyle.Render(m.summary)
	body := resultBoxStyle.Render(m.viewport.View())
	input := queryBoxStyle.Render(m.input.View())
	status := statusStyle.Render(m.status)
	help := helpStyle.Render("Enter: analizar · Tab: sugerencias · ↑/↓: fuentes · Ctrl+Y/Ctrl+N: ¿fue útil? · Ctrl+P: métricas · Esc: salir")

	parts := []string{header, summary, body}
	if m.showPerf {
		parts = append(parts, perfBoxStyle.Render(m.renderPerf()))
	}
	parts = append(parts, input, status, help)
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

func (m Model) renderAnswer() string {
	if m.answer == nil {
		return "Aún no hay respuestas."
	}
	a := m.answer
	width := max(20, m.viewport.Width-2)
	var b strings.Builder
	b.WriteString(labelStyle.Render("Respuesta:"))
	b.WriteString("\n")
	b.WriteString(lipgloss.NewStyle().Width(width).Render(a.Text))
	b.WriteString("\n\n")
	fmt.Fprintf(&b, "%s %.1f%%    %s %.2fs\n\n",
		labelStyle.Render("Confianza:"), a.Confidence,
		labelStyle.Render("Tiempo de Respuesta:"), a.Elapsed.Seconds())
	if len(a.Sources) == 0 {
		b.WriteString("Sin fuentes.")
	} else {
		s := a.Sources[m.cursor]
		fmt.Fprintf(&b, "%s\n", labelStyle.Render(fmt.Sprintf("Fuente %d/%d  score=%.3f", m.cursor+1, len(a.Sources), s.Score)))
		b.WriteString(lipgloss.NewStyle().Width(width).Render(highlightBestSentence(s.Chunk.Text, a.Question)))
	}
	b.WriteString("\n\n¿Fue útil esta respuesta?")
	return b.String()
}

func (m Model) renderPerf() string {
	title := labelStyle.Render("Métricas de Rendimiento")
	if m.perfErr != nil {
		return title + "\nError leyendo métricas: " + m.perfErr.Error()
	}
	if len(m.perfLines) == 0 {
		return title + "\nNo hay logs disponibles aún"
	}
	return title + "\n" + strings.Join(m.perfLines, "\n")
}

var (
	headerStyle    = lipgloss.NewStyle().Bold(true)
	summaryStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	statusStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	helpStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	labelStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true)
	resultBoxStyle = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	queryBoxStyle  = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	perfBoxStyle   = lipgloss.NewStyle().Border(lipgloss.NormalBorder()).Padding(0, 1)
	highlightStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("11")).Bold(true)
)

// highlightBestSentence emphasizes the sentence sharing the most words with query.
func highlightBestSentence(text, query string) string {
	if strings.TrimSpace(text) == "" {
		return text
	}
	sentences := textutil.Sentences(text)
	qTokens := textutil.WordSet(query)
	if len(qTokens) == 0 {
		return strings.Join(sentences, " ")
	}
	bestIdx, bestScore := 0, -1
	for i, s := range sentences {
		if score := tokenOverlapScore(qTokens, s); score > bestScore {
			bestScore, bestIdx = score, i
		}
	}
	out := make([]string, len(sentences))
	for i, sent := range sentences {
		if i == bestIdx {
			sent = highlightStyle.Render(sent)
		}
		out[i] = sent
	}
	return strings.Join(out, " ")
}

func tokenOverlapScore(queryTokens map[string]struct{}, sentence string) int {
	score := 0
	for t := range textutil.WordSet(sentence) {
		if _, ok := queryTokens[t]; ok {
			score++
		}
	}
	return score
}
