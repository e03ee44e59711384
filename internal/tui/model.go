// Package tui is a terminal version of the quote wizard.
package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/parisxmas/leadsite/internal/leadclient"
	"github.com/parisxmas/leadsite/internal/models"
	"github.com/parisxmas/leadsite/internal/wizard"
)

type Submitter interface {
	Submit(ctx context.Context, fields models.LeadFields) leadclient.Outcome
}

type field struct {
	name, label, placeholder string
}

var stepFields = map[int][]field{
	1: {
		{models.FieldNome, "Nome", "Ana Souza"},
		{models.FieldWhatsApp, "WhatsApp", "71 99999-9999"},
		{models.FieldEmail, "Email", "ana@exemplo.com"},
		{models.FieldEmpresa, "Empresa (opcional)", ""},
	},
	2: {
		{models.FieldTipoServico, "Tipo de serviço", "landing, site, ecommerce, sistema"},
		{models.FieldDescricaoProjeto, "Descrição do projeto", ""},
		{models.FieldObjetivoPrincipal, "Objetivo (opcional)", ""},
	},
	3: {
		{models.FieldOrcamento, "Orçamento", "5k-10k"},
		{models.FieldPrazo, "Prazo", "30 dias"},
		{models.FieldUrgencia, "Urgência (opcional)", "alta, média, baixa"},
	},
}

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#7D40FF"))
	labelStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#00BFFF"))
	errorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF0055"))
	okStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#10B981"))
	warnStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#F59E0B"))
	helpStyle  = lipgloss.NewStyle().Faint(true)
)

type submittedMsg struct {
	out leadclient.Outcome
}

type Model struct {
	ctrl    *wizard.Controller
	sub     Submitter
	timeout time.Duration

	inputs  []textinput.Model
	fields  []field
	focus   int
	errs    map[string]string
	spinner spinner.Model
	outcome *leadclient.Outcome
}

func NewModel(sub Submitter) Model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	m := Model{ctrl: wizard.New(), sub: sub, timeout: 15 * time.Second, spinner: s}
	m.loadStep()
	return m
}

// Outcome is set once the submission has settled.
func (m Model) Outcome() *leadclient.Outcome { return m.outcome }

func (m *Model) loadStep() {
	m.fields = stepFields[m.ctrl.Step()]
	m.inputs = make([]textinput.Model, len(m.fields))
	for i, f := range m.fields {
		ti := textinput.New()
		ti.Placeholder = f.placeholder
		ti.CharLimit = 500
		ti.SetValue(m.ctrl.Value(f.name))
		m.inputs[i] = ti
	}
	m.focus = 0
	m.errs = nil
	m.inputs[0].Focus()
}

func (m *Model) sync() {
	partial := make(map[string]string, len(m.fields))
	for i, f := range m.fields {
		partial[f.name] = m.inputs[i].Value()
	}
	m.ctrl.Update(partial)
}

func (m *Model) moveFocus(delta int) {
	m.inputs[m.focus].Blur()
	m.focus = (m.focus + delta + len(m.inputs)) % len(m.inputs)
	m.inputs[m.focus].Focus()
}

func (m Model) submit() tea.Cmd {
	fields := m.ctrl.LeadFields()
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), m.timeout)
		defer cancel()
		return submittedMsg{out: m.sub.Submit(ctx, fields)}
	}
}

func (m Model) Init() tea.Cmd {
	return textinput.Blink
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case submittedMsg:
		m.outcome = &msg.out
		m.ctrl.Settle()
		return m, nil

	case spinner.TickMsg:
		if m.ctrl.Phase() != wizard.PhaseSubmitting {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
		switch m.ctrl.Phase() {
		case wizard.PhaseSuccess:
			return m, tea.Quit
		case wizard.PhaseSubmitting:
			return m, nil
		}

		switch msg.String() {
		case "tab", "down":
			m.moveFocus(1)
			return m, nil
		case "shift+tab", "up":
			m.moveFocus(-1)
			return m, nil
		case "esc":
			m.sync()
			m.ctrl.Retreat()
			m.loadStep()
			return m, nil
		case "enter":
			m.sync()
			tr, errs := m.ctrl.Advance()
			switch tr {
			case wizard.Blocked:
				m.errs = errs
				return m, nil
			case wizard.Advanced:
				m.loadStep()
				return m, nil
			case wizard.Submit:
				return m, tea.Batch(m.spinner.Tick, m.submit())
			}
		}
	}

	if m.ctrl.Phase() != wizard.PhaseStep {
		return m, nil
	}
	var cmd tea.Cmd
	m.inputs[m.focus], cmd = m.inputs[m.focus].Update(msg)
	return m, cmd
}

func (m Model) View() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Orçamento") + "\n\n")

	switch m.ctrl.Phase() {
	case wizard.PhaseSubmitting:
		b.WriteString(m.spinner.View() + " Enviando...\n")
		return b.String()
	case wizard.PhaseSuccess:
		b.WriteString(successView(m.outcome))
		b.WriteString(helpStyle.Render("\nqualquer tecla para sair") + "\n")
		return b.String()
	}

	fmt.Fprintf(&b, "Passo %d de %d\n\n", m.ctrl.Step(), wizard.MaxStep)
	for i, f := range m.fields {
		b.WriteString(labelStyle.Render(f.label) + "\n")
		b.WriteString(m.inputs[i].View() + "\n")
		if e := m.errs[f.name]; e != "" {
			b.WriteString(errorStyle.Render(e) + "\n")
		}
		b.WriteString("\n")
	}
	b.WriteString(helpStyle.Render("tab: próximo campo • enter: continuar • esc: voltar • ctrl+c: sair") + "\n")
	return b.String()
}

func successView(out *leadclient.Outcome) string {
	var b strings.Builder
	b.WriteString(okStyle.Render("Pedido enviado!") + "\n")
	if out == nil {
		return b.String()
	}
	if out.Persisted {
		fmt.Fprintf(&b, "Protocolo: %s\n", out.LeadID)
	} else {
		b.WriteString(warnStyle.Render("Não foi possível registrar o pedido; use o link do WhatsApp abaixo.") + "\n")
	}
	if out.DeepLink != "" {
		fmt.Fprintf(&b, "\nWhatsApp: %s\n", out.DeepLink)
	}
	return b.String()
}
