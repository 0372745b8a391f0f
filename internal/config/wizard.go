package config

import (
	"fmt"
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

var (
	titleStyle       = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("86"))
	stepStyle        = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	selectedStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("86")).Bold(true)
	unselectedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	cursorStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("86"))
	helpStyle        = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	inputStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	inputCursorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("86")).Bold(true)
	labelStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("241")).Width(14)
	valueStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("86"))
	containerStyle   = lipgloss.NewStyle().Padding(2, 4)
)

type step struct {
	title       string
	description string
	options     []option
	isInput     bool
	inputValue  *string
	placeholder string
}

type option struct {
	label string
	value string
}

type model struct {
	steps       []step
	currentStep int
	cursor      int
	config      *Config
	confirmed   bool
	cancelled   bool
	inputBuffer string
	width       int
	height      int
}

func initialModel(cfg *Config) model {
	steps := []step{
		{
			title:       "User-Agent",
			description: "Header sent on every page fetch",
			isInput:     true,
			inputValue:  &cfg.UserAgent,
			placeholder: DefaultUserAgent,
		},
		{
			title:       "Output Directory",
			description: "Where to save downloaded videos",
			isInput:     true,
			inputValue:  &cfg.OutputDir,
			placeholder: DefaultDownloadDir(),
		},
		{
			title:       "Timeout",
			description: "Page-fetch timeout in seconds",
			options: []option{
				{"5 seconds", "5"},
				{"10 seconds (recommended)", "10"},
				{"30 seconds", "30"},
				{"60 seconds", "60"},
			},
		},
		{
			title:       "Detector Precedence",
			description: "Which detector wins when the same video is found twice",
			options: []option{
				{"Extraction library first (recommended)", "extraction_library,tag_scan,pattern_scan"},
				{"Tag scan first", "tag_scan,extraction_library,pattern_scan"},
				{"Pattern scan first", "pattern_scan,tag_scan,extraction_library"},
			},
		},
		{
			title:       "API Key",
			description: "Leave empty to run the server without authentication",
			isInput:     true,
			inputValue:  &cfg.Server.APIKey,
			placeholder: "(none)",
		},
		{
			title:       "Confirm",
			description: "Review and save configuration",
			options: []option{
				{"Yes, save", "yes"},
				{"No, cancel", "no"},
			},
		},
	}

	m := model{
		steps:  steps,
		config: cfg,
	}
	m.setCursorFromConfig()

	return m
}

func (m *model) setCursorFromConfig() {
	step := m.steps[m.currentStep]
	if step.isInput {
		m.inputBuffer = *step.inputValue
		return
	}

	var currentValue string
	switch m.currentStep {
	case 2:
		currentValue = strconv.Itoa(m.config.TimeoutSeconds)
	case 3:
		currentValue = strings.Join(m.config.Precedence, ",")
	}

	for i, opt := range step.options {
		if opt.value == currentValue {
			m.cursor = i
			break
		}
	}
}

func (m model) Init() tea.Cmd {
	return nil
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyMsg:
		step := m.steps[m.currentStep]

		switch msg.String() {
		case "ctrl+c", "esc":
			m.cancelled = true
			return m, tea.Quit

		case "left":
			if m.currentStep > 0 {
				m.saveCurrentValue()
				m.currentStep--
				m.cursor = 0
				m.setCursorFromConfig()
			}
			return m, nil

		case "right", "enter":
			if step.isInput {
				*step.inputValue = m.inputBuffer
			}
			m.saveCurrentValue()

			if m.currentStep == len(m.steps)-1 {
				if m.cursor == 0 {
					m.confirmed = true
				} else {
					m.cancelled = true
				}
				return m, tea.Quit
			}

			m.currentStep++
			m.cursor = 0
			m.setCursorFromConfig()
			return m, nil

		case "up", "k":
			if !step.isInput && m.cursor > 0 {
				m.cursor--
			}
			return m, nil

		case "down", "j":
			if !step.isInput && m.cursor < len(step.options)-1 {
				m.cursor++
			}
			return m, nil

		case "backspace":
			if step.isInput && len(m.inputBuffer) > 0 {
				m.inputBuffer = m.inputBuffer[:len(m.inputBuffer)-1]
			}
			return m, nil

		default:
			if step.isInput && len(msg.String()) == 1 {
				m.inputBuffer += msg.String()
			}
			return m, nil
		}
	}

	return m, nil
}

func (m *model) saveCurrentValue() {
	step := m.steps[m.currentStep]
	if step.isInput {
		return
	}

	if m.cursor < len(step.options) {
		value := step.options[m.cursor].value
		switch m.currentStep {
		case 2:
			if seconds, err := strconv.Atoi(value); err == nil {
				m.config.TimeoutSeconds = seconds
			}
		case 3:
			m.config.Precedence = strings.Split(value, ",")
		}
	}
}

func (m model) View() string {
	var b strings.Builder

	progress := fmt.Sprintf("Step %d of %d", m.currentStep+1, len(m.steps))
	b.WriteString(stepStyle.Render(progress))
	b.WriteString("\n\n")

	step := m.steps[m.currentStep]

	b.WriteString(titleStyle.Render(step.title))
	b.WriteString("\n")
	b.WriteString(stepStyle.Render(step.description))
	b.WriteString("\n\n")

	if m.currentStep == len(m.steps)-1 {
		b.WriteString(m.renderReview())
		b.WriteString("\n")
	}

	if step.isInput {
		display := m.inputBuffer
		if display == "" {
			display = stepStyle.Render(step.placeholder)
		}
		b.WriteString(inputCursorStyle.Render("> "))
		b.WriteString(inputStyle.Render(display))
		b.WriteString(inputCursorStyle.Render("█"))
		b.WriteString("\n")
	} else {
		for i, opt := range step.options {
			cursor := "  "
			style := unselectedStyle
			if i == m.cursor {
				cursor = cursorStyle.Render("> ")
				style = selectedStyle
			}
			b.WriteString(cursor)
			b.WriteString(style.Render(opt.label))
			b.WriteString("\n")
		}
	}

	b.WriteString("\n")
	b.WriteString(helpStyle.Render("← back • → next • ↑↓ select • enter confirm • esc quit"))

	content := containerStyle.Render(b.String())

	if m.width > 0 && m.height > 0 {
		content = lipgloss.Place(m.width, m.height, lipgloss.Left, lipgloss.Top, content)
	}

	return content
}

func (m model) renderReview() string {
	var b strings.Builder

	apiKey := m.config.Server.APIKey
	if apiKey == "" {
		apiKey = "(none)"
	}
	outputDir := m.config.OutputDir
	if outputDir == "" {
		outputDir = DefaultDownloadDir()
	}
	precedence := strings.Join(m.config.Precedence, ", ")
	if precedence == "" {
		precedence = "extraction_library, tag_scan, pattern_scan"
	}

	lines := []struct {
		label string
		value string
	}{
		{"User-Agent", m.config.UserAgent},
		{"Output Dir", outputDir},
		{"Timeout", fmt.Sprintf("%ds", m.config.TimeoutSeconds)},
		{"Precedence", precedence},
		{"API Key", apiKey},
	}

	for _, line := range lines {
		b.WriteString(labelStyle.Render(line.label + ":"))
		b.WriteString(valueStyle.Render(line.value))
		b.WriteString("\n")
	}

	return b.String()
}

// RunInitWizard runs an interactive TUI wizard to configure video-fetcher
func RunInitWizard() (*Config, error) {
	cfg := LoadOrDefault()

	m := initialModel(cfg)
	p := tea.NewProgram(m, tea.WithAltScreen())

	finalModel, err := p.Run()
	if err != nil {
		return nil, err
	}

	result := finalModel.(model)
	if result.cancelled {
		return nil, fmt.Errorf("configuration cancelled")
	}

	applyDefaults(result.config)
	return result.config, nil
}
