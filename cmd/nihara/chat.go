// This file implements the interactive companion interface using bubbletea.
package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"nihara/cmd/nihara/ui"
	"nihara/internal/gen"
	"nihara/internal/state"
)

// screen is which top-level surface is visible. The welcome gate must
// complete before any mode is reachable.
type screen int

const (
	screenAPIKey screen = iota
	screenWelcome
	screenMain
)

// chatModel is the main model for the interactive interface.
type chatModel struct {
	// UI components
	textinput textinput.Model
	viewport  viewport.Model
	spinner   spinner.Model
	styles    ui.Styles
	renderer  *glamour.TermRenderer

	// State
	app       *app
	screen    screen
	lines     []string
	isLoading bool
	status    string
	ratio     string
	width     int
	height    int
	ready     bool
}

// Messages for tea updates
type (
	replyMsg struct {
		text string
		// persist adds the reply to the durable chat history; astro and
		// live replies are shown but not recorded as conversation.
		persist bool
	}
	imageMsg struct {
		path    string
		caption string
	}
	reflectMsg struct{ entry state.DiaryEntry }
	failMsg    struct{ reason string }
)

// initChat initializes the interactive model.
func initChat(a *app) chatModel {
	styles := ui.NewStyles(ui.ThemeFor(a.cfg.Theme), a.st.IsPro())

	ti := textinput.New()
	ti.Placeholder = "Say something... (/help for commands)"
	ti.Focus()
	ti.Prompt = "│ "
	ti.CharLimit = 4096
	ti.Width = 80
	ti.PromptStyle = styles.Prompt
	ti.TextStyle = styles.UserInput

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = styles.Spinner

	vp := viewport.New(80, 20)

	var renderer *glamour.TermRenderer
	style := "light"
	if styles.Theme.IsDark {
		style = "dark"
	}
	if r, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle(style),
		glamour.WithWordWrap(78),
	); err == nil {
		renderer = r
	}

	scr := screenMain
	if !a.adapter.Available() {
		scr = screenAPIKey
	} else if a.st.UserName() == "" {
		scr = screenWelcome
	}

	m := chatModel{
		textinput: ti,
		viewport:  vp,
		spinner:   sp,
		styles:    styles,
		renderer:  renderer,
		app:       a,
		screen:    scr,
		ratio:     "1:1",
	}
	if scr == screenWelcome {
		m.textinput.Placeholder = "What should I call you?"
	}
	m.replayHistory()
	return m
}

// runInteractive starts the interactive interface.
func runInteractive() error {
	a, err := newApp(zap.NewNop())
	if err != nil {
		return err
	}
	defer a.Close()

	program := tea.NewProgram(initChat(a), tea.WithAltScreen())
	_, err = program.Run()
	return err
}

func (m chatModel) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.spinner.Tick)
}

func (m chatModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.textinput.Width = msg.Width - 4
		m.viewport.Width = msg.Width
		m.viewport.Height = msg.Height - 6
		m.ready = true
		m.refreshViewport()

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			return m, tea.Quit
		case tea.KeyEnter:
			if m.screen == screenAPIKey {
				return m, tea.Quit
			}
			if m.isLoading {
				break
			}
			input := strings.TrimSpace(m.textinput.Value())
			if input == "" {
				break
			}
			m.textinput.Reset()
			return m.handleInput(input)
		}

	case replyMsg:
		m.isLoading = false
		m.appendModelLine(msg.text)
		if msg.persist {
			now := time.Now().UTC()
			m.notePersistErr(m.app.st.AppendHistory(
				state.ChatMessage{Role: "model", Text: msg.text, At: now}))
		}
		m.notePersistErr(m.app.st.RecordInteraction())

	case imageMsg:
		m.isLoading = false
		if msg.caption != "" {
			m.appendModelLine(fmt.Sprintf("*%s*", msg.caption))
		}
		m.appendModelLine("saved your image to " + msg.path)
		m.notePersistErr(m.app.st.RecordInteraction())

	case reflectMsg:
		m.isLoading = false
		m.notePersistErr(m.app.st.AppendDiary(msg.entry))
		m.notePersistErr(m.app.st.RecordInteraction())
		m.appendModelLine("*diary* " + msg.entry.Text)

	case failMsg:
		m.isLoading = false
		m.status = msg.reason
		m.refreshViewport()

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		cmds = append(cmds, cmd)
	}

	var cmd tea.Cmd
	m.textinput, cmd = m.textinput.Update(msg)
	cmds = append(cmds, cmd)
	m.viewport, cmd = m.viewport.Update(msg)
	cmds = append(cmds, cmd)

	return m, tea.Batch(cmds...)
}

// handleInput routes one line of user input, either a slash command or a
// mode interaction.
func (m chatModel) handleInput(input string) (tea.Model, tea.Cmd) {
	switch m.screen {
	case screenWelcome:
		if err := m.app.st.SetUserName(input); err != nil {
			m.status = err.Error()
			return m, nil
		}
		m.screen = screenMain
		m.textinput.Placeholder = "Say something... (/help for commands)"
		m.appendModelLine(fmt.Sprintf("It's lovely to meet you, %s. I'm %s.",
			input, m.app.activePersona().Name))
		return m, nil
	}

	if strings.HasPrefix(input, "/") {
		return m.handleCommand(input)
	}
	return m.interact(input)
}

// handleCommand processes slash commands: mode switching, settings, and
// the upgrade gate.
func (m chatModel) handleCommand(input string) (tea.Model, tea.Cmd) {
	fields := strings.Fields(input)
	command := strings.TrimPrefix(fields[0], "/")
	arg := strings.Join(fields[1:], " ")

	switch command {
	case "chat", "image", "astro", "diary", "live":
		_ = m.app.st.SetActiveMode(state.ParseMode(command))
		m.status = m.app.st.ActiveMode().Title() + " mode"
		m.refreshViewport()
		return m, nil

	case "persona":
		if arg == "" {
			var names []string
			for _, p := range m.app.personas.List() {
				names = append(names, p.Key)
			}
			m.status = "personas: " + strings.Join(names, ", ")
			return m, nil
		}
		if !m.app.personas.Has(arg) {
			m.status = fmt.Sprintf("unknown persona %q", arg)
			return m, nil
		}
		if p := m.app.personas.Get(arg); p.ProOnly && !m.app.st.IsPro() {
			m.status = fmt.Sprintf("%s needs the pro unlock (/upgrade CODE)", p.Name)
			return m, nil
		}
		_ = m.app.st.SetPersona(arg)
		m.status = "persona set to " + m.app.personas.Get(arg).Name
		return m, nil

	case "ratio":
		if arg == "" {
			m.status = "aspect ratio: " + m.ratio
			return m, nil
		}
		if !gen.ValidAspectRatio(arg) {
			m.status = fmt.Sprintf("unsupported ratio %q (supported: %s)",
				arg, strings.Join(gen.AspectRatios, ", "))
			return m, nil
		}
		m.ratio = arg
		m.status = "aspect ratio set to " + arg
		return m, nil

	case "tone":
		if arg == "" {
			m.status = "voice tone: " + m.app.st.VoiceTone()
			return m, nil
		}
		_ = m.app.st.SetVoiceTone(arg)
		m.status = "voice tone set to " + arg
		return m, nil

	case "upgrade":
		ok, err := m.app.st.ApplyUpgrade(arg)
		if err != nil {
			m.status = err.Error()
			return m, nil
		}
		if !ok {
			m.status = "that code didn't work"
			return m, nil
		}
		m.styles = ui.NewStyles(m.styles.Theme, true)
		m.status = "pro unlocked ✨"
		return m, nil

	case "reflect":
		m.isLoading = true
		return m, tea.Batch(m.spinner.Tick, m.reflectCmd())

	case "clear":
		m.notePersistErr(m.app.st.ClearHistory())
		m.lines = nil
		m.refreshViewport()
		return m, nil

	case "help":
		m.appendRaw(m.styles.Muted.Render(helpText))
		return m, nil

	case "quit", "exit":
		return m, tea.Quit

	default:
		m.status = fmt.Sprintf("unknown command /%s", command)
		return m, nil
	}
}

const helpText = `  /chat /image /astro /diary /live  switch modes
  /persona [key]                    list or set persona
  /ratio [R]                        show or set image aspect ratio
  /tone [voice]                     show or set live voice tone
  /upgrade CODE                     unlock pro
  /reflect                          Nihara writes a diary entry
  /clear                            clear conversation
  /quit                             leave`

// interact sends the input through whichever mode is active. Exactly one
// arm runs; anything unrecognized behaves as chat.
func (m chatModel) interact(input string) (tea.Model, tea.Cmd) {
	switch mode := m.app.st.ActiveMode(); mode {
	case state.ModeImage:
		m.appendUserLine(input)
		m.isLoading = true
		return m, tea.Batch(m.spinner.Tick, m.imageCmd(input))

	case state.ModeAstro:
		m.appendUserLine(input)
		m.isLoading = true
		return m, tea.Batch(m.spinner.Tick, m.astroCmd(input))

	case state.ModeDiary:
		entry := state.DiaryEntry{
			ID:        uuid.NewString(),
			Author:    "user",
			Text:      input,
			CreatedAt: time.Now().UTC(),
		}
		m.appendUserLine(input)
		m.status = "saved to the diary"
		m.notePersistErr(m.app.st.AppendDiary(entry))
		m.notePersistErr(m.app.st.RecordInteraction())
		m.refreshViewport()
		return m, nil

	case state.ModeLive:
		m.appendUserLine(input)
		m.isLoading = true
		return m, tea.Batch(m.spinner.Tick, m.liveCmd(input))

	case state.ModeChat:
		fallthrough
	default:
		m.appendUserLine(input)
		now := time.Now().UTC()
		m.notePersistErr(m.app.st.AppendHistory(state.ChatMessage{Role: "user", Text: input, At: now}))
		m.isLoading = true
		return m, tea.Batch(m.spinner.Tick, m.chatCmd(input))
	}
}

func (m chatModel) chatCmd(input string) tea.Cmd {
	history := m.app.st.History()
	if len(history) > 0 {
		// The just-appended user turn is sent as the new message.
		history = history[:len(history)-1]
	}
	p := m.app.activePersona()
	name := m.app.displayName()
	adapter := m.app.adapter

	return func() tea.Msg {
		reply := adapter.ChatReply(context.Background(),
			historyTurns(history), input, p.SystemInstruction, name, nil)
		return replyMsg{text: reply, persist: true}
	}
}

func (m chatModel) liveCmd(input string) tea.Cmd {
	instruction := gen.LiveInstruction(m.app.activePersona().SystemInstruction, m.app.st.VoiceTone())
	name := m.app.displayName()
	adapter := m.app.adapter

	return func() tea.Msg {
		reply := adapter.ChatReply(context.Background(), nil, input, instruction, name, nil)
		return replyMsg{text: reply}
	}
}

func (m chatModel) astroCmd(input string) tea.Cmd {
	adapter := m.app.adapter
	return func() tea.Msg {
		return replyMsg{text: adapter.AstroForecast(context.Background(), input)}
	}
}

func (m chatModel) imageCmd(prompt string) tea.Cmd {
	adapter := m.app.adapter
	ratio := m.ratio
	return func() tea.Msg {
		uri := adapter.GenerateImage(context.Background(), prompt, ratio)
		if uri == "" {
			return failMsg{reason: "image generation failed, please try again later"}
		}
		caption := adapter.ImageCaption(context.Background(), prompt)

		raw, err := decodeDataURI(uri)
		if err != nil {
			return failMsg{reason: err.Error()}
		}
		dir := filepath.Join(filepath.Dir(m.app.kv.Path()), "images")
		if err := os.MkdirAll(dir, 0755); err != nil {
			return failMsg{reason: err.Error()}
		}
		path := filepath.Join(dir, uuid.NewString()+".jpg")
		if err := os.WriteFile(path, raw, 0644); err != nil {
			return failMsg{reason: err.Error()}
		}
		return imageMsg{path: path, caption: caption}
	}
}

func (m chatModel) reflectCmd() tea.Cmd {
	turns := recentTurns(m.app.st.History(), 12)
	name := m.app.displayName()
	adapter := m.app.adapter

	return func() tea.Msg {
		text := adapter.DiaryReflection(context.Background(), turns, name)
		if text == "" {
			return failMsg{reason: "nothing to reflect on yet"}
		}
		return reflectMsg{entry: state.DiaryEntry{
			ID:        uuid.NewString(),
			Author:    "nihara",
			Text:      text,
			CreatedAt: time.Now().UTC(),
		}}
	}
}

// notePersistErr surfaces a failed state write in the status line so a
// broken store is visible instead of silently dropping data.
func (m *chatModel) notePersistErr(err error) {
	if err != nil {
		m.status = "couldn't save: " + err.Error()
	}
}

// replayHistory seeds the viewport with the persisted conversation.
func (m *chatModel) replayHistory() {
	for _, msg := range m.app.st.History() {
		if msg.Role == "user" {
			m.appendUserLine(msg.Text)
		} else {
			m.appendModelLine(msg.Text)
		}
	}
}

func (m *chatModel) appendUserLine(text string) {
	label := m.styles.UserLabel.Render(m.app.displayName())
	m.appendRaw(label + "  " + text)
}

func (m *chatModel) appendModelLine(text string) {
	rendered := text
	if m.renderer != nil {
		if out, err := m.renderer.Render(text); err == nil {
			rendered = strings.TrimRight(out, "\n")
		}
	}
	label := m.styles.NiharaLabel.Render(m.app.activePersona().Name)
	m.appendRaw(label + "\n" + rendered)
}

func (m *chatModel) appendRaw(line string) {
	m.lines = append(m.lines, line)
	m.refreshViewport()
	m.viewport.GotoBottom()
}

func (m *chatModel) refreshViewport() {
	m.viewport.SetContent(strings.Join(m.lines, "\n\n"))
}

func (m chatModel) View() string {
	switch m.screen {
	case screenAPIKey:
		return m.apiKeyView()
	case screenWelcome:
		return m.welcomeView()
	}

	var tabs []string
	active := m.app.st.ActiveMode()
	for _, mode := range state.Modes() {
		if mode == active {
			tabs = append(tabs, m.styles.ActiveTab.Render(mode.Title()))
		} else {
			tabs = append(tabs, m.styles.ModeTab.Render(mode.Title()))
		}
	}
	header := m.styles.Header.Render("Nihara") + lipgloss.JoinHorizontal(lipgloss.Center, tabs...)
	if m.app.st.IsPro() {
		header += m.styles.ProBadge.Render(" PRO")
	}

	input := m.textinput.View()
	if m.isLoading {
		input = m.spinner.View() + " thinking..."
	}

	footer := m.styles.Footer.Render(fmt.Sprintf("commitment %d/%d  ·  %s",
		m.app.st.CommitmentLevel(), state.MaxCommitment, m.status))

	return fmt.Sprintf("%s\n%s\n\n%s\n%s", header, m.viewport.View(), input, footer)
}

func (m chatModel) welcomeView() string {
	title := m.styles.Title.Render("Welcome")
	body := m.styles.Subtitle.Render("Before we begin, tell me your name.")
	return fmt.Sprintf("\n\n  %s\n\n  %s\n\n  %s\n", title, body, m.textinput.View())
}

func (m chatModel) apiKeyView() string {
	title := m.styles.Title.Render("Configuration Required")
	body := `Nihara is powered by the Google Gemini API. To begin, you need an API key.

  1. Get a free key from https://aistudio.google.com/app/apikey
  2. Export it as GEMINI_API_KEY, or put it under "api_key" in
     ` + configFileHint() + `

Press Enter to exit.`
	return fmt.Sprintf("\n\n  %s\n\n  %s\n", title, m.styles.Muted.Render(body))
}
