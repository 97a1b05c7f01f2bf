package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/rs/zerolog"

	"quill/internal/config"
	"quill/internal/notestore"
	"quill/internal/storage"
)

type mode int

const (
	modeBrowse mode = iota
	modeEdit
	modeConfirmDelete
	modeNewFolder
	modeSearch
)

type pane int

const (
	paneSidebar pane = iota
	paneList
)

var (
	paneStyle     = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	focusedPane   = paneStyle.BorderForeground(lipgloss.Color("12"))
	selectedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("11")).Bold(true)
	dimStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	headingStyle  = lipgloss.NewStyle().Bold(true)
)

type Model struct {
	store *notestore.Store
	snap  *storage.Store
	cfg   config.Config
	log   zerolog.Logger

	mode  mode
	focus pane

	folderCursor int
	noteCursor   int
	editFocus    int // 0 title, 1 body

	search textinput.Model
	prompt textinput.Model
	title  textinput.Model
	body   textarea.Model

	pendingDelete string
	status        string
	width         int
	height        int
}

// New builds the UI model around an already-hydrated store. snap may be
// nil, which disables snapshot writes (session-only run).
func New(store *notestore.Store, snap *storage.Store, cfg config.Config, log zerolog.Logger) Model {
	search := textinput.New()
	search.Placeholder = "Search notes"
	search.CharLimit = 128
	search.Width = 24

	prompt := textinput.New()
	prompt.Placeholder = "Folder name"
	prompt.CharLimit = 64
	prompt.Width = 24

	title := textinput.New()
	title.Placeholder = "Note title"
	title.CharLimit = 128
	title.Width = 40

	body := textarea.New()
	body.Placeholder = "Write your note here"
	body.CharLimit = 0
	body.SetWidth(60)
	body.SetHeight(12)

	m := Model{
		store:  store,
		snap:   snap,
		cfg:    cfg,
		log:    log,
		mode:   modeBrowse,
		focus:  paneList,
		search: search,
		prompt: prompt,
		title:  title,
		body:   body,
		status: fmt.Sprintf("Press '%s' to create a note, '%s' to edit, '%s' to search.",
			cfg.Keys.NewNote, cfg.Keys.Edit, cfg.Keys.Search),
	}
	m.noteCursor = m.visibleIndexOfSelected()
	return m
}

func Run(store *notestore.Store, snap *storage.Store, cfg config.Config, log zerolog.Logger) error {
	program := tea.NewProgram(New(store, snap, cfg, log), tea.WithAltScreen())
	_, err := program.Run()
	return err
}

func (m Model) Init() tea.Cmd {
	return nil
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch m.mode {
		case modeEdit:
			return m.updateEditMode(msg)
		case modeConfirmDelete:
			return m.updateConfirmDelete(msg.String())
		case modeNewFolder:
			return m.updateNewFolder(msg)
		case modeSearch:
			return m.updateSearchMode(msg)
		default:
			return m.updateBrowseMode(msg.String())
		}
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.body.SetWidth(max(msg.Width-58, 30))
		m.body.SetHeight(max(msg.Height-10, 5))
	}
	return m, nil
}

func (m Model) updateBrowseMode(key string) (tea.Model, tea.Cmd) {
	switch key {
	case "ctrl+c", m.cfg.Keys.Quit:
		return m, tea.Quit
	case m.cfg.Keys.NextPane, m.cfg.Keys.PrevPane:
		if m.focus == paneSidebar {
			m.focus = paneList
		} else {
			m.focus = paneSidebar
		}
	case m.cfg.Keys.Down, "down":
		return m.moveCursor(1), nil
	case m.cfg.Keys.Up, "up":
		return m.moveCursor(-1), nil
	case m.cfg.Keys.NewNote:
		n, ok := m.store.CreateNote()
		if !ok {
			m.status = "Create a folder before adding notes"
			return m, nil
		}
		m.log.Debug().Str("note", n.ID).Str("folder", n.Folder).Msg("note created")
		m.persist()
		m.status = "New note"
		return m.openEditor(), nil
	case m.cfg.Keys.Edit:
		if !m.store.EnterEdit() {
			m.status = "No note to edit"
			return m, nil
		}
		return m.openEditor(), nil
	case m.cfg.Keys.Delete:
		cur, ok := m.store.CurrentNote()
		if !ok {
			m.status = "No note to delete"
			return m, nil
		}
		m.pendingDelete = cur.ID
		m.mode = modeConfirmDelete
		m.status = fmt.Sprintf("Delete %q? This cannot be undone. y/n", displayTitle(cur))
	case m.cfg.Keys.Search:
		m.mode = modeSearch
		m.search.Focus()
		m.status = "Search: type to filter, enter to keep, esc to clear"
		return m, textinput.Blink
	case m.cfg.Keys.NewFolder:
		m.mode = modeNewFolder
		m.prompt.SetValue("")
		m.prompt.Focus()
		m.status = "New folder: type a name and press enter"
		return m, textinput.Blink
	case m.cfg.Keys.Move:
		cur, ok := m.store.CurrentNote()
		if !ok {
			m.status = "No note to move"
			return m, nil
		}
		next := m.nextFolder(cur.Folder)
		if next == "" || !m.store.ChangeFolder(next) {
			m.status = "No other folder to move to"
			return m, nil
		}
		m.persist()
		m.noteCursor = clampCursor(m.noteCursor, len(m.store.VisibleNotes()))
		m.status = fmt.Sprintf("Moved %q to %s", displayTitle(cur), m.folderName(next))
	}
	return m, nil
}

func (m Model) updateConfirmDelete(key string) (tea.Model, tea.Cmd) {
	switch key {
	case "n", "N", m.cfg.Keys.Cancel:
		m.status = "Delete cancelled"
		m.pendingDelete = ""
		m.mode = modeBrowse
		return m, nil
	case "y", "Y":
		// The user already answered; the store's injected provider
		// commits without asking again.
		if m.store.DeleteNote(m.pendingDelete) {
			m.log.Debug().Str("note", m.pendingDelete).Msg("note deleted")
			m.persist()
			m.status = "Deleted note"
		} else {
			m.status = "Note already gone"
		}
		m.pendingDelete = ""
		m.mode = modeBrowse
		m.noteCursor = clampCursor(m.noteCursor, len(m.store.VisibleNotes()))
		return m, nil
	default:
		return m, nil
	}
}

func (m Model) updateNewFolder(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case m.cfg.Keys.Cancel:
		m.mode = modeBrowse
		m.prompt.Blur()
		m.status = "Cancelled"
		return m, nil
	case m.cfg.Keys.Confirm:
		f, ok := m.store.CreateFolder(m.prompt.Value())
		if !ok {
			m.status = "Folder name cannot be empty"
			return m, nil
		}
		m.log.Debug().Str("folder", f.ID).Msg("folder created")
		m.persist()
		m.mode = modeBrowse
		m.prompt.Blur()
		m.status = fmt.Sprintf("Created folder %s", f.Name)
		return m, nil
	default:
		var cmd tea.Cmd
		m.prompt, cmd = m.prompt.Update(msg)
		return m, cmd
	}
}

func (m Model) updateSearchMode(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case m.cfg.Keys.Cancel:
		m.search.SetValue("")
		m.store.SetSearch("")
		m.search.Blur()
		m.mode = modeBrowse
		m.noteCursor = 0
		m.status = "Search cleared"
		return m, nil
	case m.cfg.Keys.Confirm:
		m.search.Blur()
		m.mode = modeBrowse
		m.status = fmt.Sprintf("%d notes match", len(m.store.VisibleNotes()))
		return m, nil
	default:
		var cmd tea.Cmd
		m.search, cmd = m.search.Update(msg)
		m.store.SetSearch(m.search.Value())
		m.noteCursor = 0
		return m, cmd
	}
}

func (m Model) updateEditMode(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case m.cfg.Keys.Cancel:
		m.store.CancelEdit()
		m.status = "Edit cancelled"
		return m.closeEditor(), nil
	case m.cfg.Keys.Save:
		d, ok := m.store.Draft()
		if !ok {
			return m.closeEditor(), nil
		}
		d.Title = m.title.Value()
		d.Content = m.body.Value()
		if m.store.SaveNote(d) {
			m.log.Debug().Str("note", d.NoteID).Msg("note saved")
			m.persist()
			m.status = "Saved"
		} else {
			m.status = "Note no longer exists"
		}
		return m.closeEditor(), nil
	case "tab":
		if m.editFocus == 0 {
			m.editFocus = 1
			m.title.Blur()
			return m, m.body.Focus()
		}
		m.editFocus = 0
		m.body.Blur()
		m.title.Focus()
		return m, textinput.Blink
	case "ctrl+f":
		d, ok := m.store.Draft()
		if !ok {
			return m, nil
		}
		next := m.nextFolder(d.Folder)
		if next == "" || !m.store.ChangeFolder(next) {
			m.status = "No other folder"
			return m, nil
		}
		m.persist()
		m.status = fmt.Sprintf("Folder: %s", m.folderName(next))
		return m, nil
	default:
		var cmd tea.Cmd
		if m.editFocus == 0 {
			m.title, cmd = m.title.Update(msg)
		} else {
			m.body, cmd = m.body.Update(msg)
		}
		m.store.UpdateDraft(m.title.Value(), m.body.Value())
		return m, cmd
	}
}

func (m Model) moveCursor(delta int) Model {
	if m.focus == paneSidebar {
		folders := m.store.Folders()
		m.folderCursor = clampCursor(m.folderCursor+delta, len(folders))
		if len(folders) > 0 {
			m.store.SetFolderFilter(folders[m.folderCursor].ID)
			m.noteCursor = clampCursor(m.noteCursor, len(m.store.VisibleNotes()))
		}
		return m
	}
	visible := m.store.VisibleNotes()
	if len(visible) == 0 {
		return m
	}
	m.noteCursor = clampCursor(m.noteCursor+delta, len(visible))
	m.store.SetSelected(visible[m.noteCursor].ID)
	return m
}

func (m Model) openEditor() Model {
	d, ok := m.store.Draft()
	if !ok {
		return m
	}
	m.title.SetValue(d.Title)
	m.body.SetValue(d.Content)
	m.editFocus = 0
	m.title.Focus()
	m.body.Blur()
	m.mode = modeEdit
	m.noteCursor = m.visibleIndexOfSelected()
	return m
}

func (m Model) closeEditor() Model {
	m.title.Blur()
	m.body.Blur()
	m.mode = modeBrowse
	m.noteCursor = m.visibleIndexOfSelected()
	return m
}

func (m Model) persist() {
	if m.snap == nil {
		return
	}
	if err := m.snap.Replace(m.store.Folders(), m.store.Notes()); err != nil {
		m.log.Error().Err(err).Msg("snapshot write failed")
	}
}

func (m Model) visibleIndexOfSelected() int {
	selected := m.store.Session().SelectedID
	for i, n := range m.store.VisibleNotes() {
		if n.ID == selected {
			return i
		}
	}
	return 0
}

// nextFolder cycles through the real folders in creation order.
func (m Model) nextFolder(current string) string {
	var real []string
	for _, f := range m.store.Folders() {
		if f.ID != notestore.FolderAll {
			real = append(real, f.ID)
		}
	}
	if len(real) < 2 {
		return ""
	}
	for i, id := range real {
		if id == current {
			return real[(i+1)%len(real)]
		}
	}
	return real[0]
}

func (m Model) folderName(id string) string {
	for _, f := range m.store.Folders() {
		if f.ID == id {
			return f.Name
		}
	}
	return id
}

func (m Model) View() string {
	sidebar := m.renderSidebar()
	list := m.renderList()
	editor := m.renderEditor()

	panes := lipgloss.JoinHorizontal(lipgloss.Top, sidebar, list, editor)

	var b strings.Builder
	b.WriteString(panes)
	b.WriteString("\n")
	b.WriteString(m.status)
	b.WriteString("\n")
	b.WriteString(dimStyle.Render(m.renderHelp()))
	return b.String()
}

func (m Model) renderSidebar() string {
	session := m.store.Session()
	var b strings.Builder
	b.WriteString(headingStyle.Render("Folders"))
	b.WriteString("\n\n")
	for i, f := range m.store.Folders() {
		cursor := " "
		if m.focus == paneSidebar && i == m.folderCursor && m.mode == modeBrowse {
			cursor = ">"
		}
		line := fmt.Sprintf("%s %s", cursor, f.Name)
		if f.ID == session.CurrentFolder {
			line = selectedStyle.Render(line)
		}
		b.WriteString(line)
		b.WriteString("\n")
	}
	style := paneStyle
	if m.focus == paneSidebar && m.mode == modeBrowse {
		style = focusedPane
	}
	return style.Width(18).Render(b.String())
}

func (m Model) renderList() string {
	session := m.store.Session()
	visible := m.store.VisibleNotes()

	var b strings.Builder
	if m.mode == modeSearch {
		b.WriteString(m.search.View())
	} else if strings.TrimSpace(session.Search) != "" {
		b.WriteString(fmt.Sprintf("Search: %s", strings.TrimSpace(session.Search)))
	} else {
		b.WriteString(headingStyle.Render("Notes"))
	}
	b.WriteString("\n\n")

	if len(visible) == 0 {
		b.WriteString(dimStyle.Render("No notes found."))
		b.WriteString("\n")
	}
	for i, n := range visible {
		cursor := " "
		if m.focus == paneList && i == m.noteCursor && m.mode == modeBrowse {
			cursor = ">"
		}
		line := fmt.Sprintf("%s %s", cursor, displayTitle(n))
		if n.ID == session.SelectedID {
			line = selectedStyle.Render(line)
		}
		b.WriteString(line)
		b.WriteString("\n")
		b.WriteString(dimStyle.Render("   " + n.Updated.Local().Format("2006-01-02 15:04")))
		b.WriteString("\n")
	}
	style := paneStyle
	if m.focus == paneList && m.mode == modeBrowse {
		style = focusedPane
	}
	return style.Width(32).Render(b.String())
}

func (m Model) renderEditor() string {
	width := max(m.width-56, 34)

	if m.mode == modeEdit {
		d, ok := m.store.Draft()
		if !ok {
			return paneStyle.Width(width).Render("")
		}
		var b strings.Builder
		b.WriteString(fmt.Sprintf("Folder: %s  (ctrl+f to change)", m.folderName(d.Folder)))
		b.WriteString("\n\n")
		b.WriteString(m.title.View())
		b.WriteString("\n\n")
		b.WriteString(m.body.View())
		return focusedPane.Width(width).Render(b.String())
	}

	cur, ok := m.store.CurrentNote()
	if !ok {
		return paneStyle.Width(width).Render(dimStyle.Render("Select or create a note to view/edit"))
	}
	var b strings.Builder
	b.WriteString(dimStyle.Render(fmt.Sprintf("Folder: %s", m.folderName(cur.Folder))))
	b.WriteString("\n\n")
	b.WriteString(headingStyle.Render(displayTitle(cur)))
	b.WriteString("\n\n")
	b.WriteString(cur.Content)
	b.WriteString("\n\n")
	b.WriteString(dimStyle.Render("Last updated: " + cur.Updated.Local().Format("2006-01-02 15:04:05")))
	return paneStyle.Width(width).Render(b.String())
}

func (m Model) renderHelp() string {
	k := m.cfg.Keys
	switch m.mode {
	case modeEdit:
		return fmt.Sprintf("%s save • %s cancel • tab switch field • ctrl+f folder", k.Save, k.Cancel)
	case modeConfirmDelete:
		return "y confirm • n cancel"
	case modeNewFolder, modeSearch:
		return fmt.Sprintf("%s accept • %s cancel", k.Confirm, k.Cancel)
	default:
		return fmt.Sprintf("%s/%s move • %s pane • %s new • %s edit • %s delete • %s move note • %s folder • %s search • %s quit",
			k.Up, k.Down, k.NextPane, k.NewNote, k.Edit, k.Delete, k.Move, k.NewFolder, k.Search, k.Quit)
	}
}

func displayTitle(n notestore.Note) string {
	if strings.TrimSpace(n.Title) == "" {
		return "(Untitled Note)"
	}
	return n.Title
}

func clampCursor(cur, n int) int {
	if n <= 0 {
		return 0
	}
	if cur < 0 {
		return 0
	}
	if cur >= n {
		return n - 1
	}
	return cur
}
