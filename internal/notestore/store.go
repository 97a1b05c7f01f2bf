// Package notestore owns the canonical folder and note collections of a
// session together with the derived state the panes render from: the
// folder filter, the search text, the selected note and the edit draft.
// Everything is held in memory; persistence collaborators talk to the
// store only through its exported queries and commands.
package notestore

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
)

// FolderAll is the virtual folder id meaning "no folder restriction".
// It is a filter mode, never a bucket a note can live in.
const FolderAll = "all"

type Folder struct {
	ID   string
	Name string
}

type Note struct {
	ID      string
	Folder  string
	Title   string
	Content string
	Updated time.Time
}

// Draft is an uncommitted copy of a note's editable fields, alive only
// for the duration of an edit session. It merges into the collection on
// SaveNote and is discarded on CancelEdit.
type Draft struct {
	NoteID  string
	Folder  string
	Title   string
	Content string
}

// Session is the read-only view of the filter/selection state.
type Session struct {
	CurrentFolder string
	SelectedID    string
	Search        string
	Editing       bool
}

// Store is the single owner of all note-taking state. All commands run
// synchronously; callers are expected to serialize access the way an
// event loop does.
type Store struct {
	folders []Folder
	notes   []Note

	currentFolder string
	selectedID    string
	search        string
	editing       bool
	draft         *Draft

	now             func() time.Time
	newID           func() string
	confirm         func(prompt string) bool
	prompt          func(label string) (string, bool)
	preferredFolder string

	foldersSet bool
	notesSet   bool
}

type Option func(*Store)

// WithClock replaces the timestamp source used for Updated stamps.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithIDSource replaces the note id generator.
func WithIDSource(newID func() string) Option {
	return func(s *Store) { s.newID = newID }
}

// WithConfirm injects the confirmation provider consulted by DeleteNote.
// The default provider always answers yes.
func WithConfirm(confirm func(prompt string) bool) Option {
	return func(s *Store) { s.confirm = confirm }
}

// WithPrompt injects the text-prompt provider consulted by PromptNewFolder.
// The default provider answers "no input".
func WithPrompt(prompt func(label string) (string, bool)) Option {
	return func(s *Store) { s.prompt = prompt }
}

// WithDefaultFolder prefers the named folder for notes created while
// the "all" filter is active. Unknown or virtual ids are ignored and
// the first real folder is used instead.
func WithDefaultFolder(id string) Option {
	return func(s *Store) { s.preferredFolder = id }
}

// WithFolders replaces the seed folder set, e.g. with a loaded snapshot.
func WithFolders(folders []Folder) Option {
	return func(s *Store) {
		s.folders = append([]Folder(nil), folders...)
		s.foldersSet = true
	}
}

// WithNotes replaces the seed notes, e.g. with a loaded snapshot.
func WithNotes(notes []Note) Option {
	return func(s *Store) {
		s.notes = append([]Note(nil), notes...)
		s.notesSet = true
	}
}

// DefaultFolders is the folder set a fresh session starts with. The
// leading entry is the virtual "all" filter.
func DefaultFolders() []Folder {
	return []Folder{
		{ID: FolderAll, Name: "All Notes"},
		{ID: "personal", Name: "Personal"},
		{ID: "work", Name: "Work"},
	}
}

func New(opts ...Option) *Store {
	s := &Store{
		currentFolder: FolderAll,
		now:           time.Now,
		newID:         uuid.NewString,
		confirm:       func(string) bool { return true },
		prompt:        func(string) (string, bool) { return "", false },
	}
	for _, opt := range opts {
		opt(s)
	}
	if !s.foldersSet {
		s.folders = DefaultFolders()
	}
	if !s.notesSet {
		s.notes = s.welcomeNotes()
	}
	s.adoptOrphans()
	if len(s.notes) > 0 {
		s.selectedID = s.notes[0].ID
	}
	return s
}

func (s *Store) welcomeNotes() []Note {
	now := s.now()
	return []Note{
		{
			ID:      s.newID(),
			Folder:  "personal",
			Title:   "Welcome to Quill",
			Content: "This is your very first note. Press 'n' to add more.",
			Updated: now,
		},
		{
			ID:      s.newID(),
			Folder:  "work",
			Title:   "Project Ideas",
			Content: "Build a notes app!",
			Updated: now,
		},
	}
}

// adoptOrphans reassigns notes whose folder id is missing or virtual to
// the default folder, creating one if the loaded snapshot has none. The
// invariant that every note references a real folder holds from
// construction onward.
func (s *Store) adoptOrphans() {
	for i := range s.notes {
		if s.isRealFolder(s.notes[i].Folder) {
			continue
		}
		def := s.defaultFolder()
		if def == "" {
			s.folders = append(s.folders, Folder{ID: "notes", Name: "Notes"})
			def = "notes"
		}
		s.notes[i].Folder = def
	}
}

// Folders returns the folder set in creation order, virtual entry first.
func (s *Store) Folders() []Folder {
	return append([]Folder(nil), s.folders...)
}

// Notes returns the full note collection in stored order.
func (s *Store) Notes() []Note {
	return append([]Note(nil), s.notes...)
}

func (s *Store) Session() Session {
	return Session{
		CurrentFolder: s.currentFolder,
		SelectedID:    s.selectedID,
		Search:        s.search,
		Editing:       s.editing,
	}
}

// Draft returns the in-progress edit draft, if an edit session is open.
func (s *Store) Draft() (Draft, bool) {
	if s.draft == nil {
		return Draft{}, false
	}
	return *s.draft, true
}

// VisibleNotes derives the note list the user sees: folder-filtered,
// search-filtered and sorted most recently updated first. The search is
// a trimmed, case-insensitive substring match against title or content.
// Equal timestamps keep their stored relative order.
func (s *Store) VisibleNotes() []Note {
	query := strings.ToLower(strings.TrimSpace(s.search))
	visible := make([]Note, 0, len(s.notes))
	for _, n := range s.notes {
		if s.currentFolder != FolderAll && n.Folder != s.currentFolder {
			continue
		}
		if query != "" &&
			!strings.Contains(strings.ToLower(n.Title), query) &&
			!strings.Contains(strings.ToLower(n.Content), query) {
			continue
		}
		visible = append(visible, n)
	}
	sort.SliceStable(visible, func(i, j int) bool {
		return visible[i].Updated.After(visible[j].Updated)
	})
	return visible
}

// CurrentNote resolves the note the editor panel shows. The selection is
// looked up against the full collection first, so a selected note stays
// current even when the active filter hides it from the visible list;
// only an unresolvable selection falls back to the first visible note.
func (s *Store) CurrentNote() (Note, bool) {
	if idx := s.noteIndex(s.selectedID); idx >= 0 {
		return s.notes[idx], true
	}
	if visible := s.VisibleNotes(); len(visible) > 0 {
		return visible[0], true
	}
	return Note{}, false
}

// CreateNote prepends an empty note assigned to the current folder (or
// the default folder while the "all" filter is active), selects it and
// opens an edit session for it.
func (s *Store) CreateNote() (Note, bool) {
	folder := s.currentFolder
	if !s.isRealFolder(folder) {
		folder = s.defaultFolder()
	}
	if folder == "" {
		return Note{}, false
	}
	n := Note{
		ID:      s.uniqueNoteID(),
		Folder:  folder,
		Updated: s.now(),
	}
	s.notes = append([]Note{n}, s.notes...)
	s.selectedID = n.ID
	s.startDraft(n)
	return n, true
}

// DeleteNote removes a note after consulting the confirmation provider.
// It reports whether the note was removed: an unknown id and a declined
// confirmation are both no-ops. Deleting the selected note clears the
// selection; the next CurrentNote read falls back to the visible list.
func (s *Store) DeleteNote(id string) bool {
	idx := s.noteIndex(id)
	if idx < 0 {
		return false
	}
	if !s.confirm("Delete this note? This cannot be undone.") {
		return false
	}
	s.notes = append(s.notes[:idx], s.notes[idx+1:]...)
	if s.selectedID == id {
		s.selectedID = ""
	}
	if s.draft != nil && s.draft.NoteID == id {
		s.draft = nil
		s.editing = false
	}
	return true
}

// SaveNote commits a draft into the stored note with the matching id,
// stamps Updated and closes the edit session. A draft for an unknown id
// is dropped without creating a note; a draft carrying an invalid folder
// keeps the note's stored folder.
func (s *Store) SaveNote(d Draft) bool {
	idx := s.noteIndex(d.NoteID)
	if idx < 0 {
		return false
	}
	n := &s.notes[idx]
	n.Title = d.Title
	n.Content = d.Content
	if s.isRealFolder(d.Folder) {
		n.Folder = d.Folder
	}
	n.Updated = s.now()
	s.editing = false
	s.draft = nil
	return true
}

// CancelEdit discards the draft and closes the edit session. The stored
// note, including its Updated stamp, is untouched.
func (s *Store) CancelEdit() {
	s.editing = false
	s.draft = nil
}

// ChangeFolder reassigns the current note to another folder immediately.
// Unlike SaveNote this commit path never stamps Updated: moving a note
// between folders is not an edit. Unknown or virtual folder ids no-op.
func (s *Store) ChangeFolder(folderID string) bool {
	if !s.isRealFolder(folderID) {
		return false
	}
	cur, ok := s.CurrentNote()
	if !ok {
		return false
	}
	s.notes[s.noteIndex(cur.ID)].Folder = folderID
	if s.draft != nil && s.draft.NoteID == cur.ID {
		s.draft.Folder = folderID
	}
	return true
}

// CreateFolder appends a folder named after the trimmed display name.
// The id is a slug of the name with a numeric suffix on collision, so
// ids stay unique within a session. Blank names no-op.
func (s *Store) CreateFolder(name string) (Folder, bool) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Folder{}, false
	}
	f := Folder{ID: s.folderID(name), Name: name}
	s.folders = append(s.folders, f)
	return f, true
}

// PromptNewFolder collects a folder name from the injected text-prompt
// provider and creates the folder. A dismissed prompt no-ops.
func (s *Store) PromptNewFolder() (Folder, bool) {
	name, ok := s.prompt("New folder name?")
	if !ok {
		return Folder{}, false
	}
	return s.CreateFolder(name)
}

// SetFolderFilter switches the sidebar filter. The selection is left
// alone; CurrentNote re-resolves it on the next read.
func (s *Store) SetFolderFilter(id string) {
	s.currentFolder = id
}

// SetSearch stores the search text verbatim; trimming happens at
// filter-evaluation time.
func (s *Store) SetSearch(text string) {
	s.search = text
}

// SetSelected records an explicit pick from the list. Dangling ids are
// allowed; CurrentNote handles them. An open draft stays bound to the
// note it snapshotted.
func (s *Store) SetSelected(id string) {
	s.selectedID = id
}

// EnterEdit opens an edit session for the current note, snapshotting it
// into a fresh draft. Re-entering while already editing keeps the open
// draft. Reports false when no note is current.
func (s *Store) EnterEdit() bool {
	if s.editing {
		return true
	}
	cur, ok := s.CurrentNote()
	if !ok {
		return false
	}
	s.startDraft(cur)
	return true
}

// SetEditing toggles edit mode; enabling it behaves like EnterEdit and
// disabling it discards the draft like CancelEdit.
func (s *Store) SetEditing(editing bool) bool {
	if !editing {
		s.CancelEdit()
		return true
	}
	return s.EnterEdit()
}

// UpdateDraft replaces the editable text of the open draft. The stored
// note is untouched until SaveNote commits the draft.
func (s *Store) UpdateDraft(title, content string) bool {
	if !s.editing || s.draft == nil {
		return false
	}
	s.draft.Title = title
	s.draft.Content = content
	return true
}

func (s *Store) startDraft(n Note) {
	s.editing = true
	s.draft = &Draft{
		NoteID:  n.ID,
		Folder:  n.Folder,
		Title:   n.Title,
		Content: n.Content,
	}
}

func (s *Store) noteIndex(id string) int {
	if id == "" {
		return -1
	}
	for i := range s.notes {
		if s.notes[i].ID == id {
			return i
		}
	}
	return -1
}

func (s *Store) hasFolder(id string) bool {
	for i := range s.folders {
		if s.folders[i].ID == id {
			return true
		}
	}
	return false
}

func (s *Store) isRealFolder(id string) bool {
	return id != FolderAll && s.hasFolder(id)
}

// defaultFolder is the bucket notes created under the "all" filter
// land in: the configured preference when it names a real folder,
// otherwise the first real folder in creation order.
func (s *Store) defaultFolder() string {
	if s.isRealFolder(s.preferredFolder) {
		return s.preferredFolder
	}
	for _, f := range s.folders {
		if f.ID != FolderAll {
			return f.ID
		}
	}
	return ""
}

func (s *Store) uniqueNoteID() string {
	id := s.newID()
	for s.noteIndex(id) >= 0 {
		id = s.newID()
	}
	return id
}

func (s *Store) folderID(name string) string {
	slug := slugify(name)
	if slug == "" {
		slug = "folder"
	}
	id := slug
	for i := 2; id == FolderAll || s.hasFolder(id); i++ {
		id = fmt.Sprintf("%s-%d", slug, i)
	}
	return id
}

func slugify(name string) string {
	var b strings.Builder
	lastDash := true
	for _, r := range strings.ToLower(name) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastDash = false
		default:
			if !lastDash {
				b.WriteByte('-')
				lastDash = true
			}
		}
	}
	return strings.Trim(b.String(), "-")
}
