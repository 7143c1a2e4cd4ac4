package fake

import (
	"strconv"
	"strings"

	"github.com/devicelab-dev/keep-runner/pkg/core"
	"github.com/devicelab-dev/keep-runner/pkg/locator"
)

// Note is the seedable state of one note.
type Note struct {
	Title    string
	Body     string
	Items    []string
	Labels   []string
	Color    string // palette label, empty is "Default color"
	Pinned   bool
	Archived bool
}

// Palette lists the background options offered on every card.
var Palette = []string{
	"Default color", "Coral", "Peach", "Sand", "Mint", "Sage",
	"Fog", "Storm", "Dusk", "Blossom", "Clay", "Chalk",
}

type note struct {
	Note
	id      int
	deleted bool
}

type composer struct {
	title, body string
	list        bool
	items       []string
	draftItem   string
}

type snackbar struct {
	text string
	undo func()
}

type mutation struct {
	left  int
	apply func()
}

// app is the simulated notes application behind the Driver.
type app struct {
	notes  []*note
	nextID int

	loaded    bool
	loadLeft  int
	view      core.ViewName
	composer  *composer
	menuFor   int
	pickerFor int
	draft     string
	palette   int
	editorFor int
	editTitle string
	search    string
	typed     string
	snack     *snackbar

	pending   []mutation
	navClicks int
}

func (a *app) find(id int) *note {
	for _, n := range a.notes {
		if n.id == id {
			return n
		}
	}
	return nil
}

func (a *app) seed(n Note) {
	a.nextID++
	a.notes = append(a.notes, &note{Note: n, id: a.nextID})
}

func (a *app) closePopups() {
	a.menuFor, a.pickerFor, a.palette = 0, 0, 0
	a.draft = ""
}

func (a *app) saveComposer() {
	c := a.composer
	a.composer = nil
	if c == nil {
		return
	}
	if c.list && strings.TrimSpace(c.draftItem) != "" {
		c.items = append(c.items, strings.TrimSpace(c.draftItem))
	}
	if c.title == "" && c.body == "" && len(c.items) == 0 {
		return
	}
	a.seed(Note{Title: c.title, Body: c.body, Items: c.items})
}

func (a *app) visible(n *note) bool {
	if n.deleted {
		return false
	}
	switch a.view {
	case core.ViewArchive:
		return n.Archived
	default:
		if n.Archived {
			return false
		}
		if a.search == "" {
			return true
		}
		return strings.Contains(n.Title, a.search) || strings.Contains(n.Body, a.search)
	}
}

// render builds the document for the current state.
func (a *app) render(d *Driver) *Document {
	root := el("#document")
	body := el("body").keyed("body")
	root.add(body)
	if !a.loaded || a.loadLeft > 0 {
		return newDocument(root)
	}

	body.add(a.renderSidebar(d), a.renderSearch(d))
	switch a.view {
	case core.ViewArchive:
		region := el("div", "aria-label", "Archived notes").keyed("archive")
		region.add(el("div", "role", "heading").keyed("heading").text("Archived"))
		for _, n := range a.notes {
			if a.visible(n) {
				region.add(a.renderCard(d, n))
			}
		}
		body.add(region)
	default:
		body.add(a.renderComposer(d))
		list := el("div", "role", "main").keyed("notes")
		var pinned, others []*note
		for _, n := range a.notes {
			if !a.visible(n) {
				continue
			}
			if n.Pinned {
				pinned = append(pinned, n)
			} else {
				others = append(others, n)
			}
		}
		for _, n := range append(pinned, others...) {
			list.add(a.renderCard(d, n))
		}
		body.add(list)
	}

	if a.menuFor != 0 {
		id := a.menuFor
		body.add(el("div", "role", "menu").keyed("menu").add(
			el("div", "role", "menuitem").keyed("delete").add(
				el("div").text("Delete note").clicks(d.async(func() { a.deleteNote(id) })),
			),
			el("div", "role", "menuitem").keyed("addlabel").clicks(d.async(func() {
				a.menuFor = 0
				a.pickerFor = id
				a.draft = ""
			})).add(el("div").text("Add label")),
		))
	}
	if a.pickerFor != 0 {
		id := a.pickerFor
		body.add(el("div", "role", "dialog").keyed("labels").add(
			el("input", "aria-label", "Enter label name", "value", a.draft).keyed("input").edits(
				func(s string) { a.draft += s },
				func(key string) {
					switch key {
					case core.KeyEnter:
						label := strings.TrimSpace(a.draft)
						a.draft = ""
						d.later(func() { a.attachLabel(id, label) })
					case core.KeyEscape:
						a.pickerFor = 0
						a.draft = ""
					}
				},
				func() { a.draft = "" },
			),
		))
	}
	if a.editorFor != 0 {
		id := a.editorFor
		body.add(el("div", "class", locator.ClassEditor, "role", "dialog").keyed("editor").add(
			el("div", "contenteditable", "true").keyed("title").text(a.editTitle).edits(
				func(s string) { a.editTitle += s }, nil, func() { a.editTitle = "" },
			),
			el("div", "class", locator.ClassEditorBar).keyed("bar").add(
				el("div", "role", "button").keyed("close").text(" Close ").clicks(d.async(func() {
					if n := a.find(id); n != nil {
						n.Title = a.editTitle
					}
					a.editorFor = 0
					a.editTitle = ""
				})),
			),
		))
	}
	if a.snack != nil {
		s := a.snack
		body.add(el("div", "role", "alertdialog").keyed("snackbar").add(
			el("div").text(s.text),
			el("div", "role", "button").keyed("undo").text("Undo").clicks(d.async(func() {
				s.undo()
				a.snack = nil
			})),
		))
	}
	return newDocument(root)
}

func (a *app) renderSidebar(d *Driver) *Node {
	return el("div", "class", locator.ClassSidebar).keyed("sidebar").add(
		el("div", "role", "button", "aria-label", "Notes").keyed("notes").text("Notes").
			clicks(d.navigate(core.ViewMain)),
		el("div", "role", "button", "aria-label", "Archive").keyed("archive").text("Archive").
			clicks(d.navigate(core.ViewArchive)),
	)
}

func (a *app) renderSearch(d *Driver) *Node {
	return el("input", "aria-label", "Search", "value", a.typed).keyed("search").edits(
		func(s string) { a.typed += s },
		func(key string) {
			if key == core.KeyEnter {
				q := a.typed
				d.later(func() { a.search = q })
			}
		},
		func() { a.typed = "" },
	)
}

func (a *app) renderComposer(d *Driver) *Node {
	wrap := el("div").keyed("composer")
	wrap.add(
		el("div", "class", locator.ClassNewNote).keyed("take").text("Take a note…").clicks(d.async(func() {
			if a.composer == nil {
				a.composer = &composer{}
			}
		})),
		el("div", "role", "button", "aria-label", "New list").keyed("newlist").clicks(d.async(func() {
			if a.composer == nil {
				a.composer = &composer{}
			}
			a.composer.list = true
		})),
	)
	c := a.composer
	if c == nil {
		return wrap
	}
	wrap.add(el("div", "role", "textbox", "aria-label", "Title", "contenteditable", "true").keyed("title").
		text(c.title).edits(func(s string) { c.title += s }, nil, func() { c.title = "" }))
	if c.list {
		for i, item := range c.items {
			wrap.add(el("div", "class", locator.ClassChecklistRow).keyed("item" + strconv.Itoa(i)).text(item))
		}
		wrap.add(el("div", "aria-label", "List item", "contenteditable", "true").keyed("listitem").
			text(c.draftItem).edits(
			func(s string) { c.draftItem += s },
			func(key string) {
				if key == core.KeyEnter && strings.TrimSpace(c.draftItem) != "" {
					c.items = append(c.items, strings.TrimSpace(c.draftItem))
					c.draftItem = ""
				}
			},
			func() { c.draftItem = "" },
		))
	} else {
		wrap.add(el("div", "role", "textbox", "aria-label", "Take a note…", "contenteditable", "true").keyed("body").
			text(c.body).edits(func(s string) { c.body += s }, nil, func() { c.body = "" }))
	}
	wrap.add(el("div", "role", "button").keyed("close").text("Close").clicks(d.async(a.saveComposer)))
	return wrap
}

func (a *app) renderCard(d *Driver, n *note) *Node {
	id := n.id
	color := n.Color
	if color == "" {
		color = Palette[0]
	}
	card := el("div", "class", locator.ClassNoteCard, "data-color", color).
		keyed("note" + strconv.Itoa(id)).
		clicks(d.async(func() {
			if cur := a.find(id); cur != nil {
				a.closePopups()
				a.editorFor = id
				a.editTitle = cur.Title
			}
		}))
	card.add(
		el("div", "role", "textbox").keyed("title").text(n.Title),
		el("div", "role", "textbox").keyed("body").text(n.Body),
	)
	for i, item := range n.Items {
		card.add(el("div", "class", locator.ClassChecklistRow).keyed("item" + strconv.Itoa(i)).text(item))
	}
	for i, label := range n.Labels {
		card.add(el("div", "class", locator.ClassLabelChip).keyed("label" + strconv.Itoa(i)).text(label))
	}

	bar := el("div").keyed("toolbar")
	pinLabel, pressed := "Pin note", "false"
	if n.Pinned {
		pinLabel, pressed = "Unpin note", "true"
	}
	affordances := []*Node{
		el("div", "role", "button", "aria-label", pinLabel, "aria-pressed", pressed).keyed("pin").
			clicks(d.async(func() { a.togglePin(id) })),
		el("div", "role", "button", "aria-label", archiveLabel(n)).keyed("archive").
			clicks(d.async(func() { a.archiveNote(id) })),
		el("div", "role", "button", "aria-label", "More").keyed("more").
			clicks(d.async(func() {
				a.closePopups()
				a.menuFor = id
			})),
		el("div", "role", "button", "aria-label", "Background options").keyed("colors").
			clicks(d.async(func() {
				if a.palette == id {
					a.palette = 0
					return
				}
				a.closePopups()
				a.palette = id
			})),
	}
	for _, aff := range affordances {
		if !d.hidden[aff.Attrs["aria-label"]] {
			bar.add(aff)
		}
	}
	if a.palette == id {
		pal := el("div", "role", "radiogroup").keyed("palette")
		for _, label := range Palette {
			label := label
			checked := strconv.FormatBool(label == color)
			pal.add(el("div", "role", "radio", "aria-label", label, "aria-checked", checked).keyed(label).
				clicks(d.async(func() {
					if cur := a.find(id); cur != nil {
						cur.Color = label
					}
				})))
		}
		bar.add(pal)
	}
	return card.add(bar)
}

func archiveLabel(n *note) string {
	if n.Archived {
		return "Unarchive"
	}
	return "Archive"
}

func (a *app) togglePin(id int) {
	if n := a.find(id); n != nil {
		n.Pinned = !n.Pinned
	}
}

func (a *app) archiveNote(id int) {
	n := a.find(id)
	if n == nil {
		return
	}
	n.Archived = !n.Archived
	if n.Archived {
		n.Pinned = false
	}
	a.snack = &snackbar{text: "Note archived", undo: func() { n.Archived = !n.Archived }}
}

func (a *app) deleteNote(id int) {
	a.closePopups()
	n := a.find(id)
	if n == nil {
		return
	}
	n.deleted = true
	a.snack = &snackbar{text: "Note deleted", undo: func() { n.deleted = false }}
}

func (a *app) attachLabel(id int, label string) {
	n := a.find(id)
	if n == nil || label == "" {
		return
	}
	for _, l := range n.Labels {
		if l == label {
			return
		}
	}
	n.Labels = append(n.Labels, label)
}
