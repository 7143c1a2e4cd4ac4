package locator

import (
	"unicode"
	"unicode/utf8"
)

// Class names rendered by the notes application.
const (
	ClassNoteCard     = "IZ65Hb-n0tgWb"
	ClassNewNote      = "fmcmS-h1U9Be-LS81yb"
	ClassSidebar      = "PvRhvb"
	ClassLabelChip    = "bQfzdd"
	ClassChecklistRow = "e5WBfd"
	ClassEditor       = "IZ65Hb-r4nke-haAclf"
	ClassEditorBar    = "IZ65Hb-yePe5c"
)

func button() Predicate { return Attr("role", "button") }

func textbox() Predicate { return Attr("role", "textbox") }

// NoteCard matches a note card whose editable text region contains title.
// The first match is canonical; an empty title matches every card.
func NoteCard(title string) Query {
	return Find("div",
		Class(ClassNoteCard),
		Having(Child("div", textbox(), Contains(title))),
	).Named(`note "` + title + `"`)
}

// AllNoteCards matches every note card in the current view.
func AllNoteCards() Query {
	return Find("div", Class(ClassNoteCard)).Named("note cards")
}

// Affordances inside a note card.

func PinButton() Query {
	return Child("div", button(), AttrHas("aria-label", "Pin note")).Named("pin")
}

func UnpinButton() Query {
	return Child("div", button(), AttrHas("aria-label", "Unpin note")).Named("unpin")
}

func ArchiveButton() Query {
	return Child("div", button(), Attr("aria-label", "Archive")).Named("archive")
}

func MoreButton() Query {
	return Child("div", button(), Attr("aria-label", "More")).Named("more")
}

func BackgroundOptions() Query {
	return Child("div", Attr("aria-label", "Background options")).Named("background options")
}

// ColorOption matches a palette entry by its accessible label, see ColorLabel.
func ColorOption(label string) Query {
	return Child("div", Attr("aria-label", label)).Named("color " + label)
}

func LabelChip(label string) Query {
	return Child("div", Class(ClassLabelChip), TextHas(label)).Named("label " + label)
}

func ChecklistItem(item string) Query {
	return Child("div", Class(ClassChecklistRow), TextHas(item)).Named("checklist item " + item)
}

// Popups rendered outside the card.

func MenuDelete() Query {
	return Find("div", Text("Delete note")).
		Inside(Find("div", Attr("role", "menu"))).
		Named("delete note menu item")
}

func MenuAddLabel() Query {
	return Find("div", Attr("role", "menuitem"), Having(Child("div", TextHas("Add label")))).
		Named("add label menu item")
}

func LabelInput() Query {
	return Find("input", Attr("aria-label", "Enter label name")).Named("label name input")
}

func UndoButton() Query {
	return Find("div", button(), Contains("Undo")).
		Inside(Find("div", Attr("role", "alertdialog"))).
		Named("undo")
}

// Composer.

func NewNoteInput() Query {
	return Find("div", Class(ClassNewNote)).Named("take a note")
}

func ComposerTitle() Query {
	return Find("div", textbox(), Attr("aria-label", "Title")).Named("composer title")
}

func ComposerBody() Query {
	return Find("div", textbox(), Attr("aria-label", "Take a note…")).Named("composer body")
}

func ComposerClose() Query {
	return Find("div", button(), Text("Close")).Named("composer close")
}

func NewListToggle() Query {
	return Find("div", Attr("aria-label", "New list")).Named("new list")
}

func ListItemInput() Query {
	return Find("div", Attr("aria-label", "List item")).Named("list item")
}

// Editor dialog opened from a card.

func EditorTitle(current string) Query {
	return Find("div", Attr("contenteditable", "true"), Text(current)).
		Inside(Find("div", Class(ClassEditor))).
		Named(`editor title "` + current + `"`)
}

func EditorClose() Query {
	return Find("div", button(), TextTrimmed("Close")).
		Inside(Find("div", Class(ClassEditorBar))).
		Named("editor close")
}

// Global chrome.

func SearchBox() Query {
	return Find("input", Attr("aria-label", "Search")).Named("search")
}

func SidebarArchive() Query {
	return Find("", Attr("aria-label", "Archive")).
		Inside(Find("div", Class(ClassSidebar))).
		Named("sidebar archive")
}

func SidebarNotes() Query {
	return Find("", Either(TextHas("Notes"), AttrHas("aria-label", "Notes"))).
		Inside(Find("div", Class(ClassSidebar))).
		Named("sidebar notes")
}

// ArchiveLandmarks are the signals that the archive view has rendered.
// Text inside note cards is user content and never counts.
func ArchiveLandmarks() []Query {
	outsideCards := Outside(Find("div", Class(ClassNoteCard)))
	return []Query{
		Find("", TextHas("Archived"), outsideCards).Named("archived heading"),
		Find("div", AttrHas("aria-label", "Archived"), outsideCards).Named("archived region"),
	}
}

// Colors lists the palette color names accepted by ColorLabel.
var Colors = []string{
	"default", "coral", "peach", "sand", "mint", "sage",
	"fog", "storm", "dusk", "blossom", "clay", "chalk",
}

// ColorLabel maps a color name to the palette entry's accessible label.
func ColorLabel(name string) string {
	if name == "default" {
		return "Default color"
	}
	r, size := utf8.DecodeRuneInString(name)
	if r == utf8.RuneError {
		return name
	}
	return string(unicode.ToUpper(r)) + name[size:]
}
