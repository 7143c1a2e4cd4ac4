package locator

import "testing"

func TestLiteral(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain", "Test Note 1", "'Test Note 1'"},
		{"empty", "", "''"},
		{"single quote", "Bob's note", `"Bob's note"`},
		{"double quote", `say "hi"`, `'say "hi"'`},
		{"both quotes", `it's "x"`, `concat('it', "'", 's "x"')`},
		{"leading quote", `'a"`, `concat('', "'", 'a"')`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Literal(tt.in); got != tt.want {
				t.Errorf("Literal(%q) = %s, want %s", tt.in, got, tt.want)
			}
		})
	}
}

func TestQuery_XPath(t *testing.T) {
	tests := []struct {
		name string
		q    Query
		want string
	}{
		{
			name: "note card",
			q:    NoteCard("Test Note 1"),
			want: "//div[contains(@class,'IZ65Hb-n0tgWb')][.//div[@role='textbox'][contains(.,'Test Note 1')]]",
		},
		{
			name: "all cards",
			q:    AllNoteCards(),
			want: "//div[contains(@class,'IZ65Hb-n0tgWb')]",
		},
		{
			name: "relative pin",
			q:    PinButton(),
			want: ".//div[@role='button'][contains(@aria-label,'Pin note')]",
		},
		{
			name: "ancestor",
			q:    MenuDelete(),
			want: "//div[@role='menu']//div[text()='Delete note']",
		},
		{
			name: "any tag with or",
			q:    SidebarNotes(),
			want: "//div[contains(@class,'PvRhvb')]//*[contains(text(),'Notes') or contains(@aria-label,'Notes')]",
		},
		{
			name: "normalized text",
			q:    EditorClose(),
			want: "//div[contains(@class,'IZ65Hb-yePe5c')]//div[@role='button'][normalize-space(text())='Close']",
		},
		{
			name: "outside cards",
			q:    ArchiveLandmarks()[0],
			want: "//*[contains(text(),'Archived')][not(ancestor::div[contains(@class,'IZ65Hb-n0tgWb')])]",
		},
		{
			name: "escaped title",
			q:    NoteCard("Bob's list"),
			want: `//div[contains(@class,'IZ65Hb-n0tgWb')][.//div[@role='textbox'][contains(.,"Bob's list")]]`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.q.XPath(); got != tt.want {
				t.Errorf("XPath() =\n  %s\nwant\n  %s", got, tt.want)
			}
		})
	}
}

func TestNoteCard_IsPure(t *testing.T) {
	a := NoteCard("same")
	b := NoteCard("same")
	if a.XPath() != b.XPath() {
		t.Error("NoteCard should be deterministic")
	}
	a.Preds[0].Value = "mutated"
	if NoteCard("same").XPath() != b.XPath() {
		t.Error("builders should not share state between calls")
	}
}

func TestQuery_String(t *testing.T) {
	if got := NoteCard("T").String(); got != `note "T"` {
		t.Errorf("String() = %s", got)
	}
	q := Find("span")
	if got := q.String(); got != "//span" {
		t.Errorf("String() without label = %s, want //span", got)
	}
}

func TestInside_DoesNotAliasAncestor(t *testing.T) {
	anc := Find("div", Attr("role", "menu"))
	q := Find("div").Inside(anc)
	anc.Tag = "span"
	if got := q.XPath(); got != "//div[@role='menu']//div" {
		t.Errorf("XPath() = %s", got)
	}
}

func TestColorLabel(t *testing.T) {
	tests := map[string]string{
		"default": "Default color",
		"coral":   "Coral",
		"Coral":   "Coral",
		"darkBlue": "DarkBlue",
		"":        "",
	}
	for in, want := range tests {
		if got := ColorLabel(in); got != want {
			t.Errorf("ColorLabel(%q) = %q, want %q", in, got, want)
		}
	}
}
