package diag

import (
	"testing"

	"github.com/elves/posixsh/pkg/tt"
)

var contextTests = []struct {
	Name    string
	Context *Context
	Indent  string

	WantShow        string
	WantShowCompact string
}{
	{
		Name:    "single-line culprit",
		Context: contextInParen("[test]", "echo (bad)"),
		Indent:  "_",

		WantShow: lines(
			"[test], line 1:",
			"_echo <(bad)>",
		),
		WantShowCompact: "[test]:1:6: echo <(bad)>",
	},
	{
		Name:    "multi-line culprit",
		Context: contextInParen("[test]", "echo (bad\nbad)\nmore"),
		Indent:  "_",

		WantShow: lines(
			"[test], line 1-2:",
			"_echo <(bad>",
			"_<bad)>",
		),
		WantShowCompact: lines(
			"[test]:1:6: echo <(bad>",
			"_            <bad)>",
		),
	},
	{
		Name: "trailing newline in culprit is removed",
		//                             012345678 9
		Context: NewContext("[test]", "echo bad\n", Ranging{5, 9}),
		Indent:  "_",

		WantShow: lines(
			"[test], line 1:",
			"_echo <bad>",
		),
		WantShowCompact: "[test]:1:6: echo <bad>",
	},
	{
		Name: "culprit on second line",
		//                             0123 45678
		Context: NewContext("[test]", "if x\nthen", Ranging{5, 9}),

		WantShow: lines(
			"[test], line 2:",
			"<then>",
		),
		WantShowCompact: "[test]:2:1: <then>",
	},
	{
		Name: "empty culprit",
		//                             012345
		Context: NewContext("[test]", "echo x", Ranging{5, 5}),

		WantShow: lines(
			"[test], line 1:",
			"echo <^>x",
		),
		WantShowCompact: "[test]:1:6: echo <^>x",
	},
	{
		Name:            "unknown culprit range",
		Context:         NewContext("[test]", "echo", Ranging{-1, -1}),
		WantShow:        "[test], unknown position",
		WantShowCompact: "[test], unknown position",
	},
	{
		Name:            "invalid culprit range",
		Context:         NewContext("[test]", "echo", Ranging{2, 1}),
		WantShow:        "[test], invalid position 2-1",
		WantShowCompact: "[test], invalid position 2-1",
	},
}

func TestContext(t *testing.T) {
	setCulpritMarkers(t, "<", ">")
	for _, test := range contextTests {
		t.Run(test.Name, func(t *testing.T) {
			gotShow := test.Context.Show(test.Indent)
			if gotShow != test.WantShow {
				t.Errorf("Show() -> %q, want %q", gotShow, test.WantShow)
			}
			gotShowCompact := test.Context.ShowCompact(test.Indent)
			if gotShowCompact != test.WantShowCompact {
				t.Errorf("ShowCompact() -> %q, want %q",
					gotShowCompact, test.WantShowCompact)
			}
		})
	}
}

func TestPositionOf(t *testing.T) {
	tt.Test(t, PositionOf,
		Args("echo", 0).Rets(Position{1, 1}),
		Args("echo", 4).Rets(Position{1, 5}),
		Args("a\nbc", 3).Rets(Position{2, 2}),
		// Columns count codepoints, not bytes.
		Args("é x", 3).Rets(Position{1, 3}),
		// Offsets beyond the end are clamped.
		Args("ab", 10).Rets(Position{1, 3}),
	)
}
