package diag

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/mattn/go-runewidth"
)

// Context is a range of text in a source code. It is typically used for
// errors that can be associated with a part of the source code, like lex and
// parse errors.
type Context struct {
	Name   string
	Source string
	Ranging
}

// NewContext creates a new Context.
func NewContext(name, source string, r Ranger) *Context {
	return &Context{name, source, r.Range()}
}

// Position is a 1-based line and column position. Columns count codepoints.
type Position struct {
	Line   int
	Column int
}

func (p Position) String() string { return fmt.Sprintf("%d:%d", p.Line, p.Column) }

// PositionOf returns the line and column of the byte offset i in source.
func PositionOf(source string, i int) Position {
	if i > len(source) {
		i = len(source)
	}
	before := source[:i]
	line := strings.Count(before, "\n") + 1
	col := utf8.RuneCountInString(lastLine(before)) + 1
	return Position{line, col}
}

// Information about the source range that is needed for showing.
type rangeShowInfo struct {
	// Head is the piece of text immediately before Culprit, extending to, but
	// not including the closest line boundary. If Culprit already starts after
	// a line boundary, Head is an empty string.
	Head string
	// Culprit is Source[From:To], with any trailing newline stripped.
	Culprit string
	// Tail is the piece of text immediately after Culprit, extending to, but
	// not including the closet line boundary. If Culprit already ends before a
	// line boundary, Tail is an empty string.
	Tail string
	// Start is the position of the first character of Culprit.
	Start Position
	// EndLine is the (1-based) line number that the last character of Culprit
	// is on.
	EndLine int
}

// Variables controlling the style of the culprit.
var (
	culpritStart       = "\033[1;4m"
	culpritEnd         = "\033[m"
	culpritPlaceHolder = "^"
)

// SetColor turns the ANSI styling of culprits and messages on or off.
func SetColor(on bool) {
	if on {
		culpritStart, culpritEnd = "\033[1;4m", "\033[m"
		messageStart, messageEnd = "\033[31;1m", "\033[m"
	} else {
		culpritStart, culpritEnd = "", ""
		messageStart, messageEnd = "", ""
	}
}

func (c *Context) showInfo() rangeShowInfo {
	before := c.Source[:c.From]
	culprit := c.Source[c.From:c.To]
	after := c.Source[c.To:]

	head := lastLine(before)

	// If the culprit ends with a newline, stripe it. Otherwise, tail is nonempty.
	var tail string
	if strings.HasSuffix(culprit, "\n") {
		culprit = culprit[:len(culprit)-1]
	} else {
		tail = firstLine(after)
	}

	start := PositionOf(c.Source, c.From)
	endLine := start.Line + strings.Count(culprit, "\n")
	return rangeShowInfo{head, culprit, tail, start, endLine}
}

// Describe returns a short description of the start of the range, in the
// "name:line:col" format.
func (c *Context) Describe() string {
	if err := c.checkPosition(); err != nil {
		return err.Error()
	}
	return c.Name + ":" + PositionOf(c.Source, c.From).String()
}

// Show shows a Context, with the source position and the relevant source
// excerpt on separate lines.
func (c *Context) Show(sourceIndent string) string {
	if err := c.checkPosition(); err != nil {
		return err.Error()
	}
	return c.Name + ", " + c.lineRange() + "\n" +
		sourceIndent + c.relevantSource(sourceIndent)
}

// ShowCompact shows a Context, with no line break between the source position
// description and the relevant source excerpt.
func (c *Context) ShowCompact(sourceIndent string) string {
	if err := c.checkPosition(); err != nil {
		return err.Error()
	}
	desc := c.Describe() + ": "
	// Extra indent so that following lines line up with the first line.
	descIndent := strings.Repeat(" ", runewidth.StringWidth(desc))
	return desc + c.relevantSource(sourceIndent+descIndent)
}

func (c *Context) checkPosition() error {
	if c.From == -1 {
		return fmt.Errorf("%s, unknown position", c.Name)
	} else if c.From < 0 || c.To > len(c.Source) || c.From > c.To {
		return fmt.Errorf("%s, invalid position %d-%d", c.Name, c.From, c.To)
	}
	return nil
}

func (c *Context) lineRange() string {
	info := c.showInfo()
	if info.Start.Line == info.EndLine {
		return fmt.Sprintf("line %d:", info.Start.Line)
	}
	return fmt.Sprintf("line %d-%d:", info.Start.Line, info.EndLine)
}

func (c *Context) relevantSource(sourceIndent string) string {
	info := c.showInfo()

	var sb strings.Builder
	sb.WriteString(info.Head)

	culprit := info.Culprit
	if culprit == "" {
		culprit = culpritPlaceHolder
	}

	for i, line := range strings.Split(culprit, "\n") {
		if i > 0 {
			sb.WriteByte('\n')
			sb.WriteString(sourceIndent)
		}
		sb.WriteString(culpritStart)
		sb.WriteString(line)
		sb.WriteString(culpritEnd)
	}

	sb.WriteString(info.Tail)
	return sb.String()
}

func firstLine(s string) string {
	i := strings.IndexByte(s, '\n')
	if i == -1 {
		return s
	}
	return s[:i]
}

func lastLine(s string) string {
	// When s does not contain '\n', LastIndexByte returns -1, which happens to
	// be what we want.
	return s[strings.LastIndexByte(s, '\n')+1:]
}
