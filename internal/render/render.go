// Package render draws story output for a terminal.
//
// Output is laid out as embeds: a titled block of named fields, the way a
// chat client shows rich messages. Colour is applied with lipgloss and is
// dropped automatically when the writer is not a terminal.
package render

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/url"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"

	"advpal/internal/fetch"
	"advpal/internal/router"
	"advpal/internal/session"
	"advpal/internal/story"
)

// User-facing texts.
const (
	ErrorTitle          = "An error has occured."
	BookmarksTitle      = "Bookmarks"
	BookmarkField       = "Bookmark"
	DescriptionField    = "Description"
	OptionsField        = "Options"
	ImageField          = "Image"
	VictoryMessage      = "You have found a true ending of the story."
	BadEndMessage       = "You did not choose wisely. This was not the way it was meant to end."
	NoValidStory        = "You must pass your story as an attachment for this to work."
	FailedToOpenFile    = "Failed to read your story file."
	InvalidOption       = "%s is not a valid option. Pick one of the numbers shown."
	FailedBookmarkReset = "The bookmark you entered does not match any bookmark you've reached yet."
	InvalidStartState   = "Loaded story has invalid starting state."
	NoActiveStory       = "There is no story loaded here. Load one with:\n%s load [story file or URL]"
	CorruptStory        = "The saved story could not be read and has been cleared. Load it again with:\n%s load [story file or URL]"
)

// Config holds renderer settings.
type Config struct {
	// Width is the column width text is wrapped to.
	Width int
	// Color enables styling when the output supports it.
	Color bool
	// Prefix is the command word shown in help texts.
	Prefix string
}

// Renderer writes embeds to an output stream. Create one with [New].
type Renderer struct {
	out    io.Writer
	width  int
	prefix string

	title   lipgloss.Style
	alert   lipgloss.Style
	good    lipgloss.Style
	bad     lipgloss.Style
	field   lipgloss.Style
	body    lipgloss.Style
	divider lipgloss.Style
}

// New returns a renderer writing to out.
func New(out io.Writer, cfg Config) *Renderer {
	if cfg.Width <= 0 {
		cfg.Width = 72
	}
	if cfg.Prefix == "" {
		cfg.Prefix = story.DefaultCommandPrefix
	}

	lr := lipgloss.NewRenderer(out)
	if !cfg.Color {
		lr.SetColorProfile(termenv.Ascii)
	}

	return &Renderer{
		out:     out,
		width:   cfg.Width,
		prefix:  cfg.Prefix,
		title:   lr.NewStyle().Bold(true).Foreground(lipgloss.Color("12")),
		alert:   lr.NewStyle().Bold(true).Foreground(lipgloss.Color("9")),
		good:    lr.NewStyle().Bold(true).Foreground(lipgloss.Color("10")),
		bad:     lr.NewStyle().Bold(true).Foreground(lipgloss.Color("9")),
		field:   lr.NewStyle().Bold(true),
		body:    lr.NewStyle().PaddingLeft(2).Width(cfg.Width),
		divider: lr.NewStyle().Faint(true),
	}
}

// State draws the reader's current state, followed by the ending banner and
// the bookmark help when the state is an ending.
func (r *Renderer) State(s session.Rendering) {
	var b strings.Builder
	if s.Title != "" {
		b.WriteString(r.title.Render(s.Title))
		b.WriteString("\n")
	}
	r.writeField(&b, BookmarkField, s.Bookmark)
	r.writeField(&b, DescriptionField, s.Text)
	if len(s.Options) > 0 {
		r.writeField(&b, OptionsField, numbered(s.Options))
	}
	if s.ImageURL != "" {
		r.writeField(&b, ImageField, s.ImageURL)
	}
	r.flush(&b)

	switch s.Ending {
	case story.EndingGood:
		r.embed(r.good, VictoryMessage, r.ResetHelp())
	case story.EndingBad:
		r.embed(r.bad, BadEndMessage, r.ResetHelp())
	}
}

// Bookmarks draws the list of reached bookmarks.
func (r *Renderer) Bookmarks(list session.BookmarkList) {
	r.embed(r.title, BookmarksTitle, numbered(list.Labels))
}

// Error draws the rejection reason for err.
func (r *Renderer) Error(err error) {
	r.embed(r.alert, ErrorTitle, r.Message(err))
}

// Info draws a plain titled notice.
func (r *Renderer) Info(title, text string) {
	r.embed(r.title, title, text)
}

// Help draws the command summary.
func (r *Renderer) Help() {
	p := r.prefix
	lines := []string{
		p + " load [story file or URL]    start a story",
		p + " choose [number or option]   pick an option",
		p + " bookmarks                   list reached bookmarks",
		p + " bookmarks reset [bookmark]  return to a bookmark",
		p + " show                        show the current state",
		p + " unload                      drop the story",
		"",
		"Any other line picks the option it names.",
	}
	r.embed(r.title, "Commands", strings.Join(lines, "\n"))
}

// ResetHelp returns the text telling the reader how to return to a bookmark.
func (r *Renderer) ResetHelp() string {
	return strings.Join([]string{
		"You may choose to return to a bookmark.",
		"Check the list of bookmarks you have already reached by typing:",
		r.prefix + " bookmarks",
		"Return to one of your choosing by typing:",
		r.prefix + " bookmarks reset [bookmark name]",
	}, "\n")
}

// Message returns the reader-facing text for a rejection.
func (r *Renderer) Message(err error) string {
	var selErr *session.SelectionError
	var schemaErr *story.SchemaError
	var danglingErr *story.DanglingReferenceError
	var pathErr *fs.PathError
	var urlErr *url.Error

	switch {
	case errors.As(err, &selErr):
		return fmt.Sprintf(InvalidOption, selErr.Selection)
	case errors.Is(err, session.ErrInvalidBookmark):
		return FailedBookmarkReset
	case errors.Is(err, session.ErrNoDocument):
		return NoValidStory
	case errors.Is(err, story.ErrInvalidStartState):
		return InvalidStartState
	case errors.Is(err, session.ErrNoActiveStory):
		return fmt.Sprintf(NoActiveStory, r.prefix)
	case errors.Is(err, session.ErrCorruptStory):
		return fmt.Sprintf(CorruptStory, r.prefix)
	case errors.As(err, &schemaErr):
		return FailedToOpenFile + "\n" + schemaErr.Error()
	case errors.As(err, &danglingErr):
		return FailedToOpenFile + "\n" + danglingErr.Error()
	case errors.Is(err, fetch.ErrStatus), errors.Is(err, fetch.ErrTooLarge),
		errors.As(err, &pathErr), errors.As(err, &urlErr):
		return FailedToOpenFile + "\n" + err.Error()
	case errors.Is(err, router.ErrUnknownCommand), errors.Is(err, router.ErrMissingArgument):
		return fmt.Sprintf("%s\nType %q for the list of commands.", err, r.prefix+" help")
	default:
		return err.Error()
	}
}

func (r *Renderer) embed(style lipgloss.Style, title, text string) {
	var b strings.Builder
	b.WriteString(style.Render(title))
	b.WriteString("\n")
	if text != "" {
		b.WriteString(r.body.Render(text))
		b.WriteString("\n")
	}
	r.flush(&b)
}

func (r *Renderer) writeField(b *strings.Builder, name, value string) {
	b.WriteString(r.field.Render(name))
	b.WriteString("\n")
	b.WriteString(r.body.Render(value))
	b.WriteString("\n")
}

func (r *Renderer) flush(b *strings.Builder) {
	b.WriteString(r.divider.Render(strings.Repeat("─", min(r.width, 24))))
	b.WriteString("\n")
	io.WriteString(r.out, b.String())
}

func numbered(items []string) string {
	lines := make([]string, len(items))
	for i, item := range items {
		lines[i] = fmt.Sprintf("%d. %s", i+1, item)
	}
	return strings.Join(lines, "\n")
}
