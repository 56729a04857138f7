// Package router turns chat lines into story commands.
//
// A line whose first word is the command prefix (by default "advpal") is a
// command; every other non-empty line is free text that may pick an option
// of the active story. Arguments are collapsed to single spaces, so
// "advpal choose  Go   left" selects "Go left".
//
// Recognised commands:
//   - load <source>
//   - choose <selection...>
//   - reset <bookmark...> (also written "bookmarks reset <bookmark...>")
//   - bookmarks
//   - unload
//   - show
//   - help
//   - quit
package router

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for command routing.
var (
	// ErrUnknownCommand is returned for a prefixed line whose subcommand is
	// not recognised.
	ErrUnknownCommand = errors.New("unknown command")

	// ErrMissingArgument is returned when a command that needs an argument
	// has none.
	ErrMissingArgument = errors.New("missing argument")

	// ErrEmptyLine is returned for blank input.
	ErrEmptyLine = errors.New("empty line")
)

// Kind identifies what a routed line asks for.
type Kind string

// Route kinds.
const (
	KindMessage   Kind = "message"
	KindLoad      Kind = "load"
	KindChoose    Kind = "choose"
	KindReset     Kind = "reset"
	KindBookmarks Kind = "bookmarks"
	KindUnload    Kind = "unload"
	KindShow      Kind = "show"
	KindHelp      Kind = "help"
	KindQuit      Kind = "quit"
)

// Route is a parsed line.
type Route struct {
	Kind Kind

	// Arg is the collapsed argument text: the source for load, the
	// selection for choose, the bookmark for reset, and the whole line
	// for a message.
	Arg string
}

// argument requirements per command word.
var commands = map[string]struct {
	kind     Kind
	needsArg bool
}{
	"load":      {KindLoad, true},
	"choose":    {KindChoose, true},
	"reset":     {KindReset, true},
	"bookmarks": {KindBookmarks, false},
	"unload":    {KindUnload, false},
	"show":      {KindShow, false},
	"help":      {KindHelp, false},
	"quit":      {KindQuit, false},
}

// Parse routes line using prefix as the command word. A bare prefix routes
// to help.
func Parse(line, prefix string) (Route, error) {
	words := strings.Fields(line)
	if len(words) == 0 {
		return Route{}, ErrEmptyLine
	}
	if words[0] != prefix {
		return Route{Kind: KindMessage, Arg: strings.Join(words, " ")}, nil
	}
	if len(words) == 1 {
		return Route{Kind: KindHelp}, nil
	}

	name, args := strings.ToLower(words[1]), words[2:]
	if name == "bookmarks" && len(args) > 0 && strings.ToLower(args[0]) == "reset" {
		name, args = "reset", args[1:]
	}

	cmd, ok := commands[name]
	if !ok {
		return Route{}, fmt.Errorf("%w: %s", ErrUnknownCommand, words[1])
	}
	arg := strings.Join(args, " ")
	if cmd.needsArg && arg == "" {
		return Route{}, fmt.Errorf("%w: %s needs an argument", ErrMissingArgument, name)
	}
	return Route{Kind: cmd.kind, Arg: arg}, nil
}
