// Package loader discovers command and event modules written as Go scripts.
//
// Commands live under Commands/<category>/<file>.go and events flat under
// Events/<file>.go. Each file is interpreted with yaegi and must export a
// `Command` or `Event` descriptor built from the discord package types.
// A file that fails to parse, evaluate or validate is reported as a
// LoadError and never stops the remaining files from loading.
package loader

import (
	"errors"
	"fmt"
	"go/parser"
	"go/token"
	"io/fs"
	"os"
	"path"
	"strings"

	"github.com/traefik/yaegi/interp"
	"github.com/traefik/yaegi/stdlib"

	"github.com/PancyStudios/ApexieGo/pkg/discord"
	apxerrors "github.com/PancyStudios/ApexieGo/pkg/errors"
	"github.com/PancyStudios/ApexieGo/pkg/logger"
)

const (
	CommandsDir = "Commands"
	EventsDir   = "Events"
)

// ScriptLoader discovers modules from a directory tree
type ScriptLoader struct {
	fsys    fs.FS
	symbols []interp.Exports
}

// New creates a loader reading from fsys
func New(fsys fs.FS, extra ...interp.Exports) *ScriptLoader {
	return &ScriptLoader{
		fsys:    fsys,
		symbols: append([]interp.Exports{stdlib.Symbols, Symbols}, extra...),
	}
}

// NewDir creates a loader rooted at a directory on disk
func NewDir(root string, extra ...interp.Exports) *ScriptLoader {
	return New(os.DirFS(root), extra...)
}

// Discover implements discord.ModuleSource. Files are visited in directory
// listing order, which is lexicographic.
func (l *ScriptLoader) Discover(kind discord.Kind) []discord.Result {
	files, err := l.files(kind)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			logger.Debug(fmt.Sprintf("Sin directorio de %ss", kind), "Loader")
			return nil
		}
		return []discord.Result{discord.Reject(kind, dirFor(kind), err)}
	}

	results := make([]discord.Result, 0, len(files))
	for _, file := range files {
		m, err := l.load(kind, file)
		if err != nil {
			results = append(results, discord.Reject(kind, file, err))
			continue
		}
		results = append(results, discord.Accept(kind, file, m))
	}
	return results
}

func dirFor(kind discord.Kind) string {
	if kind == discord.KindEvent {
		return EventsDir
	}
	return CommandsDir
}

// files lists the candidate module files of kind
func (l *ScriptLoader) files(kind discord.Kind) ([]string, error) {
	if kind == discord.KindEvent {
		return l.scripts(EventsDir)
	}

	categories, err := fs.ReadDir(l.fsys, CommandsDir)
	if err != nil {
		return nil, err
	}

	var files []string
	for _, category := range categories {
		if !category.IsDir() {
			continue
		}
		found, err := l.scripts(path.Join(CommandsDir, category.Name()))
		if err != nil {
			return nil, err
		}
		files = append(files, found...)
	}
	return files, nil
}

func (l *ScriptLoader) scripts(dir string) ([]string, error) {
	entries, err := fs.ReadDir(l.fsys, dir)
	if err != nil {
		return nil, err
	}

	var files []string
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, ".go") || strings.HasSuffix(name, "_test.go") {
			continue
		}
		files = append(files, path.Join(dir, name))
	}
	return files, nil
}

// load interprets one file in a fresh interpreter and extracts its descriptor
func (l *ScriptLoader) load(kind discord.Kind, file string) (m discord.Module, err error) {
	src, err := fs.ReadFile(l.fsys, file)
	if err != nil {
		return nil, err
	}

	parsed, err := parser.ParseFile(token.NewFileSet(), file, src, parser.PackageClauseOnly)
	if err != nil {
		return nil, err
	}
	pkg := parsed.Name.Name

	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("interpreter panic: %v", rec)
		}
	}()

	i := interp.New(interp.Options{})
	for _, symbols := range l.symbols {
		if err := i.Use(symbols); err != nil {
			return nil, err
		}
	}
	if _, err := i.Eval(string(src)); err != nil {
		return nil, err
	}

	symbol := "Command"
	if kind == discord.KindEvent {
		symbol = "Event"
	}
	v, err := i.Eval(pkg + "." + symbol)
	if err != nil || !v.IsValid() {
		return nil, fmt.Errorf("%w: %s", apxerrors.ErrMissingDescriptor, symbol)
	}

	switch d := v.Interface().(type) {
	case *discord.Command:
		if d != nil && d.Category == "" {
			d.Category = path.Base(path.Dir(file))
		}
		if d != nil {
			d.Source = file
		}
		return d, nil
	case discord.Command:
		if d.Category == "" {
			d.Category = path.Base(path.Dir(file))
		}
		d.Source = file
		return &d, nil
	case *discord.Event:
		if d != nil {
			d.Source = file
		}
		return d, nil
	case discord.Event:
		d.Source = file
		return &d, nil
	default:
		return nil, fmt.Errorf("%w: %s has type %T", apxerrors.ErrMissingDescriptor, symbol, d)
	}
}
