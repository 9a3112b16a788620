package msbuild

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/afero"

	"github.com/phobologic/ctags-msbuild/internal/model"
)

// Reserved properties are provided by the engine and cannot be defined by
// project files. The MSBuildThisFile* family varies with the file being
// evaluated and is never listed on the document.
var reservedNames = map[string]bool{
	"msbuildprojectdirectory":        true,
	"msbuildprojectdirectorynoroot":  true,
	"msbuildprojectextension":        true,
	"msbuildprojectfile":             true,
	"msbuildprojectfullpath":         true,
	"msbuildprojectname":             true,
	"msbuildthisfile":                true,
	"msbuildthisfiledirectory":       true,
	"msbuildthisfiledirectorynoroot": true,
	"msbuildthisfileextension":       true,
	"msbuildthisfilefullpath":        true,
	"msbuildthisfilename":            true,
}

type frame struct {
	file string
	dir  string
}

type propEntry struct {
	name     string
	value    string
	loc      *model.Location
	reserved bool
	global   bool
}

type deferredGroup struct {
	frame frame
	el    *element
}

// evaluation holds the state of evaluating one project and its imports.
type evaluation struct {
	loader *Loader
	fs     afero.Fs
	path   string
	dir    string

	props map[string]*propEntry
	order []string

	items    []model.Item
	targets  []*model.Target
	targetIx map[string]int

	imported map[string]bool
	deferred []deferredGroup
	cur      frame
	itemPass bool
}

func newEvaluation(l *Loader, path string) *evaluation {
	return &evaluation{
		loader:   l,
		fs:       l.fs,
		path:     path,
		dir:      filepath.Dir(path),
		props:    make(map[string]*propEntry),
		targetIx: make(map[string]int),
		imported: make(map[string]bool),
	}
}

func (e *evaluation) run(root *element) error {
	for _, kv := range e.loader.opts.Environ {
		name, value, ok := strings.Cut(kv, "=")
		if !ok || !validName(name) || reservedNames[strings.ToLower(name)] {
			continue
		}
		e.define(&propEntry{name: name, value: value})
	}
	globals := e.loader.opts.GlobalProperties
	names := make([]string, 0, len(globals))
	for name := range globals {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if reservedNames[strings.ToLower(name)] {
			return fmt.Errorf("global property %q is reserved", name)
		}
		e.define(&propEntry{name: name, value: globals[name], global: true})
	}

	ext := filepath.Ext(e.path)
	base := filepath.Base(e.path)
	for _, p := range []propEntry{
		{name: "MSBuildProjectDirectory", value: e.dir},
		{name: "MSBuildProjectDirectoryNoRoot", value: noRoot(e.dir)},
		{name: "MSBuildProjectExtension", value: ext},
		{name: "MSBuildProjectFile", value: base},
		{name: "MSBuildProjectFullPath", value: e.path},
		{name: "MSBuildProjectName", value: strings.TrimSuffix(base, ext)},
	} {
		p := p
		p.reserved = true
		e.define(&p)
	}

	if err := e.evaluateFile(e.path, root); err != nil {
		return err
	}

	e.itemPass = true
	for _, g := range e.deferred {
		e.cur = g.frame
		if err := e.evaluateItemGroup(g.el); err != nil {
			return err
		}
	}
	return nil
}

func (e *evaluation) define(p *propEntry) {
	key := strings.ToLower(p.name)
	if _, ok := e.props[key]; !ok {
		e.order = append(e.order, key)
	}
	e.props[key] = p
}

func (e *evaluation) document() *model.Document {
	doc := &model.Document{
		Path:    e.path,
		Targets: e.targets,
		Items:   e.items,
	}
	for _, key := range e.order {
		p := e.props[key]
		doc.Properties = append(doc.Properties, model.Property{
			Name:     p.name,
			Value:    p.value,
			Reserved: p.reserved,
			Location: p.loc,
		})
	}
	return doc
}

// property implements scope.
func (e *evaluation) property(name string) string {
	key := strings.ToLower(name)
	if strings.HasPrefix(key, "msbuildthisfile") {
		ext := filepath.Ext(e.cur.file)
		switch key {
		case "msbuildthisfile":
			return filepath.Base(e.cur.file)
		case "msbuildthisfiledirectory":
			return e.cur.dir + string(filepath.Separator)
		case "msbuildthisfiledirectorynoroot":
			return noRoot(e.cur.dir) + string(filepath.Separator)
		case "msbuildthisfileextension":
			return ext
		case "msbuildthisfilefullpath":
			return e.cur.file
		case "msbuildthisfilename":
			return strings.TrimSuffix(filepath.Base(e.cur.file), ext)
		}
	}
	if p, ok := e.props[key]; ok {
		return p.value
	}
	return ""
}

// itemIncludes implements scope. Items are only known during the item pass.
func (e *evaluation) itemIncludes(itemType string) []string {
	if !e.itemPass {
		return nil
	}
	var out []string
	for i := range e.items {
		if strings.EqualFold(e.items[i].Type, itemType) {
			out = append(out, e.items[i].Include)
		}
	}
	return out
}

// exists implements conditionEnv. Relative paths are resolved against the
// project directory.
func (e *evaluation) exists(p string) bool {
	ok, err := afero.Exists(e.fs, resolve(e.dir, p))
	return err == nil && ok
}

func (e *evaluation) errorf(el *element, format string, args ...any) error {
	return fmt.Errorf("%s:%d: %s", e.cur.file, el.line, fmt.Sprintf(format, args...))
}

func (e *evaluation) condition(el *element) (bool, error) {
	ok, err := evalCondition(el.attr("Condition"), e)
	if err != nil {
		return false, fmt.Errorf("%s:%d: %w", e.cur.file, el.line, err)
	}
	return ok, nil
}

func (e *evaluation) evaluateFile(file string, root *element) error {
	prev := e.cur
	e.cur = frame{file: file, dir: filepath.Dir(file)}
	defer func() { e.cur = prev }()
	e.imported[file] = true

	sdks := projectSdks(root)
	for _, sdk := range sdks {
		if err := e.importSdk(sdk, "Sdk.props"); err != nil {
			return err
		}
	}
	if err := e.evaluateChildren(root.children); err != nil {
		return err
	}
	for _, sdk := range sdks {
		if err := e.importSdk(sdk, "Sdk.targets"); err != nil {
			return err
		}
	}
	return nil
}

func (e *evaluation) evaluateChildren(children []*element) error {
	for _, el := range children {
		var err error
		switch el.name {
		case "PropertyGroup":
			err = e.evaluatePropertyGroup(el)
		case "ItemGroup":
			e.deferred = append(e.deferred, deferredGroup{frame: e.cur, el: el})
		case "Import":
			err = e.evaluateImport(el)
		case "ImportGroup":
			err = e.evaluateImportGroup(el)
		case "Choose":
			err = e.evaluateChoose(el)
		case "Target":
			err = e.addTarget(el)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func (e *evaluation) evaluatePropertyGroup(group *element) error {
	ok, err := e.condition(group)
	if err != nil || !ok {
		return err
	}
	for _, el := range group.children {
		if err := e.setProperty(el); err != nil {
			return err
		}
	}
	return nil
}

func (e *evaluation) setProperty(el *element) error {
	ok, err := e.condition(el)
	if err != nil || !ok {
		return err
	}
	key := strings.ToLower(el.name)
	if reservedNames[key] {
		return e.errorf(el, "property %q is reserved and cannot be modified", el.name)
	}
	value := expand(innerText(el), e)

	p, exists := e.props[key]
	if exists && p.global {
		return nil
	}
	e.define(&propEntry{
		name:  el.name,
		value: value,
		loc:   &model.Location{File: e.cur.file, Line: el.line},
	})
	return nil
}

func (e *evaluation) evaluateImportGroup(group *element) error {
	ok, err := e.condition(group)
	if err != nil || !ok {
		return err
	}
	for _, el := range group.children {
		if el.name != "Import" {
			continue
		}
		if err := e.evaluateImport(el); err != nil {
			return err
		}
	}
	return nil
}

func (e *evaluation) evaluateImport(el *element) error {
	ok, err := e.condition(el)
	if err != nil || !ok {
		return err
	}
	project := strings.TrimSpace(expand(el.attr("Project"), e))
	if project == "" {
		return e.errorf(el, "Import has no Project attribute")
	}
	if sdk := strings.TrimSpace(el.attr("Sdk")); sdk != "" {
		return e.importSdk(sdk, project)
	}

	for _, spec := range splitList(project) {
		if hasWildcard(spec) {
			matches, err := glob(e.fs, e.cur.dir, spec)
			if err != nil {
				return e.errorf(el, "expanding import %q: %v", spec, err)
			}
			for _, m := range matches {
				if err := e.importFile(resolve(e.cur.dir, m), el); err != nil {
					return err
				}
			}
			continue
		}
		path := resolve(e.cur.dir, spec)
		if ok, _ := afero.Exists(e.fs, path); !ok {
			return e.errorf(el, "imported project %q was not found", path)
		}
		if err := e.importFile(path, el); err != nil {
			return err
		}
	}
	return nil
}

func (e *evaluation) importFile(path string, from *element) error {
	if e.imported[path] {
		e.loader.log.Warn("skipping duplicate import",
			"path", path, "importer", fmt.Sprintf("%s:%d", e.cur.file, from.line))
		return nil
	}
	root, err := e.loader.parse(path)
	if err != nil {
		return err
	}
	return e.evaluateFile(path, root)
}

func (e *evaluation) importSdk(sdk, file string) error {
	name := strings.TrimSpace(strings.SplitN(sdk, "/", 2)[0])
	if name == "" {
		return nil
	}
	sdksPath := e.loader.opts.SDKsPath
	if sdksPath == "" {
		sdksPath = e.property("MSBuildSDKsPath")
	}
	if sdksPath == "" {
		e.loader.log.Debug("skipping SDK import, no SDK path configured", "sdk", name, "file", file)
		return nil
	}
	path := filepath.Join(sdksPath, name, "Sdk", filepath.FromSlash(normalizePath(file)))
	if ok, _ := afero.Exists(e.fs, path); !ok {
		return fmt.Errorf("%s: SDK %q: %s was not found", e.cur.file, name, path)
	}
	if e.imported[path] {
		return nil
	}
	root, err := e.loader.parse(path)
	if err != nil {
		return err
	}
	return e.evaluateFile(path, root)
}

func (e *evaluation) evaluateChoose(choose *element) error {
	for _, el := range choose.children {
		switch el.name {
		case "When":
			if !el.hasAttr("Condition") {
				return e.errorf(el, "When has no Condition attribute")
			}
			ok, err := e.condition(el)
			if err != nil {
				return err
			}
			if ok {
				return e.evaluateChildren(el.children)
			}
		case "Otherwise":
			return e.evaluateChildren(el.children)
		}
	}
	return nil
}

func (e *evaluation) addTarget(el *element) error {
	name := strings.TrimSpace(el.attr("Name"))
	if name == "" {
		return e.errorf(el, "Target has no Name attribute")
	}
	t := &model.Target{
		Name:     name,
		Location: &model.Location{File: e.cur.file, Line: el.line},
	}
	for _, child := range el.children {
		switch child.name {
		case "ItemGroup":
			t.Body = append(t.Body, model.ItemGroupBlock{Entries: e.entries(child)})
		case "PropertyGroup":
			t.Body = append(t.Body, model.PropertyGroupBlock{Entries: e.entries(child)})
		}
	}

	key := strings.ToLower(name)
	if i, ok := e.targetIx[key]; ok {
		e.targets[i] = t
		return nil
	}
	e.targetIx[key] = len(e.targets)
	e.targets = append(e.targets, t)
	return nil
}

func (e *evaluation) entries(group *element) []model.Entry {
	out := make([]model.Entry, 0, len(group.children))
	for _, c := range group.children {
		out = append(out, model.Entry{
			Name:     c.name,
			Location: model.Location{File: e.cur.file, Line: c.line},
		})
	}
	return out
}

func (e *evaluation) evaluateItemGroup(group *element) error {
	ok, err := e.condition(group)
	if err != nil || !ok {
		return err
	}
	for _, el := range group.children {
		if err := e.evaluateItem(el); err != nil {
			return err
		}
	}
	return nil
}

func (e *evaluation) evaluateItem(el *element) error {
	ok, err := e.condition(el)
	if err != nil || !ok {
		return err
	}

	switch {
	case el.hasAttr("Include"):
		loc := &model.Location{File: e.cur.file, Line: el.line}
		excludes := splitList(expand(el.attr("Exclude"), e))
		for _, spec := range splitList(expand(el.attr("Include"), e)) {
			specs := []string{spec}
			if hasWildcard(spec) {
				specs, err = glob(e.fs, e.dir, spec)
				if err != nil {
					return e.errorf(el, "expanding %q: %v", spec, err)
				}
			}
			for _, s := range specs {
				if e.excluded(s, excludes) {
					continue
				}
				e.items = append(e.items, model.Item{Type: el.name, Include: s, Location: loc})
			}
		}

	case el.hasAttr("Remove"):
		patterns := splitList(expand(el.attr("Remove"), e))
		kept := e.items[:0]
		for _, it := range e.items {
			if strings.EqualFold(it.Type, el.name) && e.excluded(it.Include, patterns) {
				continue
			}
			kept = append(kept, it)
		}
		e.items = kept

	case el.hasAttr("Update"):
		// Update only changes metadata of existing items.

	default:
		return e.errorf(el, "item %q has no Include, Remove or Update attribute", el.name)
	}
	return nil
}

func (e *evaluation) excluded(spec string, patterns []string) bool {
	target := filepath.ToSlash(resolve(e.dir, spec))
	for _, p := range patterns {
		if matchSpec(filepath.ToSlash(resolve(e.dir, p)), target) {
			return true
		}
	}
	return false
}

// projectSdks returns the SDK references declared on the Project element
// or as Sdk child elements.
func projectSdks(root *element) []string {
	sdks := splitList(root.attr("Sdk"))
	for _, c := range root.children {
		if c.name == "Sdk" {
			if name := strings.TrimSpace(c.attr("Name")); name != "" {
				sdks = append(sdks, name)
			}
		}
	}
	return sdks
}

func noRoot(dir string) string {
	dir = strings.TrimPrefix(dir, filepath.VolumeName(dir))
	return strings.TrimLeft(dir, `/\`)
}
