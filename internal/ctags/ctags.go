// Package ctags stores tag records and renders them as an extended-format
// ctags file.
package ctags

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/afero"

	"github.com/phobologic/ctags-msbuild/internal/model"
)

// Header carries the program identification lines of the tags file.
type Header struct {
	Author  string
	Contact string
	Name    string
	URL     string
	Version string
}

// DefaultHeader identifies the file the way Exuberant Ctags does, which is
// what editors expect to see.
func DefaultHeader() Header {
	return Header{
		Author:  "Darren Hiebert",
		Contact: "dhiebert@users.sourceforge.net",
		Name:    "Exuberant Ctags",
		URL:     "http://ctags.sourceforge.net",
		Version: "5.8",
	}
}

// FormatLine renders o as a tag line without a trailing newline.
func FormatLine(o model.Occurrence) string {
	var b strings.Builder
	b.WriteString(o.Name)
	b.WriteByte('\t')
	b.WriteString(o.File)
	b.WriteByte('\t')
	b.WriteString(strconv.Itoa(o.Line))
	b.WriteString(";\"\t")
	b.WriteString(o.Kind.Letter())
	return b.String()
}

func headerLines(order Order, h Header) []string {
	return []string{
		"!_TAG_FILE_FORMAT\t2\t/extended format; --format=1 will not append ;\" to lines / ",
		fmt.Sprintf("!_TAG_FILE_SORTED\t%d\t/0=unsorted, 1=sorted, 2=foldcase/", order.Flag()),
		fmt.Sprintf("!_TAG_PROGRAM_AUTHOR\t%s\t/%s/", h.Author, h.Contact),
		fmt.Sprintf("!_TAG_PROGRAM_NAME\t%s\t//", h.Name),
		fmt.Sprintf("!_TAG_PROGRAM_URL\t%s\t/official site/", h.URL),
		fmt.Sprintf("!_TAG_PROGRAM_VERSION\t%s\t//", h.Version),
	}
}

// Render writes the header followed by lines. lines must already be
// arranged according to order; they are written as given.
func Render(w io.Writer, lines []string, order Order, h Header) error {
	bw := bufio.NewWriter(w)
	for _, l := range headerLines(order, h) {
		if _, err := bw.WriteString(l + "\n"); err != nil {
			return err
		}
	}
	for _, l := range lines {
		if _, err := bw.WriteString(l + "\n"); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// FileMode is the permission of a newly created tags file.
const FileMode os.FileMode = 0o644

// WriteFile drains store and writes the tags file at path. The file is
// written to a temporary sibling and renamed into place, so a failed write
// never leaves a truncated tags file behind. An existing tags file keeps its
// permissions; a new one gets FileMode.
func WriteFile(fsys afero.Fs, path string, store *Store, order Order, h Header) (err error) {
	mode := FileMode
	if info, statErr := fsys.Stat(path); statErr == nil {
		mode = info.Mode().Perm()
	}

	tmp, err := afero.TempFile(fsys, filepath.Dir(path), "."+filepath.Base(path)+"-")
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	tmpName := tmp.Name()
	defer func() {
		if err != nil {
			_ = tmp.Close()
			_ = fsys.Remove(tmpName)
		}
	}()

	if err = Render(tmp, store.Drain(order), order, h); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	if err = fsys.Chmod(tmpName, mode); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	if err = fsys.Rename(tmpName, path); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}
