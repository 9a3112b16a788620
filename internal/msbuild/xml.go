package msbuild

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
)

// element is a parsed XML element with the line its start tag begins on.
type element struct {
	name     string
	attrs    map[string]string
	text     string
	line     int
	children []*element
}

func (e *element) attr(name string) string {
	return e.attrs[name]
}

func (e *element) hasAttr(name string) bool {
	_, ok := e.attrs[name]
	return ok
}

// lineIndex maps byte offsets to 1-based line numbers.
type lineIndex []int

func newLineIndex(src []byte) lineIndex {
	idx := lineIndex{0}
	for i, b := range src {
		if b == '\n' {
			idx = append(idx, i+1)
		}
	}
	return idx
}

func (li lineIndex) line(offset int) int {
	return sort.Search(len(li), func(i int) bool { return li[i] > offset })
}

// parseXML builds an element tree from UTF-8 source.
func parseXML(src []byte) (*element, error) {
	dec := xml.NewDecoder(bytes.NewReader(src))
	// Source has already been transcoded to UTF-8.
	dec.CharsetReader = func(_ string, input io.Reader) (io.Reader, error) {
		return input, nil
	}
	lines := newLineIndex(src)

	var (
		stack []*element
		root  *element
	)

	for {
		offset := int(dec.InputOffset())
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			var syn *xml.SyntaxError
			if errors.As(err, &syn) {
				return nil, fmt.Errorf("line %d: %s", syn.Line, syn.Msg)
			}
			return nil, err
		}

		switch t := tok.(type) {
		case xml.StartElement:
			start := offset
			if i := bytes.IndexByte(src[offset:], '<'); i >= 0 {
				start += i
			}
			el := &element{
				name:  t.Name.Local,
				attrs: make(map[string]string, len(t.Attr)),
				line:  lines.line(start),
			}
			for _, a := range t.Attr {
				if a.Name.Space == "xmlns" || (a.Name.Space == "" && a.Name.Local == "xmlns") {
					continue
				}
				el.attrs[a.Name.Local] = a.Value
			}
			if len(stack) > 0 {
				parent := stack[len(stack)-1]
				parent.children = append(parent.children, el)
			} else if root == nil {
				root = el
			} else {
				return nil, fmt.Errorf("line %d: multiple root elements", el.line)
			}
			stack = append(stack, el)

		case xml.EndElement:
			if len(stack) > 0 {
				stack = stack[:len(stack)-1]
			}

		case xml.CharData:
			if len(stack) > 0 {
				stack[len(stack)-1].text += string(t)
			}
		}
	}

	if root == nil {
		return nil, errors.New("no root element")
	}
	if root.name != "Project" {
		return nil, fmt.Errorf("line %d: root element is %q, not \"Project\"", root.line, root.name)
	}
	return root, nil
}

// innerText returns the trimmed character data of e.
func innerText(e *element) string {
	return strings.TrimSpace(e.text)
}
