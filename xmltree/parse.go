package xmltree

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/beevik/etree"
)

// Parse reads an XML document and returns an object node keyed by the root
// tag. The root must be <INProfileResponse>.
func Parse(data []byte) (*Node, error) {
	return ParseRoot(data, RootElement)
}

// ParseReader is Parse over an io.Reader.
func ParseReader(r io.Reader) (*Node, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, &ParseError{Err: fmt.Errorf("failed to read document: %w", err)}
	}
	return Parse(data)
}

// ParseRoot is Parse with a caller-chosen root tag.
func ParseRoot(data []byte, root string) (*Node, error) {
	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(data); err != nil {
		return nil, &ParseError{Err: err}
	}

	el := doc.Root()
	if el == nil {
		return nil, &ParseError{Err: errors.New("document has no root element")}
	}

	if el.Tag != root {
		return nil, &FormatError{Expected: root, Found: el.Tag}
	}
	if len(el.ChildElements()) == 0 && leafText(el) == "" {
		return nil, &FormatError{Expected: root, Found: el.Tag, Empty: true}
	}

	tree := Object()
	tree.add(el.Tag, build(el))
	return tree, nil
}

func build(el *etree.Element) *Node {
	children := el.ChildElements()
	if len(children) == 0 {
		return Text(leafText(el))
	}

	n := Object()
	for _, child := range children {
		n.add(child.Tag, build(child))
	}
	return n
}

// leafText joins every character-data token, so comments or CDATA sections
// inside a leaf do not truncate its value.
func leafText(el *etree.Element) string {
	var sb strings.Builder
	for _, tok := range el.Child {
		if cd, ok := tok.(*etree.CharData); ok {
			sb.WriteString(cd.Data)
		}
	}
	return strings.TrimSpace(sb.String())
}
