package vfx

import (
	"bytes"
	"encoding/xml"
	"io"
	"strings"

	"github.com/pkg/errors"
	"golang.org/x/text/encoding/charmap"
)

// node is an element of a parsed effect document. Character data is
// dropped; the dialect carries everything in attributes.
type node struct {
	name     string
	attrs    []xml.Attr
	children []*node
}

// attr returns the value of the attribute with the given local name.
func (n *node) attr(name string) (string, bool) {
	for _, a := range n.attrs {
		if a.Name.Local == name {
			return a.Value, true
		}
	}
	return "", false
}

// attrFold is attr with a case-insensitive name match.
func (n *node) attrFold(name string) (string, bool) {
	for _, a := range n.attrs {
		if strings.EqualFold(a.Name.Local, name) {
			return a.Value, true
		}
	}
	return "", false
}

// charsetReader decodes the legacy single-byte encodings declared by some
// exported effect files.
func charsetReader(label string, input io.Reader) (io.Reader, error) {
	switch strings.ToLower(label) {
	case "windows-1252", "cp1252":
		return charmap.Windows1252.NewDecoder().Reader(input), nil
	case "iso-8859-1", "latin1", "latin-1":
		return charmap.ISO8859_1.NewDecoder().Reader(input), nil
	}
	return nil, errors.Errorf("unsupported charset %q", label)
}

// parseDocument reads data into a tree and returns its root element.
func parseDocument(data []byte) (*node, error) {
	dec := xml.NewDecoder(bytes.NewReader(data))
	dec.CharsetReader = charsetReader

	var root *node
	var stack []*node
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			n := &node{name: t.Name.Local, attrs: t.Copy().Attr}
			if len(stack) == 0 {
				if root != nil {
					return nil, errors.Errorf("unexpected second root element <%s>", n.name)
				}
				root = n
			} else {
				parent := stack[len(stack)-1]
				parent.children = append(parent.children, n)
			}
			stack = append(stack, n)
		case xml.EndElement:
			stack = stack[:len(stack)-1]
		}
	}
	if root == nil {
		return nil, errors.New("document has no root element")
	}
	return root, nil
}

// isEntityError reports whether err is the decoder rejecting a malformed
// or unknown entity reference.
func isEntityError(err error) bool {
	var syn *xml.SyntaxError
	if !errors.As(err, &syn) {
		return false
	}
	return strings.HasPrefix(syn.Msg, "invalid character entity")
}

// stripEntities removes every '&' together with the run of characters up
// to and including the next whitespace or ';'.
func stripEntities(data []byte) []byte {
	out := make([]byte, 0, len(data))
	for i := 0; i < len(data); i++ {
		if data[i] != '&' {
			out = append(out, data[i])
			continue
		}
		for i+1 < len(data) {
			i++
			if c := data[i]; c == ';' || isSpace(c) {
				break
			}
		}
	}
	return out
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r'
}
