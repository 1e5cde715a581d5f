// Package archive implements the archive codec (§4.A): it opens the ZIP
// container a document template is packaged as, locates the main document
// part, and re-packs a rewritten main part alongside every other part
// copied through unchanged.
//
// No library in the retrieved corpus implements ZIP container handling, so
// this component is built on the standard library's archive/zip and
// bytes packages — the same choice the one DOCX-templating reference
// available (a real production Go templating engine) makes for the same
// problem.
package archive

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
)

// Well-known parts every valid container must carry (§4.A).
const (
	PartContentTypes  = "[Content_Types].xml"
	PartRelationships = "_rels/.rels"
	PartMainDocument  = "word/document.xml"
)

const (
	minSize = 1000
	maxSize = 100 * 1024 * 1024
)

// ErrorKind distinguishes the archive codec's failure modes.
type ErrorKind int

const (
	ErrInvalidContainer ErrorKind = iota
	ErrMissingPart
	ErrTooSmall
	ErrTooLarge
)

func (k ErrorKind) String() string {
	switch k {
	case ErrInvalidContainer:
		return "InvalidContainer"
	case ErrMissingPart:
		return "MissingPart"
	case ErrTooSmall:
		return "TooSmall"
	case ErrTooLarge:
		return "TooLarge"
	default:
		return "Unknown"
	}
}

// Error is returned by Open/Pack on container-level failures.
type Error struct {
	Kind    ErrorKind
	Message string
}

func (e *Error) Error() string { return fmt.Sprintf("%s: %s", e.Kind, e.Message) }

// Archive is an ordered mapping from part path to byte contents. The main
// document part is read and written through its well-known path in the
// same mapping.
type Archive struct {
	order []string
	parts map[string][]byte
}

// Open validates and unpacks raw container bytes into an Archive.
func Open(data []byte) (*Archive, error) {
	if len(data) < minSize {
		return nil, &Error{Kind: ErrTooSmall, Message: fmt.Sprintf("container is %d bytes, minimum is %d", len(data), minSize)}
	}
	if len(data) > maxSize {
		return nil, &Error{Kind: ErrTooLarge, Message: fmt.Sprintf("container is %d bytes, maximum is %d", len(data), maxSize)}
	}

	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, &Error{Kind: ErrInvalidContainer, Message: err.Error()}
	}

	a := &Archive{parts: make(map[string][]byte, len(zr.File))}
	for _, f := range zr.File {
		rc, err := f.Open()
		if err != nil {
			return nil, &Error{Kind: ErrInvalidContainer, Message: fmt.Sprintf("reading part %q: %v", f.Name, err)}
		}
		buf, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			return nil, &Error{Kind: ErrInvalidContainer, Message: fmt.Sprintf("reading part %q: %v", f.Name, err)}
		}
		a.order = append(a.order, f.Name)
		a.parts[f.Name] = buf
	}

	for _, required := range []string{PartContentTypes, PartRelationships, PartMainDocument} {
		if _, ok := a.parts[required]; !ok {
			return nil, &Error{Kind: ErrMissingPart, Message: "container is missing required part " + required}
		}
	}

	return a, nil
}

// ReadMain returns the main document part as text.
func (a *Archive) ReadMain() string {
	return string(a.parts[PartMainDocument])
}

// WriteMain replaces the main document part's contents.
func (a *Archive) WriteMain(xml string) {
	a.parts[PartMainDocument] = []byte(xml)
}

// Part returns a non-main part's raw bytes, for callers that want to
// inspect pass-through parts (e.g. the relationships part).
func (a *Archive) Part(name string) ([]byte, bool) {
	b, ok := a.parts[name]
	return b, ok
}

// Pack re-serializes the archive, preserving original part order, into a
// fresh ZIP container.
func (a *Archive) Pack() ([]byte, error) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, name := range a.order {
		w, err := zw.Create(name)
		if err != nil {
			return nil, &Error{Kind: ErrInvalidContainer, Message: err.Error()}
		}
		if _, err := w.Write(a.parts[name]); err != nil {
			return nil, &Error{Kind: ErrInvalidContainer, Message: err.Error()}
		}
	}
	if err := zw.Close(); err != nil {
		return nil, &Error{Kind: ErrInvalidContainer, Message: err.Error()}
	}
	return buf.Bytes(), nil
}
