package curling

import (
	"bytes"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
)

// payloadKind tags the outgoing body representation. A plain text body
// and multipart parts are mutually exclusive.
type payloadKind int

const (
	payloadEmpty payloadKind = iota
	payloadPlain
	payloadMultipart
)

// mimePart is one named part of a multipart body: either an inline value
// or a reference to a file on disk.
type mimePart struct {
	name     string
	value    string
	filePath string
	isFile   bool
}

type payload struct {
	kind  payloadKind
	text  string
	parts []mimePart
}

func (p *payload) setPlain(text string) {
	p.kind = payloadPlain
	p.text = text
	p.parts = nil
}

func (p *payload) addPart(part mimePart) {
	p.kind = payloadMultipart
	p.text = ""
	p.parts = append(p.parts, part)
}

func (p *payload) clear() {
	*p = payload{}
}

// encodeMultipart renders the accumulated parts as a multipart/form-data
// body. Files are read in full here so that each retry attempt can replay
// the body from a fresh reader instead of relying on stream rewinding.
func (p *payload) encodeMultipart() (body []byte, contentType string, err error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	for _, part := range p.parts {
		if part.isFile {
			if err := writeFilePart(w, part); err != nil {
				return nil, "", err
			}
			continue
		}
		fw, err := w.CreateFormField(part.name)
		if err != nil {
			return nil, "", NewMimeError("failed to add form field "+part.name, err)
		}
		if _, err := fw.Write([]byte(part.value)); err != nil {
			return nil, "", NewMimeError("failed to write form field "+part.name, err)
		}
	}

	if err := w.Close(); err != nil {
		return nil, "", NewMimeError("failed to finalize multipart body", err)
	}
	return buf.Bytes(), w.FormDataContentType(), nil
}

func writeFilePart(w *multipart.Writer, part mimePart) error {
	f, err := os.Open(part.filePath)
	if err != nil {
		return NewMimeError("failed to open form file "+part.filePath, err)
	}
	defer f.Close()

	fw, err := w.CreateFormFile(part.name, filepath.Base(part.filePath))
	if err != nil {
		return NewMimeError("failed to add form file "+part.name, err)
	}
	if _, err := io.Copy(fw, f); err != nil {
		return NewMimeError("failed to read form file "+part.filePath, err)
	}
	return nil
}
