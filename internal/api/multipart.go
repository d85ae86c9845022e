package api

import (
	"bytes"
	"fmt"
	"io"
	"mime/multipart"
)

// Multipart is a form payload sent as multipart/form-data. The boundary
// and content type are chosen by the encoder, never by the caller.
type Multipart struct {
	fields []formField
	files  []formFile
}

type formField struct {
	name  string
	value string
}

type formFile struct {
	field    string
	filename string
	content  []byte
}

// NewMultipart returns an empty form.
func NewMultipart() *Multipart {
	return &Multipart{}
}

// Field appends a text field.
func (m *Multipart) Field(name, value string) *Multipart {
	m.fields = append(m.fields, formField{name: name, value: value})
	return m
}

// File reads r fully and attaches it as a file part. The content is
// buffered so the request can be replayed after a token refresh.
func (m *Multipart) File(field, filename string, r io.Reader) error {
	content, err := io.ReadAll(r)
	if err != nil {
		return fmt.Errorf("api: read %s: %w", filename, err)
	}
	m.files = append(m.files, formFile{field: field, filename: filename, content: content})
	return nil
}

// Len reports the number of parts.
func (m *Multipart) Len() int {
	return len(m.fields) + len(m.files)
}

func (m *Multipart) encode() ([]byte, string, error) {
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	for _, f := range m.fields {
		if err := writer.WriteField(f.name, f.value); err != nil {
			return nil, "", err
		}
	}
	for _, f := range m.files {
		part, err := writer.CreateFormFile(f.field, f.filename)
		if err != nil {
			return nil, "", err
		}
		if _, err := part.Write(f.content); err != nil {
			return nil, "", err
		}
	}
	if err := writer.Close(); err != nil {
		return nil, "", err
	}
	return body.Bytes(), writer.FormDataContentType(), nil
}
