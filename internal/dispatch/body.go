package dispatch

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/textproto"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/mark3labs/openapi-actions/internal/fault"
)

// mediaJSON, mediaForm, and mediaMultipart are the request body encodings the
// dispatcher knows how to build. Anything else is sent without a body.
const (
	mediaJSON      = "application/json"
	mediaForm      = "application/x-www-form-urlencoded"
	mediaMultipart = "multipart/form-data"
)

// encodedBody is an outbound payload plus the content type it mandates.
// An empty ContentType keeps whatever the headers already carry.
type encodedBody struct {
	Reader      io.Reader
	ContentType string
}

// encodeBody builds the outbound request body for the action's declared media
// type. Multipart bodies with an "attachment" entry stream one file part per
// path; without an attachment the request degrades to form encoding.
// All opened files are closed before returning, on success and on failure.
func encodeBody(mediaType string, body any) (encodedBody, error) {
	switch strings.ToLower(mediaType) {
	case mediaJSON:
		if isEmptyBody(body) {
			return encodedBody{}, nil
		}
		data, err := json.Marshal(body)
		if err != nil {
			return encodedBody{}, fault.Wrap(fault.Validation, err, "encode json body: %v", err)
		}
		return encodedBody{Reader: bytes.NewReader(data)}, nil

	case mediaForm:
		return encodeForm(body, "")

	case mediaMultipart:
		fields, err := bodyFields(body)
		if err != nil {
			return encodedBody{}, err
		}
		attachments, ok := fields["attachment"]
		if !ok || attachments == nil {
			// No file to send: fall back to ordinary form fields and override
			// the declared content type accordingly.
			return encodeForm(body, mediaForm)
		}
		return encodeMultipart(fields, attachments)

	default:
		return encodedBody{}, nil
	}
}

func encodeForm(body any, forceContentType string) (encodedBody, error) {
	if isEmptyBody(body) {
		return encodedBody{ContentType: forceContentType}, nil
	}
	fields, err := bodyFields(body)
	if err != nil {
		return encodedBody{}, err
	}
	values := url.Values{}
	for key, value := range fields {
		switch list := value.(type) {
		case []any:
			for _, item := range list {
				values.Add(key, stringify(item))
			}
		default:
			values.Set(key, stringify(value))
		}
	}
	return encodedBody{
		Reader:      strings.NewReader(values.Encode()),
		ContentType: forceContentType,
	}, nil
}

// encodeMultipart writes one file part per attachment path and one form field
// per remaining body entry. String field values have escaped newline sequences
// turned back into literal newlines.
func encodeMultipart(fields map[string]any, attachments any) (encodedBody, error) {
	paths, err := attachmentPaths(attachments)
	if err != nil {
		return encodedBody{}, err
	}

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	for _, p := range paths {
		if err := writeFilePart(writer, p); err != nil {
			writer.Close()
			return encodedBody{}, err
		}
	}
	for key, value := range fields {
		if key == "attachment" {
			continue
		}
		text := stringify(value)
		if s, ok := value.(string); ok {
			text = strings.ReplaceAll(s, `\n`, "\n")
		}
		if err := writer.WriteField(key, text); err != nil {
			writer.Close()
			return encodedBody{}, fault.Wrap(fault.Attachment, err, "write form field %q: %v", key, err)
		}
	}
	if err := writer.Close(); err != nil {
		return encodedBody{}, fault.Wrap(fault.Attachment, err, "finalize multipart body: %v", err)
	}

	return encodedBody{Reader: &buf, ContentType: writer.FormDataContentType()}, nil
}

func writeFilePart(writer *multipart.Writer, path string) error {
	resolved := path
	if !filepath.IsAbs(resolved) {
		if wd, err := os.Getwd(); err == nil {
			resolved = filepath.Join(wd, resolved)
		}
	}
	file, err := os.Open(resolved)
	if err != nil {
		return fault.Wrap(fault.Attachment, err, "failed to open attachment file: %s", resolved)
	}
	defer file.Close()

	name := filepath.Base(resolved)
	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition",
		fmt.Sprintf(`form-data; name="attachment"; filename=%q`, name))
	header.Set("Content-Type", guessMediaType(name))

	part, err := writer.CreatePart(header)
	if err != nil {
		return fault.Wrap(fault.Attachment, err, "create multipart part for %s: %v", name, err)
	}
	if _, err := io.Copy(part, file); err != nil {
		return fault.Wrap(fault.Attachment, err, "read attachment %s: %v", name, err)
	}
	return nil
}

// guessMediaType maps a filename to a media type by extension, falling back
// to application/octet-stream.
func guessMediaType(name string) string {
	if mt := mime.TypeByExtension(filepath.Ext(name)); mt != "" {
		return mt
	}
	return "application/octet-stream"
}

// attachmentPaths normalizes the attachment value into a list of file paths.
func attachmentPaths(v any) ([]string, error) {
	switch value := v.(type) {
	case string:
		return []string{value}, nil
	case []string:
		return value, nil
	case []any:
		out := make([]string, 0, len(value))
		for _, item := range value {
			s, ok := item.(string)
			if !ok {
				return nil, fault.New(fault.Validation, "attachment path must be a string, got %T", item)
			}
			out = append(out, s)
		}
		return out, nil
	default:
		return nil, fault.New(fault.Validation, "attachment must be a file path or list of file paths, got %T", v)
	}
}

func bodyFields(body any) (map[string]any, error) {
	if body == nil {
		return map[string]any{}, nil
	}
	fields, ok := body.(map[string]any)
	if !ok {
		return nil, fault.New(fault.Validation, "form body must be an object, got %T", body)
	}
	return fields, nil
}

func isEmptyBody(body any) bool {
	if body == nil {
		return true
	}
	if m, ok := body.(map[string]any); ok {
		return len(m) == 0
	}
	return false
}

func stringify(v any) string {
	switch value := v.(type) {
	case string:
		return value
	case nil:
		return ""
	default:
		return fmt.Sprintf("%v", value)
	}
}
