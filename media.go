package disco

import (
	"bytes"
	"fmt"
	"io"
	"mime/multipart"
	"net/textproto"
	"strings"
)

// Media is a media upload passed as the ParamMedia parameter.
type Media struct {
	// MimeType is the content type of Body. Defaults to application/octet-stream.
	MimeType string
	Body     io.Reader
}

func asMedia(v any) (*Media, error) {
	switch m := v.(type) {
	case *Media:
		if m == nil {
			return nil, nil
		}
		return m, nil
	case Media:
		return &m, nil
	case []byte:
		return &Media{Body: bytes.NewReader(m)}, nil
	case string:
		return &Media{Body: strings.NewReader(m)}, nil
	case io.Reader:
		return &Media{Body: m}, nil
	}
	return nil, &ParameterError{Name: ParamMedia, Reason: ReasonInvalid, Message: fmt.Sprintf("unsupported media value %T", v)}
}

func (m *Media) contentType() string {
	if m.MimeType == "" {
		return "application/octet-stream"
	}
	return m.MimeType
}

func (m *Media) read() ([]byte, error) {
	if m.Body == nil {
		return nil, nil
	}
	data, err := io.ReadAll(m.Body)
	if err != nil {
		return nil, &ParameterError{Name: ParamMedia, Reason: ReasonInvalid, Message: "reading media", Cause: err}
	}
	return data, nil
}

// multipartRelated encodes a JSON metadata part followed by the media part as
// a multipart/related body. It returns the body and its content type.
func multipartRelated(metadata []byte, media *Media, data []byte) ([]byte, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	parts := []struct {
		contentType string
		body        []byte
	}{
		{"application/json; charset=UTF-8", metadata},
		{media.contentType(), data},
	}
	for _, p := range parts {
		pw, err := w.CreatePart(textproto.MIMEHeader{"Content-Type": {p.contentType}})
		if err != nil {
			return nil, "", err
		}
		if _, err := pw.Write(p.body); err != nil {
			return nil, "", err
		}
	}
	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return buf.Bytes(), "multipart/related; boundary=" + w.Boundary(), nil
}
