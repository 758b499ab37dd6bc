package mailer

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"mime"
	"mime/multipart"
	"mime/quotedprintable"
	"net/http"
	"net/textproto"
	"path/filepath"
	"strings"
	"time"

	"github.com/FarhadManiCodes/gmail-file-mailer/internal/request"
)

// Attachment is a file to send alongside the body.
type Attachment struct {
	Filename string
	Content  []byte
}

// ContentType guesses the MIME type from the bytes, then the extension.
func (a *Attachment) ContentType() string {
	if sniffed := http.DetectContentType(a.Content); strings.HasPrefix(sniffed, "image/") {
		return sniffed
	}
	if byExt := mime.TypeByExtension(strings.ToLower(filepath.Ext(a.Filename))); byExt != "" {
		return byExt
	}
	return "application/octet-stream"
}

// Compose renders req as a multipart/mixed message holding a
// multipart/alternative text part and, optionally, one attachment.
func Compose(req *request.SendRequest, att *Attachment, date time.Time) ([]byte, error) {
	var buf bytes.Buffer
	mixed := multipart.NewWriter(&buf)

	headers := []struct{ key, value string }{
		{"From", req.Sender},
		{"To", req.Recipient},
		{"Subject", mime.QEncoding.Encode("utf-8", req.Subject)},
		{"Date", date.Format(time.RFC1123Z)},
		{"MIME-Version", "1.0"},
		{"Content-Type", mime.FormatMediaType("multipart/mixed", map[string]string{"boundary": mixed.Boundary()})},
	}
	for _, h := range headers {
		fmt.Fprintf(&buf, "%s: %s\r\n", h.key, h.value)
	}
	buf.WriteString("\r\n")

	if err := writeBody(mixed, req.Body); err != nil {
		return nil, fmt.Errorf("compose body: %w", err)
	}
	if att != nil {
		if err := writeAttachment(mixed, att); err != nil {
			return nil, fmt.Errorf("compose attachment: %w", err)
		}
	}
	if err := mixed.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func writeBody(mixed *multipart.Writer, body string) error {
	var alt bytes.Buffer
	altWriter := multipart.NewWriter(&alt)

	part, err := mixed.CreatePart(textproto.MIMEHeader{
		"Content-Type": {mime.FormatMediaType("multipart/alternative", map[string]string{"boundary": altWriter.Boundary()})},
	})
	if err != nil {
		return err
	}

	text, err := altWriter.CreatePart(textproto.MIMEHeader{
		"Content-Type":              {`text/plain; charset="utf-8"`},
		"Content-Transfer-Encoding": {"quoted-printable"},
	})
	if err != nil {
		return err
	}
	qp := quotedprintable.NewWriter(text)
	if _, err := qp.Write([]byte(body)); err != nil {
		return err
	}
	if err := qp.Close(); err != nil {
		return err
	}
	if err := altWriter.Close(); err != nil {
		return err
	}

	_, err = part.Write(alt.Bytes())
	return err
}

func writeAttachment(mixed *multipart.Writer, att *Attachment) error {
	name := filepath.Base(att.Filename)
	mediaType, params, err := mime.ParseMediaType(att.ContentType())
	if err != nil {
		mediaType, params = "application/octet-stream", map[string]string{}
	}
	params["name"] = name

	part, err := mixed.CreatePart(textproto.MIMEHeader{
		"Content-Type":              {mime.FormatMediaType(mediaType, params)},
		"Content-Transfer-Encoding": {"base64"},
		"Content-Disposition":       {mime.FormatMediaType("attachment", map[string]string{"filename": name})},
	})
	if err != nil {
		return err
	}

	// RFC 2045 caps encoded lines at 76 characters.
	encoded := base64.StdEncoding.EncodeToString(att.Content)
	for len(encoded) > 76 {
		if _, err := fmt.Fprintf(part, "%s\r\n", encoded[:76]); err != nil {
			return err
		}
		encoded = encoded[76:]
	}
	_, err = fmt.Fprintf(part, "%s\r\n", encoded)
	return err
}
