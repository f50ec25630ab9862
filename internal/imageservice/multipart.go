package imageservice

import (
	"bytes"
	"fmt"
	"io"
	"mime/multipart"
	"net/textproto"
	"strconv"
	"strings"
)

const (
	fieldOwnerID = "ownerId"
	fieldIsMain  = "isMain"
	fieldFiles   = "files"
)

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

// buildBatchBody encodes one multipart payload: ownerId and isMain as plain
// fields, then one "files" part per file. The payload is fully buffered so
// the transport can resend it and know the total size for progress.
func buildBatchBody(ownerID int64, isMain bool, files []UploadFile) ([]byte, string, error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	if err := writer.WriteField(fieldOwnerID, strconv.FormatInt(ownerID, 10)); err != nil {
		return nil, "", fmt.Errorf("failed to write %s field: %w", fieldOwnerID, err)
	}
	if err := writer.WriteField(fieldIsMain, strconv.FormatBool(isMain)); err != nil {
		return nil, "", fmt.Errorf("failed to write %s field: %w", fieldIsMain, err)
	}

	for i, file := range files {
		if err := writeFilePart(writer, file); err != nil {
			return nil, "", fmt.Errorf("failed to attach file %d (%s): %w", i, file.Name, err)
		}
	}

	if err := writer.Close(); err != nil {
		return nil, "", fmt.Errorf("failed to finalize multipart body: %w", err)
	}
	return buf.Bytes(), writer.FormDataContentType(), nil
}

func writeFilePart(writer *multipart.Writer, file UploadFile) error {
	if file.Open == nil {
		return fmt.Errorf("file has no content")
	}
	contentType := file.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"; filename="%s"`,
		fieldFiles, quoteEscaper.Replace(file.Name)))
	header.Set("Content-Type", contentType)

	part, err := writer.CreatePart(header)
	if err != nil {
		return err
	}

	src, err := file.Open()
	if err != nil {
		return err
	}
	defer func() {
		_ = src.Close()
	}()

	_, err = io.Copy(part, src)
	return err
}
