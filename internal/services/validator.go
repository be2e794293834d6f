package services

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
)

const (
	FileTypeCSV  = "CSV"
	FileTypeXLSX = "XLSX"

	ContentTypeCSV  = "text/csv"
	ContentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

// ValidationResult contains the results of file validation
type ValidationResult struct {
	Valid        bool     `json:"valid"`
	DetectedType string   `json:"detected_type,omitempty"`
	ContentType  string   `json:"content_type"`
	Size         int64    `json:"size"`
	Errors       []string `json:"errors"`

	// Data is the file content read during validation, kept so it can be parsed
	// without reading the source twice.
	Data []byte `json:"-"`
}

// FileValidator checks that an uploaded statement is a CSV or XLSX file of an
// acceptable size whose content matches its name.
type FileValidator struct {
	maxSizeBytes int64
}

var zipSignature = []byte{0x50, 0x4B, 0x03, 0x04}

var contentTypesByExt = map[string]string{
	".csv":  ContentTypeCSV,
	".xlsx": ContentTypeXLSX,
}

var allowedContentTypes = map[string]string{
	ContentTypeCSV:             FileTypeCSV,
	"application/csv":          FileTypeCSV,
	"text/plain":               FileTypeCSV,
	ContentTypeXLSX:            FileTypeXLSX,
	"application/octet-stream": "",
}

// NewFileValidator creates a new file validator with the specified maximum file size
func NewFileValidator(maxSizeBytes int64) *FileValidator {
	return &FileValidator{maxSizeBytes: maxSizeBytes}
}

// MaxSizeBytes returns the configured upload limit
func (v *FileValidator) MaxSizeBytes() int64 {
	return v.maxSizeBytes
}

// ContentTypeFor returns the content type implied by a filename's extension, or
// "" when the extension is not supported.
func ContentTypeFor(filename string) string {
	return contentTypesByExt[strings.ToLower(filepath.Ext(filename))]
}

// ValidateFile reads the file and validates its name, declared content type, size
// and signature. An empty contentType is inferred from the filename. Problems are
// collected in the result; the error is only set when the reader fails.
func (v *FileValidator) ValidateFile(reader io.Reader, filename, contentType string) (*ValidationResult, error) {
	if contentType == "" {
		contentType = ContentTypeFor(filename)
	}
	result := &ValidationResult{
		Valid:       true,
		ContentType: contentType,
		Errors:      []string{},
	}
	fail := func(err error) {
		result.Valid = false
		result.Errors = append(result.Errors, err.Error())
	}

	if err := v.ValidateFilename(filename); err != nil {
		fail(err)
	}
	if err := v.ValidateMimeType(contentType); err != nil {
		fail(err)
	}

	// Read one byte past the limit so oversized files are detected without
	// buffering all of them
	data, err := io.ReadAll(io.LimitReader(reader, v.maxSizeBytes+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	result.Size = int64(len(data))
	result.Data = data

	if err := v.ValidateFileSize(result.Size); err != nil {
		fail(err)
	}

	detected, err := v.ValidateMagicBytes(data)
	if err != nil {
		fail(err)
		return result, nil
	}
	result.DetectedType = detected

	if byExt := allowedContentTypes[ContentTypeFor(filename)]; byExt != "" && byExt != detected {
		fail(fmt.Errorf("file extension does not match %s content", detected))
	}
	if expected, ok := allowedContentTypes[contentType]; ok && expected != "" && expected != detected {
		fail(errors.New("MIME type does not match file content"))
	}

	return result, nil
}

// ValidateFilename validates the filename for security issues
func (v *FileValidator) ValidateFilename(filename string) error {
	if filename == "" {
		return errors.New("filename cannot be empty")
	}
	if strings.Contains(filename, "..") {
		return errors.New("filename contains path traversal")
	}
	if strings.Contains(filename, "\x00") {
		return errors.New("filename contains null bytes")
	}
	if strings.HasPrefix(filename, "/") || strings.HasPrefix(filename, "\\") {
		return errors.New("filename cannot be absolute path")
	}

	ext := strings.ToLower(filepath.Ext(filename))
	if ext == "" {
		return errors.New("filename must have an extension")
	}
	if _, ok := contentTypesByExt[ext]; !ok {
		return fmt.Errorf("unsupported file extension: %s", ext)
	}
	return nil
}

// ValidateMimeType validates the MIME type is allowed
func (v *FileValidator) ValidateMimeType(contentType string) error {
	if contentType == "" {
		return errors.New("MIME type cannot be empty")
	}
	if _, ok := allowedContentTypes[contentType]; !ok {
		return fmt.Errorf("unsupported MIME type: %s", contentType)
	}
	return nil
}

// ValidateMagicBytes detects the file type from its leading bytes
func (v *FileValidator) ValidateMagicBytes(data []byte) (string, error) {
	if len(data) == 0 {
		return "", errors.New("empty file")
	}
	if bytes.HasPrefix(data, zipSignature) {
		return FileTypeXLSX, nil
	}
	if isTextContent(data) {
		return FileTypeCSV, nil
	}
	return "", errors.New("unsupported file type based on content")
}

// ValidateFileSize validates the file size is within limits
func (v *FileValidator) ValidateFileSize(size int64) error {
	switch {
	case size < 0:
		return errors.New("invalid file size")
	case size == 0:
		return errors.New("empty file")
	case size > v.maxSizeBytes:
		return fmt.Errorf("file exceeds maximum allowed size (%d bytes)", v.maxSizeBytes)
	}
	return nil
}

// isTextContent reports whether the first 512 bytes look like text. UTF-8 bytes
// above 0x7F are accepted so statements with currency symbols pass.
func isTextContent(data []byte) bool {
	sample := data[:min(len(data), 512)]
	if bytes.IndexByte(sample, 0x00) >= 0 {
		return false
	}

	printable := 0
	for _, b := range sample {
		if (b >= 0x20 && b != 0x7F) || b == '\t' || b == '\n' || b == '\r' {
			printable++
		}
	}
	return float64(printable)/float64(len(sample)) > 0.95
}
