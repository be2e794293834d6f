package services

import (
	"bytes"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const tenMB = 10 * 1024 * 1024

func TestValidateFilename(t *testing.T) {
	validator := NewFileValidator(tenMB)

	valid := []string{"transactions.csv", "report.xlsx", "REPORT.XLSX", "my file.csv", "bank_statement-2024.csv"}
	for _, name := range valid {
		assert.NoError(t, validator.ValidateFilename(name), name)
	}

	invalid := []struct {
		filename string
		wantErr  string
	}{
		{"", "cannot be empty"},
		{"../../../etc/passwd.csv", "path traversal"},
		{"file\x00.csv", "null bytes"},
		{"/etc/ledger.csv", "absolute path"},
		{"\\windows\\ledger.csv", "absolute path"},
		{"statement", "must have an extension"},
		{"invoice.pdf", "unsupported file extension"},
		{"legacy.xls", "unsupported file extension"},
		{"malware.exe", "unsupported file extension"},
	}
	for _, tc := range invalid {
		t.Run(tc.wantErr+"/"+tc.filename, func(t *testing.T) {
			err := validator.ValidateFilename(tc.filename)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.wantErr)
		})
	}
}

func TestValidateMimeType(t *testing.T) {
	validator := NewFileValidator(tenMB)

	for _, ct := range []string{ContentTypeCSV, ContentTypeXLSX, "text/plain", "application/octet-stream"} {
		assert.NoError(t, validator.ValidateMimeType(ct), ct)
	}

	err := validator.ValidateMimeType("application/pdf")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported MIME type")

	err = validator.ValidateMimeType("")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cannot be empty")
}

func TestValidateMagicBytes(t *testing.T) {
	validator := NewFileValidator(tenMB)

	detected, err := validator.ValidateMagicBytes([]byte("Date,Description,Amount\n01/01/2024,Test,₹100.00\n"))
	require.NoError(t, err)
	assert.Equal(t, FileTypeCSV, detected)

	detected, err = validator.ValidateMagicBytes([]byte{0x50, 0x4B, 0x03, 0x04, 0x14, 0x00})
	require.NoError(t, err)
	assert.Equal(t, FileTypeXLSX, detected)

	_, err = validator.ValidateMagicBytes([]byte{0x00, 0x01, 0x02, 0x03})
	assert.Error(t, err)

	_, err = validator.ValidateMagicBytes(nil)
	assert.Error(t, err)
}

func TestValidateFileSize(t *testing.T) {
	validator := NewFileValidator(1024)

	assert.NoError(t, validator.ValidateFileSize(1))
	assert.NoError(t, validator.ValidateFileSize(1024))
	assert.ErrorContains(t, validator.ValidateFileSize(1025), "exceeds maximum")
	assert.ErrorContains(t, validator.ValidateFileSize(0), "empty file")
	assert.ErrorContains(t, validator.ValidateFileSize(-1), "invalid file size")
}

func TestValidateFile_ValidCSV(t *testing.T) {
	validator := NewFileValidator(tenMB)

	csvContent := "Date,Narration,Withdrawal Amt.,Deposit Amt.,Closing Balance\n01/01/2024,AWS SERVICES,500.00,,10000.00\n"
	result, err := validator.ValidateFile(strings.NewReader(csvContent), "hdfc_statement.csv", ContentTypeCSV)

	require.NoError(t, err)
	assert.True(t, result.Valid)
	assert.Equal(t, FileTypeCSV, result.DetectedType)
	assert.Equal(t, int64(len(csvContent)), result.Size)
	assert.Equal(t, csvContent, string(result.Data))
	assert.Empty(t, result.Errors)
}

func TestValidateFile_ValidXLSX(t *testing.T) {
	validator := NewFileValidator(tenMB)

	xlsxContent := []byte{0x50, 0x4B, 0x03, 0x04, 0x00, 0x00, 0x00, 0x00}
	result, err := validator.ValidateFile(bytes.NewReader(xlsxContent), "report.xlsx", ContentTypeXLSX)

	require.NoError(t, err)
	assert.True(t, result.Valid)
	assert.Equal(t, FileTypeXLSX, result.DetectedType)
}

func TestValidateFile_InfersContentType(t *testing.T) {
	validator := NewFileValidator(tenMB)

	result, err := validator.ValidateFile(strings.NewReader("Date,Amount\n"), "ledger.csv", "")
	require.NoError(t, err)
	assert.True(t, result.Valid)
	assert.Equal(t, ContentTypeCSV, result.ContentType)
}

func TestValidateFile_Invalid(t *testing.T) {
	zip := []byte{0x50, 0x4B, 0x03, 0x04, 0x00, 0x00}

	tests := []struct {
		name        string
		maxSize     int64
		content     []byte
		filename    string
		contentType string
		wantErr     string
	}{
		{"path traversal", tenMB, []byte("Date,Amount\n"), "../../../etc/passwd.csv", ContentTypeCSV, "path traversal"},
		{"mime type", tenMB, []byte("Date,Amount\n"), "test.csv", "image/jpeg", "unsupported MIME type"},
		{"empty", tenMB, nil, "empty.csv", ContentTypeCSV, "empty file"},
		{"too large", 10, []byte(strings.Repeat("a", 100)), "large.csv", ContentTypeCSV, "exceeds maximum"},
		{"zip named csv", tenMB, zip, "fake.csv", ContentTypeCSV, "file extension does not match"},
		{"binary", tenMB, []byte{0x00, 0x01, 0x02}, "ledger.csv", ContentTypeCSV, "unsupported file type"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := NewFileValidator(tt.maxSize).ValidateFile(bytes.NewReader(tt.content), tt.filename, tt.contentType)
			require.NoError(t, err)
			assert.False(t, result.Valid)
			require.NotEmpty(t, result.Errors)
			assert.Contains(t, result.Errors[0], tt.wantErr)
		})
	}
}

func TestValidateFile_MismatchedMimeAndContent(t *testing.T) {
	result, err := NewFileValidator(tenMB).ValidateFile(
		bytes.NewReader([]byte{0x50, 0x4B, 0x03, 0x04}), "fake.csv", ContentTypeCSV)

	require.NoError(t, err)
	assert.False(t, result.Valid)
	assert.Contains(t, result.Errors[len(result.Errors)-1], "MIME type does not match")
}

func TestValidateFile_MultipleErrors(t *testing.T) {
	result, err := NewFileValidator(tenMB).ValidateFile(
		strings.NewReader("Date,Amount\n"), "../malicious.exe", "application/x-msdownload")

	require.NoError(t, err)
	assert.False(t, result.Valid)
	assert.GreaterOrEqual(t, len(result.Errors), 2)
}

func TestValidateFile_ReadError(t *testing.T) {
	_, err := NewFileValidator(tenMB).ValidateFile(&errorReader{err: io.ErrUnexpectedEOF}, "test.csv", ContentTypeCSV)

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read file")
}

func TestContentTypeFor(t *testing.T) {
	assert.Equal(t, ContentTypeCSV, ContentTypeFor("a.CSV"))
	assert.Equal(t, ContentTypeXLSX, ContentTypeFor("dir/b.xlsx"))
	assert.Equal(t, "", ContentTypeFor("c.pdf"))
}

// errorReader is a reader that always fails
type errorReader struct {
	err error
}

func (r *errorReader) Read(p []byte) (n int, err error) {
	return 0, r.err
}
