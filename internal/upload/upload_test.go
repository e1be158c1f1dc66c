package upload

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pngBytes(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 3, 2))
	img.Set(1, 1, color.RGBA{R: 200, A: 255})
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func candidateOf(name, mime string, data []byte) Candidate {
	return Candidate{OriginalName: name, Data: data, MimeType: mime, Size: int64(len(data))}
}

func TestValidPNGIsAccepted(t *testing.T) {
	data := pngBytes(t)
	res := NewValidator().Validate(candidateOf("photo.png", "image/png", data))

	assert.True(t, res.Accepted, res.Errors)
	assert.Empty(t, res.Errors)
	assert.True(t, res.FileInfo.IsImage)
	assert.False(t, res.FileInfo.IsDocument)
	assert.Equal(t, ".png", res.FileInfo.Extension)
	assert.Equal(t, "image/png", res.FileInfo.MimeType)
	assert.Len(t, res.FileInfo.Hash, 64)
	require.NotNil(t, res.FileInfo.Width)
	assert.Equal(t, 3, *res.FileInfo.Width)
	assert.Equal(t, 2, *res.FileInfo.Height)
}

func TestExecutableHeaderIsAlwaysRejected(t *testing.T) {
	data := append([]byte{0x4D, 0x5A, 0x90, 0x00}, bytes.Repeat([]byte{0}, 60)...)
	cases := []struct{ name, mime string }{
		{"photo.png", "image/png"},
		{"notes.txt", "text/plain"},
		{"report.pdf", "application/pdf"},
	}
	for _, tc := range cases {
		res := NewValidator().Validate(candidateOf(tc.name, tc.mime, data))
		assert.False(t, res.Accepted, tc.name)
		assert.Equal(t, SeverityCritical, res.Highest(), tc.name)
		assert.Contains(t, res.Errors, "File contains executable code (Windows PE)", tc.name)
	}
}

func TestScriptTagIsRejected(t *testing.T) {
	data := []byte("hello\n<script>alert(1)</script>\n")
	res := NewValidator().Validate(candidateOf("notes.txt", "text/plain", data))

	assert.False(t, res.Accepted)
	assert.Contains(t, res.Errors, "File contains suspicious content (script tag)")
}

func TestScriptTagAfterBinaryPrefixIsRejected(t *testing.T) {
	data := append(pngBytes(t), []byte("<script>steal()</script>")...)
	res := NewValidator().Validate(candidateOf("photo.png", "image/png", data))

	assert.False(t, res.Accepted)
}

func TestSpoofedSignatureIsRejected(t *testing.T) {
	res := NewValidator().Validate(candidateOf("photo.png", "image/png", []byte("plain text, not an image")))

	assert.False(t, res.Accepted)
	assert.Contains(t, res.Errors, `File content does not match declared type "image/png"`)
}

func TestTypeAllowList(t *testing.T) {
	v := NewValidator()

	res := v.Validate(candidateOf("data.bin", "application/octet-stream", []byte("abc")))
	assert.False(t, res.Accepted)

	res = v.Validate(candidateOf("photo.mp3", "image/png", pngBytes(t)))
	assert.False(t, res.Accepted, "extension from another category")

	res = v.Validate(candidateOf("photo.jpg", "image/png", pngBytes(t)))
	assert.True(t, res.Accepted, res.Errors)
	assert.Contains(t, res.Warnings, `Extension ".jpg" is unusual for file type "image/png"`)
}

func TestMimeParametersAreIgnored(t *testing.T) {
	res := NewValidator().Validate(candidateOf("notes.txt", "Text/Plain; charset=utf-8", []byte("just notes")))

	assert.True(t, res.Accepted, res.Errors)
	assert.Equal(t, "text/plain", res.FileInfo.MimeType)
	assert.True(t, res.FileInfo.IsDocument)
}

func TestSizeCeilings(t *testing.T) {
	v := NewValidator(WithLimit(KindDocument, 8), WithAbsoluteMax(4))
	res := v.Validate(candidateOf("notes.txt", "text/plain", []byte("too many bytes")))

	assert.False(t, res.Accepted)
	assert.Contains(t, res.Errors, "File size 14B exceeds the 8B limit for document files")
	assert.Contains(t, res.Warnings, "File size 14B exceeds the absolute limit of 4B")
}

func TestFilenameSafety(t *testing.T) {
	v := NewValidator()
	cases := []struct {
		name    string
		message string
	}{
		{"bad<name>.txt", "Filename contains invalid characters"},
		{"tab\tname.txt", "Filename contains control characters"},
		{"con.txt", "Filename uses a reserved device name"},
		{"LPT1.notes.txt", "Filename uses a reserved device name"},
		{"run.exe", `File extension ".exe" is not allowed for security reasons`},
		{strings.Repeat("a", 252) + ".txt", "Filename is longer than 255 bytes"},
	}
	for _, tc := range cases {
		res := v.Validate(candidateOf(tc.name, "text/plain", []byte("plain")))
		assert.False(t, res.Accepted, tc.name)
		assert.Contains(t, res.Errors, tc.message, tc.name)
	}

	res := v.Validate(candidateOf("archive.tar.txt", "text/plain", []byte("plain")))
	assert.True(t, res.Accepted, res.Errors)
	assert.Contains(t, res.Warnings, "Filename has multiple extensions")
}

func TestBasicsReported(t *testing.T) {
	res := NewValidator().Validate(Candidate{})

	assert.False(t, res.Accepted)
	assert.Contains(t, res.Errors, "Filename is required")
	assert.Contains(t, res.Errors, "File is empty")
	assert.Contains(t, res.Errors, "File size must be positive")
	assert.Contains(t, res.Errors, "MIME type is required")
}

func TestEmbeddedPatterns(t *testing.T) {
	v := NewValidator()
	for _, body := range []string{
		"<?php echo 1; ?>",
		"x = eval (payload)",
		"1' OR '1'='1",
		"id=1 UNION SELECT password FROM users",
		`<a href="javascript:go()">`,
		`<img onerror=boom>`,
	} {
		res := v.Validate(candidateOf("notes.txt", "text/plain", []byte(body)))
		assert.False(t, res.Accepted, body)
	}

	res := v.Validate(candidateOf("notes.txt", "text/plain", []byte("blob "+strings.Repeat("QUJD", 30))))
	assert.True(t, res.Accepted, res.Errors)
	assert.Contains(t, res.Warnings, "File contains a long base64-encoded run")
}

func TestDocumentWarnings(t *testing.T) {
	data := []byte("%PDF-1.7\n1 0 obj << /OpenAction 2 0 R >>\n")
	res := NewValidator().Validate(candidateOf("report.pdf", "application/pdf", data))

	assert.True(t, res.Accepted, res.Errors)
	assert.Contains(t, res.Warnings, "PDF contains active content")

	res = NewValidator().Validate(candidateOf("macro.txt", "text/plain", []byte("Sub AutoOpen()")))
	assert.True(t, res.Accepted, res.Errors)
	assert.Contains(t, res.Warnings, "Document may contain macros")
}

func TestHashIsIndependentOfVerdict(t *testing.T) {
	data := []byte("<script>x</script>")
	bad := NewValidator().Validate(candidateOf("a.txt", "text/plain", data))
	again := NewValidator().Validate(candidateOf("b.exe", "text/plain", data))

	assert.False(t, bad.Accepted)
	assert.Equal(t, bad.FileInfo.Hash, again.FileInfo.Hash)
	assert.Regexp(t, `^[0-9a-f]{64}$`, bad.FileInfo.Hash)
}
