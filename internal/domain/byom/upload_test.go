package byom

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

var (
	pngHeader  = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x06\x00\x00\x00")
	jpegHeader = []byte("\xff\xd8\xff\xe0\x00\x10JFIF\x00\x01\x01\x00\x00\x01\x00\x01\x00\x00")
)

func TestUpload_Validate(t *testing.T) {
	tests := []struct {
		name     string
		upload   Upload
		maxBytes int64
		code     string
	}{
		{"png", Upload{FileName: "a.png", ContentType: "image/png", Data: pngHeader}, 0, ""},
		{"jpeg declared as jpg", Upload{FileName: "a.jpg", ContentType: "image/jpg", Data: jpegHeader}, 0, ""},
		{"undeclared type", Upload{FileName: "a", Data: pngHeader}, 0, ""},
		{"empty", Upload{FileName: "a.png", ContentType: "image/png"}, 0, "EMPTY_FILE"},
		{"too large", Upload{FileName: "a.png", Data: pngHeader}, 8, "FILE_TOO_LARGE"},
		{"gif", Upload{FileName: "a.gif", Data: []byte("GIF89a\x01\x00\x01\x00")}, 0, "INVALID_CONTENT_TYPE"},
		{"declared mismatch", Upload{FileName: "a.png", ContentType: "image/jpeg", Data: pngHeader}, 0, "INVALID_CONTENT_TYPE"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.upload.Validate(tt.maxBytes)
			if tt.code == "" {
				assert.NoError(t, err)
				return
			}
			assertCode(t, err, tt.code)
		})
	}
}

func TestUpload_DefaultLimitIsTenMegabytes(t *testing.T) {
	data := append(append([]byte{}, pngHeader...), bytes.Repeat([]byte{0}, int(MaxUploadBytes))...)
	err := Upload{FileName: "big.png", Data: data}.Validate(0)
	assertCode(t, err, "FILE_TOO_LARGE")
}

func TestValidateUploads_StopsAtFirstFailure(t *testing.T) {
	err := ValidateUploads([]Upload{
		{FileName: "ok.png", Data: pngHeader},
		{FileName: "bad.gif", Data: []byte("GIF89a")},
	}, 0)
	assertCode(t, err, "INVALID_CONTENT_TYPE")
	assert.Contains(t, err.Error(), "bad.gif")
}

func TestUpload_Extension(t *testing.T) {
	assert.Equal(t, ".png", Upload{Data: pngHeader}.Extension())
	assert.Equal(t, ".jpg", Upload{Data: jpegHeader}.Extension())
}
