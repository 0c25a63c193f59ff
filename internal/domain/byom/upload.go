package byom

import (
	"fmt"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/merch/byom/internal/domain/shared"
)

// MaxUploadBytes is the size limit of one user graphic
const MaxUploadBytes int64 = 10 << 20

var allowedUploadTypes = map[string]string{
	"image/png":  ".png",
	"image/jpeg": ".jpg",
}

// Upload is a user-provided graphic awaiting storage
type Upload struct {
	FileName    string
	ContentType string
	Data        []byte
}

// Size returns the payload length
func (u Upload) Size() int64 {
	return int64(len(u.Data))
}

// Extension returns the canonical file extension of the sniffed type
func (u Upload) Extension() string {
	return allowedUploadTypes[u.DetectedType()]
}

// DetectedType sniffs the content type from the payload
func (u Upload) DetectedType() string {
	return mimetype.Detect(u.Data).String()
}

// Validate enforces the size limit and the png/jpeg allow-list.
// A declared content type must agree with the sniffed one.
func (u Upload) Validate(maxBytes int64) error {
	if maxBytes <= 0 {
		maxBytes = MaxUploadBytes
	}
	if u.Size() == 0 {
		return shared.NewDomainError("EMPTY_FILE", fmt.Sprintf("File %s is empty", u.FileName))
	}
	if u.Size() > maxBytes {
		return shared.NewDomainError("FILE_TOO_LARGE",
			fmt.Sprintf("File %s is %d bytes, the limit is %d", u.FileName, u.Size(), maxBytes))
	}
	detected := u.DetectedType()
	if _, ok := allowedUploadTypes[detected]; !ok {
		return shared.NewDomainError("INVALID_CONTENT_TYPE",
			fmt.Sprintf("File %s must be png or jpeg, got %s", u.FileName, detected))
	}
	declared := normalizeContentType(u.ContentType)
	if declared != "" && declared != "application/octet-stream" && declared != detected {
		return shared.NewDomainError("INVALID_CONTENT_TYPE",
			fmt.Sprintf("File %s is declared as %s but contains %s", u.FileName, declared, detected))
	}
	return nil
}

func normalizeContentType(ct string) string {
	ct = strings.ToLower(strings.TrimSpace(ct))
	if i := strings.IndexByte(ct, ';'); i >= 0 {
		ct = strings.TrimSpace(ct[:i])
	}
	if ct == "image/jpg" || ct == "image/pjpeg" {
		return "image/jpeg"
	}
	return ct
}

// ValidateUploads validates every upload and stops at the first failure
func ValidateUploads(uploads []Upload, maxBytes int64) error {
	for _, u := range uploads {
		if err := u.Validate(maxBytes); err != nil {
			return err
		}
	}
	return nil
}
