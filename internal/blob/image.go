package blob

import (
	"net/http"
	"path"
	"strings"

	"tunecase/internal/validate"
)

// MaxImageBytes is the largest accepted image upload.
const MaxImageBytes = 2048 * 1024

var imageExtensions = map[string]bool{
	".jpeg": true,
	".png":  true,
	".jpg":  true,
	".gif":  true,
}

var imageTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/gif":  true,
}

// CheckImage validates an uploaded image for field. On success it sets the
// object's content type from the sniffed bytes.
func CheckImage(field string, obj *Object) validate.Errors {
	errs := validate.Errors{}
	if obj == nil || len(obj.Data) == 0 {
		errs.Add(field, "The "+field+" field is required.")
		return errs
	}

	ext := strings.ToLower(path.Ext(obj.Filename))
	sniffed := http.DetectContentType(obj.Data)
	if !imageExtensions[ext] || !imageTypes[sniffed] {
		errs.Add(field, "The "+field+" must be a file of type: jpeg, png, jpg, gif.")
	}
	if obj.Size() > MaxImageBytes {
		errs.Add(field, "The "+field+" may not be greater than 2048 kilobytes.")
	}

	if len(errs) == 0 {
		obj.ContentType = sniffed
	}
	return errs
}
