package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"tunecase/internal/blob"
)

const maxBodyBytes = 4 << 20

type requestError struct {
	status int
	msg    string
}

func (e *requestError) Error() string { return e.msg }

var (
	errBodyTooLarge     = &requestError{status: http.StatusRequestEntityTooLarge, msg: "request body too large"}
	errUnsupportedMedia = &requestError{status: http.StatusUnsupportedMediaType, msg: "unsupported content type"}
	errMalformedBody    = &requestError{status: http.StatusBadRequest, msg: "malformed request body"}
)

// form holds the decoded fields of a JSON, urlencoded or multipart body.
// Keys absent from the body are absent from values.
type form struct {
	values map[string]string
	files  map[string]*blob.Object
}

func readForm(w http.ResponseWriter, r *http.Request) (form, error) {
	f := form{values: map[string]string{}, files: map[string]*blob.Object{}}
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	mediaType := ""
	if ct := r.Header.Get("Content-Type"); ct != "" {
		mt, _, err := mime.ParseMediaType(ct)
		if err != nil {
			return f, errUnsupportedMedia
		}
		mediaType = mt
	}

	switch mediaType {
	case "multipart/form-data":
		if err := r.ParseMultipartForm(maxBodyBytes); err != nil {
			return f, bodyError(err)
		}
		defer func() { _ = r.MultipartForm.RemoveAll() }()

		for key, vals := range r.MultipartForm.Value {
			if len(vals) > 0 {
				f.values[key] = vals[0]
			}
		}
		for key, headers := range r.MultipartForm.File {
			if len(headers) == 0 {
				continue
			}
			obj, err := readFile(headers[0])
			if err != nil {
				return f, err
			}
			f.files[key] = obj
		}

	case "application/x-www-form-urlencoded":
		if err := r.ParseForm(); err != nil {
			return f, bodyError(err)
		}
		for key, vals := range r.PostForm {
			if len(vals) > 0 {
				f.values[key] = vals[0]
			}
		}

	case "application/json", "":
		var raw map[string]any
		dec := json.NewDecoder(r.Body)
		dec.UseNumber()
		if err := dec.Decode(&raw); err != nil {
			if errors.Is(err, io.EOF) {
				return f, nil
			}
			return f, bodyError(err)
		}
		for key, v := range raw {
			f.values[key] = jsonString(v)
		}

	default:
		return f, errUnsupportedMedia
	}

	return f, nil
}

func readFile(fh *multipart.FileHeader) (*blob.Object, error) {
	file, err := fh.Open()
	if err != nil {
		return nil, fmt.Errorf("open upload: %w", err)
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return nil, bodyError(err)
	}
	return &blob.Object{Filename: fh.Filename, ContentType: fh.Header.Get("Content-Type"), Data: data}, nil
}

func bodyError(err error) error {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) || strings.Contains(err.Error(), "request body too large") {
		return errBodyTooLarge
	}
	return errMalformedBody
}

func jsonString(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case json.Number:
		return t.String()
	case bool:
		return strconv.FormatBool(t)
	default:
		b, _ := json.Marshal(t)
		return string(b)
	}
}

func (f form) str(key string) string {
	return f.values[key]
}

// ptr returns nil when key was not sent.
func (f form) ptr(key string) *string {
	v, ok := f.values[key]
	if !ok {
		return nil
	}
	return &v
}

// id returns the positive integer in key, or 0 when it is malformed so that
// validation reports it.
func (f form) id(key string) int64 {
	n, err := strconv.ParseInt(strings.TrimSpace(f.values[key]), 10, 64)
	if err != nil {
		return 0
	}
	return n
}

func (f form) idPtr(key string) *int64 {
	if _, ok := f.values[key]; !ok {
		return nil
	}
	n := f.id(key)
	return &n
}

// datePtr treats an empty value as absent on create.
func (f form) datePtr(key string) *string {
	v := f.ptr(key)
	if v != nil && *v == "" {
		return nil
	}
	return v
}

func (f form) file(key string) *blob.Object {
	return f.files[key]
}

// overrideMethod reports the HTTP method a POST form asks to be treated as.
func (f form) overrideMethod() string {
	return strings.ToUpper(strings.TrimSpace(f.values["_method"]))
}
