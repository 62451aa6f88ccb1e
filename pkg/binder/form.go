package binder

import (
	"fmt"
	"mime/multipart"
	"net/http"
	"reflect"
)

// DefaultMaxMemory bounds the in-memory part of multipart parsing; the rest spills to disk.
const DefaultMaxMemory = 10 << 20

var fileHeaderType = reflect.TypeOf((*multipart.FileHeader)(nil))

// Form binds application/x-www-form-urlencoded and multipart/form-data bodies.
//
// Supported struct tags:
//   - `form:"name"` binds a form value (string, numbers, bool, pointers, slices)
//   - `file:"name"` binds an uploaded file into *multipart.FileHeader
func Form() func(r *http.Request, v any) error {
	return func(r *http.Request, v any) error {
		var (
			values map[string][]string
			files  map[string][]*multipart.FileHeader
		)

		switch mediaType(r) {
		case "application/x-www-form-urlencoded":
			if err := r.ParseForm(); err != nil {
				return fmt.Errorf("%w: %w", ErrInvalidForm, err)
			}
			values = r.PostForm
		case "multipart/form-data":
			if err := r.ParseMultipartForm(DefaultMaxMemory); err != nil {
				return fmt.Errorf("%w: %w", ErrInvalidForm, err)
			}
			values = r.MultipartForm.Value
			files = r.MultipartForm.File
		default:
			return ErrBinderNotApplicable
		}

		if err := bindValues(v, "form", values, ErrInvalidForm); err != nil {
			return err
		}
		return bindFiles(v, files)
	}
}

func bindFiles(v any, files map[string][]*multipart.FileHeader) error {
	if len(files) == 0 {
		return nil
	}

	rv, err := structValue(v, ErrInvalidForm)
	if err != nil {
		return err
	}
	rt := rv.Type()

	for i := range rv.NumField() {
		field := rv.Field(i)
		tag := rt.Field(i).Tag.Get("file")
		if tag == "" || tag == "-" || !field.CanSet() {
			continue
		}
		headers := files[tag]
		if len(headers) == 0 {
			continue
		}
		if field.Type() != fileHeaderType {
			return fmt.Errorf("%w: field %s must be *multipart.FileHeader", ErrInvalidForm, rt.Field(i).Name)
		}
		field.Set(reflect.ValueOf(headers[0]))
	}
	return nil
}
