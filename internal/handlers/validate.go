package handlers

import (
	"errors"
	"io"
	"net/http"
	"reflect"

	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"
)

// Request structs declare `validate:"required"` for presence and `label`
// for the name reported to the client. Fields are checked in declaration
// order and only the first missing one is reported.
var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		if label := fld.Tag.Get("label"); label != "" {
			return label
		}
		return fld.Name
	})
	return v
}

// missingField returns the label of the first field failing validation.
func missingField(req any) (string, error) {
	err := validate.Struct(req)
	if err == nil {
		return "", nil
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		return verrs[0].Field(), nil
	}
	return "", err
}

// decodeAndValidate decodes a JSON body into req and checks field presence.
// It writes the 400 response itself and returns false on failure.
func decodeAndValidate(w http.ResponseWriter, r *http.Request, req interface{ normalize() }) bool {
	if r.Body == nil || r.Body == http.NoBody {
		writeError(w, r, http.StatusBadRequest, msgNoBody)
		return false
	}
	if err := render.DecodeJSON(r.Body, req); err != nil {
		if errors.Is(err, io.EOF) {
			writeError(w, r, http.StatusBadRequest, msgNoBody)
			return false
		}
		writeError(w, r, http.StatusBadRequest, msgInvalidBody)
		return false
	}
	req.normalize()

	field, err := missingField(req)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, msgInvalidBody)
		return false
	}
	if field != "" {
		writeFieldError(w, r, http.StatusBadRequest, field, field+" is required..!!")
		return false
	}
	return true
}
