package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/touchgrass/touchgrass/internal/api/models"
	"github.com/touchgrass/touchgrass/internal/api/response"
	"github.com/touchgrass/touchgrass/internal/walk"
)

const maxBodyBytes = 64 << 10

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// Report JSON field names rather than Go field names.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	_ = v.RegisterValidation("routeshape", func(fl validator.FieldLevel) bool {
		_, err := walk.ParseShape(fl.Field().String())
		return err == nil
	})
	return v
}

// decode reads a JSON body into dst and validates it. On failure a 400
// problem has been written and false is returned.
func decode(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	present, ok := decodeOptional(w, r, dst)
	if ok && !present {
		response.BadRequest(w, r, "request body is required", nil)
		return false
	}
	return ok
}

// decodeOptional is decode for bodies that may be omitted entirely. present
// is false when there was no body; dst is then left untouched.
func decodeOptional(w http.ResponseWriter, r *http.Request, dst interface{}) (present, ok bool) {
	if r.Body == nil || r.Body == http.NoBody {
		return false, true
	}

	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()

	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return false, true
		}
		response.BadRequest(w, r, "invalid JSON body", nil)
		return true, false
	}

	if err := validate.Struct(dst); err != nil {
		response.BadRequest(w, r, "request validation failed", fieldErrors(err))
		return true, false
	}
	return true, true
}

func fieldErrors(err error) []models.FieldError {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return []models.FieldError{{Field: "body", Message: err.Error(), Code: "invalid"}}
	}

	out := make([]models.FieldError, 0, len(verrs))
	for _, fe := range verrs {
		out = append(out, models.FieldError{
			Field:   fe.Field(),
			Message: fieldMessage(fe),
			Code:    fe.Tag(),
		})
	}
	return out
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required", "required_without", "required_with":
		return fe.Field() + " is required"
	case "oneof":
		return fe.Field() + " must be one of: " + fe.Param()
	case "routeshape":
		return fe.Field() + " must be circular or one-way"
	case "max":
		return fe.Field() + " must be at most " + fe.Param() + " characters"
	case "gte", "lte":
		return fe.Field() + " is out of range"
	}
	return fe.Field() + " is invalid"
}
