package gallery

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"evalgallery/internal/models"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		tag := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if tag == "" || tag == "-" {
			return f.Name
		}
		return tag
	})
	_ = v.RegisterValidation("gallery", func(fl validator.FieldLevel) bool {
		return models.IsValidGallery(models.Gallery(fl.Field().String()))
	})
	_ = v.RegisterValidation("attachment_format", func(fl validator.FieldLevel) bool {
		return models.IsValidFormat(models.Format(fl.Field().String()))
	})
	_ = v.RegisterValidation("notblank", func(fl validator.FieldLevel) bool {
		return strings.TrimSpace(fl.Field().String()) != ""
	})
	return v
}

type createInput struct {
	Label   string          `json:"label" validate:"notblank"`
	Column  int             `json:"column" validate:"gte=0"`
	Row     int             `json:"row" validate:"gte=0"`
	Formats []models.Format `json:"formats" validate:"min=1,dive,attachment_format"`
}

type moveInput struct {
	Column int `json:"column" validate:"gte=0"`
	Row    int `json:"row" validate:"gte=0"`
}

type renameInput struct {
	Label string `json:"label" validate:"notblank"`
}

type compactInput struct {
	Columns int `json:"columns" validate:"gte=1"`
}

func validateScope(scope models.Scope) error {
	if err := validate.Struct(scope); err != nil {
		code := CodeInvalidScope
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) {
			for _, fe := range fieldErrs {
				if fe.Field() == "gallery" {
					code = CodeInvalidGallery
				}
			}
		}
		return invalidScope(code, "invalid scope %s: %s", scope, describeValidation(err))
	}
	return nil
}

func validateInput(input any) error {
	if err := validate.Struct(input); err != nil {
		return invalidArgument(inputErrorCode(err), "%s", describeValidation(err))
	}
	return nil
}

func inputErrorCode(err error) int {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return CodeInvalidArgument
	}
	switch field := fieldErrs[0].Field(); {
	case field == "label":
		return CodeInvalidLabel
	case field == "column" || field == "row":
		return CodeInvalidPosition
	case field == "columns":
		return CodeInvalidColumns
	case field == "formats":
		return CodeMissingFiles
	case strings.HasPrefix(field, "formats["):
		return CodeInvalidFormat
	default:
		return CodeInvalidArgument
	}
}

func describeValidation(err error) string {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err.Error()
	}
	parts := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		parts = append(parts, fe.Field()+" "+validationMessage(fe))
	}
	return strings.Join(parts, "; ")
}

func validationMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required", "notblank":
		return "is required"
	case "gte":
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "min":
		return fmt.Sprintf("must have at least %s entries", fe.Param())
	case "gallery":
		return fmt.Sprintf("must be one of %s", joinGalleries())
	case "attachment_format":
		return fmt.Sprintf("must be one of %s", joinFormats())
	}
	return "is invalid"
}

func joinGalleries() string {
	galleries := models.AllGalleries()
	out := make([]string, len(galleries))
	for i, g := range galleries {
		out[i] = string(g)
	}
	return strings.Join(out, ", ")
}

func joinFormats() string {
	formats := models.AllFormats()
	out := make([]string, len(formats))
	for i, f := range formats {
		out[i] = string(f)
	}
	return strings.Join(out, ", ")
}
