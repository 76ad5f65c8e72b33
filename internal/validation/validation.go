// Package validation registers the custom binding tags used by request models.
package validation

import (
	"fmt"
	"reflect"
	"strings"
	"sync"

	"travelatlas/internal/domain/models"
	"travelatlas/internal/utils"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

var once sync.Once

// Register adds ymd, hhmm and activity_category to gin's validator.
// It is idempotent.
func Register() error {
	var err error
	once.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			err = fmt.Errorf("gin validator engine is %T", binding.Validator.Engine())
			return
		}
		err = RegisterOn(v)
	})
	return err
}

// RegisterOn adds the custom tags to v and reports fields by their JSON name.
func RegisterOn(v *validator.Validate) error {
	v.RegisterTagNameFunc(jsonName)
	rules := map[string]validator.Func{
		"ymd":               isYMD,
		"hhmm":              isHHMM,
		"activity_category": isActivityCategory,
	}
	for tag, fn := range rules {
		if err := v.RegisterValidation(tag, fn); err != nil {
			return fmt.Errorf("register %s: %w", tag, err)
		}
	}
	return nil
}

func jsonName(f reflect.StructField) string {
	name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
	switch name {
	case "-":
		return ""
	case "":
		return f.Name
	}
	return name
}

func isYMD(fl validator.FieldLevel) bool {
	_, err := utils.ParseDate(fl.Field().String())
	return err == nil
}

func isHHMM(fl validator.FieldLevel) bool {
	return utils.IsHM(fl.Field().String())
}

func isActivityCategory(fl validator.FieldLevel) bool {
	return IsCategory(fl.Field().String())
}

// IsCategory reports whether c is one of the canonical activity categories.
func IsCategory(c string) bool {
	c = strings.ToLower(strings.TrimSpace(c))
	for _, known := range models.ActivityCategories {
		if c == known {
			return true
		}
	}
	return false
}

// Describe turns validator errors into a short "field: rule" message.
func Describe(err error) string {
	verrs, ok := err.(validator.ValidationErrors)
	if !ok || len(verrs) == 0 {
		return err.Error()
	}
	parts := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		field := strings.ToLower(fe.Field())
		switch fe.Tag() {
		case "required":
			parts = append(parts, field+" is required")
		case "ymd":
			parts = append(parts, field+" must be YYYY-MM-DD")
		case "hhmm":
			parts = append(parts, field+" must be HH:MM")
		case "activity_category":
			parts = append(parts, field+" must be one of "+strings.Join(models.ActivityCategories, ", "))
		case "oneof":
			parts = append(parts, field+" must be one of "+fe.Param())
		default:
			if fe.Param() != "" {
				parts = append(parts, fmt.Sprintf("%s failed %s=%s", field, fe.Tag(), fe.Param()))
			} else {
				parts = append(parts, fmt.Sprintf("%s failed %s", field, fe.Tag()))
			}
		}
	}
	return strings.Join(parts, "; ")
}
