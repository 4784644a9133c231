package commands

import (
	"errors"
	"fmt"
	"reflect"

	"github.com/go-playground/validator/v10"

	"github.com/oszuidwest/zwfm-audioctl/internal/types"
)

var validate *validator.Validate

func init() {
	validate = validator.New(validator.WithRequiredStructEnabled())

	// Report flag names instead of Go field names.
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		if name := fld.Tag.Get("flag"); name != "" {
			return "--" + name
		}
		return fld.Name
	})
}

// Flag values checked after parsing. Zero values mean "not given".
type listFlags struct {
	Type string `flag:"type" validate:"omitempty,oneof=playback recording"`
}

type indexFlags struct {
	Index int `flag:"index" validate:"gte=1,lte=42"`
}

type volumeFlags struct {
	Volume float64 `flag:"volume" validate:"gte=0,lte=100"`
}

// validateFlags checks v and reports failures as a ValidationError keyed by
// flag name.
func validateFlags(v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return types.InvalidArgumentf("%v", err)
	}
	result := types.NewValidationError()
	for _, e := range verrs {
		result.Add(e.Field(), flagMessage(e), e.Value())
	}
	return result
}

func flagMessage(e validator.FieldError) string {
	switch e.Tag() {
	case "oneof":
		return fmt.Sprintf("must be one of: %s", e.Param())
	case "gte":
		return fmt.Sprintf("must be at least %s", e.Param())
	case "lte":
		return fmt.Sprintf("must be at most %s", e.Param())
	default:
		return fmt.Sprintf("failed %s validation", e.Tag())
	}
}

// targetFlag names the per-target flags of get and set, e.g.
// "playback-communication-mute".
func targetFlag(t types.Target, suffix string) string {
	if suffix == "" {
		return string(t)
	}
	return string(t) + "-" + suffix
}
