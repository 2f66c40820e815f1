package middleware

import (
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"github.com/jwalitptl/clinic-scheduler/internal/model"
	"github.com/jwalitptl/clinic-scheduler/internal/schedule"
)

var registerOnce sync.Once

// CustomValidators are the binding tags the request models use.
func CustomValidators() map[string]validator.Func {
	return map[string]validator.Func{
		"appointment_status": func(fl validator.FieldLevel) bool {
			return model.AppointmentStatus(fl.Field().String()).Valid()
		},
		"appointment_type": func(fl validator.FieldLevel) bool {
			return model.AppointmentType(fl.Field().String()).Valid()
		},
		"status_filter": func(fl validator.FieldLevel) bool {
			return schedule.ValidStatusFilter(fl.Field().String())
		},
	}
}

// RegisterValidators installs the custom tags on gin's validator and reports
// fields by their json/form name. It is safe to call more than once.
func RegisterValidators() error {
	var err error
	registerOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			err = fmt.Errorf("unexpected validator engine %T", binding.Validator.Engine())
			return
		}
		for tag, fn := range CustomValidators() {
			if err = v.RegisterValidation(tag, fn); err != nil {
				return
			}
		}
		v.RegisterTagNameFunc(func(fld reflect.StructField) string {
			for _, key := range []string{"json", "form"} {
				name := strings.SplitN(fld.Tag.Get(key), ",", 2)[0]
				if name == "-" {
					return fld.Name
				}
				if name != "" {
					return name
				}
			}
			return fld.Name
		})
	})
	return err
}
