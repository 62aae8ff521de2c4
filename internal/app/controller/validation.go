package controller

import (
	"fmt"
	"reflect"
	"strings"
	"sync"
	_ "time/tzdata" // timezone rule must not depend on the host zoneinfo

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/ikkim/salonbook-backend/internal/app/model"
	"github.com/ikkim/salonbook-backend/pkg/optional"
)

var (
	registerOnce sync.Once
	registerErr  error
)

// RegisterValidators teaches gin's validator about optional.Value fields,
// JSON field names in error namespaces and the currency_code rule.
func RegisterValidators() error {
	registerOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			registerErr = fmt.Errorf("unexpected validator engine %T", binding.Validator.Engine())
			return
		}

		v.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})

		v.RegisterCustomTypeFunc(optionalValue[string], optional.Value[string]{})
		v.RegisterCustomTypeFunc(optionalValue[model.BusinessBranding], optional.Value[model.BusinessBranding]{})
		v.RegisterCustomTypeFunc(optionalValue[model.BusinessPolicy], optional.Value[model.BusinessPolicy]{})

		registerErr = v.RegisterValidation("currency_code", isSupportedCurrency)
	})
	return registerErr
}

// optionalValue exposes the held value to validation; absent and null validate as empty.
func optionalValue[T any](field reflect.Value) interface{} {
	v, ok := field.Interface().(optional.Value[T])
	if !ok {
		return nil
	}
	if value, set := v.Get(); set {
		return value
	}
	return nil
}

func isSupportedCurrency(fl validator.FieldLevel) bool {
	code := fl.Field().String()
	for _, supported := range model.SupportedCurrencies {
		if code == supported {
			return true
		}
	}
	return false
}
