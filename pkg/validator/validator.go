package validator

import (
	"errors"
	"fmt"
	"regexp"
	"sync"

	"github.com/go-playground/validator/v10"
)

var (
	// safeArgPattern matches values that are safe to hand to make as KEY=value
	// (bucket names, paths, identifiers).
	safeArgPattern = regexp.MustCompile(`^[A-Za-z0-9._/:-]*$`)
	// targetNamePattern matches dispatch target and log names.
	targetNamePattern = regexp.MustCompile(`^[a-z0-9][a-z0-9-]*$`)
	// consoleCmdPattern matches a server console command without quoting or
	// shell metacharacters.
	consoleCmdPattern = regexp.MustCompile(`^[A-Za-z0-9 _.,:@~+=#/!?\[\]{}-]*$`)
)

var lock = &sync.Mutex{}
var validate *validator.Validate

func getValidator() *validator.Validate {
	lock.Lock()
	defer lock.Unlock()
	if validate == nil {
		v := validator.New(validator.WithRequiredStructEnabled())
		_ = v.RegisterValidation("safearg", func(fl validator.FieldLevel) bool {
			return safeArgPattern.MatchString(fl.Field().String())
		})
		_ = v.RegisterValidation("targetname", func(fl validator.FieldLevel) bool {
			return targetNamePattern.MatchString(fl.Field().String())
		})
		_ = v.RegisterValidation("consolecmd", func(fl validator.FieldLevel) bool {
			return consoleCmdPattern.MatchString(fl.Field().String())
		})
		validate = v
	}
	return validate
}

func ValidateStruct(s interface{}) error {
	return getValidator().Struct(s)
}

// ValidateVar validates a single value against a tag string such as
// "required,max=64,safearg".
func ValidateVar(value interface{}, rules string) error {
	return getValidator().Var(value, rules)
}

// CheckRules reports whether rules is a tag string the validator understands.
func CheckRules(rules string) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("invalid validation rules %q: %v", rules, r)
		}
	}()
	_ = getValidator().Var("", rules)
	return nil
}

func TranslateError(err error) map[string]string {
	errors := make(map[string]string)
	if err == nil {
		return errors
	}
	var verrs validator.ValidationErrors
	if !asValidationErrors(err, &verrs) {
		errors["_"] = err.Error()
		return errors
	}
	for _, err := range verrs {
		errors[err.Field()] = fmt.Sprintf("failed on the '%s' rule", err.Tag())
	}
	return errors
}

// FailedTag returns the first failing rule of a ValidateVar error.
func FailedTag(err error) string {
	var verrs validator.ValidationErrors
	if !asValidationErrors(err, &verrs) || len(verrs) == 0 {
		return ""
	}
	return verrs[0].Tag()
}

func asValidationErrors(err error, target *validator.ValidationErrors) bool {
	return errors.As(err, target)
}
