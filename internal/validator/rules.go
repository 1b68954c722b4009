package validator

import (
	"strings"

	"github.com/go-playground/validator/v10"
)

func registerCustomRules(v *validator.Validate) error {
	rules := map[string]validator.Func{
		"notblank": validateNotBlank,
		"phone":    validatePhone,
		"category": validateCategory,
	}
	for tag, fn := range rules {
		if err := v.RegisterValidation(tag, fn); err != nil {
			return err
		}
	}
	return nil
}

func validateNotBlank(fl validator.FieldLevel) bool {
	return strings.TrimSpace(fl.Field().String()) != ""
}

// validatePhone accepts digits with an optional leading '+' and the
// usual separators, 7 to 15 digits in total.
func validatePhone(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	if value == "" {
		return true
	}
	digits := 0
	for i, r := range value {
		switch {
		case r >= '0' && r <= '9':
			digits++
		case r == '+' && i == 0:
		case r == ' ' || r == '-' || r == '(' || r == ')':
		default:
			return false
		}
	}
	return digits >= 7 && digits <= 15
}

// validateCategory accepts slugs such as "expert_specialist". Matching is
// case-insensitive after trimming, like the routing rules.
func validateCategory(fl validator.FieldLevel) bool {
	value := strings.ToLower(strings.TrimSpace(fl.Field().String()))
	if value == "" {
		return true
	}
	for _, r := range value {
		if (r < 'a' || r > 'z') && (r < '0' || r > '9') && r != '_' && r != '-' {
			return false
		}
	}
	return true
}
