package services

import (
	"strings"

	domain "github.com/soigrad/soi/internal/domain"
)

// phoneDigitCount is the required length of a customer phone number.
const phoneDigitCount = 11

// Guidance texts surfaced next to a blocked step control.
const (
	guidancePackage = "يرجى اختيار بكج للمتابعة."
	guidanceColors  = "يرجى اختيار جميع الألوان قبل المتابعة."
	guidanceDesign  = "يرجى إدخال تفاصيل تصميم واحدة على الأقل (صورة أو وصف)."
	guidanceContact = "يرجى ملء جميع الحقول المطلوبة (*) والتأكد من صحة رقم الهاتف."
)

// StepState reports one step's validity together with the guidance shown
// when forward navigation out of it is blocked.
type StepState struct {
	Step     domain.WizardStep
	Valid    bool
	Guidance string
}

// ValidateStep evaluates the pure gating predicate for a single wizard step
// against an order snapshot.
func ValidateStep(order domain.Order, step domain.WizardStep) bool {
	switch step {
	case domain.StepPackage:
		return order.PackageID != nil
	case domain.StepColors:
		return strings.TrimSpace(order.RobeColor) != "" &&
			strings.TrimSpace(order.CapColor) != "" &&
			strings.TrimSpace(order.SashColor) != "" &&
			strings.TrimSpace(order.CustomizationColor) != ""
	case domain.StepDesign:
		if len(order.Fields) == 0 {
			return true
		}
		for _, field := range order.Fields {
			if strings.TrimSpace(field.Description) != "" || field.Image != nil {
				return true
			}
		}
		return false
	case domain.StepContact:
		return strings.TrimSpace(order.CustomerName) != "" &&
			strings.TrimSpace(order.Address) != "" &&
			validPhone(order.Phone)
	}
	return false
}

// StepStates evaluates all four steps at once for snapshot reporting.
func StepStates(order domain.Order) []StepState {
	states := make([]StepState, 0, domain.WizardStepCount)
	for step := domain.StepPackage; step <= domain.StepContact; step++ {
		states = append(states, StepState{
			Step:     step,
			Valid:    ValidateStep(order, step),
			Guidance: StepGuidance(step),
		})
	}
	return states
}

// StepGuidance returns the human-readable hint for a blocked step.
func StepGuidance(step domain.WizardStep) string {
	switch step {
	case domain.StepPackage:
		return guidancePackage
	case domain.StepColors:
		return guidanceColors
	case domain.StepDesign:
		return guidanceDesign
	case domain.StepContact:
		return guidanceContact
	}
	return ""
}

// validPhone requires exactly 11 decimal digits after trimming whitespace.
func validPhone(phone string) bool {
	trimmed := strings.TrimSpace(phone)
	if len(trimmed) != phoneDigitCount {
		return false
	}
	for _, r := range trimmed {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
