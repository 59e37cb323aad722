package domain

import "time"

// WizardStep numbers the four wizard steps.
type WizardStep int

const (
	// StepPackage is the package choice step.
	StepPackage WizardStep = iota + 1
	// StepColors is the customization type and color choice step.
	StepColors
	// StepDesign is the addon and design detail step.
	StepDesign
	// StepContact is the contact info and confirmation step.
	StepContact
)

// WizardStepCount is the number of wizard steps.
const WizardStepCount = 4

// Valid reports whether the step is within the wizard's range.
func (s WizardStep) Valid() bool {
	return s >= StepPackage && s <= StepContact
}

// WizardSession is one customer's in-flight order, scoped to a single
// browsing session. Sessions are never persisted; they are discarded on
// submission or expiry.
type WizardSession struct {
	ID        string
	Step      WizardStep
	Order     Order
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Clone deep-copies the session so snapshots do not alias stored state.
func (s WizardSession) Clone() WizardSession {
	out := s
	out.Order = s.Order.Clone()
	return out
}
