package domain

type CheckoutStatus string

const (
	CheckoutStatusBrowsing    CheckoutStatus = "BROWSING"
	CheckoutStatusCheckingOut CheckoutStatus = "CHECKING_OUT"
	CheckoutStatusSubmitting  CheckoutStatus = "SUBMITTING"
	CheckoutStatusCompleted   CheckoutStatus = "COMPLETED"
)

var transitions = map[CheckoutStatus][]CheckoutStatus{
	CheckoutStatusBrowsing:    {CheckoutStatusCheckingOut},
	CheckoutStatusCheckingOut: {CheckoutStatusBrowsing, CheckoutStatusSubmitting},
	CheckoutStatusSubmitting:  {CheckoutStatusCheckingOut, CheckoutStatusCompleted},
	CheckoutStatusCompleted:   {CheckoutStatusBrowsing},
}

// CanTransitionTo reports whether the state machine allows from -> to.
func CanTransitionTo(from, to CheckoutStatus) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// String representation (for logging)
func (s CheckoutStatus) String() string {
	return string(s)
}
