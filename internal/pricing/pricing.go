// Package pricing holds the static duration-to-amount table shared by the
// booking form, the payment summary, and the extension flow.
package pricing

// amounts maps booking duration in hours to the charge in currency units.
var amounts = map[int]int{
	1:  20,
	2:  35,
	4:  60,
	8:  100,
	24: 200,
}

// Durations lists the bookable durations in ascending order.
var Durations = []int{1, 2, 4, 8, 24}

// Amount returns the charge for a duration. Durations outside the fixed set
// price at 0; callers treat that as "free", not as an error.
func Amount(hours int) int {
	return amounts[hours]
}

// ValidDuration reports whether hours is one of the bookable durations.
func ValidDuration(hours int) bool {
	_, ok := amounts[hours]
	return ok
}
