package auth

// EvaluateLock returns the next locked state for an account given its
// current flag and the live failed-attempt count. An already locked account
// stays locked; the caller is responsible for resetting the attempt counter
// in that case so a later administrative unlock starts counting fresh.
func EvaluateLock(currentlyLocked bool, attempts, maxAttempts int) bool {
	if currentlyLocked {
		return true
	}
	return attempts >= maxAttempts
}
