package onboarding

import "time"

// StepComplete marks the flow as finished, one past the last onboarding page.
const StepComplete = 4

// StepInitial is where every new or reset user starts.
const StepInitial = 1

// User represents a registrant moving through the onboarding flow.
type User struct {
    ID             string
    Username       string
    Email          string
    PasswordDigest string
    Age            int
    Data           map[string]any
    CurrentStep    int
    CreatedAt      time.Time
}
