package pages

// DefaultName identifies the single configuration row every deployment uses.
// A uniqueness constraint on the name keeps the row a singleton.
const DefaultName = "default"

// Config holds the component lists rendered on each onboarding page.
type Config struct {
    Name  string
    Page1 []string
    Page2 []string
    Page3 []string
}

// Default returns the component layout seeded at database initialization.
func Default() Config {
    return Config{
        Name:  DefaultName,
        Page1: []string{"email", "age"},
        Page2: []string{"aboutMe", "address"},
        Page3: []string{"birthdate"},
    }
}
