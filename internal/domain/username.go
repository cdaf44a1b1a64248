package domain

import "fmt"

var usernameAdjectives = []string{
	"Swift", "Brave", "Clever", "Fierce", "Mighty",
	"Wise", "Bold", "Nimble", "Valiant", "Fearless",
}

var usernameAnimals = []string{
	"Lion", "Eagle", "Wolf", "Tiger", "Falcon",
	"Bear", "Shark", "Panther", "Dragon", "Hawk",
}

// GenerateUsername produces a random display name of the form
// "Adjective-Animal-xxxxx" for users who do not want to pick one.
func GenerateUsername() (string, error) {
	idx, err := NewID(2)
	if err != nil {
		return "", err
	}
	suffix, err := NewID(5)
	if err != nil {
		return "", err
	}
	adjective := usernameAdjectives[int(idx[0])%len(usernameAdjectives)]
	animal := usernameAnimals[int(idx[1])%len(usernameAnimals)]
	return fmt.Sprintf("%s-%s-%s", adjective, animal, suffix), nil
}
