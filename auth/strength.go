// Package auth vets passphrases and passwords beyond the structural rules:
// an entropy estimate for the master passphrase and an optional breached-
// password lookup for item passwords the user types by hand.
package auth

import (
	"github.com/nbutton23/zxcvbn-go"
)

// WeakScore is the zxcvbn score below which a passphrase draws a warning.
const WeakScore = 3

// Strength estimates how resistant pw is to guessing. The score runs 0-4;
// display is a human-readable crack-time estimate.
func Strength(pw string) (score int, display string) {
	result := zxcvbn.PasswordStrength(pw, nil)
	return result.Score, result.CrackTimeDisplay
}
