package utils

import (
	gonanoid "github.com/matoous/go-nanoid/v2"
)

const idAlphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz"

func GenerateID() string {
	id, err := gonanoid.Generate(idAlphabet, 7)
	if err != nil {
		return ""
	}
	return id
}

// GenerateShortSuffix returns a short lowercase suffix used to
// disambiguate public usernames.
func GenerateShortSuffix() string {
	id, err := gonanoid.Generate("0123456789abcdefghijklmnopqrstuvwxyz", 5)
	if err != nil {
		return ""
	}
	return id
}
