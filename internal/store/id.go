package store

import (
	"crypto/rand"
	"errors"
	"fmt"
	"strings"
)

const (
	attachmentIDPrefix = "at-"
	attachmentIDDigits = 8
	idAlphabet         = "0123456789abcdefghijklmnopqrstuvwxyz"
	idMaxAttempts      = 20
)

// ErrIDSpaceExhausted is returned when every generated candidate collides.
var ErrIDSpaceExhausted = errors.New("unable to generate unique attachment id")

// GenerateAttachmentID returns a fresh "at-xxxxxxxx" id. exists, when set,
// reports collisions; candidates are drawn until one is free.
func GenerateAttachmentID(exists func(string) (bool, error)) (string, error) {
	for attempt := 0; attempt < idMaxAttempts; attempt++ {
		id, err := randomAttachmentID()
		if err != nil {
			return "", err
		}
		if exists == nil {
			return id, nil
		}
		taken, err := exists(id)
		if err != nil {
			return "", fmt.Errorf("check attachment id %s: %w", id, err)
		}
		if !taken {
			return id, nil
		}
	}
	return "", ErrIDSpaceExhausted
}

// IsAttachmentID reports whether id has the shape produced by GenerateAttachmentID.
func IsAttachmentID(id string) bool {
	digits, ok := strings.CutPrefix(id, attachmentIDPrefix)
	if !ok || len(digits) != attachmentIDDigits {
		return false
	}
	for i := 0; i < len(digits); i++ {
		if strings.IndexByte(idAlphabet, digits[i]) < 0 {
			return false
		}
	}
	return true
}

func randomAttachmentID() (string, error) {
	var raw [attachmentIDDigits]byte
	if _, err := rand.Read(raw[:]); err != nil {
		return "", err
	}
	var b strings.Builder
	b.Grow(len(attachmentIDPrefix) + attachmentIDDigits)
	b.WriteString(attachmentIDPrefix)
	for _, v := range raw {
		b.WriteByte(idAlphabet[int(v)%len(idAlphabet)])
	}
	return b.String(), nil
}
