// Package pollid handles the textual form of poll identifiers embedded in
// rendered messages: unpadded standard base64 over the raw UUID bytes.
package pollid

import (
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

var encoding = base64.StdEncoding.WithPadding(base64.NoPadding)

// Encode returns the display form of a poll id.
func Encode(id uuid.UUID) string {
	return encoding.EncodeToString(id[:])
}

// EncodeString is Encode for ids held in their canonical string form.
func EncodeString(id string) (string, error) {
	parsed, err := uuid.Parse(id)
	if err != nil {
		return "", fmt.Errorf("malformed poll id %q: %w", id, err)
	}
	return Encode(parsed), nil
}

// Decode parses a display form back into a poll id. Surrounding backticks are
// tolerated because the id is rendered as inline code.
func Decode(s string) (uuid.UUID, error) {
	s = strings.TrimPrefix(s, "`")
	s = strings.TrimSuffix(s, "`")

	buf, err := encoding.DecodeString(s)
	if err != nil {
		return uuid.Nil, fmt.Errorf("malformed poll id %q: %w", s, err)
	}

	id, err := uuid.FromBytes(buf)
	if err != nil {
		return uuid.Nil, fmt.Errorf("malformed poll id %q: %w", s, err)
	}

	return id, nil
}
