package strutils

import (
	"fmt"
	"strings"
	"unicode"
)

const VALID_HEX_DIGITS = "0123456789abcdefABCDEF"

const STRIPPED_UUID_LENGTH = 32

// Dash positions in the stripped form
var dashesBefore = [...]int{8, 12, 16, 20}

// Lowercases the UUID and formats it in the dashed 8-4-4-4-12 form.
// Accepts any placement of dashes in the input.
func NormalizeUUID(uuid string) (string, error) {
	var stripped strings.Builder
	stripped.Grow(STRIPPED_UUID_LENGTH)

	for _, char := range uuid {
		if char == '-' {
			continue
		} else if strings.ContainsRune(VALID_HEX_DIGITS, char) {
			_, err := stripped.WriteRune(unicode.ToLower(char))
			if err != nil {
				return "", fmt.Errorf("failed writing to stringbuilder: %w", err)
			}
		} else {
			return "", fmt.Errorf("invalid character in UUID. input: '%s'", uuid)
		}
	}
	if stripped.Len() != STRIPPED_UUID_LENGTH {
		return "", fmt.Errorf("normalized UUID has incorrect length. input: '%s'", uuid)
	}

	raw := stripped.String()
	var normalized strings.Builder
	normalized.Grow(STRIPPED_UUID_LENGTH + len(dashesBefore))
	previous := 0
	for _, position := range dashesBefore {
		normalized.WriteString(raw[previous:position])
		normalized.WriteByte('-')
		previous = position
	}
	normalized.WriteString(raw[previous:])

	return normalized.String(), nil
}

func UUIDIsNormalized(uuid string) bool {
	normalized, err := NormalizeUUID(uuid)
	if err != nil {
		return false
	}
	return normalized == uuid
}
