package utils

import (
	"math/rand/v2"
	"net/url"
	"strings"
	"unicode/utf8"

	"github.com/lucasb-eyer/go-colorful"
)

const avatarBaseURL = "https://ui-avatars.com/api/"

// Initials derives up to a few display letters from an organization name.
// Names with spaces use the first letter of each word, others the first two letters.
func Initials(name string) string {
	if strings.Contains(name, " ") {
		var b strings.Builder
		for _, word := range strings.Split(name, " ") {
			word = strings.TrimSpace(word)
			if r, size := utf8.DecodeRuneInString(word); size > 0 {
				b.WriteRune(r)
			}
		}
		return strings.ToUpper(b.String())
	}

	runes := []rune(strings.TrimSpace(name))
	if len(runes) > 2 {
		runes = runes[:2]
	}
	return strings.ToUpper(string(runes))
}

// RandomLightColor returns a random light colour as hex without the leading hash.
func RandomLightColor() string {
	c := colorful.Hsl(
		rand.Float64()*360,
		0.45+rand.Float64()*0.45,
		0.75+rand.Float64()*0.15,
	)
	return strings.TrimPrefix(c.Hex(), "#")
}

// AvatarURL builds a placeholder avatar URL showing initials on a background colour.
func AvatarURL(initials, background string) string {
	q := url.Values{}
	q.Set("name", initials)
	q.Set("background", background)
	q.Set("color", "000000")
	return avatarBaseURL + "?" + q.Encode()
}
