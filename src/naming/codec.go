package naming

import (
	"encoding/base64"
	"fmt"
	"path"
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Codec maps a display name to a storage-safe identifier and back.
// One codec is active per process and must be used on every code path that
// derives a storage key from a display name.
type Codec interface {
	Encode(name string) string
	Decode(id string) string
	// Reversible reports whether Decode(Encode(s)) == s for all inputs.
	Reversible() bool
}

// ForScheme returns the codec for a config scheme name.
func ForScheme(scheme string) (Codec, error) {
	switch scheme {
	case "identity":
		return Identity{}, nil
	case "base64":
		return Base64{}, nil
	case "slug":
		return Slug{}, nil
	default:
		return nil, fmt.Errorf("unknown naming scheme: %s", scheme)
	}
}

// EncodeFilename encodes the base portion of a filename, leaving the
// extension outside the encoded segment.
func EncodeFilename(c Codec, filename string) string {
	ext := path.Ext(filename)
	base := strings.TrimSuffix(filename, ext)
	return c.Encode(base) + ext
}

// DecodeFilename reverses EncodeFilename.
func DecodeFilename(c Codec, id string) string {
	ext := path.Ext(id)
	base := strings.TrimSuffix(id, ext)
	return c.Decode(base) + ext
}

// Identity performs no transform. It fails operationally whenever the
// backend disallows characters the display name contains.
type Identity struct{}

func (Identity) Encode(name string) string { return name }
func (Identity) Decode(id string) string   { return id }
func (Identity) Reversible() bool          { return true }

// Base64 is the URL-safe, unpadded base64 codec. Round-trips exactly for
// any display name.
type Base64 struct{}

func (Base64) Encode(name string) string {
	return base64.RawURLEncoding.EncodeToString([]byte(name))
}

// Decode returns the identifier unchanged when it is not valid base64url.
// Identifiers written under an earlier raw-name scheme stay reachable that
// way instead of turning into garbage.
func (Base64) Decode(id string) string {
	decoded, err := base64.RawURLEncoding.DecodeString(id)
	if err != nil {
		return id
	}
	return string(decoded)
}

func (Base64) Reversible() bool { return true }

// Slug folds accented characters to ASCII, strips anything outside
// [A-Za-z0-9_\s-], collapses whitespace/hyphen runs to a single underscore
// and lowercases. Lossy: distinct names can collapse to the same identifier,
// so display names must be carried separately by the backend.
type Slug struct{}

var (
	// NFD + strip combining marks handles the decomposable accents.
	slugFold = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

	// Letters that do not decompose to base + combining mark.
	slugReplacer = strings.NewReplacer(
		"đ", "d", "Đ", "D",
		"ø", "o", "Ø", "O",
		"ł", "l", "Ł", "L",
		"ß", "ss",
		"æ", "ae", "Æ", "AE",
		"œ", "oe", "Œ", "OE",
	)

	slugStrip    = regexp.MustCompile(`[^A-Za-z0-9_\s-]+`)
	slugCollapse = regexp.MustCompile(`[\s-]+`)
)

func (Slug) Encode(name string) string {
	folded, _, err := transform.String(slugFold, name)
	if err != nil {
		folded = name
	}
	folded = slugReplacer.Replace(folded)
	s := slugStrip.ReplaceAllString(folded, "")
	s = strings.TrimSpace(s)
	s = slugCollapse.ReplaceAllString(s, "_")
	return strings.ToLower(s)
}

func (Slug) Decode(id string) string { return id }
func (Slug) Reversible() bool        { return false }
