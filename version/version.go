// Package version derives semantic versions from git tags: bumping and
// signing release tags, rendering "git describe" output as semver build
// metadata and keeping a version file in sync with it.
package version

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var (
	// ErrInvalidSpecial is returned for a pre-release suffix that does not
	// start with a lowercase letter followed by letters, digits or '_'.
	ErrInvalidSpecial = errors.New("invalid special suffix")

	// ErrUnknownLevel is returned for a bump level other than major, minor or patch.
	ErrUnknownLevel = errors.New("unknown bump level")

	// ErrInvalidVersion is returned when a tag does not start with three numbers.
	ErrInvalidVersion = errors.New("invalid version")
)

var (
	specialRe  = regexp.MustCompile(`^[a-z][_a-zA-Z0-9]*$`)
	nonDigitRe = regexp.MustCompile(`\D`)
	describeRe = regexp.MustCompile(`^(.+)-(\d+)-g([0-9a-f]+)$`)
	vDigitRe   = regexp.MustCompile(`^v[0-9]`)
)

// Level selects which component Bump increments.
type Level int

const (
	Patch Level = iota
	Minor
	Major
)

func (l Level) String() string {
	switch l {
	case Patch:
		return "patch"
	case Minor:
		return "minor"
	case Major:
		return "major"
	default:
		return fmt.Sprintf("Level(%d)", int(l))
	}
}

// ParseLevel parses "major", "minor" or "patch", ignoring case.
func ParseLevel(s string) (Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "patch":
		return Patch, nil
	case "minor":
		return Minor, nil
	case "major":
		return Major, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownLevel, s)
	}
}

// Version is a semantic version with an optional pre-release suffix appended
// directly to the patch number, e.g. 1.4.0rc1.
type Version struct {
	Major   int
	Minor   int
	Patch   int
	Special string

	// Prefix is prepended by Tag, usually "v" or empty.
	Prefix string
}

// Parse reads a tag such as "v1.2.3" or "1.2.3-rc1". A leading "v" is kept in
// Prefix; the first three runs of digits become Major, Minor and Patch.
func Parse(tag string) (Version, error) {
	var v Version

	s := strings.TrimSpace(tag)
	if strings.HasPrefix(s, "v") {
		v.Prefix = "v"
		s = s[1:]
	}

	parts := nonDigitRe.Split(s, 4)
	if len(parts) < 3 {
		return Version{}, fmt.Errorf("%w: %q", ErrInvalidVersion, tag)
	}

	nums := make([]int, 3)

	for i, p := range parts[:3] {
		n, err := strconv.Atoi(p)
		if err != nil {
			return Version{}, fmt.Errorf("%w: %q", ErrInvalidVersion, tag)
		}

		nums[i] = n
	}

	v.Major, v.Minor, v.Patch = nums[0], nums[1], nums[2]

	return v, nil
}

// String returns "major.minor.patch" followed by the special suffix.
func (v Version) String() string {
	return fmt.Sprintf("%d.%d.%d%s", v.Major, v.Minor, v.Patch, v.Special)
}

// Tag returns the git tag name for v.
func (v Version) Tag() string {
	return v.Prefix + v.String()
}

// Bump increments the component named by level, resetting the lower ones and
// clearing Special.
func Bump(v Version, level Level) (Version, error) {
	v.Special = ""

	switch level {
	case Major:
		v.Major, v.Minor, v.Patch = v.Major+1, 0, 0
	case Minor:
		v.Minor, v.Patch = v.Minor+1, 0
	case Patch:
		v.Patch++
	default:
		return Version{}, fmt.Errorf("%w: %s", ErrUnknownLevel, level)
	}

	return v, nil
}

// ValidateSpecial checks a pre-release suffix. The empty suffix is valid.
func ValidateSpecial(special string) error {
	if special == "" || specialRe.MatchString(special) {
		return nil
	}

	return fmt.Errorf("%w: %q must start with a-z and contain only [_a-zA-Z0-9]", ErrInvalidSpecial, special)
}

// RewriteDescribe turns "git describe --tags" output into a semver string:
// a leading "v" before a digit is dropped and "1.2.3-4-gabcde" becomes
// "1.2.3+4-abcde". Output exactly on a tag is returned without the "v".
func RewriteDescribe(s string) string {
	s = strings.TrimSpace(s)
	if vDigitRe.MatchString(s) {
		s = s[1:]
	}

	if m := describeRe.FindStringSubmatch(s); m != nil {
		return m[1] + "+" + m[2] + "-" + m[3]
	}

	return s
}
