package subject

import (
	"fmt"
	"strings"

	"github.com/san-kum/pbpksim/internal/dynamo"
	"gopkg.in/yaml.v3"
)

// Sex selects the reference anatomy used for scaling.
type Sex int

const (
	Female Sex = iota
	Male
)

func (s Sex) String() string {
	switch s {
	case Male:
		return "male"
	case Female:
		return "female"
	default:
		return fmt.Sprintf("Sex(%d)", int(s))
	}
}

func (s Sex) Valid() bool { return s == Male || s == Female }

// ParseSex accepts male/female, m/f and the chromosomal xy/xx forms.
func ParseSex(v string) (Sex, error) {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "m", "male", "xy":
		return Male, nil
	case "f", "female", "xx":
		return Female, nil
	}
	return 0, fmt.Errorf("%w: %q", dynamo.ErrUnsupportedSex, v)
}

// SexFromFlag maps a numeric flag to a Sex, non-zero meaning male.
func SexFromFlag(v float64) Sex {
	if v != 0 {
		return Male
	}
	return Female
}

func (s Sex) MarshalYAML() (any, error) {
	if !s.Valid() {
		return nil, fmt.Errorf("%w: %d", dynamo.ErrUnsupportedSex, int(s))
	}
	return s.String(), nil
}

func (s *Sex) UnmarshalYAML(node *yaml.Node) error {
	parsed, err := ParseSex(node.Value)
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}
