package defaults

import (
	"github.com/MrSnakeDoc/snoozzd/internal/domain"
)

// Seed returns the factory options, overlaid with the file at path when set.
func Seed(path string) (domain.Options, error) {
	base := domain.DefaultOptions()
	if path == "" {
		return base, nil
	}

	f, err := NewLoader(path).Load()
	if err != nil {
		return base, err
	}
	return NewMapper().MapOptions(f, base)
}
