package assets

import (
	"fmt"
	"strings"
)

// ValidateAssetName checks that name can be used as a bare file name stem.
// Path separators and dots are rejected, which also rules out traversal
// and extension tricks.
func ValidateAssetName(name string) error {
	if name == "" {
		return fmt.Errorf("%w: empty name", ErrInvalidAssetName)
	}
	if strings.ContainsAny(name, "/\\.") {
		return fmt.Errorf("%w: %q", ErrInvalidAssetName, name)
	}
	return nil
}
