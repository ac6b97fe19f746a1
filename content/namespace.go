package content

import (
	"fmt"
	"strings"

	"github.com/google/uuid"

	"rtc/richtext"
)

// Namespace returns class name namespace for given name. When nothing usable
// is left after sanitizing, unique one is generated.
func Namespace(name string) (string, error) {
	if ns := richtext.SanitizeNamespace(name); ns != "" {
		return ns, nil
	}
	id, err := uuid.NewV7()
	if err != nil {
		return "", fmt.Errorf("unable to generate namespace: %w", err)
	}
	return strings.ReplaceAll(id.String(), "-", ""), nil
}
