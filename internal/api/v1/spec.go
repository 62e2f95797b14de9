package apiv1

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"

	"github.com/ManuelReschke/Paywall/internal/pkg/constants"
)

// FindBasePath walks up from the working directory until it finds the
// OpenAPI document, so binaries and tests resolve the same project root.
func FindBasePath() (string, error) {
	basePaths := []string{
		"./",        // Current directory
		"../../",    // From cmd/paywall to project root
		"../../../", // From internal/api/v1
	}
	for _, path := range basePaths {
		if _, err := os.Stat(filepath.Join(path, constants.OpenAPIFile)); err == nil {
			return path, nil
		}
	}
	return "", fmt.Errorf("could not find %s", constants.OpenAPIFile)
}

// LoadSpec parses and validates the OpenAPI document at path
func LoadSpec(ctx context.Context, path string) (*openapi3.T, error) {
	loader := openapi3.NewLoader()
	loader.Context = ctx
	doc, err := loader.LoadFromFile(path)
	if err != nil {
		return nil, fmt.Errorf("load openapi %s: %w", path, err)
	}
	if err := doc.Validate(ctx); err != nil {
		return nil, fmt.Errorf("validate openapi %s: %w", path, err)
	}
	return doc, nil
}

// OpenAPIPath converts a fiber route such as /unlock/:type into the
// OpenAPI template /unlock/{type}.
func OpenAPIPath(route string) string {
	segments := strings.Split(route, "/")
	for i, s := range segments {
		if strings.HasPrefix(s, ":") {
			segments[i] = "{" + strings.TrimSuffix(strings.TrimPrefix(s, ":"), "?") + "}"
		}
	}
	path := strings.Join(segments, "/")
	if len(path) > 1 {
		path = strings.TrimSuffix(path, "/")
	}
	return path
}

// Documents reports whether doc describes method on the fiber route
func Documents(doc *openapi3.T, method, route string) bool {
	if doc == nil || doc.Paths == nil {
		return false
	}
	item := doc.Paths.Value(OpenAPIPath(route))
	if item == nil {
		return false
	}
	return item.GetOperation(strings.ToUpper(method)) != nil
}
