// Package apiv1 loads the published OpenAPI document and checks it against
// the routes the server actually registers.
package apiv1

import (
	"context"
	"fmt"
	"net/http"
	"regexp"
	"sort"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/gofiber/fiber/v2"
)

var fiberParam = regexp.MustCompile(`:([A-Za-z0-9_]+)`)

// methodUse mirrors fiber's unexported method name for middleware routes.
const methodUse = "USE"

// Load reads and validates the document at path.
func Load(ctx context.Context, path string) (*openapi3.T, error) {
	loader := openapi3.NewLoader()
	loader.Context = ctx

	doc, err := loader.LoadFromFile(path)
	if err != nil {
		return nil, fmt.Errorf("load openapi document: %w", err)
	}
	if err := doc.Validate(ctx); err != nil {
		return nil, fmt.Errorf("validate openapi document: %w", err)
	}
	return doc, nil
}

// OpenAPIPath turns "/beats/:id" into "/beats/{id}".
func OpenAPIPath(fiberPath string) string {
	return fiberParam.ReplaceAllString(fiberPath, "{$1}")
}

// Documents reports whether doc describes method on the fiber route path.
func Documents(doc *openapi3.T, method, fiberPath string) bool {
	item := doc.Paths.Find(OpenAPIPath(fiberPath))
	if item == nil {
		return false
	}
	return item.GetOperation(strings.ToUpper(method)) != nil
}

// Undocumented lists "METHOD path" for every registered API route the
// document does not describe. Docs, HEAD and middleware-only entries are skipped.
func Undocumented(doc *openapi3.T, routes []fiber.Route) []string {
	seen := map[string]bool{}
	var missing []string
	for _, r := range routes {
		if r.Method == http.MethodHead || r.Method == methodUse || strings.HasPrefix(r.Path, "/docs") {
			continue
		}
		if len(r.Handlers) == 0 || r.Path == "/" || strings.HasSuffix(r.Path, "*") {
			continue
		}
		key := r.Method + " " + r.Path
		if seen[key] {
			continue
		}
		seen[key] = true
		if !Documents(doc, r.Method, r.Path) {
			missing = append(missing, key)
		}
	}
	sort.Strings(missing)
	return missing
}
