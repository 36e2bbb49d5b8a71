package openapi

import (
	"context"
	_ "embed"
	"fmt"
	"sync"

	"github.com/arkaft-labs/arkaft-mcp-google-adk/internal/mcp/contracts"
	"github.com/getkin/kin-openapi/openapi3"
)

//go:embed arkaft.yaml
var embeddedSpec []byte

var (
	embeddedOnce sync.Once
	embeddedOps  []contracts.OperationDescriptor
	embeddedErr  error
)

// LoadData parses and validates an OpenAPI document.
func LoadData(data []byte) (*openapi3.T, error) {
	loader := openapi3.NewLoader()
	doc, err := loader.LoadFromData(data)
	if err != nil {
		return nil, fmt.Errorf("load openapi spec: %w", err)
	}
	if err := doc.Validate(context.Background()); err != nil {
		return nil, fmt.Errorf("validate openapi spec: %w", err)
	}
	return doc, nil
}

// Operations returns the descriptors of the embedded tool document. The
// document is parsed once.
func Operations() ([]contracts.OperationDescriptor, error) {
	embeddedOnce.Do(func() {
		doc, err := LoadData(embeddedSpec)
		if err != nil {
			embeddedErr = err
			return
		}
		embeddedOps, embeddedErr = Convert(doc)
	})
	if embeddedErr != nil {
		return nil, embeddedErr
	}
	out := make([]contracts.OperationDescriptor, len(embeddedOps))
	copy(out, embeddedOps)
	return out, nil
}
