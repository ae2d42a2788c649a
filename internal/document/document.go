// Package document defines the typed schema for Port entity descriptor files
// and parses YAML streams into validated documents.
package document

import (
	"errors"
	"fmt"
	"io"
	"os"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	interrors "github.com/port-tools/portcheck/internal/errors"
)

// Entity identifies a single record in the remote catalog.
type Entity struct {
	Identifier string `yaml:"identifier" validate:"required"`
	Blueprint  string `yaml:"blueprint"  validate:"required"`
}

// Document is the validated content of one YAML document within a file:
// the entity reference to update, plus the properties and relations to apply.
type Document struct {
	Entity     Entity         `yaml:"entity"     validate:"required"`
	Properties map[string]any `yaml:"properties"`
	Relations  map[string]any `yaml:"relations"`

	index int
	raw   map[string]any
}

// Index is the zero-based position of the document within its file's stream.
func (d Document) Index() int {
	return d.index
}

// Raw is the decoded document payload, preserved for the remote dry-run call.
func (d Document) Raw() map[string]any {
	return d.raw
}

var shapeValidator = newShapeValidator()

// newShapeValidator builds a validator that reports field names using their
// YAML tags, so shape errors name the key the author actually wrote.
func newShapeValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("yaml"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// ParseFile reads a YAML file and returns every well-shaped document in it,
// alongside one error per document that failed parsing or shape validation.
// A malformed document does not block validation of its siblings, but a
// syntax error makes the remainder of the stream unreadable and ends parsing.
func ParseFile(path string) ([]Document, []error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, []error{fmt.Errorf("%w: cannot read file: %w", interrors.ErrShapeValidation, err)}
	}
	defer f.Close()

	return Parse(f)
}

// Parse decodes a YAML stream (single or multi-document) from r.
func Parse(r io.Reader) ([]Document, []error) {
	var (
		docs    []Document
		errs    []error
		decoder = yaml.NewDecoder(r)
	)

	for index := 0; ; index++ {
		var node yaml.Node
		if err := decoder.Decode(&node); err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			// The decoder cannot recover its position after a syntax error.
			errs = append(errs, fmt.Errorf(
				"%w: document %d: YAML parse error: %w",
				interrors.ErrShapeValidation, index, err,
			))
			break
		}

		// Skip explicitly empty documents (e.g. a trailing '---').
		if isEmpty(&node) {
			continue
		}

		doc, err := decode(&node, index)
		if err != nil {
			errs = append(errs, err)
			continue
		}

		docs = append(docs, doc)
	}

	// A file with no documents at all (empty, comments-only, or a lone null)
	// carries nothing to validate and is reported, not silently passed.
	if len(docs) == 0 && len(errs) == 0 {
		errs = append(errs, fmt.Errorf(
			"%w: file contains no YAML documents",
			interrors.ErrShapeValidation,
		))
	}

	return docs, errs
}

// isEmpty reports whether a decoded stream node holds no content.
// The decoder wraps each document's root in a DocumentNode.
func isEmpty(node *yaml.Node) bool {
	switch node.Kind {
	case 0:
		return true
	case yaml.DocumentNode:
		return len(node.Content) == 0 || isEmpty(node.Content[0])
	case yaml.ScalarNode:
		return node.Tag == "!!null"
	default:
		return false
	}
}

// decode converts one YAML document node into a shape-validated Document.
func decode(node *yaml.Node, index int) (Document, error) {
	var doc Document
	if err := node.Decode(&doc); err != nil {
		return Document{}, fmt.Errorf(
			"%w: document %d: %w",
			interrors.ErrShapeValidation, index, err,
		)
	}

	var raw map[string]any
	if err := node.Decode(&raw); err != nil {
		return Document{}, fmt.Errorf(
			"%w: document %d: expected a mapping at the top level: %w",
			interrors.ErrShapeValidation, index, err,
		)
	}

	doc.index = index
	doc.raw = raw

	if err := shapeValidator.Struct(doc); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) {
			fields := make([]string, 0, len(fieldErrs))
			for _, fe := range fieldErrs {
				fields = append(fields, yamlPath(fe))
			}
			return Document{}, fmt.Errorf(
				"%w: document %d: missing or empty required field(s): %s",
				interrors.ErrShapeValidation, index, strings.Join(fields, ", "),
			)
		}
		return Document{}, fmt.Errorf("%w: document %d: %w", interrors.ErrShapeValidation, index, err)
	}

	return doc, nil
}

// yamlPath rewrites a validator namespace like "Document.entity.identifier"
// into the dotted YAML path the author sees ("entity.identifier").
func yamlPath(fe validator.FieldError) string {
	path := fe.Namespace()
	if i := strings.Index(path, "."); i >= 0 {
		path = path[i+1:]
	}
	return path
}
