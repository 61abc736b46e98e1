package jsonld

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/piprate/json-gold/ld"
)

var ErrInvalidDocument = errors.New("invalid JSON-LD document")

// Serializer compacts documents against versioned contexts and renders
// them as N-Quads.
type Serializer struct {
	loader  *ContextLoader
	version string
}

// NewSerializer constructs a serializer with the provided context loader.
func NewSerializer(loader *ContextLoader) *Serializer {
	if loader == nil {
		loader = defaultLoader
	}
	return &Serializer{loader: loader, version: DefaultContextVersion}
}

// Compact embeds the context in document, then compacts it with json-gold.
// document may be any value that marshals to a JSON object.
func (s *Serializer) Compact(document any) (map[string]any, error) {
	ctx, input, err := s.prepare(document)
	if err != nil {
		return nil, err
	}

	opts := ld.NewJsonLdOptions("")
	opts.CompactArrays = true

	result, err := ld.NewJsonLdProcessor().Compact(input, ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("compact: %w", err)
	}
	if len(result) == 0 {
		return nil, ErrInvalidDocument
	}
	return result, nil
}

// NQuads renders the document as canonical N-Quads.
func (s *Serializer) NQuads(document any) (string, error) {
	_, input, err := s.prepare(document)
	if err != nil {
		return "", err
	}

	opts := ld.NewJsonLdOptions("")
	opts.Format = "application/n-quads"
	opts.Algorithm = ld.AlgorithmURDNA2015

	result, err := ld.NewJsonLdProcessor().Normalize(input, opts)
	if err != nil {
		return "", fmt.Errorf("normalize: %w", err)
	}
	quads, ok := result.(string)
	if !ok {
		return "", ErrInvalidDocument
	}
	return quads, nil
}

func (s *Serializer) prepare(document any) (any, map[string]any, error) {
	ctxDoc, err := s.loader.Load(s.version)
	if err != nil {
		return nil, nil, err
	}
	ctx, err := extractContext(ctxDoc)
	if err != nil {
		return nil, nil, err
	}

	raw, err := json.Marshal(document)
	if err != nil {
		return nil, nil, fmt.Errorf("marshal document: %w", err)
	}
	var input map[string]any
	if err := json.Unmarshal(raw, &input); err != nil || input == nil {
		return nil, nil, ErrInvalidDocument
	}
	input["@context"] = ctx
	return ctx, input, nil
}
