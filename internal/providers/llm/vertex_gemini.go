package llm

import (
	"context"
	"errors"

	vertexgenai "cloud.google.com/go/vertexai/genai"
)

type VertexGemini struct {
	client *vertexgenai.Client
	model  string
}

func NewVertexGemini(ctx context.Context, projectID, location, modelName string) (*VertexGemini, error) {
	c, err := vertexgenai.NewClient(ctx, projectID, location)
	if err != nil {
		return nil, err
	}

	if modelName == "" {
		modelName = "gemini-2.0-flash-001"
	}

	return &VertexGemini{client: c, model: modelName}, nil
}

func (v *VertexGemini) Close() error { return v.client.Close() }

// newModel builds a fresh model handle per call so that system instructions
// and generation config never leak between concurrent requests.
func (v *VertexGemini) newModel(system string) *vertexgenai.GenerativeModel {
	m := v.client.GenerativeModel(v.model)
	if system != "" {
		m.SystemInstruction = &vertexgenai.Content{
			Parts: []vertexgenai.Part{vertexgenai.Text(system)},
		}
	}
	return m
}

func (v *VertexGemini) GenerateText(ctx context.Context, system, prompt string) (string, error) {
	m := v.newModel(system)

	resp, err := m.GenerateContent(ctx, vertexgenai.Text(prompt))
	if err != nil {
		return "", err
	}
	return firstText(resp)
}

func (v *VertexGemini) GenerateObject(ctx context.Context, system, prompt string, schema *Schema) ([]byte, error) {
	m := v.newModel(system)
	m.GenerationConfig.ResponseMIMEType = "application/json"
	m.GenerationConfig.ResponseSchema = toVertexSchema(schema)

	resp, err := m.GenerateContent(ctx, vertexgenai.Text(prompt))
	if err != nil {
		return nil, err
	}

	text, err := firstText(resp)
	if err != nil {
		return nil, err
	}
	return []byte(text), nil
}

func firstText(resp *vertexgenai.GenerateContentResponse) (string, error) {
	for _, cand := range resp.Candidates {
		if cand.Content == nil {
			continue
		}
		for _, part := range cand.Content.Parts {
			if t, ok := part.(vertexgenai.Text); ok && string(t) != "" {
				return string(t), nil
			}
		}
	}
	return "", errors.New("empty model response")
}

func toVertexSchema(s *Schema) *vertexgenai.Schema {
	if s == nil {
		return nil
	}

	out := &vertexgenai.Schema{Required: s.Required}
	switch s.Type {
	case TypeObject:
		out.Type = vertexgenai.TypeObject
	case TypeArray:
		out.Type = vertexgenai.TypeArray
	case TypeString:
		out.Type = vertexgenai.TypeString
	case TypeInteger:
		out.Type = vertexgenai.TypeInteger
	}

	if len(s.Properties) > 0 {
		out.Properties = make(map[string]*vertexgenai.Schema, len(s.Properties))
		for k, p := range s.Properties {
			out.Properties[k] = toVertexSchema(p)
		}
	}
	if s.Items != nil {
		out.Items = toVertexSchema(s.Items)
	}
	return out
}
