package judgementschema

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

//go:embed judgement.schema.json
var judgementSchemaJSON string

// ModelJudgement is the structured reply requested from the AI model.
type ModelJudgement struct {
	Relevant          bool     `json:"relevant"`
	RiskCodes         []string `json:"risk_codes"`
	Confidence        float64  `json:"confidence"`
	LikelihoodChange  int      `json:"likelihood_change"`
	Reasoning         string   `json:"reasoning"`
	ImpactAssessment  string   `json:"impact_assessment"`
	SuggestedControls []string `json:"suggested_controls"`
}

var (
	compileOnce       sync.Once
	compiledSchema    *jsonschema.Schema
	compiledSchemaErr error
)

// ValidateJudgementPayload parses and schema-validates a model reply. Model
// output is untrusted input: anything that fails the schema is rejected and
// the caller falls back to the deterministic keyword path.
func ValidateJudgementPayload(payload []byte) (*ModelJudgement, error) {
	extracted := ExtractJSON(payload)
	if len(extracted) == 0 {
		return nil, fmt.Errorf("reply contains no JSON object")
	}

	value, err := decodeStrictJSON(extracted)
	if err != nil {
		return nil, fmt.Errorf("decode reply JSON: %w", err)
	}

	schema, err := loadSchema()
	if err != nil {
		return nil, fmt.Errorf("load schema: %w", err)
	}

	if err := schema.Validate(value); err != nil {
		return nil, fmt.Errorf("schema validation failed: %w", err)
	}

	normalized, err := json.Marshal(value)
	if err != nil {
		return nil, fmt.Errorf("normalize reply JSON: %w", err)
	}

	var judgement ModelJudgement
	if err := json.Unmarshal(normalized, &judgement); err != nil {
		return nil, fmt.Errorf("unmarshal reply: %w", err)
	}

	judgement.RiskCodes = trimAll(judgement.RiskCodes)
	judgement.SuggestedControls = trimAll(judgement.SuggestedControls)
	judgement.Reasoning = strings.TrimSpace(judgement.Reasoning)
	judgement.ImpactAssessment = strings.TrimSpace(judgement.ImpactAssessment)

	return &judgement, nil
}

// ExtractJSON returns the outermost JSON object in a reply, tolerating
// markdown fences and prose around it.
func ExtractJSON(payload []byte) []byte {
	start := bytes.IndexByte(payload, '{')
	end := bytes.LastIndexByte(payload, '}')
	if start < 0 || end < start {
		return nil
	}
	return payload[start : end+1]
}

func loadSchema() (*jsonschema.Schema, error) {
	compileOnce.Do(func() {
		compiler := jsonschema.NewCompiler()
		compiler.Draft = jsonschema.Draft2020
		compiler.AssertFormat = true

		if err := compiler.AddResource("judgement.schema.json", strings.NewReader(judgementSchemaJSON)); err != nil {
			compiledSchemaErr = fmt.Errorf("add schema resource: %w", err)
			return
		}

		schema, err := compiler.Compile("judgement.schema.json")
		if err != nil {
			compiledSchemaErr = fmt.Errorf("compile schema: %w", err)
			return
		}

		compiledSchema = schema
	})

	if compiledSchemaErr != nil {
		return nil, compiledSchemaErr
	}
	if compiledSchema == nil {
		return nil, fmt.Errorf("schema not initialized")
	}
	return compiledSchema, nil
}

func decodeStrictJSON(payload []byte) (any, error) {
	decoder := json.NewDecoder(bytes.NewReader(payload))
	decoder.UseNumber()

	var value any
	if err := decoder.Decode(&value); err != nil {
		return nil, err
	}
	if err := decoder.Decode(&struct{}{}); err != io.EOF {
		return nil, fmt.Errorf("JSON contains trailing content")
	}
	return value, nil
}

func trimAll(values []string) []string {
	kept := make([]string, 0, len(values))
	for _, v := range values {
		trimmed := strings.TrimSpace(v)
		if trimmed == "" {
			continue
		}
		kept = append(kept, trimmed)
	}
	return kept
}
