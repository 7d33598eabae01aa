package validation

import "fmt"

// Job-variable schemas. Fractions are 0-1, money is local currency.

// feasibilityInputsDefinition renders the shared inputs definition. Evaluation
// accepts rooms of 0 so partial inputs reach the completeness scoring.
func feasibilityInputsDefinition(minRooms int) string {
	return fmt.Sprintf(feasibilityInputsTemplate, minRooms)
}

const feasibilityInputsTemplate = `
"feasibilityInputs": {
  "type": "object",
  "required": ["rooms"],
  "properties": {
    "rooms":           {"type": "integer", "minimum": %d, "maximum": 5000},
    "segment":         {"type": "string"},
    "openingType":     {"type": "string"},
    "adr":             {"type": "number", "minimum": 0},
    "occupancy":       {"type": "number", "minimum": 0, "maximum": 1},
    "fnbRevenuePct":   {"type": "number", "minimum": 0, "maximum": 5},
    "otherRevenuePct": {"type": "number", "minimum": 0, "maximum": 5},
    "rampUpYears":     {"type": "integer", "minimum": 0, "maximum": 10},
    "capexPerKey":     {"type": "number", "minimum": 0},
    "ffePerKey":       {"type": "number", "minimum": 0},
    "baseFee":         {"type": "number", "minimum": 0, "maximum": 1},
    "incentiveFee":    {"type": "number", "minimum": 0, "maximum": 1},
    "royaltyPct":      {"type": "number", "minimum": 0, "maximum": 1},
    "marketingPct":    {"type": "number", "minimum": 0, "maximum": 1},
    "distributionPct": {"type": "number", "minimum": 0, "maximum": 1},
    "gopMargin":       {"type": "number", "minimum": -1, "maximum": 1},
    "fxRate":          {"type": "number", "minimum": 0},
    "keyMoney":        {"type": "number", "minimum": 0},
    "debtEnabled":     {"type": "boolean"},
    "ltv":             {"type": "number", "minimum": 0, "maximum": 1},
    "interestRate":    {"type": "number", "minimum": 0, "maximum": 1},
    "capRate":         {"type": "number", "minimum": 0, "maximum": 1}
  }
}`

const contractTypeProperty = `"contractType": {"type": "string", "enum": ["", "management", "franchise"]}`

// ComputeFeasibilitySchema guards compute-feasibility job variables.
var ComputeFeasibilitySchema = MustCompile("compute-feasibility", `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["inputs"],
  "properties": {
    "dealId": {"type": "string"},
    `+contractTypeProperty+`,
    "inputs": {"$ref": "#/definitions/feasibilityInputs"}
  },
  "definitions": {`+feasibilityInputsDefinition(1)+`}
}`)

// EvaluateICDecisionSchema guards evaluate-ic-decision job variables. Inputs are
// optional there since they can be loaded from the deal record.
var EvaluateICDecisionSchema = MustCompile("evaluate-ic-decision", `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["dealId"],
  "properties": {
    "dealId":       {"type": "string", "minLength": 1},
    "deal":         {"type": ["object", "null"]},
    `+contractTypeProperty+`,
    "contactCount": {"type": "integer", "minimum": 0},
    "thresholds":   {"type": ["object", "null"]},
    "refreshCache": {"type": "boolean"},
    "inputs":       {"oneOf": [{"type": "null"}, {"$ref": "#/definitions/feasibilityInputs"}]}
  },
  "definitions": {`+feasibilityInputsDefinition(0)+`}
}`)

// HeatmapSchema guards generate-sensitivity-heatmap job variables.
var HeatmapSchema = MustCompile("generate-sensitivity-heatmap", `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["inputs"],
  "properties": {
    `+contractTypeProperty+`,
    "metric": {"type": "string"},
    "inputs": {
      "allOf": [
        {"$ref": "#/definitions/feasibilityInputs"},
        {"required": ["adr"], "properties": {"adr": {"exclusiveMinimum": 0}}}
      ]
    }
  },
  "definitions": {`+feasibilityInputsDefinition(1)+`}
}`)
