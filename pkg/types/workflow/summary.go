package workflow

import "github.com/invopop/jsonschema"

// Summary is the outcome of analysing one video end to end
type Summary struct {
	RunID           string            `json:"run_id"`
	VideoPath       string            `json:"video_path"`
	TotalFrames     int               `json:"total_frames"`
	TotalDurationMS int64             `json:"total_duration_ms"`
	Analyses        []Action          `json:"analyses"`
	Narrative       string            `json:"summary"`
	Scripts         map[string]string `json:"scripts,omitempty"`
}

// DurationSeconds returns the duration covered by the kept frames
func (s *Summary) DurationSeconds() float64 {
	return float64(s.TotalDurationMS) / 1000
}

// ActionsSchema returns the JSON schema of an analyses.json document
func ActionsSchema() *jsonschema.Schema {
	reflector := jsonschema.Reflector{
		AllowAdditionalProperties: false,
		DoNotReference:            true,
	}
	return reflector.Reflect(&[]Action{})
}
