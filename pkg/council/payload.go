package council

import (
	"encoding/json"
	"regexp"
	"strings"
)

// DefaultTask labels a council run when the caller did not name one.
const DefaultTask = "执行专家委员会分析"

// Payload is the normalized input of a council run extracted from raw text.
type Payload struct {
	Task          string
	Context       string
	ExpertOutputs map[Role]string
}

var fencedBlockRe = regexp.MustCompile("(?s)```(?:json)?\n(.*?)```")

// ExtractPayload mines a raw text blob for a council payload. The text may be
// a bare JSON object or contain one inside a fenced code block. Returns nil
// when no candidate parses into a usable payload; malformed JSON is treated
// as "no usable payload", never as an error.
func ExtractPayload(raw string) *Payload {
	for _, candidate := range payloadCandidates(raw) {
		var obj map[string]any
		if err := json.Unmarshal([]byte(candidate), &obj); err != nil {
			continue
		}
		if payload := payloadFromObject(obj); payload != nil {
			return payload
		}
	}
	return nil
}

// payloadCandidates lists the JSON extraction strategies in priority order:
// the whole trimmed string if it looks like an object, then each fenced block.
func payloadCandidates(raw string) []string {
	var candidates []string

	stripped := strings.TrimSpace(raw)
	if strings.HasPrefix(stripped, "{") && strings.HasSuffix(stripped, "}") {
		candidates = append(candidates, stripped)
	}

	for _, match := range fencedBlockRe.FindAllStringSubmatch(raw, -1) {
		candidates = append(candidates, strings.TrimSpace(match[1]))
	}

	return candidates
}

func payloadFromObject(obj map[string]any) *Payload {
	outputs := map[Role]string{}

	if rawOutputs, ok := obj["expert_outputs"].(map[string]any); ok {
		for key, value := range rawOutputs {
			if text := normalizeOutput(value); text != "" {
				outputs[Role(key)] = text
			}
		}
	} else {
		// Fallback: role-named top-level keys.
		for _, role := range ExpectedExperts {
			if text := normalizeOutput(obj[string(role)]); text != "" {
				outputs[role] = text
			}
		}
	}

	if len(outputs) == 0 {
		return nil
	}

	return &Payload{
		Task:          stringField(obj, DefaultTask, "task", "analysis_task"),
		Context:       stringField(obj, "", "context", "news_pack", "input"),
		ExpertOutputs: outputs,
	}
}

// normalizeOutput coerces a JSON value to text. Non-string values are
// re-serialized so structured expert outputs survive as JSON text.
func normalizeOutput(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	default:
		encoded, err := json.Marshal(v)
		if err != nil {
			return ""
		}
		return string(encoded)
	}
}

func stringField(obj map[string]any, fallback string, keys ...string) string {
	for _, key := range keys {
		if s, ok := obj[key].(string); ok && s != "" {
			return s
		}
	}
	return fallback
}
