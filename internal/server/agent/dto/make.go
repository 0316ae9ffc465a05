package dto

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// Params are the KEY=value arguments of a dispatch. Numbers and booleans are
// accepted and kept in their JSON text form.
type Params map[string]string

func (p *Params) UnmarshalJSON(b []byte) error {
	var raw map[string]interface{}
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	out := make(Params, len(raw))
	for k, v := range raw {
		switch val := v.(type) {
		case string:
			out[k] = val
		case float64:
			out[k] = strconv.FormatFloat(val, 'f', -1, 64)
		case bool:
			out[k] = strconv.FormatBool(val)
		case nil:
		default:
			return fmt.Errorf("param %q: unsupported value type %T", k, v)
		}
	}
	*p = out
	return nil
}

type MakeRequest struct {
	Target string `json:"target" validate:"required,max=64,targetname"`
	Params Params `json:"params"`
}

type MakeResponse struct {
	RunID string `json:"run_id,omitempty"`
}
