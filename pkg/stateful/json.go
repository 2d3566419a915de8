package stateful

import "encoding/json"

// parseJSONLoose parses body as JSON into an interface{}, returning a nil
// value (not an error-worthy condition) when body is empty. A parse failure
// is returned as an error so callers can treat "body not JSON" as a failed
// extraction rather than a crash, matching the predicate-safety invariant
// elsewhere in this spec.
func parseJSONLoose(body []byte) (interface{}, error) {
	if len(body) == 0 {
		return nil, nil
	}
	var v interface{}
	if err := json.Unmarshal(body, &v); err != nil {
		return nil, err
	}
	return v, nil
}
