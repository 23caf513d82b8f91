package httpapi

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
)

func decodeJSON(r *http.Request, v interface{}) error {
	ct := r.Header.Get("Content-Type")
	if !strings.HasPrefix(strings.ToLower(ct), "application/json") {
		return fmt.Errorf("expected application/json")
	}
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}
