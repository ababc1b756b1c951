package api

import (
	"embed"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/qri-io/jsonschema"

	"github.com/garnizeh/fixmate/internal/apperr"
)

//go:embed schemas/*.json
var schemaFS embed.FS

const maxBodyBytes = 1 << 20

var schemas = map[string]*jsonschema.Schema{}

func init() {
	entries, err := schemaFS.ReadDir("schemas")
	if err != nil {
		panic(err)
	}
	for _, e := range entries {
		raw, err := schemaFS.ReadFile("schemas/" + e.Name())
		if err != nil {
			panic(err)
		}
		rs := &jsonschema.Schema{}
		if err := json.Unmarshal(raw, rs); err != nil {
			panic(fmt.Sprintf("schema %s: %v", e.Name(), err))
		}
		schemas[strings.TrimSuffix(e.Name(), ".json")] = rs
	}
}

// decodeBody validates the request body against the named schema and then
// decodes it into dst.
func decodeBody(r *http.Request, schema string, dst any) error {
	op := "api.decode." + schema

	rs, ok := schemas[schema]
	if !ok {
		return apperr.Storage(op, fmt.Errorf("unknown schema %q", schema))
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		return apperr.Validation(op, "could not read request body")
	}
	if !json.Valid(body) {
		return apperr.Validation(op, "request body must be valid JSON")
	}

	keyErrs, err := rs.ValidateBytes(r.Context(), body)
	if err != nil {
		return apperr.Validation(op, err.Error())
	}
	if len(keyErrs) > 0 {
		msgs := make([]string, 0, len(keyErrs))
		for _, ke := range keyErrs {
			msgs = append(msgs, ke.Error())
		}
		return apperr.Validation(op, strings.Join(msgs, "; "))
	}

	if err := json.Unmarshal(body, dst); err != nil {
		return apperr.Validation(op, "request body does not match the expected shape")
	}
	return nil
}
