package oracle

import (
	"bytes"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/dgallion1/matclass/internal/hierarchy"
	"github.com/santhosh-tekuri/jsonschema/v5"
)

const answerSchemaURL = "mem://matclass/decision.json"

const answerSchema = `{
  "type": "object",
  "required": ["codigo_escolhido"],
  "properties": {
    "codigo_escolhido": {"type": ["string", "integer", "null"]}
  }
}`

var answerSchemaCompiled = mustCompileAnswerSchema()

func mustCompileAnswerSchema() *jsonschema.Schema {
	c := jsonschema.NewCompiler()
	c.Draft = jsonschema.Draft2020
	if err := c.AddResource(answerSchemaURL, strings.NewReader(answerSchema)); err != nil {
		panic(fmt.Sprintf("add answer schema: %v", err))
	}
	return c.MustCompile(answerSchemaURL)
}

var codeBlockRe = regexp.MustCompile("(?s)^```(?:json)?\\s*(.*?)\\s*```$")

func stripCodeBlock(s string) string {
	s = strings.TrimSpace(s)
	if m := codeBlockRe.FindStringSubmatch(s); len(m) > 1 {
		return m[1]
	}
	return s
}

// ParseAnswer turns raw completion text into a Decision. A null or blank
// code is a NoMatch; anything unparsable or off-schema is Invalid.
func ParseAnswer(text string) Decision {
	body := stripCodeBlock(text)
	if body == "" {
		return Failed("empty oracle response")
	}

	dec := json.NewDecoder(strings.NewReader(body))
	dec.UseNumber()
	var doc any
	if err := dec.Decode(&doc); err != nil {
		return Failed(fmt.Sprintf("malformed oracle response: %v (raw: %s)", err, truncate(body, 120)))
	}
	if err := answerSchemaCompiled.Validate(doc); err != nil {
		return Failed(fmt.Sprintf("oracle response failed schema: %v", firstLine(err.Error())))
	}

	var code string
	switch v := doc.(map[string]any)["codigo_escolhido"].(type) {
	case nil:
		return Declined("oracle found no matching option")
	case string:
		code = v
	case json.Number:
		// Integers lose the left padding stored codes carry.
		code = hierarchy.NormalizeCode(v.String())
	}
	if strings.TrimSpace(code) == "" {
		return Declined("oracle returned an empty code")
	}
	return Matched(code)
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return strings.TrimSpace(s[:i])
	}
	return s
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

// compactJSON is used when logging raw answers.
func compactJSON(s string) string {
	var buf bytes.Buffer
	if err := json.Compact(&buf, []byte(s)); err != nil {
		return truncate(s, 200)
	}
	return truncate(buf.String(), 200)
}
