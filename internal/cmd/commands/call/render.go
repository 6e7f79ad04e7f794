package call

import (
	"bytes"
	"encoding/json"

	"gopkg.in/yaml.v3"

	"github.com/hashicorp-forge/contextio/pkg/contextio"
)

const (
	formatJSON = "json"
	formatYAML = "yaml"
	formatRaw  = "raw"
)

func validFormat(f string) bool {
	switch f {
	case formatJSON, formatYAML, formatRaw:
		return true
	}
	return false
}

// render formats the response body. Bodies that are not valid JSON are
// returned unchanged whatever the format.
func render(resp *contextio.Response, format string) ([]byte, error) {
	if format == formatRaw || !json.Valid(resp.Body) {
		return resp.Body, nil
	}

	switch format {
	case formatYAML:
		var node yaml.Node
		if err := yaml.Unmarshal(resp.Body, &node); err != nil {
			return resp.Body, nil
		}
		clearStyle(&node)
		return yaml.Marshal(&node)
	default:
		var buf bytes.Buffer
		if err := json.Indent(&buf, resp.Body, "", "  "); err != nil {
			return nil, err
		}
		buf.WriteByte('\n')
		return buf.Bytes(), nil
	}
}

// clearStyle drops the flow style YAML infers for JSON input so the output is
// block style.
func clearStyle(n *yaml.Node) {
	n.Style = 0
	for _, c := range n.Content {
		clearStyle(c)
	}
}
