package extscan

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
)

// FileEnumerator reads installed extensions from a JSON manifest, the
// format produced by the browser-side export helper. It stands in for
// live management-API enumeration when the engine runs out of process.
type FileEnumerator struct {
	Path string
	Self string
}

type manifestFile struct {
	SelfID     string          `json:"self_id"`
	Extensions []ExtensionInfo `json:"extensions"`
}

func (f *FileEnumerator) List(ctx context.Context) ([]ExtensionInfo, error) {
	raw, err := os.ReadFile(f.Path)
	if err != nil {
		return nil, fmt.Errorf("reading extension manifest: %w", err)
	}
	var m manifestFile
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, fmt.Errorf("parsing extension manifest: %w", err)
	}
	if f.Self == "" {
		f.Self = m.SelfID
	}
	return m.Extensions, nil
}

func (f *FileEnumerator) SelfID() string { return f.Self }
