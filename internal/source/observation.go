package source

import (
	"encoding/json"

	"github.com/livp123/axtext/internal/walker"
	apperrors "github.com/livp123/axtext/pkg/errors"
)

// wireObservation is one JSON line of an observation feed:
//
//	{"source_app":"com.app1","display_name":"App","kind":"window_content_changed",
//	 "texts":["..."],"description":"...","root":{"text":"...","children":[...]}}
type wireObservation struct {
	SourceApp   string             `json:"source_app"`
	DisplayName string             `json:"display_name,omitempty"`
	Kind        string             `json:"kind"`
	Texts       []string           `json:"texts,omitempty"`
	Description string             `json:"description,omitempty"`
	Root        *walker.StaticNode `json:"root"`
}

// ParseObservation decodes one feed line. A missing root is not a decode
// error; the walker rejects it.
// ParseObservation 解码一行数据流；缺少根节点不属于解码错误，由 walker 拒绝。
func ParseObservation(line []byte) (walker.Observation, error) {
	var w wireObservation
	if err := json.Unmarshal(line, &w); err != nil {
		return walker.Observation{}, apperrors.NewMalformedEventError(err.Error())
	}
	obs := walker.Observation{
		SourceApp:   w.SourceApp,
		DisplayName: w.DisplayName,
		Kind:        w.Kind,
		Texts:       w.Texts,
		Description: w.Description,
	}
	// Avoid wrapping a nil *StaticNode in a non-nil interface.
	if w.Root != nil {
		obs.Root = w.Root
	}
	return obs, nil
}

// EncodeObservation is the inverse of ParseObservation for in-memory trees.
func EncodeObservation(obs walker.Observation, root *walker.StaticNode) ([]byte, error) {
	return json.Marshal(wireObservation{
		SourceApp:   obs.SourceApp,
		DisplayName: obs.DisplayName,
		Kind:        obs.Kind,
		Texts:       obs.Texts,
		Description: obs.Description,
		Root:        root,
	})
}
