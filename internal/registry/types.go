package registry

import (
	"bytes"
	"fmt"

	"github.com/bytedance/sonic"
)

// Registry maps attribute keys to their raw package descriptions.
type Registry map[string]RawPackage

// RawPackage is one entry of `nix-env --json -qa --meta --out-path`. Every
// field may be missing.
type RawPackage struct {
	Pname   *string           `json:"pname"`
	Version *string           `json:"version"`
	Outputs map[string]string `json:"outputs"`
	Meta    *Meta             `json:"meta"`
}

// Meta is the package's meta attribute set.
type Meta struct {
	Description     *string                `json:"description"`
	LongDescription *string                `json:"longDescription"`
	Homepage        *OneOrList[string]     `json:"homepage"`
	Available       *bool                  `json:"available"`
	Broken          bool                   `json:"broken"`
	Insecure        bool                   `json:"insecure"`
	Unfree          bool                   `json:"unfree"`
	Unsupported     bool                   `json:"unsupported"`
	License         sonic.NoCopyRawMessage `json:"license"`
}

// OneOrList holds a field that the registry emits either as a single value
// or as a list of values.
type OneOrList[T any] struct {
	One  *T
	List []T
}

// First returns the single value, or the first list element.
func (o OneOrList[T]) First() (T, bool) {
	if o.One != nil {
		return *o.One, true
	}
	if len(o.List) > 0 {
		return o.List[0], true
	}
	var zero T
	return zero, false
}

func (o *OneOrList[T]) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '[' {
		var list []T
		if err := sonic.Unmarshal(data, &list); err != nil {
			return fmt.Errorf("decode list: %w", err)
		}
		*o = OneOrList[T]{List: list}
		return nil
	}

	var one T
	if err := sonic.Unmarshal(data, &one); err != nil {
		return fmt.Errorf("decode value: %w", err)
	}
	*o = OneOrList[T]{One: &one}
	return nil
}
