package output

import (
	"encoding/json"

	"github.com/namelens/adlens/internal/view"
)

// JSONFormatter renders the view-model as JSON.
type JSONFormatter struct {
	Indent bool
}

// Format renders v as JSON.
func (f *JSONFormatter) Format(v *view.View) (string, error) {
	if v == nil {
		return "", nil
	}

	var (
		data []byte
		err  error
	)
	if f.Indent {
		data, err = json.MarshalIndent(v, "", "  ")
	} else {
		data, err = json.Marshal(v)
	}
	if err != nil {
		return "", err
	}
	return string(data), nil
}
