package output

import (
	"gopkg.in/yaml.v3"

	"github.com/namelens/adlens/internal/view"
)

// YAMLFormatter renders the view-model as YAML.
type YAMLFormatter struct{}

// Format renders v as YAML.
func (f *YAMLFormatter) Format(v *view.View) (string, error) {
	if v == nil {
		return "", nil
	}
	data, err := yaml.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(data), nil
}
