package config

import (
	"fmt"

	"github.com/spf13/viper"

	"github.com/pujar/labbill/internal/domain/billing"
)

// LoadReferenceData reads the doctor roster and test catalog from a yaml,
// json or toml file. An empty path yields the built-in reference data.
// Either way the result is validated before it is returned.
func LoadReferenceData(path string) (billing.ReferenceData, error) {
	ref := billing.DefaultReferenceData()
	if path != "" {
		v := viper.New()
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return billing.ReferenceData{}, fmt.Errorf("read reference data %s: %w", path, err)
		}
		ref = billing.ReferenceData{}
		if err := v.Unmarshal(&ref); err != nil {
			return billing.ReferenceData{}, fmt.Errorf("decode reference data %s: %w", path, err)
		}
	}
	if err := ref.Validate(); err != nil {
		return billing.ReferenceData{}, err
	}
	return ref, nil
}
