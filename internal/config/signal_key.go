package config

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/spf13/viper"
)

var (
	ErrConfigNotFound   = errors.New("signal config not found")
	ErrConfigUnreadable = errors.New("signal config unreadable")
	ErrConfigMalformed  = errors.New("signal config malformed")
)

// ResolveSignalKey lee el config.json de Signal Desktop y devuelve el valor de "key".
// El valor se devuelve tal cual; quitar comillas es trabajo del que abre la base.
func ResolveSignalKey(path string) (string, error) {
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", fmt.Errorf("%w: %s", ErrConfigNotFound, path)
		}
		return "", fmt.Errorf("%w: %s: %v", ErrConfigUnreadable, path, err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %v", ErrConfigUnreadable, path, err)
	}

	v := viper.New()
	v.SetConfigType("json")
	if err := v.ReadConfig(bytes.NewReader(data)); err != nil {
		return "", fmt.Errorf("%w: %s: %v", ErrConfigMalformed, path, err)
	}
	if !v.IsSet("key") {
		return "", fmt.Errorf("%w: %s: no \"key\" field", ErrConfigMalformed, path)
	}
	key, ok := v.Get("key").(string)
	if !ok {
		return "", fmt.Errorf("%w: %s: \"key\" is not a string", ErrConfigMalformed, path)
	}
	return key, nil
}
