package chains

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// LoadAll reads every *.yaml chain config in dir, expanding ${VAR}
// references from the environment. Keys are the file names without extension.
func LoadAll(dir string, logger *zap.Logger) (map[string]ChainConfig, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	re := regexp.MustCompile(`\$\{([A-Z0-9_]+)\}`)
	out := map[string]ChainConfig{}
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".yaml") {
			continue
		}
		b, err := os.ReadFile(filepath.Join(dir, e.Name()))
		if err != nil {
			return nil, err
		}
		b = re.ReplaceAllFunc(b, func(m []byte) []byte {
			k := string(re.FindSubmatch(m)[1])
			val := os.Getenv(k)
			if val == "" {
				logger.Warn("env variable is empty during config expansion",
					zap.String("file", e.Name()),
					zap.String("var", k))
			}
			return []byte(val)
		})

		var cc ChainConfig
		if err := yaml.Unmarshal(b, &cc); err != nil {
			return nil, fmt.Errorf("%s: %w", e.Name(), err)
		}
		if cc.Name == "" || cc.ChainID == 0 {
			return nil, fmt.Errorf("%s: invalid chain config", e.Name())
		}
		key := strings.TrimSuffix(e.Name(), ".yaml")
		out[key] = cc
	}
	return out, nil
}
