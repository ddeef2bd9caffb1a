package parsers

import (
	"errors"
	"regexp"
	"strings"

	"go.uber.org/zap"

	"github.com/Helcaraxan/aptgraph/internal/printer"
)

var nodeShapeRE = regexp.MustCompile(`^[a-z_]+$`)

// ParseStyleOptions parses a comma-separated list of 'key=value' settings into StyleOptions.
// Boolean settings may omit their value to enable them.
func ParseStyleOptions(log *zap.Logger, config string) (*printer.StyleOptions, error) {
	if log == nil {
		log = zap.NewNop()
	}

	styleOptions := &printer.StyleOptions{}
	for _, setting := range strings.Split(config, ",") {
		if strings.TrimSpace(setting) == "" {
			continue
		}

		configKey := setting
		var configValue string
		if valueIdx := strings.Index(setting, "="); valueIdx >= 0 {
			configKey = setting[:valueIdx]
			configValue = setting[valueIdx+1:]
		}
		configKey = strings.ToLower(strings.TrimSpace(configKey))
		configValue = strings.ToLower(strings.TrimSpace(configValue))

		var err error
		switch configKey {
		case "rankdir":
			err = parseStyleRankDir(log, styleOptions, configValue)
		case "node_shape", "shape":
			err = parseStyleNodeShape(log, styleOptions, configValue)
		case "annotate":
			styleOptions.Annotate, err = parseStyleBool(log, configKey, configValue)
		case "colour", "color":
			styleOptions.Colour, err = parseStyleBool(log, configKey, configValue)
		default:
			log.Error("Skipping unknown style option.", zap.String("option", configKey))
			err = errors.New("invalid style option")
		}
		if err != nil {
			return nil, err
		}
	}
	return styleOptions, nil
}

func parseStyleRankDir(log *zap.Logger, styleOptions *printer.StyleOptions, raw string) error {
	switch raw {
	case "lr", "rl", "tb", "bt":
		styleOptions.RankDir = strings.ToUpper(raw)
	default:
		log.Error("Could not set 'rankdir' style. Accepted values are 'LR', 'RL', 'TB' and 'BT'.", zap.String("value", raw))
		return errors.New("invalid 'rankdir' value")
	}
	return nil
}

func parseStyleNodeShape(log *zap.Logger, styleOptions *printer.StyleOptions, raw string) error {
	if !nodeShapeRE.MatchString(raw) {
		log.Error("Could not set 'node_shape' style. The value must be a Graphviz shape name.", zap.String("value", raw))
		return errors.New("invalid 'node_shape' value")
	}
	styleOptions.NodeShape = raw
	return nil
}

func parseStyleBool(log *zap.Logger, key string, raw string) (bool, error) {
	switch raw {
	case "", "true", "on", "yes":
		return true, nil
	case "false", "off", "no":
		return false, nil
	default:
		log.Error("Could not set boolean style. Accepted values are 'true' and 'false'.", zap.String("option", key), zap.String("value", raw))
		return false, errors.New("invalid '" + key + "' value")
	}
}
