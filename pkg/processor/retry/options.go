package retry

import (
	"fmt"
	"maps"
	"slices"

	"github.com/architeacher/svc-message-retry/pkg/errkind"
	"github.com/architeacher/svc-message-retry/pkg/processor"
)

const (
	OptionAttempts         = "retry_attempts"
	OptionKeyPattern       = "retry_key_pattern"
	OptionLogLevelsMap     = "retry_log_levels_map"
	OptionFailLogLevelsMap = "retry_fail_log_levels_map"

	// AttemptsHeader carries the number of republish attempts already made for a message.
	AttemptsHeader = "swarrot_retry_attempts"

	// AttemptPlaceholder is replaced by the attempt number in the key pattern.
	AttemptPlaceholder = "%attempt%"

	DefaultAttempts = 3
	DefaultLevel    = processor.LevelWarning
)

type (
	// LevelRule maps an error kind to a log level.
	LevelRule struct {
		Kind  errkind.Kind
		Level processor.Level
	}

	// LevelMap is an ordered list of rules. The first rule matching an error wins.
	LevelMap []LevelRule

	config struct {
		attempts      int
		keyPattern    string
		levels        LevelMap
		failureLevels LevelMap
	}
)

// Level returns the level of the first rule whose kind err satisfies, or fallback.
func (m LevelMap) Level(err error, fallback processor.Level) processor.Level {
	for _, rule := range m {
		if errkind.Is(err, rule.Kind) {
			return rule.Level
		}
	}

	return fallback
}

// NormalizeLevelMap accepts a LevelMap or a plain map from kind to level and
// returns a validated LevelMap. Plain maps have no order, so their rules are
// sorted by kind name, which decides precedence between overlapping kinds.
// Callers that need another precedence pass a LevelMap.
func NormalizeLevelMap(value any) (any, error) {
	var rules LevelMap

	switch v := value.(type) {
	case nil:
	case LevelMap:
		rules = v
	case []LevelRule:
		rules = v
	case map[string]string:
		for _, k := range slices.Sorted(maps.Keys(v)) {
			rules = append(rules, LevelRule{Kind: errkind.Kind(k), Level: processor.Level(v[k])})
		}
	case map[string]processor.Level:
		for _, k := range slices.Sorted(maps.Keys(v)) {
			rules = append(rules, LevelRule{Kind: errkind.Kind(k), Level: v[k]})
		}
	case map[errkind.Kind]processor.Level:
		for _, k := range slices.Sorted(maps.Keys(v)) {
			rules = append(rules, LevelRule{Kind: k, Level: v[k]})
		}
	case map[string]any:
		for _, k := range slices.Sorted(maps.Keys(v)) {
			level, ok := v[k].(string)
			if !ok {
				l, isLevel := v[k].(processor.Level)
				if !isLevel {
					return nil, fmt.Errorf("level for %q must be a string, got %T", k, v[k])
				}

				level = string(l)
			}

			rules = append(rules, LevelRule{Kind: errkind.Kind(k), Level: processor.Level(level)})
		}
	default:
		return nil, fmt.Errorf("expected a map of error kinds to log levels, got %T", value)
	}

	normalized := make(LevelMap, 0, len(rules))
	for _, rule := range rules {
		level, err := processor.ParseLevel(string(rule.Level))
		if err != nil {
			return nil, fmt.Errorf("kind %q: %w", rule.Kind, err)
		}

		normalized = append(normalized, LevelRule{Kind: rule.Kind, Level: level})
	}

	return normalized, nil
}

func declareOptions(r *processor.OptionsResolver) {
	r.SetDefault(OptionAttempts, DefaultAttempts).
		SetDefault(OptionLogLevelsMap, LevelMap{}).
		SetDefault(OptionFailLogLevelsMap, LevelMap{}).
		SetRequired(OptionKeyPattern).
		SetNormalizer(OptionAttempts, processor.IntNormalizer(0)).
		SetNormalizer(OptionKeyPattern, processor.StringNormalizer("")).
		SetNormalizer(OptionLogLevelsMap, NormalizeLevelMap).
		SetNormalizer(OptionFailLogLevelsMap, NormalizeLevelMap)
}

func configFrom(options processor.Options) (config, error) {
	attempts, ok := processor.ToInt(options[OptionAttempts])
	if !ok {
		return config{}, invalid(OptionAttempts, options[OptionAttempts])
	}

	pattern, ok := options[OptionKeyPattern].(string)
	if !ok {
		return config{}, invalid(OptionKeyPattern, options[OptionKeyPattern])
	}

	levels, ok := options[OptionLogLevelsMap].(LevelMap)
	if !ok {
		return config{}, invalid(OptionLogLevelsMap, options[OptionLogLevelsMap])
	}

	failureLevels, ok := options[OptionFailLogLevelsMap].(LevelMap)
	if !ok {
		return config{}, invalid(OptionFailLogLevelsMap, options[OptionFailLogLevelsMap])
	}

	return config{
		attempts:      attempts,
		keyPattern:    pattern,
		levels:        levels,
		failureLevels: failureLevels,
	}, nil
}

func invalid(option string, value any) error {
	return &processor.ConfigurationError{
		Option: option,
		Err:    processor.ErrInvalidOption,
		Detail: fmt.Sprintf("unexpected value of type %T", value),
	}
}
