package cmd

import (
	"fmt"
	"reflect"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/jwhitfield/ottarr/internal/config"
	"github.com/jwhitfield/ottarr/pkg/duration"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Configuration management commands",
	Long:  `Commands for managing ottarr configuration.`,
}

var configDumpCmd = &cobra.Command{
	Use:   "dump",
	Short: "Dump the default configuration",
	Long: `Dump the default configuration values in YAML format.

This shows all available configuration options with their default values.
You can redirect this output to a file to create a configuration template:

  ottarr config dump > config.yaml

Configuration can be set via:
  - Config file (config.yaml in ., /etc/ottarr, or $HOME/.ottarr)
  - Environment variables (OTTARR_SERVER_PORT, OTTARR_DATABASE_DSN, etc.)
  - Command-line flags (for some options)

Environment variables use the OTTARR_ prefix and underscores for nesting.
Example: sync.cache_ttl -> OTTARR_SYNC_CACHE_TTL`,
	RunE: runConfigDump,
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configDumpCmd)
}

// toMap converts a config struct to a map, formatting durations for
// human readability.
func toMap(v any) map[string]any {
	result := make(map[string]any)
	val := reflect.ValueOf(v)
	if val.Kind() == reflect.Ptr {
		val = val.Elem()
	}
	typ := val.Type()

	for i := 0; i < val.NumField(); i++ {
		field := val.Field(i)
		fieldType := typ.Field(i)

		key := fieldType.Tag.Get("mapstructure")
		if key == "" {
			key = fieldType.Name
		}

		switch fv := field.Interface().(type) {
		case time.Duration:
			result[key] = duration.Format(fv)
		default:
			if field.Kind() == reflect.Struct {
				result[key] = toMap(field.Interface())
			} else {
				result[key] = field.Interface()
			}
		}
	}
	return result
}

func runConfigDump(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load("")
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	yamlData, err := yaml.Marshal(toMap(cfg))
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}

	fmt.Println("# ottarr Configuration File")
	fmt.Println("# =========================")
	fmt.Println("#")
	fmt.Println("# All values shown below are defaults.")
	fmt.Println("# Duration format: 30s, 5m, 1h, 7d")
	fmt.Println("#")
	fmt.Println("# Environment variable overrides:")
	fmt.Println("#   OTTARR_SERVER_HOST, OTTARR_SERVER_PORT")
	fmt.Println("#   OTTARR_DATABASE_DRIVER, OTTARR_DATABASE_DSN")
	fmt.Println("#   OTTARR_SYNC_CACHE_TTL, OTTARR_SYNC_BATCH_SIZE")
	fmt.Println("#   OTTARR_LOGGING_LEVEL, OTTARR_LOGGING_FORMAT")
	fmt.Println("#   etc.")
	fmt.Println("#")
	fmt.Println("")
	fmt.Print(string(yamlData))

	return nil
}
