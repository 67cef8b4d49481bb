package main

import (
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/inodb/vibe-vcfdist/internal/distance"
	"github.com/inodb/vibe-vcfdist/internal/mutation"
)

// setting is a configuration key that can be stored in the config file.
type setting struct {
	usage string
	parse func(string) (any, error)
}

var settingKeys = map[string]setting{
	"filter":           {"FILTER value a record must carry", parseString},
	"indel_expansion":  {"expand indels per base (true/false)", parseBool},
	"snps_only":        {"ignore INDEL alleles (true/false)", parseBool},
	"multiallelic_het": {"split or drop", parseHetPolicy},
	"workers":          {"files read in parallel, 0 = number of CPUs", parseWorkers},
	"metric":           {"jaccard or count", parseMetric},
	"method":           {"single, complete, average or weighted", parseMethod},
	"db":               {"DuckDB file runs are recorded in", parseString},
}

func parseString(s string) (any, error) { return s, nil }

func parseBool(s string) (any, error) {
	switch strings.ToLower(s) {
	case "yes", "on":
		return true, nil
	case "no", "off":
		return false, nil
	}
	return strconv.ParseBool(s)
}

func parseWorkers(s string) (any, error) {
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return nil, fmt.Errorf("workers must be a non-negative integer, got %q", s)
	}
	return n, nil
}

func parseHetPolicy(s string) (any, error) {
	p, err := mutation.ParseHetPolicy(s)
	return string(p), err
}

func parseMetric(s string) (any, error) {
	m, err := distance.ParseMetric(s)
	return string(m), err
}

func parseMethod(s string) (any, error) {
	m, err := distance.ParseMethod(s)
	return string(m), err
}

// settingKey normalizes a key given as a flag name.
func settingKey(key string) (string, setting, error) {
	key = strings.ReplaceAll(strings.ToLower(key), "-", "_")
	s, ok := settingKeys[key]
	if !ok {
		return "", setting{}, usageError{fmt.Errorf("unknown config key %q (known: %s)", key, strings.Join(knownKeys(), ", "))}
	}
	return key, s, nil
}

func knownKeys() []string {
	keys := make([]string, 0, len(settingKeys))
	for k := range settingKeys {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage vibe-vcfdist configuration",
		Long: `Show, get, or set configuration values. Config is stored in ~/.vibe-vcfdist.yaml.
Every value can also be set with a VIBE_VCFDIST_ environment variable,
e.g. VIBE_VCFDIST_METRIC=count.

Keys:
` + keyHelp(),
		Example: `  vibe-vcfdist config                          # show all config
  vibe-vcfdist config set indel_expansion true  # count indels per base
  vibe-vcfdist config get metric                # get a value`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfigShow(cmd.OutOrStdout())
		},
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "set <key> <value>",
		Short: "Set a configuration value",
		Args:  exactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfigSet(cmd.OutOrStdout(), args[0], args[1])
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "get <key>",
		Short: "Get a configuration value",
		Args:  exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfigGet(cmd.OutOrStdout(), args[0])
		},
	})

	return cmd
}

func keyHelp() string {
	var b strings.Builder
	for _, k := range knownKeys() {
		fmt.Fprintf(&b, "  %-17s %s\n", k, settingKeys[k].usage)
	}
	return b.String()
}

// runConfigShow prints the effective value of every known key.
func runConfigShow(w io.Writer) error {
	values := make(map[string]any)
	for _, k := range knownKeys() {
		if v := viper.Get(k); v != nil {
			values[k] = v
		}
	}
	if len(values) == 0 {
		fmt.Fprintln(w, "# No configuration set. Config file: ~/"+configName+".yaml")
		return nil
	}

	out, err := yaml.Marshal(values)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	fmt.Fprint(w, string(out))
	return nil
}

// runConfigSet validates value for key and writes it to the config file.
func runConfigSet(w io.Writer, key, value string) error {
	key, s, err := settingKey(key)
	if err != nil {
		return err
	}
	v, err := s.parse(value)
	if err != nil {
		return usageError{fmt.Errorf("invalid value for %s: %w", key, err)}
	}
	viper.Set(key, v)

	cfgFile := viper.ConfigFileUsed()
	if cfgFile == "" {
		if cfgFile, err = defaultConfigPath(); err != nil {
			return err
		}
	}

	if err := viper.WriteConfigAs(cfgFile); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	fmt.Fprintf(w, "Set %s = %v in %s\n", key, v, cfgFile)
	return nil
}

func runConfigGet(w io.Writer, key string) error {
	key, _, err := settingKey(key)
	if err != nil {
		return err
	}
	val := viper.Get(key)
	if val == nil {
		return fmt.Errorf("key %q is not set", key)
	}
	fmt.Fprintln(w, val)
	return nil
}
