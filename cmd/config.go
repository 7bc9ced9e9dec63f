package cmd

import (
	"bytes"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"text/template"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

var configForce bool

// configDirFunc returns the config directory path, replaceable in tests.
var configDirFunc = defaultConfigDir

func defaultConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "sdlc"), nil
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show or manage configuration",
	Long: `Show or manage sdlc configuration.

Running bare 'sdlc config' is the same as 'sdlc config show'.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return configShowRun()
	},
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Create config file with commented defaults",
	RunE: func(cmd *cobra.Command, args []string) error {
		return configInitRun()
	},
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show effective configuration with sources",
	RunE: func(cmd *cobra.Command, args []string) error {
		return configShowRun()
	},
}

var configEditCmd = &cobra.Command{
	Use:   "edit",
	Short: "Open config file in $EDITOR",
	RunE: func(cmd *cobra.Command, args []string) error {
		return configEditRun()
	},
}

func init() {
	configInitCmd.Flags().BoolVar(&configForce, "force", false, "Overwrite existing config file")
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configEditCmd)
	rootCmd.AddCommand(configCmd)
}

// configTemplate is the template for generating config.yaml with comments.
const configTemplate = `# sdlc configuration
# See: sdlc config show (for effective values and sources)

# State/data directory (default: ~/.config/sdlc)
# state_dir: {{ .StateDir }}

# SQLite history database path (default: ~/.config/sdlc/sdlc.db)
# db_path: {{ .DBPath }}

# Model backend
llm:
  # Provider: ollama (local model) or anthropic (hosted API)
  provider: "{{ .Provider }}"

  # Maximum tokens the model may generate per call
  max_tokens: {{ .MaxTokens }}

# Local Ollama backend
ollama:
  host: "{{ .OllamaHost }}"
  model: "{{ .OllamaModel }}"

# Anthropic backend (or set SDLC_ANTHROPIC_API_KEY / ANTHROPIC_API_KEY)
anthropic:
  # api_key: ""
  model: "{{ .AnthropicModel }}"

# Analysis limits
analysis:
  # Model call deadline in seconds (0 disables the deadline)
  timeout_seconds: {{ .TimeoutSeconds }}

  # Maximum source size embedded in a prompt before truncation
  max_prompt_chars: {{ .MaxPromptChars }}

  # Maximum input file size in bytes
  max_file_size: {{ .MaxFileSize }}
`

type configTemplateData struct {
	StateDir       string
	DBPath         string
	Provider       string
	MaxTokens      int
	OllamaHost     string
	OllamaModel    string
	AnthropicModel string
	TimeoutSeconds int
	MaxPromptChars int
	MaxFileSize    int64
}

func configFilePath() (string, error) {
	dir, err := configDirFunc()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.yaml"), nil
}

func configInitRun() error {
	cfgPath, err := configFilePath()
	if err != nil {
		return err
	}

	// Check if file already exists
	if _, err := os.Stat(cfgPath); err == nil {
		if !configForce {
			return fmt.Errorf("config file already exists: %s (use --force to overwrite)", cfgPath)
		}
		ui.Warning("Overwriting existing config file")
	}

	// Build template data from current viper values
	data := configTemplateData{
		StateDir:       viper.GetString("state_dir"),
		DBPath:         viper.GetString("db_path"),
		Provider:       viper.GetString("llm.provider"),
		MaxTokens:      viper.GetInt("llm.max_tokens"),
		OllamaHost:     viper.GetString("ollama.host"),
		OllamaModel:    viper.GetString("ollama.model"),
		AnthropicModel: viper.GetString("anthropic.model"),
		TimeoutSeconds: viper.GetInt("analysis.timeout_seconds"),
		MaxPromptChars: viper.GetInt("analysis.max_prompt_chars"),
		MaxFileSize:    viper.GetInt64("analysis.max_file_size"),
	}

	tmpl, err := template.New("config").Parse(configTemplate)
	if err != nil {
		return fmt.Errorf("template parse error: %w", err)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return fmt.Errorf("template execute error: %w", err)
	}

	// Create config directory
	dir := filepath.Dir(cfgPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := os.WriteFile(cfgPath, buf.Bytes(), 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	ui.Success("Config file created: %s", cfgPath)
	fmt.Fprintln(ui.Out)
	fmt.Fprint(ui.Out, buf.String())
	return nil
}

// configKeyInfo describes a config key for display purposes.
type configKeyInfo struct {
	Key    string
	EnvVar string
}

var configKeys = []configKeyInfo{
	{Key: "state_dir", EnvVar: "SDLC_STATE_DIR"},
	{Key: "db_path", EnvVar: "SDLC_DB_PATH"},
	{Key: "port", EnvVar: "SDLC_PORT"},
	{Key: "llm.provider", EnvVar: "SDLC_LLM_PROVIDER"},
	{Key: "llm.max_tokens", EnvVar: "SDLC_LLM_MAX_TOKENS"},
	{Key: "ollama.host", EnvVar: "SDLC_OLLAMA_HOST"},
	{Key: "ollama.model", EnvVar: "SDLC_OLLAMA_MODEL"},
	{Key: "anthropic.model", EnvVar: "SDLC_ANTHROPIC_MODEL"},
	{Key: "analysis.timeout_seconds", EnvVar: "SDLC_ANALYSIS_TIMEOUT_SECONDS"},
	{Key: "analysis.max_prompt_chars", EnvVar: "SDLC_ANALYSIS_MAX_PROMPT_CHARS"},
	{Key: "analysis.max_file_size", EnvVar: "SDLC_ANALYSIS_MAX_FILE_SIZE"},
}

func configShowRun() error {
	cfgPath, err := configFilePath()
	if err != nil {
		return err
	}

	// Check if config file exists
	if _, err := os.Stat(cfgPath); err == nil {
		ui.Info("Config file: %s", cfgPath)
	} else {
		ui.Info("Config file: (none)")
	}
	fmt.Fprintln(ui.Out)

	// Read config file values to determine file source
	fileValues := readConfigFileValues(cfgPath)

	for _, k := range configKeys {
		val := viper.Get(k.Key)
		source := detectSource(k.Key, k.EnvVar, fileValues)
		fmt.Fprintf(ui.Out, "  %-28s %v  %s\n", k.Key, val, source)
	}

	return nil
}

// readConfigFileValues reads the raw YAML file and returns a flat map of keys present in it.
func readConfigFileValues(path string) map[string]bool {
	result := make(map[string]bool)

	data, err := os.ReadFile(path)
	if err != nil {
		return result
	}

	var parsed map[string]any
	if err := yaml.Unmarshal(data, &parsed); err != nil {
		return result
	}

	// Flatten nested keys with dot notation
	flattenKeys("", parsed, result)
	return result
}

// flattenKeys recursively flattens a nested map to dot-notation keys.
func flattenKeys(prefix string, m map[string]any, result map[string]bool) {
	for key, val := range m {
		fullKey := key
		if prefix != "" {
			fullKey = prefix + "." + key
		}
		if nested, ok := val.(map[string]any); ok {
			flattenKeys(fullKey, nested, result)
		} else {
			result[fullKey] = true
		}
	}
}

// detectSource determines where a config value is coming from.
func detectSource(key, envVar string, fileValues map[string]bool) string {
	if _, ok := os.LookupEnv(envVar); ok {
		return fmt.Sprintf("(env: %s)", envVar)
	}
	if fileValues[key] {
		return "(file)"
	}
	return "(default)"
}

func configEditRun() error {
	editor := os.Getenv("EDITOR")
	if editor == "" {
		editor = os.Getenv("VISUAL")
	}
	if editor == "" {
		return fmt.Errorf("$EDITOR is not set — set it to your preferred editor (e.g. export EDITOR=vim)")
	}

	cfgPath, err := configFilePath()
	if err != nil {
		return err
	}

	if _, err := os.Stat(cfgPath); os.IsNotExist(err) {
		return fmt.Errorf("config file not found: %s (run 'sdlc config init' first)", cfgPath)
	}

	editCmd := exec.Command(editor, cfgPath)
	editCmd.Stdin = os.Stdin
	editCmd.Stdout = os.Stdout
	editCmd.Stderr = os.Stderr
	return editCmd.Run()
}
