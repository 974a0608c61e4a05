package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cast"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/mesh-intelligence/taskboard/pkg/types"
)

const (
	configFileName = "config"
	configFileType = "yaml"
	configFileExt  = "config.yaml"

	cfgKeyBackend       = "backend"
	cfgKeyDataDir       = "data_dir"
	cfgKeyLogLevel      = "log_level"
	cfgKeyLogFile       = "log_file"
	cfgKeyAdminRole     = "admin_role"
	cfgKeyInvitationTTL = "invitation_ttl_hours"
	cfgKeyUser          = "user"
	cfgKeyEmail         = "email"
	cfgKeyGlobalRole    = "global_role"

	defaultLogLevel  = "info"
	defaultAdminRole = "admin"
)

// envKeys are the settings that TASKBOARD_* variables may override. The
// data directory is resolved separately because its variable ranks below
// the config file.
var envKeys = []string{cfgKeyUser, cfgKeyEmail, cfgKeyGlobalRole, cfgKeyLogLevel, cfgKeyLogFile}

// configFile is the shape of config.yaml as written on first run.
type configFile struct {
	Backend            string `yaml:"backend"`
	DataDir            string `yaml:"data_dir,omitempty"`
	LogLevel           string `yaml:"log_level"`
	LogFile            string `yaml:"log_file,omitempty"`
	AdminRole          string `yaml:"admin_role"`
	InvitationTTLHours int    `yaml:"invitation_ttl_hours"`
}

func defaultConfigFile(dataDir string) configFile {
	return configFile{
		Backend:            types.BackendSQLite,
		DataDir:            dataDir,
		LogLevel:           defaultLogLevel,
		AdminRole:          defaultAdminRole,
		InvitationTTLHours: types.DefaultInvitationTTLHours,
	}
}

// loadConfig reads config.yaml from configDir, writing a default one first
// if the directory has none.
func loadConfig(configDir string) (*viper.Viper, error) {
	if err := writeConfigIfMissing(configDir, ""); err != nil {
		return nil, err
	}

	v := viper.New()
	v.SetDefault(cfgKeyBackend, types.BackendSQLite)
	v.SetDefault(cfgKeyLogLevel, defaultLogLevel)
	v.SetDefault(cfgKeyAdminRole, defaultAdminRole)
	v.SetDefault(cfgKeyInvitationTTL, types.DefaultInvitationTTLHours)
	v.SetConfigName(configFileName)
	v.SetConfigType(configFileType)
	v.AddConfigPath(configDir)

	v.SetEnvPrefix("TASKBOARD")
	for _, key := range envKeys {
		if err := v.BindEnv(key); err != nil {
			return nil, fmt.Errorf("bind env %s: %w", key, err)
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}
	return v, nil
}

// writeConfigIfMissing creates configDir and a default config.yaml in it.
// An existing file is left alone.
func writeConfigIfMissing(configDir, dataDir string) error {
	if err := os.MkdirAll(configDir, 0o755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	path := filepath.Join(configDir, configFileExt)
	if _, err := os.Stat(path); err == nil {
		return nil
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("stat config file: %w", err)
	}

	cfg := defaultConfigFile(dataDir)
	data, err := yaml.Marshal(&cfg)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	return os.WriteFile(path, append([]byte("# taskboard configuration\n"), data...), 0o644)
}

// settings is the validated configuration a command runs with.
type settings struct {
	types.Config
	AdminRole string
}

// readSettings pulls the storage and access settings out of v. Values
// typed by hand in YAML, such as a quoted TTL, are coerced with cast.
func readSettings(v *viper.Viper) (settings, error) {
	ttl, err := cast.ToIntE(v.Get(cfgKeyInvitationTTL))
	if err != nil {
		return settings{}, fmt.Errorf("%s: %w", cfgKeyInvitationTTL, err)
	}
	s := settings{
		Config: types.Config{
			Backend:            cast.ToString(v.Get(cfgKeyBackend)),
			DataDir:            cast.ToString(v.Get(cfgKeyDataDir)),
			InvitationTTLHours: ttl,
		},
		AdminRole: v.GetString(cfgKeyAdminRole),
	}
	if err := s.Config.Validate(); err != nil {
		return settings{}, fmt.Errorf("config: %w", err)
	}
	return s, nil
}

// InvitationTTL returns the invitation lifetime as a duration.
func (s settings) InvitationTTL() time.Duration {
	return time.Duration(s.Config.InvitationTTL()) * time.Hour
}
