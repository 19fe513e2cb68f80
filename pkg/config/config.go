// Package config loads the stack configuration, from a file and from the
// environment. Viper is used so that every option can be overridden with an
// OPENPRESS_ prefixed environment variable.
package config

import (
	"strings"

	"github.com/spf13/viper"

	"github.com/openpress/openpress-stack/pkg/logger"
)

// Filename is the default configuration filename, without its extension.
const Filename = "openpress"

// Paths is the list of directories where the configuration file is looked
// for.
var Paths = []string{
	".",
	"$HOME/.config/openpress",
	"/etc/openpress",
}

// Config holds the stack configuration.
type Config struct {
	Host string
	Port int

	Assets Assets
}

// Assets configures the storage of the editor images.
type Assets struct {
	// Backend is "local" or "minio".
	Backend string
	// Dir is the directory of the local backend.
	Dir string
	// BaseURL is the public URL under which the images are served.
	BaseURL string

	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

var config *Config

// GetConfig returns the loaded configuration. Setup must have been called.
func GetConfig() *Config {
	return config
}

// ServerAddr returns the address the stack listens on.
func ServerAddr() string {
	return viper.GetString("host") + ":" + viper.GetString("port")
}

// Setup reads the configuration file, if any, and initializes the logger.
func Setup(cfgFile string) error {
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.SetEnvPrefix("openpress")
	viper.AutomaticEnv()
	applyDefaults()

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName(Filename)
		for _, path := range Paths {
			viper.AddConfigPath(path)
		}
	}
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return err
		}
	}
	return UseViper()
}

func applyDefaults() {
	viper.SetDefault("host", "localhost")
	viper.SetDefault("port", 8080)
	viper.SetDefault("log.level", "info")
	viper.SetDefault("assets.backend", "local")
	viper.SetDefault("assets.dir", "./assets")
	viper.SetDefault("assets.base_url", "http://localhost:8080/assets")
	viper.SetDefault("assets.bucket", "openpress-assets")
}

// UseViper sets the configured instance from the viper values.
func UseViper() error {
	if err := logger.Init(logger.Options{Level: viper.GetString("log.level")}); err != nil {
		return err
	}
	config = &Config{
		Host: viper.GetString("host"),
		Port: viper.GetInt("port"),
		Assets: Assets{
			Backend:   viper.GetString("assets.backend"),
			Dir:       viper.GetString("assets.dir"),
			BaseURL:   viper.GetString("assets.base_url"),
			Endpoint:  viper.GetString("assets.endpoint"),
			AccessKey: viper.GetString("assets.access_key"),
			SecretKey: viper.GetString("assets.secret_key"),
			Bucket:    viper.GetString("assets.bucket"),
			UseSSL:    viper.GetBool("assets.use_ssl"),
		},
	}
	return nil
}
