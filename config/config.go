package config

import (
	"os"
	"strconv"

	"gopkg.in/yaml.v2"
)

type SysConfig struct {
	Appid    string `yaml:"appid" json:"appid"`
	Location string `yaml:"location" json:"location"`
	Workdir  string `yaml:"workdir" json:"workdir"`
	Debug    bool   `yaml:"debug" json:"debug"`
}

type WebConfig struct {
	Host    string `yaml:"host" json:"host"`
	Port    int    `yaml:"port" json:"port"`
	Secret  string `yaml:"secret" json:"secret"`
	TlsPort int    `yaml:"tls_port" json:"tls_port"`
}

type DBConfig struct {
	Type     string `yaml:"type" json:"type"`
	Host     string `yaml:"host" json:"host"`
	Port     int    `yaml:"port" json:"port"`
	Name     string `yaml:"name" json:"name"`
	User     string `yaml:"user" json:"user"`
	Passwd   string `yaml:"passwd" json:"passwd"`
	MaxConn  int    `yaml:"max_conn" json:"max_conn"`
	IdleConn int    `yaml:"idle_conn" json:"idle_conn"`
	Debug    bool   `yaml:"debug" json:"debug"`
}

type LoggerConfig struct {
	Mode       string `yaml:"mode" json:"mode"`
	FileEnable bool   `yaml:"file_enable" json:"file_enable"`
	Filename   string `yaml:"filename" json:"filename"`
}

type TerminalConfig struct {
	Endpoint       string `yaml:"endpoint" json:"endpoint"`
	RequestTimeout int    `yaml:"request_timeout" json:"request_timeout"` // seconds
	Viewport       string `yaml:"viewport" json:"viewport"`               // mobile or desktop
}

type AppConfig struct {
	System   SysConfig      `yaml:"system" json:"system"`
	Web      WebConfig      `yaml:"web" json:"web"`
	Database DBConfig       `yaml:"database" json:"database"`
	Logger   LoggerConfig   `yaml:"logger" json:"logger"`
	Terminal TerminalConfig `yaml:"terminal" json:"terminal"`
}

var DefaultAppConfig = &AppConfig{
	System: SysConfig{
		Appid:    "LoomoPOS",
		Location: "Asia/Kolkata",
		Workdir:  "/var/loomopos",
		Debug:    true,
	},
	Web: WebConfig{
		Host:   "0.0.0.0",
		Port:   1816,
		Secret: "9b6de5cc-loomo-pos-b712-7c06bc413f97",
	},
	Database: DBConfig{
		Type:     "postgres",
		Host:     "127.0.0.1",
		Port:     5432,
		Name:     "loomopos",
		User:     "postgres",
		Passwd:   "",
		MaxConn:  100,
		IdleConn: 10,
	},
	Logger: LoggerConfig{
		Mode:       "development",
		FileEnable: true,
		Filename:   "/var/loomopos/loomopos.log",
	},
	Terminal: TerminalConfig{
		Endpoint:       "http://127.0.0.1:1816/api",
		RequestTimeout: 10,
		Viewport:       "mobile",
	},
}

func setEnvValue(name string, val *string) {
	var evalue = os.Getenv(name)
	if evalue != "" {
		*val = evalue
	}
}

func setEnvBoolValue(name string, val *bool) {
	var evalue = os.Getenv(name)
	if evalue != "" {
		*val = evalue == "true" || evalue == "1" || evalue == "on"
	}
}

func setEnvIntValue(name string, val *int) {
	var evalue = os.Getenv(name)
	if evalue == "" {
		return
	}
	p, err := strconv.ParseInt(evalue, 10, 64)
	if err == nil {
		*val = int(p)
	}
}

// LoadConfig reads the yaml configuration file when present and applies
// LOOMOPOS_* environment overrides on top.
func LoadConfig(cfile string) *AppConfig {
	cfg := DefaultAppConfig
	if cfile != "" {
		if data, err := os.ReadFile(cfile); err == nil {
			cfg = new(AppConfig)
			if err := yaml.Unmarshal(data, cfg); err != nil {
				cfg = DefaultAppConfig
			}
		}
	}

	setEnvValue("LOOMOPOS_SYSTEM_WORKDIR", &cfg.System.Workdir)
	setEnvBoolValue("LOOMOPOS_SYSTEM_DEBUG", &cfg.System.Debug)

	setEnvValue("LOOMOPOS_WEB_HOST", &cfg.Web.Host)
	setEnvValue("LOOMOPOS_WEB_SECRET", &cfg.Web.Secret)
	setEnvIntValue("LOOMOPOS_WEB_PORT", &cfg.Web.Port)

	setEnvValue("LOOMOPOS_DB_TYPE", &cfg.Database.Type)
	setEnvValue("LOOMOPOS_DB_HOST", &cfg.Database.Host)
	setEnvIntValue("LOOMOPOS_DB_PORT", &cfg.Database.Port)
	setEnvValue("LOOMOPOS_DB_NAME", &cfg.Database.Name)
	setEnvValue("LOOMOPOS_DB_USER", &cfg.Database.User)
	setEnvValue("LOOMOPOS_DB_PWD", &cfg.Database.Passwd)

	setEnvValue("LOOMOPOS_LOGGER_MODE", &cfg.Logger.Mode)
	setEnvBoolValue("LOOMOPOS_LOGGER_FILE_ENABLE", &cfg.Logger.FileEnable)

	setEnvValue("LOOMOPOS_TERMINAL_ENDPOINT", &cfg.Terminal.Endpoint)
	setEnvIntValue("LOOMOPOS_TERMINAL_TIMEOUT", &cfg.Terminal.RequestTimeout)
	setEnvValue("LOOMOPOS_TERMINAL_VIEWPORT", &cfg.Terminal.Viewport)

	return cfg
}
