package testutil

import (
	"embed"

	"github.com/BurntSushi/toml"

	"github.com/eclipse-thym/thym/packages/thym-ctl/internal/config"
)

//go:embed fixtures/*
var fixturesFS embed.FS

// LoadFixture loads a fixture file by name.
func LoadFixture(name string) ([]byte, error) {
	return fixturesFS.ReadFile("fixtures/" + name)
}

// LoadConfigFixture decodes a TOML config fixture over the defaults.
func LoadConfigFixture(name string) (*config.Config, error) {
	data, err := LoadFixture(name)
	if err != nil {
		return nil, err
	}
	cfg := config.Default()
	if _, err := toml.Decode(string(data), cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ValidConfig returns the valid config fixture.
func ValidConfig() (*config.Config, error) {
	return LoadConfigFixture("valid_config.toml")
}

// InvalidConfig returns the invalid config fixture.
func InvalidConfig() (*config.Config, error) {
	return LoadConfigFixture("invalid_config.toml")
}

// PackageJSON returns the sample Cordova package.json.
func PackageJSON() []byte {
	data, _ := LoadFixture("package.json")
	return data
}

// ConfigXML returns the sample Cordova config.xml.
func ConfigXML() []byte {
	data, _ := LoadFixture("config.xml")
	return data
}
