package config

import (
	yaml3 "gopkg.in/yaml.v3"
)

// defaultConfig is a variable to store the default configuration of the squit CLI.
var defaultConfig = `
path: "src/squit"
buildPath: "build/squit"
configPath: "."
debug: false
debugModules: []
disableANSI: false
parallelism: 0
ignoreFailures: false
variables: {}
tags: []
test:
  timeout: 60s
  retries: 0
  canonicalizeJSON: true
  canonicalizeXML: true
  xmlStrict: false
  jsonIgnoreArrayOrder: false
  scriptInterpreter: ""
report:
  path: ""
  format: "yaml"
  showFullBody: false
history:
  enabled: false
  path: ""
  threshold: 0
`

func GetDefaultConfig() string {
	return defaultConfig
}

func SetDefaultConfig(cfgStr string) {
	defaultConfig = cfgStr
}

// New returns the default configuration. It panics if the default document is invalid.
func New() *Config {
	config := &Config{}
	err := yaml3.Unmarshal([]byte(defaultConfig), config)
	if err != nil {
		panic(err)
	}
	return config
}
