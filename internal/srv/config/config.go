package config

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

const paramFilename = "param.yaml"

type ServerConfig struct {
	ConfigDir      string
	DebugMode      bool
	SimulationMode bool

	*ServerParam
}

// NewServerConfig loads the config folder and exits when it is unusable.
func NewServerConfig(configDir string, debugMode bool, simulationMode bool) *ServerConfig {
	serverConfig, err := LoadServerConfig(configDir, debugMode, simulationMode)
	if err != nil {
		logrus.Fatalf("Unable to load configuration: %v\n", err)
	}
	return serverConfig
}

// LoadServerConfig reads param.yaml from configDir. The folder and a default param
// file are created when missing.
func LoadServerConfig(configDir string, debugMode bool, simulationMode bool) (*ServerConfig, error) {
	serverConfig := &ServerConfig{
		ConfigDir:      configDir,
		DebugMode:      debugMode,
		SimulationMode: simulationMode,
	}

	// Check Configuration folder
	_, err := os.Stat(configDir)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("access config folder %s: %w", configDir, err)
		}
		logrus.Printf("Creation of config folder: %s", configDir)
		if err = os.MkdirAll(configDir, 0770); err != nil {
			return nil, fmt.Errorf("create config folder: %w", err)
		}
	}

	// Open param file
	serverConfig.ServerParam = &ServerParam{}
	save := false
	rawConfig, err := os.ReadFile(serverConfig.GetCompleteParamFilename())
	switch {
	case err == nil:
		if err = yaml.Unmarshal(rawConfig, serverConfig.ServerParam); err != nil {
			return nil, fmt.Errorf("interpret param file: %w", err)
		}
	case os.IsNotExist(err):
		// Create default param file
		logrus.Infof("Create default param file")
		if err = yaml.Unmarshal(ParamDefaultFile, serverConfig.ServerParam); err != nil {
			return nil, fmt.Errorf("interpret default param file: %w", err)
		}
		save = true
	default:
		return nil, fmt.Errorf("read param file: %w", err)
	}
	serverConfig.ServerParam.fillDefaults()

	// The api never runs without a key
	if serverConfig.ApiParam.ApiKey == "" {
		logrus.Infof("Generate api key")
		serverConfig.ApiParam.ApiKey, err = newApiKey()
		if err != nil {
			return nil, err
		}
		save = true
	}

	if save {
		if err = serverConfig.SaveParam(); err != nil {
			return nil, err
		}
	}

	return serverConfig, nil
}

func (sc *ServerConfig) GetCompleteParamFilename() string {
	return filepath.Join(sc.ConfigDir, paramFilename)
}

func (sc *ServerConfig) GetCompleteKeyFilename() string {
	return filepath.Join(sc.ConfigDir, "key.pem")
}

func (sc *ServerConfig) GetCompleteCertFilename() string {
	return filepath.Join(sc.ConfigDir, "cert.pem")
}

func (sc *ServerConfig) SaveParam() error {
	logrus.Debugf("Save param file: %s", sc.GetCompleteParamFilename())
	rawConfig, err := yaml.Marshal(*sc.ServerParam)
	if err != nil {
		return fmt.Errorf("serialize param file: %w", err)
	}
	if err = os.WriteFile(sc.GetCompleteParamFilename(), rawConfig, 0660); err != nil {
		return fmt.Errorf("save param file: %w", err)
	}
	return nil
}

// CertHostnames lists the names the api is reached by: localhost, the machine
// host name, and the mDNS names.
func (sc *ServerConfig) CertHostnames() []string {
	names := []string{"localhost", "127.0.0.1", "::1"}
	if hostname, err := os.Hostname(); err == nil && hostname != "" {
		names = append(names, hostname, hostname+".local")
	}
	if sc.Mdns.Enabled {
		names = append(names, sc.Mdns.Instance+".local")
	}
	return names
}

func newApiKey() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate api key: %w", err)
	}
	return hex.EncodeToString(b), nil
}
