package config

import (
	"os"
	"strings"
	"sync"
)

type CliConfig struct {
	APIToken  string
	TokenFile string `default:"/etc/efergytoken"`

	// Server overrides the efergy hosts, used against mocked clouds.
	Server    string
	Alternate bool

	UTCOffset string `default:"0"`
	Currency  string
	CacheTTL  int `default:"60"`

	PollInterval int    `default:"30"`
	MQTTAddress  string `default:":1883"`
	MQTTTopic    string `default:"efergy"`

	LogLevel string `default:"info"`

	mutex sync.RWMutex
}

func (c *CliConfig) Token() string {
	c.mutex.RLock()
	defer c.mutex.RUnlock()
	return c.APIToken
}

func (c *CliConfig) SetToken(t string) {
	c.mutex.Lock()
	c.APIToken = strings.TrimSpace(t)
	c.mutex.Unlock()
}

func (c *CliConfig) PersistToken() error {
	if c.TokenFile == "" {
		return nil
	}
	return os.WriteFile(c.TokenFile, []byte(c.Token()), 0644)
}

func (c *CliConfig) LoadToken() error {
	if c.TokenFile == "" {
		return nil
	}
	if _, err := os.Stat(c.TokenFile); err == nil {
		b, err := os.ReadFile(c.TokenFile)
		if err != nil {
			return err
		}
		if len(b) == 0 {
			return nil // dont load empty token
		}

		c.SetToken(string(b))
	}
	return nil
}
