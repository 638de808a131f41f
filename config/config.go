package config

import (
	"os"

	"github.com/go-playground/validator/v10"
	"github.com/pelletier/go-toml"
)

const (
	DefaultHTTPAddr    = "127.0.0.1:7001"
	DefaultMaxPageSize = 500
	DefaultLogLevel    = 2
)

type Configuration struct {
	LogLevel   int              `toml:"log-level" validate:"gte=1,lte=7"`
	Collection CollectionConfig `toml:"collection"`
	HTTP       HTTPConfig       `toml:"http"`
	Messenger  *MessengerConfig `toml:"messenger" validate:"omitempty"`
}

// CollectionConfig seeds the registry the first time the node starts.
type CollectionConfig struct {
	Name   string `toml:"name" validate:"required,max=64"`
	Ticker string `toml:"ticker" validate:"required,alphanum,max=10"`
}

type HTTPConfig struct {
	Addr        string `toml:"addr" validate:"required,hostname_port"`
	MaxPageSize int    `toml:"max-page-size" validate:"gte=1,lte=10000"`
}

type MessengerConfig struct {
	ClientId   string `toml:"client-id" validate:"required,uuid"`
	SessionId  string `toml:"session-id" validate:"required,uuid"`
	PrivateKey string `toml:"private-key" validate:"required"`
	PinToken   string `toml:"pin-token"`
}

func Setup(path string) (*Configuration, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

func Parse(data []byte) (*Configuration, error) {
	var conf Configuration
	err := toml.Unmarshal(data, &conf)
	if err != nil {
		return nil, err
	}
	if conf.LogLevel == 0 {
		conf.LogLevel = DefaultLogLevel
	}
	if conf.HTTP.Addr == "" {
		conf.HTTP.Addr = DefaultHTTPAddr
	}
	if conf.HTTP.MaxPageSize == 0 {
		conf.HTTP.MaxPageSize = DefaultMaxPageSize
	}
	err = validator.New().Struct(&conf)
	if err != nil {
		return nil, err
	}
	return &conf, nil
}
