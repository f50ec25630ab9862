package credentials

import (
	"fmt"

	"github.com/redis/go-redis/v9"
)

// Options selects and parameterizes a Store implementation.
type Options struct {
	Type      string `yaml:"type" validate:"omitempty,oneof=static file redis"`
	Token     string `yaml:"token"`
	Path      string `yaml:"path"`
	RedisAddr string `yaml:"redisAddr"`
	RedisKey  string `yaml:"redisKey"`
}

func NewStore(options Options) (Store, error) {
	switch options.Type {
	case "", "static":
		return NewStaticStore(options.Token), nil
	case "file":
		if options.Path == "" {
			return nil, fmt.Errorf("file credential store requires a path")
		}
		return NewFileStore(options.Path), nil
	case "redis":
		if options.RedisAddr == "" {
			return nil, fmt.Errorf("redis credential store requires redisAddr")
		}
		client := redis.NewClient(&redis.Options{Addr: options.RedisAddr})
		return NewRedisStore(client, options.RedisKey), nil
	default:
		return nil, fmt.Errorf("unsupported credential store type: %s", options.Type)
	}
}
