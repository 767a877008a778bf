package envconfig

import (
	"fmt"
	"net/url"

	"github.com/caarlos0/env/v11"
)

type mongoEnv struct {
	Host            string `env:"MONGO_HOST,required"`
	Port            int    `env:"MONGO_PORT,required"`
	User            string `env:"MONGO_INITDB_ROOT_USERNAME,required"`
	Password        string `env:"MONGO_INITDB_ROOT_PASSWORD,required"`
	DBName          string `env:"MONGO_DATABASE,required"`
	AuthDB          string `env:"MONGO_AUTH_DB" envDefault:"admin"`
	ReplicaSet      string `env:"MONGO_REPLICA_SET"`
	PartsCollection string `env:"MONGO_PARTS_COLLECTION" envDefault:"parts"`
	BootstrapParts  bool   `env:"MONGO_BOOTSTRAP_PARTS" envDefault:"false"`
}

type mongo struct {
	raw mongoEnv
}

func NewMongoConfig() (*mongo, error) {
	var raw mongoEnv
	if err := env.Parse(&raw); err != nil {
		return nil, err
	}
	return &mongo{raw: raw}, nil
}

func (cfg *mongo) DatabaseName() string    { return cfg.raw.DBName }
func (cfg *mongo) PartsCollection() string { return cfg.raw.PartsCollection }
func (cfg *mongo) BootstrapParts() bool    { return cfg.raw.BootstrapParts }

// Transactional reports whether multi-document transactions are available.
func (cfg *mongo) Transactional() bool { return cfg.raw.ReplicaSet != "" }

func (cfg *mongo) DSN() string {
	query := url.Values{}
	query.Set("authSource", cfg.raw.AuthDB)
	if cfg.raw.ReplicaSet != "" {
		query.Set("replicaSet", cfg.raw.ReplicaSet)
	}

	return fmt.Sprintf(
		"mongodb://%s:%s@%s:%d/%s?%s",
		url.QueryEscape(cfg.raw.User),
		url.QueryEscape(cfg.raw.Password),
		cfg.raw.Host,
		cfg.raw.Port,
		cfg.raw.DBName,
		query.Encode(),
	)
}
