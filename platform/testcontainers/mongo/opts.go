package mongo

type Option func(*Config)

func WithImageName(image string) Option {
	return func(c *Config) {
		c.ImageName = image
	}
}

func WithDatabase(database string) Option {
	return func(c *Config) {
		c.Database = database
	}
}

// WithReplicaSet names the single-node replica set; an empty name starts a
// standalone server without transaction support.
func WithReplicaSet(name string) Option {
	return func(c *Config) {
		c.ReplicaSet = name
	}
}

func WithLogger(logger Logger) Option {
	return func(c *Config) {
		c.Logger = logger
	}
}
