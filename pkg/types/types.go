package types

// DBConfig holds the connection settings for the document store
type DBConfig struct {
	URI             string
	Timeout         int
	IdleConnTimeout int
	MaxPoolSize     uint64
	DBNamePrefix    string
}
