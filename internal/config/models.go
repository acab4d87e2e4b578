package config

// DatasetConfig represents the configuration for the training dataset
type DatasetConfig struct {
	Path        string
	SummaryPath string
}

// StoreConfig represents the configuration for the triage store
type StoreConfig struct {
	Type       string
	SQLitePath string
	MySQLDSN   string
}

// GmailConfig represents the configuration for the Gmail import
type GmailConfig struct {
	Enabled         bool
	CredentialsFile string
	TokenFile       string
	PollInterval    string
	MaxResults      int64
	Query           string
}

// TriageConfig represents the configuration for the triage service
type TriageConfig struct {
	UserID      int64
	MaxBodySize int
}

// GetDataset returns the dataset configuration
func (c *Config) GetDataset() DatasetConfig {
	return DatasetConfig{
		Path:        c.GetString("dataset.path"),
		SummaryPath: c.GetString("dataset.summary_path"),
	}
}

// GetStore returns the store configuration
func (c *Config) GetStore() StoreConfig {
	return StoreConfig{
		Type:       c.GetString("store.type"),
		SQLitePath: c.GetString("store.sqlite_path"),
		MySQLDSN:   c.GetString("store.mysql_dsn"),
	}
}

// GetGmail returns the Gmail configuration
func (c *Config) GetGmail() GmailConfig {
	return GmailConfig{
		Enabled:         c.GetBool("gmail.enabled"),
		CredentialsFile: c.GetString("gmail.credentials_file"),
		TokenFile:       c.GetString("gmail.token_file"),
		PollInterval:    c.GetString("gmail.poll_interval"),
		MaxResults:      c.GetInt64("gmail.max_results"),
		Query:           c.GetString("gmail.query"),
	}
}

// GetTriage returns the triage configuration
func (c *Config) GetTriage() TriageConfig {
	return TriageConfig{
		UserID:      c.GetInt64("triage.user_id"),
		MaxBodySize: c.GetInt("triage.max_body_size"),
	}
}
