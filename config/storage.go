package config

// FileConfig holds the storage roots and garbage collection settings
// consumed by the upload, archive and gc services.
type FileConfig struct {
	SaveFolder        string `json:"save_folder"`         // 文件存储目录
	TempFolder        string `json:"temp_folder"`         // 分块临时目录
	ZipFolder         string `json:"zip_folder"`          // 压缩包目录
	PerformGC         bool   `json:"perform_gc"`          // false disables every gc function
	TempExpiredAt     int    `json:"temp_expired_at"`     // hours
	ZipExpiredAt      int    `json:"zip_expired_at"`      // hours
	MaxFilenameLength int    `json:"max_filename_length"` // <= 0 keeps names untouched
}

// MirrorConfig describes the MinIO mirror and its task queue.
type MirrorConfig struct {
	Enabled  bool
	Host     string
	Port     string
	Username string
	Password string
	UseSSL   bool
	Bucket   string
}

// SMTPConfig is used by the mail reporter.
type SMTPConfig struct {
	Host string
	Port string
	User string
	Pass string
	From string
	TLS  bool
	To   []string
}

// File returns the file storage settings.
func (c Config) File() FileConfig {
	return FileConfig{
		SaveFolder:        c.SaveFolder,
		TempFolder:        c.TempFolder,
		ZipFolder:         c.ZipFolder,
		PerformGC:         c.PerformGC,
		TempExpiredAt:     c.TempExpiredAt,
		ZipExpiredAt:      c.ZipExpiredAt,
		MaxFilenameLength: c.MaxFilenameLength,
	}
}

// Mirror returns the MinIO mirror settings.
func (c Config) Mirror() MirrorConfig {
	return MirrorConfig{
		Enabled:  c.MirrorEnabled,
		Host:     c.MinioHost,
		Port:     c.MinioPort,
		Username: c.MinioUsername,
		Password: c.MinioPassword,
		UseSSL:   c.MinioUseSSL,
		Bucket:   c.BucketName,
	}
}

// SMTP returns the alert mail settings.
func (c Config) SMTP() SMTPConfig {
	return SMTPConfig{
		Host: c.SMTPHost,
		Port: c.SMTPPort,
		User: c.SMTPUser,
		Pass: c.SMTPPass,
		From: c.SMTPFrom,
		TLS:  c.SMTPTLS,
		To:   c.AlertAddress,
	}
}

// Configured reports whether every field needed to send mail is set.
func (s SMTPConfig) Configured() bool {
	return s.Host != "" && s.Port != "" && s.From != "" && len(s.To) > 0
}
