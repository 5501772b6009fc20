package domain

import "path/filepath"

const (
	// BaseDirName is the name of the directory holding the local cache.
	BaseDirName = ".fastrag"

	// CacheDirName is the name of the payload directory inside the base directory.
	CacheDirName = "cache"

	// MetadataFileName is the name of the metadata snapshot inside the base directory.
	MetadataFileName = "metadata.json"

	// VectorDirName is the name of the local vector store directory inside the base directory.
	VectorDirName = "vectors"

	// EnvFileName is the name of the optional dotenv file next to the configuration.
	EnvFileName = ".env"

	// ConfigEnvVar overrides configuration discovery.
	ConfigEnvVar = "FASTRAG_CONFIG_PATH"

	// DirPerm is the default permission for directories (rwxr-x---).
	DirPerm = 0o750

	// FilePerm is the default permission for files (rw-r--r--).
	FilePerm = 0o644

	// PrivateFilePerm is the default permission for private files (rw-------).
	PrivateFilePerm = 0o600
)

// ConfigFileNames lists the file names searched for when discovering the configuration.
var ConfigFileNames = []string{"fastrag.yaml", "fastrag.yml", "config.yaml"}

// DefaultBasePath returns the default root directory for cached data.
func DefaultBasePath() string {
	return BaseDirName
}

// PayloadDir returns the payload directory under base.
func PayloadDir(base string) string {
	return filepath.Join(base, CacheDirName)
}

// MetadataPath returns the metadata snapshot path under base.
func MetadataPath(base string) string {
	return filepath.Join(base, MetadataFileName)
}

// VectorStorePath returns the local vector store directory under base.
func VectorStorePath(base string) string {
	return filepath.Join(base, VectorDirName)
}
