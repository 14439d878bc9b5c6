package main

// File permissions for consistent file/directory creation across the CLI.
const (
	// DirPerm is the permission mode for created directories (rwxr-xr-x).
	DirPerm = 0755

	// FilePerm is the permission mode for created files (rw-r--r--).
	FilePerm = 0644
)

// Timestamp layout for JSON output (CI/CD integration).
const TimeJSON = "2006-01-02T15:04:05Z07:00"
