package constants

const (
	DirPermissionOwnerRWX = 0700
	FilePermissionOwnerRW = 0600
)

const (
	LockFileSuffix = ".lock"
	TempFileSuffix = ".tmp"
)
