package valueobject

// SyncOptions controls what the diff is allowed to do on a target.
type SyncOptions struct {
	OverwriteAll bool `yaml:"overwriteAll" json:"overwriteAll"`
	DeleteExtra  bool `yaml:"deleteExtra" json:"deleteExtra"`
}

func DefaultSyncOptions() SyncOptions {
	return SyncOptions{OverwriteAll: true, DeleteExtra: false}
}
