package domain

const (
	// Size constants
	KB = 1024
	MB = 1024 * KB

	// DEFAULT_MAX_FILE_SIZE is the max upload size of an environment-derived storage config
	DEFAULT_MAX_FILE_SIZE int64 = 50 * MB

	// DEFAULT_REGION is used when neither the record nor the environment carries a region
	DEFAULT_REGION = "us-east-1"

	// SYSTEM_OWNER_ID is the synthetic owner used by single-object conversion
	SYSTEM_OWNER_ID = "system"

	// METADATA_ORIGINAL_FILENAME is the object metadata key carrying the name a file was uploaded under
	METADATA_ORIGINAL_FILENAME = "original-filename"
)

// DefaultAllowedFileTypes is the allow-list of an environment-derived storage config
var DefaultAllowedFileTypes = []string{"image/*", "video/*", "application/pdf", "text/*"}
