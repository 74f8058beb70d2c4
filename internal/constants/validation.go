package constants

const (
	GeneratedPassLen   = 10
	MaxUploadSizeBytes = 20 << 20
)

// Media
const (
	ProfilePictureSize   = 200
	UploadTypeProfilePic = "PROFILE-PICTURE"
)
