package dto

type UpdateProfileRequest struct {
	DisplayName *string `json:"display_name"`
	AvatarURL   *string `json:"avatar_url"`
}

type AvatarUploadRequest struct {
	ContentType string `json:"content_type"`
}
