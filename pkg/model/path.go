package model

import "fmt"

// Blob store paths. Profile photo and logo paths are fixed per user so a new
// upload overwrites the previous one; generated images are namespaced by time.

func ProfilePhotoPath(uid UserID) string {
	return "profile_pics/" + string(uid)
}

func BrandingLogoPath(uid UserID) string {
	return "branding_logos/" + string(uid)
}

func GeneratedImagePath(uid UserID, unixMilli int64) string {
	return fmt.Sprintf("image_generations/%s/%d.jpg", uid, unixMilli)
}
