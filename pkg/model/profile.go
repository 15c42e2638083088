package model

// UserID is the identity provider's uid
type UserID string

// BrandingRecord is the branding sub-document stored in users/{uid}
type BrandingRecord struct {
	LogoURL  *string      `firestore:"logoUrl"`
	URL      string       `firestore:"url"`
	Position LogoPosition `firestore:"position"`
	Opacity  int          `firestore:"opacity"`
}

// UserProfile is the document stored in users/{uid}. The field names match the
// documents written by the web client so both can share a database.
type UserProfile struct {
	UID         UserID          `firestore:"uid"`
	Email       string          `firestore:"email"`
	DisplayName string          `firestore:"displayName"`
	PhotoURL    *string         `firestore:"photoURL"`
	Branding    *BrandingRecord `firestore:"branding"`
}
