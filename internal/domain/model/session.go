package model

// User is the authenticated account.
type User struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
	Phone string `json:"phone,omitempty"`
}

// Profile holds the user's skincare profile as stored by the vendor.
type Profile struct {
	FullName  string   `json:"full_name,omitempty"`
	Age       int      `json:"age,omitempty"`
	Gender    string   `json:"gender,omitempty"`
	SkinType  string   `json:"skin_type,omitempty"`
	Concerns  []string `json:"concerns,omitempty"`
	AvatarURL string   `json:"avatar_url,omitempty"`
}

// Session is the client-held authentication state.
type Session struct {
	User         *User    `json:"user,omitempty"`
	AccessToken  string   `json:"accessToken,omitempty"`
	RefreshToken string   `json:"refreshToken,omitempty"`
	Profile      *Profile `json:"profile,omitempty"`
}

// SignedIn reports whether s carries an access token.
func (s Session) SignedIn() bool { return s.AccessToken != "" }
