package events

// SocialType identifica o método de cadastro.
type SocialType string

const (
	SocialLocal  SocialType = "LOCAL"
	SocialGoogle SocialType = "GOOGLE"
	SocialKakao  SocialType = "KAKAO"
)

// User é o perfil mínimo mantido em cache pela sessão.
type User struct {
	ID       string `json:"id"`
	Email    string `json:"email"`
	Nickname string `json:"nickname"`
}

type SignupRequest struct {
	Email      string     `json:"email"`
	Password   string     `json:"password,omitempty"`
	Nickname   string     `json:"nickname"`
	SocialType SocialType `json:"social_type"`
	SocialID   *string    `json:"social_id,omitempty"`
}

type SignupResponse struct {
	UserID            string `json:"user_id"`
	Email             string `json:"email"`
	Nickname          string `json:"nickname"`
	VerificationToken string `json:"verification_token,omitempty"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// AuthUser é o usuário no formato devolvido pelos endpoints de auth.
type AuthUser struct {
	UserID   string `json:"user_id"`
	Email    string `json:"email"`
	Nickname string `json:"nickname"`
}

// AuthPayload é o corpo "data" de login/refresh/callback do Google.
type AuthPayload struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token,omitempty"`
	User         *AuthUser `json:"user,omitempty"`
	IsNewUser    bool      `json:"is_new_user,omitempty"`
}

type AuthResponse struct {
	Data AuthPayload `json:"data"`
}

type SendVerificationCodeRequest struct {
	Email string `json:"email"`
}

type VerifyCodeRequest struct {
	Email string `json:"email"`
	Code  string `json:"code"`
}

type VerifyCodeResponse struct {
	Verified bool   `json:"verified"`
	Message  string `json:"message,omitempty"`
}

type Profile struct {
	UserID     string     `json:"user_id"`
	Email      string     `json:"email"`
	Nickname   string     `json:"nickname"`
	Points     int64      `json:"points"`
	SocialType SocialType `json:"social_type,omitempty"`
	CreatedAt  string     `json:"created_at,omitempty"`
}

type MyRanking struct {
	Rank       int   `json:"rank"`
	Points     int64 `json:"points"`
	TotalUsers int   `json:"total_users"`
}

type UpdateNicknameRequest struct {
	Nickname string `json:"nickname"`
}

type UpdateNicknameResponse struct {
	Nickname string `json:"nickname"`
}

type UpdatePasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

type RankingEntry struct {
	Rank     int    `json:"rank"`
	Nickname string `json:"nickname"`
	Points   int64  `json:"points"`
}

type RankingResponse struct {
	TotalCount int            `json:"total_count"`
	UpdatedAt  string         `json:"updated_at"`
	Rankings   []RankingEntry `json:"rankings"`
}
