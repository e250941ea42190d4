package user

import "context"

// Service is the account and authentication use-case layer.
type Service interface {
	Register(ctx context.Context, req RegisterRequest) (*AuthResponse, error)
	Login(ctx context.Context, req LoginRequest) (*AuthResponse, error)

	// Authenticate resolves a bearer token to its user.
	Authenticate(ctx context.Context, token string) (*User, error)

	Profile(ctx context.Context, u *User) (*ProfileDTO, error)
	UpdateProfile(ctx context.Context, u *User, req UpdateProfileRequest) (*UserDTO, error)
}
