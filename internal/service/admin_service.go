package service

import (
	"excel_interviewer_backend/internal/config"
	"excel_interviewer_backend/internal/util"

	"golang.org/x/crypto/bcrypt"
)

// AdminService authenticates the single configured admin credential and
// issues JWTs for the admin API surface.
type AdminService struct {
	cfg *config.Config
}

func NewAdminService(cfg *config.Config) *AdminService {
	return &AdminService{cfg: cfg}
}

func (s *AdminService) Login(username, password string) (string, error) {
	if username == "" || password == "" {
		return "", util.ErrInvalidCredentials
	}
	if username != s.cfg.Admin.Username {
		return "", util.ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(s.cfg.Admin.PasswordHash), []byte(password)); err != nil {
		return "", util.ErrInvalidCredentials
	}

	return util.GenerateJWT(username, "admin", s.cfg.JWT.Secret, s.cfg.JWT.ExpireTime)
}
