package service

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/devstudio/devstudio-server/internal/auth"
	"github.com/devstudio/devstudio-server/internal/db/repository"
	"github.com/devstudio/devstudio-server/internal/models"
)

const (
	minUsernameLength = 3
	minPasswordLength = 6

	// Invite code collisions are vanishingly rare but cheap to retry
	inviteCreateRetries = 3
)

// AdminService orchestrates administrator creation, login, and two-factor
// state transitions. Every operation returns either a value or one of the
// sentinel errors from errors.go; nothing is thrown across layers.
type AdminService struct {
	admins    *repository.AdminRepository
	invites   *repository.InviteRepository
	tokens    *auth.TokenIssuer
	inviteTTL time.Duration
}

// NewAdminService creates a new admin service
func NewAdminService(
	admins *repository.AdminRepository,
	invites *repository.InviteRepository,
	tokens *auth.TokenIssuer,
	inviteTTL time.Duration,
) *AdminService {
	return &AdminService{
		admins:    admins,
		invites:   invites,
		tokens:    tokens,
		inviteTTL: inviteTTL,
	}
}

// CreateAdminInput carries the fields for a new administrator
type CreateAdminInput struct {
	Username string
	Password string
	Email    string

	// Invite is an optional single-use invite code; with a valid one,
	// no bearer token is required.
	Invite string
}

// CreateAdmin creates an administrator record.
//
// The very first administrator is created without authentication (the
// bootstrap path). Every later creation needs either a superadmin bearer
// token (caller) or an unused, unexpired invite code. The bootstrap
// count-then-insert check is serialized at the store layer, so two
// concurrent calls against an empty store produce exactly one record.
func (s *AdminService) CreateAdmin(input CreateAdminInput, caller *auth.Claims) (*models.Admin, error) {
	if err := validateCredentials(input.Username, input.Password); err != nil {
		return nil, err
	}

	hash, err := auth.HashPassword(input.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	admin := &models.Admin{
		Username:     strings.TrimSpace(input.Username),
		PasswordHash: hash,
		Email:        strings.TrimSpace(input.Email),
		Role:         models.RoleAdmin,
	}

	// Bootstrap path: succeeds only while the store is empty
	err = s.admins.CreateFirst(admin)
	if err == nil {
		return admin, nil
	}
	if errors.Is(err, repository.ErrDuplicate) {
		return nil, ErrConflict
	}
	if !errors.Is(err, repository.ErrStoreNotEmpty) {
		return nil, err
	}

	// Invite path
	if input.Invite != "" {
		if err := s.redeemInvite(input.Invite, admin.Username); err != nil {
			return nil, err
		}
		return admin, s.insert(admin)
	}

	// Authenticated path: requires a superadmin caller
	if caller == nil {
		return nil, ErrUnauthorized
	}
	if caller.Role != models.RoleSuperadmin {
		return nil, ErrForbidden
	}

	return admin, s.insert(admin)
}

func (s *AdminService) insert(admin *models.Admin) error {
	err := s.admins.Create(admin)
	if errors.Is(err, repository.ErrDuplicate) {
		return ErrConflict
	}
	return err
}

func (s *AdminService) redeemInvite(code, redeemedBy string) error {
	invite, err := s.invites.GetByCode(strings.ToUpper(strings.TrimSpace(code)))
	if errors.Is(err, repository.ErrNotFound) {
		return ErrInviteInvalid
	}
	if err != nil {
		return err
	}

	if !invite.Usable(time.Now()) {
		return ErrInviteInvalid
	}

	// MarkUsed only matches an unused row; a concurrent redemption of the
	// same code loses here.
	if err := s.invites.MarkUsed(invite.ID, redeemedBy); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrInviteInvalid
		}
		return err
	}

	return nil
}

// Login authenticates an administrator and returns a signed session token.
//
// A missing account and a wrong password both yield ErrInvalidCredentials
// so responses cannot be used to enumerate usernames. When two-factor is
// enabled, the password and the TOTP code must both pass; there is no
// partial credit.
func (s *AdminService) Login(username, password, totpCode string) (string, error) {
	admin, err := s.admins.GetByUsername(username)
	if errors.Is(err, repository.ErrNotFound) {
		return "", ErrInvalidCredentials
	}
	if err != nil {
		return "", err
	}

	ok, err := auth.VerifyPassword(password, admin.PasswordHash)
	if err != nil || !ok {
		return "", ErrInvalidCredentials
	}

	if admin.TwoFAEnabled {
		if totpCode == "" {
			return "", ErrTwoFactorRequired
		}
		if !auth.ValidateTOTP(admin.TwoFASecret, totpCode) {
			return "", ErrInvalidTwoFactorCode
		}
	}

	return s.tokens.Issue(admin.ID, admin.Username, admin.Role)
}

// TwoFactorSetup holds the provisioning payload returned by Setup2FA
type TwoFactorSetup struct {
	OTPAuth string
	QR      string
}

// Setup2FA provisions a pending TOTP secret for an administrator. The
// secret is stored immediately but twoFAEnabled stays false until the
// administrator confirms a code via Enable2FA.
func (s *AdminService) Setup2FA(adminID int64) (*TwoFactorSetup, error) {
	admin, err := s.admins.GetByID(adminID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	if admin.TwoFAEnabled {
		return nil, ErrTwoFactorAlreadyEnabled
	}

	key, err := auth.GenerateTOTPKey(admin.Username)
	if err != nil {
		return nil, err
	}

	qr, err := key.QRCodeDataURI()
	if err != nil {
		return nil, err
	}

	if err := s.admins.UpdateTwoFactor(admin.ID, false, key.Secret); err != nil {
		return nil, err
	}

	return &TwoFactorSetup{OTPAuth: key.OTPAuth, QR: qr}, nil
}

// Enable2FA confirms a pending TOTP secret and turns two-factor on.
// A wrong code leaves the secret pending; retries are unconstrained.
func (s *AdminService) Enable2FA(adminID int64, code string) error {
	admin, err := s.admins.GetByID(adminID)
	if errors.Is(err, repository.ErrNotFound) {
		return ErrTwoFactorNotConfigured
	}
	if err != nil {
		return err
	}

	if admin.TwoFASecret == "" {
		return ErrTwoFactorNotConfigured
	}

	if !auth.ValidateTOTP(admin.TwoFASecret, code) {
		return ErrInvalidTwoFactorCode
	}

	return s.admins.UpdateTwoFactor(admin.ID, true, admin.TwoFASecret)
}

// Disable2FA turns two-factor off and clears the stored secret.
// Requires a valid code against the active secret.
func (s *AdminService) Disable2FA(adminID int64, code string) error {
	admin, err := s.admins.GetByID(adminID)
	if errors.Is(err, repository.ErrNotFound) {
		return ErrTwoFactorNotConfigured
	}
	if err != nil {
		return err
	}

	if !admin.TwoFAEnabled || admin.TwoFASecret == "" {
		return ErrTwoFactorNotConfigured
	}

	if !auth.ValidateTOTP(admin.TwoFASecret, code) {
		return ErrInvalidTwoFactorCode
	}

	return s.admins.UpdateTwoFactor(admin.ID, false, "")
}

// ListAdmins lists all administrators
func (s *AdminService) ListAdmins() ([]*models.Admin, error) {
	return s.admins.List()
}

// CreateInvite mints a single-use invite code on behalf of a superadmin
func (s *AdminService) CreateInvite(createdBy int64) (*models.InviteToken, error) {
	for i := 0; i < inviteCreateRetries; i++ {
		code, err := auth.GenerateInviteCode()
		if err != nil {
			return nil, err
		}

		invite := &models.InviteToken{
			Code:      code,
			CreatedBy: createdBy,
			ExpiresAt: time.Now().Add(s.inviteTTL),
		}

		err = s.invites.Create(invite)
		if err == nil {
			return invite, nil
		}
		if !errors.Is(err, repository.ErrDuplicate) {
			return nil, err
		}
	}

	return nil, fmt.Errorf("failed to generate a unique invite code")
}

// SeedInitialAdmin creates a default administrator when the store is
// empty. Used at startup in non-production environments only; an already
// populated store is not an error.
func (s *AdminService) SeedInitialAdmin(username, password, email string) (bool, error) {
	hash, err := auth.HashPassword(password)
	if err != nil {
		return false, fmt.Errorf("failed to hash password: %w", err)
	}

	admin := &models.Admin{
		Username:     username,
		PasswordHash: hash,
		Email:        email,
		Role:         models.RoleAdmin,
	}

	err = s.admins.CreateFirst(admin)
	if errors.Is(err, repository.ErrStoreNotEmpty) {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	return true, nil
}

func validateCredentials(username, password string) error {
	var errs []string
	if len(strings.TrimSpace(username)) < minUsernameLength {
		errs = append(errs, "Username too short")
	}
	if len(password) < minPasswordLength {
		errs = append(errs, "Password too short")
	}
	if len(errs) > 0 {
		return &ValidationError{Errors: errs}
	}
	return nil
}
